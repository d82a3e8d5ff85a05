//go:build windows

package platform

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procUpdateLayeredWindow   = user32.NewProc("UpdateLayeredWindow")
	procGetPointerType        = user32.NewProc("GetPointerType")
	procGetPointerTouchInfo   = user32.NewProc("GetPointerTouchInfo")
	procAllowSetForegroundWnd = user32.NewProc("AllowSetForegroundWindow")
	procIsWindow              = user32.NewProc("IsWindow")
)

const (
	wsExTopmost     = 0x00000008
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExLayered     = 0x00080000
	wsExNoActivate  = 0x08000000

	swHide           = 0
	swShowNoActivate = 4

	swpNoMove     = 0x0002
	swpNoSize     = 0x0001
	swpNoActivate = 0x0010
	swpFrameChg   = 0x0020

	wmDisplayChange = 0x007E
	wmMouseActivate = 0x0021
	wmPointerUpdate = 0x0245
	wmPointerDown   = 0x0246
	wmPointerUp     = 0x0247
	wmApp           = 0x8000

	maNoActivate = 3
	ulwAlpha     = 0x00000002
	acSrcOver    = 0x00
	acSrcAlpha   = 0x01
	ptTouch      = 2
	gwlExStyle   = -20
)

var hwndTopmost = win.HWND(^uintptr(0))

type blendFunction struct {
	BlendOp             byte
	BlendFlags          byte
	SourceConstantAlpha byte
	AlphaFormat         byte
}

type pointerInfo struct {
	PointerType           uint32
	PointerID             uint32
	FrameID               uint32
	PointerFlags          uint32
	SourceDevice          uintptr
	HwndTarget            uintptr
	PtPixelLocation       win.POINT
	PtHimetricLocation    win.POINT
	PtPixelLocationRaw    win.POINT
	PtHimetricLocationRaw win.POINT
	Time                  uint32
	HistoryCount          uint32
	InputData             int32
	KeyStates             uint32
	PerformanceCount      uint64
	ButtonChangeType      int32
}

type pointerTouchInfo struct {
	Info        pointerInfo
	TouchFlags  uint32
	TouchMask   uint32
	Contact     win.RECT
	ContactRaw  win.RECT
	Orientation uint32
	Pressure    uint32
}

// 窗口过程只能是包级函数，这里保存当前适配器
var (
	activeMu sync.Mutex
	active   *winAdapter
)

type winAdapter struct {
	log  *zap.Logger
	caps Capabilities

	mu    sync.Mutex
	queue []func()
	sink  EventSink
	kiosk bool

	overlay *nativeWindow
	catch   *nativeWindow

	ready chan error
	done  chan struct{}
}

// New 创建 Windows 适配器。窗口在 Start 时于独立的锁定线程上创建
func New(log *zap.Logger) (Adapter, error) {
	a := &winAdapter{
		log:   log,
		caps:  Capabilities{HideToReleaseFocus: true},
		ready: make(chan error, 1),
		done:  make(chan struct{}),
	}
	a.overlay = &nativeWindow{a: a, name: "overlay", ignore: true}
	a.catch = &nativeWindow{a: a, name: "catch"}
	return a, nil
}

func (a *winAdapter) Overlay() Window { return a.overlay }
func (a *winAdapter) Catch() Window { return a.catch }
func (a *winAdapter) Capabilities() Capabilities { return a.caps }

// SetKiosk Windows 下置顶已能压住任务栏，这里只记录状态
func (a *winAdapter) SetKiosk(on bool) {
	a.mu.Lock()
	a.kiosk = on
	a.mu.Unlock()
}

func (a *winAdapter) Kiosk() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.kiosk
}

// Start 启动窗口线程，等待窗口创建完成
func (a *winAdapter) Start(sink EventSink) error {
	activeMu.Lock()
	if active != nil {
		activeMu.Unlock()
		return errors.New("窗口适配器已启动")
	}
	active = a
	activeMu.Unlock()

	a.mu.Lock()
	a.sink = sink
	a.mu.Unlock()

	go a.loop()
	return <-a.ready
}

// Close 销毁窗口并结束消息循环
func (a *winAdapter) Close() {
	a.mu.Lock()
	started := a.overlay.hwnd != 0
	a.mu.Unlock()
	if !started {
		return
	}
	a.do(func() {
		win.DestroyWindow(a.overlay.hwnd)
		win.DestroyWindow(a.catch.hwnd)
		win.PostQuitMessage(0)
	})
	<-a.done
	activeMu.Lock()
	active = nil
	activeMu.Unlock()
}

// do 把操作排到窗口线程执行
func (a *winAdapter) do(fn func()) {
	a.mu.Lock()
	a.queue = append(a.queue, fn)
	hwnd := a.overlay.hwnd
	a.mu.Unlock()
	if hwnd != 0 {
		win.PostMessage(hwnd, wmApp, 0, 0)
	}
}

func (a *winAdapter) drain() {
	a.mu.Lock()
	q := a.queue
	a.queue = nil
	a.mu.Unlock()
	for _, fn := range q {
		fn()
	}
}

func (a *winAdapter) eventSink() EventSink {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sink
}

func (a *winAdapter) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(a.done)

	if err := a.createWindows(); err != nil {
		activeMu.Lock()
		active = nil
		activeMu.Unlock()
		a.ready <- err
		return
	}
	a.ready <- nil
	a.log.Info("覆盖层窗口已创建")

	// 创建前排队的操作
	a.drain()

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 {
			return
		}
		if ret == -1 {
			a.log.Error("GetMessage 失败")
			return
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func (a *winAdapter) createWindows() error {
	hInstance := win.GetModuleHandle(nil)
	className := syscall.StringToUTF16Ptr("ScreenmarkOverlay")
	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     hInstance,
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wc) == 0 {
		return errors.New("注册窗口类失败")
	}

	base := uint32(wsExLayered | wsExTopmost | wsExToolWindow | wsExNoActivate)
	overlay := win.CreateWindowEx(base|wsExTransparent, className,
		syscall.StringToUTF16Ptr("screenmark"), win.WS_POPUP,
		0, 0, 1, 1, 0, 0, hInstance, nil)
	if overlay == 0 {
		return errors.New("创建覆盖层窗口失败")
	}
	catch := win.CreateWindowEx(base, className,
		syscall.StringToUTF16Ptr("screenmark-pen"), win.WS_POPUP,
		0, 0, 1, 1, 0, 0, hInstance, nil)
	if catch == 0 {
		win.DestroyWindow(overlay)
		return errors.New("创建捕获窗口失败")
	}

	a.mu.Lock()
	a.overlay.hwnd = overlay
	a.catch.hwnd = catch
	a.mu.Unlock()
	return nil
}

func (a *winAdapter) windowFor(hwnd win.HWND) *nativeWindow {
	switch hwnd {
	case a.overlay.hwnd:
		return a.overlay
	case a.catch.hwnd:
		return a.catch
	}
	return nil
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	activeMu.Lock()
	a := active
	activeMu.Unlock()
	if a == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}
	w := a.windowFor(hwnd)

	switch msg {
	case wmApp:
		a.drain()
		return 0

	case wmMouseActivate:
		if w == nil || !w.isFocusable() {
			return maNoActivate
		}

	case wmDisplayChange:
		if sink := a.eventSink(); sink != nil && w == a.overlay {
			sink.DisplayChanged()
		}
		return 0

	case win.WM_LBUTTONDOWN:
		sink := a.eventSink()
		if sink == nil {
			break
		}
		if w == a.catch {
			sink.CatchClicked()
			return 0
		}
		win.SetCapture(hwnd)
		sink.PointerDown(Pointer{Pos: lParamPoint(lParam)})
		return 0

	case win.WM_MOUSEMOVE:
		if w == a.overlay {
			if sink := a.eventSink(); sink != nil {
				sink.PointerMove(Pointer{Pos: lParamPoint(lParam)})
			}
			return 0
		}

	case win.WM_LBUTTONUP:
		if w == a.overlay {
			win.ReleaseCapture()
			if sink := a.eventSink(); sink != nil {
				sink.PointerUp(Pointer{Pos: lParamPoint(lParam)})
			}
			return 0
		}

	case wmPointerDown, wmPointerUpdate, wmPointerUp:
		if w == a.overlay {
			if p, ok := touchPointer(hwnd, wParam); ok {
				if sink := a.eventSink(); sink != nil {
					switch msg {
					case wmPointerDown:
						sink.PointerDown(p)
					case wmPointerUpdate:
						sink.PointerMove(p)
					default:
						sink.PointerUp(p)
					}
				}
				return 0
			}
		}

	case win.WM_KEYDOWN:
		if w == a.overlay {
			if sink := a.eventSink(); sink != nil {
				sink.KeyDown(Key{
					Code:  int(wParam),
					Ctrl:  win.GetKeyState(win.VK_CONTROL) < 0,
					Shift: win.GetKeyState(win.VK_SHIFT) < 0,
					Alt:   win.GetKeyState(win.VK_MENU) < 0,
				})
			}
			return 0
		}
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func lParamPoint(lParam uintptr) image.Point {
	return image.Pt(int(int16(win.LOWORD(uint32(lParam)))), int(int16(win.HIWORD(uint32(lParam)))))
}

// touchPointer 读取触摸接触面积；非触摸指针返回 false，交给默认处理生成鼠标消息
func touchPointer(hwnd win.HWND, wParam uintptr) (Pointer, bool) {
	if procGetPointerType.Find() != nil {
		return Pointer{}, false
	}
	id := uint32(wParam & 0xFFFF)
	var kind uint32
	if r, _, _ := procGetPointerType.Call(uintptr(id), uintptr(unsafe.Pointer(&kind))); r == 0 || kind != ptTouch {
		return Pointer{}, false
	}
	var info pointerTouchInfo
	if r, _, _ := procGetPointerTouchInfo.Call(uintptr(id), uintptr(unsafe.Pointer(&info))); r == 0 {
		return Pointer{}, false
	}

	pt := info.Info.PtPixelLocation
	win.ScreenToClient(hwnd, &pt)
	w := float64(info.Contact.Right - info.Contact.Left)
	h := float64(info.Contact.Bottom - info.Contact.Top)
	return Pointer{
		Pos:    image.Pt(int(pt.X), int(pt.Y)),
		Touch:  true,
		Radius: max(w, h) / 2,
	}, true
}

// nativeWindow 分层弹出窗口。属性镜像在 Go 侧，写操作排到窗口线程
type nativeWindow struct {
	a    *winAdapter
	name string
	hwnd win.HWND

	mu        sync.Mutex
	bounds    image.Rectangle
	ignore    bool
	focusable bool
	visible   bool
	frame     *image.RGBA
	previous  win.HWND
}

func (w *nativeWindow) SetBounds(r image.Rectangle) {
	w.mu.Lock()
	w.bounds = r
	w.mu.Unlock()
	w.a.do(func() {
		win.SetWindowPos(w.hwnd, hwndTopmost, int32(r.Min.X), int32(r.Min.Y),
			int32(r.Dx()), int32(r.Dy()), swpNoActivate)
		w.paint()
	})
}

func (w *nativeWindow) Bounds() image.Rectangle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

func (w *nativeWindow) SetIgnoreInput(ignore bool) {
	w.mu.Lock()
	w.ignore = ignore
	w.mu.Unlock()
	w.a.do(func() { w.applyExStyle() })
}

func (w *nativeWindow) IgnoresInput() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ignore
}

func (w *nativeWindow) SetFocusable(focusable bool) {
	w.mu.Lock()
	w.focusable = focusable
	w.mu.Unlock()
	w.a.do(func() { w.applyExStyle() })
}

func (w *nativeWindow) Focusable() bool { return w.isFocusable() }

func (w *nativeWindow) isFocusable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focusable
}

func (w *nativeWindow) applyExStyle() {
	w.mu.Lock()
	ignore, focusable := w.ignore, w.focusable
	w.mu.Unlock()

	style := uint32(win.GetWindowLong(w.hwnd, gwlExStyle))
	style &^= wsExTransparent | wsExNoActivate
	if ignore {
		style |= wsExTransparent
	}
	if !focusable {
		style |= wsExNoActivate
	}
	win.SetWindowLong(w.hwnd, gwlExStyle, int32(style))
	win.SetWindowPos(w.hwnd, hwndTopmost, 0, 0, 0, 0, swpNoMove|swpNoSize|swpNoActivate|swpFrameChg)
}

// Focus 记下当前前台窗口，Blur 时还给它
func (w *nativeWindow) Focus() {
	w.a.do(func() {
		if !w.isFocusable() {
			return
		}
		if fg := win.GetForegroundWindow(); fg != w.hwnd {
			w.mu.Lock()
			w.previous = fg
			w.mu.Unlock()
		}
		procAllowSetForegroundWnd.Call(uintptr(windows.GetCurrentProcessId()))
		win.SetForegroundWindow(w.hwnd)
		win.SetFocus(w.hwnd)
	})
}

func (w *nativeWindow) Blur() {
	w.a.do(func() {
		w.mu.Lock()
		prev := w.previous
		w.previous = 0
		w.mu.Unlock()
		if ok, _, _ := procIsWindow.Call(uintptr(prev)); prev != 0 && ok != 0 {
			win.SetForegroundWindow(prev)
		}
	})
}

func (w *nativeWindow) Show() {
	w.mu.Lock()
	w.visible = true
	w.mu.Unlock()
	w.a.do(func() {
		win.ShowWindow(w.hwnd, swShowNoActivate)
		win.SetWindowPos(w.hwnd, hwndTopmost, 0, 0, 0, 0, swpNoMove|swpNoSize|swpNoActivate)
		w.paint()
	})
}

func (w *nativeWindow) Hide() {
	w.mu.Lock()
	w.visible = false
	w.mu.Unlock()
	w.a.do(func() { win.ShowWindow(w.hwnd, swHide) })
}

func (w *nativeWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// Present 只保留最新一帧，窗口线程上合成
func (w *nativeWindow) Present(frame *image.RGBA) {
	w.mu.Lock()
	w.frame = frame
	w.mu.Unlock()
	w.a.do(w.paint)
}

// paint 用 UpdateLayeredWindow 把预乘 alpha 的帧贴到窗口
func (w *nativeWindow) paint() {
	w.mu.Lock()
	frame, bounds := w.frame, w.bounds
	w.mu.Unlock()
	if frame == nil || bounds.Empty() {
		return
	}
	if err := updateLayered(w.hwnd, frame, bounds.Min); err != nil {
		w.a.log.Debug("UpdateLayeredWindow 失败", zap.String("window", w.name), zap.Error(err))
	}
}

func updateLayered(hwnd win.HWND, frame *image.RGBA, origin image.Point) error {
	width, height := frame.Rect.Dx(), frame.Rect.Dy()

	screen := win.GetDC(0)
	defer win.ReleaseDC(0, screen)
	mem := win.CreateCompatibleDC(screen)
	defer win.DeleteDC(mem)

	bi := win.BITMAPINFOHEADER{
		BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
		BiWidth:       int32(width),
		BiHeight:      -int32(height),
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	var bits unsafe.Pointer
	bmp := win.CreateDIBSection(mem, &bi, win.DIB_RGB_COLORS, &bits, 0, 0)
	if bmp == 0 {
		return errors.New("CreateDIBSection 失败")
	}
	defer win.DeleteObject(win.HGDIOBJ(bmp))
	old := win.SelectObject(mem, win.HGDIOBJ(bmp))
	defer win.SelectObject(mem, old)

	// RGBA → BGRA，image.RGBA 本身就是预乘的
	dst := unsafe.Slice((*byte)(bits), width*height*4)
	for y := 0; y < height; y++ {
		src := frame.Pix[y*frame.Stride : y*frame.Stride+width*4]
		row := dst[y*width*4 : (y+1)*width*4]
		for x := 0; x < width*4; x += 4 {
			row[x] = src[x+2]
			row[x+1] = src[x+1]
			row[x+2] = src[x]
			row[x+3] = src[x+3]
		}
	}

	pos := win.POINT{X: int32(origin.X), Y: int32(origin.Y)}
	size := win.SIZE{CX: int32(width), CY: int32(height)}
	var zero win.POINT
	blend := blendFunction{BlendOp: acSrcOver, SourceConstantAlpha: 255, AlphaFormat: acSrcAlpha}
	r, _, err := procUpdateLayeredWindow.Call(
		uintptr(hwnd), uintptr(screen),
		uintptr(unsafe.Pointer(&pos)), uintptr(unsafe.Pointer(&size)),
		uintptr(mem), uintptr(unsafe.Pointer(&zero)),
		0, uintptr(unsafe.Pointer(&blend)), ulwAlpha,
	)
	if r == 0 {
		return fmt.Errorf("UpdateLayeredWindow: %w", err)
	}
	return nil
}

// Position 系统光标位置，作为 gohook 之外的兜底来源
func (a *winAdapter) Position() (image.Point, error) {
	var pt win.POINT
	if !win.GetCursorPos(&pt) {
		return image.Point{}, errors.New("GetCursorPos 失败")
	}
	return image.Pt(int(pt.X), int(pt.Y)), nil
}
