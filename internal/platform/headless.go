package platform

import (
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"
)

// Headless 不创建真实窗口的适配器：记录窗口属性和调用顺序。
// 用于没有原生实现的平台，以及测试。
type Headless struct {
	log  *zap.Logger
	caps Capabilities

	mu      sync.Mutex
	kiosk   bool
	journal []string
	sink    EventSink
	started bool
	closed  bool

	overlay *HeadlessWindow
	catch   *HeadlessWindow
}

// NewHeadless 创建无窗口适配器
func NewHeadless(log *zap.Logger, caps Capabilities) *Headless {
	h := &Headless{log: log, caps: caps}
	h.overlay = &HeadlessWindow{name: "overlay", owner: h, ignore: true}
	h.catch = &HeadlessWindow{name: "catch", owner: h, ignore: false}
	return h
}

// Overlay 覆盖层窗口
func (h *Headless) Overlay() Window { return h.overlay }

// Catch 捕获窗口
func (h *Headless) Catch() Window { return h.catch }

// OverlayWindow 具体类型，测试读取状态用
func (h *Headless) OverlayWindow() *HeadlessWindow { return h.overlay }

// CatchWindow 具体类型，测试读取状态用
func (h *Headless) CatchWindow() *HeadlessWindow { return h.catch }

// SetKiosk 切换 kiosk 模式
func (h *Headless) SetKiosk(on bool) {
	h.mu.Lock()
	h.kiosk = on
	h.mu.Unlock()
	h.record("adapter", fmt.Sprintf("kiosk=%v", on))
}

// Kiosk 是否处于 kiosk 模式
func (h *Headless) Kiosk() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.kiosk
}

// Capabilities 平台特性
func (h *Headless) Capabilities() Capabilities { return h.caps }

// Start 记录事件接收方
func (h *Headless) Start(sink EventSink) error {
	h.mu.Lock()
	h.sink = sink
	h.started = true
	h.mu.Unlock()
	h.log.Debug("无窗口适配器已启动")
	return nil
}

// Sink 已注册的事件接收方（用于模拟输入）
func (h *Headless) Sink() EventSink {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sink
}

// Close 关闭
func (h *Headless) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.record("adapter", "close")
}

// Closed 是否已关闭
func (h *Headless) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Journal 调用记录，形如 "overlay:show"
func (h *Headless) Journal() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.journal...)
}

// ResetJournal 清空调用记录
func (h *Headless) ResetJournal() {
	h.mu.Lock()
	h.journal = nil
	h.mu.Unlock()
}

func (h *Headless) record(who, what string) {
	h.mu.Lock()
	h.journal = append(h.journal, who+":"+what)
	h.mu.Unlock()
	if h.log != nil {
		h.log.Debug("window call", zap.String("window", who), zap.String("call", what))
	}
}

// HeadlessWindow 内存中的窗口状态
type HeadlessWindow struct {
	name  string
	owner *Headless

	mu        sync.Mutex
	bounds    image.Rectangle
	ignore    bool
	focusable bool
	focused   bool
	visible   bool
	frames    int
	lastFrame *image.RGBA
}

// SetBounds 设置位置尺寸
func (w *HeadlessWindow) SetBounds(r image.Rectangle) {
	w.mu.Lock()
	w.bounds = r
	w.mu.Unlock()
	w.owner.record(w.name, fmt.Sprintf("bounds=%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy()))
}

// Bounds 当前位置尺寸
func (w *HeadlessWindow) Bounds() image.Rectangle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

// SetIgnoreInput 切换鼠标穿透
func (w *HeadlessWindow) SetIgnoreInput(ignore bool) {
	w.mu.Lock()
	w.ignore = ignore
	w.mu.Unlock()
	w.owner.record(w.name, fmt.Sprintf("ignore=%v", ignore))
}

// IgnoresInput 是否穿透
func (w *HeadlessWindow) IgnoresInput() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ignore
}

// SetFocusable 切换可聚焦
func (w *HeadlessWindow) SetFocusable(focusable bool) {
	w.mu.Lock()
	w.focusable = focusable
	if !focusable {
		w.focused = false
	}
	w.mu.Unlock()
	w.owner.record(w.name, fmt.Sprintf("focusable=%v", focusable))
}

// Focusable 是否可聚焦
func (w *HeadlessWindow) Focusable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focusable
}

// Focus 获取焦点（不可聚焦时无效）
func (w *HeadlessWindow) Focus() {
	w.mu.Lock()
	w.focused = w.focusable
	w.mu.Unlock()
	w.owner.record(w.name, "focus")
}

// Focused 是否持有焦点
func (w *HeadlessWindow) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

// Blur 释放焦点
func (w *HeadlessWindow) Blur() {
	w.mu.Lock()
	w.focused = false
	w.mu.Unlock()
	w.owner.record(w.name, "blur")
}

// Show 显示
func (w *HeadlessWindow) Show() {
	w.mu.Lock()
	w.visible = true
	w.mu.Unlock()
	w.owner.record(w.name, "show")
}

// Hide 隐藏
func (w *HeadlessWindow) Hide() {
	w.mu.Lock()
	w.visible = false
	w.focused = false
	w.mu.Unlock()
	w.owner.record(w.name, "hide")
}

// Visible 是否可见
func (w *HeadlessWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// Present 记录最后一帧
func (w *HeadlessWindow) Present(frame *image.RGBA) {
	w.mu.Lock()
	w.frames++
	w.lastFrame = frame
	w.mu.Unlock()
}

// Frames 已提交的帧数
func (w *HeadlessWindow) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// LastFrame 最后提交的帧
func (w *HeadlessWindow) LastFrame() *image.RGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastFrame
}
