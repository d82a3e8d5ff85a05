package overlay

import (
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"screenmark/internal/content"
	"screenmark/internal/display"
	"screenmark/internal/ipc"
	"screenmark/internal/platform"
)

// Deps 状态机的协作方
type Deps struct {
	Log        *zap.Logger
	Adapter    platform.Adapter
	Displays   display.Source
	Cursor     display.Cursor
	Settings   Settings
	Intercepts Intercepts
	Scheduler  Scheduler
	Bus        *ipc.Bus
	Content    Content
	// Forward 把被拦截的按键还给下层应用，可为空
	Forward func(code int) error
}

// Machine 绘制开关状态机
type Machine struct {
	log        *zap.Logger
	adapter    platform.Adapter
	displays   display.Source
	cursor     display.Cursor
	settings   Settings
	intercepts Intercepts
	sched      Scheduler
	bus        *ipc.Bus
	content    Content
	forward    func(code int) error

	state     OverlayState
	mode      Mode
	current   display.Display
	signature string

	// applying 一次切换的副作用还没全部落地（包括延迟的隐藏再显示）
	applying bool
	awaiting bool // 等待隐藏再显示的延迟回调
	pending  *bool
	settled  []func()
	cancels  []func()

	flushing  bool
	last      *image.RGBA
	listeners []Listener
	started   bool
	closed    bool
}

// NewMachine 创建状态机，初始为穿透状态。锁定的显示器从 Settings 读取
func NewMachine(d Deps) *Machine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		log:        log,
		adapter:    d.Adapter,
		displays:   d.Displays,
		cursor:     d.Cursor,
		settings:   d.Settings,
		intercepts: d.Intercepts,
		sched:      d.Scheduler,
		bus:        d.Bus,
		content:    d.Content,
		forward:    d.Forward,
		state:      OverlayState{LockedDisplayID: d.Settings.LockedDisplay()},
	}
}

// Subscribe 注册状态变化回调，立即以当前状态调用一次
func (m *Machine) Subscribe(l Listener) {
	m.listeners = append(m.listeners, l)
	l(m.state)
}

// State 当前状态
func (m *Machine) State() OverlayState { return m.state }

// Mode 当前窗口状态
func (m *Machine) Mode() Mode { return m.mode }

// Display 覆盖层当前所在的显示器
func (m *Machine) Display() display.Display { return m.current }

// Busy 是否有切换正在落地
func (m *Machine) Busy() bool { return m.applying }

// Start 首次定位窗口并显示，覆盖层总是以穿透状态启动
func (m *Machine) Start() {
	if m.started || m.closed {
		return
	}
	m.started = true

	m.applyPassThroughFlags()
	if d, ok := m.resolve(); ok {
		m.place(d)
	}
	m.signature = m.currentSignature()
	m.adapter.Overlay().Show()
	m.showCatch()
	m.log.Info("覆盖层已启动",
		zap.String("display", m.current.ID),
		zap.String("locked", m.state.LockedDisplayID))
	m.notify()
	m.flush()
}

// Toggle 切换绘制。切换正在落地时再来的 Toggle 挂起到落地后执行，不会连续翻转两次
func (m *Machine) Toggle() {
	if m.closed {
		return
	}
	if m.applying {
		// 相对落地后的目标翻转，两次连按互相抵消
		target := m.state.DrawingEnabled
		if m.pending != nil {
			target = *m.pending
		}
		want := !target
		m.pending = &want
		m.log.Debug("切换进行中，记下请求", zap.Bool("enabled", want))
		return
	}
	m.apply(!m.state.DrawingEnabled)
	m.flush()
}

// SetDrawing 显式打开或关闭绘制。切换正在落地时记下请求，落地后以最后一次为准
func (m *Machine) SetDrawing(enabled bool) {
	if m.closed {
		return
	}
	if m.applying {
		m.pending = &enabled
		return
	}
	if enabled != m.state.DrawingEnabled {
		m.apply(enabled)
	}
	m.flush()
}

// Clear 清空画布
func (m *Machine) Clear() {
	if m.closed {
		return
	}
	m.send(ipc.ClearCanvas())
	m.flush()
}

// LockDisplay 锁定到指定显示器，空串恢复跟随光标。立即移动窗口
func (m *Machine) LockDisplay(id string) error {
	if m.closed {
		return nil
	}
	if id != "" {
		displays, err := m.displays.Displays()
		if err != nil {
			return fmt.Errorf("列出显示器失败: %w", err)
		}
		if _, ok := display.Find(displays, id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownDisplay, id)
		}
	}
	if id == m.state.LockedDisplayID {
		return nil
	}

	m.state.LockedDisplayID = id
	m.settings.SetLockedDisplay(id)
	m.log.Debug("显示器锁定变更", zap.String("locked", id))

	if d, ok := m.resolve(); ok {
		m.relocate(d)
	}
	m.notify()
	m.flush()
	return nil
}

// DisplaysChanged 显示器拓扑变化：重新解析并重新定位。
// 只有锁定的显示器消失且正在绘制时才结束绘制
func (m *Machine) DisplaysChanged() {
	if m.closed {
		return
	}
	locked := m.state.LockedDisplayID
	d, ok := m.resolve()
	m.signature = m.currentSignature()
	if !ok {
		return
	}

	if locked != "" && m.state.LockedDisplayID == "" && m.state.DrawingEnabled {
		m.log.Warn("锁定的显示器已断开，结束绘制", zap.String("display", locked))
		m.SetDrawing(false)
		if m.state.DrawingEnabled {
			// 切换挂起中，先把窗口挪到新的显示器
			m.relocate(d)
			m.flush()
		}
		return
	}
	m.relocate(d)
	// 显示器列表变了，订阅方（托盘菜单）需要刷新
	m.notify()
	m.flush()
}

// FollowCursor 周期轮询：拓扑变化时重新解析；未锁定时光标移到另一个显示器，
// 不论是否在绘制，都把覆盖层搬过去
func (m *Machine) FollowCursor() {
	if m.closed || !m.started {
		return
	}
	if sig := m.currentSignature(); sig != "" && sig != m.signature {
		m.log.Debug("显示器拓扑变化", zap.String("signature", sig))
		m.DisplaysChanged()
		return
	}
	if m.applying {
		return
	}
	d, ok := m.resolve()
	if !ok {
		return
	}
	if d.ID == m.occupied().ID {
		m.flush()
		return
	}
	m.log.Debug("跟随光标切换显示器", zap.String("from", m.current.ID), zap.String("to", d.ID))
	m.relocate(d)
	m.flush()
}

// occupied 覆盖层窗口实际所在的显示器
func (m *Machine) occupied() display.Display {
	displays, err := m.displays.Displays()
	if err != nil {
		return m.current
	}
	if d, ok := display.Containing(displays, m.adapter.Overlay().Bounds()); ok {
		return d
	}
	return m.current
}

// Intercepted 拦截到翻页笔按键：关闭绘制，除 Escape 外把按键还给下层应用
func (m *Machine) Intercepted(code int) {
	if m.closed {
		return
	}
	m.log.Debug("拦截按键", zap.String("key", platform.KeyName(code)))
	m.SetDrawing(false)
	if code != platform.KeyEscape {
		m.forwardKey(code)
	}
	m.flush()
}

// Annotation 当前画布；已关闭绘制时返回关闭前最后一次的内容，没有则为 nil
func (m *Machine) Annotation() *image.RGBA {
	if m.state.DrawingEnabled && m.content.HasInk() {
		return m.content.Snapshot()
	}
	return m.last
}

// Shutdown 释放全部按键拦截，取消延迟回调，隐藏窗口
func (m *Machine) Shutdown() {
	if m.closed {
		return
	}
	m.closed = true
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
	m.settled = nil
	m.pending = nil
	m.applying = false
	m.awaiting = false

	if err := m.intercepts.Unregister(); err != nil {
		m.log.Warn("释放按键拦截失败", zap.Error(err))
	}
	if m.adapter.Kiosk() {
		m.adapter.SetKiosk(false)
	}
	m.applyPassThroughFlags()
	m.adapter.Overlay().Hide()
	m.adapter.Catch().Hide()
	m.state.DrawingEnabled = false
	m.mode = PassThrough
	m.log.Info("覆盖层已关闭")
}

// apply 执行一次切换
func (m *Machine) apply(enabled bool) {
	m.applying = true
	if enabled {
		m.enterCapturing()
	} else {
		m.enterPassThrough()
	}
	m.notify()
	if !m.awaiting {
		m.settle()
	}
}

// settle 切换全部落地：执行挂起的显式请求和延后的动作
func (m *Machine) settle() {
	m.applying = false
	m.awaiting = false
	m.cancels = nil
	if m.pending != nil {
		want := *m.pending
		m.pending = nil
		if want != m.state.DrawingEnabled {
			m.log.Debug("执行挂起的切换请求", zap.Bool("enabled", want))
			m.apply(want)
			return
		}
	}
	settled := m.settled
	m.settled = nil
	for _, fn := range settled {
		fn()
	}
}

func (m *Machine) enterCapturing() {
	m.log.Debug("进入绘制状态")
	m.state.DrawingEnabled = true
	m.mode = Capturing

	if d, ok := m.resolve(); ok {
		m.place(d)
	}
	overlay := m.adapter.Overlay()
	m.adapter.Catch().Hide()
	overlay.SetIgnoreInput(false)
	overlay.SetFocusable(true)
	if m.adapter.Capabilities().Kiosk {
		m.adapter.SetKiosk(true)
	}
	overlay.Show()
	overlay.Focus()

	if err := m.intercepts.Register(); err != nil {
		m.log.Warn("部分按键拦截注册失败", zap.Error(err))
	}
	m.send(ipc.ToggleDrawing(true))
}

func (m *Machine) enterPassThrough() {
	m.log.Debug("退出绘制状态")
	if m.content.HasInk() {
		m.last = m.content.Snapshot()
	}
	m.state.DrawingEnabled = false
	m.mode = PassThrough

	// 画布先结束未完成的笔画，再清空历史
	m.send(ipc.ToggleDrawing(false))
	m.pump()

	if err := m.intercepts.Unregister(); err != nil {
		m.log.Warn("释放按键拦截失败", zap.Error(err))
	}
	if m.adapter.Kiosk() {
		m.adapter.SetKiosk(false)
	}
	overlay := m.adapter.Overlay()
	overlay.Blur()
	m.applyPassThroughFlags()

	if d, ok := m.resolve(); ok {
		m.place(d)
	}
	m.showCatch()

	caps := m.adapter.Capabilities()
	if caps.HideToReleaseFocus {
		overlay.Hide()
		m.awaiting = true
		m.schedule(focusReleaseDelay, func() {
			if m.mode == PassThrough {
				overlay.Show()
			}
			m.settle()
			m.flush()
		})
	}
	if caps.ReassertTransparency {
		for _, delay := range reassertDelays {
			m.sched.AfterFunc(delay, m.reassertTransparency)
		}
	}
}

// reassertTransparency 合成器缓存了旧属性：重设穿透并抖动 1px 让它刷新
func (m *Machine) reassertTransparency() {
	if m.closed || m.mode != PassThrough {
		return
	}
	overlay := m.adapter.Overlay()
	overlay.SetIgnoreInput(true)
	b := m.current.Bounds
	overlay.SetBounds(b.Add(image.Pt(1, 0)))
	overlay.SetBounds(b)
}

func (m *Machine) applyPassThroughFlags() {
	overlay := m.adapter.Overlay()
	overlay.SetFocusable(false)
	overlay.SetIgnoreInput(true)
}

func (m *Machine) schedule(d time.Duration, fn func()) {
	m.cancels = append(m.cancels, m.sched.AfterFunc(d, fn))
}

// resolve 解析目标显示器；锁定失效时清除并持久化
func (m *Machine) resolve() (display.Display, bool) {
	displays, err := m.displays.Displays()
	if err != nil || len(displays) == 0 {
		m.log.Warn("无法列出显示器，保持当前位置", zap.Error(err))
		return m.current, false
	}

	cursor, err := m.cursor.Position()
	if err != nil {
		// 光标未知时以当前窗口中心为准
		cursor = m.current.Bounds.Min.Add(m.current.Bounds.Size().Div(2))
	}

	d, stale := display.Resolve(displays, cursor, m.state.LockedDisplayID)
	if stale {
		m.log.Warn("锁定的显示器不存在，恢复跟随光标", zap.String("display", m.state.LockedDisplayID))
		m.state.LockedDisplayID = ""
		m.settings.SetLockedDisplay("")
		m.notify()
	}
	return d, true
}

// place 覆盖层铺满显示器，捕获窗口放在画笔图标上
func (m *Machine) place(d display.Display) {
	resized := d.Bounds.Size() != m.current.Bounds.Size()
	m.current = d
	m.adapter.Overlay().SetBounds(d.Bounds)
	m.adapter.Catch().SetBounds(content.CatchRect(d.Bounds))
	if resized {
		m.send(ipc.DisplayChanged(d.Bounds.Dx(), d.Bounds.Dy()))
	}
}

// relocate 移动窗口；穿透状态下同时刷新捕获窗口
func (m *Machine) relocate(d display.Display) {
	m.place(d)
	if m.mode == PassThrough {
		m.showCatch()
	}
}

func (m *Machine) showCatch() {
	catch := m.adapter.Catch()
	r := content.CatchRect(m.current.Bounds)
	catch.SetBounds(r)
	catch.Show()
	catch.Present(m.content.RenderCatch(r, m.current.Bounds))
}

func (m *Machine) currentSignature() string {
	displays, err := m.displays.Displays()
	if err != nil {
		return ""
	}
	return display.Signature(displays)
}

func (m *Machine) forwardKey(code int) {
	if m.forward == nil {
		return
	}
	run := func() {
		m.sched.AfterFunc(forwardKeyDelay, func() {
			if err := m.forward(code); err != nil {
				m.log.Debug("按键转交失败", zap.String("key", platform.KeyName(code)), zap.Error(err))
			}
		})
	}
	// 焦点还给下层应用之后再转交
	if m.applying {
		m.settled = append(m.settled, run)
		return
	}
	run()
}

func (m *Machine) send(msg ipc.Message) {
	if err := m.bus.Host().Send(msg); err != nil {
		m.log.Warn("发送内容层消息失败", zap.String("type", string(msg.Type)), zap.Error(err))
	}
}

// pump 投递两个方向的积压消息
func (m *Machine) pump() {
	for i := 0; i < 8; i++ {
		toContent := m.bus.Content().Drain()
		for _, msg := range toContent {
			m.content.Handle(msg)
		}
		toHost := m.bus.Host().Drain()
		for _, msg := range toHost {
			m.handleContent(msg)
		}
		if len(toContent) == 0 && len(toHost) == 0 {
			return
		}
	}
}

// handleContent 内容层发来的请求
func (m *Machine) handleContent(msg ipc.Message) {
	switch msg.Type {
	case ipc.TypeSetIgnoreMouseEvents:
		// 绘制时窗口必须接收输入
		if m.mode == PassThrough && msg.Ignore != nil {
			m.adapter.Overlay().SetIgnoreInput(*msg.Ignore)
		}
	case ipc.TypeOpenDrawing:
		m.SetDrawing(true)
	case ipc.TypeCloseDrawing:
		m.SetDrawing(false)
	case ipc.TypeForwardKey:
		m.forwardKey(msg.KeyCode)
	}
}

// flush 投递消息并在画面变化时提交新的一帧
func (m *Machine) flush() {
	if m.flushing || m.closed {
		return
	}
	m.flushing = true
	defer func() { m.flushing = false }()

	m.pump()
	if m.content.Dirty() {
		m.adapter.Overlay().Present(m.content.Render())
	}
}

func (m *Machine) notify() {
	for _, l := range m.listeners {
		l(m.state)
	}
}

// PointerDown 覆盖层指针事件，转给内容层
func (m *Machine) PointerDown(p platform.Pointer) {
	if m.closed {
		return
	}
	m.content.PointerDown(p)
	m.flush()
}

// PointerMove 覆盖层指针移动
func (m *Machine) PointerMove(p platform.Pointer) {
	if m.closed {
		return
	}
	m.content.PointerMove(p)
	m.flush()
}

// PointerUp 覆盖层指针抬起
func (m *Machine) PointerUp(p platform.Pointer) {
	if m.closed {
		return
	}
	m.content.PointerUp(p)
	m.flush()
}

// KeyDown 覆盖层获得焦点时的按键
func (m *Machine) KeyDown(k platform.Key) {
	if m.closed {
		return
	}
	m.content.KeyDown(k)
	m.flush()
}

// CatchClicked 点击捕获窗口上的画笔图标
func (m *Machine) CatchClicked() {
	if m.closed || m.mode != PassThrough {
		return
	}
	m.SetDrawing(true)
}
