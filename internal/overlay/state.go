// Package overlay 绘制开关状态机：覆盖层窗口、捕获窗口、按键拦截和画布的唯一协调点。
//
// 所有状态变更都在一个事件循环上串行执行（见 Loop），Machine 本身不加锁。
package overlay

import (
	"errors"
	"image"
	"time"

	"screenmark/internal/ipc"
	"screenmark/internal/platform"
)

// Mode 覆盖层窗口状态
type Mode int

const (
	// PassThrough 穿透：不接收输入、不可聚焦，捕获窗口显示
	PassThrough Mode = iota
	// Capturing 绘制：接收输入并持有焦点，拦截翻页笔按键
	Capturing
)

func (m Mode) String() string {
	if m == Capturing {
		return "capturing"
	}
	return "pass-through"
}

// ErrUnknownDisplay 锁定的显示器不在当前列表中
var ErrUnknownDisplay = errors.New("overlay: unknown display")

// OverlayState 进程内唯一的覆盖层状态
type OverlayState struct {
	DrawingEnabled  bool
	LockedDisplayID string // 空表示跟随光标
}

// Settings 锁定显示器的持久化
type Settings interface {
	LockedDisplay() string
	SetLockedDisplay(id string)
}

// Intercepts 绘制期间的全局按键拦截
type Intercepts interface {
	Register() error
	Unregister() error
	Active() bool
}

// Scheduler 延迟回调，回调必须回到事件循环上执行。返回取消函数
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// Content 内容层。宿主只通过 ipc 驱动它，这里额外取渲染结果
type Content interface {
	Handle(m ipc.Message)
	PointerDown(p platform.Pointer)
	PointerMove(p platform.Pointer)
	PointerUp(p platform.Pointer)
	KeyDown(k platform.Key)
	Render() *image.RGBA
	RenderCatch(catch, display image.Rectangle) *image.RGBA
	Snapshot() *image.RGBA
	HasInk() bool
	Dirty() bool
}

// Listener 状态变化回调（托盘刷新、通知）
type Listener func(OverlayState)

// 平台异步应用窗口属性，这些延迟是经验值
const (
	focusReleaseDelay = 100 * time.Millisecond
	forwardKeyDelay   = 50 * time.Millisecond
)

var reassertDelays = []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, time.Second}
