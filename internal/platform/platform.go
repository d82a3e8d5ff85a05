// Package platform 把窗口系统相关的操作收敛到一个小接口里，
// 状态机只依赖接口，平台差异（kiosk 模式、焦点归还、透明度重设）由 Capabilities 声明。
package platform

import "image"

// Window 一个置顶、无边框、透明的窗口
type Window interface {
	SetBounds(r image.Rectangle)
	Bounds() image.Rectangle
	// SetIgnoreInput 为 true 时指针事件穿透到下层窗口
	SetIgnoreInput(ignore bool)
	IgnoresInput() bool
	SetFocusable(focusable bool)
	Focusable() bool
	Focus()
	Blur()
	Show()
	Hide()
	Visible() bool
	// Present 把一帧内容（预乘 alpha）显示到窗口
	Present(frame *image.RGBA)
}

// Capabilities 平台特性
type Capabilities struct {
	// Kiosk 支持全屏捕获模式，用来在绘制时压住 dock 之类的系统界面
	Kiosk bool
	// HideToReleaseFocus 仅靠 Blur 不能可靠地把焦点还给之前的应用，需要短暂隐藏再显示
	HideToReleaseFocus bool
	// ReassertTransparency 合成器会缓存窗口属性，需要延迟重设穿透并抖动 1px 位置
	ReassertTransparency bool
}

// Pointer 指针事件（窗口内坐标）
type Pointer struct {
	Pos    image.Point
	Touch  bool
	Radius float64 // 触摸接触半径，未知为 0
}

// Key 按键事件，Code 为虚拟键码
type Key struct {
	Code  int
	Ctrl  bool
	Shift bool
	Alt   bool
}

// EventSink 接收窗口事件。适配器在自己的线程上调用，实现方需自行转交事件循环。
type EventSink interface {
	PointerDown(p Pointer)
	PointerMove(p Pointer)
	PointerUp(p Pointer)
	KeyDown(k Key)
	CatchClicked()
	DisplayChanged()
}

// Adapter 覆盖层窗口 + 捕获窗口
type Adapter interface {
	Overlay() Window
	Catch() Window
	SetKiosk(on bool)
	Kiosk() bool
	Capabilities() Capabilities
	Start(sink EventSink) error
	Close()
}
