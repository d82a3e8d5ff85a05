// Package content 覆盖层里的页面：画布、右下角的画笔图标和工具栏。
// 页面只通过 ipc 端口和宿主通信，不直接接触窗口。
package content

import (
	"image"
	"image/color"
	"image/draw"

	"go.uber.org/zap"

	"screenmark/internal/canvas"
	"screenmark/internal/ipc"
	"screenmark/internal/platform"
)

// Page 非并发安全，和状态机在同一个事件循环上调用
type Page struct {
	log     *zap.Logger
	port    *ipc.Port
	surface *canvas.Surface
	palette []color.RGBA
	colorAt int

	size    image.Point
	hover   bool // 禁用状态下指针停在图标上
	pointer image.Point
	inside  bool
	dirty   bool
}

// NewPage 创建页面，port 为内容端
func NewPage(log *zap.Logger, port *ipc.Port, size image.Point, opts canvas.Options) *Page {
	p := &Page{
		log:     log,
		port:    port,
		surface: canvas.NewSurface(size.X, size.Y, opts),
		palette: canvas.DefaultPalette,
		size:    size,
		dirty:   true,
	}
	for i, c := range p.palette {
		if c == p.surface.Color() {
			p.colorAt = i
		}
	}
	return p
}

// Surface 画布
func (p *Page) Surface() *canvas.Surface { return p.surface }

// Size 页面尺寸
func (p *Page) Size() image.Point { return p.size }

// Enabled 画布是否启用
func (p *Page) Enabled() bool { return p.surface.Enabled() }

// Dirty 上次渲染后是否有变化
func (p *Page) Dirty() bool { return p.dirty }

// Handle 处理宿主发来的消息
func (p *Page) Handle(m ipc.Message) {
	switch m.Type {
	case ipc.TypeToggleDrawing:
		enabled := m.Enabled != nil && *m.Enabled
		p.surface.SetEnabled(enabled)
		if !enabled {
			// 工具栏回到初始样子
			p.surface.SetEraser(false)
			p.surface.Clear()
		}
		p.hover = false
	case ipc.TypeClearCanvas:
		p.surface.Clear()
	case ipc.TypeDisplayChanged:
		p.size = image.Pt(max(m.Width, 1), max(m.Height, 1))
		p.surface.Resize(p.size.X, p.size.Y)
	default:
		p.log.Warn("页面收到未知消息", zap.String("type", string(m.Type)))
		return
	}
	p.dirty = true
}

// PointerDown 按下：图标、工具栏或开始一笔
func (p *Page) PointerDown(ptr platform.Pointer) {
	p.track(ptr.Pos)
	icon := IconRect(p.size)

	if !p.surface.Enabled() {
		if ptr.Pos.In(icon) {
			p.send(ipc.OpenDrawing())
		}
		return
	}

	if ptr.Pos.In(icon) {
		p.send(ipc.CloseDrawing())
		return
	}
	if b := hitButton(p.size, ptr.Pos); b != ButtonNone {
		p.press(b)
		return
	}

	if ptr.Touch {
		p.surface.StrokeStartTouch(ptr.Pos, ptr.Radius)
	} else {
		p.surface.StrokeStart(ptr.Pos)
	}
	p.dirty = true
}

// PointerMove 移动：延伸笔画；禁用时检测图标悬停
func (p *Page) PointerMove(ptr platform.Pointer) {
	p.track(ptr.Pos)

	if !p.surface.Enabled() {
		over := ptr.Pos.In(IconRect(p.size))
		if over != p.hover {
			p.hover = over
			p.send(ipc.SetIgnoreMouseEvents(!over))
		}
		return
	}

	var moved bool
	if ptr.Touch {
		moved = p.surface.StrokeMoveTouch(ptr.Pos, ptr.Radius)
	} else {
		moved = p.surface.StrokeMove(ptr.Pos)
	}
	if moved {
		p.dirty = true
	}
}

// PointerUp 抬起：提交笔画
func (p *Page) PointerUp(ptr platform.Pointer) {
	p.track(ptr.Pos)
	if p.surface.StrokeEnd() {
		p.dirty = true
	}
}

// KeyDown 绘制时的按键：翻页笔按键关闭绘制并转交，其余为画布快捷键
func (p *Page) KeyDown(k platform.Key) {
	if !p.surface.Enabled() {
		return
	}
	if !k.Ctrl && !k.Alt && platform.IsPresentationKey(k.Code) {
		p.send(ipc.CloseDrawing())
		if k.Code != platform.KeyEscape {
			p.send(ipc.ForwardKey(k.Code))
		}
		return
	}

	switch {
	case k.Ctrl && k.Code == platform.KeyZ && !k.Shift:
		p.surface.Undo()
	case k.Ctrl && (k.Code == platform.KeyY || (k.Code == platform.KeyZ && k.Shift)):
		p.surface.Redo()
	case !k.Ctrl && k.Code == platform.KeyE:
		p.surface.SetEraser(!p.surface.Eraser())
	case !k.Ctrl && k.Code == platform.KeyC:
		p.surface.Clear()
	default:
		return
	}
	p.dirty = true
}

func (p *Page) press(b Button) {
	switch b {
	case ButtonPen:
		p.surface.SetEraser(false)
	case ButtonEraser:
		p.surface.SetEraser(true)
	case ButtonColor:
		p.NextColor()
	case ButtonUndo:
		p.surface.Undo()
	case ButtonRedo:
		p.surface.Redo()
	}
	p.dirty = true
}

// NextColor 切到调色板的下一个颜色
func (p *Page) NextColor() color.RGBA {
	if len(p.palette) == 0 {
		return p.surface.Color()
	}
	p.colorAt = (p.colorAt + 1) % len(p.palette)
	p.surface.SetColor(p.palette[p.colorAt])
	p.dirty = true
	return p.surface.Color()
}

// track 记录指针位置；只有橡皮擦光圈需要跟着重画
func (p *Page) track(pos image.Point) {
	if p.surface.Eraser() && p.surface.Enabled() && (pos != p.pointer || !p.inside) {
		p.dirty = true
	}
	p.pointer = pos
	p.inside = true
}

func (p *Page) send(m ipc.Message) {
	if err := p.port.Send(m); err != nil {
		p.log.Warn("页面消息发送失败", zap.String("type", string(m.Type)), zap.Error(err))
	}
}

// Render 合成整屏画面（预乘 alpha）。启用时铺一层 alpha=1 的底色接住输入
func (p *Page) Render() *image.RGBA {
	frame := image.NewRGBA(image.Rectangle{Max: p.size})
	enabled := p.surface.Enabled()
	if enabled {
		draw.Draw(frame, frame.Bounds(), image.NewUniform(captureFill), image.Point{}, draw.Src)
	}
	draw.Draw(frame, frame.Bounds(), p.surface.Image(), image.Point{}, draw.Over)

	if enabled {
		canvas.FillRoundRect(frame, toolbarRect(p.size), 12, panelColor)
		for _, b := range toolbarOrder {
			drawButton(frame, ButtonRect(p.size, b), b, p)
		}
		if p.surface.Eraser() && p.inside {
			r := float64(p.surface.Options().EraserWidth) / 2
			canvas.StrokeRing(frame, p.pointer, r, 2, ringColor)
		}
	}
	drawPenIcon(frame, IconRect(p.size), enabled || p.hover, p.surface.Color())

	p.dirty = false
	return frame
}

// RenderCatch 捕获窗口的画面：和主画面同一位置的画笔图标
func (p *Page) RenderCatch(catch, display image.Rectangle) *image.RGBA {
	frame := image.NewRGBA(image.Rectangle{Max: catch.Size()})
	draw.Draw(frame, frame.Bounds(), image.NewUniform(captureFill), image.Point{}, draw.Src)
	icon := IconRect(display.Size()).Add(display.Min).Sub(catch.Min)
	drawPenIcon(frame, icon, p.hover, p.surface.Color())
	return frame
}

// Snapshot 当前画布的副本
func (p *Page) Snapshot() *image.RGBA { return p.surface.Snapshot() }

// HasInk 画布上是否有内容
func (p *Page) HasInk() bool { return !p.surface.Blank() }
