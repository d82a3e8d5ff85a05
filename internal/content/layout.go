package content

import (
	"image"
	"image/color"

	"screenmark/internal/canvas"
)

const (
	// IconSize 画笔图标边长
	IconSize = 48
	// IconMargin 图标距离显示器右下角的边距
	IconMargin = 20
	// CatchSize 捕获窗口边长
	CatchSize = 100

	buttonSize = 40
	buttonGap  = 8
)

// Button 工具栏按钮
type Button int

const (
	ButtonNone Button = iota
	ButtonPen
	ButtonEraser
	ButtonColor
	ButtonUndo
	ButtonRedo
)

// toolbarOrder 从右到左紧挨着图标排列
var toolbarOrder = []Button{ButtonRedo, ButtonUndo, ButtonColor, ButtonEraser, ButtonPen}

var (
	panelColor   = color.RGBA{30, 30, 30, 200}
	glyphColor   = color.RGBA{240, 240, 240, 255}
	activeColor  = color.RGBA{0, 120, 255, 255}
	disabledTint = color.RGBA{110, 110, 110, 255}
	ringColor    = color.RGBA{128, 128, 128, 200}
	// captureFill alpha=1 的底色，让分层窗口在绘制时接住整屏输入
	captureFill = color.RGBA{0, 0, 0, 1}
)

// IconRect 画笔图标在 size 尺寸画面中的位置
func IconRect(size image.Point) image.Rectangle {
	corner := image.Pt(size.X-IconMargin, size.Y-IconMargin)
	return image.Rectangle{Min: corner.Sub(image.Pt(IconSize, IconSize)), Max: corner}
}

// CatchRect 捕获窗口在显示器上的位置：居中罩住画笔图标
func CatchRect(display image.Rectangle) image.Rectangle {
	icon := IconRect(display.Size()).Add(display.Min)
	c := icon.Min.Add(icon.Max).Div(2)
	half := CatchSize / 2
	r := image.Rect(c.X-half, c.Y-half, c.X+half, c.Y+half)
	// 不超出显示器
	if d := r.Max.X - display.Max.X; d > 0 {
		r = r.Sub(image.Pt(d, 0))
	}
	if d := r.Max.Y - display.Max.Y; d > 0 {
		r = r.Sub(image.Pt(0, d))
	}
	return r
}

// ButtonRect 工具栏按钮的位置
func ButtonRect(size image.Point, b Button) image.Rectangle {
	icon := IconRect(size)
	top := icon.Min.Y + (IconSize-buttonSize)/2
	right := icon.Min.X - buttonGap
	for _, cur := range toolbarOrder {
		r := image.Rect(right-buttonSize, top, right, top+buttonSize)
		if cur == b {
			return r
		}
		right = r.Min.X - buttonGap
	}
	return image.Rectangle{}
}

// toolbarRect 工具栏整体背景
func toolbarRect(size image.Point) image.Rectangle {
	r := image.Rectangle{}
	for _, b := range toolbarOrder {
		r = r.Union(ButtonRect(size, b))
	}
	return r.Inset(-buttonGap / 2)
}

// hitButton 点击位置对应的按钮
func hitButton(size image.Point, p image.Point) Button {
	for _, b := range toolbarOrder {
		if p.In(ButtonRect(size, b)) {
			return b
		}
	}
	return ButtonNone
}

// drawPenIcon 圆形底 + 斜向笔杆和笔尖
func drawPenIcon(dst *image.RGBA, r image.Rectangle, active bool, ink color.RGBA) {
	c := r.Min.Add(r.Max).Div(2)
	radius := float64(r.Dx()) / 2
	bg := panelColor
	if active {
		bg = activeColor
	}
	canvas.FillCircle(dst, c, radius, bg)

	tail := c.Add(image.Pt(r.Dx()/5, -r.Dy()/5))
	tip := c.Sub(image.Pt(r.Dx()/5, -r.Dy()/5))
	canvas.StrokeSegment(dst, tail, tip, 6, glyphColor, false)
	canvas.FillCircle(dst, tip, 3, ink)
}

func drawButton(dst *image.RGBA, r image.Rectangle, b Button, p *Page) {
	c := r.Min.Add(r.Max).Div(2)
	q := r.Dx() / 4
	switch b {
	case ButtonPen:
		if !p.surface.Eraser() {
			canvas.FillRoundRect(dst, r, 8, activeColor)
		}
		canvas.StrokeSegment(dst, c.Add(image.Pt(q, -q)), c.Add(image.Pt(-q, q)), 4, glyphColor, false)
	case ButtonEraser:
		if p.surface.Eraser() {
			canvas.FillRoundRect(dst, r, 8, activeColor)
		}
		canvas.FillRoundRect(dst, image.Rect(c.X-q, c.Y-q/2, c.X+q, c.Y+q/2), 3, glyphColor)
	case ButtonColor:
		canvas.FillCircle(dst, c, float64(q), p.surface.Color())
		canvas.StrokeRing(dst, c, float64(q)+2, 2, glyphColor)
	case ButtonUndo:
		tint := glyphColor
		if !p.surface.CanUndo() {
			tint = disabledTint
		}
		canvas.StrokeSegment(dst, c.Add(image.Pt(q, 0)), c.Add(image.Pt(-q, 0)), 3, tint, false)
		canvas.StrokeSegment(dst, c.Add(image.Pt(-q, 0)), c.Add(image.Pt(-q/3, -q/2)), 3, tint, false)
		canvas.StrokeSegment(dst, c.Add(image.Pt(-q, 0)), c.Add(image.Pt(-q/3, q/2)), 3, tint, false)
	case ButtonRedo:
		tint := glyphColor
		if !p.surface.CanRedo() {
			tint = disabledTint
		}
		canvas.StrokeSegment(dst, c.Add(image.Pt(-q, 0)), c.Add(image.Pt(q, 0)), 3, tint, false)
		canvas.StrokeSegment(dst, c.Add(image.Pt(q, 0)), c.Add(image.Pt(q/3, -q/2)), 3, tint, false)
		canvas.StrokeSegment(dst, c.Add(image.Pt(q, 0)), c.Add(image.Pt(q/3, q/2)), 3, tint, false)
	}
}
