// Package canvas 自由手绘画布：画笔/橡皮擦笔画、整画布快照的线性撤销历史。
package canvas

import (
	"image"
	"image/color"
	"image/draw"
)

// Options 画布参数
type Options struct {
	PenColor    color.RGBA
	PenWidth    int     // 画笔线宽
	EraserWidth int     // 橡皮擦宽度
	PalmRadius  float64 // 触摸接触半径超过此值按手掌处理（本次触摸临时擦除）
	MaxHistory  int
}

// DefaultOptions 默认参数：红色 5px 画笔、100px 橡皮擦
func DefaultOptions() Options {
	return Options{
		PenColor:    color.RGBA{255, 0, 0, 255},
		PenWidth:    5,
		EraserWidth: 100,
		PalmRadius:  20,
		MaxHistory:  50,
	}
}

// DefaultPalette 预设颜色面板
var DefaultPalette = []color.RGBA{
	{255, 0, 0, 255},     // 红色
	{255, 200, 0, 255},   // 黄色
	{0, 180, 0, 255},     // 绿色
	{0, 120, 255, 255},   // 蓝色
	{180, 0, 255, 255},   // 紫色
	{255, 255, 255, 255}, // 白色
	{0, 0, 0, 255},       // 黑色
}

// Surface 画布。非并发安全，只在事件循环上调用。
type Surface struct {
	img     *image.RGBA
	opts    Options
	history *History

	enabled bool
	eraser  bool // 用户显式选择的橡皮擦

	drawing     bool
	strokeErase bool // 当前笔画是否擦除（显式橡皮擦或手掌）
	last        image.Point

	// version 每次改动像素加一；blank 是 blankAt 版本时的扫描结果
	version int
	blankAt int
	blank   bool
}

// NewSurface 创建 w×h 的透明画布，初始为禁用状态
func NewSurface(w, h int, opts Options) *Surface {
	def := DefaultOptions()
	if opts.PenWidth <= 0 {
		opts.PenWidth = def.PenWidth
	}
	if opts.EraserWidth <= 0 {
		opts.EraserWidth = def.EraserWidth
	}
	if opts.PalmRadius <= 0 {
		opts.PalmRadius = def.PalmRadius
	}
	if opts.PenColor.A == 0 {
		opts.PenColor = def.PenColor
	}
	return &Surface{
		img:     image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1))),
		opts:    opts,
		history: NewHistory(opts.MaxHistory),
		blankAt: -1,
	}
}

// SetEnabled 启用/禁用画布。禁用时正在进行的笔画按抬笔处理。
func (s *Surface) SetEnabled(enabled bool) {
	if !enabled && s.drawing {
		s.StrokeEnd()
	}
	s.enabled = enabled
}

// Enabled 是否启用
func (s *Surface) Enabled() bool { return s.enabled }

// SetEraser 切换橡皮擦
func (s *Surface) SetEraser(on bool) { s.eraser = on }

// Eraser 是否处于橡皮擦模式
func (s *Surface) Eraser() bool { return s.eraser }

// SetColor 设置画笔颜色，同时退出橡皮擦
func (s *Surface) SetColor(c color.RGBA) {
	c.A = 255
	s.opts.PenColor = c
	s.eraser = false
}

// Color 当前画笔颜色
func (s *Surface) Color() color.RGBA { return s.opts.PenColor }

// Options 当前参数
func (s *Surface) Options() Options { return s.opts }

// Drawing 是否正在画一笔
func (s *Surface) Drawing() bool { return s.drawing }

// StrokeStart 开始一笔（鼠标/笔），禁用时忽略
func (s *Surface) StrokeStart(p image.Point) bool {
	return s.start(p, false)
}

// StrokeStartTouch 开始一笔触摸，接触半径过大时本次触摸按橡皮擦处理，
// 不改变用户的橡皮擦开关
func (s *Surface) StrokeStartTouch(p image.Point, radius float64) bool {
	return s.start(p, s.isPalm(radius))
}

func (s *Surface) start(p image.Point, palm bool) bool {
	if !s.enabled {
		return false
	}
	if s.drawing {
		s.StrokeEnd()
	}
	s.drawing = true
	s.strokeErase = s.eraser || palm
	s.last = p
	s.segment(p, p, s.strokeErase)
	return true
}

// StrokeMove 延伸当前笔画；原地不动时不画，返回 false
func (s *Surface) StrokeMove(p image.Point) bool {
	if !s.enabled || !s.drawing || p == s.last {
		return false
	}
	s.segment(s.last, p, s.strokeErase)
	s.last = p
	return true
}

// StrokeMoveTouch 延伸触摸笔画，本段接触半径过大时临时擦除
func (s *Surface) StrokeMoveTouch(p image.Point, radius float64) bool {
	if !s.enabled || !s.drawing {
		return false
	}
	s.segment(s.last, p, s.strokeErase || s.isPalm(radius))
	s.last = p
	return true
}

// StrokeEnd 结束当前笔画并保存快照
func (s *Surface) StrokeEnd() bool {
	if !s.drawing {
		return false
	}
	s.drawing = false
	s.strokeErase = false
	s.history.Commit(clone(s.img))
	return true
}

// Blank 画布是否完全透明。没有笔画也没有历史时不扫描像素，
// 其余情况每个版本只扫描一次
func (s *Surface) Blank() bool {
	if !s.drawing && s.history.Current() == nil {
		return true
	}
	if s.blankAt != s.version {
		s.blank = transparent(s.img)
		s.blankAt = s.version
	}
	return s.blank
}

func transparent(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// Clear 清空画布和全部历史
func (s *Surface) Clear() {
	s.version++
	s.drawing = false
	s.strokeErase = false
	clear(s.img.Pix)
	s.history.Clear()
}

// Undo 撤销一笔，超出范围时不做任何事
func (s *Surface) Undo() bool {
	if s.drawing || !s.history.Undo() {
		return false
	}
	s.restore(s.history.Current())
	return true
}

// Redo 重做一笔，超出范围时不做任何事
func (s *Surface) Redo() bool {
	if s.drawing || !s.history.Redo() {
		return false
	}
	s.restore(s.history.Current())
	return true
}

// Resize 改变画布尺寸，保留左上角对齐的现有内容和历史
func (s *Surface) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if s.img.Bounds().Dx() == w && s.img.Bounds().Dy() == h {
		return
	}
	next := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(next, next.Bounds(), s.img, image.Point{}, draw.Src)
	s.img = next
	s.version++
}

// Image 画布图像（只读使用）
func (s *Surface) Image() *image.RGBA { return s.img }

// Snapshot 画布的副本
func (s *Surface) Snapshot() *image.RGBA { return clone(s.img) }

// Size 画布尺寸
func (s *Surface) Size() image.Point { return s.img.Bounds().Size() }

// HistoryLen 历史快照数量
func (s *Surface) HistoryLen() int { return s.history.Len() }

// Cursor 历史位置，-1 表示第一条之前
func (s *Surface) Cursor() int { return s.history.Cursor() }

// CanUndo 是否可撤销
func (s *Surface) CanUndo() bool { return s.history.CanUndo() }

// CanRedo 是否可重做
func (s *Surface) CanRedo() bool { return s.history.CanRedo() }

func (s *Surface) isPalm(radius float64) bool {
	return radius > s.opts.PalmRadius
}

func (s *Surface) segment(a, b image.Point, erase bool) {
	s.version++
	if erase {
		StrokeSegment(s.img, a, b, s.opts.EraserWidth, color.RGBA{}, true)
		return
	}
	StrokeSegment(s.img, a, b, s.opts.PenWidth, s.opts.PenColor, false)
}

// restore 从快照重绘画布，snap 为 nil 时清空
func (s *Surface) restore(snap *image.RGBA) {
	s.version++
	clear(s.img.Pix)
	if snap != nil {
		draw.Draw(s.img, s.img.Bounds(), snap, image.Point{}, draw.Src)
	}
}
