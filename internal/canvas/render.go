package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// capsuleSegments 每个半圆的折线段数
const capsuleSegments = 16

// StrokeSegment 以圆头画一段粗线。erase 为 true 时按覆盖率清除目标像素的 alpha
// （相当于 destination-out），否则用 c 做 source-over 混合。
func StrokeSegment(dst *image.RGBA, a, b image.Point, width int, c color.RGBA, erase bool) {
	if width < 1 {
		width = 1
	}
	half := float64(width) / 2

	pad := int(math.Ceil(half)) + 1
	box := image.Rect(min(a.X, b.X)-pad, min(a.Y, b.Y)-pad, max(a.X, b.X)+pad+1, max(a.Y, b.Y)+pad+1)
	box = box.Intersect(dst.Bounds())
	if box.Empty() {
		return
	}

	mask := capsuleMask(box, a, b, half)
	if erase {
		clearByMask(dst, box, mask)
		return
	}
	draw.DrawMask(dst, box, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// FillCircle 填充一个抗锯齿圆
func FillCircle(dst *image.RGBA, center image.Point, radius float64, c color.RGBA) {
	StrokeSegment(dst, center, center, int(math.Round(radius*2)), c, false)
}

// StrokeRing 画一个圆环（橡皮擦光标、按钮描边）
func StrokeRing(dst *image.RGBA, center image.Point, radius, thickness float64, c color.RGBA) {
	pad := int(math.Ceil(radius)) + 2
	box := image.Rect(center.X-pad, center.Y-pad, center.X+pad+1, center.Y+pad+1).Intersect(dst.Bounds())
	if box.Empty() {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	cx := float64(center.X - box.Min.X)
	cy := float64(center.Y - box.Min.Y)
	// 外圈顺时针、内圈逆时针，中间留空
	circlePath(z, cx, cy, radius, false)
	circlePath(z, cx, cy, math.Max(radius-thickness, 0), true)

	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(dst, box, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// FillRoundRect 填充圆角矩形（工具栏背景）
func FillRoundRect(dst *image.RGBA, r image.Rectangle, radius float64, c color.RGBA) {
	box := r.Intersect(dst.Bounds())
	if box.Empty() {
		return
	}
	radius = math.Min(radius, float64(min(r.Dx(), r.Dy()))/2)

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	x0 := float64(r.Min.X - box.Min.X)
	y0 := float64(r.Min.Y - box.Min.Y)
	x1 := x0 + float64(r.Dx())
	y1 := y0 + float64(r.Dy())

	corners := [4][3]float64{
		{x1 - radius, y0 + radius, -math.Pi / 2},
		{x1 - radius, y1 - radius, 0},
		{x0 + radius, y1 - radius, math.Pi / 2},
		{x0 + radius, y0 + radius, math.Pi},
	}
	first := true
	for _, cr := range corners {
		for i := 0; i <= capsuleSegments/2; i++ {
			t := cr[2] + float64(i)*(math.Pi/2)/float64(capsuleSegments/2)
			x := float32(cr[0] + radius*math.Cos(t))
			y := float32(cr[1] + radius*math.Sin(t))
			if first {
				z.MoveTo(x, y)
				first = false
			} else {
				z.LineTo(x, y)
			}
		}
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(dst, box, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// capsuleMask 生成 a→b 圆头线段在 box 内的覆盖率蒙版。
// 整个轮廓是一个凸多边形：绕 b 的半圆接绕 a 的半圆。
func capsuleMask(box image.Rectangle, a, b image.Point, half float64) *image.Alpha {
	z := vector.NewRasterizer(box.Dx(), box.Dy())

	ax, ay := float64(a.X-box.Min.X)+0.5, float64(a.Y-box.Min.Y)+0.5
	bx, by := float64(b.X-box.Min.X)+0.5, float64(b.Y-box.Min.Y)+0.5
	theta := math.Atan2(by-ay, bx-ax)

	for i := 0; i <= capsuleSegments; i++ {
		t := theta - math.Pi/2 + float64(i)*math.Pi/capsuleSegments
		x := float32(bx + half*math.Cos(t))
		y := float32(by + half*math.Sin(t))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	for i := 0; i <= capsuleSegments; i++ {
		t := theta + math.Pi/2 + float64(i)*math.Pi/capsuleSegments
		z.LineTo(float32(ax+half*math.Cos(t)), float32(ay+half*math.Sin(t)))
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

func circlePath(z *vector.Rasterizer, cx, cy, r float64, reverse bool) {
	if r <= 0 {
		return
	}
	n := capsuleSegments * 2
	for i := 0; i <= n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		if reverse {
			t = -t
		}
		x := float32(cx + r*math.Cos(t))
		y := float32(cy + r*math.Sin(t))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

// clearByMask 按蒙版覆盖率缩减目标像素（预乘 alpha，四个通道同比缩放）
func clearByMask(dst *image.RGBA, box image.Rectangle, mask *image.Alpha) {
	for y := 0; y < box.Dy(); y++ {
		row := dst.PixOffset(box.Min.X, box.Min.Y+y)
		mrow := y * mask.Stride
		for x := 0; x < box.Dx(); x++ {
			cov := uint32(mask.Pix[mrow+x])
			if cov == 0 {
				continue
			}
			keep := 255 - cov
			i := row + x*4
			for k := 0; k < 4; k++ {
				dst.Pix[i+k] = uint8(uint32(dst.Pix[i+k]) * keep / 255)
			}
		}
	}
}

// clone 复制一张图像
func clone(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
