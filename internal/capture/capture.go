// Package capture 截取显示器画面，用来把标注和屏幕内容合成为一张图
package capture

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/kbinani/screenshot"
)

// Capturer 截图接口
type Capturer interface {
	// CaptureRect 截取全局坐标下的区域
	CaptureRect(r image.Rectangle) (*image.RGBA, error)
}

// ScreenCapturer 通过 kbinani/screenshot 截屏。分层窗口（覆盖层本身）不在截图里
type ScreenCapturer struct{}

// NewCapturer 创建截图器
func NewCapturer() *ScreenCapturer {
	return &ScreenCapturer{}
}

// CaptureRect 截取区域
func (ScreenCapturer) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("capture: empty region %v", r)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("capture %v: %w", r, err)
	}
	return img, nil
}

// Compose 把标注叠加到背景上，结果从 (0,0) 开始，尺寸取两者的交集
func Compose(background, annotation *image.RGBA) *image.RGBA {
	bg, a := background.Bounds().Size(), annotation.Bounds().Size()
	size := image.Pt(min(bg.X, a.X), min(bg.Y, a.Y))
	out := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(out, out.Bounds(), background, background.Bounds().Min, draw.Src)
	draw.Draw(out, out.Bounds(), annotation, annotation.Bounds().Min, draw.Over)
	return out
}

// CropImage 裁剪图片，区域超出部分被截掉；按行复制像素
func CropImage(img *image.RGBA, region image.Rectangle) *image.RGBA {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return image.NewRGBA(image.Rectangle{})
	}
	cropped := image.NewRGBA(image.Rectangle{Max: region.Size()})
	rowBytes := region.Dx() * 4
	for y := 0; y < region.Dy(); y++ {
		src := img.PixOffset(region.Min.X, region.Min.Y+y)
		dst := y * cropped.Stride
		copy(cropped.Pix[dst:dst+rowBytes], img.Pix[src:src+rowBytes])
	}
	return cropped
}

// Annotated 截取显示器并叠加标注；标注尺寸和显示器不一致时按左上角对齐
func Annotated(c Capturer, display image.Rectangle, annotation *image.RGBA) (*image.RGBA, error) {
	bg, err := c.CaptureRect(display)
	if err != nil {
		return nil, err
	}
	return Compose(bg, CropImage(annotation, image.Rectangle{Max: display.Size()})), nil
}
