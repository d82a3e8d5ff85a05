package capture

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
)

type fakeCapturer struct {
	fill color.RGBA
	got  image.Rectangle
	err  error
}

func (f *fakeCapturer) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	f.got = r
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rectangle{Max: r.Size()})
	draw.Draw(img, img.Bounds(), image.NewUniform(f.fill), image.Point{}, draw.Src)
	return img, nil
}

func TestCropImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.SetRGBA(5, 5, color.RGBA{R: 255, A: 255})

	got := CropImage(img, image.Rect(4, 4, 20, 20))
	if got.Bounds() != image.Rect(0, 0, 6, 6) {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if got.RGBAAt(1, 1).R != 255 {
		t.Error("pixel not copied to the cropped origin")
	}
	if !CropImage(img, image.Rect(20, 20, 30, 30)).Bounds().Empty() {
		t.Error("crop outside image not empty")
	}
}

func TestAnnotatedComposesOverScreen(t *testing.T) {
	c := &fakeCapturer{fill: color.RGBA{B: 255, A: 255}}
	display := image.Rect(1920, 0, 3840, 1080)

	ink := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	ink.SetRGBA(10, 10, color.RGBA{R: 255, A: 255})

	out, err := Annotated(c, display, ink)
	if err != nil {
		t.Fatal(err)
	}
	if c.got != display {
		t.Errorf("captured %v", c.got)
	}
	if out.Bounds().Size() != display.Size() {
		t.Errorf("size = %v", out.Bounds().Size())
	}
	if px := out.RGBAAt(10, 10); px.R != 255 || px.B != 0 {
		t.Errorf("ink pixel = %v", px)
	}
	if px := out.RGBAAt(11, 11); px.B != 255 {
		t.Errorf("background pixel = %v", px)
	}
}

func TestAnnotatedCaptureError(t *testing.T) {
	boom := errors.New("denied")
	if _, err := Annotated(&fakeCapturer{err: boom}, image.Rect(0, 0, 5, 5), image.NewRGBA(image.Rect(0, 0, 5, 5))); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
