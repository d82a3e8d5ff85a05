package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"

	"screenmark/internal/canvas"
)

const iconSize = 16

var (
	idleColor    = color.RGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF}
	drawingColor = color.RGBA{R: 0xE8, G: 0x11, B: 0x23, A: 0xFF}
	white        = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// getIcon 托盘图标：Windows 用 ICO，其他平台用 PNG
func getIcon(drawing bool) []byte {
	img := penImage(drawing)
	if runtime.GOOS == "windows" {
		return encodeICO(img)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// penImage 圆形底色上一支斜放的笔，绘制时底色变红
func penImage(drawing bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	bg := idleColor
	if drawing {
		bg = drawingColor
	}
	canvas.FillCircle(img, image.Pt(8, 8), 7.5, bg)
	canvas.StrokeSegment(img, image.Pt(11, 4), image.Pt(5, 10), 3, white, false)
	// 笔尖
	canvas.FillCircle(img, image.Pt(4, 11), 1, white)
	return img
}

// encodeICO 单图 32 位 ICO：目录项 + BITMAPINFOHEADER + 自下而上的 BGRA 像素 + AND 掩码
func encodeICO(img *image.RGBA) []byte {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	maskStride := ((w + 31) / 32) * 4
	pixelSize := w * h * 4
	imageSize := 40 + pixelSize + maskStride*h

	var buf bytes.Buffer
	le := binary.LittleEndian

	// ICONDIR
	binary.Write(&buf, le, uint16(0))
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint16(1))

	// ICONDIRENTRY
	buf.WriteByte(byte(w))
	buf.WriteByte(byte(h))
	buf.WriteByte(0)
	buf.WriteByte(0)
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint16(32))
	binary.Write(&buf, le, uint32(imageSize))
	binary.Write(&buf, le, uint32(6+16))

	// BITMAPINFOHEADER，高度是 XOR + AND 两层之和
	binary.Write(&buf, le, uint32(40))
	binary.Write(&buf, le, int32(w))
	binary.Write(&buf, le, int32(h*2))
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint16(32))
	buf.Write(make([]byte, 24))

	// 像素数据 (BGRA，从下往上)，图像是预乘的，ICO 要直通 alpha
	for y := h - 1; y >= 0; y-- {
		for x := 0; x < w; x++ {
			c := img.RGBAAt(x, y)
			r, g, b := unpremultiply(c)
			buf.Write([]byte{b, g, r, c.A})
		}
	}
	buf.Write(make([]byte, maskStride*h))
	return buf.Bytes()
}

func unpremultiply(c color.RGBA) (r, g, b uint8) {
	if c.A == 0 || c.A == 0xFF {
		return c.R, c.G, c.B
	}
	a := uint32(c.A)
	return uint8(uint32(c.R) * 0xFF / a), uint8(uint32(c.G) * 0xFF / a), uint8(uint32(c.B) * 0xFF / a)
}
