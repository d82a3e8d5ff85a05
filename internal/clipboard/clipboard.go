// Package clipboard 把标注图像或文本写入系统剪贴板
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"golang.design/x/clipboard"
)

// ErrEmpty 没有可复制的内容
var ErrEmpty = errors.New("clipboard: nothing to copy")

// Clipboard 剪贴板接口
type Clipboard interface {
	SetImage(img image.Image) error
	SetText(text string) error
}

// System 系统剪贴板，首次使用时初始化
type System struct {
	once  sync.Once
	err   error
	init  func() error
	write func(format clipboard.Format, data []byte)
}

// NewClipboard 创建剪贴板实例
func NewClipboard() *System {
	return &System{
		init: clipboard.Init,
		write: func(format clipboard.Format, data []byte) {
			clipboard.Write(format, data)
		},
	}
}

func (c *System) ready() error {
	c.once.Do(func() {
		if err := c.init(); err != nil {
			c.err = fmt.Errorf("初始化剪贴板失败: %w", err)
		}
	})
	return c.err
}

// SetImage 以 PNG 格式写入图像
func (c *System) SetImage(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return ErrEmpty
	}
	if err := c.ready(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("编码图像失败: %w", err)
	}
	c.write(clipboard.FmtImage, buf.Bytes())
	return nil
}

// SetText 设置剪贴板文本
func (c *System) SetText(text string) error {
	if text == "" {
		return ErrEmpty
	}
	if err := c.ready(); err != nil {
		return err
	}
	c.write(clipboard.FmtText, []byte(text))
	return nil
}
