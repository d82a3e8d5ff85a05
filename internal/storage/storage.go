// Package storage 把标注图像导出为文件
package storage

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNothingToSave 没有可保存的标注
var ErrNothingToSave = errors.New("storage: no annotation to save")

// Storage 导出管理
type Storage struct {
	directory string
	format    string
	quality   int
	now       func() time.Time
}

// NewStorage 创建导出器，directory 支持 ~ 开头
func NewStorage(directory, format string, quality int) *Storage {
	return &Storage{
		directory: expandHome(directory),
		format:    strings.ToLower(format),
		quality:   quality,
		now:       time.Now,
	}
}

// Directory 保存目录
func (s *Storage) Directory() string {
	return s.directory
}

// Save 保存图片，返回文件路径。jpg 没有透明通道，铺白底后再编码
func (s *Storage) Save(img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrNothingToSave
	}
	if err := os.MkdirAll(s.directory, 0755); err != nil {
		return "", fmt.Errorf("无法创建目录: %w", err)
	}

	ext := "png"
	if s.format == "jpg" || s.format == "jpeg" {
		ext = "jpg"
	}
	name := fmt.Sprintf("screenmark_%s.%s", s.now().Format("20060102_150405"), ext)
	path := uniquePath(filepath.Join(s.directory, name))
	if err := s.encode(path, ext, img); err != nil {
		return "", err
	}
	return path, nil
}

// SaveAs 保存到用户选择的路径，格式由扩展名决定，没有扩展名时补上默认格式
func (s *Storage) SaveAs(path string, img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrNothingToSave
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpeg":
		ext = "jpg"
	case "png", "jpg":
	default:
		ext = "png"
		if s.format == "jpg" || s.format == "jpeg" {
			ext = "jpg"
		}
		path += "." + ext
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("无法创建目录: %w", err)
	}
	if err := s.encode(path, ext, img); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Storage) encode(path, ext string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("无法创建文件: %w", err)
	}
	defer file.Close()

	switch ext {
	case "jpg":
		err = jpeg.Encode(file, flatten(img, color.White), &jpeg.Options{Quality: s.quality})
	default:
		err = png.Encode(file, img)
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("无法保存图片: %w", err)
	}
	return nil
}

// flatten 把透明图像合成到纯色底上
func flatten(img image.Image, bg color.Color) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Over)
	return out
}

// uniquePath 同一秒内多次保存时追加序号
func uniquePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		p := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return p
		}
	}
}

func expandHome(dir string) string {
	if dir == "~" || strings.HasPrefix(dir, "~/") || strings.HasPrefix(dir, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}
