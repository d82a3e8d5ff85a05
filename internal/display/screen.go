package display

import (
	"github.com/kbinani/screenshot"
)

// ScreenSource 通过 kbinani/screenshot 枚举显示器
type ScreenSource struct{}

// NewScreenSource 创建系统显示器枚举器
func NewScreenSource() *ScreenSource {
	return &ScreenSource{}
}

// Displays 获取所有活动显示器
func (s *ScreenSource) Displays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplays
	}

	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		if b.Empty() {
			continue
		}
		displays = append(displays, Display{
			ID:      IDFor(b),
			Bounds:  b,
			Primary: b.Min.X == 0 && b.Min.Y == 0,
		})
	}
	if len(displays) == 0 {
		return nil, ErrNoDisplays
	}
	return displays, nil
}
