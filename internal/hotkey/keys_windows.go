//go:build windows

package hotkey

import (
	"golang.design/x/hotkey"

	"screenmark/internal/platform"
)

const (
	modAlt   = hotkey.ModAlt
	modSuper = hotkey.ModWin
)

// Windows 热键码就是虚拟键码
func pagingKey(code int) (hotkey.Key, bool) {
	switch code {
	case platform.KeyPageUp, platform.KeyPageDown, platform.KeyHome, platform.KeyEnd:
		return hotkey.Key(code), true
	}
	return 0, false
}
