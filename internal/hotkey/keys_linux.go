//go:build linux

package hotkey

import (
	"golang.design/x/hotkey"

	"screenmark/internal/platform"
)

const (
	modAlt   = hotkey.Mod1
	modSuper = hotkey.Mod4
)

// X11 keysym
func pagingKey(code int) (hotkey.Key, bool) {
	switch code {
	case platform.KeyPageUp:
		return hotkey.Key(0xff55), true
	case platform.KeyPageDown:
		return hotkey.Key(0xff56), true
	case platform.KeyHome:
		return hotkey.Key(0xff50), true
	case platform.KeyEnd:
		return hotkey.Key(0xff57), true
	}
	return 0, false
}
