//go:build darwin

package hotkey

import (
	"golang.design/x/hotkey"

	"screenmark/internal/platform"
)

const (
	modAlt   = hotkey.ModOption
	modSuper = hotkey.ModCmd
)

// Carbon kVK 键码
func pagingKey(code int) (hotkey.Key, bool) {
	switch code {
	case platform.KeyPageUp:
		return hotkey.Key(0x74), true
	case platform.KeyPageDown:
		return hotkey.Key(0x79), true
	case platform.KeyHome:
		return hotkey.Key(0x73), true
	case platform.KeyEnd:
		return hotkey.Key(0x77), true
	}
	return 0, false
}
