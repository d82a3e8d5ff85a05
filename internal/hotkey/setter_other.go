//go:build !windows

package hotkey

import "errors"

// ErrPromptUnsupported 当前平台没有输入框，改用 --set-hotkey
var ErrPromptUnsupported = errors.New("hotkey: interactive prompt not supported, use --set-hotkey")

// Prompt 当前平台不支持
func Prompt(current string) (string, error) {
	return "", ErrPromptUnsupported
}
