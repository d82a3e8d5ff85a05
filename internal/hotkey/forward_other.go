//go:build !windows

package hotkey

import "errors"

// ErrForwardUnsupported 当前平台不能合成按键
var ErrForwardUnsupported = errors.New("hotkey: key forwarding not supported on this platform")

// Forward 当前平台不支持，按键只用于关闭绘制
func Forward(code int) error {
	return ErrForwardUnsupported
}
