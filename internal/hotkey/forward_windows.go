//go:build windows

package hotkey

import (
	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procKeybdEvnt = user32.NewProc("keybd_event")
)

const keyEventKeyUp = 0x0002

// Forward 释放拦截后把按键重新发给前台应用
func Forward(code int) error {
	if err := procKeybdEvnt.Find(); err != nil {
		return err
	}
	procKeybdEvnt.Call(uintptr(code), 0, 0, 0)
	procKeybdEvnt.Call(uintptr(code), 0, keyEventKeyUp, 0)
	return nil
}
