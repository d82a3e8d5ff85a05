// Package autostart 登录时自动启动
package autostart

import (
	"fmt"
	"os"
)

// AppName 启动项名称
const AppName = "screenmark"

// Launcher 开机启动开关
type Launcher interface {
	Enabled() (bool, error)
	Enable() error
	Disable() error
}

// Set 按开关启用或关闭
func Set(l Launcher, enabled bool) error {
	if enabled {
		return l.Enable()
	}
	return l.Disable()
}

// executable 当前可执行文件路径
func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return exe, nil
}
