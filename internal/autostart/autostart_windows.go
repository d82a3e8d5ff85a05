//go:build windows

package autostart

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const runKey = `Software\Microsoft\Windows\CurrentVersion\Run`

// Registry 写 HKCU 的 Run 键
type Registry struct {
	name string
	exe  func() (string, error)
}

// New 创建启动项管理
func New() Launcher {
	return &Registry{name: AppName, exe: executable}
}

// Enabled 启动项是否存在
func (r *Registry) Enabled() (bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.QUERY_VALUE)
	if err != nil {
		return false, fmt.Errorf("open run key: %w", err)
	}
	defer k.Close()
	_, _, err = k.GetStringValue(r.name)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Enable 写入启动项
func (r *Registry) Enable() error {
	exe, err := r.exe()
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open run key: %w", err)
	}
	defer k.Close()
	if err := k.SetStringValue(r.name, `"`+exe+`"`); err != nil {
		return fmt.Errorf("write run value: %w", err)
	}
	return nil
}

// Disable 删除启动项，不存在时不报错
func (r *Registry) Disable() error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open run key: %w", err)
	}
	defer k.Close()
	if err := k.DeleteValue(r.name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("delete run value: %w", err)
	}
	return nil
}
