//go:build !windows

package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// File 通过启动文件实现：Linux 写 XDG autostart 的 .desktop，macOS 写 LaunchAgent
type File struct {
	path   string
	render func(exe string) string
	exe    func() (string, error)
}

// New 创建启动项管理
func New() Launcher {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return newFile(home, runtime.GOOS)
}

func newFile(home, goos string) *File {
	if goos == "darwin" {
		return &File{
			path:   filepath.Join(home, "Library", "LaunchAgents", "com."+AppName+".plist"),
			render: launchAgent,
			exe:    executable,
		}
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(home, ".config")
	}
	return &File{
		path:   filepath.Join(dir, "autostart", AppName+".desktop"),
		render: desktopEntry,
		exe:    executable,
	}
}

// Path 启动文件位置
func (f *File) Path() string { return f.path }

// Enabled 启动文件是否存在
func (f *File) Enabled() (bool, error) {
	_, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Enable 写入启动文件
func (f *File) Enable() error {
	exe, err := f.exe()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(f.render(exe)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

// Disable 删除启动文件，不存在时不报错
func (f *File) Disable() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", f.path, err)
	}
	return nil
}

func desktopEntry(exe string) string {
	return strings.Join([]string{
		"[Desktop Entry]",
		"Type=Application",
		"Name=" + AppName,
		"Exec=" + quoteExec(exe),
		"X-GNOME-Autostart-enabled=true",
		"NoDisplay=true",
		"",
	}, "\n")
}

// quoteExec 路径含空格时按 desktop entry 规范加引号
func quoteExec(exe string) string {
	if !strings.ContainsAny(exe, " \t\"") {
		return exe
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", "$", `\$`)
	return `"` + r.Replace(exe) + `"`
}

func launchAgent(exe string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>com.` + AppName + `</string>
	<key>ProgramArguments</key>
	<array>
		<string>` + r.Replace(exe) + `</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`
}
