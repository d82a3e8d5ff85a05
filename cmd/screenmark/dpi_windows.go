//go:build windows

package main

import "golang.org/x/sys/windows"

// dpiMode 进程启动时设置成功的 DPI 感知方式，调试日志里输出
var dpiMode = "none"

func init() {
	// 必须早于任何窗口创建，否则覆盖层按 96 DPI 被系统拉伸
	user32 := windows.NewLazySystemDLL("user32.dll")

	setCtx := user32.NewProc("SetProcessDpiAwarenessContext")
	if setCtx.Find() == nil {
		// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 = -4, V1 = -3
		for _, c := range []struct {
			ctx  uintptr
			name string
		}{{^uintptr(3), "per-monitor-v2"}, {^uintptr(2), "per-monitor"}} {
			if r, _, _ := setCtx.Call(c.ctx); r != 0 {
				dpiMode = c.name
				return
			}
		}
	}

	shcore := windows.NewLazySystemDLL("shcore.dll")
	awareness := shcore.NewProc("SetProcessDpiAwareness")
	if awareness.Find() == nil {
		if r, _, _ := awareness.Call(2); r == 0 { // PROCESS_PER_MONITOR_DPI_AWARE, S_OK
			dpiMode = "shcore-per-monitor"
			return
		}
	}

	if r, _, _ := user32.NewProc("SetProcessDPIAware").Call(); r != 0 {
		dpiMode = "system"
	}
}
