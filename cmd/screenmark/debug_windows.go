//go:build windows

package main

import (
	"github.com/lxn/win"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// logDisplayDiagnostics 调试模式下输出 DPI 和虚拟屏幕信息，排查覆盖层错位
func logDisplayDiagnostics(log *zap.Logger) {
	fields := []zap.Field{
		zap.String("dpiMode", dpiMode),
		zap.Int32("screenW", win.GetSystemMetrics(win.SM_CXSCREEN)),
		zap.Int32("screenH", win.GetSystemMetrics(win.SM_CYSCREEN)),
		zap.Int32("virtualX", win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)),
		zap.Int32("virtualY", win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)),
		zap.Int32("virtualW", win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)),
		zap.Int32("virtualH", win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)),
	}

	user32 := windows.NewLazySystemDLL("user32.dll")
	if p := user32.NewProc("GetDpiForSystem"); p.Find() == nil {
		dpi, _, _ := p.Call()
		fields = append(fields, zap.Uint64("systemDPI", uint64(dpi)), zap.Uint64("scalePercent", uint64(dpi*100/96)))
	}
	log.Debug("显示器诊断", fields...)
}
