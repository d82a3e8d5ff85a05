//go:build !windows

package platform

import (
	"runtime"

	"go.uber.org/zap"
)

// New 当前平台没有原生窗口实现，退化为无窗口适配器：
// 托盘、快捷键和画布逻辑照常工作，只是不显示覆盖层
func New(log *zap.Logger) (Adapter, error) {
	log.Warn("当前平台没有原生覆盖层窗口实现，使用无窗口模式", zap.String("os", runtime.GOOS))

	caps := Capabilities{}
	if runtime.GOOS == "darwin" {
		caps.Kiosk = true
	}
	if runtime.GOOS == "linux" {
		caps.ReassertTransparency = true
	}
	return NewHeadless(log, caps), nil
}
