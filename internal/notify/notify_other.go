//go:build !windows

package notify

import "go.uber.org/zap"

// NewNotifier 非 Windows 平台只写日志
func NewNotifier(log *zap.Logger) Notifier {
	return NewLogNotifier(log)
}
