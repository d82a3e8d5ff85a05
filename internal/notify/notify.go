// Package notify 用户通知。通知失败只记录日志，不影响主流程。
package notify

import "go.uber.org/zap"

// AppID 通知来源名称
const AppID = "screenmark"

// Notifier 通知接口
type Notifier interface {
	Show(title, message string) error
}

// LogNotifier 把通知写进日志，用于没有系统通知的平台或关闭了通知时
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Show 记录一条通知
func (n *LogNotifier) Show(title, message string) error {
	n.log.Info(title, zap.String("message", message))
	return nil
}

// Muted 按开关决定是否真正弹出通知；关闭时只写日志
func Muted(n Notifier, log *zap.Logger, enabled bool) Notifier {
	if enabled {
		return n
	}
	return NewLogNotifier(log)
}
