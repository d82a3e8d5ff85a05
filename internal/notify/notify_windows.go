//go:build windows

package notify

import (
	"github.com/go-toast/toast"
	"go.uber.org/zap"
)

// toastQueue 最多排队的通知数，演示中连续操作时多余的直接丢弃
const toastQueue = 4

// ToastNotifier 静音的 Windows 通知，由单个 goroutine 依次推送
type ToastNotifier struct {
	log     *zap.Logger
	pending chan toast.Notification
}

// NewNotifier 创建通知器
func NewNotifier(log *zap.Logger) Notifier {
	n := &ToastNotifier{
		log:     log,
		pending: make(chan toast.Notification, toastQueue),
	}
	go n.run()
	return n
}

// Show 不阻塞调用方；队列满时丢弃并记录
func (n *ToastNotifier) Show(title, message string) error {
	select {
	case n.pending <- toast.Notification{
		AppID:    AppID,
		Title:    title,
		Message:  message,
		Audio:    toast.Silent,
		Duration: toast.Short,
	}:
	default:
		n.log.Debug("通知队列已满", zap.String("title", title))
	}
	return nil
}

func (n *ToastNotifier) run() {
	for t := range n.pending {
		if err := t.Push(); err != nil {
			n.log.Warn("通知发送失败", zap.String("title", t.Title), zap.Error(err))
		}
	}
}
