package canvas

import "image"

// History 线性撤销历史：每次完成一笔后保存整张画布的快照。
// cursor 指向当前显示的快照，-1 表示第一条之前（空白画布）。
// 在撤销后落下新的一笔会丢弃 cursor 之后的所有快照。
type History struct {
	snapshots  []*image.RGBA
	cursor     int
	maxHistory int
}

// NewHistory 创建历史记录，maxHistory<=0 时取 50
func NewHistory(maxHistory int) *History {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &History{
		snapshots:  make([]*image.RGBA, 0),
		cursor:     -1,
		maxHistory: maxHistory,
	}
}

// Commit 追加一张快照（调用方负责传入副本）
func (h *History) Commit(snap *image.RGBA) {
	// 截断重做分支
	for i := h.cursor + 1; i < len(h.snapshots); i++ {
		h.snapshots[i] = nil
	}
	h.snapshots = h.snapshots[:h.cursor+1]
	h.snapshots = append(h.snapshots, snap)

	if len(h.snapshots) > h.maxHistory {
		drop := len(h.snapshots) - h.maxHistory
		copy(h.snapshots, h.snapshots[drop:])
		for i := len(h.snapshots) - drop; i < len(h.snapshots); i++ {
			h.snapshots[i] = nil
		}
		h.snapshots = h.snapshots[:h.maxHistory]
	}
	h.cursor = len(h.snapshots) - 1
}

// Undo 后退一步，返回是否移动
func (h *History) Undo() bool {
	if h.cursor < 0 {
		return false
	}
	h.cursor--
	return true
}

// Redo 前进一步，返回是否移动
func (h *History) Redo() bool {
	if h.cursor >= len(h.snapshots)-1 {
		return false
	}
	h.cursor++
	return true
}

// Current 当前快照，cursor 为 -1 时返回 nil
func (h *History) Current() *image.RGBA {
	if h.cursor < 0 {
		return nil
	}
	return h.snapshots[h.cursor]
}

// Len 快照数量
func (h *History) Len() int {
	return len(h.snapshots)
}

// Cursor 当前位置
func (h *History) Cursor() int {
	return h.cursor
}

// CanUndo 是否可以撤销
func (h *History) CanUndo() bool {
	return h.cursor >= 0
}

// CanRedo 是否可以重做
func (h *History) CanRedo() bool {
	return h.cursor < len(h.snapshots)-1
}

// Clear 清空所有历史
func (h *History) Clear() {
	for i := range h.snapshots {
		h.snapshots[i] = nil
	}
	h.snapshots = h.snapshots[:0]
	h.cursor = -1
}
