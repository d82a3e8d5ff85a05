// Package tray 托盘菜单。Presenter 只负责展示 View 并把点击转成 Actions 回调，
// 不持有任何业务状态。
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"screenmark/internal/display"
)

// maxDisplaySlots 显示器子菜单预留的条目数，systray 不能删除菜单项，多余的隐藏
const maxDisplaySlots = 8

// View 菜单需要展示的状态
type View struct {
	Drawing       bool
	Displays      []display.Display
	LockedID      string
	AutoStart     bool
	Hotkey        string // 如 "ctrl+shift+d"
	HasAnnotation bool
}

// Actions 菜单命令，未设置的回调对应菜单项不可用
type Actions struct {
	Toggle       func()
	Clear        func()
	LockDisplay  func(id string) // 空串恢复自动
	Copy         func()
	Save         func()
	SetAutoStart func(enabled bool)
	SetHotkey    func()
	CheckUpdates func()
	Quit         func()
}

// Entry 显示器子菜单的一项
type Entry struct {
	ID      string
	Label   string
	Checked bool
}

// Presenter 系统托盘
type Presenter struct {
	log     *zap.Logger
	actions Actions

	mu       sync.Mutex
	view     View
	ready    bool
	quitting bool
	done     chan struct{}

	toggle    *systray.MenuItem
	clear     *systray.MenuItem
	displays  *systray.MenuItem
	slots     []*systray.MenuItem
	slotIDs   []string
	copy      *systray.MenuItem
	save      *systray.MenuItem
	autoStart *systray.MenuItem
	hotkey    *systray.MenuItem
	update    *systray.MenuItem
	quit      *systray.MenuItem
}

// NewPresenter 创建托盘
func NewPresenter(log *zap.Logger, actions Actions) *Presenter {
	return &Presenter{
		log:     log,
		actions: actions,
		done:    make(chan struct{}),
		slotIDs: make([]string, maxDisplaySlots),
	}
}

// Run 运行系统托盘（阻塞，需在主线程调用）
func (p *Presenter) Run() {
	systray.Run(p.onReady, p.onExit)
}

// Quit 退出托盘，Run 随之返回。托盘就绪前调用时在就绪后立即退出
func (p *Presenter) Quit() {
	p.mu.Lock()
	p.quitting = true
	ready := p.ready
	p.mu.Unlock()
	if ready {
		systray.Quit()
	}
}

// Render 展示新的状态，可在任意 goroutine 调用；托盘就绪前只记录
func (p *Presenter) Render(v View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = v
	if p.ready {
		p.apply()
	}
}

func (p *Presenter) onReady() {
	systray.SetTitle("screenmark")

	p.mu.Lock()
	p.toggle = systray.AddMenuItem("开始绘制", "打开或关闭画笔")
	p.clear = systray.AddMenuItem("清空画布", "清除当前所有笔迹")
	systray.AddSeparator()

	p.displays = systray.AddMenuItem("显示器", "覆盖层所在的显示器")
	for i := 0; i < maxDisplaySlots; i++ {
		p.slots = append(p.slots, p.displays.AddSubMenuItem("", ""))
	}
	systray.AddSeparator()

	p.copy = systray.AddMenuItem("复制标注到剪贴板", "复制最近一次的标注图像")
	p.save = systray.AddMenuItem("保存标注…", "把最近一次的标注保存为图片")
	systray.AddSeparator()

	p.autoStart = systray.AddMenuItem("开机启动", "登录时自动运行")
	p.hotkey = systray.AddMenuItem("设置快捷键…", "修改绘制开关的全局快捷键")
	p.update = systray.AddMenuItem("检查更新", "查看是否有新版本")
	systray.AddSeparator()

	p.quit = systray.AddMenuItem("退出", "退出程序")

	p.ready = true
	p.apply()
	quitting := p.quitting
	p.mu.Unlock()

	if quitting {
		systray.Quit()
		return
	}
	for i, slot := range p.slots {
		go p.listenSlot(i, slot)
	}
	go p.listen()
}

func (p *Presenter) listen() {
	for {
		select {
		case <-p.toggle.ClickedCh:
			call(p.actions.Toggle)
		case <-p.clear.ClickedCh:
			call(p.actions.Clear)
		case <-p.copy.ClickedCh:
			call(p.actions.Copy)
		case <-p.save.ClickedCh:
			call(p.actions.Save)
		case <-p.autoStart.ClickedCh:
			if p.actions.SetAutoStart != nil {
				p.actions.SetAutoStart(!p.autoStart.Checked())
			}
		case <-p.hotkey.ClickedCh:
			call(p.actions.SetHotkey)
		case <-p.update.ClickedCh:
			call(p.actions.CheckUpdates)
		case <-p.quit.ClickedCh:
			call(p.actions.Quit)
			systray.Quit()
			return
		case <-p.done:
			return
		}
	}
}

func (p *Presenter) listenSlot(i int, item *systray.MenuItem) {
	for {
		select {
		case <-item.ClickedCh:
			p.mu.Lock()
			id := p.slotIDs[i]
			p.mu.Unlock()
			if p.actions.LockDisplay != nil {
				p.actions.LockDisplay(id)
			}
		case <-p.done:
			return
		}
	}
}

func (p *Presenter) onExit() {
	p.mu.Lock()
	p.ready = false
	p.mu.Unlock()
	close(p.done)
	p.log.Debug("托盘已退出")
}

// apply 把 view 同步到菜单，调用方持有 mu
func (p *Presenter) apply() {
	v := p.view
	systray.SetIcon(getIcon(v.Drawing))
	systray.SetTooltip(Tooltip(v))

	p.toggle.SetTitle(ToggleLabel(v))
	enable(p.toggle, p.actions.Toggle != nil)
	enable(p.clear, v.Drawing && p.actions.Clear != nil)
	enable(p.copy, v.HasAnnotation && p.actions.Copy != nil)
	enable(p.save, v.HasAnnotation && p.actions.Save != nil)
	enable(p.hotkey, p.actions.SetHotkey != nil)
	enable(p.update, p.actions.CheckUpdates != nil)
	check(p.autoStart, v.AutoStart)
	enable(p.autoStart, p.actions.SetAutoStart != nil)

	entries := DisplayEntries(v)
	if len(entries) > len(p.slots) {
		p.log.Warn("显示器数量超过菜单容量", zap.Int("displays", len(entries)-1))
		entries = entries[:len(p.slots)]
	}
	for i, slot := range p.slots {
		if i >= len(entries) {
			p.slotIDs[i] = ""
			slot.Hide()
			continue
		}
		p.slotIDs[i] = entries[i].ID
		slot.SetTitle(entries[i].Label)
		check(slot, entries[i].Checked)
		slot.Show()
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func enable(item *systray.MenuItem, on bool) {
	if on {
		item.Enable()
	} else {
		item.Disable()
	}
}

func check(item *systray.MenuItem, on bool) {
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// ToggleLabel 开关菜单的文字，附带快捷键
func ToggleLabel(v View) string {
	label := "开始绘制"
	if v.Drawing {
		label = "停止绘制"
	}
	if v.Hotkey == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, FormatHotkey(v.Hotkey))
}

// Tooltip 托盘提示
func Tooltip(v View) string {
	state := "未绘制"
	if v.Drawing {
		state = "绘制中"
	}
	where := "跟随光标"
	if v.LockedID != "" {
		where = "锁定 " + v.LockedID
	}
	return fmt.Sprintf("screenmark - %s，%s", state, where)
}

// DisplayEntries 显示器子菜单：第一项为自动，其后每个显示器一项，锁定的显示器打勾
func DisplayEntries(v View) []Entry {
	entries := []Entry{{ID: "", Label: "自动（跟随光标）", Checked: v.LockedID == ""}}
	for i, d := range v.Displays {
		label := fmt.Sprintf("显示器 %d  %d×%d", i+1, d.Bounds.Dx(), d.Bounds.Dy())
		if d.Primary {
			label += "（主）"
		}
		entries = append(entries, Entry{ID: d.ID, Label: label, Checked: d.ID == v.LockedID})
	}
	return entries
}

// FormatHotkey "ctrl+shift+d" -> "Ctrl+Shift+D"
func FormatHotkey(s string) string {
	parts := strings.Split(s, "+")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if len(part) == 1 {
			parts[i] = strings.ToUpper(part)
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, "+")
}
