package platform

// 虚拟键码（与浏览器 keyCode 取值一致）
const (
	KeyBackspace = 0x08
	KeyTab       = 0x09
	KeyEnter     = 0x0D
	KeyEscape    = 0x1B
	KeySpace     = 0x20
	KeyPageUp    = 0x21
	KeyPageDown  = 0x22
	KeyEnd       = 0x23
	KeyHome      = 0x24
	KeyLeft      = 0x25
	KeyUp        = 0x26
	KeyRight     = 0x27
	KeyDown      = 0x28
	KeyDelete    = 0x2E
	KeyC         = 0x43
	KeyE         = 0x45
	KeyY         = 0x59
	KeyZ         = 0x5A
)

// PresentationKeys 翻页笔常用按键：绘制时按下会先关闭画笔，再把按键交给下层应用
var PresentationKeys = []int{
	KeyEscape,
	KeyLeft, KeyRight, KeyUp, KeyDown,
	KeyPageUp, KeyPageDown,
	KeyHome, KeyEnd,
	KeySpace,
	KeyEnter,
}

// IsPresentationKey 是否为翻页笔按键
func IsPresentationKey(code int) bool {
	for _, k := range PresentationKeys {
		if k == code {
			return true
		}
	}
	return false
}

// KeyName 按键名（日志用）
func KeyName(code int) string {
	switch code {
	case KeyEscape:
		return "escape"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyPageUp:
		return "pageup"
	case KeyPageDown:
		return "pagedown"
	case KeyHome:
		return "home"
	case KeyEnd:
		return "end"
	case KeySpace:
		return "space"
	case KeyEnter:
		return "enter"
	}
	if code >= '0' && code <= '9' {
		return string(rune(code))
	}
	if code >= 'A' && code <= 'Z' {
		return string(rune(code + 'a' - 'A'))
	}
	return "?"
}
