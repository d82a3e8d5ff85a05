package display

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"
)

// ErrNoDisplays 系统没有报告任何显示器
var ErrNoDisplays = errors.New("display: no active displays")

// Display 显示器描述（每次决策前重新查询，不跨调用缓存）
type Display struct {
	ID      string          `json:"id"`
	Bounds  image.Rectangle `json:"bounds"`
	Primary bool            `json:"primary"`
}

// Source 枚举当前连接的显示器
type Source interface {
	Displays() ([]Display, error)
}

// Cursor 查询指针的全局坐标
type Cursor interface {
	Position() (image.Point, error)
}

// IDFor 由显示器边界生成标识，格式 "x,y:wxh"
func IDFor(r image.Rectangle) string {
	return fmt.Sprintf("%d,%d:%dx%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// String 便于日志输出
func (d Display) String() string {
	return d.ID
}

// Find 按 ID 查找显示器
func Find(displays []Display, id string) (Display, bool) {
	if id == "" {
		return Display{}, false
	}
	for _, d := range displays {
		if d.ID == id {
			return d, true
		}
	}
	return Display{}, false
}

// Resolve 选出覆盖层应占据的显示器。
// lockedID 命中时直接返回锁定的显示器；否则返回离光标最近的显示器，
// 距离相同时取 ID 最小者。第二个返回值为 true 表示锁定的显示器已不存在，
// 调用方需要清除并持久化锁定状态。
// 前置条件：displays 非空。
func Resolve(displays []Display, cursor image.Point, lockedID string) (Display, bool) {
	if d, ok := Find(displays, lockedID); ok {
		return d, false
	}
	stale := lockedID != ""

	best := -1
	bestDist := math.MaxFloat64
	for i, d := range displays {
		dist := distance(d.Bounds, cursor)
		if best < 0 || dist < bestDist || (dist == bestDist && d.ID < displays[best].ID) {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return Display{}, stale
	}
	return displays[best], stale
}

// Containing 返回包含某个矩形中心点的显示器（用于判断窗口当前所在的显示器）
func Containing(displays []Display, r image.Rectangle) (Display, bool) {
	if len(displays) == 0 {
		return Display{}, false
	}
	center := image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
	d, _ := Resolve(displays, center, "")
	return d, true
}

// distance 光标到矩形上最近点的欧氏距离，矩形内为 0。
// 矩形按半开区间处理，右/下边界上的点不算在内。
func distance(r image.Rectangle, p image.Point) float64 {
	dx := 0
	if p.X < r.Min.X {
		dx = r.Min.X - p.X
	} else if p.X >= r.Max.X {
		dx = p.X - (r.Max.X - 1)
	}
	dy := 0
	if p.Y < r.Min.Y {
		dy = r.Min.Y - p.Y
	} else if p.Y >= r.Max.Y {
		dy = p.Y - (r.Max.Y - 1)
	}
	return math.Hypot(float64(dx), float64(dy))
}

// Signature 显示器拓扑签名，排序后拼接所有 ID，拓扑不变则签名不变
func Signature(displays []Display) string {
	ids := make([]string, len(displays))
	for i, d := range displays {
		ids[i] = d.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}
