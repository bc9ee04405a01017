// Package model 定义周排班的规范数据模型
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DaysPerWeek 排班周期天数
const DaysPerWeek = 7

// DayNames 星期顺序，与输入列顺序一致
var DayNames = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Clock 一天中的时刻，单位秒（0 ~ 86400）
type Clock int

// NewClock 由时分创建时刻
func NewClock(hour, minute int) Clock {
	return Clock(hour*3600 + minute*60)
}

// ParseClock 解析 HH:MM 或 HH:MM:SS
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("无法解析时间 %q", s)
	}

	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return 0, fmt.Errorf("无法解析时间 %q", s)
		}
		fields[i] = v
	}

	h, m, sec := fields[0], fields[1], fields[2]
	if m > 59 || sec > 59 || h > 24 || (h == 24 && (m > 0 || sec > 0)) {
		return 0, fmt.Errorf("时间超出范围 %q", s)
	}
	return Clock(h*3600 + m*60 + sec), nil
}

// String 返回 HH:MM 或 HH:MM:SS
func (c Clock) String() string {
	h, m, s := int(c)/3600, int(c)%3600/60, int(c)%60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Window 某天的可用时间窗，Start 或 End 为空表示当天不可用
type Window struct {
	Start *Clock `json:"start,omitempty"`
	End   *Clock `json:"end,omitempty"`
}

// NewWindow 创建完整时间窗
func NewWindow(start, end Clock) Window {
	return Window{Start: &start, End: &end}
}

// Open 时间窗两端都存在
func (w Window) Open() bool {
	return w.Start != nil && w.End != nil
}

// Covers 时间窗是否完整覆盖 [start, end]
func (w Window) Covers(start, end Clock) bool {
	if !w.Open() {
		return false
	}
	return *w.Start <= start && *w.End >= end
}

// String 返回可读形式
func (w Window) String() string {
	if !w.Open() {
		return "-"
	}
	return w.Start.String() + "-" + w.End.String()
}
