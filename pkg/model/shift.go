package model

import "strconv"

// Shift 班次定义，一天内按顺序排列，七天相同
type Shift struct {
	Index int    `json:"index"` // 当天内序号，从 0 开始
	Label string `json:"label"` // 输出显示名
	Start Clock  `json:"start"`
	End   Clock  `json:"end"`
}

// DisplayLabel 返回显示名，没有时使用从 1 开始的序号
func (s Shift) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return strconv.Itoa(s.Index + 1)
}

// Duration 返回班次时长（秒）
func (s Shift) Duration() int {
	return int(s.End - s.Start)
}

// Period 一周内的一个 (天, 班次) 时段
type Period struct {
	Day   int `json:"day"`
	Shift int `json:"shift"`
}

// PeriodIndex 展平时段编号 p = day*shiftsPerDay + shift
func PeriodIndex(day, shift, shiftsPerDay int) int {
	return day*shiftsPerDay + shift
}

// PeriodOf 由展平编号还原时段
func PeriodOf(p, shiftsPerDay int) Period {
	return Period{Day: p / shiftsPerDay, Shift: p % shiftsPerDay}
}

// DayRange 返回某天时段编号的半开区间 [from, to)
func DayRange(day, shiftsPerDay int) (from, to int) {
	return day * shiftsPerDay, (day + 1) * shiftsPerDay
}
