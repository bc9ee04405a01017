package model

import (
	"fmt"

	"github.com/paiban/weekplan/pkg/errors"
)

// Problem 规范模型：班次、员工、需求
type Problem struct {
	Shifts       []Shift   `json:"shifts"`
	Workers      []*Worker `json:"workers"`
	Requirements []int     `json:"requirements"`
}

// ShiftsPerDay 每天班次数
func (p *Problem) ShiftsPerDay() int {
	return len(p.Shifts)
}

// TotalPeriods 一周时段总数
func (p *Problem) TotalPeriods() int {
	return DaysPerWeek * len(p.Shifts)
}

// ShiftAt 返回时段 idx 对应的班次
func (p *Problem) ShiftAt(idx int) Shift {
	return p.Shifts[idx%len(p.Shifts)]
}

// Requirement 时段 idx 的最低人数
func (p *Problem) Requirement(idx int) int {
	if idx < 0 || idx >= len(p.Requirements) {
		return 0
	}
	return p.Requirements[idx]
}

// Worker 按名字查找员工
func (p *Problem) Worker(name string) *Worker {
	for _, w := range p.Workers {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// Validate 检查规范模型不变量
func (p *Problem) Validate() error {
	if len(p.Shifts) == 0 {
		return errors.MalformedInput("shifts", "至少需要一个班次")
	}
	for _, s := range p.Shifts {
		if s.Start > s.End {
			return errors.MalformedInput("shifts",
				fmt.Sprintf("第 %d 个班次开始时间 %s 晚于结束时间 %s", s.Index+1, s.Start, s.End))
		}
	}

	total := p.TotalPeriods()
	if len(p.Requirements) < total {
		return errors.MalformedInput("requirements",
			fmt.Sprintf("需求长度 %d 小于时段总数 %d", len(p.Requirements), total))
	}
	for i, r := range p.Requirements {
		if r < 0 {
			return errors.MalformedInput("requirements", fmt.Sprintf("第 %d 个需求为负数: %d", i+1, r))
		}
	}

	seen := make(map[string]bool, len(p.Workers))
	for _, w := range p.Workers {
		if w.Name == "" {
			return errors.MalformedInput("workers", "员工姓名为空")
		}
		if seen[w.Name] {
			return errors.MalformedInput("workers", fmt.Sprintf("员工姓名重复: %s", w.Name))
		}
		seen[w.Name] = true

		for d, win := range w.Windows {
			if win.Open() && *win.Start > *win.End {
				return errors.MalformedInput("workers",
					fmt.Sprintf("员工 %s 的 %s 时间窗开始晚于结束", w.Name, DayNames[d]))
			}
		}
	}
	return nil
}
