package scheduler

import (
	"fmt"
	"strings"

	"github.com/paiban/weekplan/pkg/availability"
	"github.com/paiban/weekplan/pkg/model"
)

// Diagnose 找出显然导致无解的原因，用于 INFEASIBLE 错误提示。
// 返回空切片不代表有解。
func Diagnose(problem *model.Problem, cfg Config) []string {
	var hints []string
	perDay := problem.ShiftsPerDay()

	counts := availability.Count(problem)
	for p, avail := range counts {
		req := problem.Requirement(p)
		if req > avail {
			period := model.PeriodOf(p, perDay)
			hints = append(hints, fmt.Sprintf("%s 班次 %s 需要 %d 人，只有 %d 人可用",
				model.DayNames[period.Day], problem.ShiftAt(p).DisplayLabel(), req, avail))
		}
	}

	for _, w := range problem.Workers {
		days := 0
		for d := 0; d < model.DaysPerWeek; d++ {
			from, to := model.DayRange(d, perDay)
			for p := from; p < to; p++ {
				if w.AvailableAt(p) {
					days++
					break
				}
			}
		}
		limit := days
		if cfg.MaxWorkingDays > 0 && cfg.MaxWorkingDays < limit {
			limit = cfg.MaxWorkingDays
		}
		if limit < cfg.MinShiftsPerWeek {
			hints = append(hints, fmt.Sprintf("员工 %s 最多只能上 %d 天，少于每周最少班次 %d",
				w.Name, limit, cfg.MinShiftsPerWeek))
		}
	}

	demand := 0
	for p := 0; p < problem.TotalPeriods(); p++ {
		demand += problem.Requirement(p)
	}
	capacity := len(problem.Workers) * cfg.MaxShiftsPerWeek
	if demand > capacity {
		hints = append(hints, fmt.Sprintf("总需求 %d 超过全部员工的最多班次之和 %d", demand, capacity))
	}
	return hints
}

// HintText 合并提示，没有具体原因时给出通用建议
func HintText(hints []string) string {
	if len(hints) == 0 {
		return "请检查需求人数与员工数量、可用时间以及每周班次上下限"
	}
	return strings.Join(hints, "; ")
}
