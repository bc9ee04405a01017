// Package availability 计算员工在每个时段能否上班
package availability

import "github.com/paiban/weekplan/pkg/model"

// Resolve 返回长度为 7*len(shifts) 的可用向量。
// 当天时间窗完整覆盖班次 [start, end] 时为 true；时间窗缺失一端视为全天不可用。
func Resolve(worker *model.Worker, shifts []model.Shift) []bool {
	perDay := len(shifts)
	avail := make([]bool, model.DaysPerWeek*perDay)

	for d := 0; d < model.DaysPerWeek; d++ {
		win := worker.Windows[d]
		if !win.Open() {
			continue
		}
		for i, s := range shifts {
			avail[model.PeriodIndex(d, i, perDay)] = win.Covers(s.Start, s.End)
		}
	}
	return avail
}

// Apply 返回填好 PeriodAvail 的副本，传入的问题和员工保持不变
func Apply(problem *model.Problem) *model.Problem {
	out := &model.Problem{
		Shifts:       append([]model.Shift(nil), problem.Shifts...),
		Workers:      make([]*model.Worker, len(problem.Workers)),
		Requirements: append([]int(nil), problem.Requirements...),
	}
	for i, w := range problem.Workers {
		c := *w
		c.PeriodAvail = Resolve(w, problem.Shifts)
		out.Workers[i] = &c
	}
	return out
}

// Count 统计每个时段可用的员工数
func Count(problem *model.Problem) []int {
	counts := make([]int, problem.TotalPeriods())
	for _, w := range problem.Workers {
		for p := range counts {
			if w.AvailableAt(p) {
				counts[p]++
			}
		}
	}
	return counts
}
