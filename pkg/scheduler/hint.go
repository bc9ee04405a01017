package scheduler

import (
	"fmt"
	"strings"

	"github.com/paiban/weekplan/pkg/milp"
	"github.com/paiban/weekplan/pkg/model"
)

// addCuts 添加只供分支定界使用的附加约束：
//   - 每周至少上一个班次的员工至少有一个上班段：Σ_d block_start[w][d] >= 1
//   - 可用时间完全相同的员工按周班次数排序：Σ x[a] >= Σ x[b]
func addCuts(b *milp.Builder, f *Formulation) {
	if f.Config.MinShiftsPerWeek < 1 {
		return
	}
	for w := range f.X {
		b.AddCut(fmt.Sprintf("cut_blocks_w%d", w), milp.NewExpr().AddSum(f.BlockStart[w]...), milp.GreaterOrEqual, 1)
	}

	last := make(map[string]int)
	for w, worker := range f.Problem.Workers {
		key := availabilityKey(worker.PeriodAvail)
		if prev, ok := last[key]; ok {
			expr := milp.NewExpr().AddSum(f.X[prev]...)
			for _, x := range f.X[w] {
				expr.Add(x, -1)
			}
			b.AddCut(fmt.Sprintf("cut_sym_w%d_w%d", prev, w), expr, milp.GreaterOrEqual, 0)
		}
		last[key] = w
	}
}

func availabilityKey(avail []bool) string {
	var sb strings.Builder
	for _, a := range avail {
		if a {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// greedyPlan 贪心排班：每人先取一段覆盖需求最多的连续上班日凑够最少班次，
// 再给仍缺人的时段补人，优先接在已有上班段两端。
// 返回 plan[w][d] 为当天班次下标，-1 表示休息；凑不出可行排班时返回 nil。
func greedyPlan(problem *model.Problem, cfg Config) [][]int {
	perDay := problem.ShiftsPerDay()
	total := problem.TotalPeriods()
	remaining := append([]int(nil), problem.Requirements[:total]...)

	dayLimit := model.DaysPerWeek
	if cfg.MaxWorkingDays > 0 {
		dayLimit = cfg.MaxWorkingDays
	}
	need := cfg.MinShiftsPerWeek
	if need > dayLimit {
		return nil
	}

	plan := make([][]int, len(problem.Workers))
	counts := make([]int, len(problem.Workers))
	take := func(w, d, i int) {
		plan[w][d] = i
		counts[w]++
		remaining[d*perDay+i]--
	}

	for w, worker := range problem.Workers {
		plan[w] = []int{-1, -1, -1, -1, -1, -1, -1}
		if need == 0 {
			continue
		}

		bestStart, bestScore := -1, -1
		for start := 0; start+need <= model.DaysPerWeek; start++ {
			score := 0
			for d := start; d < start+need; d++ {
				i := pickShift(worker, d, perDay, remaining)
				if i < 0 {
					score = -1
					break
				}
				if remaining[d*perDay+i] > 0 {
					score++
				}
			}
			if score > bestScore {
				bestStart, bestScore = start, score
			}
		}

		if bestStart >= 0 {
			for d := bestStart; d < bestStart+need; d++ {
				take(w, d, pickShift(worker, d, perDay, remaining))
			}
			continue
		}
		// 没有足够长的连续可用日，按天顺序凑
		for d := 0; d < model.DaysPerWeek && counts[w] < need; d++ {
			if i := pickShift(worker, d, perDay, remaining); i >= 0 {
				take(w, d, i)
			}
		}
		if counts[w] < need {
			return nil
		}
	}

	for p := 0; p < total; p++ {
		d, i := p/perDay, p%perDay
		for remaining[p] > 0 {
			w := pickWorker(problem, plan, counts, p, cfg.MaxShiftsPerWeek, dayLimit)
			if w < 0 {
				return nil
			}
			take(w, d, i)
		}
	}
	return plan
}

// pickShift 当天可用班次中剩余需求最多的一个，没有可用班次返回 -1
func pickShift(worker *model.Worker, d, perDay int, remaining []int) int {
	best := -1
	for i := 0; i < perDay; i++ {
		p := d*perDay + i
		if !worker.AvailableAt(p) {
			continue
		}
		if best < 0 || remaining[p] > remaining[d*perDay+best] {
			best = i
		}
	}
	return best
}

// pickWorker 为时段 p 找一个当天空闲且未达上限的员工，优先与已有上班日相邻的
func pickWorker(problem *model.Problem, plan [][]int, counts []int, p, maxShifts, dayLimit int) int {
	d := p / problem.ShiftsPerDay()
	candidate := -1
	for w, worker := range problem.Workers {
		if !worker.AvailableAt(p) || plan[w][d] >= 0 || counts[w] >= maxShifts || counts[w] >= dayLimit {
			continue
		}
		if (d > 0 && plan[w][d-1] >= 0) || (d < model.DaysPerWeek-1 && plan[w][d+1] >= 0) {
			return w
		}
		if candidate < 0 {
			candidate = w
		}
	}
	return candidate
}

// setHint 把贪心排班写成模型初始解
func setHint(b *milp.Builder, f *Formulation) {
	plan := greedyPlan(f.Problem, f.Config)
	if plan == nil {
		return
	}
	perDay := f.Problem.ShiftsPerDay()
	var hints []milp.VariableHint
	for w, days := range plan {
		for d, i := range days {
			if i < 0 {
				continue
			}
			hints = append(hints,
				milp.VariableHint{Var: f.X[w][d*perDay+i], Value: 1},
				milp.VariableHint{Var: f.WorkingDay[w][d], Value: 1},
			)
			if d == 0 || days[d-1] < 0 {
				hints = append(hints, milp.VariableHint{Var: f.BlockStart[w][d], Value: 1})
			}
		}
	}
	b.SetHint(hints)
}
