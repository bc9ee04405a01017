// Package projector 把求解结果映射回每人每天的排班表
package projector

import (
	"fmt"
	"strings"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/milp"
	"github.com/paiban/weekplan/pkg/model"
	"github.com/paiban/weekplan/pkg/scheduler"
)

// Project 生成排班表。非最优解拒绝投影；同一员工同一天出现多个班次
// 说明约束构建有误，直接返回 INVARIANT_VIOLATION，不做任何修正。
func Project(f *scheduler.Formulation, sol *milp.Solution) (*model.Schedule, error) {
	if sol == nil {
		return nil, errors.NoSolution(milp.StatusUnknown.String())
	}
	if !sol.Optimal() {
		return nil, errors.NoSolution(sol.Status.String())
	}
	if len(sol.Values) != f.Model.NumVars() {
		return nil, errors.InvariantViolation(
			fmt.Sprintf("解的取值个数 %d 与变量数 %d 不一致", len(sol.Values), f.Model.NumVars()))
	}

	problem := f.Problem
	schedule := &model.Schedule{Rows: make([]model.ScheduleRow, 0, len(problem.Workers))}
	for w, worker := range problem.Workers {
		row := model.NewScheduleRow(worker.Name)
		for d := 0; d < model.DaysPerWeek; d++ {
			var active []int
			for i, v := range f.DayVars(w, d) {
				if sol.Bool(v) {
					active = append(active, i)
				}
			}
			switch len(active) {
			case 0:
				row.Shifts[d] = model.Off
			case 1:
				shift := problem.Shifts[active[0]]
				row.Shifts[d] = shift.DisplayLabel()
				row.ShiftIndex[d] = active[0]
			default:
				labels := make([]string, len(active))
				for i, idx := range active {
					labels[i] = problem.Shifts[idx].DisplayLabel()
				}
				return nil, errors.InvariantViolation(fmt.Sprintf("员工 %s 在 %s 有 %d 个班次: %s",
					worker.Name, model.DayNames[d], len(active), strings.Join(labels, ","))).
					WithField("worker", worker.Name).
					WithField("day", d)
			}
		}
		schedule.Rows = append(schedule.Rows, row)
	}
	return schedule, nil
}
