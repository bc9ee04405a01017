package scheduler

import (
	"fmt"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/milp"
	"github.com/paiban/weekplan/pkg/model"
)

// Formulation 构建结果：只读模型和变量索引表
type Formulation struct {
	Problem *model.Problem
	Config  Config
	Model   *milp.Model

	// X[w][p] 员工 w 上时段 p
	X [][]milp.Var
	// WorkingDay[w][d] 员工 w 在第 d 天上班
	WorkingDay [][]milp.Var
	// BlockStart[w][d] 第 d 天开始一个新的连续上班段
	BlockStart [][]milp.Var
}

// NumWorkers 员工数
func (f *Formulation) NumWorkers() int {
	return len(f.X)
}

// DayVars 员工 w 第 d 天各班次的变量
func (f *Formulation) DayVars(w, d int) []milp.Var {
	from, to := model.DayRange(d, f.Problem.ShiftsPerDay())
	return f.X[w][from:to]
}

// Build 构建周排班模型。
//
// 约束：
//   - 覆盖：Σ_w x[w][p] >= req[p]
//   - 每天至多一个班次：Σ_{p∈d} x[w][p] <= 1
//   - 上班日关联：working_day[w][d] >= x[w][p]（单向，依赖目标函数压低；
//     TightWorkingDay 时另加 working_day[w][d] <= Σ_{p∈d} x[w][p]）
//   - 周班次上下限：min <= Σ_p x[w][p] <= max
//   - 段起点：block_start[w][0] >= working_day[w][0]，
//     block_start[w][d] >= working_day[w][d] - working_day[w][d-1]（周日不回绕到周一）
//
// 目标：min Σ x + W·Σ block_start
//
// 另外附带分支定界用的附加约束和贪心初始解，它们不写入 LP 文件，也不计入约束数。
func Build(problem *model.Problem, cfg Config) (*Formulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}

	total := problem.TotalPeriods()
	perDay := problem.ShiftsPerDay()
	for _, w := range problem.Workers {
		if len(w.PeriodAvail) != total {
			return nil, errors.MalformedInput("workers",
				fmt.Sprintf("员工 %s 可用向量长度 %d 与时段总数 %d 不一致", w.Name, len(w.PeriodAvail), total))
		}
	}
	// 多余的需求行不参与建模
	reqs := problem.Requirements[:total]

	n := len(problem.Workers)
	f := &Formulation{
		Problem:    problem,
		Config:     cfg,
		X:          make([][]milp.Var, n),
		WorkingDay: make([][]milp.Var, n),
		BlockStart: make([][]milp.Var, n),
	}
	for w := 0; w < n; w++ {
		f.X[w] = make([]milp.Var, total)
		f.WorkingDay[w] = make([]milp.Var, model.DaysPerWeek)
		f.BlockStart[w] = make([]milp.Var, model.DaysPerWeek)
	}

	b := milp.NewBuilder("weekplan")

	// 按天创建变量，分支定界按编号搜索时可以尽早看到段起点成本
	for d := 0; d < model.DaysPerWeek; d++ {
		for w, worker := range problem.Workers {
			from, to := model.DayRange(d, perDay)
			for p := from; p < to; p++ {
				upper := 0
				if worker.PeriodAvail[p] {
					upper = 1
				}
				f.X[w][p] = b.NewBinary(fmt.Sprintf("x_w%d_p%d", w, p), upper)
			}
			f.WorkingDay[w][d] = b.NewBinary(fmt.Sprintf("wd_w%d_d%d", w, d), 1)
			f.BlockStart[w][d] = b.NewBinary(fmt.Sprintf("bs_w%d_d%d", w, d), 1)
		}
	}

	// 覆盖
	for p := 0; p < total; p++ {
		expr := milp.NewExpr()
		for w := 0; w < n; w++ {
			expr.Add(f.X[w][p], 1)
		}
		b.AddGreaterOrEqual(fmt.Sprintf("cover_p%d", p), expr, float64(reqs[p]))
	}

	for w := 0; w < n; w++ {
		week := milp.NewExpr()
		days := milp.NewExpr()
		for d := 0; d < model.DaysPerWeek; d++ {
			dayVars := f.DayVars(w, d)
			b.AddLessOrEqual(fmt.Sprintf("one_w%d_d%d", w, d), milp.NewExpr().AddSum(dayVars...), 1)

			wd := f.WorkingDay[w][d]
			for i, x := range dayVars {
				b.AddGreaterOrEqual(fmt.Sprintf("link_w%d_d%d_s%d", w, d, i),
					milp.NewExpr().Add(wd, 1).Add(x, -1), 0)
			}

			if cfg.TightWorkingDay {
				tight := milp.NewExpr().Add(wd, 1)
				for _, x := range dayVars {
					tight.Add(x, -1)
				}
				b.AddLessOrEqual(fmt.Sprintf("tight_w%d_d%d", w, d), tight, 0)
			}

			bs := milp.NewExpr().Add(f.BlockStart[w][d], 1).Add(wd, -1)
			if d > 0 {
				bs.Add(f.WorkingDay[w][d-1], 1)
			}
			b.AddGreaterOrEqual(fmt.Sprintf("block_w%d_d%d", w, d), bs, 0)

			week.AddSum(dayVars...)
			days.Add(wd, 1)
		}
		b.AddGreaterOrEqual(fmt.Sprintf("min_week_w%d", w), week, float64(cfg.MinShiftsPerWeek))
		b.AddLessOrEqual(fmt.Sprintf("max_week_w%d", w), week, float64(cfg.MaxShiftsPerWeek))
		if cfg.MaxWorkingDays > 0 {
			b.AddLessOrEqual(fmt.Sprintf("max_days_w%d", w), days, float64(cfg.MaxWorkingDays))
		}
	}

	obj := milp.NewExpr()
	for w := 0; w < n; w++ {
		obj.AddSum(f.X[w]...)
	}
	if cfg.FragmentationWeight != 0 {
		for w := 0; w < n; w++ {
			for _, v := range f.BlockStart[w] {
				obj.Add(v, cfg.FragmentationWeight)
			}
		}
	}
	b.Minimize(obj)

	addCuts(b, f)
	setHint(b, f)

	m, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "构建整数规划模型失败")
	}
	f.Model = m
	return f, nil
}
