package scheduler

import (
	"context"
	"fmt"
	"testing"

	"github.com/paiban/weekplan/pkg/availability"
	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/milp"
	"github.com/paiban/weekplan/pkg/milp/bnb"
	"github.com/paiban/weekplan/pkg/model"
)

func dayShift() []model.Shift {
	return []model.Shift{{Index: 0, Start: model.NewClock(9, 0), End: model.NewClock(17, 0)}}
}

func workerOn(name string, days ...int) *model.Worker {
	w := &model.Worker{Name: name}
	for _, d := range days {
		w.Windows[d] = model.NewWindow(model.NewClock(8, 0), model.NewClock(18, 0))
	}
	return w
}

func newProblem(reqs []int, workers ...*model.Worker) *model.Problem {
	p := &model.Problem{Shifts: dayShift(), Workers: workers, Requirements: reqs}
	p = availability.Apply(p)
	return p
}

func solve(t *testing.T, f *Formulation) *milp.Solution {
	t.Helper()
	sol, err := bnb.New(nil).Solve(context.Background(), f.Model)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	return sol
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MinShiftsPerWeek != 4 || cfg.MaxShiftsPerWeek != 5 || cfg.FragmentationWeight != 10 {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"最少大于最多", Config{MinShiftsPerWeek: 5, MaxShiftsPerWeek: 4}},
		{"负最少", Config{MinShiftsPerWeek: -1, MaxShiftsPerWeek: 4}},
		{"负权重", Config{MinShiftsPerWeek: 1, MaxShiftsPerWeek: 4, FragmentationWeight: -1}},
		{"上班天数越界", Config{MaxShiftsPerWeek: 4, MaxWorkingDays: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, errors.CodeInvalidConfig) {
				t.Errorf("Validate() = %v, expected INVALID_CONFIG", err)
			}
		})
	}
}

func TestBuild_Counts(t *testing.T) {
	shifts := []model.Shift{
		{Index: 0, Start: model.NewClock(6, 0), End: model.NewClock(14, 0)},
		{Index: 1, Start: model.NewClock(14, 0), End: model.NewClock(22, 0)},
	}
	p := &model.Problem{
		Shifts:       shifts,
		Workers:      []*model.Worker{workerOn("a", 0, 1, 2), workerOn("b", 3, 4, 5, 6), workerOn("c")},
		Requirements: make([]int, 16), // 多出的两行被忽略
	}
	p = availability.Apply(p)

	f, err := Build(p, DefaultConfig())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	const workers, periods = 3, 14
	wantVars := workers*periods + 2*workers*model.DaysPerWeek
	if f.Model.NumVars() != wantVars {
		t.Errorf("NumVars() = %d, expected %d", f.Model.NumVars(), wantVars)
	}
	// 覆盖 + 每人（每天一班 + 关联 + 段起点 + 上下限）
	wantRows := periods + workers*(7+periods+7+2)
	if f.Model.NumConstraints() != wantRows {
		t.Errorf("NumConstraints() = %d, expected %d", f.Model.NumConstraints(), wantRows)
	}
	// 员工 a 的时间窗 08:00-18:00 覆盖不了任何班次，所有 x 上界为 0
	for p := 0; p < periods; p++ {
		if f.Model.Var(f.X[0][p]).Upper != 0 {
			t.Errorf("x[a][%d] 上界应为 0", p)
		}
	}
	if len(f.DayVars(1, 3)) != 2 {
		t.Error("DayVars() 应返回当天全部班次")
	}
}

func TestBuild_MaxWorkingDaysAddsRow(t *testing.T) {
	p := newProblem(make([]int, 7), workerOn("a", 0, 1, 2, 3, 4, 5, 6))
	cfg := DefaultConfig()
	base, _ := Build(p, cfg)
	cfg.MaxWorkingDays = 4
	capped, err := Build(p, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if capped.Model.NumConstraints() != base.Model.NumConstraints()+1 {
		t.Errorf("MaxWorkingDays 应增加一行约束")
	}
}

func TestBuild_FailFast(t *testing.T) {
	short := newProblem(make([]int, 7), workerOn("a", 0))
	short.Requirements = short.Requirements[:6]

	badAvail := newProblem(make([]int, 7), workerOn("a", 0))
	badAvail.Workers[0].PeriodAvail = badAvail.Workers[0].PeriodAvail[:3]

	tests := []struct {
		name    string
		problem *model.Problem
		cfg     Config
		code    errors.Code
	}{
		{"需求不足", short, DefaultConfig(), errors.CodeMalformedInput},
		{"可用向量长度错误", badAvail, DefaultConfig(), errors.CodeMalformedInput},
		{"配置错误", newProblem(make([]int, 7)), Config{MinShiftsPerWeek: 3, MaxShiftsPerWeek: 2}, errors.CodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.problem, tt.cfg); !errors.Is(err, tt.code) {
				t.Errorf("Build() = %v, expected %s", err, tt.code)
			}
		})
	}
}

func countBlockStarts(f *Formulation, sol *milp.Solution, w int) int {
	n := 0
	for _, v := range f.BlockStart[w] {
		if sol.Bool(v) {
			n++
		}
	}
	return n
}

func workedDays(f *Formulation, sol *milp.Solution, w int) []bool {
	days := make([]bool, model.DaysPerWeek)
	for d := range days {
		for _, v := range f.DayVars(w, d) {
			if sol.Bool(v) {
				days[d] = true
			}
		}
	}
	return days
}

// 单人周一到周五可用，工作日各需 1 人
func TestScenarioA_WeekdayWorker(t *testing.T) {
	p := newProblem([]int{1, 1, 1, 1, 1, 0, 0}, workerOn("ana", 0, 1, 2, 3, 4))
	f, err := Build(p, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	sol := solve(t, f)
	if sol.Status != milp.StatusOptimal {
		t.Fatalf("Status = %s, expected OPTIMAL", sol.Status)
	}
	days := workedDays(f, sol, 0)
	for d, worked := range days {
		if worked != (d < 5) {
			t.Errorf("第 %d 天上班 = %v", d, worked)
		}
	}
	if n := countBlockStarts(f, sol, 0); n != 1 {
		t.Errorf("段起点 = %d, expected 1", n)
	}
	if sol.Objective != 15 {
		t.Errorf("Objective = %v, expected 15", sol.Objective)
	}
}

// 某时段需要 2 人但只有 1 人
func TestScenarioB_Infeasible(t *testing.T) {
	reqs := []int{1, 2, 1, 1, 0, 0, 0}
	p := newProblem(reqs, workerOn("ana", 0, 1, 2, 3, 4, 5, 6))
	f, err := Build(p, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	sol := solve(t, f)
	if sol.Status != milp.StatusInfeasible {
		t.Errorf("Status = %s, expected INFEASIBLE", sol.Status)
	}
	hints := Diagnose(p, DefaultConfig())
	if len(hints) == 0 {
		t.Error("Diagnose() 应指出人手不足的时段")
	}
}

func workingDayRuns(f *Formulation, sol *milp.Solution, w int) int {
	runs := 0
	prev := false
	for _, v := range f.WorkingDay[w] {
		on := sol.Bool(v)
		if on && !prev {
			runs++
		}
		prev = on
	}
	return runs
}

// 周四时间窗为空
func TestScenarioC_NullDay(t *testing.T) {
	tests := []struct {
		name      string
		tight     bool
		objective float64
		blocks    int
	}{
		// working_day 只有下界，周四可以被标成上班日把两段连起来
		{"单向关联", false, 14, 1},
		{"双向关联", true, 24, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProblem(make([]int, 7), workerOn("bo", 0, 1, 2, 4, 5, 6))
			if p.Workers[0].AvailableAt(3) {
				t.Fatal("周四应不可用")
			}
			cfg := DefaultConfig()
			cfg.TightWorkingDay = tt.tight
			f, err := Build(p, cfg)
			if err != nil {
				t.Fatal(err)
			}

			sol := solve(t, f)
			if sol.Status != milp.StatusOptimal {
				t.Fatalf("Status = %s, expected OPTIMAL", sol.Status)
			}
			if workedDays(f, sol, 0)[3] {
				t.Error("周四不应排班")
			}
			if n := countBlockStarts(f, sol, 0); n != tt.blocks {
				t.Errorf("段起点 = %d, expected %d", n, tt.blocks)
			}
			if sol.Objective != tt.objective {
				t.Errorf("Objective = %v, expected %v", sol.Objective, tt.objective)
			}
		})
	}
}

// 双向关联时，多上一个班次（成本 1）比多一个上班段（成本 10）便宜
func TestBuild_OverCoverageBeatsFragmentation(t *testing.T) {
	p := newProblem([]int{1, 1, 0, 1, 1, 0, 0}, workerOn("cy", 0, 1, 2, 3, 4, 5, 6))
	cfg := DefaultConfig()
	cfg.TightWorkingDay = true
	f, err := Build(p, cfg)
	if err != nil {
		t.Fatal(err)
	}

	sol := solve(t, f)
	if sol.Objective != 15 {
		t.Errorf("Objective = %v, expected 15", sol.Objective)
	}
	if !workedDays(f, sol, 0)[2] {
		t.Error("周三应排班以连成一段")
	}
}

func TestBuild_BlockStartsMatchRuns(t *testing.T) {
	for _, tight := range []bool{false, true} {
		t.Run(fmt.Sprintf("tight=%v", tight), func(t *testing.T) {
			p := newProblem([]int{1, 1, 1, 1, 1, 1, 1},
				workerOn("a", 0, 1, 2, 3, 4, 5, 6),
				workerOn("b", 0, 1, 2, 4, 5, 6))
			cfg := DefaultConfig()
			cfg.TightWorkingDay = tight
			f, err := Build(p, cfg)
			if err != nil {
				t.Fatal(err)
			}

			sol := solve(t, f)
			if sol.Status != milp.StatusOptimal {
				t.Fatalf("Status = %s, expected OPTIMAL", sol.Status)
			}
			for w := range p.Workers {
				if n, runs := countBlockStarts(f, sol, w), workingDayRuns(f, sol, w); n != runs {
					t.Errorf("员工 %d 段起点 %d != 连续段数 %d", w, n, runs)
				}
				for d, worked := range workedDays(f, sol, w) {
					if worked && !sol.Bool(f.WorkingDay[w][d]) {
						t.Errorf("员工 %d 第 %d 天有班次但 working_day 为 0", w, d)
					}
				}
			}

			again := solve(t, f)
			if again.Objective != sol.Objective {
				t.Errorf("重复求解目标值不同: %v != %v", again.Objective, sol.Objective)
			}
		})
	}
}
