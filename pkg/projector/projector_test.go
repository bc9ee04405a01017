package projector

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paiban/weekplan/pkg/availability"
	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/milp"
	"github.com/paiban/weekplan/pkg/model"
	"github.com/paiban/weekplan/pkg/scheduler"
)

func formulation(t *testing.T) *scheduler.Formulation {
	t.Helper()
	ana := &model.Worker{Name: "ana"}
	for d := 0; d < model.DaysPerWeek; d++ {
		ana.Windows[d] = model.NewWindow(model.NewClock(0, 0), model.NewClock(24, 0))
	}
	p := &model.Problem{
		Shifts: []model.Shift{
			{Index: 0, Label: "M", Start: model.NewClock(6, 0), End: model.NewClock(14, 0)},
			{Index: 1, Start: model.NewClock(14, 0), End: model.NewClock(22, 0)},
		},
		Workers:      []*model.Worker{ana},
		Requirements: make([]int, 14),
	}
	p = availability.Apply(p)
	f, err := scheduler.Build(p, scheduler.DefaultConfig())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return f
}

func optimal(f *scheduler.Formulation, on ...milp.Var) *milp.Solution {
	values := make([]float64, f.Model.NumVars())
	for _, v := range on {
		values[v] = 1
	}
	return &milp.Solution{Status: milp.StatusOptimal, Values: values}
}

func TestProject(t *testing.T) {
	f := formulation(t)
	x := f.X[0]
	// 周一早班，周二晚班，周五早班
	sol := optimal(f, x[0], x[3], x[8])

	got, err := Project(f, sol)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	want := model.NewScheduleRow("ana")
	want.Shifts = [model.DaysPerWeek]string{"M", "2", "", "", "M", "", ""}
	want.ShiftIndex = [model.DaysPerWeek]int{0, 1, -1, -1, 0, -1, -1}
	if diff := cmp.Diff([]model.ScheduleRow{want}, got.Rows); diff != "" {
		t.Errorf("Project() mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_TwoShiftsSameDay(t *testing.T) {
	f := formulation(t)
	sol := optimal(f, f.X[0][6], f.X[0][7])

	schedule, err := Project(f, sol)
	if !errors.Is(err, errors.CodeInvariantViolation) {
		t.Fatalf("Project() = %v, expected INVARIANT_VIOLATION", err)
	}
	if schedule != nil {
		t.Error("不变量被破坏时不应返回排班")
	}
}

func TestProject_RefusesNonOptimal(t *testing.T) {
	f := formulation(t)
	for _, status := range []milp.Status{milp.StatusInfeasible, milp.StatusUnknown, milp.StatusError, milp.StatusUnbounded} {
		sol := optimal(f)
		sol.Status = status
		schedule, err := Project(f, sol)
		if !errors.Is(err, errors.CodeNoSolution) || schedule != nil {
			t.Errorf("%s: Project() = %v, %v; expected NO_SOLUTION", status, schedule, err)
		}
	}
	if _, err := Project(f, nil); !errors.Is(err, errors.CodeNoSolution) {
		t.Errorf("nil 解应返回 NO_SOLUTION, got %v", err)
	}
}

func TestProject_ValueCountMismatch(t *testing.T) {
	f := formulation(t)
	sol := &milp.Solution{Status: milp.StatusOptimal, Values: []float64{1}}
	if _, err := Project(f, sol); !errors.Is(err, errors.CodeInvariantViolation) {
		t.Errorf("Project() = %v, expected INVARIANT_VIOLATION", err)
	}
}
