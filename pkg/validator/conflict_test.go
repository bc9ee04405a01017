package validator

import (
	"testing"

	"github.com/paiban/weekplan/pkg/availability"
	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/model"
)

func testProblem() *model.Problem {
	ana := &model.Worker{Name: "ana"}
	for d := 0; d < 5; d++ {
		ana.Windows[d] = model.NewWindow(model.NewClock(8, 0), model.NewClock(18, 0))
	}
	p := &model.Problem{
		Shifts:       []model.Shift{{Index: 0, Label: "D", Start: model.NewClock(9, 0), End: model.NewClock(17, 0)}},
		Workers:      []*model.Worker{ana},
		Requirements: []int{1, 1, 1, 1, 1, 0, 0},
	}
	p = availability.Apply(p)
	return p
}

func scheduleFor(days ...int) *model.Schedule {
	row := model.NewScheduleRow("ana")
	for _, d := range days {
		row.Shifts[d] = "D"
		row.ShiftIndex[d] = 0
	}
	return &model.Schedule{Rows: []model.ScheduleRow{row}}
}

func conflictTypes(conflicts []Conflict) map[ConflictType]int {
	types := make(map[ConflictType]int)
	for _, c := range conflicts {
		types[c.Type]++
	}
	return types
}

func TestConflictDetector_NoConflicts(t *testing.T) {
	detector := NewConflictDetector(DefaultDetectorConfig())

	conflicts := detector.DetectAll(testProblem(), scheduleFor(0, 1, 2, 3, 4))
	if len(conflicts) != 0 {
		t.Errorf("Expected 0 conflicts, got %d", len(conflicts))
		for _, c := range conflicts {
			t.Logf("Conflict: %s", c.Message)
		}
	}
	if err := detector.Verify(testProblem(), scheduleFor(0, 1, 2, 3, 4)); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestConflictDetector_Detect(t *testing.T) {
	tests := []struct {
		name     string
		schedule *model.Schedule
		want     ConflictType
	}{
		{"人数不足", scheduleFor(0, 1, 2, 3), ConflictCoverage},
		{"不可用时段", scheduleFor(0, 1, 2, 3, 4, 5), ConflictAvailability},
		{"班次过多", scheduleFor(0, 1, 2, 3, 4, 5), ConflictMaxShifts},
		{"班次过少", scheduleFor(0, 1, 2), ConflictMinShifts},
		{"缺少排班行", &model.Schedule{}, ConflictMissingRow},
	}

	detector := NewConflictDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types := conflictTypes(detector.DetectAll(testProblem(), tt.schedule))
			if types[tt.want] == 0 {
				t.Errorf("expected %s conflict, got %v", tt.want, types)
			}
			if err := detector.Verify(testProblem(), tt.schedule); !errors.Is(err, errors.CodeInvariantViolation) {
				t.Errorf("Verify() = %v, expected INVARIANT_VIOLATION", err)
			}
		})
	}
}

func TestConflictDetector_ShiftIndexMismatch(t *testing.T) {
	schedule := scheduleFor(0, 1, 2, 3, 4)
	schedule.Rows[0].Shifts[2] = "N"
	schedule.Rows[0].ShiftIndex[4] = 3

	types := conflictTypes(NewConflictDetector(nil).DetectAll(testProblem(), schedule))
	if types[ConflictShiftIndex] != 2 {
		t.Errorf("expected 2 shift_index conflicts, got %v", types)
	}
}

func TestConflictDetector_MaxWorkingDays(t *testing.T) {
	cfg := DefaultDetectorConfig()
	cfg.MaxWorkingDays = 4

	types := conflictTypes(NewConflictDetector(cfg).DetectAll(testProblem(), scheduleFor(0, 1, 2, 3, 4)))
	if types[ConflictMaxDays] != 1 {
		t.Errorf("expected max_days conflict, got %v", types)
	}
}

func TestConflictDetector_ConsecutiveIsWarning(t *testing.T) {
	cfg := DefaultDetectorConfig()
	cfg.MaxConsecutiveDays = 3
	detector := NewConflictDetector(cfg)

	conflicts := detector.DetectAll(testProblem(), scheduleFor(0, 1, 2, 3, 4))
	if len(conflicts) != 1 || conflicts[0].Type != ConflictConsecutive {
		t.Fatalf("expected one consecutive warning, got %+v", conflicts)
	}
	if conflicts[0].Severity != SeverityWarning || conflicts[0].Day != 0 {
		t.Errorf("conflict = %+v", conflicts[0])
	}
	if err := detector.Verify(testProblem(), scheduleFor(0, 1, 2, 3, 4)); err != nil {
		t.Errorf("warning 不应导致复核失败: %v", err)
	}
}
