package stats

import (
	"strings"
	"testing"

	"github.com/paiban/weekplan/pkg/model"
)

func twoShiftProblem() *model.Problem {
	reqs := make([]int, 14)
	reqs[0], reqs[1], reqs[2] = 1, 1, 2
	return &model.Problem{
		Shifts: []model.Shift{
			{Index: 0, Label: "M", Start: model.NewClock(6, 0), End: model.NewClock(14, 0)},
			{Index: 1, Label: "E", Start: model.NewClock(14, 0), End: model.NewClock(22, 0)},
		},
		Workers:      []*model.Worker{{Name: "ana"}, {Name: "bo"}},
		Requirements: reqs,
	}
}

func assign(row *model.ScheduleRow, day, shift int, label string) {
	row.ShiftIndex[day] = shift
	row.Shifts[day] = label
}

func twoShiftSchedule() *model.Schedule {
	ana := model.NewScheduleRow("ana")
	assign(&ana, 0, 0, "M")
	assign(&ana, 1, 0, "M")
	assign(&ana, 2, 0, "M")
	assign(&ana, 6, 1, "E")

	bo := model.NewScheduleRow("bo")
	assign(&bo, 0, 0, "M")
	assign(&bo, 3, 1, "E")
	return &model.Schedule{Rows: []model.ScheduleRow{ana, bo}}
}

func TestCoverageAnalyzer_Analyze(t *testing.T) {
	metrics := NewCoverageAnalyzer().Analyze(twoShiftProblem(), twoShiftSchedule())

	if metrics.TotalRequired != 4 {
		t.Errorf("TotalRequired = %d, expected 4", metrics.TotalRequired)
	}
	if metrics.TotalAssigned != 6 {
		t.Errorf("TotalAssigned = %d, expected 6", metrics.TotalAssigned)
	}
	// 周一早班多 1 人，周三早班、周四晚班、周日晚班无需求
	if metrics.Surplus != 4 {
		t.Errorf("Surplus = %d, expected 4", metrics.Surplus)
	}
	// 周一晚班缺 1，周二早班需 2 只有 1
	if metrics.Shortage != 2 || len(metrics.Understaffed) != 2 {
		t.Errorf("Shortage = %d, Understaffed = %d; expected 2, 2", metrics.Shortage, len(metrics.Understaffed))
	}
	if metrics.DemandSatisfaction != 50 {
		t.Errorf("DemandSatisfaction = %.1f, expected 50", metrics.DemandSatisfaction)
	}
	if len(metrics.Periods) != 14 {
		t.Errorf("Periods = %d, expected 14", len(metrics.Periods))
	}
}

func TestCoverageAnalyzer_DailyCoverage(t *testing.T) {
	metrics := NewCoverageAnalyzer().Analyze(twoShiftProblem(), twoShiftSchedule())

	mon := metrics.DailyCoverage[0]
	if mon.Day != "Mon" || mon.Assigned != 2 || mon.Required != 2 {
		t.Errorf("Mon = %+v", mon)
	}
	if mon.TotalHours != 16 {
		t.Errorf("Mon TotalHours = %.1f, expected 16", mon.TotalHours)
	}
}

func TestCoverageAnalyzer_EmptyDemand(t *testing.T) {
	p := twoShiftProblem()
	p.Requirements = make([]int, 14)

	metrics := NewCoverageAnalyzer().Analyze(p, &model.Schedule{})
	if metrics.DemandSatisfaction != 100 {
		t.Errorf("DemandSatisfaction = %.1f, expected 100", metrics.DemandSatisfaction)
	}
}

func TestCoverageAnalyzer_Report(t *testing.T) {
	analyzer := NewCoverageAnalyzer()
	report := analyzer.GenerateCoverageReport(analyzer.Analyze(twoShiftProblem(), twoShiftSchedule()))

	for _, want := range []string{"需求满足度: 50.0%", "人手不足时段", "Tue 班次 M"} {
		if !strings.Contains(report, want) {
			t.Errorf("报告缺少 %q:\n%s", want, report)
		}
	}
}
