package normalizer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/model"
)

func workerHeader() []string {
	h := []string{"Name"}
	for _, d := range model.DayNames {
		h = append(h, d+"_start", d+"_end")
	}
	return h
}

func weekdayRow(name string) []string {
	row := []string{name}
	for d := 0; d < model.DaysPerWeek; d++ {
		if d < 5 {
			row = append(row, "08:00", "18:00")
		} else {
			row = append(row, "", "")
		}
	}
	return row
}

func TestNormalize_Success(t *testing.T) {
	shifts := Table{
		Header: []string{" Shift_ID ", "START", "End "},
		Rows: [][]string{
			{"M", "06:00", "14:00"},
			{"", "14:00:00", "22:00:00"},
		},
	}
	workers := Table{Header: workerHeader(), Rows: [][]string{weekdayRow("ana"), weekdayRow("bo")}}
	reqRows := make([][]string, 14)
	for i := range reqRows {
		reqRows[i] = []string{"1"}
	}
	reqRows[13] = []string{"2.0"}

	problem, err := Normalize(shifts, workers, Table{Rows: reqRows})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	wantShifts := []model.Shift{
		{Index: 0, Label: "M", Start: model.NewClock(6, 0), End: model.NewClock(14, 0)},
		{Index: 1, Label: "", Start: model.NewClock(14, 0), End: model.NewClock(22, 0)},
	}
	if diff := cmp.Diff(wantShifts, problem.Shifts); diff != "" {
		t.Errorf("shifts mismatch (-want +got):\n%s", diff)
	}
	if problem.TotalPeriods() != 14 {
		t.Errorf("TotalPeriods() = %d, expected 14", problem.TotalPeriods())
	}
	if len(problem.Workers) != 2 || problem.Workers[1].Name != "bo" {
		t.Fatalf("workers 解析错误: %+v", problem.Workers)
	}
	if problem.Workers[0].Windows[5].Open() {
		t.Error("周六时间窗应为空")
	}
	if !problem.Workers[0].Windows[0].Covers(model.NewClock(9, 0), model.NewClock(17, 0)) {
		t.Error("周一时间窗应覆盖 09:00-17:00")
	}
	if problem.Requirements[13] != 2 {
		t.Errorf("Requirements[13] = %d, expected 2", problem.Requirements[13])
	}
}

func assertMalformed(t *testing.T, err error, table string) {
	t.Helper()
	if !errors.Is(err, errors.CodeMalformedInput) {
		t.Fatalf("error = %v, expected MALFORMED_INPUT", err)
	}
	var appErr *errors.AppError
	appErr, _ = err.(*errors.AppError)
	if appErr == nil || appErr.Field("table") != table {
		t.Errorf("error table = %v, expected %s", err, table)
	}
}

func TestNormalizeShifts_Errors(t *testing.T) {
	tests := []struct {
		name  string
		table Table
	}{
		{"无表头", Table{Rows: [][]string{{"09:00", "17:00"}}}},
		{"缺少 end 列", Table{Header: []string{"start", "finish"}, Rows: [][]string{{"09:00", "17:00"}}}},
		{"缺少值", Table{Header: []string{"start", "end"}, Rows: [][]string{{"09:00", ""}}}},
		{"无法解析", Table{Header: []string{"start", "end"}, Rows: [][]string{{"nine", "17:00"}}}},
		{"没有行", Table{Header: []string{"start", "end"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeShifts(tt.table)
			assertMalformed(t, err, TableShifts)
		})
	}
}

func TestNormalizeWorkers_Errors(t *testing.T) {
	short := weekdayRow("ana")[:14]
	badTime := weekdayRow("bo")
	badTime[3] = "25:00"
	noName := weekdayRow("")

	tests := []struct {
		name  string
		table Table
	}{
		{"表头列数不足", Table{Header: workerHeader()[:10], Rows: [][]string{weekdayRow("ana")}}},
		{"行列数不足", Table{Header: workerHeader(), Rows: [][]string{short}}},
		{"时间错误", Table{Header: workerHeader(), Rows: [][]string{badTime}}},
		{"姓名为空", Table{Header: workerHeader(), Rows: [][]string{noName}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeWorkers(tt.table)
			assertMalformed(t, err, TableWorkers)
		})
	}
}

func TestNormalizeWorkers_NullCells(t *testing.T) {
	row := weekdayRow("ana")
	row[5], row[6] = "NaN", "null"
	row[8] = "" // 周四只有开始时间

	workers, err := NormalizeWorkers(Table{Header: workerHeader(), Rows: [][]string{row}})
	if err != nil {
		t.Fatalf("NormalizeWorkers() error = %v", err)
	}
	w := workers[0]
	if w.Windows[2].Open() {
		t.Error("周三应为空时间窗")
	}
	if w.Windows[3].Start == nil || w.Windows[3].End != nil {
		t.Fatal("周四应只有开始时间")
	}
	if w.AvailableDays() != 3 {
		t.Errorf("AvailableDays() = %d, expected 3", w.AvailableDays())
	}
}

func TestNormalizeRequirements(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		want    []int
		wantErr bool
	}{
		{"整数", [][]string{{"1"}, {"0"}, {" 3 "}}, []int{1, 0, 3}, false},
		{"表格导出的浮点", [][]string{{"2.0"}}, []int{2}, false},
		{"多列只取第一列", [][]string{{"1", "x"}}, []int{1}, false},
		{"缺失", [][]string{{"1"}, {""}}, nil, true},
		{"非数字", [][]string{{"many"}}, nil, true},
		{"小数", [][]string{{"1.5"}}, nil, true},
		{"上限", [][]string{{"1000000"}, {"1e6"}}, []int{1000000, 1000000}, false},
		{"整数过大", [][]string{{"1000001"}}, nil, true},
		{"科学计数过大", [][]string{{"1e30"}}, nil, true},
		{"负数过大", [][]string{{"-1e30"}}, nil, true},
		{"空表", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRequirements(Table{Rows: tt.rows})
			if tt.wantErr {
				assertMalformed(t, err, TableRequirements)
				return
			}
			if err != nil {
				t.Fatalf("NormalizeRequirements() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeRequirements_TooLarge(t *testing.T) {
	_, err := NormalizeRequirements(Table{Rows: [][]string{{"1e30"}}})
	if err == nil || !strings.Contains(err.Error(), "过大") {
		t.Fatalf("error = %v, expected 过大", err)
	}
	if strings.Contains(err.Error(), "负数") {
		t.Errorf("不应报告为负数: %v", err)
	}
}

func TestLooksLikeHeader(t *testing.T) {
	tests := []struct {
		row  []string
		want bool
	}{
		{[]string{"required"}, true},
		{[]string{""}, true},
		{nil, true},
		{[]string{"5"}, false},
		{[]string{" 2.0 ", "x"}, false},
	}
	for _, tt := range tests {
		if got := LooksLikeHeader(tt.row); got != tt.want {
			t.Errorf("LooksLikeHeader(%q) = %v, expected %v", tt.row, got, tt.want)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	if got := NormalizeHeader("\ufeff Start "); got != "start" {
		t.Errorf("NormalizeHeader() = %q, expected start", got)
	}
}
