package model

// Off 休息日在输出中的标记
const Off = ""

// ScheduleRow 一名员工的一周排班
type ScheduleRow struct {
	Worker string `json:"worker"`
	// Shifts 每天的班次显示名，休息为 Off
	Shifts [DaysPerWeek]string `json:"shifts"`
	// ShiftIndex 每天的班次序号，休息为 -1
	ShiftIndex [DaysPerWeek]int `json:"shift_index"`
}

// NewScheduleRow 创建全休的一行
func NewScheduleRow(worker string) ScheduleRow {
	row := ScheduleRow{Worker: worker}
	for d := range row.ShiftIndex {
		row.ShiftIndex[d] = -1
	}
	return row
}

// WorkingDays 返回上班天数
func (r ScheduleRow) WorkingDays() int {
	n := 0
	for _, idx := range r.ShiftIndex {
		if idx >= 0 {
			n++
		}
	}
	return n
}

// WorkBlocks 返回连续上班段数（不跨周循环）
func (r ScheduleRow) WorkBlocks() int {
	blocks := 0
	prev := false
	for _, idx := range r.ShiftIndex {
		working := idx >= 0
		if working && !prev {
			blocks++
		}
		prev = working
	}
	return blocks
}

// Schedule 周排班结果，行顺序与输入员工顺序一致
type Schedule struct {
	Rows []ScheduleRow `json:"rows"`
}

// Row 按员工名查找
func (s *Schedule) Row(worker string) (ScheduleRow, bool) {
	for _, r := range s.Rows {
		if r.Worker == worker {
			return r, true
		}
	}
	return ScheduleRow{}, false
}

// Table 输出表：表头为姓名加七天，每行为员工
func (s *Schedule) Table() (header []string, rows [][]string) {
	header = append([]string{"name"}, DayNames[:]...)
	for _, r := range s.Rows {
		line := make([]string, 0, DaysPerWeek+1)
		line = append(line, r.Worker)
		line = append(line, r.Shifts[:]...)
		rows = append(rows, line)
	}
	return header, rows
}

// Headcount 返回时段 p 上班人数
func (s *Schedule) Headcount(p, shiftsPerDay int) int {
	period := PeriodOf(p, shiftsPerDay)
	n := 0
	for _, r := range s.Rows {
		if r.ShiftIndex[period.Day] == period.Shift {
			n++
		}
	}
	return n
}
