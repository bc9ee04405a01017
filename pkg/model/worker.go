package model

// Worker 员工及其一周的可用时间窗
type Worker struct {
	Name    string              `json:"name"`
	Windows [DaysPerWeek]Window `json:"windows"`

	// PeriodAvail 由可用性解析器推导，构建后只读
	PeriodAvail []bool `json:"period_avail,omitempty"`
}

// AvailableDays 返回有完整时间窗的天数
func (w *Worker) AvailableDays() int {
	n := 0
	for _, win := range w.Windows {
		if win.Open() {
			n++
		}
	}
	return n
}

// AvailableAt 检查员工是否可以上时段 p
func (w *Worker) AvailableAt(p int) bool {
	return p >= 0 && p < len(w.PeriodAvail) && w.PeriodAvail[p]
}
