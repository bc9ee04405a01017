// Package validator 独立复核投影后的排班表
package validator

import (
	"fmt"
	"strings"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictCoverage     ConflictType = "coverage"     // 人数不足
	ConflictAvailability ConflictType = "availability" // 不可用时段被排班
	ConflictMinShifts    ConflictType = "min_shifts"   // 低于每周最少班次
	ConflictMaxShifts    ConflictType = "max_shifts"   // 超过每周最多班次
	ConflictMaxDays      ConflictType = "max_days"     // 超过每周最多上班天数
	ConflictConsecutive  ConflictType = "consecutive"  // 连续天数过多
	ConflictShiftIndex   ConflictType = "shift_index"  // 班次序号与显示名不一致
	ConflictMissingRow   ConflictType = "missing_row"  // 员工缺少排班行
)

// Severity 严重程度
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"`
	Worker   string       `json:"worker,omitempty"`
	Day      int          `json:"day"`
	Period   int          `json:"period"`
	Message  string       `json:"message"`
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	MinShiftsPerWeek   int  // 每周最少班次
	MaxShiftsPerWeek   int  // 每周最多班次
	MaxWorkingDays     int  // 每周最多上班天数，0 不检查
	MaxConsecutiveDays int  // 连续上班天数提醒阈值，0 不检查
	CheckAvailability  bool // 是否检查可用性
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MinShiftsPerWeek:   4,
		MaxShiftsPerWeek:   5,
		MaxWorkingDays:     0,
		MaxConsecutiveDays: 0,
		CheckAvailability:  true,
	}
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// DetectAll 检测所有冲突
func (d *ConflictDetector) DetectAll(problem *model.Problem, schedule *model.Schedule) []Conflict {
	var conflicts []Conflict

	for _, worker := range problem.Workers {
		row, ok := schedule.Row(worker.Name)
		if !ok {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictMissingRow,
				Severity: SeverityError,
				Worker:   worker.Name,
				Day:      -1,
				Period:   -1,
				Message:  fmt.Sprintf("员工 %s 没有排班行", worker.Name),
			})
			continue
		}

		conflicts = append(conflicts, d.detectShiftIndex(problem, row)...)
		if d.config.CheckAvailability {
			conflicts = append(conflicts, d.detectAvailability(problem, worker, row)...)
		}
		conflicts = append(conflicts, d.detectWeeklyBounds(row)...)
		conflicts = append(conflicts, d.detectConsecutiveDays(row)...)
	}

	conflicts = append(conflicts, d.detectCoverage(problem, schedule)...)
	return conflicts
}

// Verify 复核排班，存在 error 级冲突时返回 INVARIANT_VIOLATION
func (d *ConflictDetector) Verify(problem *model.Problem, schedule *model.Schedule) error {
	var messages []string
	for _, c := range d.DetectAll(problem, schedule) {
		if c.Severity == SeverityError {
			messages = append(messages, c.Message)
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return errors.InvariantViolation(strings.Join(messages, "; ")).
		WithField("conflicts", len(messages))
}

// detectShiftIndex 每天最多一个班次由数据结构保证，这里检查序号与显示名一致
func (d *ConflictDetector) detectShiftIndex(problem *model.Problem, row model.ScheduleRow) []Conflict {
	var conflicts []Conflict
	perDay := problem.ShiftsPerDay()

	for day, idx := range row.ShiftIndex {
		var want string
		switch {
		case idx == -1:
			want = model.Off
		case idx >= 0 && idx < perDay:
			want = problem.Shifts[idx].DisplayLabel()
		default:
			conflicts = append(conflicts, Conflict{
				Type:     ConflictShiftIndex,
				Severity: SeverityError,
				Worker:   row.Worker,
				Day:      day,
				Period:   -1,
				Message:  fmt.Sprintf("员工 %s 在 %s 的班次序号 %d 越界", row.Worker, model.DayNames[day], idx),
			})
			continue
		}
		if row.Shifts[day] != want {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictShiftIndex,
				Severity: SeverityError,
				Worker:   row.Worker,
				Day:      day,
				Period:   -1,
				Message: fmt.Sprintf("员工 %s 在 %s 的班次显示为 %q，应为 %q",
					row.Worker, model.DayNames[day], row.Shifts[day], want),
			})
		}
	}
	return conflicts
}

// detectAvailability 检测不可用时段被排班
func (d *ConflictDetector) detectAvailability(problem *model.Problem, worker *model.Worker, row model.ScheduleRow) []Conflict {
	var conflicts []Conflict
	perDay := problem.ShiftsPerDay()

	for day, idx := range row.ShiftIndex {
		if idx < 0 || idx >= perDay {
			continue
		}
		p := model.PeriodIndex(day, idx, perDay)
		if !worker.AvailableAt(p) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictAvailability,
				Severity: SeverityError,
				Worker:   worker.Name,
				Day:      day,
				Period:   p,
				Message: fmt.Sprintf("员工 %s 在 %s 不可用却被排了班次 %s",
					worker.Name, model.DayNames[day], row.Shifts[day]),
			})
		}
	}
	return conflicts
}

// detectWeeklyBounds 检测每周班次和上班天数
func (d *ConflictDetector) detectWeeklyBounds(row model.ScheduleRow) []Conflict {
	var conflicts []Conflict
	shifts := row.WorkingDays()

	if shifts < d.config.MinShiftsPerWeek {
		conflicts = append(conflicts, Conflict{
			Type:     ConflictMinShifts,
			Severity: SeverityError,
			Worker:   row.Worker,
			Day:      -1,
			Period:   -1,
			Message:  fmt.Sprintf("员工 %s 每周 %d 个班次，少于 %d", row.Worker, shifts, d.config.MinShiftsPerWeek),
		})
	}
	if shifts > d.config.MaxShiftsPerWeek {
		conflicts = append(conflicts, Conflict{
			Type:     ConflictMaxShifts,
			Severity: SeverityError,
			Worker:   row.Worker,
			Day:      -1,
			Period:   -1,
			Message:  fmt.Sprintf("员工 %s 每周 %d 个班次，超过 %d", row.Worker, shifts, d.config.MaxShiftsPerWeek),
		})
	}
	// 每天最多一个班次，上班天数等于班次数
	if d.config.MaxWorkingDays > 0 && shifts > d.config.MaxWorkingDays {
		conflicts = append(conflicts, Conflict{
			Type:     ConflictMaxDays,
			Severity: SeverityError,
			Worker:   row.Worker,
			Day:      -1,
			Period:   -1,
			Message:  fmt.Sprintf("员工 %s 上班 %d 天，超过 %d 天", row.Worker, shifts, d.config.MaxWorkingDays),
		})
	}
	return conflicts
}

// detectConsecutiveDays 连续上班天数过多只提醒
func (d *ConflictDetector) detectConsecutiveDays(row model.ScheduleRow) []Conflict {
	if d.config.MaxConsecutiveDays <= 0 {
		return nil
	}

	consecutive, maxConsecutive, start, maxStart := 0, 0, 0, 0
	for day, idx := range row.ShiftIndex {
		if idx < 0 {
			consecutive = 0
			continue
		}
		if consecutive == 0 {
			start = day
		}
		consecutive++
		if consecutive > maxConsecutive {
			maxConsecutive = consecutive
			maxStart = start
		}
	}

	if maxConsecutive <= d.config.MaxConsecutiveDays {
		return nil
	}
	return []Conflict{{
		Type:     ConflictConsecutive,
		Severity: SeverityWarning,
		Worker:   row.Worker,
		Day:      maxStart,
		Period:   -1,
		Message: fmt.Sprintf("员工 %s 从 %s 起连续工作 %d 天，超过 %d 天",
			row.Worker, model.DayNames[maxStart], maxConsecutive, d.config.MaxConsecutiveDays),
	}}
}

// detectCoverage 检测各时段人数
func (d *ConflictDetector) detectCoverage(problem *model.Problem, schedule *model.Schedule) []Conflict {
	var conflicts []Conflict
	perDay := problem.ShiftsPerDay()

	for p := 0; p < problem.TotalPeriods(); p++ {
		need := problem.Requirement(p)
		got := schedule.Headcount(p, perDay)
		if got < need {
			period := model.PeriodOf(p, perDay)
			conflicts = append(conflicts, Conflict{
				Type:     ConflictCoverage,
				Severity: SeverityError,
				Day:      period.Day,
				Period:   p,
				Message: fmt.Sprintf("%s 班次 %s 需要 %d 人，实际 %d 人",
					model.DayNames[period.Day], problem.ShiftAt(p).DisplayLabel(), need, got),
			})
		}
	}
	return conflicts
}
