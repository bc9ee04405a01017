// Package stats 提供排班统计分析功能
package stats

import (
	"fmt"
	"strings"

	"github.com/paiban/weekplan/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalRequired      int     `json:"total_required"`      // 需求人次
	TotalAssigned      int     `json:"total_assigned"`      // 已排人次
	Surplus            int     `json:"surplus"`             // 超出需求的人次
	Shortage           int     `json:"shortage"`            // 缺口人次
	DemandSatisfaction float64 `json:"demand_satisfaction"` // 需求满足度 (%)

	Periods       []PeriodCoverage               `json:"periods"`        // 每个时段
	DailyCoverage [model.DaysPerWeek]DayCoverage `json:"daily_coverage"` // 每天汇总
	Understaffed  []PeriodCoverage               `json:"understaffed"`   // 人手不足时段
}

// PeriodCoverage 单个时段的覆盖情况
type PeriodCoverage struct {
	Period   int    `json:"period"`
	Day      int    `json:"day"`
	Shift    string `json:"shift"`
	Required int    `json:"required"`
	Assigned int    `json:"assigned"`
}

// Surplus 超出需求人数
func (p PeriodCoverage) Surplus() int {
	if p.Assigned > p.Required {
		return p.Assigned - p.Required
	}
	return 0
}

// Shortage 缺口人数
func (p PeriodCoverage) Shortage() int {
	if p.Required > p.Assigned {
		return p.Required - p.Assigned
	}
	return 0
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Day        string  `json:"day"`
	Required   int     `json:"required"`
	Assigned   int     `json:"assigned"`
	StaffCount int     `json:"staff_count"`
	TotalHours float64 `json:"total_hours"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 按时段比较需求与排班
func (c *CoverageAnalyzer) Analyze(problem *model.Problem, schedule *model.Schedule) *CoverageMetrics {
	metrics := &CoverageMetrics{DemandSatisfaction: 100}
	perDay := problem.ShiftsPerDay()
	for d := range metrics.DailyCoverage {
		metrics.DailyCoverage[d].Day = model.DayNames[d]
	}

	satisfied := 0
	for p := 0; p < problem.TotalPeriods(); p++ {
		period := model.PeriodOf(p, perDay)
		shift := problem.ShiftAt(p)
		pc := PeriodCoverage{
			Period:   p,
			Day:      period.Day,
			Shift:    shift.DisplayLabel(),
			Required: problem.Requirement(p),
			Assigned: schedule.Headcount(p, perDay),
		}
		metrics.Periods = append(metrics.Periods, pc)

		metrics.TotalRequired += pc.Required
		metrics.TotalAssigned += pc.Assigned
		metrics.Surplus += pc.Surplus()
		metrics.Shortage += pc.Shortage()
		if pc.Shortage() > 0 {
			metrics.Understaffed = append(metrics.Understaffed, pc)
		}
		satisfied += pc.Required - pc.Shortage()

		day := &metrics.DailyCoverage[period.Day]
		day.Required += pc.Required
		day.Assigned += pc.Assigned
		day.StaffCount += pc.Assigned
		day.TotalHours += float64(pc.Assigned) * float64(shift.Duration()) / 3600
	}

	if metrics.TotalRequired > 0 {
		metrics.DemandSatisfaction = float64(satisfied) / float64(metrics.TotalRequired) * 100
	}
	return metrics
}

// GenerateCoverageReport 生成覆盖率报告
func (c *CoverageAnalyzer) GenerateCoverageReport(metrics *CoverageMetrics) string {
	var b strings.Builder
	b.WriteString("=== 覆盖率分析报告 ===\n\n")

	b.WriteString("【整体覆盖情况】\n")
	fmt.Fprintf(&b, "  需求人次: %d\n", metrics.TotalRequired)
	fmt.Fprintf(&b, "  已排人次: %d\n", metrics.TotalAssigned)
	fmt.Fprintf(&b, "  超出需求: %d\n", metrics.Surplus)
	fmt.Fprintf(&b, "  需求满足度: %.1f%%\n\n", metrics.DemandSatisfaction)

	b.WriteString("【每日情况】\n")
	for _, day := range metrics.DailyCoverage {
		fmt.Fprintf(&b, "  %s 需要 %d 人次，已排 %d 人次，%.1f 小时\n",
			day.Day, day.Required, day.Assigned, day.TotalHours)
	}

	if len(metrics.Understaffed) > 0 {
		b.WriteString("\n【人手不足时段】\n")
		for _, p := range metrics.Understaffed {
			fmt.Fprintf(&b, "  - %s 班次 %s (需要%d人，仅有%d人，缺%d人)\n",
				model.DayNames[p.Day], p.Shift, p.Required, p.Assigned, p.Shortage())
		}
	}
	return b.String()
}
