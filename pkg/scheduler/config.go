// Package scheduler 把规范模型构建成 0-1 整数规划
package scheduler

import (
	"fmt"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/model"
)

// Config 建模参数
type Config struct {
	MinShiftsPerWeek    int     `yaml:"min_shifts_per_week" json:"min_shifts_per_week"`     // 每人每周最少班次
	MaxShiftsPerWeek    int     `yaml:"max_shifts_per_week" json:"max_shifts_per_week"`     // 每人每周最多班次
	FragmentationWeight float64 `yaml:"fragmentation_weight" json:"fragmentation_weight"` // 每个上班段的惩罚
	MaxWorkingDays      int     `yaml:"max_working_days" json:"max_working_days"`           // 每周最多上班天数，0 不限制

	// TightWorkingDay 追加 working_day <= 当天班次之和。
	// 默认关闭时 working_day 只有下界，求解器可以把无班次的休息日标成上班日来连接两段。
	TightWorkingDay bool `yaml:"tight_working_day" json:"tight_working_day"`
}

// DefaultConfig 默认建模参数
func DefaultConfig() Config {
	return Config{
		MinShiftsPerWeek:    4,
		MaxShiftsPerWeek:    5,
		FragmentationWeight: 10,
		MaxWorkingDays:      0,
	}
}

// Validate 检查参数
func (c Config) Validate() error {
	if c.MinShiftsPerWeek < 0 {
		return errors.InvalidConfig("min_shifts_per_week", "不能为负数")
	}
	if c.MaxShiftsPerWeek < c.MinShiftsPerWeek {
		return errors.InvalidConfig("max_shifts_per_week",
			fmt.Sprintf("%d 小于最少班次 %d", c.MaxShiftsPerWeek, c.MinShiftsPerWeek))
	}
	if c.FragmentationWeight < 0 {
		return errors.InvalidConfig("fragmentation_weight", "不能为负数")
	}
	if c.MaxWorkingDays < 0 || c.MaxWorkingDays > model.DaysPerWeek {
		return errors.InvalidConfig("max_working_days",
			fmt.Sprintf("必须在 0 到 %d 之间", model.DaysPerWeek))
	}
	return nil
}
