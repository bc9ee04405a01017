package stats

import "github.com/paiban/weekplan/pkg/model"

// Summary 一次排班的统计汇总
type Summary struct {
	Coverage *CoverageMetrics `json:"coverage"`
	Fairness *FairnessMetrics `json:"fairness"`
}

// Compute 计算覆盖率和公平性指标
func Compute(problem *model.Problem, schedule *model.Schedule, fragmentationWeight float64) *Summary {
	return &Summary{
		Coverage: NewCoverageAnalyzer().Analyze(problem, schedule),
		Fairness: NewFairnessAnalyzer(fragmentationWeight).Analyze(problem, schedule),
	}
}
