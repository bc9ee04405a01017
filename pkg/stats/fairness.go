package stats

import (
	"math"
	"sort"

	"github.com/paiban/weekplan/pkg/model"
)

// FairnessMetrics 工作量与碎片化指标
type FairnessMetrics struct {
	// 工作量
	WorkloadGini        float64 `json:"workload_gini"`          // 班次数基尼系数 (0=完全公平)
	WorkloadStdDev      float64 `json:"workload_std_dev"`       // 班次数标准差
	AvgShiftsPerWorker  float64 `json:"avg_shifts_per_worker"`  // 人均班次
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"` // 人均工时
	MaxShifts           int     `json:"max_shifts"`
	MinShifts           int     `json:"min_shifts"`
	WeekendShifts       int     `json:"weekend_shifts"`

	// 碎片化
	TotalBlocks       int `json:"total_blocks"`       // 全部连续上班段数
	FragmentedWorkers int `json:"fragmented_workers"` // 上班段多于一段的人数

	// ScheduleObjective 按排班表重新计算的目标值：班次数 + 权重 × 上班段数
	ScheduleObjective float64 `json:"schedule_objective"`

	WorkerStats []WorkerStat `json:"worker_stats"`
}

// WorkerStat 员工统计
type WorkerStat struct {
	Worker        string  `json:"worker"`
	ShiftCount    int     `json:"shift_count"`
	TotalHours    float64 `json:"total_hours"`
	Blocks        int     `json:"blocks"`
	WeekendShifts int     `json:"weekend_shifts"`
	Deviation     float64 `json:"deviation"` // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	fragmentationWeight float64
}

// NewFairnessAnalyzer 创建公平性分析器，weight 为每个上班段的惩罚
func NewFairnessAnalyzer(weight float64) *FairnessAnalyzer {
	return &FairnessAnalyzer{fragmentationWeight: weight}
}

// Analyze 分析排班
func (f *FairnessAnalyzer) Analyze(problem *model.Problem, schedule *model.Schedule) *FairnessMetrics {
	metrics := &FairnessMetrics{}
	if len(schedule.Rows) == 0 {
		return metrics
	}

	counts := make([]float64, 0, len(schedule.Rows))
	hours := 0.0
	for _, row := range schedule.Rows {
		stat := WorkerStat{
			Worker:     row.Worker,
			ShiftCount: row.WorkingDays(),
			Blocks:     row.WorkBlocks(),
		}
		for d, idx := range row.ShiftIndex {
			if idx < 0 || idx >= len(problem.Shifts) {
				continue
			}
			stat.TotalHours += float64(problem.Shifts[idx].Duration()) / 3600
			if d >= 5 {
				stat.WeekendShifts++
			}
		}

		metrics.WorkerStats = append(metrics.WorkerStats, stat)
		metrics.TotalBlocks += stat.Blocks
		metrics.WeekendShifts += stat.WeekendShifts
		if stat.Blocks > 1 {
			metrics.FragmentedWorkers++
		}
		counts = append(counts, float64(stat.ShiftCount))
		hours += stat.TotalHours
	}

	mean := calculateMean(counts)
	metrics.AvgShiftsPerWorker = mean
	metrics.AvgHoursPerEmployee = hours / float64(len(counts))
	metrics.WorkloadStdDev = math.Sqrt(calculateVariance(counts, mean))
	metrics.WorkloadGini = calculateGini(counts)
	maxShifts, minShifts := calculateRange(counts)
	metrics.MaxShifts, metrics.MinShifts = int(maxShifts), int(minShifts)

	total := 0.0
	for i := range metrics.WorkerStats {
		stat := &metrics.WorkerStats[i]
		if mean > 0 {
			stat.Deviation = (float64(stat.ShiftCount) - mean) / mean * 100
		}
		total += float64(stat.ShiftCount)
	}
	metrics.ScheduleObjective = total + f.fragmentationWeight*float64(metrics.TotalBlocks)
	return metrics
}

// calculateMean 计算平均值
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateVariance 计算方差
func calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// calculateRange 计算极值
func calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// calculateGini 计算基尼系数
func calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}
