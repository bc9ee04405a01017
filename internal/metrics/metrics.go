// Package metrics 提供Prometheus监控指标，批处理运行结束后写入 node_exporter textfile
package metrics

import (
	"time"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 指标集合，每个实例使用独立的注册表
type Metrics struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	variables   prometheus.Gauge
	constraints prometheus.Gauge
	objective   prometheus.Gauge
	blocks      prometheus.Gauge
	gini        prometheus.Gauge
	coverage    prometheus.Gauge
	lastRun     prometheus.Gauge
}

// New 创建并注册指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weekplan_runs_total",
			Help: "排班求解次数",
		}, []string{"backend", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weekplan_solve_duration_seconds",
			Help:    "排班求解耗时",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"backend"}),
		variables: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weekplan_model_variables",
			Help: "最近一次模型的变量数",
		}),
		constraints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weekplan_model_constraints",
			Help: "最近一次模型的约束数",
		}),
		objective: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weekplan_schedule_objective",
			Help: "按排班表计算的目标值",
		}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weekplan_work_blocks",
			Help: "全部员工的连续上班段数",
		}),
		gini: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weekplan_fairness_gini",
			Help: "班次数基尼系数",
		}),
		coverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weekplan_demand_satisfaction_ratio",
			Help: "需求满足度",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weekplan_last_run_timestamp_seconds",
			Help: "最近一次求解结束时间",
		}),
	}
	m.registry.MustRegister(
		m.runs, m.duration, m.variables, m.constraints,
		m.objective, m.blocks, m.gini, m.coverage, m.lastRun,
	)
	return m
}

// Registry 返回注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveModel 记录模型规模
func (m *Metrics) ObserveModel(vars, rows int) {
	m.variables.Set(float64(vars))
	m.constraints.Set(float64(rows))
}

// ObserveRun 记录一次求解
func (m *Metrics) ObserveRun(backend, status string, duration time.Duration) {
	m.runs.WithLabelValues(backend, status).Inc()
	m.duration.WithLabelValues(backend).Observe(duration.Seconds())
	m.lastRun.SetToCurrentTime()
}

// ObserveStatistics 记录排班质量
func (m *Metrics) ObserveStatistics(summary *stats.Summary) {
	if summary == nil {
		return
	}
	if summary.Fairness != nil {
		m.objective.Set(summary.Fairness.ScheduleObjective)
		m.blocks.Set(float64(summary.Fairness.TotalBlocks))
		m.gini.Set(summary.Fairness.WorkloadGini)
	}
	if summary.Coverage != nil {
		m.coverage.Set(summary.Coverage.DemandSatisfaction / 100)
	}
}

// WriteTextfile 原子写入 textfile
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "写入监控指标失败")
	}
	return nil
}
