// Package solver 串联建模、求解、投影与复核，生成一周排班
package solver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/weekplan/pkg/availability"
	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/logger"
	"github.com/paiban/weekplan/pkg/milp"
	"github.com/paiban/weekplan/pkg/model"
	"github.com/paiban/weekplan/pkg/projector"
	"github.com/paiban/weekplan/pkg/scheduler"
	"github.com/paiban/weekplan/pkg/stats"
	"github.com/paiban/weekplan/pkg/validator"
)

// Result 求解结果
type Result struct {
	RunID      string          `json:"run_id"`
	Backend    string          `json:"backend"`
	Status     milp.Status     `json:"status"`
	Objective  float64         `json:"objective"`
	Schedule   *model.Schedule `json:"schedule,omitempty"`
	Statistics *stats.Summary  `json:"statistics,omitempty"`
	Variables  int             `json:"variables"`
	Rows       int             `json:"constraints"`
	Nodes      int64           `json:"nodes,omitempty"`
	Duration   time.Duration   `json:"duration"`
	Message    string          `json:"message,omitempty"`
}

// Success 是否得到排班
func (r *Result) Success() bool {
	return r != nil && r.Status == milp.StatusOptimal && r.Schedule != nil
}

// Observer 接收求解过程中的度量
type Observer interface {
	ObserveModel(vars, rows int)
	ObserveRun(backend string, status string, duration time.Duration)
}

// Pipeline 周排班流水线
type Pipeline struct {
	backend  milp.Solver
	config   scheduler.Config
	timeout  time.Duration
	detector *validator.ConflictDetector
	observer Observer
	log      *logger.SolveLogger
}

// Option 流水线选项
type Option func(*Pipeline)

// WithTimeout 设置单次求解的最长时间，0 不限制
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithObserver 设置度量接收者
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithLogger 设置日志器
func WithLogger(l *logger.SolveLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New 创建流水线
func New(backend milp.Solver, cfg scheduler.Config, opts ...Option) (*Pipeline, error) {
	if backend == nil {
		return nil, errors.InvalidConfig("solver.backends", "后端为空")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		backend: backend,
		config:  cfg,
		detector: validator.NewConflictDetector(&validator.DetectorConfig{
			MinShiftsPerWeek:  cfg.MinShiftsPerWeek,
			MaxShiftsPerWeek:  cfg.MaxShiftsPerWeek,
			MaxWorkingDays:    cfg.MaxWorkingDays,
			CheckAvailability: true,
		}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.NewSolveLogger()
	}
	return p, nil
}

// Backend 返回后端
func (p *Pipeline) Backend() milp.Solver {
	return p.backend
}

// Prepare 计算可用性并构建模型，不求解
func (p *Pipeline) Prepare(problem *model.Problem) (*scheduler.Formulation, error) {
	if problem == nil {
		return nil, errors.MalformedInput("problem", "输入为空")
	}
	return scheduler.Build(availability.Apply(problem), p.config)
}

// Run 生成一周排班。返回错误时 Result 仍包含已知的运行信息。
func (p *Pipeline) Run(ctx context.Context, problem *model.Problem) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:   uuid.New().String(),
		Backend: p.backend.Name(),
		Status:  milp.StatusUnknown,
	}
	fail := func(err error) (*Result, error) {
		result.Duration = time.Since(start)
		result.Message = err.Error()
		p.log.RunFailed(result.RunID, err)
		if p.observer != nil {
			p.observer.ObserveRun(result.Backend, string(errors.GetCode(err)), result.Duration)
		}
		return result, err
	}

	if problem != nil {
		p.log.StartRun(result.RunID, len(problem.Workers), problem.TotalPeriods())
	}
	f, err := p.Prepare(problem)
	if err != nil {
		return fail(err)
	}
	result.Variables = f.Model.NumVars()
	result.Rows = f.Model.NumConstraints()
	p.log.ModelBuilt(result.RunID, result.Variables, result.Rows)
	if p.observer != nil {
		p.observer.ObserveModel(result.Variables, result.Rows)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	sol, err := p.backend.Solve(ctx, f.Model)
	if err != nil {
		return fail(err)
	}
	if sol.Backend != "" {
		result.Backend = sol.Backend
	}
	result.Status = sol.Status
	result.Nodes = sol.Nodes

	switch sol.Status {
	case milp.StatusOptimal:
	case milp.StatusInfeasible:
		return fail(errors.Infeasible(scheduler.HintText(scheduler.Diagnose(f.Problem, p.config))))
	case milp.StatusUnknown:
		return fail(errors.Timeout(result.Backend).WithDetails(sol.Message))
	default:
		return fail(errors.NoSolution(sol.Status.String()).WithDetails(sol.Message))
	}

	schedule, err := projector.Project(f, sol)
	if err != nil {
		return fail(err)
	}
	if err := p.detector.Verify(f.Problem, schedule); err != nil {
		return fail(err)
	}

	result.Schedule = schedule
	result.Objective = sol.Objective
	result.Statistics = stats.Compute(f.Problem, schedule, p.config.FragmentationWeight)
	result.Duration = time.Since(start)
	p.log.RunComplete(result.RunID, result.Backend, result.Duration, result.Objective)
	if p.observer != nil {
		p.observer.ObserveRun(result.Backend, sol.Status.String(), result.Duration)
	}
	return result, nil
}
