package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/paiban/weekplan/internal/config"
	"github.com/paiban/weekplan/internal/database"
	"github.com/paiban/weekplan/internal/metrics"
	"github.com/paiban/weekplan/internal/repository"
	"github.com/paiban/weekplan/internal/tables"
	"github.com/paiban/weekplan/pkg/logger"
	"github.com/paiban/weekplan/pkg/scheduler/solver"
	"github.com/paiban/weekplan/pkg/stats"
	"github.com/spf13/cobra"
)

type solveOptions struct {
	inputs      tables.Inputs
	reqHeader   bool
	noReqHeader bool
	out         string
	backends    []string
	timeout     time.Duration
	tight       bool
	jsonOut     bool
	report      bool
}

func newSolveCmd(a *app) *cobra.Command {
	o := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "求解一周排班并输出 CSV",
		Long: `读取三张 CSV 表并生成一周排班。

输出表第一列为姓名，其后是周一到周日，单元格为班次名，休息为空。

Examples:
  weekplan solve --shifts shifts.csv --workers workers.csv --requirements req.csv
  weekplan solve --backend bnb --timeout 30s --report ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSolve(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.inputs.Shifts, "shifts", "", "班次表 CSV（需要 start、end 列）")
	f.StringVar(&o.inputs.Workers, "workers", "", "员工表 CSV（姓名 + 每天开始、结束）")
	f.StringVar(&o.inputs.Requirements, "requirements", "", "需求表 CSV（第一列为每个时段的最低人数）")
	f.BoolVar(&o.reqHeader, "requirements-header", false, "需求表可能有表头（第一行不是数字时跳过）")
	f.BoolVar(&o.noReqHeader, "no-requirements-header", false, "需求表每一行都是需求值")
	f.StringVarP(&o.out, "out", "o", "-", "输出文件，- 为标准输出")
	f.StringSliceVar(&o.backends, "backend", nil, "求解后端，按顺序降级 (cbc,bnb)")
	f.DurationVar(&o.timeout, "timeout", 0, "求解时限")
	f.BoolVar(&o.tight, "tight-working-day", false, "上班日必须有班次")
	f.BoolVar(&o.jsonOut, "json", false, "输出完整求解结果 JSON")
	f.BoolVar(&o.report, "report", false, "在标准错误输出覆盖率报告")
	for _, name := range []string{"shifts", "workers", "requirements"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

// applyFlags 命令行参数覆盖配置
func (o *solveOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Solver.Backends = o.backends
	}
	if flags.Changed("timeout") {
		cfg.Solver.Timeout = o.timeout
	}
	if flags.Changed("tight-working-day") {
		cfg.Model.TightWorkingDay = o.tight
	}
	if flags.Changed("requirements-header") {
		cfg.Input.RequirementsHeader = o.reqHeader
	}
	if flags.Changed("no-requirements-header") {
		cfg.Input.RequirementsHeader = !o.noReqHeader
	}
	o.inputs.RequirementsHeader = cfg.Input.RequirementsHeader
}

func (a *app) runSolve(cmd *cobra.Command, o *solveOptions) error {
	cfg := a.cfg
	o.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	problem, err := tables.LoadProblem(o.inputs)
	if err != nil {
		return err
	}
	backend, err := solver.NewBackends(cfg.Solver.Backends, cfg.BackendConfig())
	if err != nil {
		return err
	}

	opts := []solver.Option{solver.WithTimeout(cfg.Solver.Timeout)}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		opts = append(opts, solver.WithObserver(m))
	}
	pipeline, err := solver.New(backend, cfg.Model, opts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	result, runErr := pipeline.Run(ctx, problem)

	if runErr == nil {
		if err := writeResult(cmd.OutOrStdout(), o, result); err != nil {
			return err
		}
		if o.report {
			fmt.Fprint(cmd.ErrOrStderr(), stats.NewCoverageAnalyzer().GenerateCoverageReport(result.Statistics.Coverage))
		}
	}

	if m != nil {
		m.ObserveStatistics(result.Statistics)
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("写入监控指标失败")
		}
	}
	if cfg.Database.Enabled {
		if err := persist(ctx, &cfg.Database, result); err != nil {
			if runErr != nil {
				logger.Error().Err(err).Msg("保存求解记录失败")
				return runErr
			}
			return err
		}
	}
	return runErr
}

// writeResult 输出 CSV 排班或 JSON 结果
func writeResult(stdout io.Writer, o *solveOptions, result *solver.Result) error {
	w := stdout
	if o.out != "" && o.out != "-" {
		if !o.jsonOut {
			return tables.WriteScheduleFile(o.out, result.Schedule)
		}
		f, err := os.Create(o.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if o.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return tables.WriteSchedule(w, result.Schedule)
}

// persist 保存求解记录
func persist(ctx context.Context, cfg *config.DatabaseConfig, result *solver.Result) error {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewRunRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	run, err := repository.RunFromResult(result)
	if err != nil {
		return err
	}
	if err := repo.Save(ctx, run); err != nil {
		return err
	}
	logger.Info().Str("run_id", run.ID.String()).Msg("求解记录已保存")
	return nil
}
