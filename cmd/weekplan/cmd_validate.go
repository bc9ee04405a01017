package main

import (
	"fmt"

	"github.com/paiban/weekplan/internal/tables"
	"github.com/paiban/weekplan/pkg/availability"
	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/scheduler"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	o := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "检查输入表并构建模型，不求解",
		Long:  "读取三张表，检查格式和业务规则，输出模型规模，并列出显然导致无解的原因。",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			o.applyFlags(cmd, cfg)
			if err := cfg.Model.Validate(); err != nil {
				return err
			}

			problem, err := tables.LoadProblem(o.inputs)
			if err != nil {
				return err
			}
			problem = availability.Apply(problem)
			f, err := scheduler.Build(problem, cfg.Model)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "员工: %d\n班次/天: %d\n时段: %d\n变量: %d\n约束: %d\n",
				len(problem.Workers), problem.ShiftsPerDay(), problem.TotalPeriods(),
				f.Model.NumVars(), f.Model.NumConstraints())

			hints := scheduler.Diagnose(problem, cfg.Model)
			if len(hints) == 0 {
				fmt.Fprintln(out, "未发现明显的无解原因")
				return nil
			}
			for _, h := range hints {
				fmt.Fprintf(out, "  - %s\n", h)
			}
			return errors.Infeasible(scheduler.HintText(hints))
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.inputs.Shifts, "shifts", "", "班次表 CSV")
	f.StringVar(&o.inputs.Workers, "workers", "", "员工表 CSV")
	f.StringVar(&o.inputs.Requirements, "requirements", "", "需求表 CSV")
	f.BoolVar(&o.reqHeader, "requirements-header", false, "需求表可能有表头")
	f.BoolVar(&o.noReqHeader, "no-requirements-header", false, "需求表每一行都是需求值")
	f.BoolVar(&o.tight, "tight-working-day", false, "上班日必须有班次")
	for _, name := range []string{"shifts", "workers", "requirements"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}
