package main

import (
	"fmt"
	"strings"

	"github.com/paiban/weekplan/pkg/scheduler/solver"
	"github.com/spf13/cobra"
)

func newBackendsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "列出求解后端及其可用性",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			out := cmd.OutOrStdout()
			for _, name := range solver.KnownBackends {
				s, err := solver.NewBackend(name, cfg.BackendConfig())
				if err != nil {
					return err
				}
				if err := s.Available(); err != nil {
					fmt.Fprintf(out, "%-4s 不可用: %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "%-4s 可用\n", name)
			}
			fmt.Fprintf(out, "配置顺序: %s\n", strings.Join(cfg.Solver.Backends, " -> "))

			configured, err := solver.NewBackends(cfg.Solver.Backends, cfg.BackendConfig())
			if err != nil {
				return err
			}
			return configured.Available()
		},
	}
}
