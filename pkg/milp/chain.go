package milp

import (
	"context"
	"strings"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/logger"
)

// Chain 按顺序尝试多个后端，仅在后端不可用时切换到下一个。
// 后端返回的求解状态（包括 INFEASIBLE、UNKNOWN）原样返回，不会触发切换。
type Chain struct {
	solvers []Solver
	log     *logger.SolveLogger
}

// NewChain 创建后端链
func NewChain(solvers ...Solver) *Chain {
	return &Chain{solvers: solvers, log: logger.NewSolveLogger()}
}

// Name 返回形如 chain(cbc,bnb) 的名称
func (c *Chain) Name() string {
	names := make([]string, len(c.solvers))
	for i, s := range c.solvers {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Available 任一后端可用即可
func (c *Chain) Available() error {
	var last error
	for _, s := range c.solvers {
		if err := s.Available(); err != nil {
			last = err
			continue
		}
		return nil
	}
	return errors.SolverUnavailable(c.Name(), last)
}

// Solve 使用第一个可用后端求解
func (c *Chain) Solve(ctx context.Context, m *Model) (*Solution, error) {
	var last error
	for _, s := range c.solvers {
		if err := s.Available(); err != nil {
			c.log.BackendUnavailable(s.Name(), err)
			last = err
			continue
		}
		sol, err := s.Solve(ctx, m)
		if errors.Is(err, errors.CodeSolverUnavailable) {
			c.log.BackendUnavailable(s.Name(), err)
			last = err
			continue
		}
		return sol, err
	}
	return nil, errors.SolverUnavailable(c.Name(), last)
}
