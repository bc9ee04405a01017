package solver

import (
	"fmt"
	"strings"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/milp"
	"github.com/paiban/weekplan/pkg/milp/bnb"
	"github.com/paiban/weekplan/pkg/milp/cbc"
)

// BackendConfig 各后端的配置
type BackendConfig struct {
	CBC *cbc.Config
	BNB *bnb.Config
}

// KnownBackends 支持的后端名称
var KnownBackends = []string{cbc.Name, bnb.Name}

// NewBackend 按名称创建后端
func NewBackend(name string, cfg BackendConfig) (milp.Solver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case cbc.Name:
		return cbc.New(cfg.CBC), nil
	case bnb.Name:
		return bnb.New(cfg.BNB), nil
	default:
		return nil, errors.InvalidConfig("solver.backends",
			fmt.Sprintf("未知后端 %q，可选 %s", name, strings.Join(KnownBackends, ", ")))
	}
}

// NewBackends 按顺序创建后端，多个时组成降级链
func NewBackends(names []string, cfg BackendConfig) (milp.Solver, error) {
	if len(names) == 0 {
		return nil, errors.InvalidConfig("solver.backends", "至少需要一个后端")
	}
	solvers := make([]milp.Solver, 0, len(names))
	for _, name := range names {
		s, err := NewBackend(name, cfg)
		if err != nil {
			return nil, err
		}
		solvers = append(solvers, s)
	}
	if len(solvers) == 1 {
		return solvers[0], nil
	}
	return milp.NewChain(solvers...), nil
}
