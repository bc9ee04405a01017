package milp

import (
	"context"
	"time"
)

// Status 求解状态
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusError
)

// String 返回状态名
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusUnbounded:
		return "UNBOUNDED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalText 序列化为状态名
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Solution 求解结果。只有 Status 为 OPTIMAL 时 Values 才有效。
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Backend   string
	Duration  time.Duration
	Nodes     int64
	Message   string
}

// Optimal 是否为最优解
func (s *Solution) Optimal() bool {
	return s != nil && s.Status == StatusOptimal
}

// Value 读取变量取值，非最优或越界时 ok 为 false
func (s *Solution) Value(v Var) (float64, bool) {
	if !s.Optimal() || int(v) < 0 || int(v) >= len(s.Values) {
		return 0, false
	}
	return s.Values[v], true
}

// Bool 二元变量是否取 1
func (s *Solution) Bool(v Var) bool {
	val, ok := s.Value(v)
	return ok && val > 0.5
}

// Solver 求解器后端接口
type Solver interface {
	// Name 返回后端名称
	Name() string

	// Available 检查后端能否运行，不可用时返回 SOLVER_UNAVAILABLE 错误
	Available() error

	// Solve 求解模型。超时或取消时返回 UNKNOWN 状态而不是阻塞。
	Solve(ctx context.Context, m *Model) (*Solution, error)
}
