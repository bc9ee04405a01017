// Package milp 定义 0-1 整数规划模型和求解器契约。
// 模型由 Builder 构建，Build 之后只读，可在多个求解器之间传递。
package milp

import (
	"fmt"
	"math"
	"regexp"
)

// Var 变量在模型中的编号
type Var int

// Relation 约束关系
type Relation int

const (
	LessOrEqual Relation = iota
	GreaterOrEqual
	Equal
)

// String 返回 LP 文件中的符号
func (r Relation) String() string {
	switch r {
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	default:
		return "="
	}
}

// Sense 优化方向
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// VarInfo 二元变量定义，上下界只能取 0 或 1
type VarInfo struct {
	Name  string
	Lower int
	Upper int
}

// Fixed 上下界相同
func (v VarInfo) Fixed() bool {
	return v.Lower == v.Upper
}

// Term 线性项
type Term struct {
	Var  Var
	Coef float64
}

// Expr 线性表达式
type Expr struct {
	Terms []Term
}

// NewExpr 创建空表达式
func NewExpr() *Expr {
	return &Expr{}
}

// Add 追加一项
func (e *Expr) Add(v Var, coef float64) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// AddSum 追加系数为 1 的多项
func (e *Expr) AddSum(vars ...Var) *Expr {
	for _, v := range vars {
		e.Add(v, 1)
	}
	return e
}

// Value 在给定取值下计算表达式
func (e Expr) Value(values []float64) float64 {
	var sum float64
	for _, t := range e.Terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Constraint 线性约束：Expr Rel RHS
type Constraint struct {
	Name string
	Expr Expr
	Rel  Relation
	RHS  float64
}

// Satisfied 检查约束在给定取值下是否满足
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := c.Expr.Value(values)
	switch c.Rel {
	case LessOrEqual:
		return lhs <= c.RHS+tol
	case GreaterOrEqual:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}

// Model 构建完成的 0-1 规划，只读
type Model struct {
	name        string
	vars        []VarInfo
	constraints []Constraint
	objective   Expr
	sense       Sense

	// cuts 附加约束，不计入模型约束，可以去掉部分最优解但至少保留一个
	cuts []Constraint
	// hint 初始解，长度与变量数相同；nil 表示没有
	hint []float64
}

// Name 模型名
func (m *Model) Name() string { return m.name }

// NumVars 变量数
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints 约束数
func (m *Model) NumConstraints() int { return len(m.constraints) }

// Var 变量定义
func (m *Model) Var(v Var) VarInfo { return m.vars[v] }

// Constraint 第 i 条约束
func (m *Model) Constraint(i int) Constraint { return m.constraints[i] }

// NumCuts 附加约束数
func (m *Model) NumCuts() int { return len(m.cuts) }

// Cut 第 i 条附加约束
func (m *Model) Cut(i int) Constraint { return m.cuts[i] }

// Hint 初始解的取值，未设置时返回 nil
func (m *Model) Hint() []float64 {
	if m.hint == nil {
		return nil
	}
	return append([]float64(nil), m.hint...)
}

// Objective 目标表达式
func (m *Model) Objective() Expr { return m.objective }

// Sense 优化方向
func (m *Model) Sense() Sense { return m.sense }

// Evaluate 计算目标值
func (m *Model) Evaluate(values []float64) float64 {
	return m.objective.Value(values)
}

// Check 验证一组取值满足变量界和所有约束
func (m *Model) Check(values []float64, tol float64) error {
	if len(values) != len(m.vars) {
		return fmt.Errorf("取值长度 %d 与变量数 %d 不一致", len(values), len(m.vars))
	}
	for i, info := range m.vars {
		v := values[i]
		if v < float64(info.Lower)-tol || v > float64(info.Upper)+tol {
			return fmt.Errorf("变量 %s = %g 超出界 [%d,%d]", info.Name, v, info.Lower, info.Upper)
		}
		if math.Abs(v-math.Round(v)) > tol {
			return fmt.Errorf("变量 %s = %g 不是整数", info.Name, v)
		}
	}
	for _, c := range m.constraints {
		if !c.Satisfied(values, tol) {
			return fmt.Errorf("约束 %s 不满足", c.Name)
		}
	}
	return nil
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// VariableHint 初始解中一个变量的取值
type VariableHint struct {
	Var   Var
	Value float64
}

// Builder 模型构建器，记录第一个错误并在 Build 时返回
type Builder struct {
	model *Model
	names map[string]bool
	hints []VariableHint
	err   error
}

// NewBuilder 创建构建器
func NewBuilder(name string) *Builder {
	return &Builder{
		model: &Model{name: name},
		names: make(map[string]bool),
	}
}

func (b *Builder) setErrorf(format string, a ...any) {
	if b.err == nil {
		b.err = fmt.Errorf(format, a...)
	}
}

func (b *Builder) claimName(name string) {
	if !namePattern.MatchString(name) {
		b.setErrorf("名称 %q 不合法", name)
		return
	}
	if b.names[name] {
		b.setErrorf("名称 %q 重复", name)
		return
	}
	b.names[name] = true
}

// NewBinary 创建二元变量，upper 为 0 时变量固定为 0
func (b *Builder) NewBinary(name string, upper int) Var {
	if upper != 0 && upper != 1 {
		b.setErrorf("变量 %s 上界必须为 0 或 1，得到 %d", name, upper)
		upper = 1
	}
	b.claimName(name)
	b.model.vars = append(b.model.vars, VarInfo{Name: name, Upper: upper})
	return Var(len(b.model.vars) - 1)
}

// AddConstraint 添加约束
func (b *Builder) AddConstraint(name string, expr *Expr, rel Relation, rhs float64) {
	b.model.constraints = append(b.model.constraints, b.newConstraint(name, expr, rel, rhs))
}

// AddCut 添加附加约束。附加约束不写入 LP 文件，也不参与 Check，
// 只供分支定界收紧下界和剪掉对称解；调用方保证至少保留一个最优解。
func (b *Builder) AddCut(name string, expr *Expr, rel Relation, rhs float64) {
	b.model.cuts = append(b.model.cuts, b.newConstraint(name, expr, rel, rhs))
}

func (b *Builder) newConstraint(name string, expr *Expr, rel Relation, rhs float64) Constraint {
	b.claimName(name)
	for _, t := range expr.Terms {
		if t.Var < 0 || int(t.Var) >= len(b.model.vars) {
			b.setErrorf("约束 %s 引用了不存在的变量 %d", name, t.Var)
		}
	}
	return Constraint{
		Name: name,
		Expr: Expr{Terms: append([]Term(nil), expr.Terms...)},
		Rel:  rel,
		RHS:  rhs,
	}
}

// SetHint 设置初始解，未列出的变量取 0。求解器只在初始解可行时使用它。
func (b *Builder) SetHint(hints []VariableHint) {
	b.hints = append(b.hints[:0], hints...)
}

// AddLessOrEqual 添加 expr <= rhs
func (b *Builder) AddLessOrEqual(name string, expr *Expr, rhs float64) {
	b.AddConstraint(name, expr, LessOrEqual, rhs)
}

// AddGreaterOrEqual 添加 expr >= rhs
func (b *Builder) AddGreaterOrEqual(name string, expr *Expr, rhs float64) {
	b.AddConstraint(name, expr, GreaterOrEqual, rhs)
}

// Minimize 设置最小化目标
func (b *Builder) Minimize(expr *Expr) {
	b.model.objective = Expr{Terms: append([]Term(nil), expr.Terms...)}
	b.model.sense = Minimize
}

// Maximize 设置最大化目标
func (b *Builder) Maximize(expr *Expr) {
	b.model.objective = Expr{Terms: append([]Term(nil), expr.Terms...)}
	b.model.sense = Maximize
}

// Build 返回只读模型，之后构建器不可再用
func (b *Builder) Build() (*Model, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, t := range b.model.objective.Terms {
		if t.Var < 0 || int(t.Var) >= len(b.model.vars) {
			return nil, fmt.Errorf("目标函数引用了不存在的变量 %d", t.Var)
		}
	}
	if len(b.hints) > 0 {
		hint := make([]float64, len(b.model.vars))
		for _, h := range b.hints {
			if h.Var < 0 || int(h.Var) >= len(hint) {
				return nil, fmt.Errorf("初始解引用了不存在的变量 %d", h.Var)
			}
			hint[h.Var] = h.Value
		}
		b.model.hint = hint
	}
	m := b.model
	b.model = nil
	return m, nil
}
