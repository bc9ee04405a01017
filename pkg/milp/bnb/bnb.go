// Package bnb 纯 Go 实现的 0-1 规划分支定界求解器。
// 按变量编号深度优先分支，约束传播使用行最小活动量，剪枝使用目标下界。
// 模型的附加约束参与传播和下界，模型带初始解且可行时以它作为第一个上界。
package bnb

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/milp"
)

// Name 后端名称
const Name = "bnb"

const tol = 1e-9

// Config 求解配置
type Config struct {
	NodeLimit int64         `yaml:"node_limit"` // 最大搜索节点数，0 不限制
	TimeLimit time.Duration `yaml:"time_limit"` // 最长求解时间，0 只受 ctx 控制
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		NodeLimit: 50_000_000,
		TimeLimit: 0,
	}
}

// Solver 分支定界求解器
type Solver struct {
	config *Config
}

// New 创建求解器
func New(cfg *Config) *Solver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Solver{config: cfg}
}

// Name 返回后端名称
func (s *Solver) Name() string { return Name }

// Available 纯 Go 实现，总是可用
func (s *Solver) Available() error { return nil }

// Solve 求解模型，超时、取消或达到节点上限时返回 UNKNOWN
func (s *Solver) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	if m == nil {
		return nil, errors.New(errors.CodeInternal, "模型为空")
	}
	if s.config.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TimeLimit)
		defer cancel()
	}

	start := time.Now()
	st := newSearch(ctx, m, s.config.NodeLimit)
	status := st.run()

	sol := &milp.Solution{
		Status:   status,
		Backend:  Name,
		Nodes:    st.nodes,
		Duration: time.Since(start),
	}
	switch status {
	case milp.StatusOptimal:
		sol.Values = make([]float64, len(st.best))
		for i, v := range st.best {
			sol.Values[i] = float64(v)
		}
		sol.Objective = m.Evaluate(sol.Values)
	case milp.StatusUnknown:
		sol.Message = st.stopReason()
	case milp.StatusInfeasible:
		sol.Message = "搜索树穷尽，没有可行解"
	}
	return sol, nil
}

type stopKind int

const (
	stopNone stopKind = iota
	stopCancel
	stopNodeLimit
)

// row 归一化为 Σ coef·x <= rhs 的约束行
type row struct {
	vars   []int
	coef   []float64
	rhs    float64
	minAct float64
}

type occurrence struct {
	row  int
	coef float64
}

// cover 系数全为 1、变量成本全为正的 >= 约束，用于加强下界
type cover struct {
	rhs      float64
	ones     int
	minCost  float64
	families []int
}

func (c *cover) bound() float64 {
	deficit := c.rhs - float64(c.ones)
	if deficit <= 0 {
		return 0
	}
	return math.Ceil(deficit-tol) * c.minCost
}

type search struct {
	ctx       context.Context
	nodeLimit int64
	nodes     int64
	stop      stopKind

	val  []int8 // -1 未固定
	cost []float64
	rows []row
	occ  [][]occurrence

	objLB    float64
	integral bool

	// 同一 family 内的 cover 变量互不重叠，下界可以相加；不同 family 取最大
	covers      []cover
	coversOf    [][]int
	familyVars  [][]bool
	familyBound []float64

	trail   []int
	queue   []int
	inQueue []bool

	best    []int8
	bestObj float64
	hasBest bool
}

func newSearch(ctx context.Context, m *milp.Model, nodeLimit int64) *search {
	n := m.NumVars()
	s := &search{
		ctx:       ctx,
		nodeLimit: nodeLimit,
		val:       make([]int8, n),
		cost:      make([]float64, n),
		occ:       make([][]occurrence, n),
		coversOf:  make([][]int, n),
		integral:  true,
	}

	sign := 1.0
	if m.Sense() == milp.Maximize {
		sign = -1
	}
	for _, t := range m.Objective().Terms {
		s.cost[t.Var] += sign * t.Coef
	}
	for j := 0; j < n; j++ {
		info := m.Var(milp.Var(j))
		s.val[j] = -1
		if info.Fixed() {
			s.val[j] = int8(info.Lower)
		}
		if s.cost[j] != math.Trunc(s.cost[j]) {
			s.integral = false
		}
	}

	for i := 0; i < m.NumConstraints(); i++ {
		s.addConstraint(m.Constraint(i))
	}
	for i := 0; i < m.NumCuts(); i++ {
		s.addConstraint(m.Cut(i))
	}
	s.inQueue = make([]bool, len(s.rows))
	s.familyBound = make([]float64, len(s.familyVars))
	s.familyVars = nil

	for j := 0; j < n; j++ {
		s.objLB += s.contribution(s.cost[j], s.val[j])
	}
	for r := range s.rows {
		rw := &s.rows[r]
		for k, j := range rw.vars {
			rw.minAct += s.contribution(rw.coef[k], s.val[j])
		}
	}
	for j := 0; j < n; j++ {
		if s.val[j] == 1 {
			for _, ci := range s.coversOf[j] {
				s.covers[ci].ones++
			}
		}
	}
	for i := range s.covers {
		b := s.covers[i].bound()
		for _, f := range s.covers[i].families {
			s.familyBound[f] += b
		}
	}

	if hint := m.Hint(); hint != nil && m.Check(hint, 1e-6) == nil {
		s.best = make([]int8, n)
		for j, v := range hint {
			s.best[j] = int8(math.Round(v))
			s.bestObj += s.cost[j] * float64(s.best[j])
		}
		s.hasBest = true
	}
	return s
}

func (s *search) addConstraint(c milp.Constraint) {
	merged := mergeTerms(c.Expr.Terms)
	switch c.Rel {
	case milp.LessOrEqual:
		s.addRow(merged, 1, c.RHS)
	case milp.GreaterOrEqual:
		s.addRow(merged, -1, -c.RHS)
		s.tryCover(merged, c.RHS)
	default:
		s.addRow(merged, 1, c.RHS)
		s.addRow(merged, -1, -c.RHS)
	}
}

// contribution 变量对最小活动量的贡献：已固定取 coef·v，未固定取 min(0, coef)
func (s *search) contribution(coef float64, v int8) float64 {
	if v < 0 {
		return math.Min(0, coef)
	}
	return coef * float64(v)
}

// mergeTerms 合并同一变量的多个项，保持首次出现的顺序
func mergeTerms(terms []milp.Term) []milp.Term {
	pos := make(map[milp.Var]int, len(terms))
	var out []milp.Term
	for _, t := range terms {
		if i, ok := pos[t.Var]; ok {
			out[i].Coef += t.Coef
			continue
		}
		pos[t.Var] = len(out)
		out = append(out, t)
	}
	return out
}

func (s *search) addRow(terms []milp.Term, sign, rhs float64) {
	r := row{rhs: rhs}
	for _, t := range terms {
		if t.Coef == 0 {
			continue
		}
		r.vars = append(r.vars, int(t.Var))
		r.coef = append(r.coef, sign*t.Coef)
	}
	idx := len(s.rows)
	s.rows = append(s.rows, r)
	for k, j := range r.vars {
		s.occ[j] = append(s.occ[j], occurrence{row: idx, coef: r.coef[k]})
	}
}

// tryCover 把约束放进所有与它不重叠的 family，都重叠时新建一个
func (s *search) tryCover(terms []milp.Term, rhs float64) {
	if rhs <= 0 || len(terms) == 0 {
		return
	}
	minCost := math.Inf(1)
	for _, t := range terms {
		j := int(t.Var)
		if t.Coef != 1 || s.cost[j] <= 0 {
			return
		}
		minCost = math.Min(minCost, s.cost[j])
	}

	c := cover{rhs: rhs, minCost: minCost}
	for f, used := range s.familyVars {
		if disjoint(used, terms) {
			c.families = append(c.families, f)
		}
	}
	if len(c.families) == 0 {
		s.familyVars = append(s.familyVars, make([]bool, len(s.val)))
		c.families = append(c.families, len(s.familyVars)-1)
	}
	ci := len(s.covers)
	s.covers = append(s.covers, c)
	for _, t := range terms {
		s.coversOf[t.Var] = append(s.coversOf[t.Var], ci)
		for _, f := range c.families {
			s.familyVars[f][t.Var] = true
		}
	}
}

func disjoint(used []bool, terms []milp.Term) bool {
	for _, t := range terms {
		if used[t.Var] {
			return false
		}
	}
	return true
}

// addOnes 调整变量 j 所在 cover 的已满足数量，并把下界变化计入各 family
func (s *search) addOnes(j, delta int) {
	for _, ci := range s.coversOf[j] {
		c := &s.covers[ci]
		before := c.bound()
		c.ones += delta
		change := c.bound() - before
		for _, f := range c.families {
			s.familyBound[f] += change
		}
	}
}

func (s *search) enqueue(r int) {
	if !s.inQueue[r] {
		s.inQueue[r] = true
		s.queue = append(s.queue, r)
	}
}

func (s *search) clearQueue() {
	for _, r := range s.queue {
		s.inQueue[r] = false
	}
	s.queue = s.queue[:0]
}

func (s *search) assign(j int, v int8) {
	s.val[j] = v
	s.trail = append(s.trail, j)
	for _, o := range s.occ[j] {
		s.rows[o.row].minAct += o.coef*float64(v) - math.Min(0, o.coef)
		s.enqueue(o.row)
	}
	s.objLB += s.cost[j]*float64(v) - math.Min(0, s.cost[j])
	if v == 1 {
		s.addOnes(j, 1)
	}
}

func (s *search) undo(mark int) {
	for len(s.trail) > mark {
		j := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		v := s.val[j]
		for _, o := range s.occ[j] {
			s.rows[o.row].minAct -= o.coef*float64(v) - math.Min(0, o.coef)
		}
		s.objLB -= s.cost[j]*float64(v) - math.Min(0, s.cost[j])
		if v == 1 {
			s.addOnes(j, -1)
		}
		s.val[j] = -1
	}
}

// propagate 处理队列中的约束行，发现冲突返回 false
func (s *search) propagate() bool {
	for len(s.queue) > 0 {
		r := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		s.inQueue[r] = false

		rw := &s.rows[r]
		if rw.minAct > rw.rhs+tol {
			s.clearQueue()
			return false
		}
		slack := rw.rhs - rw.minAct
		for k, j := range rw.vars {
			if s.val[j] >= 0 {
				continue
			}
			// 固定后该行最小活动量不变，slack 仍然有效
			a := rw.coef[k]
			if a > 0 && a > slack+tol {
				s.assign(j, 0)
			} else if a < 0 && -a > slack+tol {
				s.assign(j, 1)
			}
		}
	}
	return true
}

func (s *search) bound() float64 {
	best := 0.0
	for _, b := range s.familyBound {
		best = math.Max(best, b)
	}
	return s.objLB + best
}

// pruned 当前下界无法改进已有解
func (s *search) pruned() bool {
	if !s.hasBest {
		return false
	}
	if s.integral {
		return s.bound() > s.bestObj-1+tol
	}
	return s.bound() > s.bestObj-tol
}

func (s *search) nextVar() int {
	for j, v := range s.val {
		if v < 0 {
			return j
		}
	}
	return -1
}

func (s *search) run() milp.Status {
	if s.ctx.Err() != nil {
		s.stop = stopCancel
		return milp.StatusUnknown
	}
	for r := range s.rows {
		s.enqueue(r)
	}
	if s.propagate() {
		s.dfs()
	}
	if s.stop != stopNone {
		return milp.StatusUnknown
	}
	if !s.hasBest {
		return milp.StatusInfeasible
	}
	return milp.StatusOptimal
}

func (s *search) dfs() {
	s.nodes++
	if s.nodeLimit > 0 && s.nodes > s.nodeLimit {
		s.stop = stopNodeLimit
		return
	}
	if s.nodes&1023 == 0 && s.ctx.Err() != nil {
		s.stop = stopCancel
		return
	}
	if s.pruned() {
		return
	}

	j := s.nextVar()
	if j < 0 {
		s.best = append(s.best[:0], s.val...)
		s.bestObj = s.objLB
		s.hasBest = true
		return
	}

	first := int8(0)
	if s.cost[j] < 0 {
		first = 1
	}
	for _, v := range [2]int8{first, 1 - first} {
		mark := len(s.trail)
		s.assign(j, v)
		if s.propagate() {
			s.dfs()
		}
		s.undo(mark)
		if s.stop != stopNone {
			return
		}
	}
}

func (s *search) stopReason() string {
	switch s.stop {
	case stopNodeLimit:
		return fmt.Sprintf("达到节点上限 %d，未证明最优；较大的模型请安装 cbc", s.nodeLimit)
	default:
		return "求解被取消或超时，未证明最优；较大的模型请安装 cbc"
	}
}
