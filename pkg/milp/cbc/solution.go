package cbc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paiban/weekplan/pkg/milp"
)

// parsedSolution CBC 解文件内容
type parsedSolution struct {
	Status    milp.Status
	Header    string
	Objective float64
	Values    []float64
}

// parseStatus 解析解文件首行，例如 "Optimal - objective value 44.00000000"
func parseStatus(line string) (milp.Status, float64) {
	lower := strings.ToLower(strings.TrimSpace(line))

	var objective float64
	if i := strings.Index(lower, "objective value"); i >= 0 {
		fields := strings.Fields(lower[i+len("objective value"):])
		if len(fields) > 0 {
			objective, _ = strconv.ParseFloat(fields[0], 64)
		}
	}

	switch {
	case strings.HasPrefix(lower, "optimal"):
		return milp.StatusOptimal, objective
	case strings.Contains(lower, "infeasible"):
		return milp.StatusInfeasible, objective
	case strings.Contains(lower, "unbounded"):
		return milp.StatusUnbounded, objective
	case strings.HasPrefix(lower, "stopped"):
		return milp.StatusUnknown, objective
	default:
		return milp.StatusError, objective
	}
}

// parseSolution 读取 CBC 解文件。未出现的变量取 0。
func parseSolution(r io.Reader, m *milp.Model) (*parsedSolution, error) {
	index := make(map[string]int, m.NumVars())
	for j := 0; j < m.NumVars(); j++ {
		index[LPName(m.Var(milp.Var(j)).Name)] = j
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("解文件为空")
	}

	out := &parsedSolution{Header: strings.TrimSpace(sc.Text())}
	out.Status, out.Objective = parseStatus(out.Header)
	out.Values = make([]float64, m.NumVars())

	lineNo := 1
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("第 %d 行格式错误: %q", lineNo, sc.Text())
		}
		j, ok := index[fields[1]]
		if !ok {
			// 约束行的对偶值输出，忽略
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行取值错误: %w", lineNo, err)
		}
		out.Values[j] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
