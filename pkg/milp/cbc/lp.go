package cbc

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/paiban/weekplan/pkg/milp"
)

// termsPerLine LP 文件单行长度有限，长表达式分行输出
const termsPerLine = 8

// LPName 返回 LP 文件中使用的名称。以 e/E 开头的名称会被当作指数，需要加前缀。
func LPName(name string) string {
	if strings.HasPrefix(name, "e") || strings.HasPrefix(name, "E") {
		return "_" + name
	}
	return name
}

// WriteLP 以 CPLEX LP 格式输出模型
func WriteLP(w io.Writer, m *milp.Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\ %s\n", m.Name())
	if m.Sense() == milp.Maximize {
		bw.WriteString("Maximize\n")
	} else {
		bw.WriteString("Minimize\n")
	}
	bw.WriteString(" obj:")
	writeExpr(bw, m, m.Objective().Terms)
	bw.WriteString("\n")

	bw.WriteString("Subject To\n")
	for i := 0; i < m.NumConstraints(); i++ {
		c := m.Constraint(i)
		fmt.Fprintf(bw, " %s:", LPName(c.Name))
		writeExpr(bw, m, c.Expr.Terms)
		fmt.Fprintf(bw, " %s %s\n", c.Rel, formatNumber(c.RHS))
	}

	var fixed []milp.Var
	for j := 0; j < m.NumVars(); j++ {
		if m.Var(milp.Var(j)).Fixed() {
			fixed = append(fixed, milp.Var(j))
		}
	}
	if len(fixed) > 0 {
		bw.WriteString("Bounds\n")
		for _, v := range fixed {
			info := m.Var(v)
			fmt.Fprintf(bw, " %s = %d\n", LPName(info.Name), info.Lower)
		}
	}

	bw.WriteString("Binaries\n")
	for j := 0; j < m.NumVars(); j++ {
		if j > 0 && j%termsPerLine == 0 {
			bw.WriteString("\n")
		}
		bw.WriteString(" " + LPName(m.Var(milp.Var(j)).Name))
	}
	if m.NumVars() > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("End\n")
	return bw.Flush()
}

// writeExpr 输出线性表达式。空表达式写成 0 乘第一个变量。
func writeExpr(bw *bufio.Writer, m *milp.Model, terms []milp.Term) {
	if len(terms) == 0 {
		if m.NumVars() > 0 {
			fmt.Fprintf(bw, " 0 %s", LPName(m.Var(0).Name))
		}
		return
	}
	for i, t := range terms {
		if i > 0 && i%termsPerLine == 0 {
			bw.WriteString("\n   ")
		}
		name := LPName(m.Var(t.Var).Name)
		sign := "+"
		if t.Coef < 0 {
			sign = "-"
		}
		coef := math.Abs(t.Coef)
		switch {
		case i == 0 && sign == "+" && coef == 1:
			fmt.Fprintf(bw, " %s", name)
		case i == 0 && sign == "+":
			fmt.Fprintf(bw, " %s %s", formatNumber(coef), name)
		case coef == 1:
			fmt.Fprintf(bw, " %s %s", sign, name)
		default:
			fmt.Fprintf(bw, " %s %s %s", sign, formatNumber(coef), name)
		}
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
