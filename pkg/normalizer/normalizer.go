// Package normalizer 把原始输入表转换为规范模型，只做结构校验和类型转换
package normalizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/model"
)

// 输入表名，出现在错误信息中
const (
	TableShifts       = "shifts"
	TableWorkers      = "workers"
	TableRequirements = "requirements"
)

// WorkerColumns 员工表最少列数：姓名 + 7 天 ×（开始, 结束）
const WorkerColumns = 1 + 2*model.DaysPerWeek

// labelColumns 班次表中可作为显示名的列，按优先级
var labelColumns = []string{"shift_id", "id", "label", "name", "shift"}

// nullCells 表示空值的单元格
var nullCells = map[string]bool{"": true, "-": true, "nan": true, "nat": true, "null": true, "none": true}

// Table 原始表格，Header 为空表示无表头
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Normalize 生成规范模型。不检查业务规则（见 model.Problem.Validate）。
func Normalize(shifts, workers, requirements Table) (*model.Problem, error) {
	s, err := NormalizeShifts(shifts)
	if err != nil {
		return nil, err
	}
	w, err := NormalizeWorkers(workers)
	if err != nil {
		return nil, err
	}
	r, err := NormalizeRequirements(requirements)
	if err != nil {
		return nil, err
	}
	return &model.Problem{Shifts: s, Workers: w, Requirements: r}, nil
}

// NormalizeHeader 去除空白、BOM 并转小写
func NormalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

// columnIndex 查找列位置，未找到返回 -1
func columnIndex(header []string, names ...string) int {
	for _, want := range names {
		for i, h := range header {
			if NormalizeHeader(h) == want {
				return i
			}
		}
	}
	return -1
}

// cell 安全读取单元格
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isNull 判断单元格是否为空值
func isNull(v string) bool {
	return nullCells[strings.ToLower(strings.TrimSpace(v))]
}

// blankRow 整行为空
func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// NormalizeShifts 解析班次表，行顺序即班次序号
func NormalizeShifts(t Table) ([]model.Shift, error) {
	name := tableName(t, TableShifts)
	if len(t.Header) == 0 {
		return nil, errors.MalformedInput(name, "缺少表头")
	}

	startCol := columnIndex(t.Header, "start")
	endCol := columnIndex(t.Header, "end")
	if startCol < 0 || endCol < 0 {
		return nil, errors.MalformedInput(name, "缺少 start 或 end 列")
	}
	labelCol := columnIndex(t.Header, labelColumns...)

	ve := &errors.ValidationErrors{Table: name}
	var shifts []model.Shift
	for i, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		field := fmt.Sprintf("row %d", i+1)

		startRaw, endRaw := cell(row, startCol), cell(row, endCol)
		if isNull(startRaw) || isNull(endRaw) {
			ve.Add(field, "缺少 start 或 end")
			continue
		}
		start, err := model.ParseClock(startRaw)
		if err != nil {
			ve.Add(field, err.Error())
			continue
		}
		end, err := model.ParseClock(endRaw)
		if err != nil {
			ve.Add(field, err.Error())
			continue
		}

		shifts = append(shifts, model.Shift{
			Index: len(shifts),
			Label: cell(row, labelCol),
			Start: start,
			End:   end,
		})
	}

	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}
	if len(shifts) == 0 {
		return nil, errors.MalformedInput(name, "没有班次行")
	}
	return shifts, nil
}

// NormalizeWorkers 解析员工表：第 0 列姓名，其后按周一到周日每天两列（开始, 结束）
func NormalizeWorkers(t Table) ([]*model.Worker, error) {
	name := tableName(t, TableWorkers)
	if len(t.Header) > 0 && len(t.Header) < WorkerColumns {
		return nil, errors.MalformedInput(name,
			fmt.Sprintf("表头只有 %d 列，至少需要 %d 列", len(t.Header), WorkerColumns))
	}

	ve := &errors.ValidationErrors{Table: name}
	workers := make([]*model.Worker, 0, len(t.Rows))
	for i, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		field := fmt.Sprintf("row %d", i+1)

		if len(row) < WorkerColumns {
			ve.Add(field, fmt.Sprintf("只有 %d 列，至少需要 %d 列", len(row), WorkerColumns))
			continue
		}

		w := &model.Worker{Name: cell(row, 0)}
		if w.Name == "" {
			ve.Add(field, "姓名为空")
			continue
		}

		ok := true
		for d := 0; d < model.DaysPerWeek; d++ {
			start, err := optionalClock(cell(row, 1+2*d))
			if err != nil {
				ve.Add(field, fmt.Sprintf("%s 开始时间: %v", model.DayNames[d], err))
				ok = false
				continue
			}
			end, err := optionalClock(cell(row, 2+2*d))
			if err != nil {
				ve.Add(field, fmt.Sprintf("%s 结束时间: %v", model.DayNames[d], err))
				ok = false
				continue
			}
			w.Windows[d] = model.Window{Start: start, End: end}
		}
		if ok {
			workers = append(workers, w)
		}
	}

	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}
	return workers, nil
}

// optionalClock 空单元格返回 nil
func optionalClock(v string) (*model.Clock, error) {
	if isNull(v) {
		return nil, nil
	}
	c, err := model.ParseClock(v)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// NormalizeRequirements 读取第一列的最低人数
func NormalizeRequirements(t Table) ([]int, error) {
	name := tableName(t, TableRequirements)

	ve := &errors.ValidationErrors{Table: name}
	reqs := make([]int, 0, len(t.Rows))
	for i, row := range t.Rows {
		field := fmt.Sprintf("row %d", i+1)
		raw := cell(row, 0)
		if isNull(raw) {
			ve.Add(field, "缺少需求值")
			continue
		}
		n, err := parseCount(raw)
		if err != nil {
			ve.Add(field, err.Error())
			continue
		}
		reqs = append(reqs, n)
	}

	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}
	if len(reqs) == 0 {
		return nil, errors.MalformedInput(name, "没有需求值")
	}
	return reqs, nil
}

// MaxCount 单个时段需求人数的绝对值上限
const MaxCount = 1_000_000

// LooksLikeHeader 第一列不是数字的行视为表头
func LooksLikeHeader(row []string) bool {
	_, err := strconv.ParseFloat(cell(row, 0), 64)
	return err != nil
}

// parseCount 解析整数，允许 "2.0" 这类表格导出的整数值
func parseCount(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n > MaxCount || n < -MaxCount {
			return 0, fmt.Errorf("需求值 %q 过大", v)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("需求值 %q 不是数字", v)
	}
	if math.Abs(f) > MaxCount {
		return 0, fmt.Errorf("需求值 %q 过大", v)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("需求值 %q 不是整数", v)
	}
	return int(f), nil
}

func tableName(t Table, fallback string) string {
	if t.Name != "" {
		return t.Name
	}
	return fallback
}
