// Package tables 读写 CSV 表格
package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/model"
	"github.com/paiban/weekplan/pkg/normalizer"
)

// Inputs 三张输入表的路径
type Inputs struct {
	Shifts             string
	Workers            string
	Requirements       string
	RequirementsHeader bool // 需求表可能有表头：第一行不是数字时跳过
}

// Read 读取 CSV，header 为 true 时第一行作为表头
func Read(r io.Reader, name string, header bool) (normalizer.Table, error) {
	table := normalizer.Table{Name: name}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return table, errors.MalformedInput(name, fmt.Sprintf("CSV 解析失败: %v", err))
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	if header && len(records) > 0 {
		table.Header = records[0]
		records = records[1:]
	}
	table.Rows = records
	return table, nil
}

// ReadFile 读取 CSV 文件
func ReadFile(path, name string, header bool) (normalizer.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return normalizer.Table{Name: name}, errors.MalformedInput(name, fmt.Sprintf("打开文件失败: %v", err))
	}
	defer f.Close()
	return Read(f, name, header)
}

// LoadProblem 读取三张表并生成规范模型
func LoadProblem(in Inputs) (*model.Problem, error) {
	shifts, err := ReadFile(in.Shifts, normalizer.TableShifts, true)
	if err != nil {
		return nil, err
	}
	workers, err := ReadFile(in.Workers, normalizer.TableWorkers, true)
	if err != nil {
		return nil, err
	}
	reqs, err := ReadFile(in.Requirements, normalizer.TableRequirements, false)
	if err != nil {
		return nil, err
	}
	if in.RequirementsHeader && len(reqs.Rows) > 0 && normalizer.LooksLikeHeader(reqs.Rows[0]) {
		reqs.Header, reqs.Rows = reqs.Rows[0], reqs.Rows[1:]
	}
	return normalizer.Normalize(shifts, workers, reqs)
}

// WriteSchedule 输出排班表：姓名加周一到周日
func WriteSchedule(w io.Writer, schedule *model.Schedule) error {
	header, rows := schedule.Table()

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

// WriteScheduleFile 写入排班文件
func WriteScheduleFile(path string, schedule *model.Schedule) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "创建输出文件失败")
	}
	if err := WriteSchedule(f, schedule); err != nil {
		f.Close()
		return errors.Wrap(err, errors.CodeInternal, "写入排班失败")
	}
	return f.Close()
}
