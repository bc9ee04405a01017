// Package cbc 通过外部 COIN-OR CBC 可执行文件求解 0-1 规划。
// 模型写成 LP 文件，CBC 把解写入文本文件后再读回。
package cbc

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/logger"
	"github.com/paiban/weekplan/pkg/milp"
)

// Name 后端名称
const Name = "cbc"

// Config CBC 配置
type Config struct {
	Path      string        `yaml:"path"`       // 可执行文件，默认在 PATH 中查找 cbc
	TimeLimit time.Duration `yaml:"time_limit"` // 传给 CBC 的 -seconds，0 不限制
	Threads   int           `yaml:"threads"`    // 0 使用 CBC 默认值
	TempDir   string        `yaml:"temp_dir"`   // 模型和解文件目录，空为系统临时目录
	KeepFiles bool          `yaml:"keep_files"` // 保留中间文件，便于排查
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Path:      "cbc",
		TimeLimit: 60 * time.Second,
	}
}

// runFunc 执行外部命令，测试中替换
type runFunc func(ctx context.Context, bin string, args []string) ([]byte, error)

func execRun(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Solver CBC 后端
type Solver struct {
	config   *Config
	lookPath func(string) (string, error)
	run      runFunc
}

// New 创建 CBC 后端
func New(cfg *Config) *Solver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = "cbc"
	}
	return &Solver{config: cfg, lookPath: exec.LookPath, run: execRun}
}

// Name 返回后端名称
func (s *Solver) Name() string { return Name }

// Available 检查 CBC 可执行文件是否存在
func (s *Solver) Available() error {
	if _, err := s.lookPath(s.config.Path); err != nil {
		return errors.SolverUnavailable(Name, fmt.Errorf("%w (请安装 coinor-cbc)", err))
	}
	return nil
}

// Solve 写出 LP 文件并调用 CBC
func (s *Solver) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	if m == nil {
		return nil, errors.New(errors.CodeInternal, "模型为空")
	}
	start := time.Now()
	if m.NumVars() == 0 {
		return trivialSolution(m, start), nil
	}

	bin, err := s.lookPath(s.config.Path)
	if err != nil {
		return nil, errors.SolverUnavailable(Name, fmt.Errorf("%w (请安装 coinor-cbc)", err))
	}

	dir, err := os.MkdirTemp(s.config.TempDir, "weekplan-cbc-*")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "创建临时目录失败")
	}
	if !s.config.KeepFiles {
		defer os.RemoveAll(dir)
	}

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	if err := writeLPFile(lpPath, m); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "写出 LP 文件失败")
	}

	args := s.args(lpPath, solPath)
	logger.Debug().Str("backend", Name).Str("bin", bin).Strs("args", args).Msg("启动 CBC")

	output, runErr := s.run(ctx, bin, args)
	sol := &milp.Solution{Backend: Name, Duration: time.Since(start)}

	if ctx.Err() != nil {
		sol.Status = milp.StatusUnknown
		sol.Message = "求解被取消或超时"
		return sol, nil
	}
	if runErr != nil {
		var execErr *exec.Error
		if stderrors.As(runErr, &execErr) {
			return nil, errors.SolverUnavailable(Name, runErr)
		}
		sol.Status = milp.StatusError
		sol.Message = fmt.Sprintf("CBC 运行失败: %v: %s", runErr, lastLine(output))
		return sol, nil
	}

	f, err := os.Open(solPath)
	if err != nil {
		sol.Status = milp.StatusError
		sol.Message = fmt.Sprintf("CBC 未生成解文件: %s", lastLine(output))
		return sol, nil
	}
	defer f.Close()

	parsed, err := parseSolution(f, m)
	if err != nil {
		sol.Status = milp.StatusError
		sol.Message = fmt.Sprintf("解析解文件失败: %v", err)
		return sol, nil
	}

	sol.Status = parsed.Status
	sol.Message = parsed.Header
	if parsed.Status == milp.StatusOptimal {
		sol.Values = parsed.Values
		sol.Objective = m.Evaluate(parsed.Values)
	}
	return sol, nil
}

func (s *Solver) args(lpPath, solPath string) []string {
	args := []string{lpPath}
	if s.config.TimeLimit > 0 {
		secs := int(s.config.TimeLimit.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		args = append(args, "-seconds", strconv.Itoa(secs))
	}
	if s.config.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(s.config.Threads))
	}
	return append(args, "-solve", "-solution", solPath)
}

func writeLPFile(path string, m *milp.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLP(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// trivialSolution 没有变量时约束只剩常数比较，直接判定
func trivialSolution(m *milp.Model, start time.Time) *milp.Solution {
	sol := &milp.Solution{Backend: Name, Status: milp.StatusOptimal, Values: []float64{}}
	if err := m.Check(sol.Values, 1e-9); err != nil {
		sol.Status = milp.StatusInfeasible
		sol.Values = nil
		sol.Message = err.Error()
	}
	sol.Duration = time.Since(start)
	return sol
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
