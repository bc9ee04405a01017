// weekplan 周排班命令行工具
// 读取班次、员工和需求三张表，求解 0-1 整数规划并输出一周排班

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/paiban/weekplan/internal/config"
	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/logger"
	"github.com/spf13/cobra"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// app 各子命令共享的状态
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "weekplan",
		Short:         "周排班求解工具",
		Long:          "weekplan 按每个时段的最低人数、员工可用时间和每周班次上下限生成一周排班，并尽量减少上班段数。",
		Version:       fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML 配置文件")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "日志级别 (debug/info/warn/error)")

	root.AddCommand(newSolveCmd(a), newValidateCmd(a), newBackendsCmd(a))
	return root
}

// load 加载配置并初始化日志
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.App.LogLevel = a.logLevel
	}
	logger.Init(cfg.LoggerConfig())
	a.cfg = cfg
	return nil
}

// printError 输出错误及提示
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Details != "" {
		fmt.Fprintf(w, "  %s\n", appErr.Details)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}
