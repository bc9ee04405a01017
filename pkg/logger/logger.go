// Package logger 提供统一的日志框架
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level 日志级别
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器，只有第一次调用生效
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))
		logger = zerolog.New(writerFor(cfg)).With().Timestamp().Logger()
	})
}

// writerFor 根据配置选择输出
func writerFor(cfg Config) io.Writer {
	var output io.Writer
	switch cfg.Output {
	case "stdout":
		output = os.Stdout
	case "file":
		output = os.Stderr
		if cfg.FilePath != "" {
			if f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				output = f
			}
		}
	default:
		// 标准输出留给排班结果
		output = os.Stderr
	}

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: cfg.TimeFormat,
		}
	}
	return output
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// WithField 添加字段
func WithField(key string, value interface{}) *zerolog.Logger {
	l := Get().With().Interface(key, value).Logger()
	return &l
}

// SolveLogger 排班求解专用日志器
type SolveLogger struct {
	base *zerolog.Logger
}

// NewSolveLogger 创建求解日志器
func NewSolveLogger() *SolveLogger {
	l := Get().With().Str("component", "scheduler").Logger()
	return &SolveLogger{base: &l}
}

// NewSolveLoggerWith 使用指定日志器创建，测试中用于捕获输出
func NewSolveLoggerWith(l zerolog.Logger) *SolveLogger {
	l = l.With().Str("component", "scheduler").Logger()
	return &SolveLogger{base: &l}
}

// StartRun 记录一次求解开始
func (l *SolveLogger) StartRun(runID string, workers, periods int) {
	l.base.Info().
		Str("run_id", runID).
		Int("workers", workers).
		Int("periods", periods).
		Msg("开始生成周排班")
}

// ModelBuilt 记录模型规模
func (l *SolveLogger) ModelBuilt(runID string, vars, rows int) {
	l.base.Debug().
		Str("run_id", runID).
		Int("variables", vars).
		Int("constraints", rows).
		Msg("整数规划模型构建完成")
}

// BackendUnavailable 记录求解器不可用，降级到下一个
func (l *SolveLogger) BackendUnavailable(backend string, err error) {
	l.base.Warn().
		Str("backend", backend).
		Err(err).
		Msg("求解器不可用，尝试下一个")
}

// RunComplete 记录求解完成
func (l *SolveLogger) RunComplete(runID, backend string, duration time.Duration, objective float64) {
	l.base.Info().
		Str("run_id", runID).
		Str("backend", backend).
		Dur("duration", duration).
		Float64("objective", objective).
		Msg("周排班生成完成")
}

// RunFailed 记录求解失败
func (l *SolveLogger) RunFailed(runID string, err error) {
	l.base.Error().
		Str("run_id", runID).
		Err(err).
		Msg("未能生成排班")
}
