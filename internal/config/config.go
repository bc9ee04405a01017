// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/logger"
	"github.com/paiban/weekplan/pkg/milp/bnb"
	"github.com/paiban/weekplan/pkg/milp/cbc"
	"github.com/paiban/weekplan/pkg/scheduler"
	"github.com/paiban/weekplan/pkg/scheduler/solver"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App      AppConfig        `yaml:"app"`
	Model    scheduler.Config `yaml:"model"`
	Solver   SolverConfig     `yaml:"solver"`
	Input    InputConfig      `yaml:"input"`
	Database DatabaseConfig   `yaml:"database"`
	Metrics  MetricsConfig    `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name      string `yaml:"name"`
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // console/json
}

// SolverConfig 求解器配置
type SolverConfig struct {
	Backends  []string      `yaml:"backends"` // 按顺序尝试，仅在不可用时降级
	Timeout   time.Duration `yaml:"timeout"`
	CBCPath   string        `yaml:"cbc_path"`
	Threads   int           `yaml:"threads"`
	NodeLimit int64         `yaml:"node_limit"`
	TempDir   string        `yaml:"temp_dir"`
	KeepFiles bool          `yaml:"keep_files"`
}

// InputConfig 输入表配置
type InputConfig struct {
	RequirementsHeader bool `yaml:"requirements_header"` // 需求表可能有表头，第一行不是数字时跳过
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"` // node_exporter textfile 路径
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "weekplan",
			Env:       "development",
			LogLevel:  "info",
			LogFormat: "console",
		},
		Model: scheduler.DefaultConfig(),
		Solver: SolverConfig{
			Backends:  []string{cbc.Name, bnb.Name},
			Timeout:   60 * time.Second,
			CBCPath:   "cbc",
			NodeLimit: bnb.DefaultConfig().NodeLimit,
		},
		Input: InputConfig{RequirementsHeader: false},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "weekplan",
			User:            "weekplan",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Metrics: MetricsConfig{Enabled: false},
	}
}

// Load 依次加载默认值、.env、YAML 文件（path 为空时跳过）和环境变量
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.InvalidConfig("config", fmt.Sprintf("读取配置文件失败: %v", err))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.InvalidConfig("config", fmt.Sprintf("解析配置文件失败: %v", err))
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// loadDotEnv 加载 .env，文件不存在时忽略
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.InvalidConfig("env", fmt.Sprintf("加载 %s 失败: %v", path, err))
	}
	return nil
}

// applyEnv 环境变量覆盖文件中的值
func (c *Config) applyEnv() {
	c.App.Env = getEnv("WEEKPLAN_ENV", c.App.Env)
	c.App.LogLevel = getEnv("WEEKPLAN_LOG_LEVEL", c.App.LogLevel)
	c.App.LogFormat = getEnv("WEEKPLAN_LOG_FORMAT", c.App.LogFormat)

	c.Model.MinShiftsPerWeek = getEnvInt("WEEKPLAN_MIN_SHIFTS_PER_WEEK", c.Model.MinShiftsPerWeek)
	c.Model.MaxShiftsPerWeek = getEnvInt("WEEKPLAN_MAX_SHIFTS_PER_WEEK", c.Model.MaxShiftsPerWeek)
	c.Model.FragmentationWeight = getEnvFloat("WEEKPLAN_FRAGMENTATION_WEIGHT", c.Model.FragmentationWeight)
	c.Model.MaxWorkingDays = getEnvInt("WEEKPLAN_MAX_WORKING_DAYS", c.Model.MaxWorkingDays)
	c.Model.TightWorkingDay = getEnvBool("WEEKPLAN_TIGHT_WORKING_DAY", c.Model.TightWorkingDay)

	c.Solver.Backends = getEnvList("WEEKPLAN_BACKENDS", c.Solver.Backends)
	c.Solver.Timeout = getEnvDuration("WEEKPLAN_SOLVER_TIMEOUT", c.Solver.Timeout)
	c.Solver.CBCPath = getEnv("WEEKPLAN_CBC_PATH", c.Solver.CBCPath)
	c.Solver.Threads = getEnvInt("WEEKPLAN_CBC_THREADS", c.Solver.Threads)

	c.Database.Enabled = getEnvBool("WEEKPLAN_DB_ENABLED", c.Database.Enabled)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)

	c.Metrics.Textfile = getEnv("WEEKPLAN_METRICS_TEXTFILE", c.Metrics.Textfile)
	c.Metrics.Enabled = getEnvBool("WEEKPLAN_METRICS_ENABLED", c.Metrics.Enabled || c.Metrics.Textfile != "")
}

// Validate 检查配置
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if len(c.Solver.Backends) == 0 {
		return errors.InvalidConfig("solver.backends", "至少需要一个后端")
	}
	for _, name := range c.Solver.Backends {
		if _, err := solver.NewBackend(name, solver.BackendConfig{}); err != nil {
			return err
		}
	}
	if c.Solver.Timeout <= 0 {
		return errors.InvalidConfig("solver.timeout", "必须大于 0")
	}
	if c.Solver.NodeLimit < 0 {
		return errors.InvalidConfig("solver.node_limit", "不能为负数")
	}
	if c.Metrics.Enabled && c.Metrics.Textfile == "" {
		return errors.InvalidConfig("metrics.textfile", "启用监控时必须指定输出文件")
	}
	return nil
}

// BackendConfig 生成各后端配置。两个后端都受 solver.timeout 限制。
func (c *Config) BackendConfig() solver.BackendConfig {
	return solver.BackendConfig{
		CBC: &cbc.Config{
			Path:      c.Solver.CBCPath,
			TimeLimit: c.Solver.Timeout,
			Threads:   c.Solver.Threads,
			TempDir:   c.Solver.TempDir,
			KeepFiles: c.Solver.KeepFiles,
		},
		BNB: &bnb.Config{
			NodeLimit: c.Solver.NodeLimit,
			TimeLimit: c.Solver.Timeout,
		},
	}
}

// LoggerConfig 生成日志配置
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.App.LogLevel
	cfg.Format = c.App.LogFormat
	return cfg
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList 逗号分隔的列表
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
