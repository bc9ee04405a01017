package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/paiban/weekplan/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("默认配置应有效: %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "weekplan.yaml", `
app:
  log_level: debug
model:
  min_shifts_per_week: 3
  max_shifts_per_week: 6
  fragmentation_weight: 2.5
  tight_working_day: true
solver:
  backends: [bnb]
  timeout: 90s
input:
  requirements_header: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.LogLevel != "debug" || cfg.App.Name != "weekplan" {
		t.Errorf("App = %+v", cfg.App)
	}
	if cfg.Model.MinShiftsPerWeek != 3 || cfg.Model.MaxShiftsPerWeek != 6 ||
		cfg.Model.FragmentationWeight != 2.5 || !cfg.Model.TightWorkingDay {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if diff := cmp.Diff([]string{"bnb"}, cfg.Solver.Backends); diff != "" {
		t.Errorf("Backends mismatch (-want +got):\n%s", diff)
	}
	if cfg.Solver.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v", cfg.Solver.Timeout)
	}
	if !cfg.Input.RequirementsHeader {
		t.Error("RequirementsHeader 应为 true")
	}
	// 未出现的字段保留默认值
	if cfg.Solver.CBCPath != "cbc" {
		t.Errorf("CBCPath = %q", cfg.Solver.CBCPath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEEKPLAN_BACKENDS", "bnb, cbc")
	t.Setenv("WEEKPLAN_SOLVER_TIMEOUT", "5s")
	t.Setenv("WEEKPLAN_FRAGMENTATION_WEIGHT", "0")
	t.Setenv("WEEKPLAN_MAX_WORKING_DAYS", "5")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("WEEKPLAN_METRICS_TEXTFILE", "/tmp/weekplan.prom")

	path := writeFile(t, "weekplan.yaml", "solver:\n  timeout: 90s\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]string{"bnb", "cbc"}, cfg.Solver.Backends); diff != "" {
		t.Errorf("Backends mismatch (-want +got):\n%s", diff)
	}
	if cfg.Solver.Timeout != 5*time.Second {
		t.Errorf("环境变量应覆盖文件: Timeout = %v", cfg.Solver.Timeout)
	}
	if cfg.Model.FragmentationWeight != 0 || cfg.Model.MaxWorkingDays != 5 {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %s", cfg.Database.Host)
	}
	if !cfg.Metrics.Enabled {
		t.Error("指定 textfile 时应启用监控")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, errors.CodeInvalidConfig) {
		t.Errorf("缺少文件: error = %v", err)
	}
	path := writeFile(t, "bad.yaml", "model: [1, 2\n")
	if _, err := Load(path); !errors.Is(err, errors.CodeInvalidConfig) {
		t.Errorf("格式错误: error = %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "WEEKPLAN_TEST_DOTENV_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=from-dotenv\n")
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv() error = %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("%s = %q", key, got)
	}
	if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("文件不存在时应忽略: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"空后端", func(c *Config) { c.Solver.Backends = nil }},
		{"未知后端", func(c *Config) { c.Solver.Backends = []string{"gurobi"} }},
		{"最少大于最多", func(c *Config) { c.Model.MinShiftsPerWeek = 6 }},
		{"负权重", func(c *Config) { c.Model.FragmentationWeight = -1 }},
		{"超时为零", func(c *Config) { c.Solver.Timeout = 0 }},
		{"监控缺少文件", func(c *Config) { c.Metrics.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, errors.CodeInvalidConfig) {
				t.Errorf("Validate() = %v, expected INVALID_CONFIG", err)
			}
		})
	}
}

func TestBackendConfig(t *testing.T) {
	cfg := Default()
	cfg.Solver.Timeout = 7 * time.Second
	cfg.Solver.CBCPath = "/opt/cbc/bin/cbc"

	bc := cfg.BackendConfig()
	if bc.CBC.Path != "/opt/cbc/bin/cbc" || bc.CBC.TimeLimit != 7*time.Second {
		t.Errorf("CBC = %+v", bc.CBC)
	}
	if bc.BNB.TimeLimit != 7*time.Second || bc.BNB.NodeLimit != cfg.Solver.NodeLimit {
		t.Errorf("BNB = %+v", bc.BNB)
	}
	if lc := cfg.LoggerConfig(); lc.Level != "info" || lc.Format != "console" {
		t.Errorf("LoggerConfig() = %+v", lc)
	}
}
