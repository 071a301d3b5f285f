package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func load(t *testing.T, configFile string) Config {
	t.Helper()
	v := viper.New()
	if err := Setup(v, configFile); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return Load(v)
}

func TestDefaults(t *testing.T) {
	cfg := load(t, "")

	if cfg.ListenAddr != ":8080" || cfg.SensorPath != "/sensor" {
		t.Errorf("listen = %q %q", cfg.ListenAddr, cfg.SensorPath)
	}
	if !cfg.RequireAJAXHeader {
		t.Error("require_ajax_header should default to true")
	}
	if got := strings.Join(cfg.Sources, ","); got != "authlog,syslog,cpu,memory,load,disk" {
		t.Errorf("sources = %s", got)
	}
	if cfg.LogTailLines != 50 {
		t.Errorf("log_tail_lines = %d, want 50", cfg.LogTailLines)
	}
	if cfg.CPUSampling != CPUSamplingRequest {
		t.Errorf("cpu_sampling = %q", cfg.CPUSampling)
	}
	if cfg.RefreshInterval != 5*time.Second {
		t.Errorf("refresh_interval = %v, want 5s", cfg.RefreshInterval)
	}
	if cfg.FetchTimeout != 0 {
		t.Errorf("fetch_timeout = %v, want 0", cfg.FetchTimeout)
	}
	if err := cfg.ValidateServe(); err != nil {
		t.Errorf("default serve config invalid: %v", err)
	}
	if err := cfg.ValidateDashboard(); err != nil {
		t.Errorf("default dashboard config invalid: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SENSORTOP_SOURCES", "cpu, Memory")
	t.Setenv("SENSORTOP_REFRESH_INTERVAL", "2s")
	t.Setenv("SENSORTOP_CPU_SAMPLING", "Background")
	t.Setenv("SENSORTOP_REQUIRE_AJAX_HEADER", "false")

	cfg := load(t, "")
	if got := strings.Join(cfg.Sources, ","); got != "cpu,memory" {
		t.Errorf("sources = %s, want cpu,memory", got)
	}
	if cfg.RefreshInterval != 2*time.Second {
		t.Errorf("refresh_interval = %v, want 2s", cfg.RefreshInterval)
	}
	if cfg.CPUSampling != CPUSamplingBackground {
		t.Errorf("cpu_sampling = %q, want background", cfg.CPUSampling)
	}
	if cfg.RequireAJAXHeader {
		t.Error("require_ajax_header should be false")
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensortop.yaml")
	content := `listen_addr: "127.0.0.1:9000"
sources:
  - load
  - disk
syslog_path: /var/log/syslog
rate_limit: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := load(t, path)
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("listen_addr = %q", cfg.ListenAddr)
	}
	if got := strings.Join(cfg.Sources, ","); got != "load,disk" {
		t.Errorf("sources = %s, want load,disk", got)
	}
	if cfg.SyslogPath != "/var/log/syslog" {
		t.Errorf("syslog_path = %q", cfg.SyslogPath)
	}
	if cfg.RateLimit != 2 || cfg.RateBurst != 5 {
		t.Errorf("rate = %v burst %d", cfg.RateLimit, cfg.RateBurst)
	}
}

func TestMissingExplicitConfigFile(t *testing.T) {
	v := viper.New()
	if err := Setup(v, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidateServe(t *testing.T) {
	base := load(t, "")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.ListenAddr = " " }},
		{"relative sensor path", func(c *Config) { c.SensorPath = "sensor" }},
		{"sensor path shadows metrics", func(c *Config) { c.SensorPath = "/metrics" }},
		{"no sources", func(c *Config) { c.Sources = nil }},
		{"unknown source", func(c *Config) { c.Sources = []string{"cpu", "gpu"} }},
		{"zero tail", func(c *Config) { c.LogTailLines = 0 }},
		{"bad sampling", func(c *Config) { c.CPUSampling = "sometimes" }},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }},
		{"rate without burst", func(c *Config) { c.RateLimit = 1; c.RateBurst = 0 }},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.ValidateServe(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateDashboard(t *testing.T) {
	base := load(t, "")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"not a url", func(c *Config) { c.SensorURL = "::" }},
		{"wrong scheme", func(c *Config) { c.SensorURL = "ftp://host/sensor" }},
		{"no host", func(c *Config) { c.SensorURL = "http:///sensor" }},
		{"unknown source", func(c *Config) { c.Source = "graphite" }},
		{"zero refresh", func(c *Config) { c.RefreshInterval = 0 }},
		{"negative timeout", func(c *Config) { c.FetchTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.ValidateDashboard(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCollectorOptions(t *testing.T) {
	cfg := load(t, "")
	cfg.SyslogPath = "/var/log/syslog"
	opts := cfg.CollectorOptions()
	if opts.SyslogPath != "/var/log/syslog" || opts.TailLines != 50 || opts.ProcStatPath != "/proc/stat" {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestBuildLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := BuildLogger(Config{LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=v") {
		t.Errorf("unexpected text output %q", out)
	}

	buf.Reset()
	BuildLogger(Config{LogLevel: "info", LogJSON: true}, &buf).Info("hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("unexpected json output %q", buf.String())
	}
}
