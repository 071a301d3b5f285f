// Package config loads sensortop settings from flags, SENSORTOP_* environment
// variables and an optional sensortop.yaml through viper.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jondoveston/sensortop/internal/sensor"
	"github.com/spf13/viper"
)

const EnvPrefix = "sensortop"

// CPU sampling modes.
const (
	CPUSamplingRequest    = "request"
	CPUSamplingBackground = "background"
)

// Dashboard source kinds.
const (
	SourceAuto         = "auto"
	SourceSensor       = "sensor"
	SourceNodeExporter = "node_exporter"
	SourcePrometheus   = "prometheus"
)

type Config struct {
	// serve
	ListenAddr        string
	SensorPath        string
	RequireAJAXHeader bool
	Sources           []string
	AuthLogPath       string
	SyslogPath        string
	LogTailLines      int
	CPUSampling       string
	RateLimit         float64
	RateBurst         int
	ShutdownTimeout   time.Duration
	ProcStatPath      string
	MeminfoPath       string
	LoadavgPath       string
	DiskPath          string

	// dashboard
	SensorURL       string
	Source          string
	Instance        string
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	LogFile         string

	LogLevel string
	LogJSON  bool
}

// SetDefaults registers every key with its default so that environment
// variables are picked up by AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	d := sensor.DefaultOptions()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("sensor_path", "/sensor")
	v.SetDefault("require_ajax_header", true)
	v.SetDefault("sources", d.Sources)
	v.SetDefault("auth_log_path", d.AuthLogPath)
	v.SetDefault("syslog_path", "")
	v.SetDefault("log_tail_lines", d.TailLines)
	v.SetDefault("cpu_sampling", CPUSamplingRequest)
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("rate_burst", 5)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("proc_stat_path", d.ProcStatPath)
	v.SetDefault("meminfo_path", d.MeminfoPath)
	v.SetDefault("loadavg_path", d.LoadavgPath)
	v.SetDefault("disk_path", d.DiskPath)

	v.SetDefault("sensor_url", "http://localhost:8080/sensor")
	v.SetDefault("source", SourceSensor)
	v.SetDefault("instance", "")
	v.SetDefault("refresh_interval", 5*time.Second)
	v.SetDefault("fetch_timeout", time.Duration(0))
	v.SetDefault("log_file", "sensortop.log")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// Setup wires env handling and defaults into v and reads the config file,
// either the explicit path or sensortop.yaml from the working directory or
// $HOME/.config/sensortop. A missing default file is not an error.
func Setup(v *viper.Viper, configFile string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("sensortop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sensortop")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load reads the resolved settings out of v.
func Load(v *viper.Viper) Config {
	return Config{
		ListenAddr:        v.GetString("listen_addr"),
		SensorPath:        v.GetString("sensor_path"),
		RequireAJAXHeader: v.GetBool("require_ajax_header"),
		Sources:           splitList(v.GetStringSlice("sources")),
		AuthLogPath:       v.GetString("auth_log_path"),
		SyslogPath:        v.GetString("syslog_path"),
		LogTailLines:      v.GetInt("log_tail_lines"),
		CPUSampling:       strings.ToLower(v.GetString("cpu_sampling")),
		RateLimit:         v.GetFloat64("rate_limit"),
		RateBurst:         v.GetInt("rate_burst"),
		ShutdownTimeout:   v.GetDuration("shutdown_timeout"),
		ProcStatPath:      v.GetString("proc_stat_path"),
		MeminfoPath:       v.GetString("meminfo_path"),
		LoadavgPath:       v.GetString("loadavg_path"),
		DiskPath:          v.GetString("disk_path"),

		SensorURL:       v.GetString("sensor_url"),
		Source:          strings.ToLower(v.GetString("source")),
		Instance:        v.GetString("instance"),
		RefreshInterval: v.GetDuration("refresh_interval"),
		FetchTimeout:    v.GetDuration("fetch_timeout"),
		LogFile:         v.GetString("log_file"),

		LogLevel: strings.ToLower(v.GetString("log_level")),
		LogJSON:  v.GetBool("log_json"),
	}
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, strings.ToLower(part))
			}
		}
	}
	return out
}

func (c Config) ValidateServe() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen_addr is required")
	}
	if !strings.HasPrefix(c.SensorPath, "/") {
		return fmt.Errorf("sensor_path %q must start with /", c.SensorPath)
	}
	switch c.SensorPath {
	case "/metrics", "/healthz":
		return fmt.Errorf("sensor_path %q collides with a built-in route", c.SensorPath)
	}
	if len(c.Sources) == 0 {
		return errors.New("sources must name at least one metric source")
	}
	if _, err := sensor.New(c.CollectorOptions(), nil); err != nil {
		return err
	}
	if c.LogTailLines <= 0 {
		return errors.New("log_tail_lines must be > 0")
	}
	switch c.CPUSampling {
	case CPUSamplingRequest, CPUSamplingBackground:
	default:
		return fmt.Errorf("unsupported cpu_sampling %q", c.CPUSampling)
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit must be >= 0")
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return errors.New("rate_burst must be > 0 when rate_limit is set")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}
	return validateLogLevel(c.LogLevel)
}

func (c Config) ValidateDashboard() error {
	u, err := url.Parse(c.SensorURL)
	if err != nil {
		return fmt.Errorf("sensor_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("sensor_url %q must be an http(s) URL", c.SensorURL)
	}
	if u.Host == "" {
		return fmt.Errorf("sensor_url %q has no host", c.SensorURL)
	}
	switch c.Source {
	case SourceAuto, SourceSensor, SourceNodeExporter, SourcePrometheus:
	default:
		return fmt.Errorf("unsupported source %q", c.Source)
	}
	if c.RefreshInterval <= 0 {
		return errors.New("refresh_interval must be > 0")
	}
	if c.FetchTimeout < 0 {
		return errors.New("fetch_timeout must be >= 0")
	}
	return validateLogLevel(c.LogLevel)
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unsupported log_level %q", level)
}

// CollectorOptions maps the serve settings onto the collector.
func (c Config) CollectorOptions() sensor.Options {
	return sensor.Options{
		Sources:      c.Sources,
		ProcStatPath: c.ProcStatPath,
		MeminfoPath:  c.MeminfoPath,
		LoadavgPath:  c.LoadavgPath,
		DiskPath:     c.DiskPath,
		AuthLogPath:  c.AuthLogPath,
		SyslogPath:   c.SyslogPath,
		TailLines:    c.LogTailLines,
		CPUWindow:    sensor.CPUSampleWindow,
	}
}

func BuildLogger(cfg Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(w, hOpts))
	}
	return slog.New(slog.NewTextHandler(w, hOpts))
}
