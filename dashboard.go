package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	sensortop "github.com/jondoveston/sensortop/internal"
	"github.com/jondoveston/sensortop/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard [sensor-url]",
	Short: "Chart a sensor endpoint in the terminal",
	Long: `dashboard polls a metrics source every refresh interval and keeps the
last 60 readings of each series. The source is a sensortop serve endpoint by
default; node_exporter and Prometheus are also understood, and "auto" tries
the URL for each in turn.

Logs go to log_file since the terminal is taken by the dashboard.`,
	Args: cobra.MaximumNArgs(1),
	RunE: dashboard,
}

func init() {
	f := dashboardCmd.Flags()
	f.String("sensor-url", "http://localhost:8080/sensor", "URL of the metrics source")
	f.String("source", config.SourceSensor, "source kind: sensor, node_exporter, prometheus or auto")
	f.String("instance", "", "Prometheus instance label to show (first live target when empty)")
	f.Duration("refresh-interval", sensortop.FetchDuration(), "time between fetches")
	f.Duration("fetch-timeout", 0, "per-fetch timeout (0 waits indefinitely)")
	f.String("log-file", "sensortop.log", "file the dashboard logs to")

	for _, name := range []string{
		"sensor-url", "source", "instance", "refresh-interval", "fetch-timeout", "log-file",
	} {
		viper.BindPFlag(flagKey(name), f.Lookup(name))
	}
}

func dashboard(cmd *cobra.Command, args []string) error {
	// positional URL only applies when neither flag nor env set one
	if len(args) == 1 && !cmd.Flags().Changed("sensor-url") && os.Getenv(strings.ToUpper(config.EnvPrefix)+"_SENSOR_URL") == "" {
		viper.Set("sensor_url", args[0])
	}

	cfg := config.Load(viper.GetViper())
	if err := cfg.ValidateDashboard(); err != nil {
		return err
	}

	logFile, err := tea.LogToFile(cfg.LogFile, "")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := config.BuildLogger(cfg, logFile)
	logger.Info("starting sensortop dashboard", "version", version, "url", cfg.SensorURL, "source", cfg.Source)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	src, err := sensortop.NewSource(ctx, cfg.Source, cfg.SensorURL, cfg.Instance, logger)
	if err != nil {
		logger.Error("no usable source", "error", err)
		return err
	}
	logger.Info("using source", "source", src.Name())

	return sensortop.Dashboard(ctx, sensortop.DashboardOptions{
		Source:       src,
		Interval:     cfg.RefreshInterval,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
	})
}
