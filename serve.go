package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jondoveston/sensortop/internal/config"
	"github.com/jondoveston/sensortop/internal/sensor"
	"github.com/jondoveston/sensortop/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve host metric snapshots over HTTP",
	Long: `serve answers GET requests on the sensor path with a JSON snapshot of
this host's metrics. Requests must carry X-Requested-With: XMLHttpRequest
unless require_ajax_header is disabled. Prometheus metrics are exposed on
/metrics.`,
	Args: cobra.NoArgs,
	RunE: serve,
}

func init() {
	f := serveCmd.Flags()
	f.String("listen-addr", ":8080", "address to listen on")
	f.String("sensor-path", "/sensor", "path of the snapshot endpoint")
	f.Bool("require-ajax-header", true, "reject requests without X-Requested-With: XMLHttpRequest")
	f.StringSlice("sources", sensor.DefaultSources, "metric sources to read, in order")
	f.String("auth-log-path", "/var/log/auth.log", "authentication log to tail")
	f.String("syslog-path", "", "syslog file to tail (disabled when empty)")
	f.String("cpu-sampling", config.CPUSamplingRequest, "cpu measurement: request or background")
	f.Float64("rate-limit", 0, "requests per second per client (0 disables)")
	f.Int("rate-burst", 5, "burst allowed above rate-limit")

	for _, name := range []string{
		"listen-addr", "sensor-path", "require-ajax-header", "sources",
		"auth-log-path", "syslog-path", "cpu-sampling", "rate-limit", "rate-burst",
	} {
		viper.BindPFlag(flagKey(name), f.Lookup(name))
	}
}

func serve(cmd *cobra.Command, args []string) error {
	cfg := config.Load(viper.GetViper())
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	logger := config.BuildLogger(cfg, os.Stderr)
	logger.Info("starting sensortop serve", "version", version)

	collector, err := sensor.New(cfg.CollectorOptions(), logger)
	if err != nil {
		return err
	}
	logger.Info("collector ready", "sources", collector.Sources(), "cpu_sampling", cfg.CPUSampling)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Options{
		ListenAddr:      cfg.ListenAddr,
		SensorPath:      cfg.SensorPath,
		RequireAJAX:     cfg.RequireAJAXHeader,
		RateLimit:       cfg.RateLimit,
		RateBurst:       cfg.RateBurst,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, collector, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.CPUSampling == config.CPUSamplingBackground {
		sampler := sensor.NewSampler(cfg.ProcStatPath, sensor.CPUSampleWindow, logger)
		collector.UseSampler(sampler)
		g.Go(func() error {
			return sampler.Run(ctx)
		})
	}
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("sensortop serve stopped")
	return nil
}

// flagKey maps a flag name to its viper key
func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
