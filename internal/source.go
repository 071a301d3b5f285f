package sensortop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jondoveston/sensortop/internal/sensor"
)

// Source kinds accepted by NewSource
const (
	SOURCE_AUTO          = "auto"
	SOURCE_SENSOR        = "sensor"
	SOURCE_NODE_EXPORTER = "node_exporter"
	SOURCE_PROMETHEUS    = "prometheus"
)

// Source produces snapshots for the dashboard
type Source interface {
	Name() string
	// Check verifies the backend answers and looks like the expected kind
	Check(ctx context.Context) error
	Fetch(ctx context.Context) (*sensor.Snapshot, error)
}

// NewSource builds a source of the given kind. "auto" detects the kind with
// DetectSource.
func NewSource(ctx context.Context, kind, rawURL, instance string, logger *slog.Logger) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	client := &http.Client{}

	switch kind {
	case SOURCE_SENSOR:
		return NewSensorSource(u, client), nil
	case SOURCE_NODE_EXPORTER:
		return NewNodeExporterSource(u, client), nil
	case SOURCE_PROMETHEUS:
		return NewPrometheusSource(u, instance, logger)
	case SOURCE_AUTO:
		return DetectSource(ctx, u, instance, client, logger)
	}
	return nil, fmt.Errorf("unknown source kind %q", kind)
}

// DetectSource tries each URL variant as a sensor endpoint, then Prometheus,
// then node_exporter, and returns the first source whose Check passes
func DetectSource(ctx context.Context, base *url.URL, instance string, client *http.Client, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = discardLogger()
	}
	var errs []error
	for _, variant := range generateURLVariants(base) {
		candidates := []Source{NewSensorSource(variant.sensor, client)}
		if ps, err := NewPrometheusSource(variant.prometheus, instance, logger); err == nil {
			candidates = append(candidates, ps)
		}
		candidates = append(candidates, NewNodeExporterSource(variant.nodeExporter, client))

		for _, c := range candidates {
			logger.Debug("trying source", "source", c.Name())
			if err := c.Check(ctx); err != nil {
				logger.Debug("source check failed", "source", c.Name(), "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
				continue
			}
			logger.Info("found source", "source", c.Name())
			return c, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("no metrics source answered at %s: %w", base, errors.Join(errs...))
}

type urlVariant struct {
	sensor       *url.URL
	prometheus   *url.URL
	nodeExporter *url.URL
}

// generateURLVariants returns the URL exactly as given first, then the
// conventional port and path of each backend on the same host
func generateURLVariants(base *url.URL) []urlVariant {
	variants := []urlVariant{{sensor: base, prometheus: base, nodeExporter: base}}

	scheme := base.Scheme
	if scheme == "" {
		scheme = "http"
	}
	hostname := base.Hostname()
	withPort := func(port, path string) *url.URL {
		return &url.URL{Scheme: scheme, Host: hostname + ":" + port, Path: path}
	}

	conventional := urlVariant{
		sensor:       withPort("8080", "/sensor"),
		prometheus:   withPort("9090", ""),
		nodeExporter: withPort("9100", "/metrics"),
	}
	if conventional.sensor.String() != base.String() ||
		conventional.prometheus.String() != base.String() ||
		conventional.nodeExporter.String() != base.String() {
		variants = append(variants, conventional)
	}
	return variants
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
