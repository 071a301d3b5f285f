package sensortop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/jondoveston/sensortop/internal/sensor"
	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

const NODE_EXPORTER_JOB = `up{job="node_exporter"}`

// PrometheusSource builds snapshots from node_exporter series stored in
// Prometheus for a single instance
type PrometheusSource struct {
	api    v1.API
	url    *url.URL
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	instance string
}

func NewPrometheusSource(prometheusURL *url.URL, instance string, logger *slog.Logger) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	if logger == nil {
		logger = discardLogger()
	}

	return &PrometheusSource{
		api:      v1.NewAPI(client),
		url:      prometheusURL,
		logger:   logger,
		now:      time.Now,
		instance: instance,
	}, nil
}

func (p *PrometheusSource) Name() string {
	return "prometheus " + p.url.String()
}

func (p *PrometheusSource) Check(ctx context.Context) error {
	vec, err := p.vector(ctx, NODE_EXPORTER_JOB)
	if err != nil {
		return fmt.Errorf("node_exporter job query failed: %w", err)
	}
	if len(vec) == 0 {
		return errors.New("no node_exporter targets found in prometheus")
	}
	return nil
}

// Instances lists node_exporter targets that are up, sorted
func (p *PrometheusSource) Instances(ctx context.Context) ([]string, error) {
	vec, err := p.vector(ctx, NODE_EXPORTER_JOB)
	if err != nil {
		return nil, err
	}
	instances := make([]string, 0, len(vec))
	for _, s := range vec {
		if s.Value == 1 {
			instances = append(instances, string(s.Metric["instance"]))
		}
	}
	sort.Strings(instances)
	return instances, nil
}

// target returns the configured instance, or the first live one
func (p *PrometheusSource) target(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.instance != "" {
		return p.instance, nil
	}

	instances, err := p.Instances(ctx)
	if err != nil {
		return "", err
	}
	if len(instances) == 0 {
		return "", errors.New("no node_exporter targets are up")
	}
	p.instance = instances[0]
	p.logger.Info("selected prometheus instance", "instance", p.instance)
	return p.instance, nil
}

func (p *PrometheusSource) vector(ctx context.Context, query string) (model.Vector, error) {
	result, warnings, err := p.api.Query(ctx, query, p.now())
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 {
		p.logger.Warn("prometheus warnings", "query", query, "warnings", warnings)
	}
	vec, ok := result.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("query %s returned %s, want vector", query, result.Type())
	}
	return vec, nil
}

// scalar runs query and returns the first sample, or nil when there is none
func (p *PrometheusSource) scalar(ctx context.Context, query string) (*float64, error) {
	vec, err := p.vector(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, nil
	}
	v := float64(vec[0].Value)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, nil
	}
	return &v, nil
}

func (p *PrometheusSource) Fetch(ctx context.Context) (*sensor.Snapshot, error) {
	instance, err := p.target(ctx)
	if err != nil {
		return nil, fmt.Errorf("prometheus: %w", err)
	}

	snap := &sensor.Snapshot{
		Hostname:  instance,
		Timestamp: p.now().UTC().Format(sensor.TimestampLayout),
		AuthLog:   []string{},
	}

	// the uname query doubles as the connectivity check for this fetch
	uname, err := p.vector(ctx, fmt.Sprintf("node_uname_info{instance=%q}", instance))
	if err != nil {
		return nil, fmt.Errorf("prometheus: %w", err)
	}
	if len(uname) > 0 {
		if name := string(uname[0].Metric["nodename"]); name != "" {
			snap.Hostname = name
		}
	}

	get := func(query string) *float64 {
		v, err := p.scalar(ctx, query)
		if err != nil {
			p.logger.Debug("prometheus query failed", "query", query, "error", err)
			return nil
		}
		return v
	}
	sel := fmt.Sprintf("{instance=%q}", instance)
	root := fmt.Sprintf("{instance=%q,mountpoint=\"/\"}", instance)

	if cpu := get(fmt.Sprintf(`100 - (avg(rate(node_cpu_seconds_total{instance=%q,mode="idle"}[1m])) * 100)`, instance)); cpu != nil {
		snap.CPUUsage = ptrTo(math.Round(*cpu*100) / 100)
	}

	snap.MemTotal = kib(get("node_memory_MemTotal_bytes" + sel))
	snap.MemAvailable = kib(get("node_memory_MemAvailable_bytes" + sel))
	snap.MemCached = kib(get("node_memory_Cached_bytes" + sel))
	snap.MemFree = kib(get("node_memory_MemFree_bytes" + sel))
	if snap.MemTotal != nil && snap.MemAvailable != nil {
		snap.MemUsed = ptrTo(*snap.MemTotal - *snap.MemAvailable)
	}

	snap.LoadAvg1 = get("node_load1" + sel)
	snap.LoadAvg5 = get("node_load5" + sel)
	snap.LoadAvg15 = get("node_load15" + sel)
	snap.RunningProcesses = whole(get("node_procs_running" + sel))
	snap.TotalProcesses = whole(get("node_processes_threads" + sel))

	size := get("node_filesystem_size_bytes" + root)
	avail := get("node_filesystem_avail_bytes" + root)
	if size != nil && avail != nil && *avail <= *size {
		snap.DiskUsed = kib(ptrTo(*size - *avail))
		snap.DiskFree = kib(avail)
	}

	return snap, nil
}
