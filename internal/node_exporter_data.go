package sensortop

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jondoveston/sensortop/internal/sensor"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// NodeExporterSource scrapes a node_exporter /metrics endpoint and maps the
// node_* families onto a snapshot. CPU usage needs two scrapes, so the
// first snapshot reports it as null.
type NodeExporterSource struct {
	url    *url.URL
	client *http.Client
	now    func() time.Time

	mu      sync.Mutex
	prevCPU sensor.CPUSample
	hasPrev bool
}

func NewNodeExporterSource(u *url.URL, client *http.Client) *NodeExporterSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &NodeExporterSource{url: u, client: client, now: time.Now}
}

func (n *NodeExporterSource) Name() string {
	return "node_exporter " + n.url.String()
}

func (n *NodeExporterSource) Check(ctx context.Context) error {
	families, err := n.scrape(ctx)
	if err != nil {
		return err
	}
	if _, ok := families["node_load1"]; !ok {
		return fmt.Errorf("%s does not expose node_load1", n.url)
	}
	return nil
}

func (n *NodeExporterSource) scrape(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query node exporter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("query node exporter: unexpected status %s", resp.Status)
	}

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}
	return families, nil
}

func (n *NodeExporterSource) Fetch(ctx context.Context) (*sensor.Snapshot, error) {
	families, err := n.scrape(ctx)
	if err != nil {
		return nil, err
	}

	snap := &sensor.Snapshot{
		Hostname:  n.url.Hostname(),
		Timestamp: n.now().UTC().Format(sensor.TimestampLayout),
		AuthLog:   []string{},
	}
	if m := firstMetric(families["node_uname_info"], nil); m != nil {
		if name := labelValue(m, "nodename"); name != "" {
			snap.Hostname = name
		}
	}

	snap.CPUUsage = n.cpuUsage(families["node_cpu_seconds_total"])

	snap.MemTotal = kib(metricValue(families["node_memory_MemTotal_bytes"], nil))
	snap.MemAvailable = kib(metricValue(families["node_memory_MemAvailable_bytes"], nil))
	snap.MemCached = kib(metricValue(families["node_memory_Cached_bytes"], nil))
	snap.MemFree = kib(metricValue(families["node_memory_MemFree_bytes"], nil))
	if snap.MemTotal != nil && snap.MemAvailable != nil {
		used := *snap.MemTotal - *snap.MemAvailable
		snap.MemUsed = &used
	}

	snap.LoadAvg1 = metricValue(families["node_load1"], nil)
	snap.LoadAvg5 = metricValue(families["node_load5"], nil)
	snap.LoadAvg15 = metricValue(families["node_load15"], nil)
	snap.RunningProcesses = whole(metricValue(families["node_procs_running"], nil))
	snap.TotalProcesses = whole(metricValue(families["node_processes_threads"], nil))

	root := map[string]string{"mountpoint": "/"}
	size := metricValue(families["node_filesystem_size_bytes"], root)
	avail := metricValue(families["node_filesystem_avail_bytes"], root)
	if size != nil && avail != nil && *avail <= *size {
		snap.DiskUsed = kib(ptrTo(*size - *avail))
		snap.DiskFree = kib(avail)
	}

	return snap, nil
}

// cpuUsage sums idle and all-mode seconds across cores and compares them with
// the previous scrape
func (n *NodeExporterSource) cpuUsage(family *dto.MetricFamily) *float64 {
	if family == nil || len(family.GetMetric()) == 0 {
		return nil
	}
	var cur sensor.CPUSample
	for _, m := range family.GetMetric() {
		v := m.GetCounter().GetValue()
		cur.Total += v
		if labelValue(m, "mode") == "idle" {
			cur.Idle += v
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	prev, hasPrev := n.prevCPU, n.hasPrev
	n.prevCPU, n.hasPrev = cur, true
	if !hasPrev {
		return nil
	}
	// a counter reset (exporter restart) can't be compared with the old totals
	if cur.Total < prev.Total {
		return nil
	}
	return ptrTo(sensor.UsageBetween(prev, cur))
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

// firstMetric returns the first metric of family whose labels include want
func firstMetric(family *dto.MetricFamily, want map[string]string) *dto.Metric {
	if family == nil {
		return nil
	}
	for _, m := range family.GetMetric() {
		match := true
		for k, v := range want {
			if labelValue(m, k) != v {
				match = false
				break
			}
		}
		if match {
			return m
		}
	}
	return nil
}

func metricValue(family *dto.MetricFamily, want map[string]string) *float64 {
	m := firstMetric(family, want)
	if m == nil {
		return nil
	}
	var v float64
	switch {
	case m.GetGauge() != nil:
		v = m.GetGauge().GetValue()
	case m.GetCounter() != nil:
		v = m.GetCounter().GetValue()
	case m.GetUntyped() != nil:
		v = m.GetUntyped().GetValue()
	default:
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// kib converts bytes to kibibytes rounded to the nearest whole unit
func kib(bytes *float64) *int64 {
	if bytes == nil {
		return nil
	}
	v := int64(math.Round(*bytes / 1024))
	return &v
}

func whole(v *float64) *int64 {
	if v == nil {
		return nil
	}
	i := int64(math.Round(*v))
	return &i
}

func ptrTo[T any](v T) *T {
	return &v
}
