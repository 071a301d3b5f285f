package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jondoveston/sensortop/internal/sensor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sensortop"

// Exporter mirrors the most recent snapshot as Prometheus gauges. Fields
// that were null in the snapshot are removed rather than reported as zero.
type Exporter struct {
	registry *prometheus.Registry

	cpu          *prometheus.GaugeVec
	memory       *prometheus.GaugeVec
	load         *prometheus.GaugeVec
	processes    *prometheus.GaugeVec
	lastPID      *prometheus.GaugeVec
	disk         *prometheus.GaugeVec
	failedLogins *prometheus.GaugeVec
	lastCollect  *prometheus.GaugeVec

	requests        *prometheus.CounterVec
	collectDuration prometheus.Histogram
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		cpu: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_usage_percent",
			Help:      "CPU utilisation over the last sample window.",
		}, []string{"host"}),
		memory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_kibibytes",
			Help:      "Memory from /proc/meminfo by kind.",
		}, []string{"host", "kind"}),
		load: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_average",
			Help:      "System load average by period.",
		}, []string{"host", "period"}),
		processes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "processes",
			Help:      "Scheduling entities by state.",
		}, []string{"host", "state"}),
		lastPID: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pid",
			Help:      "Most recently assigned process ID.",
		}, []string{"host"}),
		disk: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disk_kibibytes",
			Help:      "Root filesystem space by kind.",
		}, []string{"host", "kind"}),
		failedLogins: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed_logins_last_hour",
			Help:      "Failed authentication attempts in the auth log tail during the last hour.",
		}, []string{"host"}),
		lastCollect: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_collect_timestamp_seconds",
			Help:      "Unix time of the last snapshot.",
		}, []string{"host"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		collectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collect_duration_seconds",
			Help:      "Time spent assembling a snapshot.",
			Buckets:   []float64{.01, .05, .1, .25, .4, .5, .75, 1, 2.5},
		}),
	}

	e.registry.MustRegister(
		e.cpu, e.memory, e.load, e.processes, e.lastPID, e.disk, e.failedLogins, e.lastCollect,
		e.requests, e.collectDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return e
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

func (e *Exporter) ObserveRequest(route string, code int) {
	e.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (e *Exporter) ObserveCollect(d time.Duration) {
	e.collectDuration.Observe(d.Seconds())
}

// Observe updates every gauge from snap.
func (e *Exporter) Observe(snap *sensor.Snapshot) {
	host := snap.Hostname

	setFloat(e.cpu, snap.CPUUsage, host)

	setInt(e.memory, snap.MemTotal, host, "total")
	setInt(e.memory, snap.MemUsed, host, "used")
	setInt(e.memory, snap.MemAvailable, host, "available")
	setInt(e.memory, snap.MemCached, host, "cached")
	setInt(e.memory, snap.MemFree, host, "free")

	setFloat(e.load, snap.LoadAvg1, host, "1m")
	setFloat(e.load, snap.LoadAvg5, host, "5m")
	setFloat(e.load, snap.LoadAvg15, host, "15m")

	setInt(e.processes, snap.RunningProcesses, host, "running")
	setInt(e.processes, snap.TotalProcesses, host, "total")
	setInt(e.lastPID, snap.LastPID, host)

	setInt(e.disk, snap.DiskUsed, host, "used")
	setInt(e.disk, snap.DiskFree, host, "free")

	setInt(e.failedLogins, snap.FailedLoginsLastHour, host)

	if ts, err := snap.Time(); err == nil {
		e.lastCollect.WithLabelValues(host).Set(float64(ts.Unix()))
	}
}

func setFloat(g *prometheus.GaugeVec, v *float64, labels ...string) {
	if v == nil {
		g.DeleteLabelValues(labels...)
		return
	}
	g.WithLabelValues(labels...).Set(*v)
}

func setInt(g *prometheus.GaugeVec, v *int64, labels ...string) {
	if v == nil {
		g.DeleteLabelValues(labels...)
		return
	}
	g.WithLabelValues(labels...).Set(float64(*v))
}
