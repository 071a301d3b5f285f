package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Source names accepted in Options.Sources.
const (
	SourceCPU     = "cpu"
	SourceMemory  = "memory"
	SourceLoad    = "load"
	SourceDisk    = "disk"
	SourceAuthLog = "authlog"
	SourceSyslog  = "syslog"
)

// DefaultSources is the read order used when none is configured.
var DefaultSources = []string{SourceAuthLog, SourceSyslog, SourceCPU, SourceMemory, SourceLoad, SourceDisk}

// Options locates the files each source reads.
type Options struct {
	Sources []string

	ProcStatPath string
	MeminfoPath  string
	LoadavgPath  string
	DiskPath     string
	AuthLogPath  string
	// SyslogPath enables the syslog source when non-empty.
	SyslogPath string
	TailLines  int

	CPUWindow time.Duration
}

// DefaultOptions reads the live Linux files.
func DefaultOptions() Options {
	return Options{
		Sources:      DefaultSources,
		ProcStatPath: "/proc/stat",
		MeminfoPath:  "/proc/meminfo",
		LoadavgPath:  "/proc/loadavg",
		DiskPath:     "/",
		AuthLogPath:  "/var/log/auth.log",
		TailLines:    DefaultTailLines,
		CPUWindow:    CPUSampleWindow,
	}
}

// readFunc fills the snapshot fields owned by one source. On error it
// leaves them untouched.
type readFunc func(ctx context.Context, snap *Snapshot) error

type namedSource struct {
	name string
	read readFunc
}

// Collector builds snapshots from a fixed, ordered set of sources. Each
// source is best-effort: a failing one only leaves its own fields null.
type Collector struct {
	opts    Options
	logger  *slog.Logger
	sources []namedSource
	sampler *Sampler

	hostname  func() (string, error)
	now       func() time.Time
	wait      waitFunc
	diskUsage diskUsageFunc
}

// New validates the source list and returns a Collector. A nil logger
// discards output.
func New(opts Options, logger *slog.Logger) (*Collector, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(opts.Sources) == 0 {
		opts.Sources = DefaultSources
	}
	if opts.TailLines <= 0 {
		opts.TailLines = DefaultTailLines
	}
	if opts.CPUWindow <= 0 {
		opts.CPUWindow = CPUSampleWindow
	}

	c := &Collector{
		opts:      opts,
		logger:    logger,
		hostname:  os.Hostname,
		now:       time.Now,
		wait:      sleepContext,
		diskUsage: filesystemUsage,
	}

	table := map[string]readFunc{
		SourceCPU:     c.readCPU,
		SourceMemory:  c.readMemory,
		SourceLoad:    c.readLoad,
		SourceDisk:    c.readDisk,
		SourceAuthLog: c.readAuthLog,
		SourceSyslog:  c.readSyslog,
	}
	seen := make(map[string]bool, len(opts.Sources))
	for _, name := range opts.Sources {
		read, ok := table[name]
		if !ok {
			return nil, fmt.Errorf("unknown metric source %q", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		if name == SourceSyslog && opts.SyslogPath == "" {
			continue
		}
		c.sources = append(c.sources, namedSource{name: name, read: read})
	}
	return c, nil
}

// UseSampler makes the cpu source report the sampler's latest reading
// instead of blocking for a fresh two-sample measurement.
func (c *Collector) UseSampler(s *Sampler) {
	c.sampler = s
}

// Sources lists the enabled source names in read order.
func (c *Collector) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.name
	}
	return names
}

// Collect reads every enabled source and returns the assembled snapshot.
func (c *Collector) Collect(ctx context.Context) *Snapshot {
	snap := &Snapshot{AuthLog: []string{}}

	host, err := c.hostname()
	if err != nil {
		c.logger.Warn("hostname unavailable", "error", err)
	}
	snap.Hostname = host

	for _, s := range c.sources {
		if err := s.read(ctx, snap); err != nil {
			c.logger.Debug("metric source unavailable", "source", s.name, "error", err)
		}
	}

	snap.Timestamp = c.now().UTC().Format(TimestampLayout)
	return snap
}

var errNoSample = errors.New("no cpu sample yet")

func (c *Collector) readCPU(ctx context.Context, snap *Snapshot) error {
	if c.sampler != nil {
		v, ok := c.sampler.Latest()
		if !ok {
			return errNoSample
		}
		snap.CPUUsage = ptr(v)
		return nil
	}
	v, err := CPUUsage(ctx, c.opts.ProcStatPath, c.opts.CPUWindow, c.wait)
	if err != nil {
		return err
	}
	snap.CPUUsage = ptr(v)
	return nil
}

func (c *Collector) readMemory(_ context.Context, snap *Snapshot) error {
	m, err := readMeminfo(c.opts.MeminfoPath)
	if err != nil {
		return err
	}
	snap.MemTotal = m.total
	snap.MemFree = m.free
	snap.MemAvailable = m.available
	snap.MemCached = m.cached
	snap.MemUsed = m.used()
	return nil
}

func (c *Collector) readLoad(_ context.Context, snap *Snapshot) error {
	l, err := readLoadavg(c.opts.LoadavgPath)
	if err != nil {
		return err
	}
	snap.LoadAvg1 = ptr(l.load1)
	snap.LoadAvg5 = ptr(l.load5)
	snap.LoadAvg15 = ptr(l.load15)
	snap.RunningProcesses = ptr(l.running)
	snap.TotalProcesses = ptr(l.total)
	snap.LastPID = ptr(l.lastPID)
	return nil
}

func (c *Collector) readDisk(ctx context.Context, snap *Snapshot) error {
	total, free, err := c.diskUsage(ctx, c.opts.DiskPath)
	if err != nil {
		return err
	}
	if free > total {
		return fmt.Errorf("disk %s reports %d free of %d bytes", c.opts.DiskPath, free, total)
	}
	snap.DiskUsed = ptr(bytesToKiB(total - free))
	snap.DiskFree = ptr(bytesToKiB(free))
	return nil
}

func (c *Collector) readAuthLog(_ context.Context, snap *Snapshot) error {
	lines, err := TailLog(c.opts.AuthLogPath, c.opts.TailLines)
	snap.AuthLog = lines
	if err != nil {
		snap.AuthLogError = err.Error()
		return err
	}
	snap.FailedLoginsLastHour = ptr(int64(CountFailedLogins(lines, c.now())))
	return nil
}

func (c *Collector) readSyslog(_ context.Context, snap *Snapshot) error {
	lines, err := TailLog(c.opts.SyslogPath, c.opts.TailLines)
	snap.Syslog = lines
	if err != nil {
		snap.SyslogError = err.Error()
		return err
	}
	return nil
}
