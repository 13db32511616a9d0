package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/metrics"
	"github.com/hamed0406/uptimemonitor/internal/probe"
	"github.com/hamed0406/uptimemonitor/internal/status"
)

// Announcer accepts status announcements without blocking the caller.
type Announcer interface {
	AnnounceInitial(endpoint string, st status.Status, at time.Time)
	AnnounceTransition(tr status.Transition)
}

// Recorder is the durable side of the monitor.
type Recorder interface {
	Record(endpoint string, out probe.Outcome, at time.Time)
	Flush() error
	Get(endpoint string) (metrics.EndpointMetrics, bool)
}

type Config struct {
	Endpoints    []string
	Interval     time.Duration
	Timeout      time.Duration
	TickDeadline time.Duration
}

// Monitor drives the probe loop: every interval it probes all endpoints in
// parallel, feeds the tracker, announces changes, records counters and
// flushes them once. An endpoint whose previous probe is still running is
// skipped, so per-endpoint observations stay ordered.
type Monitor struct {
	cfg      Config
	logger   *zap.Logger
	checker  probe.Checker
	tracker  *status.Tracker
	store    Recorder
	announce Announcer

	mu       sync.Mutex
	inFlight map[string]bool
	wg       sync.WaitGroup
}

func NewMonitor(cfg Config, checker probe.Checker, store Recorder, announce Announcer, logger *zap.Logger) *Monitor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TickDeadline <= 0 {
		cfg.TickDeadline = cfg.Interval
	}
	if cfg.TickDeadline <= 0 {
		cfg.TickDeadline = time.Minute
	}
	return &Monitor{
		cfg:      cfg,
		logger:   logger,
		checker:  checker,
		tracker:  status.NewTracker(cfg.Endpoints),
		store:    store,
		announce: announce,
		inFlight: make(map[string]bool),
	}
}

// Run does an immediate pass announcing each endpoint's initial status,
// then one pass per tick until ctx is canceled. On shutdown it waits for
// in-flight probes to finish or time out, then flushes one last time.
func (m *Monitor) Run(ctx context.Context) error {
	if m.cfg.Interval <= 0 {
		m.logger.Info("monitor_disabled")
		return nil
	}

	defer func() {
		m.waitInFlight(m.cfg.Timeout + time.Second)
		if err := m.store.Flush(); err != nil {
			m.logger.Warn("flush_failed", zap.Error(err))
		}
		m.logger.Info("monitor_stopped")
	}()

	m.logger.Info("monitor_started",
		zap.Int("endpoints", len(m.cfg.Endpoints)),
		zap.Duration("interval", m.cfg.Interval),
		zap.Duration("timeout", m.cfg.Timeout),
	)

	t := time.NewTicker(m.cfg.Interval)
	defer t.Stop()

	m.runPass(true)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.runPass(false)
		}
	}
}

// runPass probes every endpoint concurrently and flushes once the pass
// finishes or its deadline expires. A straggler keeps its in-flight slot,
// records late, and is picked up by the next flush.
func (m *Monitor) runPass(initial bool) {
	var wg sync.WaitGroup

	for _, url := range m.cfg.Endpoints {
		if !m.acquire(url) {
			m.logger.Warn("endpoint_still_in_flight", zap.String("url", url))
			continue
		}
		wg.Add(1)
		m.wg.Add(1)
		go func(url string) {
			// Slot frees before either wait releases, so a completed
			// pass never leaves its endpoints marked in flight.
			defer wg.Done()
			defer m.wg.Done()
			defer m.release(url)
			m.checkOne(url, initial)
		}(url)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(m.cfg.TickDeadline):
		m.logger.Warn("pass_deadline_exceeded", zap.Duration("deadline", m.cfg.TickDeadline))
	}

	if err := m.store.Flush(); err != nil {
		m.logger.Warn("flush_failed", zap.Error(err))
	}
}

func (m *Monitor) checkOne(url string, initial bool) {
	// Detached from the run context: shutdown lets an in-flight probe
	// finish or time out on its own.
	cctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()

	out := m.checker.Check(cctx, url)
	at := time.Now().UTC()

	tr, changed := m.tracker.Observe(url, out, at)
	if changed {
		m.announce.AnnounceTransition(tr)
		m.logger.Info("endpoint_transition",
			zap.String("url", url),
			zap.String("from", string(tr.From)),
			zap.String("to", string(tr.To)),
			zap.Duration("downtime", tr.Downtime),
		)
	} else if initial {
		st, _ := m.tracker.State(url)
		m.announce.AnnounceInitial(url, st.Current, at)
	}

	m.store.Record(url, out, at)

	em, _ := m.store.Get(url)
	m.logger.Info("endpoint_checked",
		zap.String("url", url),
		zap.Bool("up", out.Up),
		zap.Int("status", out.StatusCode),
		zap.Float64("latency_ms", out.Latency.Seconds()*1000),
		zap.String("reason", out.Reason),
		zap.Float64("uptime_pct", em.UptimePercent()),
	)
}

func (m *Monitor) acquire(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[url] {
		return false
	}
	m.inFlight[url] = true
	return true
}

func (m *Monitor) release(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, url)
}

func (m *Monitor) waitInFlight(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		m.logger.Warn("shutdown_grace_exceeded", zap.Duration("grace", grace))
	}
}
