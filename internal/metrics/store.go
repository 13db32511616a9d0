package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/probe"
)

// Store accumulates uptime counters and persists them to a single JSON
// file, the full map per write, temp file then rename. Entries loaded from
// disk for endpoints that are no longer configured are kept and written
// back: counters are history.
type Store struct {
	mu        sync.RWMutex
	path      string
	logger    *zap.Logger
	entries   map[string]*EndpointMetrics
	downSince map[string]time.Time
}

// Open loads the metrics file at path and seeds zeroed entries for any
// configured endpoint not present in it. A missing or unreadable file
// starts the store empty; historical data is never a reason to refuse to
// monitor.
func Open(path string, endpoints []string, logger *zap.Logger) *Store {
	s := &Store{
		path:      path,
		logger:    logger,
		entries:   make(map[string]*EndpointMetrics),
		downSince: make(map[string]time.Time),
	}
	s.load()
	for _, e := range endpoints {
		if _, ok := s.entries[e]; !ok {
			s.entries[e] = &EndpointMetrics{Endpoint: e}
		}
	}
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		s.logger.Warn("metrics_load_failed", zap.String("path", s.path), zap.Error(err))
		return
	}

	var loaded map[string]*EndpointMetrics
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn("metrics_file_corrupt", zap.String("path", s.path), zap.Error(err))
		return
	}
	for url, em := range loaded {
		if em == nil {
			continue
		}
		em.Endpoint = url
		s.entries[url] = em
	}
	s.logger.Info("metrics_loaded", zap.String("path", s.path), zap.Int("endpoints", len(s.entries)))
}

// Record folds one probe outcome into the endpoint's counters. Downtime
// accumulates from the first failed observation to the next successful one;
// the marker lives only in memory, so an outage spanning a restart counts
// from the first failure seen after startup.
func (s *Store) Record(endpoint string, out probe.Outcome, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	em := s.entries[endpoint]
	if em == nil {
		em = &EndpointMetrics{Endpoint: endpoint}
		s.entries[endpoint] = em
	}

	em.TotalChecks++
	checked := at
	em.LastCheck = &checked

	if out.Up {
		em.SuccessfulChecks++
		em.ResponseTimeSum += out.Latency.Seconds()
		em.LastStatus = "up"
		if down, ok := s.downSince[endpoint]; ok {
			em.TotalDowntime += at.Sub(down).Seconds()
			delete(s.downSince, endpoint)
		}
		return
	}

	em.FailedChecks++
	em.LastStatus = "down"
	if _, ok := s.downSince[endpoint]; !ok {
		s.downSince[endpoint] = at
	}
}

// Flush writes the whole map atomically. On failure the in-memory counters
// are unaffected and the next flush retries; the previous file version
// stays intact either way.
func (s *Store) Flush() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure metrics dir %q: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp metrics file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit metrics file %q: %w", s.path, err)
	}
	return nil
}

// Get returns a copy of one endpoint's counters.
func (s *Store) Get(endpoint string) (EndpointMetrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	em, ok := s.entries[endpoint]
	if !ok {
		return EndpointMetrics{}, false
	}
	return *em, true
}

// Snapshot returns a copy of every entry, sorted by endpoint URL.
func (s *Store) Snapshot() []EndpointMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EndpointMetrics, 0, len(s.entries))
	for _, em := range s.entries {
		out = append(out, *em)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

// ReadFile loads a metrics file without opening a store, for offline
// inspection of the durable data.
func ReadFile(path string) (map[string]EndpointMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metrics file %q: %w", path, err)
	}
	var loaded map[string]EndpointMetrics
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse metrics file %q: %w", path, err)
	}
	for url, em := range loaded {
		em.Endpoint = url
		loaded[url] = em
	}
	return loaded, nil
}
