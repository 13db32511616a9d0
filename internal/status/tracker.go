package status

import (
	"sync"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/probe"
)

type Status string

const (
	Unknown Status = "unknown"
	Up      Status = "up"
	Down    Status = "down"
)

// State is the tracked condition of one endpoint. Since marks when the
// current status began and is the anchor for downtime accounting.
type State struct {
	Endpoint    string
	Current     Status
	Since       time.Time
	LastChecked time.Time
	LastLatency time.Duration
}

// Transition records a confirmed change between Up and Down. Downtime is
// set on recovery transitions only.
type Transition struct {
	Endpoint string
	From     Status
	To       Status
	At       time.Time
	Latency  time.Duration
	Downtime time.Duration
}

// Tracker owns the per-endpoint state machine. Entries are created Unknown
// and never removed.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*State
}

func NewTracker(endpoints []string) *Tracker {
	states := make(map[string]*State, len(endpoints))
	for _, e := range endpoints {
		states[e] = &State{Endpoint: e, Current: Unknown}
	}
	return &Tracker{states: states}
}

// Observe folds one probe outcome into the endpoint's state. The bool
// reports whether an Up/Down transition occurred. The first observation of
// an endpoint settles its status without transitioning; repeated identical
// outcomes refresh timestamps only.
func (t *Tracker) Observe(endpoint string, out probe.Outcome, at time.Time) (Transition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[endpoint]
	if !ok {
		st = &State{Endpoint: endpoint, Current: Unknown}
		t.states[endpoint] = st
	}

	next := Down
	if out.Up {
		next = Up
	}

	st.LastChecked = at
	st.LastLatency = out.Latency

	if st.Current == Unknown || st.Current == next {
		if st.Current == Unknown {
			st.Current = next
			st.Since = at
		}
		return Transition{}, false
	}

	tr := Transition{
		Endpoint: endpoint,
		From:     st.Current,
		To:       next,
		At:       at,
		Latency:  out.Latency,
	}
	if tr.From == Down && tr.To == Up {
		tr.Downtime = at.Sub(st.Since)
	}
	st.Current = next
	st.Since = at
	return tr, true
}

// State returns a copy of the endpoint's current state.
func (t *Tracker) State(endpoint string) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.states[endpoint]
	if !ok {
		return State{}, false
	}
	return *st, true
}
