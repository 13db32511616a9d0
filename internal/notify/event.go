package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/status"
)

// Event is one queued announcement. Initial events carry the status an
// endpoint settled into at startup; transition events carry both sides of
// the change. The ID ties queue, send, and failure log lines together.
type Event struct {
	ID       string
	Endpoint string
	Initial  bool
	From     status.Status
	To       status.Status
	At       time.Time
	Latency  time.Duration
	Downtime time.Duration
}

func (e Event) Title() string {
	switch {
	case e.Initial && e.To == status.Up:
		return "🟢 Endpoint UP"
	case e.Initial:
		return "🔴 Endpoint DOWN"
	case e.To == status.Up:
		return "🟢 Endpoint RECOVERED"
	default:
		return "🔴 Endpoint DOWN"
	}
}

func (e Event) Text() string {
	lines := []string{"URL: " + e.Endpoint}
	if e.Initial {
		lines = append(lines, fmt.Sprintf("Status: %s (initial)", e.To))
	} else {
		lines = append(lines, fmt.Sprintf("Status: %s -> %s", e.From, e.To))
	}
	if e.To == status.Up && e.Latency > 0 {
		lines = append(lines, fmt.Sprintf("Latency: %.0f ms", e.Latency.Seconds()*1000))
	}
	if e.Downtime > 0 {
		lines = append(lines, "Downtime: "+e.Downtime.Round(time.Second).String())
	}
	lines = append(lines, "Checked: "+e.At.Format(time.RFC3339))
	return strings.Join(lines, "\n")
}
