package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/metrics"
)

// Reads the durable metrics file and prints a per-endpoint summary. Works
// against a live monitor's file: writes are atomic, so a read never sees a
// partial document.
func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}

	path := flag.String("metrics", config.FromEnv().MetricsPath, "metrics file to read")
	flag.Parse()

	loaded, err := metrics.ReadFile(*path)
	if err != nil {
		fail(err.Error())
	}
	if len(loaded) == 0 {
		fmt.Println("⚠ no endpoints recorded yet")
		return
	}

	entries := make([]metrics.EndpointMetrics, 0, len(loaded))
	for _, em := range loaded {
		entries = append(entries, em)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Endpoint < entries[j].Endpoint })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENDPOINT\tSTATUS\tUPTIME\tCHECKS\tAVG LATENCY\tDOWNTIME\tLAST CHECK")
	for _, em := range entries {
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\t%d\t%s\t%s\t%s\n",
			em.Endpoint,
			statusGlyph(em.LastStatus),
			em.UptimePercent(),
			em.TotalChecks,
			fmtLatency(em),
			fmtDowntime(em.TotalDowntime),
			fmtLastCheck(em.LastCheck),
		)
	}
	w.Flush()
}

func statusGlyph(last string) string {
	switch last {
	case "up":
		return "🟢 up"
	case "down":
		return "🔴 down"
	default:
		return "never checked"
	}
}

func fmtLatency(em metrics.EndpointMetrics) string {
	if em.SuccessfulChecks == 0 {
		return "-"
	}
	return em.AverageResponseTime().Round(time.Millisecond).String()
}

func fmtDowntime(seconds float64) string {
	if seconds == 0 {
		return "-"
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

func fmtLastCheck(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
