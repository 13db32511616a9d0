package metrics

import "time"

// EndpointMetrics is the durable per-endpoint record, one JSON object per
// endpoint in the metrics file. Counters never decrease; TotalChecks always
// equals SuccessfulChecks plus FailedChecks. Durations are stored as
// float seconds.
type EndpointMetrics struct {
	Endpoint         string     `json:"endpoint"`
	TotalChecks      uint64     `json:"total_checks"`
	SuccessfulChecks uint64     `json:"successful_checks"`
	FailedChecks     uint64     `json:"failed_checks"`
	TotalDowntime    float64    `json:"total_downtime"`
	ResponseTimeSum  float64    `json:"response_time_sum"`
	LastCheck        *time.Time `json:"last_check"`
	LastStatus       string     `json:"last_status"`
}

// AverageResponseTime derives the mean latency of successful checks. Zero
// when no check has succeeded yet.
func (m EndpointMetrics) AverageResponseTime() time.Duration {
	if m.SuccessfulChecks == 0 {
		return 0
	}
	avg := m.ResponseTimeSum / float64(m.SuccessfulChecks)
	return time.Duration(avg * float64(time.Second))
}

// UptimePercent is the share of checks that succeeded, 0..100. Zero when
// nothing has been checked yet.
func (m EndpointMetrics) UptimePercent() float64 {
	if m.TotalChecks == 0 {
		return 0
	}
	return float64(m.SuccessfulChecks) / float64(m.TotalChecks) * 100
}
