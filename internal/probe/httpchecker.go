package probe

import (
	"context"
	"net/http"
	"time"
)

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

// Check issues one GET against target. Reachable means a 2xx response
// within the deadline; anything else is a classified failure.
func (h *HTTPChecker) Check(ctx context.Context, target string) Outcome {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Latency: time.Since(start), Reason: ReasonBadRequest}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Outcome{Latency: latency, Reason: classify(err)}
	}
	defer resp.Body.Close()

	return Outcome{
		Up:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Latency:    latency,
		Reason:     ReasonHTTPStatus,
	}
}
