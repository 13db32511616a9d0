package probe

import (
	"context"
	"errors"
	"net"
	"time"
)

// Reason values classify what a probe observed. ReasonHTTPStatus means a
// response was received and the verdict comes from its status code; the
// rest describe why no usable response arrived.
const (
	ReasonHTTPStatus      = "http_status"
	ReasonTimeout         = "timeout"
	ReasonDNSError        = "dns_error"
	ReasonConnectionError = "connection_error"
	ReasonBadRequest      = "bad_request"
)

// Outcome is the verdict of a single probe. An unreachable endpoint is a
// normal return, never an error.
//
// Fields:
// - StatusCode: HTTP status code when a response arrived; 0 otherwise.
// - Latency: dispatch to response or failure, measured on every probe.
type Outcome struct {
	Up         bool
	StatusCode int
	Latency    time.Duration
	Reason     string
}

// Checker performs a single check for a given target URL.
type Checker interface {
	Check(ctx context.Context, target string) Outcome
}

func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonDNSError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonConnectionError
}
