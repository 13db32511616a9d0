package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func validSettings() Settings {
	s := FromEnv()
	s.Endpoints = []string{"https://example.com", "https://api.example.net/health"}
	s.WebhookURL = "https://hooks.slack.example/services/T000/B000/XXX"
	return s
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"SLACK_WEBHOOK_URL", "METRICS_PATH", "LOG_DIR", "LOG_LEVEL",
		"NOTIFY_RATE", "NOTIFY_BURST", "NOTIFY_TIMEOUT",
	} {
		t.Setenv(k, "")
	}

	s := FromEnv()
	if s.MetricsPath != "metrics/uptime_metrics.json" {
		t.Fatalf("metrics path default wrong: %q", s.MetricsPath)
	}
	if s.LogDir != "logs" || s.LogLevel != "info" {
		t.Fatalf("log defaults wrong: %+v", s)
	}
	if s.Interval != 60*time.Second || s.Timeout != 10*time.Second {
		t.Fatalf("probe defaults wrong: %+v", s)
	}
	if s.NotifyRate != 1.0 || s.NotifyBurst != 5 || s.NotifyTimeout != 10*time.Second {
		t.Fatalf("notify defaults wrong: %+v", s)
	}
}

func TestFromEnv_ReadsEnvironment(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/T/B/X")
	t.Setenv("METRICS_PATH", "/var/lib/uptime/metrics.json")
	t.Setenv("LOG_DIR", "/var/log/uptime")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NOTIFY_RATE", "2.5")
	t.Setenv("NOTIFY_BURST", "9")
	t.Setenv("NOTIFY_TIMEOUT", "3s")

	s := FromEnv()
	if s.WebhookURL != "https://hooks.slack.example/T/B/X" {
		t.Fatalf("webhook not read: %q", s.WebhookURL)
	}
	if s.MetricsPath != "/var/lib/uptime/metrics.json" || s.LogDir != "/var/log/uptime" {
		t.Fatalf("paths not read: %+v", s)
	}
	if s.LogLevel != "debug" {
		t.Fatalf("log level not read: %q", s.LogLevel)
	}
	if s.NotifyRate != 2.5 || s.NotifyBurst != 9 || s.NotifyTimeout != 3*time.Second {
		t.Fatalf("notify knobs not read: %+v", s)
	}
}

func TestSettings_ValidateOK(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
}

func TestSettings_ValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"no endpoints", func(s *Settings) { s.Endpoints = nil }, "Endpoints"},
		{"http scheme", func(s *Settings) { s.Endpoints = []string{"http://example.com"} }, "httpsurl"},
		{"missing host", func(s *Settings) { s.Endpoints = []string{"https://"} }, "httpsurl"},
		{"not a url", func(s *Settings) { s.Endpoints = []string{"example dot com"} }, "httpsurl"},
		{"duplicate", func(s *Settings) {
			s.Endpoints = []string{"https://example.com", "https://example.com"}
		}, "duplicate endpoint"},
		{"zero interval", func(s *Settings) { s.Interval = 0 }, "Interval"},
		{"negative timeout", func(s *Settings) { s.Timeout = -time.Second }, "Timeout"},
		{"missing webhook", func(s *Settings) { s.WebhookURL = "" }, "WebhookURL"},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }, "LogLevel"},
	}

	for _, tc := range cases {
		s := validSettings()
		tc.mutate(&s)
		err := s.Validate()
		if err == nil {
			t.Fatalf("%s: want error, got nil", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestSettings_ValidateReportsEverything(t *testing.T) {
	s := validSettings()
	s.Interval = 0
	s.Endpoints = []string{"https://example.com", "https://example.com"}

	err := s.Validate()
	if err == nil {
		t.Fatalf("want error")
	}
	if got := multierr.Errors(err); len(got) < 2 {
		t.Fatalf("want all failures reported together, got %d: %v", len(got), err)
	}
}

func TestLoadTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	content := "endpoints:\n  - https://a.example\n  - https://b.example/health\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example/health" {
		t.Fatalf("unexpected targets: %v", got)
	}
}

func TestLoadTargets_MissingFile(t *testing.T) {
	if _, err := LoadTargets(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("want error for missing file")
	}
}

func TestLoadTargets_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	if err := os.WriteFile(path, []byte("endpoints: {not: [a, list"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTargets(path); err == nil {
		t.Fatalf("want error for malformed yaml")
	}
}
