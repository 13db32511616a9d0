package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultTimeout  = 10 * time.Second

	defaultMetricsPath   = "metrics/uptime_metrics.json"
	defaultLogDir        = "logs"
	defaultLogLevel      = "info"
	defaultNotifyRate    = 1.0
	defaultNotifyBurst   = 5
	defaultNotifyTimeout = 10 * time.Second
)

// Settings is everything the monitor needs before the first probe.
// Endpoints, Interval and Timeout come from the command line; the rest from
// the environment with defaults. Any validation failure is fatal at
// startup, nothing after startup is.
type Settings struct {
	Endpoints []string      `validate:"required,min=1,dive,httpsurl"`
	Interval  time.Duration `validate:"gt=0"`
	Timeout   time.Duration `validate:"gt=0"`

	WebhookURL    string        `validate:"required,url"`
	MetricsPath   string        `validate:"required"`
	LogDir        string        `validate:"required"`
	LogLevel      string        `validate:"omitempty,oneof=debug info warn error"`
	NotifyRate    float64       `validate:"gt=0"`
	NotifyBurst   int           `validate:"gt=0"`
	NotifyTimeout time.Duration `validate:"gt=0"`
}

// FromEnv reads the ambient settings: defaults first, environment second.
func FromEnv() Settings {
	v := viper.New()
	v.SetDefault("slack_webhook_url", "")
	v.SetDefault("metrics_path", defaultMetricsPath)
	v.SetDefault("log_dir", defaultLogDir)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("notify_rate", defaultNotifyRate)
	v.SetDefault("notify_burst", defaultNotifyBurst)
	v.SetDefault("notify_timeout", defaultNotifyTimeout)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return Settings{
		Interval:      DefaultInterval,
		Timeout:       DefaultTimeout,
		WebhookURL:    v.GetString("slack_webhook_url"),
		MetricsPath:   v.GetString("metrics_path"),
		LogDir:        v.GetString("log_dir"),
		LogLevel:      v.GetString("log_level"),
		NotifyRate:    v.GetFloat64("notify_rate"),
		NotifyBurst:   v.GetInt("notify_burst"),
		NotifyTimeout: v.GetDuration("notify_timeout"),
	}
}

// Validate checks the whole settings struct and reports every problem at
// once, combined into a single error.
func (s Settings) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("httpsurl", validateHTTPSURL); err != nil {
		return err
	}

	var errs error
	if err := v.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			errs = multierr.Append(errs, formatValidationErrors(ve))
		} else {
			errs = multierr.Append(errs, err)
		}
	}

	seen := make(map[string]struct{}, len(s.Endpoints))
	for _, e := range s.Endpoints {
		if _, ok := seen[e]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate endpoint %q", e))
			continue
		}
		seen[e] = struct{}{}
	}
	return errs
}

func validateHTTPSURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	return err == nil && u.Scheme == "https" && u.Host != ""
}

func formatValidationErrors(ve validator.ValidationErrors) error {
	var sb strings.Builder
	sb.WriteString("config validation failed:")
	for _, fe := range ve {
		fmt.Fprintf(&sb, "\n- field '%s' failed on '%s'", fe.Namespace(), fe.Tag())
		if v, ok := fe.Value().(string); ok && v != "" {
			fmt.Fprintf(&sb, " (value %q)", v)
		}
	}
	return errors.New(sb.String())
}
