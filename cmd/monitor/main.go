package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/logging"
	"github.com/hamed0406/uptimemonitor/internal/metrics"
	"github.com/hamed0406/uptimemonitor/internal/notify"
	"github.com/hamed0406/uptimemonitor/internal/probe"
	"github.com/hamed0406/uptimemonitor/internal/scheduler"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "uptime-monitor: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("uptime-monitor", flag.ContinueOnError)
	interval := fs.Duration("interval", config.DefaultInterval, "time between check rounds")
	timeout := fs.Duration("timeout", config.DefaultTimeout, "per-endpoint probe timeout")
	targets := fs.String("targets", "", "YAML file with an endpoints list, merged after the arguments")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: uptime-monitor [flags] <https-url> [<https-url> ...]\n\n")
		fmt.Fprintf(fs.Output(), "Environment: SLACK_WEBHOOK_URL (required), METRICS_PATH, LOG_DIR,\n")
		fmt.Fprintf(fs.Output(), "  LOG_LEVEL, NOTIFY_RATE, NOTIFY_BURST, NOTIFY_TIMEOUT\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.FromEnv()
	cfg.Interval = *interval
	cfg.Timeout = *timeout
	cfg.Endpoints = append(cfg.Endpoints, fs.Args()...)
	if *targets != "" {
		fromFile, err := config.LoadTargets(*targets)
		if err != nil {
			return err
		}
		cfg.Endpoints = append(cfg.Endpoints, fromFile...)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store := metrics.Open(cfg.MetricsPath, cfg.Endpoints, logger)

	disp := notify.NewDispatcher(
		notify.Multi{notify.NewSlack(cfg.WebhookURL)},
		notify.DispatcherConfig{
			SendTimeout: cfg.NotifyTimeout,
			Rate:        cfg.NotifyRate,
			Burst:       cfg.NotifyBurst,
		},
		logger,
	)

	mon := scheduler.NewMonitor(scheduler.Config{
		Endpoints: cfg.Endpoints,
		Interval:  cfg.Interval,
		Timeout:   cfg.Timeout,
	}, probe.NewHTTPChecker(cfg.Timeout), store, disp, logger)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting",
		zap.Strings("endpoints", cfg.Endpoints),
		zap.Duration("interval", cfg.Interval),
		zap.Duration("timeout", cfg.Timeout),
		zap.String("metrics_path", cfg.MetricsPath),
	)

	grp, groupCtx := errgroup.WithContext(runCtx)
	grp.Go(func() error {
		if err := mon.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		if err := disp.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown_complete")
	return nil
}
