package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hamed0406/uptimemonitor/internal/status"
)

const drainGrace = 10 * time.Second

type DispatcherConfig struct {
	QueueSize   int
	SendTimeout time.Duration
	Rate        float64
	Burst       int
}

// Dispatcher decouples announcements from the probing path. Announce calls
// enqueue and return immediately; a full queue drops the event with a
// warning. One Run goroutine delivers, rate-limited across all endpoints.
type Dispatcher struct {
	notifier Notifier
	logger   *zap.Logger
	limiter  *rate.Limiter
	timeout  time.Duration
	queue    chan Event
}

func NewDispatcher(n Notifier, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Dispatcher{
		notifier: n,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		timeout:  cfg.SendTimeout,
		queue:    make(chan Event, cfg.QueueSize),
	}
}

func (d *Dispatcher) AnnounceInitial(endpoint string, st status.Status, at time.Time) {
	d.enqueue(Event{
		ID:       uuid.NewString(),
		Endpoint: endpoint,
		Initial:  true,
		To:       st,
		At:       at,
	})
}

func (d *Dispatcher) AnnounceTransition(tr status.Transition) {
	d.enqueue(Event{
		ID:       uuid.NewString(),
		Endpoint: tr.Endpoint,
		From:     tr.From,
		To:       tr.To,
		At:       tr.At,
		Latency:  tr.Latency,
		Downtime: tr.Downtime,
	})
}

func (d *Dispatcher) enqueue(ev Event) {
	select {
	case d.queue <- ev:
		d.logger.Debug("notification_queued",
			zap.String("event_id", ev.ID),
			zap.String("url", ev.Endpoint),
			zap.String("title", ev.Title()),
		)
	default:
		d.logger.Warn("notification_queue_full",
			zap.String("event_id", ev.ID),
			zap.String("url", ev.Endpoint),
		)
	}
}

// Run delivers queued events until ctx is canceled, then drains whatever is
// already queued within a short grace period. Cancellation wins over a
// ready event so pending deliveries go through the drain path.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("dispatcher_stopped")
			return nil
		default:
		}

		select {
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		case <-ctx.Done():
			d.drain()
			d.logger.Info("dispatcher_stopped")
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainGrace)
	defer cancel()
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	if err := d.limiter.Wait(ctx); err != nil {
		d.logger.Warn("notification_dropped",
			zap.String("event_id", ev.ID),
			zap.String("url", ev.Endpoint),
			zap.Error(err),
		)
		return
	}

	// Detached from the run context; shutdown does not cancel an
	// in-flight delivery.
	sctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.notifier.Send(sctx, ev.Title(), ev.Text()); err != nil {
		d.logger.Warn("notification_failed",
			zap.String("event_id", ev.ID),
			zap.String("url", ev.Endpoint),
			zap.Error(err),
		)
		return
	}
	d.logger.Info("notification_sent",
		zap.String("event_id", ev.ID),
		zap.String("url", ev.Endpoint),
		zap.String("title", ev.Title()),
	)
}
