package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/status"
)

type fakeNotifier struct {
	mu    sync.Mutex
	sends []string
	fail  error
}

func (f *fakeNotifier) Send(ctx context.Context, title, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sends = append(f.sends, title+"\n"+text)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeNotifier) send(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends[i]
}

func TestDispatcher_DeliversQueuedEvents(t *testing.T) {
	fn := &fakeNotifier{}
	d := NewDispatcher(fn, DispatcherConfig{Rate: 1000, Burst: 1000}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d.AnnounceInitial("https://a.example", status.Up, at)
	d.AnnounceTransition(status.Transition{
		Endpoint: "https://a.example",
		From:     status.Up,
		To:       status.Down,
		At:       at.Add(time.Minute),
	})

	deadline := time.Now().Add(2 * time.Second)
	for fn.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if fn.count() != 2 {
		t.Fatalf("want 2 deliveries, got %d", fn.count())
	}
	if !strings.Contains(fn.send(0), "initial") {
		t.Fatalf("first delivery should be the initial announcement:\n%s", fn.send(0))
	}
	if !strings.Contains(fn.send(1), "up -> down") {
		t.Fatalf("second delivery should be the transition:\n%s", fn.send(1))
	}
}

func TestDispatcher_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	fn := &fakeNotifier{}
	d := NewDispatcher(fn, DispatcherConfig{QueueSize: 1, Rate: 1000, Burst: 1000}, zap.NewNop())

	at := time.Now()
	// Run is not consuming yet, so only the first fits.
	d.AnnounceInitial("https://a.example", status.Up, at)
	d.AnnounceInitial("https://b.example", status.Up, at)
	d.AnnounceInitial("https://c.example", status.Up, at)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	<-done

	if fn.count() != 1 {
		t.Fatalf("want exactly the queued event delivered, got %d", fn.count())
	}
	if !strings.Contains(fn.send(0), "https://a.example") {
		t.Fatalf("oldest event should survive:\n%s", fn.send(0))
	}
}

func TestDispatcher_DrainsQueueOnShutdown(t *testing.T) {
	fn := &fakeNotifier{}
	d := NewDispatcher(fn, DispatcherConfig{Rate: 1000, Burst: 1000}, zap.NewNop())

	at := time.Now()
	d.AnnounceInitial("https://a.example", status.Down, at)
	d.AnnounceTransition(status.Transition{Endpoint: "https://a.example", From: status.Down, To: status.Up, At: at})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	<-done

	if fn.count() != 2 {
		t.Fatalf("want both queued events drained, got %d", fn.count())
	}
}

func TestDispatcher_SendFailureDoesNotStopDelivery(t *testing.T) {
	fn := &fakeNotifier{fail: errors.New("sink down")}
	d := NewDispatcher(fn, DispatcherConfig{Rate: 1000, Burst: 1000}, zap.NewNop())

	at := time.Now()
	d.AnnounceInitial("https://a.example", status.Up, at)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("dispatcher must swallow sink failures and return")
	}
	if fn.count() != 0 {
		t.Fatalf("failed sends should not be counted, got %d", fn.count())
	}
}

func TestMulti_CombinesErrors(t *testing.T) {
	bad1 := &fakeNotifier{fail: errors.New("one")}
	bad2 := &fakeNotifier{fail: errors.New("two")}
	ok := &fakeNotifier{}

	m := Multi{bad1, nil, ok, bad2}
	err := m.Send(context.Background(), "t", "x")
	if err == nil {
		t.Fatalf("want combined error")
	}
	if got := multierr.Errors(err); len(got) != 2 {
		t.Fatalf("want 2 errors, got %d: %v", len(got), err)
	}
	if ok.count() != 1 {
		t.Fatalf("healthy sink must still receive, got %d", ok.count())
	}
}
