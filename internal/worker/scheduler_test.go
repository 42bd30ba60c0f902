package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"insights-export/internal/metrics"
	"insights-export/internal/model"

	"github.com/rs/zerolog"
)

// blockingRunner 는 release 가 닫히거나 ctx 가 끝날 때까지 돌아오지 않는다.
type blockingRunner struct {
	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	started  chan struct{}
	release  chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (b *blockingRunner) RunExtraction(ctx context.Context) (model.RunReport, error) {
	b.calls.Add(1)
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		old := b.maxSeen.Load()
		if n <= old || b.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}
	select {
	case b.started <- struct{}{}:
	default:
	}

	select {
	case <-b.release:
		return model.RunReport{}, nil
	case <-ctx.Done():
		return model.RunReport{}, ctx.Err()
	}
}

func waitStarted(t *testing.T, b *blockingRunner) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not start")
	}
}

func TestSchedulerSkipsWhileBusy(t *testing.T) {
	b := newBlockingRunner()
	m := metrics.New()
	s := NewScheduler(10*time.Millisecond, b, m, zerolog.Nop())
	s.Start()

	waitStarted(t, b)

	// 실행이 막혀 있는 동안 tick 이 여러 번 지나간다.
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&m.ScheduledSkipsTotal) < 3 {
		if time.Now().After(deadline) {
			t.Fatal("ticks were not skipped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(b.release)
	s.Shutdown(context.Background())

	if got := b.maxSeen.Load(); got != 1 {
		t.Errorf("runs overlapped: max in flight %d", got)
	}
}

func TestSchedulerShutdownWaitsForRun(t *testing.T) {
	b := newBlockingRunner()
	s := NewScheduler(5*time.Millisecond, b, metrics.New(), zerolog.Nop())
	s.Start()
	waitStarted(t, b)

	done := make(chan struct{})
	go func() {
		s.Shutdown(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Shutdown returned while a run was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(b.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return after run finished")
	}

	calls := b.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if b.calls.Load() != calls {
		t.Error("no runs may start after Shutdown")
	}
}

func TestSchedulerShutdownDeadlineCancelsRun(t *testing.T) {
	b := newBlockingRunner()
	s := NewScheduler(5*time.Millisecond, b, metrics.New(), zerolog.Nop())
	s.Start()
	waitStarted(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	s.Shutdown(ctx)
	if time.Since(start) > 2*time.Second {
		t.Fatal("Shutdown did not honour its deadline")
	}
	if b.inFlight.Load() != 0 {
		t.Error("in-flight run must have been cancelled")
	}

	// 두 번째 호출도 안전
	s.Shutdown(context.Background())
}

type failingRunner struct{ calls atomic.Int64 }

func (f *failingRunner) RunExtraction(context.Context) (model.RunReport, error) {
	f.calls.Add(1)
	return model.RunReport{}, errors.New("boom")
}

func TestSchedulerKeepsTickingAfterFailure(t *testing.T) {
	f := &failingRunner{}
	s := NewScheduler(5*time.Millisecond, f, metrics.New(), zerolog.Nop())
	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for f.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("scheduler stopped after a failed run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Shutdown(context.Background())
}
