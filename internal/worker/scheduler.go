// internal/worker/scheduler.go
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"insights-export/internal/metrics"
	"insights-export/internal/model"

	"github.com/rs/zerolog"
)

// Extractor 는 스케줄 대상 (export.Service).
type Extractor interface {
	RunExtraction(ctx context.Context) (model.RunReport, error)
}

// Scheduler 는 EXPORT_INTERVAL 마다 추출을 실행한다.
//
// 주요 구성:
//   - tickLoop: interval 마다 tick. 실행 중이면 그 tick 은 건너뛴다 (겹치지 않음).
//   - run: 추출 1회. 별도 goroutine 이라 tickLoop 는 막히지 않는다.
//
// trigger (/api/Bravo) 로 들어온 실행과는 조율하지 않는다.
// Scheduler 자신의 실행끼리만 겹치지 않는다.
//
// Shutdown 은 tick 을 멈춘 뒤 진행 중인 실행이 끝날 때까지 기다린다.
type Scheduler struct {
	interval time.Duration
	runner   Extractor
	metrics  *metrics.Metrics
	log      zerolog.Logger

	busy atomic.Bool

	ctx    context.Context // tickLoop 수명
	cancel context.CancelFunc

	runCtx    context.Context // 실행 수명. Shutdown 기한 초과 시에만 취소
	runCancel context.CancelFunc

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewScheduler(interval time.Duration, r Extractor, m *metrics.Metrics, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		runner:   r,
		metrics:  m,
		log:      log,
	}
}

// Start 는 tickLoop 를 띄운다. 첫 실행은 interval 후.
func (s *Scheduler) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.runCtx, s.runCancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.tickLoop()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
}

// Shutdown
//
// 1) 새 tick 중단
// 2) 진행 중인 실행 대기
// 3) ctx 가 먼저 끝나면 실행을 취소하고 정리될 때까지 기다린다
//
// 여러 번 호출해도 안전하다.
func (s *Scheduler) Shutdown(ctx context.Context) {
	s.stopOnce.Do(func() {
		s.cancel()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler shutdown deadline reached, cancelling in-flight run")
		s.runCancel()
		<-done
	}
	s.runCancel()
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			if !s.busy.CompareAndSwap(false, true) {
				atomic.AddInt64(&s.metrics.ScheduledSkipsTotal, 1)
				s.log.Warn().Msg("previous scheduled run still in flight, tick skipped")
				continue
			}

			s.wg.Add(1)
			go s.run()
		}
	}
}

// run 은 추출 1회. 결과 로그는 Service 가 run_id 와 함께 남긴다.
func (s *Scheduler) run() {
	defer s.wg.Done()
	defer s.busy.Store(false)

	if _, err := s.runner.RunExtraction(s.runCtx); err != nil {
		s.log.Error().Err(err).Msg("scheduled extraction failed")
	}
}
