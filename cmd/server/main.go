package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"insights-export/internal/config"
	"insights-export/internal/export"
	"insights-export/internal/logger"
	"insights-export/internal/metrics"
	"insights-export/internal/server"
	"insights-export/internal/worker"

	"github.com/rs/zerolog"
)

func main() {

	// ====================================================================
	// CPU 설정
	// ====================================================================
	//
	// 컨테이너 CPU quota 가 1 vCPU 이하인 환경에서 Go 런타임이
	// 호스트 코어 수만큼 GOMAXPROCS 를 잡으면 스케줄링 낭비가 생긴다.
	// 추출은 실행당 단일 goroutine 이라 기본 1 로 충분하다.
	// GOMAXPROCS env 로 재정의 가능.
	// ====================================================================
	if v := os.Getenv("GOMAXPROCS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			runtime.GOMAXPROCS(n)
		}
	} else {
		runtime.GOMAXPROCS(1)
	}

	// ====================================================================
	// Config / Logger / Metrics
	// ====================================================================
	//
	// - Config: 프로세스 설정 (잘못되면 여기서 종료)
	// - Logger: 여기서 한 번 만들어 모든 컴포넌트에 주입
	// - Metrics: /metrics 로 노출되는 운영 카운터
	//
	// 추출 설정 (KQL 조각, API key, 컨테이너) 은 실행마다 다시 읽는다.
	// ====================================================================
	cfg := config.Load()
	log := logger.New(cfg)
	logger.RedirectStd(log)
	m := metrics.New()

	// ====================================================================
	// 추출 Service (query client + storage uploader + encoder)
	// ====================================================================
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	svc, err := export.NewFromConfig(initCtx, cfg, m, log)
	initCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("export service init failed")
	}

	// ====================================================================
	// Scheduler (선택)
	// ====================================================================
	//
	// EXPORT_INTERVAL 이 있으면 trigger 없이도 주기 실행한다.
	// 없으면 외부 스케줄러가 /api/Bravo 를 호출하는 구성.
	// ====================================================================
	var sched *worker.Scheduler
	if cfg.ExportInterval > 0 {
		sched = worker.NewScheduler(cfg.ExportInterval, svc, m, logger.Component(log, "scheduler"))
		sched.Start()
	}

	// ====================================================================
	// HTTP Handler
	// ====================================================================
	//
	// 엔드포인트:
	//  - /api/Alpha : smoke 실행
	//  - /api/Bravo : 추출 실행 (동기)
	//  - /metrics   : 운영 지표 (text)
	//  - /metrics/prometheus : 같은 지표, Prometheus 형식
	//  - /health    : liveness
	// ====================================================================
	h := server.NewHandler(cfg.TriggerKey, svc, m, logger.Component(log, "server"))

	mux := http.NewServeMux()
	h.Routes(mux)

	// ====================================================================
	// HTTP 서버 설정
	// ====================================================================
	//
	// /api/Bravo 는 query + upload 가 끝나야 응답하므로
	// WriteTimeout 은 query timeout 과 업로드 retry 전체보다 길어야 한다.
	// ====================================================================
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 8 * time.Second,
		ReadTimeout:       8 * time.Second,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       60 * time.Second,
	}

	// ====================================================================
	// Graceful Shutdown
	// ====================================================================
	//
	// SIGTERM / SIGINT 수신 시:
	//   1) HTTP 서버 종료 (진행 중인 trigger 요청은 끝까지 처리)
	//   2) Scheduler 종료 (진행 중인 실행 대기)
	//
	// 두 단계가 끝난 뒤에 main 이 반환한다.
	// ====================================================================
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.HTTPAddr).Msg("listen failed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	var stoppers []stopper
	if sched != nil {
		stoppers = append(stoppers, sched)
	}

	log.Info().
		Str("addr", ln.Addr().String()).
		Str("storage", cfg.StorageBackend).
		Dur("export_interval", cfg.ExportInterval).
		Bool("trigger_key", cfg.TriggerKey != "").
		Msg("export server listening")

	if err := serveUntilSignal(srv, ln, sigCh, shutdownGrace, log, stoppers...); err != nil {
		log.Fatal().Err(err).Msg("http server terminated")
	}
	log.Info().Msg("shutdown complete")
}

// shutdownGrace 는 SIGTERM 후 진행 중인 요청 / 실행을 기다리는 최대 시간.
const shutdownGrace = 30 * time.Second

// stopper 는 HTTP 서버 뒤에 종료할 백그라운드 컴포넌트 (worker.Scheduler).
type stopper interface {
	Shutdown(ctx context.Context)
}

// serveUntilSignal
//
// ln 으로 요청을 받다가 sigCh 신호가 오면
//  1. srv.Shutdown: 새 연결을 막고 진행 중인 handler 를 grace 안에서 기다린다
//  2. stoppers 를 순서대로 Shutdown
//
// Serve 는 Shutdown 시작 즉시 반환하므로, 위 두 단계가 끝날 때까지 여기서 기다린다.
func serveUntilSignal(srv *http.Server, ln net.Listener, sigCh <-chan os.Signal, grace time.Duration, log zerolog.Logger, stoppers ...stopper) error {
	done := make(chan struct{})

	go func() {
		defer close(done)

		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
		for _, s := range stoppers {
			s.Shutdown(ctx)
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// writeTimeout 은 query 1회 + 업로드 시도 전체 + backoff 상한을 덮는 값.
func writeTimeout(cfg config.Config) time.Duration {
	upload := time.Duration(cfg.StorageMaxRetries) * (cfg.StorageTimeout + cfg.StorageMaxDelay)
	return cfg.QueryTimeout + upload + 10*time.Second
}
