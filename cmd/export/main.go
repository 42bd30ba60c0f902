package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insights-export/internal/config"
	"insights-export/internal/export"
	"insights-export/internal/logger"
	"insights-export/internal/metrics"
)

// 추출 1회 실행 후 종료한다 (cron / k8s CronJob 용).
// 성공 0, 실패 1.
func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	logger.RedirectStd(log)
	m := metrics.New()

	// SIGTERM 이면 진행 중인 query / 업로드를 취소한다.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	svc, err := export.NewFromConfig(initCtx, cfg, m, log)
	initCancel()
	if err != nil {
		log.Error().Err(err).Msg("export service init failed")
		os.Exit(1)
	}

	report, err := svc.RunExtraction(ctx)
	if err != nil {
		// 상세 로그는 Service 가 run_id 와 함께 남겼다.
		stop()
		os.Exit(1)
	}

	log.Info().
		Str("run_id", report.RunID).
		Str("container", report.Container).
		Str("path", report.Path).
		Int("rows", report.Rows).
		Msg("export finished")
}
