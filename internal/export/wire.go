// internal/export/wire.go
package export

import (
	"context"
	"fmt"
	"time"

	"insights-export/internal/config"
	"insights-export/internal/csvenc"
	"insights-export/internal/insights"
	"insights-export/internal/logger"
	"insights-export/internal/metrics"
	"insights-export/internal/storage"

	"github.com/rs/zerolog"
)

// NewFromConfig
//
// 프로세스 설정으로 Service 와 collaborator 전체를 조립한다.
// cmd/server 와 cmd/export 가 같은 조립을 쓴다.
//
//   - query API client (insights)
//   - ObjectStore (s3 | minio) + retry Uploader
//   - CSV encoder (CSV_LINE_ENDING)
//   - 실행 시각: JOB_TIME_ZONE 기준
func NewFromConfig(ctx context.Context, cfg config.Config, m *metrics.Metrics, log zerolog.Logger) (*Service, error) {
	store, err := storage.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init: %w", err)
	}

	uploader := storage.NewUploader(store, storage.PolicyFromConfig(cfg), m, logger.Component(log, "storage"))
	client := insights.NewClient(cfg.QueryBaseURL, cfg.QueryTimeout, m, logger.Component(log, "insights"))

	loc := cfg.TimeZone
	if loc == nil {
		loc = time.Local
	}

	return NewService(
		client,
		uploader,
		csvenc.NewEncoder(cfg.CSVLineEnding),
		m,
		logger.Component(log, "export"),
		WithClock(func() time.Time { return time.Now().In(loc) }),
	), nil
}
