// internal/export/service.go
package export

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"insights-export/internal/config"
	"insights-export/internal/csvenc"
	"insights-export/internal/decode"
	"insights-export/internal/insights"
	"insights-export/internal/metrics"
	"insights-export/internal/model"
	"insights-export/internal/query"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Querier 는 원격 query API (insights.Client).
type Querier interface {
	Query(ctx context.Context, req insights.Request) ([]byte, error)
}

// ObjectUploader 는 덮어쓰기 업로드 (storage.Uploader).
type ObjectUploader interface {
	UploadObject(ctx context.Context, container, key string, body []byte) error
}

// SmokeIterations 는 Alpha smoke 경로의 로그 출력 횟수.
const SmokeIterations = 5

// Service
// ------------------------------------------------------------
// 추출 파이프라인 전체 순서를 제어한다.
//
//	config → window → KQL → query API → decode → CSV → upload
//
// 각 단계는 앞 단계 결과를 전부 받은 뒤 시작한다 (streaming 없음).
// 어느 단계든 실패하면 그대로 반환하고, 업로드 전 실패면 아무것도 올리지 않는다.
// 실행 간 공유 상태는 metrics 카운터뿐이다.
type Service struct {
	querier  Querier
	uploader ObjectUploader
	decoder  *decode.Decoder
	encoder  *csvenc.Encoder

	loadConfig func() (config.Extraction, error)
	now        func() time.Time

	metrics *metrics.Metrics
	log     zerolog.Logger
}

type Option func(*Service)

// WithClock 은 실행 시각 소스를 바꾼다 (window, 파일명 계산).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithConfigLoader 는 실행마다 호출되는 설정 로더를 바꾼다.
func WithConfigLoader(load func() (config.Extraction, error)) Option {
	return func(s *Service) { s.loadConfig = load }
}

// WithDecoder 는 기본 decoder (timestamp → JST) 를 바꾼다.
func WithDecoder(d *decode.Decoder) Option {
	return func(s *Service) { s.decoder = d }
}

func NewService(q Querier, u ObjectUploader, enc *csvenc.Encoder, m *metrics.Metrics, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		querier:  q,
		uploader: u,
		decoder:  decode.NewDecoder(),
		encoder:  enc,
		loadConfig: func() (config.Extraction, error) {
			return config.LoadExtraction(config.EnvLookup)
		},
		now:     time.Now,
		metrics: m,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunExtraction 은 추출 1회를 실행한다.
// 실패 시에도 RunID / StartedAt 이 채워진 report 를 돌려준다 (로그 상관관계용).
func (s *Service) RunExtraction(ctx context.Context) (model.RunReport, error) {
	began := time.Now()
	start := s.now()
	report := model.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: start,
	}
	log := s.log.With().Str("run_id", report.RunID).Logger()

	atomic.AddInt64(&s.metrics.ExtractionRunsTotal, 1)
	log.Info().Time("started_at", start).Msg("extraction started")

	err := s.run(ctx, log, &report)
	report.Duration = time.Since(began)

	if err != nil {
		atomic.AddInt64(&s.metrics.ExtractionFailuresTotal, 1)
		log.Error().Err(err).Dur("elapsed", report.Duration).Msg("extraction failed")
		return report, err
	}

	atomic.AddInt64(&s.metrics.RowsExportedTotal, int64(report.Rows))
	atomic.AddInt64(&s.metrics.BytesUploadedTotal, int64(report.Bytes))
	atomic.StoreInt64(&s.metrics.LastSuccessUnix, time.Now().Unix())

	log.Info().
		Str("container", report.Container).
		Str("path", report.Path).
		Int("columns", report.Columns).
		Int("rows", report.Rows).
		Int("bytes", report.Bytes).
		Dur("elapsed", report.Duration).
		Msg("extraction completed")

	return report, nil
}

func (s *Service) run(ctx context.Context, log zerolog.Logger, report *model.RunReport) error {
	// --- 1) 설정 (네트워크 호출 전에 검증) ---
	ex, err := s.loadConfig()
	if err != nil {
		return fmt.Errorf("load extraction config: %w", err)
	}
	report.Container = ex.Container

	// --- 2) window + KQL ---
	window, err := query.NewWindow(report.StartedAt, ex.MonthOffset)
	if err != nil {
		if errors.Is(err, query.ErrInvertedWindow) {
			return &model.ConfigurationError{Key: config.EnvMonthOffset, Reason: "window start is after window end", Err: err}
		}
		return err
	}
	report.Window = window
	kql := query.Build(ex.Template, window)

	log.Debug().
		Str("from", query.FormatFrom(window)).
		Str("to", query.FormatTo(window)).
		Int("query_len", len(kql)).
		Msg("query built")

	// --- 3) query API ---
	body, err := s.querier.Query(ctx, insights.Request{
		AppID:  ex.AppID,
		APIKey: ex.APIKey,
		Query:  kql,
	})
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	// --- 4) decode + timestamp 정규화 ---
	table, err := s.decoder.DecodeBody(body)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	report.Columns = len(table.Columns)
	report.Rows = len(table.Rows)

	// --- 5) CSV (헤더 포함) ---
	csv, err := s.encoder.Encode(table, true)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	// --- 6) 업로드 ---
	artifact := NewArtifact(ex.Container, report.StartedAt, csv)
	report.Path = artifact.Path
	report.Bytes = len(artifact.Body)

	if err := s.uploader.UploadObject(ctx, artifact.Container, artifact.Path, artifact.Body); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

// RunSmoke
// ------------------------------------------------------------
// 동작 확인용 경로. name 과 4자리 index 를 붙인 info 로그를
// SmokeIterations 번 순서대로 남긴다. 테이블/CSV/스토리지는 쓰지 않는다.
//
// 로그 자체가 결과물이라 LOG_SAMPLE_N 샘플링을 적용하지 않는다.
func (s *Service) RunSmoke(ctx context.Context, name string) error {
	atomic.AddInt64(&s.metrics.SmokeRunsTotal, 1)

	log := s.log.Sample(nil)
	for i := 0; i < SmokeIterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Info().
			Str("name", name).
			Int("index", i).
			Msg(SmokeMessage(name, i))
	}
	return nil
}

// SmokeMessage 는 smoke 로그 한 줄 (예: "AlphaProcess_test_0003").
func SmokeMessage(name string, i int) string {
	return fmt.Sprintf("AlphaProcess_%s_%04d", name, i)
}
