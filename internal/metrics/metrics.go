package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics 는 export 서버 상태를 나타내는 카운터 모음이다.
// /metrics 에서 text 로 노출된다.
type Metrics struct {
	// ======================
	// Trigger (HTTP) 지표
	// ======================

	// TriggerRequestsTotal
	// - /api/Alpha, /api/Bravo 로 들어온 모든 요청 수.
	TriggerRequestsTotal int64

	// TriggerFailuresTotal
	// - IsSucceed=false 로 응답한 요청 수.
	// - HTTP status 는 항상 200 이므로 실패는 이 값으로만 보인다.
	TriggerFailuresTotal int64

	// TriggerUnauthorizedTotal
	// - TRIGGER_KEY 불일치로 401 을 돌려준 요청 수.
	TriggerUnauthorizedTotal int64

	// ======================
	// 추출 파이프라인 지표
	// ======================

	// ExtractionRunsTotal / ExtractionFailuresTotal
	// - RunExtraction 시작 횟수 / 실패 횟수 (trigger + 스케줄 모두 포함).
	ExtractionRunsTotal     int64
	ExtractionFailuresTotal int64

	// ScheduledSkipsTotal
	// - EXPORT_INTERVAL tick 이 이전 실행과 겹쳐 건너뛴 횟수.
	ScheduledSkipsTotal int64

	// SmokeRunsTotal
	// - Alpha smoke 경로 실행 횟수.
	SmokeRunsTotal int64

	// RowsExportedTotal / BytesUploadedTotal
	// - 업로드까지 성공한 실행의 row 수, CSV 바이트 수 누적.
	RowsExportedTotal  int64
	BytesUploadedTotal int64

	// QueryErrorsTotal
	// - query API 호출 실패 (네트워크, non-2xx).
	QueryErrorsTotal int64

	// StoragePutErrorsTotal
	// - 스토리지 업로드 "시도(attempt)" 실패 횟수. retry 마다 증가한다.
	StoragePutErrorsTotal int64

	// LastSuccessUnix
	// - 마지막 성공 실행의 종료 시각 (epoch seconds). gauge.
	LastSuccessUnix int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(256)

	fmt.Fprintf(&sb, "trigger_requests_total=%d\n", atomic.LoadInt64(&m.TriggerRequestsTotal))
	fmt.Fprintf(&sb, "trigger_failures_total=%d\n", atomic.LoadInt64(&m.TriggerFailuresTotal))
	fmt.Fprintf(&sb, "trigger_unauthorized_total=%d\n", atomic.LoadInt64(&m.TriggerUnauthorizedTotal))

	fmt.Fprintf(&sb, "extraction_runs_total=%d\n", atomic.LoadInt64(&m.ExtractionRunsTotal))
	fmt.Fprintf(&sb, "extraction_failures_total=%d\n", atomic.LoadInt64(&m.ExtractionFailuresTotal))
	fmt.Fprintf(&sb, "scheduled_skips_total=%d\n", atomic.LoadInt64(&m.ScheduledSkipsTotal))
	fmt.Fprintf(&sb, "smoke_runs_total=%d\n", atomic.LoadInt64(&m.SmokeRunsTotal))
	fmt.Fprintf(&sb, "rows_exported_total=%d\n", atomic.LoadInt64(&m.RowsExportedTotal))
	fmt.Fprintf(&sb, "bytes_uploaded_total=%d\n", atomic.LoadInt64(&m.BytesUploadedTotal))

	fmt.Fprintf(&sb, "query_errors_total=%d\n", atomic.LoadInt64(&m.QueryErrorsTotal))
	fmt.Fprintf(&sb, "storage_put_errors_total=%d\n", atomic.LoadInt64(&m.StoragePutErrorsTotal))
	fmt.Fprintf(&sb, "last_success_unix=%d\n", atomic.LoadInt64(&m.LastSuccessUnix))

	return sb.String()
}
