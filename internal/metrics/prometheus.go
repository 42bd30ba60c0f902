// internal/metrics/prometheus.go
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "insights_export"

// Collectors 는 같은 atomic 카운터를 Prometheus 형식으로 읽어 가는 collector 목록.
// 값은 scrape 시점에 읽으므로 카운터를 이중으로 올릴 필요가 없다.
func (m *Metrics) Collectors() []prometheus.Collector {
	counter := func(name, help string, v *int64) prometheus.Collector {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help},
			func() float64 { return float64(atomic.LoadInt64(v)) },
		)
	}

	return []prometheus.Collector{
		counter("trigger_requests_total", "Trigger requests accepted on /api/*.", &m.TriggerRequestsTotal),
		counter("trigger_failures_total", "Trigger requests answered with IsSucceed=false.", &m.TriggerFailuresTotal),
		counter("trigger_unauthorized_total", "Trigger requests rejected for a bad or missing key.", &m.TriggerUnauthorizedTotal),
		counter("extraction_runs_total", "Extraction runs started.", &m.ExtractionRunsTotal),
		counter("extraction_failures_total", "Extraction runs that failed.", &m.ExtractionFailuresTotal),
		counter("scheduled_skips_total", "Scheduler ticks skipped because a run was in flight.", &m.ScheduledSkipsTotal),
		counter("smoke_runs_total", "Smoke runs.", &m.SmokeRunsTotal),
		counter("rows_exported_total", "Rows written by successful runs.", &m.RowsExportedTotal),
		counter("bytes_uploaded_total", "CSV bytes uploaded by successful runs.", &m.BytesUploadedTotal),
		counter("query_errors_total", "Failed query API calls.", &m.QueryErrorsTotal),
		counter("storage_put_errors_total", "Failed storage upload attempts.", &m.StoragePutErrorsTotal),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: namespace, Name: "last_success_unix", Help: "Unix time of the last successful run."},
			func() float64 { return float64(atomic.LoadInt64(&m.LastSuccessUnix)) },
		),
	}
}

// Handler
//
// 전용 registry 에 카운터를 등록한 /metrics/prometheus 핸들러.
// 기본 registry 는 쓰지 않는다 (Metrics 여러 개를 만들어도 충돌 없음).
func (m *Metrics) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.Collectors()...)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
