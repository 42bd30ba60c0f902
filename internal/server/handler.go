// internal/server/handler.go
package server

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"insights-export/internal/metrics"
	"insights-export/internal/model"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Runner 는 trigger 가 실행하는 두 경로 (export.Service).
type Runner interface {
	RunExtraction(ctx context.Context) (model.RunReport, error)
	RunSmoke(ctx context.Context, name string) error
}

// NoException 은 성공 응답의 Exception 기본값.
const NoException = "-"

// Response 는 /api/* 응답 본문.
// 필드명은 기존 호출 측과 맞추기 위해 PascalCase 그대로 둔다.
type Response struct {
	IsSucceed bool   `json:"IsSucceed"`
	Exception string `json:"Exception"`
}

type Handler struct {
	triggerKey string
	runner     Runner
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewHandler 는 triggerKey 가 비어 있으면 인증 없이 동작한다.
func NewHandler(triggerKey string, r Runner, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		triggerKey: triggerKey,
		runner:     r,
		metrics:    m,
		log:        log,
	}
}

// HandleAlpha
//
// GET/POST /api/Alpha?name=...
// smoke 경로 실행. name 은 query string 에서만 읽는다 (없으면 빈 문자열).
func (h *Handler) HandleAlpha(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r) {
		return
	}

	name := r.URL.Query().Get("name")
	err := h.runner.RunSmoke(r.Context(), name)

	h.reply(w, r, "Alpha", err)
}

// HandleBravo
//
// GET/POST /api/Bravo
// 추출 파이프라인 전체를 동기로 실행하고, 끝난 뒤 응답한다.
// 요청 context 가 취소되면 (클라이언트 연결 종료) 실행도 중단된다.
func (h *Handler) HandleBravo(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r) {
		return
	}

	start := time.Now()
	report, err := h.runner.RunExtraction(r.Context())

	if err == nil {
		h.log.Info().
			Str("run_id", report.RunID).
			Str("path", report.Path).
			Int("rows", report.Rows).
			Dur("elapsed", time.Since(start)).
			Msg("bravo completed")
	}

	h.reply(w, r, "Bravo", err)
}

// admit
//
// 공통 전처리:
//  1. 허용 메서드 검사 (GET/POST)
//  2. trigger key 검사 (설정된 경우)
//  3. 요청 카운터 증가
//
// false 면 이미 응답을 쓴 상태.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}

	if h.triggerKey != "" && !keyMatches(requestKey(r), h.triggerKey) {
		atomic.AddInt64(&h.metrics.TriggerUnauthorizedTotal, 1)
		h.log.Warn().
			Str("path", r.URL.Path).
			Str("client_ip", clientIP(r)).
			Msg("trigger rejected: bad or missing key")
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}

	atomic.AddInt64(&h.metrics.TriggerRequestsTotal, 1)
	return true
}

// reply
//
// 실행 결과를 Response 로 바꿔 쓴다.
// 실패도 HTTP 200 이고, IsSucceed=false + Exception=에러 전문으로만 구분된다.
func (h *Handler) reply(w http.ResponseWriter, r *http.Request, fn string, err error) {
	resp := Response{IsSucceed: true, Exception: NoException}
	if err != nil {
		resp = Response{IsSucceed: false, Exception: err.Error()}
		atomic.AddInt64(&h.metrics.TriggerFailuresTotal, 1)
		h.log.Error().
			Err(err).
			Str("function", fn).
			Str("client_ip", clientIP(r)).
			Msg("trigger failed")
	}

	body, mErr := json.MarshalIndent(resp, "", "  ")
	if mErr != nil {
		// bool + string 구조체라 실제로는 도달하지 않는다.
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// requestKey 는 x-functions-key 헤더, 없으면 code query parameter.
func requestKey(r *http.Request) string {
	if k := r.Header.Get("x-functions-key"); k != "" {
		return k
	}
	return r.URL.Query().Get("code")
}

func keyMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// HandleMetrics
//
// 운영 카운터를 text 로 출력한다.
func (h *Handler) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, h.metrics.String())
}

// HandleHealth 는 프로세스 생존만 확인한다 (collaborator 호출 없음).
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// Routes 는 모든 엔드포인트를 mux 에 등록한다.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/Alpha", h.HandleAlpha)
	mux.HandleFunc("/api/Bravo", h.HandleBravo)
	mux.HandleFunc("/metrics", h.HandleMetrics)
	mux.Handle("/metrics/prometheus", h.metrics.Handler())
	mux.HandleFunc("/health", h.HandleHealth)
}
