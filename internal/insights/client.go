// internal/insights/client.go
package insights

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"insights-export/internal/metrics"
	"insights-export/internal/model"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

// Request 는 query API 호출 1회 입력.
type Request struct {
	AppID  string
	APIKey string
	Query  string
}

// Client
// ------------------------------------------------------------
// Application Insights REST query API 클라이언트.
//
//	GET {base}/v1/apps/{appId}/query?query={KQL}
//	x-api-key: {apiKey}
//
// 요청 1회, 응답 1회. retry 는 하지 않는다 (실패는 실행 전체 실패).
// 응답 body 는 디코딩하지 않고 그대로 돌려준다 (decode 패키지 담당).
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: m,
		log:     log,
	}
}

// Query 는 KQL 을 실행하고 응답 body 를 반환한다.
// 네트워크 오류 / non-2xx 는 *model.TransportError.
func (c *Client) Query(ctx context.Context, req Request) ([]byte, error) {
	body, err := c.query(ctx, req)
	if err != nil {
		atomic.AddInt64(&c.metrics.QueryErrorsTotal, 1)
		return nil, err
	}
	return body, nil
}

func (c *Client) query(ctx context.Context, req Request) ([]byte, error) {
	u := c.baseURL + "/v1/apps/" + url.PathEscape(req.AppID) + "/query?" +
		url.Values{"query": {req.Query}}.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &model.TransportError{Op: "query", Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("x-api-key", req.APIKey)
	httpReq.Header.Set("Accept", "application/json")
	// Accept-Encoding 을 직접 지정하면 net/http 가 자동 해제하지 않으므로 readBody 에서 처리한다.
	httpReq.Header.Set("Accept-Encoding", "gzip")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &model.TransportError{Op: "query", Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, &model.TransportError{Op: "query", Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("query api responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.TransportError{Op: "query", Status: resp.StatusCode, Err: apiError(body)}
	}
	return body, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return io.ReadAll(resp.Body)
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// API 오류 응답:
//
//	{"error":{"message":"...","code":"PathNotFoundError", ...}}
type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

const maxErrorSnippet = 512

func apiError(body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		if eb.Error.Code != "" {
			return fmt.Errorf("%s: %s", eb.Error.Code, eb.Error.Message)
		}
		return errors.New(eb.Error.Message)
	}

	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	if s == "" {
		s = "empty response body"
	}
	return errors.New(s)
}
