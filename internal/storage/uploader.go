// internal/storage/uploader.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"insights-export/internal/metrics"
	"insights-export/internal/model"

	"github.com/rs/zerolog"
)

// ContentTypeCSV 는 업로드 객체의 Content-Type.
const ContentTypeCSV = "text/csv; charset=utf-8"

// ObjectStore 는 백엔드별 단일 호출 연산.
// retry / timeout 은 Uploader 가 담당하고, 구현체는 1회 호출만 한다.
type ObjectStore interface {
	Exists(ctx context.Context, container, key string) (bool, error)
	Delete(ctx context.Context, container, key string) error
	Put(ctx context.Context, container, key string, body io.Reader, size int64, contentType string) error
}

// RetryPolicy
// ------------------------------------------------------------
// 지수 backoff: BaseDelay 부터 2배씩, MaxDelay 상한.
// MaxAttempts 는 최초 시도를 포함한 총 시도 횟수.
type RetryPolicy struct {
	MaxAttempts int
	Timeout     time.Duration // 시도 1회당
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Uploader 는 CSV artifact 를 덮어쓰기 방식으로 업로드한다.
type Uploader struct {
	store   ObjectStore
	policy  RetryPolicy
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewUploader(store ObjectStore, policy RetryPolicy, m *metrics.Metrics, log zerolog.Logger) *Uploader {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 200 * time.Millisecond
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = policy.BaseDelay
	}
	return &Uploader{
		store:   store,
		policy:  policy,
		metrics: m,
		log:     log,
	}
}

// UploadObject
// ------------------------------------------------------------
// 덮어쓰기 업로드: 존재 확인 → 있으면 삭제 → 생성.
// 세 단계를 한 번의 시도로 보고, 어느 단계든 실패하면 처음부터 다시 시도한다.
//
//   - 각 시도는 policy.Timeout 적용
//   - ctx 취소 시 즉시 중단
//   - 모든 시도 실패 → *model.TransportError
//
// body 는 시도마다 reader 를 새로 만들어야 하므로 bytes.NewReader 사용.
func (u *Uploader) UploadObject(ctx context.Context, container, key string, body []byte) error {
	var lastErr error
	backoff := u.policy.BaseDelay

	for attempt := 1; attempt <= u.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return u.fail(container, key, attempt-1, err)
		}

		err := u.attempt(ctx, container, key, body)
		if err == nil {
			return nil
		}
		lastErr = err
		atomic.AddInt64(&u.metrics.StoragePutErrorsTotal, 1)

		u.log.Warn().
			Err(err).
			Str("container", container).
			Str("key", key).
			Int("attempt", attempt).
			Int("max_attempts", u.policy.MaxAttempts).
			Msg("storage upload attempt failed")

		if attempt == u.policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return u.fail(container, key, attempt, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
			if backoff > u.policy.MaxDelay {
				backoff = u.policy.MaxDelay
			}
		}
	}

	return u.fail(container, key, u.policy.MaxAttempts, lastErr)
}

func (u *Uploader) attempt(ctx context.Context, container, key string, body []byte) error {
	if u.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.policy.Timeout)
		defer cancel()
	}

	exists, err := u.store.Exists(ctx, container, key)
	if err != nil {
		return fmt.Errorf("exists: %w", err)
	}
	if exists {
		if err := u.store.Delete(ctx, container, key); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	}
	if err := u.store.Put(ctx, container, key, bytes.NewReader(body), int64(len(body)), ContentTypeCSV); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

func (u *Uploader) fail(container, key string, attempts int, err error) error {
	return &model.TransportError{
		Op:  "upload",
		Err: fmt.Errorf("%s/%s after %d attempt(s): %w", container, key, attempts, err),
	}
}
