package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"insights-export/internal/metrics"
	"insights-export/internal/model"

	"github.com/rs/zerolog"
)

// memStore 는 호출 순서를 기록하는 in-memory ObjectStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	calls   []string

	putFailures int // 앞에서부터 n 번 Put 실패
	existsErr   error
	putDelay    time.Duration
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]string{}}
}

func (s *memStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
}

func (s *memStore) Exists(ctx context.Context, container, key string) (bool, error) {
	s.record("exists")
	if s.existsErr != nil {
		return false, s.existsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[container+"/"+key]
	return ok, nil
}

func (s *memStore) Delete(ctx context.Context, container, key string) error {
	s.record("delete")
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, container+"/"+key)
	return nil
}

func (s *memStore) Put(ctx context.Context, container, key string, body io.Reader, size int64, contentType string) error {
	s.record("put")
	if s.putDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.putDelay):
		}
	}
	s.mu.Lock()
	if s.putFailures > 0 {
		s.putFailures--
		s.mu.Unlock()
		return errors.New("service unavailable")
	}
	s.mu.Unlock()

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	if contentType != ContentTypeCSV {
		return errors.New("unexpected content type " + contentType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[container+"/"+key] = string(data)
	return nil
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Timeout: time.Second, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestUploadObjectCreates(t *testing.T) {
	store := newMemStore()
	u := NewUploader(store, fastPolicy(3), metrics.New(), zerolog.Nop())

	if err := u.UploadObject(context.Background(), "logs", "20240101/Log_20240101090000.csv", []byte("a,b\r\n")); err != nil {
		t.Fatalf("UploadObject: %v", err)
	}
	if got := store.objects["logs/20240101/Log_20240101090000.csv"]; got != "a,b\r\n" {
		t.Fatalf("stored: %q", got)
	}
	if strings.Join(store.calls, ",") != "exists,put" {
		t.Errorf("calls: %v", store.calls)
	}
}

func TestUploadObjectOverwrites(t *testing.T) {
	store := newMemStore()
	store.objects["logs/k.csv"] = "old"
	u := NewUploader(store, fastPolicy(3), metrics.New(), zerolog.Nop())

	if err := u.UploadObject(context.Background(), "logs", "k.csv", []byte("new")); err != nil {
		t.Fatalf("UploadObject: %v", err)
	}
	if store.objects["logs/k.csv"] != "new" {
		t.Fatalf("not overwritten: %q", store.objects["logs/k.csv"])
	}
	if strings.Join(store.calls, ",") != "exists,delete,put" {
		t.Errorf("calls: %v", store.calls)
	}
}

func TestUploadObjectRetries(t *testing.T) {
	store := newMemStore()
	store.putFailures = 2
	m := metrics.New()
	u := NewUploader(store, fastPolicy(5), m, zerolog.Nop())

	if err := u.UploadObject(context.Background(), "logs", "k.csv", []byte("x")); err != nil {
		t.Fatalf("UploadObject: %v", err)
	}
	if m.StoragePutErrorsTotal != 2 {
		t.Errorf("StoragePutErrorsTotal: got %d, want 2", m.StoragePutErrorsTotal)
	}
	if store.objects["logs/k.csv"] != "x" {
		t.Errorf("object missing after retry")
	}
}

func TestUploadObjectGivesUp(t *testing.T) {
	store := newMemStore()
	store.putFailures = 10
	m := metrics.New()
	u := NewUploader(store, fastPolicy(3), m, zerolog.Nop())

	err := u.UploadObject(context.Background(), "logs", "k.csv", []byte("x"))
	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Op != "upload" || !strings.Contains(err.Error(), "after 3 attempt(s)") {
		t.Errorf("unexpected error: %v", err)
	}
	if m.StoragePutErrorsTotal != 3 {
		t.Errorf("StoragePutErrorsTotal: got %d, want 3", m.StoragePutErrorsTotal)
	}
	if _, ok := store.objects["logs/k.csv"]; ok {
		t.Error("object stored despite failure")
	}
}

func TestUploadObjectExistsFailure(t *testing.T) {
	store := newMemStore()
	store.existsErr = errors.New("forbidden")
	u := NewUploader(store, fastPolicy(2), metrics.New(), zerolog.Nop())

	err := u.UploadObject(context.Background(), "logs", "k.csv", []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "exists: forbidden") {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range store.calls {
		if c == "put" {
			t.Fatal("put must not run when the existence check fails")
		}
	}
}

func TestUploadObjectAttemptTimeout(t *testing.T) {
	store := newMemStore()
	store.putDelay = time.Second
	policy := RetryPolicy{MaxAttempts: 2, Timeout: 20 * time.Millisecond, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	u := NewUploader(store, policy, metrics.New(), zerolog.Nop())

	start := time.Now()
	err := u.UploadObject(context.Background(), "logs", "k.csv", []byte("x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("per-attempt timeout not applied")
	}
}

func TestUploadObjectCancelled(t *testing.T) {
	store := newMemStore()
	u := NewUploader(store, fastPolicy(3), metrics.New(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := u.UploadObject(ctx, "logs", "k.csv", []byte("x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("store called after cancel: %v", store.calls)
	}
}

func TestNewUploaderNormalizesPolicy(t *testing.T) {
	u := NewUploader(newMemStore(), RetryPolicy{}, metrics.New(), zerolog.Nop())
	if u.policy.MaxAttempts != 1 || u.policy.BaseDelay != 200*time.Millisecond || u.policy.MaxDelay != 200*time.Millisecond {
		t.Fatalf("unexpected policy: %+v", u.policy)
	}
}
