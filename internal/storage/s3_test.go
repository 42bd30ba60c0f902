package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"insights-export/internal/metrics"

	"github.com/rs/zerolog"
)

// fakeS3 는 path-style 요청만 처리하는 최소 S3 서버.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	methods []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.methods = append(f.methods, r.Method)
	key := strings.TrimPrefix(r.URL.Path, "/")

	switch r.Method {
	case http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Last-Modified", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj)))
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = string(data)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3StoreOverwrite(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	fake := &fakeS3{objects: map[string]string{"logs/20240101/Log_20240101090000.csv": "old"}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store, err := NewS3Store(context.Background(), S3Options{Region: "ap-northeast-1", Endpoint: srv.URL, PathStyle: true, AccessKey: "test", SecretKey: "test"})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}

	u := NewUploader(store, RetryPolicy{MaxAttempts: 1, Timeout: 5 * time.Second}, metrics.New(), zerolog.Nop())
	if err := u.UploadObject(context.Background(), "logs", "20240101/Log_20240101090000.csv", []byte("a,b\r\n")); err != nil {
		t.Fatalf("UploadObject: %v", err)
	}

	if got := fake.objects["logs/20240101/Log_20240101090000.csv"]; got != "a,b\r\n" {
		t.Errorf("stored body: %q", got)
	}
	if got := strings.Join(fake.methods, ","); got != "HEAD,DELETE,PUT" {
		t.Errorf("methods: %s", got)
	}
}

func TestS3StoreExistsMissing(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	srv := httptest.NewServer(&fakeS3{objects: map[string]string{}})
	defer srv.Close()

	store, err := NewS3Store(context.Background(), S3Options{Region: "us-east-1", Endpoint: srv.URL, PathStyle: true, AccessKey: "test", SecretKey: "test"})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	ok, err := store.Exists(context.Background(), "logs", "nope.csv")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatal("expected missing object")
	}
}

func TestNewMinioStore(t *testing.T) {
	if _, err := NewMinioStore(MinioOptions{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}); err != nil {
		t.Fatalf("NewMinioStore: %v", err)
	}
}

func TestMinioStoreOverwrite(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"logs/20240101/Log_20240101090000.csv": "old"}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store, err := NewMinioStore(MinioOptions{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "test",
		SecretKey: "test",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewMinioStore: %v", err)
	}

	up := NewUploader(store, RetryPolicy{MaxAttempts: 1, Timeout: 5 * time.Second}, metrics.New(), zerolog.Nop())
	if err := up.UploadObject(context.Background(), "logs", "20240101/Log_20240101090000.csv", []byte("a,b\r\n")); err != nil {
		t.Fatalf("UploadObject: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	// body 는 서명 방식에 따라 chunk 로 감싸질 수 있으므로 호출 순서만 본다.
	if got := strings.Join(fake.methods, ","); got != "HEAD,DELETE,PUT" {
		t.Errorf("methods: %s", got)
	}
	if got := fake.objects["logs/20240101/Log_20240101090000.csv"]; got == "old" {
		t.Error("object was not replaced")
	}
}
