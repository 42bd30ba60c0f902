// internal/storage/store.go
package storage

import (
	"context"
	"fmt"

	"insights-export/internal/config"
)

// NewStore 는 STORAGE_BACKEND 에 맞는 ObjectStore 를 만든다.
func NewStore(ctx context.Context, cfg config.Config) (ObjectStore, error) {
	switch cfg.StorageBackend {
	case config.BackendS3:
		return NewS3Store(ctx, S3Options{
			Region:    cfg.AWSRegion,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case config.BackendMinio:
		return NewMinioStore(MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Region:    cfg.AWSRegion,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// PolicyFromConfig 는 config 의 retry 설정을 RetryPolicy 로 옮긴다.
func PolicyFromConfig(cfg config.Config) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.StorageMaxRetries,
		Timeout:     cfg.StorageTimeout,
		MaxDelay:    cfg.StorageMaxDelay,
	}
}
