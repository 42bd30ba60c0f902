// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config
//
// 프로세스 시작 시 Load() 로 한 번 읽는 설정.
// 이후에는 변경되지 않는 read-only 값이다.
//
// 추출 실행마다 읽어야 하는 값 (KQL 조각, API key, 컨테이너 등)은
// 여기 두지 않고 LoadExtraction 에서 읽는다 (extraction.go 참고).
type Config struct {

	// ---------------------------
	// 서비스 식별자 / 네트워크
	// ---------------------------

	ServiceName string // 로그 service 필드
	InstanceID  string // 호스트명 기반, 실패 시 랜덤 hex
	HTTPAddr    string // trigger 서버 bind 주소 (예: ":8080")
	TriggerKey  string // 비어 있지 않으면 /api/* 호출 시 필요한 key

	// ---------------------------
	// 로그
	// ---------------------------

	LogLevel   string
	LogPretty  bool
	LogSampleN uint32

	// ---------------------------
	// Query API
	// ---------------------------

	QueryBaseURL string        // 예: https://api.applicationinsights.io
	QueryTimeout time.Duration // 요청 1회 timeout

	// ---------------------------
	// 스토리지
	// ---------------------------
	// Retry 는 스토리지 계층에서만 수행한다.
	// SDK 자체 retry 는 끄고 StorageMaxRetries / StorageMaxDelay 로 통일.

	StorageBackend    string        // "s3" | "minio"
	AWSRegion         string        // s3 backend
	S3Endpoint        string        // S3 호환 endpoint (비어 있으면 AWS 기본)
	S3PathStyle       bool          // path-style addressing
	S3AccessKey       string        // 선택. 비어 있으면 AWS 기본 credential chain
	S3SecretKey       string        //
	MinioEndpoint     string        // minio backend
	MinioAccessKey    string        //
	MinioSecretKey    string        //
	MinioUseSSL       bool          //
	StorageTimeout    time.Duration // 시도 1회당 timeout
	StorageMaxRetries int           // 최대 시도 횟수
	StorageMaxDelay   time.Duration // backoff 상한

	// ---------------------------
	// 추출 작업
	// ---------------------------

	CSVLineEnding  string         // "\r\n" 또는 "\n"
	TimeZone       *time.Location // window / 파일명 계산 기준 시간대
	ExportInterval time.Duration  // 0 이면 스케줄 실행 없음 (trigger 만)
}

const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// Load
//
// 환경 변수 기반으로 Config 값을 초기화한다.
// 필수 env 가 비어있거나 형식이 잘못되면 즉시 프로세스를 종료(fail-fast).
func Load() Config {
	cfg := Config{
		ServiceName: optional("SERVICE_NAME", "insights-export"),
		InstanceID:  fallbackInstanceID(),
		HTTPAddr:    optional("HTTP_ADDR", ":8080"),
		TriggerKey:  os.Getenv("TRIGGER_KEY"),

		LogLevel:   optional("LOG_LEVEL", "info"),
		LogPretty:  optionalBool("LOG_PRETTY", false),
		LogSampleN: uint32(optionalInt("LOG_SAMPLE_N", 1)),

		QueryBaseURL: strings.TrimRight(optional("KQL_API_BASE_URL", "https://api.applicationinsights.io"), "/"),
		QueryTimeout: optionalDur("KQL_TIMEOUT", 100*time.Second),

		StorageBackend:    strings.ToLower(optional("STORAGE_BACKEND", BackendS3)),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3PathStyle:       optionalBool("S3_PATH_STYLE", false),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
		StorageTimeout:    optionalDur("STORAGE_TIMEOUT", 30*time.Second),
		StorageMaxRetries: optionalInt("STORAGE_MAX_RETRIES", 5),
		StorageMaxDelay:   optionalDur("STORAGE_MAX_DELAY", 120*time.Second),

		CSVLineEnding:  lineEnding(optional("CSV_LINE_ENDING", "crlf")),
		TimeZone:       location(optional("JOB_TIME_ZONE", "Local")),
		ExportInterval: optionalDur("EXPORT_INTERVAL", 0),
	}

	switch cfg.StorageBackend {
	case BackendS3:
		cfg.AWSRegion = must("AWS_REGION")
	case BackendMinio:
		cfg.AWSRegion = os.Getenv("AWS_REGION")
		cfg.MinioEndpoint = must("MINIO_ENDPOINT")
		cfg.MinioAccessKey = must("MINIO_ACCESS_KEY")
		cfg.MinioSecretKey = must("MINIO_SECRET_KEY")
		cfg.MinioUseSSL = optionalBool("MINIO_USE_SSL", true)
	default:
		log.Fatalf("invalid STORAGE_BACKEND=%q (want s3 or minio)", cfg.StorageBackend)
	}

	if cfg.StorageMaxRetries < 1 {
		log.Fatalf("invalid STORAGE_MAX_RETRIES=%d: must be >= 1", cfg.StorageMaxRetries)
	}

	return cfg
}

// must / mustInt / mustDur
//
// 필수 환경변수가 없거나 형식이 잘못되면 즉시 로그 출력 후 종료(fail-fast).
func must(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing required env: %s", key)
	}
	return v
}

// optional / optionalInt / optionalBool / optionalDur
//
// 값이 없으면 기본값. 값이 있는데 형식이 틀리면 fail-fast.
func optional(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func optionalInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int env %s=%q: %v", key, v, err)
	}
	return n
}

func optionalBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("invalid bool env %s=%q: %v", key, v, err)
	}
	return b
}

func optionalDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration env %s=%q: %v", key, v, err)
	}
	return d
}

func lineEnding(v string) string {
	switch strings.ToLower(v) {
	case "crlf":
		return "\r\n"
	case "lf":
		return "\n"
	}
	log.Fatalf("invalid CSV_LINE_ENDING=%q (want crlf or lf)", v)
	return ""
}

func location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid JOB_TIME_ZONE=%q: %v", name, err)
	}
	return loc
}

// fallbackInstanceID
//
// 인스턴스 식별 값.
//   - 기본: hostname
//   - fallback: 12자리 랜덤 hex
func fallbackInstanceID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
