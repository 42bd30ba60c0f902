// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"insights-export/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
)

// New
//
// 프로세스 시작 시 main 에서 한 번 만들어 각 컴포넌트에 넘겨주는 로거.
// 전역 로거를 교체하지 않는다. 컴포넌트는 받은 로거에 component 필드를 붙여 쓴다.
//
// [주요 기능]
//
//  1. 로그 포맷 전환:
//     - LOG_PRETTY=true : 콘솔용 컬러 텍스트
//     - LOG_PRETTY=false: JSON (수집기 검색/분석용)
//
//  2. 공통 필드: 모든 로그에 "service", "instance"
//
//  3. 샘플링: LOG_SAMPLE_N > 1 이면 Debug/Info 를 N개 중 1개만 기록.
//     Warn/Error 는 샘플링하지 않는다. smoke 경로 (export.RunSmoke) 는 Sample(nil) 로 제외.
//
// 사용 예:
//
//	log := logger.New(cfg)
//	svc := export.NewService(..., log, ...)
func New(cfg config.Config) zerolog.Logger {
	return newWithWriter(cfg, output(cfg))
}

func output(cfg config.Config) io.Writer {
	if cfg.LogPretty {
		return zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}
	return os.Stdout
}

func newWithWriter(cfg config.Config, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err == nil && l != zerolog.NoLevel {
		level = l
	}

	base := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", cfg.InstanceID).
		Logger()

	logger := base
	if cfg.LogSampleN > 1 {
		logger = base.Sample(&zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: cfg.LogSampleN},
			InfoSampler:  &zerolog.BasicSampler{N: cfg.LogSampleN},
		})
	}

	return logger
}

// RedirectStd
//
// 표준 log 패키지 (config.Load 의 fail-fast 메시지, 외부 라이브러리 등) 출력도
// 같은 로거로 보낸다.
func RedirectStd(l zerolog.Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(l)
}

// Component 는 component 필드가 붙은 하위 로거.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
