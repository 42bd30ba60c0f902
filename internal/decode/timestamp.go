// internal/decode/timestamp.go
package decode

import (
	"fmt"
	"strings"
	"time"
)

// TimestampColumn 은 시간대 변환 대상 컬럼명 (대소문자 구분, 완전 일치).
const TimestampColumn = "timestamp"

// JST 는 일본 표준시. DST 가 없으므로 고정 offset 으로 충분하다.
var JST = time.FixedZone("JST", 9*60*60)

// OutputLayout 은 변환된 timestamp 의 출력 형식.
const OutputLayout = "2006-01-02 15:04:05"

// Normalizer 는 특정 컬럼 값을 다시 쓰는 규칙.
type Normalizer interface {
	Normalize(raw string) (string, error)
}

// TimestampNormalizer
// ------------------------------------------------------------
// UTC ISO-8601 instant → Location 기준 벽시계 시각 문자열.
// query API 는 "2024-01-01T00:00:00.1234567Z" 처럼 7자리 소수초를 보내는데,
// 출력 형식은 초 단위까지만 남긴다.
type TimestampNormalizer struct {
	Location *time.Location
	Layout   string
}

// NewJSTNormalizer 는 기본 규칙 (UTC → JST, OutputLayout).
func NewJSTNormalizer() TimestampNormalizer {
	return TimestampNormalizer{Location: JST, Layout: OutputLayout}
}

func (n TimestampNormalizer) Normalize(raw string) (string, error) {
	t, err := ParseInstant(raw)
	if err != nil {
		return "", err
	}
	loc := n.Location
	if loc == nil {
		loc = JST
	}
	layout := n.Layout
	if layout == "" {
		layout = OutputLayout
	}
	return t.In(loc).Format(layout), nil
}

// offset 이 없는 형식은 UTC 로 해석한다.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
}

// ParseInstant 는 ISO-8601 instant 를 파싱한다.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 instant: %q", s)
}
