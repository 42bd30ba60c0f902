// internal/model/artifact.go
package model

import "time"

// QueryWindow 는 쿼리 필터에 쓰이는 날짜 구간 (양끝 포함).
// From <= To 이어야 한다.
type QueryWindow struct {
	From time.Time
	To   time.Time
}

// QueryTemplate
// ------------------------------------------------------------
// 환경변수에서 읽은 KQL 조각 3개.
// 조립 순서는 항상 Main → Order → Filter 이며,
// TARGET_FROM / TARGET_TO 치환은 Filter 안에서만 일어난다.
type QueryTemplate struct {
	Main   string
	Order  string
	Filter string
}

// Artifact 는 한 번의 실행에서 만들어지는 업로드 대상.
type Artifact struct {
	Container string
	Path      string
	Body      []byte
}

// RunReport 는 추출 1회 결과 요약 (로그/응답용).
type RunReport struct {
	RunID     string
	Container string
	Path      string
	Window    QueryWindow
	Columns   int
	Rows      int
	Bytes     int
	StartedAt time.Time
	Duration  time.Duration
}
