// internal/query/builder.go
package query

import (
	"strings"

	"insights-export/internal/model"
)

// Filter 조각 안의 placeholder 토큰.
const (
	TokenFrom = "TARGET_FROM"
	TokenTo   = "TARGET_TO"
)

const dateLayout = "2006-01-02"

// Build
// ------------------------------------------------------------
// KQL 조립:
//  1. From → "yyyy-MM-dd 00:00:00", To → "yyyy-MM-dd 23:59:59"
//  2. Filter 조각의 TARGET_FROM / TARGET_TO 를 모두 치환
//  3. Main + Order + Filter 를 구분자 없이 이어 붙임
//
// 치환 값은 날짜 포맷터 출력이라 토큰 문자열을 포함할 수 없으므로 escape 하지 않는다.
func Build(t model.QueryTemplate, w model.QueryWindow) string {
	from := FormatFrom(w)
	to := FormatTo(w)

	filter := strings.ReplaceAll(t.Filter, TokenFrom, from)
	filter = strings.ReplaceAll(filter, TokenTo, to)

	var sb strings.Builder
	sb.Grow(len(t.Main) + len(t.Order) + len(filter))
	sb.WriteString(t.Main)
	sb.WriteString(t.Order)
	sb.WriteString(filter)
	return sb.String()
}

// FormatFrom 은 구간 시작 경계 문자열.
func FormatFrom(w model.QueryWindow) string {
	return w.From.Format(dateLayout) + " 00:00:00"
}

// FormatTo 는 구간 종료 경계 문자열.
func FormatTo(w model.QueryWindow) string {
	return w.To.Format(dateLayout) + " 23:59:59"
}
