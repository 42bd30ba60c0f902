// internal/query/window.go
package query

import (
	"errors"
	"time"

	"insights-export/internal/model"
)

// ErrInvertedWindow 는 month offset 이 양수라 시작일이 종료일보다 뒤가 되는 경우.
var ErrInvertedWindow = errors.New("window start is after window end")

// NewWindow
// ------------------------------------------------------------
// now 기준으로 [now + offsetMonths, now] 날짜 구간을 만든다.
// 시각 성분은 버리고 날짜만 남긴다 (시간 경계는 Build 에서 00:00:00 / 23:59:59 로 붙인다).
//
// offsetMonths 는 보통 음수 (예: -1 → 한 달 전부터 오늘까지).
func NewWindow(now time.Time, offsetMonths int) (model.QueryWindow, error) {
	to := dateOf(now)
	from := dateOf(AddMonths(now, offsetMonths))

	if from.After(to) {
		return model.QueryWindow{}, ErrInvertedWindow
	}
	return model.QueryWindow{From: from, To: to}, nil
}

// AddMonths 는 달력 기준 월 이동.
// 대상 월에 같은 일자가 없으면 그 달의 말일로 맞춘다 (3/31 - 1개월 = 2/28 또는 2/29).
// time.AddDate 는 3/31 - 1개월 = 3/3 으로 넘어가 버리므로 쓰지 않는다.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())

	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
