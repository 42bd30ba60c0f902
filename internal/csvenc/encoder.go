// internal/csvenc/encoder.go
package csvenc

import (
	"bytes"
	"fmt"
	"strings"

	"insights-export/internal/model"
	"insights-export/internal/pool"
)

// 줄 끝 문자.
const (
	CRLF = "\r\n"
	LF   = "\n"
)

// Encoder 는 model.Table 을 CSV 텍스트로 직렬화한다.
//
// 인용 규칙은 헤더와 데이터가 다르다:
//   - 헤더 필드: NeedsQuoting 일 때만 "..." 로 감싼다
//   - 데이터 필드: 비어 있지 않으면 항상 감싼다, 빈 값은 감싸지 않는다
//
// 하위 시스템이 이 비대칭 형태로 파일을 읽고 있으므로 encoding/csv 로 대체하지 않는다.
type Encoder struct {
	lineEnding string
}

// NewEncoder 는 lineEnding 이 비어 있으면 CRLF 를 쓴다.
func NewEncoder(lineEnding string) *Encoder {
	if lineEnding == "" {
		lineEnding = CRLF
	}
	return &Encoder{lineEnding: lineEnding}
}

// Encode
// ------------------------------------------------------------
// includeHeader 가 true 면 컬럼명 한 줄 + row 마다 한 줄.
// 모든 줄은 lineEnding 으로 끝난다.
// 컬럼이 0 개면 각 줄은 빈 줄이 된다.
//
// 반환 slice 는 caller 소유 (pool 버퍼를 그대로 넘기지 않는다).
func (e *Encoder) Encode(t *model.Table, includeHeader bool) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	cols := len(t.Columns)

	if includeHeader {
		for i, name := range t.Columns {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeHeaderField(buf, name)
		}
		buf.WriteString(e.lineEnding)
	}

	for ri, row := range t.Rows {
		if len(row) != cols {
			return nil, fmt.Errorf("csv: row %d has %d cells, table has %d columns", ri, len(row), cols)
		}
		for i, cell := range row {
			if i > 0 {
				buf.WriteByte(',')
			}
			if v := cell.String(); v != "" {
				writeQuoted(buf, v)
			}
		}
		buf.WriteString(e.lineEnding)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// NeedsQuoting 은 헤더 필드 인용 여부.
// `"` `,` CR LF 를 포함하거나, 앞뒤가 공백/탭이면 true.
func NeedsQuoting(field string) bool {
	if strings.ContainsAny(field, "\",\r\n") {
		return true
	}
	if field == "" {
		return false
	}
	first, last := field[0], field[len(field)-1]
	return first == ' ' || first == '\t' || last == ' ' || last == '\t'
}

// Quote 는 `"` 를 `""` 로 바꾸고 전체를 `"` 로 감싼다.
func Quote(field string) string {
	var buf bytes.Buffer
	writeQuoted(&buf, field)
	return buf.String()
}

func writeHeaderField(buf *bytes.Buffer, field string) {
	if NeedsQuoting(field) {
		writeQuoted(buf, field)
		return
	}
	buf.WriteString(field)
}

func writeQuoted(buf *bytes.Buffer, field string) {
	buf.WriteByte('"')
	for {
		i := strings.IndexByte(field, '"')
		if i < 0 {
			buf.WriteString(field)
			break
		}
		buf.WriteString(field[:i+1])
		buf.WriteByte('"')
		field = field[i+1:]
	}
	buf.WriteByte('"')
}
