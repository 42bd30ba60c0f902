// internal/decode/decoder.go
package decode

import (
	"fmt"
	"strings"

	"insights-export/internal/model"
)

// Decoder 는 ResultDocument 를 평탄한 model.Table 로 바꾼다.
// rules 는 컬럼명 → 값 변환 규칙.
type Decoder struct {
	rules map[string]Normalizer
}

type Option func(*Decoder)

// WithRule 은 컬럼 규칙을 추가/교체한다.
func WithRule(column string, n Normalizer) Option {
	return func(d *Decoder) {
		d.rules[column] = n
	}
}

// NewDecoder 는 기본적으로 "timestamp" 컬럼에 UTC → JST 변환을 건다.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		rules: map[string]Normalizer{
			TimestampColumn: NewJSTNormalizer(),
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode
// ------------------------------------------------------------
// 모든 layer 를 문서 순서대로 돌며 row 를 하나의 테이블에 이어 붙인다.
//
//   - layer 0 개 → 컬럼 0, row 0 (정상)
//   - row 가 없는 layer 도 컬럼 검증에는 참여한다
//   - 두 번째 이후 layer 의 컬럼 구성이 첫 layer 와 다르면 DecodeError
//     (위치 기반으로 다른 컬럼에 값이 섞여 들어가는 것을 막는다)
//   - 셀 개수 ≠ 컬럼 개수 → DecodeError
//   - null 셀은 빈 문자열로 본다 (문자열 "null" 아님). 규칙이 없는 컬럼은 null 로 남는다
//   - 규칙이 있는 컬럼의 null 은 빈 문자열로 규칙에 넘긴다 (timestamp 는 실패)
//   - 규칙 실패 → NormalizationError, 부분 테이블은 반환하지 않는다
func (d *Decoder) Decode(doc model.ResultDocument) (*model.Table, error) {
	table := &model.Table{
		Columns: []string{},
		Rows:    []model.Row{},
	}

	for li, layer := range doc.Layers {
		names := make([]string, len(layer.Columns))
		for i, c := range layer.Columns {
			names[i] = c.Name
		}

		if li == 0 {
			table.Columns = names
		} else if !sameColumns(table.Columns, names) {
			return nil, &model.DecodeError{
				Layer: li,
				Row:   -1,
				Reason: fmt.Sprintf("columns [%s] differ from layer 0 columns [%s]",
					strings.Join(names, ","), strings.Join(table.Columns, ",")),
			}
		}

		rules := make([]Normalizer, len(names))
		for i, name := range names {
			rules[i] = d.rules[name]
		}

		for ri, raw := range layer.Rows {
			row, err := decodeRow(li, ri, names, rules, raw)
			if err != nil {
				return nil, err
			}
			table.Rows = append(table.Rows, row)
		}
	}

	return table, nil
}

func decodeRow(li, ri int, names []string, rules []Normalizer, raw []model.RawCell) (model.Row, error) {
	if len(raw) != len(names) {
		return nil, &model.DecodeError{
			Layer:  li,
			Row:    ri,
			Reason: fmt.Sprintf("row has %d cells, layer has %d columns", len(raw), len(names)),
		}
	}

	row := make(model.Row, len(raw))
	for ci, cell := range raw {
		n := rules[ci]
		if cell.Kind == model.CellNull && n == nil {
			row[ci] = model.NullCell
			continue
		}

		v := cell.Text
		if n != nil {
			nv, err := n.Normalize(v)
			if err != nil {
				return nil, &model.NormalizationError{
					Column: names[ci],
					Layer:  li,
					Row:    ri,
					Value:  v,
					Err:    err,
				}
			}
			v = nv
		}
		row[ci] = model.Cell{Value: v}
	}
	return row, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DecodeBody 는 ParseDocument + Decode.
func (d *Decoder) DecodeBody(body []byte) (*model.Table, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, err
	}
	return d.Decode(doc)
}
