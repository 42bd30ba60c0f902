// internal/model/document.go
package model

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// CellKind
// ------------------------------------------------------------
// 쿼리 응답 셀의 JSON 타입 태그.
// 응답 스키마는 컴파일 타임에 알 수 없으므로 셀마다 타입을 기록해 둔다.
type CellKind uint8

const (
	CellNull CellKind = iota
	CellString
	CellNumber
	CellBool
	CellDynamic // object / array (KQL dynamic 컬럼)
)

func (k CellKind) String() string {
	switch k {
	case CellNull:
		return "null"
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	case CellDynamic:
		return "dynamic"
	}
	return fmt.Sprintf("CellKind(%d)", uint8(k))
}

// RawCell 은 응답 row 안의 값 하나.
// Text 는 string 이면 unquote 된 값, 그 외에는 JSON 리터럴 원문(dynamic 은 compact).
type RawCell struct {
	Kind CellKind
	Text string
}

// UnmarshalJSON 은 셀 원문을 보고 Kind 를 결정한다.
// 숫자는 float 변환 없이 원문을 그대로 유지한다 (정밀도 손실 방지).
func (c *RawCell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty cell")
	}

	switch data[0] {
	case 'n':
		*c = RawCell{Kind: CellNull}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = RawCell{Kind: CellString, Text: s}
	case 't', 'f':
		*c = RawCell{Kind: CellBool, Text: string(data)}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*c = RawCell{Kind: CellDynamic, Text: buf.String()}
	default:
		*c = RawCell{Kind: CellNumber, Text: string(data)}
	}
	return nil
}

// Column 은 layer 의 컬럼 descriptor.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Layer
// ------------------------------------------------------------
// 응답 document 의 테이블 한 장 (예: "PrimaryResult").
// Rows 의 각 원소는 같은 layer 의 Columns 와 위치(index)로 대응한다.
type Layer struct {
	Name    string
	Columns []Column
	Rows    [][]RawCell
}

// ResultDocument 는 query API 응답 전체.
type ResultDocument struct {
	Layers []Layer
}
