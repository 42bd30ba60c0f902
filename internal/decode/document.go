// internal/decode/document.go
package decode

import (
	"bytes"

	"insights-export/internal/model"

	json "github.com/goccy/go-json"
)

// 응답 wire 형태.
// 포인터 필드는 멤버 누락(또는 null)을 구분하기 위한 것이다.
type documentWire struct {
	Tables *[]json.RawMessage `json:"tables"`
}

type layerWire struct {
	Name    string             `json:"name"`
	Columns *[]model.Column    `json:"columns"`
	Rows    *[]json.RawMessage `json:"rows"`
}

// ParseDocument
// ------------------------------------------------------------
// query API 응답 body 를 ResultDocument 로 변환한다.
//
// 구조 검증:
//   - body 는 JSON object 여야 한다
//   - "tables" 배열이 있어야 한다 (빈 배열은 정상)
//   - 각 layer 는 object 이고 "columns" / "rows" 를 가져야 한다
//     (컬럼명은 검사하지 않는다. 빈 이름, 중복 모두 그대로 둔다)
//   - 각 row 는 배열이어야 한다
//
// 위반 시 layer index 를 담은 *model.DecodeError 를 반환한다.
func ParseDocument(body []byte) (model.ResultDocument, error) {
	if !startsWith(body, '{') {
		return model.ResultDocument{}, docErr("response body is not a JSON object", nil)
	}

	var doc documentWire
	if err := json.Unmarshal(body, &doc); err != nil {
		return model.ResultDocument{}, docErr("malformed response body", err)
	}
	if doc.Tables == nil {
		return model.ResultDocument{}, docErr(`missing "tables" member`, nil)
	}

	out := model.ResultDocument{Layers: make([]model.Layer, 0, len(*doc.Tables))}
	for li, raw := range *doc.Tables {
		layer, err := parseLayer(li, raw)
		if err != nil {
			return model.ResultDocument{}, err
		}
		out.Layers = append(out.Layers, layer)
	}
	return out, nil
}

func parseLayer(li int, raw json.RawMessage) (model.Layer, error) {
	if !startsWith(raw, '{') {
		return model.Layer{}, layerErr(li, -1, "layer is not a JSON object", nil)
	}

	var lw layerWire
	if err := json.Unmarshal(raw, &lw); err != nil {
		return model.Layer{}, layerErr(li, -1, "malformed layer", err)
	}
	if lw.Columns == nil {
		return model.Layer{}, layerErr(li, -1, `missing "columns" member`, nil)
	}
	if lw.Rows == nil {
		return model.Layer{}, layerErr(li, -1, `missing "rows" member`, nil)
	}

	layer := model.Layer{
		Name:    lw.Name,
		Columns: *lw.Columns,
		Rows:    make([][]model.RawCell, 0, len(*lw.Rows)),
	}

	for ri, rowRaw := range *lw.Rows {
		if !startsWith(rowRaw, '[') {
			return model.Layer{}, layerErr(li, ri, "row is not a JSON array", nil)
		}
		var cells []model.RawCell
		if err := json.Unmarshal(rowRaw, &cells); err != nil {
			return model.Layer{}, layerErr(li, ri, "malformed row", err)
		}
		layer.Rows = append(layer.Rows, cells)
	}

	return layer, nil
}

func startsWith(b []byte, c byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == c
}

func docErr(reason string, err error) error {
	return &model.DecodeError{Layer: -1, Row: -1, Reason: reason, Err: err}
}

func layerErr(layer, row int, reason string, err error) error {
	return &model.DecodeError{Layer: layer, Row: row, Reason: reason, Err: err}
}
