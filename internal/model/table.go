// internal/model/table.go
package model

// Cell 은 정규화된 테이블의 nullable 문자열 값.
type Cell struct {
	Value string
	Null  bool
}

// NullCell 은 값이 없는 셀.
var NullCell = Cell{Null: true}

// String 은 CSV 출력 기준 텍스트 (null → "").
func (c Cell) String() string {
	if c.Null {
		return ""
	}
	return c.Value
}

// Row 는 컬럼 순서와 동일한 위치 기반 셀 목록.
type Row []Cell

// Table
// ------------------------------------------------------------
// 디코딩이 끝난 균일한 row/column 테이블.
// 컬럼명은 중복이 허용되므로 map 이 아닌 위치 기반으로 보관한다.
// 모든 row 는 len(Columns) 개의 셀을 가진다.
type Table struct {
	Columns []string
	Rows    []Row
}

// Get 은 이름이 name 인 첫 번째 컬럼의 셀을 돌려준다.
func (t *Table) Get(row int, name string) (Cell, bool) {
	if row < 0 || row >= len(t.Rows) {
		return Cell{}, false
	}
	for i, c := range t.Columns {
		if c == name {
			if i < len(t.Rows[row]) {
				return t.Rows[row][i], true
			}
			return Cell{}, false
		}
	}
	return Cell{}, false
}
