// internal/model/errors.go
package model

import (
	"fmt"
	"strconv"
)

// ------------------------------------------------------------
// 추출 파이프라인 오류 분류
//
//   - ConfigurationError : 환경변수 누락/형식 오류 (네트워크 호출 전)
//   - TransportError     : query API / 스토리지 I/O 실패
//   - DecodeError        : 응답 document 구조 위반
//   - NormalizationError : timestamp 컬럼 파싱 실패
//
// 모든 단계는 fail-fast 이며 오류는 trigger 경계까지 그대로 전파된다.
// ------------------------------------------------------------

type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TransportError
// Status 는 HTTP 응답이 있었던 경우에만 0 이 아니다.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error: %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError
// Layer 는 문제가 된 layer index, document 수준 오류는 -1.
// Row 는 row 단위 오류일 때만 >= 0.
type DecodeError struct {
	Layer  int
	Row    int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	where := "document"
	if e.Layer >= 0 {
		where = "layer " + strconv.Itoa(e.Layer)
		if e.Row >= 0 {
			where += " row " + strconv.Itoa(e.Row)
		}
	}
	msg := fmt.Sprintf("decode error: %s: %s", where, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

type NormalizationError struct {
	Column string
	Layer  int
	Row    int
	Value  string
	Err    error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalization error: column %q layer %d row %d value %q: %v",
		e.Column, e.Layer, e.Row, e.Value, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }
