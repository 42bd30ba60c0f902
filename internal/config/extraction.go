// internal/config/extraction.go
package config

import (
	"os"
	"strconv"
	"strings"

	"insights-export/internal/model"
)

// 추출 실행마다 읽는 환경변수 키.
const (
	EnvAppID       = "KQL_APPLICATION_ID"
	EnvAPIKey      = "KQL_APPLICATION_API_KEY"
	EnvQueryMain   = "KQL_MAIN_QUERY_REGION"
	EnvQueryOrder  = "KQL_ORDER_BY_REGION"
	EnvQueryWhere  = "KQL_WHERE_REGION"
	EnvMonthOffset = "KQL_WHERE_REGION_TIME_SPAN"
	EnvContainer   = "BLOB_CONTAINER_NAME_OPE_LOG"
)

// Extraction 은 추출 1회에 필요한 입력.
type Extraction struct {
	AppID       string
	APIKey      string
	Template    model.QueryTemplate
	MonthOffset int
	Container   string
}

// LookupFunc 는 os.LookupEnv 와 같은 모양. 테스트에서 map 으로 대체한다.
type LookupFunc func(key string) (string, bool)

// EnvLookup 은 프로세스 환경변수.
var EnvLookup LookupFunc = os.LookupEnv

// LoadExtraction
//
// Load() 와 달리 프로세스를 죽이지 않고 *model.ConfigurationError 를 반환한다.
// 설정 누락은 해당 실행만 실패시키고, trigger 응답으로 보고된다.
//
//   - KQL 조각 3개: 존재해야 함 (빈 문자열 허용, 예: ORDER BY 없음)
//   - 나머지: 존재하고 비어 있지 않아야 함
//   - month offset: 부호 있는 정수
func LoadExtraction(lookup LookupFunc) (Extraction, error) {
	if lookup == nil {
		lookup = EnvLookup
	}

	var ex Extraction
	var err error

	if ex.AppID, err = required(lookup, EnvAppID); err != nil {
		return Extraction{}, err
	}
	if ex.APIKey, err = required(lookup, EnvAPIKey); err != nil {
		return Extraction{}, err
	}
	if ex.Template.Main, err = present(lookup, EnvQueryMain); err != nil {
		return Extraction{}, err
	}
	if ex.Template.Order, err = present(lookup, EnvQueryOrder); err != nil {
		return Extraction{}, err
	}
	if ex.Template.Filter, err = present(lookup, EnvQueryWhere); err != nil {
		return Extraction{}, err
	}

	span, err := required(lookup, EnvMonthOffset)
	if err != nil {
		return Extraction{}, err
	}
	ex.MonthOffset, err = strconv.Atoi(strings.TrimSpace(span))
	if err != nil {
		return Extraction{}, &model.ConfigurationError{Key: EnvMonthOffset, Reason: "not a valid integer", Err: err}
	}

	if ex.Container, err = required(lookup, EnvContainer); err != nil {
		return Extraction{}, err
	}

	return ex, nil
}

func present(lookup LookupFunc, key string) (string, error) {
	v, ok := lookup(key)
	if !ok {
		return "", &model.ConfigurationError{Key: key, Reason: "not set"}
	}
	return v, nil
}

func required(lookup LookupFunc, key string) (string, error) {
	v, err := present(lookup, key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", &model.ConfigurationError{Key: key, Reason: "empty"}
	}
	return v, nil
}
