// internal/export/naming.go
package export

import (
	"time"

	"insights-export/internal/model"
)

// ------------------------------------------------------------
// artifact 경로 규칙:
//
//	<yyyyMMdd>/Log_<yyyyMMddHHmmss>.csv
//
// 예:
//
//	20240131/Log_20240131093005.csv
//
// 날짜 디렉토리 아래 초 단위 파일명이라, 같은 초에 시작한 실행끼리만 충돌한다
// (충돌 시 나중 실행이 덮어쓴다).
// ------------------------------------------------------------

const (
	dirLayout  = "20060102"
	fileLayout = "20060102150405"
)

// ArtifactPath 는 실행 시작 시각 기준 업로드 경로.
func ArtifactPath(start time.Time) string {
	return start.Format(dirLayout) + "/Log_" + start.Format(fileLayout) + ".csv"
}

// NewArtifact 는 업로드 대상 하나를 만든다.
func NewArtifact(container string, start time.Time, body []byte) model.Artifact {
	return model.Artifact{
		Container: container,
		Path:      ArtifactPath(start),
		Body:      body,
	}
}
