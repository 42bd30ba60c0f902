// internal/pool/pool.go
package pool

import (
	"bytes"
	"sync"
)

// ---------------------------------------------------------------
// Pool 구성 목적
//
// CSV 인코딩 결과는 수 MB 까지 커질 수 있어서
// 매 실행마다 버퍼를 새로 키우면 재할당이 반복된다.
// 스케줄 실행이 이어지는 동안 버퍼를 재사용한다.
// ---------------------------------------------------------------

// BufferPool:
//   - CSV 인코딩 결과를 담는 임시 버퍼
//   - 초기 용량 256KB
//   - MaxBufferCap 초과 버퍼는 풀에 넣지 않음
var BufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 256*1024))
	},
}

// Pool에 되돌려줄 최대 버퍼 용량.
// 이보다 큰 버퍼는 GC에 맡긴다.
const MaxBufferCap = 8 * 1024 * 1024 // 8MB

// GetBuffer 는 비어 있는 버퍼를 꺼낸다.
func GetBuffer() *bytes.Buffer {
	buf := BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer:
//   - MaxBufferCap 이하이면 풀에 재사용
//   - 호출 후 buf 내용을 참조하면 안 된다 (caller 는 먼저 복사할 것)
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= MaxBufferCap {
		buf.Reset()
		BufferPool.Put(buf)
	}
}
