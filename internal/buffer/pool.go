// Package buffer provides pooled byte buffers for rendering log payloads.
package buffer

import (
	"bytes"
	"sync"
)

// maxPooledSize is the largest buffer returned to the pool. Event log
// payloads top out around 32K characters, so anything larger is a one-off.
const maxPooledSize = 64 * 1024

// BufferPool manages a pool of reusable byte buffers so rendering an event
// does not allocate a fresh buffer per call.
type BufferPool struct {
	pool     sync.Pool
	capacity int
}

// NewBufferPool creates a buffer pool with a 512 byte initial capacity.
func NewBufferPool() *BufferPool {
	return NewBufferPoolWithCapacity(512)
}

// NewBufferPoolWithCapacity creates a buffer pool with a specific initial capacity.
func NewBufferPoolWithCapacity(capacity int) *BufferPool {
	bp := &BufferPool{
		capacity: capacity,
	}
	bp.pool = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, capacity))
		},
	}
	return bp
}

// Get retrieves a clean buffer from the pool.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf, ok := bp.pool.Get().(*bytes.Buffer)
	if !ok {
		return bytes.NewBuffer(make([]byte, 0, bp.capacity))
	}
	buf.Reset()
	return buf
}

// Put returns a buffer to the pool. Buffers that grew beyond maxPooledSize
// are dropped.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledSize {
		return
	}
	buf.Reset()
	bp.pool.Put(buf)
}

// Default is the shared pool used by the payload renderer.
var Default = NewBufferPool()
