package pools

import (
	"sync"
	"sync/atomic"
)

// Buffer pool sizes
const (
	SmallBufferSize  = 512       // status line plus a few headers
	MediumBufferSize = 4 * 1024  // typical small bodies
	LargeBufferSize  = 32 * 1024 // anything larger is not pooled
)

// BufferPool hands out encode buffers in three size tiers
type BufferPool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool

	// Statistics
	totalGets atomic.Uint64
	totalPuts atomic.Uint64
}

func newTier(size int) sync.Pool {
	return sync.Pool{
		New: func() any {
			buf := make([]byte, 0, size)
			return &buf
		},
	}
}

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	return &BufferPool{
		small:  newTier(SmallBufferSize),
		medium: newTier(MediumBufferSize),
		large:  newTier(LargeBufferSize),
	}
}

// Get acquires an empty buffer whose capacity fits estimatedSize when possible
func (bp *BufferPool) Get(estimatedSize int) *[]byte {
	bp.totalGets.Add(1)

	switch {
	case estimatedSize <= SmallBufferSize:
		return bp.small.Get().(*[]byte)
	case estimatedSize <= MediumBufferSize:
		return bp.medium.Get().(*[]byte)
	case estimatedSize <= LargeBufferSize:
		return bp.large.Get().(*[]byte)
	default:
		buf := make([]byte, 0, estimatedSize)
		return &buf
	}
}

// Put returns a buffer to the tier matching its capacity
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}

	// Reset buffer but keep capacity
	*buf = (*buf)[:0]

	switch c := cap(*buf); {
	case c > LargeBufferSize:
		return // Oversized buffers are left to the GC
	case c >= LargeBufferSize:
		bp.large.Put(buf)
	case c >= MediumBufferSize:
		bp.medium.Put(buf)
	case c >= SmallBufferSize:
		bp.small.Put(buf)
	default:
		return
	}
	bp.totalPuts.Add(1)
}

// Stats returns buffer pool statistics
func (bp *BufferPool) Stats() BufferStats {
	return BufferStats{
		TotalGets: bp.totalGets.Load(),
		TotalPuts: bp.totalPuts.Load(),
	}
}

// BufferStats contains buffer pool statistics
type BufferStats struct {
	TotalGets uint64
	TotalPuts uint64
}

// Global buffer pool
var globalBufferPool = NewBufferPool()

// AcquireBuffer gets a buffer from the global pool
func AcquireBuffer(estimatedSize int) *[]byte {
	return globalBufferPool.Get(estimatedSize)
}

// ReleaseBuffer returns a buffer to the global pool
func ReleaseBuffer(buf *[]byte) {
	globalBufferPool.Put(buf)
}

// GlobalBufferStats returns statistics for the buffers behind AcquireBuffer
func GlobalBufferStats() BufferStats {
	return globalBufferPool.Stats()
}
