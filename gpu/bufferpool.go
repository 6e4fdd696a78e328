package gpu

import "math/bits"

const (
	minBucketSize int64 = 256
	maxBucketSize int64 = 64 * 1024 * 1024
)

// bucketSize is the single formula used by both allocation and release so
// the two paths can never drift out of sync (resolving the Open Question
// in spec.md §9): the next power of two ≥ requested, clamped to
// [minBucketSize, maxBucketSize].
func bucketSize(requested int64) int64 {
	if requested <= minBucketSize {
		return minBucketSize
	}
	if requested >= maxBucketSize {
		return maxBucketSize
	}
	next := int64(1) << uint(bits.Len64(uint64(requested-1)))
	if next > maxBucketSize {
		return maxBucketSize
	}
	return next
}

// pooledBuffer is one bucket-sized dynamic buffer handed out and returned
// to a BufferPool.
type pooledBuffer struct {
	handle      BufferHandle
	bucket      int64
	requested   int64 // original caller size, kept for accounting parity
}

// BufferPool recycles vertex/index dynamic buffers bucketed by size so a
// release always returns the full bucket capacity to the free list, not
// just the originally requested size.
type BufferPool struct {
	free map[int64][]BufferHandle
}

func NewBufferPool() *BufferPool {
	return &BufferPool{free: make(map[int64][]BufferHandle)}
}

// Acquire returns a free handle from requested's bucket if one exists, the
// bucket size it should be (allocated at) if none is free, and whether a
// recycled handle was returned.
func (p *BufferPool) Acquire(requested int64) (handle BufferHandle, bucket int64, reused bool) {
	bucket = bucketSize(requested)
	bucketFree := p.free[bucket]
	if len(bucketFree) == 0 {
		return 0, bucket, false
	}
	handle = bucketFree[len(bucketFree)-1]
	p.free[bucket] = bucketFree[:len(bucketFree)-1]
	return handle, bucket, true
}

// Release returns handle to its bucket's free list. requested must be the
// same size originally passed to Acquire so the bucket is recomputed
// identically on both paths.
func (p *BufferPool) Release(handle BufferHandle, requested int64) {
	bucket := bucketSize(requested)
	p.free[bucket] = append(p.free[bucket], handle)
}
