package gpu

import "testing"

func TestBucketSize_ClampsBelowMinimum(t *testing.T) {
	if got := bucketSize(1); got != minBucketSize {
		t.Errorf("bucketSize(1) = %d, want %d", got, minBucketSize)
	}
}

func TestBucketSize_ClampsAboveMaximum(t *testing.T) {
	if got := bucketSize(maxBucketSize * 2); got != maxBucketSize {
		t.Errorf("bucketSize(2*max) = %d, want %d", got, maxBucketSize)
	}
}

func TestBucketSize_RoundsUpToNextPowerOfTwo(t *testing.T) {
	cases := []struct{ requested, want int64 }{
		{minBucketSize + 1, minBucketSize * 2},
		{1000, 1024},
		{1024, 1024},
		{1025, 2048},
	}
	for _, c := range cases {
		if got := bucketSize(c.requested); got != c.want {
			t.Errorf("bucketSize(%d) = %d, want %d", c.requested, got, c.want)
		}
	}
}

func TestBufferPool_AcquireMissThenReleaseThenHit(t *testing.T) {
	p := NewBufferPool()
	_, bucket, reused := p.Acquire(900)
	if reused {
		t.Fatal("first acquire for an empty pool must not report reused")
	}
	if bucket != 1024 {
		t.Errorf("bucket = %d, want 1024", bucket)
	}

	p.Release(BufferHandle(42), 900)

	h, bucket2, reused2 := p.Acquire(1000) // same bucket, different requested size
	if !reused2 {
		t.Fatal("acquiring from a non-empty bucket must report reused")
	}
	if h != 42 {
		t.Errorf("handle = %d, want 42", h)
	}
	if bucket2 != bucket {
		t.Errorf("bucket2 = %d, want %d", bucket2, bucket)
	}
}
