package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUTimer is implemented by backends that support timestamp queries.
// FrameRenderer type-asserts its Backend to this — not every backend need
// support GPU timing (§4.10's capability model), so a backend without
// query-set support simply skips the measurement rather than failing.
type GPUTimer interface {
	// BeginTimestamp writes the frame-start timestamp for slot into the
	// current frame's command encoder.
	BeginTimestamp(slot int) error
	// EndTimestamp writes the frame-end timestamp, resolves both queries
	// into a mappable buffer, and kicks off its async map. The result
	// becomes available through PollTimestamp once the map resolves.
	EndTimestamp(slot int) error
	// PollTimestamp reports whether slot's GPU time is ready yet, and if
	// so, the elapsed time in milliseconds.
	PollTimestamp(slot int) (ms float64, ready bool)
}

const timestampsPerSlot = 2 // one at pass start, one at pass end

type timestampSlot struct {
	querySet *wgpu.QuerySet
	resolve  *wgpu.Buffer // GPU-local copy target for ResolveQuerySet
	readback *wgpu.Buffer // MapRead-able copy of resolve, read by PollTimestamp
	mapped   bool
	mapErr   error
	pending  bool
}

// initTimestamps allocates the fixed set of query/resolve/readback buffers
// once, sized for maxInFlightReadbacks concurrent in-flight frames — the
// same rotation FrameRenderer.submit uses for its read-back slots.
func (b *wgpuBackend) initTimestamps(slotCount int) error {
	b.timestamps = make([]*timestampSlot, slotCount)
	for i := range b.timestamps {
		qs, err := b.device.CreateQuerySet(&wgpu.QuerySetDescriptor{
			Label: fmt.Sprintf("frame-timer-%d", i),
			Type:  wgpu.QueryTypeTimestamp,
			Count: timestampsPerSlot,
		})
		if err != nil {
			return fmt.Errorf("gpu: create timestamp query set: %w", err)
		}
		resolve, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("frame-timer-resolve-%d", i),
			Size:  timestampsPerSlot * 8,
			Usage: wgpu.BufferUsageQueryResolve | wgpu.BufferUsageCopySrc,
		})
		if err != nil {
			return fmt.Errorf("gpu: create timestamp resolve buffer: %w", err)
		}
		readback, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("frame-timer-readback-%d", i),
			Size:  timestampsPerSlot * 8,
			Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
		})
		if err != nil {
			return fmt.Errorf("gpu: create timestamp readback buffer: %w", err)
		}
		b.timestamps[i] = &timestampSlot{querySet: qs, resolve: resolve, readback: readback}
	}
	return nil
}

func (b *wgpuBackend) BeginTimestamp(slot int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameEncoder == nil {
		return fmt.Errorf("gpu: BeginTimestamp without a frame in progress")
	}
	if slot < 0 || slot >= len(b.timestamps) {
		return fmt.Errorf("gpu: timestamp slot %d out of range", slot)
	}
	ts := b.timestamps[slot]
	ts.mapped = false
	ts.mapErr = nil
	ts.pending = false
	b.frameEncoder.WriteTimestamp(ts.querySet, 0)
	return nil
}

// EndTimestamp writes the end-of-frame timestamp, resolves the query set
// into the GPU-local resolve buffer, copies it into the CPU-mappable
// readback buffer, and starts its async map — all against the same
// encoder EndFrame will submit, so the copy lands in the same command
// buffer as the frame it's timing.
func (b *wgpuBackend) EndTimestamp(slot int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameEncoder == nil {
		return fmt.Errorf("gpu: EndTimestamp without a frame in progress")
	}
	if slot < 0 || slot >= len(b.timestamps) {
		return fmt.Errorf("gpu: timestamp slot %d out of range", slot)
	}
	ts := b.timestamps[slot]
	b.frameEncoder.WriteTimestamp(ts.querySet, 1)
	b.frameEncoder.ResolveQuerySet(ts.querySet, 0, timestampsPerSlot, ts.resolve, 0)
	b.frameEncoder.CopyBufferToBuffer(ts.resolve, 0, ts.readback, 0, timestampsPerSlot*8)

	ts.pending = true
	ts.readback.MapAsync(wgpu.MapModeRead, 0, timestampsPerSlot*8, func(status wgpu.BufferMapAsyncStatus) {
		b.mu.Lock()
		defer b.mu.Unlock()
		ts.pending = false
		ts.mapped = status == wgpu.BufferMapAsyncStatusSuccess
		if !ts.mapped {
			ts.mapErr = fmt.Errorf("gpu: timestamp readback map failed: %v", status)
		}
	})
	return nil
}

// PollTimestamp pumps the device's event queue so a completed MapAsync
// callback has a chance to fire, then reports slot's elapsed GPU time if
// its map has resolved.
func (b *wgpuBackend) PollTimestamp(slot int) (float64, bool) {
	b.mu.Lock()
	if slot < 0 || slot >= len(b.timestamps) {
		b.mu.Unlock()
		return 0, false
	}
	ts := b.timestamps[slot]
	b.mu.Unlock()

	b.device.Poll(false, nil)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !ts.mapped || ts.mapErr != nil {
		return 0, false
	}
	raw := ts.readback.GetMappedRange(0, timestampsPerSlot*8)
	if len(raw) < 16 {
		ts.readback.Unmap()
		ts.mapped = false
		return 0, false
	}
	start := le64(raw[0:8])
	end := le64(raw[8:16])
	ts.readback.Unmap()
	ts.mapped = false
	if end < start {
		return 0, false
	}
	elapsedNs := float64(end-start) * float64(b.timestampPeriod)
	return elapsedNs / 1e6, true
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v
}
