package render

import (
	"testing"

	"github.com/emberengine/ember/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a minimal gpu.Backend (plus gpu.GPUTimer) that hands out
// sequential handles and records every draw/write call, so tests can assert
// on FrameRenderer's behavior without a real wgpu device.
type fakeBackend struct {
	nextHandle uint64

	writes     int
	draws      int
	beginCalls int
	endCalls   int
	pollReady  bool
}

func (f *fakeBackend) alloc() uint64 { f.nextHandle++; return f.nextHandle }

func (f *fakeBackend) Initialize(cfg gpu.Config) (bool, error) { return true, nil }
func (f *fakeBackend) Capabilities() gpu.Capabilities          { return gpu.Capabilities{} }
func (f *fakeBackend) BeginFrame() error                       { return nil }
func (f *fakeBackend) EndFrame() error                         { return nil }
func (f *fakeBackend) Resize(w, h int) error                   { return nil }
func (f *fakeBackend) Clear() error                            { return nil }

func (f *fakeBackend) CreateShader(gpu.ShaderDescriptor) (gpu.ShaderHandle, error) {
	return gpu.ShaderHandle(f.alloc()), nil
}
func (f *fakeBackend) CreateBuffer(gpu.BufferDescriptor) (gpu.BufferHandle, error) {
	return gpu.BufferHandle(f.alloc()), nil
}
func (f *fakeBackend) CreateTexture(gpu.TextureDescriptor) (gpu.TextureHandle, error) {
	return gpu.TextureHandle(f.alloc()), nil
}
func (f *fakeBackend) CreateSampler(gpu.SamplerDescriptor) (gpu.SamplerHandle, error) {
	return gpu.SamplerHandle(f.alloc()), nil
}
func (f *fakeBackend) CreateFramebuffer(int, int, []gpu.TextureFormat, bool) (gpu.FramebufferHandle, error) {
	return gpu.FramebufferHandle(f.alloc()), nil
}
func (f *fakeBackend) CreateBindGroupLayout(gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayoutHandle, error) {
	return gpu.BindGroupLayoutHandle(f.alloc()), nil
}
func (f *fakeBackend) CreateBindGroup(gpu.BindGroupDescriptor) (gpu.BindGroupHandle, error) {
	return gpu.BindGroupHandle(f.alloc()), nil
}
func (f *fakeBackend) CreateRenderPipeline(gpu.PipelineDescriptor) (gpu.PipelineHandle, error) {
	return gpu.PipelineHandle(f.alloc()), nil
}
func (f *fakeBackend) CreateComputePipeline(gpu.ComputePipelineDescriptor) (gpu.ComputePipelineHandle, error) {
	return gpu.ComputePipelineHandle(f.alloc()), nil
}

func (f *fakeBackend) WriteBuffer(h gpu.BufferHandle, offset int64, data []byte) error {
	f.writes++
	return nil
}

func (f *fakeBackend) DestroyBuffer(gpu.BufferHandle)                 {}
func (f *fakeBackend) DestroyTexture(gpu.TextureHandle)                {}
func (f *fakeBackend) DestroyComputePipeline(gpu.ComputePipelineHandle) {}

func (f *fakeBackend) SetPipeline(gpu.PipelineHandle)               {}
func (f *fakeBackend) SetBindGroup(int, gpu.BindGroupHandle)        {}
func (f *fakeBackend) SetVertexBuffer(int, gpu.BufferHandle)        {}
func (f *fakeBackend) SetIndexBuffer(gpu.BufferHandle, IndexFormat) {}
func (f *fakeBackend) Draw(vertexCount int)                         { f.draws++ }
func (f *fakeBackend) DrawIndexed(int)                              { f.draws++ }
func (f *fakeBackend) DrawIndirect(gpu.BufferHandle, uint64, bool)   { f.draws++ }
func (f *fakeBackend) Dispatch(x, y, z uint32)                       {}

func (f *fakeBackend) OnRecovery(func(gpu.RecoveryPhase)) {}

func (f *fakeBackend) BeginTimestamp(slot int) error { f.beginCalls++; return nil }
func (f *fakeBackend) EndTimestamp(slot int) error   { f.endCalls++; return nil }
func (f *fakeBackend) PollTimestamp(slot int) (float64, bool) {
	if f.pollReady {
		return 1.5, true
	}
	return 0, false
}

func newTestFrameRenderer() (*fakeBackend, *FrameRenderer) {
	backend := &fakeBackend{}
	encoder := NewCommandEncoder(backend)
	return backend, NewFrameRenderer(backend, encoder)
}

func TestFrameRenderer_RenderFrameIssuesPostProcessDrawsAndTimestamps(t *testing.T) {
	backend, r := newTestFrameRenderer()
	r.SetBloomConfig(BloomConfig{Threshold: 1, Intensity: 0.5, MipLevels: 2})

	slot := r.RenderFrame(0.016, mgl32.Vec3{0, 0, 5}, mat4Bytes{}, mat4Bytes{})

	require.Equal(t, 0, slot, "first frame claims slot 0 of the rotation")
	require.Equal(t, 1, backend.beginCalls)
	require.Equal(t, 1, backend.endCalls)
	// camera UBO + extract + 2 downsample + 2 upsample + composite = 7 writes
	require.Equal(t, 7, backend.writes)
	require.Equal(t, 6, backend.draws, "extract+2 downsample+2 upsample+composite fullscreen draws")
}

func TestFrameRenderer_CRTPassOnlyWhenEnabled(t *testing.T) {
	backend, r := newTestFrameRenderer()
	r.SetBloomConfig(BloomConfig{MipLevels: 1}) // Intensity stays 0 -> bloomPyramid skipped

	r.RenderFrame(0.016, mgl32.Vec3{}, mat4Bytes{}, mat4Bytes{})
	require.Equal(t, 1, backend.draws, "composite only: no bloom (Intensity==0), no CRT")

	r.SetCRTEnabled(true)
	r.RenderFrame(0.016, mgl32.Vec3{}, mat4Bytes{}, mat4Bytes{})
	require.Equal(t, 3, backend.draws, "previous 1 + this frame's composite and CRT draws")
}

func TestFrameRenderer_PollGPUTimeReportsOnceReadyAndFreesSlot(t *testing.T) {
	backend, r := newTestFrameRenderer()
	slot := r.RenderFrame(0.016, mgl32.Vec3{}, mat4Bytes{}, mat4Bytes{})

	ms, ready := r.PollGPUTime(slot)
	require.False(t, ready)
	require.Zero(t, ms)

	backend.pollReady = true
	ms, ready = r.PollGPUTime(slot)
	require.True(t, ready)
	require.Equal(t, 1.5, ms)
}

func TestFrameRenderer_RotatesThroughThreeInFlightSlots(t *testing.T) {
	_, r := newTestFrameRenderer()
	seen := map[int]bool{}
	for i := 0; i < maxInFlightReadbacks; i++ {
		slot := r.RenderFrame(0.016, mgl32.Vec3{}, mat4Bytes{}, mat4Bytes{})
		require.GreaterOrEqual(t, slot, 0)
		seen[slot] = true
	}
	require.Len(t, seen, maxInFlightReadbacks, "three distinct slots before any readback completes")
}
