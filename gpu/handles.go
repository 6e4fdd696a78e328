// Package gpu is the engine's typed GPU-resource layer: opaque branded
// handles, VRAM accounting, a bucketed buffer pool, and device-loss
// recovery over a cogentcore/webgpu backend.
package gpu

// Handle kinds are distinct Go types wrapping a uint64 id so a BufferHandle
// can never be passed where a TextureHandle is expected, even though both
// are plain integers under the backend's map lookup.
type (
	ShaderHandle          uint64
	BufferHandle          uint64
	TextureHandle         uint64
	SamplerHandle         uint64
	FramebufferHandle     uint64
	BindGroupLayoutHandle uint64
	BindGroupHandle       uint64
	PipelineHandle        uint64
	ComputePipelineHandle uint64
)

const invalidHandle = 0

func (h ShaderHandle) Valid() bool          { return h != invalidHandle }
func (h BufferHandle) Valid() bool          { return h != invalidHandle }
func (h TextureHandle) Valid() bool         { return h != invalidHandle }
func (h SamplerHandle) Valid() bool         { return h != invalidHandle }
func (h FramebufferHandle) Valid() bool     { return h != invalidHandle }
func (h BindGroupLayoutHandle) Valid() bool { return h != invalidHandle }
func (h BindGroupHandle) Valid() bool       { return h != invalidHandle }
func (h PipelineHandle) Valid() bool        { return h != invalidHandle }
func (h ComputePipelineHandle) Valid() bool { return h != invalidHandle }

// IndexFormat is the index buffer's element width. It lives here, rather
// than in the render package, so Backend's bind-time methods and
// render.DrawCommand's geometry variants can describe the same type
// without render importing gpu and gpu importing render back.
type IndexFormat int

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

// BufferUsage categorizes a buffer for VRAM accounting (§4.10).
type BufferUsage int

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
)

// BindingResource is one slot of a bind group: exactly one of Buffer,
// Sampler, or Texture(+Sampler) is set.
type BindingResource struct {
	Slot    uint32
	Buffer  BufferHandle
	Sampler SamplerHandle
	Texture TextureHandle
}
