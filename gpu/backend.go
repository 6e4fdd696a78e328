package gpu

// Capabilities reports what a Backend's device actually supports.
type Capabilities struct {
	ComputeSupport       bool
	MaxTextureSize       int
	MaxUBOSize           int
	MaxVertexAttributes  int
	MaxColorAttachments  int
	Anisotropy           bool
	CompressedTextureBC  bool
	CompressedTextureETC bool
}

// Config configures Backend.Initialize.
type Config struct {
	Width, Height int
	VSync         bool
	VRAMBudgets   VRAMBudgets
}

// BufferDescriptor describes a CreateBuffer call.
type BufferDescriptor struct {
	Label    string
	Usage    BufferUsage
	Size     int64
	Pooled   bool // route through the bucketed BufferPool
	Contents []byte
}

// TextureDescriptor describes a CreateTexture call.
type TextureDescriptor struct {
	Label  string
	Format TextureFormat
	Width  int
	Height int
	Usage  uint32 // backend-specific usage flags (render target / sampled / copy-dst)
}

// ShaderDescriptor describes a CreateShader call. Source is opaque (WGSL or
// equivalent, per spec.md's scope boundary).
type ShaderDescriptor struct {
	Label  string
	Source string
}

// SamplerDescriptor describes a CreateSampler call.
type SamplerDescriptor struct {
	Label       string
	MinFilter   bool // true = linear, false = nearest
	MagFilter   bool
	AddressMode uint32
}

// BindGroupLayoutDescriptor describes a CreateBindGroupLayout call.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []uint32 // declared slots
}

// BindGroupDescriptor describes a CreateBindGroup call.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayoutHandle
	Entries []BindingResource
}

// PipelineDescriptor describes a CreateRenderPipeline call.
type PipelineDescriptor struct {
	Label       string
	Shader      ShaderHandle
	Layout      VertexLayout
	Instanced   bool
	BindLayouts []BindGroupLayoutHandle
}

// ComputePipelineDescriptor describes a CreateComputePipeline call (§6).
type ComputePipelineDescriptor struct {
	Label       string
	Shader      ShaderHandle
	BindLayouts []BindGroupLayoutHandle
}

// RecoveryPhase reports progress through device-loss recovery (§4.10).
type RecoveryPhase int

const (
	RecoveryDetecting RecoveryPhase = iota
	RecoveryRecreating
	RecoveryComplete
	RecoveryFailed
)

// Backend is the GPU abstraction contract (§6): any WebGPU-family device,
// or an equivalent Vulkan/D3D12/Metal backend, can satisfy it.
//
// The bind/draw/dispatch methods (SetPipeline through Dispatch) are §6's
// "execute_commands(list)" surface, broken into one call per bind point and
// terminal draw/dispatch instead of one call taking a list: a command
// encoder issues them one at a time against whichever render pass
// BeginFrame/Clear opened, skipping redundant binds via its own per-frame
// cache (render.CommandEncoder). Their shape exactly matches the
// render.Binder interface so a Backend implementation satisfies both without
// an import back from gpu to render.
type Backend interface {
	Initialize(cfg Config) (bool, error)
	Capabilities() Capabilities

	BeginFrame() error
	EndFrame() error
	Resize(width, height int) error
	Clear() error

	CreateShader(desc ShaderDescriptor) (ShaderHandle, error)
	CreateBuffer(desc BufferDescriptor) (BufferHandle, error)
	CreateTexture(desc TextureDescriptor) (TextureHandle, error)
	CreateSampler(desc SamplerDescriptor) (SamplerHandle, error)
	CreateFramebuffer(width, height int, colorFormats []TextureFormat, hasDepth bool) (FramebufferHandle, error)
	CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayoutHandle, error)
	CreateBindGroup(desc BindGroupDescriptor) (BindGroupHandle, error)
	CreateRenderPipeline(desc PipelineDescriptor) (PipelineHandle, error)
	CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipelineHandle, error)

	// WriteBuffer uploads data at offset into an existing buffer — the
	// per-frame UBO write path (mod_client.go's renderSystem calls
	// queue.WriteBuffer the same way before every draw).
	WriteBuffer(h BufferHandle, offset int64, data []byte) error

	DestroyBuffer(h BufferHandle)
	DestroyTexture(h TextureHandle)
	DestroyComputePipeline(h ComputePipelineHandle)

	// SetPipeline through Dispatch bind state into, and issue draws/dispatches
	// against, the render pass or compute pass opened for the current frame.
	SetPipeline(p PipelineHandle)
	SetBindGroup(slot int, g BindGroupHandle)
	SetVertexBuffer(slot int, b BufferHandle)
	SetIndexBuffer(b BufferHandle, format IndexFormat)
	Draw(vertexCount int)
	DrawIndexed(indexCount int)
	DrawIndirect(indirect BufferHandle, offset uint64, indexed bool)
	Dispatch(x, y, z uint32)

	OnRecovery(cb func(phase RecoveryPhase))
}
