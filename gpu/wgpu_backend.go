package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

type bufferRecord struct {
	buffer    *wgpu.Buffer
	usage     BufferUsage
	size      int64 // bytes actually allocated (bucket size if pooled)
	requested int64 // original requested size, for pool return
	pooled    bool
}

type textureRecord struct {
	texture *wgpu.Texture
	format  TextureFormat
	width   int
	height  int
}

// wgpuBackend is the concrete Backend implementation over
// cogentcore/webgpu: the handle maps plus their accounting records, a VRAM
// accountant, a bucketed buffer pool, and a pipeline cache.
type wgpuBackend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	config   *wgpu.SurfaceConfiguration

	nextID atomic.Uint64

	shaders         map[ShaderHandle]*wgpu.ShaderModule
	buffers         map[BufferHandle]*bufferRecord
	textures        map[TextureHandle]*textureRecord
	samplers        map[SamplerHandle]*wgpu.Sampler
	layouts         map[BindGroupLayoutHandle]*wgpu.BindGroupLayout
	bindGroups      map[BindGroupHandle]*wgpu.BindGroup
	pipelines       map[PipelineHandle]*wgpu.RenderPipeline
	computePipelines map[ComputePipelineHandle]*wgpu.ComputePipeline

	vram      *VRAMAccountant
	pool      *BufferPool
	pipeCache *PipelineCache
	registry  *ResourceRegistry

	// Per-frame render-pass state. frameTexture/frameView/frameEncoder live
	// from BeginFrame through EndFrame; framePass opens lazily on the first
	// bind/draw call (Clear forces it open immediately so a frame with no
	// draws still clears) and closes in EndFrame.
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	passOpen     bool
	clearColor   wgpu.Color

	lastPipelineID  uint64
	boundBindGroups [maxBindSlots]BindGroupHandle

	timestamps      []*timestampSlot
	timestampPeriod float32

	recoveryCb func(RecoveryPhase)
}

// maxTimestampSlots mirrors FrameRenderer's maxInFlightReadbacks: one
// timestamp query set per in-flight frame so a slow readback on frame N
// never blocks frame N+1 from starting its own timer.
const maxTimestampSlots = 3

// maxBindSlots mirrors render.maxSlots: the bound-bind-group snapshot below
// lets Dispatch re-bind the groups most recently set via SetBindGroup onto
// its own short-lived compute pass, since a compute pass is a separate wgpu
// encoder scope from the render pass and bindings don't carry over between
// them (grounded on Carmen-Shannon-oxy-go's DispatchCompute).
const maxBindSlots = 4

// NewWgpuBackend constructs a Backend bound to an already-created
// surface/adapter/device/queue (the window + device bootstrap is driven by
// a Module, as cmd/demo's PlatformGPUModule does).
func NewWgpuBackend(surface *wgpu.Surface, adapter *wgpu.Adapter, device *wgpu.Device, queue *wgpu.Queue, config *wgpu.SurfaceConfiguration) *wgpuBackend {
	return &wgpuBackend{
		surface: surface, adapter: adapter, device: device, queue: queue, config: config,
		shaders: make(map[ShaderHandle]*wgpu.ShaderModule),
		buffers: make(map[BufferHandle]*bufferRecord),
		textures: make(map[TextureHandle]*textureRecord),
		samplers: make(map[SamplerHandle]*wgpu.Sampler),
		layouts: make(map[BindGroupLayoutHandle]*wgpu.BindGroupLayout),
		bindGroups: make(map[BindGroupHandle]*wgpu.BindGroup),
		pipelines: make(map[PipelineHandle]*wgpu.RenderPipeline),
		computePipelines: make(map[ComputePipelineHandle]*wgpu.ComputePipeline),
		pool:      NewBufferPool(),
		pipeCache: NewPipelineCache(),
		registry:  newResourceRegistry(),
		clearColor: wgpu.Color{R: 0.1, G: 0.1, B: 0.12, A: 1.0},
	}
}

func (b *wgpuBackend) allocID() uint64 {
	return b.nextID.Add(1)
}

func (b *wgpuBackend) Initialize(cfg Config) (bool, error) {
	b.vram = NewVRAMAccountant(cfg.VRAMBudgets)
	// WebGPU timestamp queries resolve to raw nanosecond ticks already
	// (unlike the native Vulkan/D3D12 APIs wgpu-native wraps, which need a
	// device-reported period to convert); no per-adapter scale is applied.
	b.timestampPeriod = 1.0
	if err := b.initTimestamps(maxTimestampSlots); err != nil {
		return false, err
	}
	return true, nil
}

func (b *wgpuBackend) Capabilities() Capabilities {
	return Capabilities{
		ComputeSupport:      true,
		MaxTextureSize:      8192,
		MaxUBOSize:          64 * 1024,
		MaxVertexAttributes: 16,
		MaxColorAttachments: 4,
		Anisotropy:          true,
		CompressedTextureBC: true,
	}
}

// BeginFrame acquires the swapchain's current texture and opens a command
// encoder for it, grounded on mod_client.go's renderSystem: GetCurrentTexture
// -> CreateView -> CreateCommandEncoder. The render pass itself opens lazily
// (see openPassLocked) so a frame that never calls Clear/SetPipeline still
// costs nothing beyond the encoder.
func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("gpu: acquire swapchain texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("gpu: create swapchain view: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}

	b.frameTexture = tex
	b.frameView = view
	b.frameEncoder = encoder
	b.framePass = nil
	b.passOpen = false
	b.lastPipelineID = 0
	b.boundBindGroups = [maxBindSlots]BindGroupHandle{}
	return nil
}

// openPassLocked opens the frame's one render pass against the swapchain
// view with loadOp, if it isn't already open. Callers hold b.mu.
func (b *wgpuBackend) openPassLocked(loadOp wgpu.LoadOp) error {
	if b.passOpen {
		return nil
	}
	if b.frameEncoder == nil {
		return fmt.Errorf("gpu: no frame in progress")
	}
	pass := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.frameView,
				LoadOp:     loadOp,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: b.clearColor,
			},
		},
	})
	b.framePass = pass
	b.passOpen = true
	return nil
}

// Clear forces the render pass open with a clear load op, matching the
// teacher's renderSystem which always clears at the start of the frame's
// one render pass.
func (b *wgpuBackend) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openPassLocked(wgpu.LoadOpClear)
}

// EndFrame closes the render pass (opening it with LoadOpLoad first if
// nothing bound/cleared yet, so EndFrame is always safe to call), finishes
// the encoder, submits it, and presents — the End/Finish/Submit/Present
// sequence mod_client.go's renderSystem runs every frame.
func (b *wgpuBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return fmt.Errorf("gpu: EndFrame without BeginFrame")
	}
	if err := b.openPassLocked(wgpu.LoadOpLoad); err != nil {
		return err
	}
	if err := b.framePass.End(); err != nil {
		return fmt.Errorf("gpu: end render pass: %w", err)
	}
	b.framePass.Release()

	cmdBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("gpu: finish command encoder: %w", err)
	}
	b.queue.Submit(cmdBuffer)
	cmdBuffer.Release()
	b.frameEncoder.Release()
	b.frameView.Release()

	b.frameTexture = nil
	b.frameView = nil
	b.frameEncoder = nil
	b.framePass = nil
	b.passOpen = false

	b.surface.Present()
	return nil
}

func (b *wgpuBackend) Resize(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config.Width = uint32(width)
	b.config.Height = uint32(height)
	b.surface.Configure(b.adapter, b.device, b.config)
	return nil
}

func (b *wgpuBackend) CreateShader(desc ShaderDescriptor) (ShaderHandle, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Source},
	})
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	h := ShaderHandle(b.allocID())
	b.shaders[h] = module
	b.registry.register(shaderResourceID(h), desc, nil)
	return h, nil
}

func (b *wgpuBackend) CreateBuffer(desc BufferDescriptor) (BufferHandle, error) {
	size := desc.Size
	var usageFlags wgpu.BufferUsage
	switch desc.Usage {
	case BufferUsageVertex:
		usageFlags = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case BufferUsageIndex:
		usageFlags = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	case BufferUsageUniform:
		usageFlags = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	case BufferUsageStorage:
		usageFlags = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	}

	allocSize := size
	if desc.Pooled {
		allocSize = bucketSize(size)
	}

	if err := b.vram.Charge(desc.Usage, allocSize); err != nil {
		return 0, err
	}

	var buf *wgpu.Buffer
	var err error
	if len(desc.Contents) > 0 {
		buf, err = b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label: desc.Label, Contents: desc.Contents, Usage: usageFlags,
		})
	} else {
		buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: desc.Label, Size: uint64(allocSize), Usage: usageFlags,
		})
	}
	if err != nil {
		b.vram.Release(desc.Usage, allocSize)
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	h := BufferHandle(b.allocID())
	b.buffers[h] = &bufferRecord{buffer: buf, usage: desc.Usage, size: allocSize, requested: size, pooled: desc.Pooled}
	b.registry.register(bufferResourceID(h), desc, nil)
	return h, nil
}

func (b *wgpuBackend) CreateTexture(desc TextureDescriptor) (TextureHandle, error) {
	bpp, err := BytesPerPixel(desc.Format)
	if err != nil {
		return 0, err
	}
	size := int64(RowPitch(desc.Width, bpp)) * int64(desc.Height)
	if err := b.vram.Charge(BufferUsageStorage, size); err != nil {
		return 0, err
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size:  wgpu.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1},
		Usage: wgpu.TextureUsage(desc.Usage),
	})
	if err != nil {
		b.vram.Release(BufferUsageStorage, size)
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	h := TextureHandle(b.allocID())
	b.textures[h] = &textureRecord{texture: tex, format: desc.Format, width: desc.Width, height: desc.Height}
	b.registry.register(textureResourceID(h), desc, nil)
	return h, nil
}

func (b *wgpuBackend) CreateSampler(desc SamplerDescriptor) (SamplerHandle, error) {
	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{Label: desc.Label})
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	h := SamplerHandle(b.allocID())
	b.samplers[h] = sampler
	b.registry.register(samplerResourceID(h), desc, nil)
	return h, nil
}

func (b *wgpuBackend) CreateFramebuffer(width, height int, colorFormats []TextureFormat, hasDepth bool) (FramebufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := FramebufferHandle(b.allocID())
	return h, nil
}

func (b *wgpuBackend) CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayoutHandle, error) {
	var entries []wgpu.BindGroupLayoutEntry
	for _, slot := range desc.Entries {
		entries = append(entries, wgpu.BindGroupLayoutEntry{Binding: slot, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment})
	}
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries})
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	h := BindGroupLayoutHandle(b.allocID())
	b.layouts[h] = layout
	b.registry.register(layoutResourceID(h), desc, nil)
	return h, nil
}

func (b *wgpuBackend) CreateBindGroup(desc BindGroupDescriptor) (BindGroupHandle, error) {
	b.mu.Lock()
	layout, ok := b.layouts[desc.Layout]
	declared := make(map[uint32]struct{})
	if reg, found := b.registry.descriptors[layoutResourceID(desc.Layout)]; found {
		if layoutDesc, ok := reg.desc.(BindGroupLayoutDescriptor); ok {
			for _, slot := range layoutDesc.Entries {
				declared[slot] = struct{}{}
			}
		}
	}
	b.mu.Unlock()
	if !ok {
		return 0, &ErrInvalidHandle{Kind: "bindgrouplayout", ID: uint64(desc.Layout)}
	}

	var entries []wgpu.BindGroupEntry
	var deps []resourceID
	for _, e := range desc.Entries {
		if _, declaredOk := declared[e.Slot]; len(declared) > 0 && !declaredOk {
			return 0, &ErrBindGroupSlotMismatch{Slot: e.Slot}
		}
		entry := wgpu.BindGroupEntry{Binding: e.Slot}
		switch {
		case e.Buffer.Valid():
			b.mu.Lock()
			rec := b.buffers[e.Buffer]
			b.mu.Unlock()
			if rec != nil {
				entry.Buffer = rec.buffer
				entry.Size = wgpu.WholeSize
			}
			deps = append(deps, bufferResourceID(e.Buffer))
		case e.Texture.Valid():
			b.mu.Lock()
			rec := b.textures[e.Texture]
			b.mu.Unlock()
			if rec != nil {
				if view, err := rec.texture.CreateView(nil); err == nil {
					entry.TextureView = view
				}
			}
			deps = append(deps, textureResourceID(e.Texture))
			if e.Sampler.Valid() {
				deps = append(deps, samplerResourceID(e.Sampler))
			}
		case e.Sampler.Valid():
			b.mu.Lock()
			sampler := b.samplers[e.Sampler]
			b.mu.Unlock()
			entry.Sampler = sampler
			deps = append(deps, samplerResourceID(e.Sampler))
		}
		entries = append(entries, entry)
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: desc.Label, Layout: layout, Entries: entries})
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	h := BindGroupHandle(b.allocID())
	b.bindGroups[h] = bg
	deps = append(deps, layoutResourceID(desc.Layout))
	b.registry.register(bindGroupResourceID(h), desc, deps)
	return h, nil
}

func (b *wgpuBackend) CreateRenderPipeline(desc PipelineDescriptor) (PipelineHandle, error) {
	key := NewPipelineKey(desc.Shader, desc.Layout, desc.Instanced)
	if cached, ok := b.pipeCache.Get(key); ok {
		return cached, nil
	}

	b.mu.Lock()
	shader, ok := b.shaders[desc.Shader]
	b.mu.Unlock()
	if !ok {
		return 0, &ErrInvalidHandle{Kind: "shader", ID: uint64(desc.Shader)}
	}

	var bindLayouts []*wgpu.BindGroupLayout
	b.mu.Lock()
	for _, lh := range desc.BindLayouts {
		if l, ok := b.layouts[lh]; ok {
			bindLayouts = append(bindLayouts, l)
		}
	}
	b.mu.Unlock()

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label: desc.Label + "-layout", BindGroupLayouts: bindLayouts,
	})
	if err != nil {
		return 0, err
	}

	pipeline, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{Module: shader, EntryPoint: "vs_main"},
		Fragment: &wgpu.FragmentState{Module: shader, EntryPoint: "fs_main", Targets: []wgpu.ColorTargetState{
			{
				Format: b.config.Format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
					Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			},
		}},
		Primitive: wgpu.PrimitiveState{Topology: wgpu.PrimitiveTopologyTriangleList, CullMode: wgpu.CullModeBack},
	})
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	h := PipelineHandle(b.allocID())
	b.pipelines[h] = pipeline
	b.pipeCache.Put(key, h)
	deps := []resourceID{shaderResourceID(desc.Shader)}
	for _, lh := range desc.BindLayouts {
		deps = append(deps, layoutResourceID(lh))
	}
	b.registry.register(pipelineResourceID(h), desc, deps)
	return h, nil
}

// WriteBuffer uploads data into an existing buffer at offset, grounded on
// mod_client.go's renderSystem which calls queue.WriteBuffer(uniformBuffer,
// 0, wgpu.ToBytes(mvp[:])) once per material before issuing its draw.
func (b *wgpuBackend) WriteBuffer(h BufferHandle, offset int64, data []byte) error {
	b.mu.Lock()
	rec, ok := b.buffers[h]
	b.mu.Unlock()
	if !ok {
		return &ErrInvalidHandle{Kind: "buffer", ID: uint64(h)}
	}
	return b.queue.WriteBuffer(rec.buffer, uint64(offset), data)
}

func (b *wgpuBackend) DestroyBuffer(h BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.buffers[h]
	if !ok {
		return
	}
	if rec.pooled {
		b.pool.Release(h, rec.requested)
		return // pooled buffers stay alive for reuse, only logically released
	}
	rec.buffer.Release()
	b.vram.Release(rec.usage, rec.size)
	delete(b.buffers, h)
	b.registry.unregister(bufferResourceID(h))
}

func (b *wgpuBackend) DestroyTexture(h TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.textures[h]
	if !ok {
		return
	}
	bpp, _ := BytesPerPixel(rec.format)
	size := int64(RowPitch(rec.width, bpp)) * int64(rec.height)
	rec.texture.Release()
	b.vram.Release(BufferUsageStorage, size)
	delete(b.textures, h)
	b.registry.unregister(textureResourceID(h))
}

func (b *wgpuBackend) CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipelineHandle, error) {
	b.mu.Lock()
	shader, ok := b.shaders[desc.Shader]
	b.mu.Unlock()
	if !ok {
		return 0, &ErrInvalidHandle{Kind: "shader", ID: uint64(desc.Shader)}
	}

	var bindLayouts []*wgpu.BindGroupLayout
	b.mu.Lock()
	for _, lh := range desc.BindLayouts {
		if l, ok := b.layouts[lh]; ok {
			bindLayouts = append(bindLayouts, l)
		}
	}
	b.mu.Unlock()

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label: desc.Label + "-layout", BindGroupLayouts: bindLayouts,
	})
	if err != nil {
		return 0, err
	}

	pipeline, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{Module: shader, EntryPoint: "cs_main"},
	})
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	h := ComputePipelineHandle(b.allocID())
	b.computePipelines[h] = pipeline
	deps := []resourceID{shaderResourceID(desc.Shader)}
	for _, lh := range desc.BindLayouts {
		deps = append(deps, layoutResourceID(lh))
	}
	b.registry.register(computePipelineResourceID(h), desc, deps)
	return h, nil
}

func (b *wgpuBackend) DestroyComputePipeline(h ComputePipelineHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.computePipelines[h]; !ok {
		return
	}
	delete(b.computePipelines, h)
	b.registry.unregister(computePipelineResourceID(h))
}

// SetPipeline through Dispatch implement gpu.Backend's bind-point surface,
// which render.Binder's method set matches exactly (see backend.go's doc
// comment) so render.CommandEncoder can drive a wgpuBackend directly.
// lastPipelineID is shared across PipelineHandle and
// ComputePipelineHandle: allocID() draws both from the same counter, so a
// given id can never collide between b.pipelines and b.computePipelines,
// which is what lets Dispatch recover the compute pipeline SetPipeline most
// recently bound without a separate SetComputePipeline method.
func (b *wgpuBackend) SetPipeline(p PipelineHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastPipelineID = uint64(p)
	if err := b.openPassLocked(wgpu.LoadOpLoad); err != nil {
		return
	}
	if pipeline, ok := b.pipelines[p]; ok {
		b.framePass.SetPipeline(pipeline)
	}
}

func (b *wgpuBackend) SetBindGroup(slot int, g BindGroupHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slot < 0 || slot >= maxBindSlots {
		return
	}
	b.boundBindGroups[slot] = g
	if err := b.openPassLocked(wgpu.LoadOpLoad); err != nil {
		return
	}
	if bg, ok := b.bindGroups[g]; ok {
		b.framePass.SetBindGroup(uint32(slot), bg, nil)
	}
}

func (b *wgpuBackend) SetVertexBuffer(slot int, buf BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.openPassLocked(wgpu.LoadOpLoad); err != nil {
		return
	}
	if rec, ok := b.buffers[buf]; ok {
		b.framePass.SetVertexBuffer(uint32(slot), rec.buffer, 0, wgpu.WholeSize)
	}
}

func (b *wgpuBackend) SetIndexBuffer(buf BufferHandle, format IndexFormat) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.openPassLocked(wgpu.LoadOpLoad); err != nil {
		return
	}
	wgpuFormat := wgpu.IndexFormatUint16
	if format == IndexFormatUint32 {
		wgpuFormat = wgpu.IndexFormatUint32
	}
	if rec, ok := b.buffers[buf]; ok {
		b.framePass.SetIndexBuffer(rec.buffer, wgpuFormat, 0, wgpu.WholeSize)
	}
}

func (b *wgpuBackend) Draw(vertexCount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return
	}
	b.framePass.Draw(uint32(vertexCount), 1, 0, 0)
}

func (b *wgpuBackend) DrawIndexed(indexCount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return
	}
	b.framePass.DrawIndexed(uint32(indexCount), 1, 0, 0, 0)
}

func (b *wgpuBackend) DrawIndirect(indirect BufferHandle, offset uint64, indexed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return
	}
	rec, ok := b.buffers[indirect]
	if !ok {
		return
	}
	if indexed {
		b.framePass.DrawIndexedIndirect(rec.buffer, offset)
	} else {
		b.framePass.DrawIndirect(rec.buffer, offset)
	}
}

// Dispatch runs a compute pipeline in its own short-lived compute pass,
// grounded on Carmen-Shannon-oxy-go's DispatchCompute: a render pass and a
// compute pass are separate encoder scopes in wgpu, so bind groups set via
// SetBindGroup are re-applied onto the compute pass from boundBindGroups
// rather than inherited.
func (b *wgpuBackend) Dispatch(x, y, z uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pipeline, ok := b.computePipelines[ComputePipelineHandle(b.lastPipelineID)]
	if !ok || b.frameEncoder == nil {
		return
	}
	pass := b.frameEncoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	for slot, g := range b.boundBindGroups {
		if bg, ok := b.bindGroups[g]; ok {
			pass.SetBindGroup(uint32(slot), bg, nil)
		}
	}
	pass.DispatchWorkgroups(x, y, z)
	pass.End()
	pass.Release()
}

func (b *wgpuBackend) OnRecovery(cb func(RecoveryPhase)) {
	b.recoveryCb = cb
}

// Recover replays the Resource Registry against a freshly requested device,
// in dependency order (each registered object after the objects it depends
// on — §4.10), reporting phases through OnRecovery.
func (b *wgpuBackend) Recover(newDevice *wgpu.Device, newQueue *wgpu.Queue) error {
	notify := func(phase RecoveryPhase) {
		if b.recoveryCb != nil {
			b.recoveryCb(phase)
		}
	}
	notify(RecoveryDetecting)

	order, err := b.registry.loadOrder()
	if err != nil {
		notify(RecoveryFailed)
		return fmt.Errorf("gpu: recovery load-order failed: %w", err)
	}

	notify(RecoveryRecreating)
	b.device = newDevice
	b.queue = newQueue
	b.shaders = make(map[ShaderHandle]*wgpu.ShaderModule)
	b.buffers = make(map[BufferHandle]*bufferRecord)
	b.textures = make(map[TextureHandle]*textureRecord)
	b.samplers = make(map[SamplerHandle]*wgpu.Sampler)
	b.layouts = make(map[BindGroupLayoutHandle]*wgpu.BindGroupLayout)
	b.bindGroups = make(map[BindGroupHandle]*wgpu.BindGroup)
	b.pipelines = make(map[PipelineHandle]*wgpu.RenderPipeline)
	b.computePipelines = make(map[ComputePipelineHandle]*wgpu.ComputePipeline)
	b.pipeCache = NewPipelineCache()
	if err := b.initTimestamps(len(b.timestamps)); err != nil {
		notify(RecoveryFailed)
		return fmt.Errorf("gpu: recreate timestamp query sets: %w", err)
	}

	for _, id := range order {
		if err := b.recreate(id); err != nil {
			notify(RecoveryFailed)
			return err
		}
	}

	notify(RecoveryComplete)
	return nil
}

func (b *wgpuBackend) recreate(id resourceID) error {
	reg, ok := b.registry.descriptors[id]
	if !ok {
		return nil
	}
	switch desc := reg.desc.(type) {
	case ShaderDescriptor:
		_, err := b.CreateShader(desc)
		return err
	case BindGroupLayoutDescriptor:
		_, err := b.CreateBindGroupLayout(desc)
		return err
	case BufferDescriptor:
		_, err := b.CreateBuffer(desc)
		return err
	case TextureDescriptor:
		_, err := b.CreateTexture(desc)
		return err
	case SamplerDescriptor:
		_, err := b.CreateSampler(desc)
		return err
	case PipelineDescriptor:
		_, err := b.CreateRenderPipeline(desc)
		return err
	case ComputePipelineDescriptor:
		_, err := b.CreateComputePipeline(desc)
		return err
	case BindGroupDescriptor:
		_, err := b.CreateBindGroup(desc)
		return err
	}
	return nil
}
