package render

import (
	"sort"
	"unsafe"

	"github.com/emberengine/ember/gpu"
	"github.com/emberengine/ember/render/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	internalWidth  = 640
	internalHeight = 480
	maxMipLevels   = 5
	maxInFlightReadbacks = 3
)

// CameraUBO is the view-proj + eye uniform written once per frame (§4.12
// step 2): mat4 + vec3 + pad to a 16-byte-aligned 80 B block.
type CameraUBO struct {
	ViewProj mat4Bytes
	EyeX, EyeY, EyeZ float32
	_pad             float32
}

type mat4Bytes = [16]float32

// MaterialGroup is one draw batch: its render mode (computed once via
// ClassifyMaterial), a centroid for back-to-front sorting, and the
// DrawCommand that renders it.
type MaterialGroup struct {
	Mode     RenderMode
	Centroid mgl32.Vec3
	Command  DrawCommand
}

// BloomConfig is the runtime-tunable bloom pass configuration (§6).
type BloomConfig struct {
	Threshold float32
	Intensity float32
	MipLevels int // 1..5
}

// CompositeConfig is the runtime-tunable composite-pass configuration.
type CompositeConfig struct {
	GrainAmount float32
	Gamma       float32
}

// postProcessStage is one fullscreen pass's fixed GPU state: a pipeline
// built from one of the render/shaders WGSL sources, and the bind-group
// layout every per-invocation bind group shares (a single uniform slot).
type postProcessStage struct {
	pipeline gpu.PipelineHandle
	layout   gpu.BindGroupLayoutHandle
}

// fullscreenQuadLayout describes the two-triangle, position-only vertex
// buffer every post-process stage draws: a quad clipping the whole viewport.
var fullscreenQuadLayout = gpu.VertexLayout{
	Attributes: []gpu.VertexAttribute{{Name: "pos", Kind: gpu.VertexFloat32, Count: 2, Offset: 0}},
	Stride:     8,
}

// fullscreenQuadVertices is two CCW triangles covering clip space [-1,1]^2.
var fullscreenQuadVertices = [12]float32{
	-1, -1, 1, -1, 1, 1,
	-1, -1, 1, 1, -1, 1,
}

// FrameRenderer drives the seven-step per-frame sequence of §4.12 against a
// gpu.Backend and a CommandEncoder: camera UBO write, scene pass with
// render-mode partitioning, bloom pyramid, composite, optional CRT pass,
// and submit with rotating timestamp read-back.
//
// Each post-process step owns its own pipeline/bind-group-layout (built
// once, in NewFrameRenderer) and one uniform buffer per invocation (the
// composite and CRT passes run once a frame; the bloom chain runs once per
// mip level). Every step writes its parameter struct's bytes into that
// buffer via gpu.Backend.WriteBuffer, then issues a DrawCommandBuilder draw
// of the shared fullscreen quad through the CommandEncoder — the same path
// scenePass already uses for material draws.
type FrameRenderer struct {
	backend gpu.Backend
	encoder *CommandEncoder

	bloom      BloomConfig
	composite  CompositeConfig
	crt        CRTParams
	crtEnabled bool
	wireframe  bool

	engineTime   float32
	readbackSlot int
	activeSlot   int
	inFlight     [maxInFlightReadbacks]bool

	opaque      []MaterialGroup
	alphaCutout []MaterialGroup
	alphaBlend  []MaterialGroup
	additive    []MaterialGroup

	fullscreenVB gpu.BufferHandle
	cameraUBO    gpu.BufferHandle

	extract    postProcessStage
	downsample postProcessStage
	upsample   postProcessStage
	compositeStage postProcessStage
	crtStage   postProcessStage

	extractParams     gpu.BufferHandle
	downsampleParams  [maxMipLevels]gpu.BufferHandle
	upsampleParams    [maxMipLevels]gpu.BufferHandle
	compositeParamsBuf gpu.BufferHandle
	crtParamsBuf      gpu.BufferHandle

	extractBindGroup    gpu.BindGroupHandle
	downsampleBindGroups [maxMipLevels]gpu.BindGroupHandle
	upsampleBindGroups  [maxMipLevels]gpu.BindGroupHandle
	compositeBindGroup  gpu.BindGroupHandle
	crtBindGroup        gpu.BindGroupHandle
}

func NewFrameRenderer(backend gpu.Backend, encoder *CommandEncoder) *FrameRenderer {
	r := &FrameRenderer{
		backend:   backend,
		encoder:   encoder,
		bloom:     BloomConfig{Threshold: 1.0, Intensity: 0.6, MipLevels: 5},
		composite: CompositeConfig{GrainAmount: 0.02, Gamma: 2.2},
		crt:       DefaultCRTParams(internalWidth, internalHeight, internalWidth, internalHeight),
	}
	r.setupPostProcess()
	return r
}

// CameraUBOBuffer returns the per-frame camera uniform buffer so scene
// material bind groups can reference the same handle writeCameraUBO writes
// into.
func (r *FrameRenderer) CameraUBOBuffer() gpu.BufferHandle { return r.cameraUBO }

// structBytes reinterprets a fixed-layout parameter struct as its raw
// upload bytes, the way mod_client_helpers.go's mesh-upload path does via
// unsafe.Slice over a typed pointer instead of a field-by-field encoder.
func structBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

func mustCreateBuffer(backend gpu.Backend, label string, size int64) gpu.BufferHandle {
	h, err := backend.CreateBuffer(gpu.BufferDescriptor{Label: label, Usage: gpu.BufferUsageUniform, Size: size})
	if err != nil {
		panic(err)
	}
	return h
}

func mustCreateStage(backend gpu.Backend, label, source string) postProcessStage {
	shader, err := backend.CreateShader(gpu.ShaderDescriptor{Label: label, Source: source})
	if err != nil {
		panic(err)
	}
	layout, err := backend.CreateBindGroupLayout(gpu.BindGroupLayoutDescriptor{Label: label + "-layout", Entries: []uint32{0}})
	if err != nil {
		panic(err)
	}
	pipeline, err := backend.CreateRenderPipeline(gpu.PipelineDescriptor{
		Label: label, Shader: shader, Layout: fullscreenQuadLayout, BindLayouts: []gpu.BindGroupLayoutHandle{layout},
	})
	if err != nil {
		panic(err)
	}
	return postProcessStage{pipeline: pipeline, layout: layout}
}

func mustCreateBindGroup(backend gpu.Backend, label string, layout gpu.BindGroupLayoutHandle, buf gpu.BufferHandle) gpu.BindGroupHandle {
	h, err := backend.CreateBindGroup(gpu.BindGroupDescriptor{
		Label: label, Layout: layout, Entries: []gpu.BindingResource{{Slot: 0, Buffer: buf}},
	})
	if err != nil {
		panic(err)
	}
	return h
}

// setupPostProcess builds the fullscreen quad and every post-process
// stage's pipeline, parameter buffer(s), and bind group(s) once, at
// construction — mirroring how mod_client.go's Install step builds a
// material's shader/pipeline/bind-group triple once and reuses it every
// frame, rather than rebuilding GPU objects per draw.
func (r *FrameRenderer) setupPostProcess() {
	vb, err := r.backend.CreateBuffer(gpu.BufferDescriptor{
		Label: "postprocess-fullscreen-quad", Usage: gpu.BufferUsageVertex,
		Size: int64(len(fullscreenQuadVertices) * 4), Contents: structBytes(&fullscreenQuadVertices),
	})
	if err != nil {
		panic(err)
	}
	r.fullscreenVB = vb
	r.cameraUBO = mustCreateBuffer(r.backend, "camera-ubo", int64(unsafe.Sizeof(CameraUBO{})))

	r.extract = mustCreateStage(r.backend, "bloom-extract", shaders.ExtractWGSL)
	r.downsample = mustCreateStage(r.backend, "bloom-downsample", shaders.DownsampleWGSL)
	r.upsample = mustCreateStage(r.backend, "bloom-upsample", shaders.UpsampleWGSL)
	r.compositeStage = mustCreateStage(r.backend, "composite", shaders.CompositeWGSL)
	r.crtStage = mustCreateStage(r.backend, "crt", shaders.CRTWGSL)

	r.extractParams = mustCreateBuffer(r.backend, "extract-params", int64(unsafe.Sizeof(BloomParams{})))
	r.extractBindGroup = mustCreateBindGroup(r.backend, "extract-bg", r.extract.layout, r.extractParams)

	for i := 0; i < maxMipLevels; i++ {
		r.downsampleParams[i] = mustCreateBuffer(r.backend, "downsample-params", int64(unsafe.Sizeof(DownsampleParams{})))
		r.downsampleBindGroups[i] = mustCreateBindGroup(r.backend, "downsample-bg", r.downsample.layout, r.downsampleParams[i])
		r.upsampleParams[i] = mustCreateBuffer(r.backend, "upsample-params", int64(unsafe.Sizeof(UpsampleParams{})))
		r.upsampleBindGroups[i] = mustCreateBindGroup(r.backend, "upsample-bg", r.upsample.layout, r.upsampleParams[i])
	}

	r.compositeParamsBuf = mustCreateBuffer(r.backend, "composite-params", int64(unsafe.Sizeof(CompositeParams{})))
	r.compositeBindGroup = mustCreateBindGroup(r.backend, "composite-bg", r.compositeStage.layout, r.compositeParamsBuf)

	r.crtParamsBuf = mustCreateBuffer(r.backend, "crt-params", int64(unsafe.Sizeof(CRTParams{})))
	r.crtBindGroup = mustCreateBindGroup(r.backend, "crt-bg", r.crtStage.layout, r.crtParamsBuf)
}

// drawFullscreen writes data into buf and issues one fullscreen-quad draw
// bound to group through the pass's pipeline — the shared plumbing every
// post-process step below reduces to.
func (r *FrameRenderer) drawFullscreen(pipeline gpu.PipelineHandle, buf gpu.BufferHandle, data []byte, group gpu.BindGroupHandle) {
	if err := r.backend.WriteBuffer(buf, 0, data); err != nil {
		return
	}
	cmd, err := NewDrawCommandBuilder().
		WithPipeline(pipeline).
		WithBindGroup(0, group).
		WithVertexBuffer(0, r.fullscreenVB).
		WithGeometry(NonIndexedGeometry{VertexCount: 6}).
		Build()
	if err != nil {
		return
	}
	r.encoder.ExecuteDrawCommand(cmd)
}

func (r *FrameRenderer) SetWireframe(on bool)     { r.wireframe = on }
func (r *FrameRenderer) SetCRTEnabled(on bool)     { r.crtEnabled = on }
func (r *FrameRenderer) SetBloomConfig(c BloomConfig) {
	if c.MipLevels < 1 {
		c.MipLevels = 1
	}
	if c.MipLevels > maxMipLevels {
		c.MipLevels = maxMipLevels
	}
	r.bloom = c
}
func (r *FrameRenderer) SetCompositeConfig(c CompositeConfig) { r.composite = c }
func (r *FrameRenderer) SetCRTParams(p CRTParams)             { r.crt = p }

// SubmitGroups replaces this frame's material groups, partitioned by
// render mode (§4.12 step 3). Callers classify each group via
// ClassifyMaterial before calling this.
func (r *FrameRenderer) SubmitGroups(groups []MaterialGroup) {
	r.opaque = r.opaque[:0]
	r.alphaCutout = r.alphaCutout[:0]
	r.alphaBlend = r.alphaBlend[:0]
	r.additive = r.additive[:0]
	for _, g := range groups {
		switch g.Mode {
		case ModeOpaque:
			r.opaque = append(r.opaque, g)
		case ModeAlphaCutout:
			r.alphaCutout = append(r.alphaCutout, g)
		case ModeAlphaBlend:
			r.alphaBlend = append(r.alphaBlend, g)
		case ModeAdditive:
			r.additive = append(r.additive, g)
		}
	}
}

// RenderFrame runs the full per-frame sequence and returns the read-back
// slot its GPU timestamp landed in (-1 if none was available), for the
// caller to pass to PollGPUTime once the frame has been submitted. eye is
// the resolved camera eye (step 1 is computed by the caller via
// Camera.Eye/ViewMatrix/ProjectionMatrix — FrameRenderer only consumes the
// resolved matrices so it stays decoupled from the ECS).
func (r *FrameRenderer) RenderFrame(dt float32, eye mgl32.Vec3, view, proj mat4Bytes) (timestampSlot int) {
	r.engineTime += dt

	r.encoder.ClearCache()
	r.activeSlot = r.beginTimestamp()

	r.writeCameraUBO(eye, mulMat4(proj, view))
	r.scenePass(eye)
	if r.bloom.Intensity > 0 {
		r.bloomPyramid()
	}
	r.compositePass()
	if r.crtEnabled {
		r.crtPass()
	}
	_, slot := r.submit()
	return slot
}

func (r *FrameRenderer) writeCameraUBO(eye mgl32.Vec3, viewProj mat4Bytes) {
	ubo := CameraUBO{ViewProj: viewProj, EyeX: eye[0], EyeY: eye[1], EyeZ: eye[2]}
	if err := r.backend.WriteBuffer(r.cameraUBO, 0, structBytes(&ubo)); err != nil {
		return
	}
}

// scenePass draws opaque, then alpha-cutout, then back-to-front-sorted
// alpha-blend and additive groups (§4.12 step 3).
func (r *FrameRenderer) scenePass(eye mgl32.Vec3) {
	sortBackToFront(r.alphaBlend, eye)
	sortBackToFront(r.additive, eye)

	for _, g := range r.opaque {
		r.encoder.ExecuteDrawCommand(g.Command)
	}
	for _, g := range r.alphaCutout {
		r.encoder.ExecuteDrawCommand(g.Command)
	}
	for _, g := range r.alphaBlend {
		r.encoder.ExecuteDrawCommand(g.Command)
	}
	for _, g := range r.additive {
		r.encoder.ExecuteDrawCommand(g.Command)
	}
}

func sortBackToFront(groups []MaterialGroup, eye mgl32.Vec3) {
	sort.Slice(groups, func(i, j int) bool {
		vi := groups[i].Centroid.Sub(eye)
		vj := groups[j].Centroid.Sub(eye)
		return vi.Dot(vi) > vj.Dot(vj)
	})
}

// bloomPyramid runs the extract -> downsample chain -> upsample chain
// described in §4.12 step 4. Level count is clamped to BloomConfig's
// MipLevels (1..5). Every pass, upsample included, is a fullscreen draw
// into the frame's single render pass through a pipeline carrying the
// backend's fixed src-alpha/one-minus-src-alpha blend; no pass uses an
// additive blend or clears a target of its own.
func (r *FrameRenderer) bloomPyramid() {
	extract := BloomParams{Threshold: r.bloom.Threshold}
	r.drawFullscreen(r.extract.pipeline, r.extractParams, structBytes(&extract), r.extractBindGroup)

	for i := 0; i < r.bloom.MipLevels; i++ {
		texelW := float32(1) / float32(internalWidth>>uint(i+1))
		texelH := float32(1) / float32(internalHeight>>uint(i+1))
		params := DownsampleParams{TexelSize: [2]float32{texelW, texelH}}
		r.drawFullscreen(r.downsample.pipeline, r.downsampleParams[i], structBytes(&params), r.downsampleBindGroups[i])
	}

	for level := r.bloom.MipLevels - 1; level >= 0; level-- {
		texelW := float32(1) / float32(internalWidth>>uint(level+1))
		texelH := float32(1) / float32(internalHeight>>uint(level+1))
		params := UpsampleParams{
			TexelSize:   [2]float32{texelW, texelH},
			BlendFactor: BloomBlendFactor(level),
		}
		r.drawFullscreen(r.upsample.pipeline, r.upsampleParams[level], structBytes(&params), r.upsampleBindGroups[level])
	}
}

func (r *FrameRenderer) compositePass() {
	params := CompositeParams{
		BloomIntensity: r.bloom.Intensity,
		GrainAmount:    r.composite.GrainAmount,
		Gamma:          r.composite.Gamma,
		Time:           r.engineTime,
	}
	r.drawFullscreen(r.compositeStage.pipeline, r.compositeParamsBuf, structBytes(&params), r.compositeBindGroup)
}

func (r *FrameRenderer) crtPass() {
	params := r.crt
	r.drawFullscreen(r.crtStage.pipeline, r.crtParamsBuf, structBytes(&params), r.crtBindGroup)
}

// beginTimestamp picks the next available read-back slot out of the
// rotating set of three (§4.12 step 7) and writes its frame-start
// timestamp; if all three are still in flight, or the backend doesn't
// support timestamp queries (gpu.GPUTimer), this frame's GPU-time
// measurement is skipped rather than blocking the main thread.
func (r *FrameRenderer) beginTimestamp() int {
	timer, ok := r.backend.(gpu.GPUTimer)
	if !ok {
		return -1
	}
	for i := 0; i < maxInFlightReadbacks; i++ {
		candidate := (r.readbackSlot + i) % maxInFlightReadbacks
		if r.inFlight[candidate] {
			continue
		}
		if err := timer.BeginTimestamp(candidate); err != nil {
			return -1
		}
		r.inFlight[candidate] = true
		r.readbackSlot = (candidate + 1) % maxInFlightReadbacks
		return candidate
	}
	return -1
}

// submit writes the frame-end timestamp for whatever slot beginTimestamp
// picked, resolving it into its read-back buffer and kicking off the async
// map; PollGPUTime later reports the elapsed time once that map resolves.
func (r *FrameRenderer) submit() (measured bool, slot int) {
	if r.activeSlot < 0 {
		return false, -1
	}
	timer, ok := r.backend.(gpu.GPUTimer)
	if !ok {
		r.inFlight[r.activeSlot] = false
		return false, -1
	}
	if err := timer.EndTimestamp(r.activeSlot); err != nil {
		r.inFlight[r.activeSlot] = false
		return false, -1
	}
	return true, r.activeSlot
}

// PollGPUTime reports slot's elapsed GPU time once its async map has
// resolved, and marks the slot available for reuse when it has.
func (r *FrameRenderer) PollGPUTime(slot int) (ms float64, ready bool) {
	timer, ok := r.backend.(gpu.GPUTimer)
	if !ok || slot < 0 || slot >= maxInFlightReadbacks {
		return 0, false
	}
	ms, ready = timer.PollTimestamp(slot)
	if ready {
		r.CompleteReadback(slot)
	}
	return ms, ready
}

// CompleteReadback marks slot's read-back buffer available again once its
// async map resolves and gpuTimeMs has been computed by the caller.
func (r *FrameRenderer) CompleteReadback(slot int) {
	if slot >= 0 && slot < maxInFlightReadbacks {
		r.inFlight[slot] = false
	}
}

func mulMat4(a, b mat4Bytes) mat4Bytes {
	var out mat4Bytes
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}
