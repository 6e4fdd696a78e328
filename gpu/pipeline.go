package gpu

import (
	"encoding/binary"
	"hash/fnv"
)

// VertexAttribute is one entry of a vertex buffer layout, used only to fold
// into the layout hash below — the concrete wgpu.VertexAttribute the
// backend builds from it lives alongside the wgpuBackend.
type VertexAttribute struct {
	Name    string
	Kind    VertexElementKind
	Count   int
	Offset  uint64
}

type VertexElementKind int

const (
	VertexFloat32 VertexElementKind = iota
	VertexSint32
	VertexUint32
	VertexUnorm8
)

// VertexLayout is one vertex buffer's attribute list plus its stride.
type VertexLayout struct {
	Attributes []VertexAttribute
	Stride     uint64
}

// hashVertexLayout folds attribute name, element kind, element count,
// offset, and stride into one value, per §4.10's pipeline key contract.
func hashVertexLayout(layout VertexLayout) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, attr := range layout.Attributes {
		h.Write([]byte(attr.Name))
		binary.LittleEndian.PutUint64(buf, uint64(attr.Kind))
		h.Write(buf)
		binary.LittleEndian.PutUint64(buf, uint64(attr.Count))
		h.Write(buf)
		binary.LittleEndian.PutUint64(buf, attr.Offset)
		h.Write(buf)
	}
	binary.LittleEndian.PutUint64(buf, layout.Stride)
	h.Write(buf)
	return h.Sum64()
}

// PipelineKey identifies a cacheable render pipeline: the shader it was
// built from, its vertex layout's folded hash, and whether it's the
// instanced variant.
type PipelineKey struct {
	ShaderID     ShaderHandle
	LayoutHash   uint64
	Instanced    bool
}

// NewPipelineKey builds the cache key for shader+layout+instanced.
func NewPipelineKey(shader ShaderHandle, layout VertexLayout, instanced bool) PipelineKey {
	return PipelineKey{ShaderID: shader, LayoutHash: hashVertexLayout(layout), Instanced: instanced}
}

// PipelineCache maps a PipelineKey to an already-created pipeline handle so
// repeat requests for the same (shader, layout, instanced) triple reuse the
// existing object.
type PipelineCache struct {
	cache map[PipelineKey]PipelineHandle
}

func NewPipelineCache() *PipelineCache {
	return &PipelineCache{cache: make(map[PipelineKey]PipelineHandle)}
}

func (c *PipelineCache) Get(key PipelineKey) (PipelineHandle, bool) {
	h, ok := c.cache[key]
	return h, ok
}

func (c *PipelineCache) Put(key PipelineKey, handle PipelineHandle) {
	c.cache[key] = handle
}
