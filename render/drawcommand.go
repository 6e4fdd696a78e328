// Package render builds and submits per-frame draw commands against a
// gpu.Backend: a closed draw-command sum type with a one-shot builder, a
// command encoder with a within-frame redundancy-filtering cache, and the
// frame renderer that runs the scene/bloom/composite/CRT pipeline (§4.11 —
// §4.13).
package render

import "github.com/emberengine/ember/gpu"

const maxSlots = 4

// IndexFormat re-exports gpu.IndexFormat under this package's name: Backend's
// bind-time methods and the draw-command model must agree on the same type,
// and gpu is the leaf package so the type is declared there.
type IndexFormat = gpu.IndexFormat

const (
	IndexFormatUint16 = gpu.IndexFormatUint16
	IndexFormatUint32 = gpu.IndexFormatUint32
)

// SlotBuffer binds a vertex buffer to a vertex-input slot.
type SlotBuffer struct {
	Slot   int
	Buffer gpu.BufferHandle
}

// SlotBindGroup binds a bind group to a shader bind-group slot.
type SlotBindGroup struct {
	Slot  int
	Group gpu.BindGroupHandle
}

// Geometry is the closed sum type of draw shapes a DrawCommand can carry.
// isGeometry is unexported so only this package's four variants satisfy it
// — the Go idiom for a tagged union (spec.md's Design Notes).
type Geometry interface {
	isGeometry()
}

// IndexedGeometry draws IndexCount indices out of IndexBuffer.
type IndexedGeometry struct {
	IndexBuffer gpu.BufferHandle
	IndexFormat IndexFormat
	IndexCount  int
}

func (IndexedGeometry) isGeometry() {}

// NonIndexedGeometry draws VertexCount vertices directly.
type NonIndexedGeometry struct {
	VertexCount int
}

func (NonIndexedGeometry) isGeometry() {}

// IndirectGeometry reads draw parameters from IndirectBuffer at
// IndirectOffset (must be 4-byte aligned). IndexBuffer is set for an
// indexed-indirect draw, left zero for a non-indexed one.
type IndirectGeometry struct {
	IndirectBuffer gpu.BufferHandle
	IndirectOffset uint64
	IndexBuffer    gpu.BufferHandle
	IndexFormat    IndexFormat
}

func (IndirectGeometry) isGeometry() {}

// ComputeGeometry dispatches a compute pipeline instead of drawing.
type ComputeGeometry struct {
	WorkgroupsX, WorkgroupsY, WorkgroupsZ uint32
}

func (ComputeGeometry) isGeometry() {}

// DrawCommand is one fully-resolved draw or dispatch: a pipeline, its bound
// resources, and exactly one geometry variant.
type DrawCommand struct {
	Pipeline       gpu.PipelineHandle
	BindGroups     []SlotBindGroup
	VertexBuffers  []SlotBuffer
	Geometry       Geometry
}

// DrawCommandBuilder assembles one DrawCommand. Build() validates and
// returns a private copy, then resets the builder to its zero state — a
// second Build() on the same builder always fails (S5), since nothing is
// left to validate.
type DrawCommandBuilder struct {
	pipeline      gpu.PipelineHandle
	pipelineSet   bool
	bindGroups    []SlotBindGroup
	vertexBuffers []SlotBuffer
	geometry      Geometry
}

func NewDrawCommandBuilder() *DrawCommandBuilder {
	return &DrawCommandBuilder{}
}

// WithPipeline sets the pipeline to draw with.
func (b *DrawCommandBuilder) WithPipeline(p gpu.PipelineHandle) *DrawCommandBuilder {
	b.pipeline = p
	b.pipelineSet = true
	return b
}

// WithBindGroup binds group at slot, which must be in [0,3].
func (b *DrawCommandBuilder) WithBindGroup(slot int, group gpu.BindGroupHandle) *DrawCommandBuilder {
	b.bindGroups = append(b.bindGroups, SlotBindGroup{Slot: slot, Group: group})
	return b
}

// WithVertexBuffer binds a vertex buffer at slot, which must be in [0,3].
func (b *DrawCommandBuilder) WithVertexBuffer(slot int, buf gpu.BufferHandle) *DrawCommandBuilder {
	b.vertexBuffers = append(b.vertexBuffers, SlotBuffer{Slot: slot, Buffer: buf})
	return b
}

// WithGeometry sets the (single) geometry variant this command draws.
func (b *DrawCommandBuilder) WithGeometry(g Geometry) *DrawCommandBuilder {
	b.geometry = g
	return b
}

// Build validates the accumulated state and returns a standalone
// DrawCommand. On success the builder is reset; calling Build again without
// reconfiguring it fails with ErrBuilderIncomplete.
func (b *DrawCommandBuilder) Build() (DrawCommand, error) {
	if !b.pipelineSet {
		return DrawCommand{}, &ErrBuilderIncomplete{Reason: "no pipeline set"}
	}
	if b.geometry == nil {
		return DrawCommand{}, &ErrBuilderIncomplete{Reason: "no geometry set"}
	}
	for _, sb := range b.bindGroups {
		if sb.Slot < 0 || sb.Slot >= maxSlots {
			return DrawCommand{}, &ErrInvalidSlot{Slot: sb.Slot}
		}
	}
	for _, vb := range b.vertexBuffers {
		if vb.Slot < 0 || vb.Slot >= maxSlots {
			return DrawCommand{}, &ErrInvalidSlot{Slot: vb.Slot}
		}
	}

	if _, isCompute := b.geometry.(ComputeGeometry); !isCompute {
		if len(b.vertexBuffers) == 0 {
			if _, indirect := b.geometry.(IndirectGeometry); !indirect {
				return DrawCommand{}, &ErrBuilderIncomplete{Reason: "no vertex buffers bound"}
			}
		}
	}

	switch g := b.geometry.(type) {
	case IndexedGeometry:
		if g.IndexCount <= 0 {
			return DrawCommand{}, &ErrBuilderIncomplete{Reason: "index count must be positive"}
		}
	case NonIndexedGeometry:
		if g.VertexCount <= 0 {
			return DrawCommand{}, &ErrBuilderIncomplete{Reason: "vertex count must be positive"}
		}
	case IndirectGeometry:
		if g.IndirectOffset%4 != 0 {
			return DrawCommand{}, &ErrMisalignedIndirectOffset{Offset: g.IndirectOffset}
		}
	case ComputeGeometry:
		if g.WorkgroupsX == 0 || g.WorkgroupsY == 0 || g.WorkgroupsZ == 0 {
			return DrawCommand{}, &ErrBuilderIncomplete{Reason: "workgroup counts must be positive"}
		}
	}

	cmd := DrawCommand{
		Pipeline:      b.pipeline,
		BindGroups:    append([]SlotBindGroup(nil), b.bindGroups...),
		VertexBuffers: append([]SlotBuffer(nil), b.vertexBuffers...),
		Geometry:      b.geometry,
	}

	*b = DrawCommandBuilder{}
	return cmd, nil
}
