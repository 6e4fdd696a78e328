package render

import "github.com/emberengine/ember/gpu"

// Binder is the minimal backend-facing surface a CommandEncoder drives: one
// method per bind point plus the terminal draw/dispatch calls. A concrete
// gpu.Backend (or a render-pass wrapper over one) implements this; tests can
// substitute a recording fake to assert the only-on-miss binding contract.
type Binder interface {
	SetPipeline(p gpu.PipelineHandle)
	SetBindGroup(slot int, g gpu.BindGroupHandle)
	SetVertexBuffer(slot int, b gpu.BufferHandle)
	SetIndexBuffer(b gpu.BufferHandle, format IndexFormat)
	Draw(vertexCount int)
	DrawIndexed(indexCount int)
	DrawIndirect(indirect gpu.BufferHandle, offset uint64, indexed bool)
	Dispatch(x, y, z uint32)
}

// CacheStats reports the hit/miss counts accumulated since the last
// clearCache (§4.11: target hit rate ≥ 0.95 in typical scenes).
type CacheStats struct {
	Hits   int
	Misses int
}

// HitRate is Hits / (Hits+Misses), or 1.0 if nothing was checked yet.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 1.0
	}
	return float64(s.Hits) / float64(total)
}

// CommandEncoder resolves and issues DrawCommands against a Binder, caching
// the last bound id per slot within one frame so identical consecutive
// commands skip redundant bind calls. The cache is NOT a cross-frame
// pipeline-state cache — clearCache must run at the start of every frame.
type CommandEncoder struct {
	binder Binder

	lastPipeline    gpu.PipelineHandle
	havePipeline    bool
	bindGroupSlots  [maxSlots]gpu.BindGroupHandle
	bindGroupSet    [maxSlots]bool
	vertexSlots     [maxSlots]gpu.BufferHandle
	vertexSet       [maxSlots]bool
	lastIndexBuffer gpu.BufferHandle
	haveIndexBuffer bool

	stats CacheStats
}

func NewCommandEncoder(binder Binder) *CommandEncoder {
	e := &CommandEncoder{binder: binder}
	e.clearCacheLocked()
	return e
}

// clearCache resets every cached binding and the hit/miss counters. Call
// once at the start of every frame.
func (e *CommandEncoder) clearCache() {
	e.clearCacheLocked()
}

func (e *CommandEncoder) clearCacheLocked() {
	e.havePipeline = false
	for i := range e.bindGroupSet {
		e.bindGroupSet[i] = false
		e.vertexSet[i] = false
	}
	e.haveIndexBuffer = false
	e.stats = CacheStats{}
}

// ClearCache is the exported entry point to clearCache; FrameRenderer calls
// it at the start of every RenderFrame.
func (e *CommandEncoder) ClearCache() { e.clearCache() }

// GetCacheStats returns the hit/miss counters accumulated since the last
// ClearCache.
func (e *CommandEncoder) GetCacheStats() CacheStats { return e.stats }

// ExecuteDrawCommand resolves cmd's bindings against the per-frame cache,
// issuing a bind call to the Binder only when the slot's bound object
// differs from what's already bound, then emits the draw or dispatch call
// for cmd's geometry variant.
func (e *CommandEncoder) ExecuteDrawCommand(cmd DrawCommand) {
	if !e.havePipeline || e.lastPipeline != cmd.Pipeline {
		e.binder.SetPipeline(cmd.Pipeline)
		e.lastPipeline = cmd.Pipeline
		e.havePipeline = true
		e.stats.Misses++
	} else {
		e.stats.Hits++
	}

	for _, bg := range cmd.BindGroups {
		if bg.Slot < 0 || bg.Slot >= maxSlots {
			continue
		}
		if !e.bindGroupSet[bg.Slot] || e.bindGroupSlots[bg.Slot] != bg.Group {
			e.binder.SetBindGroup(bg.Slot, bg.Group)
			e.bindGroupSlots[bg.Slot] = bg.Group
			e.bindGroupSet[bg.Slot] = true
			e.stats.Misses++
		} else {
			e.stats.Hits++
		}
	}

	for _, vb := range cmd.VertexBuffers {
		if vb.Slot < 0 || vb.Slot >= maxSlots {
			continue
		}
		if !e.vertexSet[vb.Slot] || e.vertexSlots[vb.Slot] != vb.Buffer {
			e.binder.SetVertexBuffer(vb.Slot, vb.Buffer)
			e.vertexSlots[vb.Slot] = vb.Buffer
			e.vertexSet[vb.Slot] = true
			e.stats.Misses++
		} else {
			e.stats.Hits++
		}
	}

	switch g := cmd.Geometry.(type) {
	case IndexedGeometry:
		e.bindIndexBuffer(g.IndexBuffer, g.IndexFormat)
		e.binder.DrawIndexed(g.IndexCount)
	case NonIndexedGeometry:
		e.binder.Draw(g.VertexCount)
	case IndirectGeometry:
		indexed := g.IndexBuffer.Valid()
		if indexed {
			e.bindIndexBuffer(g.IndexBuffer, g.IndexFormat)
		}
		e.binder.DrawIndirect(g.IndirectBuffer, g.IndirectOffset, indexed)
	case ComputeGeometry:
		e.binder.Dispatch(g.WorkgroupsX, g.WorkgroupsY, g.WorkgroupsZ)
	}
}

func (e *CommandEncoder) bindIndexBuffer(h gpu.BufferHandle, format IndexFormat) {
	if !e.haveIndexBuffer || e.lastIndexBuffer != h {
		e.binder.SetIndexBuffer(h, format)
		e.lastIndexBuffer = h
		e.haveIndexBuffer = true
		e.stats.Misses++
	} else {
		e.stats.Hits++
	}
}
