package gpu

import (
	"fmt"

	"github.com/emberengine/ember/resource"
)

// resourceID identifies one registered GPU object in the Resource Registry.
// Prefixing by kind keeps shader/buffer/texture/... ids from colliding once
// they all share one resource.DependencyTracker keyspace.
type resourceID resource.ID

func shaderResourceID(h ShaderHandle) resourceID           { return resourceID(fmt.Sprintf("shader:%d", h)) }
func bufferResourceID(h BufferHandle) resourceID           { return resourceID(fmt.Sprintf("buffer:%d", h)) }
func textureResourceID(h TextureHandle) resourceID         { return resourceID(fmt.Sprintf("texture:%d", h)) }
func samplerResourceID(h SamplerHandle) resourceID         { return resourceID(fmt.Sprintf("sampler:%d", h)) }
func layoutResourceID(h BindGroupLayoutHandle) resourceID  { return resourceID(fmt.Sprintf("layout:%d", h)) }
func bindGroupResourceID(h BindGroupHandle) resourceID     { return resourceID(fmt.Sprintf("bindgroup:%d", h)) }
func pipelineResourceID(h PipelineHandle) resourceID       { return resourceID(fmt.Sprintf("pipeline:%d", h)) }
func computePipelineResourceID(h ComputePipelineHandle) resourceID {
	return resourceID(fmt.Sprintf("compute-pipeline:%d", h))
}

type registeredResource struct {
	id   resourceID
	desc any
}

// ResourceRegistry records every GPU object's creation descriptor and its
// dependency edges (pipeline -> shader+layouts, bind group -> layout+bound
// resources) so device-loss recovery can replay creation in the order the
// dependency graph demands, reusing resource.DependencyTracker's topological
// sort instead of hand-rolling a second one for the GPU layer (§4.10,
// SPEC_FULL.md Section F).
type ResourceRegistry struct {
	tracker     *resource.DependencyTracker
	descriptors map[resourceID]registeredResource
}

func newResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{
		tracker:     resource.NewDependencyTracker(),
		descriptors: make(map[resourceID]registeredResource),
	}
}

func (r *ResourceRegistry) register(id resourceID, desc any, deps []resourceID) {
	r.descriptors[id] = registeredResource{id: id, desc: desc}
	for _, dep := range deps {
		r.tracker.AddDependency(resource.ID(id), resource.ID(dep))
	}
}

func (r *ResourceRegistry) unregister(id resourceID) {
	delete(r.descriptors, id)
}

// loadOrder returns every registered resource id in an order where each
// id's dependencies precede it: a pipeline comes after its shader and
// layouts, a bind group after the objects it depends on. Ids with no
// dependency path between them come in no defined order.
func (r *ResourceRegistry) loadOrder() ([]resourceID, error) {
	ids := make([]resource.ID, 0, len(r.descriptors))
	for id := range r.descriptors {
		ids = append(ids, resource.ID(id))
	}
	ordered, err := r.tracker.LoadOrder(ids)
	if err != nil {
		return nil, err
	}
	out := make([]resourceID, len(ordered))
	for i, id := range ordered {
		out[i] = resourceID(id)
	}
	return out, nil
}
