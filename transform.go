package ember

import (
	"github.com/emberengine/ember/mat4"
	"github.com/go-gl/mathgl/mgl32"
)

// maxHierarchyDepth caps the ancestor walk so a malformed (or pathologically
// deep) hierarchy fails loud instead of recursing forever (§4.6).
const maxHierarchyDepth = 100

const noParent int32 = -1

// Transform is the built-in hierarchical transform component: a local TRS,
// a parent/child linked list, a dirty flag, and the two Matrix Storage
// indices holding its cached local/world matrices. Every field is numeric
// so the whole component lives in plain SoA columns (§4.1).
type Transform struct {
	PosX, PosY, PosZ             float32
	RotX, RotY, RotZ             float32 // Euler radians, XYZ order
	ScaleX, ScaleY, ScaleZ       float32
	ParentId, FirstChildId, NextSiblingId int32 // entity index, -1 sentinel
	Dirty                        uint8
	LocalMatrixIndex, WorldMatrixIndex int32
}

func defaultTransform() Transform {
	return Transform{
		ScaleX: 1, ScaleY: 1, ScaleZ: 1,
		ParentId: noParent, FirstChildId: noParent, NextSiblingId: noParent,
		Dirty: 1,
	}
}

// TransformSystem owns the Matrix Storage pool and per-entity normal-matrix
// cache backing every Transform component in an Ecs.
type TransformSystem struct {
	logger      Logger
	matrices    *mat4.Storage
	normalCache map[EntityId][12]float32
}

func NewTransformSystem(logger Logger) *TransformSystem {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &TransformSystem{
		logger:      logger,
		matrices:    mat4.NewStorage(),
		normalCache: make(map[EntityId][12]float32),
	}
}

// Attach adds a default (identity, no parent) Transform to id, allocating
// its local/world matrix rows.
func (ts *TransformSystem) Attach(ecs *Ecs, id EntityId) error {
	tr := defaultTransform()
	tr.LocalMatrixIndex = int32(ts.matrices.Alloc())
	tr.WorldMatrixIndex = int32(ts.matrices.Alloc())
	return AddComponent(ecs, id, tr)
}

func (ts *TransformSystem) resolveEntity(ecs *Ecs, index int32) (EntityId, bool) {
	return ecsResolveStatic(ecs, index)
}

func entityIndex(id EntityId) int32 {
	idx, _ := unpackEntityId(id)
	return int32(idx)
}

// SetPosition overwrites an entity's local position and marks it dirty.
func (ts *TransformSystem) SetPosition(ecs *Ecs, id EntityId, position mgl32.Vec3) bool {
	tr, ok := GetComponent[Transform](ecs, id)
	if !ok {
		return false
	}
	tr.PosX, tr.PosY, tr.PosZ = position[0], position[1], position[2]
	tr.Dirty = 1
	return SetComponent(ecs, id, tr)
}

// SetRotation overwrites an entity's local Euler rotation (radians) and
// marks it dirty.
func (ts *TransformSystem) SetRotation(ecs *Ecs, id EntityId, eulerRadians mgl32.Vec3) bool {
	tr, ok := GetComponent[Transform](ecs, id)
	if !ok {
		return false
	}
	tr.RotX, tr.RotY, tr.RotZ = eulerRadians[0], eulerRadians[1], eulerRadians[2]
	tr.Dirty = 1
	return SetComponent(ecs, id, tr)
}

// SetScale overwrites an entity's local scale and marks it dirty.
func (ts *TransformSystem) SetScale(ecs *Ecs, id EntityId, scale mgl32.Vec3) bool {
	tr, ok := GetComponent[Transform](ecs, id)
	if !ok {
		return false
	}
	tr.ScaleX, tr.ScaleY, tr.ScaleZ = scale[0], scale[1], scale[2]
	tr.Dirty = 1
	return SetComponent(ecs, id, tr)
}

// SetParent reparents id under parentId (or, when hasParent is false,
// detaches it and ignores parentId), unlinking it from its old parent's child list and
// prepending it to the new one's. A reparent that would introduce a cycle
// is rejected with ErrHierarchyCycle and logged; the hierarchy is left
// unchanged.
func (ts *TransformSystem) SetParent(ecs *Ecs, id EntityId, parentId EntityId, hasParent bool) error {
	tr, ok := GetComponent[Transform](ecs, id)
	if !ok {
		return &ErrInvalidEntity{Entity: id}
	}

	if hasParent {
		if wouldCycle(ecs, id, parentId) {
			ts.logger.Errorf("rejecting reparent of entity %d under %d: would introduce a cycle", id, parentId)
			return &ErrHierarchyCycle{Entity: id, Parent: parentId}
		}
	}

	ts.unlinkFromParent(ecs, id, tr)

	if hasParent {
		parentTr, ok := GetComponent[Transform](ecs, parentId)
		if !ok {
			ts.logger.Errorf("set_parent: parent entity %d not found; treating %d as root", parentId, id)
			tr.ParentId = noParent
		} else {
			tr.ParentId = entityIndex(parentId)
			tr.NextSiblingId = parentTr.FirstChildId
			parentTr.FirstChildId = entityIndex(id)
			SetComponent(ecs, parentId, parentTr)
		}
	} else {
		tr.ParentId = noParent
	}

	tr.Dirty = 1
	SetComponent(ecs, id, tr)
	return nil
}

func (ts *TransformSystem) unlinkFromParent(ecs *Ecs, id EntityId, tr Transform) {
	if tr.ParentId == noParent {
		return
	}
	parentId, ok := ts.resolveEntity(ecs, tr.ParentId)
	if !ok {
		return
	}
	parentTr, ok := GetComponent[Transform](ecs, parentId)
	if !ok {
		return
	}
	if parentTr.FirstChildId == entityIndex(id) {
		parentTr.FirstChildId = tr.NextSiblingId
		SetComponent(ecs, parentId, parentTr)
		return
	}
	cursor := parentTr.FirstChildId
	for cursor != noParent {
		cursorId, ok := ts.resolveEntity(ecs, cursor)
		if !ok {
			break
		}
		cursorTr, ok := GetComponent[Transform](ecs, cursorId)
		if !ok {
			break
		}
		if cursorTr.NextSiblingId == entityIndex(id) {
			cursorTr.NextSiblingId = tr.NextSiblingId
			SetComponent(ecs, cursorId, cursorTr)
			return
		}
		cursor = cursorTr.NextSiblingId
	}
}

func wouldCycle(ecs *Ecs, id, newParent EntityId) bool {
	if id == newParent {
		return true
	}
	visited := map[EntityId]struct{}{id: {}}
	cursor := newParent
	for i := 0; i < maxHierarchyDepth; i++ {
		if _, seen := visited[cursor]; seen {
			return true
		}
		visited[cursor] = struct{}{}
		tr, ok := GetComponent[Transform](ecs, cursor)
		if !ok || tr.ParentId == noParent {
			return false
		}
		parentId, ok := ecsResolveStatic(ecs, tr.ParentId)
		if !ok {
			return false
		}
		cursor = parentId
	}
	return true
}

func ecsResolveStatic(ecs *Ecs, index int32) (EntityId, bool) {
	if index < 0 || int(index) >= len(ecs.entities.metas) {
		return 0, false
	}
	meta := &ecs.entities.metas[index]
	if meta.Generation == 0 {
		return 0, false
	}
	return packEntityId(uint32(index), meta.Generation), true
}

// Update propagates every dirty Transform's local TRS into its cached world
// matrix, cascading to children breadth-first within this single call so
// the whole hierarchy is coherent once Update returns (§4.6, the "Transform
// coherence" invariant).
func (ts *TransformSystem) Update(ecs *Ecs) {
	queue := ts.collectDirty(ecs)
	processed := make(map[EntityId]bool, len(queue))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if processed[id] {
			continue
		}
		queue = ts.updateEntity(ecs, id, processed, queue, 0)
	}
}

func (ts *TransformSystem) collectDirty(ecs *Ecs) []EntityId {
	var dirty []EntityId
	MakeQuery1[Transform](ecs).Map(func(id EntityId, tr *Transform) bool {
		if tr.Dirty != 0 {
			dirty = append(dirty, id)
		}
		return true
	})
	return dirty
}

func (ts *TransformSystem) updateEntity(ecs *Ecs, id EntityId, processed map[EntityId]bool, queue []EntityId, depth int) []EntityId {
	if processed[id] {
		return queue
	}
	if depth > maxHierarchyDepth {
		ts.logger.Errorf("ancestor chain for entity %d exceeded depth %d; leaving world matrix as last computed", id, maxHierarchyDepth)
		processed[id] = true
		return queue
	}

	tr, ok := GetComponent[Transform](ecs, id)
	if !ok {
		processed[id] = true
		return queue
	}

	var parentWorld mat4.Mat4
	hasParent := false
	if tr.ParentId != noParent {
		parentId, ok := ts.resolveEntity(ecs, tr.ParentId)
		if !ok {
			ts.logger.Errorf("transform update: parent of entity %d is missing; treating as root", id)
		} else {
			queue = ts.updateEntity(ecs, parentId, processed, queue, depth+1)
			parentTr, ok := GetComponent[Transform](ecs, parentId)
			if ok {
				parentWorld = ts.matrices.Get(int(parentTr.WorldMatrixIndex))
				hasParent = true
			}
		}
	}

	if tr.Dirty != 0 {
		local := mat4.ComposeTRS(
			mgl32.Vec3{tr.PosX, tr.PosY, tr.PosZ},
			mgl32.Vec3{tr.RotX, tr.RotY, tr.RotZ},
			mgl32.Vec3{tr.ScaleX, tr.ScaleY, tr.ScaleZ},
		)
		ts.matrices.Set(int(tr.LocalMatrixIndex), local)

		var world mat4.Mat4
		if hasParent {
			world = mat4.Mul(parentWorld, local)
		} else {
			world = local
		}
		ts.matrices.Set(int(tr.WorldMatrixIndex), world)

		tr.Dirty = 0
		SetComponent(ecs, id, tr)
		delete(ts.normalCache, id)

		queue = ts.enqueueChildren(ecs, tr, queue)
	}

	processed[id] = true
	return queue
}

func (ts *TransformSystem) enqueueChildren(ecs *Ecs, tr Transform, queue []EntityId) []EntityId {
	cursor := tr.FirstChildId
	for cursor != noParent {
		childId, ok := ts.resolveEntity(ecs, cursor)
		if !ok {
			break
		}
		childTr, ok := GetComponent[Transform](ecs, childId)
		if !ok {
			break
		}
		childTr.Dirty = 1
		SetComponent(ecs, childId, childTr)
		queue = append(queue, childId)
		cursor = childTr.NextSiblingId
	}
	return queue
}

// WorldMatrix returns the entity's current cached world matrix.
func (ts *TransformSystem) WorldMatrix(ecs *Ecs, id EntityId) (mat4.Mat4, bool) {
	tr, ok := GetComponent[Transform](ecs, id)
	if !ok {
		return mat4.Mat4{}, false
	}
	return ts.matrices.Get(int(tr.WorldMatrixIndex)), true
}

// NormalMatrix returns the cached inverse-transpose upper-3x3 (padded to
// three vec4 rows), computing and caching it on first access after a dirty
// recompute. Returns ok=false when the world matrix is singular.
func (ts *TransformSystem) NormalMatrix(ecs *Ecs, id EntityId) (m [12]float32, ok bool) {
	if cached, found := ts.normalCache[id]; found {
		return cached, true
	}
	world, found := ts.WorldMatrix(ecs, id)
	if !found {
		return m, false
	}
	n, normalOk := mat4.NormalMatrix3(world)
	if !normalOk {
		return m, false
	}
	ts.normalCache[id] = n
	return n, true
}

// DestroyEntity frees id's matrix rows, unlinks it from its parent's child
// list, reparents its children to none (marking them dirty), and clears the
// normal-matrix cache before destroying id on ecs. Entities carrying a
// Transform must be destroyed through this method rather than
// Ecs.DestroyEntity directly, so hierarchy bookkeeping never goes stale.
func (ts *TransformSystem) DestroyEntity(ecs *Ecs, id EntityId) {
	tr, ok := GetComponent[Transform](ecs, id)
	if ok {
		ts.unlinkFromParent(ecs, id, tr)

		cursor := tr.FirstChildId
		for cursor != noParent {
			childId, found := ts.resolveEntity(ecs, cursor)
			if !found {
				break
			}
			childTr, found := GetComponent[Transform](ecs, childId)
			if !found {
				break
			}
			next := childTr.NextSiblingId
			childTr.ParentId = noParent
			childTr.Dirty = 1
			SetComponent(ecs, childId, childTr)
			cursor = next
		}

		ts.matrices.Free(int(tr.LocalMatrixIndex))
		ts.matrices.Free(int(tr.WorldMatrixIndex))
		delete(ts.normalCache, id)
	}
	ecs.DestroyEntity(id)
}
