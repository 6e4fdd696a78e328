package ember

import (
	"reflect"
	"slices"
)

// Ecs owns every entity, component registration, and archetype in one world.
// It is not safe for concurrent use; systems run sequentially per the
// scheduler's priority bands (§4.4).
type Ecs struct {
	logger     Logger
	entities   *entityManager
	components *ComponentRegistry
	archetypes  map[archetypeId]*archetype
	empty       *archetype
	archetypeGen int // bumped on every new archetype; invalidates query caches
}

func NewEcs(logger Logger) *Ecs {
	if logger == nil {
		logger = NewNopLogger()
	}
	components := newComponentRegistry(logger)
	e := &Ecs{
		logger:     logger,
		entities:   newEntityManager(),
		components: components,
		archetypes: make(map[archetypeId]*archetype),
	}
	e.empty = e.getOrCreateArchetype(nil)
	return e
}

// CreateEntity allocates a new id placed in the empty archetype (no
// components yet).
func (e *Ecs) CreateEntity() EntityId {
	id := e.entities.create()
	meta, _ := e.entities.metadata(id)
	row := e.empty.reserveRow(id)
	meta.Archetype = e.empty
	meta.Index = row
	return id
}

// DestroyEntity removes the entity's row from its archetype (swap-and-pop)
// and recycles its id. A stale or already-destroyed id is a silent no-op.
func (e *Ecs) DestroyEntity(id EntityId) {
	meta, ok := e.entities.metadata(id)
	if !ok {
		return
	}
	if meta.Archetype != nil && meta.Index >= 0 {
		e.removeRow(meta.Archetype, meta.Index)
	}
	e.entities.destroy(id)
}

func (e *Ecs) IsValid(id EntityId) bool {
	return e.entities.isValid(id)
}

// removeRow detaches row from arch and, if another entity's row moved into
// its place, fixes up that entity's metadata.
func (e *Ecs) removeRow(arch *archetype, row int) {
	moved, didMove := arch.removeRow(row)
	if didMove {
		if movedMeta, ok := e.entities.metadata(moved); ok {
			movedMeta.Index = row
		}
	}
}

func (e *Ecs) getOrCreateArchetype(key archetypeKey) *archetype {
	key = dedupAndSortKey(key)
	id := archetypeIdFromKey(key)
	for {
		arch, ok := e.archetypes[id]
		if !ok {
			break
		}
		if slices.Equal(arch.key, key) {
			return arch
		}
		id++ // hash collision with a different key: probe the next id
	}
	arch := newArchetype(id, key, e.components)
	e.archetypes[id] = arch
	e.archetypeGen++
	return arch
}

// moveEntity relocates id from its current archetype to the archetype for
// newKey, copying every field present in both, and returns the new row.
func (e *Ecs) moveEntity(id EntityId, newKey archetypeKey) int {
	meta, _ := e.entities.metadata(id)
	oldArch := meta.Archetype
	oldRow := meta.Index

	newArch := e.getOrCreateArchetype(newKey)
	newRow := newArch.reserveRow(id)

	if oldArch != nil {
		for cid, oldStorage := range oldArch.storage {
			newStorage, ok := newArch.storage[cid]
			if !ok {
				continue
			}
			for i, fd := range oldStorage.ct.Fields {
				val := oldStorage.columns[i].get(oldRow)
				newStorage.set(newRow, fd.Name, val)
			}
		}
		e.removeRow(oldArch, oldRow)
	}

	meta.Archetype = newArch
	meta.Index = newRow
	return newRow
}

// AddComponent attaches (or replaces) component T on id, moving it to the
// archetype with T added to its type set.
func AddComponent[T any](e *Ecs, id EntityId, value T) error {
	if !e.entities.isValid(id) {
		return &ErrInvalidEntity{Entity: id}
	}
	t := reflect.TypeOf(value)
	cid := e.components.idOf(t)

	meta, _ := e.entities.metadata(id)
	if meta.Archetype != nil && meta.Archetype.hasType(cid) {
		storage := meta.Archetype.storage[cid]
		storage.writeStruct(meta.Index, reflect.ValueOf(value))
		return nil
	}

	oldKey := archetypeKey(nil)
	if meta.Archetype != nil {
		oldKey = meta.Archetype.key
	}
	newKey := combineKeys(oldKey, archetypeKey{cid})
	row := e.moveEntity(id, newKey)

	meta, _ = e.entities.metadata(id)
	storage := meta.Archetype.storage[cid]
	storage.writeStruct(row, reflect.ValueOf(value))
	return nil
}

// RemoveComponent detaches T from id, moving it to the archetype with T
// removed from its type set. A no-op if id doesn't carry T.
func RemoveComponent[T any](e *Ecs, id EntityId) error {
	if !e.entities.isValid(id) {
		return &ErrInvalidEntity{Entity: id}
	}
	var zero T
	cid := e.components.idOf(reflect.TypeOf(zero))

	meta, _ := e.entities.metadata(id)
	if meta.Archetype == nil || !meta.Archetype.hasType(cid) {
		return nil
	}
	newKey := removeFromKey(meta.Archetype.key, map[componentId]struct{}{cid: {}})
	e.moveEntity(id, newKey)
	return nil
}

// GetComponent reads a boxed copy of T off id's current row. The second
// return is false if id is invalid or doesn't carry T.
func GetComponent[T any](e *Ecs, id EntityId) (T, bool) {
	var zero T
	meta, ok := e.entities.metadata(id)
	if !ok || meta.Archetype == nil {
		return zero, false
	}
	t := reflect.TypeOf(zero)
	cid := e.components.idOf(t)
	storage, ok := meta.Archetype.storage[cid]
	if !ok {
		return zero, false
	}
	out := reflect.New(t).Elem()
	storage.readStruct(meta.Index, out)
	return out.Interface().(T), true
}

// SetComponent overwrites T's fields on id's current row in place. Returns
// false if id is invalid or doesn't carry T (use AddComponent to attach it
// first).
func SetComponent[T any](e *Ecs, id EntityId, value T) bool {
	meta, ok := e.entities.metadata(id)
	if !ok || meta.Archetype == nil {
		return false
	}
	t := reflect.TypeOf(value)
	cid := e.components.idOf(t)
	storage, ok := meta.Archetype.storage[cid]
	if !ok {
		return false
	}
	storage.writeStruct(meta.Index, reflect.ValueOf(value))
	return true
}

// HasComponent reports whether id currently carries T.
func HasComponent[T any](e *Ecs, id EntityId) bool {
	var zero T
	meta, ok := e.entities.metadata(id)
	if !ok || meta.Archetype == nil {
		return false
	}
	cid := e.components.idOf(reflect.TypeOf(zero))
	return meta.Archetype.hasType(cid)
}
