package ember

// EntityId identifies an entity. The low bits index into the entity manager's
// metadata slab; the generation in EntityMetadata distinguishes a reused id
// from the entity that previously held it.
type EntityId uint64

// EntityMetadata is the entity manager's per-slot bookkeeping, grounded on
// lazyecs's entityMeta{archetypeIndex, index, version} shape: a flat slab
// indexed by id rather than a map, so validity checks are O(1) without a
// hash lookup.
type EntityMetadata struct {
	Generation uint32
	Archetype  *archetype
	Index      int // row within Archetype's columns; -1 when not placed
}

// entityManager issues and recycles EntityIds with LIFO free-list reuse and a
// per-slot generation counter, so a stale EntityId captured before a destroy
// is rejected rather than silently aliasing the new occupant.
type entityManager struct {
	metas   []EntityMetadata
	freeIDs []uint32 // LIFO stack of recyclable low-bit ids
	nextID  uint32
}

func newEntityManager() *entityManager {
	return &entityManager{}
}

func (m *entityManager) create() EntityId {
	var idx uint32
	if n := len(m.freeIDs); n > 0 {
		idx = m.freeIDs[n-1]
		m.freeIDs = m.freeIDs[:n-1]
	} else {
		idx = m.nextID
		m.nextID++
		m.metas = append(m.metas, EntityMetadata{Generation: 1, Index: -1})
	}
	m.metas[idx].Index = -1
	m.metas[idx].Archetype = nil
	return packEntityId(idx, m.metas[idx].Generation)
}

func (m *entityManager) destroy(id EntityId) {
	idx, gen := unpackEntityId(id)
	if int(idx) >= len(m.metas) || m.metas[idx].Generation != gen {
		return
	}
	m.metas[idx].Generation++
	if m.metas[idx].Generation == 0 {
		m.metas[idx].Generation = 1
	}
	m.metas[idx].Archetype = nil
	m.metas[idx].Index = -1
	m.freeIDs = append(m.freeIDs, idx)
}

// isValid is the use-after-free guard that every public World operation
// accepting an externally held EntityId must call before touching storage.
func (m *entityManager) isValid(id EntityId) bool {
	idx, gen := unpackEntityId(id)
	if int(idx) >= len(m.metas) {
		return false
	}
	return m.metas[idx].Generation == gen && gen != 0
}

func (m *entityManager) metadata(id EntityId) (*EntityMetadata, bool) {
	idx, gen := unpackEntityId(id)
	if int(idx) >= len(m.metas) || m.metas[idx].Generation != gen {
		return nil, false
	}
	return &m.metas[idx], true
}

func packEntityId(index uint32, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

func unpackEntityId(id EntityId) (index uint32, generation uint32) {
	return uint32(id), uint32(id >> 32)
}
