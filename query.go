package ember

import "reflect"

// queryFilter holds the With/Without/WithAny type sets shared by every query
// arity. Matching archetypes are cached and only recomputed when the Ecs's
// archetype set has changed since the last Map call (§4.3).
type queryFilter struct {
	ecs        *Ecs
	withIds    archetypeKey
	withoutIds archetypeKey
	anyIds     archetypeKey
	cacheGen   int
	cached     []*archetype
}

func newQueryFilter(ecs *Ecs, required ...componentId) *queryFilter {
	return &queryFilter{ecs: ecs, withIds: dedupAndSortKey(required), cacheGen: -1}
}

func (f *queryFilter) without(types ...any) {
	for _, sample := range types {
		f.withoutIds = append(f.withoutIds, f.ecs.components.idOf(reflect.TypeOf(sample)))
	}
	f.withoutIds = dedupAndSortKey(f.withoutIds)
	f.cacheGen = -1
}

func (f *queryFilter) withAny(types ...any) {
	for _, sample := range types {
		f.anyIds = append(f.anyIds, f.ecs.components.idOf(reflect.TypeOf(sample)))
	}
	f.anyIds = dedupAndSortKey(f.anyIds)
	f.cacheGen = -1
}

func (f *queryFilter) refresh() {
	if f.cacheGen == f.ecs.archetypeGen {
		return
	}
	f.cached = f.cached[:0]
	for _, arch := range f.ecs.archetypes {
		if !arch.hasAllTypes(f.withIds) {
			continue
		}
		if len(f.withoutIds) > 0 && arch.hasAnyType(f.withoutIds) {
			continue
		}
		if len(f.anyIds) > 0 && !arch.hasAnyType(f.anyIds) {
			continue
		}
		f.cached = append(f.cached, arch)
	}
	f.cacheGen = f.ecs.archetypeGen
}

// Query1 iterates every entity carrying component A.
type Query1[A any] struct {
	filter *queryFilter
	aId    componentId
}

func MakeQuery1[A any](ecs *Ecs) *Query1[A] {
	var zero A
	aId := ecs.components.idOf(reflect.TypeOf(zero))
	return &Query1[A]{filter: newQueryFilter(ecs, aId), aId: aId}
}

func (q *Query1[A]) WithoutTypes(types ...any) *Query1[A] { q.filter.without(types...); return q }
func (q *Query1[A]) WithAnyTypes(types ...any) *Query1[A] { q.filter.withAny(types...); return q }

// Map visits every matching entity, passing a pointer to a locally
// materialized copy of A; mutations through the pointer are written back
// after fn returns. Returning false from fn stops iteration early.
func (q *Query1[A]) Map(fn func(EntityId, *A) bool) {
	q.filter.refresh()
	for _, arch := range q.filter.cached {
		storage := arch.storage[q.aId]
		for row := 0; row < arch.count; row++ {
			var a A
			av := reflect.ValueOf(&a).Elem()
			storage.readStruct(row, av)
			id := arch.entities[row]
			keepGoing := fn(id, &a)
			storage.writeStruct(row, av)
			if !keepGoing {
				return
			}
		}
	}
}

// Query2 iterates every entity carrying both A and B.
type Query2[A, B any] struct {
	filter     *queryFilter
	aId, bId   componentId
}

func MakeQuery2[A, B any](ecs *Ecs) *Query2[A, B] {
	var za A
	var zb B
	aId := ecs.components.idOf(reflect.TypeOf(za))
	bId := ecs.components.idOf(reflect.TypeOf(zb))
	return &Query2[A, B]{filter: newQueryFilter(ecs, aId, bId), aId: aId, bId: bId}
}

func (q *Query2[A, B]) WithoutTypes(types ...any) *Query2[A, B] { q.filter.without(types...); return q }
func (q *Query2[A, B]) WithAnyTypes(types ...any) *Query2[A, B] { q.filter.withAny(types...); return q }

func (q *Query2[A, B]) Map(fn func(EntityId, *A, *B) bool) {
	q.filter.refresh()
	for _, arch := range q.filter.cached {
		as := arch.storage[q.aId]
		bs := arch.storage[q.bId]
		for row := 0; row < arch.count; row++ {
			var a A
			var b B
			av := reflect.ValueOf(&a).Elem()
			bv := reflect.ValueOf(&b).Elem()
			as.readStruct(row, av)
			bs.readStruct(row, bv)
			id := arch.entities[row]
			keepGoing := fn(id, &a, &b)
			as.writeStruct(row, av)
			bs.writeStruct(row, bv)
			if !keepGoing {
				return
			}
		}
	}
}

// Query3 iterates every entity carrying A, B, and C.
type Query3[A, B, C any] struct {
	filter         *queryFilter
	aId, bId, cId  componentId
}

func MakeQuery3[A, B, C any](ecs *Ecs) *Query3[A, B, C] {
	var za A
	var zb B
	var zc C
	aId := ecs.components.idOf(reflect.TypeOf(za))
	bId := ecs.components.idOf(reflect.TypeOf(zb))
	cId := ecs.components.idOf(reflect.TypeOf(zc))
	return &Query3[A, B, C]{filter: newQueryFilter(ecs, aId, bId, cId), aId: aId, bId: bId, cId: cId}
}

func (q *Query3[A, B, C]) WithoutTypes(types ...any) *Query3[A, B, C] { q.filter.without(types...); return q }
func (q *Query3[A, B, C]) WithAnyTypes(types ...any) *Query3[A, B, C] { q.filter.withAny(types...); return q }

func (q *Query3[A, B, C]) Map(fn func(EntityId, *A, *B, *C) bool) {
	q.filter.refresh()
	for _, arch := range q.filter.cached {
		as := arch.storage[q.aId]
		bs := arch.storage[q.bId]
		cs := arch.storage[q.cId]
		for row := 0; row < arch.count; row++ {
			var a A
			var b B
			var c C
			av := reflect.ValueOf(&a).Elem()
			bv := reflect.ValueOf(&b).Elem()
			cv := reflect.ValueOf(&c).Elem()
			as.readStruct(row, av)
			bs.readStruct(row, bv)
			cs.readStruct(row, cv)
			id := arch.entities[row]
			keepGoing := fn(id, &a, &b, &c)
			as.writeStruct(row, av)
			bs.writeStruct(row, bv)
			cs.writeStruct(row, cv)
			if !keepGoing {
				return
			}
		}
	}
}

// Query4 iterates every entity carrying A, B, C, and D.
type Query4[A, B, C, D any] struct {
	filter                 *queryFilter
	aId, bId, cId, dId     componentId
}

func MakeQuery4[A, B, C, D any](ecs *Ecs) *Query4[A, B, C, D] {
	var za A
	var zb B
	var zc C
	var zd D
	aId := ecs.components.idOf(reflect.TypeOf(za))
	bId := ecs.components.idOf(reflect.TypeOf(zb))
	cId := ecs.components.idOf(reflect.TypeOf(zc))
	dId := ecs.components.idOf(reflect.TypeOf(zd))
	return &Query4[A, B, C, D]{filter: newQueryFilter(ecs, aId, bId, cId, dId), aId: aId, bId: bId, cId: cId, dId: dId}
}

func (q *Query4[A, B, C, D]) WithoutTypes(types ...any) *Query4[A, B, C, D] {
	q.filter.without(types...)
	return q
}
func (q *Query4[A, B, C, D]) WithAnyTypes(types ...any) *Query4[A, B, C, D] {
	q.filter.withAny(types...)
	return q
}

func (q *Query4[A, B, C, D]) Map(fn func(EntityId, *A, *B, *C, *D) bool) {
	q.filter.refresh()
	for _, arch := range q.filter.cached {
		as := arch.storage[q.aId]
		bs := arch.storage[q.bId]
		cs := arch.storage[q.cId]
		ds := arch.storage[q.dId]
		for row := 0; row < arch.count; row++ {
			var a A
			var b B
			var c C
			var d D
			av := reflect.ValueOf(&a).Elem()
			bv := reflect.ValueOf(&b).Elem()
			cv := reflect.ValueOf(&c).Elem()
			dv := reflect.ValueOf(&d).Elem()
			as.readStruct(row, av)
			bs.readStruct(row, bv)
			cs.readStruct(row, cv)
			ds.readStruct(row, dv)
			id := arch.entities[row]
			keepGoing := fn(id, &a, &b, &c, &d)
			as.writeStruct(row, av)
			bs.writeStruct(row, bv)
			cs.writeStruct(row, cv)
			ds.writeStruct(row, dv)
			if !keepGoing {
				return
			}
		}
	}
}

// Query5 iterates every entity carrying A, B, C, D, and E.
type Query5[A, B, C, D, E any] struct {
	filter                      *queryFilter
	aId, bId, cId, dId, eId     componentId
}

func MakeQuery5[A, B, C, D, E any](ecs *Ecs) *Query5[A, B, C, D, E] {
	var za A
	var zb B
	var zc C
	var zd D
	var ze E
	aId := ecs.components.idOf(reflect.TypeOf(za))
	bId := ecs.components.idOf(reflect.TypeOf(zb))
	cId := ecs.components.idOf(reflect.TypeOf(zc))
	dId := ecs.components.idOf(reflect.TypeOf(zd))
	eId := ecs.components.idOf(reflect.TypeOf(ze))
	return &Query5[A, B, C, D, E]{
		filter: newQueryFilter(ecs, aId, bId, cId, dId, eId),
		aId:    aId, bId: bId, cId: cId, dId: dId, eId: eId,
	}
}

func (q *Query5[A, B, C, D, E]) WithoutTypes(types ...any) *Query5[A, B, C, D, E] {
	q.filter.without(types...)
	return q
}
func (q *Query5[A, B, C, D, E]) WithAnyTypes(types ...any) *Query5[A, B, C, D, E] {
	q.filter.withAny(types...)
	return q
}

func (q *Query5[A, B, C, D, E]) Map(fn func(EntityId, *A, *B, *C, *D, *E) bool) {
	q.filter.refresh()
	for _, arch := range q.filter.cached {
		as := arch.storage[q.aId]
		bs := arch.storage[q.bId]
		cs := arch.storage[q.cId]
		ds := arch.storage[q.dId]
		es := arch.storage[q.eId]
		for row := 0; row < arch.count; row++ {
			var a A
			var b B
			var c C
			var d D
			var e E
			av := reflect.ValueOf(&a).Elem()
			bv := reflect.ValueOf(&b).Elem()
			cv := reflect.ValueOf(&c).Elem()
			dv := reflect.ValueOf(&d).Elem()
			ev := reflect.ValueOf(&e).Elem()
			as.readStruct(row, av)
			bs.readStruct(row, bv)
			cs.readStruct(row, cv)
			ds.readStruct(row, dv)
			es.readStruct(row, ev)
			id := arch.entities[row]
			keepGoing := fn(id, &a, &b, &c, &d, &e)
			as.writeStruct(row, av)
			bs.writeStruct(row, bv)
			cs.writeStruct(row, cv)
			ds.writeStruct(row, dv)
			es.writeStruct(row, ev)
			if !keepGoing {
				return
			}
		}
	}
}

// GetOptional reads T off id if present; the second return is false rather
// than an error when the entity simply lacks the component, so callers can
// use it inline inside a Map callback for the optional-filter pattern.
func GetOptional[T any](ecs *Ecs, id EntityId) (T, bool) {
	return GetComponent[T](ecs, id)
}
