package ember

import (
	"encoding/binary"
	"hash/fnv"
	"reflect"
	"slices"
)

// archetypeId is the hash of a sorted, deduplicated archetypeKey. Two
// archetypes are equal iff their signatures (the sorted component-name join,
// §3.1) match; the id is the fast, collision-prone lookup key, the key
// itself is the canonical one.
type archetypeId uint64
type archetypeKey []componentId

const defaultColumnCapacity = 256

// componentColumn is one SoA field array for one component type. Numeric
// fields get a typed, contiguous backing slice (the performance path, §4.1);
// non-numeric fields are boxed into a parallel []any table keyed by row,
// per the "Dynamic component schemas" design note.
type componentColumn struct {
	field    FieldDescriptor
	numeric  reflect.Value // slice of the field's scalar Go type, len == capacity
	boxed    []any         // used when field.Kind == FieldBoxed
}

func newComponentColumn(fd FieldDescriptor, capacity int) *componentColumn {
	col := &componentColumn{field: fd}
	if fd.Kind == FieldBoxed {
		col.boxed = make([]any, capacity)
		for i := range col.boxed {
			col.boxed[i] = fd.Default
		}
	} else {
		var elemType reflect.Type
		switch v := fd.Default.(type) {
		default:
			elemType = reflect.TypeOf(v)
		}
		col.numeric = reflect.MakeSlice(reflect.SliceOf(elemType), capacity, capacity)
	}
	return col
}

func (c *componentColumn) grow(newCapacity int) {
	if c.field.Kind == FieldBoxed {
		grown := make([]any, newCapacity)
		copy(grown, c.boxed)
		for i := len(c.boxed); i < newCapacity; i++ {
			grown[i] = c.field.Default
		}
		c.boxed = grown
		return
	}
	grown := reflect.MakeSlice(c.numeric.Type(), newCapacity, newCapacity)
	reflect.Copy(grown, c.numeric)
	c.numeric = grown
}

func (c *componentColumn) get(row int) any {
	if c.field.Kind == FieldBoxed {
		return c.boxed[row]
	}
	return c.numeric.Index(row).Interface()
}

func (c *componentColumn) set(row int, value any) {
	if c.field.Kind == FieldBoxed {
		c.boxed[row] = value
		return
	}
	c.numeric.Index(row).Set(reflect.ValueOf(value))
}

func (c *componentColumn) swapRemove(row, lastRow int) {
	if row == lastRow {
		return
	}
	if c.field.Kind == FieldBoxed {
		c.boxed[row] = c.boxed[lastRow]
		return
	}
	c.numeric.Index(row).Set(c.numeric.Index(lastRow))
}

// componentStorage is the full SoA block for one component type within one
// archetype: one componentColumn per struct field.
type componentStorage struct {
	ct      *ComponentType
	columns []*componentColumn
	byName  map[string]int
}

func newComponentStorage(ct *ComponentType, capacity int) *componentStorage {
	cs := &componentStorage{ct: ct, byName: make(map[string]int, len(ct.Fields))}
	for i, fd := range ct.Fields {
		cs.columns = append(cs.columns, newComponentColumn(fd, capacity))
		cs.byName[fd.Name] = i
	}
	return cs
}

func (cs *componentStorage) grow(newCapacity int) {
	for _, col := range cs.columns {
		col.grow(newCapacity)
	}
}

func (cs *componentStorage) swapRemove(row, lastRow int) {
	for _, col := range cs.columns {
		col.swapRemove(row, lastRow)
	}
}

// FieldSpan returns the field's direct mutable backing slice as a
// reflect.Value, or an UnknownField error. Only valid for numeric fields;
// this is the O(1), cache-friendly iteration path of §4.1.
func (cs *componentStorage) FieldSpan(fieldName string) (reflect.Value, error) {
	idx, ok := cs.byName[fieldName]
	if !ok {
		return reflect.Value{}, &ErrUnknownField{Component: cs.ct.Name, Field: fieldName}
	}
	col := cs.columns[idx]
	if col.field.Kind == FieldBoxed {
		return reflect.Value{}, &ErrUnknownField{Component: cs.ct.Name, Field: fieldName}
	}
	return col.numeric, nil
}

func (cs *componentStorage) get(row int, fieldName string) (any, error) {
	idx, ok := cs.byName[fieldName]
	if !ok {
		return nil, &ErrUnknownField{Component: cs.ct.Name, Field: fieldName}
	}
	if row < 0 {
		return nil, &ErrOutOfRange{Field: fieldName, Index: row}
	}
	return cs.columns[idx].get(row), nil
}

func (cs *componentStorage) set(row int, fieldName string, value any) error {
	idx, ok := cs.byName[fieldName]
	if !ok {
		return &ErrUnknownField{Component: cs.ct.Name, Field: fieldName}
	}
	cs.columns[idx].set(row, value)
	return nil
}

// readStruct constructs a boxed T from the current row. Convenience only:
// the direct-span API above is the performance path (§4.1).
func (cs *componentStorage) readStruct(row int, out reflect.Value) {
	for i, fd := range cs.ct.Fields {
		val := cs.columns[i].get(row)
		out.FieldByName(fd.Name).Set(reflect.ValueOf(val))
	}
}

func (cs *componentStorage) writeStruct(row int, in reflect.Value) {
	for i, fd := range cs.ct.Fields {
		fv := in.FieldByName(fd.Name)
		cs.columns[i].set(row, fv.Interface())
	}
}

// archetype is the storage bucket for every entity carrying exactly one
// canonical set of component types (§3.1). Entities and every column share
// one `count`; add is append-at-count, remove is swap-with-last (§4.2).
type archetype struct {
	id       archetypeId
	key      archetypeKey
	entities []EntityId
	count    int
	capacity int
	storage  map[componentId]*componentStorage
}

func newArchetype(id archetypeId, key archetypeKey, registry *ComponentRegistry) *archetype {
	a := &archetype{
		id:       id,
		key:      key,
		capacity: defaultColumnCapacity,
		storage:  make(map[componentId]*componentStorage, len(key)),
	}
	a.entities = make([]EntityId, a.capacity)
	for _, cid := range key {
		a.storage[cid] = newComponentStorage(registry.typeOf(cid), a.capacity)
	}
	return a
}

func (a *archetype) grow() {
	newCapacity := a.capacity * 2
	if newCapacity == 0 {
		newCapacity = defaultColumnCapacity
	}
	grownEntities := make([]EntityId, newCapacity)
	copy(grownEntities, a.entities[:a.count])
	a.entities = grownEntities
	for _, cs := range a.storage {
		cs.grow(newCapacity)
	}
	a.capacity = newCapacity
}

// reserveRow appends entityId at index count, growing storage first if full,
// and returns the new row index.
func (a *archetype) reserveRow(entityId EntityId) int {
	if a.count == a.capacity {
		a.grow()
	}
	row := a.count
	a.entities[row] = entityId
	a.count++
	return row
}

// removeRow overwrites index with the last row in every column and in
// entities, shrinks count, and reports whether a swap occurred (and if so,
// which entity moved into `index`) so the caller can fix up its metadata.
func (a *archetype) removeRow(index int) (movedEntity EntityId, moved bool) {
	lastRow := a.count - 1
	if index != lastRow {
		a.entities[index] = a.entities[lastRow]
		for _, cs := range a.storage {
			cs.swapRemove(index, lastRow)
		}
		movedEntity = a.entities[index]
		moved = true
	}
	a.count--
	return movedEntity, moved
}

func (a *archetype) hasAllTypes(ids []componentId) bool {
	for _, id := range ids {
		if !a.hasType(id) {
			return false
		}
	}
	return true
}

func (a *archetype) hasAnyType(ids []componentId) bool {
	for _, id := range ids {
		if a.hasType(id) {
			return true
		}
	}
	return false
}

func (a *archetype) hasNoneOfTypes(ids []componentId) bool {
	return !a.hasAnyType(ids)
}

func (a *archetype) hasType(id componentId) bool {
	_, found := slices.BinarySearch(a.key, id)
	return found
}

func dedupAndSortKey(key archetypeKey) archetypeKey {
	seen := make(map[componentId]struct{}, len(key))
	res := make(archetypeKey, 0, len(key))
	for _, id := range key {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	slices.Sort(res)
	return res
}

func combineKeys(a, b archetypeKey) archetypeKey {
	combined := make(archetypeKey, 0, len(a)+len(b))
	combined = append(combined, a...)
	combined = append(combined, b...)
	return dedupAndSortKey(combined)
}

func removeFromKey(key archetypeKey, remove map[componentId]struct{}) archetypeKey {
	var res archetypeKey
	for _, id := range key {
		if _, skip := remove[id]; !skip {
			res = append(res, id)
		}
	}
	return res
}

func archetypeIdFromKey(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	buf := make([]byte, 8)
	for _, id := range key {
		binary.LittleEndian.PutUint64(buf, uint64(id))
		hash.Write(buf)
	}
	return archetypeId(hash.Sum64())
}
