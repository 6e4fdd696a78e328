package ember

import (
	"fmt"
	"reflect"
)

// FieldKind enumerates the scalar types a SoA column's field may hold.
// Only numeric fields are eligible for column storage (§3.1); everything
// else is boxed into the archetype's parallel row table.
type FieldKind int

const (
	FieldInvalid FieldKind = iota
	FieldInt8
	FieldInt16
	FieldInt32
	FieldInt64
	FieldUint8
	FieldUint16
	FieldUint32
	FieldUint64
	FieldFloat32
	FieldFloat64
	FieldBoxed // anything non-numeric; lives in the archetype's boxed table
)

func fieldKindOf(t reflect.Kind) FieldKind {
	switch t {
	case reflect.Int8:
		return FieldInt8
	case reflect.Int16:
		return FieldInt16
	case reflect.Int32:
		return FieldInt32
	case reflect.Int64, reflect.Int:
		return FieldInt64
	case reflect.Uint8:
		return FieldUint8
	case reflect.Uint16:
		return FieldUint16
	case reflect.Uint32:
		return FieldUint32
	case reflect.Uint64, reflect.Uint:
		return FieldUint64
	case reflect.Float32:
		return FieldFloat32
	case reflect.Float64:
		return FieldFloat64
	default:
		return FieldBoxed
	}
}

// FieldDescriptor is one field of a registered ComponentType: a stable name,
// a scalar kind, and a default value captured from a zero-valued sample
// instance at registration time.
type FieldDescriptor struct {
	Name    string
	Kind    FieldKind
	Default any
	offset  int // byte offset within the struct, recorded at introspection; column access goes through field names
}

// ComponentType is a registered, typed descriptor for a component struct: a
// stable name plus its ordered field list. Registration is write-once per Go
// type; re-registering the same type replaces the descriptor and logs a
// warning (§3.1).
type ComponentType struct {
	Name       string
	GoType     reflect.Type
	Fields     []FieldDescriptor
	fieldIndex map[string]int
}

func (c *ComponentType) field(name string) (*FieldDescriptor, bool) {
	idx, ok := c.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return &c.Fields[idx], true
}

// ComponentRegistry introspects component structs once at registration and
// hands out stable numeric ids, per Design Note "Global mutable state": the
// registry is owned by the Ecs/World rather than kept as a package-level
// singleton, so multiple worlds never share (or corrupt) each other's ids.
type ComponentRegistry struct {
	logger     Logger
	byType     map[reflect.Type]componentId
	byId       map[componentId]*ComponentType
	nextId     componentId
}

type componentId uint32

func newComponentRegistry(logger Logger) *ComponentRegistry {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ComponentRegistry{
		logger: logger,
		byType: make(map[reflect.Type]componentId),
		byId:   make(map[componentId]*ComponentType),
	}
}

// Register introspects a zero value of T and returns its ComponentType. A
// second registration of the same Go type keeps its component id, replaces
// the descriptor with a freshly introspected one, and logs a warning.
func Register[T any](reg *ComponentRegistry) *ComponentType {
	var zero T
	t := reflect.TypeOf(zero)
	return reg.register(t)
}

func (reg *ComponentRegistry) register(t reflect.Type) *ComponentType {
	if existing, ok := reg.byType[t]; ok {
		ct := reg.byId[existing]
		reg.logger.Warnf("component %s already registered; replacing descriptor", t.Name())
		newCt := introspect(t)
		reg.byId[existing] = newCt
		_ = ct
		return newCt
	}

	id := reg.nextId
	reg.nextId++
	ct := introspect(t)
	reg.byType[t] = id
	reg.byId[id] = ct
	return ct
}

func (reg *ComponentRegistry) idOf(t reflect.Type) componentId {
	if id, ok := reg.byType[t]; ok {
		return id
	}
	id := reg.nextId
	reg.nextId++
	reg.byType[t] = id
	reg.byId[id] = introspect(t)
	return id
}

func (reg *ComponentRegistry) typeOf(id componentId) *ComponentType {
	return reg.byId[id]
}

func introspect(t reflect.Type) *ComponentType {
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("ember: component %s must be a struct", t))
	}

	ct := &ComponentType{
		Name:       t.Name(),
		GoType:     t,
		fieldIndex: make(map[string]int),
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		kind := fieldKindOf(sf.Type.Kind())
		fd := FieldDescriptor{
			Name:    sf.Name,
			Kind:    kind,
			Default: reflect.Zero(sf.Type).Interface(),
			offset:  int(sf.Offset),
		}
		ct.fieldIndex[sf.Name] = len(ct.Fields)
		ct.Fields = append(ct.Fields, fd)
	}

	return ct
}
