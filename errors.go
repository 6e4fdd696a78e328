package ember

import "fmt"

// ErrOutOfRange reports an out-of-bounds SoA column access.
type ErrOutOfRange struct {
	Field string
	Index int
	Count int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("ember: index %d out of range for field %q (count %d)", e.Index, e.Field, e.Count)
}

// ErrUnknownField reports a field-name lookup miss on a component's SoA storage.
type ErrUnknownField struct {
	Component string
	Field     string
}

func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("ember: component %q has no field %q", e.Component, e.Field)
}

// ErrInvalidEntity reports an operation against a stale or destroyed EntityId.
type ErrInvalidEntity struct {
	Entity EntityId
}

func (e *ErrInvalidEntity) Error() string {
	return fmt.Sprintf("ember: entity %d is invalid or destroyed", e.Entity)
}

// ErrHierarchyCycle reports a rejected reparent that would introduce a cycle.
type ErrHierarchyCycle struct {
	Entity EntityId
	Parent EntityId
}

func (e *ErrHierarchyCycle) Error() string {
	return fmt.Sprintf("ember: setting parent of entity %d to %d would introduce a hierarchy cycle", e.Entity, e.Parent)
}

// ErrHierarchyDepthOverflow reports an ancestor chain deeper than the transform
// system's walk limit.
type ErrHierarchyDepthOverflow struct {
	Entity EntityId
	Depth  int
}

func (e *ErrHierarchyDepthOverflow) Error() string {
	return fmt.Sprintf("ember: ancestor chain for entity %d exceeded depth %d", e.Entity, e.Depth)
}
