package gpu

import "fmt"

// ErrVRAMBudgetExceeded reports an allocation that would exceed its
// category's configured budget.
type ErrVRAMBudgetExceeded struct {
	Category      BufferUsage
	Requested     int64
	Used          int64
	Budget        int64
}

func (e *ErrVRAMBudgetExceeded) Error() string {
	return fmt.Sprintf("gpu: allocating %d bytes in category %d would exceed budget %d (currently using %d)",
		e.Requested, e.Category, e.Budget, e.Used)
}

// ErrUnknownFormat reports a texture format with no bytes-per-pixel entry
// in the exhaustive lookup (compressed formats need the block-size path
// instead, §4.10).
type ErrUnknownFormat struct {
	Format TextureFormat
}

func (e *ErrUnknownFormat) Error() string {
	return fmt.Sprintf("gpu: no bytes-per-pixel entry for format %v; compressed formats need BlockSize, not BytesPerPixel", e.Format)
}

// ErrDeviceLost reports the backend surfacing a device-loss event.
type ErrDeviceLost struct {
	Reason string
}

func (e *ErrDeviceLost) Error() string { return fmt.Sprintf("gpu: device lost: %s", e.Reason) }

// ErrInvalidHandle reports an operation against a handle the backend has no
// record of (never registered, or destroyed).
type ErrInvalidHandle struct {
	Kind string
	ID   uint64
}

func (e *ErrInvalidHandle) Error() string {
	return fmt.Sprintf("gpu: %s handle %d does not resolve", e.Kind, e.ID)
}

// ErrBindGroupSlotMismatch reports a bind group entry whose slot isn't
// declared by the target layout.
type ErrBindGroupSlotMismatch struct {
	Slot uint32
}

func (e *ErrBindGroupSlotMismatch) Error() string {
	return fmt.Sprintf("gpu: bind group slot %d not declared by layout", e.Slot)
}
