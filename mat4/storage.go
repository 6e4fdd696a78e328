package mat4

const (
	initialStorageCapacity = 1024
	maxStorageCapacity     = 65536
)

// Storage is a contiguous pool of Mat4 rows with free-list reuse, indexed by
// the transform system's localMatrixIndex/worldMatrixIndex fields. Rows are
// identified by plain ints rather than a branded handle type since the pool
// is private to the transform system.
type Storage struct {
	rows []Mat4
	free []int
}

// NewStorage allocates a pool with room for initialStorageCapacity rows.
func NewStorage() *Storage {
	return &Storage{rows: make([]Mat4, 0, initialStorageCapacity)}
}

// Alloc reserves a row, reusing a freed slot when available, and resets it
// to the identity matrix. Growth doubles capacity up to maxStorageCapacity;
// beyond that it grows by maxStorageCapacity increments rather than failing.
func (s *Storage) Alloc() int {
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		s.rows[idx] = Identity()
		return idx
	}
	if cap(s.rows) == len(s.rows) {
		s.grow()
	}
	s.rows = append(s.rows, Identity())
	return len(s.rows) - 1
}

func (s *Storage) grow() {
	current := cap(s.rows)
	next := current * 2
	if current == 0 {
		next = initialStorageCapacity
	}
	if next-current > maxStorageCapacity {
		next = current + maxStorageCapacity
	}
	grown := make([]Mat4, len(s.rows), next)
	copy(grown, s.rows)
	s.rows = grown
}

// Free releases a row index back to the pool. The caller must not use the
// index again until a subsequent Alloc reissues it.
func (s *Storage) Free(index int) {
	s.free = append(s.free, index)
}

// Get returns the row's current value.
func (s *Storage) Get(index int) Mat4 {
	return s.rows[index]
}

// Set overwrites the row's value.
func (s *Storage) Set(index int, m Mat4) {
	s.rows[index] = m
}

// View returns a pointer directly into the pool's backing array, for
// zero-copy in-place composition (e.g. ComposeTRSTo(storage.View(i), ...)).
// The pointer is invalidated by any Alloc that triggers a grow.
func (s *Storage) View(index int) *Mat4 {
	return &s.rows[index]
}

// Len reports how many rows (including freed-but-not-reused ones) the pool
// currently holds.
func (s *Storage) Len() int {
	return len(s.rows)
}
