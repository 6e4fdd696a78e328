package mat4

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestStorage_AllocResetsToIdentity(t *testing.T) {
	s := NewStorage()
	idx := s.Alloc()
	require.Equal(t, Identity(), s.Get(idx))
}

func TestStorage_FreeAndReuse(t *testing.T) {
	s := NewStorage()
	a := s.Alloc()
	s.Set(a, ComposeTRS(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}))
	s.Free(a)

	b := s.Alloc()
	require.Equal(t, a, b, "a freed slot must be reused by the next Alloc")
	require.Equal(t, Identity(), s.Get(b), "reused slot must reset to identity")
}

func TestStorage_ViewIsZeroCopy(t *testing.T) {
	s := NewStorage()
	idx := s.Alloc()
	view := s.View(idx)
	view[12] = 7
	require.Equal(t, float32(7), s.Get(idx)[12])
}

func TestStorage_GrowsPastInitialCapacity(t *testing.T) {
	s := NewStorage()
	for i := 0; i < initialStorageCapacity+10; i++ {
		s.Alloc()
	}
	require.Equal(t, initialStorageCapacity+10, s.Len())
}
