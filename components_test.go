package ember

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestNewPerspectiveCamera_RejectsDegenerateFov(t *testing.T) {
	_, err := NewPerspectiveCamera(0, 0.1, 100, mgl32.Vec3{}, 5, 0, 0)
	require.Error(t, err)
}

func TestNewPerspectiveCamera_RejectsFarBeforeNear(t *testing.T) {
	_, err := NewPerspectiveCamera(1.0, 10, 5, mgl32.Vec3{}, 5, 0, 0)
	require.Error(t, err)
}

func TestCamera_EyeOrbitsTarget(t *testing.T) {
	c, err := NewPerspectiveCamera(1.0, 0.1, 100, mgl32.Vec3{0, 0, 0}, 10, 0, 0)
	require.NoError(t, err)
	eye := c.Eye()
	// azimuth=0, elevation=0 orbits to (0,0,distance) given the sin/cos
	// convention in Eye().
	require.InDelta(t, 0, eye.X(), 1e-3)
	require.InDelta(t, 0, eye.Y(), 1e-3)
	require.InDelta(t, 10, eye.Z(), 1e-3)
}

func TestCamera_ProjectionMatrixClampsAspect(t *testing.T) {
	c, err := NewPerspectiveCamera(1.0, 0.1, 100, mgl32.Vec3{}, 5, 0, 0)
	require.NoError(t, err)
	// Must not panic or produce NaN for degenerate aspect ratios.
	p := c.ProjectionMatrix(0)
	require.False(t, anyNaN(p))
	p = c.ProjectionMatrix(999)
	require.False(t, anyNaN(p))
}

func anyNaN(m [16]float32) bool {
	for _, v := range m {
		if v != v {
			return true
		}
	}
	return false
}
