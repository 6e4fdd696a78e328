package mat4

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestComposeTRS_Translation(t *testing.T) {
	m := ComposeTRS(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	pos := Translation(m)
	require.InDelta(t, 1, pos.X(), 1e-5)
	require.InDelta(t, 2, pos.Y(), 1e-5)
	require.InDelta(t, 3, pos.Z(), 1e-5)
}

func TestComposeTRS_ScaleAppliesToBasisColumns(t *testing.T) {
	m := ComposeTRS(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{2, 3, 4})
	require.InDelta(t, 2, m[0], 1e-5)
	require.InDelta(t, 3, m[5], 1e-5)
	require.InDelta(t, 4, m[10], 1e-5)
}

func TestInvert_IdentityIsItsOwnInverse(t *testing.T) {
	inv, ok := Invert(Identity())
	require.True(t, ok)
	require.Equal(t, Identity(), inv)
}

func TestInvert_SingularMatrixFails(t *testing.T) {
	singular := ComposeTRS(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 1})
	_, ok := Invert(singular)
	require.False(t, ok)
}

func TestNormalMatrix3_IdentityYieldsIdentityRows(t *testing.T) {
	padded, ok := NormalMatrix3(Identity())
	require.True(t, ok)
	require.InDelta(t, 1, padded[0], 1e-5)
	require.InDelta(t, 1, padded[5], 1e-5)
	require.InDelta(t, 1, padded[10], 1e-5)
}

func TestNormalMatrix3_SingularUpper3x3Fails(t *testing.T) {
	degenerate := ComposeTRS(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{1, 1, 0})
	_, ok := NormalMatrix3(degenerate)
	require.False(t, ok)
}

func TestMul_AppliesRightOperandFirst(t *testing.T) {
	translate := ComposeTRS(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	scale := ComposeTRS(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	combined := Mul(translate, scale)
	pos := Translation(combined)
	require.InDelta(t, 5, pos.X(), 1e-5)
}
