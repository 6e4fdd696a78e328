// Package mat4 is the engine's zero-alloc 4x4 matrix kernel: TRS
// composition, inversion, and normal-matrix extraction built on top of
// go-gl/mathgl's value-type Mat4/Vec3/Quat, plus the contiguous Matrix
// Storage pool the transform system indexes into.
package mat4

import "github.com/go-gl/mathgl/mgl32"

// Mat4 is a column-major 4x4 matrix; a plain value type, so composing or
// copying one never allocates.
type Mat4 = mgl32.Mat4

// Identity returns the 4x4 identity matrix.
func Identity() Mat4 { return mgl32.Ident4() }

// ComposeTRS builds a model matrix from translation, Euler rotation (radians,
// XYZ order), and scale without any intermediate heap allocation.
func ComposeTRS(position, eulerRadians, scale mgl32.Vec3) Mat4 {
	rot := mgl32.AnglesToQuat(eulerRadians[0], eulerRadians[1], eulerRadians[2], mgl32.XYZ)
	return ComposeTRSQuat(position, rot, scale)
}

// ComposeTRSQuat builds a model matrix from translation, a rotation
// quaternion, and scale.
func ComposeTRSQuat(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) Mat4 {
	m := rotation.Mat4()
	m = scaleColumns(m, scale)
	m[12], m[13], m[14] = position[0], position[1], position[2]
	return m
}

func scaleColumns(m Mat4, scale mgl32.Vec3) Mat4 {
	m[0], m[1], m[2] = m[0]*scale[0], m[1]*scale[0], m[2]*scale[0]
	m[4], m[5], m[6] = m[4]*scale[1], m[5]*scale[1], m[6]*scale[1]
	m[8], m[9], m[10] = m[8]*scale[2], m[9]*scale[2], m[10]*scale[2]
	return m
}

// ComposeTRSTo writes the composed matrix into dst in place, for callers
// iterating Matrix Storage rows without producing an intermediate value on
// the stack-to-heap boundary.
func ComposeTRSTo(dst *Mat4, position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	*dst = ComposeTRSQuat(position, rotation, scale)
}

// Mul multiplies a*b (applies b first, then a), matching mgl32's convention.
func Mul(a, b Mat4) Mat4 { return a.Mul4(b) }

// MulTo writes a*b into dst in place.
func MulTo(dst *Mat4, a, b Mat4) { *dst = a.Mul4(b) }

// Invert returns m^-1 and whether m was non-singular (determinant != 0).
func Invert(m Mat4) (Mat4, bool) {
	det := m.Det()
	if det == 0 {
		return Mat4{}, false
	}
	return m.Inv(), true
}

// NormalMatrix3 is the inverse-transpose of the top-left 3x3 of a model
// matrix, padded into three vec4 rows (12 floats) per the transform
// system's normal-matrix cache layout. ok is false when m's upper 3x3 is
// singular (e.g. any axis scaled to ~0).
func NormalMatrix3(m Mat4) (padded [12]float32, ok bool) {
	upper := m.Mat3()
	det := upper.Det()
	if det > -1e-8 && det < 1e-8 {
		return padded, false
	}
	n := upper.Inv().Transpose()
	// row-major 3x3 packed into three vec4 (last component of each unused).
	padded[0], padded[1], padded[2] = n[0], n[3], n[6]
	padded[4], padded[5], padded[6] = n[1], n[4], n[7]
	padded[8], padded[9], padded[10] = n[2], n[5], n[8]
	return padded, true
}

// Translation extracts the translation column from a model/world matrix.
func Translation(m Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}
