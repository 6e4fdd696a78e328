package ember

import (
	"fmt"
	"math"

	"github.com/emberengine/ember/mat4"
	"github.com/go-gl/mathgl/mgl32"
)

// Velocity is the pure-data schema a motion system integrates into a
// Transform's position and Euler rotation each frame.
type Velocity struct {
	LinearX, LinearY, LinearZ    float32
	AngularX, AngularY, AngularZ float32 // radians/sec, Euler rate
}

// ProjectionType discriminates Camera's perspective/orthographic union.
type ProjectionType uint32

const (
	ProjectionPerspective ProjectionType = iota
	ProjectionOrthographic
)

// Camera is a tagged-union pure-data schema: an orbit-style eye derived from
// Distance/Azimuth/Elevation/Target, and either a perspective FOV or an
// orthographic half-height depending on Projection (§4.12 step 1).
type Camera struct {
	Projection ProjectionType

	FovYRadians     float32 // perspective only
	OrthoHalfHeight float32 // orthographic only
	Near, Far       float32

	TargetX, TargetY, TargetZ float32
	Distance                  float32
	Azimuth, Elevation        float32 // radians
}

func validateNearFar(near, far float32) error {
	if near <= 0 {
		return fmt.Errorf("ember: camera near plane must be > 0, got %f", near)
	}
	if far <= near {
		return fmt.Errorf("ember: camera far plane must be > near (%f), got %f", near, far)
	}
	return nil
}

// NewPerspectiveCamera validates and builds a perspective camera orbiting
// target at distance.
func NewPerspectiveCamera(fovYRadians, near, far float32, target mgl32.Vec3, distance, azimuth, elevation float32) (Camera, error) {
	if fovYRadians <= 0 || fovYRadians >= 3.1415927 {
		return Camera{}, fmt.Errorf("ember: camera fovY must be in (0, pi), got %f", fovYRadians)
	}
	if err := validateNearFar(near, far); err != nil {
		return Camera{}, err
	}
	if distance <= 0 {
		return Camera{}, fmt.Errorf("ember: camera orbit distance must be > 0, got %f", distance)
	}
	return Camera{
		Projection: ProjectionPerspective, FovYRadians: fovYRadians, Near: near, Far: far,
		TargetX: target[0], TargetY: target[1], TargetZ: target[2],
		Distance: distance, Azimuth: azimuth, Elevation: elevation,
	}, nil
}

// NewOrthographicCamera validates and builds an orthographic camera orbiting
// target at distance.
func NewOrthographicCamera(halfHeight, near, far float32, target mgl32.Vec3, distance, azimuth, elevation float32) (Camera, error) {
	if halfHeight <= 0 {
		return Camera{}, fmt.Errorf("ember: camera ortho half-height must be > 0, got %f", halfHeight)
	}
	if err := validateNearFar(near, far); err != nil {
		return Camera{}, err
	}
	if distance <= 0 {
		return Camera{}, fmt.Errorf("ember: camera orbit distance must be > 0, got %f", distance)
	}
	return Camera{
		Projection: ProjectionOrthographic, OrthoHalfHeight: halfHeight, Near: near, Far: far,
		TargetX: target[0], TargetY: target[1], TargetZ: target[2],
		Distance: distance, Azimuth: azimuth, Elevation: elevation,
	}, nil
}

// Eye computes the camera's world-space eye position from its orbit
// parameters: distance out from Target along the azimuth/elevation
// direction.
func (c *Camera) Eye() mgl32.Vec3 {
	target := mgl32.Vec3{c.TargetX, c.TargetY, c.TargetZ}
	cosEl := float32(math.Cos(float64(c.Elevation)))
	offset := mgl32.Vec3{
		c.Distance * cosEl * float32(math.Sin(float64(c.Azimuth))),
		c.Distance * float32(math.Sin(float64(c.Elevation))),
		c.Distance * cosEl * float32(math.Cos(float64(c.Azimuth))),
	}
	return target.Add(offset)
}

// ViewMatrix builds the look-at view matrix from the orbit eye toward Target.
func (c *Camera) ViewMatrix() mat4.Mat4 {
	eye := c.Eye()
	target := mgl32.Vec3{c.TargetX, c.TargetY, c.TargetZ}
	return mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix builds the perspective or orthographic projection matrix
// for the given viewport aspect ratio (internal width / internal height),
// clamped to the engine's supported aspect range of 1..5000 per mille
// (i.e. 0.001..5.0) to guard against degenerate viewports.
func (c *Camera) ProjectionMatrix(aspect float32) mat4.Mat4 {
	if aspect < 0.001 {
		aspect = 0.001
	}
	if aspect > 5.0 {
		aspect = 5.0
	}
	if c.Projection == ProjectionPerspective {
		return mgl32.Perspective(c.FovYRadians, aspect, c.Near, c.Far)
	}
	halfW := c.OrthoHalfHeight * aspect
	return mgl32.Ortho(-halfW, halfW, -c.OrthoHalfHeight, c.OrthoHalfHeight, c.Near, c.Far)
}

// ViewProjectionMatrix composes ProjectionMatrix * ViewMatrix, the matrix
// the scene pass uploads into the camera UBO (§4.12 step 1).
func (c *Camera) ViewProjectionMatrix(aspect float32) mat4.Mat4 {
	return mat4.Mul(c.ProjectionMatrix(aspect), c.ViewMatrix())
}
