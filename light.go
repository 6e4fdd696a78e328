package ember

import (
	"fmt"
	"math"
)

type LightType uint32

const (
	LightTypePoint       LightType = 0
	LightTypeDirectional LightType = 1
	LightTypeSpot        LightType = 2
	LightTypeAmbient     LightType = 3
)

// Light is the ECS component for every light variant: a discriminant tag
// plus the union of fields each variant uses (§3.1). Non-numeric fields
// (Color, Direction) are boxed into the archetype's row table; everything
// else lives in a plain numeric column.
type Light struct {
	Type      LightType
	Color     [3]float32
	Direction [3]float32 // directional/spot only
	Intensity float32
	Range     float32 // point/spot
	ConeAngle float32 // spot, radians, full angle
	Penumbra  float32 // spot, 0..1 fraction of ConeAngle that's the soft edge
}

func validateIntensity(intensity float32) error {
	if intensity < 0 {
		return fmt.Errorf("ember: light intensity must be non-negative, got %f", intensity)
	}
	return nil
}

func validateDirection(direction [3]float32) error {
	lenSq := direction[0]*direction[0] + direction[1]*direction[1] + direction[2]*direction[2]
	if lenSq == 0 {
		return fmt.Errorf("ember: light direction must be non-zero")
	}
	return nil
}

func validateRange(r float32) error {
	if r <= 0 {
		return fmt.Errorf("ember: light range must be > 0, got %f", r)
	}
	return nil
}

func validateConeAngle(angle float32) error {
	if angle <= 0 || angle > 2*math.Pi {
		return fmt.Errorf("ember: spot cone angle must be in (0, 2*pi], got %f", angle)
	}
	return nil
}

func validatePenumbra(p float32) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("ember: penumbra must be in [0, 1], got %f", p)
	}
	return nil
}

// NewDirectionalLight validates and builds a directional light.
func NewDirectionalLight(color [3]float32, intensity float32, direction [3]float32) (Light, error) {
	if err := validateIntensity(intensity); err != nil {
		return Light{}, err
	}
	if err := validateDirection(direction); err != nil {
		return Light{}, err
	}
	return Light{Type: LightTypeDirectional, Color: color, Intensity: intensity, Direction: direction}, nil
}

// NewPointLight validates and builds a point light.
func NewPointLight(color [3]float32, intensity, rangeVal float32) (Light, error) {
	if err := validateIntensity(intensity); err != nil {
		return Light{}, err
	}
	if err := validateRange(rangeVal); err != nil {
		return Light{}, err
	}
	return Light{Type: LightTypePoint, Color: color, Intensity: intensity, Range: rangeVal}, nil
}

// NewSpotLight validates and builds a spot light.
func NewSpotLight(color [3]float32, intensity, rangeVal float32, direction [3]float32, coneAngle, penumbra float32) (Light, error) {
	if err := validateIntensity(intensity); err != nil {
		return Light{}, err
	}
	if err := validateRange(rangeVal); err != nil {
		return Light{}, err
	}
	if err := validateDirection(direction); err != nil {
		return Light{}, err
	}
	if err := validateConeAngle(coneAngle); err != nil {
		return Light{}, err
	}
	if err := validatePenumbra(penumbra); err != nil {
		return Light{}, err
	}
	return Light{
		Type: LightTypeSpot, Color: color, Intensity: intensity, Range: rangeVal,
		Direction: direction, ConeAngle: coneAngle, Penumbra: penumbra,
	}, nil
}

// NewAmbientLight validates and builds an ambient light.
func NewAmbientLight(color [3]float32, intensity float32) (Light, error) {
	if err := validateIntensity(intensity); err != nil {
		return Light{}, err
	}
	return Light{Type: LightTypeAmbient, Color: color, Intensity: intensity}, nil
}

// FlickeringLight modulates its owning Light's intensity by random noise
// scaled by Amplitude (fraction of base intensity, §3.1).
type FlickeringLight struct {
	Amplitude float32 // 0..1
	Frequency float32 // flickers per second
	Seed      uint32
}

func NewFlickeringLight(amplitude, frequency float32, seed uint32) (FlickeringLight, error) {
	if amplitude < 0 || amplitude > 1 {
		return FlickeringLight{}, fmt.Errorf("ember: flicker amplitude must be in [0, 1], got %f", amplitude)
	}
	return FlickeringLight{Amplitude: amplitude, Frequency: frequency, Seed: seed}, nil
}

// PulsingLight modulates its owning Light's intensity with a sine wave of
// the given amplitude and period.
type PulsingLight struct {
	Amplitude float32 // 0..1
	Period    float32 // seconds per full cycle
}

func NewPulsingLight(amplitude, period float32) (PulsingLight, error) {
	if amplitude < 0 || amplitude > 1 {
		return PulsingLight{}, fmt.Errorf("ember: pulse amplitude must be in [0, 1], got %f", amplitude)
	}
	if period <= 0 {
		return PulsingLight{}, fmt.Errorf("ember: pulse period must be > 0, got %f", period)
	}
	return PulsingLight{Amplitude: amplitude, Period: period}, nil
}

// OrbitingLight drives its owning Transform's position around a center
// point on a circle of the given radius at a constant angular speed.
type OrbitingLight struct {
	CenterX, CenterY, CenterZ float32
	Radius                    float32
	AngularSpeed              float32 // radians per second
	Phase                     float32 // current angle, radians
}

func NewOrbitingLight(center [3]float32, radius, angularSpeed float32) (OrbitingLight, error) {
	if radius <= 0 {
		return OrbitingLight{}, fmt.Errorf("ember: orbit radius must be > 0, got %f", radius)
	}
	return OrbitingLight{CenterX: center[0], CenterY: center[1], CenterZ: center[2], Radius: radius, AngularSpeed: angularSpeed}, nil
}
