package render

// Post-process parameter blocks (§4.13). Field order and padding are fixed
// because the shader side reads these structs as raw bytes — never reorder
// or add fields without updating the WGSL side in lockstep.

// BloomParams is the luminance-threshold extract pass's uniform block: 32 B.
// WGSL's vec3<f32> aligns to 16 B, so _pad after a single f32 field pads out
// to a 32 B struct, not 16.
type BloomParams struct {
	Threshold float32
	_pad      [7]float32
}

// DownsampleParams is the downsample pass's uniform block: 32 B.
type DownsampleParams struct {
	TexelSize [2]float32
	_pad      [6]float32
}

// UpsampleParams is the upsample pass's uniform block, carrying the
// level-specific blend factor: 32 B.
type UpsampleParams struct {
	TexelSize   [2]float32
	BlendFactor float32
	_pad        [5]float32
}

// bloomUpsampleBlendFactors are the per-level blend weights, top to bottom
// of the bloom pyramid, that each upsample pass hands its shader as
// blend_factor (§4.12 step 4); the shader scales its output by it.
var bloomUpsampleBlendFactors = [5]float32{0.3, 0.5, 0.6, 0.8, 1.0}

// BloomBlendFactor returns the upsample blend factor for level (0 = top of
// the pyramid, closest to full resolution), clamping to the last defined
// weight if levels exceeds the table (mip-levels is configurable 1..5).
func BloomBlendFactor(level int) float32 {
	if level < 0 {
		level = 0
	}
	if level >= len(bloomUpsampleBlendFactors) {
		level = len(bloomUpsampleBlendFactors) - 1
	}
	return bloomUpsampleBlendFactors[level]
}

// CompositeParams is the composite pass's uniform block:
// 48 B. The trailing vec3<f32> pad in the WGSL side aligns to 16 B past the
// five scalar fields, rounding the struct up to 48 rather than 32.
type CompositeParams struct {
	BloomIntensity float32
	GrainAmount    float32
	Gamma          float32
	DitherPattern  uint32
	Time           float32
	_pad           [7]float32
}

// CRTParams is the CRT pass's uniform block: 24 x f32 = 96 B, in the exact
// order the WGSL side expects.
type CRTParams struct {
	ResolutionX      float32
	ResolutionY      float32
	SourceSizeX      float32
	SourceSizeY      float32
	MasterIntensity  float32
	Brightness       float32
	Contrast         float32
	Saturation       float32
	ScanlinesStrength float32
	BeamWidthMin     float32
	BeamWidthMax     float32
	BeamShape        float32
	MaskIntensity    float32
	MaskType         float32
	Curvature        float32
	Vignette         float32
	CornerRadius     float32
	ColorOverflow    float32
	_pad             [6]float32
}

// DefaultCRTParams returns a conservative, visually-mild CRT configuration
// suitable as a starting point for runtime tuning.
func DefaultCRTParams(resolutionX, resolutionY, sourceWidth, sourceHeight float32) CRTParams {
	return CRTParams{
		ResolutionX: resolutionX, ResolutionY: resolutionY,
		SourceSizeX: sourceWidth, SourceSizeY: sourceHeight,
		MasterIntensity: 1.0, Brightness: 1.0, Contrast: 1.0, Saturation: 1.0,
		ScanlinesStrength: 0.3, BeamWidthMin: 1.0, BeamWidthMax: 1.5, BeamShape: 2.0,
		MaskIntensity: 0.3, MaskType: 0, Curvature: 0.05, Vignette: 0.2,
		CornerRadius: 0.04, ColorOverflow: 0.1,
	}
}
