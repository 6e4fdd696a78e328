package gpu

// TextureFormat enumerates the non-compressed formats the bytes-per-pixel
// lookup covers, plus a couple of compressed families that must route
// through BlockSize instead.
type TextureFormat int

const (
	FormatRGBA8Unorm TextureFormat = iota
	FormatRGBA8UnormSRGB
	FormatBGRA8Unorm
	FormatR8Unorm
	FormatRG8Unorm
	FormatRGBA16Float
	FormatRGBA32Float
	FormatDepth24Plus
	FormatDepth32Float
	FormatBC7RGBAUnorm // compressed; BytesPerPixel must reject this
)

var bytesPerPixelTable = map[TextureFormat]int{
	FormatRGBA8Unorm:     4,
	FormatRGBA8UnormSRGB: 4,
	FormatBGRA8Unorm:     4,
	FormatR8Unorm:        1,
	FormatRG8Unorm:       2,
	FormatRGBA16Float:    8,
	FormatRGBA32Float:    16,
	FormatDepth24Plus:    4,
	FormatDepth32Float:   4,
}

// BytesPerPixel is the exhaustive lookup for non-compressed formats. It
// returns ErrUnknownFormat (rather than silently guessing) for anything
// compressed or unrecognized, per §4.10.
func BytesPerPixel(format TextureFormat) (int, error) {
	bpp, ok := bytesPerPixelTable[format]
	if !ok {
		return 0, &ErrUnknownFormat{Format: format}
	}
	return bpp, nil
}

// BlockSize is the compressed-format path: bytes per 4x4 block. Only BC7 is
// modeled; extend this table as more compressed families are wired in.
func BlockSize(format TextureFormat) (int, error) {
	switch format {
	case FormatBC7RGBAUnorm:
		return 16, nil
	default:
		return 0, &ErrUnknownFormat{Format: format}
	}
}

// RowPitch pads a row of width*bytesPerPixel bytes up to the next multiple
// of 256, the upload alignment every WebGPU-family backend requires.
func RowPitch(width int, bytesPerPixel int) int {
	unpadded := width * bytesPerPixel
	const alignment = 256
	return ((unpadded + alignment - 1) / alignment) * alignment
}

// NeedsPremultiply reports whether an RGBA8 image should have its RGB
// channels premultiplied by alpha on upload: more than 1% of pixels carry
// a < 255 (§4.10 "Premultiplied-alpha").
func NeedsPremultiply(rgba []byte) bool {
	if len(rgba) < 4 {
		return false
	}
	pixelCount := len(rgba) / 4
	transparent := 0
	for i := 3; i < len(rgba); i += 4 {
		if rgba[i] < 255 {
			transparent++
		}
	}
	return float64(transparent)/float64(pixelCount) > 0.01
}

// PremultiplyAlpha scales each pixel's RGB by its alpha in place.
func PremultiplyAlpha(rgba []byte) {
	for i := 0; i+3 < len(rgba); i += 4 {
		a := uint16(rgba[i+3])
		rgba[i+0] = byte(uint16(rgba[i+0]) * a / 255)
		rgba[i+1] = byte(uint16(rgba[i+1]) * a / 255)
		rgba[i+2] = byte(uint16(rgba[i+2]) * a / 255)
	}
}
