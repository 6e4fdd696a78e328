package resource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// TypeTexture is the resource.Type every ImageLoader-produced resource is
// registered under.
const TypeTexture Type = "texture"

// TexturePixels is what an ImageLoader hands back as a Resource's Data: a
// decoded image, flattened to tightly-packed RGBA8, ready for a
// gpu.Backend.CreateTexture upload.
type TexturePixels struct {
	Width, Height int
	RGBA          []byte
}

// ImageLoader decodes on-disk textures for the resource cache. PNG and JPEG
// use the standard library; BMP and TIFF come from golang.org/x/image,
// which ship decoders the stdlib doesn't (mirrors the rest of the x/image
// ecosystem's role as png/jpeg's out-of-tree siblings, same as the font
// rasterizer gogpu-gg's text package pulls from the same module).
type ImageLoader struct {
	// Open resolves an ID to its source bytes. Defaults to reading id as a
	// filesystem path; tests substitute an in-memory map.
	Open func(id ID) (io.ReadCloser, error)
}

// NewImageLoader returns a loader that reads textures from the filesystem,
// keyed by path.
func NewImageLoader() *ImageLoader {
	return &ImageLoader{Open: func(id ID) (io.ReadCloser, error) {
		return os.Open(string(id))
	}}
}

func (l *ImageLoader) CanLoad(t Type) bool { return t == TypeTexture }

func (l *ImageLoader) Load(ctx context.Context, id ID, opts LoadOptions) (Resource, error) {
	open := l.Open
	if open == nil {
		open = func(id ID) (io.ReadCloser, error) { return os.Open(string(id)) }
	}
	r, err := open(id)
	if err != nil {
		return Resource{}, fmt.Errorf("resource: open %q: %w", id, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return Resource{}, fmt.Errorf("resource: read %q: %w", id, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Resource{}, fmt.Errorf("resource: decode %q: %w", id, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	pixels := TexturePixels{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		RGBA:   rgba.Pix,
	}
	return Resource{
		ID:   id,
		Type: TypeTexture,
		Data: pixels,
		Size: int64(len(rgba.Pix)),
	}, nil
}

func (l *ImageLoader) Unload(res Resource) {}

func init() {
	// Registering these format readers with image.RegisterFormat makes
	// image.Decode (used above) transparently accept BMP and TIFF sources
	// alongside the stdlib's built-in PNG/JPEG registrations.
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmpConfig)
	image.RegisterFormat("tiff", "II*\x00", tiff.Decode, tiffConfig)
	image.RegisterFormat("tiff-be", "MM\x00*", tiff.Decode, tiffConfig)
}

func bmpConfig(r io.Reader) (image.Config, error)  { return bmp.DecodeConfig(r) }
func tiffConfig(r io.Reader) (image.Config, error) { return tiff.DecodeConfig(r) }

// NewAnonymousTextureID mints an ID for a texture with no natural path —
// procedurally generated content, or bytes decoded from an in-memory
// pipeline rather than a file on disk. Manager.Load still requires an ID to
// key its cache and dependency tracker on; uuid.New keeps collisions
// statistically impossible without the caller having to invent a scheme.
func NewAnonymousTextureID() ID {
	return ID("texture:" + uuid.New().String())
}
