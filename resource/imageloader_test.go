package resource

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodedPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageLoader_DecodesPNGToRGBA(t *testing.T) {
	data := encodedPNG(t, 2, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	loader := &ImageLoader{Open: func(id ID) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}}

	require.True(t, loader.CanLoad(TypeTexture))
	require.False(t, loader.CanLoad(Type("model")))

	res, err := loader.Load(context.Background(), "inline.png", LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, TypeTexture, res.Type)

	pixels, ok := res.Data.(TexturePixels)
	require.True(t, ok)
	require.Equal(t, 2, pixels.Width)
	require.Equal(t, 2, pixels.Height)
	require.Len(t, pixels.RGBA, 2*2*4)
	require.Equal(t, []byte{10, 20, 30, 255}, pixels.RGBA[0:4])
}

func TestImageLoader_OpenErrorWraps(t *testing.T) {
	boom := require.New(t)
	loader := &ImageLoader{Open: func(id ID) (io.ReadCloser, error) {
		return nil, context.DeadlineExceeded
	}}
	_, err := loader.Load(context.Background(), "missing.png", LoadOptions{})
	boom.Error(err)
}

func TestNewAnonymousTextureID_Unique(t *testing.T) {
	a := NewAnonymousTextureID()
	b := NewAnonymousTextureID()
	require.NotEqual(t, a, b)
}
