package gpu

import "testing"

func TestBytesPerPixel_KnownFormats(t *testing.T) {
	cases := []struct {
		format TextureFormat
		want   int
	}{
		{FormatRGBA8Unorm, 4},
		{FormatR8Unorm, 1},
		{FormatRG8Unorm, 2},
		{FormatRGBA16Float, 8},
		{FormatRGBA32Float, 16},
	}
	for _, c := range cases {
		got, err := BytesPerPixel(c.format)
		if err != nil {
			t.Fatalf("BytesPerPixel(%v): %v", c.format, err)
		}
		if got != c.want {
			t.Errorf("BytesPerPixel(%v) = %d, want %d", c.format, got, c.want)
		}
	}
}

func TestBytesPerPixel_CompressedFormatErrors(t *testing.T) {
	_, err := BytesPerPixel(FormatBC7RGBAUnorm)
	if err == nil {
		t.Fatal("expected ErrUnknownFormat for a compressed format")
	}
}

func TestBlockSize_BC7(t *testing.T) {
	got, err := BlockSize(FormatBC7RGBAUnorm)
	if err != nil {
		t.Fatal(err)
	}
	if got != 16 {
		t.Errorf("BlockSize(BC7) = %d, want 16", got)
	}
}

func TestRowPitch_PadsToAlignment(t *testing.T) {
	cases := []struct {
		width, bpp, want int
	}{
		{1, 4, 256},
		{64, 4, 256},
		{65, 4, 512},
		{256, 4, 1024},
	}
	for _, c := range cases {
		if got := RowPitch(c.width, c.bpp); got != c.want {
			t.Errorf("RowPitch(%d, %d) = %d, want %d", c.width, c.bpp, got, c.want)
		}
	}
}

func TestNeedsPremultiply_ThresholdIsOnePercent(t *testing.T) {
	const n = 1000
	rgba := make([]byte, n*4)
	for i := 0; i < n; i++ {
		rgba[i*4+3] = 255
	}
	if NeedsPremultiply(rgba) {
		t.Fatal("fully opaque image must not need premultiply")
	}

	// 1% transparent (10/1000) must not cross the "> 1%" threshold.
	for i := 0; i < 10; i++ {
		rgba[i*4+3] = 128
	}
	if NeedsPremultiply(rgba) {
		t.Fatal("exactly 1% transparent must not trigger premultiply (threshold is '> 1%')")
	}

	// One more pixel tips it over 1%.
	rgba[10*4+3] = 128
	if !NeedsPremultiply(rgba) {
		t.Fatal("more than 1% transparent must trigger premultiply")
	}
}

func TestPremultiplyAlpha_ScalesRGBByAlpha(t *testing.T) {
	rgba := []byte{255, 255, 255, 128}
	PremultiplyAlpha(rgba)
	for i := 0; i < 3; i++ {
		if rgba[i] != 128 {
			t.Errorf("channel %d = %d, want 128", i, rgba[i])
		}
	}
}
