package render

import "testing"

func TestClassifyMaterial(t *testing.T) {
	cases := []struct {
		name string
		m    MaterialInfo
		want RenderMode
	}{
		{"plain opaque", MaterialInfo{Name: "rock_wall", Dissolve: 1}, ModeOpaque},
		{"fx name wins regardless of other fields", MaterialInfo{Name: "muzzle_burst", Dissolve: 1}, ModeAdditive},
		{"explicit dissolve opts into blend", MaterialInfo{Name: "glass", Dissolve: 0.5}, ModeAlphaBlend},
		{"alpha map opts into blend", MaterialInfo{Name: "window", Dissolve: 1, HasAlphaMap: true}, ModeAlphaBlend},
		{"detected transparency, PNG -> cutout", MaterialInfo{Name: "foliage", Dissolve: 1, IsPNG: true, DetectedAlphaRatio: 0.05}, ModeAlphaCutout},
		{"detected transparency, non-PNG -> blend", MaterialInfo{Name: "foliage", Dissolve: 1, IsPNG: false, DetectedAlphaRatio: 0.05}, ModeAlphaBlend},
		{"transparency under 1% stays opaque", MaterialInfo{Name: "brick", Dissolve: 1, IsPNG: true, DetectedAlphaRatio: 0.005}, ModeOpaque},
		{"laser fx name beats png cutout", MaterialInfo{Name: "laser_beam", IsPNG: true, DetectedAlphaRatio: 0.5}, ModeAdditive},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ClassifyMaterial(c.m); got != c.want {
				t.Errorf("ClassifyMaterial(%+v) = %v, want %v", c.m, got, c.want)
			}
		})
	}
}

func TestBloomBlendFactor(t *testing.T) {
	want := []float32{0.3, 0.5, 0.6, 0.8, 1.0}
	for level, w := range want {
		if got := BloomBlendFactor(level); got != w {
			t.Errorf("BloomBlendFactor(%d) = %f, want %f", level, got, w)
		}
	}
	if got := BloomBlendFactor(99); got != 1.0 {
		t.Errorf("BloomBlendFactor clamps to the last level, got %f", got)
	}
	if got := BloomBlendFactor(-1); got != 0.3 {
		t.Errorf("BloomBlendFactor clamps negative levels to 0, got %f", got)
	}
}
