package gpu

import "testing"

func TestNewPipelineKey_IdenticalLayoutsHashEqual(t *testing.T) {
	layout := VertexLayout{
		Attributes: []VertexAttribute{
			{Name: "position", Kind: VertexFloat32, Count: 3, Offset: 0},
			{Name: "normal", Kind: VertexFloat32, Count: 3, Offset: 12},
		},
		Stride: 24,
	}
	a := NewPipelineKey(ShaderHandle(1), layout, false)
	b := NewPipelineKey(ShaderHandle(1), layout, false)
	if a != b {
		t.Fatal("identical shader+layout+instanced must produce equal keys")
	}
}

func TestNewPipelineKey_DiffersOnInstanced(t *testing.T) {
	layout := VertexLayout{Stride: 12}
	a := NewPipelineKey(ShaderHandle(1), layout, false)
	b := NewPipelineKey(ShaderHandle(1), layout, true)
	if a == b {
		t.Fatal("instanced flag must affect the cache key")
	}
}

func TestNewPipelineKey_DiffersOnAttributeOffset(t *testing.T) {
	base := VertexLayout{Attributes: []VertexAttribute{{Name: "p", Kind: VertexFloat32, Count: 3, Offset: 0}}, Stride: 12}
	shifted := VertexLayout{Attributes: []VertexAttribute{{Name: "p", Kind: VertexFloat32, Count: 3, Offset: 4}}, Stride: 12}
	a := NewPipelineKey(ShaderHandle(1), base, false)
	b := NewPipelineKey(ShaderHandle(1), shifted, false)
	if a.LayoutHash == b.LayoutHash {
		t.Fatal("a differing attribute offset must change the folded layout hash")
	}
}

func TestPipelineCache_GetPutRoundTrip(t *testing.T) {
	c := NewPipelineCache()
	key := NewPipelineKey(ShaderHandle(7), VertexLayout{Stride: 12}, false)

	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache must not report a hit")
	}

	c.Put(key, PipelineHandle(99))
	got, ok := c.Get(key)
	if !ok || got != 99 {
		t.Errorf("Get after Put = (%v, %v), want (99, true)", got, ok)
	}
}
