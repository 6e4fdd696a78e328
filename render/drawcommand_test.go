package render

import (
	"testing"

	"github.com/emberengine/ember/gpu"
	"github.com/stretchr/testify/require"
)

func TestDrawCommandBuilder_BuildTwiceFails(t *testing.T) {
	b := NewDrawCommandBuilder().
		WithPipeline(gpu.PipelineHandle(1)).
		WithBindGroup(0, gpu.BindGroupHandle(1)).
		WithVertexBuffer(0, gpu.BufferHandle(1)).
		WithGeometry(IndexedGeometry{IndexBuffer: gpu.BufferHandle(2), IndexFormat: IndexFormatUint16, IndexCount: 36})

	cmd, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, gpu.PipelineHandle(1), cmd.Pipeline)

	_, err = b.Build()
	require.Error(t, err, "second Build on the same builder must fail: the builder reset after the first success")
}

func TestDrawCommandBuilder_RejectsInvalidSlot(t *testing.T) {
	b := NewDrawCommandBuilder().
		WithPipeline(gpu.PipelineHandle(1)).
		WithBindGroup(7, gpu.BindGroupHandle(1)).
		WithGeometry(NonIndexedGeometry{VertexCount: 3})
	_, err := b.Build()
	require.Error(t, err)
}

func TestDrawCommandBuilder_RequiresGeometry(t *testing.T) {
	_, err := NewDrawCommandBuilder().WithPipeline(gpu.PipelineHandle(1)).Build()
	require.Error(t, err)
}

func TestDrawCommandBuilder_IndirectOffsetMustBe4Aligned(t *testing.T) {
	_, err := NewDrawCommandBuilder().
		WithPipeline(gpu.PipelineHandle(1)).
		WithVertexBuffer(0, gpu.BufferHandle(1)).
		WithGeometry(IndirectGeometry{IndirectBuffer: gpu.BufferHandle(2), IndirectOffset: 6}).
		Build()
	require.Error(t, err)

	_, err = NewDrawCommandBuilder().
		WithPipeline(gpu.PipelineHandle(1)).
		WithVertexBuffer(0, gpu.BufferHandle(1)).
		WithGeometry(IndirectGeometry{IndirectBuffer: gpu.BufferHandle(2), IndirectOffset: 8}).
		Build()
	require.NoError(t, err)
}

func TestDrawCommandBuilder_ComputeNeedsNoVertexBuffers(t *testing.T) {
	_, err := NewDrawCommandBuilder().
		WithPipeline(gpu.PipelineHandle(1)).
		WithGeometry(ComputeGeometry{WorkgroupsX: 8, WorkgroupsY: 1, WorkgroupsZ: 1}).
		Build()
	require.NoError(t, err)
}
