package ember

import (
	"testing"

	"github.com/emberengine/ember/mat4"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestTransformSystem_HierarchyPropagatesWorldPosition(t *testing.T) {
	// S2: root at (10,0,0) scale 2, middle at (5,0,0) scale 1, leaf at
	// origin. Moving root to (20,0,0) and running one Update must resolve
	// leaf's world position to (20+2*5, 0, 0) = (30, 0, 0).
	e := NewEcs(nil)
	ts := NewTransformSystem(nil)

	root := e.CreateEntity()
	require.NoError(t, ts.Attach(e, root))
	ts.SetPosition(e, root, mgl32.Vec3{10, 0, 0})
	ts.SetScale(e, root, mgl32.Vec3{2, 2, 2})

	middle := e.CreateEntity()
	require.NoError(t, ts.Attach(e, middle))
	ts.SetPosition(e, middle, mgl32.Vec3{5, 0, 0})
	require.NoError(t, ts.SetParent(e, middle, root, true))

	leaf := e.CreateEntity()
	require.NoError(t, ts.Attach(e, leaf))
	ts.SetPosition(e, leaf, mgl32.Vec3{0, 0, 0})
	require.NoError(t, ts.SetParent(e, leaf, middle, true))

	ts.Update(e)

	ts.SetPosition(e, root, mgl32.Vec3{20, 0, 0})
	ts.Update(e)

	world, ok := ts.WorldMatrix(e, leaf)
	require.True(t, ok)
	pos := mat4.Translation(world)
	require.InDelta(t, 30, pos.X(), 1e-4)
	require.InDelta(t, 0, pos.Y(), 1e-4)
	require.InDelta(t, 0, pos.Z(), 1e-4)
}

func TestTransformSystem_SetParentRejectsCycle(t *testing.T) {
	e := NewEcs(nil)
	ts := NewTransformSystem(nil)

	a := e.CreateEntity()
	b := e.CreateEntity()
	require.NoError(t, ts.Attach(e, a))
	require.NoError(t, ts.Attach(e, b))

	require.NoError(t, ts.SetParent(e, b, a, true))
	err := ts.SetParent(e, a, b, true)
	require.Error(t, err)
}

func TestTransformSystem_DestroyEntityUnlinksChildren(t *testing.T) {
	e := NewEcs(nil)
	ts := NewTransformSystem(nil)

	parent := e.CreateEntity()
	child := e.CreateEntity()
	require.NoError(t, ts.Attach(e, parent))
	require.NoError(t, ts.Attach(e, child))
	require.NoError(t, ts.SetParent(e, child, parent, true))

	ts.DestroyEntity(e, parent)

	tr, ok := GetComponent[Transform](e, child)
	require.True(t, ok)
	require.Equal(t, noParent, tr.ParentId, "child must be reparented to none once its parent is destroyed")
}
