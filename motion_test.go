package ember

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestIntegrateMotion_AdvancesPositionAndRotationByVelocityTimesDt(t *testing.T) {
	e := NewEcs(nil)
	ts := NewTransformSystem(nil)

	id := e.CreateEntity()
	require.NoError(t, ts.Attach(e, id))
	require.NoError(t, AddComponent(e, id, Velocity{LinearX: 2, AngularY: 1}))

	integrateMotion(e, ts, 0.5)

	tr, ok := GetComponent[Transform](e, id)
	require.True(t, ok)
	require.Equal(t, float32(1), tr.PosX)
	require.Equal(t, float32(0.5), tr.RotY)
	require.Equal(t, uint8(1), tr.Dirty)
}

func TestIntegrateMotion_IgnoresEntitiesWithoutVelocity(t *testing.T) {
	e := NewEcs(nil)
	ts := NewTransformSystem(nil)

	id := e.CreateEntity()
	require.NoError(t, ts.Attach(e, id))
	ts.SetPosition(e, id, mgl32.Vec3{3, 0, 0})

	integrateMotion(e, ts, 1.0)

	tr, ok := GetComponent[Transform](e, id)
	require.True(t, ok)
	require.Equal(t, float32(3), tr.PosX)
}
