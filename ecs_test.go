package ember

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemoveComponent_MigratesEntityToNewArchetype(t *testing.T) {
	// S1: an entity carrying {Transform, Velocity} that drops Velocity must
	// land in the {Transform} archetype at a (possibly new) index, with the
	// Velocity column of its old archetype left untouched for the sibling
	// entity that keeps it.
	e := NewEcs(nil)

	keep := e.CreateEntity()
	require.NoError(t, AddComponent(e, keep, Transform{PosX: 1}))
	require.NoError(t, AddComponent(e, keep, Velocity{LinearX: 9}))

	migrate := e.CreateEntity()
	require.NoError(t, AddComponent(e, migrate, Transform{PosX: 2}))
	require.NoError(t, AddComponent(e, migrate, Velocity{LinearX: 5}))

	require.NoError(t, RemoveComponent[Velocity](e, migrate))

	require.False(t, HasComponent[Velocity](e, migrate))
	require.True(t, HasComponent[Transform](e, migrate))

	tr, ok := GetComponent[Transform](e, migrate)
	require.True(t, ok)
	require.Equal(t, float32(2), tr.PosX)

	keepVel, ok := GetComponent[Velocity](e, keep)
	require.True(t, ok)
	require.Equal(t, float32(9), keepVel.LinearX, "sibling entity's Velocity column must be unaffected by migrate's removal")
}

func TestDestroyEntity_RecyclesIdWithNewGeneration(t *testing.T) {
	e := NewEcs(nil)
	id := e.CreateEntity()
	e.DestroyEntity(id)
	require.False(t, e.IsValid(id))

	next := e.CreateEntity()
	gotIdx, _ := unpackEntityId(next)
	oldIdx, _ := unpackEntityId(id)
	if gotIdx == oldIdx {
		require.NotEqual(t, id, next, "recycled slot must carry a bumped generation")
	}
}

func TestSetComponent_MutatesInPlace(t *testing.T) {
	e := NewEcs(nil)
	id := e.CreateEntity()
	require.NoError(t, AddComponent(e, id, Velocity{LinearX: 1}))
	require.True(t, SetComponent(e, id, Velocity{LinearX: 42}))

	v, ok := GetComponent[Velocity](e, id)
	require.True(t, ok)
	require.Equal(t, float32(42), v.LinearX)
}

func TestAddComponent_InvalidEntityFails(t *testing.T) {
	e := NewEcs(nil)
	id := e.CreateEntity()
	e.DestroyEntity(id)
	err := AddComponent(e, id, Velocity{})
	require.Error(t, err)
}
