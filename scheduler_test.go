package ember

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsInPriorityThenInsertionOrder(t *testing.T) {
	s := NewScheduler(nil)
	e := NewEcs(nil)

	var order []string
	require.NoError(t, s.Register(System{
		Name: "render", Priority: PriorityRender,
		Update: func(ecs *Ecs, dt float32) { order = append(order, "render") },
	}))
	require.NoError(t, s.Register(System{
		Name: "pre-a", Priority: PriorityPreUpdate,
		Update: func(ecs *Ecs, dt float32) { order = append(order, "pre-a") },
	}))
	require.NoError(t, s.Register(System{
		Name: "pre-b", Priority: PriorityPreUpdate,
		Update: func(ecs *Ecs, dt float32) { order = append(order, "pre-b") },
	}))

	s.Update(e, 0.016)

	require.Equal(t, []string{"pre-a", "pre-b", "render"}, order)
}

func TestScheduler_RejectsDuplicateNames(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.Register(System{Name: "motion", Priority: PriorityUpdate}))
	err := s.Register(System{Name: "motion", Priority: PriorityUpdate})
	require.Error(t, err)
}

func TestScheduler_InitRunsOncePerSystem(t *testing.T) {
	s := NewScheduler(nil)
	e := NewEcs(nil)
	inits := 0
	require.NoError(t, s.Register(System{
		Name: "once", Priority: PriorityUpdate,
		Init:   func(ecs *Ecs) { inits++ },
		Update: func(ecs *Ecs, dt float32) {},
	}))

	s.Update(e, 0.016)
	s.Update(e, 0.016)
	s.Update(e, 0.016)

	require.Equal(t, 1, inits)
}

func TestScheduler_CleanupRunsOnceOnTeardown(t *testing.T) {
	s := NewScheduler(nil)
	e := NewEcs(nil)
	cleanups := 0
	require.NoError(t, s.Register(System{
		Name: "sys", Priority: PriorityUpdate,
		Cleanup: func(ecs *Ecs) { cleanups++ },
	}))

	s.Teardown(e)
	s.Teardown(e)

	require.Equal(t, 1, cleanups)
}
