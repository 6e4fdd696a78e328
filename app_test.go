package ember

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type countingModule struct{ installs *int }

func (m countingModule) Install(app *App, cmd *Commands) {
	*m.installs++
	cmd.AddResources(42)
}

func TestApp_UseModulesInstallsModulesAndExposesResources(t *testing.T) {
	app := NewApp()
	installs := 0
	app.UseModules(LoggingModule{}, countingModule{installs: &installs})

	require.Equal(t, 1, installs)
	v, ok := Resource[int](app)
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestResource_MissingTypeReturnsFalse(t *testing.T) {
	app := NewApp()
	_, ok := Resource[string](app)
	require.False(t, ok)
}

func TestCommands_CreateAndDestroyEntityRoutesThroughApp(t *testing.T) {
	app := NewApp()
	id := app.Commands().CreateEntity()
	require.True(t, app.Ecs().IsValid(id))

	app.Commands().DestroyEntity(id)
	require.False(t, app.Ecs().IsValid(id))
}

func TestApp_UpdateRunsRegisteredSystems(t *testing.T) {
	app := NewApp()
	ran := false
	require.NoError(t, app.RegisterSystem(System{
		Name: "probe", Priority: PriorityUpdate,
		Update: func(ecs *Ecs, dt float32) { ran = true },
	}))

	app.Update(0.016)
	require.True(t, ran)
}

func TestApp_ShutdownRunsCleanupOnce(t *testing.T) {
	app := NewApp()
	cleanups := 0
	require.NoError(t, app.RegisterSystem(System{
		Name: "probe", Priority: PriorityUpdate,
		Cleanup: func(ecs *Ecs) { cleanups++ },
	}))

	app.Shutdown()
	app.Shutdown()
	require.Equal(t, 1, cleanups)
}
