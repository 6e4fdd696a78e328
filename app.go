package ember

import "reflect"

// Module is the composition-root unit: anything that wires resources and
// systems into an App during startup.
type Module interface {
	Install(app *App, cmd *Commands)
}

// App owns one Ecs, its Scheduler, and a type-keyed resource bag shared by
// every Module and System (the Logger is itself installed as a resource,
// see LoggingModule).
type App struct {
	ecs       *Ecs
	scheduler *Scheduler
	resources map[reflect.Type]any
	commands  *Commands
}

// NewApp constructs an empty App. Call UseModules to install functionality,
// then RegisterSystem for anything not installed by a module.
func NewApp() *App {
	app := &App{resources: make(map[reflect.Type]any)}
	app.ecs = NewEcs(nil) // replaced with the real Logger once LoggingModule installs
	app.scheduler = NewScheduler(nil)
	app.commands = &Commands{app: app}
	return app
}

// UseModules installs each module in order, then re-points the Ecs and
// Scheduler at the now-installed Logger resource so later log lines carry
// the configured prefix/verbosity instead of the bootstrap no-op logger.
func (app *App) UseModules(modules ...Module) *App {
	for _, m := range modules {
		m.Install(app, app.commands)
	}
	logger := app.Logger()
	app.ecs.logger = logger
	app.ecs.components.logger = logger
	app.scheduler.logger = logger
	return app
}

// RegisterSystem adds a System to the scheduler. Returns an error for a
// duplicate system name.
func (app *App) RegisterSystem(sys System) error {
	return app.scheduler.Register(sys)
}

// addResources stores each resource keyed by its dynamic type, overwriting
// any resource previously registered under the same type.
func (app *App) addResources(resources ...any) {
	for _, r := range resources {
		app.resources[reflect.TypeOf(r)] = r
	}
}

// Resource returns the resource registered under T, if any.
func Resource[T any](app *App) (T, bool) {
	var zero T
	r, ok := app.resources[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	typed, ok := r.(T)
	return typed, ok
}

// Ecs returns the App's world.
func (app *App) Ecs() *Ecs { return app.ecs }

// Commands returns the App's command surface for entity/resource mutation
// from within a module's Install hook.
func (app *App) Commands() *Commands { return app.commands }

// Update runs one frame of every registered system in priority order.
func (app *App) Update(dt float32) {
	app.scheduler.Update(app.ecs, dt)
}

// Shutdown runs every system's Cleanup hook exactly once.
func (app *App) Shutdown() {
	app.scheduler.Teardown(app.ecs)
}

// Commands is the mutation surface handed to Modules and Systems: entity
// creation/destruction and resource registration, routed through the owning
// App rather than exposing Ecs/resources directly.
type Commands struct {
	app *App
}

func (c *Commands) CreateEntity() EntityId {
	return c.app.ecs.CreateEntity()
}

func (c *Commands) DestroyEntity(id EntityId) {
	c.app.ecs.DestroyEntity(id)
}

func (c *Commands) AddResources(resources ...any) {
	c.app.addResources(resources...)
}

func (c *Commands) Ecs() *Ecs {
	return c.app.ecs
}
