// Command demo wires the engine's composition root together: a window and
// GPU device, an ECS world with a handful of lit, orbiting entities, and
// the resource manager that would load their assets in a real scene.
package main

import (
	"log"
	"runtime"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/emberengine/ember"
	"github.com/emberengine/ember/gpu"
	"github.com/emberengine/ember/render"
	"github.com/emberengine/ember/resource"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	runtime.LockOSThread()
}

// PlatformGPUModule opens the window and stands up the wgpu device,
// publishing the gpu.Backend as a resource for every later module.
type PlatformGPUModule struct {
	Width, Height int
	Title         string
}

// gpuResource wraps the Backend interface value, plus the renderer built on
// top of it, so both can be looked up by a concrete, demo-owned type:
// Resource[T] keys on T's own reflect.Type, which is always nil for an
// interface type's zero value.
type gpuResource struct {
	Backend  gpu.Backend
	Renderer *render.FrameRenderer
}

func (m PlatformGPUModule) Install(app *ember.App, cmd *ember.Commands) {
	if err := glfw.Init(); err != nil {
		panic(err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(m.Width, m.Height, m.Title, nil, nil)
	if err != nil {
		panic(err)
	}

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "demo device"})
	if err != nil {
		panic(err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(m.Width),
		Height:      uint32(m.Height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, config)

	backend := gpu.NewWgpuBackend(surface, adapter, device, queue, config)
	if _, err := backend.Initialize(gpu.Config{
		Width: m.Width, Height: m.Height, VSync: true,
		VRAMBudgets: gpu.VRAMBudgets{gpu.BufferUsageVertex: 256 << 20, gpu.BufferUsageIndex: 128 << 20},
	}); err != nil {
		panic(err)
	}

	encoder := render.NewCommandEncoder(backend)
	renderer := render.NewFrameRenderer(backend, encoder)

	cmd.AddResources(win, &gpuResource{Backend: backend, Renderer: renderer})
}

// SceneModule populates the world: an orbiting camera, a directional sun, a
// pulsing point light, and the transform-system wiring that drives them.
type SceneModule struct{}

func (SceneModule) Install(app *ember.App, cmd *ember.Commands) {
	e := cmd.Ecs()
	tr := ember.NewTransformSystem(app.Logger())

	camera := cmd.CreateEntity()
	camComp, err := ember.NewPerspectiveCamera(1.0472, 0.1, 500, mgl32.Vec3{}, 12, 0.3, 0)
	if err != nil {
		panic(err)
	}
	if err := ember.AddComponent(e, camera, camComp); err != nil {
		panic(err)
	}

	sun := cmd.CreateEntity()
	sunLight, err := ember.NewDirectionalLight([3]float32{1, 0.95, 0.85}, 1.2, [3]float32{-0.4, -1, -0.2})
	if err != nil {
		panic(err)
	}
	if err := ember.AddComponent(e, sun, sunLight); err != nil {
		panic(err)
	}

	pulsar := cmd.CreateEntity()
	if err := tr.Attach(e, pulsar); err != nil {
		panic(err)
	}
	pulseLight, err := ember.NewPulsingLight(0.4, 1.5)
	if err != nil {
		panic(err)
	}
	if err := ember.AddComponent(e, pulsar, pulseLight); err != nil {
		panic(err)
	}
	pointLight, err := ember.NewPointLight([3]float32{1, 0.6, 0.3}, 2, 15)
	if err != nil {
		panic(err)
	}
	if err := ember.AddComponent(e, pulsar, pointLight); err != nil {
		panic(err)
	}
	if err := ember.AddComponent(e, pulsar, ember.Velocity{AngularY: 0.6}); err != nil {
		panic(err)
	}

	cmd.AddResources(tr)

	app.RegisterSystem(ember.NewMotionSystem(tr))
	app.RegisterSystem(ember.System{
		Name: "transform-propagate", Priority: ember.PriorityPostUpdate,
		Update: func(ecs *ember.Ecs, dt float32) { tr.Update(ecs) },
	})
}

func main() {
	defer glfw.Terminate()

	app := ember.NewApp()
	app.UseModules(
		ember.LoggingModule{Prefix: "demo", Debug: true},
		PlatformGPUModule{Width: 1280, Height: 720, Title: "ember demo"},
		SceneModule{},
	)
	defer app.Shutdown()

	win, ok := ember.Resource[*glfw.Window](app)
	if !ok {
		log.Fatal("demo: window resource missing")
	}
	gr, ok := ember.Resource[*gpuResource](app)
	if !ok {
		log.Fatal("demo: gpu backend resource missing")
	}
	backend := gr.Backend
	renderer := gr.Renderer
	ecs := app.Ecs()
	cameras := ember.MakeQuery1[ember.Camera](ecs)

	cache := resource.NewCache(resource.CacheConfig{MaxSize: 256 << 20, Policy: resource.EvictLRU}, app.Logger())
	manager := resource.NewManager(cache, app.Logger())
	manager.RegisterLoader(resource.NewImageLoader())
	defer manager.Close()

	// The pulsar light has no texture asset on disk; it gets a 1x1 white
	// placeholder seeded directly into the cache under a generated ID
	// rather than a file path.
	placeholderID := resource.NewAnonymousTextureID()
	cache.Put(resource.Entry{
		ID:       placeholderID,
		Type:     resource.TypeTexture,
		State:    resource.StateLoaded,
		Data:     resource.TexturePixels{Width: 1, Height: 1, RGBA: []byte{255, 255, 255, 255}},
		Size:     4,
		LoadedAt: time.Now(),
	})
	placeholder, _ := cache.NewHandle(placeholderID)
	defer placeholder.Release()

	pendingGPUTimeSlot := -1
	last := time.Now()
	for !win.ShouldClose() {
		glfw.PollEvents()
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		app.Update(dt)

		if pendingGPUTimeSlot >= 0 {
			if ms, ready := renderer.PollGPUTime(pendingGPUTimeSlot); ready {
				app.Logger().Debugf("gpu frame time: %.3fms", ms)
				pendingGPUTimeSlot = -1
			}
		}

		if err := backend.BeginFrame(); err != nil {
			ember.LogGPUError(app.Logger(), err)
			continue
		}
		if err := backend.Clear(); err != nil {
			ember.LogGPUError(app.Logger(), err)
		}

		var eye mgl32.Vec3
		var view, proj [16]float32
		cameras.Map(func(_ ember.EntityId, cam *ember.Camera) bool {
			eye = cam.Eye()
			view = [16]float32(cam.ViewMatrix())
			proj = [16]float32(cam.ProjectionMatrix(float32(1280) / float32(720)))
			return false
		})
		slot := renderer.RenderFrame(dt, eye, view, proj)

		if err := backend.EndFrame(); err != nil {
			ember.LogGPUError(app.Logger(), err)
		}
		if slot >= 0 {
			pendingGPUTimeSlot = slot
		}
	}
}
