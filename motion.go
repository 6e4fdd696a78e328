package ember

// NewMotionSystem returns the built-in Velocity integrator system, for the
// caller to register with App.RegisterSystem: every entity
// carrying both Transform and Velocity has its position and Euler rotation
// advanced by dt each frame. This is intentionally minimal (no collision,
// no mass) — Velocity is a pure kinematic schema, not a rigid body.
func NewMotionSystem(ts *TransformSystem) System {
	return System{
		Name:     "motion-integrate",
		Priority: PriorityUpdate,
		Update: func(ecs *Ecs, dt float32) {
			integrateMotion(ecs, ts, dt)
		},
	}
}

func integrateMotion(ecs *Ecs, ts *TransformSystem, dt float32) {
	q := MakeQuery2[Transform, Velocity](ecs)
	q.Map(func(id EntityId, tr *Transform, v *Velocity) bool {
		tr.PosX += v.LinearX * dt
		tr.PosY += v.LinearY * dt
		tr.PosZ += v.LinearZ * dt
		tr.RotX += v.AngularX * dt
		tr.RotY += v.AngularY * dt
		tr.RotZ += v.AngularZ * dt
		tr.Dirty = 1
		return true
	})
}
