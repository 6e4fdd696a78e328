package ember

import (
	"fmt"
	"sort"
)

// Priority bands name the ascending order Update iterates systems in
// (§4.5). Ties within a band are broken by registration order.
const (
	PriorityFirst = iota * 1000
	PriorityPreUpdate
	PriorityUpdate
	PriorityPostUpdate
	PriorityRender
	PriorityLast
)

// System is a named, prioritized unit of per-frame work with optional
// lifecycle hooks. Any hook left nil is simply skipped.
type System struct {
	Name     string
	Priority int
	Init     func(ecs *Ecs)
	Update   func(ecs *Ecs, dt float32)
	Cleanup  func(ecs *Ecs)
}

type scheduledSystem struct {
	system       System
	insertOrder  int
	initialized  bool
}

// Scheduler runs registered Systems in ascending priority order once per
// Update call, and Cleanup's every system exactly once on teardown.
type Scheduler struct {
	logger  Logger
	systems []*scheduledSystem
	byName  map[string]*scheduledSystem
	nextOrd int
	torndown bool
}

func NewScheduler(logger Logger) *Scheduler {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Scheduler{logger: logger, byName: make(map[string]*scheduledSystem)}
}

// Register adds a system. Returns an error if the name is already taken.
func (s *Scheduler) Register(sys System) error {
	if _, exists := s.byName[sys.Name]; exists {
		return fmt.Errorf("ember: duplicate system name %q", sys.Name)
	}
	entry := &scheduledSystem{system: sys, insertOrder: s.nextOrd}
	s.nextOrd++
	s.byName[sys.Name] = entry
	s.systems = append(s.systems, entry)
	sort.SliceStable(s.systems, func(i, j int) bool {
		if s.systems[i].system.Priority != s.systems[j].system.Priority {
			return s.systems[i].system.Priority < s.systems[j].system.Priority
		}
		return s.systems[i].insertOrder < s.systems[j].insertOrder
	})
	return nil
}

// Update runs Init (once, lazily, for any system not yet initialized) then
// Update, in ascending priority order.
func (s *Scheduler) Update(ecs *Ecs, dt float32) {
	for _, entry := range s.systems {
		if !entry.initialized {
			if entry.system.Init != nil {
				entry.system.Init(ecs)
			}
			entry.initialized = true
		}
		if entry.system.Update != nil {
			entry.system.Update(ecs, dt)
		}
	}
}

// Teardown runs every registered system's Cleanup hook exactly once, in
// priority order. Calling Teardown a second time is a no-op.
func (s *Scheduler) Teardown(ecs *Ecs) {
	if s.torndown {
		return
	}
	s.torndown = true
	for _, entry := range s.systems {
		if entry.system.Cleanup != nil {
			entry.system.Cleanup(ecs)
		}
	}
}
