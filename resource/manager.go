package resource

import (
	"context"
	"sync"
	"time"

	"github.com/emberengine/ember"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
)

// Loader knows how to produce resources of the types it claims via CanLoad.
type Loader interface {
	CanLoad(t Type) bool
	Load(ctx context.Context, id ID, options LoadOptions) (Resource, error)
	Unload(res Resource)
}

// LoadOptions tunes one Load call.
type LoadOptions struct {
	ForceReload      bool
	LoadDependencies bool
	Timeout          time.Duration
	Extra            any // loader-specific options payload
}

const maxErrorTimers = 100

// Manager is the async load orchestrator: loader registry, cache,
// dependency tracker, single-flight coalescing, and hot-reload fan-out.
type Manager struct {
	logger ember.Logger
	cache  *Cache
	deps   *DependencyTracker
	sf     singleflight.Group

	mu      sync.Mutex
	loaders []Loader

	errTimersMu sync.Mutex
	errTimers   []*time.Timer
	errTimerIDs []ID

	watcherMu sync.Mutex
	watcher   *fsnotify.Watcher
	watchedBy map[string]watchEntry

	reloadCount int64
}

type watchEntry struct {
	id  ID
	typ Type
}

func NewManager(cache *Cache, logger ember.Logger) *Manager {
	if logger == nil {
		logger = ember.NewNopLogger()
	}
	return &Manager{
		logger:    logger,
		cache:     cache,
		deps:      NewDependencyTracker(),
		watchedBy: make(map[string]watchEntry),
	}
}

// RegisterLoader adds a loader to the registry; the first loader whose
// CanLoad(t) is true wins for a given type.
func (m *Manager) RegisterLoader(l Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders = append(m.loaders, l)
}

// UnregisterLoader removes a previously registered loader. A no-op state
// change otherwise: nothing cached is touched.
func (m *Manager) UnregisterLoader(l Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.loaders {
		if existing == l {
			m.loaders = append(m.loaders[:i], m.loaders[i+1:]...)
			return
		}
	}
}

func (m *Manager) loaderFor(t Type) (Loader, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loaders {
		if l.CanLoad(t) {
			return l, true
		}
	}
	return nil, false
}

// Load resolves id to a Handle, loading it (and, if requested, its
// dependencies) when it isn't already cached in a usable state. Concurrent
// Load calls for the same id coalesce to a single loader invocation
// (§4.9 step 5, §5 "Single-flight").
func (m *Manager) Load(ctx context.Context, id ID, typ Type, opts LoadOptions) (*Handle, error) {
	if entry, ok := m.cache.Get(id); ok {
		if entry.Type != typ {
			return nil, &ErrTypeMismatch{ID: id, Expected: typ, Actual: entry.Type}
		}
		switch entry.State {
		case StateLoaded:
			if !opts.ForceReload {
				m.cache.Touch(id)
				h, _ := m.cache.NewHandle(id)
				return h, nil
			}
		case StateError:
			if !opts.ForceReload {
				return nil, entry.Err
			}
		}
	}

	result, err, _ := m.sf.Do(string(id), func() (any, error) {
		return m.doLoad(ctx, id, typ, opts)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Handle), nil
}

func (m *Manager) doLoad(ctx context.Context, id ID, typ Type, opts LoadOptions) (*Handle, error) {
	now := time.Now()
	m.cache.Put(Entry{ID: id, Type: typ, State: StateLoading, LastAccessed: now})

	loader, ok := m.loaderFor(typ)
	if !ok {
		err := &ErrNoLoader{Type: typ}
		m.markError(id, typ, err)
		return nil, err
	}

	if opts.LoadDependencies {
		if err := m.loadKnownDependencies(ctx, id, typ, opts); err != nil {
			m.markError(id, typ, err)
			return nil, err
		}
	}

	loadCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		loadCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type result struct {
		res Resource
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		res, err := loader.Load(loadCtx, id, opts)
		resultCh <- result{res, err}
	}()

	select {
	case <-loadCtx.Done():
		err := &ErrLoadTimeout{ID: id, Timeout: opts.Timeout}
		m.markError(id, typ, err)
		return nil, err
	case r := <-resultCh:
		if r.err != nil {
			err := &ErrLoaderFailure{ID: id, Err: r.err}
			m.markError(id, typ, err)
			return nil, err
		}
		for _, dep := range r.res.Dependencies {
			m.deps.AddDependency(id, dep)
		}
		loadedAt := time.Now()
		m.cache.Put(Entry{
			ID: id, Type: typ, State: StateLoaded, Data: r.res.Data, Size: r.res.Size,
			LoadedAt: loadedAt, LastAccessed: loadedAt,
		})
		m.cancelErrorTimer(id)
		h, _ := m.cache.NewHandle(id)
		return h, nil
	}
}

func (m *Manager) loadKnownDependencies(ctx context.Context, id ID, typ Type, opts LoadOptions) error {
	deps := m.deps.AllDependencies(id)
	if len(deps) == 0 {
		return nil
	}
	order, err := m.deps.LoadOrder(append(deps, id))
	if err != nil {
		return err
	}
	for _, depId := range order {
		if depId == id {
			continue
		}
		if entry, ok := m.cache.Get(depId); ok && entry.State == StateLoaded {
			continue
		}
		if _, err := m.Load(ctx, depId, typ, LoadOptions{LoadDependencies: true, Timeout: opts.Timeout}); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) markError(id ID, typ Type, err error) {
	now := time.Now()
	m.cache.Put(Entry{ID: id, Type: typ, State: StateError, Err: err, LastAccessed: now, LoadedAt: now})
	m.scheduleErrorCleanup(id)
}

// scheduleErrorCleanup arms a 5s timer that evicts id if it's still
// unreferenced and still in the error state. The timer table is capped at
// maxErrorTimers entries, oldest evicted first.
func (m *Manager) scheduleErrorCleanup(id ID) {
	m.errTimersMu.Lock()
	defer m.errTimersMu.Unlock()

	if len(m.errTimers) >= maxErrorTimers {
		m.errTimers[0].Stop()
		m.errTimers = m.errTimers[1:]
		m.errTimerIDs = m.errTimerIDs[1:]
	}

	timer := time.AfterFunc(5*time.Second, func() {
		if entry, ok := m.cache.Get(id); ok && entry.State == StateError {
			m.cache.EvictIfUnused(id)
		}
	})
	m.errTimers = append(m.errTimers, timer)
	m.errTimerIDs = append(m.errTimerIDs, id)
}

func (m *Manager) cancelErrorTimer(id ID) {
	m.errTimersMu.Lock()
	defer m.errTimersMu.Unlock()
	for i, existing := range m.errTimerIDs {
		if existing == id {
			m.errTimers[i].Stop()
			m.errTimers = append(m.errTimers[:i], m.errTimers[i+1:]...)
			m.errTimerIDs = append(m.errTimerIDs[:i], m.errTimerIDs[i+1:]...)
			return
		}
	}
}

// ReloadCount reports how many times hot-reload has re-triggered a load.
func (m *Manager) ReloadCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloadCount
}

// RegisterResourcePath lazily starts one fsnotify.Watcher per manager and
// associates path with id/typ, so a filesystem change force-reloads it.
func (m *Manager) RegisterResourcePath(path string, id ID, typ Type) error {
	m.watcherMu.Lock()
	defer m.watcherMu.Unlock()

	if m.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		m.watcher = w
		go m.watchLoop()
	}
	if err := m.watcher.Add(path); err != nil {
		return err
	}
	m.watchedBy[path] = watchEntry{id: id, typ: typ}
	return nil
}

func (m *Manager) watchLoop() {
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			m.watcherMu.Lock()
			entry, known := m.watchedBy[ev.Name]
			m.watcherMu.Unlock()
			if !known {
				continue
			}
			m.mu.Lock()
			m.reloadCount++
			m.mu.Unlock()
			if _, err := m.Load(context.Background(), entry.id, entry.typ, LoadOptions{ForceReload: true}); err != nil {
				m.logger.Warnf("hot-reload of %q failed: %v", entry.id, err)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warnf("resource watcher error: %v", err)
		}
	}
}

// Close stops the hot-reload watcher, if one was started.
func (m *Manager) Close() error {
	m.watcherMu.Lock()
	defer m.watcherMu.Unlock()
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}
