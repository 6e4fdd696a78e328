package resource

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	typ      Type
	calls    int32
	gate     chan struct{} // if non-nil, Load blocks until this is closed
	resource func(id ID) Resource
	err      error
}

func (f *fakeLoader) CanLoad(t Type) bool { return t == f.typ }

func (f *fakeLoader) Load(ctx context.Context, id ID, opts LoadOptions) (Resource, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return Resource{}, ctx.Err()
		}
	}
	if f.err != nil {
		return Resource{}, f.err
	}
	if f.resource != nil {
		return f.resource(id), nil
	}
	return Resource{ID: id, Type: f.typ, Size: 1}, nil
}

func (f *fakeLoader) Unload(Resource) {}

func TestManager_LoadCachesAndDoesNotReinvokeLoader(t *testing.T) {
	cache := NewCache(CacheConfig{}, nil)
	m := NewManager(cache, nil)
	loader := &fakeLoader{typ: "model"}
	m.RegisterLoader(loader)

	h1, err := m.Load(context.Background(), "mesh", "model", LoadOptions{})
	require.NoError(t, err)
	defer h1.Release()

	h2, err := m.Load(context.Background(), "mesh", "model", LoadOptions{})
	require.NoError(t, err)
	defer h2.Release()

	require.EqualValues(t, 1, loader.calls)
}

func TestManager_ConcurrentLoadsCoalesceToOneLoaderCall(t *testing.T) {
	cache := NewCache(CacheConfig{}, nil)
	m := NewManager(cache, nil)
	gate := make(chan struct{})
	loader := &fakeLoader{typ: "model", gate: gate}
	m.RegisterLoader(loader)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	handles := make([]*Handle, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			h, err := m.Load(context.Background(), "mesh", "model", LoadOptions{})
			handles[i] = h
			errs[i] = err
		}(i)
	}

	time.Sleep(20 * time.Millisecond) // let every goroutine reach sf.Do
	close(gate)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, handles[i])
		handles[i].Release()
	}
	require.EqualValues(t, 1, loader.calls, "concurrent loads of the same id must single-flight")
}

func TestManager_LoadReturnsErrNoLoaderForUnknownType(t *testing.T) {
	cache := NewCache(CacheConfig{}, nil)
	m := NewManager(cache, nil)

	_, err := m.Load(context.Background(), "mesh", "model", LoadOptions{})
	require.Error(t, err)
	var noLoader *ErrNoLoader
	require.ErrorAs(t, err, &noLoader)
}

func TestManager_LoadTypeMismatchOnCacheHit(t *testing.T) {
	cache := NewCache(CacheConfig{}, nil)
	m := NewManager(cache, nil)
	m.RegisterLoader(&fakeLoader{typ: "model"})
	m.RegisterLoader(&fakeLoader{typ: "texture"})

	h, err := m.Load(context.Background(), "asset", "model", LoadOptions{})
	require.NoError(t, err)
	h.Release()

	_, err = m.Load(context.Background(), "asset", "texture", LoadOptions{})
	require.Error(t, err)
	var mismatch *ErrTypeMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestManager_LoadTimesOutWhenLoaderExceedsDeadline(t *testing.T) {
	cache := NewCache(CacheConfig{}, nil)
	m := NewManager(cache, nil)
	m.RegisterLoader(&fakeLoader{typ: "model", gate: make(chan struct{})}) // never closed

	_, err := m.Load(context.Background(), "slow", "model", LoadOptions{Timeout: 10 * time.Millisecond})
	require.Error(t, err)
	var timeoutErr *ErrLoadTimeout
	require.ErrorAs(t, err, &timeoutErr)
}

func TestManager_UnregisterLoaderStopsItFromServingNewLoads(t *testing.T) {
	cache := NewCache(CacheConfig{}, nil)
	m := NewManager(cache, nil)
	loader := &fakeLoader{typ: "model"}
	m.RegisterLoader(loader)
	m.UnregisterLoader(loader)

	_, err := m.Load(context.Background(), "mesh", "model", LoadOptions{})
	require.Error(t, err)
	var noLoader *ErrNoLoader
	require.ErrorAs(t, err, &noLoader)
}
