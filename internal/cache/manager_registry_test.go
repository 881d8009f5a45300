package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"cache-factory/internal/common/errors"
	"cache-factory/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngineManager(t *testing.T, name string) engine.Manager {
	t.Helper()
	m, err := engine.NewDefaultBackend().NewManager([]byte("global:\n  manager_name: "+name+"\n"), false)
	require.NoError(t, err)
	return m
}

func TestManagerRegistry_ConcurrentEqualConfigsCreateOnce(t *testing.T) {
	r := NewManagerRegistry()
	gc := engine.GlobalConfig{ManagerName: "m", ClusterName: "c1"}

	var created atomic.Int32
	gate := make(chan struct{})
	create := func() (engine.Manager, error) {
		created.Add(1)
		<-gate
		return newEngineManager(t, "m"), nil
	}

	const callers = 20
	results := make([]engine.Manager, callers)
	var ready, done sync.WaitGroup
	for i := 0; i < callers; i++ {
		ready.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			ready.Done()
			m, err := r.GetOrCreate(gc, create)
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}
	ready.Wait()
	close(gate)
	done.Wait()

	assert.Equal(t, int32(1), created.Load())
	for _, m := range results {
		assert.Same(t, results[0], m)
	}
	assert.True(t, results[0].Running())
	assert.Equal(t, 1, r.Len())
}

func TestManagerRegistry_DistinctConfigsAreIndependent(t *testing.T) {
	r := NewManagerRegistry()

	a, err := r.GetOrCreate(engine.GlobalConfig{ManagerName: "a"}, func() (engine.Manager, error) {
		return newEngineManager(t, "a"), nil
	})
	require.NoError(t, err)
	b, err := r.GetOrCreate(engine.GlobalConfig{ManagerName: "a", JMXNamingSuffix: "x"}, func() (engine.Manager, error) {
		return newEngineManager(t, "b"), nil
	})
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.Len())
}

func TestManagerRegistry_FailureIsNotStored(t *testing.T) {
	r := NewManagerRegistry()
	gc := engine.GlobalConfig{ManagerName: "m"}

	_, err := r.GetOrCreate(gc, func() (engine.Manager, error) {
		return nil, errors.ManagerStartError("boom", fmt.Errorf("io"))
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeManagerStart))
	assert.Equal(t, 0, r.Len())

	m, err := r.GetOrCreate(gc, func() (engine.Manager, error) {
		return newEngineManager(t, "m"), nil
	})
	require.NoError(t, err)
	got, ok := r.Get(gc)
	require.True(t, ok)
	assert.Same(t, m, got)
}

func TestManagerRegistry_StartFailureIsNotStored(t *testing.T) {
	r := NewManagerRegistry()
	gc := engine.GlobalConfig{ManagerName: "m"}

	_, err := r.GetOrCreate(gc, func() (engine.Manager, error) {
		m := newEngineManager(t, "m")
		require.NoError(t, m.UpdateGlobalConfig(func(g *engine.GlobalConfig) { g.Transport = "tcp.yaml" }))
		return m, nil
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeManagerStart))
	assert.Equal(t, 0, r.Len())
}

func TestManagerRegistry_NilManager(t *testing.T) {
	r := NewManagerRegistry()

	_, err := r.GetOrCreate(engine.GlobalConfig{ManagerName: "m"}, func() (engine.Manager, error) {
		return nil, nil
	})
	assert.Error(t, err)
}

func TestManagerRegistry_RegisterAndSnapshot(t *testing.T) {
	r := NewManagerRegistry()
	m := newEngineManager(t, "zeta")
	require.NoError(t, m.Start())
	_, err := m.GetCache("c")
	require.NoError(t, err)

	r.Register(engine.GlobalConfig{ManagerName: "zeta"}, m)
	r.Register(engine.GlobalConfig{ManagerName: "alpha"}, newEngineManager(t, "alpha"))

	infos := r.Snapshot()
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Global.ManagerName)
	assert.False(t, infos[0].Running)
	assert.Equal(t, "zeta", infos[1].Global.ManagerName)
	assert.Equal(t, []string{"c"}, infos[1].Caches)
}

func TestManagerRegistry_StopAllStopsEveryManager(t *testing.T) {
	r := NewManagerRegistry()
	backend := newCountingBackend()

	var managers []*countingManager
	for _, name := range []string{"alpha", "beta", "gamma"} {
		gc := engine.GlobalConfig{ManagerName: name}
		m, err := r.GetOrCreate(gc, func() (engine.Manager, error) {
			return backend.NewManager([]byte("global:\n  manager_name: "+name+"\n"), false)
		})
		require.NoError(t, err)
		_, err = m.GetCache("c")
		require.NoError(t, err)
		managers = append(managers, m.(*countingManager))
	}
	managers[0].stopErr = fmt.Errorf("transport stuck")

	err := r.StopAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop alpha")
	assert.Contains(t, err.Error(), "transport stuck")

	for _, m := range managers {
		assert.Equal(t, int32(1), m.stops.Load())
		assert.False(t, m.Running())
		assert.Empty(t, m.CacheNames())
	}
	assert.Equal(t, 3, r.Len())
}

func TestManagerRegistry_StopAllEmpty(t *testing.T) {
	assert.NoError(t, NewManagerRegistry().StopAll())
}
