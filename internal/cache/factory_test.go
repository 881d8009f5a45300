package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cache-factory/internal/common/errors"
	"cache-factory/internal/common/logging"
	"cache-factory/internal/engine"
	"cache-factory/internal/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFactory_RequiresTemplateLocation(t *testing.T) {
	_, err := NewFactory(Options{Container: "portal", Logger: logging.Discard()})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "the parameter 'cache.config.template' must be set")
}

func TestNewFactory_MissingDefaultTemplate(t *testing.T) {
	_, err := NewFactory(Options{
		Container:        "portal",
		TemplateLocation: "missing.yaml",
		Loader:           resource.MapLoader{},
		Logger:           logging.Discard(),
	})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.ErrorIs(t, err, resource.ErrNotFound)
}

func TestNewFactory_QualifiesDefaultManager(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)

	gc := f.DefaultManager().GlobalConfig()
	assert.Equal(t, "Default_portal", gc.ManagerName)
	assert.Equal(t, "cache_portal", gc.JMXNamingSuffix)
	assert.Empty(t, gc.ClusterName)
	assert.True(t, f.DefaultManager().Running())
	assert.Len(t, f.Managers(), 1)
}

func TestCreateCache_DefaultTemplateForcesLocalMode(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)

	rec := &recordingCreator{kind: "recording", aliases: []string{}}
	require.NoError(t, f.AddCreator(Creators{rec}))

	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "local", Kind: "recording"})
	require.NoError(t, err)
	assert.Equal(t, engine.ModeLocal, rec.last().Mode)

	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "shared", Kind: "recording", Replicated: true})
	require.NoError(t, err)
	assert.Equal(t, engine.ModeReplicated, rec.last().Mode)

	// The manager default is never mutated by per-cache normalization.
	assert.Equal(t, engine.ModeReplicated, f.DefaultManager().DefaultConfig().Mode)
	assert.Equal(t, 100, f.DefaultManager().DefaultConfig().Eviction.MaxEntries)
}

func TestCreateCache_CreatorSeesNeutralConfiguration(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)
	f.AddConfig(Templates{"custom": "custom.yaml"})

	rec := &recordingCreator{kind: "recording", aliases: []string{}}
	require.NoError(t, f.AddCreator(Creators{rec}))

	for _, name := range []string{"plain", "custom"} {
		t.Run(name, func(t *testing.T) {
			_, err := f.CreateCache(context.Background(), RequestConfig{Name: name, Kind: "recording"})
			require.NoError(t, err)

			cfg := rec.last()
			assert.True(t, cfg.InvocationBatching)
			assert.Equal(t, engine.StrategyNone, cfg.Eviction.Strategy)
			assert.Equal(t, -1, cfg.Eviction.MaxEntries)
			assert.Equal(t, engine.NeverExpire, cfg.Expiration.Lifespan)
			assert.Equal(t, engine.NeverExpire, cfg.Expiration.MaxIdle)
			assert.Equal(t, ResetWakeUpInterval, cfg.Expiration.WakeUpInterval)
		})
	}
}

func TestCreateCache_GenericCreatorAppliesRequestPolicy(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)

	handle, err := f.CreateCache(context.Background(), RequestConfig{
		Name:     "users",
		Label:    "Users",
		MaxSize:  2,
		LiveTime: time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, "users", handle.Name())
	assert.Equal(t, "Users", handle.Label())
	assert.Equal(t, int64(1), f.Creators().Fallbacks)

	engineHandle, ok := handle.(*EngineHandle)
	require.True(t, ok)
	cfg := engineHandle.Engine().Config()
	assert.Equal(t, engine.StrategyLRU, cfg.Eviction.Strategy)
	assert.Equal(t, 2, cfg.Eviction.MaxEntries)
	assert.Equal(t, time.Minute, cfg.Expiration.Lifespan)
	assert.Equal(t, engine.NeverExpire, cfg.Expiration.MaxIdle)

	ctx := context.Background()
	require.NoError(t, handle.Put(ctx, "a", 1))
	require.NoError(t, handle.Put(ctx, "b", 2))
	require.NoError(t, handle.Put(ctx, "c", 3))
	size, err := handle.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	assert.Contains(t, f.DefaultManager().CacheNames(), "users")
}

func TestCreateCache_ConcurrentCustomTemplateStartsOneManager(t *testing.T) {
	backend := newCountingBackend()
	f, err := newTestFactory(backend, nil)
	require.NoError(t, err)
	f.AddConfig(Templates{"sessionCache": "custom.yaml"})
	require.Equal(t, int32(1), backend.starts.Load())

	const workers = 16
	handles := make([]Cache, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := f.CreateCache(context.Background(), RequestConfig{Name: "sessionCache"})
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(2), backend.starts.Load(), "default plus one custom manager")
	require.Len(t, f.Managers(), 2)

	var custom ManagerInfo
	for _, info := range f.Managers() {
		if info.Global.ManagerName != "Default_portal" {
			custom = info
		}
	}
	assert.Equal(t, "Custom_portal_sessionCache_portal", custom.Global.ManagerName)
	assert.Equal(t, "c1-portal", custom.Global.ClusterName)
	assert.Equal(t, "portal_sessionCache_portal", custom.Global.JMXNamingSuffix)
	assert.Equal(t, []string{"sessionCache"}, custom.Caches)

	first := handles[0].(*EngineHandle).Engine()
	for _, h := range handles {
		assert.Same(t, first, h.(*EngineHandle).Engine())
	}
}

func TestCreateCache_EqualGlobalConfigSharesManager(t *testing.T) {
	backend := newCountingBackend()
	f, err := newTestFactory(backend, nil)
	require.NoError(t, err)
	f.AddConfig(Templates{"a": "custom.yaml", "b": "custom.yaml"})

	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "a"})
	require.NoError(t, err)
	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "b"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), backend.starts.Load())
	require.Len(t, f.Managers(), 2)
	for _, info := range f.Managers() {
		if info.Global.ManagerName == "Custom_portal_a_portal" {
			assert.Equal(t, []string{"a", "b"}, info.Caches)
		}
	}
}

func TestCreateCache_DistributedWithoutBackend(t *testing.T) {
	backend := newCountingBackend()
	f, err := newTestFactory(backend, nil)
	require.NoError(t, err)
	f.AddConfig(Templates{"x": "custom.yaml"})

	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "x", Distributed: true})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeCacheInit))
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "no distributed backend was configured")
	assert.Contains(t, err.Error(), "'x'")

	assert.Equal(t, int32(1), backend.built.Load(), "no template or manager is touched")
	assert.Len(t, f.Managers(), 1)
	assert.Equal(t, int64(0), f.Creators().Fallbacks)
}

func TestCreateCache_DistributedDelegates(t *testing.T) {
	distributed := &stubDistributed{}
	f, err := newTestFactory(newCountingBackend(), distributed)
	require.NoError(t, err)

	handle, err := f.CreateCache(context.Background(), RequestConfig{Name: "remote", Distributed: true})
	require.NoError(t, err)
	assert.Equal(t, "remote", handle.Name())
	assert.Equal(t, int32(1), distributed.calls.Load())
	assert.NotContains(t, f.DefaultManager().CacheNames(), "remote")
}

func TestCreateCache_UnreadableTemplate(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)
	f.AddConfig(Templates{"y": "does-not-exist.yaml"})

	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "y"})

	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrTypeCacheInit, appErr.Type)
	assert.Equal(t, "y", appErr.Context["cache"])
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.ErrorIs(t, err, resource.ErrNotFound)
	assert.Contains(t, err.Error(), "does-not-exist.yaml")
	assert.Contains(t, err.Error(), "cache 'y'")
	assert.Len(t, f.Managers(), 1)
}

func TestCreateCache_ManagerStartFailureIsRetried(t *testing.T) {
	backend := newCountingBackend()
	f, err := newTestFactory(backend, nil)
	require.NoError(t, err)
	f.AddConfig(Templates{"flaky": "custom.yaml"})

	backend.failStarts.Store(1)
	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "flaky"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeManagerStart))
	assert.Len(t, f.Managers(), 1)

	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "flaky"})
	require.NoError(t, err)
	assert.Len(t, f.Managers(), 2)
}

func TestCreateCache_CreatorFailureLeavesNoCache(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)

	rec := &recordingCreator{kind: "broken", aliases: []string{}, err: fmt.Errorf("decorator failed")}
	require.NoError(t, f.AddCreator(Creators{rec}))

	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "half", Kind: "broken"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeCacheInit))
	assert.Contains(t, err.Error(), "decorator failed")
	assert.NotContains(t, f.DefaultManager().CacheNames(), "half")
}

func TestCreateCache_FailedDuplicateKeepsRunningCache(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := f.CreateCache(ctx, RequestConfig{Name: "dup"})
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "k", "v"))

	rec := &recordingCreator{kind: "broken", aliases: []string{}, err: fmt.Errorf("decorator failed")}
	require.NoError(t, f.AddCreator(Creators{rec}))

	_, err = f.CreateCache(ctx, RequestConfig{Name: "dup", Kind: "broken"})
	require.Error(t, err)

	v, ok := first.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, []string{"dup"}, f.DefaultManager().CacheNames())
}

func TestCreateCache_DuplicateKeepsFirstConfiguration(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := f.CreateCache(ctx, RequestConfig{Name: "dup", MaxSize: 10})
	require.NoError(t, err)
	second, err := f.CreateCache(ctx, RequestConfig{Name: "dup", MaxSize: 99})
	require.NoError(t, err)

	engineCache := first.(*EngineHandle).Engine()
	assert.Same(t, engineCache, second.(*EngineHandle).Engine())
	assert.Equal(t, 10, engineCache.Config().Eviction.MaxEntries)
}

func TestCreateCache_SupplierRunsOnce(t *testing.T) {
	var execs int
	f, err := NewFactory(Options{
		Container:        "portal",
		TemplateLocation: "default.yaml",
		Loader:           testLoader(),
		Logger:           logging.Discard(),
		Exec: func(fn func() error) error {
			execs++
			return fn()
		},
	})
	require.NoError(t, err)
	before := execs

	rec := &recordingCreator{kind: "twice", aliases: []string{}, calls: 3}
	require.NoError(t, f.AddCreator(Creators{rec}))

	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "memo", Kind: "twice"})
	require.NoError(t, err)
	assert.Equal(t, 1, execs-before)
}

func TestCreateCache_InvalidRequest(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)

	_, err = f.CreateCache(context.Background(), RequestConfig{MaxSize: -1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeCacheInit))
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestCreateCache_AliasResolution(t *testing.T) {
	f, err := newTestFactory(newCountingBackend(), nil)
	require.NoError(t, err)

	rec := &recordingCreator{kind: "special", aliases: []string{"X"}}
	require.NoError(t, f.AddCreator(Creators{rec}))

	_, err = f.CreateCache(context.Background(), RequestConfig{Name: "aliased", Kind: "other", Implementation: "X"})
	require.NoError(t, err)
	assert.Len(t, rec.seen, 1)
	assert.Equal(t, int64(0), f.Creators().Fallbacks)
}
