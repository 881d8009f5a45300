package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"cache-factory/internal/common/logging"
	"cache-factory/internal/engine"
	"cache-factory/internal/resource"
)

const (
	defaultTemplate = `
global:
  manager_name: Default
  jmx_suffix: cache
default:
  mode: replicated
  eviction:
    strategy: lru
    max_entries: 100
  expiration:
    lifespan: 10m
    max_idle: 1m
    wake_up_interval: 1s
`
	customTemplate = `
global:
  manager_name: Custom
  cluster_name: c1
  transport: tcp.yaml
default:
  mode: distributed
  expiration:
    lifespan: 5m
`
)

func testLoader() resource.MapLoader {
	return resource.MapLoader{
		"default.yaml": []byte(defaultTemplate),
		"custom.yaml":  []byte(customTemplate),
		"tcp.yaml":     []byte("stack: tcp\n"),
	}
}

// countingBackend wraps the in-process backend and counts manager starts.
type countingBackend struct {
	inner      engine.Backend
	starts     atomic.Int32
	built      atomic.Int32
	failStarts atomic.Int32
}

func newCountingBackend() *countingBackend {
	return &countingBackend{inner: engine.NewDefaultBackend()}
}

func (b *countingBackend) NewManager(data []byte, startEagerly bool) (engine.Manager, error) {
	m, err := b.inner.NewManager(data, startEagerly)
	if err != nil {
		return nil, err
	}
	b.built.Add(1)
	return &countingManager{Manager: m, backend: b}, nil
}

type countingManager struct {
	engine.Manager
	backend *countingBackend
	stopErr error
	stops   atomic.Int32
}

func (m *countingManager) Stop() error {
	m.stops.Add(1)
	if err := m.Manager.Stop(); err != nil {
		return err
	}
	return m.stopErr
}

func (m *countingManager) Start() error {
	if m.backend.failStarts.Load() > 0 {
		m.backend.failStarts.Add(-1)
		return errors.New("transport unavailable")
	}
	m.backend.starts.Add(1)
	return m.Manager.Start()
}

// recordingCreator records the configuration it is handed.
type recordingCreator struct {
	kind    Kind
	aliases []string
	err     error
	calls   int

	mu   sync.Mutex
	seen []engine.Config
}

func (c *recordingCreator) Kind() Kind {
	return c.kind
}

func (c *recordingCreator) Implementations() []string {
	return c.aliases
}

func (c *recordingCreator) Create(ctx context.Context, req RequestConfig, cfg *engine.Config, supply Supplier) (Cache, error) {
	c.mu.Lock()
	c.seen = append(c.seen, cfg.Clone())
	c.mu.Unlock()

	calls := c.calls
	if calls == 0 {
		calls = 1
	}

	var ec engine.Cache
	for i := 0; i < calls; i++ {
		got, err := supply()
		if err != nil {
			return nil, err
		}
		ec = got
	}

	if c.err != nil {
		return nil, c.err
	}
	return NewEngineHandle(req, ec), nil
}

func (c *recordingCreator) last() engine.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[len(c.seen)-1]
}

type stubDistributed struct {
	calls atomic.Int32
}

func (d *stubDistributed) Cache(ctx context.Context, req RequestConfig) (Cache, error) {
	d.calls.Add(1)
	store := engine.NewStore(req.Name, engine.Config{Expiration: engine.Expiration{WakeUpInterval: 0}})
	return NewEngineHandle(req, store), nil
}

func newTestFactory(backend engine.Backend, distributed DistributedBackend) (*Factory, error) {
	return NewFactory(Options{
		Container:        "portal",
		TemplateLocation: "default.yaml",
		Loader:           testLoader(),
		Backend:          backend,
		Distributed:      distributed,
		Logger:           logging.Discard(),
	})
}
