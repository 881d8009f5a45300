package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cache-factory/internal/config"
	"cache-factory/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customTemplate = `
global:
  manager_name: OrdersManager
default:
  mode: local
  eviction:
    strategy: lru
    max_entries: 50
  expiration:
    lifespan: 5m
`

func testConfig() *config.Config {
	return &config.Config{
		Port:                 "0",
		LogLevel:             "info",
		ContainerName:        "portal",
		TemplateLocation:     "builtin:default.yaml",
		DistributedKeyPrefix: "cache:",
		RedisDB:              "0",
		RedisPoolSize:        "5",
	}
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestNew_WiresFactoryAndCustomTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.yaml"), []byte(customTemplate), 0o644))

	cfg := testConfig()
	cfg.ConfigDir = dir
	cfg.CustomConfigs = "orders=orders.yaml"

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	assert.Nil(t, app.Distributed)
	assert.Equal(t, map[string]string{"orders": "orders.yaml"}, app.Factory.Templates())

	router := app.Router()
	rec := serve(t, router, "POST", "/api/caches", `{"name":"orders"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var names []string
	for _, info := range app.Factory.Managers() {
		names = append(names, info.Global.ManagerName)
	}
	assert.Equal(t, []string{"DefaultCacheManager_portal", "OrdersManager_portal_orders_portal"}, names)

	rec = serve(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCleanup_StopsEveryManager(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.yaml"), []byte(customTemplate), 0o644))

	cfg := testConfig()
	cfg.ConfigDir = dir
	cfg.CustomConfigs = "orders=orders.yaml"

	app, err := New(cfg)
	require.NoError(t, err)

	rec := serve(t, app.Router(), "POST", "/api/caches", `{"name":"orders"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, app.Factory.Managers(), 2)

	app.Cleanup()

	for _, info := range app.Factory.Managers() {
		assert.False(t, info.Running, info.Global.ManagerName)
		assert.Empty(t, info.Caches, info.Global.ManagerName)
	}
}

func TestNew_InvalidTemplate(t *testing.T) {
	cfg := testConfig()
	cfg.TemplateLocation = "builtin:missing.yaml"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_InvalidStatsSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.StatsSchedule = "whenever"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_StatsJob(t *testing.T) {
	cfg := testConfig()
	cfg.StatsSchedule = "@every 1h"

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	require.NotNil(t, app.scheduler)
	assert.Len(t, app.scheduler.Entries(), 1)
	assert.NotPanics(t, app.logStats)
}

func TestNew_DistributedEnabled(t *testing.T) {
	mr, _ := testutil.NewRedis(t)

	cfg := testConfig()
	cfg.DistributedEnabled = true
	cfg.RedisAddress = mr.Addr()

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)
	require.NotNil(t, app.Distributed)

	c, err := app.Factory.CreateCache(context.Background(), testutil.NewRequest("shared").Distributed().Build())
	require.NoError(t, err)
	require.NoError(t, c.Put(context.Background(), "k", 1))
	assert.True(t, mr.Exists("cache:portal:shared:k"))

	assert.NotPanics(t, app.logStats)
}

func TestNew_DistributedWithoutRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.DistributedEnabled = true
	cfg.RedisAddress = addr

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)
	assert.Nil(t, app.Distributed)

	_, err = app.Factory.CreateCache(context.Background(), testutil.NewRequest("shared").Distributed().Build())
	assert.Error(t, err)
}

func TestRunServer_UsesConfiguredPort(t *testing.T) {
	app, err := New(testConfig())
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	srv := app.RunServer()
	assert.Equal(t, ":0", srv.Addr())
}
