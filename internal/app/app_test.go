package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molexplorer/internal/config"
	"github.com/turtacn/molexplorer/internal/infrastructure/pubchem"
	"github.com/turtacn/molexplorer/internal/infrastructure/storage"
	"github.com/turtacn/molexplorer/internal/interfaces/http/handlers"
	"github.com/turtacn/molexplorer/internal/testutil"
)

func testConfig(t *testing.T, fake *testutil.FakePubChem) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.PubChem.BaseURL = fake.URL()
	cfg.PubChem.RateLimitRPS = 0
	cfg.Explorer.ExportDir = t.TempDir()
	cfg.Metrics.Enabled = true
	return cfg
}

func newFake(t *testing.T) *testutil.FakePubChem {
	fake := testutil.NewFakePubChem(t)
	fake.Add(testutil.Aspirin())
	fake.Add(testutil.Caffeine())
	return fake
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestNew_Defaults(t *testing.T) {
	fake := newFake(t)
	logger := testutil.NewMockLogger()
	a, err := New(testConfig(t, fake), logger, WithVersion("1.0.0"))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Collector)
	assert.IsType(t, &pubchem.Client{}, a.Source, "no cache without redis")
	assert.IsType(t, &storage.FileStore{}, a.Store)
	assert.Len(t, a.HealthCheckers(), 1)
	assert.True(t, logger.HasMessage("info", "application initialized"))
}

func TestRouter_EndToEnd(t *testing.T) {
	fake := newFake(t)
	cfg := testConfig(t, fake)
	a, err := New(cfg, nil, WithVersion("1.0.0"))
	require.NoError(t, err)
	defer a.Close()
	router := a.Router()

	rec := serve(router, http.MethodGet, "/api/v1/compounds/aspirin")
	require.Equal(t, http.StatusOK, rec.Code)
	var body handlers.CompoundResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2244, body.Compound.CID)

	rec = serve(router, http.MethodPost, "/api/v1/compounds/aspirin/exports")
	require.Equal(t, http.StatusCreated, rec.Code)
	data, err := os.ReadFile(filepath.Join(cfg.Explorer.ExportDir, "aspirin.sdf"))
	require.NoError(t, err)
	assert.Equal(t, testutil.Aspirin().SDF3D, string(data))

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/readyz").Code)
	rec = serve(router, http.MethodGet, "/healthz")
	assert.Contains(t, rec.Body.String(), `"version":"1.0.0"`)

	rec = serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `molexplorer_resolutions_total{kind="",outcome="success"} 2`)
	assert.Contains(t, out, `molexplorer_pubchem_requests_total{endpoint="cids",outcome="ok"} 2`)
}

func TestNew_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	fake := newFake(t)
	cfg := testConfig(t, fake)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &pubchem.CachedSource{}, a.Source)
	assert.Len(t, a.HealthCheckers(), 2)

	router := a.Router()
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/compounds/caffeine").Code)
	}
	assert.Equal(t, 1, fake.Hits(testutil.FakeCIDs), "second lookup is served from redis")
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/readyz").Code)
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t, newFake(t))
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = addr
	cfg.Redis.MaxRetries = -1
	cfg.Redis.DialTimeout = 200 * time.Millisecond

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestServer_UsesConfiguredAddr(t *testing.T) {
	cfg := testConfig(t, newFake(t))
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 18080

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "127.0.0.1:18080", a.Server().Addr())
}
