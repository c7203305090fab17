package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontogate/ontogate/internal/cli/config"
)

const cityRows = `{"head":{"vars":["subject","label"]},"results":{"bindings":[
	{"subject":{"type":"uri","value":"http://example.onto/place/City/rio"},"label":{"type":"literal","value":"Rio"}}
]}}`

// sparqlEndpoint answers ASK queries with true and everything else with one city
func sparqlEndpoint(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/sparql-results+json")
		if strings.Contains(r.PostForm.Get("query"), "ASK") {
			w.Write([]byte(`{"head":{},"boolean":true}`))
			return
		}
		w.Write([]byte(cityRows))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Triplestore: config.TriplestoreConfig{
			URL:     endpoint,
			Timeout: 5 * time.Second,
		},
		API: config.APIConfig{
			URIPrefix:      "http://example.onto/",
			DefaultPerPage: 10,
			MaxPerPage:     100,
		},
		Cache: config.CacheConfig{
			Enabled:   true,
			Backend:   config.BackendMemory,
			TTL:       time.Minute,
			KeyPrefix: "test:",
		},
		StoredQuery: config.StoredQueryConfig{Driver: "sqlite3", DSN: ":memory:"},
	}
}

func get(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestBuildServesCachedCollections(t *testing.T) {
	var hits int32
	a, err := Build(context.Background(), testConfig(sparqlEndpoint(t, &hits).URL), BuildInfo{Version: "test"}, nil)
	require.NoError(t, err)
	defer a.Close(context.Background())

	first := get(a.Handler(), http.MethodGet, "/place/City")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.NotEmpty(t, first.Header().Get("X-Request-ID"))
	queries := atomic.LoadInt32(&hits)

	second := get(a.Handler(), http.MethodGet, "/place/City")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, queries, atomic.LoadInt32(&hits))

	purge := get(a.Handler(), http.MethodDelete, "/_cache?path=/place")
	require.Equal(t, http.StatusOK, purge.Code, purge.Body.String())
	assert.Contains(t, purge.Body.String(), `"removed":1`)

	third := get(a.Handler(), http.MethodGet, "/place/City")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
}

func TestBuildMountsOperationalRoutes(t *testing.T) {
	var hits int32
	a, err := Build(context.Background(), testConfig(sparqlEndpoint(t, &hits).URL), BuildInfo{Version: "1.0.0"}, nil)
	require.NoError(t, err)
	defer a.Close(context.Background())

	get(a.Handler(), http.MethodGet, "/place/City")

	status := get(a.Handler(), http.MethodGet, "/_status")
	assert.Equal(t, http.StatusOK, status.Code, status.Body.String())
	assert.Contains(t, status.Body.String(), `"storedquery":"ok"`)
	assert.Contains(t, status.Body.String(), `"cache":"ok"`)

	metrics := get(a.Handler(), http.MethodGet, "/_metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "ontogate_triplestore_queries_total")
	assert.Contains(t, metrics.Body.String(), "ontogate_cache_lookups_total")

	queries := get(a.Handler(), http.MethodGet, "/_query")
	assert.Equal(t, http.StatusOK, queries.Code)

	version := get(a.Handler(), http.MethodGet, "/_version")
	assert.Contains(t, version.Body.String(), `"version":"1.0.0"`)
}

func TestBuildWithoutOptionalBackends(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1/sparql")
	cfg.Cache.Enabled = false
	cfg.StoredQuery = config.StoredQueryConfig{}

	a, err := Build(context.Background(), cfg, BuildInfo{}, nil)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, http.StatusMethodNotAllowed, get(a.Handler(), http.MethodDelete, "/_cache").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(a.Handler(), http.MethodGet, "/_status").Code)
	assert.Equal(t, http.StatusBadGateway, get(a.Handler(), http.MethodGet, "/place/City").Code)
}

func TestBuildFailsOnBadStoredQueryDSN(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1/sparql")
	cfg.StoredQuery = config.StoredQueryConfig{Driver: "sqlite3", DSN: filepath.Join(t.TempDir(), "missing", "q.db")}

	_, err := Build(context.Background(), cfg, BuildInfo{}, nil)
	assert.Error(t, err)
}

func TestRegistryLoadsPrefixesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefixes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefixes:\n  sports: http://example.org/sports/\n"), 0o644))

	registry, err := Registry(config.APIConfig{PrefixesFile: path})
	require.NoError(t, err)
	ns, ok := registry.Namespace("sports")
	assert.True(t, ok)
	assert.Equal(t, "http://example.org/sports/", ns)

	_, err = Registry(config.APIConfig{PrefixesFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	var hits int32
	cfg := testConfig(sparqlEndpoint(t, &hits).URL)
	cfg.StoredQuery = config.StoredQueryConfig{}
	a, err := Build(context.Background(), cfg, BuildInfo{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
