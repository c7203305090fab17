package triplestore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveQuery(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestClientQuery(t *testing.T) {
	var gotQuery, gotFormat, gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("query")
		gotFormat = r.PostForm.Get("format")
		gotUser, _, _ = r.BasicAuth()
		w.Header().Set("Content-Type", ResultsFormat)
		w.Write([]byte(`{"head":{"vars":["s"]},"results":{"bindings":[{"s":{"type":"uri","value":"http://x/1"}}]}}`))
	}))
	defer server.Close()

	core, logs := observer.New(zap.InfoLevel)
	obs := &recordingObserver{}
	client := NewClient(Config{URL: server.URL, Username: "api", Password: "secret", Timeout: time.Second}, zap.New(core), WithObserver(obs))

	res, err := client.Query(context.Background(), "SELECT ?s WHERE { ?s ?p ?o }")
	require.NoError(t, err)

	assert.Equal(t, "SELECT ?s WHERE { ?s ?p ?o }", gotQuery)
	assert.Equal(t, ResultsFormat, gotFormat)
	assert.Equal(t, "api", gotUser)
	assert.Equal(t, []string{"http://x/1"}, res.Values("s"))
	assert.Equal(t, []string{"ok"}, obs.outcomes)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "sparql query", entry.Message)
	assert.Equal(t, "SELECT ?s WHERE { ?s ?p ?o }", entry.ContextMap()["query"])
}

func TestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "syntax error", http.StatusBadRequest)
	}))
	defer server.Close()

	obs := &recordingObserver{}
	client := NewClient(Config{URL: server.URL}, zap.NewNop(), WithObserver(obs))

	_, err := client.Query(context.Background(), "bogus")
	require.Error(t, err)

	var te *gwerrors.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Contains(t, te.Error(), "syntax error")
	assert.Equal(t, []string{"transport"}, obs.outcomes)
}

func TestClientUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewClient(Config{URL: server.URL}, nil).Query(context.Background(), "ASK {}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}

func TestClientContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(Config{URL: server.URL}, nil).Query(ctx, "ASK {}")
	require.Error(t, err)
	assert.Equal(t, gwerrors.KindTimeout, gwerrors.Classify(err))
}

func TestClientInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer server.Close()

	_, err := NewClient(Config{URL: server.URL}, nil).Query(context.Background(), "ASK {}")
	require.Error(t, err)
	assert.True(t, gwerrors.IsTransport(err))
}

func TestPing(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		got = r.PostForm.Get("query")
		w.Write([]byte(`{"head":{},"boolean":true}`))
	}))
	defer server.Close()

	require.NoError(t, Ping(context.Background(), NewClient(Config{URL: server.URL}, nil)))
	assert.Equal(t, "ASK {}", got)
}
