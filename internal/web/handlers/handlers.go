// Package handlers binds the gateway operations to HTTP routes.
package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/ontogate/ontogate/internal/engine"
	"github.com/ontogate/ontogate/internal/params"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/storedquery"
	"github.com/ontogate/ontogate/internal/web/cache"
	"github.com/ontogate/ontogate/internal/web/response"
	"github.com/ontogate/ontogate/internal/web/router"
)

// QueryStore persists stored queries
type QueryStore interface {
	Create(ctx context.Context, q storedquery.Query) (*storedquery.Query, error)
	Get(ctx context.Context, id string) (*storedquery.Query, error)
	List(ctx context.Context) ([]storedquery.Query, error)
	Update(ctx context.Context, id string, q storedquery.Query) (*storedquery.Query, error)
	Delete(ctx context.Context, id string) error
}

// Pinger is a dependency reported by /_status
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the request defaults and build information
type Config struct {
	URIPrefix      string
	DefaultLang    string
	DefaultPerPage int
	MaxPerPage     int
	Version        string
	Commit         string
}

// Handlers serves every gateway route
type Handlers struct {
	engine      *engine.Engine
	queries     QueryStore
	invalidator *cache.Invalidator
	metrics     http.Handler
	checks      map[string]Pinger
	config      Config
	logger      *zap.Logger
}

// Option configures optional collaborators
type Option func(*Handlers)

// WithQueryStore enables the /_query routes
func WithQueryStore(store QueryStore) Option {
	return func(h *Handlers) { h.queries = store }
}

// WithInvalidator enables DELETE /_cache
func WithInvalidator(inv *cache.Invalidator) Option {
	return func(h *Handlers) { h.invalidator = inv }
}

// WithMetrics mounts the metrics handler on /_metrics
func WithMetrics(handler http.Handler) Option {
	return func(h *Handlers) { h.metrics = handler }
}

// WithCheck adds a named dependency to /_status
func WithCheck(name string, p Pinger) Option {
	return func(h *Handlers) { h.checks[name] = p }
}

// New creates the handlers. The triplestore is always checked by /_status.
func New(e *engine.Engine, config Config, logger *zap.Logger, opts ...Option) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{
		engine: e,
		config: config,
		logger: logger,
		checks: map[string]Pinger{"triplestore": e},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds the routes to r. Static routes win over the {context}
// patterns, so names starting with "_" are reserved.
func (h *Handlers) Register(r *router.Router) {
	r.Get("/", "contexts", h.ListContexts)
	r.Get("/healthcheck", "healthcheck", h.Healthcheck)
	r.Get("/_status", "status", h.Status)
	r.Get("/_version", "version", h.Version)
	r.Get("/_prefixes", "prefixes", h.Prefixes)
	if h.metrics != nil {
		r.Handle("/_metrics", "metrics", h.metrics)
	}

	if h.queries != nil {
		r.Get("/_query", "stored_queries", h.ListQueries)
		r.Post("/_query", "stored_query_create", h.CreateQuery)
		r.Get("/_query/{id}", "stored_query", h.GetQuery)
		r.Put("/_query/{id}", "stored_query_update", h.UpdateQuery)
		r.Delete("/_query/{id}", "stored_query_delete", h.DeleteQuery)
		r.Get("/_query/{id}/_result", "stored_query_result", h.RunQuery)
	}

	if h.invalidator != nil {
		r.Delete("/_cache", "cache_purge", h.PurgeCache)
	}

	r.Get("/{context}", "classes", h.ListClasses)
	r.Get("/{context}/{class}/_schema", "schema", h.ClassSchema)
	r.Get("/{context}/{class}", "collection", h.ListInstances)
	r.Get("/{context}/{class}/{instance}", "instance", h.GetInstance)
}

func (h *Handlers) defaults() params.Defaults {
	return params.Defaults{
		URIPrefix:  h.config.URIPrefix,
		Lang:       h.config.DefaultLang,
		PerPage:    h.config.DefaultPerPage,
		MaxPerPage: h.config.MaxPerPage,
	}
}

// parse validates the query string against the route of r
func (h *Handlers) parse(r *http.Request) (*params.QueryParams, *prefixes.Context, error) {
	route := params.Route{
		ContextName: router.PathParam(r, "context"),
		ClassName:   router.PathParam(r, "class"),
		InstanceID:  router.PathParam(r, "instance"),
		BaseURL:     baseURL(r),
	}
	p, err := params.Parse(r.URL.Query(), route, h.defaults())
	if err != nil {
		return nil, nil, err
	}
	return p, h.engine.NewContext(p.ExpandURI), nil
}

// fail renders err and logs server-side failures
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := response.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", code),
			zap.Error(err))
	}
	response.RenderFromError(w, err)
}

func (h *Handlers) render(w http.ResponseWriter, v interface{}) {
	if err := response.RenderOK(w, v); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

// baseURL is the absolute URL of r without its query string
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.Path
}
