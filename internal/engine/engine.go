// Package engine composes query synthesis, schema resolution and result
// assembly into the operations served by the HTTP layer.
package engine

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/ontogate/ontogate/internal/collection"
	gwerrors "github.com/ontogate/ontogate/internal/errors"
	"github.com/ontogate/ontogate/internal/params"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/schema"
	"github.com/ontogate/ontogate/internal/sparql"
	"github.com/ontogate/ontogate/internal/triplestore"
)

// Config holds engine settings
type Config struct {
	// RulesetURI enables inference on listing queries when set
	RulesetURI string
	// URIPrefix is the namespace under which context graphs live
	URIPrefix string
}

// Engine is safe for concurrent use; per-request state lives in the
// prefixes.Context and params.QueryParams passed to each call.
type Engine struct {
	store    triplestore.Querier
	registry *prefixes.Registry
	config   Config
	lists    *collection.ListQueryBuilder
	schemas  *schema.Resolver
	logger   *zap.Logger
}

// New creates an engine over store
func New(store triplestore.Querier, registry *prefixes.Registry, config Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    store,
		registry: registry,
		config:   config,
		lists:    collection.NewListQueryBuilder(registry, config.RulesetURI),
		schemas:  schema.NewResolver(store),
		logger:   logger,
	}
}

// Registry returns the prefix registry
func (e *Engine) Registry() *prefixes.Registry {
	return e.registry
}

// NewContext creates the URI context of one request. expand selects full
// URIs for both keys and values.
func (e *Engine) NewContext(expand bool) *prefixes.Context {
	if expand {
		return prefixes.NewContext(e.registry, prefixes.Expand, prefixes.Expand)
	}
	return prefixes.NewContext(e.registry, prefixes.Shorten, prefixes.Shorten)
}

// ResolveSchema resolves the class schema addressed by p
func (e *Engine) ResolveSchema(ctx context.Context, p *params.QueryParams, uctx *prefixes.Context) (*schema.Document, error) {
	return e.schemas.Resolve(ctx, schema.Request{
		ClassURI:    p.ClassURI,
		GraphURI:    p.GraphURI,
		Lang:        p.Lang,
		BaseURL:     p.BaseURL,
		ClassPrefix: p.Raw.Get("class_prefix"),
		Context:     uctx,
	})
}

// BuildListQuery renders the listing query of p
func (e *Engine) BuildListQuery(p *params.QueryParams) string {
	return e.lists.Build(p)
}

// BuildCountQuery renders the count query of p
func (e *Engine) BuildCountQuery(p *params.QueryParams) string {
	return e.lists.BuildCount(p)
}

// MergeAndDecorate assembles listing rows into items
func (e *Engine) MergeAndDecorate(rows []sparql.Binding, p *params.QueryParams, uctx *prefixes.Context) []collection.Item {
	return collection.MergeAndDecorate(rows, e.lists.Plan(p), p, uctx)
}

// ListInstances returns one page of the instances of a class. It returns a
// not-found error when the class is not declared in the graph; a class
// without instances yields an empty page.
func (e *Engine) ListInstances(ctx context.Context, p *params.QueryParams, uctx *prefixes.Context) (*collection.Document, error) {
	exists, err := e.store.Query(ctx, e.lists.ClassExistsQuery(p))
	if err != nil {
		return nil, err
	}
	if !exists.IsTrue() {
		return nil, gwerrors.NotFound("class %s in graph %s does not exist", p.ClassURI, p.GraphURI)
	}

	res, err := e.store.Query(ctx, e.BuildListQuery(p))
	if err != nil {
		return nil, err
	}
	items := e.MergeAndDecorate(res.Rows(), p, uctx)

	total := 0
	if p.DoItemCount {
		if total, err = e.count(ctx, p); err != nil {
			return nil, err
		}
	}
	return collection.Envelope(items, p, uctx, total, p.DoItemCount), nil
}

func (e *Engine) count(ctx context.Context, p *params.QueryParams) (int, error) {
	res, err := e.store.Query(ctx, e.BuildCountQuery(p))
	if err != nil {
		return 0, err
	}
	v, ok := res.OneValue(collection.VarTotal[1:])
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.logger.Warn("count query returned a non-integer total", zap.String("total", v))
		return 0, nil
	}
	return n, nil
}

// RunRaw executes a query as is
func (e *Engine) RunRaw(ctx context.Context, query string) (*sparql.Results, error) {
	return e.store.Query(ctx, query)
}

// Ping checks the triplestore
func (e *Engine) Ping(ctx context.Context) error {
	return triplestore.Ping(ctx, e.store)
}
