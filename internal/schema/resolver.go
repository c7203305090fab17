package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
	"github.com/ontogate/ontogate/internal/links"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
	"github.com/ontogate/ontogate/internal/triplestore"
)

// Request identifies the class to resolve. BaseURL is the URL the schema is
// served at and Context collects prefixes and object properties.
type Request struct {
	ClassURI    string
	GraphURI    string
	Lang        string
	BaseURL     string
	ClassPrefix string
	Context     *prefixes.Context
}

// Resolver builds class schema documents from the triplestore
type Resolver struct {
	store triplestore.Querier
}

// NewResolver creates a resolver querying store
func NewResolver(store triplestore.Querier) *Resolver {
	return &Resolver{store: store}
}

// Resolve fetches and assembles the schema of a class. It returns a not-found
// error when the class has no title in the graph.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Document, error) {
	title, comment, err := r.classInfo(ctx, req)
	if err != nil {
		return nil, err
	}

	closure, err := r.Closure(ctx, req.ClassURI)
	if err != nil {
		return nil, err
	}

	predicateRows, err := r.withLangFallback(ctx, req.Lang, func(lang string) (string, error) {
		return PredicatesQuery(closure, lang)
	})
	if err != nil {
		return nil, err
	}

	cardQuery, err := CardinalitiesQuery(closure)
	if err != nil {
		return nil, err
	}
	cardResults, err := r.store.Query(ctx, cardQuery)
	if err != nil {
		return nil, err
	}
	card, err := ResolveCardinalities(cardResults.Rows(), DeclaredRanges(predicateRows))
	if err != nil {
		return nil, fmt.Errorf("%w for class %s", err, req.ClassURI)
	}

	properties, err := ResolvePredicates(predicateRows, card, closure, req.Context)
	if err != nil {
		return nil, err
	}

	base := links.RemoveLastSlash(req.BaseURL)
	return &Document{
		Type:        "object",
		Schema:      JSONSchemaDraft,
		ID:          req.ClassURI,
		Title:       title,
		Description: comment,
		Context:     req.Context.JSONLD(req.Lang),
		Links:       append(links.Schema(base, collectionURL(base), req.ClassPrefix), objectPropertyLinks(base, req.Context)...),
		Properties:  properties,
	}, nil
}

// objectPropertyLinks links every object property recorded while resolving
// predicates to the collection of its range.
func objectPropertyLinks(base string, uctx *prefixes.Context) []links.Link {
	ranges := make(map[string]string)
	for key, rangeURI := range uctx.ObjectProperties() {
		ranges[key] = uctx.Registry().Shorten(rangeURI)
	}
	return links.ObjectProperties(links.Root(base), ranges)
}

func collectionURL(schemaURL string) string {
	return strings.TrimSuffix(schemaURL, "/_schema")
}

func (r *Resolver) classInfo(ctx context.Context, req Request) (title, comment string, err error) {
	rows, err := r.withLangFallback(ctx, req.Lang, func(lang string) (string, error) {
		return ClassSchemaQuery(req.ClassURI, req.GraphURI, lang)
	})
	if err != nil {
		return "", "", err
	}
	if len(rows) == 0 {
		return "", "", gwerrors.NotFound("class %s does not exist in graph %s", req.ClassURI, req.GraphURI)
	}
	for _, row := range rows {
		if title == "" {
			title = row.Value("title")
		}
		if comment == "" {
			comment = row.Value("comment")
		}
	}
	return title, comment, nil
}

// withLangFallback runs the query built for lang and, when lang is set and
// nothing matched, runs it again without language filtering.
func (r *Resolver) withLangFallback(ctx context.Context, lang string, build func(lang string) (string, error)) ([]sparql.Binding, error) {
	q, err := build(lang)
	if err != nil {
		return nil, err
	}
	res, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if !res.IsEmpty() || lang == "" {
		return res.Rows(), nil
	}

	if q, err = build(""); err != nil {
		return nil, err
	}
	if res, err = r.store.Query(ctx, q); err != nil {
		return nil, err
	}
	return res.Rows(), nil
}

// Closure returns the class followed by its transitive superclasses, nearest
// first. Classes at the same distance are ordered lexically.
func (r *Resolver) Closure(ctx context.Context, classURI string) ([]string, error) {
	q, err := SuperclassesQuery(classURI)
	if err != nil {
		return nil, err
	}
	res, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	edges := make(map[string][]string)
	for _, row := range res.Rows() {
		sub, super := row["class"], row["super"]
		if sub.Value == "" || super.Value == "" || IsBlankNode(super) {
			continue
		}
		edges[sub.Value] = append(edges[sub.Value], super.Value)
	}
	return closureOf(classURI, edges), nil
}

func closureOf(classURI string, edges map[string][]string) []string {
	visited := map[string]bool{classURI: true}
	closure := []string{classURI}
	level := []string{classURI}
	for len(level) > 0 {
		var next []string
		for _, c := range level {
			for _, super := range edges[c] {
				if !visited[super] {
					visited[super] = true
					next = append(next, super)
				}
			}
		}
		sort.Strings(next)
		closure = append(closure, next...)
		level = next
	}
	return closure
}
