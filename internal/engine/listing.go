package engine

import (
	"context"
	"strings"

	"github.com/ontogate/ontogate/internal/collection"
	"github.com/ontogate/ontogate/internal/links"
	"github.com/ontogate/ontogate/internal/params"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
)

// Listing is a paginated list of contexts or classes
type Listing struct {
	ID      string                 `json:"@id,omitempty"`
	Context map[string]interface{} `json:"@context"`
	Items   []collection.Item      `json:"items"`
	Links   []links.Link           `json:"links"`
}

// ContextsQuery selects the named graphs under uriPrefix
func ContextsQuery(uriPrefix string, p *params.QueryParams) string {
	where := &sparql.Block{Graph: "?graph"}
	where.Add(sparql.Triple{Subject: "?s", Predicate: "a", Object: "?o"})
	where.Filter(sparql.Filter("STRSTARTS(STR(?graph), " + sparql.Quote(uriPrefix) + ")"))
	return (&sparql.Select{
		Distinct:   true,
		Projection: []string{"?graph"},
		Where:      where,
		OrderBy:    []sparql.OrderCondition{{Variable: "?graph"}},
		Limit:      p.PerPage,
		Offset:     p.Offset(),
	}).String()
}

// ClassesQuery selects the classes declared in the graph of p
func ClassesQuery(p *params.QueryParams) string {
	where := &sparql.Block{Graph: sparql.IRI(p.GraphURI)}
	where.Add(
		sparql.Triple{Subject: "?class", Predicate: "a", Object: sparql.IRI(prefixes.OWL + "Class")},
		sparql.Triple{Subject: "?class", Predicate: sparql.IRI(prefixes.RDFSLabel), Object: "?label"},
	)
	if p.Lang != "" {
		where.Filter(sparql.LangMatches("?label", p.Lang))
	}
	return (&sparql.Select{
		Distinct:   true,
		Projection: []string{"?class", "?label"},
		Where:      where,
		OrderBy:    []sparql.OrderCondition{{Variable: "?class"}},
		Limit:      p.PerPage,
		Offset:     p.Offset(),
	}).String()
}

// ListContexts returns the context graphs served by the gateway
func (e *Engine) ListContexts(ctx context.Context, p *params.QueryParams, uctx *prefixes.Context) (*Listing, error) {
	res, err := e.store.Query(ctx, ContextsQuery(e.config.URIPrefix, p))
	if err != nil {
		return nil, err
	}

	base := links.RemoveLastSlash(p.BaseURL)
	items := make([]collection.Item, 0, len(res.Rows()))
	for _, row := range res.Rows() {
		graph := row.Value("graph")
		name := strings.Trim(strings.TrimPrefix(graph, e.config.URIPrefix), "/")
		if name == "" {
			continue
		}
		items = append(items, collection.Item{
			collection.KeyID:         graph,
			collection.KeyTitle:      name,
			collection.KeyResourceID: name,
		})
	}
	return &Listing{
		Context: uctx.JSONLD(p.Lang),
		Items:   items,
		Links:   listingLinks(base, p, len(items)),
	}, nil
}

// ListClasses returns the classes of one context graph
func (e *Engine) ListClasses(ctx context.Context, p *params.QueryParams, uctx *prefixes.Context) (*Listing, error) {
	res, err := e.store.Query(ctx, ClassesQuery(p))
	if err != nil {
		return nil, err
	}

	base := links.RemoveLastSlash(p.BaseURL)
	items := make([]collection.Item, 0, len(res.Rows()))
	for _, row := range res.Rows() {
		class := row.Value("class")
		items = append(items, collection.Item{
			collection.KeyID:         class,
			collection.KeyTitle:      row.Value("label"),
			collection.KeyResourceID: prefixes.LocalName(class),
		})
	}
	items = collection.Merge(items)
	return &Listing{
		ID:      p.GraphURI,
		Context: uctx.JSONLD(p.Lang),
		Items:   items,
		Links:   listingLinks(base, p, len(items)),
	}, nil
}

func listingLinks(base string, p *params.QueryParams, n int) []links.Link {
	return links.Collection(base, links.Page{Page: p.Page + 1, PerPage: p.PerPage, Items: n}, p.Args)
}
