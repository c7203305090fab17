package engine

import (
	"context"
	"sort"

	"github.com/ontogate/ontogate/internal/collection"
	"github.com/ontogate/ontogate/internal/datatype"
	gwerrors "github.com/ontogate/ontogate/internal/errors"
	"github.com/ontogate/ontogate/internal/links"
	"github.com/ontogate/ontogate/internal/params"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
)

// InstanceQuery selects every predicate/object pair of an instance in a graph
func InstanceQuery(instanceURI, graphURI string) string {
	where := &sparql.Block{Graph: sparql.IRI(graphURI)}
	where.Add(sparql.Triple{Subject: sparql.IRI(instanceURI), Predicate: "?predicate", Object: "?object"})
	return (&sparql.Select{Distinct: true, Projection: []string{"?object", "?predicate"}, Where: where}).String()
}

// GetInstance returns every fact of an instance grouped by predicate.
// Multi-valued predicates become lists.
func (e *Engine) GetInstance(ctx context.Context, p *params.QueryParams, uctx *prefixes.Context) (collection.Item, error) {
	res, err := e.store.Query(ctx, InstanceQuery(p.InstanceURI, p.GraphURI))
	if err != nil {
		return nil, err
	}
	if res.IsEmpty() {
		return nil, gwerrors.NotFound("instance %s does not exist in graph %s", p.InstanceURI, p.GraphURI)
	}

	typeKey := uctx.NormalizeKey(prefixes.RDF + "type")
	labelKey := uctx.NormalizeKey(prefixes.RDFSLabel)
	facts := make([]collection.Item, 0, len(res.Rows()))
	for _, row := range res.Rows() {
		predicate := row.Value("predicate")
		if predicate == "" {
			continue
		}
		object := row["object"]
		var value interface{} = object.Value
		if object.IsURI() {
			value = uctx.NormalizeValue(object.Value)
			if predicate != prefixes.RDF+"type" {
				uctx.AddObjectProperty(predicate, object.Value)
			}
		} else if object.Datatype != "" {
			value = datatype.Cast(object.Value, object.Datatype)
		}
		fact := collection.Item{collection.KeyID: p.InstanceURI}
		fact[uctx.NormalizeKey(predicate)] = value
		facts = append(facts, fact)
	}

	merged := collection.Merge(facts)
	if len(merged) == 0 {
		return nil, gwerrors.NotFound("instance %s does not exist in graph %s", p.InstanceURI, p.GraphURI)
	}
	item := merged[0]
	if t, ok := item[typeKey]; ok {
		item["@type"] = t
		delete(item, typeKey)
	}
	if label, ok := item[labelKey]; ok {
		item[collection.KeyTitle] = label
	}
	collection.Decorate(merged, p.ClassPrefix)
	item["@context"] = uctx.JSONLD(p.Lang)

	base := links.RemoveLastSlash(p.BaseURL)
	ls := links.CRUD(links.WithQuery(base, p.Args(0)), base)
	ls = append(ls,
		links.Link{Rel: "describedBy", Href: links.RemoveLastSlash(prefixes.NamespaceOf(base)) + "/_schema", Method: "GET"},
		links.Link{Rel: "collection", Href: links.RemoveLastSlash(prefixes.NamespaceOf(base)), Method: "GET"},
	)
	item["links"] = append(ls, e.referenceLinks(item, links.Root(base), uctx)...)
	return item, nil
}

// referenceLinks returns one GET link per URI value of an object property
// that is served by this gateway, with the property as rel.
func (e *Engine) referenceLinks(item collection.Item, root string, uctx *prefixes.Context) []links.Link {
	keys := make([]string, 0, len(item))
	for key := range item {
		if uctx.IsObjectProperty(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var out []links.Link
	for _, key := range keys {
		values, ok := item[key].([]interface{})
		if !ok {
			values = []interface{}{item[key]}
		}
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if path, ok := links.ResourcePath(e.config.URIPrefix, uctx.Registry().Expand(s)); ok {
				out = append(out, links.Link{Rel: key, Href: root + path, Method: "GET"})
			}
		}
	}
	return out
}
