package collection

import (
	"net/url"
	"reflect"

	"github.com/ontogate/ontogate/internal/datatype"
	"github.com/ontogate/ontogate/internal/links"
	"github.com/ontogate/ontogate/internal/params"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
)

// Item keys set by the assembler
const (
	KeyID             = "@id"
	KeyTitle          = "title"
	KeyResourceID     = "resource_id"
	KeyInstancePrefix = "instance_prefix"
	KeyClassPrefix    = "class_prefix"
)

// Item is one instance of a collection page
type Item map[string]interface{}

// Document is the collection envelope
type Document struct {
	ID          string                 `json:"@id"`
	Context     map[string]interface{} `json:"@context"`
	BaseURL     string                 `json:"_base_url"`
	ClassPrefix string                 `json:"_class_prefix"`
	SchemaURL   string                 `json:"_schema_url"`
	Pattern     string                 `json:"pattern"`
	Items       []Item                 `json:"items"`
	ItemCount   *int                   `json:"item_count,omitempty"`
	Links       []links.Link           `json:"links"`
}

// Items converts result rows into items. Keys are renamed through keys (full
// predicate URIs, normalized by ctx), URI values other than the subject are
// normalized by ctx, and typed literals are cast to their Go value.
func Items(rows []sparql.Binding, keys map[string]string, ctx *prefixes.Context) []Item {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item := make(Item, len(row))
		for name, term := range row {
			switch name {
			case VarTotal[1:], VarGraph[1:]:
				continue
			case VarSubject[1:]:
				item[KeyID] = term.Value
				continue
			case VarLabel[1:]:
				item[KeyTitle] = term.Value
				continue
			}
			key := name
			if uri, ok := keys[name]; ok {
				key = ctx.NormalizeKey(uri)
			}
			item[key] = termValue(term, ctx)
		}
		items = append(items, item)
	}
	return items
}

func termValue(t sparql.Term, ctx *prefixes.Context) interface{} {
	switch {
	case t.IsURI():
		return ctx.NormalizeValue(t.Value)
	case t.Datatype != "":
		return datatype.Cast(t.Value, t.Datatype)
	default:
		return t.Value
	}
}

// Merge groups items sharing an @id. The first occurrence of a subject keeps
// its position; colliding values are promoted to lists without duplicates,
// preserving first-seen order.
func Merge(items []Item) []Item {
	index := make(map[string]int, len(items))
	out := make([]Item, 0, len(items))

	for _, item := range items {
		id, _ := item[KeyID].(string)
		pos, seen := index[id]
		if !seen {
			index[id] = len(out)
			out = append(out, item)
			continue
		}
		existing := out[pos]
		for key, value := range item {
			old, ok := existing[key]
			if !ok {
				existing[key] = value
				continue
			}
			existing[key] = mergeValue(old, value)
		}
	}
	return out
}

func mergeValue(old, value interface{}) interface{} {
	if list, ok := old.([]interface{}); ok {
		if contains(list, value) {
			return list
		}
		return append(list, value)
	}
	if reflect.DeepEqual(old, value) {
		return old
	}
	return []interface{}{old, value}
}

func contains(list []interface{}, v interface{}) bool {
	for _, e := range list {
		if reflect.DeepEqual(e, v) {
			return true
		}
	}
	return false
}

// Decorate adds resource_id, instance_prefix and class_prefix to each item
func Decorate(items []Item, classPrefix string) {
	for _, item := range items {
		id, ok := item[KeyID].(string)
		if !ok {
			continue
		}
		item[KeyResourceID] = prefixes.LocalName(id)
		item[KeyInstancePrefix] = prefixes.NamespaceOf(id)
		item[KeyClassPrefix] = classPrefix
	}
}

// Envelope wraps decorated items in a collection document. total is used for
// item_count and the last link when counted is set.
func Envelope(items []Item, p *params.QueryParams, ctx *prefixes.Context, total int, counted bool) *Document {
	base := links.RemoveLastSlash(p.BaseURL)
	doc := &Document{
		ID:          p.ClassURI,
		Context:     ctx.JSONLD(p.Lang),
		BaseURL:     base,
		ClassPrefix: p.ClassPrefix,
		SchemaURL:   schemaURL(base, p),
		Items:       items,
		Links: links.Collection(base, links.Page{
			Page:    p.Page + 1,
			PerPage: p.PerPage,
			Items:   len(items),
			Total:   total,
			Counted: counted,
		}, p.Args),
	}
	if doc.Items == nil {
		doc.Items = []Item{}
	}
	if counted {
		doc.ItemCount = &total
	}
	return doc
}

func schemaURL(base string, p *params.QueryParams) string {
	u := base + "/_schema"
	if v := p.Raw.Get("class_prefix"); v != "" {
		return links.WithQuery(u, url.Values{"class_prefix": {v}}.Encode())
	}
	return u
}

// MergeAndDecorate turns result rows into decorated, merged items
func MergeAndDecorate(rows []sparql.Binding, plan *Plan, p *params.QueryParams, ctx *prefixes.Context) []Item {
	items := Merge(Items(rows, plan.Keys, ctx))
	Decorate(items, p.ClassPrefix)
	return items
}
