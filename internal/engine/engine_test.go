package engine

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontogate/ontogate/internal/collection"
	gwerrors "github.com/ontogate/ontogate/internal/errors"
	"github.com/ontogate/ontogate/internal/links"
	"github.com/ontogate/ontogate/internal/params"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
	"github.com/ontogate/ontogate/internal/triplestore/triplestoretest"
)

const (
	uriPrefix  = "http://example.onto/"
	graphPlace = uriPrefix + "place/"
	classCity  = graphPlace + "City"
	upper      = "http://semantica.globo.com/upper/"
	askQuery   = "ASK "
	countQuery = "count(DISTINCT ?subject)"
	listQuery  = "?subject a <" + classCity + ">"
)

func newEngine(store *triplestoretest.Fake) *Engine {
	return New(store, prefixes.Default(), Config{URIPrefix: uriPrefix}, nil)
}

func cityParams(t *testing.T, raw string) *params.QueryParams {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	p, err := params.Parse(values,
		params.Route{ContextName: "place", ClassName: "City", BaseURL: "http://api/place/City"},
		params.Defaults{URIPrefix: uriPrefix, PerPage: 10, MaxPerPage: 100})
	require.NoError(t, err)
	return p
}

func instanceParams(t *testing.T, id string) *params.QueryParams {
	t.Helper()
	p, err := params.Parse(url.Values{},
		params.Route{ContextName: "place", ClassName: "City", InstanceID: id, BaseURL: "http://api/place/City/" + id},
		params.Defaults{URIPrefix: uriPrefix, PerPage: 10})
	require.NoError(t, err)
	return p
}

func city(id, label string) sparql.Binding {
	return sparql.Binding{
		"subject": sparql.URI(classCity + "/" + id),
		"label":   sparql.Literal(label, ""),
	}
}

func TestListInstancesClassNotFound(t *testing.T) {
	store := triplestoretest.New().On(sparql.NewBoolean(false), askQuery)
	e := newEngine(store)

	_, err := e.ListInstances(context.Background(), cityParams(t, ""), e.NewContext(false))

	require.Error(t, err)
	assert.True(t, gwerrors.IsNotFound(err))
	assert.Len(t, store.Queries(), 1)
}

func TestListInstancesEmptyPage(t *testing.T) {
	store := triplestoretest.New().On(sparql.NewBoolean(true), askQuery)
	e := newEngine(store)

	doc, err := e.ListInstances(context.Background(), cityParams(t, "page=3"), e.NewContext(false))

	require.NoError(t, err)
	assert.Empty(t, doc.Items)
	assert.NotNil(t, doc.Items)
	assert.Nil(t, doc.ItemCount)
	assert.Equal(t, classCity, doc.ID)
	_, hasNext := links.Find(doc.Links, "next")
	assert.False(t, hasNext)
}

func TestListInstancesItemCount(t *testing.T) {
	store := triplestoretest.New().
		On(sparql.NewBoolean(true), askQuery).
		On(sparql.NewResults(sparql.Binding{"total": sparql.TypedLiteral("21", prefixes.XSD+"integer")}), countQuery).
		On(sparql.NewResults(city("rio", "Rio"), city("sp", "Sao Paulo")), listQuery)
	e := newEngine(store)

	doc, err := e.ListInstances(context.Background(), cityParams(t, "do_item_count=1&per_page=2"), e.NewContext(false))

	require.NoError(t, err)
	require.NotNil(t, doc.ItemCount)
	assert.Equal(t, 21, *doc.ItemCount)
	assert.Len(t, doc.Items, 2)

	last, ok := links.Find(doc.Links, "last")
	require.True(t, ok)
	assert.Contains(t, last.Href, "page=11")

	queries := store.Queries()
	require.Len(t, queries, 3)
	assert.True(t, strings.HasPrefix(queries[0], askQuery))
	assert.Contains(t, queries[2], countQuery)
}

func TestListInstancesStadiumSort(t *testing.T) {
	store := triplestoretest.New().
		On(sparql.NewBoolean(true), askQuery).
		On(sparql.NewResults(
			sparql.Binding{"subject": sparql.URI(classCity + "/sp"), "label": sparql.Literal("Sao Paulo", ""), "sort_object": sparql.Literal("Morumbi", "")},
			sparql.Binding{"subject": sparql.URI(classCity + "/rio"), "label": sparql.Literal("Rio", ""), "sort_object": sparql.Literal("Maracana", "")},
		), listQuery)
	e := newEngine(store)

	doc, err := e.ListInstances(context.Background(),
		cityParams(t, "sort_by=upper:stadium&sort_order=desc&sort_include_empty=0"), e.NewContext(false))

	require.NoError(t, err)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, classCity+"/sp", doc.Items[0][collection.KeyID])
	assert.Equal(t, classCity+"/rio", doc.Items[1][collection.KeyID])
	assert.Equal(t, "rio", doc.Items[1][collection.KeyResourceID])

	q := store.Queries()[1]
	assert.Contains(t, q, "ORDER BY DESC(?sort_object)")
	assert.Contains(t, q, "?subject <"+upper+"stadium> ?sort_object .")
	assert.NotContains(t, q, "OPTIONAL")
}

func TestListInstancesLabelFilter(t *testing.T) {
	store := triplestoretest.New().
		On(sparql.NewBoolean(true), askQuery).
		On(sparql.NewResults(sparql.Binding{
			"subject":  sparql.URI(uriPrefix + "person/Gender/f"),
			"label":    sparql.Literal("Feminino", "pt"),
			"literal1": sparql.Literal("Feminino", "pt"),
		}), listQuery)
	e := newEngine(store)

	doc, err := e.ListInstances(context.Background(), cityParams(t, "p=rdfs:label&o=Feminino&lang=pt"), e.NewContext(false))

	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Feminino", doc.Items[0][collection.KeyTitle])
	assert.Equal(t, "Feminino", doc.Items[0]["rdfs:label"])
	assert.Equal(t, "pt", doc.Context["@language"])

	q := store.Queries()[1]
	assert.Contains(t, q, `FILTER(str(?literal1) = "Feminino")`)
	assert.Contains(t, q, `langMatches(lang(?label), "pt")`)
}

func TestListInstancesTransportError(t *testing.T) {
	boom := &gwerrors.TransportError{Op: "query", StatusCode: 500, Err: errors.New("boom")}
	store := triplestoretest.New().OnError(boom, askQuery)
	e := newEngine(store)

	_, err := e.ListInstances(context.Background(), cityParams(t, ""), e.NewContext(false))

	assert.Equal(t, gwerrors.KindTransport, gwerrors.Classify(err))
}

func TestListInstancesCancelled(t *testing.T) {
	e := newEngine(triplestoretest.New())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ListInstances(ctx, cityParams(t, ""), e.NewContext(false))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetInstance(t *testing.T) {
	instance := classCity + "/rio"
	store := triplestoretest.New().On(sparql.NewResults(
		sparql.Binding{"predicate": sparql.URI(prefixes.RDF + "type"), "object": sparql.URI(classCity)},
		sparql.Binding{"predicate": sparql.URI(prefixes.RDFSLabel), "object": sparql.Literal("Rio", "")},
		sparql.Binding{"predicate": sparql.URI(upper + "population"), "object": sparql.TypedLiteral("6000000", prefixes.XSD+"integer")},
		sparql.Binding{"predicate": sparql.URI(upper + "nickname"), "object": sparql.Literal("Cidade Maravilhosa", "")},
		sparql.Binding{"predicate": sparql.URI(upper + "nickname"), "object": sparql.Literal("Rio", "")},
	), "<"+instance+"> ?predicate ?object")
	e := newEngine(store)

	values := url.Values{}
	p, err := params.Parse(values,
		params.Route{ContextName: "place", ClassName: "City", InstanceID: "rio", BaseURL: "http://api/place/City/rio"},
		params.Defaults{URIPrefix: uriPrefix, PerPage: 10})
	require.NoError(t, err)

	item, err := e.GetInstance(context.Background(), p, e.NewContext(false))

	require.NoError(t, err)
	assert.Equal(t, instance, item[collection.KeyID])
	assert.Equal(t, "rio", item[collection.KeyResourceID])
	assert.Equal(t, "Rio", item[collection.KeyTitle])
	assert.Equal(t, classCity, item["@type"])
	assert.Equal(t, int64(6000000), item["upper:population"])
	assert.Equal(t, []interface{}{"Cidade Maravilhosa", "Rio"}, item["upper:nickname"])

	ls, ok := item["links"].([]links.Link)
	require.True(t, ok)
	schemaLink, ok := links.Find(ls, "describedBy")
	require.True(t, ok)
	assert.Equal(t, "http://api/place/City/_schema", schemaLink.Href)
	assert.Contains(t, store.Queries()[0], "GRAPH <"+graphPlace+">")
}

func TestGetInstanceNotFound(t *testing.T) {
	e := newEngine(triplestoretest.New())

	_, err := e.GetInstance(context.Background(), cityParams(t, ""), e.NewContext(false))

	assert.True(t, gwerrors.IsNotFound(err))
}

func TestGetInstanceWithoutPredicatesIsNotFound(t *testing.T) {
	store := triplestoretest.New().On(sparql.NewResults(
		sparql.Binding{"object": sparql.Literal("orphan", "")},
	), "?predicate ?object")
	e := newEngine(store)

	item, err := e.GetInstance(context.Background(), instanceParams(t, "rio"), e.NewContext(false))

	assert.Nil(t, item)
	assert.True(t, gwerrors.IsNotFound(err))
}

func TestGetInstanceLinksReferencedResources(t *testing.T) {
	instance := classCity + "/rio"
	store := triplestoretest.New().On(sparql.NewResults(
		sparql.Binding{"predicate": sparql.URI(prefixes.RDF + "type"), "object": sparql.URI(classCity)},
		sparql.Binding{"predicate": sparql.URI(upper + "state"), "object": sparql.URI(graphPlace + "State/rj")},
		sparql.Binding{"predicate": sparql.URI(upper + "neighbour"), "object": sparql.URI(classCity + "/niteroi")},
		sparql.Binding{"predicate": sparql.URI(upper + "neighbour"), "object": sparql.URI(classCity + "/petropolis")},
		sparql.Binding{"predicate": sparql.URI(upper + "country"), "object": sparql.URI(upper + "Brazil")},
	), "<"+instance+"> ?predicate ?object")
	e := newEngine(store)

	item, err := e.GetInstance(context.Background(), instanceParams(t, "rio"), e.NewContext(false))
	require.NoError(t, err)

	ls, ok := item["links"].([]links.Link)
	require.True(t, ok)

	var refs []links.Link
	for _, l := range ls {
		if strings.HasPrefix(l.Rel, "upper:") {
			refs = append(refs, l)
		}
	}
	assert.Equal(t, []links.Link{
		{Rel: "upper:neighbour", Href: "http://api/place/City/niteroi", Method: "GET"},
		{Rel: "upper:neighbour", Href: "http://api/place/City/petropolis", Method: "GET"},
		{Rel: "upper:state", Href: "http://api/place/State/rj", Method: "GET"},
	}, refs)
}

func TestListContexts(t *testing.T) {
	store := triplestoretest.New().On(sparql.NewResults(
		sparql.Binding{"graph": sparql.URI(uriPrefix + "place/")},
		sparql.Binding{"graph": sparql.URI(uriPrefix + "person/")},
		sparql.Binding{"graph": sparql.URI(uriPrefix)},
	), "STRSTARTS")
	e := newEngine(store)

	p := cityParams(t, "")
	p.BaseURL = "http://api"
	listing, err := e.ListContexts(context.Background(), p, e.NewContext(false))

	require.NoError(t, err)
	require.Len(t, listing.Items, 2)
	assert.Equal(t, "place", listing.Items[0][collection.KeyResourceID])
	assert.Equal(t, "person", listing.Items[1][collection.KeyTitle])
	assert.Contains(t, store.Queries()[0], `STRSTARTS(STR(?graph), "`+uriPrefix+`")`)
}

func TestListClasses(t *testing.T) {
	store := triplestoretest.New().On(sparql.NewResults(
		sparql.Binding{"class": sparql.URI(classCity), "label": sparql.Literal("Cidade", "pt")},
		sparql.Binding{"class": sparql.URI(graphPlace + "Country"), "label": sparql.Literal("Pais", "pt")},
	), "?class a <"+prefixes.OWL+"Class>")
	e := newEngine(store)

	listing, err := e.ListClasses(context.Background(), cityParams(t, "lang=pt"), e.NewContext(false))

	require.NoError(t, err)
	assert.Equal(t, graphPlace, listing.ID)
	require.Len(t, listing.Items, 2)
	assert.Equal(t, "City", listing.Items[0][collection.KeyResourceID])
	assert.Equal(t, "Pais", listing.Items[1][collection.KeyTitle])
	assert.Contains(t, store.Queries()[0], `langMatches(lang(?label), "pt")`)
}
