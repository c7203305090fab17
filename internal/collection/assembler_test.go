package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontogate/ontogate/internal/links"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
)

func TestMergeByID(t *testing.T) {
	items := []Item{
		{KeyID: "http://x/1", "name": "a"},
		{KeyID: "http://x/2", "name": "b"},
		{KeyID: "http://x/1", "name": "c"},
		{KeyID: "http://x/1", "name": "a"},
		{KeyID: "http://x/1", "name": "d"},
	}

	merged := Merge(items)

	require.Len(t, merged, 2)
	assert.Equal(t, "http://x/1", merged[0][KeyID])
	assert.Equal(t, []interface{}{"a", "c", "d"}, merged[0]["name"])
	assert.Equal(t, "b", merged[1]["name"])
}

func TestMergeEqualScalarIsNoop(t *testing.T) {
	merged := Merge([]Item{
		{KeyID: "http://x/1", "name": "a"},
		{KeyID: "http://x/1", "name": "a"},
	})

	require.Len(t, merged, 1)
	assert.Equal(t, "a", merged[0]["name"])
}

func TestMergeDisjointIsOrderIndependent(t *testing.T) {
	forward := Merge([]Item{
		{KeyID: "http://x/1", "name": "a"},
		{KeyID: "http://x/1", "age": int64(3)},
	})
	backward := Merge([]Item{
		{KeyID: "http://x/1", "age": int64(3)},
		{KeyID: "http://x/1", "name": "a"},
	})

	assert.Equal(t, forward, backward)
}

func TestItems(t *testing.T) {
	ctx := prefixes.NewContext(prefixes.Default(), prefixes.Shorten, prefixes.Shorten)
	rows := []sparql.Binding{
		{
			"subject":  sparql.URI("http://example.onto/place/City/rio"),
			"label":    sparql.Literal("Rio", "pt"),
			"country":  sparql.URI("http://semantica.globo.com/upper/Brazil"),
			"literal1": sparql.TypedLiteral("6000000", prefixes.XSD+"integer"),
			"total":    sparql.TypedLiteral("1", prefixes.XSD+"integer"),
		},
	}
	keys := map[string]string{
		"country":  "http://semantica.globo.com/upper/country",
		"literal1": "http://semantica.globo.com/upper/population",
	}

	items := Items(rows, keys, ctx)

	require.Len(t, items, 1)
	assert.Equal(t, Item{
		KeyID:              "http://example.onto/place/City/rio",
		KeyTitle:           "Rio",
		"upper:country":    "upper:Brazil",
		"upper:population": int64(6000000),
	}, items[0])
	assert.Equal(t, map[string]string{"upper": "http://semantica.globo.com/upper/"}, ctx.Prefixes())
}

func TestItemsCastByLiteralDatatype(t *testing.T) {
	ctx := prefixes.NewContext(prefixes.Default(), prefixes.Shorten, prefixes.Shorten)
	rows := []sparql.Binding{
		{"subject": sparql.URI("http://example.onto/place/City/rio"), "literal1": sparql.Literal("1", "")},
		{"subject": sparql.URI("http://example.onto/place/City/sp"), "literal1": sparql.TypedLiteral("1", prefixes.XSD+"integer")},
		{"subject": sparql.URI("http://example.onto/place/City/bh"), "literal1": sparql.TypedLiteral("true", prefixes.XSD+"boolean")},
		{"subject": sparql.URI("http://example.onto/place/City/rj"), "literal1": sparql.TypedLiteral("many", prefixes.XSD+"integer")},
	}

	items := Items(rows, map[string]string{"literal1": "http://semantica.globo.com/upper/population"}, ctx)

	require.Len(t, items, 4)
	assert.Equal(t, "1", items[0]["upper:population"])
	assert.Equal(t, int64(1), items[1]["upper:population"])
	assert.Equal(t, true, items[2]["upper:population"])
	assert.Equal(t, "many", items[3]["upper:population"])
}

func TestItemsExpandURI(t *testing.T) {
	ctx := prefixes.NewContext(prefixes.Default(), prefixes.Expand, prefixes.Expand)
	rows := []sparql.Binding{{
		"subject": sparql.URI("http://example.onto/place/City/rio"),
		"country": sparql.URI("http://semantica.globo.com/upper/Brazil"),
	}}

	items := Items(rows, map[string]string{"country": "http://semantica.globo.com/upper/country"}, ctx)

	assert.Equal(t, "http://semantica.globo.com/upper/Brazil", items[0]["http://semantica.globo.com/upper/country"])
}

func TestDecorate(t *testing.T) {
	items := []Item{{KeyID: "http://example.onto/place/City/rio"}, {"other": "x"}}

	Decorate(items, "http://example.onto/place/")

	assert.Equal(t, "rio", items[0][KeyResourceID])
	assert.Equal(t, "http://example.onto/place/City/", items[0][KeyInstancePrefix])
	assert.Equal(t, "http://example.onto/place/", items[0][KeyClassPrefix])
	assert.NotContains(t, items[1], KeyResourceID)
}

func TestEnvelope(t *testing.T) {
	p := newParams(t, "page=2&per_page=2&lang=pt")
	ctx := prefixes.NewContext(prefixes.Default(), prefixes.Shorten, prefixes.Shorten)
	items := []Item{{KeyID: "http://example.onto/place/City/rio"}}

	doc := Envelope(items, p, ctx, 3, true)

	assert.Equal(t, "http://example.onto/place/City", doc.ID)
	assert.Equal(t, "http://api/place/City", doc.BaseURL)
	assert.Equal(t, "http://api/place/City/_schema", doc.SchemaURL)
	assert.Equal(t, "pt", doc.Context["@language"])
	require.NotNil(t, doc.ItemCount)
	assert.Equal(t, 3, *doc.ItemCount)

	_, ok := links.Find(doc.Links, "previous")
	assert.True(t, ok)
	_, ok = links.Find(doc.Links, "next")
	assert.False(t, ok)
	last, ok := links.Find(doc.Links, "last")
	require.True(t, ok)
	assert.Equal(t, "http://api/place/City?lang=pt&page=2&per_page=2", last.Href)
}

func TestEnvelopeUncountedEmpty(t *testing.T) {
	p := newParams(t, "")
	ctx := prefixes.NewContext(prefixes.Default(), prefixes.Shorten, prefixes.Shorten)

	doc := Envelope(nil, p, ctx, 0, false)

	assert.NotNil(t, doc.Items)
	assert.Empty(t, doc.Items)
	assert.Nil(t, doc.ItemCount)
}

func TestMergeAndDecorate(t *testing.T) {
	p := newParams(t, "p=upper:name&o=?name")
	plan := newBuilder().Plan(p)
	ctx := prefixes.NewContext(prefixes.Default(), prefixes.Shorten, prefixes.Shorten)
	rows := []sparql.Binding{
		{"subject": sparql.URI("http://example.onto/place/City/rio"), "label": sparql.Literal("Rio", ""), "name": sparql.Literal("Rio", "")},
		{"subject": sparql.URI("http://example.onto/place/City/rio"), "label": sparql.Literal("Rio", ""), "name": sparql.Literal("Rio de Janeiro", "")},
	}

	items := MergeAndDecorate(rows, plan, p, ctx)

	require.Len(t, items, 1)
	assert.Equal(t, []interface{}{"Rio", "Rio de Janeiro"}, items[0]["upper:name"])
	assert.Equal(t, "Rio", items[0][KeyTitle])
	assert.Equal(t, "rio", items[0][KeyResourceID])
}
