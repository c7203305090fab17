package links

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageArgs(page int) string {
	if page == 0 {
		return "per_page=2"
	}
	return "page=" + strconv.Itoa(page) + "&per_page=2"
}

func TestLastPage(t *testing.T) {
	assert.Equal(t, 1, LastPage(0, 10))
	assert.Equal(t, 1, LastPage(10, 10))
	assert.Equal(t, 2, LastPage(11, 10))
	assert.Equal(t, 1, LastPage(5, 0))
}

func TestCollectionCounted(t *testing.T) {
	ls := Collection("http://api/place/City/", Page{Page: 2, PerPage: 2, Items: 2, Total: 5, Counted: true}, pageArgs)

	last, ok := Find(ls, "last")
	require.True(t, ok)
	assert.Equal(t, "http://api/place/City?page=3&per_page=2", last.Href)

	prev, ok := Find(ls, "previous")
	require.True(t, ok)
	assert.Equal(t, "http://api/place/City?page=1&per_page=2", prev.Href)

	next, ok := Find(ls, "next")
	require.True(t, ok)
	assert.Equal(t, "http://api/place/City?page=3&per_page=2", next.Href)

	item, ok := Find(ls, "item")
	require.True(t, ok)
	assert.Equal(t, "http://api/place/City/{resource_id}?per_page=2", item.Href)
}

func TestCollectionLastPageHasNoNext(t *testing.T) {
	ls := Collection("http://api/place/City", Page{Page: 3, PerPage: 2, Items: 1, Total: 5, Counted: true}, pageArgs)

	_, ok := Find(ls, "next")
	assert.False(t, ok)
}

func TestCollectionUncounted(t *testing.T) {
	ls := Collection("http://api/place/City", Page{Page: 1, PerPage: 2, Items: 2}, pageArgs)

	_, ok := Find(ls, "last")
	assert.False(t, ok)
	_, ok = Find(ls, "previous")
	assert.False(t, ok)
	_, ok = Find(ls, "next")
	assert.True(t, ok)

	ls = Collection("http://api/place/City", Page{Page: 1, PerPage: 2, Items: 1}, pageArgs)
	_, ok = Find(ls, "next")
	assert.False(t, ok)
}

func TestSchemaLinks(t *testing.T) {
	ls := Schema("http://api/place/City/_schema", "http://api/place/City", "http://example.onto/place/")

	rels := make([]string, len(ls))
	for i, l := range ls {
		rels[i] = l.Rel
	}
	assert.Equal(t, []string{"self", "class", "create", "collection", "delete", "replace"}, rels)

	coll, _ := Find(ls, "collection")
	assert.Equal(t, "http://api/place/City?class_prefix=http%3A%2F%2Fexample.onto%2Fplace%2F", coll.Href)
}

func TestRoot(t *testing.T) {
	assert.Equal(t, "http://api", Root("http://api/place/City/_schema"))
	assert.Equal(t, "https://api:8443", Root("https://api:8443/place"))
	assert.Equal(t, "", Root("/place/City"))
}

func TestObjectProperties(t *testing.T) {
	ls := ObjectProperties("http://api", map[string]string{
		"upper:state":   "upper:State",
		"upper:country": "upper:Country",
		"upper:sister":  "http://example.org/City",
		"upper:part":    "upper:Part/Of",
	})

	assert.Equal(t, []Link{
		{Rel: "upper:country", Href: "http://api/upper/Country", Method: "GET"},
		{Rel: "upper:state", Href: "http://api/upper/State", Method: "GET"},
	}, ls)
}

func TestResourcePath(t *testing.T) {
	tests := []struct {
		uri  string
		want string
		ok   bool
	}{
		{"http://example.onto/place/City", "/place/City", true},
		{"http://example.onto/place/City/rio", "/place/City/rio", true},
		{"http://example.onto/place", "", false},
		{"http://example.onto/place/City/rio/extra", "", false},
		{"http://example.onto/place//rio", "", false},
		{"http://other.org/place/City", "", false},
	}
	for _, tt := range tests {
		got, ok := ResourcePath("http://example.onto/", tt.uri)
		assert.Equal(t, tt.ok, ok, tt.uri)
		assert.Equal(t, tt.want, got, tt.uri)
	}
}
