package collection

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontogate/ontogate/internal/params"
	"github.com/ontogate/ontogate/internal/prefixes"
)

const testRuleset = "http://example.onto/ruleset"

func newParams(t *testing.T, raw string) *params.QueryParams {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	p, err := params.Parse(values,
		params.Route{ContextName: "place", ClassName: "City", BaseURL: "http://api/place/City"},
		params.Defaults{URIPrefix: "http://example.onto/", PerPage: 10, MaxPerPage: 100})
	require.NoError(t, err)
	return p
}

func newBuilder() *ListQueryBuilder {
	return NewListQueryBuilder(prefixes.Default(), testRuleset)
}

func whereBody(query string) string {
	start := strings.Index(query, "WHERE {")
	end := strings.Index(query[start:], "\n}") + start
	return query[start : end+2]
}

func TestBuildMinimal(t *testing.T) {
	q := newBuilder().Build(newParams(t, ""))

	want := `DEFINE input:inference "http://example.onto/ruleset"
SELECT DISTINCT ?label ?subject
WHERE {
  GRAPH ?g {
    ?subject a <http://example.onto/place/City> .
    ?subject <http://www.w3.org/2000/01/rdf-schema#label> ?label .
  }
  FILTER(?g = <http://example.onto/place/>)
}
LIMIT 10
OFFSET 0
`
	assert.Equal(t, want, q)
}

func TestBuildWithoutRuleset(t *testing.T) {
	q := NewListQueryBuilder(prefixes.Default(), "").Build(newParams(t, ""))
	assert.True(t, strings.HasPrefix(q, "SELECT DISTINCT"))
}

func TestMandatoryTriplesAppearOnce(t *testing.T) {
	raws := []string{
		"",
		"p=upper:name&o=Rio",
		"p=upper:name&o=Rio&p1=rdfs:label&o1=Feminino&p2=upper:country&o2=?object2&p3=upper:stadium&o3=?obj",
		"p1=rdfs:label&sort_by=upper:stadium",
	}
	for _, raw := range raws {
		t.Run(raw, func(t *testing.T) {
			q := newBuilder().Build(newParams(t, raw))
			assert.Equal(t, 1, strings.Count(q, "?subject a <http://example.onto/place/City> ."))
			assert.Equal(t, 1, strings.Count(q, "?subject <http://www.w3.org/2000/01/rdf-schema#label> ?label ."))
		})
	}
}

func TestNoopSlotIsByteIdentical(t *testing.T) {
	b := newBuilder()
	base := newParams(t, "p1=upper:name&o1=Rio&sort_by=upper:stadium&lang=pt")

	withNoop := base.WithSlot(params.Slot{Index: params.DefaultSlot, Predicate: "?predicate", Object: "?object"})
	assert.Equal(t, b.Build(base), b.Build(withNoop))
	assert.Equal(t, b.BuildCount(base), b.BuildCount(withNoop))

	withNoop = base.WithSlot(params.Slot{Index: 7, Predicate: "?p7", Object: "?o7"})
	assert.Equal(t, b.Build(base), b.Build(withNoop))
}

func TestLabelSlotWithVariableObjectIsOmitted(t *testing.T) {
	b := newBuilder()
	assert.Equal(t, b.Build(newParams(t, "")), b.Build(newParams(t, "p=rdfs:label")))
	assert.Equal(t, b.Build(newParams(t, "")), b.Build(newParams(t, "p=http://www.w3.org/2000/01/rdf-schema%23label")))
}

func TestLiteralObjectUsesComparisonVariable(t *testing.T) {
	q := newBuilder().Build(newParams(t, "p=rdfs:label&o=Feminino&lang=pt"))

	assert.Contains(t, q, "?subject <http://www.w3.org/2000/01/rdf-schema#label> ?literal1 .")
	assert.Contains(t, q, `FILTER(str(?literal1) = "Feminino")`)
	assert.Contains(t, q, `FILTER(langMatches(lang(?label), "pt") OR langMatches(lang(?label), ""))`)
	assert.Contains(t, q, `FILTER(langMatches(lang(?literal1), "pt") OR langMatches(lang(?literal1), ""))`)
	assert.Contains(t, q, "SELECT DISTINCT ?label ?literal1 ?subject\n")
	assert.NotContains(t, q, `"Feminino" .`)
}

func TestLiteralVariablesAreNumberedByEmittedSlots(t *testing.T) {
	q := newBuilder().Build(newParams(t, "p1=upper:name&o1=Rio&p2=upper:nick&o2=Cidade"))

	assert.Contains(t, q, "?subject <http://semantica.globo.com/upper/name> ?literal1 .")
	assert.Contains(t, q, "?subject <http://semantica.globo.com/upper/nick> ?literal2 .")
	assert.Contains(t, q, `FILTER(str(?literal2) = "Cidade")`)
}

func TestURIObjectIsInlined(t *testing.T) {
	q := newBuilder().Build(newParams(t, "p=upper:country&o=http://example.onto/place/Country/br"))
	assert.Contains(t, q, "?subject <http://semantica.globo.com/upper/country> <http://example.onto/place/Country/br> .")

	q = newBuilder().Build(newParams(t, "p=upper:country&o=upper:Brazil"))
	assert.Contains(t, q, "?subject <http://semantica.globo.com/upper/country> <http://semantica.globo.com/upper/Brazil> .")
}

func TestMalformedURIObjectIsALiteral(t *testing.T) {
	q := newBuilder().Build(newParams(t, "p=upper:country&o=http://x/a>%20.%20}%20UNION%20{%20?subject%20?p%20<http://x/b"))

	assert.Contains(t, q, "?subject <http://semantica.globo.com/upper/country> ?literal1 .")
	assert.Contains(t, q, `FILTER(str(?literal1) = "http://x/a> . } UNION { ?subject ?p <http://x/b")`)
	assert.NotContains(t, q, "<http://x/a>")
	assert.Equal(t, 1, strings.Count(q, "UNION"))
}

func TestMalformedCURIEObjectIsALiteral(t *testing.T) {
	q := newBuilder().Build(newParams(t, "p=upper:country&o=upper:Brazil>%20.%20?subject%20?any%20<http://x/D"))

	assert.Contains(t, q, `FILTER(str(?literal1) = "upper:Brazil> . ?subject ?any <http://x/D")`)
	assert.NotContains(t, q, "?subject ?any <http://x/D> .")
}

func TestNoLangFiltersWithoutLang(t *testing.T) {
	q := newBuilder().Build(newParams(t, "p=rdfs:label&o=Feminino"))
	assert.NotContains(t, q, "langMatches")
}

func TestSortByLabel(t *testing.T) {
	q := newBuilder().Build(newParams(t, "sort_by=rdfs:label&sort_order=DESC"))
	assert.Contains(t, q, "ORDER BY DESC(?label)\n")
	assert.NotContains(t, q, "?sort_object")
}

func TestSortReusesSlotVariable(t *testing.T) {
	q := newBuilder().Build(newParams(t, "p=upper:stadium&o=?stadium&sort_by=upper:stadium"))

	assert.Contains(t, q, "?subject <http://semantica.globo.com/upper/stadium> ?stadium .")
	assert.Contains(t, q, "ORDER BY ASC(?stadium)\n")
	assert.NotContains(t, q, "?sort_object")
	assert.Contains(t, q, "SELECT DISTINCT ?label ?stadium ?subject\n")
}

func TestSortIncludeEmpty(t *testing.T) {
	b := newBuilder()

	optional := b.Build(newParams(t, "sort_by=upper:stadium&sort_include_empty=1"))
	assert.Contains(t, optional, "OPTIONAL {\n      ?subject <http://semantica.globo.com/upper/stadium> ?sort_object .\n    }")
	assert.Contains(t, optional, "ORDER BY ASC(?sort_object)")
	assert.Contains(t, optional, "SELECT DISTINCT ?label ?sort_object ?subject\n")

	mandatory := b.Build(newParams(t, "sort_by=upper:stadium&sort_include_empty=0"))
	assert.NotContains(t, mandatory, "OPTIONAL")
	assert.Contains(t, mandatory, "    ?subject <http://semantica.globo.com/upper/stadium> ?sort_object .\n")
}

func TestSortByNonURIIsIgnored(t *testing.T) {
	q := newBuilder().Build(newParams(t, "sort_by=stadium"))
	assert.NotContains(t, q, "ORDER BY")
}

func TestPagination(t *testing.T) {
	q := newBuilder().Build(newParams(t, "page=3&per_page=7"))
	assert.True(t, strings.HasSuffix(q, "LIMIT 7\nOFFSET 14\n"))
}

func TestCountSharesWhereBody(t *testing.T) {
	b := newBuilder()
	raws := []string{
		"",
		"p=rdfs:label&o=Feminino&lang=pt",
		"p1=upper:name&o1=?name&sort_by=upper:stadium&sort_include_empty=0&page=2",
	}
	for _, raw := range raws {
		t.Run(raw, func(t *testing.T) {
			p := newParams(t, raw)
			list := b.Build(p)
			count := b.BuildCount(p)

			assert.Equal(t, whereBody(list), whereBody(count))
			assert.Contains(t, count, "SELECT (count(DISTINCT ?subject) AS ?total)\n")
			assert.NotContains(t, count, "ORDER BY")
			assert.NotContains(t, count, "LIMIT")
			assert.NotContains(t, count, "OFFSET")
		})
	}
}

func TestPlanKeys(t *testing.T) {
	plan := newBuilder().Plan(newParams(t, "p=upper:name&o=?name&p1=upper:nick&o1=Rio&sort_by=upper:stadium"))

	assert.Equal(t, "http://semantica.globo.com/upper/name", plan.Keys["name"])
	assert.Equal(t, "http://semantica.globo.com/upper/nick", plan.Keys["literal1"])
	assert.Equal(t, "http://semantica.globo.com/upper/stadium", plan.Keys["sort_object"])
}

func TestClassExistsQuery(t *testing.T) {
	q := newBuilder().ClassExistsQuery(newParams(t, ""))
	assert.True(t, strings.HasPrefix(q, "ASK {"))
	assert.Contains(t, q, "GRAPH <http://example.onto/place/> {")
	assert.Contains(t, q, "<http://example.onto/place/City> a <http://www.w3.org/2002/07/owl#Class> .")
}
