package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
)

const (
	predP  = "http://example.onto/p"
	rangeR = "http://example.onto/R"
)

func intLit(v string) sparql.Term {
	return sparql.TypedLiteral(v, prefixes.XSD+"nonNegativeInteger")
}

func TestCardinalityMinAndMax(t *testing.T) {
	rows := []sparql.Binding{
		{"predicate": sparql.URI(predP), "range": sparql.URI(rangeR), "min": intLit("1")},
		{"predicate": sparql.URI(predP), "range": sparql.URI(rangeR), "max": intLit("1")},
	}

	card, err := ResolveCardinalities(rows, nil)
	require.NoError(t, err)

	c := card.Get(predP, rangeR)
	require.NotNil(t, c)
	require.NotNil(t, c.MinItems)
	require.NotNil(t, c.MaxItems)
	assert.Equal(t, 1, *c.MinItems)
	assert.Equal(t, 1, *c.MaxItems)
	assert.True(t, c.Required)
}

func TestCardinalityZeroMinIsNotRequired(t *testing.T) {
	rows := []sparql.Binding{
		{"predicate": sparql.URI(predP), "range": sparql.URI(rangeR), "min": intLit("0")},
	}

	card, err := ResolveCardinalities(rows, nil)
	require.NoError(t, err)
	assert.False(t, card.Get(predP, rangeR).Required)
}

func TestCardinalityFirstBoundWins(t *testing.T) {
	rows := []sparql.Binding{
		{"predicate": sparql.URI(predP), "range": sparql.URI(rangeR), "max": intLit("3")},
		{"predicate": sparql.URI(predP), "range": sparql.URI(rangeR), "max": intLit("5")},
	}

	card, err := ResolveCardinalities(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, *card.Get(predP, rangeR).MaxItems)
}

func TestCardinalityNonInteger(t *testing.T) {
	rows := []sparql.Binding{
		{"predicate": sparql.URI(predP), "range": sparql.URI(rangeR), "min": sparql.Literal("one", "")},
	}

	_, err := ResolveCardinalities(rows, nil)
	require.Error(t, err)
	assert.True(t, gwerrors.IsInvalidSchemaData(err))
	assert.Contains(t, err.Error(), "non-integer")
}

func TestCardinalitySkipsBlankRanges(t *testing.T) {
	rows := []sparql.Binding{
		{"predicate": sparql.URI(predP), "range": sparql.URI("nodeID://b1234"), "min": intLit("1")},
		{"predicate": sparql.URI(predP), "range": {Type: sparql.TypeBNode, Value: "b1"}, "min": intLit("1")},
		{"predicate": sparql.URI(predP), "range": sparql.URI("_:b2"), "min": intLit("1")},
	}

	card, err := ResolveCardinalities(rows, nil)
	require.NoError(t, err)
	assert.Empty(t, card[predP])
}

func TestCardinalityDeclaredRangeFallback(t *testing.T) {
	rows := []sparql.Binding{
		{"predicate": sparql.URI(predP), "max": intLit("1")},
	}

	card, err := ResolveCardinalities(rows, map[string]string{predP: rangeR})
	require.NoError(t, err)
	assert.Equal(t, 1, *card.Get(predP, rangeR).MaxItems)

	_, err = ResolveCardinalities(rows, nil)
	require.Error(t, err)
	assert.True(t, gwerrors.IsInvalidSchemaData(err))
}

func TestCardinalityEnumeration(t *testing.T) {
	rows := []sparql.Binding{
		{"predicate": sparql.URI(predP), "range": sparql.URI(rangeR), "enumerated_value": sparql.URI("http://example.onto/R/a"), "enumerated_value_label": sparql.Literal("A", "")},
		{"predicate": sparql.URI(predP), "range": sparql.URI(rangeR), "enumerated_value": sparql.URI("http://example.onto/R/b")},
		{"predicate": sparql.URI(predP), "range": sparql.URI(rangeR), "enumerated_value": sparql.URI("http://example.onto/R/a"), "enumerated_value_label": sparql.Literal("A", "")},
	}

	card, err := ResolveCardinalities(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, []EnumValue{
		{ID: "http://example.onto/R/a", Title: "A"},
		{ID: "http://example.onto/R/b"},
	}, card.Get(predP, rangeR).Enum)
}

func TestConstraintShape(t *testing.T) {
	one, two, zero := 1, 2, 0
	var nilConstraint *Constraint

	assert.True(t, nilConstraint.Unbounded())
	assert.False(t, nilConstraint.Multiple())
	assert.True(t, (&Constraint{MinItems: &zero, MaxItems: &zero}).Unbounded())
	assert.False(t, (&Constraint{MinItems: &one}).Unbounded())
	assert.True(t, (&Constraint{MaxItems: &two}).Multiple())
	assert.False(t, (&Constraint{MinItems: &one, MaxItems: &one}).Multiple())
}
