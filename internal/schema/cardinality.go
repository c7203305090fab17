package schema

import (
	"strconv"
	"strings"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
	"github.com/ontogate/ontogate/internal/sparql"
)

// EnumValue is one allowed value of an enumerated range
type EnumValue struct {
	ID    string `json:"@id"`
	Title string `json:"title,omitempty"`
}

// Constraint is the cardinality bucket of a (predicate, range) pair
type Constraint struct {
	MinItems *int
	MaxItems *int
	Required bool
	Enum     []EnumValue
}

// Unbounded reports whether neither bound is set to a positive value
func (c *Constraint) Unbounded() bool {
	if c == nil {
		return true
	}
	return (c.MinItems == nil || *c.MinItems == 0) && (c.MaxItems == nil || *c.MaxItems == 0)
}

// Multiple reports whether a bound allows more than one value
func (c *Constraint) Multiple() bool {
	if c == nil {
		return false
	}
	return c.MinItems != nil && *c.MinItems > 1 || c.MaxItems != nil && *c.MaxItems > 1
}

func (c *Constraint) addEnum(v EnumValue) {
	for _, e := range c.Enum {
		if e.ID == v.ID {
			return
		}
	}
	c.Enum = append(c.Enum, v)
}

// Cardinalities maps predicate URI -> range URI -> constraint
type Cardinalities map[string]map[string]*Constraint

// Get returns the bucket of (predicate, range), or nil
func (c Cardinalities) Get(predicate, rangeURI string) *Constraint {
	return c[predicate][rangeURI]
}

// IsBlankNode reports whether a value names a blank node
func IsBlankNode(t sparql.Term) bool {
	return t.IsBlank() || strings.HasPrefix(t.Value, "nodeID://") || strings.HasPrefix(t.Value, "_:")
}

// ResolveCardinalities groups restriction rows by (predicate, range).
// declaredRanges supplies the rdfs:range of a predicate for rows whose
// restriction carries no range of its own.
func ResolveCardinalities(rows []sparql.Binding, declaredRanges map[string]string) (Cardinalities, error) {
	out := make(Cardinalities)
	for _, row := range rows {
		predicate := row.Value("predicate")
		if predicate == "" {
			continue
		}

		var rangeURI string
		if t, ok := row["range"]; ok {
			if IsBlankNode(t) {
				continue
			}
			rangeURI = t.Value
		} else if declared, ok := declaredRanges[predicate]; ok {
			rangeURI = declared
		} else {
			return nil, gwerrors.InvalidSchemaData("the property %s is not defined properly", predicate)
		}

		if out[predicate] == nil {
			out[predicate] = make(map[string]*Constraint)
		}
		bucket := out[predicate][rangeURI]
		if bucket == nil {
			bucket = &Constraint{}
			out[predicate][rangeURI] = bucket
		}

		if row.Has("min") && bucket.MinItems == nil {
			n, err := parseBound(predicate, "owl:minQualifiedCardinality", row.Value("min"))
			if err != nil {
				return nil, err
			}
			bucket.MinItems = &n
			bucket.Required = n >= 1
		}
		if row.Has("max") && bucket.MaxItems == nil {
			n, err := parseBound(predicate, "owl:maxQualifiedCardinality", row.Value("max"))
			if err != nil {
				return nil, err
			}
			bucket.MaxItems = &n
		}
		if v := row.Value("enumerated_value"); v != "" {
			bucket.addEnum(EnumValue{ID: v, Title: row.Value("enumerated_value_label")})
		}
	}
	return out, nil
}

func parseBound(predicate, restriction, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, gwerrors.InvalidSchemaData("the property %s defines a non-integer %s %q", predicate, restriction, value)
	}
	return n, nil
}
