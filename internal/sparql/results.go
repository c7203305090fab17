// Package sparql models SPARQL query text and SPARQL JSON results.
package sparql

import (
	"encoding/json"
	"fmt"
	"io"
)

// Term types as they appear in SPARQL JSON results
const (
	TypeURI          = "uri"
	TypeLiteral      = "literal"
	TypeTypedLiteral = "typed-literal"
	TypeBNode        = "bnode"
)

// Term is one bound value of a result row
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// IsURI reports whether the term is an IRI
func (t Term) IsURI() bool {
	return t.Type == TypeURI
}

// IsBlank reports whether the term is a blank node
func (t Term) IsBlank() bool {
	return t.Type == TypeBNode
}

// Binding is a single result row keyed by variable name
type Binding map[string]Term

// Value returns the lexical value bound to key, or "" when unbound
func (b Binding) Value(key string) string {
	return b[key].Value
}

// Has reports whether key is bound in the row
func (b Binding) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// Head lists the projected variables
type Head struct {
	Vars []string `json:"vars"`
}

// ResultSet holds the rows of a SELECT result
type ResultSet struct {
	Bindings []Binding `json:"bindings"`
}

// Results is the SPARQL 1.1 JSON results document. Boolean is set for ASK.
type Results struct {
	Head    Head      `json:"head"`
	Results ResultSet `json:"results"`
	Boolean *bool     `json:"boolean,omitempty"`
}

// Decode reads a SPARQL JSON results document
func Decode(r io.Reader) (*Results, error) {
	var res Results
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode sparql results: %w", err)
	}
	return &res, nil
}

// Rows returns the bindings of a SELECT result
func (r *Results) Rows() []Binding {
	if r == nil {
		return nil
	}
	return r.Results.Bindings
}

// IsEmpty reports whether a SELECT result has no rows
func (r *Results) IsEmpty() bool {
	return len(r.Rows()) == 0
}

// Values returns every value bound to key, in row order
func (r *Results) Values(key string) []string {
	var out []string
	for _, row := range r.Rows() {
		if t, ok := row[key]; ok {
			out = append(out, t.Value)
		}
	}
	return out
}

// OneValue returns the first value bound to key
func (r *Results) OneValue(key string) (string, bool) {
	for _, row := range r.Rows() {
		if t, ok := row[key]; ok {
			return t.Value, true
		}
	}
	return "", false
}

// IsTrue reports the answer of an ASK result
func (r *Results) IsTrue() bool {
	return r != nil && r.Boolean != nil && *r.Boolean
}

// NewResults builds a SELECT result from rows, deriving the head from their keys
func NewResults(rows ...Binding) *Results {
	seen := make(map[string]bool)
	var vars []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				vars = append(vars, k)
			}
		}
	}
	return &Results{Head: Head{Vars: vars}, Results: ResultSet{Bindings: rows}}
}

// NewBoolean builds an ASK result
func NewBoolean(v bool) *Results {
	return &Results{Boolean: &v}
}

// URI builds an IRI term
func URI(value string) Term {
	return Term{Type: TypeURI, Value: value}
}

// Literal builds a plain literal, optionally language-tagged
func Literal(value, lang string) Term {
	return Term{Type: TypeLiteral, Value: value, Lang: lang}
}

// TypedLiteral builds a literal carrying a datatype
func TypedLiteral(value, datatype string) Term {
	return Term{Type: TypeTypedLiteral, Value: value, Datatype: datatype}
}
