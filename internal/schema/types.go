// Package schema resolves an OWL class into a JSON-Schema-like document:
// its superclass closure, the predicates whose domain covers the closure and
// the cardinality restrictions that shape them.
package schema

import (
	"encoding/json"

	"github.com/ontogate/ontogate/internal/links"
)

// JSONSchemaDraft is the $schema of every class document
const JSONSchemaDraft = "http://json-schema.org/draft-04/schema#"

// PredicateKind distinguishes object from datatype properties
type PredicateKind int

const (
	// ObjectProperty links instances to instances
	ObjectProperty PredicateKind = iota
	// DatatypeProperty links instances to literals
	DatatypeProperty
)

// String returns the string representation of PredicateKind
func (k PredicateKind) String() string {
	if k == DatatypeProperty {
		return "datatype"
	}
	return "object"
}

// RangeDescriptor describes one range of a predicate
type RangeDescriptor struct {
	ID     string `json:"@id,omitempty"`
	Graph  string `json:"graph,omitempty"`
	Title  string `json:"title,omitempty"`
	Type   string `json:"type,omitempty"`
	Format string `json:"format,omitempty"`
}

// Range is either a single descriptor or a list of them. A Range built by
// joining two or more distinct descriptors is Multi.
type Range struct {
	single *RangeDescriptor
	multi  []RangeDescriptor
}

// SingleRange builds a single-valued Range
func SingleRange(d RangeDescriptor) Range {
	return Range{single: &d}
}

// MultiRange builds a list-valued Range
func MultiRange(ds ...RangeDescriptor) Range {
	return Range{multi: append([]RangeDescriptor(nil), ds...)}
}

// IsMulti reports whether the range is list-valued
func (r Range) IsMulti() bool {
	return r.single == nil
}

// Descriptors returns the descriptors of the range in order
func (r Range) Descriptors() []RangeDescriptor {
	if r.single != nil {
		return []RangeDescriptor{*r.single}
	}
	return append([]RangeDescriptor(nil), r.multi...)
}

// Join returns the union of r and other, without duplicates and in
// first-seen order. Joining always yields a Multi range.
func (r Range) Join(other Range) Range {
	var out []RangeDescriptor
	for _, d := range append(r.Descriptors(), other.Descriptors()...) {
		dup := false
		for _, e := range out {
			if e == d {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, d)
		}
	}
	return MultiRange(out...)
}

// MarshalJSON renders a single range as an object and a multi range as a list
func (r Range) MarshalJSON() ([]byte, error) {
	if r.single != nil {
		return json.Marshal(r.single)
	}
	if r.multi == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.multi)
}

// Items is the element type of an array-valued predicate
type Items struct {
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
}

// PredicateDescriptor is one entry of the properties map of a class schema
type PredicateDescriptor struct {
	Class       string        `json:"class"`
	Graph       string        `json:"graph"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Kind        PredicateKind `json:"-"`
	Datatype    string        `json:"datatype,omitempty"`
	Range       *Range        `json:"range,omitempty"`
	Type        string        `json:"type"`
	Format      string        `json:"format,omitempty"`
	Items       *Items        `json:"items,omitempty"`
	MinItems    *int          `json:"minItems,omitempty"`
	MaxItems    *int          `json:"maxItems,omitempty"`
	Required    bool          `json:"required,omitempty"`
	Enum        []EnumValue   `json:"enum,omitempty"`
	UniqueValue bool          `json:"unique_value,omitempty"`
}

// Document is a resolved class schema
type Document struct {
	Type        string                          `json:"type"`
	Schema      string                          `json:"$schema"`
	ID          string                          `json:"id"`
	Title       string                          `json:"title"`
	Description string                          `json:"description,omitempty"`
	Context     map[string]interface{}          `json:"@context"`
	Links       []links.Link                    `json:"links"`
	Properties  map[string]*PredicateDescriptor `json:"properties"`
}
