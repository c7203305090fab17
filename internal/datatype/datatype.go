// Package datatype maps XSD and RDF literal datatypes to JSON Schema types and
// converts typed literal values into Go values.
package datatype

import (
	"strconv"
	"strings"

	"github.com/ontogate/ontogate/internal/prefixes"
)

// JSON Schema types
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// FormatDate is the JSON Schema format for date and dateTime ranges
const FormatDate = "date"

// Mapping is the JSON Schema type/format of a datatype
type Mapping struct {
	Type   string
	Format string
}

var table = map[string]Mapping{
	prefixes.RDF + "XMLLiteral":         {Type: TypeString},
	prefixes.RDFS + "Literal":           {Type: TypeString},
	prefixes.XSD + "string":             {Type: TypeString},
	prefixes.XSD + "normalizedString":   {Type: TypeString},
	prefixes.XSD + "token":              {Type: TypeString},
	prefixes.XSD + "anyURI":             {Type: TypeString, Format: "uri"},
	prefixes.XSD + "float":              {Type: TypeNumber},
	prefixes.XSD + "double":             {Type: TypeNumber},
	prefixes.XSD + "decimal":            {Type: TypeNumber},
	prefixes.XSD + "integer":            {Type: TypeInteger},
	prefixes.XSD + "nonPositiveInteger": {Type: TypeInteger},
	prefixes.XSD + "nonNegativeInteger": {Type: TypeInteger},
	prefixes.XSD + "negativeInteger":    {Type: TypeInteger},
	prefixes.XSD + "positiveInteger":    {Type: TypeInteger},
	prefixes.XSD + "long":               {Type: TypeInteger},
	prefixes.XSD + "int":                {Type: TypeInteger},
	prefixes.XSD + "short":              {Type: TypeInteger},
	prefixes.XSD + "byte":               {Type: TypeInteger},
	prefixes.XSD + "unsignedLong":       {Type: TypeInteger},
	prefixes.XSD + "unsignedInt":        {Type: TypeInteger},
	prefixes.XSD + "unsignedShort":      {Type: TypeInteger},
	prefixes.XSD + "unsignedByte":       {Type: TypeInteger},
	prefixes.XSD + "boolean":            {Type: TypeBoolean},
	prefixes.XSD + "date":               {Type: TypeString, Format: FormatDate},
	prefixes.XSD + "dateTime":           {Type: TypeString, Format: FormatDate},
}

// Lookup returns the JSON Schema mapping of a full datatype URI. Unmapped
// datatypes are objects.
func Lookup(datatypeURI string) Mapping {
	if m, ok := table[datatypeURI]; ok {
		return m
	}
	return Mapping{Type: TypeObject}
}

// Known reports whether datatypeURI has an explicit mapping
func Known(datatypeURI string) bool {
	_, ok := table[datatypeURI]
	return ok
}

// Cast converts a literal value to the Go value matching its datatype:
// integers become int64, numbers float64 and booleans bool. Values that do
// not parse, or carry another datatype, are returned unchanged.
func Cast(value, datatypeURI string) interface{} {
	if datatypeURI == "" {
		return value
	}
	switch Lookup(datatypeURI).Type {
	case TypeInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return n
		}
	case TypeNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	case TypeBoolean:
		switch strings.TrimSpace(value) {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
	}
	return value
}
