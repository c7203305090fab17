package sparql

import (
	"strings"

	"github.com/ontogate/ontogate/internal/prefixes"
)

// TermKind is the syntactic kind of a term taken from a request
type TermKind int

const (
	// KindLiteral is anything that is not recognized as another kind
	KindLiteral TermKind = iota
	// KindVariable is a ?name query variable
	KindVariable
	// KindCURIE is a slug:local name with a registered slug
	KindCURIE
	// KindURI is an absolute IRI
	KindURI
)

// String returns the string representation of TermKind
func (k TermKind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindCURIE:
		return "curie"
	case KindURI:
		return "uri"
	default:
		return "literal"
	}
}

// Classify determines the kind of an untrusted term. Terms that fit no other
// kind, including malformed variables and URIs or curies that do not expand
// to a valid IRI, are literals.
func Classify(term string, reg *prefixes.Registry) TermKind {
	switch {
	case IsVariable(term):
		return KindVariable
	case prefixes.IsIRI(trimAngles(term)):
		return KindURI
	case reg != nil && reg.IsCompressed(term) && prefixes.IsIRI(reg.Expand(term)):
		return KindCURIE
	default:
		return KindLiteral
	}
}

// IsVariable reports whether term is a well-formed ?name variable
func IsVariable(term string) bool {
	if len(term) < 2 || term[0] != '?' {
		return false
	}
	for _, r := range term[1:] {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// Render turns a classified term into query text: variables as is, curies and
// URIs as <iri>, anything else as a quoted literal.
func Render(term string, reg *prefixes.Registry) string {
	switch Classify(term, reg) {
	case KindVariable:
		return term
	case KindURI:
		return IRI(trimAngles(term))
	case KindCURIE:
		return IRI(reg.Expand(term))
	default:
		return Quote(term)
	}
}

// ExpandTerm returns the full URI of a curie or URI term and the term itself
// otherwise.
func ExpandTerm(term string, reg *prefixes.Registry) string {
	switch Classify(term, reg) {
	case KindURI:
		return trimAngles(term)
	case KindCURIE:
		return reg.Expand(term)
	default:
		return term
	}
}

// IRI wraps uri in angle brackets
func IRI(uri string) string {
	return "<" + uri + ">"
}

// Var prefixes name with a question mark
func Var(name string) string {
	return "?" + name
}

// Quote renders s as a double-quoted literal
func Quote(s string) string {
	return `"` + Escape(s) + `"`
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Escape escapes s for use inside a double-quoted literal
func Escape(s string) string {
	return escaper.Replace(s)
}

func trimAngles(term string) string {
	if len(term) > 2 && term[0] == '<' && term[len(term)-1] == '>' {
		return term[1 : len(term)-1]
	}
	return term
}
