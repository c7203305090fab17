// Package prefixes maps namespace slugs to namespace URIs and compresses
// URIs into curies (slug:localName) and back.
//
// Nomenclature:
//
//	uri       = http://a/b/cD
//	namespace = http://a/b/c/ or http://a/b/c#
//	local     = D
//	slug      = x
//	curie     = x:D
package prefixes

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/geoknoesis/rdf-go/rdf"
)

// Well-known namespaces used across the gateway
const (
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	OWL  = "http://www.w3.org/2002/07/owl#"
	XSD  = "http://www.w3.org/2001/XMLSchema#"

	RDFSLabel   = RDFS + "label"
	RDFSComment = RDFS + "comment"
)

var builtin = map[string]string{
	"rdf":          RDF,
	"rdfs":         RDFS,
	"owl":          OWL,
	"dc":           "http://purl.org/dc/elements/1.1/",
	"dct":          "http://purl.org/dc/terms/",
	"foaf":         "http://xmlns.com/foaf/0.1/",
	"xsd":          XSD,
	"geo":          "http://www.w3.org/2003/01/geo/wgs84_pos#",
	"upper":        "http://semantica.globo.com/upper/",
	"schema":       "http://schema.org/",
	"dbpedia":      "http://dbpedia.org/ontology/",
	"time":         "http://www.w3.org/2006/time#",
	"event":        "http://purl.org/NET/c4dm/event.owl#",
	"place":        "http://semantica.globo.com/place/",
	"person":       "http://semantica.globo.com/person/",
	"organization": "http://semantica.globo.com/organization/",
	"glb":          "http://semantica.globo.com/",
	"base":         "http://semantica.globo.com/base/",
	"ego":          "http://semantica.globo.com/ego/",
	"esportes":     "http://semantica.globo.com/esportes/",
	"g1":           "http://semantica.globo.com/G1/",
	"tvg":          "http://semantica.globo.com/tvg/",
	"eureka":       "http://semantica.globo.com/eureka/",
}

// Registry is an immutable slug<->namespace map. It is safe for concurrent
// use because nothing mutates it after NewRegistry returns.
type Registry struct {
	slugToNamespace map[string]string
	namespaceToSlug map[string]string
	// namespaces sorted longest first so the most specific namespace wins
	namespaces []string
}

// NewRegistry builds a registry from the built-in table merged with extra.
// Entries in extra override built-in slugs.
func NewRegistry(extra map[string]string) (*Registry, error) {
	merged := make(map[string]string, len(builtin)+len(extra))
	for slug, ns := range builtin {
		merged[slug] = ns
	}
	for slug, ns := range extra {
		if slug == "" || strings.ContainsAny(slug, ":/ ") {
			return nil, fmt.Errorf("invalid prefix slug %q", slug)
		}
		if !IsIRI(ns) {
			return nil, fmt.Errorf("prefix %s: namespace %q is not an absolute URI", slug, ns)
		}
		merged[slug] = ns
	}

	r := &Registry{
		slugToNamespace: merged,
		namespaceToSlug: make(map[string]string, len(merged)),
		namespaces:      make([]string, 0, len(merged)),
	}
	for slug, ns := range merged {
		if other, ok := r.namespaceToSlug[ns]; ok {
			// keep the lexically smaller slug so the reverse map is deterministic
			if other < slug {
				continue
			}
		} else {
			r.namespaces = append(r.namespaces, ns)
		}
		r.namespaceToSlug[ns] = slug
	}
	sort.Slice(r.namespaces, func(i, j int) bool {
		if len(r.namespaces[i]) != len(r.namespaces[j]) {
			return len(r.namespaces[i]) > len(r.namespaces[j])
		}
		return r.namespaces[i] < r.namespaces[j]
	})
	return r, nil
}

// Default returns a registry holding only the built-in prefixes
func Default() *Registry {
	r, err := NewRegistry(nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Namespace returns the namespace registered for slug
func (r *Registry) Namespace(slug string) (string, bool) {
	ns, ok := r.slugToNamespace[slug]
	return ns, ok
}

// Slug returns the slug registered for namespace
func (r *Registry) Slug(namespace string) (string, bool) {
	slug, ok := r.namespaceToSlug[namespace]
	return slug, ok
}

// Map returns a copy of the slug -> namespace table
func (r *Registry) Map() map[string]string {
	out := make(map[string]string, len(r.slugToNamespace))
	for k, v := range r.slugToNamespace {
		out[k] = v
	}
	return out
}

// ExtractNamespace returns the longest registered namespace uri starts with,
// or "" when none matches.
func (r *Registry) ExtractNamespace(uri string) string {
	for _, ns := range r.namespaces {
		if strings.HasPrefix(uri, ns) {
			return ns
		}
	}
	return ""
}

// Shorten compresses uri into a curie. The uri is returned unchanged when its
// namespace is not registered or when the local part still contains a slash
// or a colon, since such a curie could not be expanded back.
func (r *Registry) Shorten(uri string) string {
	ns := r.ExtractNamespace(uri)
	if ns == "" {
		return uri
	}
	local := uri[len(ns):]
	if strings.ContainsAny(local, "/:") {
		return uri
	}
	return r.namespaceToSlug[ns] + ":" + local
}

// Expand turns a curie into a full URI. Full URIs, variables and curies with
// an unknown slug are returned unchanged.
func (r *Registry) Expand(curie string) string {
	slug, local, ok := r.splitCurie(curie)
	if !ok {
		return curie
	}
	return r.slugToNamespace[slug] + local
}

// IsCompressed reports whether candidate is a curie with a registered slug
func (r *Registry) IsCompressed(candidate string) bool {
	_, _, ok := r.splitCurie(candidate)
	return ok
}

func (r *Registry) splitCurie(candidate string) (slug, local string, ok bool) {
	if IsURI(candidate) {
		return "", "", false
	}
	slug, local, found := strings.Cut(candidate, ":")
	if !found || strings.Contains(local, ":") {
		return "", "", false
	}
	if _, registered := r.slugToNamespace[slug]; !registered {
		return "", "", false
	}
	return slug, local, true
}

// IsURI reports whether s is an absolute http(s) URI
func IsURI(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// iriForbidden lists the characters an IRIREF cannot hold between its angle
// brackets.
const iriForbidden = "<>\"{}|^`\\"

// IsIRI reports whether s is an absolute http(s) IRI that can be written as
// <s> in a query without escaping.
func IsIRI(s string) bool {
	if !IsURI(s) || strings.ContainsAny(s, iriForbidden) {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return rdf.ValidateIRI(s) == nil
}

// NamespaceOf returns uri with its last path segment stripped, keeping the
// trailing slash.
func NamespaceOf(uri string) string {
	i := strings.LastIndex(uri, "/")
	if i < 0 {
		return uri
	}
	return uri[:i+1]
}

// LocalName returns the last path segment of uri
func LocalName(uri string) string {
	i := strings.LastIndex(uri, "/")
	if i < 0 {
		return uri
	}
	return uri[i+1:]
}
