// Package links builds the hypermedia links attached to schema, collection
// and instance documents.
package links

import (
	"net/url"
	"sort"
	"strings"
)

// Link is a JSON hyper-schema link
type Link struct {
	Rel    string                 `json:"rel"`
	Href   string                 `json:"href"`
	Method string                 `json:"method"`
	Schema map[string]interface{} `json:"schema,omitempty"`
}

// Page describes the position of a collection page. Total is only
// meaningful when Counted is set.
type Page struct {
	Page    int // 1-based
	PerPage int
	Items   int
	Total   int
	Counted bool
}

// RemoveLastSlash strips one trailing slash
func RemoveLastSlash(u string) string {
	return strings.TrimSuffix(u, "/")
}

// WithQuery appends an encoded query string to base when it is not empty
func WithQuery(base, query string) string {
	if query == "" {
		return base
	}
	return base + "?" + query
}

// LastPage returns the number of the last page holding total items
func LastPage(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// CRUD returns the self/delete/replace links of a resource
func CRUD(selfURL, resourceURL string) []Link {
	resourceURL = RemoveLastSlash(resourceURL)
	return []Link{
		{Rel: "self", Href: selfURL, Method: "GET"},
		{Rel: "delete", Href: resourceURL, Method: "DELETE"},
		{Rel: "replace", Href: resourceURL, Method: "PUT"},
	}
}

// Schema returns the links of a class schema document served at schemaURL
// for the collection at collectionURL.
func Schema(schemaURL, collectionURL, classPrefix string) []Link {
	collection := collectionURL
	if classPrefix != "" {
		collection = WithQuery(collectionURL, url.Values{"class_prefix": {classPrefix}}.Encode())
	}
	out := []Link{
		{Rel: "self", Href: "{+_base_url}", Method: "GET"},
		{Rel: "class", Href: schemaURL, Method: "GET"},
		{Rel: "create", Href: collection, Method: "POST", Schema: map[string]interface{}{"$ref": "{+_base_url}"}},
		{Rel: "collection", Href: collection, Method: "GET"},
	}
	// self is already the first link
	return append(out, CRUD(schemaURL, schemaURL)[1:]...)
}

// Collection returns the links of a collection page. args renders the
// request's query string for a given 1-based page (0 keeps the current one).
func Collection(baseURL string, page Page, args func(page int) string) []Link {
	base := RemoveLastSlash(baseURL)
	current := args(0)

	out := []Link{
		{Rel: "self", Href: WithQuery(base, current), Method: "GET"},
		{Rel: "create", Href: WithQuery(base, current), Method: "POST"},
		{Rel: "item", Href: WithQuery(base+"/{resource_id}", current), Method: "GET"},
		{Rel: "first", Href: WithQuery(base, args(1)), Method: "GET"},
	}

	hasNext := page.Items >= page.PerPage
	if page.Counted {
		last := LastPage(page.Total, page.PerPage)
		out = append(out, Link{Rel: "last", Href: WithQuery(base, args(last)), Method: "GET"})
		hasNext = page.Page < last
	}
	if page.Page > 1 {
		out = append(out, Link{Rel: "previous", Href: WithQuery(base, args(page.Page-1)), Method: "GET"})
	}
	if hasNext {
		out = append(out, Link{Rel: "next", Href: WithQuery(base, args(page.Page+1)), Method: "GET"})
	}
	return out
}

// Root returns the scheme and host of an absolute URL, or "" for anything
// else.
func Root(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// ObjectProperties returns one GET link per object property, with the
// property as rel, pointing at the collection of its range class. ranges maps
// property keys to range curies; a range that is not a slug:Local curie gets
// no link because it has no collection route.
func ObjectProperties(root string, ranges map[string]string) []Link {
	keys := make([]string, 0, len(ranges))
	for key := range ranges {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Link, 0, len(keys))
	for _, key := range keys {
		r := ranges[key]
		slug, local, ok := strings.Cut(r, ":")
		if !ok || slug == "" || local == "" || strings.ContainsAny(local, ":/") {
			continue
		}
		out = append(out, Link{Rel: key, Href: root + "/" + slug + "/" + local, Method: "GET"})
	}
	return out
}

// ResourcePath returns the route path of a resource URI minted under
// uriPrefix: /context/class or /context/class/instance.
func ResourcePath(uriPrefix, uri string) (string, bool) {
	if uriPrefix == "" || !strings.HasPrefix(uri, uriPrefix) {
		return "", false
	}
	rest := uri[len(uriPrefix):]
	segments := strings.Split(rest, "/")
	if len(segments) < 2 || len(segments) > 3 {
		return "", false
	}
	for _, s := range segments {
		if s == "" || strings.ContainsAny(s, "?#") {
			return "", false
		}
	}
	return "/" + rest, true
}

// Find returns the first link with the given rel
func Find(ls []Link, rel string) (Link, bool) {
	for _, l := range ls {
		if l.Rel == rel {
			return l, true
		}
	}
	return Link{}, false
}
