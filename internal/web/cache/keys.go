package cache

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// PurgeParam forces a cache refresh when set to "1"
const PurgeParam = "purge"

// Key builds the cache key of a request: method, path and the query string
// with its parameters sorted and purge removed. Keys stay readable so an
// entire path can be purged with DeletePrefix(PathKey(path)).
func Key(r *http.Request) string {
	return KeyFor(r.Method, r.URL.Path, r.URL.Query())
}

// KeyFor builds a cache key from its parts
func KeyFor(method, path string, query url.Values) string {
	names := make([]string, 0, len(query))
	for name := range query {
		if name == PurgeParam {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		values := append([]string(nil), query[name]...)
		sort.Strings(values)
		for _, v := range values {
			parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(v))
		}
	}

	key := method + ":" + path
	if len(parts) > 0 {
		key += "?" + strings.Join(parts, "&")
	}
	return key
}

// PathKey is the key prefix shared by every cached GET of path
func PathKey(path string) string {
	return http.MethodGet + ":" + path
}

// IsPurge reports whether the request asks for a cache refresh
func IsPurge(r *http.Request) bool {
	return r.URL.Query().Get(PurgeParam) == "1"
}
