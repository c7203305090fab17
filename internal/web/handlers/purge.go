package handlers

import (
	"net/http"
)

// PurgeCache handles DELETE /_cache?path=/place/City. Every cached response
// whose path starts with path is dropped here and on the other replicas.
// Without path the whole cache is cleared.
func (h *Handlers) PurgeCache(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	removed, err := h.invalidator.Purge(r.Context(), path)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, map[string]interface{}{
		"path":    path,
		"removed": removed,
	})
}
