package handlers

import (
	"net/http"
)

// ListContexts handles GET /
func (h *Handlers) ListContexts(w http.ResponseWriter, r *http.Request) {
	p, uctx, err := h.parse(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	listing, err := h.engine.ListContexts(r.Context(), p, uctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, listing)
}

// ListClasses handles GET /{context}
func (h *Handlers) ListClasses(w http.ResponseWriter, r *http.Request) {
	p, uctx, err := h.parse(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	listing, err := h.engine.ListClasses(r.Context(), p, uctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, listing)
}

// ClassSchema handles GET /{context}/{class}/_schema
func (h *Handlers) ClassSchema(w http.ResponseWriter, r *http.Request) {
	p, uctx, err := h.parse(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := h.engine.ResolveSchema(r.Context(), p, uctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, doc)
}

// ListInstances handles GET /{context}/{class}
func (h *Handlers) ListInstances(w http.ResponseWriter, r *http.Request) {
	p, uctx, err := h.parse(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := h.engine.ListInstances(r.Context(), p, uctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, doc)
}

// GetInstance handles GET /{context}/{class}/{instance}
func (h *Handlers) GetInstance(w http.ResponseWriter, r *http.Request) {
	p, uctx, err := h.parse(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.engine.GetInstance(r.Context(), p, uctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, item)
}
