// Package router wraps chi with route bookkeeping and JSON 404/405
// handlers.
package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ontogate/ontogate/internal/web/middleware"
	"github.com/ontogate/ontogate/internal/web/response"
)

// Router manages HTTP routing using chi
type Router struct {
	mux    chi.Router
	routes []RouteInfo
}

// RouteInfo describes a registered route
type RouteInfo struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
	Name    string `json:"name,omitempty"`
}

// NewRouter creates a router whose unmatched paths and methods answer with
// the JSON error envelope
func NewRouter() *Router {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, fmt.Sprintf("no route for %s", r.URL.Path))
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RenderMethodNotAllowed(w)
	})
	return &Router{mux: mux}
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use adds middleware to the router. It must be called before any route is
// registered.
func (r *Router) Use(middlewares ...middleware.Middleware) {
	for _, m := range middlewares {
		r.mux.Use(m)
	}
}

// Get registers a GET route
func (r *Router) Get(pattern, name string, handler http.HandlerFunc) {
	r.add(http.MethodGet, pattern, name, handler)
}

// Post registers a POST route
func (r *Router) Post(pattern, name string, handler http.HandlerFunc) {
	r.add(http.MethodPost, pattern, name, handler)
}

// Put registers a PUT route
func (r *Router) Put(pattern, name string, handler http.HandlerFunc) {
	r.add(http.MethodPut, pattern, name, handler)
}

// Delete registers a DELETE route
func (r *Router) Delete(pattern, name string, handler http.HandlerFunc) {
	r.add(http.MethodDelete, pattern, name, handler)
}

// Handle mounts a handler for every method of pattern
func (r *Router) Handle(pattern, name string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
	r.routes = append(r.routes, RouteInfo{Method: "*", Pattern: pattern, Name: name})
}

func (r *Router) add(method, pattern, name string, handler http.HandlerFunc) {
	r.mux.Method(method, pattern, handler)
	r.routes = append(r.routes, RouteInfo{Method: method, Pattern: pattern, Name: name})
}

// Routes returns the registered routes sorted by pattern then method
func (r *Router) Routes() []RouteInfo {
	out := append([]RouteInfo(nil), r.routes...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// RouteList renders the routes as an aligned table
func (r *Router) RouteList() string {
	var b strings.Builder
	for _, route := range r.Routes() {
		fmt.Fprintf(&b, "%-7s %-40s %s\n", route.Method, route.Pattern, route.Name)
	}
	return b.String()
}

// PathParam returns a chi URL parameter of the request
func PathParam(req *http.Request, name string) string {
	return chi.URLParam(req, name)
}
