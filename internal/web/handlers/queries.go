package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/ontogate/ontogate/internal/collection"
	"github.com/ontogate/ontogate/internal/datatype"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
	"github.com/ontogate/ontogate/internal/storedquery"
	"github.com/ontogate/ontogate/internal/web/cache"
	"github.com/ontogate/ontogate/internal/web/response"
	"github.com/ontogate/ontogate/internal/web/router"
)

// maxQueryBody caps stored query request bodies
const maxQueryBody = 1 << 20

// QueryResult is the body of a stored query execution
type QueryResult struct {
	ID      string                 `json:"@id"`
	Context map[string]interface{} `json:"@context"`
	Items   []collection.Item      `json:"items"`
}

type queryRequest struct {
	SPARQLTemplate string `json:"sparql_template"`
	Description    string `json:"description"`
}

// ListQueries handles GET /_query
func (h *Handlers) ListQueries(w http.ResponseWriter, r *http.Request) {
	qs, err := h.queries.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, map[string]interface{}{"items": qs})
}

// CreateQuery handles POST /_query
func (h *Handlers) CreateQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	q, err := h.queries.Create(r.Context(), storedquery.Query{
		SPARQLTemplate: req.SPARQLTemplate,
		Description:    req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/_query/"+q.ID)
	if err := response.RenderJSON(w, http.StatusCreated, q); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

// GetQuery handles GET /_query/{id}
func (h *Handlers) GetQuery(w http.ResponseWriter, r *http.Request) {
	q, err := h.queries.Get(r.Context(), router.PathParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, q)
}

// UpdateQuery handles PUT /_query/{id}
func (h *Handlers) UpdateQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	q, err := h.queries.Update(r.Context(), router.PathParam(r, "id"), storedquery.Query{
		SPARQLTemplate: req.SPARQLTemplate,
		Description:    req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, q)
}

// DeleteQuery handles DELETE /_query/{id}
func (h *Handlers) DeleteQuery(w http.ResponseWriter, r *http.Request) {
	if err := h.queries.Delete(r.Context(), router.PathParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	response.RenderNoContent(w)
}

// RunQuery handles GET /_query/{id}/_result. Placeholders are filled from
// the query string; URIs in the rows are compressed unless expand_uri=1.
func (h *Handlers) RunQuery(w http.ResponseWriter, r *http.Request) {
	q, err := h.queries.Get(r.Context(), router.PathParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	values := r.URL.Query()
	expand := values.Get("expand_uri") == "1"
	args := url.Values{}
	for key, vals := range values {
		if key == cache.PurgeParam || key == "expand_uri" {
			continue
		}
		args[key] = vals
	}

	text, err := storedquery.Render(q.SPARQLTemplate, args)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.engine.RunRaw(r.Context(), text)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	uctx := h.engine.NewContext(expand)
	h.render(w, QueryResult{
		ID:      baseURL(r),
		Context: uctx.JSONLD(""),
		Items:   resultItems(res.Rows(), uctx),
	})
}

// resultItems keys each row by its variable names
func resultItems(rows []sparql.Binding, uctx *prefixes.Context) []collection.Item {
	items := make([]collection.Item, 0, len(rows))
	for _, row := range rows {
		item := make(collection.Item, len(row))
		for name, term := range row {
			switch {
			case term.IsURI():
				item[name] = uctx.NormalizeValue(term.Value)
			case term.Datatype != "":
				item[name] = datatype.Cast(term.Value, term.Datatype)
			default:
				item[name] = term.Value
			}
		}
		items = append(items, item)
	}
	return items
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (queryRequest, bool) {
	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		response.RenderBadRequest(w, fmt.Sprintf("invalid stored query body: %v", err))
		return req, false
	}
	return req, true
}
