package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ontogate/ontogate/internal/web/response"
)

// StatusTimeout bounds each dependency check of /_status
const StatusTimeout = 5 * time.Second

// StatusReport is the body of /_status
type StatusReport struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Healthcheck answers liveness checks without touching dependencies
func (h *Handlers) Healthcheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("WORKING"))
}

// Status pings every dependency concurrently. Any failure answers 503.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	report := StatusReport{Status: "ok", Services: make(map[string]string, len(h.checks))}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(r.Context())
	for name, check := range h.checks {
		name, check := name, check
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, StatusTimeout)
			defer cancel()

			state := "ok"
			if err := check.Ping(cctx); err != nil {
				state = err.Error()
				h.logger.Warn("status check failed", zap.String("service", name), zap.Error(err))
			}
			mu.Lock()
			report.Services[name] = state
			if state != "ok" {
				report.Status = "failing"
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	if err := response.RenderJSON(w, status, report); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

// Version reports build information
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	h.render(w, map[string]string{
		"version": h.config.Version,
		"commit":  h.config.Commit,
		"go":      runtime.Version(),
	})
}

// Prefixes lists the slug to namespace registry
func (h *Handlers) Prefixes(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.engine.Registry().Map())
}
