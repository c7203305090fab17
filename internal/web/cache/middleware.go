package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Cache result labels reported to an Observer
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultPurge = "purge"
)

// Observer receives one call per cacheable request
type Observer interface {
	ObserveCache(result string)
}

// MiddlewareConfig holds configuration for the cache middleware
type MiddlewareConfig struct {
	// Cache is the cache backend to use
	Cache Cache
	// TTL is the time-to-live for cached responses
	TTL time.Duration
	// SkipPaths are never cached, together with every path below them
	SkipPaths []string
	// CacheControl is the Cache-Control header to set on cached responses
	CacheControl string
	// Logger receives backend failures; a failing cache never fails a request
	Logger *zap.Logger
	// Observer is notified of hits, misses and purges when set
	Observer Observer
}

// DefaultMiddlewareConfig returns a default cache middleware configuration
func DefaultMiddlewareConfig(cache Cache) MiddlewareConfig {
	return MiddlewareConfig{
		Cache:        cache,
		TTL:          5 * time.Minute,
		SkipPaths:    []string{"/healthcheck", "/_status", "/_metrics", "/_version", "/_query"},
		CacheControl: "public, max-age=300",
	}
}

// Middleware serves GET responses from the cache. A request carrying
// purge=1 skips the lookup and replaces the stored entry with a fresh one.
func Middleware(config MiddlewareConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observe := func(result string) {
		if config.Observer != nil {
			config.Observer.ObserveCache(result)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || skipped(config.SkipPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := Key(r)
			ctx := r.Context()
			purge := IsPurge(r)

			if !purge {
				if cached, ok := lookup(ctx, config.Cache, key, logger); ok {
					observe(ResultHit)
					if CheckConditionalRequest(w, r, cached.ETag) {
						return
					}
					for name, values := range cached.Headers {
						for _, v := range values {
							w.Header().Add(name, v)
						}
					}
					setCacheHeaders(w, cached.ETag, config.CacheControl)
					w.Header().Set("X-Cache", "HIT")
					w.WriteHeader(cached.StatusCode)
					w.Write(cached.Body)
					return
				}
				observe(ResultMiss)
			} else {
				observe(ResultPurge)
			}

			recorder := newResponseRecorder(w)
			if purge {
				recorder.Header().Set("X-Cache", "PURGE")
			} else {
				recorder.Header().Set("X-Cache", "MISS")
			}
			next.ServeHTTP(recorder, r)

			if recorder.statusCode < 200 || recorder.statusCode >= 300 {
				return
			}
			headers := recorder.Header().Clone()
			headers.Del("X-Cache")
			headers.Del("X-Request-ID")
			entry := cachedResponse{
				StatusCode: recorder.statusCode,
				Headers:    headers,
				Body:       recorder.body.Bytes(),
				ETag:       GenerateETag(recorder.body.Bytes()),
			}
			data, err := json.Marshal(entry)
			if err != nil {
				logger.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
				return
			}
			if err := config.Cache.Set(ctx, key, data, config.TTL); err != nil {
				logger.Warn("failed to store cache entry", zap.String("key", key), zap.Error(err))
			}
		})
	}
}

func lookup(ctx context.Context, c Cache, key string, logger *zap.Logger) (*cachedResponse, bool) {
	data, err := c.Get(ctx, key)
	if err != nil {
		if !IsCacheMiss(err) {
			logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		logger.Warn("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &cached, true
}

func setCacheHeaders(w http.ResponseWriter, etag, cacheControl string) {
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
}

type cachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	ETag       string
}

// responseRecorder tees the response body into a buffer. Headers are sent
// with the first write, so cache headers set afterwards are not visible to
// the client of a miss.
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	body        *bytes.Buffer
	wroteHeader bool
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           new(bytes.Buffer),
	}
}

// WriteHeader records the status code and forwards it
func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.statusCode = statusCode
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(statusCode)
}

// Write records the response body and writes to the underlying writer
func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Flush implements http.Flusher interface
func (r *responseRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func skipped(paths []string, path string) bool {
	for _, p := range paths {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
