// Package app assembles the gateway from its configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ontogate/ontogate/internal/cli/config"
	"github.com/ontogate/ontogate/internal/engine"
	"github.com/ontogate/ontogate/internal/events"
	"github.com/ontogate/ontogate/internal/metrics"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/storedquery"
	"github.com/ontogate/ontogate/internal/triplestore"
	"github.com/ontogate/ontogate/internal/web/cache"
	"github.com/ontogate/ontogate/internal/web/handlers"
	"github.com/ontogate/ontogate/internal/web/middleware"
	"github.com/ontogate/ontogate/internal/web/router"
	"github.com/ontogate/ontogate/internal/web/server"
)

// BuildInfo is reported by /_version
type BuildInfo struct {
	Version string
	Commit  string
}

// App is a fully wired gateway
type App struct {
	Config  *config.Config
	Engine  *engine.Engine
	Metrics *metrics.Metrics
	Router  *router.Router

	logger  *zap.Logger
	cache   cache.Cache
	bus     *events.Bus
	queries *storedquery.Store
}

// Registry builds the prefix registry, merging the optional prefixes file
func Registry(cfg config.APIConfig) (*prefixes.Registry, error) {
	if cfg.PrefixesFile == "" {
		return prefixes.Default(), nil
	}
	extra, err := prefixes.LoadFile(cfg.PrefixesFile)
	if err != nil {
		return nil, err
	}
	return prefixes.NewRegistry(extra)
}

// NewEngine creates the engine over the configured triplestore
func NewEngine(cfg *config.Config, logger *zap.Logger, opts ...triplestore.Option) (*engine.Engine, error) {
	registry, err := Registry(cfg.API)
	if err != nil {
		return nil, err
	}
	client := triplestore.NewClient(triplestore.Config{
		URL:      cfg.Triplestore.URL,
		Username: cfg.Triplestore.Username,
		Password: cfg.Triplestore.Password,
		Timeout:  cfg.Triplestore.Timeout,
	}, logger.Named("triplestore"), opts...)
	return engine.New(client, registry, engine.Config{
		RulesetURI: cfg.Triplestore.RulesetURI,
		URIPrefix:  cfg.API.URIPrefix,
	}, logger.Named("engine")), nil
}

// Build connects every configured backend and mounts the routes. On error
// the backends opened so far are closed.
func Build(ctx context.Context, cfg *config.Config, info BuildInfo, logger *zap.Logger) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Metrics: metrics.New(), logger: logger}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if a.Engine, err = NewEngine(cfg, logger, triplestore.WithObserver(a.Metrics)); err != nil {
		return nil, err
	}

	opts := []handlers.Option{handlers.WithMetrics(a.Metrics.Handler())}

	if cfg.StoredQuery.Driver != "" {
		if a.queries, err = storedquery.Open(ctx, cfg.StoredQuery.Driver, cfg.StoredQuery.DSN, storedquery.DefaultPoolConfig()); err != nil {
			return nil, err
		}
		if err = a.queries.Migrate(ctx); err != nil {
			return nil, err
		}
		opts = append(opts, handlers.WithQueryStore(a.queries), handlers.WithCheck("storedquery", a.queries))
	}

	if cfg.Events.Enabled {
		busCfg := events.DefaultConfig()
		busCfg.URL = cfg.Events.NatsURL
		busCfg.Subject = cfg.Events.Subject
		if a.bus, err = events.Connect(busCfg, logger.Named("events")); err != nil {
			return nil, err
		}
		a.bus.SetObserver(a.Metrics)
		opts = append(opts, handlers.WithCheck("events", a.bus))
	}

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(middleware.LoggingConfig{
			Logger:    logger.Named("http"),
			SkipPaths: []string{"/healthcheck", "/_metrics"},
			Observer:  a.Metrics,
		}),
		middleware.Recovery(logger.Named("http")),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	if cfg.Cache.Enabled {
		if a.cache, err = newCache(cfg.Cache); err != nil {
			return nil, err
		}
		var notifier cache.Notifier
		if a.bus != nil {
			notifier = a.bus
		}
		invalidator := cache.NewInvalidator(a.cache, notifier, logger.Named("cache"))
		invalidator.SetObserver(a.Metrics)
		if a.bus != nil {
			if err = a.bus.SubscribePurges(func(ctx context.Context, path string) error {
				_, err := invalidator.PurgeLocal(ctx, path)
				return err
			}); err != nil {
				return nil, err
			}
		}

		mwConfig := cache.DefaultMiddlewareConfig(a.cache)
		mwConfig.TTL = cfg.Cache.TTL
		mwConfig.Logger = logger.Named("cache")
		mwConfig.Observer = a.Metrics
		chain.Use(cache.Middleware(mwConfig))
		opts = append(opts, handlers.WithInvalidator(invalidator), handlers.WithCheck("cache", a.cache))
	}

	h := handlers.New(a.Engine, handlers.Config{
		URIPrefix:      cfg.API.URIPrefix,
		DefaultLang:    cfg.API.DefaultLang,
		DefaultPerPage: cfg.API.DefaultPerPage,
		MaxPerPage:     cfg.API.MaxPerPage,
		Version:        info.Version,
		Commit:         info.Commit,
	}, logger.Named("handlers"), opts...)

	a.Router = router.NewRouter()
	a.Router.Use(chain.Then)
	h.Register(a.Router)
	return a, nil
}

func newCache(cfg config.CacheConfig) (cache.Cache, error) {
	base := cache.CacheConfig{DefaultTTL: cfg.TTL, Prefix: cfg.KeyPrefix}
	switch cfg.Backend {
	case config.BackendRedis:
		c, err := cache.NewRedisCacheWithConfig(cache.RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			CacheConfig: base,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return c, nil
	default:
		return cache.NewMemoryCacheWithConfig(base), nil
	}
}

// Handler returns the root HTTP handler
func (a *App) Handler() http.Handler {
	return a.Router
}

// Run serves on the configured address until ctx is done, then drains
// in-flight requests and closes the backends.
func (a *App) Run(ctx context.Context) error {
	srvConfig := server.DefaultConfig(a.Handler())
	srvConfig.Address = a.Config.Server.Address()
	srvConfig.ReadTimeout = a.Config.Server.ReadTimeout
	srvConfig.WriteTimeout = a.Config.Server.WriteTimeout
	srvConfig.IdleTimeout = a.Config.Server.IdleTimeout

	srv, err := server.New(srvConfig)
	if err != nil {
		return err
	}
	gs := server.NewGracefulShutdown(srv, a.Config.Server.ShutdownTimeout, a.logger)
	gs.RegisterHook(a.Close)
	return gs.Run(ctx)
}

// Close releases the backends in reverse order of creation
func (a *App) Close(ctx context.Context) error {
	var first error
	record := func(name string, err error) {
		if err == nil {
			return
		}
		a.logger.Warn("failed to close backend", zap.String("backend", name), zap.Error(err))
		if first == nil {
			first = err
		}
	}

	if closer, ok := a.cache.(io.Closer); ok {
		record("cache", closer.Close())
	}
	if a.bus != nil {
		record("events", a.bus.Close(ctx))
	}
	if a.queries != nil {
		record("storedquery", a.queries.Close())
	}
	return first
}
