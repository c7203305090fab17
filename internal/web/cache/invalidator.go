package cache

import (
	"context"

	"go.uber.org/zap"
)

// Notifier broadcasts purges to other replicas
type Notifier interface {
	NotifyPurge(ctx context.Context, path string) error
}

// PurgeObserver counts purges requested on this replica
type PurgeObserver interface {
	ObservePurge(origin string)
}

// Invalidator purges cached responses by path, locally and on every
// replica reachable through its Notifier.
type Invalidator struct {
	cache    Cache
	notifier Notifier
	observer PurgeObserver
	logger   *zap.Logger
}

// NewInvalidator creates an invalidator. notifier may be nil.
func NewInvalidator(cache Cache, notifier Notifier, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{cache: cache, notifier: notifier, logger: logger}
}

// SetObserver registers o for purges made through Purge
func (i *Invalidator) SetObserver(o PurgeObserver) {
	i.observer = o
}

// Purge drops every entry under path and broadcasts the purge. A failed
// broadcast is logged; the local purge still counts.
func (i *Invalidator) Purge(ctx context.Context, path string) (int, error) {
	removed, err := i.PurgeLocal(ctx, path)
	if err != nil {
		return removed, err
	}
	if i.observer != nil {
		i.observer.ObservePurge("local")
	}
	if i.notifier != nil {
		if err := i.notifier.NotifyPurge(ctx, path); err != nil {
			i.logger.Warn("failed to broadcast cache purge", zap.String("path", path), zap.Error(err))
		}
	}
	return removed, nil
}

// PurgeLocal drops every entry under path without broadcasting. An empty
// path clears the whole cache.
func (i *Invalidator) PurgeLocal(ctx context.Context, path string) (int, error) {
	removed, err := i.cache.DeletePrefix(ctx, PathKey(path))
	if err != nil {
		return removed, err
	}
	i.logger.Info("cache purged", zap.String("path", path), zap.Int("removed", removed))
	return removed, nil
}
