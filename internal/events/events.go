// Package events broadcasts cache purges between gateway replicas over NATS
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubject is the subject purges are published on
const DefaultSubject = "ontogate.cache.purge"

// Config holds NATS connection settings
type Config struct {
	URL           string
	Subject       string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultConfig returns the default NATS settings
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Subject:       DefaultSubject,
		Name:          "ontogate",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// PurgeEvent is the payload of a purge broadcast
type PurgeEvent struct {
	Path   string    `json:"path"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// PurgeHandler applies a purge received from another replica
type PurgeHandler func(ctx context.Context, path string) error

// PurgeObserver is told about every purge applied from the bus
type PurgeObserver interface {
	ObservePurge(origin string)
}

// Bus publishes and receives purge events. Each Bus has a random origin id
// so it ignores its own broadcasts.
type Bus struct {
	conn     *nats.Conn
	subject  string
	origin   string
	logger   *zap.Logger
	observer PurgeObserver
	sub      *nats.Subscription
}

// Connect dials NATS. Disconnects and reconnects are logged.
func Connect(cfg Config, logger *zap.Logger) (*Bus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}

	return newBus(conn, cfg.Subject, logger), nil
}

func newBus(conn *nats.Conn, subject string, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		conn:    conn,
		subject: subject,
		origin:  uuid.New().String(),
		logger:  logger,
	}
}

// SetObserver sets the observer notified of remote purges
func (b *Bus) SetObserver(o PurgeObserver) {
	b.observer = o
}

// NotifyPurge publishes a purge of path
func (b *Bus) NotifyPurge(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := encodePurge(PurgeEvent{Path: path, Origin: b.origin, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return b.conn.Publish(b.subject, data)
}

// SubscribePurges applies purges published by other replicas with handler
func (b *Bus) SubscribePurges(handler PurgeHandler) error {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		b.handle(msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.subject, err)
	}
	b.sub = sub
	return nil
}

func (b *Bus) handle(data []byte, handler PurgeHandler) {
	event, err := decodePurge(data)
	if err != nil {
		b.logger.Warn("dropping malformed purge event", zap.Error(err))
		return
	}
	if event.Origin == b.origin {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := handler(ctx, event.Path); err != nil {
		b.logger.Error("failed to apply remote purge", zap.String("path", event.Path), zap.Error(err))
		return
	}
	if b.observer != nil {
		b.observer.ObservePurge("remote")
	}
	b.logger.Debug("applied remote purge", zap.String("path", event.Path), zap.String("origin", event.Origin))
}

// Ping reports whether the connection is up
func (b *Bus) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.conn.IsConnected() {
		return fmt.Errorf("nats connection is %s", b.conn.Status())
	}
	return nil
}

// Close drains the subscription and closes the connection
func (b *Bus) Close(ctx context.Context) error {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			b.logger.Warn("failed to unsubscribe", zap.Error(err))
		}
	}
	if err := b.conn.FlushWithContext(ctx); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		b.logger.Warn("failed to flush nats connection", zap.Error(err))
	}
	b.conn.Close()
	return nil
}

func encodePurge(e PurgeEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode purge event: %w", err)
	}
	return data, nil
}

func decodePurge(data []byte) (PurgeEvent, error) {
	var e PurgeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("decode purge event: %w", err)
	}
	if e.Origin == "" {
		return e, errors.New("decode purge event: missing origin")
	}
	return e, nil
}

// Nop is the notifier used when the bus is disabled
type Nop struct{}

// NotifyPurge does nothing
func (Nop) NotifyPurge(context.Context, string) error { return nil }
