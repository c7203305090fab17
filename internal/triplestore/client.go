// Package triplestore is the HTTP client of the SPARQL endpoint
package triplestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
	"github.com/ontogate/ontogate/internal/sparql"
)

// ResultsFormat is the media type requested from the endpoint
const ResultsFormat = "application/sparql-results+json"

// Querier runs SPARQL queries. Implementations must honor ctx cancellation.
type Querier interface {
	Query(ctx context.Context, query string) (*sparql.Results, error)
}

// Observer is notified once per query with its outcome
type Observer interface {
	ObserveQuery(outcome string, duration time.Duration)
}

// Config holds the endpoint settings
type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// DefaultConfig returns a configuration for a local Virtuoso endpoint
func DefaultConfig() Config {
	return Config{
		URL:     "http://localhost:8890/sparql-auth",
		Timeout: 30 * time.Second,
	}
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithObserver registers an observer for query outcomes
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client posts queries to a SPARQL endpoint
type Client struct {
	config   Config
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

// NewClient creates a client for the endpoint in config
func NewClient(config Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query posts query to the endpoint and decodes the JSON results
func (c *Client) Query(ctx context.Context, query string) (*sparql.Results, error) {
	start := time.Now()
	res, status, err := c.do(ctx, query)
	duration := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = gwerrors.Classify(err).String()
	}
	if c.observer != nil {
		c.observer.ObserveQuery(outcome, duration)
	}

	fields := []zap.Field{
		zap.String("url", c.config.URL),
		zap.Int("status", status),
		zap.Duration("duration", duration),
		zap.String("query", query),
	}
	if err != nil {
		c.logger.Error("sparql query failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Info("sparql query", fields...)
	return res, nil
}

func (c *Client) do(ctx context.Context, query string) (*sparql.Results, int, error) {
	form := url.Values{}
	form.Set("query", query)
	form.Set("format", ResultsFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, &gwerrors.TransportError{Op: "query", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", ResultsFormat)
	if c.config.Username != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, 0, &gwerrors.TransportError{Op: "query", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(body))
		if resp.StatusCode == http.StatusUnauthorized {
			msg = "unauthorized, check the triplestore credentials"
		}
		return nil, resp.StatusCode, &gwerrors.TransportError{Op: "query", StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	res, err := sparql.Decode(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &gwerrors.TransportError{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	return res, resp.StatusCode, nil
}

// Ping checks that the endpoint answers a trivial ASK query
func Ping(ctx context.Context, q Querier) error {
	_, err := q.Query(ctx, "ASK {}")
	return err
}
