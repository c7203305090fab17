// Package storedquery persists named SPARQL templates in a SQL database and
// renders them with request parameters.
package storedquery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
)

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Query is a stored SPARQL template
type Query struct {
	ID             string    `json:"id"`
	SPARQLTemplate string    `json:"sparql_template"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is a stored-query repository over database/sql
type Store struct {
	db     *sql.DB
	driver string
}

// PoolConfig holds connection pool settings
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig returns pool settings for a small metadata table
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}
}

// Open connects to the database and checks the connection. SQLite is
// limited to one connection so in-memory databases are shared.
func Open(ctx context.Context, driver, dsn string, pool PoolConfig) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported stored query driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		pool.MaxOpenConns = 1
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db, driver), nil
}

// New wraps an open database
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const createTable = `CREATE TABLE IF NOT EXISTS stored_queries (
	id VARCHAR(36) PRIMARY KEY,
	sparql_template TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
)`

// Migrate creates the stored_queries table when it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create stored_queries table: %w", err)
	}
	return nil
}

// Create inserts q with a new id and creation time and returns it
func (s *Store) Create(ctx context.Context, q Query) (*Query, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	q.ID = uuid.New().String()
	q.CreatedAt = time.Now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx,
		s.rebind("INSERT INTO stored_queries (id, sparql_template, description, created_at) VALUES (?, ?, ?, ?)"),
		q.ID, q.SPARQLTemplate, q.Description, q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert stored query: %w", err)
	}
	return &q, nil
}

// Get returns the query with id or a not-found error
func (s *Store) Get(ctx context.Context, id string) (*Query, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id, sparql_template, description, created_at FROM stored_queries WHERE id = ?"), id)

	var q Query
	if err := row.Scan(&q.ID, &q.SPARQLTemplate, &q.Description, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gwerrors.NotFound("stored query %s does not exist", id)
		}
		return nil, fmt.Errorf("failed to load stored query %s: %w", id, err)
	}
	return &q, nil
}

// List returns every stored query, oldest first
func (s *Store) List(ctx context.Context) ([]Query, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, sparql_template, description, created_at FROM stored_queries ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list stored queries: %w", err)
	}
	defer rows.Close()

	queries := []Query{}
	for rows.Next() {
		var q Query
		if err := rows.Scan(&q.ID, &q.SPARQLTemplate, &q.Description, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stored query: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// Update replaces the template and description of id
func (s *Store) Update(ctx context.Context, id string, q Query) (*Query, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE stored_queries SET sparql_template = ?, description = ? WHERE id = ?"),
		q.SPARQLTemplate, q.Description, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update stored query %s: %w", id, err)
	}
	if err := expectOne(res, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes id
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM stored_queries WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete stored query %s: %w", id, err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return gwerrors.NotFound("stored query %s does not exist", id)
	}
	return nil
}

func validate(q Query) error {
	if strings.TrimSpace(q.SPARQLTemplate) == "" {
		return gwerrors.InvalidParam("sparql_template", "must not be empty")
	}
	return nil
}

// rebind rewrites ? placeholders as $N for postgres
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
