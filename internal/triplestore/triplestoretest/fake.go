// Package triplestoretest provides an in-memory triplestore for tests
package triplestoretest

import (
	"context"
	"strings"
	"sync"

	"github.com/ontogate/ontogate/internal/sparql"
)

type rule struct {
	contains []string
	results  *sparql.Results
	err      error
}

// Fake answers queries from scripted rules. The first rule whose substrings
// all appear in a query answers it; unmatched queries get an empty result.
type Fake struct {
	mu      sync.Mutex
	rules   []rule
	queries []string
}

// New creates an empty fake
func New() *Fake {
	return &Fake{}
}

// On answers queries containing every substring with results
func (f *Fake) On(results *sparql.Results, contains ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{contains: contains, results: results})
	return f
}

// OnError fails queries containing every substring with err
func (f *Fake) OnError(err error, contains ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{contains: contains, err: err})
	return f
}

// Query implements triplestore.Querier
func (f *Fake) Query(ctx context.Context, query string) (*sparql.Results, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)

	for _, r := range f.rules {
		if matches(query, r.contains) {
			if r.err != nil {
				return nil, r.err
			}
			return r.results, nil
		}
	}
	return sparql.NewResults(), nil
}

// Queries returns the queries received so far, in order
func (f *Fake) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func matches(query string, contains []string) bool {
	for _, c := range contains {
		if !strings.Contains(query, c) {
			return false
		}
	}
	return true
}
