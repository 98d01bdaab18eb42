package dataprocessing

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"pricecharts/pkg/contracts/domain"
)

// Predicates maps a column name to the exact value its cells must hold
type Predicates map[string]string

// Key returns the canonical form of the predicate set
func (p Predicates) Key() string {
	return domain.PredicateKey(p)
}

// Select returns the rows of t where every predicate holds, in their original
// order. A cell matches when it is present and its canonical text equals the
// required value. An empty result is a valid zero-row table.
func Select(t *Table, p Predicates) (*Table, error) {
	type match struct {
		idx  int
		want string
	}

	cols := make([]string, 0, len(p))
	for col := range p {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	matches := make([]match, 0, len(cols))
	for _, col := range cols {
		idx, err := t.ColumnIndex(col)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match{idx: idx, want: p[col]})
	}

	out := NewTable(t.Columns)
	for _, row := range t.Rows {
		keep := true
		for _, m := range matches {
			v := row[m.idx]
			if !v.Valid || v.String() != m.want {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, append([]Value(nil), row...))
		}
	}

	return out, nil
}

// CacheStats counts selector lookups
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// SelectorOption configures a Selector
type SelectorOption func(*Selector)

// WithLookupHook registers fn to be called after every lookup with whether it was a hit
func WithLookupHook(fn func(ctx context.Context, hit bool)) SelectorOption {
	return func(s *Selector) {
		s.onLookup = fn
	}
}

// Selector is a read-through cache of Select over one immutable base table.
// Identical predicate sets share one sub-table; concurrent misses on the same
// key compute it once. Returned tables must not be modified.
type Selector struct {
	base     *Table
	group    singleflight.Group
	onLookup func(ctx context.Context, hit bool)

	mu     sync.RWMutex
	cache  map[string]*Table
	hits   int64
	misses int64
}

// NewSelector creates a selector over base
func NewSelector(base *Table, opts ...SelectorOption) *Selector {
	s := &Selector{
		base:  base,
		cache: make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Base returns the table the selector filters
func (s *Selector) Base() *Table {
	return s.base
}

// Select returns the cached sub-table for p, computing it on first use.
// An empty predicate set selects the whole base table.
func (s *Selector) Select(ctx context.Context, p Predicates) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := p.Key()

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		s.record(ctx, true)
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		s.mu.RLock()
		cached, ok := s.cache[key]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}

		var (
			sub *Table
			err error
		)
		if len(p) == 0 {
			sub = s.base
		} else if sub, err = Select(s.base, p); err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.cache[key] = sub
		s.mu.Unlock()
		return sub, nil
	})
	s.record(ctx, false)
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

func (s *Selector) record(ctx context.Context, hit bool) {
	s.mu.Lock()
	if hit {
		s.hits++
	} else {
		s.misses++
	}
	s.mu.Unlock()

	if s.onLookup != nil {
		s.onLookup(ctx, hit)
	}
}

// Stats returns the lookup counters
func (s *Selector) Stats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CacheStats{Hits: s.hits, Misses: s.misses, Entries: len(s.cache)}
}
