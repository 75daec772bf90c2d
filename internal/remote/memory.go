package remote

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
)

// MemoryClient is an in-process Client. It applies batches with the same
// fail-fast, no-rollback semantics as the platform and can be told to fail
// chosen requests.
type MemoryClient struct {
	mu       sync.Mutex
	tables   map[string]map[string]map[string]any
	failures []failure
	executed []Request
}

type failure struct {
	match func(Request) bool
	err   error
}

// NewMemoryClient returns an empty in-memory platform.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{tables: make(map[string]map[string]map[string]any)}
}

var _ Client = (*MemoryClient)(nil)

// FailOn makes every request matching match fail with err until
// ClearFailures is called.
func (c *MemoryClient) FailOn(match func(Request) bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, failure{match: match, err: err})
}

// ClearFailures removes all injected failures.
func (c *MemoryClient) ClearFailures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = nil
}

// Executed returns every request applied so far, in order.
func (c *MemoryClient) Executed() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Request(nil), c.executed...)
}

// Put stores a record directly, bypassing batches and failure injection.
func (c *MemoryClient) Put(table, key string, attrs map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := maps.Clone(attrs)
	if stored == nil {
		stored = make(map[string]any)
	}
	c.table(table)[key] = stored
}

// Count returns the number of records in table.
func (c *MemoryClient) Count(table string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tables[table])
}

func (c *MemoryClient) table(name string) map[string]map[string]any {
	t, ok := c.tables[name]
	if !ok {
		t = make(map[string]map[string]any)
		c.tables[name] = t
	}
	return t
}

func (c *MemoryClient) RetrieveMultiple(ctx context.Context, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recs, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := applyLinks(ctx, c.fetch, recs, q.Links); err != nil {
		return nil, err
	}
	project(recs, q.Columns)
	return recs, nil
}

func (c *MemoryClient) fetch(_ context.Context, q Query) ([]Record, error) {
	if q.Table == "" {
		return nil, fmt.Errorf("query has no table")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.tables[q.Table]
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Record
	for _, k := range keys {
		attrs := t[k]
		if !matches(attrs, q.Conditions) {
			continue
		}
		out = append(out, Record{Table: q.Table, Key: k, Attributes: maps.Clone(attrs)})
	}
	sortRecords(out, q.Orders)
	return limit(out, q.Top), nil
}

func (c *MemoryClient) ExecuteMultiple(ctx context.Context, requests []Request, settings ExecuteSettings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first *BatchError
	applied := 0
	for i, req := range requests {
		err := ctx.Err()
		if err == nil {
			err = c.apply(req)
		}
		if err != nil {
			if first == nil {
				first = &BatchError{Index: i, Total: len(requests), Err: err}
			}
			if !settings.ContinueOnError {
				break
			}
			continue
		}
		applied++
		c.executed = append(c.executed, req)
	}
	if first != nil {
		first.Applied = applied
		return first
	}
	return nil
}

func (c *MemoryClient) apply(req Request) error {
	for _, f := range c.failures {
		if f.match(req) {
			return f.err
		}
	}

	t := c.table(req.Table)
	switch req.Kind {
	case Create:
		if _, ok := t[req.Key]; ok {
			return fmt.Errorf("%s: %w", req, ErrKeyConflict)
		}
		attrs := maps.Clone(req.Attributes)
		if attrs == nil {
			attrs = make(map[string]any)
		}
		t[req.Key] = attrs
	case Update:
		cur, ok := t[req.Key]
		if !ok {
			return fmt.Errorf("%s: %w", req, ErrRecordNotFound)
		}
		maps.Copy(cur, req.Attributes)
	case Delete:
		if _, ok := t[req.Key]; !ok {
			return fmt.Errorf("%s: %w", req, ErrRecordNotFound)
		}
		delete(t, req.Key)
	default:
		return fmt.Errorf("unknown request kind %q", req.Kind)
	}
	return nil
}
