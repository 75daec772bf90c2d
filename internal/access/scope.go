package access

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Scope is the set of engagements the current caller may read and mutate.
// EnsureInitialized must succeed before any check; until then every check
// reports false.
type Scope interface {
	EnsureInitialized(ctx context.Context) error
	IsEngagementAllowed(engagementID string) bool
	HasAssignments() bool
	EngagementIDs() []string
}

// Loader fetches the engagement ids assigned to the caller.
type Loader interface {
	LoadEngagementIDs(ctx context.Context) ([]string, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]string, error)

func (f LoaderFunc) LoadEngagementIDs(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// AssignmentScope is a Scope backed by a Loader. A successful load is
// cached for the scope's lifetime; a failed load is retried on the next
// EnsureInitialized call.
type AssignmentScope struct {
	loader Loader

	mu     sync.RWMutex
	loaded bool
	ids    map[string]string // normalized -> as loaded
}

// NewAssignmentScope creates a scope that loads through loader.
func NewAssignmentScope(loader Loader) *AssignmentScope {
	return &AssignmentScope{loader: loader}
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func (s *AssignmentScope) EnsureInitialized(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	list, err := s.loader.LoadEngagementIDs(ctx)
	if err != nil {
		return fmt.Errorf("loading engagement assignments: %w", err)
	}
	ids := make(map[string]string, len(list))
	for _, id := range list {
		if key := normalize(id); key != "" {
			ids[key] = strings.TrimSpace(id)
		}
	}
	s.ids = ids
	s.loaded = true
	return nil
}

func (s *AssignmentScope) IsEngagementAllowed(engagementID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return false
	}
	_, ok := s.ids[normalize(engagementID)]
	return ok
}

func (s *AssignmentScope) HasAssignments() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded && len(s.ids) > 0
}

// EngagementIDs returns the assigned ids in sorted order.
func (s *AssignmentScope) EngagementIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
