package remote

import (
	"context"
	"fmt"
)

// IDAllocator hands out small sequential integers for an attribute the
// platform does not number itself, by reading the current maximum and
// adding one.
//
// Allocation is not atomic: two writers that read the same maximum before
// either writes will reserve the same values. Callers accept this as a
// known limitation of the platform.
type IDAllocator struct {
	client Client
}

// NewIDAllocator creates an allocator reading through client.
func NewIDAllocator(client Client) *IDAllocator {
	return &IDAllocator{client: client}
}

// Reserve returns a sequence starting after the current maximum of attr
// among records of table matching conds. Values drawn from it are only
// unique if no other writer allocates from the same range concurrently.
func (a *IDAllocator) Reserve(ctx context.Context, table, attr string, conds ...Condition) (*Sequence, error) {
	recs, err := a.client.RetrieveMultiple(ctx, Query{
		Table:      table,
		Columns:    []string{attr},
		Conditions: conds,
		Orders:     []Order{{Attribute: attr, Descending: true}},
		Top:        1,
	})
	if err != nil {
		return nil, fmt.Errorf("reading max %s.%s: %w", table, attr, err)
	}
	var max int64
	if len(recs) > 0 {
		max = recs[0].Int64(attr)
	}
	return NewSequence(max + 1), nil
}

// Sequence yields consecutive values from a reserved starting point.
type Sequence struct {
	next int64
}

// NewSequence starts a sequence at first.
func NewSequence(first int64) *Sequence {
	return &Sequence{next: first}
}

// Next returns the next value.
func (s *Sequence) Next() int64 {
	v := s.next
	s.next++
	return v
}
