// Package remote is the client side of the remote record platform: a
// metadata-described store of keyed records with structured queries and a
// non-transactional batch execute.
package remote

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned when an update or delete targets a
	// key that does not exist.
	ErrRecordNotFound = errors.New("remote record not found")

	// ErrKeyConflict is returned when a create targets a key already in use.
	ErrKeyConflict = errors.New("remote record key already exists")
)

// Client is the subset of the platform API the repositories rely on.
type Client interface {
	// RetrieveMultiple runs a structured query and returns matching records.
	RetrieveMultiple(ctx context.Context, q Query) ([]Record, error)

	// ExecuteMultiple applies requests in order. The platform offers no
	// rollback: requests applied before a failure stay applied. On failure
	// the returned error is a *BatchError.
	ExecuteMultiple(ctx context.Context, requests []Request, settings ExecuteSettings) error
}

// ExecuteSettings mirrors the platform's batch options.
type ExecuteSettings struct {
	// ContinueOnError keeps applying requests after a failure; the first
	// failure is still reported.
	ContinueOnError bool
	// ReturnResponses asks for per-request responses. Accepted for parity
	// with the platform; clients here return none.
	ReturnResponses bool
}

// FailFast is the setting used for every lifecycle batch.
var FailFast = ExecuteSettings{ContinueOnError: false, ReturnResponses: false}

// RequestKind is the operation a batched request performs.
type RequestKind string

const (
	Create RequestKind = "create"
	Update RequestKind = "update"
	Delete RequestKind = "delete"
)

// Request is one entry in an ExecuteMultiple batch. Update merges
// Attributes into the existing record.
type Request struct {
	Kind       RequestKind
	Table      string
	Key        string
	Attributes map[string]any
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s/%s", r.Kind, r.Table, r.Key)
}

// BatchError reports a batch that stopped part way. Applied requests are
// durable on the platform.
type BatchError struct {
	Index   int // index of the failed request
	Applied int // requests applied successfully
	Total   int
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch request %d of %d failed after %d applied: %v", e.Index+1, e.Total, e.Applied, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
