package remote

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreInLimit is the maximum number of values Firestore accepts in a
// single "in" filter.
const firestoreInLimit = 30

// FirestoreClient implements Client over Cloud Firestore. Each table is a
// collection and each record a document keyed by Record.Key. Batches are
// applied one document write at a time, so a failure leaves the earlier
// writes in place.
type FirestoreClient struct {
	Client *firestore.Client
}

var _ Client = (*FirestoreClient)(nil)

// NewFirestoreClient connects to projectID. An empty credentialsFile uses
// application default credentials (or the emulator when
// FIRESTORE_EMULATOR_HOST is set).
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*FirestoreClient, error) {
	if projectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient (project=%s): %w", projectID, err)
	}
	return &FirestoreClient{Client: client}, nil
}

// Close releases the underlying connection.
func (c *FirestoreClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

func (c *FirestoreClient) RetrieveMultiple(ctx context.Context, q Query) ([]Record, error) {
	if c.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	base := q
	if len(q.Columns) > 0 {
		base.Columns = append(slices.Clone(q.Columns), linkSources(q.Links)...)
	}
	recs, err := c.fetch(ctx, base)
	if err != nil {
		return nil, err
	}
	if err := applyLinks(ctx, c.fetch, recs, q.Links); err != nil {
		return nil, err
	}
	project(recs, q.Columns)
	return recs, nil
}

// fetch runs q without links. The first "in" condition is sent to
// Firestore in chunks; any further "in" conditions are applied in memory.
func (c *FirestoreClient) fetch(ctx context.Context, q Query) ([]Record, error) {
	var (
		native  []Condition
		inCond  *Condition
		residue []Condition
	)
	for i := range q.Conditions {
		cond := q.Conditions[i]
		if cond.Operator != OpIn {
			native = append(native, cond)
			continue
		}
		if len(cond.Values) == 0 {
			return nil, nil
		}
		if inCond == nil {
			inCond = &cond
		} else {
			residue = append(residue, cond)
		}
	}

	fq := c.Client.Collection(q.Table).Query
	if len(q.Columns) > 0 {
		cols := slices.Clone(q.Columns)
		for _, cond := range residue {
			cols = append(cols, cond.Attribute)
		}
		for _, o := range q.Orders {
			cols = append(cols, o.Attribute)
		}
		slices.Sort(cols)
		fq = fq.Select(slices.Compact(cols)...)
	}
	for _, cond := range native {
		op, err := firestoreOp(cond.Operator)
		if err != nil {
			return nil, err
		}
		fq = fq.Where(cond.Attribute, op, cond.Values[0])
	}
	for _, o := range q.Orders {
		dir := firestore.Asc
		if o.Descending {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(o.Attribute, dir)
	}

	if inCond == nil {
		if q.Top > 0 {
			fq = fq.Limit(q.Top)
		}
		return c.collect(ctx, q.Table, fq, residue)
	}

	var out []Record
	for start := 0; start < len(inCond.Values); start += firestoreInLimit {
		end := min(start+firestoreInLimit, len(inCond.Values))
		chunk, err := c.collect(ctx, q.Table, fq.Where(inCond.Attribute, "in", inCond.Values[start:end]), residue)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	if len(inCond.Values) > firestoreInLimit {
		sortRecords(out, q.Orders)
	}
	return limit(out, q.Top), nil
}

func (c *FirestoreClient) collect(ctx context.Context, table string, fq firestore.Query, residue []Condition) ([]Record, error) {
	it := fq.Documents(ctx)
	defer it.Stop()

	var out []Record
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w", table, err)
		}
		attrs := doc.Data()
		if !matches(attrs, residue) {
			continue
		}
		out = append(out, Record{Table: table, Key: doc.Ref.ID, Attributes: attrs})
	}
	return out, nil
}

func firestoreOp(op Operator) (string, error) {
	switch op {
	case OpEq:
		return "==", nil
	case OpGe:
		return ">=", nil
	case OpLe:
		return "<=", nil
	}
	return "", fmt.Errorf("unsupported operator %q", op)
}

func (c *FirestoreClient) ExecuteMultiple(ctx context.Context, requests []Request, settings ExecuteSettings) error {
	if c.Client == nil {
		return errors.New("firestore client is nil")
	}

	var first *BatchError
	applied := 0
	for i, req := range requests {
		if err := c.apply(ctx, req); err != nil {
			if first == nil {
				first = &BatchError{Index: i, Total: len(requests), Err: err}
			}
			if !settings.ContinueOnError {
				break
			}
			continue
		}
		applied++
	}
	if first != nil {
		first.Applied = applied
		return first
	}
	return nil
}

func (c *FirestoreClient) apply(ctx context.Context, req Request) error {
	doc := c.Client.Collection(req.Table).Doc(req.Key)

	var err error
	switch req.Kind {
	case Create:
		_, err = doc.Create(ctx, req.Attributes)
	case Update:
		if len(req.Attributes) == 0 {
			return nil
		}
		paths := make([]string, 0, len(req.Attributes))
		for k := range req.Attributes {
			paths = append(paths, k)
		}
		sort.Strings(paths)
		updates := make([]firestore.Update, 0, len(paths))
		for _, p := range paths {
			updates = append(updates, firestore.Update{Path: p, Value: req.Attributes[p]})
		}
		_, err = doc.Update(ctx, updates)
	case Delete:
		_, err = doc.Delete(ctx, firestore.Exists)
	default:
		return fmt.Errorf("unknown request kind %q", req.Kind)
	}

	switch status.Code(err) {
	case codes.OK:
		return nil
	case codes.NotFound:
		return fmt.Errorf("%s: %w", req, ErrRecordNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", req, ErrKeyConflict)
	}
	return fmt.Errorf("%s: %w", req, err)
}
