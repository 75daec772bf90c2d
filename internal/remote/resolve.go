package remote

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// baseFetcher runs a query without links or projection.
type baseFetcher func(ctx context.Context, q Query) ([]Record, error)

func sortRecords(recs []Record, orders []Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, o := range orders {
			c, _ := compareValues(recs[i].Attributes[o.Attribute], recs[j].Attributes[o.Attribute])
			if c == 0 {
				continue
			}
			if o.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func limit(recs []Record, top int) []Record {
	if top > 0 && len(recs) > top {
		return recs[:top]
	}
	return recs
}

// applyLinks resolves each link with one In query on the target table and
// merges the related columns into every record.
func applyLinks(ctx context.Context, fetch baseFetcher, recs []Record, links []Link) error {
	for _, l := range links {
		if l.Alias == "" || l.Table == "" || l.From == "" || l.To == "" {
			return fmt.Errorf("invalid link %+v", l)
		}
		keys := lo.Uniq(lo.FilterMap(recs, func(r Record, _ int) (any, bool) {
			v := r.Attributes[l.From]
			return v, v != nil
		}))
		if len(keys) == 0 {
			continue
		}

		related, err := fetch(ctx, Query{
			Table:      l.Table,
			Conditions: []Condition{{Attribute: l.To, Operator: OpIn, Values: keys}},
		})
		if err != nil {
			return fmt.Errorf("resolving link %s: %w", l.Alias, err)
		}

		for i := range recs {
			from := recs[i].Attributes[l.From]
			if from == nil {
				continue
			}
			target, ok := lo.Find(related, func(r Record) bool {
				return valuesEqual(r.Attributes[l.To], from)
			})
			if !ok {
				continue
			}
			for _, col := range l.Columns {
				recs[i].Attributes[l.Alias+"."+col] = target.Attributes[col]
			}
		}
	}
	return nil
}

// project keeps the requested columns plus every merged link column.
func project(recs []Record, columns []string) {
	if len(columns) == 0 {
		return
	}
	for i := range recs {
		for name := range recs[i].Attributes {
			if strings.Contains(name, ".") || slices.Contains(columns, name) {
				continue
			}
			delete(recs[i].Attributes, name)
		}
	}
}

// linkSources returns the base attributes links read from, which must be
// fetched even when not projected.
func linkSources(links []Link) []string {
	var out []string
	for _, l := range links {
		if !strings.Contains(l.From, ".") {
			out = append(out, l.From)
		}
	}
	return out
}
