package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultParseWorkers is the parallelism used by ParseAll when workers <= 0.
const DefaultParseWorkers = 4

// ParseAll parses docs concurrently and returns the tables in input order.
//
// Each document is an atomic unit: cancellation is checked before a parse
// starts, never during one. On cancellation the tables parsed so far are
// discarded and ctx.Err() is returned.
func ParseAll(ctx context.Context, docs []string, workers int) ([]Table, error) {
	if workers <= 0 {
		workers = DefaultParseWorkers
	}

	tables := make([]Table, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, doc := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each goroutine owns its slot, so no locking is needed.
			tables[i] = Parse(doc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}
