package gql

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Parse tokenizes and parses one complete query text. It returns either a
// fully built Query or an error, never both.
func Parse(input string) (*Query, error) {
	tokens := NewTokenizer(input).Tokenize()
	q, err := NewParser(tokens).Parse()
	metrics.observe(len(tokens), err)
	return q, err
}

// Result is the outcome of parsing one input of a batch.
type Result struct {
	Query *Query
	Err   error
}

// ParseAll parses every input independently, running up to workers parses
// at once (unbounded when workers <= 0). Results are in input order. A parse
// failure is reported in its Result and does not stop the batch; ctx being
// done does, in which case ParseAll returns ctx's error.
func ParseAll(ctx context.Context, inputs []string, workers int) ([]Result, error) {
	log := logrus.WithFields(logrus.Fields{
		"component": "Batch",
		"inputs":    len(inputs),
		"workers":   workers,
	})
	log.Debug("Starting batch parse")
	results := make([]Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, input := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			q, err := Parse(input)
			results[i] = Result{Query: q, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Batch parse interrupted")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		log.WithError(err).Warn("Batch parse interrupted")
		return nil, err
	}
	log.Debug("Batch parse complete")
	return results, nil
}
