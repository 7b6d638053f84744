package convert

import (
	"context"

	"github.com/ironsheep/repixelator/internal/grid"
)

// Failure records one input that could not be converted.
type Failure struct {
	Input string `json:"input"`
	Err   error  `json:"-"`
}

// BatchReport collects the outcome of Batch.
type BatchReport struct {
	Converted []*Report
	Failed    []Failure
}

// Batch converts every input, writing each to outputFor(input). A failing
// input is recorded and the batch moves on. Once ctx is cancelled the
// remaining inputs are recorded as failed with the context error.
func Batch(ctx context.Context, inputs []string, outputFor func(string) string, p grid.Params, opts ...Option) *BatchReport {
	br := &BatchReport{}
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			br.Failed = append(br.Failed, Failure{Input: in, Err: err})
			continue
		}
		rep, err := Convert(ctx, in, outputFor(in), p, opts...)
		if err != nil {
			br.Failed = append(br.Failed, Failure{Input: in, Err: err})
			continue
		}
		br.Converted = append(br.Converted, rep)
	}
	return br
}
