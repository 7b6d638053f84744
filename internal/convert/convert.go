// Package convert turns one input file into repixelated output, choosing the
// still or the animation path from what the file contains.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/repixelator/internal/grid"
	"github.com/ironsheep/repixelator/internal/media"
	"github.com/ironsheep/repixelator/internal/sequence"
)

// Report describes a finished conversion.
type Report struct {
	Input    string        `json:"input"`
	Kind     media.Kind    `json:"kind"`
	Estimate grid.Estimate `json:"estimate"`

	// Frames is the number of images written.
	Frames int `json:"frames"`

	// Outputs lists every file written, in frame order.
	Outputs []string `json:"outputs"`

	// Fidelity is the mean Lab distance between the source and the
	// re-enlarged output. Only set for stills when requested.
	Fidelity *float64 `json:"fidelity,omitempty"`
}

type options struct {
	workers  int
	fidelity bool
}

// Option configures Convert and Batch.
type Option func(*options)

// WithWorkers bounds how many animation frames are resized at once.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithFidelity adds a fidelity score to reports for still images.
func WithFidelity() Option {
	return func(o *options) { o.fidelity = true }
}

// Convert repixelates in and writes the result to out. Animations write one
// file per frame, named by media.FramePath. Nothing is written when the
// input cannot be decoded or no grid is found.
//
// A truncated animation returns both the report for the frames written and
// an error wrapping sequence.ErrTruncated.
func Convert(ctx context.Context, in, out string, p grid.Params, opts ...Option) (*Report, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := media.CheckOutput(out); err != nil {
		return nil, err
	}

	probe, err := media.Probe(in)
	if err != nil {
		return nil, err
	}
	if probe.Kind == media.Animated {
		return convertSequence(ctx, in, out, p, o)
	}
	return convertStill(in, out, p, o)
}

func convertStill(in, out string, p grid.Params, o options) (*Report, error) {
	img, err := media.Load(in)
	if err != nil {
		return nil, err
	}
	res, err := grid.Repixelate(img, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}
	if err := media.Save(out, res.Image); err != nil {
		return nil, err
	}

	rep := &Report{
		Input:    in,
		Kind:     media.Still,
		Estimate: res.Estimate,
		Frames:   1,
		Outputs:  []string{out},
	}
	if o.fidelity {
		f := grid.Fidelity(img, res.Image)
		rep.Fidelity = &f
	}
	return rep, nil
}

func convertSequence(ctx context.Context, in, out string, p grid.Params, o options) (*Report, error) {
	src, err := media.OpenFrames(in)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	rep := &Report{Input: in, Kind: media.Animated}
	proc := &sequence.Processor{Params: p, Workers: o.workers}
	sum, err := proc.Process(ctx, src, func(f sequence.Frame) error {
		path := media.FramePath(out, f.Index)
		if err := media.Save(path, f.Image); err != nil {
			return err
		}
		rep.Outputs = append(rep.Outputs, path)
		return nil
	})
	if sum == nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}

	rep.Estimate = sum.Estimate
	rep.Frames = sum.Frames
	if err != nil {
		return rep, fmt.Errorf("%s: %w", in, err)
	}
	return rep, nil
}

// OutputName builds the output path for in from pattern, whose single %s
// is replaced by the input file name without its extension. An empty dir
// places the output next to the input.
func OutputName(pattern, in, dir string) string {
	base := filepath.Base(in)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = filepath.Dir(in)
	}
	return filepath.Join(dir, strings.Replace(pattern, "%s", stem, 1))
}
