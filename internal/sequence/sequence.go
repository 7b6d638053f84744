// Package sequence applies one grid estimate to every frame of an animation.
//
// The first frame is analysed with the grid package, which fixes the output
// dimensions and the alignment shift. Every later frame goes through that
// same transform, so all frames of one animation share a single grid and
// cannot drift apart.
// Frames are handed to the caller as soon as they are ready; nothing is
// buffered beyond the worker window.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/repixelator/internal/grid"
)

var (
	// ErrNoFrames is returned when the source is empty.
	ErrNoFrames = errors.New("source has no frames")

	// ErrTruncated is returned when a frame after the first cannot be read.
	// Frames emitted before the failure remain valid.
	ErrTruncated = errors.New("frame sequence truncated")
)

// FrameSource yields decoded frames in order.
type FrameSource interface {
	// Next returns the next frame, or io.EOF once the source is exhausted.
	Next() (image.Image, error)
}

// Frame is one converted frame.
type Frame struct {
	// Index counts frames from 1.
	Index int
	Image *image.NRGBA
}

// Summary describes a completed or truncated run.
type Summary struct {
	// Estimate is the grid fixed by the first frame.
	Estimate grid.Estimate
	// Transform is applied to every frame.
	Transform grid.Transform
	// Frames is the number of frames emitted.
	Frames int
}

// Processor converts frame sequences.
type Processor struct {
	// Params are the analysis parameters for the first frame. Edge
	// extension is always disabled for sequences so that every frame keeps
	// the first frame's canvas geometry.
	Params grid.Params

	// Workers bounds how many frames are resized at once. Values below 2
	// process frames one at a time.
	Workers int
}

// Process reads src until it is exhausted and passes each converted frame to
// emit in source order. A failure to analyse the first frame returns an error
// before anything is emitted. An error from emit aborts the run.
func (p *Processor) Process(ctx context.Context, src FrameSource, emit func(Frame) error) (*Summary, error) {
	first, err := src.Next()
	if err == io.EOF {
		return nil, ErrNoFrames
	}
	if err != nil {
		return nil, err
	}

	params := p.Params
	params.EdgeThreshold = 0
	res, err := grid.Repixelate(first, params)
	if err != nil {
		return nil, fmt.Errorf("first frame: %w", err)
	}

	sum := &Summary{Estimate: res.Estimate, Transform: res.Transform}
	if err := emit(Frame{Index: 1, Image: res.Image}); err != nil {
		return sum, err
	}
	sum.Frames = 1

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		batch, readErr := readBatch(src, workers)
		out := make([]*image.NRGBA, len(batch))

		var g errgroup.Group
		g.SetLimit(workers)
		for i, img := range batch {
			i, img := i, img // per-iteration copy (pre-Go 1.22 loop semantics)
			g.Go(func() error {
				out[i] = res.Transform.Apply(img)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return sum, err
		}

		for _, img := range out {
			if err := emit(Frame{Index: sum.Frames + 1, Image: img}); err != nil {
				return sum, err
			}
			sum.Frames++
		}

		switch {
		case readErr == io.EOF:
			return sum, nil
		case readErr != nil:
			return sum, fmt.Errorf("%w after frame %d: %w", ErrTruncated, sum.Frames, readErr)
		}
	}
}

// readBatch reads up to n frames. The returned error is the one that ended
// the batch early, if any.
func readBatch(src FrameSource, n int) ([]image.Image, error) {
	batch := make([]image.Image, 0, n)
	for len(batch) < n {
		img, err := src.Next()
		if err != nil {
			return batch, err
		}
		batch = append(batch, img)
	}
	return batch, nil
}
