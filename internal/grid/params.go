package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when analysis parameters are out of range.
var ErrInvalidParams = errors.New("invalid analysis parameters")

// Default parameter values.
const (
	DefaultPreZoom       = 4
	DefaultNoiseSigma    = 0.0
	DefaultEdgeThreshold = 1.0
	DefaultMinPeakRatio  = 5.0
	DefaultMinBlockSize  = 1.25
)

// Params controls one conversion job. The zero value is not usable; start
// from DefaultParams.
type Params struct {
	// PreZoom is the bilinear upscale factor applied before analysis.
	// Must be at least 1.
	PreZoom int `json:"pre_zoom" toml:"pre_zoom"`

	// NoiseSigma is the Gaussian smoothing width applied to the luminance
	// plane before edge detection. Zero disables smoothing.
	NoiseSigma float64 `json:"noise_sigma" toml:"noise_sigma"`

	// EdgeThreshold is the minimum grid offset, in source pixels, that is
	// taken to mean a partially visible block at an image edge. Zero
	// disables edge extension.
	EdgeThreshold float64 `json:"edge_threshold" toml:"edge_threshold"`

	// MinPeakRatio is how many times the median spectral magnitude the
	// winning bin must reach to count as periodic. Zero disables the check.
	MinPeakRatio float64 `json:"min_peak_ratio" toml:"min_peak_ratio"`

	// MinBlockSize is the smallest block size, in source pixels, accepted
	// as an enlargement. Zero disables the check.
	MinBlockSize float64 `json:"min_block_size" toml:"min_block_size"`

	// Logf receives diagnostics. Nil discards them.
	Logf func(format string, v ...interface{}) `json:"-" toml:"-"`
}

// DefaultParams returns the parameters used when the caller sets nothing.
func DefaultParams() Params {
	return Params{
		PreZoom:       DefaultPreZoom,
		NoiseSigma:    DefaultNoiseSigma,
		EdgeThreshold: DefaultEdgeThreshold,
		MinPeakRatio:  DefaultMinPeakRatio,
		MinBlockSize:  DefaultMinBlockSize,
	}
}

// Validate reports whether every field is in range.
func (p Params) Validate() error {
	switch {
	case p.PreZoom < 1:
		return fmt.Errorf("%w: pre-zoom must be >= 1, got %d", ErrInvalidParams, p.PreZoom)
	case p.NoiseSigma < 0:
		return fmt.Errorf("%w: noise sigma must be >= 0, got %g", ErrInvalidParams, p.NoiseSigma)
	case p.EdgeThreshold < 0:
		return fmt.Errorf("%w: edge threshold must be >= 0, got %g", ErrInvalidParams, p.EdgeThreshold)
	case p.MinPeakRatio < 0:
		return fmt.Errorf("%w: min peak ratio must be >= 0, got %g", ErrInvalidParams, p.MinPeakRatio)
	case p.MinBlockSize < 0:
		return fmt.Errorf("%w: min block size must be >= 0, got %g", ErrInvalidParams, p.MinBlockSize)
	}
	return nil
}

func (p Params) logf(format string, v ...interface{}) {
	if p.Logf != nil {
		p.Logf(format, v...)
	}
}
