package grid

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Peak is the dominant frequency of a 1-D edge signal.
type Peak struct {
	// Index is the DFT bin, which equals the number of blocks along the
	// axis. Zero means no peak was found.
	Index int `json:"index"`

	// Magnitude is |X[k]| / n.
	Magnitude float64 `json:"magnitude"`

	// Phase is arg(X[k]) in degrees, in (-180, 180].
	Phase float64 `json:"phase"`

	// Median is the median magnitude of the searched band.
	Median float64 `json:"median"`
}

// SearchStart returns the first bin considered for a signal of length n.
//
// Bins below it correspond to blocks larger than 1/50th of the source image,
// or to the near-DC band. The bound is empirical.
func SearchStart(n, preZoom int) int {
	if preZoom < 1 {
		preZoom = 1
	}
	start := int(float64(n) / float64(preZoom) / 50)
	if start < 4 {
		start = 4
	}
	return start
}

// FindPeak locates the strongest bin of line in [start, n/2).
//
// The mean is removed before the transform. A zero Peak is returned when the
// search band is empty.
func FindPeak(line []float64, start int) Peak {
	n := len(line)
	half := n / 2
	if n < 2 || start >= half {
		return Peak{}
	}
	if start < 0 {
		start = 0
	}

	seq := make([]float64, n)
	copy(seq, line)
	floats.AddConst(-stat.Mean(seq, nil), seq)

	coeffs := fourier.NewFFT(n).Coefficients(nil, seq)

	mags := make([]float64, half)
	for k := range mags {
		mags[k] = cmplx.Abs(coeffs[k]) / float64(n)
	}

	band := mags[start:]
	idx := start + floats.MaxIdx(band)

	sorted := make([]float64, len(band))
	copy(sorted, band)
	sort.Float64s(sorted)

	return Peak{
		Index:     idx,
		Magnitude: mags[idx],
		Phase:     cmplx.Phase(coeffs[idx]) * 180 / math.Pi,
		Median:    stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

// prominent reports whether the peak stands out from the band by ratio.
func (pk Peak) prominent(ratio float64) bool {
	if pk.Magnitude <= 0 {
		return false
	}
	return ratio <= 0 || pk.Magnitude >= ratio*pk.Median
}
