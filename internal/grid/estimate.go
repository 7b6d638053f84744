package grid

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrNoPeriodicity is returned when no block grid is found along an axis.
var ErrNoPeriodicity = errors.New("no periodic block structure found")

// Estimate describes the block grid detected in one image.
//
// Periods and offsets are in pixels of the analysed image (pre-zoom divided
// out). Counts include any block added by edge extension.
type Estimate struct {
	// Width and Height are the dimensions of the analysed image.
	Width  int `json:"width"`
	Height int `json:"height"`

	// CountX and CountY are the reconstructed image dimensions.
	CountX int `json:"count_x"`
	CountY int `json:"count_y"`

	// PeriodX and PeriodY are the block sizes.
	PeriodX float64 `json:"period_x"`
	PeriodY float64 `json:"period_y"`

	// PhaseX and PhaseY are the spectral phases of the dominant bins in
	// degrees, in (-180, 180].
	PhaseX float64 `json:"phase_x"`
	PhaseY float64 `json:"phase_y"`

	// OffsetX and OffsetY locate the first block boundary relative to the
	// image origin, as a fraction of a period converted to pixels.
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`

	// ExtendX and ExtendY name the edge that was grown: -1 left/top,
	// +1 right/bottom, 0 none.
	ExtendX int `json:"extend_x"`
	ExtendY int `json:"extend_y"`

	// PreZoom is the factor the analysis ran at.
	PreZoom int `json:"pre_zoom"`
}

// Result is a reconstructed image together with the grid that produced it.
type Result struct {
	Image    *image.NRGBA
	Estimate Estimate

	// Transform reproduces Image from the source, and applies the same grid
	// to other images of the source's size.
	Transform Transform
}

// Transform is the resampling fixed by one analysis, in pre-zoomed pixels.
// Applying it is deterministic: identical inputs give identical outputs.
type Transform struct {
	PreZoom int `json:"pre_zoom"`

	// ExtendX, ExtendY and PadX, PadY grow the canvas as in Estimate.
	ExtendX int `json:"extend_x"`
	ExtendY int `json:"extend_y"`
	PadX    int `json:"pad_x"`
	PadY    int `json:"pad_y"`

	// ShiftX and ShiftY align the grid before resampling.
	ShiftX int `json:"shift_x"`
	ShiftY int `json:"shift_y"`

	Width  int `json:"width"`
	Height int `json:"height"`
}

// Apply pre-zooms img, extends and aligns it, and area-resizes it to
// Width x Height.
func (t Transform) Apply(img image.Image) *image.NRGBA {
	return t.apply(zoom(img, t.PreZoom))
}

func (t Transform) apply(zoomed *image.NRGBA) *image.NRGBA {
	canvas := extendCanvas(zoomed, edgeDir{X: t.ExtendX, Y: t.ExtendY}, t.PadX, t.PadY)
	aligned := translate(canvas, t.ShiftX, t.ShiftY)
	return AreaResize(aligned, t.Width, t.Height)
}

// analysis holds the grid in pre-zoomed units.
type analysis struct {
	zoomed           *image.NRGBA
	countX, countY   int
	periodX, periodY float64
	offsetX, offsetY float64
	peakX, peakY     Peak
	dir              edgeDir
}

// Analyze estimates the block grid of img without resampling it.
func Analyze(img image.Image, p Params) (*Estimate, error) {
	a, err := analyze(img, p)
	if err != nil {
		return nil, err
	}
	est := a.estimate(img.Bounds(), p.PreZoom)
	return &est, nil
}

// Repixelate estimates the block grid of img and resamples img to one
// sample per block.
func Repixelate(img image.Image, p Params) (*Result, error) {
	a, err := analyze(img, p)
	if err != nil {
		return nil, err
	}

	t := a.transform(p.PreZoom)
	p.logf("Final: %dx%d", t.Width, t.Height)

	return &Result{
		Image:     t.apply(a.zoomed),
		Estimate:  a.estimate(img.Bounds(), p.PreZoom),
		Transform: t,
	}, nil
}

func analyze(img image.Image, p Params) (*analysis, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrNoPeriodicity)
	}
	p.logf("Image: %dx%d", b.Dx(), b.Dy())

	zoomed := zoom(img, p.PreZoom)
	w, h := zoomed.Bounds().Dx(), zoomed.Bounds().Dy()

	lineX, lineY := edgeLines(zoomed, p.NoiseSigma)
	peakX := FindPeak(lineX, SearchStart(len(lineX), p.PreZoom))
	peakY := FindPeak(lineY, SearchStart(len(lineY), p.PreZoom))
	p.logf("FFT: %dx%d", peakX.Index, peakY.Index)

	countX := p.accept(peakX, w)
	countY := p.accept(peakY, h)
	if countX == 0 {
		return nil, fmt.Errorf("%w: horizontal axis (bin %d, magnitude %.4g, median %.4g)",
			ErrNoPeriodicity, peakX.Index, peakX.Magnitude, peakX.Median)
	}
	if countY == 0 {
		return nil, fmt.Errorf("%w: vertical axis (bin %d, magnitude %.4g, median %.4g)",
			ErrNoPeriodicity, peakY.Index, peakY.Magnitude, peakY.Median)
	}

	a := &analysis{
		zoomed:  zoomed,
		countX:  countX,
		countY:  countY,
		periodX: float64(w) / float64(countX),
		periodY: float64(h) / float64(countY),
		peakX:   peakX,
		peakY:   peakY,
	}
	zf := float64(p.PreZoom)
	p.logf("Pixel size: %.3fx%.3f", a.periodX/zf, a.periodY/zf)

	a.offsetX = phaseOffset(a.periodX, peakX.Phase)
	a.offsetY = phaseOffset(a.periodY, peakY.Phase)
	p.logf("Offset: x=%.2f, y=%.2f", a.offsetX/zf, a.offsetY/zf)

	if p.EdgeThreshold > 0 {
		threshold := p.EdgeThreshold * zf
		a.dir = edgeDir{X: edgeSide(a.offsetX, threshold), Y: edgeSide(a.offsetY, threshold)}
		if a.dir.X != 0 {
			a.countX++
		}
		if a.dir.Y != 0 {
			a.countY++
		}
		if a.dir != (edgeDir{}) {
			p.logf("%s edge included", a.dir)
		}
	}

	return a, nil
}

// accept turns a spectral peak into a block count, or 0 when the peak is not
// a credible enlargement grid along an axis of n pre-zoomed samples.
func (p Params) accept(pk Peak, n int) int {
	if pk.Index == 0 || !pk.prominent(p.MinPeakRatio) {
		return 0
	}
	blockSize := float64(n) / float64(pk.Index) / float64(p.PreZoom)
	if p.MinBlockSize > 0 && blockSize <= p.MinBlockSize {
		return 0
	}
	return pk.Index
}

// phaseOffset converts a phase in degrees to a boundary offset within one
// period, wrapped into [-period/2, period/2].
func phaseOffset(period, phase float64) float64 {
	return math.Remainder(period*phase/360, period)
}

// edgeSide returns the sign of offset when its magnitude exceeds threshold.
func edgeSide(offset, threshold float64) int {
	if math.Abs(offset) <= threshold {
		return 0
	}
	if offset < 0 {
		return -1
	}
	return 1
}

func (a *analysis) transform(preZoom int) Transform {
	return Transform{
		PreZoom: preZoom,
		ExtendX: a.dir.X,
		ExtendY: a.dir.Y,
		PadX:    int(math.Round(a.periodX)),
		PadY:    int(math.Round(a.periodY)),
		ShiftX:  int(a.offsetX),
		ShiftY:  int(a.offsetY),
		Width:   a.countX,
		Height:  a.countY,
	}
}

func (a *analysis) estimate(b image.Rectangle, preZoom int) Estimate {
	zf := float64(preZoom)
	return Estimate{
		Width:   b.Dx(),
		Height:  b.Dy(),
		CountX:  a.countX,
		CountY:  a.countY,
		PeriodX: a.periodX / zf,
		PeriodY: a.periodY / zf,
		PhaseX:  a.peakX.Phase,
		PhaseY:  a.peakY.Phase,
		OffsetX: a.offsetX / zf,
		OffsetY: a.offsetY / zf,
		ExtendX: a.dir.X,
		ExtendY: a.dir.Y,
		PreZoom: preZoom,
	}
}

// Boundaries returns the block edges Repixelate averages between, in pixels
// of the analysed image: CountX+1 vertical and CountY+1 horizontal edges.
// Edges of an added partial block lie outside the image.
func (e Estimate) Boundaries() (xs, ys []float64) {
	zf := float64(e.PreZoom)
	if zf < 1 {
		zf = 1
	}
	return axisBoundaries(e.Width, e.CountX, e.PeriodX, e.OffsetX, e.ExtendX, zf),
		axisBoundaries(e.Height, e.CountY, e.PeriodY, e.OffsetY, e.ExtendY, zf)
}

// axisBoundaries mirrors extendCanvas, translate and AreaResize along one
// axis, working in pre-zoomed units.
func axisBoundaries(size, count int, period, offset float64, extend int, zf float64) []float64 {
	if count < 1 {
		return nil
	}
	span := float64(size) * zf
	origin := 0.0
	if extend != 0 {
		pad := math.Round(period * zf)
		span += pad
		if extend < 0 {
			origin = pad
		}
	}
	shift := float64(int(offset * zf))
	cell := span / float64(count)

	edges := make([]float64, count+1)
	for k := range edges {
		edges[k] = (float64(k)*cell - shift - origin) / zf
	}
	return edges
}
