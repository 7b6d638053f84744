package grid

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// scharrScale keeps 3/10/3 responses of an 8-bit step inside 0..255.
const scharrScale = 1.0 / 32

// scharrX responds to horizontal intensity changes, i.e. vertical edges.
var scharrX = []float64{
	-3, 0, 3,
	-10, 0, 10,
	-3, 0, 3,
}

// scharrY responds to vertical intensity changes, i.e. horizontal edges.
var scharrY = []float64{
	-3, -10, -3,
	0, 0, 0,
	3, 10, 3,
}

// edgeLines reduces an image to one log-compressed edge signal per axis.
//
// lineX has one sample per column (mean horizontal gradient down the column)
// and lineY one per row (mean vertical gradient across the row).
func edgeLines(img image.Image, sigma float64) (lineX, lineY []float64) {
	gray := imaging.Grayscale(img)
	if sigma > 0 {
		gray = imaging.Blur(gray, sigma)
	}

	gx := gradientMagnitude(gray, scharrX)
	gy := gradientMagnitude(gray, scharrY)

	rows, cols := gx.Dims()

	lineX = make([]float64, cols)
	for y := 0; y < rows; y++ {
		floats.Add(lineX, gx.RawRowView(y))
	}
	floats.Scale(1/float64(rows), lineX)

	lineY = make([]float64, rows)
	for y := 0; y < rows; y++ {
		lineY[y] = floats.Sum(gy.RawRowView(y)) / float64(cols)
	}

	logCompress(lineX)
	logCompress(lineY)
	return lineX, lineY
}

// gradientMagnitude convolves gray with kernel and its negation and sums the
// clamped responses, giving |gradient| per pixel with replicated borders.
func gradientMagnitude(gray image.Image, kernel []float64) *mat.Dense {
	pos := convolution.NewKernel(3, 3)
	neg := convolution.NewKernel(3, 3)
	for i, v := range kernel {
		pos.Matrix[i] = v * scharrScale
		neg.Matrix[i] = -v * scharrScale
	}

	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true}
	rise := convolution.Convolve(gray, pos, opts)
	fall := convolution.Convolve(gray, neg, opts)

	bounds := rise.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		row := out.RawRowView(y)
		ro := y * rise.Stride
		fo := y * fall.Stride
		for x := 0; x < w; x++ {
			// Gray input, so the red channel carries the response.
			row[x] = float64(rise.Pix[ro+x*4]) + float64(fall.Pix[fo+x*4])
		}
	}
	return out
}

func logCompress(line []float64) {
	for i, v := range line {
		line[i] = math.Log(v + 1)
	}
}

// clamp constrains an integer value to the range [min, max].
// Used for replicated-border lookups.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
