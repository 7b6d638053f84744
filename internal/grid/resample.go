package grid

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// zoom upscales img by factor using bilinear interpolation. A factor of 1
// returns an NRGBA copy anchored at the origin.
func zoom(img image.Image, factor int) *image.NRGBA {
	if factor <= 1 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// areaSpan lists the source samples covering one destination sample and the
// fraction of the destination sample each one covers.
type areaSpan struct {
	first   int
	weights []float64
}

// areaSpans maps n source samples onto m destination samples by exact
// fractional overlap.
func areaSpans(n, m int) []areaSpan {
	scale := float64(n) / float64(m)
	spans := make([]areaSpan, m)
	for i := range spans {
		start := float64(i) * scale
		end := start + scale
		lo := int(math.Floor(start))
		hi := int(math.Ceil(end))
		if hi > n {
			hi = n
		}
		if hi <= lo {
			hi = lo + 1
		}
		w := make([]float64, 0, hi-lo)
		for j := lo; j < hi; j++ {
			a := math.Max(start, float64(j))
			b := math.Min(end, float64(j+1))
			w = append(w, math.Max(b-a, 0))
		}
		spans[i] = areaSpan{first: lo, weights: w}
	}
	return spans
}

// AreaResize resamples img to width x height by averaging every source
// sample under each destination sample, weighted by covered area. Colors are
// averaged premultiplied so transparent samples do not bleed.
func AreaResize(img image.Image, width, height int) *image.NRGBA {
	src := imaging.Clone(img)
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 || sw == 0 || sh == 0 {
		return dst
	}

	xs := areaSpans(sw, width)
	ys := areaSpans(sh, height)

	for oy, ySpan := range ys {
		drow := dst.Pix[oy*dst.Stride:]
		for ox, xSpan := range xs {
			var r, g, b, a, total float64
			for j, wy := range ySpan.weights {
				srow := src.Pix[(ySpan.first+j)*src.Stride:]
				for i, wx := range xSpan.weights {
					w := wx * wy
					if w == 0 {
						continue
					}
					p := srow[(xSpan.first+i)*4:]
					pa := float64(p[3]) * w
					r += float64(p[0]) * pa
					g += float64(p[1]) * pa
					b += float64(p[2]) * pa
					a += pa
					total += w
				}
			}
			d := drow[ox*4 : ox*4+4]
			if a == 0 || total == 0 {
				d[0], d[1], d[2], d[3] = 0, 0, 0, 0
				continue
			}
			d[0] = clampByte(r / a)
			d[1] = clampByte(g / a)
			d[2] = clampByte(b / a)
			d[3] = clampByte(a / total)
		}
	}
	return dst
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
