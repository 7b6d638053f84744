package grid

import (
	"image"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Fidelity measures how well out reproduces src. out is enlarged back to the
// size of src with nearest-neighbour sampling and the mean CIE-Lab distance
// over all opaque source pixels is returned. Lower is better; 0 means a
// pixel-exact reconstruction.
func Fidelity(src, out image.Image) float64 {
	b := src.Bounds()
	if b.Empty() || out.Bounds().Empty() {
		return 0
	}
	enlarged := imaging.Resize(out, b.Dx(), b.Dy(), imaging.NearestNeighbor)

	var sum float64
	var n int
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c1, ok := colorful.MakeColor(src.At(b.Min.X+x, b.Min.Y+y))
			if !ok {
				continue
			}
			c2, ok := colorful.MakeColor(enlarged.At(x, y))
			if !ok {
				continue
			}
			sum += c1.DistanceLab(c2)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
