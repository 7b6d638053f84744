package grid

import (
	"image"
	"image/draw"
)

// placement says where the original image sits on an extended canvas.
type placement int

const (
	pasteTopLeft     placement = iota // canvas grew right and/or down
	pasteTopRight                     // canvas grew left
	pasteBottomLeft                   // canvas grew up
	pasteBottomRight                  // canvas grew left and up
)

// edgeDir is the side on which a partial block was detected for each axis:
// -1 for the low edge (left/top), +1 for the high edge, 0 for none.
type edgeDir struct {
	X, Y int
}

// placements enumerates every direction pair.
var placements = map[edgeDir]placement{
	{-1, -1}: pasteBottomRight,
	{-1, 0}:  pasteTopRight,
	{-1, 1}:  pasteTopRight,
	{0, -1}:  pasteBottomLeft,
	{0, 0}:   pasteTopLeft,
	{0, 1}:   pasteTopLeft,
	{1, -1}:  pasteBottomLeft,
	{1, 0}:   pasteTopLeft,
	{1, 1}:   pasteTopLeft,
}

func (d edgeDir) String() string {
	s := ""
	switch d.X {
	case -1:
		s = "Left"
	case 1:
		s = "Right"
	}
	if d.X != 0 && d.Y != 0 {
		s += "+"
	}
	switch d.Y {
	case -1:
		s += "Up"
	case 1:
		s += "Down"
	}
	if s == "" {
		s = "None"
	}
	return s
}

// extendCanvas grows img by padX columns and padY rows on the sides named by
// dir and fills the new strips by replicating the nearest original column or
// row. A zero component of dir leaves that axis alone.
func extendCanvas(img *image.NRGBA, dir edgeDir, padX, padY int) *image.NRGBA {
	if dir.X == 0 {
		padX = 0
	}
	if dir.Y == 0 {
		padY = 0
	}
	if padX == 0 && padY == 0 {
		return img
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	newW, newH := w+padX, h+padY

	var origin image.Point
	switch placements[dir] {
	case pasteTopLeft:
		origin = image.Pt(0, 0)
	case pasteTopRight:
		origin = image.Pt(newW-w, 0)
	case pasteBottomLeft:
		origin = image.Pt(0, newH-h)
	case pasteBottomRight:
		origin = image.Pt(newW-w, newH-h)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(canvas, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}, img, img.Bounds().Min, draw.Src)

	// Columns first, restricted to the pasted rows; the row fill below then
	// copies full canvas rows, which also covers the corner.
	if padX > 0 {
		src := origin.X
		if dir.X > 0 {
			src = newW - padX - 1
		}
		for y := origin.Y; y < origin.Y+h; y++ {
			row := canvas.Pix[y*canvas.Stride:]
			px := row[src*4 : src*4+4]
			for x := 0; x < padX; x++ {
				dst := x
				if dir.X > 0 {
					dst = newW - 1 - x
				}
				copy(row[dst*4:dst*4+4], px)
			}
		}
	}

	if padY > 0 {
		src := origin.Y
		if dir.Y > 0 {
			src = newH - padY - 1
		}
		line := canvas.Pix[src*canvas.Stride : src*canvas.Stride+newW*4]
		for y := 0; y < padY; y++ {
			dst := y
			if dir.Y > 0 {
				dst = newH - 1 - y
			}
			copy(canvas.Pix[dst*canvas.Stride:dst*canvas.Stride+newW*4], line)
		}
	}

	return canvas
}

// translate shifts img by (dx, dy) so that out(x, y) = img(x-dx, y-dy),
// replicating edge samples for positions that fall outside the source.
func translate(img *image.NRGBA, dx, dy int) *image.NRGBA {
	if dx == 0 && dy == 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := clamp(y-dy, 0, h-1)
		srow := img.Pix[sy*img.Stride:]
		drow := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			sx := clamp(x-dx, 0, w-1)
			copy(drow[x*4:x*4+4], srow[sx*4:sx*4+4])
		}
	}
	return out
}
