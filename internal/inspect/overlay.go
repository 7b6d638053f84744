// Package inspect renders diagnostics for a grid estimate: the detected
// block grid drawn over the source, and the palette of a reconstruction.
package inspect

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/repixelator/internal/grid"
)

// DefaultLineColor is semi-transparent red.
var DefaultLineColor = color.NRGBA{255, 0, 0, 160}

// GridOverlay draws the block edges of est over img. Each edge is one pixel
// wide; edges of an added partial block fall outside and are skipped.
func GridOverlay(img image.Image, est *grid.Estimate, line color.Color) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	src := image.NewUniform(line)
	xs, ys := est.Boundaries()
	for _, x := range pixelEdges(xs, b.Dx()) {
		draw.Draw(out, image.Rect(x, 0, x+1, b.Dy()), src, image.Point{}, draw.Over)
	}
	for _, y := range pixelEdges(ys, b.Dy()) {
		draw.Draw(out, image.Rect(0, y, b.Dx(), y+1), src, image.Point{}, draw.Over)
	}
	return out
}

// pixelEdges rounds edges to pixel columns inside [0, size), dropping
// duplicates.
func pixelEdges(edges []float64, size int) []int {
	var px []int
	for _, e := range edges {
		p := int(math.Round(e))
		if p < 0 || p >= size {
			continue
		}
		if n := len(px); n > 0 && px[n-1] == p {
			continue
		}
		px = append(px, p)
	}
	return px
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA"; the leading '#' is optional.
func ParseHexColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	alpha := uint8(255)
	switch len(hex) {
	case 6:
	case 8:
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:6]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length: %q", hex)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, bl := c.RGB255()
	return color.NRGBA{R: r, G: g, B: bl, A: alpha}, nil
}

// EncodedImage is a PNG ready to embed in a JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
