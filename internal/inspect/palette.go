package inspect

import (
	"image"
	"image/color"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// PaletteEntry is one distinct color and how often it occurs.
type PaletteEntry struct {
	Hex        string  `json:"hex"`
	Alpha      uint8   `json:"alpha"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Palette counts the exact colors of img, most frequent first; ties are
// broken by hex value. A reconstructed sprite should have only a handful.
// limit <= 0 returns every color. Fully transparent pixels are one entry
// regardless of their color channels.
func Palette(img image.Image, limit int) (entries []PaletteEntry, distinct int) {
	b := img.Bounds()
	counts := make(map[color.NRGBA]int)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				c = color.NRGBA{}
			}
			counts[c]++
		}
	}

	total := b.Dx() * b.Dy()
	entries = make([]PaletteEntry, 0, len(counts))
	for c, n := range counts {
		cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
		entries = append(entries, PaletteEntry{
			Hex:        cf.Hex(),
			Alpha:      c.A,
			Count:      n,
			Percentage: float64(n) / float64(total) * 100,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		if entries[i].Hex != entries[j].Hex {
			return entries[i].Hex < entries[j].Hex
		}
		return entries[i].Alpha < entries[j].Alpha
	})

	distinct = len(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, distinct
}
