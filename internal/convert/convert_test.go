package convert

import (
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/repixelator/internal/grid"
	"github.com/ironsheep/repixelator/internal/media"
	"github.com/ironsheep/repixelator/internal/sequence"
)

var bw = color.Palette{color.Black, color.White}

// checker draws a 128x128 checkerboard of 16 pixel blocks. invert swaps
// the two colors.
func checker(invert bool) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, 128, 128), bw)
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			on := (x/16+y/16)%2 == 0
			if on != invert {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) string {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func writeGIF(t *testing.T, path string, frames int) string {
	t.Helper()
	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		g.Image = append(g.Image, checker(i%2 == 1))
		g.Delay = append(g.Delay, 10)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gif.EncodeAll(f, g))
	return path
}

func params() grid.Params {
	p := grid.DefaultParams()
	p.PreZoom = 1
	return p
}

func TestConvert_Still(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, filepath.Join(dir, "sprite.png"), checker(false))
	out := filepath.Join(dir, "small.png")

	rep, err := Convert(context.Background(), in, out, params(), WithFidelity())
	require.NoError(t, err)

	assert.Equal(t, media.Still, rep.Kind)
	assert.Equal(t, 8, rep.Estimate.CountX)
	assert.Equal(t, 8, rep.Estimate.CountY)
	assert.Equal(t, []string{out}, rep.Outputs)
	require.NotNil(t, rep.Fidelity)
	assert.InDelta(t, 0, *rep.Fidelity, 1e-6)

	img, err := media.Load(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 8), img.Bounds().Size())
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestConvert_Animation(t *testing.T) {
	dir := t.TempDir()
	in := writeGIF(t, filepath.Join(dir, "walk.gif"), 3)
	out := filepath.Join(dir, "walk.png")

	rep, err := Convert(context.Background(), in, out, params(), WithWorkers(2))
	require.NoError(t, err)

	assert.Equal(t, media.Animated, rep.Kind)
	assert.Equal(t, 3, rep.Frames)
	assert.Nil(t, rep.Fidelity)
	require.Equal(t, []string{
		filepath.Join(dir, "walk_frame0001.png"),
		filepath.Join(dir, "walk_frame0002.png"),
		filepath.Join(dir, "walk_frame0003.png"),
	}, rep.Outputs)

	for i, path := range rep.Outputs {
		img, err := media.Load(path)
		require.NoError(t, err)
		assert.Equal(t, image.Pt(8, 8), img.Bounds().Size())
		r, _, _, _ := img.At(0, 0).RGBA()
		if i%2 == 0 {
			assert.Equal(t, uint32(0xffff), r, "frame %d", i+1)
		} else {
			assert.Equal(t, uint32(0), r, "frame %d", i+1)
		}
	}
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "animations write numbered frames only")
}

func TestConvert_TruncatedAnimation(t *testing.T) {
	dir := t.TempDir()
	in := writeGIF(t, filepath.Join(dir, "walk.gif"), 6)
	data, err := os.ReadFile(in)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(in, data[:len(data)*3/4], 0o644))
	out := filepath.Join(dir, "walk.png")

	rep, err := Convert(context.Background(), in, out, params(), WithWorkers(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, sequence.ErrTruncated)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	require.NotNil(t, rep, "frames written before the damage are reported")
	assert.Equal(t, media.Animated, rep.Kind)
	assert.GreaterOrEqual(t, rep.Frames, 2)
	assert.Less(t, rep.Frames, 6)
	require.Len(t, rep.Outputs, rep.Frames)
	for i, path := range rep.Outputs {
		assert.Equal(t, media.FramePath(out, i+1), path)
		img, err := media.Load(path)
		require.NoError(t, err)
		assert.Equal(t, image.Pt(8, 8), img.Bounds().Size())
	}
	_, err = os.Stat(media.FramePath(out, rep.Frames+1))
	assert.True(t, os.IsNotExist(err))
}

func TestConvert_Failures(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	flat := writePNG(t, filepath.Join(dir, "flat.png"), image.NewGray(image.Rect(0, 0, 64, 64)))
	good := writePNG(t, filepath.Join(dir, "good.png"), checker(false))

	badParams := params()
	badParams.PreZoom = 0

	tests := []struct {
		name    string
		in      string
		out     string
		p       grid.Params
		wantErr error
	}{
		{"missing input", filepath.Join(dir, "missing.png"), "out1.png", params(), media.ErrDecode},
		{"undecodable input", junk, "out2.png", params(), media.ErrDecode},
		{"no grid", flat, "out3.png", params(), grid.ErrNoPeriodicity},
		{"unsupported output", good, "out4.xyz", params(), media.ErrEncode},
		{"invalid params", good, "out5.png", badParams, grid.ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.out)
			rep, err := Convert(context.Background(), tt.in, out, tt.p)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, rep)
			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr), "no output on failure")
		})
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	a := writePNG(t, filepath.Join(dir, "a.png"), checker(false))
	b := writePNG(t, filepath.Join(dir, "b.png"), image.NewGray(image.Rect(0, 0, 64, 64)))
	c := writeGIF(t, filepath.Join(dir, "c.gif"), 2)

	outputFor := func(in string) string { return OutputName("%s_converted.png", in, outDir) }
	br := Batch(context.Background(), []string{a, b, c}, outputFor, params())

	require.Len(t, br.Converted, 2)
	assert.Equal(t, a, br.Converted[0].Input)
	assert.Equal(t, c, br.Converted[1].Input)
	require.Len(t, br.Failed, 1)
	assert.Equal(t, b, br.Failed[0].Input)
	assert.ErrorIs(t, br.Failed[0].Err, grid.ErrNoPeriodicity)

	_, err := os.Stat(filepath.Join(outDir, "a_converted.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "c_converted_frame0002.png"))
	assert.NoError(t, err)
}

func TestBatch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, filepath.Join(dir, "a.png"), checker(false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	br := Batch(ctx, []string{a, a}, func(in string) string { return OutputName("%s_x.png", in, "") }, params())
	assert.Empty(t, br.Converted)
	require.Len(t, br.Failed, 2)
	assert.ErrorIs(t, br.Failed[1].Err, context.Canceled)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		pattern, in, dir, want string
	}{
		{"%s_converted.png", "/art/hero.jpg", "", "/art/hero_converted.png"},
		{"%s_converted.png", "/art/hero.jpg", "/out", "/out/hero_converted.png"},
		{"small_%s.bmp", "tiles.v2.gif", "", "small_tiles.v2.bmp"},
		{"%s.png", "/art/noext", "/o", "/o/noext.png"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputName(tt.pattern, tt.in, tt.dir))
		})
	}
}
