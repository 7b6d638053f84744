package sequence

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/repixelator/internal/grid"
)

// sliceSource serves frames from memory and fails with failErr at index
// failAt when failErr is set.
type sliceSource struct {
	frames  []image.Image
	next    int
	failAt  int
	failErr error
}

func (s *sliceSource) Next() (image.Image, error) {
	if s.failErr != nil && s.next == s.failAt {
		return nil, s.failErr
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	img := s.frames[s.next]
	s.next++
	return img, nil
}

// spriteFrame draws an 8x8 checkerboard of 16 pixel blocks with a little
// per-frame noise so no two frames are identical.
func spriteFrame(seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := 60
			if (x/16+y/16)%2 == 0 {
				v = 200
			}
			v += rng.Intn(7) - 3
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(v), G: uint8(v), B: uint8(v), A: 255})
		}
	}
	return img
}

func sprites(n int) []image.Image {
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = spriteFrame(int64(i + 1))
	}
	return frames
}

// shiftedFrame draws an 8x8 checkerboard of 16 pixel blocks whose columns
// start shift pixels into the image.
func shiftedFrame(shift int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := uint8(60)
			if ((x+16-shift)/16+y/16)%2 == 0 {
				v = 200
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func testParams() grid.Params {
	p := grid.DefaultParams()
	p.PreZoom = 1
	return p
}

func TestProcess_ConsistentDimensions(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 8} {
		t.Run("workers", func(t *testing.T) {
			proc := &Processor{Params: testParams(), Workers: workers}
			var got []Frame

			sum, err := proc.Process(context.Background(), &sliceSource{frames: sprites(7)}, func(f Frame) error {
				got = append(got, f)
				return nil
			})
			require.NoError(t, err)

			assert.Equal(t, 7, sum.Frames)
			assert.Equal(t, 8, sum.Estimate.CountX)
			assert.Equal(t, 8, sum.Estimate.CountY)
			require.Len(t, got, 7)
			for i, f := range got {
				assert.Equal(t, i+1, f.Index, "frames are emitted in source order")
				assert.Equal(t, image.Rect(0, 0, 8, 8), f.Image.Bounds())
				// Block (0,0) is light, block (1,0) dark, whatever the noise.
				assert.InDelta(t, 200, int(f.Image.NRGBAAt(0, 0).R), 3)
				assert.InDelta(t, 60, int(f.Image.NRGBAAt(1, 0).R), 3)
			}
		})
	}
}

func TestProcess_FirstFrameFailure(t *testing.T) {
	flat := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	src := &sliceSource{frames: []image.Image{flat, spriteFrame(1)}}

	emitted := 0
	sum, err := (&Processor{Params: testParams()}).Process(context.Background(), src, func(Frame) error {
		emitted++
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, grid.ErrNoPeriodicity)
	assert.Nil(t, sum)
	assert.Zero(t, emitted)
}

func TestProcess_EmptySource(t *testing.T) {
	_, err := (&Processor{Params: testParams()}).Process(context.Background(), &sliceSource{}, func(Frame) error { return nil })
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestProcess_FirstReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := (&Processor{Params: testParams()}).Process(context.Background(),
		&sliceSource{frames: sprites(2), failErr: boom}, func(Frame) error { return nil })
	assert.ErrorIs(t, err, boom)
}

func TestProcess_TruncatedSequence(t *testing.T) {
	boom := errors.New("corrupt frame")
	src := &sliceSource{frames: sprites(5), failAt: 3, failErr: boom}

	var got []int
	sum, err := (&Processor{Params: testParams(), Workers: 2}).Process(context.Background(), src, func(f Frame) error {
		got = append(got, f.Index)
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 3, sum.Frames)
}

func TestProcess_EmitErrorAborts(t *testing.T) {
	stop := errors.New("disk full")
	calls := 0
	sum, err := (&Processor{Params: testParams()}).Process(context.Background(), &sliceSource{frames: sprites(4)}, func(f Frame) error {
		calls++
		if f.Index == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, sum.Frames)
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &sliceSource{frames: sprites(4)}

	sum, err := (&Processor{Params: testParams()}).Process(ctx, src, func(f Frame) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sum.Frames)
	assert.Equal(t, 1, src.next, "no frame is read after cancellation")
}

func TestProcess_DisablesEdgeExtension(t *testing.T) {
	// A grid shifted by half a block would grow the canvas for a still.
	img := image.NewNRGBA(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := uint8(60)
			if ((x+8)/16+y/16)%2 == 0 {
				v = 200
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	proc := &Processor{Params: testParams()}
	sum, err := proc.Process(context.Background(), &sliceSource{frames: []image.Image{img, img}}, func(Frame) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Estimate.ExtendX)
	assert.Equal(t, 8, sum.Estimate.CountX)
}

func TestProcess_IdenticalFramesMatch(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run("workers", func(t *testing.T) {
			img := shiftedFrame(6)
			frames := []image.Image{img, img, img}

			var got []*image.NRGBA
			sum, err := (&Processor{Params: testParams(), Workers: workers}).Process(context.Background(),
				&sliceSource{frames: frames}, func(f Frame) error {
					got = append(got, f.Image)
					return nil
				})
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.NotZero(t, sum.Transform.ShiftX, "grid should need alignment")

			for i := 1; i < len(got); i++ {
				assert.Equal(t, got[0].Pix, got[i].Pix, "frame %d differs from frame 1", i+1)
			}
		})
	}
}
