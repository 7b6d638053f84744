package media

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"os"
)

// Kind distinguishes single-image files from animations.
type Kind string

const (
	Still    Kind = "still"
	Animated Kind = "animated"
)

// ProbeResult is what Probe learns about a file without a full conversion.
type ProbeResult struct {
	Kind   Kind
	Format string
	Frames int
}

// Probe reports whether path holds a still image or a multi-frame
// animation. Only GIF animations are recognised; a single-frame GIF is a
// still. GIF frames are counted from their image descriptors without
// decoding pixels. A damaged GIF reports the frames found before the
// damage, as long as there is at least one.
func Probe(path string) (*ProbeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	_, format, err := image.DecodeConfig(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if format != "gif" {
		return &ProbeResult{Kind: Still, Format: format, Frames: 1}, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	n, err := countGIFFrames(bufio.NewReader(f))
	if n == 0 {
		if err == nil {
			err = errors.New("no frames")
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	kind := Still
	if n > 1 {
		kind = Animated
	}
	return &ProbeResult{Kind: kind, Format: format, Frames: n}, nil
}

func countGIFFrames(r io.Reader) (int, error) {
	gs, err := newGIFStream(r)
	if err != nil {
		return 0, err
	}
	n := 0
	for {
		if _, err := gs.next(); err != nil {
			if err == io.EOF {
				err = nil
			}
			return n, err
		}
		n++
	}
}

// GIFSource composites the frames of an animated GIF onto its logical
// screen, honouring each frame's disposal method. Frames are read and
// decoded one at a time, so a damaged frame fails only its own Next call.
type GIFSource struct {
	gs     *gifStream
	closer io.Closer
	canvas *image.NRGBA
	prev   *image.NRGBA

	// disposal and bounds of the last frame drawn
	lastDisposal byte
	lastBounds   image.Rectangle
	started      bool
}

// OpenFrames opens the animation at path. The file stays open until Close.
func OpenFrames(path string) (*GIFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	src, err := NewGIFSource(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	src.closer = f
	return src, nil
}

// NewGIFSource reads the GIF header from r. Frames are read by Next.
func NewGIFSource(r io.Reader) (*GIFSource, error) {
	gs, err := newGIFStream(r)
	if err != nil {
		return nil, err
	}
	return &GIFSource{
		gs:     gs,
		canvas: image.NewNRGBA(image.Rect(0, 0, gs.width, gs.height)),
	}, nil
}

// Next returns the next fully composited frame, or io.EOF after the last
// one. A damaged or missing frame returns an error that wraps
// io.ErrUnexpectedEOF or the decoder's error.
func (s *GIFSource) Next() (image.Image, error) {
	if s.gs == nil {
		return nil, io.EOF
	}

	raw, err := s.gs.next()
	if err != nil {
		return nil, err
	}
	frame, err := raw.decode(s.gs)
	if err != nil {
		return nil, err
	}

	if s.started {
		s.dispose()
	}
	if raw.disposal == gif.DisposalPrevious {
		s.prev = cloneNRGBA(s.canvas)
	}
	draw.Draw(s.canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
	s.lastDisposal, s.lastBounds, s.started = raw.disposal, frame.Bounds(), true

	return cloneNRGBA(s.canvas), nil
}

// Close releases the underlying file, if any.
func (s *GIFSource) Close() error {
	s.gs = nil
	s.canvas = nil
	s.prev = nil
	if s.closer != nil {
		c := s.closer
		s.closer = nil
		return c.Close()
	}
	return nil
}

// dispose applies the disposal method of the last frame before the next
// frame is drawn.
func (s *GIFSource) dispose() {
	switch s.lastDisposal {
	case gif.DisposalBackground:
		draw.Draw(s.canvas, s.lastBounds, image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		if s.prev != nil {
			draw.Draw(s.canvas, s.canvas.Bounds(), s.prev, image.Point{}, draw.Src)
		}
	}
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
