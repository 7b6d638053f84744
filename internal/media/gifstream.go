package media

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
)

// GIF block introducers and labels.
const (
	gifExtension      = 0x21
	gifImageSeparator = 0x2C
	gifTrailer        = 0x3B
	gifGraphicControl = 0xF9
	gifHasColorTable  = 0x80
)

// gifStream walks the block structure of a GIF one frame at a time.
type gifStream struct {
	r *bufio.Reader

	// head is the header, logical screen descriptor and global color table.
	head          []byte
	width, height int
	done          bool
}

// gifFrame holds the raw blocks of one frame.
type gifFrame struct {
	control  []byte // graphic control extension, nil when absent
	image    []byte // image descriptor, local color table and LZW data
	disposal byte
}

func newGIFStream(r io.Reader) (*gifStream, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	head := make([]byte, 13)
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, fmt.Errorf("gif: reading header: %w", unexpected(err))
	}
	if !bytes.HasPrefix(head, []byte("GIF8")) {
		return nil, errors.New("gif: not a GIF file")
	}
	if head[10]&gifHasColorTable != 0 {
		table := make([]byte, colorTableSize(head[10]))
		if _, err := io.ReadFull(br, table); err != nil {
			return nil, fmt.Errorf("gif: reading color table: %w", unexpected(err))
		}
		head = append(head, table...)
	}
	// Graphic control extensions need the 89a header.
	copy(head, "GIF89a")

	return &gifStream{
		r:      br,
		head:   head,
		width:  int(binary.LittleEndian.Uint16(head[6:8])),
		height: int(binary.LittleEndian.Uint16(head[8:10])),
	}, nil
}

// next returns the blocks of the next frame, or io.EOF at the trailer. Input
// that ends before the trailer is an io.ErrUnexpectedEOF.
func (gs *gifStream) next() (*gifFrame, error) {
	if gs.done {
		return nil, io.EOF
	}

	var fr gifFrame
	for {
		c, err := gs.r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("gif: reading block: %w", unexpected(err))
		}

		switch c {
		case gifTrailer:
			gs.done = true
			return nil, io.EOF

		case gifExtension:
			label, err := gs.r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("gif: reading extension: %w", unexpected(err))
			}
			data, err := gs.subBlocks(nil)
			if err != nil {
				return nil, fmt.Errorf("gif: reading extension: %w", err)
			}
			// data is the length-prefixed block: 4, packed, delay, delay, index, 0
			if label == gifGraphicControl && len(data) >= 6 {
				fr.control = append([]byte{gifExtension, label}, data...)
				fr.disposal = (data[1] >> 2) & 0x07
			}

		case gifImageSeparator:
			desc := make([]byte, 10)
			desc[0] = c
			if _, err := io.ReadFull(gs.r, desc[1:]); err != nil {
				return nil, fmt.Errorf("gif: reading image descriptor: %w", unexpected(err))
			}
			if desc[9]&gifHasColorTable != 0 {
				table := make([]byte, colorTableSize(desc[9]))
				if _, err := io.ReadFull(gs.r, table); err != nil {
					return nil, fmt.Errorf("gif: reading local color table: %w", unexpected(err))
				}
				desc = append(desc, table...)
			}
			litWidth, err := gs.r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("gif: reading image data: %w", unexpected(err))
			}
			desc = append(desc, litWidth)
			if fr.image, err = gs.subBlocks(desc); err != nil {
				return nil, fmt.Errorf("gif: reading image data: %w", err)
			}
			return &fr, nil

		default:
			return nil, fmt.Errorf("gif: unknown block type 0x%02x", c)
		}
	}
}

// subBlocks appends length-prefixed data sub-blocks, terminator included,
// to buf.
func (gs *gifStream) subBlocks(buf []byte) ([]byte, error) {
	for {
		n, err := gs.r.ReadByte()
		if err != nil {
			return nil, unexpected(err)
		}
		buf = append(buf, n)
		if n == 0 {
			return buf, nil
		}
		start := len(buf)
		buf = append(buf, make([]byte, n)...)
		if _, err := io.ReadFull(gs.r, buf[start:]); err != nil {
			return nil, unexpected(err)
		}
	}
}

// decode wraps the frame in a one-frame GIF sharing the stream's screen and
// global palette and decodes it.
func (fr *gifFrame) decode(gs *gifStream) (image.Image, error) {
	buf := make([]byte, 0, len(gs.head)+len(fr.control)+len(fr.image)+1)
	buf = append(buf, gs.head...)
	buf = append(buf, fr.control...)
	buf = append(buf, fr.image...)
	buf = append(buf, gifTrailer)
	return gif.Decode(bytes.NewReader(buf))
}

func colorTableSize(packed byte) int {
	return 3 * (1 << (1 + uint(packed&0x07)))
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
