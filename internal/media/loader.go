package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

var (
	// ErrDecode is returned when an input cannot be read as an image or as
	// a frame source.
	ErrDecode = errors.New("decode failed")

	// ErrEncode is returned when an output cannot be written.
	ErrEncode = errors.New("encode failed")
)

// ImageCache provides thread-safe caching of decoded images keyed by path.
//
// The MCP server keeps one for its lifetime so that estimating a grid and
// then converting the same file decodes it once. Cached images remain in
// memory until Evict or Clear is called.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// The image is cached using the exact path string provided. Different paths
// to the same file (e.g., relative vs absolute) result in separate entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Load decodes the first frame of the image at path. Any format with a
// registered decoder is accepted: PNG, JPEG, GIF, BMP, TIFF and WebP.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(false))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// Save encodes img to path. The format is chosen from the extension of
// path; unsupported extensions fail before anything is created on disk.
func Save(path string, img image.Image) error {
	if err := CheckOutput(path); err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, path, err)
	}
	return nil
}

// CheckOutput reports whether path has an extension Save can encode.
func CheckOutput(path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, path, err)
	}
	return nil
}

// Info contains metadata about an image file.
type Info struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format name reported by the decoder, e.g. "png".
	Format string `json:"format"`

	// Kind says whether the file is a still image or an animation.
	Kind Kind `json:"kind"`

	// Frames is the number of frames (1 for stills).
	Frames int `json:"frames"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo probes path and returns its metadata. The first frame is loaded
// through cache.
func LoadInfo(cache *ImageCache, path string) (*Info, error) {
	p, err := Probe(path)
	if err != nil {
		return nil, err
	}
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	return &Info{
		Width:         img.Bounds().Dx(),
		Height:        img.Bounds().Dy(),
		Format:        p.Format,
		Kind:          p.Kind,
		Frames:        p.Frames,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

// FramePath names frame i (counting from 1) of an animated conversion whose
// requested output is out: "dir/name.png" becomes "dir/name_frame0001.png".
func FramePath(out string, i int) string {
	ext := filepath.Ext(out)
	stem := strings.TrimSuffix(out, ext)
	return fmt.Sprintf("%s_frame%04d%s", stem, i, ext)
}
