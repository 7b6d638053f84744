// Package media adapts files on disk to the in-memory images the grid and
// sequence packages work on.
//
// Decoding goes through imaging.Open with every registered format (PNG, JPEG,
// GIF, BMP, TIFF, WebP). Encoding goes through imaging.Save, which picks the
// format from the output extension. Probe tells still images from animations
// up front so callers never use a decode failure to switch code paths.
//
// All failures wrap ErrDecode or ErrEncode.
package media
