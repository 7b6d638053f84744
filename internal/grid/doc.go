// Package grid recovers the original resolution of block-enlarged pixel art.
//
// An enlarged image is made of pixel blocks: runs of same-colored samples that
// each stand for one original pixel. The block boundaries form a regular grid
// whose period (block size) and phase (position of the first boundary) are
// estimated in the frequency domain, then the image is aligned to that grid and
// area-averaged back down to one sample per block.
//
// # Algorithm
//
//  1. Pre-zoom: bilinear upscale by Params.PreZoom so sub-pixel offsets can be
//     resolved after dividing results back down.
//  2. Edge signals: luminance (ITU-R BT.601), optional Gaussian smoothing,
//     Scharr gradients, collapsed to one line per axis and log-compressed.
//  3. Spectral peak: the strongest DFT bin above a search start index gives the
//     block count along that axis, and its phase gives the grid alignment.
//  4. Edge extension: a large offset means one block is only partially
//     visible, so the canvas grows by one period on that side.
//  5. Alignment and resample: integer translation with replicated borders,
//     then area averaging to CountX x CountY.
//
// # Units
//
// Internal geometry is carried in pre-zoomed pixels. Values reported in an
// Estimate (periods, offsets) are divided by PreZoom so they are expressed in
// pixels of the image the caller passed in. Phases are in degrees.
//
// # Thread Safety
//
// All functions are stateless. Independent images may be processed
// concurrently; the input image is never modified.
package grid
