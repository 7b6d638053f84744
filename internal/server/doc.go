// Package server implements an MCP (Model Context Protocol) server that
// exposes grid estimation and repixelation as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load an image and report its metadata and frame count
//   - image_estimate_grid: Estimate block size, counts and phase without writing
//   - image_repixelate: Convert a still or animated file and write the result
//   - image_grid_overlay: Draw the estimated grid over the source as base64 PNG
//   - image_palette: List the exact colors of an image by frequency
//   - image_fidelity: Score an output against its source in Lab space
//
// The grid tools accept pre_zoom, noise_sigma and edge_threshold. Omitted
// values come from the configuration the server was started with.
//
// # Image Caching
//
// Source images are cached by path for the lifetime of the process, so
// estimating and then converting the same file decodes it once. Files the
// server writes are evicted from the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
