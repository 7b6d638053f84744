package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/repixelator/internal/convert"
	"github.com/ironsheep/repixelator/internal/grid"
	"github.com/ironsheep/repixelator/internal/inspect"
	"github.com/ironsheep/repixelator/internal/media"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_repixelate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_estimate_grid":
		return s.handleEstimateGrid(args)
	case "image_repixelate":
		return s.handleRepixelate(args)
	case "image_grid_overlay":
		return s.handleGridOverlay(args)
	case "image_palette":
		return s.handlePalette(args)
	case "image_fidelity":
		return s.handleFidelity(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// analysisArgs are optional per-call overrides of the configured parameters.
type analysisArgs struct {
	PreZoom       *int     `json:"pre_zoom"`
	NoiseSigma    *float64 `json:"noise_sigma"`
	EdgeThreshold *float64 `json:"edge_threshold"`
}

func (s *Server) params(a analysisArgs) (grid.Params, error) {
	p := s.cfg.Params()
	if a.PreZoom != nil {
		p.PreZoom = *a.PreZoom
	}
	if a.NoiseSigma != nil {
		p.NoiseSigma = *a.NoiseSigma
	}
	if a.EdgeThreshold != nil {
		p.EdgeThreshold = *a.EdgeThreshold
	}
	return p, p.Validate()
}

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return media.LoadInfo(s.cache, a.Path)
}

type estimateGridArgs struct {
	Path string `json:"path"`
	analysisArgs
}

func (s *Server) handleEstimateGrid(args json.RawMessage) (interface{}, error) {
	var a estimateGridArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.params(a.analysisArgs)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return grid.Analyze(img, p)
}

type repixelateArgs struct {
	Path     string `json:"path"`
	Output   string `json:"output"`
	Fidelity bool   `json:"fidelity"`
	analysisArgs
}

func (s *Server) handleRepixelate(args json.RawMessage) (interface{}, error) {
	var a repixelateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" || a.Output == "" {
		return nil, fmt.Errorf("path and output are required")
	}
	p, err := s.params(a.analysisArgs)
	if err != nil {
		return nil, err
	}

	opts := []convert.Option{convert.WithWorkers(s.cfg.Workers)}
	if a.Fidelity {
		opts = append(opts, convert.WithFidelity())
	}
	rep, err := convert.Convert(context.Background(), a.Path, a.Output, p, opts...)
	if rep != nil {
		for _, out := range rep.Outputs {
			s.cache.Evict(out)
		}
	}
	if err != nil {
		return nil, err
	}
	return rep, nil
}

type fidelityArgs struct {
	Source string `json:"source"`
	Output string `json:"output"`
}

// FidelityResult is returned by image_fidelity.
type FidelityResult struct {
	Fidelity     float64 `json:"fidelity"`
	SourceWidth  int     `json:"source_width"`
	SourceHeight int     `json:"source_height"`
	OutputWidth  int     `json:"output_width"`
	OutputHeight int     `json:"output_height"`
}

func (s *Server) handleFidelity(args json.RawMessage) (interface{}, error) {
	var a fidelityArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := s.cache.Load(a.Source)
	if err != nil {
		return nil, err
	}
	out, err := media.Load(a.Output)
	if err != nil {
		return nil, err
	}
	sb, ob := src.Bounds(), out.Bounds()
	if ob.Dx() > sb.Dx() || ob.Dy() > sb.Dy() {
		return nil, fmt.Errorf("output %dx%d is larger than source %dx%d", ob.Dx(), ob.Dy(), sb.Dx(), sb.Dy())
	}
	return &FidelityResult{
		Fidelity:     grid.Fidelity(src, out),
		SourceWidth:  sb.Dx(),
		SourceHeight: sb.Dy(),
		OutputWidth:  ob.Dx(),
		OutputHeight: ob.Dy(),
	}, nil
}

type gridOverlayArgs struct {
	Path   string `json:"path"`
	Color  string `json:"color"`
	Output string `json:"output"`
	analysisArgs
}

// GridOverlayResult is returned by image_grid_overlay.
type GridOverlayResult struct {
	*inspect.EncodedImage
	Estimate *grid.Estimate `json:"estimate"`
	Output   string         `json:"output,omitempty"`
}

func (s *Server) handleGridOverlay(args json.RawMessage) (interface{}, error) {
	var a gridOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.params(a.analysisArgs)
	if err != nil {
		return nil, err
	}
	line := inspect.DefaultLineColor
	if a.Color != "" {
		if line, err = inspect.ParseHexColor(a.Color); err != nil {
			return nil, err
		}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	est, err := grid.Analyze(img, p)
	if err != nil {
		return nil, err
	}
	overlay := inspect.GridOverlay(img, est, line)
	if a.Output != "" {
		if err := media.Save(a.Output, overlay); err != nil {
			return nil, err
		}
		s.cache.Evict(a.Output)
	}
	enc, err := inspect.EncodePNG(overlay)
	if err != nil {
		return nil, err
	}
	return &GridOverlayResult{EncodedImage: enc, Estimate: est, Output: a.Output}, nil
}

type paletteArgs struct {
	Path  string `json:"path"`
	Limit *int   `json:"limit"`
}

// PaletteResult is returned by image_palette.
type PaletteResult struct {
	Distinct int                    `json:"distinct"`
	Colors   []inspect.PaletteEntry `json:"colors"`
}

func (s *Server) handlePalette(args json.RawMessage) (interface{}, error) {
	var a paletteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	limit := 32
	if a.Limit != nil {
		limit = *a.Limit
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	colors, distinct := inspect.Palette(img, limit)
	return &PaletteResult{Distinct: distinct, Colors: colors}, nil
}
