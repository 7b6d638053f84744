package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

// analysisProperties are the optional overrides shared by the grid tools.
// Omitted values fall back to the server configuration.
func analysisProperties() map[string]interface{} {
	return map[string]interface{}{
		"pre_zoom": map[string]interface{}{
			"type":        "integer",
			"minimum":     1,
			"description": "Bilinear upscale factor applied before edge detection",
		},
		"noise_sigma": map[string]interface{}{
			"type":        "number",
			"minimum":     0,
			"description": "Gaussian blur sigma applied before edge detection; 0 disables it",
		},
		"edge_threshold": map[string]interface{}{
			"type":        "number",
			"minimum":     0,
			"description": "Grid offset, in source pixels, beyond which a partial block is added at the edge; 0 disables it",
		},
	}
}

func withPath(props map[string]interface{}, keys ...string) map[string]interface{} {
	for _, k := range keys {
		props[k] = pathProperty("Absolute path to the " + k + " image")
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, frame count and whether it is animated.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_estimate_grid",
			Description: "Estimate the pixel-art grid of an upscaled image: block size, block counts, grid phase and any partial edge blocks. Nothing is written.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withPath(analysisProperties(), "path"),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_repixelate",
			Description: "Downsample an upscaled pixel-art image to one pixel per block and write it to output. Animated GIFs write one numbered file per frame.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": func() map[string]interface{} {
					props := withPath(analysisProperties(), "path", "output")
					props["fidelity"] = map[string]interface{}{
						"type":        "boolean",
						"description": "Also report the mean Lab distance between source and result (stills only)",
						"default":     false,
					}
					return props
				}(),
				"required": []string{"path", "output"},
			},
		},
		{
			Name:        "image_grid_overlay",
			Description: "Draw the estimated block grid over the source image and return it as base64-encoded PNG, to check the estimate by eye. Optionally also write it to output.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": func() map[string]interface{} {
					props := withPath(analysisProperties(), "path")
					props["color"] = map[string]interface{}{
						"type":        "string",
						"description": "Line color as #RRGGBB or #RRGGBBAA. Default semi-transparent red",
						"default":     "#FF0000A0",
					}
					props["output"] = pathProperty("Optional path to also write the overlay to")
					return props
				}(),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_palette",
			Description: "List the exact colors of an image, most frequent first. A clean repixelated sprite has a small palette.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of colors to return. Default 32, 0 for all",
						"default":     32,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_fidelity",
			Description: "Score a repixelated image against its source: the output is re-enlarged with nearest neighbour and compared per pixel in Lab space. 0 means identical.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withPath(map[string]interface{}{}, "source", "output"),
				"required":   []string{"source", "output"},
			},
		},
	}
}
