package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expected := map[string][]string{
		"image_load":          {"path"},
		"image_estimate_grid": {"path"},
		"image_repixelate":    {"path", "output"},
		"image_grid_overlay":  {"path"},
		"image_palette":       {"path"},
		"image_fidelity":      {"source", "output"},
	}
	if len(tools) != len(expected) {
		t.Fatalf("got %d tools, want %d", len(tools), len(expected))
	}

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			want, ok := expected[tool.Name]
			if !ok {
				t.Fatalf("unexpected tool %s", tool.Name)
			}
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			if len(required) != len(want) {
				t.Fatalf("required: got %v, want %v", required, want)
			}
			for i, r := range want {
				if required[i] != r {
					t.Errorf("required[%d]: got %s, want %s", i, required[i], r)
				}
				if _, ok := props[r]; !ok {
					t.Errorf("required property %s is not defined", r)
				}
			}
		})
	}
}

func TestToolDefinitions_AnalysisOverrides(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		switch tool.Name {
		case "image_estimate_grid", "image_repixelate", "image_grid_overlay":
		default:
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		for _, key := range []string{"pre_zoom", "noise_sigma", "edge_threshold"} {
			if _, ok := props[key]; !ok {
				t.Errorf("%s: missing %s", tool.Name, key)
			}
		}
	}
}
