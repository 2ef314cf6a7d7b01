package server

import (
	"context"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"label_extract",
		"label_grid",
		"label_retry",
		"label_accept",
		"label_abandon",
		"label_status",
		"barcode_lookup",
		"nutrition_parse",
		"nutrition_score",
		"ocr_configs",
		"results_list",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}
		})
	}
}

func TestToolDefinitions_RequiredSessionID(t *testing.T) {
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, name := range []string{"label_retry", "label_accept", "label_abandon"} {
		t.Run(name, func(t *testing.T) {
			required, ok := toolMap[name].InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			found := false
			for _, r := range required {
				if r == "session_id" {
					found = true
				}
			}
			if !found {
				t.Error("Tool should require 'session_id'")
			}
		})
	}
}

func TestToolDefinitions_ExtractRegions(t *testing.T) {
	var tool Tool
	for _, tt := range GetToolDefinitions() {
		if tt.Name == "label_extract" {
			tool = tt
		}
	}

	props := tool.InputSchema["properties"].(map[string]interface{})
	region, ok := props["region"].(map[string]interface{})
	if !ok {
		t.Fatal("region property should exist")
	}
	enum, ok := region["enum"].([]string)
	if !ok || len(enum) != 11 || enum[0] != autoRegion {
		t.Errorf("region enum: got %v", region["enum"])
	}

	preview, ok := props["preview_max"].(map[string]interface{})
	if !ok || preview["default"] != defaultPreviewMax {
		t.Errorf("preview_max default: got %v", props["preview_max"])
	}
}

func TestToolDefinitions_PolicyEnum(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		props := tool.InputSchema["properties"].(map[string]interface{})
		p, ok := props["policy"].(map[string]interface{})
		if !ok {
			continue
		}
		enum, _ := p["enum"].([]string)
		if len(enum) != 2 || enum[0] != "indian" || enum[1] != "threshold" {
			t.Errorf("%s: policy enum = %v", tool.Name, enum)
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t, nil).server

	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
