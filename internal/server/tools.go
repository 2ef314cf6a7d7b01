package server

import (
	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/nutrition"
	"github.com/ironsheep/labelscan/internal/scoring"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// autoRegion asks for the nutrition panel to be located automatically.
const autoRegion = "auto"

var namedRegions = []string{autoRegion, "full", "top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center"}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID returned by label_extract",
	}
}

func policyProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        scoring.PolicyNames(),
		"description": "Nutri-Score policy. Defaults to the server's configured policy",
	}
}

func previewProperties(props map[string]interface{}) map[string]interface{} {
	props["preview"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Include a base64 PNG of the binarized image OCR read",
		"default":     false,
	}
	props["preview_max"] = map[string]interface{}{
		"type":        "integer",
		"description": "Longest side of the preview in pixels (default 800)",
		"default":     defaultPreviewMax,
	}
	return props
}

func nutrientProperties() map[string]interface{} {
	props := make(map[string]interface{})
	for _, n := range nutrition.Nutrients() {
		unit := "g per 100 g"
		if n == nutrition.EnergyKcal {
			unit = "kcal per 100 g"
		}
		props[string(n)] = map[string]interface{}{
			"type":        []string{"number", "string", "null"},
			"description": unit,
		}
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Verification Loop
		{
			Name:        "label_extract",
			Description: "Start a verification session from a nutrition-label photograph. The image is enhanced and binarized, read with every OCR configuration, parsed into per-100g nutrition facts and, when a barcode is given, reconciled with Open Food Facts data. Review the record, then call label_retry or label_accept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": previewProperties(map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the label photograph",
					},
					"image_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded photograph, used when path is not given",
					},
					"barcode": map[string]interface{}{
						"type":        "string",
						"description": "Optional EAN/UPC barcode (8-13 digits)",
					},
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        namedRegions,
						"description": "Part of the photograph holding the nutrition panel; auto locates the densest block of text",
					},
					"crop": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required":    []string{"x1", "y1", "x2", "y2"},
						"description": "Exact panel rectangle in pixels; overrides region",
					},
				}),
			},
		},
		{
			Name:        "label_grid",
			Description: "Draw a labelled coordinate grid over a photograph so a crop rectangle for label_extract can be read off it. Labels are in photograph pixels even when the preview is shrunk.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the photograph",
					},
					"image_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded photograph, used when path is not given",
					},
					"spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Grid pitch in photograph pixels (default 100)",
						"default":     imaging.DefaultGridSpacing,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Grid colour as #RRGGBB (default red)",
					},
					"preview_max": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the preview in pixels (default 800)",
						"default":     defaultPreviewMax,
					},
				},
			},
		},
		{
			Name:        "label_retry",
			Description: "Re-read the label with the next OCR configuration. Configurations cycle column, paragraph, single-line, sparse, multi-column and wrap around.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": previewProperties(map[string]interface{}{
					"session_id": sessionIDProperty(),
				}),
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "label_accept",
			Description: "Accept the current record, optionally correcting individual values, and grade it. Accepted results are stored and the session becomes read-only.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"overrides": map[string]interface{}{
						"type":        "object",
						"properties":  nutrientProperties(),
						"description": "Manual corrections. Values must be non-negative; a decimal comma is accepted",
					},
					"policy": policyProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "label_abandon",
			Description: "Discard a session without storing anything.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "label_status",
			Description: "Show a session's state, current OCR configuration and record. Without session_id, lists all live sessions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
			},
		},

		// Product Data
		{
			Name:        "barcode_lookup",
			Description: "Look a barcode up in Open Food Facts and grade the product without a photograph.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"barcode": map[string]interface{}{
						"type":        "string",
						"description": "EAN/UPC barcode (8-13 digits)",
					},
					"policy": policyProperty(),
				},
				"required": []string{"barcode"},
			},
		},

		// Nutrition Helpers
		{
			Name:        "nutrition_parse",
			Description: "Sanitize OCR text and parse per-100g nutrition facts from it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Raw label text",
					},
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "nutrition_score",
			Description: "Grade a nutrition record and estimate its NOVA processing group.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"record": map[string]interface{}{
						"type":        "object",
						"properties":  nutrientProperties(),
						"description": "Nutrition facts per 100 g; missing values count as zero",
					},
					"policy": policyProperty(),
					"nova_group": map[string]interface{}{
						"type":        "integer",
						"description": "Declared NOVA group, if known",
					},
					"additives_tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Additive tags such as en:e330",
					},
					"ingredients_analysis_tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Ingredient analysis tags",
					},
				},
				"required": []string{"record"},
			},
		},

		// OCR and History
		{
			Name:        "ocr_configs",
			Description: "List the OCR configuration cycle and the engine version.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "results_list",
			Description: "List accepted results, newest first, or fetch one by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Fetch a single result by session ID",
					},
					"barcode": map[string]interface{}{
						"type":        "string",
						"description": "Only results for this barcode",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of results (default 50)",
						"default":     50,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
