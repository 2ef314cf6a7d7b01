package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/nutrition"
	"github.com/ironsheep/labelscan/internal/ocr"
	"github.com/ironsheep/labelscan/internal/offacts"
	"github.com/ironsheep/labelscan/internal/scoring"
	"github.com/ironsheep/labelscan/internal/session"
	"github.com/ironsheep/labelscan/internal/storage"
)

// defaultPreviewMax bounds the longest side of preview images.
const defaultPreviewMax = 800

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "label_extract", "label_accept").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
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

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Verification Loop
	case "label_extract":
		return s.handleLabelExtract(ctx, args)
	case "label_grid":
		return s.handleLabelGrid(args)
	case "label_retry":
		return s.handleLabelRetry(ctx, args)
	case "label_accept":
		return s.handleLabelAccept(ctx, args)
	case "label_abandon":
		return s.handleLabelAbandon(args)
	case "label_status":
		return s.handleLabelStatus(args)

	// Product Data
	case "barcode_lookup":
		return s.handleBarcodeLookup(ctx, args)

	// Nutrition Helpers
	case "nutrition_parse":
		return s.handleNutritionParse(args)
	case "nutrition_score":
		return s.handleNutritionScore(args)

	// OCR and History
	case "ocr_configs":
		return s.handleOCRConfigs()
	case "results_list":
		return s.handleResultsList(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// policy resolves a policy name, falling back to the configured default.
func (s *Server) policy(name string) (scoring.Policy, error) {
	if strings.TrimSpace(name) == "" {
		return s.sessions.Policy(), nil
	}
	return scoring.PolicyByName(name)
}

// === Verification Loop Handlers ===

// sessionResult is a session snapshot with an optional preview attached.
type sessionResult struct {
	session.Snapshot
	Preview *imaging.Preview `json:"preview,omitempty"`
}

func (s *Server) withPreview(snap session.Snapshot, want bool, maxSide int) (*sessionResult, error) {
	res := &sessionResult{Snapshot: snap}
	if !want {
		return res, nil
	}
	if maxSide <= 0 {
		maxSide = defaultPreviewMax
	}
	p, err := s.sessions.Preview(snap.ID, maxSide)
	if err != nil {
		return nil, err
	}
	res.Preview = p
	return res, nil
}

type labelExtractArgs struct {
	Path        string          `json:"path"`
	ImageBase64 string          `json:"image_base64"`
	Barcode     string          `json:"barcode"`
	Region      string          `json:"region"`
	Crop        *imaging.Region `json:"crop"`
	Preview     bool            `json:"preview"`
	PreviewMax  int             `json:"preview_max"`
}

func loadImage(path, encoded string) (image.Image, string, error) {
	switch {
	case path != "":
		return imaging.Open(path)
	case encoded != "":
		// Tolerate data URLs pasted from a browser.
		if i := strings.Index(encoded, ";base64,"); i >= 0 {
			encoded = encoded[i+len(";base64,"):]
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("%w: invalid base64: %v", imaging.ErrUndecodable, err)
		}
		return imaging.Decode(bytes.NewReader(data))
	default:
		return nil, "", errors.New("either path or image_base64 is required")
	}
}

func (s *Server) handleLabelExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a labelExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, format, err := loadImage(a.Path, a.ImageBase64)
	if err != nil {
		return nil, err
	}

	up := session.Upload{Image: img, Format: format, Barcode: a.Barcode}
	switch {
	case a.Crop != nil:
		up.Region = a.Crop
	case a.Region == autoRegion:
		up.Locate = true
	case a.Region != "" && a.Region != "full":
		r, err := imaging.NamedRegion(img, a.Region)
		if err != nil {
			return nil, err
		}
		up.Region = &r
	}

	snap, err := s.sessions.Start(ctx, up)
	if err != nil {
		return nil, err
	}
	return s.withPreview(snap, a.Preview, a.PreviewMax)
}

type labelGridArgs struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
	Spacing     int    `json:"spacing"`
	Color       string `json:"color"`
	PreviewMax  *int   `json:"preview_max"`
}

func (s *Server) handleLabelGrid(args json.RawMessage) (interface{}, error) {
	var a labelGridArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, _, err := loadImage(a.Path, a.ImageBase64)
	if err != nil {
		return nil, err
	}
	gridColor, err := imaging.ParseGridColor(a.Color)
	if err != nil {
		return nil, err
	}
	maxSide := defaultPreviewMax
	if a.PreviewMax != nil {
		maxSide = *a.PreviewMax
	}
	return imaging.NewGridPreview(img, maxSide, a.Spacing, gridColor)
}

type labelRetryArgs struct {
	SessionID  string `json:"session_id"`
	Preview    bool   `json:"preview"`
	PreviewMax int    `json:"preview_max"`
}

func (s *Server) handleLabelRetry(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a labelRetryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	snap, err := s.sessions.Retry(ctx, a.SessionID)
	if err != nil {
		return nil, err
	}
	return s.withPreview(snap, a.Preview, a.PreviewMax)
}

type labelAcceptArgs struct {
	SessionID string            `json:"session_id"`
	Overrides session.Overrides `json:"overrides"`
	Policy    string            `json:"policy"`
}

func (s *Server) handleLabelAccept(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a labelAcceptArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	policy, err := s.policy(a.Policy)
	if err != nil {
		return nil, err
	}
	return s.sessions.Accept(ctx, a.SessionID, a.Overrides, policy)
}

type sessionIDArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleLabelAbandon(args json.RawMessage) (interface{}, error) {
	var a sessionIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := s.sessions.Abandon(a.SessionID); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"session_id": a.SessionID,
		"abandoned":  true,
	}, nil
}

func (s *Server) handleLabelStatus(args json.RawMessage) (interface{}, error) {
	var a sessionIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.SessionID == "" {
		return map[string]interface{}{
			"sessions": s.sessions.List(),
		}, nil
	}
	return s.sessions.Get(a.SessionID)
}

// === Product Data Handlers ===

type barcodeLookupArgs struct {
	Barcode string `json:"barcode"`
	Policy  string `json:"policy"`
}

type productResult struct {
	Product *offacts.Product `json:"product"`
	Score   scoring.Result   `json:"score"`
}

func (s *Server) handleBarcodeLookup(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a barcodeLookupArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	policy, err := s.policy(a.Policy)
	if err != nil {
		return nil, err
	}
	product, err := s.sessions.Pipeline().Product(ctx, a.Barcode)
	if err != nil {
		return nil, err
	}
	return &productResult{
		Product: product,
		Score:   scoring.Evaluate(policy, product.Nutrients, product.Metadata),
	}, nil
}

// === Nutrition Helper Handlers ===

type nutritionParseArgs struct {
	Text string `json:"text"`
}

func (s *Server) handleNutritionParse(args json.RawMessage) (interface{}, error) {
	var a nutritionParseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	clean := nutrition.Sanitize(a.Text)
	return map[string]interface{}{
		"sanitized": clean,
		"record":    nutrition.Parse(clean),
	}, nil
}

type nutritionScoreArgs struct {
	Record       session.Overrides `json:"record"`
	Policy       string            `json:"policy"`
	NovaGroup    *int              `json:"nova_group"`
	AdditiveTags []string          `json:"additives_tags"`
	AnalysisTags []string          `json:"ingredients_analysis_tags"`
}

func (s *Server) handleNutritionScore(args json.RawMessage) (interface{}, error) {
	var a nutritionScoreArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	policy, err := s.policy(a.Policy)
	if err != nil {
		return nil, err
	}
	record, err := a.Record.Record()
	if err != nil {
		return nil, err
	}
	meta := nutrition.Metadata{
		NovaGroup:    a.NovaGroup,
		AdditiveTags: a.AdditiveTags,
		AnalysisTags: a.AnalysisTags,
	}
	return scoring.Evaluate(policy, record, meta), nil
}

// === OCR and History Handlers ===

func (s *Server) handleOCRConfigs() (interface{}, error) {
	return map[string]interface{}{
		"engine":  ocr.Version(),
		"configs": ocr.Configs(),
	}, nil
}

type resultsListArgs struct {
	ID      string `json:"id"`
	Barcode string `json:"barcode"`
	Limit   int    `json:"limit"`
}

func (s *Server) handleResultsList(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a resultsListArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.results == nil {
		return nil, errors.New("result history is disabled")
	}
	if a.ID != "" {
		return s.results.GetResult(ctx, a.ID)
	}
	results, err := s.results.ListResults(ctx, a.Barcode, a.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"results": results,
		"count":   len(results),
	}, nil
}

var _ ResultReader = (*storage.SQLiteStore)(nil)
