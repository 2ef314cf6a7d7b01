package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/labelscan/internal/nutrition"
	"github.com/ironsheep/labelscan/internal/ocr"
	"github.com/ironsheep/labelscan/internal/offacts"
	"github.com/ironsheep/labelscan/internal/session"
	"github.com/ironsheep/labelscan/internal/storage"
)

const referenceText = "energy 250kcal sugars 12g salt 1.2g fat 9g saturated fat 3g carbohydrates 30g fiber 2g protein 5g"

// cannedEngine returns fixed text per configuration index.
type cannedEngine map[int]string

func (e cannedEngine) Recognize(ctx context.Context, img *image.Gray, cfg ocr.Config) (string, error) {
	return e[cfg.Index], nil
}

type stubProducts map[string]*offacts.Product

func (p stubProducts) Lookup(ctx context.Context, code string) (*offacts.Product, error) {
	if product, ok := p[code]; ok {
		return product, nil
	}
	return nil, &offacts.NotFoundError{Barcode: code, Reason: "product not found"}
}

type testEnv struct {
	server *Server
	store  *storage.SQLiteStore
}

func newTestServer(t *testing.T, texts cannedEngine) *testEnv {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	nova := 4
	products := stubProducts{
		"3017620422003": {
			Barcode: "3017620422003",
			Nutrients: nutrition.Record{
				EnergyKcal:   nutrition.Float(539),
				Fat:          nutrition.Float(30.9),
				SaturatedFat: nutrition.Float(10.6),
				Sugars:       nutrition.Float(56.3),
				Protein:      nutrition.Float(6.3),
				Salt:         nutrition.Float(0.107),
			},
			Metadata: nutrition.Metadata{
				ProductName:  "Hazelnut spread",
				NovaGroup:    &nova,
				AdditiveTags: []string{"en:e322"},
			},
			Additives: []string{offacts.FormatAdditive("en:e322")},
		},
	}

	logger := log.New(io.Discard, "", 0)
	pipeline := session.NewPipeline(ocr.NewRunner(texts, logger), products, "", logger)
	manager := session.NewManager(pipeline, store, nil, logger)

	return &testEnv{
		server: New(manager, store, "test"),
		store:  store,
	}
}

// createLabelFile writes a small label-like PNG and returns its path.
func createLabelFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "label.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, createLabelImage()); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func createLabelImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 160, 100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{250, 248, 240, 255}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(20, 40, 140, 44), image.NewUniform(color.RGBA{10, 10, 10, 255}), image.Point{}, draw.Src)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// callTool runs a tools/call request and decodes the text content into out.
// It returns the JSON-RPC error, if any.
func callTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) *MCPError {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("Result should be a map, got %T", resp.Result)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("failed to decode tool result: %v", err)
		}
	}
	return nil
}
