package offacts

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Open Food Facts instance.
const DefaultBaseURL = "https://world.openfoodfacts.org"

// DefaultTimeout bounds a lookup when the caller does not configure one.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// Client looks products up by barcode.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewClient creates a Client. Zero values select DefaultBaseURL and
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Lookup fetches the product for code.
//
// Returns:
//   - ErrInvalidBarcode (wrapped) before any request when code is not 8-13
//     digits.
//   - *NotFoundError for every other failure: transport errors, timeouts,
//     non-200 statuses, malformed payloads and unknown products.
func (c *Client) Lookup(ctx context.Context, code string) (*Product, error) {
	code, err := ValidateBarcode(code)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v0/product/%s.json", c.BaseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NotFoundError{Barcode: code, Reason: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NotFoundError{Barcode: code, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NotFoundError{Barcode: code, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NotFoundError{Barcode: code, Reason: "failed to read response", Err: err}
	}

	p, err := ParseProduct(code, body)
	if err != nil {
		return nil, err
	}
	if len(p.Dropped) > 0 {
		c.logf("offacts: %s: dropped invalid nutrients %v", code, p.Dropped)
	}
	c.logf("offacts: %s found in %v", code, time.Since(start).Round(time.Millisecond))
	return p, nil
}
