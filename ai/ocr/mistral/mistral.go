// Package mistral implements ocr.Provider against the Mistral OCR API.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/doccraft/ai/ocr"
)

// DefaultBaseURL is the public Mistral API endpoint
const DefaultBaseURL = "https://api.mistral.ai"

// APIError is returned when the service answers with a non-2xx status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mistral ocr error %d: %s", e.StatusCode, e.Body)
}

// Provider calls POST {base}/v1/ocr
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ProviderOption configures a Provider
type ProviderOption func(*Provider)

// WithBaseURL overrides the API endpoint
func WithBaseURL(url string) ProviderOption {
	return func(p *Provider) {
		if url != "" {
			p.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// NewProvider creates a Mistral OCR provider
func NewProvider(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		// OCR of long documents is slow; the caller's context bounds it
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type documentParam struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type processRequest struct {
	Model         string        `json:"model"`
	Document      documentParam `json:"document"`
	TableFormat   string        `json:"table_format,omitempty"`
	Pages         []int         `json:"pages,omitempty"`
	ExtractHeader bool          `json:"extract_header,omitempty"`
	ExtractFooter bool          `json:"extract_footer,omitempty"`
}

// Process implements ocr.Provider
func (p *Provider) Process(ctx context.Context, ref ocr.Reference, opts ...ocr.Option) (*ocr.Result, error) {
	if p.apiKey == "" {
		return nil, errors.New("missing mistral api key")
	}
	documentURL := ref.DocumentURL()
	if documentURL == "" {
		return nil, errors.New("empty document reference")
	}

	options := ocr.Apply(opts...)

	body := processRequest{
		Model: options.Model,
		Document: documentParam{
			Type:        "document_url",
			DocumentURL: documentURL,
		},
		TableFormat:   options.TableFormat,
		Pages:         uniqueSorted(options.Pages),
		ExtractHeader: options.ExtractHeader,
		ExtractFooter: options.ExtractFooter,
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/ocr", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(slurp))}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ocr response: %w", err)
	}

	return ocr.Decode(raw)
}

func uniqueSorted(xs []int) []int {
	if len(xs) == 0 {
		return nil
	}
	out := append([]int(nil), xs...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
