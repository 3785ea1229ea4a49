package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Provider represents an OCR service able to turn a document into pages
type Provider interface {
	// Process runs OCR on the referenced document. It blocks until the
	// service has processed every page; there is no partial result.
	Process(ctx context.Context, ref Reference, opts ...Option) (*Result, error)
}

// Reference points at a document, either by URL or inline bytes
type Reference struct {
	URL      string
	Data     []byte
	MimeType string
}

// DocumentURL returns the URL to hand to the service. Inline data is
// encoded as a base64 data URL.
func (r Reference) DocumentURL() string {
	if len(r.Data) == 0 {
		return r.URL
	}
	mime := r.MimeType
	if mime == "" {
		mime = "application/pdf"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Result represents the output of an OCR operation
type Result struct {
	Model string `json:"model,omitempty"`
	Pages []Page `json:"pages"`

	// Raw is the service response exactly as received
	Raw json.RawMessage `json:"-"`
}

// Page is one page of OCR output, in provider order
type Page struct {
	// Index is 0-based
	Index    int     `json:"index"`
	Markdown string  `json:"markdown"`
	Tables   []Table `json:"tables"`
}

// Table is a table detected on a page. ID doubles as the placeholder
// token the page markdown carries as [id](id).
type Table struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Format  string `json:"format,omitempty"`
}

// Placeholder returns the markdown link token marking where the table sits
func (t Table) Placeholder() string {
	return Placeholder(t.ID)
}

// Placeholder builds the [id](id) token for a table id
func Placeholder(id string) string {
	return "[" + id + "](" + id + ")"
}

// Decode parses a raw service response and keeps the bytes verbatim
func Decode(raw []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	result.Raw = append(json.RawMessage(nil), raw...)
	return &result, nil
}
