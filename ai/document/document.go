package document

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/Abraxas-365/doccraft/errx"
)

// Document is the structured result of loading one PDF
type Document struct {
	// ID uniquely identifies the document
	ID string `json:"id,omitempty"`

	// Title is taken from the first heading of the first page, if any
	Title string `json:"title,omitempty"`

	// Source is the URL or path the document was loaded from; empty for raw bytes
	Source string `json:"source,omitempty"`

	// Pages in provider order, numbered from 1
	Pages []*Page `json:"pages"`

	// Warnings lists per-table problems that did not fail the load
	Warnings []Warning `json:"warnings,omitempty"`

	// CreatedAt records when the document was assembled
	CreatedAt time.Time `json:"created_at"`
}

// Page is one page of a document
type Page struct {
	ID     string `json:"id,omitempty"`
	Number int    `json:"number"`

	// Markdown is the page text with table placeholders replaced by the
	// rendered tables
	Markdown string   `json:"markdown"`
	Tables   []*Table `json:"tables"`
}

// Table is a table found on a page
type Table struct {
	ID string `json:"id,omitempty"`

	// SourceID is the OCR table id, also used in the [id](id) placeholder
	SourceID string `json:"source_id"`

	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
	Grid     Grid   `json:"grid"`

	// Caption stays nil until enrichment succeeds
	Caption *string `json:"caption,omitempty"`
}

// SetCaption sets the caption unless one is already present. It reports
// whether the caption was written.
func (t *Table) SetCaption(caption string) bool {
	if t.Caption != nil {
		return false
	}
	t.Caption = &caption
	return true
}

// Warning describes a recovered per-table failure
type Warning struct {
	Code    errx.Code `json:"code"`
	Page    int       `json:"page"`
	TableID string    `json:"table_id,omitempty"`
	Message string    `json:"message"`
}

func newWarning(err error, page int, tableID string) Warning {
	return Warning{
		Code:    errx.CodeOf(err),
		Page:    page,
		TableID: tableID,
		Message: err.Error(),
	}
}

// Tables returns every table of the document in page order
func (d *Document) Tables() []*Table {
	var tables []*Table
	for _, p := range d.Pages {
		tables = append(tables, p.Tables...)
	}
	return tables
}

// Markdown joins the page texts
func (d *Document) Markdown() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Markdown)
	}
	return strings.Join(parts, "\n\n")
}

// ToJSON serializes the document to JSON
func (d *Document) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errRegistry.NewWithCause(ErrCodeSerializationFail, err).
			WithDetail("document_id", d.ID)
	}
	return data, nil
}

// DocumentFromJSON deserializes a document from JSON
func DocumentFromJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errRegistry.NewWithCause(ErrCodeDeserializeFail, err)
	}
	return &doc, nil
}

// SaveToFile saves the document as JSON
func (d *Document) SaveToFile(filePath string) error {
	data, err := d.ToJSON()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return errRegistry.NewWithCause(ErrCodeIOFailure, err).
			WithDetail("file_path", filePath)
	}
	return nil
}
