// Package apptest provides fakes and a wired App for tests of the outer
// surfaces.
package apptest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/Abraxas-365/doccraft/ai/llm"
	"github.com/Abraxas-365/doccraft/ai/ocr"
	"github.com/Abraxas-365/doccraft/app"
	"github.com/Abraxas-365/doccraft/fsx"
	"github.com/Abraxas-365/doccraft/logx"
	"github.com/stretchr/testify/require"
)

// PDF is a stand-in document body
var PDF = []byte("%PDF-1.4\n%fake\n")

// TableHTML is the table carried by SamplePages
const TableHTML = `<table><tr><th>Quarter</th><th>Revenue</th></tr><tr><td>Q1</td><td>10</td></tr></table>`

// SamplePages is a two page OCR response with one table on the first page
func SamplePages() []ocr.Page {
	return []ocr.Page{
		{
			Index:    0,
			Markdown: "# Annual Report\n\nRevenue by quarter:\n\n[tbl-0.html](tbl-0.html)\n\nEnd of table.",
			Tables:   []ocr.Table{{ID: "tbl-0.html", Content: TableHTML, Format: ocr.TableFormatHTML}},
		},
		{Index: 1, Markdown: "Closing remarks."},
	}
}

// OCR is a fake provider returning fixed pages
type OCR struct {
	mu    sync.Mutex
	pages []ocr.Page
	err   error
	refs  []ocr.Reference
}

// NewOCR returns a provider that answers every call with pages
func NewOCR(pages ...ocr.Page) *OCR {
	return &OCR{pages: pages}
}

// Fail makes every later call return err
func (o *OCR) Fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Calls returns how many times Process ran
func (o *OCR) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.refs)
}

// LastReference returns the reference of the latest call
func (o *OCR) LastReference() ocr.Reference {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.refs) == 0 {
		return ocr.Reference{}
	}
	return o.refs[len(o.refs)-1]
}

func (o *OCR) Process(ctx context.Context, ref ocr.Reference, _ ...ocr.Option) (*ocr.Result, error) {
	o.mu.Lock()
	o.refs = append(o.refs, ref)
	err := o.err
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(map[string]any{"model": ocr.DefaultModel, "pages": o.pages})
	if err != nil {
		return nil, err
	}
	return ocr.Decode(raw)
}

// Model is a fake caption model
type Model struct {
	mu    sync.Mutex
	calls int
}

// Caption is what Model answers for every table
const Caption = "Quarterly revenue figures."

func (m *Model) Chat(ctx context.Context, _ []llm.Message, _ ...llm.Option) (llm.Response, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return llm.Response{}, err
	}
	return llm.Response{Message: llm.Message{
		Role:    llm.RoleAssistant,
		Content: fmt.Sprintf(`{"description": %q}`, Caption),
	}}, nil
}

// Calls returns how many times Chat ran
func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Env is a wired App over fakes and temporary directories
type Env struct {
	App      *app.App
	OCR      *OCR
	Model    *Model
	CacheDir string
	OutDir   string
}

// New builds an App with caching in a temp dir. overrides are dotted
// config keys, for example "caption.enabled": false.
func New(t *testing.T, overrides map[string]any) *Env {
	t.Helper()

	env := &Env{
		OCR:      NewOCR(SamplePages()...),
		Model:    &Model{},
		CacheDir: t.TempDir(),
		OutDir:   t.TempDir(),
	}

	values := map[string]any{
		"cache":  map[string]any{"dir": env.CacheDir},
		"output": map[string]any{"dir": env.OutDir},
	}
	for k, v := range overrides {
		section, key, ok := strings.Cut(k, ".")
		if !ok {
			values[k] = v
			continue
		}
		m, _ := values[section].(map[string]any)
		if m == nil {
			m = map[string]any{}
			values[section] = m
		}
		m[key] = v
	}

	cfg, err := app.LoadConfig(app.LoadOptions{Overrides: values})
	require.NoError(t, err)

	a, err := app.New(context.Background(), cfg,
		app.WithOCRProvider(env.OCR),
		app.WithCaptionModel(env.Model),
		app.WithOutputFileSystem(fsx.NewLocalFileSystem(env.OutDir)),
		app.WithLogger(logx.Discard()),
	)
	require.NoError(t, err)
	env.App = a
	return env
}
