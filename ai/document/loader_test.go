package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Abraxas-365/doccraft/ai/ocr"
	"github.com/Abraxas-365/doccraft/errx"
	"github.com/Abraxas-365/doccraft/fsx"
	"github.com/Abraxas-365/doccraft/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threePages(t *testing.T) *ocr.Result {
	return ocrResult(t,
		ocr.Page{Index: 0, Markdown: "# Annual Report\n\nRevenue grew.\n\n[t1](t1)\n\nMore text.",
			Tables: []ocr.Table{{ID: "t1", Content: revenueTable}}},
		ocr.Page{Index: 1, Markdown: "Staff overview [t2](t2) and [t3](t3).",
			Tables: []ocr.Table{{ID: "t2", Content: headcountTable}, {ID: "t3", Content: "<span>broken</span>"}}},
		ocr.Page{Index: 2, Markdown: "Closing remarks."},
	)
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 fake"), 0o644))
	return path
}

func quietLogger() LoaderOption {
	return WithLogger(logx.Discard())
}

func TestLoad_AssemblesPages(t *testing.T) {
	provider := &fakeOCR{result: threePages(t)}
	loader := NewLoader(provider, quietLogger())

	doc, err := loader.Load(context.Background(), writePDF(t))
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	for i, p := range doc.Pages {
		assert.Equal(t, i+1, p.Number)
	}
	assert.Equal(t, "Annual Report", doc.Title)

	first := doc.Pages[0]
	require.Len(t, first.Tables, 1)
	assert.NotContains(t, first.Markdown, "[t1](t1)")
	assert.Contains(t, first.Markdown, first.Tables[0].Markdown)

	// captions disabled
	for _, table := range doc.Tables() {
		assert.Nil(t, table.Caption)
	}

	assert.Equal(t, "%PDF-1.7 fake", string(provider.lastRef.Data))
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestLoad_SecondLoadHitsCache(t *testing.T) {
	provider := &fakeOCR{result: threePages(t)}
	cache := NewCache(fsx.NewLocalFileSystem(t.TempDir()))
	loader := NewLoader(provider, WithCache(cache), quietLogger())
	path := writePDF(t)

	first, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.calls.Load())

	second, err := loader.Load(context.Background(), " "+path)
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.calls.Load(), "cache hit must not call OCR")

	assert.Equal(t, first.Markdown(), second.Markdown())
	assert.Len(t, second.Pages, 3)

	// a cache hit skips resolution too, so the file can be gone
	require.NoError(t, os.Remove(path))
	_, err = loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestLoad_RawBytesBypassCache(t *testing.T) {
	provider := &fakeOCR{result: threePages(t)}
	dir := t.TempDir()
	loader := NewLoader(provider, WithCache(NewCache(fsx.NewLocalFileSystem(dir))), quietLogger())

	for i := 0; i < 2; i++ {
		doc, err := loader.Load(context.Background(), []byte("%PDF"))
		require.NoError(t, err)
		assert.Empty(t, doc.Source)
	}
	assert.Equal(t, int32(2), provider.calls.Load())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoad_CaptionsAndParseFailureIsolated(t *testing.T) {
	model := &fakeModel{reply: func(prompt string) (string, error) { return captionFor(prompt), nil }}
	loader := NewLoader(&fakeOCR{result: threePages(t)},
		WithCaptioner(NewCaptioner(model, WithConcurrency(2), WithCaptionLogger(logx.Discard()))),
		quietLogger(),
	)

	doc, err := loader.Load(context.Background(), writePDF(t))
	require.NoError(t, err)

	tables := doc.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "Revenue by region across two years.", *tables[0].Caption)
	assert.Equal(t, "Headcount by department.", *tables[1].Caption)
	assert.Equal(t, 2, model.Calls())

	require.Len(t, doc.Warnings, 1)
	assert.Equal(t, ErrCodeTableParse, doc.Warnings[0].Code)
	assert.Equal(t, "t3", doc.Warnings[0].TableID)
	assert.Contains(t, doc.Pages[1].Markdown, "[t3](t3)")
	assert.NotContains(t, doc.Pages[1].Markdown, "[t2](t2)")
}

func TestLoad_CaptionContextUsesOriginalText(t *testing.T) {
	var prompts []string
	model := &fakeModel{reply: func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return `{"description":"x"}`, nil
	}}
	loader := NewLoader(&fakeOCR{result: threePages(t)},
		WithCaptioner(NewCaptioner(model, WithConcurrency(1), WithCaptionLogger(logx.Discard()))),
		WithContextWindow(20),
		quietLogger(),
	)

	_, err := loader.Load(context.Background(), writePDF(t))
	require.NoError(t, err)

	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0]+prompts[1], "Revenue grew.\n\n[TABLE]\n\nMore text.")
}

func TestLoad_DisabledCaptionsMakeNoModelCalls(t *testing.T) {
	loader := NewLoader(&fakeOCR{result: threePages(t)}, quietLogger())
	assert.False(t, loader.CaptionsEnabled())

	doc, err := loader.Load(context.Background(), writePDF(t))
	require.NoError(t, err)
	for _, table := range doc.Tables() {
		assert.Nil(t, table.Caption)
	}
}

func TestLoad_PassURL(t *testing.T) {
	provider := &fakeOCR{result: threePages(t)}
	loader := NewLoader(provider, WithPassURL(true), quietLogger())

	doc, err := loader.Load(context.Background(), "https://example.invalid/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://example.invalid/report.pdf", provider.lastRef.URL)
	assert.Empty(t, provider.lastRef.Data)
	assert.Equal(t, "https://example.invalid/report.pdf", doc.Source)
}

func TestLoad_FatalErrors(t *testing.T) {
	t.Run("unsupported", func(t *testing.T) {
		provider := &fakeOCR{result: threePages(t)}
		doc, err := NewLoader(provider, quietLogger()).Load(context.Background(), 3.14)
		assert.Nil(t, doc)
		assert.True(t, errx.IsCode(err, ErrCodeUnsupportedContent))
		assert.Equal(t, int32(0), provider.calls.Load())
	})

	t.Run("not found", func(t *testing.T) {
		provider := &fakeOCR{result: threePages(t)}
		_, err := NewLoader(provider, quietLogger()).Load(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
		assert.True(t, errx.IsCode(err, ErrCodeNotFound))
		assert.Equal(t, int32(0), provider.calls.Load())
	})

	t.Run("ocr failure", func(t *testing.T) {
		cause := errors.New("mistral ocr error 500")
		dir := t.TempDir()
		loader := NewLoader(&fakeOCR{err: cause}, WithCache(NewCache(fsx.NewLocalFileSystem(dir))), quietLogger())

		doc, err := loader.Load(context.Background(), writePDF(t))
		assert.Nil(t, doc)
		assert.True(t, errx.IsCode(err, ErrCodeOCRService))
		assert.ErrorIs(t, err, cause)

		entries, _ := os.ReadDir(dir)
		assert.Empty(t, entries, "failures are not cached")
	})

	t.Run("no pages", func(t *testing.T) {
		_, err := NewLoader(&fakeOCR{result: &ocr.Result{}}, quietLogger()).Load(context.Background(), []byte("%PDF"))
		assert.True(t, errx.IsCode(err, ErrCodeOCRService))
	})

	t.Run("corrupt cache", func(t *testing.T) {
		provider := &fakeOCR{result: threePages(t)}
		dir := t.TempDir()
		path := writePDF(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, CacheFileName(CacheKey(path))), []byte("{oops"), 0o644))

		loader := NewLoader(provider, WithCache(NewCache(fsx.NewLocalFileSystem(dir))), quietLogger())
		_, err := loader.Load(context.Background(), path)
		assert.True(t, errx.IsCode(err, ErrCodeCacheCorrupt))
		assert.Equal(t, int32(0), provider.calls.Load())
	})
}
