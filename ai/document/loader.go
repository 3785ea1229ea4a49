package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/doccraft/ai/ocr"
	"github.com/Abraxas-365/doccraft/errx"
	"github.com/Abraxas-365/doccraft/logx"
)

// Loader runs the whole pipeline for one source: cache lookup, resolution,
// OCR, table extraction, caption enrichment and assembly.
type Loader struct {
	provider   ocr.Provider
	resolver   *Resolver
	cache      *Cache
	captioner  *Captioner
	logger     *logx.Logger
	ocrOptions []ocr.Option
	passURL    bool
	window     int
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithResolver sets the content resolver
func WithResolver(r *Resolver) LoaderOption {
	return func(l *Loader) {
		if r != nil {
			l.resolver = r
		}
	}
}

// WithCache enables the OCR result cache
func WithCache(c *Cache) LoaderOption {
	return func(l *Loader) {
		l.cache = c
	}
}

// WithCaptioner enables caption enrichment. Without one, captions stay nil
// and no model is called.
func WithCaptioner(c *Captioner) LoaderOption {
	return func(l *Loader) {
		l.captioner = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *logx.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithOCROptions adds options passed to every OCR call
func WithOCROptions(opts ...ocr.Option) LoaderOption {
	return func(l *Loader) {
		l.ocrOptions = append(l.ocrOptions, opts...)
	}
}

// WithPassURL hands http(s) sources to the OCR service as URLs instead of
// downloading and inlining them
func WithPassURL(pass bool) LoaderOption {
	return func(l *Loader) {
		l.passURL = pass
	}
}

// WithContextWindow sets the caption context window in characters
func WithContextWindow(window int) LoaderOption {
	return func(l *Loader) {
		if window >= 0 {
			l.window = window
		}
	}
}

// NewLoader creates a loader around an OCR provider
func NewLoader(provider ocr.Provider, opts ...LoaderOption) *Loader {
	l := &Loader{
		provider: provider,
		resolver: NewResolver(),
		logger:   logx.GetLogger().With("loader"),
		window:   DefaultContextWindow,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CaptionsEnabled reports whether tables will be captioned
func (l *Loader) CaptionsEnabled() bool {
	return l.captioner != nil
}

// Load turns src (a URL, a local path or raw bytes) into a Document. It
// returns only after every caption request has finished. Resolver, cache
// and OCR failures fail the load; table parse and caption failures are
// reported in Document.Warnings.
func (l *Loader) Load(ctx context.Context, src any) (*Document, error) {
	start := time.Now()

	var source string
	switch v := src.(type) {
	case string:
		source = strings.TrimSpace(v)
	case []byte:
	default:
		return nil, errRegistry.New(ErrCodeUnsupportedContent).
			WithDetail("type", fmt.Sprintf("%T", src))
	}

	result, err := l.ocrResult(ctx, source, src)
	if err != nil {
		return nil, err
	}

	var (
		pages    = make([]*Page, 0, len(result.Pages))
		warnings []Warning
		jobs     []CaptionJob
	)
	for i, raw := range result.Pages {
		number := i + 1
		page, pageWarnings := ExtractPage(raw, number)
		for _, w := range pageWarnings {
			l.logger.Warn("page %d: table %s skipped: %s", w.Page, w.TableID, w.Message)
		}
		warnings = append(warnings, pageWarnings...)
		pages = append(pages, page)

		if l.captioner == nil {
			continue
		}
		for _, t := range page.Tables {
			jobs = append(jobs, CaptionJob{
				Page:    number,
				Table:   t,
				Context: ExtractContext(raw.Markdown, t.SourceID, l.window),
			})
		}
	}

	if len(jobs) > 0 {
		captionStart := time.Now()
		warnings = append(warnings, l.captioner.Enrich(ctx, jobs)...)
		l.logger.Debug("captioned %d tables in %s", len(jobs), time.Since(captionStart))
	}

	doc := Assemble(source, pages)
	doc.Warnings = warnings

	l.logger.Info("loaded %d pages, %d tables, %d warnings in %s",
		len(doc.Pages), len(doc.Tables()), len(doc.Warnings), time.Since(start).Round(time.Millisecond))
	return doc, nil
}

// ocrResult returns the cached result for source or runs OCR and caches it
func (l *Loader) ocrResult(ctx context.Context, source string, src any) (*ocr.Result, error) {
	var key string
	if source != "" && l.cache != nil {
		key = CacheKey(source)
		cached, ok, err := l.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			l.logger.Info("loaded OCR response from cache %s", CacheFileName(key))
			return cached, nil
		}
		l.logger.Debug("cache miss for %s", CacheFileName(key))
	}

	ref, err := l.reference(ctx, source, src)
	if err != nil {
		return nil, err
	}

	ocrStart := time.Now()
	l.logger.Info("running OCR on %s", describeSource(source))
	result, err := l.provider.Process(ctx, ref, l.ocrOptions...)
	if err != nil {
		if errx.IsCode(err, ErrCodeOCRService) {
			return nil, err
		}
		return nil, errRegistry.NewWithCause(ErrCodeOCRService, err).
			WithDetail("source", describeSource(source))
	}
	if result == nil || len(result.Pages) == 0 {
		return nil, errRegistry.NewWithMessage(ErrCodeOCRService, "OCR service returned no pages").
			WithDetail("source", describeSource(source))
	}
	l.logger.Debug("OCR returned %d pages in %s", len(result.Pages), time.Since(ocrStart))

	if key != "" {
		if err := l.cache.Put(ctx, key, source, result); err != nil {
			return nil, err
		}
		l.logger.Info("saved OCR response to cache %s", CacheFileName(key))
	}
	return result, nil
}

func (l *Loader) reference(ctx context.Context, source string, src any) (ocr.Reference, error) {
	if l.passURL && IsURL(source) {
		return ocr.Reference{URL: source}, nil
	}
	data, err := l.resolver.Resolve(ctx, src)
	if err != nil {
		return ocr.Reference{}, err
	}
	return ocr.Reference{Data: data, MimeType: "application/pdf"}, nil
}

func describeSource(source string) string {
	if source == "" {
		return "raw bytes"
	}
	return source
}
