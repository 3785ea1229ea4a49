package ocr

// Table formats accepted by the service
const (
	TableFormatHTML     = "html"
	TableFormatMarkdown = "markdown"
)

// DefaultModel is the OCR model used when none is configured
const DefaultModel = "mistral-ocr-latest"

// OCROptions contains options for OCR operations
type OCROptions struct {
	// Model is the OCR model to use
	Model string

	// TableFormat controls how tables are returned; tables are only split
	// out of the page markdown when this is set
	TableFormat string

	// Pages restricts processing to these 0-based page indexes
	Pages []int

	// ExtractHeader and ExtractFooter ask the service to keep running
	// headers and footers in the markdown
	ExtractHeader bool
	ExtractFooter bool
}

// Option is a function type to modify OCROptions
type Option func(*OCROptions)

// WithModel sets the OCR model to use
func WithModel(model string) Option {
	return func(o *OCROptions) {
		if model != "" {
			o.Model = model
		}
	}
}

// WithTableFormat sets the table markup returned by the service
func WithTableFormat(format string) Option {
	return func(o *OCROptions) {
		o.TableFormat = format
	}
}

// WithPages restricts OCR to the given 0-based page indexes
func WithPages(pages ...int) Option {
	return func(o *OCROptions) {
		o.Pages = append(o.Pages[:0:0], pages...)
	}
}

// WithHeaderFooter keeps headers and footers in the output
func WithHeaderFooter(header, footer bool) Option {
	return func(o *OCROptions) {
		o.ExtractHeader = header
		o.ExtractFooter = footer
	}
}

// DefaultOptions returns the default OCR options
func DefaultOptions() *OCROptions {
	return &OCROptions{
		Model:       DefaultModel,
		TableFormat: TableFormatHTML,
	}
}

// Apply builds OCROptions from defaults and opts
func Apply(opts ...Option) *OCROptions {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
