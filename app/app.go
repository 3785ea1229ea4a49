// Package app wires a Config into a ready document.Loader. The CLI, the
// HTTP server and the Lambda handler all build their pipeline here.
package app

import (
	"context"
	"net/http"

	"github.com/Abraxas-365/doccraft/ai/document"
	"github.com/Abraxas-365/doccraft/ai/llm"
	"github.com/Abraxas-365/doccraft/ai/llm/aiproviders"
	"github.com/Abraxas-365/doccraft/ai/ocr"
	"github.com/Abraxas-365/doccraft/ai/ocr/mistral"
	"github.com/Abraxas-365/doccraft/errx"
	"github.com/Abraxas-365/doccraft/fsx"
	"github.com/Abraxas-365/doccraft/logx"
	"github.com/Abraxas-365/doccraft/validatex"
)

// App is a wired pipeline
type App struct {
	Config *Config
	Loader *document.Loader
	// Cache is nil when caching is disabled
	Cache *document.Cache
	// Output is where surfaces persist loaded documents
	Output fsx.FileSystem
	Logger *logx.Logger
}

type options struct {
	provider   ocr.Provider
	model      llm.LLM
	cacheFS    fsx.FileSystem
	outputFS   fsx.FileSystem
	httpClient *http.Client
	logger     *logx.Logger
}

// Option overrides a component New would otherwise build from Config
type Option func(*options)

// WithOCRProvider replaces the Mistral provider
func WithOCRProvider(p ocr.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithCaptionModel replaces the model built from Caption.Model
func WithCaptionModel(m llm.LLM) Option {
	return func(o *options) { o.model = m }
}

// WithCacheFileSystem replaces the file system opened from Cache.Dir
func WithCacheFileSystem(fs fsx.FileSystem) Option {
	return func(o *options) { o.cacheFS = fs }
}

// WithOutputFileSystem replaces the file system opened from OutputDir
func WithOutputFileSystem(fs fsx.FileSystem) Option {
	return func(o *options) { o.outputFS = fs }
}

// WithHTTPClient sets the client used to fetch remote sources
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger sets the logger handed to every component
func WithLogger(l *logx.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New validates cfg and builds the pipeline it describes
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	o := &options{logger: logx.GetLogger()}
	for _, opt := range opts {
		opt(o)
	}

	if err := validatex.Validate(cfg); err != nil {
		return nil, invalidConfig("Invalid configuration", err)
	}

	provider := o.provider
	if provider == nil {
		if cfg.Keys.Mistral == "" {
			return nil, invalidConfig("Mistral API key is not configured", nil)
		}
		provider = mistral.NewProvider(cfg.Keys.Mistral, mistral.WithBaseURL(cfg.OCR.BaseURL))
	}

	resolverOpts := []document.ResolverOption{document.WithFetchTimeout(cfg.Fetch.Timeout)}
	if o.httpClient != nil {
		resolverOpts = append(resolverOpts, document.WithHTTPClient(o.httpClient))
	}

	loaderOpts := []document.LoaderOption{
		document.WithResolver(document.NewResolver(resolverOpts...)),
		document.WithLogger(o.logger.With("loader")),
		document.WithOCROptions(ocr.WithModel(cfg.OCR.Model)),
		document.WithPassURL(cfg.OCR.PassURL),
		document.WithContextWindow(cfg.Caption.Window),
	}

	a := &App{Config: cfg, Logger: o.logger.With("app")}

	if cfg.Cache.Enabled {
		fs := o.cacheFS
		if fs == nil {
			var err error
			if fs, err = fsx.Open(ctx, cfg.Cache.Dir); err != nil {
				return nil, invalidConfig("Cannot open cache location", err).WithDetail("cache_dir", cfg.Cache.Dir)
			}
		}
		a.Cache = document.NewCache(fs)
		loaderOpts = append(loaderOpts, document.WithCache(a.Cache))
	}

	if cfg.Caption.Enabled {
		captioner, err := newCaptioner(cfg, o)
		if err != nil {
			return nil, err
		}
		loaderOpts = append(loaderOpts, document.WithCaptioner(captioner))
	}

	a.Output = o.outputFS
	if a.Output == nil {
		fs, err := fsx.Open(ctx, cfg.OutputDir)
		if err != nil {
			return nil, invalidConfig("Cannot open output location", err).WithDetail("output_dir", cfg.OutputDir)
		}
		a.Output = fs
	}

	a.Loader = document.NewLoader(provider, loaderOpts...)
	a.Logger.Debug("pipeline ready: ocr=%s captions=%t cache=%t", cfg.OCR.Model, cfg.Caption.Enabled, cfg.Cache.Enabled)
	return a, nil
}

func newCaptioner(cfg *Config, o *options) (*document.Captioner, error) {
	model := o.model
	if model == nil {
		ref, err := llm.ParseModelRef(cfg.Caption.Model)
		if err != nil {
			return nil, invalidConfig("Invalid caption model", err).WithDetail("caption_model", cfg.Caption.Model)
		}
		client, err := aiproviders.New(ref, aiproviders.Credentials{
			OpenAIKey:        cfg.Keys.OpenAI,
			OpenAIBaseURL:    cfg.Keys.OpenAIBaseURL,
			AnthropicKey:     cfg.Keys.Anthropic,
			AnthropicBaseURL: cfg.Keys.AnthropicBaseURL,
		})
		if err != nil {
			return nil, invalidConfig("Cannot build caption model", err).WithDetail("caption_model", ref.String())
		}
		model = client
	}

	opts := []document.CaptionerOption{
		document.WithConcurrency(cfg.Caption.Concurrency),
		document.WithCaptionLogger(o.logger.With("caption")),
	}
	if cfg.Caption.RPS > 0 {
		opts = append(opts, document.WithRequestRate(cfg.Caption.RPS))
	}
	if cfg.Caption.MaxTokens > 0 {
		opts = append(opts, document.WithTableTokenLimit(cfg.Caption.MaxTokens, cfg.Caption.Encoding))
	}
	return document.NewCaptioner(model, opts...), nil
}

func invalidConfig(msg string, cause error) *errx.Error {
	err := document.NewError(document.ErrCodeInvalidConfig, msg)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}
