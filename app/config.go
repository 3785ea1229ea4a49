package app

import (
	"os"
	"time"

	"github.com/Abraxas-365/doccraft/ai/document"
	"github.com/Abraxas-365/doccraft/ai/ocr"
	"github.com/Abraxas-365/doccraft/ai/ocr/mistral"
	"github.com/Abraxas-365/doccraft/configx"
	"github.com/Abraxas-365/doccraft/validatex"
)

// EnvPrefix prefixes every environment variable read into Config.
// DOCCRAFT_CAPTION_MODEL maps to caption.model.
const EnvPrefix = "DOCCRAFT_"

// Config holds every setting the pipeline and its surfaces need. Nothing
// in the pipeline reads the environment on its own; values flow from here.
type Config struct {
	OCR       OCRConfig
	Keys      KeyConfig
	Caption   CaptionConfig
	Cache     CacheConfig
	Fetch     FetchConfig
	Server    ServerConfig
	OutputDir string `validatex:"required"`
}

type OCRConfig struct {
	Model   string `validatex:"required"`
	BaseURL string `validatex:"required,url"`
	PassURL bool
}

type KeyConfig struct {
	Mistral          string
	OpenAI           string
	OpenAIBaseURL    string `validatex:"url"`
	Anthropic        string
	AnthropicBaseURL string `validatex:"url"`
}

type CaptionConfig struct {
	Enabled     bool
	Model       string `validatex:"required"`
	Concurrency int    `validatex:"max=64"`
	Window      int    `validatex:"min=0"`
	RPS         float64
	MaxTokens   int `validatex:"min=0"`
	Encoding    string
}

type CacheConfig struct {
	Enabled bool
	// Dir is a local directory or s3://bucket/prefix
	Dir string `validatex:"required"`
}

type FetchConfig struct {
	Timeout time.Duration
}

type ServerConfig struct {
	Port int `validatex:"min=1,max=65535"`
}

// Validate implements validatex.Validatable
func (c *Config) Validate() error {
	if c.Caption.Enabled && c.Caption.Concurrency < 1 {
		return validatex.ErrInvalid("Caption.Concurrency", "min", "1")
	}
	if c.Caption.RPS < 0 {
		return validatex.ErrInvalid("Caption.RPS", "min", "0")
	}
	if c.Fetch.Timeout <= 0 {
		return validatex.ErrInvalid("Fetch.Timeout", "min", "1ns")
	}
	return nil
}

// Defaults returns the built-in settings
func Defaults() map[string]any {
	return map[string]any{
		"ocr": map[string]any{
			"model":   ocr.DefaultModel,
			"baseurl": mistral.DefaultBaseURL,
			"passurl": false,
		},
		"caption": map[string]any{
			"enabled":     true,
			"model":       document.DefaultCaptionModel,
			"concurrency": document.DefaultCaptionConcurrency,
			"window":      document.DefaultContextWindow,
			"rps":         0,
			"maxtokens":   0,
			"encoding":    "cl100k_base",
		},
		"cache": map[string]any{
			"enabled": true,
			"dir":     document.DefaultCacheDir,
		},
		"fetch": map[string]any{
			"timeout": document.DefaultFetchTimeout.String(),
		},
		"server": map[string]any{
			"port": 8080,
		},
		"output": map[string]any{
			"dir": "documents",
		},
	}
}

// LoadOptions selects the files LoadConfig reads
type LoadOptions struct {
	// EnvFile is a dotenv file; a missing file is ignored
	EnvFile string
	// File is an optional TOML file
	File string
	// Overrides win over every other source, keyed by dotted name
	Overrides map[string]any
}

// LoadConfig layers defaults, the dotenv file, the TOML file, DOCCRAFT_
// environment variables and overrides, then validates the result.
func LoadConfig(opts LoadOptions) (*Config, error) {
	b := configx.NewBuilder().WithDefaults(Defaults())
	if opts.EnvFile != "" {
		b = b.FromDotEnv(opts.EnvFile, EnvPrefix)
	}
	if opts.File != "" {
		b = b.FromFile(opts.File)
	}
	b = b.FromEnv(EnvPrefix)
	if len(opts.Overrides) > 0 {
		b = b.FromMap(opts.Overrides, "overrides")
	}

	src, err := b.Build()
	if err != nil {
		return nil, invalidConfig("Failed to load configuration", err)
	}

	cfg := FromConfig(src)
	if err := validatex.Validate(cfg); err != nil {
		return nil, invalidConfig("Invalid configuration", err)
	}
	return cfg, nil
}

// FromConfig reads a Config out of built configuration. API keys fall back
// to the conventional provider variables when no DOCCRAFT_ key is set.
func FromConfig(c configx.Config) *Config {
	return &Config{
		OCR: OCRConfig{
			Model:   c.Get("ocr.model").AsStringDefault(ocr.DefaultModel),
			BaseURL: c.Get("ocr.baseurl").AsStringDefault(mistral.DefaultBaseURL),
			PassURL: c.Get("ocr.passurl").AsBoolDefault(false),
		},
		Keys: KeyConfig{
			Mistral:          c.Get("mistral.apikey").AsStringDefault(os.Getenv("MISTRAL_API_KEY")),
			OpenAI:           c.Get("openai.apikey").AsStringDefault(os.Getenv("OPENAI_API_KEY")),
			OpenAIBaseURL:    c.Get("openai.baseurl").AsString(),
			Anthropic:        c.Get("anthropic.apikey").AsStringDefault(os.Getenv("ANTHROPIC_API_KEY")),
			AnthropicBaseURL: c.Get("anthropic.baseurl").AsString(),
		},
		Caption: CaptionConfig{
			Enabled:     c.Get("caption.enabled").AsBoolDefault(true),
			Model:       c.Get("caption.model").AsStringDefault(document.DefaultCaptionModel),
			Concurrency: c.Get("caption.concurrency").AsIntDefault(document.DefaultCaptionConcurrency),
			Window:      c.Get("caption.window").AsIntDefault(document.DefaultContextWindow),
			RPS:         c.Get("caption.rps").AsFloatDefault(0),
			MaxTokens:   c.Get("caption.maxtokens").AsIntDefault(0),
			Encoding:    c.Get("caption.encoding").AsStringDefault("cl100k_base"),
		},
		Cache: CacheConfig{
			Enabled: c.Get("cache.enabled").AsBoolDefault(true),
			Dir:     c.Get("cache.dir").AsStringDefault(document.DefaultCacheDir),
		},
		Fetch: FetchConfig{
			Timeout: c.Get("fetch.timeout").AsDurationDefault(document.DefaultFetchTimeout),
		},
		Server: ServerConfig{
			Port: c.Get("server.port").AsIntDefault(8080),
		},
		OutputDir: c.Get("output.dir").AsStringDefault("documents"),
	}
}
