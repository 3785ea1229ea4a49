package document

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Abraxas-365/doccraft/ai/llm"
	"github.com/Abraxas-365/doccraft/asyncx"
	"github.com/Abraxas-365/doccraft/errx"
	"github.com/Abraxas-365/doccraft/logx"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultCaptionConcurrency bounds caption requests in flight
const DefaultCaptionConcurrency = 5

// DefaultCaptionModel is the provider:model used for captions
const DefaultCaptionModel = "openai:gpt-5-mini"

const captionPromptTemplate = `Analyze this table and provide a brief, informative caption (1-2 sentences) that describes:
1. What type of data the table contains
2. What periods or categories are covered
3. Any units or currencies used

Do not include specific numerical values in the caption.

Table (markdown format):
%s

Surrounding context:
%s

Respond with only the caption, no preamble.`

const truncatedMarker = "\n[table truncated]"

// captionFormat asks the model for {"description": "..."}
var captionFormat = llm.ResponseFormat{
	Type: llm.JSONSchema,
	Name: "table_description",
	JSONSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":        "string",
				"description": "One or two sentence caption describing the table",
			},
		},
		"required":             []string{"description"},
		"additionalProperties": false,
	},
}

// CaptionJob pairs a table with the page text surrounding it
type CaptionJob struct {
	Page    int
	Table   *Table
	Context string
}

// Captioner asks a language model for a short caption of each table
type Captioner struct {
	model       llm.LLM
	gate        *asyncx.Gate
	rps         float64
	logger      *logx.Logger
	chatOptions []llm.Option

	tokenLimit int
	encoding   string
	encOnce    sync.Once
	enc        *tiktoken.Tiktoken
}

// CaptionerOption configures a Captioner
type CaptionerOption func(*Captioner)

// WithConcurrency sets how many caption requests may run at once
func WithConcurrency(n int) CaptionerOption {
	return func(c *Captioner) {
		c.gate = asyncx.NewGate(n)
	}
}

// WithRequestRate limits how many caption requests start per second
func WithRequestRate(rps float64) CaptionerOption {
	return func(c *Captioner) {
		c.rps = rps
	}
}

// WithTableTokenLimit truncates table markdown in the prompt to n tokens
// of the named tiktoken encoding. Zero disables truncation.
func WithTableTokenLimit(n int, encoding string) CaptionerOption {
	return func(c *Captioner) {
		c.tokenLimit = n
		if encoding != "" {
			c.encoding = encoding
		}
	}
}

// WithCaptionLogger sets the logger
func WithCaptionLogger(l *logx.Logger) CaptionerOption {
	return func(c *Captioner) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithChatOptions adds options sent with every caption request
func WithChatOptions(opts ...llm.Option) CaptionerOption {
	return func(c *Captioner) {
		c.chatOptions = append(c.chatOptions, opts...)
	}
}

// NewCaptioner creates a captioner backed by model
func NewCaptioner(model llm.LLM, opts ...CaptionerOption) *Captioner {
	c := &Captioner{
		model:    model,
		gate:     asyncx.NewGate(DefaultCaptionConcurrency),
		logger:   logx.GetLogger().With("caption"),
		encoding: "cl100k_base",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.gate.WithRate(c.rps)
	return c
}

// Enrich captions every job's table concurrently, at most the configured
// number at a time, and returns once all of them have finished. Failures
// leave the caption nil and come back as warnings in job order.
func (c *Captioner) Enrich(ctx context.Context, jobs []CaptionJob) []Warning {
	if len(jobs) == 0 {
		return nil
	}

	c.logger.Debug("captioning %d tables, concurrency %d", len(jobs), c.gate.Limit())
	errs := asyncx.ForEach(ctx, c.gate, jobs, c.caption)

	var warnings []Warning
	for i, err := range errs {
		if err == nil {
			continue
		}
		job := jobs[i]
		if !errx.IsCode(err, ErrCodeCaptionFailed) {
			// the gate refused admission, usually a cancelled context
			err = errRegistry.NewWithCause(ErrCodeCaptionFailed, err).
				WithDetail("table_id", job.Table.SourceID)
		}
		c.logger.Warn("caption failed for table %s on page %d: %v", job.Table.SourceID, job.Page, err)
		warnings = append(warnings, newWarning(err, job.Page, job.Table.SourceID))
	}
	return warnings
}

func (c *Captioner) caption(ctx context.Context, job CaptionJob) error {
	if job.Table.Caption != nil {
		return nil
	}

	prompt := c.Prompt(job)
	opts := append([]llm.Option{llm.WithResponseFormat(captionFormat)}, c.chatOptions...)

	resp, err := c.model.Chat(ctx, []llm.Message{llm.NewUserMessage(prompt)}, opts...)
	if err != nil {
		return errRegistry.NewWithCause(ErrCodeCaptionFailed, err).
			WithDetail("table_id", job.Table.SourceID)
	}

	var out struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Message.Content)), &out); err != nil {
		return errRegistry.NewWithCause(ErrCodeCaptionFailed, fmt.Errorf("malformed caption response: %w", err)).
			WithDetail("table_id", job.Table.SourceID)
	}
	description := strings.TrimSpace(out.Description)
	if description == "" {
		return errRegistry.NewWithMessage(ErrCodeCaptionFailed, "Table caption failed: empty description").
			WithDetail("table_id", job.Table.SourceID)
	}

	job.Table.SetCaption(description)
	c.logger.Trace("captioned table %s (%d prompt tokens)", job.Table.SourceID, resp.Usage.PromptTokens)
	return nil
}

// Prompt builds the caption request for job
func (c *Captioner) Prompt(job CaptionJob) string {
	return fmt.Sprintf(captionPromptTemplate, c.truncate(job.Table.Markdown), job.Context)
}

func (c *Captioner) truncate(markdown string) string {
	if c.tokenLimit <= 0 {
		return markdown
	}

	c.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.logger.Warn("tokenizer %s unavailable, tables will not be truncated: %v", c.encoding, err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return markdown
	}

	tokens := c.enc.Encode(markdown, nil, nil)
	if len(tokens) <= c.tokenLimit {
		return markdown
	}
	return c.enc.Decode(tokens[:c.tokenLimit]) + truncatedMarker
}
