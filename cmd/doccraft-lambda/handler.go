package main

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/Abraxas-365/doccraft/ai/document"
	"github.com/Abraxas-365/doccraft/fsx"
	"github.com/Abraxas-365/doccraft/logx"
	"github.com/Abraxas-365/doccraft/validatex"
	"github.com/aws/aws-lambda-go/events"
)

// Job is the body of one SQS message
type Job struct {
	Source string `json:"source" validatex:"required"`
	// Output names the stored document; defaults to <document id>.json
	Output string `json:"output,omitempty"`
}

type loader interface {
	Load(ctx context.Context, src any) (*document.Document, error)
}

// Handler loads the document named by each queued message and stores it
type Handler struct {
	loader     loader
	output     fsx.FileSystem
	logger     *logx.Logger
	localPaths bool
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithLocalPaths lets jobs name files on the function's disk. Off by
// default: only http and https sources are accepted.
func WithLocalPaths(allow bool) HandlerOption {
	return func(h *Handler) { h.localPaths = allow }
}

func NewHandler(l loader, output fsx.FileSystem, logger *logx.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{loader: l, output: output, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes records in order. Failed records are reported back so
// only they return to the queue.
func (h *Handler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, record := range event.Records {
		name, err := h.process(ctx, record)
		if err != nil {
			h.logger.Error("message %s failed: %v", record.MessageId, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
			continue
		}
		h.logger.Info("message %s stored as %s", record.MessageId, name)
	}
	return resp, nil
}

func (h *Handler) process(ctx context.Context, record events.SQSMessage) (string, error) {
	var job Job
	if err := json.Unmarshal([]byte(record.Body), &job); err != nil {
		return "", document.NewError(document.ErrCodeUnsupportedContent, "Message body is not a job").WithCause(err)
	}
	if err := validatex.Validate(job); err != nil {
		return "", err
	}

	source := strings.TrimSpace(job.Source)
	if !h.localPaths && !document.IsURL(source) {
		return "", document.NewError(document.ErrCodeUnsupportedContent, "Only http and https sources are accepted").
			WithDetail("source", source)
	}

	doc, err := h.loader.Load(ctx, source)
	if err != nil {
		return "", err
	}
	for _, w := range doc.Warnings {
		h.logger.Warn("%s: page %d table %s: %s", doc.ID, w.Page, w.TableID, w.Message)
	}

	data, err := doc.ToJSON()
	if err != nil {
		return "", err
	}

	// keep writes inside the output root
	name := strings.TrimPrefix(path.Clean("/"+job.Output), "/")
	if name == "" {
		name = doc.ID + ".json"
	}
	if err := h.output.WriteFile(ctx, name, data); err != nil {
		return "", document.NewError(document.ErrCodeIOFailure, "Failed to store document").
			WithCause(err).
			WithDetail("file", name)
	}
	return name, nil
}
