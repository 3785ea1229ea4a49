package llm

import (
	"context"
	"fmt"
	"strings"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage builds a user message
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage builds a system message
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Usage reports token consumption for one call
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the model's reply
type Response struct {
	Message Message
	Usage   Usage
}

// LLM is implemented by every chat provider
type LLM interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error)
}

// Client wraps a provider with default options applied to every call
type Client struct {
	provider LLM
	defaults []Option
}

// NewClient creates a new LLM client
func NewClient(provider LLM, defaults ...Option) *Client {
	return &Client{provider: provider, defaults: defaults}
}

// Chat sends messages with the client's defaults followed by opts
func (c *Client) Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error) {
	all := make([]Option, 0, len(c.defaults)+len(opts))
	all = append(all, c.defaults...)
	all = append(all, opts...)
	return c.provider.Chat(ctx, messages, all...)
}

// ModelRef names a provider and a model, written "provider:model"
type ModelRef struct {
	Provider string
	Model    string
}

func (r ModelRef) String() string {
	return r.Provider + ":" + r.Model
}

// ParseModelRef parses "provider:model". A bare model name defaults to openai.
func ParseModelRef(s string) (ModelRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ModelRef{}, fmt.Errorf("empty model reference")
	}
	provider, model, ok := strings.Cut(s, ":")
	if !ok {
		return ModelRef{Provider: "openai", Model: s}, nil
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	if provider == "" || model == "" {
		return ModelRef{}, fmt.Errorf("invalid model reference %q, want provider:model", s)
	}
	return ModelRef{Provider: provider, Model: model}, nil
}
