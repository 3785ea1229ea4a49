package aiproviders

import (
	"context"
	"errors"
	"strings"

	"github.com/Abraxas-365/doccraft/ai/llm"
	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicProvider implements the LLM interface for the Anthropic Messages API.
// Structured output is obtained by forcing a single tool whose input schema is
// the requested JSON schema; the tool input becomes the reply content.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey string, opts ...aoption.RequestOption) *AnthropicProvider {
	options := append([]aoption.RequestOption{aoption.WithAPIKey(apiKey)}, opts...)
	return &AnthropicProvider{
		client: anthropic.NewClient(options...),
	}
}

// Chat implements the LLM interface
func (p *AnthropicProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	options := llm.Apply(opts...)

	maxTokens := int64(options.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(options.Model),
		MaxTokens: maxTokens,
	}

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case llm.RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llm.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return llm.Response{}, errors.New("unsupported role: " + msg.Role)
		}
	}

	if options.Temperature != 0 {
		params.Temperature = anthropic.Float(float64(options.Temperature))
	}

	var toolName string
	if f := options.ResponseFormat; f != nil && f.Type == llm.JSONSchema {
		schema, err := schemaMap(f.JSONSchema)
		if err != nil {
			return llm.Response{}, err
		}
		toolName = f.Name
		if toolName == "" {
			toolName = "respond"
		}
		tool := anthropic.ToolParam{
			Name:        toolName,
			Description: anthropic.String("Return the answer using this schema."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   requiredFields(schema["required"]),
			},
		}
		params.Tools = []anthropic.ToolUnionParam{{OfTool: &tool}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: toolName},
		}
	}

	var reqOpts []aoption.RequestOption
	for k, v := range options.Headers {
		reqOpts = append(reqOpts, aoption.WithHeader(k, v))
	}

	msg, err := p.client.Messages.New(ctx, params, reqOpts...)
	if err != nil {
		return llm.Response{}, err
	}

	var content strings.Builder
	for _, block := range msg.Content {
		switch {
		case toolName != "" && block.Type == "tool_use" && block.Name == toolName:
			content.Write(block.Input)
		case toolName == "" && block.Type == "text":
			content.WriteString(block.Text)
		}
	}

	return llm.Response{
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: content.String(),
		},
		Usage: llm.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

// requiredFields reads a schema's "required" list, which arrives as []any
// once the schema has been through JSON.
func requiredFields(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
