package aiproviders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Abraxas-365/doccraft/ai/llm"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements the LLM interface for OpenAI chat completions
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider. The key is required;
// callers resolve it from configuration.
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIProvider{
		client: openai.NewClient(options...),
	}
}

// Chat implements the LLM interface
func (p *OpenAIProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	options := llm.Apply(opts...)

	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		openAIMsg, err := convertToOpenAIMessage(msg)
		if err != nil {
			return llm.Response{}, err
		}
		openAIMessages = append(openAIMessages, openAIMsg)
	}

	params := openai.ChatCompletionNewParams{
		Messages: openAIMessages,
	}

	if options.Model != "" {
		params.Model = options.Model
	}

	if options.Temperature != 0 {
		params.Temperature = openai.Float(float64(options.Temperature))
	}

	// max_completion_tokens is the field reasoning models accept
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(options.MaxTokens))
	}

	if options.Seed != 0 {
		params.Seed = openai.Int(options.Seed)
	}

	if options.User != "" {
		params.User = openai.String(options.User)
	}

	if options.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	} else if options.ResponseFormat != nil {
		format, err := convertToResponseFormatParam(options.ResponseFormat)
		if err != nil {
			return llm.Response{}, err
		}
		params.ResponseFormat = format
	}

	var reqOpts []option.RequestOption
	for k, v := range options.Headers {
		reqOpts = append(reqOpts, option.WithHeader(k, v))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		return llm.Response{}, err
	}

	return convertFromOpenAIResponse(completion)
}

func convertToOpenAIMessage(msg llm.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case llm.RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case llm.RoleUser:
		return openai.UserMessage(msg.Content), nil
	case llm.RoleAssistant:
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, errors.New("unsupported role: " + msg.Role)
	}
}

func convertToResponseFormatParam(format *llm.ResponseFormat) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	switch format.Type {
	case llm.JSONObject:
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}, nil
	case llm.JSONSchema:
		schema, err := schemaMap(format.JSONSchema)
		if err != nil {
			return openai.ChatCompletionNewParamsResponseFormatUnion{}, err
		}
		name := format.Name
		if name == "" {
			name = "schema"
		}
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Strict: openai.Bool(true),
					Schema: schema,
				},
			},
		}, nil
	default:
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfText: &shared.ResponseFormatTextParam{},
		}, nil
	}
}

func convertFromOpenAIResponse(completion *openai.ChatCompletion) (llm.Response, error) {
	if len(completion.Choices) == 0 {
		return llm.Response{}, errors.New("no choices in response")
	}

	choice := completion.Choices[0]
	return llm.Response{
		Message: llm.Message{
			Role:    string(choice.Message.Role),
			Content: choice.Message.Content,
		},
		Usage: llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

// schemaMap normalizes a schema given as a map or any JSON-marshalable value
func schemaMap(schema any) (map[string]any, error) {
	if m, ok := schema.(map[string]any); ok {
		return m, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal json schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("json schema must be an object: %w", err)
	}
	return m, nil
}
