package aiproviders

import (
	"fmt"

	"github.com/Abraxas-365/doccraft/ai/llm"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/option"
)

// Supported provider names
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Credentials carries per-provider API keys and optional endpoint overrides
type Credentials struct {
	OpenAIKey        string
	OpenAIBaseURL    string
	AnthropicKey     string
	AnthropicBaseURL string
}

// New builds a client for ref with the model preselected
func New(ref llm.ModelRef, creds Credentials) (*llm.Client, error) {
	var provider llm.LLM

	switch ref.Provider {
	case ProviderOpenAI:
		if creds.OpenAIKey == "" {
			return nil, fmt.Errorf("openai api key is not configured")
		}
		var opts []option.RequestOption
		if creds.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(creds.OpenAIBaseURL))
		}
		provider = NewOpenAIProvider(creds.OpenAIKey, opts...)
	case ProviderAnthropic:
		if creds.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic api key is not configured")
		}
		var opts []aoption.RequestOption
		if creds.AnthropicBaseURL != "" {
			opts = append(opts, aoption.WithBaseURL(creds.AnthropicBaseURL))
		}
		provider = NewAnthropicProvider(creds.AnthropicKey, opts...)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", ref.Provider)
	}

	return llm.NewClient(provider, llm.WithModel(ref.Model)), nil
}
