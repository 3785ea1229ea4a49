package llm

// ResponseFormatType selects how the model shapes its reply
type ResponseFormatType string

const (
	Text       ResponseFormatType = "text"
	JSONObject ResponseFormatType = "json_object"
	JSONSchema ResponseFormatType = "json_schema"
)

// ResponseFormat requests structured output
type ResponseFormat struct {
	Type ResponseFormatType
	// Name identifies the schema to the provider
	Name string
	// JSONSchema is a JSON schema document (map or struct)
	JSONSchema any
}

// ChatOptions contains options for generating chat completions
type ChatOptions struct {
	Model          string            // Model name/identifier
	Temperature    float32           // Controls randomness, zero leaves the provider default
	MaxTokens      int               // Maximum number of tokens to generate
	ResponseFormat *ResponseFormat   // Structured output format
	JSONMode       bool              // Shorthand for JSON object response format
	Seed           int64             // Random seed for deterministic results
	User           string            // Identifier representing end-user
	Headers        map[string]string // Custom headers to send with the request
}

// Option is a function type to modify ChatOptions
type Option func(*ChatOptions)

// WithModel sets the model to use
func WithModel(model string) Option {
	return func(o *ChatOptions) {
		o.Model = model
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(temp float32) Option {
	return func(o *ChatOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate
func WithMaxTokens(tokens int) Option {
	return func(o *ChatOptions) {
		o.MaxTokens = tokens
	}
}

// WithJSONMode enables JSON mode
func WithJSONMode() Option {
	return func(o *ChatOptions) {
		o.JSONMode = true
	}
}

// WithResponseFormat requests a structured reply
func WithResponseFormat(format ResponseFormat) Option {
	return func(o *ChatOptions) {
		o.ResponseFormat = &format
	}
}

// WithSeed sets the random seed
func WithSeed(seed int64) Option {
	return func(o *ChatOptions) {
		o.Seed = seed
	}
}

// WithUser sets the user identifier
func WithUser(user string) Option {
	return func(o *ChatOptions) {
		o.User = user
	}
}

// WithHeader adds a custom header to the request
func WithHeader(key, value string) Option {
	return func(o *ChatOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

// DefaultOptions returns the default options
func DefaultOptions() *ChatOptions {
	return &ChatOptions{}
}

// Apply builds ChatOptions from defaults and opts
func Apply(opts ...Option) *ChatOptions {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
