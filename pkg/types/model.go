package types

// ModelInfo describes the model behind a provider.
type ModelInfo struct {
	// Name is the model identifier, e.g. "gpt-4o".
	Name string

	// Provider is the provider identifier, e.g. "openai".
	Provider string

	// MaxTokens is the context window used for prompt budgeting.
	MaxTokens int

	// SupportsVision reports whether image parts may be sent.
	SupportsVision bool

	// Metadata holds provider-specific details such as a custom base URL.
	Metadata map[string]interface{}
}
