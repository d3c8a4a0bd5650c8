// Package llm provides abstractions for LLM provider integration.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := provider.Complete(ctx, []*types.Message{
//	    types.NewUserMessage("Hello!"),
//	}, llm.CompletionOptions{})
package llm

import (
	"context"

	"github.com/entrhq/surfer/pkg/types"
)

// ModelCloner is an optional interface that LLM providers can implement to
// support lightweight per-call model overrides without constructing a full
// second provider. The returned provider shares credentials and transport with
// the original but directs calls to the given model.
type ModelCloner interface {
	CloneWithModel(model string) Provider
}

// Tool is a function the model may call, described by a JSON schema.
type Tool struct {
	// Name is the function name, e.g. "visit_url".
	Name string

	// Description tells the model when to use the tool.
	Description string

	// Parameters is the JSON schema of the arguments object.
	Parameters map[string]interface{}
}

// CompletionOptions tunes a single completion request.
type CompletionOptions struct {
	// Tools offered to the model. When non-empty the model may answer with tool calls.
	Tools []Tool

	// MaxTokens caps the completion length (0 means provider default).
	MaxTokens int
}

// Provider defines the interface for LLM integrations.
//
// Providers handle API communication with LLM services. They translate the
// module's multimodal messages into the provider's wire format and return the
// assistant message, including any tool calls and token usage.
type Provider interface {
	// Complete sends messages to the LLM and returns the full response.
	//
	// Image parts on user messages are sent as inline data URIs. Image parts
	// on other roles are flattened to text placeholders.
	Complete(ctx context.Context, messages []*types.Message, opts CompletionOptions) (*types.Message, error)

	// GetModelInfo returns information about the LLM model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string
}

// WithModelOverride returns a provider bound to model when the provider supports
// cloning and model is non-empty; otherwise it returns p unchanged.
func WithModelOverride(p Provider, model string) Provider {
	if model == "" || model == p.GetModel() {
		return p
	}
	if cloner, ok := p.(ModelCloner); ok {
		return cloner.CloneWithModel(model)
	}
	return p
}

// ObjectSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func ObjectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
