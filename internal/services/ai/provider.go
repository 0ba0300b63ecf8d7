package ai

import (
	"context"
	"encoding/json"
	"fmt"
)

// StructuredRequest describes one structured-output generation call.
// Schema is a JSON Schema object the provider must make the response
// conform to.
type StructuredRequest struct {
	SchemaName   string
	Schema       map[string]any
	SystemPrompt string
	Prompt       string
	MaxTokens    int64
}

// Usage reports token consumption for one generation call
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// StructuredResponse is the validated result of a structured generation call.
// Data is guaranteed to be valid JSON when the call succeeds.
type StructuredResponse struct {
	Data         json.RawMessage `json:"data"`
	Usage        Usage           `json:"usage"`
	FinishReason string          `json:"finish_reason"`
}

// Provider is the interface for structured-output generation services
type Provider interface {
	// GenerateStructured runs one generation call and returns the parsed
	// structured payload. Any failure is returned as an error; callers
	// decide their own retry and fallback policy.
	GenerateStructured(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error)
}

// ProviderFactory creates a provider from flat string configuration
type ProviderFactory func(config map[string]string) (Provider, error)

// ProviderRegistry stores available providers by name
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates an empty provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]ProviderFactory)}
}

// Register registers a provider factory under a name
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider builds a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("ai provider not found: %s", name)
	}
	return factory(config)
}
