package provider

import "context"

// Provider is the uniform contract over heterogeneous text-generation APIs.
// Calling code never branches on vendor identity; every vendor-specific
// detail (endpoints, payload shapes, auth schemes, response parsing) lives
// behind this interface.
type Provider interface {
	// Name returns the stable unique identifier, e.g. "openai". It is used
	// as the key in configuration storage by external collaborators.
	Name() string
	// Title returns the human-readable display label.
	Title() string
	// DefaultModel returns the fallback model id used when the caller
	// specifies none.
	DefaultModel() string
	// APIKeyURL returns where users obtain credentials. Informational only.
	APIKeyURL() string

	// FetchModels queries the vendor for selectable generation models.
	FetchModels(ctx context.Context, apiKey string) ([]ModelDescriptor, error)
	// GenerateSummary produces a meta-description candidate for the prompt.
	// The returned text is trimmed and non-empty. An empty model selects
	// DefaultModel. Credentials and model are request-scoped; a Provider is
	// safe for concurrent use.
	GenerateSummary(ctx context.Context, apiKey, model, prompt string) (string, error)
}

// ModelDescriptor is a normalized selectable vendor model. ID is the value
// sent back to the vendor in future requests; DisplayName falls back to ID
// when the vendor provides no separate label.
type ModelDescriptor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
