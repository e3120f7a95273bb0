package config

import "time"

// ProvidersConfig maps provider names ("openai", "anthropic") to their
// vendor credentials and model selection. This is the configuration
// collaborator of the provider layer: it supplies api_key and model per
// provider name before any call.
type ProvidersConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
	// Model overrides the provider's default model when set.
	Model string `yaml:"model,omitempty"`
	// BaseURL overrides the vendor API root, e.g. to point at a proxy or a
	// compatible self-hosted endpoint.
	BaseURL string        `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Get returns the configuration for a provider by name.
func (c *ProvidersConfig) Get(name string) (ProviderConfig, bool) {
	if c == nil {
		return ProviderConfig{}, false
	}
	p, ok := c.Providers[name]
	return p, ok
}

// Configured reports whether the provider has a usable credential.
func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}
