package provider

import (
	"sort"
	"sync"
	"time"

	"github.com/seoforge/metadesc/internal/config"
)

const defaultVendorTimeout = 30 * time.Second

// Registry manages the known providers by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// All returns every registered provider, sorted by name for stable output.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ReplaceAll swaps in the provider set from src. Used on config reload so
// handlers holding the registry pointer see the new providers.
func (r *Registry) ReplaceAll(src *Registry) {
	src.mu.RLock()
	providers := make(map[string]Provider, len(src.providers))
	for k, v := range src.providers {
		providers[k] = v
	}
	src.mu.RUnlock()

	r.mu.Lock()
	r.providers = providers
	r.mu.Unlock()
}

// BuildFromConfig builds the provider set, applying per-provider base URL
// overrides and transport timeouts from the providers config. Providers
// without configuration are still registered; requests against them fail at
// call time when no key is supplied.
func BuildFromConfig(provCfg *config.ProvidersConfig) *Registry {
	registry := NewRegistry()
	for _, name := range []string{"openai", "anthropic"} {
		var cfg config.ProviderConfig
		if provCfg != nil {
			cfg = provCfg.Providers[name]
		}

		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultVendorTimeout
		}
		transport := NewHTTPTransport(timeout)

		switch name {
		case "openai":
			registry.Register(NewOpenAI(cfg.BaseURL, transport))
		case "anthropic":
			registry.Register(NewAnthropic(cfg.BaseURL, transport))
		}
	}
	return registry
}
