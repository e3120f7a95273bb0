package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/seoforge/metadesc/internal/auth"
	"github.com/seoforge/metadesc/internal/config"
	"github.com/seoforge/metadesc/internal/filter"
	"github.com/seoforge/metadesc/internal/httputil"
	"github.com/seoforge/metadesc/internal/provider"
	"github.com/seoforge/metadesc/internal/types"
)

// stubProvider implements provider.Provider without any network I/O.
type stubProvider struct {
	name      string
	summary   string
	err       error
	models    []provider.ModelDescriptor
	modelsErr error

	gotKey    string
	gotModel  string
	gotPrompt string
}

func (s *stubProvider) Name() string         { return s.name }
func (s *stubProvider) Title() string        { return strings.ToUpper(s.name[:1]) + s.name[1:] }
func (s *stubProvider) DefaultModel() string { return "stub-default" }
func (s *stubProvider) APIKeyURL() string    { return "https://example.com/keys" }

func (s *stubProvider) FetchModels(ctx context.Context, apiKey string) ([]provider.ModelDescriptor, error) {
	s.gotKey = apiKey
	return s.models, s.modelsErr
}

func (s *stubProvider) GenerateSummary(ctx context.Context, apiKey, model, prompt string) (string, error) {
	s.gotKey = apiKey
	s.gotModel = model
	s.gotPrompt = prompt
	return s.summary, s.err
}

// blockFilter blocks every request it scans.
type blockFilter struct{}

func (blockFilter) Name() string  { return "testblock" }
func (blockFilter) Enabled() bool { return true }
func (blockFilter) ScanRequest(_ context.Context, _ *types.SummaryRequest) filter.Result {
	return filter.Result{
		Action:     filter.ActionBlock,
		FilterName: "testblock",
		Message:    "Request blocked: test",
	}
}

func testProvidersCfg() func() *config.ProvidersConfig {
	return func() *config.ProvidersConfig {
		return &config.ProvidersConfig{
			Providers: map[string]config.ProviderConfig{
				"openai":    {APIKey: "test-key", Model: "gpt-4"},
				"anthropic": {},
			},
		}
	}
}

func testServiceCfg() func() *config.Config {
	return func() *config.Config {
		cfg := config.DefaultConfig()
		cfg.Generation.MaxPromptChars = 1000
		return cfg
	}
}

func newTestRouter(h *Handler, info *auth.AuthInfo) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Request-ID", "req_test")
			next.ServeHTTP(w, req.WithContext(auth.ContextWithAuth(req.Context(), info)))
		})
	})
	r.Post("/v1/summaries", h.CreateSummary)
	r.Get("/v1/providers", h.ListProviders)
	r.Get("/v1/providers/{name}/models", h.ListProviderModels)
	return r
}

func testAuth() *auth.AuthInfo {
	return &auth.AuthInfo{
		KeyID:          "key-1",
		OrganizationID: "org-1",
		TeamID:         "team-1",
	}
}

func postSummary(t *testing.T, router http.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/summaries", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateSummary_Success(t *testing.T) {
	stub := &stubProvider{name: "openai", summary: "Cats are great pets."}
	registry := provider.NewRegistry()
	registry.Register(stub)

	h := NewHandler(registry, testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	w := postSummary(t, router, map[string]any{
		"provider": "openai",
		"prompt":   "Write a meta description for a page about cats.",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp types.SummaryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Summary != "Cats are great pets." {
		t.Errorf("expected summary, got %q", resp.Summary)
	}
	if resp.Provider != "openai" {
		t.Errorf("expected provider openai, got %q", resp.Provider)
	}
	// Configured model wins over the provider default when the request sets none
	if resp.Model != "gpt-4" {
		t.Errorf("expected configured model gpt-4, got %q", resp.Model)
	}
	if stub.gotKey != "test-key" {
		t.Errorf("expected configured key passed through, got %q", stub.gotKey)
	}
	if stub.gotModel != "gpt-4" {
		t.Errorf("expected model gpt-4 passed to provider, got %q", stub.gotModel)
	}
}

func TestCreateSummary_RequestModelWins(t *testing.T) {
	stub := &stubProvider{name: "openai", summary: "ok"}
	registry := provider.NewRegistry()
	registry.Register(stub)

	h := NewHandler(registry, testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	w := postSummary(t, router, map[string]any{
		"provider": "openai",
		"model":    "gpt-4-turbo",
		"prompt":   "Describe this page.",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.gotModel != "gpt-4-turbo" {
		t.Errorf("expected request model to win, got %q", stub.gotModel)
	}
}

func TestCreateSummary_MissingProvider(t *testing.T) {
	h := NewHandler(provider.NewRegistry(), testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	w := postSummary(t, router, map[string]any{"prompt": "hello"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCreateSummary_UnknownProvider(t *testing.T) {
	h := NewHandler(provider.NewRegistry(), testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	w := postSummary(t, router, map[string]any{
		"provider": "nope",
		"prompt":   "hello",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCreateSummary_ProviderNotAllowed(t *testing.T) {
	stub := &stubProvider{name: "openai", summary: "ok"}
	registry := provider.NewRegistry()
	registry.Register(stub)

	info := testAuth()
	info.AllowedProviders = []string{"anthropic"}

	h := NewHandler(registry, testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, info)

	w := postSummary(t, router, map[string]any{
		"provider": "openai",
		"prompt":   "hello",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}

	var resp httputil.APIError
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "provider_not_allowed" {
		t.Errorf("expected code provider_not_allowed, got %q", resp.Error.Code)
	}
}

func TestCreateSummary_UnconfiguredProvider(t *testing.T) {
	stub := &stubProvider{name: "anthropic", summary: "ok"}
	registry := provider.NewRegistry()
	registry.Register(stub)

	h := NewHandler(registry, testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	w := postSummary(t, router, map[string]any{
		"provider": "anthropic",
		"prompt":   "hello",
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for provider without key, got %d", w.Code)
	}
}

func TestCreateSummary_PromptTooLong(t *testing.T) {
	stub := &stubProvider{name: "openai", summary: "ok"}
	registry := provider.NewRegistry()
	registry.Register(stub)

	h := NewHandler(registry, testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	w := postSummary(t, router, map[string]any{
		"provider": "openai",
		"prompt":   strings.Repeat("x", 2000),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized prompt, got %d", w.Code)
	}
	if stub.gotPrompt != "" {
		t.Error("provider should not be called for oversized prompt")
	}
}

func TestCreateSummary_FilterBlocks(t *testing.T) {
	stub := &stubProvider{name: "openai", summary: "ok"}
	registry := provider.NewRegistry()
	registry.Register(stub)

	chain := filter.NewChain(blockFilter{})
	h := NewHandler(registry, testProvidersCfg(), testServiceCfg(), chain, nil)
	router := newTestRouter(h, testAuth())

	w := postSummary(t, router, map[string]any{
		"provider": "openai",
		"prompt":   "anything",
	})
	if w.Code != 451 {
		t.Errorf("expected 451 for blocked prompt, got %d", w.Code)
	}
	if stub.gotPrompt != "" {
		t.Error("provider should not be called when a filter blocks")
	}
}

func TestCreateSummary_ProviderError(t *testing.T) {
	stub := &stubProvider{
		name: "openai",
		err:  &provider.Error{Kind: provider.KindHTTP, Provider: "openai", Status: 429, Message: "rate limited"},
	}
	registry := provider.NewRegistry()
	registry.Register(stub)

	h := NewHandler(registry, testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	w := postSummary(t, router, map[string]any{
		"provider": "openai",
		"prompt":   "hello",
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 for vendor HTTP error, got %d", w.Code)
	}
}

func TestListProviders(t *testing.T) {
	registry := provider.NewRegistry()
	registry.Register(&stubProvider{name: "openai"})
	registry.Register(&stubProvider{name: "anthropic"})

	h := NewHandler(registry, testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp providerListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(resp.Data))
	}
	// Sorted by name: anthropic first
	if resp.Data[0].Name != "anthropic" || resp.Data[1].Name != "openai" {
		t.Errorf("expected sorted provider names, got %q, %q", resp.Data[0].Name, resp.Data[1].Name)
	}
	if resp.Data[0].Configured {
		t.Error("anthropic should report unconfigured")
	}
	if !resp.Data[1].Configured {
		t.Error("openai should report configured")
	}
	if resp.Data[1].Model != "gpt-4" {
		t.Errorf("expected effective model gpt-4, got %q", resp.Data[1].Model)
	}
}

func TestListProviderModels(t *testing.T) {
	stub := &stubProvider{
		name: "openai",
		models: []provider.ModelDescriptor{
			{ID: "gpt-3.5-turbo", DisplayName: "gpt-3.5-turbo"},
			{ID: "gpt-4", DisplayName: "gpt-4"},
		},
	}
	registry := provider.NewRegistry()
	registry.Register(stub)

	h := NewHandler(registry, testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	req := httptest.NewRequest(http.MethodGet, "/v1/providers/openai/models", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp modelListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Provider != "openai" {
		t.Errorf("expected provider openai, got %q", resp.Provider)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 models, got %d", len(resp.Data))
	}
	if stub.gotKey != "test-key" {
		t.Errorf("expected configured key passed through, got %q", stub.gotKey)
	}
}

func TestListProviderModels_UnknownProvider(t *testing.T) {
	h := NewHandler(provider.NewRegistry(), testProvidersCfg(), testServiceCfg(), nil, nil)
	router := newTestRouter(h, testAuth())

	req := httptest.NewRequest(http.MethodGet, "/v1/providers/nope/models", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
