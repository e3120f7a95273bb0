package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seoforge/metadesc/internal/auth"
	"github.com/seoforge/metadesc/internal/config"
	"github.com/seoforge/metadesc/internal/filter"
	"github.com/seoforge/metadesc/internal/httputil"
	"github.com/seoforge/metadesc/internal/provider"
	"github.com/seoforge/metadesc/internal/telemetry"
	"github.com/seoforge/metadesc/internal/types"
)

// Handler holds dependencies for the metadesc HTTP handlers.
type Handler struct {
	registry     *provider.Registry
	providersCfg func() *config.ProvidersConfig
	cfg          func() *config.Config
	filterChain  *filter.Chain
	metrics      *telemetry.Metrics
}

func NewHandler(registry *provider.Registry, providersCfg func() *config.ProvidersConfig, cfg func() *config.Config, filterChain *filter.Chain, metrics *telemetry.Metrics) *Handler {
	return &Handler{
		registry:     registry,
		providersCfg: providersCfg,
		cfg:          cfg,
		filterChain:  filterChain,
		metrics:      metrics,
	}
}

// CreateSummary handles POST /v1/summaries
func (h *Handler) CreateSummary(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	authInfo, ok := auth.AuthFromContext(r.Context())
	if !ok {
		httputil.WriteAuthError(w, reqID, "Not authenticated")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var req types.SummaryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}

	req.RequestID = reqID
	req.OrganizationID = authInfo.OrganizationID
	req.TeamID = authInfo.TeamID
	req.APIKeyID = authInfo.KeyID
	req.ReceivedAt = receivedAt

	if req.Provider == "" {
		httputil.WriteBadRequestError(w, reqID, "provider is required")
		return
	}
	if maxChars := h.cfg().Generation.MaxPromptChars; maxChars > 0 && len(req.Prompt) > maxChars {
		httputil.WriteBadRequestError(w, reqID, "prompt exceeds maximum length")
		return
	}

	p, ok := h.registry.Get(req.Provider)
	if !ok {
		httputil.WriteNotFoundError(w, reqID, "Unknown provider: "+req.Provider)
		return
	}
	if !authInfo.AllowsProvider(p.Name()) {
		httputil.WriteError(w, reqID, http.StatusForbidden, "permission_error", "provider_not_allowed",
			"This API key may not use provider "+p.Name())
		return
	}

	provCfg := h.providersCfg().Providers[p.Name()]
	if !provCfg.Configured() {
		httputil.WriteServiceUnavailableError(w, reqID, "Provider "+p.Name()+" has no API key configured")
		return
	}

	// Run prompt filter chain (secrets, injection, policy)
	if h.filterChain != nil {
		results, blocked := h.filterChain.Run(r.Context(), &req)
		if blocked != nil {
			slog.Warn("request blocked by filter",
				"request_id", reqID,
				"filter", blocked.FilterName,
				"detections", blocked.Detections,
				"score", blocked.Score,
				"org_id", authInfo.OrganizationID,
			)
			if h.metrics != nil {
				h.metrics.RecordFilterAction(blocked.FilterName, string(blocked.Action))
			}
			httputil.WriteContentBlockedError(w, reqID, blocked.Message)
			return
		}
		for _, fr := range results {
			if fr.Action == filter.ActionFlag && h.metrics != nil {
				h.metrics.RecordFilterAction(fr.FilterName, "flag")
			}
		}
	}

	// Model precedence: request > configured default > provider default.
	model := req.Model
	if model == "" {
		model = provCfg.Model
	}
	if model == "" {
		model = p.DefaultModel()
	}

	ctx, cancel := h.generationContext(r.Context())
	defer cancel()

	summary, err := p.GenerateSummary(ctx, provCfg.APIKey, model, req.Prompt)
	duration := time.Since(receivedAt)

	if err != nil {
		kind := ""
		if pe, ok := provider.AsError(err); ok {
			kind = string(pe.Kind)
		}
		slog.Error("summary generation failed",
			"request_id", reqID,
			"provider", p.Name(),
			"model", model,
			"error", err,
			"duration_ms", duration.Milliseconds(),
			"org_id", authInfo.OrganizationID,
		)
		if h.metrics != nil {
			h.metrics.RecordSummary(telemetry.SummaryLabels{
				Org:        authInfo.OrganizationID,
				Team:       authInfo.TeamID,
				Provider:   p.Name(),
				Model:      model,
				Status:     "error",
				ErrorKind:  kind,
				DurationMs: float64(duration.Milliseconds()),
			})
		}
		httputil.WriteProviderError(w, reqID, err)
		return
	}

	slog.Info("summary generated",
		"request_id", reqID,
		"provider", p.Name(),
		"model", model,
		"summary_chars", len(summary),
		"duration_ms", duration.Milliseconds(),
		"org_id", authInfo.OrganizationID,
		"team_id", authInfo.TeamID,
	)
	if h.metrics != nil {
		h.metrics.RecordSummary(telemetry.SummaryLabels{
			Org:        authInfo.OrganizationID,
			Team:       authInfo.TeamID,
			Provider:   p.Name(),
			Model:      model,
			Status:     "ok",
			DurationMs: float64(duration.Milliseconds()),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types.SummaryResponse{
		RequestID: reqID,
		Provider:  p.Name(),
		Model:     model,
		Summary:   summary,
	})
}

// ListProviders handles GET /v1/providers
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	provCfg := h.providersCfg()

	var out []providerObject
	for _, p := range h.registry.All() {
		cfg := provCfg.Providers[p.Name()]
		model := cfg.Model
		if model == "" {
			model = p.DefaultModel()
		}
		out = append(out, providerObject{
			Name:         p.Name(),
			Title:        p.Title(),
			DefaultModel: p.DefaultModel(),
			Model:        model,
			APIKeyURL:    p.APIKeyURL(),
			Configured:   cfg.Configured(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(providerListResponse{Object: "list", Data: out})
}

// ListProviderModels handles GET /v1/providers/{name}/models
func (h *Handler) ListProviderModels(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	name := chi.URLParam(r, "name")

	authInfo, ok := auth.AuthFromContext(r.Context())
	if !ok {
		httputil.WriteAuthError(w, reqID, "Not authenticated")
		return
	}

	p, ok := h.registry.Get(name)
	if !ok {
		httputil.WriteNotFoundError(w, reqID, "Unknown provider: "+name)
		return
	}
	if !authInfo.AllowsProvider(p.Name()) {
		httputil.WriteError(w, reqID, http.StatusForbidden, "permission_error", "provider_not_allowed",
			"This API key may not use provider "+p.Name())
		return
	}

	provCfg := h.providersCfg().Providers[p.Name()]
	if !provCfg.Configured() {
		httputil.WriteServiceUnavailableError(w, reqID, "Provider "+p.Name()+" has no API key configured")
		return
	}

	ctx, cancel := h.generationContext(r.Context())
	defer cancel()

	models, err := p.FetchModels(ctx, provCfg.APIKey)
	if err != nil {
		slog.Error("model list fetch failed", "request_id", reqID, "provider", p.Name(), "error", err)
		if h.metrics != nil {
			h.metrics.RecordModelList(p.Name(), "error")
		}
		httputil.WriteProviderError(w, reqID, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordModelList(p.Name(), "ok")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(modelListResponse{
		Object:   "list",
		Provider: p.Name(),
		Data:     models,
	})
}

func (h *Handler) generationContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := h.cfg().Generation.DefaultTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}

type providerObject struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	DefaultModel string `json:"default_model"`
	Model        string `json:"model"`
	APIKeyURL    string `json:"api_key_url"`
	Configured   bool   `json:"configured"`
}

type providerListResponse struct {
	Object string           `json:"object"`
	Data   []providerObject `json:"data"`
}

type modelListResponse struct {
	Object   string                     `json:"object"`
	Provider string                     `json:"provider"`
	Data     []provider.ModelDescriptor `json:"data"`
}
