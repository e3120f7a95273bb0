package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// vendor holds the per-vendor fill-ins for the shared request engine:
// identity metadata, endpoint layout, payload shape, and response parsing.
// This replaces subclass hooks with a plain struct of functions, so every
// vendor shares one request skeleton without virtual dispatch.
type vendor struct {
	name         string
	title        string
	defaultModel string
	apiKeyURL    string

	apiBase         string
	summaryEndpoint string
	modelsEndpoint  string

	buildSummaryBody func(model, prompt string) any
	parseSummary     func(decoded map[string]any) (string, error)
	parseModelList   func(decoded map[string]any) ([]ModelDescriptor, error)
	// errorMessage extracts a human-readable message from a decoded vendor
	// error body. Returning "" falls back to the raw body.
	errorMessage func(decoded map[string]any) string
	// prepareHeaders mutates the default headers for non-standard auth
	// schemes. Nil means Bearer auth as-is.
	prepareHeaders func(headers map[string]string, apiKey string)
}

// client executes the shared request/parse pipeline for one vendor.
// It holds no mutable per-request state and is safe for concurrent use;
// credentials and model selection are passed per call.
type client struct {
	vendor
	transport Transport
}

func newClient(v vendor, transport Transport) *client {
	return &client{vendor: v, transport: transport}
}

func (c *client) Name() string         { return c.name }
func (c *client) Title() string        { return c.title }
func (c *client) DefaultModel() string { return c.defaultModel }
func (c *client) APIKeyURL() string    { return c.apiKeyURL }

// GenerateSummary runs the shared generation pipeline: validate, build the
// vendor request, invoke the transport, decode, and delegate extraction of
// the result (or of error text) to the vendor hooks.
func (c *client) GenerateSummary(ctx context.Context, apiKey, model, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", validationErr(c.name, "prompt must not be empty")
	}
	if model == "" {
		model = c.defaultModel
	}

	body, err := json.Marshal(c.buildSummaryBody(model, prompt))
	if err != nil {
		return "", validationErr(c.name, "encode request body: "+err.Error())
	}

	decoded, perr := c.exchange(ctx, http.MethodPost, c.apiBase+c.summaryEndpoint, apiKey, body)
	if perr != nil {
		return "", perr
	}

	summary, err := c.parseSummary(decoded)
	if err != nil {
		return "", parseErr(c.name, err.Error())
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", parseErr(c.name, "vendor returned an empty summary")
	}
	return summary, nil
}

// FetchModels runs the analogous GET pipeline against the vendor's models
// endpoint and normalizes the result through the vendor's list parser.
func (c *client) FetchModels(ctx context.Context, apiKey string) ([]ModelDescriptor, error) {
	decoded, perr := c.exchange(ctx, http.MethodGet, c.apiBase+c.modelsEndpoint, apiKey, nil)
	if perr != nil {
		return nil, perr
	}

	models, err := c.parseModelList(decoded)
	if err != nil {
		return nil, parseErr(c.name, err.Error())
	}
	return models, nil
}

// exchange performs one signed HTTP call and returns the decoded JSON body.
// Transport failures, non-2xx statuses, and undecodable bodies come back as
// typed errors with the API key scrubbed from every message.
func (c *client) exchange(ctx context.Context, method, url, apiKey string, body []byte) (map[string]any, *Error) {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + apiKey,
	}
	if c.prepareHeaders != nil {
		c.prepareHeaders(headers, apiKey)
	}

	status, respBody, err := c.transport.Do(ctx, method, url, headers, body)
	if err != nil {
		return nil, transportErr(c.name, redactKey(err.Error(), apiKey))
	}

	if status < 200 || status > 299 {
		return nil, httpErr(c.name, status, redactKey(c.extractErrorMessage(status, respBody), apiKey))
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, decodeErr(c.name, "response body is not valid JSON")
	}
	return decoded, nil
}

// extractErrorMessage builds a human-readable message for a failed exchange,
// preferring the vendor's structured error text over the raw body.
func (c *client) extractErrorMessage(status int, respBody []byte) string {
	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err == nil {
		if msg := c.errorMessage(decoded); msg != "" {
			return msg
		}
	}
	if raw := strings.TrimSpace(string(respBody)); raw != "" {
		return raw
	}
	return fmt.Sprintf("request failed with status %d", status)
}
