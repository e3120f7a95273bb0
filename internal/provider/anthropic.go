package provider

import "fmt"

const (
	anthropicDefaultBase = "https://api.anthropic.com/v1/"
	anthropicKeyURL      = "https://console.anthropic.com/settings/keys"
	anthropicVersion     = "2023-06-01"
)

// NewAnthropic creates the Anthropic provider. An empty baseURL selects the
// public v1 API root.
func NewAnthropic(baseURL string, transport Transport) Provider {
	if baseURL == "" {
		baseURL = anthropicDefaultBase
	}
	return newClient(vendor{
		name:            "anthropic",
		title:           "Anthropic",
		defaultModel:    "claude-3-haiku-20240307",
		apiKeyURL:       anthropicKeyURL,
		apiBase:         baseURL,
		summaryEndpoint: "messages",
		modelsEndpoint:  "models",

		buildSummaryBody: func(model, prompt string) any {
			return map[string]any{
				"model": model,
				"messages": []map[string]string{
					{"role": "user", "content": prompt},
				},
				// Anthropic enforces a higher max_tokens floor than the
				// ~160 characters a meta description needs.
				"max_tokens":  150,
				"temperature": 0.6,
			}
		},
		parseSummary:   parseAnthropicSummary,
		parseModelList: parseAnthropicModelList,
		errorMessage:   vendorErrorMessage,
		prepareHeaders: func(headers map[string]string, apiKey string) {
			delete(headers, "Authorization")
			headers["x-api-key"] = apiKey
			headers["anthropic-version"] = anthropicVersion
		},
	}, transport)
}

// parseAnthropicSummary reads the first content block, which must be of
// type "text".
func parseAnthropicSummary(decoded map[string]any) (string, error) {
	content, ok := decoded["content"].([]any)
	if !ok || len(content) == 0 {
		return "", fmt.Errorf("no content blocks in response")
	}
	block, ok := content[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("malformed content block in response")
	}
	if blockType, _ := block["type"].(string); blockType != "text" {
		return "", fmt.Errorf("first content block is not text")
	}
	text, ok := block["text"].(string)
	if !ok {
		return "", fmt.Errorf("text block has no text field")
	}
	return text, nil
}

func parseAnthropicModelList(decoded map[string]any) ([]ModelDescriptor, error) {
	data, ok := decoded["data"].([]any)
	if !ok {
		return nil, fmt.Errorf("model list is missing a data array")
	}

	var models []ModelDescriptor
	for _, entry := range data {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, ok := m["id"].(string)
		if !ok {
			continue
		}
		displayName, _ := m["display_name"].(string)
		if displayName == "" {
			displayName = id
		}
		models = append(models, ModelDescriptor{ID: id, DisplayName: displayName})
	}
	return models, nil
}
