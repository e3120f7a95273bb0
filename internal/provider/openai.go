package provider

import (
	"fmt"
	"strings"
)

const (
	openAIDefaultBase = "https://api.openai.com/v1/"
	openAIKeyURL      = "https://platform.openai.com/api-keys"
)

// openAIModelPrefixes are the generation-model families surfaced to users.
// The vendor's model list also carries embeddings, audio, and moderation
// models that cannot serve chat completions.
var openAIModelPrefixes = []string{"gpt-3.5", "gpt-4"}

// NewOpenAI creates the OpenAI provider. An empty baseURL selects the
// public v1 API root.
func NewOpenAI(baseURL string, transport Transport) Provider {
	if baseURL == "" {
		baseURL = openAIDefaultBase
	}
	return newClient(vendor{
		name:            "openai",
		title:           "OpenAI",
		defaultModel:    "gpt-3.5-turbo",
		apiKeyURL:       openAIKeyURL,
		apiBase:         baseURL,
		summaryEndpoint: "chat/completions",
		modelsEndpoint:  "models",

		buildSummaryBody: func(model, prompt string) any {
			return map[string]any{
				"model": model,
				"messages": []map[string]string{
					{"role": "user", "content": prompt},
				},
				"max_tokens":  70,
				"temperature": 0.6,
			}
		},
		parseSummary:   parseOpenAISummary,
		parseModelList: parseOpenAIModelList,
		errorMessage:   vendorErrorMessage,
	}, transport)
}

func parseOpenAISummary(decoded map[string]any) (string, error) {
	choices, ok := decoded["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("malformed choice in response")
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("no message in first choice")
	}
	content, ok := message["content"].(string)
	if !ok {
		return "", fmt.Errorf("no content in message")
	}
	return content, nil
}

func parseOpenAIModelList(decoded map[string]any) ([]ModelDescriptor, error) {
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
		if !isGenerationModel(id) {
			continue
		}
		models = append(models, ModelDescriptor{ID: id, DisplayName: id})
	}
	return models, nil
}

func isGenerationModel(id string) bool {
	for _, prefix := range openAIModelPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

// vendorErrorMessage reads the {"error": {"message": ...}} shape shared by
// OpenAI and Anthropic error bodies.
func vendorErrorMessage(decoded map[string]any) string {
	errObj, ok := decoded["error"].(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := errObj["message"].(string)
	return msg
}
