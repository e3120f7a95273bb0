package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/seoforge/metadesc/internal/provider"
)

// APIError is the JSON error envelope returned by every endpoint.
type APIError struct {
	Error APIErrorBody `json:"error"`
}

type APIErrorBody struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, requestID string, statusCode int, errType, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIError{
		Error: APIErrorBody{
			Message:   message,
			Type:      errType,
			Code:      code,
			RequestID: requestID,
		},
	})
}

func WriteAuthError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusUnauthorized, "authentication_error", "invalid_api_key", message)
}

func WriteBadRequestError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusBadRequest, "invalid_request_error", "invalid_request", message)
}

func WriteNotFoundError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusNotFound, "invalid_request_error", "not_found", message)
}

func WriteInternalError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusInternalServerError, "server_error", "internal_error", message)
}

func WriteServiceUnavailableError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusServiceUnavailable, "server_error", "service_unavailable", message)
}

func WriteContentBlockedError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, 451, "content_filter_error", "content_blocked", message)
}

// WriteProviderError maps a provider-layer failure onto the HTTP surface.
// Vendor-side failures are upstream errors from this service's point of
// view, so they surface as 502/503 rather than echoing the vendor status.
func WriteProviderError(w http.ResponseWriter, requestID string, err error) {
	pe, ok := provider.AsError(err)
	if !ok {
		WriteInternalError(w, requestID, "Generation failed")
		return
	}

	switch pe.Kind {
	case provider.KindValidation:
		WriteBadRequestError(w, requestID, pe.Message)
	case provider.KindTransport:
		WriteError(w, requestID, http.StatusServiceUnavailable, "upstream_error", "provider_unreachable", pe.Error())
	case provider.KindHTTP:
		WriteError(w, requestID, http.StatusBadGateway, "upstream_error", "provider_error", pe.Error())
	case provider.KindDecode, provider.KindParse:
		WriteError(w, requestID, http.StatusBadGateway, "upstream_error", "provider_response_invalid", pe.Error())
	default:
		WriteInternalError(w, requestID, pe.Error())
	}
}
