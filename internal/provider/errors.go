package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // bad caller input, no network call made
	KindTransport  ErrorKind = "transport"  // network/connection failure
	KindHTTP       ErrorKind = "http"       // vendor returned a non-2xx status
	KindDecode     ErrorKind = "decode"     // response body is not valid JSON
	KindParse      ErrorKind = "parse"      // JSON valid but expected fields missing/mistyped
)

// Error is the single error type returned by providers. Every vendor-hook
// failure is converted into one of these before it reaches the caller.
type Error struct {
	Kind     ErrorKind
	Provider string
	Status   int // HTTP status for KindHTTP, zero otherwise
	Message  string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s error: %s", e.Provider, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// AsError unwraps err into *Error if it is one.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func validationErr(providerName, message string) *Error {
	return &Error{Kind: KindValidation, Provider: providerName, Message: message}
}

func transportErr(providerName, message string) *Error {
	return &Error{Kind: KindTransport, Provider: providerName, Message: message}
}

func httpErr(providerName string, status int, message string) *Error {
	return &Error{Kind: KindHTTP, Provider: providerName, Status: status, Message: message}
}

func decodeErr(providerName, message string) *Error {
	return &Error{Kind: KindDecode, Provider: providerName, Message: message}
}

func parseErr(providerName, message string) *Error {
	return &Error{Kind: KindParse, Provider: providerName, Message: message}
}

// redactKey removes any occurrence of the API key from a message so that
// credentials never leak through error text surfaced to callers or logs.
func redactKey(message, apiKey string) string {
	if apiKey == "" {
		return message
	}
	return strings.ReplaceAll(message, apiKey, "[redacted]")
}
