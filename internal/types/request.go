package types

import "time"

// SummaryRequest is the canonical internal representation of an incoming
// meta-description generation request.
type SummaryRequest struct {
	// Identity (set by auth middleware)
	RequestID      string `json:"-"`
	OrganizationID string `json:"-"`
	TeamID         string `json:"-"`
	APIKeyID       string `json:"-"`

	// Request content
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Prompt   string `json:"prompt"`

	// Internal tracking
	ReceivedAt time.Time `json:"-"`
}
