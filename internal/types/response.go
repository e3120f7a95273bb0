package types

type SummaryResponse struct {
	RequestID string `json:"request_id"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Summary   string `json:"summary"`
}
