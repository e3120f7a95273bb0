package secrets

import (
	"context"
	"fmt"

	"github.com/seoforge/metadesc/internal/config"
	"github.com/seoforge/metadesc/internal/filter"
	"github.com/seoforge/metadesc/internal/types"
)

// Detection represents a detected secret in text.
type Detection struct {
	PatternName string // e.g. "AWS Access Key"
	Start       int    // byte offset
	End         int    // byte offset
}

// Scanner scans prompt text for secrets using pre-compiled regex patterns.
// Page content pasted into a prompt occasionally contains credentials that
// must not be forwarded to a vendor.
type Scanner struct {
	patterns []Pattern
	cfg      func() config.SecretsFilterConfig
}

// NewScanner creates a scanner with the default secret patterns.
func NewScanner(cfg func() config.SecretsFilterConfig) *Scanner {
	return &Scanner{patterns: DefaultPatterns(), cfg: cfg}
}

func (s *Scanner) Name() string  { return "secrets" }
func (s *Scanner) Enabled() bool { return s.cfg().Enabled }

// Scan checks a single text string for secrets and returns all detections.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, p := range s.patterns {
		locs := p.Regex.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			detections = append(detections, Detection{
				PatternName: p.Name,
				Start:       loc[0],
				End:         loc[1],
			})
		}
	}
	return detections
}

// ScanRequest implements filter.Filter. Any detection blocks the request.
func (s *Scanner) ScanRequest(_ context.Context, req *types.SummaryRequest) filter.Result {
	detections := s.Scan(req.Prompt)
	if len(detections) > 0 {
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "secrets",
			Message:    fmt.Sprintf("Request blocked: %s detected in prompt", detections[0].PatternName),
			Detections: len(detections),
		}
	}
	return filter.Result{Action: filter.ActionPass, FilterName: "secrets"}
}
