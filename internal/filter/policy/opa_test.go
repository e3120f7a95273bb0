package policy

import (
	"context"
	"testing"
	"time"

	"github.com/seoforge/metadesc/internal/config"
	"github.com/seoforge/metadesc/internal/filter"
	"github.com/seoforge/metadesc/internal/types"
)

func testCfg() func() config.PolicyFilterConfig {
	return func() config.PolicyFilterConfig {
		return config.PolicyFilterConfig{
			Enabled:           true,
			EvaluationTimeout: 100 * time.Millisecond,
		}
	}
}

const defaultPolicy = `
package metadesc.policy

import rego.v1

default allow := true
default reason := ""

deny contains msg if {
	input.caller.team == "legal"
	msg := "team legal may not send page content to external vendors"
}

deny contains msg if {
	input.request.prompt_chars > 20000
	msg := "prompt exceeds policy size cap"
}

allow := false if {
	count(deny) > 0
}

reason := concat("; ", deny) if {
	count(deny) > 0
}
`

func loadTestEvaluator(t *testing.T, policy string) *Evaluator {
	t.Helper()
	e := NewEvaluator(testCfg())
	if err := e.LoadFromModules(map[string]string{"test.rego": policy}); err != nil {
		t.Fatalf("failed to load policy: %v", err)
	}
	return e
}

func TestEvaluator_AllowByDefault(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	allowed, reason, err := e.Evaluate(context.Background(), PolicyInput{
		Caller:  PolicyCaller{Org: "org-1", Team: "content"},
		Request: PolicyRequest{Provider: "openai", Model: "gpt-4", PromptChars: 1200},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Errorf("expected allowed, got denied: %s", reason)
	}
}

func TestEvaluator_BlockRestrictedTeam(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	allowed, reason, err := e.Evaluate(context.Background(), PolicyInput{
		Caller:  PolicyCaller{Org: "org-1", Team: "legal"},
		Request: PolicyRequest{Provider: "openai", Model: "gpt-4", PromptChars: 1200},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("expected denied for restricted team")
	}
	if reason == "" {
		t.Error("expected non-empty reason")
	}
}

func TestEvaluator_BlockOversizedPrompt(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	allowed, reason, err := e.Evaluate(context.Background(), PolicyInput{
		Caller:  PolicyCaller{Org: "org-1", Team: "content"},
		Request: PolicyRequest{Provider: "anthropic", Model: "claude-3-haiku-20240307", PromptChars: 50000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("expected denied for oversized prompt")
	}
	if reason == "" {
		t.Error("expected non-empty reason")
	}
}

func TestEvaluator_NoPoliciesLoaded_FailClosed(t *testing.T) {
	e := NewEvaluator(testCfg())
	// Don't load any policies

	allowed, _, _ := e.Evaluate(context.Background(), PolicyInput{})
	if allowed {
		t.Error("expected denied when no policies loaded (fail closed)")
	}
}

func TestEvaluator_ScanRequest_Block(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	req := &types.SummaryRequest{
		OrganizationID: "org-1",
		TeamID:         "legal",
		Provider:       "openai",
		Prompt:         "Summarize this contract page.",
	}

	result := e.ScanRequest(context.Background(), req)
	if result.Action != filter.ActionBlock {
		t.Errorf("expected block for restricted team, got %s", result.Action)
	}
	if result.FilterName != "policy" {
		t.Errorf("expected filter name 'policy', got %s", result.FilterName)
	}
}

func TestEvaluator_ScanRequest_Pass(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	req := &types.SummaryRequest{
		OrganizationID: "org-1",
		TeamID:         "content",
		Provider:       "openai",
		Prompt:         "Summarize this product page about hiking boots.",
	}

	result := e.ScanRequest(context.Background(), req)
	if result.Action != filter.ActionPass {
		t.Errorf("expected pass, got %s: %s", result.Action, result.Message)
	}
	if result.FilterName != "policy" {
		t.Errorf("expected filter name 'policy', got %s", result.FilterName)
	}
}

func TestEvaluator_Disabled(t *testing.T) {
	e := NewEvaluator(func() config.PolicyFilterConfig {
		return config.PolicyFilterConfig{Enabled: false}
	})
	if e.Enabled() {
		t.Error("expected evaluator to be disabled")
	}
}

func TestEvaluator_CustomDenyAllPolicy(t *testing.T) {
	denyAll := `
package metadesc.policy

import rego.v1

allow := false
reason := "all requests denied"
`
	e := loadTestEvaluator(t, denyAll)

	allowed, reason, err := e.Evaluate(context.Background(), PolicyInput{
		Request: PolicyRequest{Provider: "openai", Model: "gpt-4"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("expected denied by deny-all policy")
	}
	if reason != "all requests denied" {
		t.Errorf("expected 'all requests denied', got %s", reason)
	}
}
