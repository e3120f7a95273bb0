package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/rego"
	"github.com/seoforge/metadesc/internal/config"
	"github.com/seoforge/metadesc/internal/filter"
	"github.com/seoforge/metadesc/internal/types"
)

// PolicyInput is the data sent to OPA for evaluation.
type PolicyInput struct {
	Caller  PolicyCaller  `json:"caller"`
	Request PolicyRequest `json:"request"`
	Time    PolicyTime    `json:"time"`
}

type PolicyCaller struct {
	Org  string `json:"org"`
	Team string `json:"team"`
}

type PolicyRequest struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	PromptChars int    `json:"prompt_chars"`
}

type PolicyTime struct {
	Hour int    `json:"hour"`
	Day  string `json:"day"`
}

// Evaluator implements filter.Filter using OPA. Policies decide whether a
// summary request may go to a given vendor at all (e.g. team X never sends
// content to external providers, or prompts over a size cap are refused).
type Evaluator struct {
	mu       sync.RWMutex
	prepared *rego.PreparedEvalQuery
	cfg      func() config.PolicyFilterConfig
}

// NewEvaluator creates a policy evaluator. Call Load() to compile policies.
func NewEvaluator(cfg func() config.PolicyFilterConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

func (e *Evaluator) Name() string  { return "policy" }
func (e *Evaluator) Enabled() bool { return e.cfg().Enabled }

// Load compiles Rego modules from the bundle path.
func (e *Evaluator) Load() error {
	cfg := e.cfg()
	modules, err := LoadRegoFiles(cfg.BundlePath)
	if err != nil {
		return fmt.Errorf("load rego files: %w", err)
	}
	if len(modules) == 0 {
		slog.Warn("no rego files found", "path", cfg.BundlePath)
		return nil
	}
	if err := e.prepare(modules); err != nil {
		return err
	}
	slog.Info("opa policies loaded", "modules", len(modules))
	return nil
}

// LoadFromModules compiles policies from provided module sources (useful for testing).
func (e *Evaluator) LoadFromModules(modules map[string]string) error {
	return e.prepare(modules)
}

func (e *Evaluator) prepare(modules map[string]string) error {
	opts := []func(*rego.Rego){
		rego.Query("[data.metadesc.policy.allow, data.metadesc.policy.reason]"),
	}
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}

	prepared, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("prepare rego: %w", err)
	}

	e.mu.Lock()
	e.prepared = &prepared
	e.mu.Unlock()
	return nil
}

// Evaluate runs the policy against the given input.
func (e *Evaluator) Evaluate(ctx context.Context, input PolicyInput) (bool, string, error) {
	e.mu.RLock()
	prepared := e.prepared
	e.mu.RUnlock()

	if prepared == nil {
		// No policies loaded, fail closed
		return false, "no policies loaded", nil
	}

	cfg := e.cfg()
	timeout := cfg.EvaluationTimeout
	if timeout == 0 {
		timeout = 100 * time.Millisecond
	}

	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := prepared.Eval(evalCtx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Sprintf("policy evaluation error: %v", err), err
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, "no policy result", nil
	}

	// Result is [allow, reason]
	arr, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok || len(arr) < 2 {
		return false, "unexpected policy result format", nil
	}

	allowed, _ := arr[0].(bool)
	reason, _ := arr[1].(string)

	return allowed, reason, nil
}

// ScanRequest implements filter.Filter.
func (e *Evaluator) ScanRequest(ctx context.Context, req *types.SummaryRequest) filter.Result {
	now := time.Now().UTC()
	input := PolicyInput{
		Caller: PolicyCaller{
			Org:  req.OrganizationID,
			Team: req.TeamID,
		},
		Request: PolicyRequest{
			Provider:    req.Provider,
			Model:       req.Model,
			PromptChars: len(req.Prompt),
		},
		Time: PolicyTime{
			Hour: now.Hour(),
			Day:  now.Weekday().String(),
		},
	}

	allowed, reason, err := e.Evaluate(ctx, input)
	if err != nil {
		slog.Error("policy evaluation failed", "error", err)
		// Fail closed
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "policy",
			Message:    "Policy evaluation failed: " + err.Error(),
		}
	}

	if !allowed {
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "policy",
			Message:    "Request denied by policy: " + reason,
		}
	}

	return filter.Result{Action: filter.ActionPass, FilterName: "policy"}
}
