package advice

import (
	"context"

	"aegis-backend/internal/dashboard"
	"aegis-backend/internal/llm"
	"aegis-backend/internal/shared/telemetry"
)

// Input is everything a composer needs for one follow-up request.
type Input struct {
	Goal      string
	State     dashboard.State
	Query     string
	RequestID string
}

// Result is the composed advice plus trace data.
type Result struct {
	Markdown   string
	Rules      []string
	PromptHash string
}

// Composer turns a follow-up request into advice Markdown.
type Composer interface {
	Compose(ctx context.Context, in Input) (Result, error)
}

// Compose builds the advice Markdown for a follow-up query. The goal only
// feeds the model prompt; the rules never read it.
func Compose(goal string, state dashboard.State, query string) string {
	_ = goal
	md, _ := Evaluate(DefaultRules(), DeriveFacts(state, query))
	return md
}

// RuleComposer answers with the rule table and traces the prompt a model would have received.
type RuleComposer struct {
	Rules         []Rule
	PromptVersion string
}

// NewRuleComposer constructs a RuleComposer with the default rules.
func NewRuleComposer() *RuleComposer {
	return &RuleComposer{Rules: DefaultRules(), PromptVersion: llm.DefaultPromptVersion}
}

// Compose implements Composer. It does not fail.
func (c *RuleComposer) Compose(ctx context.Context, in Input) (Result, error) {
	_ = ctx
	prompt := llm.BuildFollowUpPrompt(llm.FollowUpInput{
		InitialUserQuery: in.Goal,
		FollowUpQuery:    in.Query,
		DashboardJSON:    in.State.Raw,
		PromptVersion:    c.PromptVersion,
	})
	hash := llm.PromptHash(prompt)

	telemetry.Debug("advice.prompt", map[string]any{
		"request_id":     in.RequestID,
		"prompt_hash":    hash,
		"prompt_version": c.PromptVersion,
		"prompt":         prompt,
	})

	rules := c.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	md, fired := Evaluate(rules, DeriveFacts(in.State, in.Query))
	return Result{Markdown: md, Rules: fired, PromptHash: hash}, nil
}
