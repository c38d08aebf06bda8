package llm

import (
	"bytes"
	"encoding/json"
	"strings"

	"aegis-backend/internal/shared/util"
)

// FollowUpInput is the context a model would receive for a follow-up question.
type FollowUpInput struct {
	InitialUserQuery string
	FollowUpQuery    string
	DashboardJSON    json.RawMessage
	PromptVersion    string
}

// BuildFollowUpPrompt renders the follow-up prompt. Unknown versions fall back to the default template.
func BuildFollowUpPrompt(in FollowUpInput) string {
	template, ok := PromptTemplate(strings.TrimSpace(in.PromptVersion))
	if !ok {
		template, _ = PromptTemplate(DefaultPromptVersion)
	}
	replacer := strings.NewReplacer(
		"{{INITIAL_USER_QUERY}}", in.InitialUserQuery,
		"{{FOLLOW_UP_QUERY}}", in.FollowUpQuery,
		"{{DASHBOARD_JSON}}", IndentDashboard(in.DashboardJSON),
	)
	return replacer.Replace(template)
}

// IndentDashboard pretty-prints the dashboard JSON with two-space indentation.
func IndentDashboard(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// PromptHash returns a stable identifier for a rendered prompt.
func PromptHash(prompt string) string {
	return util.SHA256Hex(prompt)
}
