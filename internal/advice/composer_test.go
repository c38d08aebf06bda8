package advice

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"aegis-backend/internal/dashboard"
)

const (
	incorporationSentence = "**File for company incorporation (SPICe+ form) (document)**"
	aoaSentence           = "**Articles of Association (AoA) (document)** are also finalized"
	moaSentence           = "focus on finalizing and uploading your **Draft Memorandum of Association (MOA) (document)**"
	dinSentence           = "Please ensure the Director Identification Number (DIN) applications are completed first."
	taxHeading            = "#### Basic Tax Registrations Checklist"
)

func businessRegistration(din, moa bool) dashboard.Checklist {
	return dashboard.Checklist{
		Name: BusinessRegistrationChecklist,
		Items: []dashboard.ChecklistItem{
			{Text: DINItemText, Completed: din},
			{Text: MOAItemText, Completed: moa},
		},
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	state := dashboard.State{
		InitialUserQuery: "Register a company",
		Checklists:       []dashboard.Checklist{businessRegistration(true, false)},
		Documents:        []dashboard.Document{{Name: "Draft MOA", Status: "Uploaded"}},
	}
	query := "Next steps for business registration and tax registrations?"

	first := Compose(state.InitialUserQuery, state, query)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Compose(state.InitialUserQuery, state, query))
	}
}

func TestComposeAlwaysEndsWithDisclaimer(t *testing.T) {
	queries := []string{"", "business registration", "TAX REGISTRATIONS please", "hello"}
	states := []dashboard.State{
		{},
		{Checklists: []dashboard.Checklist{businessRegistration(true, true)}},
	}
	for _, q := range queries {
		for _, s := range states {
			out := Compose("goal", s, q)
			require.NotEmpty(t, out)
			assert.True(t, strings.HasSuffix(out, Disclaimer), "query %q", q)
			assert.Equal(t, 1, strings.Count(out, "### Disclaimer"))
		}
	}
}

func TestComposeOpener(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{name: "uploaded_moa", query: "I have UPLOADED the draft MOA.", want: openerProgress},
		{name: "completed_din", query: "I completed the DIN application yesterday", want: openerProgress},
		{name: "generic", query: "What now?", want: openerGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Compose("goal", dashboard.State{}, tc.query)
			assert.True(t, strings.HasPrefix(out, tc.want))
		})
	}
}

func TestBusinessRegistrationWithoutChecklistAsksForDIN(t *testing.T) {
	out := Compose("goal", dashboard.State{}, "What's next for Business Registration?")

	assert.Contains(t, out, businessRegistrationHeading)
	assert.Contains(t, out, dinSentence)
	assert.NotContains(t, out, incorporationSentence)
	assert.NotContains(t, out, fallbackParagraph)
}

func TestBusinessRegistrationBranches(t *testing.T) {
	cases := []struct {
		name    string
		state   dashboard.State
		want    string
		notWant []string
	}{
		{
			name:    "din_and_moa",
			state:   dashboard.State{Checklists: []dashboard.Checklist{businessRegistration(true, true)}},
			want:    incorporationSentence,
			notWant: []string{moaSentence, dinSentence},
		},
		{
			name:    "din_only",
			state:   dashboard.State{Checklists: []dashboard.Checklist{businessRegistration(true, false)}},
			want:    moaSentence,
			notWant: []string{incorporationSentence, dinSentence},
		},
		{
			name:    "moa_only",
			state:   dashboard.State{Checklists: []dashboard.Checklist{businessRegistration(false, true)}},
			want:    dinSentence,
			notWant: []string{incorporationSentence, moaSentence},
		},
		{
			name: "moa_document_pending_review",
			state: dashboard.State{
				Checklists: []dashboard.Checklist{businessRegistration(true, false)},
				Documents:  []dashboard.Document{{Name: "Company moa v2.pdf", Status: "Pending Review"}},
			},
			want:    incorporationSentence,
			notWant: []string{moaSentence, dinSentence},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Compose("goal", tc.state, "business registration next steps")
			assert.Contains(t, out, tc.want)
			for _, s := range tc.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestBothFlagsProduceIncorporationAndAoA(t *testing.T) {
	state := dashboard.State{Checklists: []dashboard.Checklist{businessRegistration(true, true)}}
	out := Compose("goal", state, "Business registration?")

	assert.Contains(t, out, incorporationSentence)
	assert.Contains(t, out, aoaSentence)
}

func TestDeriveFactsDocuments(t *testing.T) {
	cases := []struct {
		name string
		docs []dashboard.Document
		want bool
	}{
		{name: "pending_review_any_case", docs: []dashboard.Document{{Name: "Draft MOA", Status: "Pending Review"}}, want: true},
		{name: "uploaded", docs: []dashboard.Document{{Name: "moa.docx", Status: "UPLOADED"}}, want: true},
		{name: "other_status", docs: []dashboard.Document{{Name: "MOA", Status: "Draft"}}, want: false},
		{name: "other_document", docs: []dashboard.Document{{Name: "AoA", Status: "Uploaded"}}, want: false},
		{name: "missing_fields", docs: []dashboard.Document{{}}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := DeriveFacts(dashboard.State{Documents: tc.docs}, "q")
			assert.Equal(t, tc.want, f.MOAReady)
			assert.False(t, f.DINCompleted)
		})
	}
}

func TestTaxRegistrationsBlockAppearsOnce(t *testing.T) {
	states := []dashboard.State{
		{},
		{Checklists: []dashboard.Checklist{businessRegistration(true, true)}},
		{Documents: []dashboard.Document{{Name: "MOA", Status: "uploaded"}}},
	}
	for _, s := range states {
		out := Compose("goal", s, "What about Tax Registrations? tax registrations!")
		assert.Equal(t, 1, strings.Count(out, taxRegistrationsBlock))
		assert.NotContains(t, out, fallbackParagraph)
	}
}

func TestBothBlocksInOrder(t *testing.T) {
	out := Compose("goal", dashboard.State{}, "business registration and tax registrations")

	br := strings.Index(out, businessRegistrationHeading)
	tax := strings.Index(out, taxHeading)
	require.GreaterOrEqual(t, br, 0)
	require.GreaterOrEqual(t, tax, 0)
	assert.Less(t, br, tax)
	assert.NotContains(t, out, fallbackParagraph)
}

func TestFallbackWhenNoTrigger(t *testing.T) {
	state := dashboard.State{Checklists: []dashboard.Checklist{businessRegistration(true, true)}}
	out := Compose("goal", state, "Can you help with trademarks?")

	assert.Equal(t, openerGeneric+fallbackParagraph+Disclaimer, out)
	assert.NotContains(t, out, businessRegistrationHeading)
	assert.NotContains(t, out, taxHeading)
}

func TestComposeDoesNotMutateState(t *testing.T) {
	state := dashboard.State{
		Checklists: []dashboard.Checklist{businessRegistration(true, false)},
		Documents:  []dashboard.Document{{Name: "MOA", Status: "Pending Review"}},
	}
	before := dashboard.State{
		Checklists: []dashboard.Checklist{businessRegistration(true, false)},
		Documents:  []dashboard.Document{{Name: "MOA", Status: "Pending Review"}},
	}
	_ = Compose("goal", state, "business registration")
	assert.Equal(t, before, state)
}

func TestEvaluateReportsFiredRules(t *testing.T) {
	_, fired := Evaluate(DefaultRules(), Facts{Query: "business registration and tax registrations"})
	assert.Equal(t, []string{RuleBusinessRegistration, RuleTaxRegistrations}, fired)

	_, fired = Evaluate(DefaultRules(), Facts{Query: "hello"})
	assert.Equal(t, []string{RuleFallback}, fired)
}

func TestEvaluateCustomRules(t *testing.T) {
	rules := []Rule{
		{
			Name:   "ip",
			Match:  queryContains("trademark"),
			Render: func(_ Facts, b *strings.Builder) { b.WriteString("#### Trademark Filing\n\n") },
		},
		{
			Name:     "fallback",
			Fallback: true,
			Match:    func(Facts) bool { return true },
			Render:   func(_ Facts, b *strings.Builder) { b.WriteString("generic\n\n") },
		},
	}
	out, fired := Evaluate(rules, Facts{Query: "trademark help"})
	assert.Equal(t, openerGeneric+"#### Trademark Filing\n\n"+Disclaimer, out)
	assert.Equal(t, []string{"ip"}, fired)
}

func TestRuleComposerTracesPrompt(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	state, err := dashboard.Decode([]byte(`{"initial_user_query":"Register a company","checklists":[]}`))
	require.NoError(t, err)

	composer := NewRuleComposer()
	res, err := composer.Compose(context.Background(), Input{
		Goal:      state.InitialUserQuery,
		State:     state,
		Query:     "tax registrations",
		RequestID: "req-1",
	})
	require.NoError(t, err)

	assert.Equal(t, Compose(state.InitialUserQuery, state, "tax registrations"), res.Markdown)
	assert.Equal(t, []string{RuleTaxRegistrations}, res.Rules)
	assert.Len(t, res.PromptHash, 64)

	entries := logs.FilterMessage("advice.prompt").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, res.PromptHash, fields["prompt_hash"])
	assert.Contains(t, fields["prompt"], "Register a company")
	assert.NotContains(t, res.Markdown, "You are Aegis")
}
