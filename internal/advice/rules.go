package advice

import (
	"strings"

	"aegis-backend/internal/dashboard"
)

// Checklist, item and document markers the rules look for.
const (
	BusinessRegistrationChecklist = "Business Registration"
	DINItemText                   = "Prepare Director Identification Number (DIN) application"
	MOAItemText                   = "Draft Memorandum of Association (MOA)"
)

// Rule names, also used as metric labels.
const (
	RuleBusinessRegistration = "business_registration"
	RuleTaxRegistrations     = "tax_registrations"
	RuleFallback             = "fallback"
)

const (
	openerProgress = "Great job on preparing the DIN application and drafting the MOA! Let's look at the next steps.\n\n"
	openerGeneric  = "Thanks for the update. Here's some guidance based on your request and current progress:\n\n"

	businessRegistrationHeading = "For your \"Business Registration\" checklist:\n"
	incorporationReady          = "- Now that the DIN and MOA are ready, the next critical step is to **File for company incorporation (SPICe+ form) (document)** with the MCA.\n" +
		"- Ensure your **Articles of Association (AoA) (document)** are also finalized alongside the MOA.\n"
	moaNext  = "- Since the DIN is ready, focus on finalizing and uploading your **Draft Memorandum of Association (MOA) (document)**.\n"
	dinFirst = "- Please ensure the Director Identification Number (DIN) applications are completed first.\n"

	taxRegistrationsBlock = "#### Basic Tax Registrations Checklist\n" +
		"- Obtain **Permanent Account Number (PAN) (document)** for the company.\n" +
		"- Obtain **Tax Deduction and Collection Account Number (TAN) (document)** for the company.\n" +
		"- Evaluate and proceed with **Goods and Services Tax (GST) Registration (document)** if applicable to your business turnover and services.\n" +
		"- Register for **Professional Tax (PT) (document)** if applicable in your state and for your employees.\n\n"

	fallbackParagraph = "Based on your current progress, ensure all items in the 'Business Registration' checklist are addressed. " +
		"If you have specific questions about other areas like 'Initial IP Protection' or 'Website Legal Pages', let me know!\n\n"

	// Disclaimer closes every response.
	Disclaimer = "---\n" +
		"### Disclaimer\n" +
		"Aegis is an AI Legal Assistant. The information provided is for guidance and informational purposes only. " +
		"It does not constitute legal advice. Consult with a qualified legal professional for advice tailored to your specific situation. " +
		"We are not liable for any actions taken based on this information."
)

var (
	progressPhrases = []string{"uploaded the draft moa", "completed the din application"}
	moaReadyStatus  = map[string]struct{}{"uploaded": {}, "pending review": {}}
)

// Facts is the view of the inputs the rules evaluate.
type Facts struct {
	// Query is the follow-up question, lower-cased.
	Query        string
	DINCompleted bool
	MOAReady     bool
}

// DeriveFacts reads the progress flags from the dashboard and normalizes the query.
func DeriveFacts(state dashboard.State, query string) Facts {
	f := Facts{Query: strings.ToLower(query)}

	if cl, ok := state.FindChecklist(BusinessRegistrationChecklist); ok {
		f.DINCompleted = cl.ItemCompleted(DINItemText)
		f.MOAReady = cl.ItemCompleted(MOAItemText)
	}

	for _, doc := range state.Documents {
		if !strings.Contains(strings.ToLower(doc.Name), "moa") {
			continue
		}
		if _, ok := moaReadyStatus[strings.ToLower(doc.Status)]; ok {
			f.MOAReady = true
			break
		}
	}
	return f
}

// Rule is one entry of the advice table. Fallback rules render only when no
// regular rule fired before them.
type Rule struct {
	Name     string
	Fallback bool
	Match    func(Facts) bool
	Render   func(Facts, *strings.Builder)
}

// DefaultRules is the ordered advice table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   RuleBusinessRegistration,
			Match:  queryContains("business registration"),
			Render: renderBusinessRegistration,
		},
		{
			Name:  RuleTaxRegistrations,
			Match: queryContains("tax registrations"),
			Render: func(_ Facts, b *strings.Builder) {
				b.WriteString(taxRegistrationsBlock)
			},
		},
		{
			Name:     RuleFallback,
			Fallback: true,
			Match:    func(Facts) bool { return true },
			Render: func(_ Facts, b *strings.Builder) {
				b.WriteString(fallbackParagraph)
			},
		},
	}
}

// Evaluate renders the opener, every matching rule in order and the disclaimer.
// It returns the Markdown and the names of the rules that fired.
func Evaluate(rules []Rule, f Facts) (string, []string) {
	var b strings.Builder
	b.WriteString(opener(f))

	var fired []string
	regularFired := false
	for _, rule := range rules {
		if rule.Fallback && regularFired {
			continue
		}
		if rule.Match == nil || !rule.Match(f) {
			continue
		}
		rule.Render(f, &b)
		fired = append(fired, rule.Name)
		if !rule.Fallback {
			regularFired = true
		}
	}

	b.WriteString(Disclaimer)
	return b.String(), fired
}

func opener(f Facts) string {
	for _, phrase := range progressPhrases {
		if strings.Contains(f.Query, phrase) {
			return openerProgress
		}
	}
	return openerGeneric
}

func renderBusinessRegistration(f Facts, b *strings.Builder) {
	b.WriteString(businessRegistrationHeading)
	switch {
	case f.DINCompleted && f.MOAReady:
		b.WriteString(incorporationReady)
	case f.DINCompleted:
		b.WriteString(moaNext)
	default:
		b.WriteString(dinFirst)
	}
	b.WriteString("\n")
}

func queryContains(phrase string) func(Facts) bool {
	return func(f Facts) bool {
		return strings.Contains(f.Query, phrase)
	}
}
