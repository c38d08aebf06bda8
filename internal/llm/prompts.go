package llm

import _ "embed"

// DefaultPromptVersion is the follow-up prompt used when no version is requested.
const DefaultPromptVersion = "v2"

var (
	//go:embed prompts/followup_v2.txt
	followUpV2 string
)

// PromptTemplate returns the prompt template text and whether the version was recognized.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "v2":
		return followUpV2, true
	default:
		return followUpV2, false
	}
}
