package followup

// Request field names.
const (
	FieldDashboard    = "current_dashboard_data"
	FieldUpdatePrompt = "update_prompt"
)

// Response is the success payload of POST /follow-up-rag.
type Response struct {
	FollowUpMarkdown string `json:"follow_up_markdown"`
}
