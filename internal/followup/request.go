package followup

import (
	"bytes"
	"encoding/json"
	"mime"
	"strings"

	"aegis-backend/internal/dashboard"
)

type request struct {
	Dashboard    dashboard.State
	UpdatePrompt string
}

// parseRequest validates presence of the required fields before anything is composed.
func parseRequest(contentType string, body []byte) (request, error) {
	if !isJSONContentType(contentType) {
		return request{}, invalid(MsgNotJSON)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return request{}, invalid(MsgNotJSON)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return request{}, invalid(MsgNotJSON)
	}

	dashRaw := top[FieldDashboard]
	promptRaw := top[FieldUpdatePrompt]

	var missing []string
	if isFalsy(dashRaw) {
		missing = append(missing, FieldDashboard)
	}
	if isFalsy(promptRaw) {
		missing = append(missing, FieldUpdatePrompt)
	}
	if len(missing) > 0 {
		return request{}, missingFields(missing)
	}

	state, err := dashboard.Decode(dashRaw)
	if err != nil {
		return request{}, invalid(MsgDashboardNotObject, FieldDashboard)
	}
	var prompt string
	if err := json.Unmarshal(promptRaw, &prompt); err != nil {
		return request{}, invalid(MsgUpdatePromptNotString, FieldUpdatePrompt)
	}
	if state.InitialUserQuery == "" {
		return request{}, invalid(MsgMissingInitialQuery, FieldDashboard+".initial_user_query")
	}

	return request{Dashboard: state, UpdatePrompt: prompt}, nil
}

func isJSONContentType(raw string) bool {
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// isFalsy treats absent, null, false, zero and empty values as missing.
func isFalsy(raw json.RawMessage) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// DecodeBody validates a follow-up request body outside of HTTP, with the same
// rules and messages the handler applies.
func DecodeBody(body []byte) (dashboard.State, string, error) {
	req, err := parseRequest("application/json", body)
	if err != nil {
		return dashboard.State{}, "", err
	}
	return req.Dashboard, req.UpdatePrompt, nil
}
