package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNotObject is returned when the dashboard payload is not a JSON object.
var ErrNotObject = errors.New("dashboard state must be a JSON object")

// State is the caller-supplied snapshot of a user's dashboard.
// Missing or malformed sub-fields decode to their zero value.
type State struct {
	InitialUserQuery string            `json:"initial_user_query"`
	Checklists       []Checklist       `json:"checklists"`
	Documents        []Document        `json:"documents"`
	ComplianceAlerts []json.RawMessage `json:"compliance_alerts"`

	// Raw holds the original object bytes for the prompt trace.
	Raw json.RawMessage `json:"-"`
}

// Checklist is a named list of tasks.
type Checklist struct {
	Name  string          `json:"name"`
	Items []ChecklistItem `json:"items"`
}

// ChecklistItem is a single task and its completion flag.
type ChecklistItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Document tracks an uploaded or pending document.
type Document struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status"`
}

// Decode parses a dashboard object.
func Decode(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, err
	}
	return s, nil
}

// UnmarshalJSON decodes the object field by field so a bad field never fails the whole payload.
func (s *State) UnmarshalJSON(data []byte) error {
	fields, ok := objectFields(data)
	if !ok {
		return ErrNotObject
	}
	out := State{
		InitialUserQuery: decodeString(fields["initial_user_query"]),
		Checklists:       decodeChecklists(fields["checklists"]),
		Documents:        decodeDocuments(fields["documents"]),
		ComplianceAlerts: decodeList(fields["compliance_alerts"]),
		Raw:              append(json.RawMessage(nil), data...),
	}
	*s = out
	return nil
}

// FindChecklist returns the first checklist with the exact name.
func (s State) FindChecklist(name string) (Checklist, bool) {
	for _, cl := range s.Checklists {
		if cl.Name == name {
			return cl, true
		}
	}
	return Checklist{}, false
}

// ItemCompleted reports whether an item with the exact text is marked completed.
func (c Checklist) ItemCompleted(text string) bool {
	for _, item := range c.Items {
		if item.Text == text && item.Completed {
			return true
		}
	}
	return false
}

func objectFields(raw []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeBool(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("true"))
}

func decodeList(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}
	return items
}

func decodeChecklists(raw json.RawMessage) []Checklist {
	items := decodeList(raw)
	if len(items) == 0 {
		return nil
	}
	out := make([]Checklist, 0, len(items))
	for _, item := range items {
		fields, _ := objectFields(item)
		cl := Checklist{Name: decodeString(fields["name"])}
		for _, rawItem := range decodeList(fields["items"]) {
			itemFields, _ := objectFields(rawItem)
			cl.Items = append(cl.Items, ChecklistItem{
				Text:      decodeString(itemFields["text"]),
				Completed: decodeBool(itemFields["completed"]),
			})
		}
		out = append(out, cl)
	}
	return out
}

func decodeDocuments(raw json.RawMessage) []Document {
	items := decodeList(raw)
	if len(items) == 0 {
		return nil
	}
	out := make([]Document, 0, len(items))
	for _, item := range items {
		fields, _ := objectFields(item)
		out = append(out, Document{
			Name:   decodeString(fields["name"]),
			Type:   decodeString(fields["type"]),
			Status: decodeString(fields["status"]),
		})
	}
	return out
}
