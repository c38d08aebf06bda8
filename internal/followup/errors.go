package followup

import (
	"errors"
	"fmt"
	"strings"

	"aegis-backend/internal/shared/server/middleware"
)

// Messages returned to callers.
const (
	MsgNotJSON               = "Request must be JSON"
	MsgDashboardNotObject    = "'current_dashboard_data' must be a JSON object"
	MsgUpdatePromptNotString = "'update_prompt' must be a string"
	MsgMissingInitialQuery   = "Missing 'initial_user_query' within 'current_dashboard_data'"
	MsgInternal              = middleware.InternalErrorMessage
)

// ErrComposePanic wraps a panic raised while composing advice.
var ErrComposePanic = errors.New("compose panicked")

// ValidationError is a caller-correctable request problem.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func missingFields(fields []string) *ValidationError {
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, fmt.Sprintf("'%s'", f))
	}
	return invalid("Missing required top-level fields: "+strings.Join(quoted, ", "), fields...)
}
