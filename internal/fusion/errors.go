package fusion

import "fmt"

// Code is one of spec.md §7's canonical error kinds. Kept as a string
// constant rather than a typed error hierarchy, matching the teacher's own
// preference for severity-as-value (see the retired guards package) over
// reflection-heavy error trees.
type Code string

const (
	CodeUnknownTool      Code = "UNKNOWN_TOOL"
	CodeUnknownAction    Code = "UNKNOWN_ACTION"
	CodeValidationError  Code = "VALIDATION_ERROR"
	CodeDuplicateTool    Code = "DUPLICATE_TOOL"
	CodeDuplicateAction  Code = "DUPLICATE_ACTION"
	CodeDottedActionName Code = "DOTTED_ACTION_NAME"
	CodeSchemaConflict   Code = "SCHEMA_CONFLICT"
	CodeBuilderFrozen    Code = "BUILDER_FROZEN"
	CodeHandlerError     Code = "HANDLER_ERROR"
)

// FieldPath names one offending field in a VALIDATION_ERROR.
type FieldPath struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error is the canonical structured error object spec.md §3/§6 puts in the
// first text block of an error response. It also satisfies the `error`
// interface so it can travel through ordinary Go error-handling paths
// (compile-time failures, handler returns) before being rendered.
type Error struct {
	Code             Code        `json:"code"`
	Message          string      `json:"message"`
	Suggestion       string      `json:"suggestion,omitempty"`
	AvailableActions []string    `json:"availableActions,omitempty"`
	Fields           []FieldPath `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a plain structured error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithSuggestion attaches a remediation hint.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithAvailableActions attaches the list of valid alternatives — spec.md §7
// calls this out as an "intentional affordance" for self-correcting callers.
func (e *Error) WithAvailableActions(actions []string) *Error {
	e.AvailableActions = actions
	return e
}

// WithFields attaches per-field validation failures.
func (e *Error) WithFields(fields []FieldPath) *Error {
	e.Fields = fields
	return e
}
