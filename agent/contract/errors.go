package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	ErrClassificationParse = errors.New("classification response could not be parsed")
	ErrToolCall            = errors.New("tool call failed")
	ErrUnknownTool         = errors.New("unknown tool")
	ErrToolNotAllowed      = errors.New("tool not allowed for agent")
	ErrExecutionTimeout    = errors.New("conversation execution timed out")
	ErrRecursionLimit      = errors.New("conversation step budget exceeded")
	ErrProviderUnavailable = errors.New("model provider unavailable")
	ErrContentBlocked      = errors.New("message contains blocked content")
)

// ToolError carries the message a tool reported back to its caller. It
// matches both ErrToolCall and the underlying cause.
type ToolError struct {
	Tool    ToolName
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	if e.Tool == "" {
		return "tool call failed: " + e.Message
	}
	return "tool " + string(e.Tool) + " failed: " + e.Message
}

func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrToolCall}
	}
	return []error{ErrToolCall, e.Err}
}
