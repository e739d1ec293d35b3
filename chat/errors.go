package chat

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
)

const (
	MessageTimeout  = "Request took too long to process. Please try a simpler query."
	MessageTooDeep  = "Query too complex. Please try breaking it into smaller parts."
	MessageInternal = "Internal server error"
)

// FriendlyError is what a caller may show to the end user.
type FriendlyError struct {
	Status  int
	Message string
	Err     error
}

func (e *FriendlyError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *FriendlyError) Unwrap() error {
	return e.Err
}

// Friendly maps a pipeline error to a status and user-facing message.
func Friendly(err error) *FriendlyError {
	if err == nil {
		return nil
	}
	var fe *FriendlyError
	if errors.As(err, &fe) {
		return fe
	}
	switch {
	case errors.Is(err, contractx.ErrContentBlocked):
		return &FriendlyError{Status: http.StatusBadRequest, Message: detail(err, contractx.ErrContentBlocked), Err: err}
	case errors.Is(err, contractx.ErrValidation):
		return &FriendlyError{Status: http.StatusBadRequest, Message: detail(err, contractx.ErrValidation), Err: err}
	case errors.Is(err, contractx.ErrExecutionTimeout):
		return &FriendlyError{Status: http.StatusInternalServerError, Message: MessageTimeout, Err: err}
	case errors.Is(err, contractx.ErrRecursionLimit):
		return &FriendlyError{Status: http.StatusInternalServerError, Message: MessageTooDeep, Err: err}
	default:
		return &FriendlyError{Status: http.StatusInternalServerError, Message: MessageInternal, Err: err}
	}
}

// detail extracts the text that follows the sentinel in a wrapped error,
// dropping any graph trace appended after it.
func detail(err error, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		msg = msg[i+len(sentinel.Error())+2:]
	}
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}

func badRequest(sentinel error, message string) *FriendlyError {
	return &FriendlyError{
		Status:  http.StatusBadRequest,
		Message: message,
		Err:     fmt.Errorf("%w: %s", sentinel, message),
	}
}
