package onesdk

import (
	"fmt"

	"github.com/superfaceai/one-sdk-go/internal/ast"
	"github.com/superfaceai/one-sdk-go/internal/interpreter"
)

// PerformError is the single error union Perform returns: fetch-network,
// fetch-request, map-interpreter (with source location), profile-parameter
// and config errors all surface through it, distinct from panics and
// programmer errors ("unexpected").
type PerformError struct {
	Code     string
	Message  string
	Location *ast.Location
}

func (e *PerformError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s: %s (at %d:%d)", e.Code, e.Message, e.Location.Line, e.Location.Column)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newPerformError(code, format string, args ...any) *PerformError {
	return &PerformError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// fromInterpreterError lifts a map-interpreter failure into the driver's
// error union, preserving its source location.
func fromInterpreterError(err *interpreter.PerformError) *PerformError {
	if err == nil {
		return nil
	}
	return &PerformError{Code: err.Code, Message: err.Message, Location: err.Location}
}
