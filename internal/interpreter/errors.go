package interpreter

import (
	"fmt"

	"github.com/superfaceai/one-sdk-go/internal/ast"
)

// PerformError is the fatal-to-this-perform error union spec.md section 7
// defines for the interpreter/fetch/profile-parameter layers. It is
// distinct from a use-case's own business-level "map error" outcome,
// which the use-case author controls via Outcome.Err.
type PerformError struct {
	Code     string
	Message  string
	Location *ast.Location
}

func (e *PerformError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s: %s (line %d, col %d)", e.Code, e.Message, e.Location.Line, e.Location.Column)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...any) *PerformError {
	return &PerformError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func newLocatedError(code string, loc ast.Location, format string, args ...any) *PerformError {
	l := loc
	return &PerformError{Code: code, Message: fmt.Sprintf(format, args...), Location: &l}
}
