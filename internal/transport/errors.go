package transport

import "fmt"

// Error reports a pipeline failure. Fetch errors (network/abort/timeout)
// are distinguished from request-construction errors by Code prefix, per
// spec.md section 7's fetch.network.* / fetch.request.* taxonomy.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
