package value

import "fmt"

// Error is returned by value-model operations that fail (e.g. casting a
// primitive to an object, or indexing through a non-object node).
type Error struct {
	// Code is a short machine-readable identifier, e.g. "value.cast" or
	// "value.set-path".
	Code string
	// Path is the dotted path being processed when the failure occurred, if
	// any.
	Path string
	// Message is a human readable description.
	Message string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path %q)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, path, format string, args ...any) *Error {
	return &Error{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}
