// Package security implements the security handlers (spec.md section 4.4):
// API-key placement, HTTP Basic/Bearer, and stateful Digest challenge/
// response, plus a provider-keyed registry that selects a handler per
// request. It is grounded on the teacher's access-provider manager
// (sdk/access.Manager), adapted from "first provider that authenticates a
// request" to "last matching security requirement wins" per spec.md section
// 4.4.
package security

import "fmt"

// Error is returned by handlers for malformed configuration or challenges.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
