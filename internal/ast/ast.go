// Package ast defines the minimal map-AST node types the interpreter
// walks (spec.md section 4.8). The DSL parser that produces these nodes
// is an external collaborator out of scope here (spec.md section 1); this
// package only fixes the shape the parser is assumed to emit.
//
// Expression contents are never interpreted by this package: every
// expression-bearing field is an opaque Source string handed verbatim to
// the host evaluator (internal/expr.Evaluator).
package ast

// Expression is a host-language expression embedded in the map DSL. Its
// Source is opaque to the interpreter; only the injected
// internal/expr.Evaluator understands it.
type Expression struct {
	Source   string
	Location Location
}

// Location pinpoints a node in the original map source, carried through
// so map.interpreter.* errors can report where they occurred (spec.md
// section 7).
type Location struct {
	Line   int
	Column int
}

// MapDocument is the root AST node: a named map with its declared
// use-cases and operations (spec.md section 3's "map AST").
type MapDocument struct {
	Profile    string
	Provider   string
	UseCases   []*UseCaseDefinition
	Operations []*OperationDefinition
}

// UseCaseDefinition is one `usecase Name { ... }` body.
type UseCaseDefinition struct {
	Name string
	Body []Statement
}

// OperationDefinition is one `operation Name { ... }` body, invoked only
// through `call`/`call foreach` (spec.md section 4.8).
type OperationDefinition struct {
	Name string
	Body []Statement
}

// Statement is any node that can appear directly in a use-case or
// operation body.
type Statement interface {
	statementNode()
}

// Assignment sets Path inside the current frame to Value. Assignments to
// input/parameters paths are dropped by the interpreter, not rejected
// here (spec.md section 4.8: "silently dropped").
type Assignment struct {
	Path  []string
	Value *Expression
	Loc   Location
}

func (*Assignment) statementNode() {}

// Conditional is `if (cond) { ... }`, with an optional else branch.
type Conditional struct {
	Condition *Expression
	Then      []Statement
	Else      []Statement
	Loc       Location
}

func (*Conditional) statementNode() {}

// SetResult is `map result E` / `return map result E`.
type SetResult struct {
	Value  *Expression
	Return bool
	Loc    Location
}

func (*SetResult) statementNode() {}

// SetError is `map error E` / `return map error E`.
type SetError struct {
	Value  *Expression
	Return bool
	Loc    Location
}

func (*SetError) statementNode() {}

// Return is a bare `return` with no result/error assignment: it aborts
// the remainder of the body, leaving whatever result/error slot was last
// assigned in place.
type Return struct {
	Loc Location
}

func (*Return) statementNode() {}

// CallStatement is `call Op(args)` used as a block: the call's result is
// bound under the fixed name "outcome", so `outcome.data`/`outcome.error`
// become visible to Body
// (spec.md section 4.8's "call block").
type CallStatement struct {
	Operation string
	Args      *Expression
	Body      []Statement
	Loc       Location
}

func (*CallStatement) statementNode() {}

// InlineCall is `x = call Op(args)`, evaluating to outcome.data on
// success or propagating failure (spec.md section 4.8).
type InlineCall struct {
	ResultPath []string
	Operation  string
	Args       *Expression
	Loc        Location
}

func (*InlineCall) statementNode() {}

// CallForeach is `foreach (x in iterable) call Op(args) { ... }`, with an
// optional per-iteration guard.
type CallForeach struct {
	IterableExpr *Expression
	LoopVariable  string
	Operation     string
	Args          *Expression
	Condition     *Expression
	Body          []Statement
	Loc           Location
}

func (*CallForeach) statementNode() {}

// InlineCallForeach is `x = foreach (x in iterable) call Op(args)`:
// yields an array of per-iteration outcome.data values, skipping
// iterations where Condition evaluates false.
type InlineCallForeach struct {
	ResultPath   []string
	IterableExpr *Expression
	LoopVariable string
	Operation    string
	Args         *Expression
	Condition    *Expression
	Loc          Location
}

func (*InlineCallForeach) statementNode() {}

// HTTPStatement is `http METHOD [serviceId] "URL" { request...; response...}`
// (spec.md section 4.8).
type HTTPStatement struct {
	Method    string
	ServiceID string
	URL       *Expression
	Requests  []*HTTPRequestStanza
	Responses []*HTTPResponseStanza
	Loc       Location
}

func (*HTTPStatement) statementNode() {}

// HTTPRequestStanza is one `request "content-type" { ... }` alternative;
// the interpreter uses the first declared stanza; ContentType is not
// matched against anything when choosing it.
type HTTPRequestStanza struct {
	ContentType     string
	Security        []string
	Headers         *Expression
	Query           *Expression
	Body            *Expression
	Loc             Location
}

// HTTPResponseStanza is one `response STATUS "content-type" "content-language" { ... }`
// alternative; nil fields match anything. The interpreter selects the
// most specific match (spec.md section 4.8).
type HTTPResponseStanza struct {
	StatusCode      *int
	ContentType     string
	ContentLanguage string
	Body            []Statement
	Loc             Location
}
