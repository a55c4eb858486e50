package interpreter

import "github.com/superfaceai/one-sdk-go/internal/value"

// Outcome is a use-case or operation's final outcome: exactly one of
// Result/Err is meaningfully set (None otherwise), mirroring the "map
// result" / "map error" slots spec.md section 4.8 describes. The last
// assignment made during the executed flow wins.
type Outcome struct {
	Result *value.Variable
	Err    *value.Variable
}

func (o *Outcome) asVariable() *value.Variable {
	result := o.Result
	if result == nil {
		result = value.None()
	}
	errVal := o.Err
	if errVal == nil {
		errVal = value.None()
	}
	return value.Object(map[string]*value.Variable{"data": result, "error": errVal})
}

// execState accumulates the result/error slots across an entire body
// evaluation; "return" statements set a flag the statement loop checks
// after every statement to short-circuit (spec.md section 4.8: "return
// map result E / return map error E additionally abort further
// evaluation of the body").
type execState struct {
	result *value.Variable
	mapErr *value.Variable
}

func (s *execState) outcome() *Outcome {
	return &Outcome{Result: s.result, Err: s.mapErr}
}
