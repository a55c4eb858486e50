// Package value implements the runtime value model shared by the map
// interpreter, the HTTP pipeline and the security handlers: a small tagged
// union ("Variable") plus path indexing, deep merge and environment
// substitution over it.
package value

import "fmt"

// Kind discriminates the variant currently held by a Variable.
type Kind int

const (
	// KindNone represents the DSL's null/undefined collapse.
	KindNone Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
	// KindBinary wraps a handle into the binary-data subsystem (C2).
	KindBinary
	// KindOpaque wraps a value produced by the host-expression evaluator
	// that the interpreter does not need to inspect.
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindBinary:
		return "binary"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// BinaryHandle is the narrow surface a Variable needs from the binary-data
// subsystem; internal/binary.Stream satisfies it. Kept here (rather than
// importing internal/binary) to avoid a package cycle.
type BinaryHandle interface {
	Name() string
	MimeType() string
}

// Variable is the recursive tagged value described in spec.md section 3.
// The zero value is KindNone.
type Variable struct {
	kind    Kind
	boolean bool
	number  float64
	str     string
	array   []*Variable
	object  map[string]*Variable
	binary  BinaryHandle
	opaque  any
}

// None constructs the null/undefined Variable.
func None() *Variable { return &Variable{kind: KindNone} }

// Bool constructs a boolean Variable.
func Bool(b bool) *Variable { return &Variable{kind: KindBoolean, boolean: b} }

// Number constructs a numeric Variable.
func Number(n float64) *Variable { return &Variable{kind: KindNumber, number: n} }

// String constructs a string Variable.
func String(s string) *Variable { return &Variable{kind: KindString, str: s} }

// Array constructs an array Variable from a copy of items.
func Array(items ...*Variable) *Variable {
	normalized := make([]*Variable, len(items))
	for i, it := range items {
		if it == nil {
			it = None()
		}
		normalized[i] = it
	}
	return &Variable{kind: KindArray, array: normalized}
}

// Object constructs an object Variable from a Go map, defensively copying it.
func Object(fields map[string]*Variable) *Variable {
	obj := make(map[string]*Variable, len(fields))
	for k, v := range fields {
		if v == nil {
			v = None()
		}
		obj[k] = v
	}
	return &Variable{kind: KindObject, object: obj}
}

// EmptyObject constructs a fresh, empty object Variable.
func EmptyObject() *Variable { return Object(nil) }

// Binary wraps a binary-data handle.
func Binary(h BinaryHandle) *Variable { return &Variable{kind: KindBinary, binary: h} }

// Opaque wraps a host-evaluator-produced value the interpreter passes through
// without interpretation.
func Opaque(v any) *Variable { return &Variable{kind: KindOpaque, opaque: v} }

// Kind reports the variant held.
func (v *Variable) Kind() Kind {
	if v == nil {
		return KindNone
	}
	return v.kind
}

// IsNone reports whether v is null/undefined (including a nil *Variable).
func (v *Variable) IsNone() bool { return v == nil || v.kind == KindNone }

// Bool returns the boolean payload; ok is false for non-boolean variables.
func (v *Variable) Bool() (b bool, ok bool) {
	if v == nil || v.kind != KindBoolean {
		return false, false
	}
	return v.boolean, true
}

// Number returns the numeric payload; ok is false for non-numeric variables.
func (v *Variable) Number() (n float64, ok bool) {
	if v == nil || v.kind != KindNumber {
		return 0, false
	}
	return v.number, true
}

// String returns the string payload; ok is false for non-string variables.
func (v *Variable) String() (s string, ok bool) {
	if v == nil || v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Array returns the backing slice; ok is false for non-array variables.
// The returned slice must not be mutated by callers.
func (v *Variable) Array() (items []*Variable, ok bool) {
	if v == nil || v.kind != KindArray {
		return nil, false
	}
	return v.array, true
}

// Object returns the backing map; ok is false for non-object variables.
// The returned map must not be mutated by callers.
func (v *Variable) Object() (fields map[string]*Variable, ok bool) {
	if v == nil || v.kind != KindObject {
		return nil, false
	}
	return v.object, true
}

// Binary returns the wrapped binary handle; ok is false otherwise.
func (v *Variable) Binary() (h BinaryHandle, ok bool) {
	if v == nil || v.kind != KindBinary {
		return nil, false
	}
	return v.binary, true
}

// Opaque returns the wrapped host value; ok is false otherwise.
func (v *Variable) Opaque() (o any, ok bool) {
	if v == nil || v.kind != KindOpaque {
		return nil, false
	}
	return v.opaque, true
}

// Clone returns a deep copy of v. Binary handles and opaque values are
// shared by reference (they are not owned by the value model).
func (v *Variable) Clone() *Variable {
	if v == nil {
		return None()
	}
	switch v.kind {
	case KindArray:
		items := make([]*Variable, len(v.array))
		for i, it := range v.array {
			items[i] = it.Clone()
		}
		return &Variable{kind: KindArray, array: items}
	case KindObject:
		fields := make(map[string]*Variable, len(v.object))
		for k, val := range v.object {
			fields[k] = val.Clone()
		}
		return &Variable{kind: KindObject, object: fields}
	default:
		cp := *v
		return &cp
	}
}

// Equal reports deep structural equality.
func (v *Variable) Equal(other *Variable) bool {
	if v.IsNone() && other.IsNone() {
		return true
	}
	if v == nil || other == nil || v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBoolean:
		return v.boolean == other.boolean
	case KindNumber:
		return v.number == other.number
	case KindString:
		return v.str == other.str
	case KindArray:
		if len(v.array) != len(other.array) {
			return false
		}
		for i := range v.array {
			if !v.array[i].Equal(other.array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.object) != len(other.object) {
			return false
		}
		for k, val := range v.object {
			ov, ok := other.object[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	case KindBinary:
		return v.binary == other.binary
	case KindOpaque:
		return fmt.Sprintf("%v", v.opaque) == fmt.Sprintf("%v", other.opaque)
	default:
		return true
	}
}
