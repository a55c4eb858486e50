package value

import (
	"bytes"
	"encoding/json"
	"sort"
)

// ToJSON marshals v to its wire JSON representation. Binary and Opaque
// variables cannot be represented and are rejected.
func ToJSON(v *Variable) ([]byte, error) {
	native, err := toNative(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(native)
}

// ToNative converts v into plain Go values (nil, bool, float64, []any,
// map[string]any) suitable for handing to a host-expression evaluator
// (internal/expr/cel uses this to build a CEL activation). Binary and
// Opaque variables are rejected, same as ToJSON.
func ToNative(v *Variable) (any, error) {
	return toNative(v)
}

func toNative(v *Variable) (any, error) {
	switch v.Kind() {
	case KindNone:
		return nil, nil
	case KindBoolean:
		b, _ := v.Bool()
		return b, nil
	case KindNumber:
		n, _ := v.Number()
		return n, nil
	case KindString:
		s, _ := v.String()
		return s, nil
	case KindArray:
		items, _ := v.Array()
		out := make([]any, len(items))
		for i, it := range items {
			n, err := toNative(it)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case KindObject:
		fields, _ := v.Object()
		out := make(map[string]any, len(fields))
		for k, val := range fields {
			n, err := toNative(val)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, newError("value.to-json", "", "cannot serialize value of kind %s to JSON", v.Kind())
	}
}

// FromJSON unmarshals raw JSON into a Variable tree.
func FromJSON(raw []byte) (*Variable, error) {
	var native any
	if len(raw) == 0 {
		return None(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&native); err != nil {
		return nil, newError("value.from-json", "", "invalid JSON: %v", err)
	}
	return FromNative(native)
}

// FromNative converts a decoded JSON value (as produced by encoding/json,
// including json.Number from UseNumber) into a Variable.
func FromNative(native any) (*Variable, error) {
	switch t := native.(type) {
	case nil:
		return None(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, newError("value.from-json", "", "invalid number %q: %v", t.String(), err)
		}
		return Number(f), nil
	case []any:
		out := make([]*Variable, len(t))
		for i, it := range t {
			v, err := FromNative(it)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return &Variable{kind: KindArray, array: out}, nil
	case map[string]any:
		out := make(map[string]*Variable, len(t))
		for k, val := range t {
			v, err := FromNative(val)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return &Variable{kind: KindObject, object: out}, nil
	default:
		return nil, newError("value.from-json", "", "unsupported native type %T", t)
	}
}

// SortedKeys returns an object's field names in sorted order, useful for
// deterministic iteration (e.g. foreach over an object, test fixtures).
func SortedKeys(v *Variable) []string {
	fields, ok := v.Object()
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
