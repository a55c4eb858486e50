package value

import (
	"strconv"
	"strings"
)

// SplitPath splits a dotted path ("a.b.c") into its segments, trimming
// surrounding whitespace from each segment as the URL templater does
// (spec.md section 4.3).
func SplitPath(path string) []string {
	parts := strings.Split(path, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// GetByPath walks Object nodes only; the first non-Object node encountered
// before the path is exhausted means "not found", not an error.
func GetByPath(v *Variable, path []string) (*Variable, bool) {
	cur := v
	for _, segment := range path {
		fields, ok := cur.Object()
		if !ok {
			return nil, false
		}
		next, ok := fields[segment]
		if !ok {
			return nil, false
		}
		cur = next
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// SetByPath writes x at path inside v, creating intermediate Object nodes as
// needed. It fails if an intermediate node already exists and is an Array
// or a Primitive (spec.md section 4.1).
func SetByPath(v *Variable, path []string, x *Variable) (*Variable, error) {
	if len(path) == 0 {
		return x.Clone(), nil
	}

	base, err := CastToObject(v)
	if err != nil {
		return nil, newError("value.set-path", strings.Join(path, "."), "root is not an object: %v", err)
	}
	fields, _ := base.Object()
	out := make(map[string]*Variable, len(fields)+1)
	for k, val := range fields {
		out[k] = val
	}

	head, rest := path[0], path[1:]
	if len(rest) == 0 {
		out[head] = x.Clone()
		return &Variable{kind: KindObject, object: out}, nil
	}

	child, ok := out[head]
	if !ok {
		child = EmptyObject()
	}
	if _, isObject := child.Object(); !isObject && !child.IsNone() {
		return nil, newError("value.set-path", strings.Join(path, "."), "intermediate node %q is a %s, not an object", head, child.Kind())
	}
	updatedChild, err := SetByPath(child, rest, x)
	if err != nil {
		return nil, err
	}
	out[head] = updatedChild
	return &Variable{kind: KindObject, object: out}, nil
}

// RecursiveKeyList enumerates dotted paths to every leaf (non-Object,
// non-Array) value reachable from v, optionally filtered by a predicate
// over the leaf value. Array elements are addressed by their position.
func RecursiveKeyList(v *Variable, filter func(*Variable) bool) []string {
	var keys []string
	var walk func(prefix string, cur *Variable)
	walk = func(prefix string, cur *Variable) {
		if fields, ok := cur.Object(); ok {
			for k, val := range fields {
				next := k
				if prefix != "" {
					next = prefix + "." + k
				}
				walk(next, val)
			}
			return
		}
		if items, ok := cur.Array(); ok {
			for i, val := range items {
				next := strconv.Itoa(i)
				if prefix != "" {
					next = prefix + "." + next
				}
				walk(next, val)
			}
			return
		}
		if filter == nil || filter(cur) {
			keys = append(keys, prefix)
		}
	}
	walk("", v)
	return keys
}
