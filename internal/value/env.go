package value

import "strings"

// EnvLookup mirrors the injected Environment adapter's read surface.
type EnvLookup func(name string) (string, bool)

// ResolveEnv walks v and replaces any string Variable of the exact form
// "$NAME" with the environment value for NAME. Strings that merely contain
// a "$NAME" substring (rather than matching it exactly) pass through
// unchanged. Resolution happens eagerly, once, at configuration-normalization
// time — never at invocation time (spec.md section 4.1).
func ResolveEnv(v *Variable, lookup EnvLookup, unset string) *Variable {
	if v.IsNone() {
		return None()
	}
	if s, ok := v.String(); ok {
		name, isRef := envRefName(s)
		if !isRef {
			return String(s)
		}
		if resolved, found := lookup(name); found {
			return String(resolved)
		}
		return String(unset)
	}
	if items, ok := v.Array(); ok {
		out := make([]*Variable, len(items))
		for i, it := range items {
			out[i] = ResolveEnv(it, lookup, unset)
		}
		return &Variable{kind: KindArray, array: out}
	}
	if fields, ok := v.Object(); ok {
		out := make(map[string]*Variable, len(fields))
		for k, val := range fields {
			out[k] = ResolveEnv(val, lookup, unset)
		}
		return &Variable{kind: KindObject, object: out}
	}
	return v.Clone()
}

func envRefName(s string) (name string, ok bool) {
	if !strings.HasPrefix(s, "$") || len(s) < 2 {
		return "", false
	}
	name = s[1:]
	for _, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && !isDigit && r != '_' {
			return "", false
		}
	}
	return name, true
}
