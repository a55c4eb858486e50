package value

import "strconv"

// VariableToHTTPString renders a Variable as it must appear in a header,
// query or path string: Primitive scalars stringify directly, arrays of
// scalars pass through as a slice of strings (for repeated-parameter
// encoding), and any other shape is an error (spec.md section 4.1/4.3).
func VariableToHTTPString(v *Variable) ([]string, error) {
	if v.IsNone() {
		return nil, nil
	}
	if s, ok := scalarToString(v); ok {
		return []string{s}, nil
	}
	if items, ok := v.Array(); ok {
		out := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := scalarToString(it)
			if !ok {
				return nil, newError("value.http-string", "", "array element of kind %s is not stringifiable", it.Kind())
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, newError("value.http-string", "", "value of kind %s is not stringifiable", v.Kind())
}

func scalarToString(v *Variable) (string, bool) {
	switch v.Kind() {
	case KindString:
		s, _ := v.String()
		return s, true
	case KindNumber:
		n, _ := v.Number()
		return strconv.FormatFloat(n, 'g', -1, 64), true
	case KindBoolean:
		b, _ := v.Bool()
		return strconv.FormatBool(b), true
	default:
		return "", false
	}
}
