package value

// DeepMerge combines a and b: Object nodes are merged recursively key by
// key, with b's keys winning on conflict; any other pairing is replaced
// wholesale by b (spec.md section 4.1).
func DeepMerge(a, b *Variable) *Variable {
	if b.IsNone() {
		return a.Clone()
	}
	if a.IsNone() {
		return b.Clone()
	}
	aFields, aIsObject := a.Object()
	bFields, bIsObject := b.Object()
	if !aIsObject || !bIsObject {
		return b.Clone()
	}

	merged := make(map[string]*Variable, len(aFields)+len(bFields))
	for k, v := range aFields {
		merged[k] = v.Clone()
	}
	for k, v := range bFields {
		if existing, ok := merged[k]; ok {
			merged[k] = DeepMerge(existing, v)
		} else {
			merged[k] = v.Clone()
		}
	}
	return &Variable{kind: KindObject, object: merged}
}

// CastToObject coerces v to an object Variable: None becomes {}, an Object
// passes through unchanged, anything else is an error.
func CastToObject(v *Variable) (*Variable, error) {
	if v.IsNone() {
		return EmptyObject(), nil
	}
	if _, ok := v.Object(); ok {
		return v, nil
	}
	return nil, newError("value.cast", "", "cannot cast %s to object", v.Kind())
}
