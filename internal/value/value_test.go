package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMergeObjectsRecurse(t *testing.T) {
	a := Object(map[string]*Variable{
		"d": String("existing"),
		"a": Object(map[string]*Variable{"x": Number(1)}),
	})
	b := Object(map[string]*Variable{
		"a": Object(map[string]*Variable{"b": Object(map[string]*Variable{"c": String("secret")})}),
	})

	merged := DeepMerge(a, b)

	got, ok := GetByPath(merged, SplitPath("a.b.c"))
	require.True(t, ok)
	s, _ := got.String()
	assert.Equal(t, "secret", s)

	existing, ok := GetByPath(merged, SplitPath("d"))
	require.True(t, ok)
	s, _ = existing.String()
	assert.Equal(t, "existing", s)
}

func TestDeepMergeNonObjectReplaces(t *testing.T) {
	a := Array(String("x"))
	b := Array(String("y"), String("z"))
	merged := DeepMerge(a, b)
	items, ok := merged.Array()
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestCastToObject(t *testing.T) {
	obj, err := CastToObject(None())
	require.NoError(t, err)
	_, ok := obj.Object()
	assert.True(t, ok)

	_, err = CastToObject(String("x"))
	assert.Error(t, err)
}

func TestSetByPathCreatesIntermediates(t *testing.T) {
	root := Object(map[string]*Variable{"d": String("existing")})
	updated, err := SetByPath(root, SplitPath("a.b.c"), String("secret"))
	require.NoError(t, err)

	v, ok := GetByPath(updated, SplitPath("a.b.c"))
	require.True(t, ok)
	s, _ := v.String()
	assert.Equal(t, "secret", s)

	d, ok := GetByPath(updated, SplitPath("d"))
	require.True(t, ok)
	s, _ = d.String()
	assert.Equal(t, "existing", s)
}

func TestSetByPathFailsThroughArray(t *testing.T) {
	root := Object(map[string]*Variable{"a": Array(String("x"))})
	_, err := SetByPath(root, SplitPath("a.b"), String("y"))
	assert.Error(t, err)
}

func TestGetByPathMissingIsNotFound(t *testing.T) {
	root := Object(map[string]*Variable{"a": String("x")})
	_, ok := GetByPath(root, SplitPath("a.b"))
	assert.False(t, ok)
}

func TestResolveEnvExactMatchOnly(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "TOKEN" {
			return "abc123", true
		}
		return "", false
	}
	in := Object(map[string]*Variable{
		"exact":    String("$TOKEN"),
		"embedded": String("prefix $TOKEN suffix"),
		"missing":  String("$NOPE"),
	})
	out := ResolveEnv(in, lookup, "<unset>")

	exact, _ := GetByPath(out, SplitPath("exact"))
	s, _ := exact.String()
	assert.Equal(t, "abc123", s)

	embedded, _ := GetByPath(out, SplitPath("embedded"))
	s, _ = embedded.String()
	assert.Equal(t, "prefix $TOKEN suffix", s)

	missing, _ := GetByPath(out, SplitPath("missing"))
	s, _ = missing.String()
	assert.Equal(t, "<unset>", s)
}

func TestVariableToHTTPString(t *testing.T) {
	out, err := VariableToHTTPString(Number(12))
	require.NoError(t, err)
	assert.Equal(t, []string{"12"}, out)

	out, err = VariableToHTTPString(Array(String("a"), String("b")))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)

	_, err = VariableToHTTPString(Object(map[string]*Variable{"x": Number(1)}))
	assert.Error(t, err)

	out, err = VariableToHTTPString(None())
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestJSONRoundTrip(t *testing.T) {
	v := Object(map[string]*Variable{
		"n":   Number(144),
		"s":   String("hi"),
		"b":   Bool(true),
		"arr": Array(Number(1), Number(2)),
	})
	raw, err := ToJSON(v)
	require.NoError(t, err)

	back, err := FromJSON(raw)
	require.NoError(t, err)
	assert.True(t, v.Equal(back))
}

func TestRecursiveKeyList(t *testing.T) {
	v := Object(map[string]*Variable{
		"a": Object(map[string]*Variable{"b": Number(1)}),
		"c": Array(String("x"), String("y")),
	})
	keys := RecursiveKeyList(v, nil)
	assert.ElementsMatch(t, []string{"a.b", "c.0", "c.1"}, keys)
}
