package types_test

import (
	"testing"

	"github.com/cottand/duckcheck/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numbers is a small tower: bool <: int <: float <: complex, and str on its own
func numbers(t *testing.T) *types.Registry {
	t.Helper()
	reg := types.NewRegistry()
	specs := []types.TypeSpec{
		{Name: "object", Builtin: true},
		{Name: "bool", Builtin: true, Promotes: []types.TypeRef{"int"}, Members: []types.MemberDecl{{Name: "real", Type: "int"}, {Name: "imag", Type: "int"}},
			Methods: map[string]types.Signature{"bit_length": {Return: "int"}}},
		{Name: "int", Builtin: true, Promotes: []types.TypeRef{"float"}, Members: []types.MemberDecl{{Name: "real", Type: "int"}, {Name: "imag", Type: "int"}},
			Methods: map[string]types.Signature{"bit_length": {Return: "int"}}},
		{Name: "float", Builtin: true, Promotes: []types.TypeRef{"complex"}, Members: []types.MemberDecl{{Name: "real", Type: "float"}, {Name: "imag", Type: "float"}}},
		{Name: "complex", Builtin: true, Members: []types.MemberDecl{{Name: "real", Type: "float"}, {Name: "imag", Type: "float"}}},
		{Name: "str", Builtin: true, Methods: map[string]types.Signature{
			"upper": {Return: "str"},
			"split": {Params: []types.Param{{Name: "sep", Type: "str", HasDefault: true}}, Return: "list"},
		}},
	}
	for _, spec := range specs {
		require.NoError(t, reg.Register(types.NewConcreteType(spec)))
	}
	return reg
}

func TestSubtypingFollowsPromotions(t *testing.T) {
	reg := numbers(t)
	assert.True(t, reg.IsSubtype("bool", "complex"))
	assert.True(t, reg.IsSubtype("int", "int"))
	assert.True(t, reg.IsSubtype("str", "object"))
	assert.False(t, reg.IsSubtype("float", "int"))
	assert.False(t, reg.IsSubtype("str", "int"))
	assert.False(t, reg.IsSubtype(types.UnknownRef, "object"))
}

func TestCompatible(t *testing.T) {
	reg := numbers(t)
	cases := []struct {
		provided, required types.TypeRef
		expected           types.Outcome
	}{
		{"int", "float", types.Satisfied},
		{"float", "int", types.Violated},
		{types.UnknownRef, "int", types.Unknown},
		{"int", types.UnknownRef, types.Satisfied},
		{"str", "object", types.Satisfied},
		{"list[int]", "int", types.Unknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, reg.Compatible(c.provided, c.required), "%s as %s", c.provided, c.required)
	}
}

func TestMeetAndJoin(t *testing.T) {
	reg := numbers(t)

	m, ok := reg.Meet("int", "float")
	assert.True(t, ok)
	assert.Equal(t, types.TypeRef("int"), m)

	m, ok = reg.Meet(types.UnknownRef, "str")
	assert.True(t, ok)
	assert.Equal(t, types.TypeRef("str"), m)

	_, ok = reg.Meet("int", "str")
	assert.False(t, ok)

	assert.Equal(t, types.TypeRef("complex"), reg.Join("bool", "complex"))
	assert.Equal(t, types.ObjectRef, reg.Join("int", "str"))
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := numbers(t)
	err := reg.Register(types.NewConcreteType(types.TypeSpec{Name: "int"}))
	assert.ErrorContains(t, err, "built-in type 'int' is already registered")

	clone := reg.Clone()
	require.NoError(t, clone.Register(types.NewConcreteType(types.TypeSpec{Name: "Point"})))
	_, found := reg.Lookup("Point")
	assert.False(t, found, "registering in a clone must not change the original")
}

func TestStructuralAdd(t *testing.T) {
	reg := numbers(t)

	st, changed := types.Top.Add(reg, types.Member("imag", types.UnknownRef))
	assert.True(t, changed)
	assert.True(t, types.Top.IsTop(), "Top must not change")

	same, changed := st.Add(reg, types.Member("imag", types.UnknownRef))
	assert.False(t, changed)
	assert.True(t, same.Equal(st))

	narrowed, changed := st.Add(reg, types.Member("imag", "int"))
	assert.True(t, changed)
	c, _ := narrowed.Get("imag")
	assert.Equal(t, types.TypeRef("int"), c.Type)

	again, changed := narrowed.Add(reg, types.Member("imag", "float"))
	assert.False(t, changed, "int already implies float")
	assert.True(t, again.Equal(narrowed))
}

func TestStructuralConflicts(t *testing.T) {
	reg := numbers(t)
	cases := map[string][2]types.Capability{
		"attribute and method":   {types.Member("size", types.UnknownRef), types.Method("size", nil, types.UnknownRef)},
		"unrelated member types": {types.Member("x", "int"), types.Member("x", "str")},
		"method and attribute":   {types.Method("m", []types.TypeRef{"int"}, types.UnknownRef), types.Member("m", types.UnknownRef)},
		"method return types":    {types.Method("m", nil, "int"), types.Method("m", nil, "str")},
		"instances":              {types.Instance("int"), types.Instance("str")},
	}
	for name, caps := range cases {
		t.Run(name, func(t *testing.T) {
			st := types.StructuralOf(reg, caps[0], caps[1])
			require.True(t, st.IsConflicting())
			assert.Equal(t, caps[1], st.Conflict().Second)

			absorbed, changed := st.Add(reg, types.Member("other", types.UnknownRef))
			assert.False(t, changed, "a conflicting type absorbs every requirement")
			assert.True(t, absorbed.IsConflicting())
		})
	}
}

func TestStructuralMerge(t *testing.T) {
	reg := numbers(t)
	a := types.StructuralOf(reg, types.Member("x", types.UnknownRef), types.Method("m", []types.TypeRef{"int"}, types.UnknownRef))
	b := types.StructuralOf(reg, types.Member("y", "int"), types.Method("m", []types.TypeRef{"str"}, types.UnknownRef))

	merged, changed := a.Merge(reg, b)
	assert.True(t, changed)
	assert.Equal(t, []string{"m", "x", "y"}, merged.Names())
	m, _ := merged.Get("m")
	assert.Equal(t, []types.TypeRef{types.ObjectRef}, m.Args, "argument slots join to their common supertype")

	idempotent, changed := merged.Merge(reg, b)
	assert.False(t, changed)
	assert.True(t, idempotent.Equal(merged))

	conflicting := types.StructuralOf(reg, types.Member("z", "int"), types.Member("z", "str"))
	poisoned, changed := a.Merge(reg, conflicting)
	assert.True(t, changed)
	assert.True(t, poisoned.IsConflicting())
	assert.False(t, a.IsConflicting())
}

func TestMethodCallShapes(t *testing.T) {
	reg := numbers(t)
	st := types.StructuralOf(reg,
		types.Method("split", nil, types.UnknownRef),
		types.Method("split", []types.TypeRef{"str"}, types.UnknownRef),
	)
	require.False(t, st.IsConflicting(), "calls with different argument counts are separate requirements")
	assert.Equal(t, []string{"split"}, st.Names())
	first, ok := st.Get("split")
	require.True(t, ok)
	assert.Empty(t, first.Args)
	assert.Equal(t, types.Satisfied, types.Overall(reg.ConformsAll("str", st)))

	tooMany, _ := st.Add(reg, types.Method("split", []types.TypeRef{"str", "str"}, types.UnknownRef))
	results := reg.ConformsAll("str", tooMany)
	require.Len(t, results, 3)
	assert.Equal(t, []types.Reason{types.NoReason, types.NoReason, types.ArityMismatch},
		[]types.Reason{results[0].Reason, results[1].Reason, results[2].Reason})

	clash, _ := tooMany.Add(reg, types.Member("split", types.UnknownRef))
	assert.True(t, clash.IsConflicting())
}

func TestInstanceIsNotAName(t *testing.T) {
	reg := numbers(t)
	st := types.StructuralOf(reg, types.Instance("float"), types.Member("real", types.UnknownRef))
	assert.Equal(t, []string{"real"}, st.Names())

	narrowed, _ := st.Add(reg, types.Instance("int"))
	c, ok := narrowed.Get("@instance")
	require.True(t, ok)
	assert.Equal(t, types.TypeRef("int"), c.Type)
}
