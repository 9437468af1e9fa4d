package toon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAccessors(t *testing.T) {
	v := Map(
		Field("n", Int(7)),
		Field("s", Str("hi")),
		Field("f", Float(1.5)),
		Field("b", Bool(true)),
		Field("nested", Seq(Int(1), Int(2))),
	)

	n, err := v.Get("n").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = v.Get("n").AsStr()
	require.Error(t, err)

	assert.True(t, v.Has("s"))
	assert.False(t, v.Has("missing"))
	assert.Nil(t, v.Get("missing"))
	assert.Equal(t, 5, v.Len())
	assert.Equal(t, []string{"n", "s", "f", "b", "nested"}, v.Keys())

	elem, err := v.Get("nested").Index(1)
	require.NoError(t, err)
	i, err := elem.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(2), i)

	_, err = v.Get("nested").Index(5)
	require.Error(t, err)
}

func TestValueNumber(t *testing.T) {
	f, ok := Int(3).Number()
	require.True(t, ok)
	assert.Equal(t, 3.0, f)

	f, ok = Float(2.5).Number()
	require.True(t, ok)
	assert.Equal(t, 2.5, f)

	_, ok = Str("3").Number()
	assert.False(t, ok)

	assert.True(t, Int(1).IsNumeric())
	assert.False(t, Null().IsNumeric())
	assert.True(t, Str("x").IsScalar())
	assert.False(t, Seq().IsScalar())
}

func TestNilValueReadsAsNull(t *testing.T) {
	var v *Value
	assert.Equal(t, KindNull, v.Kind())
	assert.True(t, v.IsNull())
	assert.Equal(t, 0, v.Len())
	assert.True(t, Equal(v, Null()))
}

func TestEqualIsOrderSensitive(t *testing.T) {
	a := Map(Field("x", Int(1)), Field("y", Int(2)))
	b := Map(Field("y", Int(2)), Field("x", Int(1)))
	assert.False(t, Equal(a, b))
	assert.True(t, Equal(a, a.Clone()))

	assert.False(t, Equal(Int(2), Float(2)))
	assert.False(t, Equal(Seq(Int(1)), Seq(Int(1), Int(2))))
	assert.True(t, Equal(Seq(Int(1)), Seq(Int(1))))
}

func TestCloneIsDeep(t *testing.T) {
	orig := Map(Field("items", Seq(Int(1))))
	cp := orig.Clone()

	cp.Get("items").Append(Int(2))
	cp.Set("extra", Bool(true))

	assert.Equal(t, 1, orig.Get("items").Len())
	assert.False(t, orig.Has("extra"))
}

func TestSetReplacesAndAppends(t *testing.T) {
	m := Map(Field("a", Int(1)))
	m.Set("a", Int(10))
	m.Set("b", Int(2))

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	got, err := m.Get("a").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)

	assert.Panics(t, func() { Seq().Set("x", Int(1)) })
	assert.Panics(t, func() { Map().Append(Int(1)) })
}

func TestDepthAndNodeCount(t *testing.T) {
	assert.Equal(t, 1, Int(1).Depth())
	assert.Equal(t, 1, Int(1).NodeCount())

	tree := Map(Field("a", Seq(Int(1), Map(Field("b", Int(2))))))
	assert.Equal(t, 4, tree.Depth())
	assert.Equal(t, 5, tree.NodeCount())
}

func TestLevelStringAndParse(t *testing.T) {
	tests := []struct {
		level Level
		name  string
	}{
		{LevelMinimal, "MINIMAL"},
		{LevelStandard, "STANDARD"},
		{LevelAggressive, "AGGRESSIVE"},
		{LevelExtreme, "EXTREME"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.name, tc.level.String())
		got, err := ParseLevel(tc.name)
		require.NoError(t, err)
		assert.Equal(t, tc.level, got)
	}

	got, err := ParseLevel("aggressive")
	require.NoError(t, err)
	assert.Equal(t, LevelAggressive, got)

	_, err = ParseLevel("turbo")
	require.Error(t, err)

	assert.False(t, Level(0).Valid())
	assert.False(t, Level(5).Valid())
}
