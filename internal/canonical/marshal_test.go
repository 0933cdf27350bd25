package canonical

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"null", Null{}, "null"},
		{"nil interface", nil, "null"},
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(math.MaxInt64), "9223372036854775807"},
		{"min int64", Int(math.MinInt64), "-9223372036854775808"},
		{"max uint64", Uint(math.MaxUint64), "18446744073709551615"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array of ints", Array{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalFloats(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{5, "5"},
		{0.1, "0.1"},
		{-2.5, "-2.5"},
		{1e6, "1000000"},
		{123456789012345680000, "123456789012345680000"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{0.000001, "0.000001"},
		{1.7976931348623157e308, "1.7976931348623157e+308"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result, err := Marshal(Float(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalNonFiniteFloatFails(t *testing.T) {
	_, err := Marshal(Array{Float(math.NaN())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[0]")
}

func TestMarshalSpyPointKeyFirst(t *testing.T) {
	obj := Object{
		"aardvark":  Int(1),
		SpyPointKey: String("my_spy_point"),
		"_under":    Int(2),
		"Zeta":      Int(3),
	}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"__spyPoint__":"my_spy_point","Zeta":3,"_under":2,"aardvark":1}`, string(result))
}

func TestMarshalNestedSortedKeys(t *testing.T) {
	obj := Object{
		"z": Object{
			"b": Int(1),
			"a": Int(2),
		},
		"a": Array{Object{"y": Bool(true), "x": Null{}}},
	}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[{"x":null,"y":true}],"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000: UTF-16 order differs from UTF-8 order.
	obj := Object{
		"\uE000": Int(1),
		"𐀀":      Int(2),
	}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"𐀀":2,"`+"\uE000"+`":1}`, string(result))
}

func TestMarshalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no html escaping", "<a & b>", `"<a & b>"`},
		{"quote", `say "hi"`, `"say \"hi\""`},
		{"backslash", `C:\dir`, `"C:\\dir"`},
		{"newline and tab", "a\nb\tc", `"a\nb\tc"`},
		{"control char", "\x01", `"\u0001"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"invalid utf8", "a\xffb", "\"a\uFFFDb\""},
		{"nfc normalized", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalDeterministic(t *testing.T) {
	obj := Object{}
	for _, k := range strings.Split("q w e r t y u i o p a s d f g h j k l", " ") {
		obj[k] = String(k)
	}
	obj[SpyPointKey] = String("point")

	first := MustMarshal(obj)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, MustMarshal(obj), "iteration %d", i)
	}
	assert.True(t, strings.HasPrefix(first, `{"__spyPoint__":"point",`))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int(5), Float(5)))
	assert.True(t, Equal(Object{"a": Int(1)}, Object{"a": Int(1)}))
	assert.False(t, Equal(Int(5), String("5")))
	assert.False(t, Equal(Float(math.Inf(1)), Float(math.Inf(1))))
}
