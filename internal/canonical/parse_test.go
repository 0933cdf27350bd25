package canonical

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"null", `null`, Null{}},
		{"int", `5`, Int(5)},
		{"negative int", `-12`, Int(-12)},
		{"big uint", `18446744073709551615`, Uint(math.MaxUint64)},
		{"float", `2.5`, Float(2.5)},
		{"exponent", `1e3`, Float(1000)},
		{"string", `"x"`, String("x")},
		{"nested", `{"b":[true,null],"a":{"c":1}}`, Object{
			"a": Object{"c": Int(1)},
			"b": Array{Bool(true), Null{}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%s) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{``, `{`, `1 2`, `1e400`} {
		_, err := Parse([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseMarshalRoundTripIsStable(t *testing.T) {
	inputs := []string{
		`{"what":5,"__spyPoint__":"my_spy_point"}`,
		`{"z":[1,2.5,{"b":"x","a":null}],"a":false}`,
		`[1.0, 0.000001, 1e21]`,
	}

	for _, input := range inputs {
		v, err := Parse([]byte(input))
		require.NoError(t, err)
		first := MustMarshal(v)

		again, err := Parse([]byte(first))
		require.NoError(t, err)
		assert.Equal(t, first, MustMarshal(again))
	}
}

func TestParseSpyPointFirst(t *testing.T) {
	v, err := Parse([]byte(`{"what":5,"__spyPoint__":"my_spy_point"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"__spyPoint__":"my_spy_point","what":5}`, MustMarshal(v))
}

func TestFromDecoded(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"json number int", json.Number("9007199254740993"), Int(9007199254740993)},
		{"json number float", json.Number("1.5"), Float(1.5)},
		{"plain float64", 2.0, Float(2)},
		{"nested", map[string]any{"a": []any{nil, true, "x"}}, Object{"a": Array{Null{}, Bool(true), String("x")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromDecoded(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FromDecoded(struct{}{})
	assert.Error(t, err)
}
