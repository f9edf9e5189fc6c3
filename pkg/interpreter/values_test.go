// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interpreter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var BinaryOpTests = []struct {
	op    string
	left  Value
	right Value
	want  Value
}{
	{"+", Int(2), Int(3), Int(5)},
	{"-", Int(2), Int(3), Int(-1)},
	{"*", Int(4), Int(3), Int(12)},
	{"/", Int(7), Int(2), Float(3.5)},
	{"/", Int(6), Int(3), Float(2)},
	{"%", Int(7), Int(3), Int(1)},
	{"%", Int(-7), Int(3), Int(2)},
	{"%", Int(7), Int(-3), Int(-2)},
	{"%", Int(-7), Int(-3), Int(-1)},
	{"%", Float(7.5), Int(2), Float(1.5)},
	{"%", Float(-7.5), Int(2), Float(0.5)},
	{"+", Int(1), Float(0.5), Float(1.5)},
	{"+", Bool(true), Int(1), Int(2)},
	{"+", Str("ab"), Str("cd"), Str("abcd")},
	{"*", Str("ab"), Int(3), Str("ababab")},
	{"*", Int(2), Str("x"), Str("xx")},
	{"*", Str("ab"), Int(-1), Str("")},
}

func TestBinaryOp(t *testing.T) {
	for _, test := range BinaryOpTests {
		got, err := binaryOp(test.op, test.left, test.right, nil)
		if err != nil {
			t.Errorf("%s %s %s: unexpected error %v", Repr(test.left), test.op, Repr(test.right), err)
			continue
		}
		if got != test.want {
			t.Errorf("%s %s %s: expected %s, got %s", Repr(test.left), test.op, Repr(test.right), Repr(test.want), Repr(got))
		}
	}
}

func TestBinaryOpOnLists(t *testing.T) {
	got, err := binaryOp("+", NewList(Int(1)), NewList(Int(2)), nil)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]", Repr(got))

	got, err = binaryOp("*", NewList(Int(0)), Int(3), nil)
	require.NoError(t, err)
	assert.Equal(t, "[0, 0, 0]", Repr(got))
}

func TestBinaryOpErrors(t *testing.T) {
	tests := []struct {
		op          string
		left, right Value
		message     string
	}{
		{"+", Int(math.MaxInt64), Int(1), "integer overflow in '+'"},
		{"-", Int(math.MinInt64), Int(1), "integer overflow in '-'"},
		{"*", Int(math.MaxInt64), Int(2), "integer overflow in '*'"},
		{"%", Int(1), Int(0), "integer modulo by zero"},
		{"/", Float(1), Int(0), "division by zero"},
		{"-", Str("a"), Str("b"), "unsupported operand type(s) for -: 'str' and 'str'"},
		{"**", Int(2), Int(2), "Operator '**' not supported"},
		{"*", Str("ab"), Int(1 << 24), "repeated string is too long"},
	}
	for _, test := range tests {
		_, err := binaryOp(test.op, test.left, test.right, nil)
		ee, ok := AsExecutionError(err)
		if !ok || ee.Kind != UnsupportedConstructError {
			t.Errorf("%s %s %s: expected UnsupportedConstructError, got %v", Repr(test.left), test.op, Repr(test.right), err)
			continue
		}
		assert.Equal(t, test.message, ee.Message)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		op          string
		left, right Value
		want        bool
	}{
		{"==", Int(1), Float(1), true},
		{"==", Bool(true), Int(1), true},
		{"!=", Str("a"), Int(1), true},
		{"==", None, None, true},
		{"<", Int(1), Float(1.5), true},
		{">=", Str("b"), Str("a"), true},
		{"<", NewList(Int(1), Int(2)), NewList(Int(1), Int(3)), true},
		{"<", NewList(Int(1)), NewList(Int(1), Int(0)), true},
		{"==", NewList(Int(1), Str("x")), NewList(Int(1), Str("x")), true},
		{"==", Range{0, 3, 1}, Range{0, 3, 1}, true},
		{"<", Float(math.NaN()), Int(1), false},
		{">=", Float(math.NaN()), Int(1), false},
	}
	for _, test := range tests {
		got, err := compare(test.op, test.left, test.right)
		require.NoError(t, err)
		if got != Bool(test.want) {
			t.Errorf("%s %s %s: expected %v, got %s", Repr(test.left), test.op, Repr(test.right), test.want, Repr(got))
		}
	}

	_, err := compare("<", Int(1), Str("a"))
	assert.True(t, IsKind(err, UnsupportedConstructError))
	assert.EqualError(t, err, "'<' not supported between instances of 'int' and 'str'")
}

func TestCompareDeepListsIsBounded(t *testing.T) {
	a, b := NewList(), NewList()
	a.Items = append(a.Items, a)
	b.Items = append(b.Items, b)
	_, err := compare("==", a, b)
	assert.True(t, IsKind(err, UnsupportedConstructError), "got %v", err)
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		value Value
		repr  string
		str   string
	}{
		{Int(-4), "-4", "-4"},
		{Float(0.1), "0.1", "0.1"},
		{Float(2), "2.0", "2.0"},
		{Float(math.Copysign(0, -1)), "-0.0", "-0.0"},
		{Float(1e15), "1000000000000000.0", "1000000000000000.0"},
		{Float(1e16), "1e+16", "1e+16"},
		{Float(1e-5), "1e-05", "1e-05"},
		{Float(0.0001), "0.0001", "0.0001"},
		{Float(math.Inf(1)), "inf", "inf"},
		{Str("hi"), "'hi'", "hi"},
		{Str("it's"), `"it's"`, "it's"},
		{Str(`a'b"c`), `'a\'b"c'`, `a'b"c`},
		{Str("tab\there"), `'tab\there'`, "tab\there"},
		{Bool(false), "False", "False"},
		{None, "None", "None"},
		{Range{0, 5, 1}, "range(0, 5)", "range(0, 5)"},
		{Range{5, 0, -2}, "range(5, 0, -2)", "range(5, 0, -2)"},
		{NewList(Str("a"), Float(1)), "['a', 1.0]", "['a', 1.0]"},
	}
	for _, test := range tests {
		if got := Repr(test.value); got != test.repr {
			t.Errorf("Repr: expected %s, got %s", test.repr, got)
		}
		if got := StrOf(test.value); got != test.str {
			t.Errorf("StrOf: expected %s, got %s", test.str, got)
		}
	}
}

func TestRangeLen(t *testing.T) {
	tests := []struct {
		r    Range
		want int64
	}{
		{Range{0, 3, 1}, 3},
		{Range{0, 0, 1}, 0},
		{Range{3, 0, 1}, 0},
		{Range{0, 10, 3}, 4},
		{Range{10, 0, -3}, 4},
		{Range{0, 10, -1}, 0},
		{Range{math.MinInt64, math.MaxInt64, 1}, math.MaxInt64},
	}
	for _, test := range tests {
		if got := test.r.Len(); got != test.want {
			t.Errorf("%s: expected len %d, got %d", test.r, test.want, got)
		}
	}
	assert.Equal(t, Int(7), Range{10, 0, -3}.At(1))
}

func TestDictKeys(t *testing.T) {
	d := NewDict()
	require.NoError(t, d.Set(Int(1), Str("int")))
	require.NoError(t, d.Set(Float(1.0), Str("float")))
	require.NoError(t, d.Set(Bool(true), Str("bool")))
	require.NoError(t, d.Set(Str("1"), Str("str")))
	require.NoError(t, d.Set(None, Int(0)))

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, "{1: 'bool', '1': 'str', None: 0}", Repr(d))

	v, ok, err := d.Get(Float(1))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Str("bool"), v)

	_, _, err = d.Get(NewList())
	assert.EqualError(t, err, "unhashable type: 'list'")

	v, ok, err = d.Delete(Str("1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Str("str"), v)
	assert.Equal(t, []Value{Int(1), None}, d.Keys())

	d.Update(d)
	assert.Equal(t, 2, d.Len())
}

func TestTruthy(t *testing.T) {
	falsy := []Value{Int(0), Float(0), Str(""), Bool(false), None, NewList(), NewDict(), Range{0, 0, 1}}
	for _, v := range falsy {
		assert.False(t, Truthy(v), Repr(v))
	}
	truthy := []Value{Int(-1), Float(0.5), Str("x"), Bool(true), NewList(None), Range{0, 1, 1}}
	for _, v := range truthy {
		assert.True(t, Truthy(v), Repr(v))
	}
}
