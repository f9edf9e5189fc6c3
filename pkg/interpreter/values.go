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

// Package interpreter implements the trace-producing interpreter used by the
// visualizer: a parser for a small Python-like subset, an expression
// evaluator, a statement executor and the step recorder that snapshots the
// program state after every observable step.
package interpreter

import (
	"math"
)

// Value is a runtime value produced by the evaluator.
// The set of implementations is closed: Int, Float, Str, Bool, NoneValue,
// *List, *Dict and Range.
type Value interface {
	// TypeName returns the Python-style type name of the value.
	TypeName() string
	isValue()
}

// Int is an integer value.
type Int int64

// Float is a real value.
type Float float64

// Str is a string value.
type Str string

// Bool is a boolean value.
type Bool bool

// NoneValue is the type of the None literal.
type NoneValue struct{}

// None is the only NoneValue.
var None = NoneValue{}

// List is an ordered, mutable sequence. Lists are reference values: every
// binding that holds the same *List observes in-place mutation.
type List struct {
	Items []Value
}

// Range is an arithmetic progression produced by range(...).
type Range struct {
	Start int64
	Stop  int64
	Step  int64
}

func (Int) TypeName() string       { return "int" }
func (Float) TypeName() string     { return "float" }
func (Str) TypeName() string       { return "str" }
func (Bool) TypeName() string      { return "bool" }
func (NoneValue) TypeName() string { return "NoneType" }
func (*List) TypeName() string     { return "list" }
func (*Dict) TypeName() string     { return "dict" }
func (Range) TypeName() string     { return "range" }

func (Int) isValue()       {}
func (Float) isValue()     {}
func (Str) isValue()       {}
func (Bool) isValue()      {}
func (NoneValue) isValue() {}
func (*List) isValue()     {}
func (*Dict) isValue()     {}
func (Range) isValue()     {}

// NewList returns a list holding the given items.
func NewList(items ...Value) *List {
	return &List{Items: append([]Value(nil), items...)}
}

// Len returns the number of elements the range produces.
func (r Range) Len() int64 {
	var n uint64
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		n = (uint64(r.Stop)-uint64(r.Start)-1)/uint64(r.Step) + 1
	case r.Step < 0 && r.Start > r.Stop:
		n = (uint64(r.Start)-uint64(r.Stop)-1)/(uint64(-(r.Step+1))+1) + 1
	default:
		return 0
	}
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// At returns the i-th element of the range. The caller keeps i below Len.
func (r Range) At(i int64) Int {
	return Int(r.Start + i*r.Step)
}

// Truthy reports the Python truth value of v.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Int:
		return v != 0
	case Float:
		return v != 0
	case Str:
		return v != ""
	case Bool:
		return bool(v)
	case NoneValue:
		return false
	case *List:
		return len(v.Items) > 0
	case *Dict:
		return v.Len() > 0
	case Range:
		return v.Len() > 0
	}
	return false
}

// copyValue returns a structural copy of v. Containers reachable from v are
// duplicated once per memo, so aliasing and cycles among them survive the copy.
func copyValue(v Value, memo map[any]Value) Value {
	switch v := v.(type) {
	case *List:
		if c, ok := memo[v]; ok {
			return c
		}
		c := &List{Items: make([]Value, len(v.Items))}
		memo[v] = c
		for i, item := range v.Items {
			c.Items[i] = copyValue(item, memo)
		}
		return c
	case *Dict:
		if c, ok := memo[v]; ok {
			return c
		}
		c := NewDict()
		memo[v] = c
		for _, k := range v.order {
			e := v.entries[k]
			c.order = append(c.order, k)
			c.entries[k] = dictEntry{key: e.key, value: copyValue(e.value, memo)}
		}
		return c
	default:
		// scalars and ranges are immutable
		return v
	}
}
