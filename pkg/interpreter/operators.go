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
	"strings"
)

// maxSequenceLen caps the length of any string or list built by an operator.
const maxSequenceLen = 1 << 24

// maxCompareDepth bounds recursion when comparing nested containers.
const maxCompareDepth = 1000

// number extracts a numeric operand. Bools count as integers.
func number(v Value) (i int64, f float64, isFloat bool, ok bool) {
	switch v := v.(type) {
	case Int:
		return int64(v), float64(v), false, true
	case Bool:
		if v {
			return 1, 1, false, true
		}
		return 0, 0, false, true
	case Float:
		return 0, float64(v), true, true
	}
	return 0, 0, false, false
}

func operandError(op string, l, r Value) *ExecutionError {
	return unsupportedf("unsupported operand type(s) for %s: '%s' and '%s'", op, l.TypeName(), r.TypeName())
}

func overflow(op string) *ExecutionError {
	return unsupportedf("integer overflow in '%s'", op)
}

// binaryOp applies one of the arithmetic operators +, -, *, / and %.
// Strings and lists it builds are charged to mem.
func binaryOp(op string, l, r Value, mem *Budget) (Value, error) {
	switch op {
	case "+", "-", "*", "/", "%":
	default:
		return nil, unsupportedf("Operator '%s' not supported", op)
	}

	li, lf, lFloat, lNum := number(l)
	ri, rf, rFloat, rNum := number(r)
	if lNum && rNum {
		if lFloat || rFloat || op == "/" {
			return floatOp(op, lf, rf)
		}
		return intOp(op, li, ri)
	}

	switch op {
	case "+":
		switch lv := l.(type) {
		case Str:
			if rv, ok := r.(Str); ok {
				n := int64(len(lv)) + int64(len(rv))
				if n > maxSequenceLen {
					return nil, unsupportedf("concatenated string is too long")
				}
				if err := mem.Charge(strCells(int(n))); err != nil {
					return nil, err
				}
				return lv + rv, nil
			}
		case *List:
			if rv, ok := r.(*List); ok {
				n := int64(len(lv.Items)) + int64(len(rv.Items))
				if n > maxSequenceLen {
					return nil, unsupportedf("concatenated list is too long")
				}
				if err := mem.Charge(n); err != nil {
					return nil, err
				}
				items := make([]Value, 0, n)
				items = append(items, lv.Items...)
				return &List{Items: append(items, rv.Items...)}, nil
			}
		}
	case "*":
		if n, ok := asIndex(r); ok {
			return repeat(l, n, op, r, mem)
		}
		if n, ok := asIndex(l); ok {
			return repeat(r, n, op, l, mem)
		}
	}
	return nil, operandError(op, l, r)
}

func repeat(seq Value, n int64, op string, count Value, mem *Budget) (Value, error) {
	if n < 0 {
		n = 0
	}
	switch s := seq.(type) {
	case Str:
		if n > 0 && int64(len(s)) > maxSequenceLen/n {
			return nil, unsupportedf("repeated string is too long")
		}
		if err := mem.Charge(strCells(len(s) * int(n))); err != nil {
			return nil, err
		}
		return Str(strings.Repeat(string(s), int(n))), nil
	case *List:
		if n > 0 && int64(len(s.Items)) > maxSequenceLen/n {
			return nil, unsupportedf("repeated list is too long")
		}
		if err := mem.Charge(int64(len(s.Items)) * n); err != nil {
			return nil, err
		}
		items := make([]Value, 0, int64(len(s.Items))*n)
		for i := int64(0); i < n; i++ {
			items = append(items, s.Items...)
		}
		return &List{Items: items}, nil
	}
	return nil, operandError(op, seq, count)
}

func intOp(op string, a, b int64) (Value, error) {
	switch op {
	case "+":
		if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
			return nil, overflow(op)
		}
		return Int(a + b), nil
	case "-":
		if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
			return nil, overflow(op)
		}
		return Int(a - b), nil
	case "*":
		if a == 0 || b == 0 {
			return Int(0), nil
		}
		c := a * b
		if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return nil, overflow(op)
		}
		return Int(c), nil
	case "%":
		if b == 0 {
			return nil, unsupportedf("integer modulo by zero")
		}
		return Int(floorMod(a, b)), nil
	}
	return nil, unsupportedf("Operator '%s' not supported", op)
}

// floorMod returns a mod b with the sign of b, as Python's % does.
func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func floatOp(op string, a, b float64) (Value, error) {
	switch op {
	case "+":
		return Float(a + b), nil
	case "-":
		return Float(a - b), nil
	case "*":
		return Float(a * b), nil
	case "/":
		if b == 0 {
			return nil, unsupportedf("division by zero")
		}
		return Float(a / b), nil
	case "%":
		if b == 0 {
			return nil, unsupportedf("float modulo")
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		if m == 0 {
			m = math.Copysign(0, b)
		}
		return Float(m), nil
	}
	return nil, unsupportedf("Operator '%s' not supported", op)
}

// compare applies one of ==, !=, <, <=, > and >=.
func compare(op string, l, r Value) (Value, error) {
	switch op {
	case "==":
		eq, err := equal(l, r, 0)
		return Bool(eq), err
	case "!=":
		eq, err := equal(l, r, 0)
		return Bool(!eq), err
	case "<", "<=", ">", ">=":
		c, err := order(op, l, r, 0)
		if err != nil {
			return nil, err
		}
		switch op {
		case "<":
			return Bool(c < 0), nil
		case "<=":
			return Bool(c <= 0), nil
		case ">":
			return Bool(c > 0), nil
		}
		return Bool(c >= 0), nil
	}
	return nil, unsupportedf("Comparison '%s' not supported", op)
}

func equal(l, r Value, depth int) (bool, error) {
	if depth > maxCompareDepth {
		return false, unsupportedf("maximum recursion depth exceeded in comparison")
	}
	li, lf, lFloat, lNum := number(l)
	ri, rf, rFloat, rNum := number(r)
	if lNum && rNum {
		if lFloat || rFloat {
			return lf == rf, nil
		}
		return li == ri, nil
	}
	switch lv := l.(type) {
	case Str:
		rv, ok := r.(Str)
		return ok && lv == rv, nil
	case NoneValue:
		_, ok := r.(NoneValue)
		return ok, nil
	case Range:
		rv, ok := r.(Range)
		if !ok {
			return false, nil
		}
		n := lv.Len()
		if n != rv.Len() {
			return false, nil
		}
		return n == 0 || (lv.Start == rv.Start && (n == 1 || lv.Step == rv.Step)), nil
	case *List:
		rv, ok := r.(*List)
		if !ok {
			return false, nil
		}
		if lv == rv {
			return true, nil
		}
		if len(lv.Items) != len(rv.Items) {
			return false, nil
		}
		for i := range lv.Items {
			eq, err := equal(lv.Items[i], rv.Items[i], depth+1)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case *Dict:
		rv, ok := r.(*Dict)
		if !ok {
			return false, nil
		}
		if lv == rv {
			return true, nil
		}
		if lv.Len() != rv.Len() {
			return false, nil
		}
		for _, k := range lv.order {
			other, found := rv.entries[k]
			if !found {
				return false, nil
			}
			eq, err := equal(lv.entries[k].value, other.value, depth+1)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	}
	return false, nil
}

// order returns -1, 0 or 1 for values that support ordering.
func order(op string, l, r Value, depth int) (int, error) {
	if depth > maxCompareDepth {
		return 0, unsupportedf("maximum recursion depth exceeded in comparison")
	}
	li, lf, lFloat, lNum := number(l)
	ri, rf, rFloat, rNum := number(r)
	if lNum && rNum {
		if lFloat || rFloat {
			if math.IsNaN(lf) || math.IsNaN(rf) {
				return unorderedNaN(op), nil
			}
			return cmp3(lf < rf, lf > rf), nil
		}
		return cmp3(li < ri, li > ri), nil
	}
	switch lv := l.(type) {
	case Str:
		if rv, ok := r.(Str); ok {
			return strings.Compare(string(lv), string(rv)), nil
		}
	case *List:
		if rv, ok := r.(*List); ok {
			for i := 0; i < len(lv.Items) && i < len(rv.Items); i++ {
				eq, err := equal(lv.Items[i], rv.Items[i], depth+1)
				if err != nil {
					return 0, err
				}
				if !eq {
					return order(op, lv.Items[i], rv.Items[i], depth+1)
				}
			}
			return cmp3(len(lv.Items) < len(rv.Items), len(lv.Items) > len(rv.Items)), nil
		}
	}
	return 0, unsupportedf("'%s' not supported between instances of '%s' and '%s'", op, l.TypeName(), r.TypeName())
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

// unorderedNaN picks a result that makes every ordering comparison false.
func unorderedNaN(op string) int {
	switch op {
	case "<", "<=":
		return 1
	}
	return -1
}
