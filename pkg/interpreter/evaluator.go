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

// evaluate computes the value of e against scope. It never mutates scope.
func evaluate(e Expr, scope *Scope) (Value, error) {
	switch e := e.(type) {
	case *Constant:
		return e.Value, nil

	case *Name:
		if v, ok := scope.Get(e.ID); ok {
			return v, nil
		}
		return nil, undefined(e.ID)

	case *BinaryOp:
		left, err := evaluate(e.Left, scope)
		if err != nil {
			return nil, err
		}
		right, err := evaluate(e.Right, scope)
		if err != nil {
			return nil, err
		}
		return binaryOp(e.Op, left, right, scope.mem)

	case *Compare:
		left, err := evaluate(e.Left, scope)
		if err != nil {
			return nil, err
		}
		right, err := evaluate(e.Right, scope)
		if err != nil {
			return nil, err
		}
		return compare(e.Op, left, right)

	case *Call:
		if e.Kind != CallRange {
			return nil, unsupportedf("Function call '%s' not supported", e.Callee)
		}
		args, err := evaluateAll(e.Args, scope)
		if err != nil {
			return nil, err
		}
		return makeRange(args)

	case *ListLiteral:
		if err := scope.mem.Charge(int64(len(e.Elems))); err != nil {
			return nil, err
		}
		items, err := evaluateAll(e.Elems, scope)
		if err != nil {
			return nil, err
		}
		return &List{Items: items}, nil

	case *DictLiteral:
		if err := scope.mem.Charge(int64(2 * len(e.Keys))); err != nil {
			return nil, err
		}
		d := NewDict()
		for i := range e.Keys {
			k, err := evaluate(e.Keys[i], scope)
			if err != nil {
				return nil, err
			}
			v, err := evaluate(e.Values[i], scope)
			if err != nil {
				return nil, err
			}
			if err := d.Set(k, v); err != nil {
				return nil, err
			}
		}
		return d, nil
	}
	return nil, unsupportedf("Expression type '%s' not supported", exprKind(e))
}

func evaluateAll(exprs []Expr, scope *Scope) ([]Value, error) {
	values := make([]Value, 0, len(exprs))
	for _, e := range exprs {
		v, err := evaluate(e, scope)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// makeRange implements range(stop), range(start, stop) and
// range(start, stop, step).
func makeRange(args []Value) (Value, error) {
	switch {
	case len(args) == 0:
		return nil, unsupportedf("range expected at least 1 argument, got 0")
	case len(args) > 3:
		return nil, unsupportedf("range expected at most 3 arguments, got %d", len(args))
	}
	ints := make([]int64, len(args))
	for i, a := range args {
		n, ok := asIndex(a)
		if !ok {
			return nil, unsupportedf("'%s' object cannot be interpreted as an integer", a.TypeName())
		}
		ints[i] = n
	}
	r := Range{Step: 1}
	switch len(ints) {
	case 1:
		r.Stop = ints[0]
	case 2:
		r.Start, r.Stop = ints[0], ints[1]
	case 3:
		r.Start, r.Stop, r.Step = ints[0], ints[1], ints[2]
		if r.Step == 0 {
			return nil, unsupportedf("range() arg 3 must not be zero")
		}
	}
	return r, nil
}

// asIndex accepts the values Python treats as integers.
func asIndex(v Value) (int64, bool) {
	switch v := v.(type) {
	case Int:
		return int64(v), true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
