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

import "fmt"

// executor walks the statements of one run. It owns the run's scope and
// recorder; nothing here is shared between runs.
type executor struct {
	scope  *Scope
	rec    *Recorder
	mem    *Budget
	strict bool
}

func (x *executor) execBlock(stmts []Stmt) error {
	for _, s := range stmts {
		if err := x.exec(s); err != nil {
			return atLine(err, s.Line())
		}
	}
	return nil
}

func (x *executor) exec(s Stmt) error {
	switch s := s.(type) {
	case *Assign:
		v, err := evaluate(s.Value, x.scope)
		if err != nil {
			return err
		}
		text, err := x.mem.repr(v)
		if err != nil {
			return err
		}
		x.scope.Set(s.Target, v)
		return x.rec.Record(s.Line(), fmt.Sprintf("Assigns %s to variable '%s'", text, s.Target), x.scope)

	case *If:
		test, err := evaluate(s.Test, x.scope)
		if err != nil {
			return err
		}
		text, err := x.mem.str(test)
		if err != nil {
			return err
		}
		if err := x.rec.Record(s.Line(), "Evaluates condition which is: "+text, x.scope); err != nil {
			return err
		}
		if Truthy(test) {
			return x.execBlock(s.Then)
		}
		return x.execBlock(s.Else)

	case *For:
		return x.execFor(s)

	case *While:
		if err := x.rec.Record(s.Line(), "Starts while-loop", x.scope); err != nil {
			return err
		}
		for {
			test, err := evaluate(s.Test, x.scope)
			if err != nil {
				return err
			}
			text, err := x.mem.str(test)
			if err != nil {
				return err
			}
			if err := x.rec.Record(s.Line(), "Evaluates while-condition which is "+text, x.scope); err != nil {
				return err
			}
			if !Truthy(test) {
				return nil
			}
			if err := x.execBlock(s.Body); err != nil {
				return err
			}
		}

	case *ExprStmt:
		return x.execExprStmt(s)

	case *UnsupportedStmt:
		return unsupportedf("Statement type '%s' not supported", s.Kind)
	}
	return unsupportedf("Statement type '%T' not supported", s)
}

func (x *executor) execFor(s *For) error {
	iterable, err := evaluate(s.Iter, x.scope)
	if err != nil {
		return err
	}
	if err := x.rec.Record(s.Line(), "Starts for-loop", x.scope); err != nil {
		return err
	}
	step := func(item Value) error {
		text, err := x.mem.str(item)
		if err != nil {
			return err
		}
		x.scope.Set(s.Var, item)
		if err := x.rec.Record(s.Line(), fmt.Sprintf("Loop variable '%s' is now %s", s.Var, text), x.scope); err != nil {
			return err
		}
		return x.execBlock(s.Body)
	}

	switch it := iterable.(type) {
	case Range:
		n := it.Len()
		for i := int64(0); i < n; i++ {
			if err := step(it.At(i)); err != nil {
				return err
			}
		}
	case *List:
		// the body may grow or shrink the list, as in Python
		for i := 0; i < len(it.Items); i++ {
			if err := step(it.Items[i]); err != nil {
				return err
			}
		}
	case *Dict:
		for _, k := range it.Keys() {
			if err := step(k); err != nil {
				return err
			}
		}
	case Str:
		for _, r := range string(it) {
			if err := step(Str(string(r))); err != nil {
				return err
			}
		}
	default:
		return unsupportedf("'%s' object is not iterable", iterable.TypeName())
	}
	return nil
}
