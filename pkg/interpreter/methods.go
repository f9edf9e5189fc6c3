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

// methodFunc applies a mutating method to its receiver and returns the
// message of the record it produces. Growth of the receiver is charged to mem.
type methodFunc func(recv Value, name string, args []Value, mem *Budget) (string, error)

var listMethods = map[string]methodFunc{
	"append": listAppend,
	"pop":    listPop,
}

var dictMethods = map[string]methodFunc{
	"update": dictUpdate,
	"get":    dictGet,
	"pop":    dictPop,
}

// execExprStmt runs receiver.method(args) calls on lists and dicts. Any
// other expression statement is skipped without a record unless the
// executor runs in strict mode.
func (x *executor) execExprStmt(s *ExprStmt) error {
	call, ok := s.X.(*Call)
	if !ok || call.Kind != CallMethod {
		return x.skip(s)
	}
	recv, ok := x.scope.Get(call.Receiver)
	if !ok {
		if x.strict {
			return undefined(call.Receiver)
		}
		return nil
	}
	args, err := evaluateAll(call.Args, x.scope)
	if err != nil {
		return err
	}

	var table map[string]methodFunc
	switch recv.(type) {
	case *List:
		table = listMethods
	case *Dict:
		table = dictMethods
	}
	method, ok := table[call.Method]
	if !ok {
		if x.strict {
			return unsupportedf("Method '%s.%s' not supported", recv.TypeName(), call.Method)
		}
		return nil
	}
	msg, err := method(recv, call.Receiver, args, x.mem)
	if err != nil {
		return err
	}
	return x.rec.Record(s.Line(), msg, x.scope)
}

func (x *executor) skip(s *ExprStmt) error {
	if !x.strict {
		return nil
	}
	if _, err := evaluate(s.X, x.scope); err != nil {
		return err
	}
	return unsupportedf("Expression statement of type '%s' not supported", exprKind(s.X))
}

func arity(method string, args []Value, lo, hi int) error {
	if len(args) >= lo && len(args) <= hi {
		return nil
	}
	switch {
	case lo == hi:
		return unsupportedf("%s() takes exactly %d argument(s) (%d given)", method, lo, len(args))
	case len(args) < lo:
		return unsupportedf("%s() expected at least %d argument(s), got %d", method, lo, len(args))
	}
	return unsupportedf("%s() expected at most %d argument(s), got %d", method, hi, len(args))
}

func listAppend(recv Value, name string, args []Value, mem *Budget) (string, error) {
	if err := arity("list.append", args, 1, 1); err != nil {
		return "", err
	}
	if err := mem.Charge(1); err != nil {
		return "", err
	}
	l := recv.(*List)
	l.Items = append(l.Items, args[0])
	text, err := mem.str(args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Appended %s to list '%s'", text, name), nil
}

func listPop(recv Value, name string, args []Value, mem *Budget) (string, error) {
	if err := arity("list.pop", args, 0, 1); err != nil {
		return "", err
	}
	l := recv.(*List)
	if len(l.Items) == 0 {
		return "", unsupportedf("pop from empty list")
	}
	i := int64(len(l.Items) - 1)
	if len(args) == 1 {
		n, ok := asIndex(args[0])
		if !ok {
			return "", unsupportedf("'%s' object cannot be interpreted as an integer", args[0].TypeName())
		}
		if n < 0 {
			n += int64(len(l.Items))
		}
		if n < 0 || n >= int64(len(l.Items)) {
			return "", unsupportedf("pop index out of range")
		}
		i = n
	}
	v := l.Items[i]
	l.Items = append(l.Items[:i], l.Items[i+1:]...)
	text, err := mem.repr(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Pops %s from list '%s'", text, name), nil
}

func dictUpdate(recv Value, name string, args []Value, mem *Budget) (string, error) {
	if err := arity("dict.update", args, 1, 1); err != nil {
		return "", err
	}
	other, ok := args[0].(*Dict)
	if !ok {
		return "", unsupportedf("dict.update() argument must be a dict, not '%s'", args[0].TypeName())
	}
	if err := mem.Charge(int64(2 * other.Len())); err != nil {
		return "", err
	}
	recv.(*Dict).Update(other)
	text, err := mem.str(other)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated dictionary '%s' with %s", name, text), nil
}

func dictGet(recv Value, name string, args []Value, mem *Budget) (string, error) {
	if err := arity("dict.get", args, 1, 2); err != nil {
		return "", err
	}
	v, found, err := recv.(*Dict).Get(args[0])
	if err != nil {
		return "", err
	}
	if !found {
		v = None
		if len(args) == 2 {
			v = args[1]
		}
	}
	text, err := mem.repr(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Gets %s from dictionary '%s'", text, name), nil
}

func dictPop(recv Value, name string, args []Value, mem *Budget) (string, error) {
	if err := arity("dict.pop", args, 1, 2); err != nil {
		return "", err
	}
	_, found, err := recv.(*Dict).Delete(args[0])
	if err != nil {
		return "", err
	}
	if !found && len(args) == 1 {
		return "", unsupportedf("KeyError: %s", Repr(args[0]))
	}
	return fmt.Sprintf("Pops key %s from dict '%s'", Repr(args[0]), name), nil
}
