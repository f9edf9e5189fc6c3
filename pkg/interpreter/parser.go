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
	"errors"
	"fmt"
	"math/big"
	"strings"

	"go.starlark.net/syntax"
)

const sourceName = "<input>"

// Parse turns source text into a Program. Malformed text and nesting deeper
// than the configured maximum fail with a ParseError. Well-formed constructs
// outside the supported subset are kept as Unsupported nodes and fail only
// when they are reached at run time.
func Parse(source string, opts ...Option) (*Program, error) {
	o := newOptions(opts)
	return parse(source, o.maxDepth)
}

func parse(source string, maxDepth int) (*Program, error) {
	f, err := syntax.Parse(sourceName, source, 0)
	if err != nil {
		var serr syntax.Error
		if errors.As(err, &serr) {
			return nil, parseErrorf(int(serr.Pos.Line), "%s (line %d)", serr.Msg, serr.Pos.Line)
		}
		return nil, parseErrorf(0, "%v", err)
	}
	c := converter{maxDepth: maxDepth}
	body, err := c.block(f.Stmts, 0)
	if err != nil {
		return nil, err
	}
	return &Program{Body: body}, nil
}

type converter struct {
	maxDepth int
}

func lineOf(n syntax.Node) Pos {
	start, _ := n.Span()
	return Pos(start.Line)
}

func (c *converter) enter(n syntax.Node, depth int) error {
	if c.maxDepth > 0 && depth > c.maxDepth {
		line := lineOf(n)
		return parseErrorf(int(line), "too many nested expressions or blocks (maximum depth is %d) (line %d)", c.maxDepth, line)
	}
	return nil
}

func (c *converter) block(stmts []syntax.Stmt, depth int) ([]Stmt, error) {
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		if b, ok := s.(*syntax.BranchStmt); ok && b.Token == syntax.PASS {
			continue
		}
		st, err := c.stmt(s, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (c *converter) stmt(s syntax.Stmt, depth int) (Stmt, error) {
	if err := c.enter(s, depth); err != nil {
		return nil, err
	}
	switch s := s.(type) {
	case *syntax.AssignStmt:
		return c.assign(s, depth)

	case *syntax.IfStmt:
		test, err := c.expr(s.Cond, depth+1)
		if err != nil {
			return nil, err
		}
		then, err := c.block(s.True, depth)
		if err != nil {
			return nil, err
		}
		var els []Stmt
		if len(s.False) > 0 {
			if els, err = c.block(s.False, depth); err != nil {
				return nil, err
			}
		}
		return &If{Pos: Pos(s.If.Line), Test: test, Then: then, Else: els}, nil

	case *syntax.ForStmt:
		id, ok := s.Vars.(*syntax.Ident)
		if !ok {
			return &UnsupportedStmt{Pos: Pos(s.For.Line), Kind: "For with a tuple target"}, nil
		}
		if isReserved(id.Name) {
			return nil, parseErrorf(int(s.For.Line), "cannot assign to %s (line %d)", id.Name, s.For.Line)
		}
		iter, err := c.expr(s.X, depth+1)
		if err != nil {
			return nil, err
		}
		body, err := c.block(s.Body, depth)
		if err != nil {
			return nil, err
		}
		return &For{Pos: Pos(s.For.Line), Var: id.Name, Iter: iter, Body: body}, nil

	case *syntax.WhileStmt:
		test, err := c.expr(s.Cond, depth+1)
		if err != nil {
			return nil, err
		}
		body, err := c.block(s.Body, depth)
		if err != nil {
			return nil, err
		}
		return &While{Pos: Pos(s.While.Line), Test: test, Body: body}, nil

	case *syntax.ExprStmt:
		x, err := c.expr(s.X, depth+1)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Pos: lineOf(s), X: x}, nil

	case *syntax.DefStmt:
		return &UnsupportedStmt{Pos: Pos(s.Def.Line), Kind: "FunctionDef"}, nil
	case *syntax.ReturnStmt:
		return &UnsupportedStmt{Pos: Pos(s.Return.Line), Kind: "Return"}, nil
	case *syntax.LoadStmt:
		return &UnsupportedStmt{Pos: Pos(s.Load.Line), Kind: "Load"}, nil
	case *syntax.BranchStmt:
		kind := "Break"
		if s.Token == syntax.CONTINUE {
			kind = "Continue"
		}
		return &UnsupportedStmt{Pos: Pos(s.TokenPos.Line), Kind: kind}, nil
	}
	return &UnsupportedStmt{Pos: lineOf(s), Kind: strings.TrimPrefix(fmt.Sprintf("%T", s), "*syntax.")}, nil
}

var augmentedOps = map[syntax.Token]syntax.Token{
	syntax.PLUS_EQ:       syntax.PLUS,
	syntax.MINUS_EQ:      syntax.MINUS,
	syntax.STAR_EQ:       syntax.STAR,
	syntax.SLASH_EQ:      syntax.SLASH,
	syntax.SLASHSLASH_EQ: syntax.SLASHSLASH,
	syntax.PERCENT_EQ:    syntax.PERCENT,
	syntax.AMP_EQ:        syntax.AMP,
	syntax.PIPE_EQ:       syntax.PIPE,
	syntax.CIRCUMFLEX_EQ: syntax.CIRCUMFLEX,
	syntax.LTLT_EQ:       syntax.LTLT,
	syntax.GTGT_EQ:       syntax.GTGT,
}

func (c *converter) assign(s *syntax.AssignStmt, depth int) (Stmt, error) {
	line := lineOf(s)
	var target *syntax.Ident
	switch lhs := s.LHS.(type) {
	case *syntax.Ident:
		target = lhs
	case *syntax.ParenExpr:
		if id, ok := lhs.X.(*syntax.Ident); ok {
			target = id
		}
	}
	if target == nil {
		kind := "Subscript"
		switch s.LHS.(type) {
		case *syntax.DotExpr:
			kind = "Attribute"
		case *syntax.TupleExpr, *syntax.ListExpr, *syntax.ParenExpr:
			kind = "Tuple"
		}
		return &UnsupportedStmt{Pos: line, Kind: "Assign to " + kind}, nil
	}
	if isReserved(target.Name) {
		return nil, parseErrorf(int(line), "cannot assign to %s (line %d)", target.Name, line)
	}

	value, err := c.expr(s.RHS, depth+1)
	if err != nil {
		return nil, err
	}
	if s.Op != syntax.EQ {
		op, ok := augmentedOps[s.Op]
		if !ok {
			return nil, parseErrorf(int(line), "unexpected assignment operator %s (line %d)", s.Op, line)
		}
		value = &BinaryOp{
			Pos:   line,
			Op:    op.String(),
			Left:  &Name{Pos: line, ID: target.Name},
			Right: value,
		}
	}
	return &Assign{Pos: line, Target: target.Name, Value: value}, nil
}

func isReserved(name string) bool {
	return name == "True" || name == "False" || name == "None"
}

func (c *converter) exprs(list []syntax.Expr, depth int) ([]Expr, error) {
	out := make([]Expr, 0, len(list))
	for _, e := range list {
		x, err := c.expr(e, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func (c *converter) expr(e syntax.Expr, depth int) (Expr, error) {
	if err := c.enter(e, depth); err != nil {
		return nil, err
	}
	line := lineOf(e)
	switch e := e.(type) {
	case *syntax.Literal:
		return literal(e, line)

	case *syntax.Ident:
		switch e.Name {
		case "True":
			return &Constant{Pos: line, Value: Bool(true)}, nil
		case "False":
			return &Constant{Pos: line, Value: Bool(false)}, nil
		case "None":
			return &Constant{Pos: line, Value: None}, nil
		}
		return &Name{Pos: line, ID: e.Name}, nil

	case *syntax.ParenExpr:
		return c.expr(e.X, depth+1)

	case *syntax.BinaryExpr:
		switch e.Op {
		case syntax.AND, syntax.OR:
			return &UnsupportedExpr{Pos: line, Kind: "BoolOp"}, nil
		case syntax.EQ:
			return &UnsupportedExpr{Pos: line, Kind: "keyword"}, nil
		}
		left, err := c.expr(e.X, depth+1)
		if err != nil {
			return nil, err
		}
		right, err := c.expr(e.Y, depth+1)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case syntax.EQL, syntax.NEQ, syntax.LT, syntax.LE, syntax.GT, syntax.GE, syntax.IN, syntax.NOT_IN:
			return &Compare{Pos: line, Op: e.Op.String(), Left: left, Right: right}, nil
		}
		return &BinaryOp{Pos: line, Op: e.Op.String(), Left: left, Right: right}, nil

	case *syntax.UnaryExpr:
		if lit, ok := e.X.(*syntax.Literal); ok && (e.Op == syntax.MINUS || e.Op == syntax.PLUS) {
			k, err := literal(lit, line)
			if err != nil {
				return nil, err
			}
			if v, ok := signed(k, e.Op == syntax.MINUS); ok {
				return v, nil
			}
		}
		if e.Op == syntax.STAR || e.Op == syntax.STARSTAR {
			return &UnsupportedExpr{Pos: line, Kind: "Starred"}, nil
		}
		return &UnsupportedExpr{Pos: line, Kind: "UnaryOp"}, nil

	case *syntax.CallExpr:
		return c.call(e, line, depth)

	case *syntax.ListExpr:
		elems, err := c.exprs(e.List, depth+1)
		if err != nil {
			return nil, err
		}
		return &ListLiteral{Pos: line, Elems: elems}, nil

	case *syntax.DictExpr:
		d := &DictLiteral{Pos: line}
		for _, item := range e.List {
			entry, ok := item.(*syntax.DictEntry)
			if !ok {
				return &UnsupportedExpr{Pos: line, Kind: "Dict"}, nil
			}
			k, err := c.expr(entry.Key, depth+1)
			if err != nil {
				return nil, err
			}
			v, err := c.expr(entry.Value, depth+1)
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			d.Values = append(d.Values, v)
		}
		return d, nil

	case *syntax.TupleExpr:
		return &UnsupportedExpr{Pos: line, Kind: "Tuple"}, nil
	case *syntax.IndexExpr:
		return &UnsupportedExpr{Pos: line, Kind: "Subscript"}, nil
	case *syntax.SliceExpr:
		return &UnsupportedExpr{Pos: line, Kind: "Slice"}, nil
	case *syntax.DotExpr:
		return &UnsupportedExpr{Pos: line, Kind: "Attribute"}, nil
	case *syntax.CondExpr:
		return &UnsupportedExpr{Pos: line, Kind: "IfExp"}, nil
	case *syntax.LambdaExpr:
		return &UnsupportedExpr{Pos: line, Kind: "Lambda"}, nil
	case *syntax.Comprehension:
		if e.Curly {
			return &UnsupportedExpr{Pos: line, Kind: "DictComp"}, nil
		}
		return &UnsupportedExpr{Pos: line, Kind: "ListComp"}, nil
	}
	return &UnsupportedExpr{Pos: line, Kind: strings.TrimPrefix(fmt.Sprintf("%T", e), "*syntax.")}, nil
}

func (c *converter) call(e *syntax.CallExpr, line Pos, depth int) (Expr, error) {
	call := &Call{Pos: line, Kind: CallOther, Callee: calleeName(e.Fn)}
	switch fn := e.Fn.(type) {
	case *syntax.Ident:
		if fn.Name == "range" {
			call.Kind = CallRange
		}
	case *syntax.DotExpr:
		if recv, ok := fn.X.(*syntax.Ident); ok {
			call.Kind = CallMethod
			call.Receiver = recv.Name
			call.Method = fn.Name.Name
		}
	}
	args, err := c.exprs(e.Args, depth+1)
	if err != nil {
		return nil, err
	}
	call.Args = args
	return call, nil
}

func calleeName(fn syntax.Expr) string {
	switch fn := fn.(type) {
	case *syntax.Ident:
		return fn.Name
	case *syntax.DotExpr:
		return calleeName(fn.X) + "." + fn.Name.Name
	}
	return "N/A"
}

func literal(lit *syntax.Literal, line Pos) (Expr, error) {
	switch v := lit.Value.(type) {
	case int64:
		return &Constant{Pos: line, Value: Int(v)}, nil
	case *big.Int:
		return nil, parseErrorf(int(line), "integer literal %s is out of range (line %d)", lit.Raw, line)
	case float64:
		return &Constant{Pos: line, Value: Float(v)}, nil
	case string:
		if lit.Token == syntax.BYTES {
			return &UnsupportedExpr{Pos: line, Kind: "Bytes"}, nil
		}
		return &Constant{Pos: line, Value: Str(v)}, nil
	}
	return &UnsupportedExpr{Pos: line, Kind: lit.Token.String()}, nil
}

// signed folds a leading sign into a numeric literal.
func signed(e Expr, negative bool) (Expr, bool) {
	k, ok := e.(*Constant)
	if !ok {
		return nil, false
	}
	switch v := k.Value.(type) {
	case Int:
		if negative {
			v = -v
		}
		return &Constant{Pos: k.Pos, Value: v}, true
	case Float:
		if negative {
			v = -v
		}
		return &Constant{Pos: k.Pos, Value: v}, true
	}
	return nil, false
}
