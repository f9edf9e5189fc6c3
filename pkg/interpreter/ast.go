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

// Node is implemented by every syntax tree node.
type Node interface {
	// Line returns the 1-based source line the node originated from.
	Line() int
}

// Expr is a closed set of expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a closed set of statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Pos records the source line of a node.
type Pos int

// Line implements Node.
func (p Pos) Line() int { return int(p) }

// Program is the parsed form of one source text. It is never mutated after
// Parse returns.
type Program struct {
	Body []Stmt
}

// CallKind tells which callee a Call node targets.
type CallKind int

const (
	// CallRange is range(...).
	CallRange CallKind = iota
	// CallMethod is receiver.method(...) with a plain name as receiver.
	CallMethod
	// CallOther is any other callee.
	CallOther
)

type (
	// Constant is an immutable literal: int, float, str, bool or None.
	Constant struct {
		Pos
		Value Value
	}

	// Name is a variable reference.
	Name struct {
		Pos
		ID string
	}

	// BinaryOp is an arithmetic operation.
	BinaryOp struct {
		Pos
		Op    string
		Left  Expr
		Right Expr
	}

	// Compare is a single comparison.
	Compare struct {
		Pos
		Op    string
		Left  Expr
		Right Expr
	}

	// Call is a function or method call.
	Call struct {
		Pos
		Kind     CallKind
		Callee   string // display name of the callee
		Receiver string // CallMethod only
		Method   string // CallMethod only
		Args     []Expr
	}

	// ListLiteral builds a new list on every evaluation.
	ListLiteral struct {
		Pos
		Elems []Expr
	}

	// DictLiteral builds a new dict on every evaluation.
	DictLiteral struct {
		Pos
		Keys   []Expr
		Values []Expr
	}

	// UnsupportedExpr stands for a well-formed expression outside the subset.
	UnsupportedExpr struct {
		Pos
		Kind string
	}
)

type (
	// Assign binds the value of an expression to a name.
	Assign struct {
		Pos
		Target string
		Value  Expr
	}

	// If runs Then when Test is truthy, Else otherwise. An elif chain is an
	// If nested as the only statement of Else.
	If struct {
		Pos
		Test Expr
		Then []Stmt
		Else []Stmt
	}

	// For binds Var to every element of Iter and runs Body.
	For struct {
		Pos
		Var  string
		Iter Expr
		Body []Stmt
	}

	// While runs Body as long as Test is truthy.
	While struct {
		Pos
		Test Expr
		Body []Stmt
	}

	// ExprStmt evaluates an expression for its side effects.
	ExprStmt struct {
		Pos
		X Expr
	}

	// UnsupportedStmt stands for a well-formed statement outside the subset.
	UnsupportedStmt struct {
		Pos
		Kind string
	}
)

func (*Constant) exprNode()        {}
func (*Name) exprNode()            {}
func (*BinaryOp) exprNode()        {}
func (*Compare) exprNode()         {}
func (*Call) exprNode()            {}
func (*ListLiteral) exprNode()     {}
func (*DictLiteral) exprNode()     {}
func (*UnsupportedExpr) exprNode() {}

func (*Assign) stmtNode()          {}
func (*If) stmtNode()              {}
func (*For) stmtNode()             {}
func (*While) stmtNode()           {}
func (*ExprStmt) stmtNode()        {}
func (*UnsupportedStmt) stmtNode() {}

// exprKind names the node kind the way error messages report it.
func exprKind(e Expr) string {
	switch e := e.(type) {
	case *Constant:
		return "Constant"
	case *Name:
		return "Name"
	case *BinaryOp:
		return "BinOp"
	case *Compare:
		return "Compare"
	case *Call:
		return "Call"
	case *ListLiteral:
		return "List"
	case *DictLiteral:
		return "Dict"
	case *UnsupportedExpr:
		return e.Kind
	}
	return "Unknown"
}
