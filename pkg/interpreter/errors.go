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
)

// ErrorKind classifies the failures a run can report to its caller.
type ErrorKind int

const (
	// ParseError is reported for source text outside the grammar.
	ParseError ErrorKind = iota + 1
	// UndefinedVariableError is reported when a name is read before it is bound.
	UndefinedVariableError
	// UnsupportedConstructError is reported for constructs, operators and
	// callees the interpreter recognises but does not implement, and for
	// operations that are invalid for their operands.
	UnsupportedConstructError
	// IterationLimitExceededError is reported when a run exhausts its step budget.
	IterationLimitExceededError
)

func (k ErrorKind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case UndefinedVariableError:
		return "UndefinedVariableError"
	case UnsupportedConstructError:
		return "UnsupportedConstructError"
	case IterationLimitExceededError:
		return "IterationLimitExceededError"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ExecutionError is the caller-visible failure of a run.
// Line is the source line involved, or 0 when unknown.
type ExecutionError struct {
	Kind    ErrorKind
	Message string
	Line    int
}

func (e *ExecutionError) Error() string {
	return e.Message
}

// IsKind reports whether err is an *ExecutionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *ExecutionError
	return errors.As(err, &ee) && ee.Kind == kind
}

// AsExecutionError extracts the *ExecutionError wrapped by err, if any.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

func unsupportedf(format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{Kind: UnsupportedConstructError, Message: fmt.Sprintf(format, args...)}
}

func undefined(name string) *ExecutionError {
	return &ExecutionError{Kind: UndefinedVariableError, Message: fmt.Sprintf("name '%s' is not defined", name)}
}

func parseErrorf(line int, format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{Kind: ParseError, Message: fmt.Sprintf(format, args...), Line: line}
}

// atLine stamps line on err when it does not carry one yet.
func atLine(err error, line int) error {
	if ee, ok := AsExecutionError(err); ok && ee.Line == 0 {
		ee.Line = line
	}
	return err
}
