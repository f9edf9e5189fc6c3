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

// DefaultMaxNestingDepth bounds the nesting of blocks and expressions
// accepted by Parse.
const DefaultMaxNestingDepth = 1000

type options struct {
	stepLimit   int
	cellLimit   int64
	maxDepth    int
	strictCalls bool
}

// Option configures a run.
type Option func(*options)

// WithStepLimit sets the maximum number of records a run may emit.
// Non-positive values select DefaultStepLimit.
func WithStepLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.stepLimit = n
		}
	}
}

// WithCellLimit sets the memory budget of a run in cells: container slots
// plus string bytes in cellBytes units, counting values the program builds
// and every snapshot kept in the trace. Non-positive values select
// DefaultCellLimit.
func WithCellLimit(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.cellLimit = n
		}
	}
}

// WithMaxNestingDepth sets the nesting limit enforced while parsing.
// Non-positive values select DefaultMaxNestingDepth.
func WithMaxNestingDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithStrictCalls makes expression statements that are not a supported
// list/dict method call fail with UnsupportedConstructError instead of
// being skipped silently.
func WithStrictCalls(strict bool) Option {
	return func(o *options) {
		o.strictCalls = strict
	}
}

func newOptions(opts []Option) options {
	o := options{
		stepLimit: DefaultStepLimit,
		cellLimit: DefaultCellLimit,
		maxDepth:  DefaultMaxNestingDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Run parses and executes source, returning the complete trace. On failure
// the records emitted so far are dropped and only the error is returned;
// expected failures are *ExecutionError values.
//
// Every call builds its own program, scope and recorder, so concurrent calls
// never share state.
func Run(source string, opts ...Option) (Trace, error) {
	o := newOptions(opts)
	prog, err := parse(source, o.maxDepth)
	if err != nil {
		return nil, err
	}
	return Execute(prog, opts...)
}

// Execute runs an already parsed program. The program is not modified and
// can be executed again.
func Execute(prog *Program, opts ...Option) (Trace, error) {
	o := newOptions(opts)
	mem := NewBudget(o.cellLimit)
	x := &executor{
		scope:  NewScopeWithin(mem),
		rec:    NewRecorderWithin(o.stepLimit, mem),
		mem:    mem,
		strict: o.strictCalls,
	}
	if err := x.execBlock(prog.Body); err != nil {
		return nil, err
	}
	trace := x.rec.Trace()
	if trace == nil {
		trace = Trace{}
	}
	return trace, nil
}
