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
	"bytes"
)

// Scope is the single flat environment of a running program. Names keep the
// order in which they were first bound.
type Scope struct {
	names []string
	vars  map[string]Value
	mem   *Budget
}

// NewScope returns an empty scope with no allocation budget.
func NewScope() *Scope {
	return NewScopeWithin(nil)
}

// NewScopeWithin returns an empty scope whose evaluations charge mem.
func NewScopeWithin(mem *Budget) *Scope {
	return &Scope{vars: make(map[string]Value), mem: mem}
}

// Get returns the value bound to name.
func (s *Scope) Get(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Set binds name to v.
func (s *Scope) Set(name string, v Value) {
	if _, ok := s.vars[name]; !ok {
		s.names = append(s.names, name)
	}
	s.vars[name] = v
}

// Len returns the number of bound names.
func (s *Scope) Len() int {
	return len(s.names)
}

// cells measures a snapshot of the scope as it renders, stopping early once
// the count passes ceil.
func (s *Scope) cells(ceil int64) int64 {
	visiting := make(map[any]bool)
	n := int64(len(s.names))
	for _, name := range s.names {
		if n > ceil {
			break
		}
		n += strCells(len(name)) + cellsOf(s.vars[name], visiting, ceil-n)
	}
	return n
}

// Snapshot returns a structural copy of every binding. Later mutation of
// lists or dicts held by the scope does not reach the snapshot.
func (s *Scope) Snapshot() Snapshot {
	memo := make(map[any]Value)
	snap := Snapshot{
		names:  append([]string(nil), s.names...),
		values: make(map[string]Value, len(s.vars)),
	}
	for _, name := range s.names {
		snap.values[name] = copyValue(s.vars[name], memo)
	}
	return snap
}

// Snapshot is an immutable copy of a Scope taken at one instant.
type Snapshot struct {
	names  []string
	values map[string]Value
}

// Names returns the bound names in binding order.
func (s Snapshot) Names() []string {
	return append([]string(nil), s.names...)
}

// Get returns the value bound to name at the time of the snapshot.
func (s Snapshot) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Len returns the number of bindings.
func (s Snapshot) Len() int {
	return len(s.names)
}

// Native returns the snapshot as plain Go values (see toNative).
func (s Snapshot) Native() map[string]any {
	out := make(map[string]any, len(s.names))
	for _, name := range s.names {
		out[name] = toNative(s.values[name], map[any]bool{})
	}
	return out
}

// MarshalJSON encodes the snapshot as an object whose keys follow binding
// order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, s.values[name], map[any]bool{}); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
