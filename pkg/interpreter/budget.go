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

// DefaultCellLimit is the allocation budget of a run unless configured
// otherwise. One cell is a container slot or cellBytes bytes of string.
const DefaultCellLimit = 1 << 23

const cellBytes = 16

// Budget meters the memory a single run allocates, counted in cells. It
// covers the values a program builds and the rendered size of the snapshots
// its trace keeps.
// A nil *Budget is unlimited.
type Budget struct {
	limit int64
	used  int64
}

// NewBudget returns a budget of limit cells. A non-positive limit selects
// DefaultCellLimit.
func NewBudget(limit int64) *Budget {
	if limit <= 0 {
		limit = DefaultCellLimit
	}
	return &Budget{limit: limit}
}

// Charge spends n cells. When that would exceed the limit nothing is spent
// and it fails with IterationLimitExceededError.
func (b *Budget) Charge(n int64) error {
	if b == nil || n <= 0 {
		return nil
	}
	if n > b.left() {
		return errMemoryLimit()
	}
	b.used += n
	return nil
}

func errMemoryLimit() *ExecutionError {
	return &ExecutionError{
		Kind:    IterationLimitExceededError,
		Message: "Exceeded maximum memory limit",
	}
}

func (b *Budget) left() int64 {
	return b.limit - b.used
}

// chargeRecord spends what a record keeps: its message and the rendered
// size of every binding in scope.
func (b *Budget) chargeRecord(message string, scope *Scope) error {
	if b == nil {
		return nil
	}
	return b.Charge(strCells(len(message)) + scope.cells(b.left()))
}

// fits fails when rendering v would take more than what is left.
func (b *Budget) fits(v Value) error {
	if b == nil {
		return nil
	}
	if left := b.left(); cellsOf(v, map[any]bool{}, left) > left {
		return errMemoryLimit()
	}
	return nil
}

// repr is Repr guarded by fits.
func (b *Budget) repr(v Value) (string, error) {
	if err := b.fits(v); err != nil {
		return "", err
	}
	return Repr(v), nil
}

// str is StrOf guarded by fits.
func (b *Budget) str(v Value) (string, error) {
	if err := b.fits(v); err != nil {
		return "", err
	}
	return StrOf(v), nil
}

// Used returns the cells spent so far.
func (b *Budget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used
}

// Limit returns the size of the budget.
func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}

func strCells(n int) int64 {
	return (int64(n) + cellBytes - 1) / cellBytes
}

// cellsOf measures v as it renders: a container reached twice is counted
// twice, a cycle once. It stops early once the count passes ceil.
func cellsOf(v Value, visiting map[any]bool, ceil int64) int64 {
	switch v := v.(type) {
	case Str:
		return strCells(len(v))
	case *List:
		if visiting[v] {
			return 1
		}
		visiting[v] = true
		defer delete(visiting, v)
		n := int64(len(v.Items))
		for _, item := range v.Items {
			if n > ceil {
				break
			}
			n += cellsOf(item, visiting, ceil-n)
		}
		return n
	case *Dict:
		if visiting[v] {
			return 1
		}
		visiting[v] = true
		defer delete(visiting, v)
		n := int64(2 * len(v.order))
		for _, k := range v.order {
			if n > ceil {
				break
			}
			e := v.entries[k]
			n += cellsOf(e.key, visiting, ceil-n) + cellsOf(e.value, visiting, ceil-n)
		}
		return n
	}
	return 0
}
