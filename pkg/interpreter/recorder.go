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

// DefaultStepLimit is the step budget of a run unless configured otherwise.
const DefaultStepLimit = 1000

// StepRecord is one observable unit of execution progress.
type StepRecord struct {
	Line    int      `json:"line"`
	Message string   `json:"message"`
	Scope   Snapshot `json:"scope"`
}

// Trace is the ordered sequence of records of one successful run.
type Trace []StepRecord

// Recorder accumulates the records of a single run and enforces its step
// budget. A Recorder belongs to exactly one run.
type Recorder struct {
	limit int
	steps []StepRecord
	mem   *Budget
}

// NewRecorder returns a recorder that accepts at most limit records.
// A non-positive limit selects DefaultStepLimit.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultStepLimit
	}
	return &Recorder{limit: limit}
}

// NewRecorderWithin returns a recorder that also charges every record and
// its snapshot to mem.
func NewRecorderWithin(limit int, mem *Budget) *Recorder {
	r := NewRecorder(limit)
	r.mem = mem
	return r
}

// Record appends a record carrying a snapshot of scope. Once the step or
// memory budget is spent it fails with IterationLimitExceededError and
// appends nothing.
func (r *Recorder) Record(line int, message string, scope *Scope) error {
	if len(r.steps) >= r.limit {
		return &ExecutionError{
			Kind:    IterationLimitExceededError,
			Message: "Exceeded maximum iteration limit",
			Line:    line,
		}
	}
	if err := r.mem.chargeRecord(message, scope); err != nil {
		return atLine(err, line)
	}
	r.steps = append(r.steps, StepRecord{
		Line:    line,
		Message: message,
		Scope:   scope.Snapshot(),
	})
	return nil
}

// Count returns the number of records emitted so far.
func (r *Recorder) Count() int {
	return len(r.steps)
}

// Limit returns the step budget.
func (r *Recorder) Limit() int {
	return r.limit
}

// Trace returns the records emitted so far.
func (r *Recorder) Trace() Trace {
	return Trace(r.steps)
}
