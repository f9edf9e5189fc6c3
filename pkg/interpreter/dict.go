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
	"fmt"
	"math"
)

// Dict is a mutable mapping. Iteration and output follow insertion order.
// Keys must be hashable (int, float, str, bool or None); numerically equal
// keys such as 1, 1.0 and True address the same entry.
type Dict struct {
	order   []hashKey
	entries map[hashKey]dictEntry
}

type dictEntry struct {
	key   Value
	value Value
}

type hashKey struct {
	kind byte
	i    int64
	f    float64
	s    string
}

// NewDict returns an empty dictionary.
func NewDict() *Dict {
	return &Dict{entries: make(map[hashKey]dictEntry)}
}

func keyOf(v Value) (hashKey, error) {
	switch v := v.(type) {
	case Int:
		return hashKey{kind: 'i', i: int64(v)}, nil
	case Bool:
		if v {
			return hashKey{kind: 'i', i: 1}, nil
		}
		return hashKey{kind: 'i'}, nil
	case Float:
		f := float64(v)
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return hashKey{kind: 'i', i: int64(f)}, nil
		}
		return hashKey{kind: 'f', f: f}, nil
	case Str:
		return hashKey{kind: 's', s: string(v)}, nil
	case NoneValue:
		return hashKey{kind: 'n'}, nil
	}
	return hashKey{}, unsupportedf("unhashable type: '%s'", v.TypeName())
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.order)
}

// Get returns the value stored under key.
func (d *Dict) Get(key Value) (Value, bool, error) {
	k, err := keyOf(key)
	if err != nil {
		return nil, false, err
	}
	e, ok := d.entries[k]
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key. An existing entry keeps its original key and
// position.
func (d *Dict) Set(key, value Value) error {
	k, err := keyOf(key)
	if err != nil {
		return err
	}
	if e, ok := d.entries[k]; ok {
		e.value = value
		d.entries[k] = e
		return nil
	}
	d.order = append(d.order, k)
	d.entries[k] = dictEntry{key: key, value: value}
	return nil
}

// Delete removes key and returns the value it held.
func (d *Dict) Delete(key Value) (Value, bool, error) {
	k, err := keyOf(key)
	if err != nil {
		return nil, false, err
	}
	e, ok := d.entries[k]
	if !ok {
		return nil, false, nil
	}
	delete(d.entries, k)
	for i, hk := range d.order {
		if hk == k {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return e.value, true, nil
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Value {
	keys := make([]Value, 0, len(d.order))
	for _, k := range d.order {
		keys = append(keys, d.entries[k].key)
	}
	return keys
}

// Update copies every entry of other into d.
func (d *Dict) Update(other *Dict) {
	// other may be d itself
	for _, k := range append([]hashKey(nil), other.order...) {
		e := other.entries[k]
		if err := d.Set(e.key, e.value); err != nil {
			panic(fmt.Sprintf("interpreter: stored key became unhashable: %v", err))
		}
	}
}
