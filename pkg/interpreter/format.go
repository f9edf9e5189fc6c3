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
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Repr renders v the way Python's repr() does.
func Repr(v Value) string {
	var b strings.Builder
	writeRepr(&b, v, map[any]bool{})
	return b.String()
}

// StrOf renders v the way Python's str() does.
func StrOf(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return Repr(v)
}

func writeRepr(b *strings.Builder, v Value, visiting map[any]bool) {
	switch v := v.(type) {
	case Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		b.WriteString(formatFloat(float64(v)))
	case Str:
		b.WriteString(quote(string(v)))
	case Bool:
		if v {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case NoneValue:
		b.WriteString("None")
	case Range:
		b.WriteString(v.String())
	case *List:
		if visiting[v] {
			b.WriteString("[...]")
			return
		}
		visiting[v] = true
		defer delete(visiting, v)
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, item, visiting)
		}
		b.WriteByte(']')
	case *Dict:
		if visiting[v] {
			b.WriteString("{...}")
			return
		}
		visiting[v] = true
		defer delete(visiting, v)
		b.WriteByte('{')
		for i, k := range v.order {
			if i > 0 {
				b.WriteString(", ")
			}
			e := v.entries[k]
			writeRepr(b, e.key, visiting)
			b.WriteString(": ")
			writeRepr(b, e.value, visiting)
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "<%T>", v)
	}
}

func (r Range) String() string {
	if r.Step == 1 {
		return fmt.Sprintf("range(%d, %d)", r.Start, r.Stop)
	}
	return fmt.Sprintf("range(%d, %d, %d)", r.Start, r.Stop, r.Step)
}

// formatFloat follows Python's float repr: shortest round-trip digits,
// positional notation for exponents in [-4, 16) with a trailing ".0" for
// integral values, scientific notation otherwise.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// quote renders s as a Python string literal.
func quote(s string) string {
	q := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteRune(q)
	for _, r := range s {
		switch {
		case r == q || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case !unicode.IsPrint(r) && r != ' ':
			switch {
			case r <= 0xff:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r <= 0xffff:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(q)
	return b.String()
}

// KeyString renders a dict key as a JSON or YAML mapping key.
func KeyString(v Value) string {
	switch v := v.(type) {
	case Str:
		return string(v)
	case Bool:
		if v {
			return "true"
		}
		return "false"
	case NoneValue:
		return "null"
	}
	return Repr(v)
}

func writeJSON(buf *bytes.Buffer, v Value, visiting map[any]bool) error {
	switch v := v.(type) {
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		f := float64(v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return writeJSONString(buf, formatFloat(f))
		}
		buf.WriteString(formatFloat(f))
	case Str:
		return writeJSONString(buf, string(v))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case NoneValue:
		buf.WriteString("null")
	case Range:
		return writeJSONString(buf, v.String())
	case *List:
		if visiting[v] {
			return writeJSONString(buf, "[...]")
		}
		visiting[v] = true
		defer delete(visiting, v)
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item, visiting); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Dict:
		if visiting[v] {
			return writeJSONString(buf, "{...}")
		}
		visiting[v] = true
		defer delete(visiting, v)
		buf.WriteByte('{')
		for i, k := range v.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			e := v.entries[k]
			if err := writeJSONString(buf, KeyString(e.key)); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, e.value, visiting); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("interpreter: cannot encode %T as JSON", v)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// toNative converts v into plain Go values: int64, float64, string, bool,
// nil, []any and map[string]any. Ranges and container cycles become strings.
func toNative(v Value, visiting map[any]bool) any {
	switch v := v.(type) {
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case Str:
		return string(v)
	case Bool:
		return bool(v)
	case NoneValue:
		return nil
	case Range:
		return v.String()
	case *List:
		if visiting[v] {
			return "[...]"
		}
		visiting[v] = true
		defer delete(visiting, v)
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = toNative(item, visiting)
		}
		return out
	case *Dict:
		if visiting[v] {
			return "{...}"
		}
		visiting[v] = true
		defer delete(visiting, v)
		out := make(map[string]any, v.Len())
		for _, k := range v.order {
			e := v.entries[k]
			out[KeyString(e.key)] = toNative(e.value, visiting)
		}
		return out
	}
	return nil
}
