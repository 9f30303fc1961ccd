// Package value implements A0Value, the universal runtime value of the A0
// language: a tagged variant of null, bool, number, string, list, and
// record, plus deep equality and truthiness (spec.md §3).
package value

import (
	"fmt"
	"math"
)

// Kind tags the variant a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	List
	Record
)

// Field is one ordered key/value pair of a Record value. Insertion order is
// preserved for formatting; equality is order-independent.
type Field struct {
	Key   string
	Value Value
}

// Value is the universal A0 runtime value. The zero Value is Null.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	list   []Value
	record []Field
}

func NewNull() Value            { return Value{kind: Null} }
func NewBool(b bool) Value      { return Value{kind: Bool, b: b} }
func NewNumber(n float64) Value { return Value{kind: Number, n: n} }
func NewString(s string) Value  { return Value{kind: String, s: s} }

// NewList builds an immutable list value from already-evaluated elements.
// The caller's slice is copied so the result is never aliased.
func NewList(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: List, list: cp}
}

// NewRecord builds an immutable record value from already-evaluated
// fields, in insertion order. If the same key appears more than once, the
// later field wins but keeps the position of its first occurrence, matching
// the evaluator's spread-merge semantics (spec.md §4.7 "later keys
// override earlier ones").
func NewRecord(fields []Field) Value {
	index := make(map[string]int, len(fields))
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if i, ok := index[f.Key]; ok {
			out[i] = f
			continue
		}
		index[f.Key] = len(out)
		out = append(out, f)
	}
	return Value{kind: Record, record: out}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool   { return v.kind == Null }
func (v Value) IsBool() bool   { return v.kind == Bool }
func (v Value) IsNumber() bool { return v.kind == Number }
func (v Value) IsString() bool { return v.kind == String }
func (v Value) IsList() bool   { return v.kind == List }
func (v Value) IsRecord() bool { return v.kind == Record }

func (v Value) Bool() bool      { return v.b }
func (v Value) Number() float64 { return v.n }
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "null"
	case Bool:
		return fmt.Sprintf("%v", v.b)
	case Number:
		return formatNumber(v.n)
	case String:
		return v.s
	case List:
		return fmt.Sprintf("<list[%d]>", len(v.list))
	case Record:
		return fmt.Sprintf("<record[%d]>", len(v.record))
	}
	return "<invalid>"
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

// Elements returns the list's elements. The caller must not mutate the
// returned slice.
func (v Value) Elements() []Value { return v.list }

// Fields returns the record's fields in insertion order. The caller must
// not mutate the returned slice.
func (v Value) Fields() []Field { return v.record }

// Get returns the value bound to key in a record, and whether it was
// present. Looking up a missing key returns (Null, false).
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.record {
		if f.Key == key {
			return f.Value, true
		}
	}
	return NewNull(), false
}

// Has reports whether a record has the given key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// WithField returns a new record with key set to val, appended if new or
// replaced in place if it already exists (order preserved).
func (v Value) WithField(key string, val Value) Value {
	out := make([]Field, len(v.record))
	copy(out, v.record)
	for i, f := range out {
		if f.Key == key {
			out[i].Value = val
			return Value{kind: Record, record: out}
		}
	}
	out = append(out, Field{Key: key, Value: val})
	return Value{kind: Record, record: out}
}

// Truthy implements A0's truthiness rule: false, null, 0, "" are falsy;
// empty record/list, NaN, and everything else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Bool:
		return v.b
	case Number:
		return v.n != 0
	case String:
		return v.s != ""
	default:
		return true
	}
}

// DeepEqual implements A0's canonical comparison: structural, order
// independent for records, identity for scalars.
func DeepEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.n == b.n
	case String:
		return a.s == b.s
	case List:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !DeepEqual(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case Record:
		if len(a.record) != len(b.record) {
			return false
		}
		for _, fa := range a.record {
			fb, ok := b.Get(fa.Key)
			if !ok || !DeepEqual(fa.Value, fb) {
				return false
			}
		}
		return true
	}
	return false
}

// TypeName returns the A0 type name used in diagnostics ("number",
// "string", "list", "record", "bool", "null").
func (v Value) TypeName() string {
	switch v.kind {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Record:
		return "record"
	}
	return "unknown"
}
