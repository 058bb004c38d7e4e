package jsontree

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Kind is the JSON variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable JSON value. The zero Value is null.
//
// Numbers keep their literal text so that integer/float classification and
// out-of-range integers can be decided by the consumer.
type Value struct {
	kind    Kind
	b       bool
	s       string
	items   []Value
	members []Member
}

// Member is one object entry.
type Member struct {
	Key   string
	Value Value
}

func Null() Value                { return Value{} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Array(items ...Value) Value { return Value{kind: KindArray, items: items} }

// Number wraps a JSON number literal. The literal is not validated.
func Number(lit string) Value { return Value{kind: KindNumber, s: lit} }

// Int returns the number value for i.
func Int(i int64) Value { return Number(strconv.FormatInt(i, 10)) }

// Float returns the number value for f. Whole values keep a ".0" suffix so
// the value reads back as a float. NaN and infinities produce a literal that
// Marshal rejects.
func Float(f float64) Value { return Number(formatFloat(f)) }

// Object builds an object from members. Later duplicates replace earlier
// ones in place, matching Parse.
func Object(members ...Member) Value {
	out := make([]Member, 0, len(members))
	idx := make(map[string]int, len(members))
	for _, m := range members {
		if i, ok := idx[m.Key]; ok {
			out[i].Value = m.Value
			continue
		}
		idx[m.Key] = len(out)
		out = append(out, m)
	}
	return Value{kind: KindObject, members: out}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload (false for other kinds).
func (v Value) AsBool() bool { return v.b }

// AsString returns the string payload ("" for other kinds).
func (v Value) AsString() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// Literal returns the number literal ("" for other kinds).
func (v Value) Literal() string {
	if v.kind != KindNumber {
		return ""
	}
	return v.s
}

// Items returns array elements. The slice must not be modified.
func (v Value) Items() []Value { return v.items }

// Members returns object entries in order. The slice must not be modified.
func (v Value) Members() []Member { return v.members }

// Len is the element count of arrays and objects, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.members)
	default:
		return 0
	}
}

// Lookup returns the member value for key.
func (v Value) Lookup(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// IsIntegerLiteral reports whether a number was written without a fraction
// or exponent.
func (v Value) IsIntegerLiteral() bool {
	return v.kind == KindNumber && v.s != "" && !strings.ContainsAny(v.s, ".eE")
}

// Int64 returns the integer when the literal is an integer that fits int64.
func (v Value) Int64() (int64, bool) {
	if !v.IsIntegerLiteral() {
		return 0, false
	}
	i, err := strconv.ParseInt(v.s, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Float64 returns the nearest float64 for any number literal.
func (v Value) Float64() (float64, error) {
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		// ParseFloat returns ±Inf with ErrRange for huge magnitudes.
		if errors.Is(err, strconv.ErrRange) {
			return f, nil
		}
		return 0, err
	}
	return f, nil
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Equal reports structural equality. Object member order is ignored;
// numbers compare by integer value when both are integer literals and by
// float64 value otherwise.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindNumber:
		return numbersEqual(a, b)
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.members) != len(b.members) {
			return false
		}
		for _, m := range a.members {
			other, ok := b.Lookup(m.Key)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numbersEqual(a, b Value) bool {
	if a.s == b.s {
		return true
	}
	if a.IsIntegerLiteral() != b.IsIntegerLiteral() {
		return false
	}
	if a.IsIntegerLiteral() {
		ai, aok := a.Int64()
		bi, bok := b.Int64()
		if aok && bok {
			return ai == bi
		}
		if aok != bok {
			return false
		}
	}
	af, aerr := a.Float64()
	bf, berr := b.Float64()
	return aerr == nil && berr == nil && af == bf
}
