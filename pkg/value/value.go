// Package value implements the tagged-union runtime value shared by the
// compiler's constant pool and the VM's stack.
package value

import (
	"fmt"
	"strconv"
)

// Kind identifies which alternative of the tagged union a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a nil, bool, number, or string script value. Numbers and
// booleans are inlined; strings are owned immutable byte sequences copied
// out of source lexemes at compile time.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// Nil is the single nil value.
var Nil = Value{kind: KindNil}

// Bool wraps a boolean.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Number wraps a float64.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// String wraps a string. Passing a substring of a scanner lexeme is safe:
// Go strings are immutable, so the value cannot change underneath it.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsString() bool { return v.kind == KindString }

// AsBool returns the boolean payload. Callers must check IsBool first.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the float64 payload. Callers must check IsNumber first.
func (v Value) AsNumber() float64 { return v.num }

// AsString returns the string payload. Callers must check IsString first.
func (v Value) AsString() string { return v.str }

// Equal implements Value equality: same tag and same payload. Two NaN
// numbers compare unequal, matching plain IEEE-754 float comparison.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	default:
		return false
	}
}

// Truthy implements the VM's truthiness rule: nil, false, and the number
// 0.0 are falsey; everything else (including the empty string) is truthy.
// This diverges from canonical Lox, which only treats nil and false as
// falsey.
func Truthy(v Value) bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0
	default:
		return true
	}
}

// String renders the value the way Print displays it: numbers in shortest
// round-trip decimal, booleans as true/false, nil as "nil", strings as
// their raw bytes with no surrounding quotes.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	default:
		return ""
	}
}
