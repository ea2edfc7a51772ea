// Package value implements the in-memory model of KerboScript's
// primitive operand values: the tagged union shared by KO data sections
// and the KSM argument section.
package value

import (
	"fmt"

	"github.com/kerbalko/ksmld/internal/codec"
)

// Kind is the one-byte tag identifying a Value's shape, shared
// bit-for-bit between KO and KSM.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Byte
	Int16
	Int32
	Float
	Double
	String
	ArgMarker
	ScalarInt
	ScalarDouble
	BoolValue
	StringValue
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case Byte:
		return "Byte"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case String:
		return "String"
	case ArgMarker:
		return "ArgMarker"
	case ScalarInt:
		return "ScalarInt"
	case ScalarDouble:
		return "ScalarDouble"
	case BoolValue:
		return "BoolValue"
	case StringValue:
		return "StringValue"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is one primitive operand constant. Only one of the numeric
// fields is meaningful, selected by Kind; Str holds the payload for the
// two string-shaped kinds.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	Str  string
}

func Nil() Value               { return Value{Kind: Null} }
func Marker() Value             { return Value{Kind: ArgMarker} }
func NewBool(b bool) Value      { return Value{Kind: Bool, I: boolToInt(b)} }
func NewByte(b uint8) Value     { return Value{Kind: Byte, I: int64(b)} }
func NewInt16(v int16) Value    { return Value{Kind: Int16, I: int64(v)} }
func NewInt32(v int32) Value    { return Value{Kind: Int32, I: int64(v)} }
func NewFloat(v float32) Value  { return Value{Kind: Float, F: float64(v)} }
func NewDouble(v float64) Value { return Value{Kind: Double, F: v} }
func NewString(s string) Value  { return Value{Kind: String, Str: s} }
func NewScalarInt(v int32) Value {
	return Value{Kind: ScalarInt, I: int64(v)}
}
func NewScalarDouble(v float64) Value { return Value{Kind: ScalarDouble, F: v} }
func NewBoolValue(b bool) Value       { return Value{Kind: BoolValue, I: boolToInt(b)} }
func NewStringValue(s string) Value   { return Value{Kind: StringValue, Str: s} }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Equal reports whether two values have the same kind and the same
// semantic payload; this is the relation the KSM argument section
// deduplicates under.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Null, ArgMarker:
		return true
	case Float, Double, ScalarDouble:
		return v.F == o.F
	case String, StringValue:
		return v.Str == o.Str
	default:
		return v.I == o.I
	}
}

// DedupKey returns a value usable as a Go map key with the same
// equivalence classes as Equal.
func (v Value) DedupKey() any {
	switch v.Kind {
	case Null, ArgMarker:
		return v.Kind
	case Float, Double, ScalarDouble:
		return struct {
			K Kind
			F float64
		}{v.Kind, v.F}
	case String, StringValue:
		return struct {
			K Kind
			S string
		}{v.Kind, v.Str}
	default:
		return struct {
			K Kind
			I int64
		}{v.Kind, v.I}
	}
}

// Width returns the fixed number of payload bytes a non-string kind
// occupies. String kinds are variable and reported via EncodedLen
// instead.
func Width(k Kind) (int, bool) {
	switch k {
	case Null, ArgMarker:
		return 0, true
	case Bool, Byte, BoolValue:
		return 1, true
	case Int16:
		return 2, true
	case Int32, Float, ScalarInt:
		return 4, true
	case Double, ScalarDouble:
		return 8, true
	default:
		return 0, false
	}
}

// EncodedLen is the total on-disk size of the tag byte plus payload.
func (v Value) EncodedLen() int {
	if n, ok := Width(v.Kind); ok {
		return 1 + n
	}
	// String, StringValue: one length byte plus the raw bytes.
	return 1 + 1 + len(v.Str)
}

// Encode appends the tag byte and payload to w, in the shared
// KO/KSM on-disk representation.
func (v Value) Encode(w *codec.Writer) error {
	w.U8(uint8(v.Kind))
	switch v.Kind {
	case Null, ArgMarker:
	case Bool, Byte, BoolValue:
		w.U8(uint8(v.I))
	case Int16:
		w.I16(int16(v.I))
	case Int32, ScalarInt:
		w.I32(int32(v.I))
	case Float:
		w.F32(float32(v.F))
	case Double, ScalarDouble:
		w.F64(v.F)
	case String, StringValue:
		return w.LenPrefixedString(v.Str)
	default:
		return fmt.Errorf("value: unknown kind %d", uint8(v.Kind))
	}
	return nil
}

// Decode reads one tagged Value from r.
func Decode(r *codec.Reader) (Value, error) {
	tag, err := r.U8()
	if err != nil {
		return Value{}, err
	}
	k := Kind(tag)
	switch k {
	case Null:
		return Nil(), nil
	case ArgMarker:
		return Marker(), nil
	case Bool:
		b, err := r.U8()
		return Value{Kind: Bool, I: int64(b)}, err
	case Byte:
		b, err := r.U8()
		return Value{Kind: Byte, I: int64(b)}, err
	case BoolValue:
		b, err := r.U8()
		return Value{Kind: BoolValue, I: int64(b)}, err
	case Int16:
		v, err := r.I16()
		return Value{Kind: Int16, I: int64(v)}, err
	case Int32:
		v, err := r.I32()
		return Value{Kind: Int32, I: int64(v)}, err
	case ScalarInt:
		v, err := r.I32()
		return Value{Kind: ScalarInt, I: int64(v)}, err
	case Float:
		v, err := r.F32()
		return Value{Kind: Float, F: float64(v)}, err
	case Double:
		v, err := r.F64()
		return Value{Kind: Double, F: v}, err
	case ScalarDouble:
		v, err := r.F64()
		return Value{Kind: ScalarDouble, F: v}, err
	case String:
		s, err := r.LenPrefixedString()
		return Value{Kind: String, Str: s}, err
	case StringValue:
		s, err := r.LenPrefixedString()
		return Value{Kind: StringValue, Str: s}, err
	default:
		return Value{}, fmt.Errorf("value: unknown tag %d", tag)
	}
}
