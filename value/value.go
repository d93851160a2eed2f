// Package value defines the codec's format-agnostic value universe (spec
// §3 "Value") and field identifiers (spec §3 "Field"): the common
// vocabulary that TextFormat, BinaryFormat, and RawFormat all render and
// parse against.
package value

// Kind discriminates the logical shape of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindEnum
	KindBytes
	KindSequence
	KindMapping
	KindTyped
	KindBound
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindBytes:
		return "bytes"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindTyped:
		return "typed"
	case KindBound:
		return "bound"
	default:
		return "unknown"
	}
}

// FieldKind discriminates how a Field identifies itself on the wire.
type FieldKind uint8

const (
	// FieldAnonymous carries no identity; used exclusively by RawFormat,
	// where field order alone disambiguates values.
	FieldAnonymous FieldKind = iota
	// FieldName identifies a field by a UTF-8 name.
	FieldName
	// FieldNumber identifies a field by a small integer ordinal.
	FieldNumber
)

// Field is a wire field identifier: a name, a number, or anonymous.
type Field struct {
	Kind   FieldKind
	Name   string
	Number int
}

// Named returns a name-identified Field.
func Named(name string) Field { return Field{Kind: FieldName, Name: name} }

// Numbered returns a number-identified Field.
func Numbered(n int) Field { return Field{Kind: FieldNumber, Number: n} }

// Anonymous returns the field-less identifier RawFormat uses.
func Anonymous() Field { return Field{Kind: FieldAnonymous} }

func (f Field) String() string {
	switch f.Kind {
	case FieldName:
		return f.Name
	case FieldNumber:
		return itoa(f.Number)
	default:
		return "<anonymous>"
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Equal reports whether two fields identify the same slot: two anonymous
// fields are never considered equal to each other (RawFormat has no
// identity to compare), matching the fact that RawFormat never calls this.
func (f Field) Equal(o Field) bool {
	if f.Kind != o.Kind {
		return false
	}
	switch f.Kind {
	case FieldName:
		return f.Name == o.Name
	case FieldNumber:
		return f.Number == o.Number
	default:
		return false
	}
}

// Value is one codec value, discriminated by Kind. Its Missing field is
// the reader's signal that a requested field was absent on the wire (spec
// §4.3 "Default-on-missing"): callers test Value.Missing before consuming
// Value.
type Value struct {
	Kind Kind

	Bool    bool
	Int     int64
	Float32 float32
	Float64 float64
	Str     string
	Bytes   []byte

	// TypedTag is the wire alias string of a KindTyped value; Nested
	// holds the already-encoded field set of the typed object, which a
	// format's own decoder can be re-applied to (codec drives the
	// recursion, not the format).
	TypedTag string
	Nested   []byte

	// Seq holds a KindSequence value's elements, in order.
	Seq []Value

	// BoundWidth and BoundRelOffset describe a KindBound value: the
	// fixed scalar width (4 or 8) and its offset relative to the
	// document body, per boundref.BoundRef.
	BoundWidth     int
	BoundRelOffset int64

	// Missing reports that the requested field was not present; all other
	// fields are zero-valued in that case.
	Missing bool
}

// Null returns the null Value.
func Null() Value { return Value{Kind: KindNull} }

// MissingValue returns the default-on-missing sentinel.
func MissingValue() Value { return Value{Missing: true} }

// BoolOf returns a boolean Value.
func BoolOf(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IntOf returns an integer Value of the given bit width (8, 16, 32, 64).
func IntOf(width int, v int64) Value {
	k := KindInt64
	switch width {
	case 8:
		k = KindInt8
	case 16:
		k = KindInt16
	case 32:
		k = KindInt32
	}
	return Value{Kind: k, Int: v}
}

// Float32Of returns a float32 Value.
func Float32Of(v float32) Value { return Value{Kind: KindFloat32, Float32: v} }

// Float64Of returns a float64 Value.
func Float64Of(v float64) Value { return Value{Kind: KindFloat64, Float64: v} }

// StringOf returns a string-scalar Value.
func StringOf(s string) Value { return Value{Kind: KindString, Str: s} }

// EnumOf returns an enum-symbol Value.
func EnumOf(symbol string) Value { return Value{Kind: KindEnum, Str: symbol} }

// BytesOf returns a raw-bytes Value.
func BytesOf(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// SequenceOf returns a sequence Value over the given elements.
func SequenceOf(elems []Value) Value { return Value{Kind: KindSequence, Seq: elems} }

// TypedOf returns a typed-object Value wrapping an already-encoded nested
// field set under the given alias tag.
func TypedOf(tag string, nested []byte) Value {
	return Value{Kind: KindTyped, TypedTag: tag, Nested: nested}
}

// BoundOf returns a bound-scalar placeholder Value: width is 4 or 8,
// relOffset is relative to the document body.
func BoundOf(width int, relOffset int64) Value {
	return Value{Kind: KindBound, BoundWidth: width, BoundRelOffset: relOffset}
}

// Width reports the fixed byte width of an int/float Kind, or 0 for
// variable-width/non-scalar kinds.
func (k Kind) Width() int {
	switch k {
	case KindInt8:
		return 1
	case KindInt16:
		return 2
	case KindInt32, KindFloat32:
		return 4
	case KindInt64, KindFloat64:
		return 8
	default:
		return 0
	}
}
