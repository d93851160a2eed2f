// Package raw implements RawFormat, the field-less positional wire layout
// (spec §4.6): values are written strictly in the order writer and reader
// agree on beforehand, at their declared fixed width — no tags, no field
// identifiers, no schema evolution. This is the format BoundRef addresses
// most naturally, since every scalar sits at a predictable offset.
package raw

import (
	"encoding/binary"
	"fmt"
	"math"

	"code.hybscloud.com/docwire/format"
	"code.hybscloud.com/docwire/value"
	"code.hybscloud.com/docwire/wireerr"
)

// Format is the stateless RawFormat implementation.
type Format struct{}

func (Format) Name() string { return "raw" }

func (Format) NewEncoder() format.Encoder { return &encoder{} }

func (Format) NewDecoder(body []byte) format.Decoder { return NewRawDecoder(body) }

// NewRawDecoder returns the schema-driven Decoder directly, for callers
// (wire.RawWire) that need ReadAt/ReadSequence rather than the generic
// format.Decoder.Next surface RawFormat cannot honestly support.
func NewRawDecoder(body []byte) *Decoder { return &Decoder{body: body} }

type encoder struct {
	buf []byte
}

func (e *encoder) Bytes() []byte { return e.buf }

// WriteField ignores f entirely: RawFormat carries no field identity on
// the wire, so callers and readers must agree on order out of band.
func (e *encoder) WriteField(_ value.Field, v value.Value) (int64, error) {
	return e.writeValue(v)
}

func (e *encoder) writeValue(v value.Value) (int64, error) {
	switch v.Kind {
	case value.KindBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		e.buf = append(e.buf, b)
		return -1, nil
	case value.KindInt8:
		e.buf = appendLE(e.buf, uint64(v.Int), 1)
		return -1, nil
	case value.KindInt16:
		e.buf = appendLE(e.buf, uint64(v.Int), 2)
		return -1, nil
	case value.KindInt32:
		e.buf = appendLE(e.buf, uint64(v.Int), 4)
		return -1, nil
	case value.KindInt64:
		e.buf = appendLE(e.buf, uint64(v.Int), 8)
		return -1, nil
	case value.KindFloat32:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v.Float32))
		return -1, nil
	case value.KindFloat64:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v.Float64))
		return -1, nil
	case value.KindString, value.KindEnum:
		e.writeString(v.Str)
		return -1, nil
	case value.KindBytes:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(v.Bytes)))
		e.buf = append(e.buf, v.Bytes...)
		return -1, nil
	case value.KindSequence:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(v.Seq)))
		for _, el := range v.Seq {
			if _, err := e.writeValue(el); err != nil {
				return -1, err
			}
		}
		return -1, nil
	case value.KindTyped:
		if len(v.TypedTag) > 255 {
			return -1, fmt.Errorf("docwire: raw: %w: alias too long", wireerr.IllegalArgument)
		}
		e.buf = append(e.buf, byte(len(v.TypedTag)))
		e.buf = append(e.buf, v.TypedTag...)
		// Unlike the wire description's schema-driven raw replay, this
		// codec has no static schema to size the nested body from, so a
		// length prefix is added purely so a generic decoder can find
		// the end of the nested object (see DESIGN.md).
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(v.Nested)))
		e.buf = append(e.buf, v.Nested...)
		return -1, nil
	case value.KindBound:
		width := v.BoundWidth
		if width != 4 && width != 8 {
			return -1, fmt.Errorf("docwire: raw: %w: bound width must be 4 or 8", wireerr.IllegalArgument)
		}
		off := int64(len(e.buf))
		e.buf = appendLE(e.buf, uint64(v.Int), width)
		return off, nil
	default:
		return -1, fmt.Errorf("docwire: raw: %w: unsupported value kind %s", wireerr.IllegalArgument, v.Kind)
	}
}

func (e *encoder) writeString(s string) {
	if len(s) < 255 {
		e.buf = append(e.buf, byte(len(s)))
		e.buf = append(e.buf, s...)
		return
	}
	// lengths >= 255 use a u16 length-prefix, flagged by the 0xFF marker
	// byte (spec §4.6); 255 itself cannot be a short length since it is
	// the marker.
	e.buf = append(e.buf, 0xFF)
	e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(len(s)))
	e.buf = append(e.buf, s...)
}

func appendLE(buf []byte, u uint64, width int) []byte {
	for i := 0; i < width; i++ {
		buf = append(buf, byte(u))
		u >>= 8
	}
	return buf
}

// Decoder is RawFormat's schema-driven reader. RawFormat carries no field
// identity and no type tags, so the caller names the kind (and width) of
// every value through ReadAt/ReadSequence. Next, the generic
// format.Decoder entry point, always fails with wireerr.SchemaMismatch, so
// the codec's reorder/unknown-field machinery cannot run over RawFormat
// (spec §4.6 "no schema evolution").
type Decoder struct {
	body []byte
	pos  int
}

// ReadAt decodes a single value of the given kind at the decoder's
// current position, advancing past it. Unlike Next, this requires the
// caller to supply the expected kind, since RawFormat's bytes alone do
// not say what they are.
func (d *Decoder) ReadAt(kind value.Kind, width int) (value.Value, int64, error) {
	switch kind {
	case value.KindBool:
		b, err := d.readN(1)
		if err != nil {
			return value.Value{}, -1, err
		}
		return value.BoolOf(b[0] != 0), -1, nil
	case value.KindInt8, value.KindInt16, value.KindInt32, value.KindInt64:
		w := kind.Width()
		raw, err := d.readN(w)
		if err != nil {
			return value.Value{}, -1, err
		}
		return value.IntOf(64, decodeLE(raw)), -1, nil
	case value.KindFloat32:
		raw, err := d.readN(4)
		if err != nil {
			return value.Value{}, -1, err
		}
		return value.Float32Of(math.Float32frombits(binary.LittleEndian.Uint32(raw))), -1, nil
	case value.KindFloat64:
		raw, err := d.readN(8)
		if err != nil {
			return value.Value{}, -1, err
		}
		return value.Float64Of(math.Float64frombits(binary.LittleEndian.Uint64(raw))), -1, nil
	case value.KindString, value.KindEnum:
		s, err := d.readString()
		if err != nil {
			return value.Value{}, -1, err
		}
		if kind == value.KindEnum {
			return value.EnumOf(s), -1, nil
		}
		return value.StringOf(s), -1, nil
	case value.KindBytes:
		n, err := d.readU32()
		if err != nil {
			return value.Value{}, -1, err
		}
		raw, err := d.readN(int(n))
		if err != nil {
			return value.Value{}, -1, err
		}
		return value.BytesOf(append([]byte(nil), raw...)), -1, nil
	case value.KindTyped:
		aliasLen, err := d.readN(1)
		if err != nil {
			return value.Value{}, -1, err
		}
		alias, err := d.readN(int(aliasLen[0]))
		if err != nil {
			return value.Value{}, -1, err
		}
		n, err := d.readU32()
		if err != nil {
			return value.Value{}, -1, err
		}
		nested, err := d.readN(int(n))
		if err != nil {
			return value.Value{}, -1, err
		}
		return value.TypedOf(string(alias), append([]byte(nil), nested...)), -1, nil
	case value.KindBound:
		off := int64(d.pos)
		if _, err := d.readN(width); err != nil {
			return value.Value{}, -1, err
		}
		return value.BoundOf(width, off), off, nil
	default:
		return value.Value{}, -1, fmt.Errorf("docwire: raw: %w: unsupported kind %s", wireerr.IllegalArgument, kind)
	}
}

// ReadSequence reads a u32 count followed by count elements of elemKind.
func (d *Decoder) ReadSequence(elemKind value.Kind) (value.Value, error) {
	n, err := d.readU32()
	if err != nil {
		return value.Value{}, err
	}
	elems := make([]value.Value, 0, n)
	for i := uint32(0); i < n; i++ {
		v, _, err := d.ReadAt(elemKind, elemKind.Width())
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, v)
	}
	return value.SequenceOf(elems), nil
}

// Next satisfies format.Decoder but never decodes anything: RawFormat is
// driven through ReadAt directly by wire.RawWire, never through Next,
// since anonymous positional values have no way to self-report their
// Kind. Every call returns ok=false and wireerr.SchemaMismatch.
func (d *Decoder) Next() (value.Field, value.Value, bool, error) {
	return value.Field{}, value.Value{}, false, fmt.Errorf("docwire: raw: %w: RawFormat requires a schema-driven read, not a generic scan", wireerr.SchemaMismatch)
}

func (d *Decoder) readString() (string, error) {
	lead, err := d.readN(1)
	if err != nil {
		return "", err
	}
	if lead[0] != 0xFF {
		raw, err := d.readN(int(lead[0]))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	n, err := d.readN(2)
	if err != nil {
		return "", err
	}
	raw, err := d.readN(int(binary.LittleEndian.Uint16(n)))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeLE(raw []byte) int64 {
	var u uint64
	for i := len(raw) - 1; i >= 0; i-- {
		u = u<<8 | uint64(raw[i])
	}
	bits := uint(len(raw)) * 8
	if bits == 64 {
		return int64(u)
	}
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

func (d *Decoder) readN(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.body) {
		return nil, fmt.Errorf("docwire: raw: %w: unexpected end of body", wireerr.StreamCorrupted)
	}
	b := d.body[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) readU32() (uint32, error) {
	raw, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}
