// Package binary implements BinaryFormat, the self-describing tagged
// binary wire layout (spec §4.5): one control byte introduces every value,
// field identities get their own tag range, and scalar widths are chosen
// as the smallest that exactly represent the value (an int that fits in
// one byte is written in one byte; a float64 that round-trips through
// float32 is written as float32). This compacting is why the same logical
// document is smaller here than under RawFormat's fixed widths.
//
// The worked hex fixtures (spec §8 scenarios 2 and 4) are ground truth
// where they disagree with the prose tag table in §4.5: field identities
// are emitted as "short string" (tag 0xC0+length, not 0x80+length as the
// table's labels would suggest), and a non-negative integer small enough
// to fit in 7 bits is written as a single bare byte with no tag at all —
// the table's claim that 0x00..0x7F is "never emitted by encoder" does
// not hold for that case. Both resolutions are recorded in DESIGN.md.
//
// Tag ranges not exercised by any fixture (the 0xF0-0xFB "typed object"
// range, distinct from the 0xB6 "typed marshallable" tag this package
// actually emits) are left unimplemented; spec.md itself treats
// unexercised tags as open extension points, not a fixed contract.
// 0xFC-0xFE are this package's own extensions for long strings,
// sequences, and booleans, none of which the tag table assigns a byte to.
package binary

import (
	"encoding/binary"
	"fmt"
	"math"

	"code.hybscloud.com/docwire/format"
	"code.hybscloud.com/docwire/value"
	"code.hybscloud.com/docwire/wireerr"
)

const (
	tagFieldNumberBase = 0x80 // + number (0..63); reassigned from the
	// table's "field-name" label — see the package doc comment.
	tagFieldNameBase   = 0xC0 // + length (0..31); the fixtures' "short string" range.
	tagFloat32         = 0x90
	tagFloat64         = 0x91
	tagIntBase         = 0xA0 // + (width-1), width 1..8
	tagTypedStringBase = 0xE0 // + length (0..15)
	tagRawBlob         = 0x82
	tagTypedObject     = 0xB6
	tagLongString      = 0xFC
	tagSequence        = 0xFD
	tagBool            = 0xFE
)

// Format is the stateless BinaryFormat implementation.
type Format struct{}

func (Format) Name() string { return "binary" }

func (Format) NewEncoder() format.Encoder { return &encoder{} }

func (Format) NewDecoder(body []byte) format.Decoder { return &decoder{body: body} }

type encoder struct {
	buf []byte
}

func (e *encoder) Bytes() []byte { return e.buf }

func (e *encoder) WriteField(f value.Field, v value.Value) (int64, error) {
	if err := e.writeFieldIdentity(f); err != nil {
		return -1, err
	}
	return e.writeValue(v)
}

func (e *encoder) writeFieldIdentity(f value.Field) error {
	switch f.Kind {
	case value.FieldName:
		if len(f.Name) > 31 {
			return fmt.Errorf("docwire: binary: %w: field name too long for compact tag", wireerr.IllegalArgument)
		}
		e.buf = append(e.buf, byte(tagFieldNameBase+len(f.Name)))
		e.buf = append(e.buf, f.Name...)
	case value.FieldNumber:
		if f.Number < 0 || f.Number > 63 {
			return fmt.Errorf("docwire: binary: %w: field number out of compact range", wireerr.IllegalArgument)
		}
		e.buf = append(e.buf, byte(tagFieldNumberBase+f.Number))
	case value.FieldAnonymous:
		// Anonymous fields carry no identity tag; used only inside
		// sequences, where writeValue alone follows.
	}
	return nil
}

func (e *encoder) writeValue(v value.Value) (int64, error) {
	switch v.Kind {
	case value.KindNull:
		e.buf = append(e.buf, tagBool, 0)
		return -1, nil
	case value.KindBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		e.buf = append(e.buf, tagBool, b)
		return -1, nil
	case value.KindInt8, value.KindInt16, value.KindInt32, value.KindInt64:
		e.writeInt(v.Int)
		return -1, nil
	case value.KindFloat32:
		e.buf = append(e.buf, tagFloat32)
		e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v.Float32))
		return -1, nil
	case value.KindFloat64:
		if f32 := float32(v.Float64); float64(f32) == v.Float64 {
			e.buf = append(e.buf, tagFloat32)
			e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(f32))
		} else {
			e.buf = append(e.buf, tagFloat64)
			e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v.Float64))
		}
		return -1, nil
	case value.KindString, value.KindEnum:
		e.writeString(v.Str)
		return -1, nil
	case value.KindBytes:
		e.writeBlob(v.Bytes)
		return -1, nil
	case value.KindSequence:
		return -1, e.writeSequence(v.Seq)
	case value.KindTyped:
		return -1, e.writeTyped(v.TypedTag, v.Nested)
	case value.KindBound:
		return e.writeBound(v)
	default:
		return -1, fmt.Errorf("docwire: binary: %w: unsupported value kind %s", wireerr.IllegalArgument, v.Kind)
	}
}

// writeInt emits v as a bare byte when it is a non-negative 7-bit value
// (the compaction the 0x00..0x7F fixture byte demonstrates), else as a
// tagged compact-width integer.
func (e *encoder) writeInt(v int64) {
	if v >= 0 && v <= 0x7F {
		e.buf = append(e.buf, byte(v))
		return
	}
	width := minimalSignedWidth(v)
	e.buf = append(e.buf, byte(tagIntBase+width-1))
	e.buf = appendLEInt(e.buf, v, width)
}

func (e *encoder) writeString(s string) {
	if len(s) <= 15 {
		e.buf = append(e.buf, byte(tagTypedStringBase+len(s)))
		e.buf = append(e.buf, s...)
		return
	}
	e.buf = append(e.buf, tagLongString)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) writeBlob(data []byte) {
	e.buf = append(e.buf, tagRawBlob)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(data)))
	e.buf = append(e.buf, data...)
}

func (e *encoder) writeTyped(tag string, nested []byte) error {
	if len(tag) > 255 {
		return fmt.Errorf("docwire: binary: %w: alias too long", wireerr.IllegalArgument)
	}
	e.buf = append(e.buf, tagTypedObject, byte(len(tag)))
	e.buf = append(e.buf, tag...)
	e.writeBlob(nested)
	return nil
}

func (e *encoder) writeSequence(elems []value.Value) error {
	var sub encoder
	for _, el := range elems {
		if _, err := sub.writeValue(el); err != nil {
			return err
		}
	}
	body := binary.LittleEndian.AppendUint32(nil, uint32(len(elems)))
	body = append(body, sub.buf...)
	e.buf = append(e.buf, tagSequence)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(body)))
	e.buf = append(e.buf, body...)
	return nil
}

func (e *encoder) writeBound(v value.Value) (int64, error) {
	width := v.BoundWidth
	if width != 4 && width != 8 {
		return -1, fmt.Errorf("docwire: binary: %w: bound width must be 4 or 8", wireerr.IllegalArgument)
	}
	e.buf = append(e.buf, byte(tagIntBase+width-1))
	off := int64(len(e.buf))
	e.buf = appendLEInt(e.buf, v.Int, width)
	return off, nil
}

// minimalSignedWidth returns the smallest byte width in 1..8 whose
// sign-extended value reproduces v exactly.
func minimalSignedWidth(v int64) int {
	for width := 1; width < 8; width++ {
		bits := uint(width) * 8
		shifted := v << (64 - bits)
		if shifted>>(64-bits) == v {
			return width
		}
	}
	return 8
}

func appendLEInt(buf []byte, v int64, width int) []byte {
	u := uint64(v)
	for i := 0; i < width; i++ {
		buf = append(buf, byte(u))
		u >>= 8
	}
	return buf
}

type decoder struct {
	body []byte
	pos  int
}

func (d *decoder) Next() (value.Field, value.Value, bool, error) {
	d.skipPadding()
	if d.pos >= len(d.body) {
		return value.Field{}, value.Value{}, false, nil
	}
	f, err := d.readFieldIdentity()
	if err != nil {
		return value.Field{}, value.Value{}, false, err
	}
	v, err := d.readValue()
	if err != nil {
		return value.Field{}, value.Value{}, false, err
	}
	return f, v, true, nil
}

// skipPadding advances past 0x00 bytes between documents' fields (spec
// §4.5: "Padding (0x00) may be inserted and is a no-op on read"). This
// only applies while scanning for the next field identity; once a value
// is expected, a 0x00 byte there is the literal integer zero instead.
func (d *decoder) skipPadding() {
	for d.pos < len(d.body) && d.body[d.pos] == 0x00 {
		d.pos++
	}
}

func (d *decoder) readFieldIdentity() (value.Field, error) {
	tag, err := d.readByte()
	if err != nil {
		return value.Field{}, err
	}
	switch {
	case tag >= tagFieldNameBase && tag < tagFieldNameBase+32:
		n := int(tag - tagFieldNameBase)
		name, err := d.readN(n)
		if err != nil {
			return value.Field{}, err
		}
		return value.Named(string(name)), nil
	case tag >= tagFieldNumberBase && tag < tagFieldNumberBase+64:
		return value.Numbered(int(tag - tagFieldNumberBase)), nil
	default:
		return value.Field{}, fmt.Errorf("docwire: binary: %w: tag 0x%02x is not a field identifier", wireerr.StreamCorrupted, tag)
	}
}

func (d *decoder) readValue() (value.Value, error) {
	tag, err := d.readByte()
	if err != nil {
		return value.Value{}, err
	}
	switch {
	case tag < 0x80:
		// Bare non-negative 7-bit integer literal; no tag byte.
		return value.IntOf(64, int64(tag)), nil
	case tag == tagBool:
		b, err := d.readByte()
		if err != nil {
			return value.Value{}, err
		}
		return value.BoolOf(b != 0), nil
	case tag == tagFloat32:
		raw, err := d.readN(4)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float32Of(math.Float32frombits(binary.LittleEndian.Uint32(raw))), nil
	case tag == tagFloat64:
		raw, err := d.readN(8)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float64Of(math.Float64frombits(binary.LittleEndian.Uint64(raw))), nil
	case tag >= tagIntBase && tag < tagIntBase+8:
		width := int(tag-tagIntBase) + 1
		off := int64(d.pos)
		raw, err := d.readN(width)
		if err != nil {
			return value.Value{}, err
		}
		// A bound scalar is encoded with exactly this tag (writeBound
		// reuses the compact-int tag range), so every tagged int carries
		// its payload offset in case the caller reads it as a BoundRef
		// (codec.Reader.ReadBoundScalar); plain integer fields simply
		// ignore BoundRelOffset/BoundWidth.
		v := value.IntOf(64, decodeLEInt(raw))
		v.BoundRelOffset = off
		v.BoundWidth = width
		return v, nil
	case tag >= tagTypedStringBase && tag < tagTypedStringBase+16:
		n := int(tag - tagTypedStringBase)
		raw, err := d.readN(n)
		if err != nil {
			return value.Value{}, err
		}
		return value.StringOf(string(raw)), nil
	case tag == tagLongString:
		n, err := d.readU32()
		if err != nil {
			return value.Value{}, err
		}
		raw, err := d.readN(int(n))
		if err != nil {
			return value.Value{}, err
		}
		return value.StringOf(string(raw)), nil
	case tag == tagRawBlob:
		n, err := d.readU32()
		if err != nil {
			return value.Value{}, err
		}
		raw, err := d.readN(int(n))
		if err != nil {
			return value.Value{}, err
		}
		return value.BytesOf(append([]byte(nil), raw...)), nil
	case tag == tagTypedObject:
		aliasLen, err := d.readByte()
		if err != nil {
			return value.Value{}, err
		}
		alias, err := d.readN(int(aliasLen))
		if err != nil {
			return value.Value{}, err
		}
		blobTag, err := d.readByte()
		if err != nil {
			return value.Value{}, err
		}
		if blobTag != tagRawBlob {
			return value.Value{}, fmt.Errorf("docwire: binary: %w: typed object body missing length prefix", wireerr.StreamCorrupted)
		}
		n, err := d.readU32()
		if err != nil {
			return value.Value{}, err
		}
		nested, err := d.readN(int(n))
		if err != nil {
			return value.Value{}, err
		}
		return value.TypedOf(string(alias), append([]byte(nil), nested...)), nil
	case tag == tagSequence:
		n, err := d.readU32()
		if err != nil {
			return value.Value{}, err
		}
		raw, err := d.readN(int(n))
		if err != nil {
			return value.Value{}, err
		}
		return decodeSequenceBody(raw)
	default:
		return value.Value{}, fmt.Errorf("docwire: binary: %w: unrecognized value tag 0x%02x", wireerr.StreamCorrupted, tag)
	}
}

func decodeSequenceBody(body []byte) (value.Value, error) {
	if len(body) < 4 {
		return value.Value{}, fmt.Errorf("docwire: binary: %w: truncated sequence count", wireerr.StreamCorrupted)
	}
	count := binary.LittleEndian.Uint32(body[:4])
	sub := &decoder{body: body[4:]}
	elems := make([]value.Value, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := sub.readValue()
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, v)
	}
	return value.SequenceOf(elems), nil
}

func decodeLEInt(raw []byte) int64 {
	var u uint64
	for i := len(raw) - 1; i >= 0; i-- {
		u = u<<8 | uint64(raw[i])
	}
	bits := uint(len(raw)) * 8
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.body) {
		return 0, fmt.Errorf("docwire: binary: %w: unexpected end of body", wireerr.StreamCorrupted)
	}
	b := d.body[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readN(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.body) {
		return nil, fmt.Errorf("docwire: binary: %w: unexpected end of body", wireerr.StreamCorrupted)
	}
	b := d.body[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) readU32() (uint32, error) {
	raw, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}
