package codec

import (
	"code.hybscloud.com/docwire/boundref"
	"code.hybscloud.com/docwire/classalias"
	"code.hybscloud.com/docwire/format"
	"code.hybscloud.com/docwire/value"
)

// Reader drives a format.Decoder and adds the schema-evolution guarantees
// spec §4.3 asks of the codec layer: a field asked for out of on-wire
// order is found by scanning ahead and buffering whatever it skips past
// (lazy-match reorder buffer); a field never requested at all surfaces
// through CollectUnknown; a field requested but absent on the wire
// produces value.MissingValue() rather than an error (default-on-missing).
// RawFormat does not use this type — its Decoder has no self-describing
// Next, so wire.RawWire drives format/raw directly instead.
type Reader struct {
	format   format.Format
	dec      format.Decoder
	buffered []FieldValue
	sink     func(FieldValue)
	done     bool
}

// NewReader starts reading a document body under the given format.
func NewReader(f format.Format, body []byte) *Reader {
	return &Reader{format: f, dec: f.NewDecoder(body)}
}

// SetUnknownSink registers a callback CollectUnknown invokes once per
// leftover field, in on-wire order, in addition to returning them.
func (r *Reader) SetUnknownSink(fn func(FieldValue)) { r.sink = fn }

// ReadField returns the value for expected, scanning forward through the
// body if it was not the next field buffered. Fields skipped over while
// scanning are retained for a later ReadField or CollectUnknown call. A
// field that never appears on the wire yields value.MissingValue(), not
// an error.
func (r *Reader) ReadField(expected value.Field) (value.Value, error) {
	for i, fv := range r.buffered {
		if fv.Field.Equal(expected) {
			r.buffered = append(r.buffered[:i:i], r.buffered[i+1:]...)
			return fv.Value, nil
		}
	}
	if r.done {
		return value.MissingValue(), nil
	}
	for {
		f, v, ok, err := r.dec.Next()
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			r.done = true
			return value.MissingValue(), nil
		}
		if f.Equal(expected) {
			return v, nil
		}
		r.buffered = append(r.buffered, FieldValue{Field: f, Value: v})
	}
}

// CollectUnknown drains the remainder of the body and returns every field
// not already consumed by ReadField, in on-wire order, invoking the
// unknown sink (if set) for each.
func (r *Reader) CollectUnknown() ([]FieldValue, error) {
	for !r.done {
		f, v, ok, err := r.dec.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			r.done = true
			break
		}
		r.buffered = append(r.buffered, FieldValue{Field: f, Value: v})
	}
	out := r.buffered
	r.buffered = nil
	for _, fv := range out {
		if r.sink != nil {
			r.sink(fv)
		}
	}
	return out, nil
}

// ReadSequence reads expected as an inline sequence, returning nil with no
// error if the field is missing.
func (r *Reader) ReadSequence(expected value.Field) ([]value.Value, error) {
	v, err := r.ReadField(expected)
	if err != nil {
		return nil, err
	}
	if v.Missing {
		return nil, nil
	}
	if v.Kind != value.KindSequence {
		return nil, schemaMismatch(r.format.Name(), value.KindSequence, v.Kind)
	}
	return v.Seq, nil
}

// ReadTyped reads expected as a typed object, returning a nested Reader
// over its fields plus the alias it was tagged with. ok is false if the
// field was missing.
func (r *Reader) ReadTyped(expected value.Field) (alias string, nested *Reader, ok bool, err error) {
	v, err := r.ReadField(expected)
	if err != nil {
		return "", nil, false, err
	}
	if v.Missing {
		return "", nil, false, nil
	}
	if v.Kind != value.KindTyped {
		return "", nil, false, schemaMismatch(r.format.Name(), value.KindTyped, v.Kind)
	}
	return v.TypedTag, NewReader(r.format, v.Nested), true, nil
}

// ReadBoundScalar reads expected as a bound scalar and returns the
// BoundRef a caller combines with a document's body base offset to drive
// boundref.VolatileGet/OrderedSet/CompareAndSet/GetAndAdd. ok is false if
// the field was missing.
func (r *Reader) ReadBoundScalar(expected value.Field, width boundref.Width) (ref boundref.BoundRef, ok bool, err error) {
	v, err := r.ReadField(expected)
	if err != nil {
		return boundref.BoundRef{}, false, err
	}
	if v.Missing {
		return boundref.BoundRef{}, false, nil
	}
	return boundref.Scalar(v.BoundRelOffset, width), true, nil
}

// ReadTypedTag is ReadTyped for callers that want the Go-side type tag
// classalias.ClassAlias registered for the on-wire alias, rather than the
// alias string itself. ok is false if the field was missing or reg has no
// registration for the alias that was actually on the wire.
func (r *Reader) ReadTypedTag(expected value.Field, reg classalias.ClassAlias) (tag any, nested *Reader, ok bool, err error) {
	alias, nested, ok, err := r.ReadTyped(expected)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	tag, ok = reg.TypeOf(alias)
	if !ok {
		return nil, nil, false, nil
	}
	return tag, nested, true, nil
}
