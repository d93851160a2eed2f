package codec

import (
	"code.hybscloud.com/docwire/boundref"
	"code.hybscloud.com/docwire/classalias"
	"code.hybscloud.com/docwire/format"
	"code.hybscloud.com/docwire/value"
	"code.hybscloud.com/docwire/wireerr"
)

// Writer serializes fields into a single document body through a Format.
// It adds nothing over what Format.Encoder already does except the
// ergonomics for typed objects, sequences, and bound scalars that every
// format needs the same shape of helper for.
type Writer struct {
	format format.Format
	enc    format.Encoder
}

// NewWriter starts a fresh document body under the given format.
func NewWriter(f format.Format) *Writer {
	return &Writer{format: f, enc: f.NewEncoder()}
}

// Bytes returns the encoded body so far.
func (w *Writer) Bytes() []byte { return w.enc.Bytes() }

// WriteField writes a single scalar, string, enum, bytes, or sequence
// field. Typed objects and bound scalars go through WriteTyped and
// WriteBoundScalar instead, since both need extra bookkeeping.
func (w *Writer) WriteField(f value.Field, v value.Value) error {
	_, err := w.enc.WriteField(f, v)
	return err
}

// WriteBoundScalar reserves a fixed-width volatile scalar at f, initialized
// to initial, and returns the BoundRef a caller uses with the boundref
// package for lock-free reads/writes/CAS against the framed document body
// (spec §4.7). bodyBase is added by the caller once the document's
// absolute body offset is known; the BoundRef returned here is relative to
// this Writer's own body.
func (w *Writer) WriteBoundScalar(f value.Field, width boundref.Width, initial uint64) (boundref.BoundRef, error) {
	v := value.BoundOf(int(width), 0)
	v.Int = int64(initial)
	relOffset, err := w.enc.WriteField(f, v)
	if err != nil {
		return boundref.BoundRef{}, err
	}
	return boundref.Scalar(relOffset, width), nil
}

// WriteSequence writes f as an inline sequence of elems.
func (w *Writer) WriteSequence(f value.Field, elems []value.Value) error {
	_, err := w.enc.WriteField(f, value.SequenceOf(elems))
	return err
}

// WriteTyped writes f as a typed object tagged alias, whose fields are
// produced by fn against a fresh nested Writer sharing this Writer's
// format (spec §4.3 "Typed marshallable objects").
func (w *Writer) WriteTyped(f value.Field, alias string, fn func(*Writer) error) error {
	nested := NewWriter(w.format)
	if err := fn(nested); err != nil {
		return err
	}
	_, err := w.enc.WriteField(f, value.TypedOf(alias, nested.Bytes()))
	return err
}

// WriteTypedTag is WriteTyped for callers that carry a Go-side type tag
// instead of a wire alias string directly: reg resolves tag to its
// registered alias (classalias.ClassAlias), and the on-wire bytes carry
// only that alias, never the tag itself.
func (w *Writer) WriteTypedTag(f value.Field, reg classalias.ClassAlias, tag any, fn func(*Writer) error) error {
	alias, ok := reg.NameOf(tag)
	if !ok {
		return wireerr.IllegalArgument
	}
	return w.WriteTyped(f, alias, fn)
}
