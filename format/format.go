// Package format defines the contract that TextFormat, BinaryFormat, and
// RawFormat each implement (spec §4.4, §4.5, §4.6): an Encoder that
// serializes one field at a time into a growable body buffer, and a
// Decoder that yields fields back in on-wire order. Schema-evolution
// behaviour (reordering, unknown-field retention, default-on-missing) is
// deliberately NOT here: codec.Reader builds that generically on top of
// Decoder.Next, so every format gets it for free.
package format

import "code.hybscloud.com/docwire/value"

// Encoder serializes a document's fields into a single contiguous body.
type Encoder interface {
	// WriteField appends f/v to the body. For a KindBound value it
	// returns the offset, relative to the start of this body, at which
	// the raw scalar bytes begin; for every other kind it returns -1.
	WriteField(f value.Field, v value.Value) (boundRelOffset int64, err error)
	// Bytes returns the encoded body so far.
	Bytes() []byte
}

// Decoder reads a document's fields back out of an already-framed body,
// strictly in on-wire order.
type Decoder interface {
	// Next returns the next field/value pair, or ok=false when the body
	// is exhausted. A KindBound value's BoundRelOffset is relative to the
	// same body this Decoder was constructed over.
	Next() (f value.Field, v value.Value, ok bool, err error)
}

// Format is a wire layout: TextFormat, BinaryFormat, or RawFormat.
type Format interface {
	Name() string
	NewEncoder() Encoder
	NewDecoder(body []byte) Decoder
}
