package wire

import (
	"time"

	"code.hybscloud.com/docwire/bytestore"
	"code.hybscloud.com/docwire/format"
	"code.hybscloud.com/docwire/format/raw"
	"code.hybscloud.com/docwire/framing"
	"code.hybscloud.com/docwire/value"
)

// RawWire is the Wire variant that renders documents as RawFormat:
// field-less, fixed-width, positional (spec §4.6). It carries no schema
// evolution — writer and reader must agree on field order and width out
// of band — so it bypasses codec.Writer/Reader entirely and exposes
// RawFormat's own schema-driven encoder/decoder directly.
type RawWire struct {
	*framing.Framer
}

// NewRawWire returns a RawWire over store.
func NewRawWire(store bytestore.ByteStore, opts ...framing.Option) *RawWire {
	return &RawWire{Framer: framing.NewFramer(store, opts...)}
}

// RawEncoder is the field-less sequential writer for one RawFormat
// document body.
type RawEncoder struct {
	enc format.Encoder
}

// WriteValue appends v, in the order the reader must expect it.
func (e *RawEncoder) WriteValue(v value.Value) error {
	_, err := e.enc.WriteField(value.Anonymous(), v)
	return err
}

// Bytes returns the encoded body so far.
func (e *RawEncoder) Bytes() []byte { return e.enc.Bytes() }

// WriteDocument reserves, encodes via fn, and commits one RawFormat data
// document.
func (w *RawWire) WriteDocument(timeout time.Duration, fn func(*RawEncoder) error) error {
	end, err := w.StartUse()
	if err != nil {
		return err
	}
	defer end()

	re := &RawEncoder{enc: (raw.Format{}).NewEncoder()}
	if err := fn(re); err != nil {
		return err
	}
	body := re.Bytes()
	bodyOffset, err := w.Reserve(uint32(len(body)), timeout)
	if err != nil {
		return err
	}
	if _, err := w.Store.WriteBytes(bodyOffset, body); err != nil {
		w.Abandon()
		return err
	}
	return w.Commit(int64(len(body)), false)
}

// ReadDocument peeks the document at pos and, if it is Data, decodes its
// body into fn via RawFormat's schema-driven Decoder (ReadAt/ReadSequence).
// kind reports what was found and nextPos is where the next ReadDocument
// call should start.
func (w *RawWire) ReadDocument(pos int64, fn func(*raw.Decoder) error) (kind framing.Kind, nextPos int64, err error) {
	kind, bodyOffset, bodyLen, nextPos, err := w.ReadNext(pos, false)
	if err != nil || kind != framing.Data {
		return kind, nextPos, err
	}
	body := make([]byte, bodyLen)
	if _, err := w.Store.ReadBytes(bodyOffset, body); err != nil {
		return kind, nextPos, err
	}
	return kind, nextPos, fn(raw.NewRawDecoder(body))
}
