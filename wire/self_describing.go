package wire

import (
	"time"

	"code.hybscloud.com/docwire/codec"
	"code.hybscloud.com/docwire/format"
	"code.hybscloud.com/docwire/framing"
)

// selfDescribingWire is the shared aggregate behind TextWire and
// BinaryWire: both drive a codec.Writer/codec.Reader over a single
// format.Format, so every read/write method lives here once instead of
// being duplicated per variant.
type selfDescribingWire struct {
	*framing.Framer
	format format.Format
}

// WriteFirstDocument writes the stream's offset-0 meta-data document,
// reporting whether this caller won the race to initialize the stream
// (spec §3 "first header"). If isInitializer is false, fn was not called
// and the stream was already initialized by someone else.
func (w *selfDescribingWire) WriteFirstDocument(fn func(*codec.Writer) error) (isInitializer bool, err error) {
	end, err := w.StartUse()
	if err != nil {
		return false, err
	}
	defer end()

	isInit, err := w.WriteFirstHeader()
	if err != nil || !isInit {
		return isInit, err
	}
	cw := codec.NewWriter(w.format)
	if err := fn(cw); err != nil {
		return true, err
	}
	body := cw.Bytes()
	if _, err := w.Store.WriteBytes(4, body); err != nil {
		return true, err
	}
	return true, w.UpdateFirstHeader(int64(len(body)))
}

// ReadFirstDocument blocks (per timeout) until the first header is ready,
// then decodes it into fn.
func (w *selfDescribingWire) ReadFirstDocument(timeout time.Duration, fn func(*codec.Reader) error) error {
	bodyLen, err := w.ReadFirstHeader(timeout)
	if err != nil {
		return err
	}
	body := make([]byte, bodyLen)
	if _, err := w.Store.ReadBytes(4, body); err != nil {
		return err
	}
	return fn(codec.NewReader(w.format, body))
}

// WriteDocument reserves, encodes via fn, and commits one data document.
func (w *selfDescribingWire) WriteDocument(timeout time.Duration, fn func(*codec.Writer) error) error {
	end, err := w.StartUse()
	if err != nil {
		return err
	}
	defer end()

	cw := codec.NewWriter(w.format)
	if err := fn(cw); err != nil {
		return err
	}
	body := cw.Bytes()
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

// ReadDocument peeks the document at pos and, if it is Data (or Meta with
// includeMeta set), decodes its body into fn. kind reports what was found
// and nextPos is where the next ReadDocument call should start; fn is not
// called for None or End.
func (w *selfDescribingWire) ReadDocument(pos int64, includeMeta bool, fn func(*codec.Reader) error) (kind framing.Kind, nextPos int64, err error) {
	kind, bodyOffset, bodyLen, nextPos, err := w.ReadNext(pos, includeMeta)
	if err != nil || (kind != framing.Data && kind != framing.Meta) {
		return kind, nextPos, err
	}
	body := make([]byte, bodyLen)
	if _, err := w.Store.ReadBytes(bodyOffset, body); err != nil {
		return kind, nextPos, err
	}
	return kind, nextPos, fn(codec.NewReader(w.format, body))
}
