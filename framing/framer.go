// Package framing implements the framed-stream layer of docwire (spec §3,
// §4.1): 32-bit document headers, the append/reserve/commit protocol,
// CAS-based multi-writer contention, reader skip/scan, and the
// end-of-stream sentinel. It is deliberately codec-agnostic: it knows
// nothing about fields or values, only about header words and byte
// windows, so the codec core (package codec) and the three wire formats
// can be laid on top of it unmodified.
package framing

import (
	"fmt"
	"time"

	"code.hybscloud.com/docwire/bytestore"
	"code.hybscloud.com/docwire/pauser"
	"code.hybscloud.com/docwire/wireerr"
)

// HeaderNumberUnset is the HeaderNumber sentinel meaning "unset" (spec §3).
const HeaderNumberUnset int64 = -1 << 63

// FirstHeaderMaxLen is the spec §3 limit on the stream's offset-0 meta-data
// document: 64 KiB.
const FirstHeaderMaxLen = 64 * 1024

// Kind reports what ReadNext found at the current read position.
type Kind uint8

const (
	// None means nothing ready to read yet at the current position.
	None Kind = iota
	// Data is a ready data document.
	Data
	// Meta is a ready meta-data document.
	Meta
	// End means END_OF_DATA was observed: the stream is closed.
	End
)

// Options configures a Framer.
type Options struct {
	Pauser     pauser.Pauser
	Assertions bool
}

// Option mutates Options; see WithPauser, WithAssertions.
type Option func(*Options)

// WithPauser overrides the default busy-wait Pauser.
func WithPauser(p pauser.Pauser) Option { return func(o *Options) { o.Pauser = p } }

// WithAssertions toggles the extra CAS-on-commit and post-end zero-check
// (spec §4.1 updateHeader step 5, Design Notes §9 "Assertion-mode
// branching"). Default is !store.SharedMemory(): single-process stores get
// the stronger checks by default, cross-process shared-memory stores
// default to the cheaper ordered-store commit (SPEC_FULL.md §3).
func WithAssertions(on bool) Option { return func(o *Options) { o.Assertions = on } }

// Framer is the shared framing state embedded by each concrete Wire
// variant (package wire): it owns no codec knowledge, only the header
// protocol. A Framer is not safe for concurrent use by more than one
// caller at a time; see StartUse/EndUse.
type Framer struct {
	Store bytestore.ByteStore
	Pause pauser.Pauser

	assertions bool

	appendPos    int64
	headerNumber int64

	insideHeader   bool
	reservedOffset int64
	reservedMax    int64

	scope scope
}

// NewFramer returns a Framer over store with the given options applied.
func NewFramer(store bytestore.ByteStore, opts ...Option) *Framer {
	o := Options{Pauser: pauser.NewBusy(), Assertions: !store.SharedMemory()}
	for _, fn := range opts {
		fn(&o)
	}
	return &Framer{
		Store:        store,
		Pause:        o.Pauser,
		assertions:   o.Assertions,
		headerNumber: HeaderNumberUnset,
	}
}

// HeaderNumber returns the count of data documents this Framer has written
// or skipped, or HeaderNumberUnset if never set (spec §3 "HeaderNumber").
func (f *Framer) HeaderNumber() int64 { return f.headerNumber }

// SetHeaderNumber resynchronizes HeaderNumber, e.g. after recovery.
func (f *Framer) SetHeaderNumber(n int64) { f.headerNumber = n }

// AppendPosition returns this Framer's current append cursor.
func (f *Framer) AppendPosition() int64 { return f.appendPos }

// SetAppendPosition overrides the append cursor (used by the skip-ahead
// hint in Reserve, and by Recover).
func (f *Framer) SetAppendPosition(pos int64) { f.appendPos = pos }

// ---- first header ----

// WriteFirstHeader CASes offset 0 from NotInitialized to
// NotCompleteUnknownLength, reporting whether this caller won the race to
// initialize the stream.
func (f *Framer) WriteFirstHeader() (isInitializer bool, err error) {
	ok, err := f.Store.CompareAndSwapUint32(0, NotInitialized, NotCompleteUnknownLength)
	if err != nil {
		return false, err
	}
	if ok {
		f.appendPos = 4
	}
	return ok, nil
}

// UpdateFirstHeader commits the meta-data written at [4, writeCursor) as
// the first header. writtenLen must equal the number of body bytes
// already written via the Framer's body-writing cooperation with the
// caller (the codec tracks this; framing only validates and publishes).
func (f *Framer) UpdateFirstHeader(writtenLen int64) error {
	if writtenLen < 0 || writtenLen > FirstHeaderMaxLen {
		return wireerr.StreamCorrupted
	}
	h := composeHeader(uint32(writtenLen), true)
	if f.assertions {
		ok, err := f.Store.CompareAndSwapUint32(0, NotCompleteUnknownLength, h)
		if err != nil {
			return err
		}
		if !ok {
			return wireerr.StreamCorrupted
		}
	} else {
		if err := f.Store.OrderedWriteUint32(0, h); err != nil {
			return err
		}
	}
	f.appendPos = 4 + writtenLen
	return nil
}

// ReadFirstHeader spins (via Pause) until offset 0 is ready, validating it
// is meta-data and within the 64 KiB limit.
func (f *Framer) ReadFirstHeader(timeout time.Duration) (bodyLen int64, err error) {
	f.Pause.Reset()
	for {
		h, err := f.Store.VolatileReadUint32(0)
		if err != nil {
			return 0, err
		}
		state, length := decodeHeader(h)
		switch state {
		case stateMeta:
			if length > FirstHeaderMaxLen {
				return 0, wireerr.StreamCorrupted
			}
			return int64(length), nil
		case stateEnd:
			return 0, wireerr.EndOfStream
		case stateData:
			// Offset 0 must be meta-data per the stream invariant.
			return 0, wireerr.StreamCorrupted
		}
		if err := f.Pause.PauseTimeout(timeout); err != nil {
			return 0, err
		}
	}
}

// ---- reservation / commit ----

// Reserve reserves space for a document of at most requestedLen bytes (or
// UnknownLength for an unbounded reservation), scanning forward past
// already-committed documents when the current slot is occupied (spec
// §4.1 writeHeader). It returns the body's start offset in the Store.
func (f *Framer) Reserve(requestedLen uint32, timeout time.Duration) (bodyOffset int64, err error) {
	if f.insideHeader {
		return 0, fmt.Errorf("docwire: %w: reservation already in flight", wireerr.Reentrant)
	}
	if requestedLen != UnknownLength && requestedLen > MaxConcreteLength {
		return 0, wireerr.IllegalArgument
	}
	maxLen := int64(requestedLen)
	if requestedLen == UnknownLength {
		maxLen = int64(MaxLength)
	}
	if rem := f.Store.WriteRemaining(f.appendPos); rem < 4+maxLen {
		return 0, wireerr.NotEnoughSpace
	}

	f.Pause.Reset()
	pos := f.appendPos
	for {
		ok, cerr := f.Store.CompareAndSwapUint32(pos, NotInitialized, reservationValue(requestedLen))
		if cerr != nil {
			return 0, cerr
		}
		if ok {
			f.insideHeader = true
			f.reservedOffset = pos
			f.reservedMax = maxLen
			f.appendPos = pos
			return pos + 4, nil
		}

		// Someone else owns pos: scan forward.
		h, rerr := f.Store.VolatileReadUint32(pos)
		if rerr != nil {
			return 0, rerr
		}
		state, length := decodeHeader(h)
		switch state {
		case stateEnd:
			return 0, wireerr.EndOfStream
		case stateNotReady:
			if err := f.Pause.PauseTimeout(timeout); err != nil {
				return 0, err
			}
			continue
		case stateData:
			f.headerNumber++
			pos += 4 + int64(length)
		case stateMeta:
			pos += 4 + int64(length)
		}
		if rem := f.Store.WriteRemaining(pos); rem < 4+maxLen {
			return 0, wireerr.NotEnoughSpace
		}
	}
}

// SkipAhead implements the optional skip-ahead optimisation (spec §4.1
// step 4): when lastPosition is known to be well past the current append
// cursor, jump there directly and reset HeaderNumber to unset, since the
// documents between here and there were not scanned.
func (f *Framer) SkipAhead(lastPosition int64) {
	if lastPosition > f.appendPos+1<<20 {
		f.appendPos = lastPosition
		f.headerNumber = HeaderNumberUnset
	}
}

// Commit publishes the reservation opened by Reserve as ready, with body
// length writtenLen and the given meta flag (spec §4.1 updateHeader).
func (f *Framer) Commit(writtenLen int64, isMeta bool) error {
	if !f.insideHeader {
		return fmt.Errorf("docwire: %w: Commit without a matching Reserve", wireerr.IllegalArgument)
	}
	offset := f.reservedOffset

	if writtenLen == 0 && !isMeta {
		// Zero-length data documents are disallowed; pad with one byte
		// (spec §4.1 updateHeader step 1).
		if _, err := f.Store.WriteBytes(offset+4, []byte{0}); err != nil {
			return err
		}
		writtenLen = 1
	}

	if f.reservedMax != int64(MaxLength) && writtenLen > f.reservedMax {
		f.insideHeader = false
		return wireerr.LengthMismatch
	}
	if writtenLen > int64(MaxConcreteLength) {
		f.insideHeader = false
		return wireerr.IllegalArgument
	}

	newHeader := composeHeader(uint32(writtenLen), isMeta)

	if f.assertions {
		expected := reservationValue(requestedLenFor(f.reservedMax))
		ok, err := f.Store.CompareAndSwapUint32(offset, expected, newHeader)
		if err != nil {
			f.insideHeader = false
			return err
		}
		if !ok {
			f.insideHeader = false
			return wireerr.StreamCorrupted
		}
		tail, terr := f.Store.VolatileReadUint32(offset + 4 + writtenLen)
		if terr == nil && tail != 0 {
			f.insideHeader = false
			return wireerr.StreamCorrupted
		}
	} else {
		if err := f.Store.OrderedWriteUint32(offset, newHeader); err != nil {
			f.insideHeader = false
			return err
		}
	}

	f.appendPos = offset + 4 + writtenLen
	f.insideHeader = false
	if !isMeta {
		f.headerNumber++
	}
	return nil
}

// requestedLenFor reconstructs the reservation word's length field from
// the max bound recorded at Reserve time, for the assertion-mode CAS.
func requestedLenFor(maxLen int64) uint32 {
	if maxLen == int64(MaxLength) {
		return UnknownLength
	}
	return uint32(maxLen)
}

// Abandon releases a reservation without committing it (e.g. because the
// codec encountered an error after Reserve). The stream is left unchanged;
// another Reserve/Commit pair may still be attempted at the same offset by
// this Framer, since nothing else can have observed it as ready.
func (f *Framer) Abandon() {
	if f.insideHeader {
		// Hand the slot back: swap the reservation word to NotInitialized.
		_, _ = f.Store.CompareAndSwapUint32(f.reservedOffset, reservationValue(requestedLenFor(f.reservedMax)), NotInitialized)
	}
	f.insideHeader = false
}

// ---- reading ----

// ReadNext peeks the header at the current read position and advances
// past meta-data documents when includeMeta is false (spec §4.1
// readDataHeader/readMetaDataHeader). On Data or Meta it also returns the
// document's body bounds.
func (f *Framer) ReadNext(pos int64, includeMeta bool) (kind Kind, bodyOffset, bodyLen int64, nextPos int64, err error) {
	for {
		h, rerr := f.Store.VolatileReadUint32(pos)
		if rerr != nil {
			return None, 0, 0, pos, rerr
		}
		state, length := decodeHeader(h)
		switch state {
		case stateNotReady:
			return None, 0, 0, pos, nil
		case stateEnd:
			return End, 0, 0, pos, nil
		case stateMeta:
			if !includeMeta {
				pos += 4 + int64(length)
				continue
			}
			return Meta, pos + 4, int64(length), pos + 4 + int64(length), nil
		case stateData:
			return Data, pos + 4, int64(length), pos + 4 + int64(length), nil
		}
	}
}

// ---- end of stream ----

// WriteEndOfWire publishes END_OF_DATA at the next free slot (spec §4.1
// "End of stream"). It is idempotent: if END_OF_DATA is already present at
// the scanned slot, it returns success without modifying anything.
func (f *Framer) WriteEndOfWire(timeout time.Duration) error {
	f.Pause.Reset()
	pos := f.appendPos
	for {
		ok, err := f.Store.CompareAndSwapUint32(pos, NotInitialized, EndOfDataHeader)
		if err != nil {
			return err
		}
		if ok {
			f.appendPos = pos
			return nil
		}
		h, err := f.Store.VolatileReadUint32(pos)
		if err != nil {
			return err
		}
		state, length := decodeHeader(h)
		switch state {
		case stateEnd:
			f.appendPos = pos
			return nil
		case stateNotReady:
			if err := f.Pause.PauseTimeout(timeout); err != nil {
				return err
			}
		case stateData:
			pos += 4 + int64(length)
		case stateMeta:
			pos += 4 + int64(length)
		}
	}
}

// Recover rebuilds appendPos and headerNumber by linearly scanning from
// offset 0 until the first not-ready slot or END_OF_DATA (SPEC_FULL.md §3
// "Stream recovery scan"): the read-only reuse of the scan-forward loop,
// for a process that lost track of its write cursor (e.g. after restart).
func (f *Framer) Recover() error {
	pos := int64(0)
	f.headerNumber = 0
	sawFirst := false
	for {
		h, err := f.Store.VolatileReadUint32(pos)
		if err != nil {
			return err
		}
		state, length := decodeHeader(h)
		switch state {
		case stateNotReady:
			f.appendPos = pos
			return nil
		case stateEnd:
			f.appendPos = pos
			return nil
		case stateMeta:
			if !sawFirst && pos != 0 {
				return wireerr.StreamCorrupted
			}
			sawFirst = true
			pos += 4 + int64(length)
		case stateData:
			f.headerNumber++
			pos += 4 + int64(length)
		}
	}
}

// StartUse/EndUse: see scope.go.
func (f *Framer) StartUse() (func(), error) { return f.scope.start() }
