package framing

// Header bit layout (spec §3 "Document"): a 32-bit word where, for a
// committed header, bit 31 is the ready flag and bit 30 is the meta flag,
// with the low 30 bits carrying the body length. Three bit patterns are
// reserved magic values checked by exact equality ahead of the generic
// bit decode, because they do not themselves obey the generic ready/meta/
// length decomposition (see DESIGN.md's "header sentinel" Open Question
// resolution for why the generic decode alone cannot distinguish them).
const (
	readyBit   uint32 = 1 << 31
	metaBit    uint32 = 1 << 30
	LengthMask uint32 = 0x3FFF_FFFF

	// NotInitialized marks a stream slot nobody has reserved yet.
	NotInitialized uint32 = 0x0000_0000
	// NotCompleteUnknownLength marks the first-header reservation in
	// flight, before its eventual meta-data length is known.
	NotCompleteUnknownLength uint32 = 0x8000_0000
	// EndOfDataHeader terminates a stream; it is always immediately
	// observable (no waiting) and never regresses once written.
	EndOfDataHeader uint32 = 0xC000_0000
	// UnknownLength requests an unbounded-at-reservation-time body; the
	// actual length is adopted from the write cursor at commit time.
	UnknownLength uint32 = 0x3FFF_FFFF
	// MaxLength is the largest expressible body length; it coincides with
	// UnknownLength's bit pattern, so callers distinguish the two by
	// context (a length argument) rather than by value alone.
	MaxLength uint32 = 0x3FFF_FFFF
	// MaxConcreteLength is the largest length a reservation can request
	// without being interpreted as UnknownLength.
	MaxConcreteLength uint32 = LengthMask - 1
)

// readState is the outcome of decoding a header for reading.
type readState uint8

const (
	stateNotReady readState = iota
	stateEnd
	stateMeta
	stateData
)

// decodeHeader classifies a raw header word.
func decodeHeader(h uint32) (readState, uint32) {
	switch h {
	case NotInitialized, NotCompleteUnknownLength:
		return stateNotReady, 0
	case EndOfDataHeader:
		return stateEnd, 0
	}
	if h&readyBit == 0 {
		return stateNotReady, h & LengthMask
	}
	if h&metaBit != 0 {
		return stateMeta, h & LengthMask
	}
	return stateData, h & LengthMask
}

// composeHeader builds the committed-header bit pattern for a body of the
// given length (spec §4.1 updateHeader step 4).
func composeHeader(length uint32, meta bool) uint32 {
	h := readyBit | (length & LengthMask)
	if meta {
		h |= metaBit
	}
	return h
}

// reservationValue builds the not-ready reservation word for a generic
// (non-first) document (spec §4.1 step 2): bit31 and bit30 both clear,
// body length (or UnknownLength) in the low 30 bits.
func reservationValue(requestedLen uint32) uint32 {
	return requestedLen & LengthMask
}
