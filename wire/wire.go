// Package wire ties framing, the codec core, and the three concrete
// Formats together into the three closed Wire variants spec §9 calls for:
// TextWire, BinaryWire, and RawWire. Rather than a deep class hierarchy
// over wire variants, the common framing/scope state lives in one shared
// aggregate (selfDescribingWire for Text/Binary; *framing.Framer directly
// for Raw, which has no codec.Writer/Reader surface to share), and each
// variant adds only the read/write methods its own payload model needs.
package wire

import (
	"time"

	"code.hybscloud.com/docwire/framing"
)

// Wire is the capability set common to every variant: framing operations
// plus the single-use scope guard (spec §9 "Represent as a single Wire
// interface"). Every concrete variant satisfies it by embedding
// *framing.Framer, whose methods are promoted automatically — there is no
// per-variant framing logic to maintain.
type Wire interface {
	StartUse() (func(), error)
	WriteFirstHeader() (bool, error)
	UpdateFirstHeader(writtenLen int64) error
	ReadFirstHeader(timeout time.Duration) (int64, error)
	Reserve(requestedLen uint32, timeout time.Duration) (int64, error)
	Commit(writtenLen int64, isMeta bool) error
	Abandon()
	ReadNext(pos int64, includeMeta bool) (framing.Kind, int64, int64, int64, error)
	WriteEndOfWire(timeout time.Duration) error
	Recover() error
	AppendPosition() int64
	HeaderNumber() int64
	SetHeaderNumber(int64)
}

var (
	_ Wire = (*TextWire)(nil)
	_ Wire = (*BinaryWire)(nil)
	_ Wire = (*RawWire)(nil)
)
