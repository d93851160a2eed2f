// Package bytestore defines the ByteStore collaborator consumed by framing
// and boundref (spec §6): a random-access, bounded buffer offering volatile
// 32/64-bit I/O, compare-and-swap, and a bulk cursor-based copy, plus two
// concrete implementations — Heap (process-local) and MMap (inter-process
// shared memory) — so the framing and boundref layers can be exercised
// end-to-end without a storage backend of their own. The interface itself,
// not any one implementation, is the contract framing/boundref depend on;
// spec.md treats ByteStore as wholly external.
package bytestore

import "code.hybscloud.com/docwire/wireerr"

// ByteStore is a bounded, random-access byte buffer supporting the atomic
// primitives framing and boundref need to publish and observe document
// headers and bound scalars without tearing.
//
// All offset-taking methods are absolute (from the start of the store, not
// relative to any write/read cursor). Implementations must bounds-check
// every call and report wireerr.NotEnoughSpace (not panic) when an offset
// plus width exceeds RealCapacity.
type ByteStore interface {
	// VolatileReadUint32 performs an acquire-ordered 32-bit load at off.
	VolatileReadUint32(off int64) (uint32, error)
	// VolatileWriteUint32 performs a plain (non-ordered) 32-bit store at off.
	VolatileWriteUint32(off int64, v uint32) error
	// OrderedWriteUint32 performs a release-ordered 32-bit store at off —
	// the publication primitive framing uses to commit a document header.
	OrderedWriteUint32(off int64, v uint32) error
	// CompareAndSwapUint32 atomically swaps the 32-bit word at off from old
	// to new, reporting whether the swap succeeded.
	CompareAndSwapUint32(off int64, old, new uint32) (bool, error)

	// VolatileReadUint64 performs an acquire-ordered 64-bit load at off.
	VolatileReadUint64(off int64) (uint64, error)
	// VolatileWriteUint64 performs a plain (non-ordered) 64-bit store at off.
	VolatileWriteUint64(off int64, v uint64) error
	// OrderedWriteUint64 performs a release-ordered 64-bit store at off.
	OrderedWriteUint64(off int64, v uint64) error
	// CompareAndSwapUint64 atomically swaps the 64-bit word at off.
	CompareAndSwapUint64(off int64, old, new uint64) (bool, error)
	// AddUint32 atomically adds delta to the 32-bit word at off, returning
	// the new value (boundref's getAndAdd building block).
	AddUint32(off int64, delta uint32) (uint32, error)
	// AddUint64 atomically adds delta to the 64-bit word at off.
	AddUint64(off int64, delta uint64) (uint64, error)

	// WriteBytes copies p into the store starting at off.
	WriteBytes(off int64, p []byte) (int, error)
	// ReadBytes copies len(p) bytes from the store starting at off into p.
	ReadBytes(off int64, p []byte) (int, error)

	// WriteRemaining reports how many bytes remain writable from off.
	WriteRemaining(off int64) int64
	// ReadRemaining reports how many bytes remain readable from off.
	ReadRemaining(off int64) int64
	// RealCapacity reports the total addressable size of the store.
	RealCapacity() int64
	// SharedMemory reports whether the store may be concurrently mapped by
	// more than one OS process, which framing uses to pick sane assertion-
	// mode defaults (SPEC_FULL.md §3).
	SharedMemory() bool
}

func checkBounds(capacity, off, width int64) error {
	if off < 0 || width < 0 {
		return wireerr.IllegalArgument
	}
	if off+width > capacity {
		return wireerr.NotEnoughSpace
	}
	return nil
}

func checkAlign(off int64, width int64) error {
	if off%width != 0 {
		return wireerr.IllegalArgument
	}
	return nil
}
