// Package boundref implements BoundRef (spec §4.7): a stable offset+width
// handle into a document body that supports atomic volatile read/write,
// compare-and-set, and get-and-add, delegating every primitive to the
// bytestore.ByteStore the document lives in. A BoundRef survives past the
// write that created it and may be handed to another process sharing the
// same ByteStore.
package boundref

import (
	"code.hybscloud.com/docwire/bytestore"
	"code.hybscloud.com/docwire/wireerr"
)

// Width is the fixed byte width of a bound scalar: 4 or 8.
type Width int

const (
	Width32 Width = 4
	Width64 Width = 8
)

// BoundRef is a cursor into a body region holding a fixed-width scalar, or
// an array of arrayLen such scalars (spec §3 "BoundRef"). Offset is
// relative to the start of the document body it was captured from; callers
// combine it with that body's absolute start offset (bodyBase) on every
// operation, since a BoundRef is only ever meaningful paired with the
// ByteStore and body it was captured against.
type BoundRef struct {
	Offset   int64
	Width    Width
	ArrayLen int
}

// Scalar returns a BoundRef to a single scalar of the given width at the
// given body-relative offset.
func Scalar(offset int64, width Width) BoundRef {
	return BoundRef{Offset: offset, Width: width, ArrayLen: 1}
}

// Array returns a BoundRef to n consecutive scalars of the given width,
// starting at the given body-relative offset.
func Array(offset int64, width Width, n int) BoundRef {
	return BoundRef{Offset: offset, Width: width, ArrayLen: n}
}

func (r BoundRef) elementOffset(bodyBase int64, index int) (int64, error) {
	if index < 0 || index >= r.ArrayLen {
		return 0, wireerr.IllegalArgument
	}
	return bodyBase + r.Offset + int64(index)*int64(r.Width), nil
}

// VolatileGet reads element index (0 for a scalar BoundRef) with acquire
// semantics.
func VolatileGet(store bytestore.ByteStore, bodyBase int64, r BoundRef, index int) (uint64, error) {
	off, err := r.elementOffset(bodyBase, index)
	if err != nil {
		return 0, err
	}
	switch r.Width {
	case Width32:
		v, err := store.VolatileReadUint32(off)
		return uint64(v), err
	case Width64:
		return store.VolatileReadUint64(off)
	default:
		return 0, wireerr.IllegalArgument
	}
}

// OrderedSet writes element index with release semantics.
func OrderedSet(store bytestore.ByteStore, bodyBase int64, r BoundRef, index int, v uint64) error {
	off, err := r.elementOffset(bodyBase, index)
	if err != nil {
		return err
	}
	switch r.Width {
	case Width32:
		return store.OrderedWriteUint32(off, uint32(v))
	case Width64:
		return store.OrderedWriteUint64(off, v)
	default:
		return wireerr.IllegalArgument
	}
}

// CompareAndSet atomically swaps element index from old to new, reporting
// whether the swap succeeded.
func CompareAndSet(store bytestore.ByteStore, bodyBase int64, r BoundRef, index int, old, new uint64) (bool, error) {
	off, err := r.elementOffset(bodyBase, index)
	if err != nil {
		return false, err
	}
	switch r.Width {
	case Width32:
		return store.CompareAndSwapUint32(off, uint32(old), uint32(new))
	case Width64:
		return store.CompareAndSwapUint64(off, old, new)
	default:
		return false, wireerr.IllegalArgument
	}
}

// GetAndAdd atomically adds delta to element index, returning the value
// the element held *before* the add (spec §8 "Bound references": N
// concurrent getAndAdd(1) calls return N distinct consecutive values).
func GetAndAdd(store bytestore.ByteStore, bodyBase int64, r BoundRef, index int, delta uint64) (uint64, error) {
	off, err := r.elementOffset(bodyBase, index)
	if err != nil {
		return 0, err
	}
	switch r.Width {
	case Width32:
		after, err := store.AddUint32(off, uint32(delta))
		if err != nil {
			return 0, err
		}
		return uint64(after - uint32(delta)), nil
	case Width64:
		after, err := store.AddUint64(off, delta)
		if err != nil {
			return 0, err
		}
		return after - delta, nil
	default:
		return 0, wireerr.IllegalArgument
	}
}
