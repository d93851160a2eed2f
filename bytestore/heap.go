package bytestore

import (
	"sync/atomic"
	"unsafe"
)

// Heap is a process-local ByteStore backed by a plain heap-allocated byte
// slice. It is the default store for single-process use (tests, a
// queue-entry buffer shared only between goroutines of one binary).
type Heap struct {
	buf []byte
}

// NewHeap allocates a Heap store of the given capacity in bytes.
func NewHeap(capacity int) *Heap {
	return &Heap{buf: make([]byte, capacity)}
}

func (h *Heap) RealCapacity() int64    { return int64(len(h.buf)) }
func (h *Heap) SharedMemory() bool     { return false }
func (h *Heap) WriteRemaining(off int64) int64 {
	if off < 0 || off > int64(len(h.buf)) {
		return 0
	}
	return int64(len(h.buf)) - off
}
func (h *Heap) ReadRemaining(off int64) int64 { return h.WriteRemaining(off) }

func (h *Heap) ptr32(off int64) *uint32 {
	return (*uint32)(unsafe.Pointer(&h.buf[off]))
}

func (h *Heap) ptr64(off int64) *uint64 {
	return (*uint64)(unsafe.Pointer(&h.buf[off]))
}

func (h *Heap) VolatileReadUint32(off int64) (uint32, error) {
	if err := checkBounds(h.RealCapacity(), off, 4); err != nil {
		return 0, err
	}
	if err := checkAlign(off, 4); err != nil {
		return 0, err
	}
	return atomic.LoadUint32(h.ptr32(off)), nil
}

func (h *Heap) VolatileWriteUint32(off int64, v uint32) error {
	if err := checkBounds(h.RealCapacity(), off, 4); err != nil {
		return err
	}
	if err := checkAlign(off, 4); err != nil {
		return err
	}
	atomic.StoreUint32(h.ptr32(off), v)
	return nil
}

func (h *Heap) OrderedWriteUint32(off int64, v uint32) error {
	// sync/atomic stores on amd64/arm64 already carry release semantics;
	// there is no weaker "ordered-but-not-sequentially-consistent" store
	// exposed by the standard library, so Ordered and Volatile coincide here.
	return h.VolatileWriteUint32(off, v)
}

func (h *Heap) CompareAndSwapUint32(off int64, old, new uint32) (bool, error) {
	if err := checkBounds(h.RealCapacity(), off, 4); err != nil {
		return false, err
	}
	if err := checkAlign(off, 4); err != nil {
		return false, err
	}
	return atomic.CompareAndSwapUint32(h.ptr32(off), old, new), nil
}

func (h *Heap) AddUint32(off int64, delta uint32) (uint32, error) {
	if err := checkBounds(h.RealCapacity(), off, 4); err != nil {
		return 0, err
	}
	if err := checkAlign(off, 4); err != nil {
		return 0, err
	}
	return atomic.AddUint32(h.ptr32(off), delta), nil
}

func (h *Heap) VolatileReadUint64(off int64) (uint64, error) {
	if err := checkBounds(h.RealCapacity(), off, 8); err != nil {
		return 0, err
	}
	if err := checkAlign(off, 8); err != nil {
		return 0, err
	}
	return atomic.LoadUint64(h.ptr64(off)), nil
}

func (h *Heap) VolatileWriteUint64(off int64, v uint64) error {
	if err := checkBounds(h.RealCapacity(), off, 8); err != nil {
		return err
	}
	if err := checkAlign(off, 8); err != nil {
		return err
	}
	atomic.StoreUint64(h.ptr64(off), v)
	return nil
}

func (h *Heap) OrderedWriteUint64(off int64, v uint64) error {
	return h.VolatileWriteUint64(off, v)
}

func (h *Heap) CompareAndSwapUint64(off int64, old, new uint64) (bool, error) {
	if err := checkBounds(h.RealCapacity(), off, 8); err != nil {
		return false, err
	}
	if err := checkAlign(off, 8); err != nil {
		return false, err
	}
	return atomic.CompareAndSwapUint64(h.ptr64(off), old, new), nil
}

func (h *Heap) AddUint64(off int64, delta uint64) (uint64, error) {
	if err := checkBounds(h.RealCapacity(), off, 8); err != nil {
		return 0, err
	}
	if err := checkAlign(off, 8); err != nil {
		return 0, err
	}
	return atomic.AddUint64(h.ptr64(off), delta), nil
}

func (h *Heap) WriteBytes(off int64, p []byte) (int, error) {
	if err := checkBounds(h.RealCapacity(), off, int64(len(p))); err != nil {
		return 0, err
	}
	return copy(h.buf[off:], p), nil
}

func (h *Heap) ReadBytes(off int64, p []byte) (int, error) {
	if err := checkBounds(h.RealCapacity(), off, int64(len(p))); err != nil {
		return 0, err
	}
	return copy(p, h.buf[off:off+int64(len(p))]), nil
}
