//go:build unix

package bytestore

import (
	"syscall"
)

// MMap is a ByteStore backed by a memory-mapped file, shared by MAP_SHARED
// across OS processes. It is the backend for the spec's "bound in-memory
// state shared across processes" use case: one writer process and one or
// more reader processes opening the same path observe the same header and
// body bytes without any IPC beyond the mapping itself.
//
// Grounded on the mmap-open sequence in
// other_examples/.../calvinalkan-agent-task/pkg/slotcache (open.go/cache.go):
// open the file descriptor, size it, map it PROT_READ|PROT_WRITE/MAP_SHARED.
type MMap struct {
	fd   int
	data []byte
}

// OpenMMap opens or creates path, truncates/grows it to size bytes, and
// maps it MAP_SHARED. Closing the returned store unmaps and closes the fd.
func OpenMMap(path string, size int64) (*MMap, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_CREAT, 0o600)
	if err != nil {
		return nil, err
	}
	if err := syscall.Ftruncate(fd, size); err != nil {
		_ = syscall.Close(fd)
		return nil, err
	}
	data, err := syscall.Mmap(fd, 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		_ = syscall.Close(fd)
		return nil, err
	}
	return &MMap{fd: fd, data: data}, nil
}

// Close unmaps the file and closes the descriptor. Idempotent.
func (m *MMap) Close() error {
	if m.data == nil {
		return nil
	}
	err := syscall.Munmap(m.data)
	m.data = nil
	if cerr := syscall.Close(m.fd); err == nil {
		err = cerr
	}
	m.fd = -1
	return err
}

func (m *MMap) RealCapacity() int64 { return int64(len(m.data)) }
func (m *MMap) SharedMemory() bool  { return true }

func (m *MMap) WriteRemaining(off int64) int64 {
	if off < 0 || off > int64(len(m.data)) {
		return 0
	}
	return int64(len(m.data)) - off
}
func (m *MMap) ReadRemaining(off int64) int64 { return m.WriteRemaining(off) }

// heapView adapts the mapping's backing array to the Heap atomic helpers
// without copying: MMap and Heap share their word-level access logic, the
// only difference is provenance of the buffer and SharedMemory()'s answer.
func (m *MMap) heapView() *Heap {
	if m.data == nil {
		return &Heap{}
	}
	return &Heap{buf: m.data}
}

func (m *MMap) VolatileReadUint32(off int64) (uint32, error) {
	return m.heapView().VolatileReadUint32(off)
}
func (m *MMap) VolatileWriteUint32(off int64, v uint32) error {
	return m.heapView().VolatileWriteUint32(off, v)
}
func (m *MMap) OrderedWriteUint32(off int64, v uint32) error {
	return m.heapView().OrderedWriteUint32(off, v)
}
func (m *MMap) CompareAndSwapUint32(off int64, old, new uint32) (bool, error) {
	return m.heapView().CompareAndSwapUint32(off, old, new)
}
func (m *MMap) AddUint32(off int64, delta uint32) (uint32, error) {
	return m.heapView().AddUint32(off, delta)
}
func (m *MMap) VolatileReadUint64(off int64) (uint64, error) {
	return m.heapView().VolatileReadUint64(off)
}
func (m *MMap) VolatileWriteUint64(off int64, v uint64) error {
	return m.heapView().VolatileWriteUint64(off, v)
}
func (m *MMap) OrderedWriteUint64(off int64, v uint64) error {
	return m.heapView().OrderedWriteUint64(off, v)
}
func (m *MMap) CompareAndSwapUint64(off int64, old, new uint64) (bool, error) {
	return m.heapView().CompareAndSwapUint64(off, old, new)
}
func (m *MMap) AddUint64(off int64, delta uint64) (uint64, error) {
	return m.heapView().AddUint64(off, delta)
}
func (m *MMap) WriteBytes(off int64, p []byte) (int, error) {
	return m.heapView().WriteBytes(off, p)
}
func (m *MMap) ReadBytes(off int64, p []byte) (int, error) {
	return m.heapView().ReadBytes(off, p)
}
