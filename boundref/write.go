package boundref

import "code.hybscloud.com/docwire/bytestore"

// WriteScalar writes initial at writeOffset (absolute, the document's
// current write cursor) and returns a BoundRef whose Offset is relative to
// bodyBase, per ValueOut.boundScalar (spec §4.7). Callers advance their
// write cursor by int64(width) after this call.
func WriteScalar(store bytestore.ByteStore, bodyBase, writeOffset int64, width Width, initial uint64) (BoundRef, error) {
	switch width {
	case Width32:
		if err := store.VolatileWriteUint32(writeOffset, uint32(initial)); err != nil {
			return BoundRef{}, err
		}
	case Width64:
		if err := store.VolatileWriteUint64(writeOffset, initial); err != nil {
			return BoundRef{}, err
		}
	}
	return Scalar(writeOffset-bodyBase, width), nil
}
