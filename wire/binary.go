package wire

import (
	"code.hybscloud.com/docwire/bytestore"
	"code.hybscloud.com/docwire/format/binary"
	"code.hybscloud.com/docwire/framing"
)

// BinaryWire is the Wire variant that renders documents as BinaryFormat:
// compact, self-describing, tagged binary, the only self-describing
// format that also supports BoundRef scalars (spec §4.5, §4.7).
type BinaryWire struct {
	selfDescribingWire
}

// NewBinaryWire returns a BinaryWire over store.
func NewBinaryWire(store bytestore.ByteStore, opts ...framing.Option) *BinaryWire {
	return &BinaryWire{selfDescribingWire{
		Framer: framing.NewFramer(store, opts...),
		format: binary.Format{},
	}}
}
