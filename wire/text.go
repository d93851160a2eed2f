package wire

import (
	"code.hybscloud.com/docwire/bytestore"
	"code.hybscloud.com/docwire/format/text"
	"code.hybscloud.com/docwire/framing"
)

// TextWire is the Wire variant that renders documents as TextFormat: a
// YAML-subset any human can read, at the cost of no compact integer/float
// widths and no BoundRef support (spec §4.4).
type TextWire struct {
	selfDescribingWire
}

// NewTextWire returns a TextWire over store.
func NewTextWire(store bytestore.ByteStore, opts ...framing.Option) *TextWire {
	return &TextWire{selfDescribingWire{
		Framer: framing.NewFramer(store, opts...),
		format: text.Format{},
	}}
}
