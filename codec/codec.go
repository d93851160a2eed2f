// Package codec implements the format-agnostic value codec (spec §4.3):
// a writer/reader surface over a single document body, format-independent
// schema-evolution guarantees (order-independence via lazy-match reorder
// buffering, unknown-field retention, default-on-missing), layered on top
// of whichever format.Format drives the actual bytes. RawFormat opts out
// of this layer entirely (spec §4.6 "no schema evolution"); wire.RawWire
// talks to format/raw directly instead.
package codec

import (
	"fmt"

	"code.hybscloud.com/docwire/value"
	"code.hybscloud.com/docwire/wireerr"
)

// FieldValue pairs a decoded field identity with its value, in the order
// CollectUnknown yields them (spec §4.3 "unknown-field retention").
type FieldValue struct {
	Field value.Field
	Value value.Value
}

func schemaMismatch(format string, want, got value.Kind) error {
	return fmt.Errorf("docwire: codec(%s): %w: want %s, got %s", format, wireerr.SchemaMismatch, want, got)
}
