// Package docwire is a polymorphic wire-format engine: one abstract
// document model — fields, scalars, sequences, typed objects, and bound
// references — that can be framed over a shared byte buffer and rendered
// or parsed as human-readable text (TextFormat), self-describing binary
// (BinaryFormat), or field-less positional binary (RawFormat), with
// bit-exact round-tripping across formats where the chosen format
// preserves the requisite metadata.
//
// The module is organized in layers, outermost first:
//
//   - wire: the three closed Wire variants (TextWire, BinaryWire, RawWire)
//     a caller actually constructs, each combining framing with one Format.
//   - codec: the format-agnostic Writer/Reader that gives TextFormat and
//     BinaryFormat their schema-evolution guarantees (reordering, unknown
//     fields, default-on-missing) on top of any format.Format.
//   - format/text, format/binary, format/raw: the three concrete wire
//     layouts.
//   - framing: the append/reserve/commit protocol over a ByteStore, plus
//     reader skip/scan and the end-of-stream sentinel — codec-agnostic.
//   - boundref: lock-free volatile scalar access into a framed document
//     body, usable across process boundaries over a shared ByteStore.
//   - bytestore, classalias, pauser, value, wireerr: collaborators shared
//     by every layer above.
//
// transportframe is a separate, self-contained network framing carrier
// (length-prefixed stream adaptation over io.Reader/io.Writer) used to
// move documents between processes; it has no dependency on the document
// model above and can be used on its own.
package docwire
