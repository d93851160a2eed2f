// Command wiredump dumps every document in a docwire stream to stdout in
// TextFormat, regardless of which format actually wrote it: it peeks the
// self-describing discovery byte (spec §4.4/§4.5) to tell TextFormat from
// BinaryFormat, decodes generically via codec.Reader, and re-renders with
// format/text. RawFormat bodies carry no discovery byte and no schema, so
// they are dumped as a hex blob instead.
package main

import (
	"encoding/hex"
	"flag"
	"log"
	"os"

	"code.hybscloud.com/docwire/bytestore"
	"code.hybscloud.com/docwire/codec"
	"code.hybscloud.com/docwire/format"
	"code.hybscloud.com/docwire/format/binary"
	"code.hybscloud.com/docwire/format/text"
	"code.hybscloud.com/docwire/framing"
	"code.hybscloud.com/docwire/value"
)

func main() {
	var (
		path = flag.String("file", "", "docwire stream file to dump")
	)
	flag.Parse()
	if *path == "" {
		log.Fatal("wiredump: -file is required")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("wiredump: reading %s: %v", *path, err)
	}

	store := bytestore.NewHeap(len(data))
	if _, err := store.WriteBytes(0, data); err != nil {
		log.Fatalf("wiredump: loading %s into store: %v", *path, err)
	}

	fr := framing.NewFramer(store)
	if err := fr.Recover(); err != nil {
		log.Fatalf("wiredump: recovering stream state: %v", err)
	}
	log.Printf("wiredump: %s: %d bytes, %d data documents", *path, len(data), fr.HeaderNumber())

	pos := int64(0)
	for {
		kind, bodyOffset, bodyLen, nextPos, err := fr.ReadNext(pos, true)
		if err != nil {
			log.Fatalf("wiredump: reading header at %d: %v", pos, err)
		}
		switch kind {
		case framing.None:
			log.Printf("wiredump: reached the write cursor at offset %d", pos)
			return
		case framing.End:
			log.Printf("wiredump: end of stream at offset %d", pos)
			return
		}

		body := make([]byte, bodyLen)
		if _, err := store.ReadBytes(bodyOffset, body); err != nil {
			log.Fatalf("wiredump: reading body at %d: %v", bodyOffset, err)
		}
		label := "data"
		if kind == framing.Meta {
			label = "meta"
		}
		dumpDocument(pos, label, body)
		pos = nextPos
	}
}

func dumpDocument(pos int64, label string, body []byte) {
	f, ok := detectFormat(body)
	if !ok {
		log.Printf("--- %s document at %d (raw, %d bytes) ---", label, pos, len(body))
		os.Stdout.WriteString(hex.Dump(body))
		return
	}

	r := codec.NewReader(f, body)
	fields, err := r.CollectUnknown()
	if err != nil {
		log.Printf("--- %s document at %d: decode error: %v ---", label, pos, err)
		return
	}
	log.Printf("--- %s document at %d (%s) ---", label, pos, f.Name())
	w := codec.NewWriter(text.Format{})
	for _, fv := range fields {
		if fv.Value.Kind == value.KindBound {
			// A bound scalar only means something paired with the
			// ByteStore it lives in; re-rendering it as text would lose
			// that, so it is reported by offset instead.
			log.Printf("  %s: <bound scalar at body offset %d>", fv.Field.String(), fv.Value.BoundRelOffset)
			continue
		}
		if err := w.WriteField(fv.Field, fv.Value); err != nil {
			log.Printf("  %s: <unrenderable: %v>", fv.Field.String(), err)
			continue
		}
	}
	os.Stdout.Write(w.Bytes())
}

// detectFormat applies the self-describing discovery rule (spec §4.4
// "Self-describing discovery rule", §4.5 "Discovery rule"): a text
// document's first byte is ASCII-printable, a binary document's first
// byte has bit 7 set. An empty body or a RawFormat body (no rule applies)
// reports ok=false.
func detectFormat(body []byte) (format.Format, bool) {
	if len(body) == 0 {
		return nil, false
	}
	if body[0] >= 0x80 {
		return binary.Format{}, true
	}
	if body[0] >= 0x20 && body[0] < 0x7F {
		return text.Format{}, true
	}
	return nil, false
}
