package codec_test

import (
	"testing"

	"code.hybscloud.com/docwire/boundref"
	"code.hybscloud.com/docwire/classalias"
	"code.hybscloud.com/docwire/codec"
	"code.hybscloud.com/docwire/format"
	"code.hybscloud.com/docwire/format/binary"
	"code.hybscloud.com/docwire/format/text"
	"code.hybscloud.com/docwire/value"
)

func formats() map[string]format.Format {
	return map[string]format.Format{
		"text":   text.Format{},
		"binary": binary.Format{},
	}
}

func TestReadField_OutOfOrderIsFoundByScanningAhead(t *testing.T) {
	for name, f := range formats() {
		t.Run(name, func(t *testing.T) {
			w := codec.NewWriter(f)
			must(t, w.WriteField(value.Named("a"), value.IntOf(32, 1)))
			must(t, w.WriteField(value.Named("b"), value.IntOf(32, 2)))
			must(t, w.WriteField(value.Named("c"), value.IntOf(32, 3)))

			r := codec.NewReader(f, w.Bytes())
			c, err := r.ReadField(value.Named("c"))
			if err != nil || c.Missing || c.Int != 3 {
				t.Fatalf("ReadField(c) = %+v, %v", c, err)
			}
			a, err := r.ReadField(value.Named("a"))
			if err != nil || a.Missing || a.Int != 1 {
				t.Fatalf("ReadField(a) = %+v, %v", a, err)
			}
			b, err := r.ReadField(value.Named("b"))
			if err != nil || b.Missing || b.Int != 2 {
				t.Fatalf("ReadField(b) = %+v, %v", b, err)
			}
		})
	}
}

func TestReadField_MissingFieldReturnsMissingSentinel(t *testing.T) {
	for name, f := range formats() {
		t.Run(name, func(t *testing.T) {
			w := codec.NewWriter(f)
			must(t, w.WriteField(value.Named("a"), value.IntOf(32, 1)))

			r := codec.NewReader(f, w.Bytes())
			v, err := r.ReadField(value.Named("missing"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !v.Missing {
				t.Fatalf("expected Missing, got %+v", v)
			}
		})
	}
}

func TestCollectUnknown_ReturnsFieldsNeverRequested(t *testing.T) {
	for name, f := range formats() {
		t.Run(name, func(t *testing.T) {
			w := codec.NewWriter(f)
			must(t, w.WriteField(value.Named("a"), value.IntOf(32, 1)))
			must(t, w.WriteField(value.Named("extra1"), value.StringOf("x")))
			must(t, w.WriteField(value.Named("b"), value.IntOf(32, 2)))
			must(t, w.WriteField(value.Named("extra2"), value.StringOf("y")))

			r := codec.NewReader(f, w.Bytes())
			var sunk []codec.FieldValue
			r.SetUnknownSink(func(fv codec.FieldValue) { sunk = append(sunk, fv) })

			if _, err := r.ReadField(value.Named("a")); err != nil {
				t.Fatal(err)
			}
			if _, err := r.ReadField(value.Named("b")); err != nil {
				t.Fatal(err)
			}
			unknown, err := r.CollectUnknown()
			if err != nil {
				t.Fatal(err)
			}
			if len(unknown) != 2 {
				t.Fatalf("got %d unknown fields, want 2: %+v", len(unknown), unknown)
			}
			if unknown[0].Field.Name != "extra1" || unknown[1].Field.Name != "extra2" {
				t.Fatalf("unknown fields out of wire order: %+v", unknown)
			}
			if len(sunk) != 2 {
				t.Fatalf("sink invoked %d times, want 2", len(sunk))
			}
		})
	}
}

func TestReadSequence_RoundTrip(t *testing.T) {
	for name, f := range formats() {
		t.Run(name, func(t *testing.T) {
			w := codec.NewWriter(f)
			elems := []value.Value{value.IntOf(32, 1), value.IntOf(32, 2), value.IntOf(32, 3)}
			must(t, w.WriteSequence(value.Named("nums"), elems))

			r := codec.NewReader(f, w.Bytes())
			got, err := r.ReadSequence(value.Named("nums"))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 3 || got[0].Int != 1 || got[2].Int != 3 {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestWriteTyped_NestedFieldsRoundTripThroughReadTyped(t *testing.T) {
	for name, f := range formats() {
		t.Run(name, func(t *testing.T) {
			w := codec.NewWriter(f)
			must(t, w.WriteTyped(value.Named("addr"), "Address", func(nested *codec.Writer) error {
				if err := nested.WriteField(value.Named("city"), value.StringOf("Springfield")); err != nil {
					return err
				}
				return nested.WriteField(value.Named("zip"), value.IntOf(32, 12345))
			}))

			r := codec.NewReader(f, w.Bytes())
			alias, nested, ok, err := r.ReadTyped(value.Named("addr"))
			if err != nil || !ok {
				t.Fatalf("ReadTyped failed: ok=%v err=%v", ok, err)
			}
			if alias != "Address" {
				t.Fatalf("alias = %q", alias)
			}
			city, err := nested.ReadField(value.Named("city"))
			if err != nil || city.Str != "Springfield" {
				t.Fatalf("city = %+v, %v", city, err)
			}
			zip, err := nested.ReadField(value.Named("zip"))
			if err != nil || zip.Int != 12345 {
				t.Fatalf("zip = %+v, %v", zip, err)
			}
		})
	}
}

type addressTag struct{}

func TestWriteTypedTag_ResolvesThroughClassAliasRegistry(t *testing.T) {
	for name, f := range formats() {
		t.Run(name, func(t *testing.T) {
			reg := classalias.New()
			must(t, reg.Register("Address", addressTag{}))

			w := codec.NewWriter(f)
			must(t, w.WriteTypedTag(value.Named("addr"), reg, addressTag{}, func(nested *codec.Writer) error {
				return nested.WriteField(value.Named("city"), value.StringOf("Springfield"))
			}))

			r := codec.NewReader(f, w.Bytes())
			tag, nested, ok, err := r.ReadTypedTag(value.Named("addr"), reg)
			if err != nil || !ok {
				t.Fatalf("ReadTypedTag failed: ok=%v err=%v", ok, err)
			}
			if _, isAddr := tag.(addressTag); !isAddr {
				t.Fatalf("tag = %#v, want addressTag{}", tag)
			}
			city, err := nested.ReadField(value.Named("city"))
			if err != nil || city.Str != "Springfield" {
				t.Fatalf("city = %+v, %v", city, err)
			}
		})
	}
}

func TestWriteTypedTag_UnregisteredTagIsIllegalArgument(t *testing.T) {
	reg := classalias.New()
	w := codec.NewWriter(text.Format{})
	err := w.WriteTypedTag(value.Named("addr"), reg, addressTag{}, func(*codec.Writer) error { return nil })
	if err == nil {
		t.Fatal("expected an error for an unregistered tag")
	}
}

func TestWriteBoundScalar_ReadBackAsBoundRef(t *testing.T) {
	// Of the two formats the codec layer drives, only BinaryFormat
	// supports bound scalars; TextFormat's WriteField rejects KindBound
	// outright (spec §4.4/§4.7).
	f := binary.Format{}
	w := codec.NewWriter(f)
	must(t, w.WriteField(value.Named("before"), value.IntOf(32, 7)))
	ref, err := w.WriteBoundScalar(value.Named("counter"), boundref.Width64, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Width != boundref.Width64 {
		t.Fatalf("width = %v", ref.Width)
	}

	r := codec.NewReader(f, w.Bytes())
	before, err := r.ReadField(value.Named("before"))
	if err != nil || before.Int != 7 {
		t.Fatalf("before = %+v, %v", before, err)
	}
	gotRef, ok, err := r.ReadBoundScalar(value.Named("counter"), boundref.Width64)
	if err != nil || !ok {
		t.Fatalf("ReadBoundScalar failed: ok=%v err=%v", ok, err)
	}
	if gotRef.Offset != ref.Offset {
		t.Fatalf("offset = %d, want %d", gotRef.Offset, ref.Offset)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
