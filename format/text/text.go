// Package text implements TextFormat, the YAML-subset wire layout (spec
// §4.4): self-describing `key: value` mappings, one field per line, with
// plain scalars, quoted strings where needed, bare enum symbols, and
// `[a, b, c]` inline sequences. It is the only format with no compact
// integer/float width games — everything round-trips through Go's decimal
// formatting, matching the literal text a human would write.
package text

import (
	"fmt"
	"strconv"
	"strings"

	"code.hybscloud.com/docwire/format"
	"code.hybscloud.com/docwire/value"
	"code.hybscloud.com/docwire/wireerr"
)

// Format is the stateless TextFormat implementation; it holds no state of
// its own, only constructs encoders/decoders bound to one document body.
type Format struct{}

func (Format) Name() string { return "text" }

func (Format) NewEncoder() format.Encoder { return &encoder{} }

func (Format) NewDecoder(body []byte) format.Decoder {
	return &decoder{lines: splitLines(body)}
}

type encoder struct {
	buf strings.Builder
}

func (e *encoder) Bytes() []byte {
	s := e.buf.String()
	if len(s) > 0 && s[0] >= 0x80 {
		// Self-describing discovery rule (spec §4.4): the first content
		// byte must be ASCII-printable so a polymorphic reader can tell
		// text from binary by peeking one byte.
		return append([]byte{' '}, s...)
	}
	return []byte(s)
}

func (e *encoder) WriteField(f value.Field, v value.Value) (int64, error) {
	if v.Kind == value.KindBound {
		return -1, fmt.Errorf("docwire: text: %w: bound scalars require a binary or raw body", wireerr.IllegalArgument)
	}
	e.buf.WriteString(f.String())
	e.buf.WriteString(": ")
	e.buf.WriteString(renderScalar(v))
	e.buf.WriteByte('\n')
	return -1, nil
}

func renderScalar(v value.Value) string {
	switch v.Kind {
	case value.KindNull:
		return "null"
	case value.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case value.KindInt8, value.KindInt16, value.KindInt32, value.KindInt64:
		return strconv.FormatInt(v.Int, 10)
	case value.KindFloat32:
		return strconv.FormatFloat(float64(v.Float32), 'g', -1, 32)
	case value.KindFloat64:
		return strconv.FormatFloat(v.Float64, 'g', -1, 64)
	case value.KindEnum:
		return v.Str
	case value.KindString:
		return quoteIfNeeded(v.Str)
	case value.KindBytes:
		return "!!binary " + quoteIfNeeded(string(v.Bytes))
	case value.KindSequence:
		parts := make([]string, len(v.Seq))
		for i, e := range v.Seq {
			parts[i] = renderScalar(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.KindTyped:
		inline := strings.ReplaceAll(strings.TrimRight(string(v.Nested), "\n"), "\n", ", ")
		return "!" + v.TypedTag + " {" + inline + "}"
	default:
		return ""
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	needsQuote := false
	for _, r := range s {
		if r == ':' || r == '"' || r == '\n' || r == '#' || r < 0x20 {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	return strconv.Quote(s)
}

type decoder struct {
	lines []string
	pos   int
}

func splitLines(body []byte) []string {
	s := strings.TrimLeft(string(body), " \t")
	if s == "" {
		return nil
	}
	raw := strings.Split(strings.TrimRight(s, "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func (d *decoder) Next() (value.Field, value.Value, bool, error) {
	if d.pos >= len(d.lines) {
		return value.Field{}, value.Value{}, false, nil
	}
	line := d.lines[d.pos]
	d.pos++
	idx := strings.Index(line, ": ")
	if idx < 0 {
		return value.Field{}, value.Value{}, false, fmt.Errorf("docwire: text: malformed line %q", line)
	}
	name := line[:idx]
	raw := line[idx+2:]
	return value.Named(name), parseScalar(raw), true, nil
}

func parseScalar(raw string) value.Value {
	switch {
	case raw == "null":
		return value.Null()
	case raw == "true":
		return value.BoolOf(true)
	case raw == "false":
		return value.BoolOf(false)
	case strings.HasPrefix(raw, `"`):
		s, err := strconv.Unquote(raw)
		if err != nil {
			s = raw
		}
		return value.StringOf(s)
	case strings.HasPrefix(raw, "["):
		return value.SequenceOf(parseSequence(raw))
	case strings.HasPrefix(raw, "!"):
		return parseTyped(raw)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return value.IntOf(64, i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return value.Float64Of(f)
	}
	return value.EnumOf(raw)
}

func parseSequence(raw string) []value.Value {
	inner := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if strings.TrimSpace(inner) == "" {
		return nil
	}
	parts := splitTopLevel(inner)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = parseScalar(strings.TrimSpace(p))
	}
	return out
}

// parseTyped reconstructs a typed object rendered as `!Tag {k: v, k2: v2}`
// back into its nested field set, rejoined as the newline-separated lines
// TextFormat's own decoder expects, so ReadTyped can recurse a fresh
// Reader straight over Nested.
func parseTyped(raw string) value.Value {
	sp := strings.IndexByte(raw, ' ')
	if sp < 0 {
		return value.TypedOf(strings.TrimPrefix(raw, "!"), nil)
	}
	tag := raw[1:sp]
	inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(raw[sp+1:]), "{"), "}")
	var buf strings.Builder
	for _, l := range splitTopLevel(inner) {
		buf.WriteString(strings.TrimSpace(l))
		buf.WriteByte('\n')
	}
	return value.TypedOf(tag, []byte(buf.String()))
}

// splitTopLevel splits s on ", " while ignoring commas nested inside
// brackets or braces, so sequences-of-sequences and sequences-of-typed-
// objects round-trip.
func splitTopLevel(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 0 && i+1 < len(s) && s[i+1] == ' ' {
				out = append(out, s[start:i])
				start = i + 2
				i++
			}
		}
	}
	out = append(out, s[start:])
	return out
}
