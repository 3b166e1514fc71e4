package printer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/dtbkit/internal/buf"
	"github.com/joshuapare/dtbkit/pkg/fdt"
)

// FormatValue renders a value in dts-like syntax. maxBytes truncates
// unrecognised values; 0 disables truncation.
func FormatValue(v fdt.Value, maxBytes int) string {
	switch v := v.(type) {
	case fdt.U32:
		return cells(uint32(v))
	case fdt.Status:
		return quote(v.String())
	case fdt.String:
		return quote(string(v))
	case fdt.Strings:
		return quoteAll(v)
	case fdt.U32List:
		return cells(v...)
	case fdt.Reg:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = "<" + fdt.Hex(e.Address) + " " + fdt.Hex(e.Size) + ">"
		}
		return strings.Join(parts, ", ")
	case fdt.Ranges:
		if len(v) == 0 {
			return ""
		}
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = "<" + fdt.Hex(e.ChildAddress) + " " + fdt.Hex(e.ParentAddress) + " " + fdt.Hex(e.Size) + ">"
		}
		return strings.Join(parts, ", ")
	case fdt.Interrupts:
		parts := make([]string, len(v))
		for i, spec := range v {
			parts[i] = cells(spec...)
		}
		return strings.Join(parts, ", ")
	case fdt.Clocks:
		parts := make([]string, len(v))
		for i, c := range v {
			words := []string{fmt.Sprintf("&%#x", c.Phandle)}
			for _, s := range c.Specifier {
				words = append(words, fmt.Sprintf("%#x", s))
			}
			parts[i] = "<" + strings.Join(words, " ") + ">"
		}
		return strings.Join(parts, ", ")
	case fdt.Unknown:
		return formatRaw(v, maxBytes)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func cells(vs ...uint32) string {
	words := make([]string, len(vs))
	for i, c := range vs {
		words[i] = fmt.Sprintf("%#x", c)
	}
	return "<" + strings.Join(words, " ") + ">"
}

func quoteAll(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = quote(s)
	}
	return strings.Join(parts, ", ")
}

// quote renders s as a double-quoted string. Bytes that are not valid UTF-8
// are read as ISO-8859-1, which firmware strings sometimes are.
func quote(s string) string {
	return strconv.Quote(displayText(s))
}

func displayText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}

// formatRaw guesses a presentation for an unrecognised value the way dtc
// does: string list, then cells, then bytes.
func formatRaw(b []byte, maxBytes int) string {
	if len(b) == 0 {
		return ""
	}
	if ss, ok := printableStrings(b); ok {
		if maxBytes <= 0 || len(b) <= maxBytes {
			return quoteAll(ss)
		}
		return quoteAll(truncateStrings(ss, maxBytes)) + " ..."
	}
	truncated := maxBytes > 0 && len(b) > maxBytes
	if truncated {
		b = b[:maxBytes]
	}
	var out string
	if len(b)%buf.CellSize == 0 {
		out = cells(buf.Words(b)...)
	} else {
		out = "[" + hexBytes(b) + "]"
	}
	if truncated {
		out += " ..."
	}
	return out
}

// truncateStrings keeps the leading strings that fit in maxBytes, counting
// each terminator, and cuts the last one on a rune boundary.
func truncateStrings(ss []string, maxBytes int) []string {
	var kept []string
	budget := maxBytes
	for _, s := range ss {
		if budget <= 0 {
			break
		}
		if len(s) > budget {
			cut := budget
			if utf8.ValidString(s) {
				for cut > 0 && !utf8.RuneStart(s[cut]) {
					cut--
				}
			}
			s = s[:cut]
		}
		kept = append(kept, s)
		budget -= len(s) + 1
	}
	return kept
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i := range b {
		parts[i] = hex.EncodeToString(b[i : i+1])
	}
	return strings.Join(parts, " ")
}

// printableStrings reports whether b is one or more non-empty NUL-terminated
// strings of printable bytes.
func printableStrings(b []byte) ([]string, bool) {
	if b[len(b)-1] != 0 {
		return nil, false
	}
	var out []string
	for _, seg := range strings.Split(string(b[:len(b)-1]), "\x00") {
		if seg == "" {
			return nil, false
		}
		for i := 0; i < len(seg); i++ {
			c := seg[i]
			if c < 0x20 || c == 0x7f || (c >= 0x80 && c < 0xa0) {
				return nil, false
			}
		}
		out = append(out, seg)
	}
	return out, true
}
