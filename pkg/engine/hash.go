package engine

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf16"
)

// Canonical returns the key-sorted serialization of a used for content hashing:
// `{"Base": "Blue", "Head": "Cap"}` with ASCII-only string escaping. The layout
// matches the separators and escaping of the original collections, so hashes stay
// comparable with items generated before.
func Canonical(a *Assignment) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range a.Sorted() {
		if i > 0 {
			buf.WriteString(", ")
		}
		writeASCIIString(&buf, t.Category)
		buf.WriteString(": ")
		writeASCIIString(&buf, t.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// ContentHash is the hex SHA-256 of Canonical(a).
func ContentHash(a *Assignment) string {
	sum := sha256.Sum256(Canonical(a))
	return hex.EncodeToString(sum[:])
}

func writeASCIIString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			switch {
			case r < 0x20 || (r > 0x7e && r < 0x10000):
				fmt.Fprintf(buf, `\u%04x`, r)
			case r >= 0x10000:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(buf, `\u%04x\u%04x`, hi, lo)
			default:
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
