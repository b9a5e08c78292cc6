package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// textDecoder turns raw, space-padded file text into UTF-8 strings.
type textDecoder struct {
	name string
	dec  *encoding.Decoder
}

// newTextDecoder returns a decoder for an IANA or MIME character set name.
// Unknown or empty names, and UTF-8 itself, decode as UTF-8 with invalid
// sequences replaced.
func newTextDecoder(name string) *textDecoder {
	td := &textDecoder{name: name}
	if name == "" || isUTF8Name(name) {
		return td
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		enc, err = ianaindex.MIME.Encoding(name)
	}
	if err == nil && enc != nil {
		td.dec = enc.NewDecoder()
	}
	return td
}

func isUTF8Name(name string) bool {
	n := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	return n == "utf8"
}

// decode trims trailing padding and decodes b.
func (td *textDecoder) decode(b []byte) string {
	b = bytes.TrimRight(b, " \x00")
	if len(b) == 0 {
		return ""
	}
	if td.dec != nil && !isASCII(b) {
		if out, err := td.dec.Bytes(b); err == nil {
			return string(out)
		}
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// codePageNames maps Windows code page numbers, as stored in SPSS integer
// info records, to IANA names.
var codePageNames = map[int32]string{
	437:   "IBM437",
	850:   "IBM850",
	874:   "windows-874",
	1250:  "windows-1250",
	1251:  "windows-1251",
	1252:  "windows-1252",
	1253:  "windows-1253",
	1254:  "windows-1254",
	1255:  "windows-1255",
	1256:  "windows-1256",
	1257:  "windows-1257",
	1258:  "windows-1258",
	20127: "US-ASCII",
	28591: "ISO-8859-1",
	28592: "ISO-8859-2",
	28605: "ISO-8859-15",
	65001: "UTF-8",
}
