package parser

import "testing"

func TestTextDecoder(t *testing.T) {
	tests := []struct {
		encoding string
		input    []byte
		expected string
	}{
		{"UTF-8", []byte("caf\xc3\xa9   "), "café"},
		{"", []byte("plain\x00\x00"), "plain"},
		{"windows-1252", []byte("caf\xe9 "), "café"},
		{"ISO-8859-1", []byte("\xc5se"), "Åse"},
		{"no-such-charset", []byte("ok"), "ok"},
		{"UTF-8", []byte("bad\xff"), "bad�"},
		{"UTF-8", []byte("     "), ""},
	}

	for _, tt := range tests {
		result := newTextDecoder(tt.encoding).decode(tt.input)
		if result != tt.expected {
			t.Errorf("decode(%q) with %q = %q, expected %q", tt.input, tt.encoding, result, tt.expected)
		}
	}
}
