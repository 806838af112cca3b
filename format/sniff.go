package format

import (
	"bytes"
	"unicode"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TrimLeft strips a UTF-8 byte order mark and leading whitespace.
func TrimLeft(raw []byte) []byte {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	return bytes.TrimLeftFunc(raw, unicode.IsSpace)
}

// FirstRune returns the first significant rune of raw, ignoring a byte order
// mark and leading whitespace. It reports false for blank input.
func FirstRune(raw []byte) (rune, bool) {
	trimmed := TrimLeft(raw)
	if len(trimmed) == 0 {
		return 0, false
	}
	r, _ := utf8.DecodeRune(trimmed)
	return r, r != utf8.RuneError
}

// HasPrefixWord reports whether the trimmed input starts with word followed
// by a delimiter or end of input. It is used to sniff bare literals such as
// "true" or "null".
func HasPrefixWord(raw []byte, word string) bool {
	trimmed := TrimLeft(raw)
	if !bytes.HasPrefix(trimmed, []byte(word)) {
		return false
	}
	rest := trimmed[len(word):]
	if len(rest) == 0 {
		return true
	}
	r, _ := utf8.DecodeRune(rest)
	return unicode.IsSpace(r) || r == ',' || r == ']' || r == '}'
}
