package minifat

import (
	"strings"
	"unicode/utf8"

	"github.com/aligator/minifat/checkpoint"
	"golang.org/x/text/unicode/norm"
)

// normalizeName returns the canonical form of a file name which is used for storage and lookups.
// Names are stored NFC normalized, so a composed and a decomposed spelling refer to the same file.
func normalizeName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", checkpoint.Mark(ErrInvalidName, "%q is not valid UTF-8", name)
	}

	name = norm.NFC.String(name)
	switch {
	case name == "":
		return "", checkpoint.Mark(ErrInvalidName, "empty name")
	case len(name) > nameSize:
		return "", checkpoint.Mark(ErrInvalidName, "%q is longer than %d bytes", name, nameSize)
	case strings.TrimSpace(name) != name:
		return "", checkpoint.Mark(ErrInvalidName, "%q has leading or trailing whitespace", name)
	case strings.ContainsAny(name, "/\x00"):
		return "", checkpoint.Mark(ErrInvalidName, "%q contains '/' or NUL", name)
	}
	return name, nil
}

// encodeName left-justifies an already normalized name in a space padded field.
func encodeName(name string) [nameSize]byte {
	var field [nameSize]byte
	n := copy(field[:], name)
	for i := n; i < nameSize; i++ {
		field[i] = ' '
	}
	return field
}

// decodeName is the lenient counterpart of encodeName.
// Invalid UTF-8 is dropped and surrounding whitespace is trimmed along with the padding,
// which is also how names written by other tools are read.
func decodeName(field [nameSize]byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(field[:]), ""))
}

// decodeContent converts file content to text. Invalid UTF-8 sequences are dropped instead of failing.
func decodeContent(content []byte) string {
	return strings.ToValidUTF8(string(content), "")
}
