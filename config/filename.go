package config

import (
	"os"
	"strings"
	"unicode/utf8"
)

// maxFileNameLen keeps generated names well under common 255 byte limits,
// room is left for the output extension.
const maxFileNameLen = 200

const badFileName = "_bad_file_name_"

// CleanFileName makes a single path segment out of arbitrary text: characters
// the file system does not allow are removed, leading dots and trailing dots
// and spaces are trimmed and overly long names are shortened on a rune
// boundary.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if sym < ' ' || strings.ContainsRune(forbiddenFileNameChars+string(os.PathSeparator)+string(os.PathListSeparator), sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimLeft(out, ".")
	if len(out) > maxFileNameLen {
		cut := maxFileNameLen
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut]
	}
	out = strings.TrimRight(out, ". ")
	if len(out) == 0 {
		out = badFileName
	}
	return out
}
