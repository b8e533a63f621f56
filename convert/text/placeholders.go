// Package text contains reversible text transformations applied to markdown
// source before it is parsed: host markup cleanup, HTML entity protection and
// LaTeX delimiter normalization.
package text

import (
	"strings"
	"unicode/utf8"
)

// Placeholders are built from Private Use Area code points which never appear
// in markdown syntax: an opening marker, one or more digits and a closing
// marker. Markers make adjacent placeholders unambiguous.
const (
	entityOpen  = '\uE000'
	codeOpen    = '\uE002'
	closeMarker = '\uE001'
	digitBase   = 0xE100
	digitRadix  = 0x700
)

// substitutions keeps placeholder -> original mapping for one protection pass.
type substitutions struct {
	open     rune
	reuse    bool
	original map[string]string // placeholder -> original
	assigned map[string]string // original -> placeholder, when reuse is on
	replacer *strings.Replacer
}

func newSubstitutions(open rune, reuse bool) *substitutions {
	return &substitutions{
		open:     open,
		reuse:    reuse,
		original: make(map[string]string),
		assigned: make(map[string]string),
	}
}

func (s *substitutions) add(orig string) string {
	if s.reuse {
		if ph, ok := s.assigned[orig]; ok {
			return ph
		}
	}
	ph := encodePlaceholder(s.open, len(s.original))
	s.original[ph] = orig
	if s.reuse {
		s.assigned[orig] = ph
	}
	s.replacer = nil
	return ph
}

func (s *substitutions) len() int {
	return len(s.original)
}

func (s *substitutions) restore(text string) string {
	if len(s.original) == 0 || !strings.ContainsRune(text, s.open) {
		return text
	}
	if s.replacer == nil {
		pairs := make([]string, 0, 2*len(s.original))
		for ph, orig := range s.original {
			pairs = append(pairs, ph, orig)
		}
		s.replacer = strings.NewReplacer(pairs...)
	}
	return s.replacer.Replace(text)
}

func encodePlaceholder(open rune, n int) string {
	var digits []rune
	for {
		digits = append(digits, rune(digitBase+n%digitRadix))
		n /= digitRadix
		if n == 0 {
			break
		}
	}
	var b strings.Builder
	b.Grow((len(digits) + 2) * utf8.UTFMax)
	b.WriteRune(open)
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteRune(digits[i])
	}
	b.WriteRune(closeMarker)
	return b.String()
}

// HasPlaceholder reports whether s still carries a complete protection
// placeholder of any kind. Finished output must never contain them. Lone
// marker code points are legitimate private use characters and are ignored.
func HasPlaceholder(s string) bool {
	for i, r := range s {
		if r != entityOpen && r != codeOpen {
			continue
		}
		if placeholderTail(s[i+utf8.RuneLen(r):]) {
			return true
		}
	}
	return false
}

// placeholderTail reports whether s starts with placeholder digits followed
// by the closing marker.
func placeholderTail(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= digitBase && r < digitBase+digitRadix:
			digits++
		case r == closeMarker:
			return digits > 0
		default:
			return false
		}
	}
	return false
}
