package text

import "regexp"

var spanRe = regexp.MustCompile(`(?is)<span\b[^>]*>(.*?)</span\s*>`)

// Sanitize removes styling spans the host wraps text into, keeping their
// content. Nested spans are unwrapped one level per pass until nothing is
// left.
func Sanitize(s string) string {
	for {
		out := spanRe.ReplaceAllString(s, "$1")
		if out == s {
			return out
		}
		s = out
	}
}
