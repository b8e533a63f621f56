package text

import (
	"regexp"

	"golang.org/x/net/html"
)

var entityRe = regexp.MustCompile(`&(?:lt|gt|amp|quot|apos|#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6});`)

// DecodeEntities resolves every HTML character reference once. Source coming
// from the host is entity encoded, so structural characters (">" of block
// quotes for example) only become visible to the parser after this.
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}

// EntityMap remembers entities replaced by ProtectEntities. It belongs to a
// single conversion.
type EntityMap struct {
	subst *substitutions
}

// ProtectEntities replaces every remaining character reference with a
// placeholder so neither the parser nor output escaping would touch it.
// Equal entities share a placeholder.
func ProtectEntities(s string) (string, *EntityMap) {
	m := &EntityMap{subst: newSubstitutions(entityOpen, true)}
	if !entityRe.MatchString(s) {
		return s, m
	}
	out := entityRe.ReplaceAllStringFunc(s, m.subst.add)
	return out, m
}

// Empty reports whether nothing was protected.
func (m *EntityMap) Empty() bool {
	return m == nil || m.subst.len() == 0
}

// Len returns number of distinct protected entities.
func (m *EntityMap) Len() int {
	if m == nil {
		return 0
	}
	return m.subst.len()
}

// Restore puts original entity text back in place of placeholders.
func (m *EntityMap) Restore(s string) string {
	if m.Empty() {
		return s
	}
	return m.subst.restore(s)
}
