package text

import (
	"fmt"
	"strings"
	"testing"
)

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"&gt; quote", "> quote"},
		{"a &amp;lt; b", "a &lt; b"},
		{"&#169; &#xA9;", "© ©"},
		{"no entities", "no entities"},
	}
	for _, tt := range tests {
		if got := DecodeEntities(tt.input); got != tt.expected {
			t.Errorf("DecodeEntities(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestProtectEntitiesRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		distinct int
	}{
		{"none", "nothing to do", 0},
		{"core five", `&lt;a href=&quot;x&quot;&gt; &amp; &apos;`, 5},
		{"numeric", "&#169; and &#x1F600; and &#X1f600;", 3},
		{"adjacent", "&lt;&gt;&lt;&gt;", 2},
		{"nested", "&amp;lt; stays &amp;amp;", 1},
		{"markdown around", "**&lt;b&gt;** `&amp;`", 3},
		{"broken entity", "&lt &gt;", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			protected, m := ProtectEntities(tt.input)
			if m.Len() != tt.distinct {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.distinct)
			}
			if m.Empty() != (tt.distinct == 0) {
				t.Errorf("Empty() = %v with %d entities", m.Empty(), tt.distinct)
			}
			if tt.distinct > 0 && strings.Contains(protected, "&lt;") {
				t.Errorf("entity survived protection: %q", protected)
			}
			leaf := "before " + protected + " after"
			if got := m.Restore(leaf); got != "before "+tt.input+" after" {
				t.Errorf("Restore = %q, want %q", got, "before "+tt.input+" after")
			}
			if HasPlaceholder(m.Restore(protected)) {
				t.Errorf("placeholder leaked after restore")
			}
		})
	}
}

func TestProtectEntitiesReusesPlaceholder(t *testing.T) {
	protected, m := ProtectEntities("&lt;x&lt;")
	parts := strings.Split(protected, "x")
	if len(parts) != 2 || parts[0] != parts[1] {
		t.Fatalf("same entity got different placeholders: %q", protected)
	}
	if !HasPlaceholder(parts[0]) {
		t.Errorf("expected placeholder in %q", parts[0])
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestProtectEntitiesManyDistinct(t *testing.T) {
	var b strings.Builder
	const count = 3000
	for i := range count {
		fmt.Fprintf(&b, "&#%d;", 1000+i)
	}
	input := b.String()

	protected, m := ProtectEntities(input)
	if m.Len() != count {
		t.Fatalf("Len() = %d, want %d", m.Len(), count)
	}
	if strings.ContainsRune(protected, '&') {
		t.Fatalf("entity survived protection")
	}
	if got := m.Restore(protected); got != input {
		t.Errorf("round trip mismatch with multi-digit placeholders")
	}
}

func TestEntityMapNil(t *testing.T) {
	var m *EntityMap
	if !m.Empty() || m.Len() != 0 {
		t.Errorf("nil map must be empty")
	}
	if got := m.Restore("text"); got != "text" {
		t.Errorf("Restore on nil map = %q", got)
	}
}

func TestHasPlaceholder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"regular text", "regular text & more", false},
		{"entity placeholder", encodePlaceholder(entityOpen, 7), true},
		{"code placeholder", "x" + encodePlaceholder(codeOpen, 0x701) + "y", true},
		{"lone open marker", "icon \uE000 here", false},
		{"lone close marker", "icon \uE001", false},
		{"lone code marker", "\uE002\uE002", false},
		{"markers without digits", "\uE000\uE001", false},
		{"unterminated", "\uE000\uE100\uE101", false},
		{"digits then glyph", "\uE002\uE100x\uE001", false},
		{"after lone marker", "\uE000 " + encodePlaceholder(entityOpen, 3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPlaceholder(tt.input); got != tt.want {
				t.Errorf("HasPlaceholder(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
