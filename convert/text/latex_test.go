package text

import "testing"

func TestNormalizeLatex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no delimiters", "plain $x$ text", "plain $x$ text"},
		{"inline parens", `\(x^2\)`, "$x^2$"},
		{"inline parens spaced", `a \( x + y \) b`, "a $x + y$ b"},
		{"display brackets", `\[x^2\]`, "$$x^2$$"},
		{"display brackets multi line", "\\[\nx^2\n\\]", "$$\nx^2\n$$"},
		{"several inline", `\(a\) and \(b\)`, "$a$ and $b$"},
		{"single line dollars", "see $$a+b$$ here", "see $$a+b$$ here"},
		{"multi line dollars", "text $$a\nb$$ more", "text\n$$\na\nb\n$$\nmore"},
		{"already shaped", "$$\na\n$$", "$$\na\n$$"},
		{"list indented", "- item\n\n  $$a\n  b$$", "- item\n\n  $$\n  a\n  b\n  $$"},
		{"quoted", "> $$a\n> b$$", "> $$\n> a\n> b\n> $$"},
		{"bullet item", "- $$a\n  b$$", "- $$\n  a\n  b\n  $$"},
		{"ordered item", "1. $$a\n   b$$", "1. $$\n   a\n   b\n   $$"},
		{"bullet item with tail", "- $$a\n  b$$ c\n- next", "- $$\n  a\n  b\n  $$\n  c\n- next"},
		{"quoted item", "> - $$a\n>   b$$", "> - $$\n>   a\n>   b\n>   $$"},
		{"code span kept", "`\\(x\\)` and \\(y\\)", "`\\(x\\)` and $y$"},
		{"double backtick span", "``a ` \\(x\\)`` \\(y\\)", "``a ` \\(x\\)`` $y$"},
		{"unmatched backtick", "` \\(y\\)", "` $y$"},
		{"fence kept", "```\n\\(x\\)\n```\n\\(y\\)", "```\n\\(x\\)\n```\n$y$"},
		{"tilde fence kept", "~~~tex\n$$a\nb$$\n~~~\n", "~~~tex\n$$a\nb$$\n~~~\n"},
		{"unterminated fence", "```\n\\(x\\)\n", "```\n\\(x\\)\n"},
		{"longer closing fence", "```\n\\[a\\]\n`````\n\\[b\\]", "```\n\\[a\\]\n`````\n$$b$$"},
		{"empty parens", `\(\)`, `\(\)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeLatex(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeLatex(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if HasPlaceholder(got) {
				t.Errorf("code placeholder leaked: %q", got)
			}
		})
	}
}

func TestNormalizeLatexIdempotent(t *testing.T) {
	inputs := []string{
		`\(a\) \[b\]`,
		"text $$a\nb$$ more",
		"```\n\\(x\\)\n```",
		"> $$a\n> b$$",
		"- $$a\n  b$$",
		"1. $$a\n   b$$\n2. c",
	}
	for _, in := range inputs {
		once := NormalizeLatex(in)
		if twice := NormalizeLatex(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeLatexKeepsEntityPlaceholders(t *testing.T) {
	const input = "`&lt;\\(x\\)` \\(a &lt; b\\)"
	protected, m := ProtectEntities(input)
	got := m.Restore(NormalizeLatex(protected))
	if want := "`&lt;\\(x\\)` $a &lt; b$"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
