package debug

import (
	"testing"

	"github.com/beevik/etree"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{name: "no depth", depth: 0, format: "test", want: "test\n"},
		{name: "depth 2", depth: 2, format: "double indent", want: "    double indent\n"},
		{name: "with formatting", depth: 1, format: "value: %d", args: []any{42}, want: "  value: 42\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		label string
		value string
		want  string
	}{
		{name: "empty value", depth: 0, label: "field", value: "", want: "field: \n"},
		{name: "depth 1 with value", depth: 1, label: "content", value: "test", want: "  content: \"test\"\n"},
		{name: "value with newline", depth: 0, label: "multiline", value: "line1\nline2", want: "multiline: \"line1\\nline2\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_Element(t *testing.T) {
	doc := etree.NewDocument()
	oe := doc.CreateElement("one:OE")
	oe.CreateAttr("alignment", "left")
	oe.CreateElement("one:T").CreateCData("hello")
	oe.CreateComment("[if mathML]")

	tw := NewTreeWriter()
	tw.Element(0, oe)

	want := "one:OE alignment=\"left\"\n" +
		"  one:T\n" +
		"    text: \"hello\"\n" +
		"  comment (11 bytes)\n"
	if got := tw.String(); got != want {
		t.Errorf("Element() = %q, want %q", got, want)
	}
}

func TestEncodeText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"hello", `"hello"`},
		{`say "hi"`, `"say \"hi\""`},
		{"col1\tcol2", `"col1\tcol2"`},
	}

	for _, tt := range tests {
		if got := encodeText(tt.input); got != tt.want {
			t.Errorf("encodeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
