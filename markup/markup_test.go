package markup

import "testing"

func TestPlainText(t *testing.T) {
	content := []Inline{
		&Text{Value: "a "},
		&Emphasis{Delimiter: '*', Strength: 2, Children: []Inline{&Text{Value: "b"}}},
		&LineBreak{},
		&TaskMarker{Checked: true},
		&Link{URL: "u", Children: []Inline{&Code{Value: "c"}}},
		&Math{Source: "x"},
	}
	if got := PlainText(content); got != "a b\ncx" {
		t.Errorf("PlainText = %q", got)
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		in   Inline
		want bool
	}{
		{&Text{Value: "  \t"}, true},
		{&Text{Value: "\u00a0"}, true},
		{&Text{Value: ""}, true},
		{&Text{Value: " x "}, false},
		{&LineBreak{}, false},
	}
	for _, tt := range tests {
		if got := IsBlank(tt.in); got != tt.want {
			t.Errorf("IsBlank(%#v) = %t, want %t", tt.in, got, tt.want)
		}
	}
}

func TestDump(t *testing.T) {
	blocks := []Block{
		&Heading{Level: 2, Content: []Inline{&Text{Value: "T"}}},
		&ThematicBreak{},
	}
	want := "heading level=2\n  text: \"T\"\nrule\n"
	if got := Dump(blocks); got != want {
		t.Errorf("Dump = %q, want %q", got, want)
	}
}
