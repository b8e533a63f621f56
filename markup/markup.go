// Package markup defines the immutable document model the converter works on
// and builds it from markdown source.
package markup

// Block is a structural unit of a document.
type Block interface {
	Kind() string
	block()
}

// Inline is a span level unit inside block content.
type Inline interface {
	Kind() string
	inline()
}

type (
	// Heading of level 1 to 6.
	Heading struct {
		Level   int
		Content []Inline
	}

	Paragraph struct {
		Content []Inline
	}

	// List holds items in document order. Start is the number of the first
	// item of an ordered list.
	List struct {
		Ordered bool
		Start   int
		Tight   bool
		Items   []*ListItem
	}

	ListItem struct {
		Children []Block
	}

	Quote struct {
		Children []Block
	}

	// CodeBlock keeps source lines without line terminators. Language is
	// empty for indented blocks and fences without info string.
	CodeBlock struct {
		Language string
		Lines    []string
	}

	// Table has rows of cells, the first row is the header when HasHeader
	// is set. Align has one entry per column: "left", "center", "right" or
	// empty.
	Table struct {
		HasHeader bool
		Align     []string
		Rows      [][]*TableCell
	}

	TableCell struct {
		Content []Inline
	}

	ThematicBreak struct{}

	MathBlock struct {
		Source string
	}

	// Unknown carries any construct the model has no dedicated type for
	// (raw HTML blocks, for example) as plain text.
	Unknown struct {
		Name string
		Raw  string
	}
)

func (*Heading) Kind() string { return "heading" }
func (*Paragraph) Kind() string { return "paragraph" }
func (*List) Kind() string { return "list" }
func (*ListItem) Kind() string { return "list-item" }
func (*Quote) Kind() string { return "quote" }
func (*CodeBlock) Kind() string { return "code" }
func (*Table) Kind() string { return "table" }
func (*ThematicBreak) Kind() string { return "rule" }
func (*MathBlock) Kind() string { return "math" }
func (*Unknown) Kind() string { return "unknown" }

func (*Heading) block() {}
func (*Paragraph) block() {}
func (*List) block() {}
func (*ListItem) block() {}
func (*Quote) block() {}
func (*CodeBlock) block() {}
func (*Table) block() {}
func (*ThematicBreak) block() {}
func (*MathBlock) block() {}
func (*Unknown) block() {}

type (
	Text struct {
		Value string
	}

	// Emphasis wraps content marked with Delimiter ('*', '_' or '~')
	// repeated Strength times.
	Emphasis struct {
		Delimiter byte
		Strength  int
		Children  []Inline
	}

	Code struct {
		Value string
	}

	// Link is either a hyperlink or, when Image is set, an image reference
	// with Children holding the alternative text.
	Link struct {
		URL      string
		Title    string
		Image    bool
		Children []Inline
	}

	// LineBreak is a soft (plain newline) or hard break.
	LineBreak struct {
		Hard bool
	}

	Math struct {
		Source  string
		Display bool
	}

	// TaskMarker is the [ ] or [x] box opening a task list item.
	TaskMarker struct {
		Checked bool
	}
)

func (*Text) Kind() string { return "text" }
func (*Emphasis) Kind() string { return "emphasis" }
func (*Code) Kind() string { return "code" }
func (*Link) Kind() string { return "link" }
func (*LineBreak) Kind() string { return "break" }
func (*Math) Kind() string { return "math" }
func (*TaskMarker) Kind() string { return "task" }

func (*Text) inline() {}
func (*Emphasis) inline() {}
func (*Code) inline() {}
func (*Link) inline() {}
func (*LineBreak) inline() {}
func (*Math) inline() {}
func (*TaskMarker) inline() {}

// PlainText flattens inline content to its textual value: emphasis and links
// contribute their children, breaks become newlines, task markers vanish.
func PlainText(content []Inline) string {
	var buf []byte
	var walk func([]Inline)
	walk = func(list []Inline) {
		for _, in := range list {
			switch n := in.(type) {
			case *Text:
				buf = append(buf, n.Value...)
			case *Code:
				buf = append(buf, n.Value...)
			case *Emphasis:
				walk(n.Children)
			case *Link:
				walk(n.Children)
			case *LineBreak:
				buf = append(buf, '\n')
			case *Math:
				buf = append(buf, n.Source...)
			}
		}
	}
	walk(content)
	return string(buf)
}

// IsBlank reports whether inline consists of whitespace only.
func IsBlank(in Inline) bool {
	t, ok := in.(*Text)
	if !ok {
		return false
	}
	for _, r := range t.Value {
		switch r {
		case ' ', '\t', '\u00a0':
		default:
			return false
		}
	}
	return true
}
