package markup

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Parser turns markdown source into document blocks. It is safe for
// concurrent use, every call works on its own tree.
type Parser struct {
	md goldmark.Markdown
}

// NewParser returns parser recognizing CommonMark plus tables,
// strikethrough, task lists and $ math.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
				extension.TaskList,
				&mathExtension{},
			),
		),
	}
}

// Parse returns top level blocks of the document.
func (p *Parser) Parse(source string) []Block {
	src := []byte(source)
	doc := p.md.Parser().Parse(text.NewReader(src))
	b := &builder{source: src}
	return b.blocks(doc)
}

type builder struct {
	source []byte
}

func (b *builder) blocks(parent ast.Node) []Block {
	var out []Block
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if blk := b.block(child); blk != nil {
			out = append(out, blk)
		}
	}
	return out
}

func (b *builder) block(n ast.Node) Block {
	switch node := n.(type) {
	case *ast.Heading:
		return &Heading{Level: node.Level, Content: b.inlines(node)}

	case *ast.Paragraph, *ast.TextBlock:
		content := b.inlines(node)
		if len(content) == 0 {
			return nil
		}
		return &Paragraph{Content: content}

	case *ast.List:
		list := &List{Ordered: node.IsOrdered(), Start: node.Start, Tight: node.IsTight}
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			if li, ok := child.(*ast.ListItem); ok {
				list.Items = append(list.Items, &ListItem{Children: b.blocks(li)})
			}
		}
		return list

	case *ast.ListItem:
		return &ListItem{Children: b.blocks(node)}

	case *ast.Blockquote:
		return &Quote{Children: b.blocks(node)}

	case *ast.FencedCodeBlock:
		lang := string(node.Language(b.source))
		return &CodeBlock{Language: lang, Lines: b.lines(node.Lines())}

	case *ast.CodeBlock:
		return &CodeBlock{Lines: b.lines(node.Lines())}

	case *ast.ThematicBreak:
		return &ThematicBreak{}

	case *extast.Table:
		return b.table(node)

	case *mathBlockNode:
		return &MathBlock{Source: strings.TrimSpace(node.body.String())}

	case *ast.HTMLBlock:
		raw := strings.Join(b.lines(node.Lines()), "\n")
		if node.HasClosure() {
			raw += "\n" + strings.TrimRight(string(node.ClosureLine.Value(b.source)), "\r\n")
		}
		return &Unknown{Name: n.Kind().String(), Raw: raw}

	default:
		return &Unknown{Name: n.Kind().String(), Raw: b.rawText(n)}
	}
}

func (b *builder) lines(segs *text.Segments) []string {
	out := make([]string, 0, segs.Len())
	for i := range segs.Len() {
		seg := segs.At(i)
		line := string(seg.Value(b.source))
		out = append(out, strings.TrimRight(line, "\r\n"))
	}
	// fenced blocks closed by end of document may carry trailing blank line
	for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}
	return out
}

func (b *builder) rawText(n ast.Node) string {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return strings.Join(b.lines(n.Lines()), "\n")
	}
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(b.source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func (b *builder) table(node *extast.Table) *Table {
	t := &Table{}
	for _, a := range node.Alignments {
		switch a {
		case extast.AlignLeft:
			t.Align = append(t.Align, "left")
		case extast.AlignCenter:
			t.Align = append(t.Align, "center")
		case extast.AlignRight:
			t.Align = append(t.Align, "right")
		default:
			t.Align = append(t.Align, "")
		}
	}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		var row []*TableCell
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if _, ok := cell.(*extast.TableCell); ok {
				row = append(row, &TableCell{Content: b.inlines(cell)})
			}
		}
		if _, ok := child.(*extast.TableHeader); ok {
			t.HasHeader = true
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (b *builder) inlines(parent ast.Node) []Inline {
	var out []Inline
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		out = b.inline(out, child)
	}
	return mergeText(out)
}

func (b *builder) inline(out []Inline, n ast.Node) []Inline {
	switch node := n.(type) {
	case *ast.Text:
		value := node.Segment.Value(b.source)
		if !node.IsRaw() {
			value = util.UnescapePunctuations(value)
		}
		if len(value) > 0 {
			out = append(out, &Text{Value: string(value)})
		}
		switch {
		case node.HardLineBreak():
			out = append(out, &LineBreak{Hard: true})
		case node.SoftLineBreak():
			out = append(out, &LineBreak{})
		}

	case *ast.String:
		if len(node.Value) > 0 {
			out = append(out, &Text{Value: string(node.Value)})
		}

	case *ast.Emphasis:
		out = append(out, &Emphasis{
			Delimiter: b.delimiter(node),
			Strength:  node.Level,
			Children:  b.inlines(node),
		})

	case *extast.Strikethrough:
		out = append(out, &Emphasis{Delimiter: '~', Strength: 2, Children: b.inlines(node)})

	case *ast.CodeSpan:
		out = append(out, &Code{Value: b.childText(node)})

	case *ast.Link:
		out = append(out, &Link{
			URL:      string(node.Destination),
			Title:    string(node.Title),
			Children: b.inlines(node),
		})

	case *ast.Image:
		out = append(out, &Link{
			URL:      string(node.Destination),
			Title:    string(node.Title),
			Image:    true,
			Children: b.inlines(node),
		})

	case *ast.AutoLink:
		label := string(node.Label(b.source))
		url := string(node.URL(b.source))
		out = append(out, &Link{URL: url, Children: []Inline{&Text{Value: label}}})

	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := range node.Segments.Len() {
			seg := node.Segments.At(i)
			buf.Write(seg.Value(b.source))
		}
		out = append(out, &Text{Value: buf.String()})

	case *extast.TaskCheckBox:
		out = append(out, &TaskMarker{Checked: node.IsChecked})

	case *mathInlineNode:
		out = append(out, &Math{Source: string(node.source), Display: node.display})

	default:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			out = b.inline(out, child)
		}
	}
	return out
}

// childText concatenates raw text of code span children, line endings inside
// a span are spaces.
func (b *builder) childText(n ast.Node) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			value := c.Segment.Value(b.source)
			if bytes.HasSuffix(value, []byte("\n")) {
				value = append(value[:len(value)-1:len(value)-1], ' ')
			}
			buf.Write(value)
		case *ast.String:
			buf.Write(c.Value)
		}
	}
	return buf.String()
}

// delimiter recovers emphasis character from the source byte preceding the
// first text of emphasized content.
func (b *builder) delimiter(n *ast.Emphasis) byte {
	for c := n.FirstChild(); c != nil; c = c.FirstChild() {
		if t, ok := c.(*ast.Text); ok {
			if start := t.Segment.Start; start > 0 && start <= len(b.source) {
				if d := b.source[start-1]; d == '*' || d == '_' {
					return d
				}
			}
			break
		}
	}
	return '*'
}

// mergeText joins adjacent literal runs the parser split on delimiter
// candidates.
func mergeText(list []Inline) []Inline {
	if len(list) < 2 {
		return list
	}
	merged := list[:1]
	for _, in := range list[1:] {
		if t, ok := in.(*Text); ok {
			if prev, ok := merged[len(merged)-1].(*Text); ok {
				merged[len(merged)-1] = &Text{Value: prev.Value + t.Value}
				continue
			}
		}
		merged = append(merged, in)
	}
	return merged
}
