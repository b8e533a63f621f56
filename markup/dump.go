package markup

import (
	"onemd/utils/debug"
)

// Dump renders blocks as an indented tree for diagnostics.
func Dump(blocks []Block) string {
	tw := debug.NewTreeWriter()
	for _, blk := range blocks {
		dumpBlock(tw, 0, blk)
	}
	return tw.String()
}

func dumpBlock(tw *debug.TreeWriter, depth int, blk Block) {
	switch b := blk.(type) {
	case *Heading:
		tw.Line(depth, "heading level=%d", b.Level)
		dumpInlines(tw, depth+1, b.Content)
	case *Paragraph:
		tw.Line(depth, "paragraph")
		dumpInlines(tw, depth+1, b.Content)
	case *List:
		tw.Line(depth, "list ordered=%t start=%d items=%d", b.Ordered, b.Start, len(b.Items))
		for _, it := range b.Items {
			dumpBlock(tw, depth+1, it)
		}
	case *ListItem:
		tw.Line(depth, "item")
		for _, c := range b.Children {
			dumpBlock(tw, depth+1, c)
		}
	case *Quote:
		tw.Line(depth, "quote")
		for _, c := range b.Children {
			dumpBlock(tw, depth+1, c)
		}
	case *CodeBlock:
		tw.Line(depth, "code lang=%q lines=%d", b.Language, len(b.Lines))
		for _, l := range b.Lines {
			tw.TextBlock(depth+1, "line", l)
		}
	case *Table:
		tw.Line(depth, "table header=%t rows=%d", b.HasHeader, len(b.Rows))
		for i, row := range b.Rows {
			tw.Line(depth+1, "row %d", i)
			for _, cell := range row {
				dumpInlines(tw, depth+2, cell.Content)
			}
		}
	case *MathBlock:
		tw.TextBlock(depth, "math", b.Source)
	case *Unknown:
		tw.TextBlock(depth, "unknown "+b.Name, b.Raw)
	default:
		tw.Line(depth, "%s", blk.Kind())
	}
}

func dumpInlines(tw *debug.TreeWriter, depth int, list []Inline) {
	for _, in := range list {
		switch n := in.(type) {
		case *Text:
			tw.TextBlock(depth, "text", n.Value)
		case *Code:
			tw.TextBlock(depth, "code", n.Value)
		case *Emphasis:
			tw.Line(depth, "emphasis %c×%d", n.Delimiter, n.Strength)
			dumpInlines(tw, depth+1, n.Children)
		case *Link:
			kind := "link"
			if n.Image {
				kind = "image"
			}
			tw.TextBlock(depth, kind, n.URL)
			dumpInlines(tw, depth+1, n.Children)
		case *LineBreak:
			tw.Line(depth, "break hard=%t", n.Hard)
		case *Math:
			tw.TextBlock(depth, "math", n.Source)
		case *TaskMarker:
			tw.Line(depth, "task checked=%t", n.Checked)
		}
	}
}
