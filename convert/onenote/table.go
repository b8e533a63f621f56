package onenote

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"

	"onemd/highlight"
	"onemd/markup"
)

// quoteWidth is the column width of a quote opened at current nesting.
func (cc *convContext) quoteWidth() float64 {
	return max(cc.available()-cc.quoteReserve(), MinWidth)
}

func (cc *convContext) quoteReserve() float64 {
	return cc.cfg.Tables.Overhead + cc.cfg.Quotes.Margin
}

// quote wraps its content into a single cell table, outermost quote has no
// borders.
func (cc *convContext) quote(q *markup.Quote) *etree.Element {
	width := cc.quoteWidth()

	cc.quoteDepth++
	defer func() { cc.quoteDepth-- }()
	defer cc.reserve(cc.quoteReserve())()

	oe := newLine(cc.paragraphLine())
	tbl := newTable(cc.quoteDepth > 1, false, width)
	oe.AddChild(tbl)
	cell := newCell(tbl.CreateElement("one:Row"), cc.cfg.Quotes.Shading)
	cc.appendBlocks(cell, q.Children)
	return oe
}

// codeBlock renders source lines into a borderless shaded cell, one line
// each.
func (cc *convContext) codeBlock(cb *markup.CodeBlock) *etree.Element {
	code := &cc.cfg.Code
	width := max(cc.available()-cc.cfg.Tables.Overhead, MinWidth)
	defer cc.reserve(cc.cfg.Tables.Overhead)()

	oe := newLine(cc.paragraphLine())
	tbl := newTable(false, false, width)
	oe.AddChild(tbl)
	cell := newCell(tbl.CreateElement("one:Row"), code.Background)

	highlighted := cc.canHighlight(cb.Language)
	style := css{}.
		add("font-family", code.FontFamily).
		add("font-size", pt(code.FontSize)+"pt").
		add("color", code.Color).
		String()
	for _, src := range cb.Lines {
		ln := newLine(line{quickStyle: styleCode, style: style})
		switch {
		case src == "":
			setText(ln, nbsp)
		case highlighted:
			setText(ln, cc.conv.highlighter.HighlightLine(src, cb.Language))
		default:
			setText(ln, highlight.Escape(src))
		}
		cell.AddChild(ln)
	}
	return oe
}

func (cc *convContext) canHighlight(lang string) bool {
	if lang == "" || !cc.cfg.Code.Highlight || cc.conv.highlighter == nil {
		return false
	}
	if cc.conv.highlighter.IsLanguageSupported(lang) {
		return true
	}
	if !cc.lexersReported[lang] {
		cc.lexersReported[lang] = true
		cc.log.Debug("No highlighting for language", zap.String("language", lang))
	}
	return false
}

// table gets its column count from the first row, all columns share
// available width equally.
func (cc *convContext) table(t *markup.Table) *etree.Element {
	oe := newLine(cc.paragraphLine())
	if len(t.Rows) == 0 || len(t.Rows[0]) == 0 {
		setText(oe, nbsp)
		return oe
	}

	cols := len(t.Rows[0])
	avail := cc.available()
	colWidth := max((avail-cc.cfg.Tables.Overhead*float64(cols))/float64(cols), MinWidth)
	widths := make([]float64, cols)
	for i := range widths {
		widths[i] = colWidth
	}
	defer cc.reserve(max(avail-colWidth, 0))()

	tbl := newTable(true, t.HasHeader, widths...)
	oe.AddChild(tbl)
	for r, row := range t.Rows {
		header := r == 0 && t.HasHeader
		if len(row) > cols {
			cc.log.Debug("Extra table cells dropped", zap.Int("row", r), zap.Int("cells", len(row)-cols))
		}
		tr := tbl.CreateElement("one:Row")
		for c := range cols {
			shading := ""
			if header {
				shading = cc.cfg.Tables.HeaderShading
			}
			cell := newCell(tr, shading)
			if c >= len(row) {
				continue
			}
			var align string
			if c < len(t.Align) {
				align = t.Align[c]
			}
			cell.AddChild(cc.tableCell(row[c], header, align))
		}
	}
	return oe
}

func (cc *convContext) tableCell(tc *markup.TableCell, header bool, align string) *etree.Element {
	if img := singleImage(tc.Content); img != nil {
		ln := cc.imageFormat()
		ln.spaceBefore, ln.spaceAfter = 0, 0
		return cc.imageLine(img, ln)
	}
	ln := cc.paragraphLine()
	ln.alignment = align
	ln.spaceBefore, ln.spaceAfter = 0, 0
	oe := newLine(ln)
	content := cc.inlines(tc.Content)
	if header {
		content = span(css{"font-weight:bold"}, content)
	}
	setText(oe, content)
	return oe
}
