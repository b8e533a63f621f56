package onenote

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"onemd/convert/text"
	"onemd/utils/images"
)

// Namespace of OneNote 2013 page schema.
const Namespace = "http://schemas.microsoft.com/office/onenote/2013/onenote"

const nbsp = "\u00a0"

// Quick style indexes, must match definitions written by Page.
const (
	styleHeading1  = 0
	styleParagraph = 6
	styleCode      = 7
)

// pixels to points at 96 DPI
const pxToPt = 72.0 / 96.0

func pt(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// line is formatting of a single container-line.
type line struct {
	alignment   string
	quickStyle  int
	spaceBefore float64
	spaceAfter  float64
	style       string
}

func newLine(l line) *etree.Element {
	oe := etree.NewElement("one:OE")
	if l.alignment == "" {
		l.alignment = "left"
	}
	oe.CreateAttr("alignment", l.alignment)
	oe.CreateAttr("quickStyleIndex", strconv.Itoa(l.quickStyle))
	oe.CreateAttr("spaceBefore", pt(l.spaceBefore))
	oe.CreateAttr("spaceAfter", pt(l.spaceAfter))
	if l.style != "" {
		oe.CreateAttr("style", l.style)
	}
	return oe
}

// setText adds styled text to the line, markup must only use span, a and br.
func setText(oe *etree.Element, markup string) {
	oe.CreateElement("one:T").CreateCData(markup)
}

// emptyLine is what host expects in place of an empty container.
func emptyLine() *etree.Element {
	oe := etree.NewElement("one:OE")
	setText(oe, "")
	return oe
}

// childrenOf returns line's nested container creating it when necessary.
func childrenOf(oe *etree.Element) *etree.Element {
	if c := oe.SelectElement("one:OEChildren"); c != nil {
		return c
	}
	return oe.CreateElement("one:OEChildren")
}

func appendAll(parent *etree.Element, list []*etree.Element) {
	for _, e := range list {
		parent.AddChild(e)
	}
}

// setImage makes the line hold a picture no wider than maxWidth points.
func setImage(oe *etree.Element, img *images.Image, maxWidth float64) {
	w, h := float64(img.Width)*pxToPt, float64(img.Height)*pxToPt
	if w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	el := oe.CreateElement("one:Image")
	el.CreateAttr("format", img.Format)
	size := el.CreateElement("one:Size")
	size.CreateAttr("width", pt(w))
	size.CreateAttr("height", pt(h))
	size.CreateAttr("isSetByUser", "true")
	el.CreateElement("one:Data").SetText(img.Base64())
}

func newTable(bordersVisible, hasHeaderRow bool, widths ...float64) *etree.Element {
	tbl := etree.NewElement("one:Table")
	tbl.CreateAttr("bordersVisible", strconv.FormatBool(bordersVisible))
	tbl.CreateAttr("hasHeaderRow", strconv.FormatBool(hasHeaderRow))
	cols := tbl.CreateElement("one:Columns")
	for i, w := range widths {
		col := cols.CreateElement("one:Column")
		col.CreateAttr("index", strconv.Itoa(i))
		col.CreateAttr("width", pt(max(w, MinWidth)))
		col.CreateAttr("isLocked", "true")
	}
	return tbl
}

// newCell adds cell to the row and returns its container of lines.
func newCell(row *etree.Element, shading string) *etree.Element {
	cell := row.CreateElement("one:Cell")
	if shading != "" {
		cell.CreateAttr("shadingColor", shading)
	}
	return cell.CreateElement("one:OEChildren")
}

func walk(el *etree.Element, fn func(*etree.Element)) {
	fn(el)
	for _, child := range el.ChildElements() {
		walk(child, fn)
	}
}

// fillEmpty puts an empty line into every container of lines without
// children.
func fillEmpty(root *etree.Element) {
	walk(root, func(el *etree.Element) {
		if el.FullTag() == "one:OEChildren" && len(el.ChildElements()) == 0 {
			el.AddChild(emptyLine())
		}
	})
}

// restoreEntities replaces placeholders in text and attribute values.
func restoreEntities(root *etree.Element, m *text.EntityMap) {
	walk(root, func(el *etree.Element) {
		for i := range el.Attr {
			el.Attr[i].Value = m.Restore(el.Attr[i].Value)
		}
		for _, tok := range el.Child {
			if cd, ok := tok.(*etree.CharData); ok {
				cd.Data = m.Restore(cd.Data)
			}
		}
	})
}

// leakedPlaceholders counts text and attribute values still carrying
// placeholders.
func leakedPlaceholders(root *etree.Element) int {
	var n int
	walk(root, func(el *etree.Element) {
		for _, a := range el.Attr {
			if text.HasPlaceholder(a.Value) {
				n++
			}
		}
		for _, tok := range el.Child {
			if cd, ok := tok.(*etree.CharData); ok && text.HasPlaceholder(cd.Data) {
				n++
			}
		}
	})
	return n
}

// nestingDepth is the deepest level of containers of lines below root.
func nestingDepth(root *etree.Element) int {
	var deepest int
	var visit func(el *etree.Element, depth int)
	visit = func(el *etree.Element, depth int) {
		if el.FullTag() == "one:OEChildren" {
			depth++
			deepest = max(deepest, depth)
		}
		for _, child := range el.ChildElements() {
			visit(child, depth)
		}
	}
	visit(root, 0)
	return deepest
}

// countLines returns number of container-lines below root.
func countLines(root *etree.Element) int {
	var n int
	walk(root, func(el *etree.Element) {
		if el.FullTag() == "one:OE" {
			n++
		}
	})
	return n
}

type css []string

func (c css) add(prop, value string) css {
	if value == "" {
		return c
	}
	return append(c, prop+":"+value)
}

func (c css) String() string {
	return strings.Join(c, ";")
}

func span(style css, inner string) string {
	if len(style) == 0 {
		return inner
	}
	return "<span style='" + style.String() + "'>" + inner + "</span>"
}
