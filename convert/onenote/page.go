package onenote

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"onemd/convert/text"
	"onemd/markup"
)

// quickStyle is a named paragraph style referenced by quickStyleIndex.
type quickStyle struct {
	name        string
	font        string
	fontSize    float64
	bold        bool
	spaceBefore float64
	spaceAfter  float64
}

func (c *Converter) quickStyles() []quickStyle {
	styles := make([]quickStyle, 0, 8)
	for level := 1; level <= 6; level++ {
		hs := c.cfg.Heading(level)
		styles = append(styles, quickStyle{
			name:        "h" + strconv.Itoa(level),
			font:        c.cfg.Paragraph.FontFamily,
			fontSize:    hs.FontSize,
			bold:        hs.Bold,
			spaceBefore: hs.SpaceBefore,
			spaceAfter:  hs.SpaceAfter,
		})
	}
	p := &c.cfg.Paragraph
	styles = append(styles,
		quickStyle{name: "p", font: p.FontFamily, fontSize: p.FontSize, spaceBefore: p.SpaceBefore, spaceAfter: p.SpaceAfter},
		quickStyle{name: "code", font: c.cfg.Code.FontFamily, fontSize: c.cfg.Code.FontSize},
	)
	return styles
}

// Page wraps outline produced by Convert into complete page document with
// title, tag and quick style definitions. Outline is moved into the page.
func (c *Converter) Page(outline *etree.Element, title string) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	page := doc.CreateElement("one:Page")
	page.CreateAttr("xmlns:one", Namespace)
	page.CreateAttr("name", title)

	tag := page.CreateElement("one:TagDef")
	tag.CreateAttr("index", "0")
	tag.CreateAttr("type", "0")
	tag.CreateAttr("symbol", "3")
	tag.CreateAttr("fontColor", "automatic")
	tag.CreateAttr("highlightColor", "none")
	tag.CreateAttr("name", "To Do")

	for i, qs := range c.quickStyles() {
		def := page.CreateElement("one:QuickStyleDef")
		def.CreateAttr("index", strconv.Itoa(i))
		def.CreateAttr("name", qs.name)
		def.CreateAttr("fontColor", "automatic")
		def.CreateAttr("highlightColor", "automatic")
		def.CreateAttr("font", qs.font)
		def.CreateAttr("fontSize", pt(qs.fontSize))
		def.CreateAttr("spaceBefore", pt(qs.spaceBefore))
		def.CreateAttr("spaceAfter", pt(qs.spaceAfter))
		if qs.bold {
			def.CreateAttr("bold", "true")
		}
	}

	titleLine := page.CreateElement("one:Title").CreateElement("one:OE")
	setText(titleLine, escape(title))

	if outline != nil {
		if p := outline.Parent(); p != nil {
			p.RemoveChild(outline)
		}
		outline.RemoveAttr("xmlns:one")
		page.AddChild(outline)
	}
	return doc
}

// Title returns plain text of the first top level heading or empty string
// when document has none.
func (c *Converter) Title(md string) string {
	src, entities := c.prepare(md)
	for _, blk := range c.parser.Parse(src) {
		h, ok := blk.(*markup.Heading)
		if !ok {
			continue
		}
		title := markup.PlainText(h.Content)
		if !entities.Empty() {
			title = text.DecodeEntities(entities.Restore(title))
		}
		return strings.TrimSpace(title)
	}
	return ""
}
