package onenote

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"onemd/common"
	"onemd/markup"
	"onemd/utils/images"
)

// appendBlocks converts blocks into lines of parent. A list following any
// other block is nested under that block's last line, host indents only
// this way.
func (cc *convContext) appendBlocks(parent *etree.Element, blocks []markup.Block) {
	var last *etree.Element
	var prevList bool
	for _, blk := range blocks {
		list, isList := blk.(*markup.List)
		if isList && !prevList && last != nil {
			func() {
				defer cc.reserve(cc.cfg.Lists.Indent)()
				appendAll(childrenOf(last), cc.list(list))
			}()
			prevList = true
			continue
		}
		out := cc.handleBlock(blk)
		appendAll(parent, out)
		if len(out) > 0 {
			last = out[len(out)-1]
		}
		prevList = isList
	}
}

// handleBlock dispatches block to its handler, every block produces at least
// one line except an empty list.
func (cc *convContext) handleBlock(blk markup.Block) []*etree.Element {
	switch b := blk.(type) {
	case *markup.Heading:
		return []*etree.Element{cc.heading(b)}
	case *markup.Paragraph:
		return cc.paragraph(b)
	case *markup.List:
		return cc.list(b)
	case *markup.Quote:
		return []*etree.Element{cc.quote(b)}
	case *markup.CodeBlock:
		return []*etree.Element{cc.codeBlock(b)}
	case *markup.Table:
		return []*etree.Element{cc.table(b)}
	case *markup.ThematicBreak:
		return []*etree.Element{cc.rule()}
	case *markup.MathBlock:
		return []*etree.Element{cc.mathBlock(b)}
	default:
		return []*etree.Element{cc.fallback(blk)}
	}
}

func (cc *convContext) paragraphLine() line {
	p := &cc.cfg.Paragraph
	return line{
		quickStyle:  styleParagraph,
		spaceBefore: p.SpaceBefore,
		spaceAfter:  p.SpaceAfter,
		style:       css{}.add("font-family", p.FontFamily).add("font-size", pt(p.FontSize)+"pt").String(),
	}
}

func (cc *convContext) heading(h *markup.Heading) *etree.Element {
	hs := cc.cfg.Heading(h.Level)
	oe := newLine(line{
		quickStyle:  min(max(h.Level-1, 0), 5) + styleHeading1,
		spaceBefore: hs.SpaceBefore,
		spaceAfter:  hs.SpaceAfter,
	})
	style := css{}.add("font-size", pt(hs.FontSize)+"pt")
	if hs.Bold {
		style = style.add("font-weight", "bold")
	}
	setText(oe, span(style, cc.inlines(h.Content)))
	return oe
}

// segment is a run of paragraph content or a standalone image.
type segment struct {
	content []markup.Inline
	image   *markup.Link
}

func (cc *convContext) paragraph(p *markup.Paragraph) []*etree.Element {
	if img := singleImage(p.Content); img != nil {
		return []*etree.Element{cc.imageLine(img, cc.imageFormat())}
	}

	segments := splitImages(p.Content)
	if len(segments) == 1 && segments[0].image == nil {
		oe := newLine(cc.paragraphLine())
		setText(oe, cc.inlines(p.Content))
		return []*etree.Element{oe}
	}

	out := make([]*etree.Element, 0, len(segments))
	for _, seg := range segments {
		if seg.image != nil {
			out = append(out, cc.imageLine(seg.image, cc.imageFormat()))
			continue
		}
		oe := newLine(cc.paragraphLine())
		setText(oe, cc.inlines(seg.content))
		out = append(out, oe)
	}
	return out
}

// singleImage returns image link when it is the only non blank inline.
func singleImage(list []markup.Inline) *markup.Link {
	var found *markup.Link
	for _, in := range list {
		if markup.IsBlank(in) {
			continue
		}
		l, ok := in.(*markup.Link)
		if !ok || !l.Image || found != nil {
			return nil
		}
		found = l
	}
	return found
}

// standaloneImage checks for an image occupying a whole source line
// starting at position i. It returns the image and position after it
// including the soft break ending the line.
func standaloneImage(list []markup.Inline, i int) (*markup.Link, int) {
	for i < len(list) && markup.IsBlank(list[i]) {
		i++
	}
	if i >= len(list) {
		return nil, 0
	}
	img, ok := list[i].(*markup.Link)
	if !ok || !img.Image {
		return nil, 0
	}
	i++
	for i < len(list) && markup.IsBlank(list[i]) {
		i++
	}
	if i == len(list) {
		return img, i
	}
	if br, ok := list[i].(*markup.LineBreak); ok && !br.Hard {
		return img, i + 1
	}
	return nil, 0
}

// splitImages cuts paragraph content into text runs and standalone images,
// order is preserved.
func splitImages(list []markup.Inline) []segment {
	var (
		out       []segment
		cur       []markup.Inline
		lineStart = true
	)
	flush := func() {
		for len(cur) > 0 {
			if _, ok := cur[len(cur)-1].(*markup.LineBreak); !ok && !markup.IsBlank(cur[len(cur)-1]) {
				break
			}
			cur = cur[:len(cur)-1]
		}
		if len(cur) > 0 {
			out = append(out, segment{content: cur})
		}
		cur = nil
	}

	for i := 0; i < len(list); {
		if lineStart {
			if img, next := standaloneImage(list, i); img != nil {
				flush()
				out = append(out, segment{image: img})
				i = next
				continue
			}
		}
		in := list[i]
		cur = append(cur, in)
		br, ok := in.(*markup.LineBreak)
		lineStart = ok && !br.Hard
		i++
	}
	flush()
	if len(out) == 0 {
		out = append(out, segment{content: list})
	}
	return out
}

// imageFormat is line formatting of standalone pictures.
func (cc *convContext) imageFormat() line {
	return line{
		alignment:   cc.cfg.Images.Align.String(),
		quickStyle:  styleParagraph,
		spaceBefore: cc.cfg.Paragraph.SpaceBefore,
		spaceAfter:  cc.cfg.Paragraph.SpaceAfter,
	}
}

// imageLine loads picture for standalone image, on failure the line holds
// a hyperlink instead.
func (cc *convContext) imageLine(img *markup.Link, ln line) *etree.Element {
	oe := newLine(ln)
	if cc.conv.images == nil {
		setText(oe, cc.imageLink(img))
		return oe
	}
	src := cc.literal(img.URL)
	loaded, err := cc.conv.images.Load(cc.ctx, src)
	if err != nil {
		cc.log.Warn("Unable to load image, using link", zap.String("src", src), zap.Error(err))
		setText(oe, cc.imageLink(img))
		return oe
	}
	setImage(oe, loaded, cc.available())
	return oe
}

func (cc *convContext) rule() *etree.Element {
	r := &cc.cfg.Rule
	oe := newLine(line{
		alignment:   "center",
		quickStyle:  styleParagraph,
		spaceBefore: cc.cfg.Paragraph.SpaceBefore,
		spaceAfter:  cc.cfg.Paragraph.SpaceAfter,
	})
	if r.Style == common.RuleStyleImage {
		width := cc.available()
		img, err := images.Rule(int(width/pxToPt), r.Thickness, r.Color)
		if err == nil {
			setImage(oe, img, width)
			return oe
		}
		cc.log.Warn("Unable to generate rule image, using characters", zap.Error(err))
	}
	char := r.Char
	if char == "" {
		char = "-"
	}
	setText(oe, span(css{}.add("color", r.Color), escape(strings.Repeat(char, r.Count))))
	return oe
}

func (cc *convContext) mathBlock(m *markup.MathBlock) *etree.Element {
	oe := newLine(line{
		alignment:   "center",
		quickStyle:  styleParagraph,
		spaceBefore: cc.cfg.Paragraph.SpaceBefore,
		spaceAfter:  cc.cfg.Paragraph.SpaceAfter,
	})
	setText(oe, cc.formula(m.Source, true))
	return oe
}

// fallback keeps textual form of anything without dedicated handler.
func (cc *convContext) fallback(blk markup.Block) *etree.Element {
	raw := rawText(blk)
	cc.log.Debug("Block rendered as text", zap.String("kind", blk.Kind()))

	oe := newLine(cc.paragraphLine())
	lines := strings.Split(raw, "\n")
	for i := range lines {
		lines[i] = escape(lines[i])
	}
	content := strings.Join(lines, "<br/>")
	if strings.TrimSpace(raw) == "" {
		content = nbsp
	}
	setText(oe, content)
	return oe
}

func rawText(blk markup.Block) string {
	switch b := blk.(type) {
	case *markup.Unknown:
		return b.Raw
	case *markup.ListItem:
		parts := make([]string, 0, len(b.Children))
		for _, c := range b.Children {
			parts = append(parts, rawText(c))
		}
		return strings.Join(parts, "\n")
	case *markup.Paragraph:
		return markup.PlainText(b.Content)
	case *markup.Heading:
		return markup.PlainText(b.Content)
	case *markup.CodeBlock:
		return strings.Join(b.Lines, "\n")
	case *markup.MathBlock:
		return "$$" + b.Source + "$$"
	default:
		return fmt.Sprintf("[%s]", blk.Kind())
	}
}
