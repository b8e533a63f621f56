package onenote

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"onemd/markup"
)

// bullet symbols host uses for consecutive nesting levels
var bullets = []int{2, 3, 15}

// markerWidth is space taken by list marker in front of item text.
func (cc *convContext) markerWidth(l *markup.List) float64 {
	if l.Ordered {
		return cc.cfg.Lists.NumberWidth
	}
	return cc.cfg.Lists.BulletWidth
}

// list emits a line per item. Nested lists become children of the item
// line, any other block found in the item follows the item as a sibling.
func (cc *convContext) list(l *markup.List) []*etree.Element {
	cc.listDepth++
	defer func() { cc.listDepth-- }()

	var out []*etree.Element
	for i, item := range l.Items {
		oe, rest := cc.listItem(l, i, item)
		out = append(out, oe)
		for _, child := range rest {
			if sub, ok := child.(*markup.List); ok {
				func() {
					defer cc.reserve(cc.cfg.Lists.Indent + cc.markerWidth(l))()
					appendAll(childrenOf(oe), cc.list(sub))
				}()
				continue
			}
			out = append(out, cc.handleBlock(child)...)
		}
	}
	return out
}

// listItem builds item line from the first paragraph of the item and
// returns the remaining blocks.
func (cc *convContext) listItem(l *markup.List, idx int, item *markup.ListItem) (*etree.Element, []markup.Block) {
	ln := cc.paragraphLine()
	if l.Tight {
		ln.spaceBefore, ln.spaceAfter = 0, 0
	}
	oe := newLine(ln)

	rest := item.Children
	var content []markup.Inline
	if len(rest) > 0 {
		if p, ok := rest[0].(*markup.Paragraph); ok {
			content = p.Content
			rest = rest[1:]
		}
	}

	if task, stripped := taskMarker(content); task != nil {
		tag := oe.CreateElement("one:Tag")
		tag.CreateAttr("index", "0")
		tag.CreateAttr("completed", strconv.FormatBool(task.Checked))
		tag.CreateAttr("disabled", "false")
		content = stripped
	} else {
		cc.listMarker(oe, l, idx)
	}

	body := cc.inlines(content)
	if body == "" {
		body = nbsp
	}
	setText(oe, body)
	return oe, rest
}

func (cc *convContext) listMarker(oe *etree.Element, l *markup.List, idx int) {
	fontSize := pt(cc.cfg.Lists.MarkerFontSize)
	marker := oe.CreateElement("one:List")
	if l.Ordered {
		num := marker.CreateElement("one:Number")
		num.CreateAttr("numberSequence", "0")
		num.CreateAttr("numberFormat", "##.")
		num.CreateAttr("fontSize", fontSize)
		num.CreateAttr("text", strconv.Itoa(l.Start+idx)+".")
		return
	}
	b := marker.CreateElement("one:Bullet")
	b.CreateAttr("bullet", strconv.Itoa(bullets[(cc.listDepth-1)%len(bullets)]))
	b.CreateAttr("fontSize", fontSize)
}

// taskMarker finds checkbox opening item content and returns content
// without it and without the space following it.
func taskMarker(content []markup.Inline) (*markup.TaskMarker, []markup.Inline) {
	for i, in := range content {
		task, ok := in.(*markup.TaskMarker)
		if !ok {
			continue
		}
		rest := make([]markup.Inline, 0, len(content)-1)
		rest = append(rest, content[:i]...)
		after := content[i+1:]
		if len(after) > 0 {
			if t, ok := after[0].(*markup.Text); ok {
				trimmed := strings.TrimLeft(t.Value, " \t")
				after = after[1:]
				if trimmed != "" {
					rest = append(rest, &markup.Text{Value: trimmed})
				}
			}
		}
		return task, append(rest, after...)
	}
	return nil, content
}
