// Package debug has helpers producing human readable dumps of document
// trees for diagnostic reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// TreeWriter accumulates indented lines, two spaces per depth level.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label followed by quoted value, empty values are left
// bare.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Element dumps output element subtree: tag with attributes on one line,
// character data as quoted text lines, comments (math fragments) by size.
func (tw *TreeWriter) Element(depth int, el *etree.Element) {
	tw.indent(depth)
	tw.w.WriteString(el.FullTag())
	for _, a := range el.Attr {
		tw.w.WriteByte(' ')
		tw.w.WriteString(a.FullKey())
		tw.w.WriteByte('=')
		tw.w.WriteString(strconv.Quote(a.Value))
	}
	tw.w.WriteByte('\n')
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			tw.Element(depth+1, t)
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				tw.TextBlock(depth+1, "text", t.Data)
			}
		case *etree.Comment:
			tw.Line(depth+1, "comment (%d bytes)", len(t.Data))
		}
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
