package mathml

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
)

const (
	Namespace = "http://www.w3.org/1998/Math/MathML"
	prefix    = "mml"
)

// brackets are operators the host would otherwise stretch around content
// and lose on its own re-parse.
const brackets = "()[]{}|⟨⟩‖⌈⌉⌊⌋"

// attributes presentation MathML keeps, everything else (ids, cross
// references, classes, tool specific annotations) is dropped.
var keptAttrs = map[string]bool{
	"display":       true,
	"mathvariant":   true,
	"mathsize":      true,
	"mathcolor":     true,
	"fence":         true,
	"stretchy":      true,
	"separator":     true,
	"accent":        true,
	"accentunder":   true,
	"largeop":       true,
	"movablelimits": true,
	"form":          true,
	"lspace":        true,
	"rspace":        true,
	"linethickness": true,
	"columnalign":   true,
	"rowalign":      true,
	"width":         true,
	"height":        true,
	"depth":         true,
	"open":          true,
	"close":         true,
	"notation":      true,
}

// WrapForHost turns MathML produced by the converter into the conditional
// comment form the host stores inside a text run. All elements get the mml
// prefix, annotations are removed, whitespace is compacted, bracket
// operators are made non stretchy and multi character identifiers are split
// into single character ones.
func WrapForHost(fragment string, display bool) (string, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromString(fragment); err != nil {
		return "", fmt.Errorf("unable to parse MathML: %w", err)
	}
	math := findMath(&doc.Element)
	if math == nil {
		return "", ErrNoOutput
	}

	cleanup(math)
	if display {
		math.CreateAttr("display", "block")
	}
	math.CreateAttr("xmlns:"+prefix, Namespace)

	out := etree.NewDocument()
	out.SetRoot(math)
	out.WriteSettings.CanonicalText = true
	body, err := out.WriteToString()
	if err != nil {
		return "", fmt.Errorf("unable to serialize MathML: %w", err)
	}
	return "<!--[if mathML]>" + body + "<![endif]-->", nil
}

func findMath(el *etree.Element) *etree.Element {
	if el.Tag == "math" {
		return el
	}
	for _, c := range el.ChildElements() {
		if m := findMath(c); m != nil {
			return m
		}
	}
	return nil
}

func cleanup(el *etree.Element) {
	el.Space = prefix

	attrs := el.Attr[:0]
	for _, a := range el.Attr {
		if a.Space == "" && keptAttrs[a.Key] {
			attrs = append(attrs, a)
		}
	}
	el.Attr = attrs

	// semantics keeps only its presentation child
	for _, c := range el.ChildElements() {
		if c.Tag == "semantics" {
			if first := firstPresentation(c); first != nil {
				el.InsertChildAt(c.Index(), first)
			}
			el.RemoveChild(c)
		}
	}

	for i := 0; i < len(el.Child); i++ {
		switch t := el.Child[i].(type) {
		case *etree.Comment, *etree.ProcInst, *etree.Directive:
			el.RemoveChildAt(i)
			i--
		case *etree.CharData:
			compact := strings.Join(strings.Fields(t.Data), " ")
			if compact == "" {
				el.RemoveChildAt(i)
				i--
				continue
			}
			t.Data = compact
		case *etree.Element:
			if t.Tag == "annotation" || t.Tag == "annotation-xml" {
				el.RemoveChildAt(i)
				i--
				continue
			}
			cleanup(t)
		}
	}

	switch el.Tag {
	case "mo":
		if txt := el.Text(); utf8.RuneCountInString(txt) == 1 && strings.Contains(brackets, txt) {
			el.CreateAttr("fence", "false")
			el.CreateAttr("stretchy", "false")
		}
	case "mi":
		splitIdentifier(el)
	}
}

func firstPresentation(semantics *etree.Element) *etree.Element {
	for _, c := range semantics.ChildElements() {
		if c.Tag != "annotation" && c.Tag != "annotation-xml" {
			return c
		}
	}
	return nil
}

// splitIdentifier replaces <mi>abc</mi> with <mi>a</mi><mi>b</mi><mi>c</mi>
// keeping upright rendering multi character identifiers get by default.
func splitIdentifier(mi *etree.Element) {
	txt := mi.Text()
	if utf8.RuneCountInString(txt) < 2 || len(mi.ChildElements()) > 0 {
		return
	}
	parent := mi.Parent()
	if parent == nil {
		return
	}
	variant := mi.SelectAttrValue("mathvariant", "normal")
	pos := mi.Index()
	parent.RemoveChildAt(pos)
	for i, r := range []rune(txt) {
		part := etree.NewElement("mi")
		part.Space = prefix
		part.CreateAttr("mathvariant", variant)
		part.SetText(string(r))
		parent.InsertChildAt(pos+i, part)
	}
}
