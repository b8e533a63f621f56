package onenote

import (
	"html"
	"strings"

	"go.uber.org/zap"

	"onemd/markup"
	"onemd/mathml"
)

const imageMarker = "\U0001F5BC"

func escape(s string) string {
	return html.EscapeString(s)
}

// inlines renders content into markup permitted inside one:T.
func (cc *convContext) inlines(list []markup.Inline) string {
	var sb strings.Builder
	for _, in := range list {
		cc.inline(&sb, in)
	}
	return sb.String()
}

func (cc *convContext) inline(sb *strings.Builder, in markup.Inline) {
	switch n := in.(type) {
	case *markup.Text:
		sb.WriteString(escape(n.Value))

	case *markup.Emphasis:
		inner := cc.inlines(n.Children)
		switch {
		case (n.Delimiter == '*' || n.Delimiter == '_') && n.Strength == 2:
			sb.WriteString(span(css{"font-weight:bold"}, inner))
		case (n.Delimiter == '*' || n.Delimiter == '_') && n.Strength == 1:
			sb.WriteString(span(css{"font-style:italic"}, inner))
		case n.Delimiter == '~' && n.Strength == 2:
			sb.WriteString(span(css{"text-decoration:line-through"}, inner))
		default:
			sb.WriteString(inner)
		}

	case *markup.Code:
		ic := &cc.cfg.InlineCode
		pad := strings.Repeat(ic.PaddingChar, ic.PaddingCount)
		style := css{}.
			add("font-family", ic.FontFamily).
			add("background", ic.Background).
			add("color", ic.Color)
		sb.WriteString(span(style, escape(pad+n.Value+pad)))

	case *markup.Link:
		if n.Image {
			sb.WriteString(cc.imageLink(n))
			return
		}
		label := cc.inlines(n.Children)
		if strings.TrimSpace(markup.PlainText(n.Children)) == "" {
			label = escape(n.URL)
		}
		sb.WriteString(hyperlink(n.URL, label))

	case *markup.LineBreak:
		if n.Hard {
			sb.WriteString("<br/>")
		} else {
			sb.WriteByte(' ')
		}

	case *markup.Math:
		sb.WriteString(cc.formula(n.Source, n.Display))

	case *markup.TaskMarker:
		// rendered as a tag by the list handler
	}
}

func hyperlink(url, label string) string {
	return `<a href="` + escape(url) + `">` + label + `</a>`
}

// imageLink is what images become where pictures are not allowed.
func (cc *convContext) imageLink(n *markup.Link) string {
	alt := strings.TrimSpace(markup.PlainText(n.Children))
	if alt == "" {
		alt = n.URL
	}
	return hyperlink(n.URL, escape("["+imageMarker+" "+alt+"]"))
}

// formula returns host math fragment, or the source in its original
// delimiters when it cannot be converted.
func (cc *convContext) formula(src string, display bool) string {
	delim := "$"
	if display {
		delim = "$$"
	}
	fallback := escape(delim + src + delim)

	svc := cc.conv.math
	if svc == nil || cc.mathUnavailable {
		return fallback
	}
	if !svc.IsReady() {
		if err := svc.Initialize(cc.ctx); err != nil {
			cc.mathUnavailable = true
			cc.log.Debug("Formulas are kept as LaTeX", zap.Error(err))
			return fallback
		}
	}
	fragment, err := svc.LatexToMathML(cc.ctx, cc.literal(src), display)
	if err != nil {
		cc.log.Warn("Unable to convert formula", zap.String("latex", src), zap.Error(err))
		return fallback
	}
	wrapped, err := mathml.WrapForHost(fragment, display)
	if err != nil {
		cc.log.Warn("Unable to prepare formula", zap.String("latex", src), zap.Error(err))
		return fallback
	}
	return wrapped
}
