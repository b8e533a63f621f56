package text

import (
	"regexp"
	"strings"
)

var (
	inlineParenRe   = regexp.MustCompile(`(?s)\\\((.+?)\\\)`)
	displayBrackRe  = regexp.MustCompile(`(?s)\\\[(.+?)\\\]`)
	displayDollarRe = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	listMarkerRe    = regexp.MustCompile(`^(?:[-*+]|\d{1,9}[.)]) +$`)
)

// NormalizeLatex rewrites \( \) and \[ \] math delimiters into dollar form
// and moves delimiters of multi-line $$ blocks onto lines of their own, so
// display math spanning several lines is recognized as a block. Code blocks
// and code spans are left untouched.
func NormalizeLatex(s string) string {
	if !strings.Contains(s, `\(`) && !strings.Contains(s, `\[`) && !strings.Contains(s, "$$") {
		return s
	}

	codes := newSubstitutions(codeOpen, false)
	s = protectCodeSpans(protectFences(s, codes), codes)

	s = inlineParenRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := strings.TrimSpace(m[2 : len(m)-2])
		if inner == "" {
			return m
		}
		return "$" + inner + "$"
	})
	s = displayBrackRe.ReplaceAllStringFunc(s, func(m string) string {
		return "$$" + m[2:len(m)-2] + "$$"
	})
	s = reshapeDisplayMath(s)

	return codes.restore(s)
}

func reshapeDisplayMath(s string) string {
	locs := displayDollarRe.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8*len(locs))
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		inner := s[loc[2]:loc[3]]
		if !strings.Contains(inner, "\n") {
			continue
		}
		lineStart := strings.LastIndexByte(s[:start], '\n') + 1
		prefix := s[lineStart:start]
		lead := strings.TrimLeft(prefix, " \t>")
		indent := prefix[:len(prefix)-len(lead)]
		var body string
		switch {
		case listMarkerRe.MatchString(lead):
			// formula opens the list item, following lines are aligned
			// with item content so they stay inside it
			b.WriteString(s[last:start])
			cont := indent + strings.Repeat(" ", len(lead))
			body = itemBody(displayBody(inner, cont), indent, len(lead), cont)
			indent = cont
		case lead != "":
			b.WriteString(strings.TrimRight(s[last:start], " \t"))
			b.WriteByte('\n')
			b.WriteString(indent)
			body = displayBody(inner, indent)
		default:
			b.WriteString(s[last:start])
			body = displayBody(inner, indent)
		}
		b.WriteString("$$\n")
		b.WriteString(indent)
		b.WriteString(body)
		b.WriteByte('\n')
		b.WriteString(indent)
		b.WriteString("$$")

		lineEnd := len(s)
		if i := strings.IndexByte(s[end:], '\n'); i >= 0 {
			lineEnd = end + i
		}
		last = end
		if rest := s[end:lineEnd]; strings.TrimSpace(rest) != "" {
			b.WriteByte('\n')
			b.WriteString(indent)
			last += len(rest) - len(strings.TrimLeft(rest, " \t"))
		}
	}
	b.WriteString(s[last:])
	return b.String()
}

// displayBody trims blank edges of display math content along with line
// prefixes (list indentation, quote markers) that belonged to the delimiter
// lines.
func displayBody(inner, indent string) string {
	body := strings.TrimLeft(inner, " \t")
	if strings.HasPrefix(body, "\n") {
		body = strings.TrimLeft(strings.TrimPrefix(body[1:], indent), " \t")
	}
	body = strings.TrimRight(body, " \t")
	if marker := strings.TrimRight(indent, " \t"); marker != "" {
		body = strings.TrimSuffix(body, "\n"+marker)
	}
	return strings.TrimRight(body, " \t\n")
}

// itemBody drops list continuation indentation (quote prefix followed by up
// to width spaces) from body lines and re-indents them with cont.
func itemBody(body, quote string, width int, cont string) string {
	lines := strings.Split(body, "\n")
	for i := 1; i < len(lines); i++ {
		ln := strings.TrimPrefix(lines[i], quote)
		n := 0
		for n < width && n < len(ln) && ln[n] == ' ' {
			n++
		}
		lines[i] = ln[n:]
	}
	return strings.Join(lines, "\n"+cont)
}

// protectFences hides fenced code blocks. An unterminated fence runs to the
// end of the document.
func protectFences(s string, codes *substitutions) string {
	if !strings.Contains(s, "```") && !strings.Contains(s, "~~~") {
		return s
	}
	lines := strings.SplitAfter(s, "\n")
	var (
		b        strings.Builder
		block    strings.Builder
		fence    byte
		fenceLen int
	)
	flush := func() {
		body := block.String()
		block.Reset()
		// keep trailing newline outside so line structure survives
		nl := ""
		if strings.HasSuffix(body, "\n") {
			body, nl = body[:len(body)-1], "\n"
		}
		b.WriteString(codes.add(body))
		b.WriteString(nl)
	}
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if fence == 0 {
			if c, n := fenceRun(trimmed); n >= 3 && !(c == '`' && strings.ContainsRune(strings.TrimSpace(trimmed[n:]), '`')) {
				fence, fenceLen = c, n
				block.WriteString(line)
				continue
			}
			b.WriteString(line)
			continue
		}
		block.WriteString(line)
		if c, n := fenceRun(trimmed); c == fence && n >= fenceLen && strings.TrimSpace(trimmed[n:]) == "" {
			fence = 0
			flush()
		}
	}
	if fence != 0 {
		flush()
	}
	return b.String()
}

func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	return s[0], n
}

// protectCodeSpans hides inline code. A backtick run is closed only by a run
// of the same length, unmatched runs are literal.
func protectCodeSpans(s string, codes *substitutions) string {
	if !strings.Contains(s, "`") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		if s[i] != '`' {
			j := strings.IndexByte(s[i:], '`')
			if j < 0 {
				b.WriteString(s[i:])
				break
			}
			b.WriteString(s[i : i+j])
			i += j
			continue
		}
		n := backtickRun(s[i:])
		closing := findBacktickRun(s[i+n:], n)
		if closing < 0 {
			b.WriteString(s[i : i+n])
			i += n
			continue
		}
		end := i + n + closing + n
		b.WriteString(codes.add(s[i:end]))
		i = end
	}
	return b.String()
}

func backtickRun(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

func findBacktickRun(s string, n int) int {
	for i := 0; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		m := backtickRun(s[i:])
		if m == n {
			return i
		}
		i += m
	}
	return -1
}
