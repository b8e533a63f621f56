// Package highlight renders single source lines as host styled text using
// chroma lexers and styles.
package highlight

import (
	"html"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"go.uber.org/zap"
)

const nbsp = "\u00a0"

// TabWidth is number of non-breaking spaces replacing a tab.
const TabWidth = 4

// Highlighter caches lexers by language name. It is safe for concurrent use.
type Highlighter struct {
	style *chroma.Style
	log   *zap.Logger

	mu     sync.RWMutex
	lexers map[string]chroma.Lexer
}

// New returns highlighter using named chroma style, unknown names fall back
// to chroma default style.
func New(styleName string, log *zap.Logger) *Highlighter {
	style := styles.Get(styleName)
	if style == styles.Fallback && styleName != "" {
		log.Debug("Unknown highlight style, using fallback", zap.String("style", styleName), zap.String("fallback", style.Name))
	}
	return &Highlighter{
		style:  style,
		log:    log,
		lexers: make(map[string]chroma.Lexer),
	}
}

func (h *Highlighter) lexer(lang string) chroma.Lexer {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil
	}

	h.mu.RLock()
	lexer, ok := h.lexers[lang]
	h.mu.RUnlock()
	if ok {
		return lexer
	}

	lexer = lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Match("file." + lang)
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}

	h.mu.Lock()
	h.lexers[lang] = lexer
	h.mu.Unlock()
	return lexer
}

// IsLanguageSupported reports whether there is a lexer for lang.
func (h *Highlighter) IsLanguageSupported(lang string) bool {
	return h.lexer(lang) != nil
}

// HighlightLine returns line as escaped text with color and weight spans.
// Lines in unsupported languages (or failing to tokenize) are returned
// escaped without styling.
func (h *Highlighter) HighlightLine(line, lang string) string {
	lexer := h.lexer(lang)
	if lexer == nil {
		return Escape(line)
	}

	it, err := lexer.Tokenise(nil, line)
	if err != nil {
		h.log.Debug("Unable to tokenize code line", zap.String("lang", lang), zap.Error(err))
		return Escape(line)
	}

	var b strings.Builder
	for _, tok := range it.Tokens() {
		value := strings.TrimRight(tok.Value, "\r\n")
		if value == "" {
			continue
		}
		css := h.css(tok.Type)
		if css == "" {
			b.WriteString(Escape(value))
			continue
		}
		b.WriteString(`<span style='`)
		b.WriteString(css)
		b.WriteString(`'>`)
		b.WriteString(Escape(value))
		b.WriteString(`</span>`)
	}
	return b.String()
}

func (h *Highlighter) css(tt chroma.TokenType) string {
	entry := h.style.Get(tt)
	var parts []string
	if entry.Colour.IsSet() {
		parts = append(parts, "color:"+entry.Colour.String())
	}
	if entry.Bold == chroma.Yes {
		parts = append(parts, "font-weight:bold")
	}
	if entry.Italic == chroma.Yes {
		parts = append(parts, "font-style:italic")
	}
	return strings.Join(parts, ";")
}

// Escape makes code text safe for host markup, keeping indentation: tabs and
// runs of spaces become non-breaking spaces.
func Escape(s string) string {
	s = html.EscapeString(s)
	if !strings.ContainsAny(s, " \t") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	prevSpace := true
	for _, r := range s {
		switch r {
		case '\t':
			b.WriteString(strings.Repeat(nbsp, TabWidth))
			prevSpace = true
		case ' ':
			if prevSpace {
				b.WriteString(nbsp)
			} else {
				b.WriteByte(' ')
				prevSpace = true
			}
		default:
			b.WriteRune(r)
			prevSpace = false
		}
	}
	return b.String()
}
