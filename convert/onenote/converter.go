// Package onenote converts markdown into OneNote page outline XML.
package onenote

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"onemd/config"
	"onemd/convert/text"
	"onemd/highlight"
	"onemd/markup"
	"onemd/mathml"
	"onemd/utils/images"
)

// MathService converts LaTeX formulas into MathML.
type MathService interface {
	IsReady() bool
	Initialize(ctx context.Context) error
	LatexToMathML(ctx context.Context, src string, display bool) (string, error)
}

// Highlighter renders a single source line as styled markup.
type Highlighter interface {
	IsLanguageSupported(lang string) bool
	HighlightLine(line, lang string) string
}

// ImageLoader fetches and normalizes pictures.
type ImageLoader interface {
	Load(ctx context.Context, src string) (*images.Image, error)
}

// Converter is safe for concurrent use, every Convert call works with its
// own context.
type Converter struct {
	cfg         *config.DocumentConfig
	log         *zap.Logger
	parser      *markup.Parser
	math        MathService
	highlighter Highlighter
	images      ImageLoader
}

type Option func(*Converter)

func WithMath(svc MathService) Option {
	return func(c *Converter) { c.math = svc }
}

func WithHighlighter(h Highlighter) Option {
	return func(c *Converter) { c.highlighter = h }
}

func WithImageLoader(l ImageLoader) Option {
	return func(c *Converter) { c.images = l }
}

// New creates converter. Collaborators not supplied with options are
// created from configuration.
func New(cfg *config.DocumentConfig, log *zap.Logger, opts ...Option) (*Converter, error) {
	if cfg == nil {
		return nil, errors.New("document configuration is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	c := &Converter{
		cfg:    cfg,
		log:    log.Named("onenote"),
		parser: markup.NewParser(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.math == nil {
		c.math = mathml.New(&cfg.Math, log)
	}
	if c.highlighter == nil && cfg.Code.Highlight {
		c.highlighter = highlight.New(cfg.Code.Style, log)
	}
	if c.images == nil {
		c.images = images.NewLoader(&cfg.Images, "", log)
	}
	return c, nil
}

// Parse exposes parsed block tree of prepared source for diagnostics.
func (c *Converter) Parse(md string) []markup.Block {
	src, _ := c.prepare(md)
	return c.parser.Parse(src)
}

// prepare runs text passes preceding parsing.
func (c *Converter) prepare(md string) (string, *text.EntityMap) {
	src := text.Sanitize(md)
	src = text.DecodeEntities(src)
	src, entities := text.ProtectEntities(src)
	return text.NormalizeLatex(src), entities
}

// Convert returns outline element for markdown document.
func (c *Converter) Convert(ctx context.Context, md string) (*etree.Element, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := c.log.With(zap.String("conversion", uuid.NewString()))
	outline, lines := c.newOutline()
	if strings.TrimSpace(md) == "" {
		log.Debug("Empty document")
		outline.AddChild(c.indents(1))
		outline.AddChild(lines)
		fillEmpty(outline)
		return outline, nil
	}

	src, entities := c.prepare(md)
	blocks := c.parser.Parse(src)
	log.Debug("Document parsed", zap.Int("blocks", len(blocks)), zap.Int("entities", entities.Len()))

	cc := newContext(ctx, c, log, entities)
	cc.appendBlocks(lines, blocks)
	if depth := cc.widths.depth(); depth != 0 {
		log.DPanic("Unbalanced width reservations", zap.Int("depth", depth))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outline.AddChild(c.indents(nestingDepth(lines)))
	outline.AddChild(lines)
	fillEmpty(outline)

	if !entities.Empty() {
		restoreEntities(outline, entities)
	}
	if n := leakedPlaceholders(outline); n > 0 {
		log.DPanic("Entity placeholders left in output", zap.Int("count", n))
	}
	c.setHeight(outline)
	return outline, nil
}

func (c *Converter) newOutline() (*etree.Element, *etree.Element) {
	outline := etree.NewElement("one:Outline")
	outline.CreateAttr("xmlns:one", Namespace)
	size := outline.CreateElement("one:Size")
	size.CreateAttr("width", pt(c.cfg.Width))
	size.CreateAttr("height", pt(c.lineHeight()))
	size.CreateAttr("isSetByUser", "true")
	return outline, etree.NewElement("one:OEChildren")
}

func (c *Converter) lineHeight() float64 {
	return c.cfg.Paragraph.FontSize * 1.5
}

// setHeight estimates outline height, host recalculates it on first
// render anyway.
func (c *Converter) setHeight(outline *etree.Element) {
	if size := outline.SelectElement("one:Size"); size != nil {
		size.CreateAttr("height", pt(float64(max(countLines(outline), 1))*c.lineHeight()))
	}
}

// indents declares indentation for every nesting level in use.
func (c *Converter) indents(levels int) *etree.Element {
	el := etree.NewElement("one:Indents")
	for i := range max(levels, 1) {
		ind := el.CreateElement("one:Indent")
		ind.CreateAttr("level", strconv.Itoa(i))
		ind.CreateAttr("indent", pt(float64(i)*c.cfg.Lists.Indent))
	}
	return el
}
