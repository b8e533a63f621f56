package onenote

import (
	"context"

	"go.uber.org/zap"

	"onemd/config"
	"onemd/convert/text"
)

// MinWidth is the smallest width ever assigned to a table column or an
// outline, host renders narrower containers as zero width.
const MinWidth = 50.0

// widthStack keeps horizontal space reserved by nested containers.
type widthStack struct {
	initial  float64
	reserved []float64
}

func (w *widthStack) push(amount float64) {
	w.reserved = append(w.reserved, amount)
}

func (w *widthStack) pop() bool {
	if len(w.reserved) == 0 {
		return false
	}
	w.reserved = w.reserved[:len(w.reserved)-1]
	return true
}

func (w *widthStack) depth() int {
	return len(w.reserved)
}

// available returns initial width minus everything reserved, never less than
// MinWidth.
func (w *widthStack) available() float64 {
	res := w.initial
	for _, amount := range w.reserved {
		res -= amount
	}
	return max(res, MinWidth)
}

// convContext is the state of a single Convert call, it must not outlive it.
type convContext struct {
	ctx      context.Context
	conv     *Converter
	cfg      *config.DocumentConfig
	log      *zap.Logger
	entities *text.EntityMap

	widths     widthStack
	quoteDepth int
	listDepth  int

	mathUnavailable bool
	lexersReported  map[string]bool
}

func newContext(ctx context.Context, c *Converter, log *zap.Logger, entities *text.EntityMap) *convContext {
	return &convContext{
		ctx:            ctx,
		conv:           c,
		cfg:            c.cfg,
		log:            log,
		entities:       entities,
		widths:         widthStack{initial: c.cfg.Width},
		lexersReported: make(map[string]bool),
	}
}

func (cc *convContext) available() float64 {
	return cc.widths.available()
}

// reserve pushes amount and returns function releasing it, intended use is
//
//	defer cc.reserve(amount)()
func (cc *convContext) reserve(amount float64) func() {
	cc.widths.push(amount)
	depth := cc.widths.depth()
	return func() {
		if cc.widths.depth() != depth {
			cc.log.DPanic("Width reservations released out of order",
				zap.Int("expected", depth), zap.Int("actual", cc.widths.depth()))
		}
		if !cc.widths.pop() {
			cc.log.DPanic("Width reservation stack underflow")
		}
	}
}

// literal turns text carrying entity placeholders back into plain text, it
// is used for values leaving the tree: image sources and formulas.
func (cc *convContext) literal(s string) string {
	if cc.entities.Empty() || !text.HasPlaceholder(s) {
		return s
	}
	return text.DecodeEntities(cc.entities.Restore(s))
}
