package layout

import (
	"math"

	"go.uber.org/zap"

	"vpui/pkg/css"
	"vpui/pkg/images"
	"vpui/pkg/style"
	"vpui/pkg/text"
)

// Engine lays out box trees. It holds no per-tree state.
type Engine struct {
	measure text.Measurer
	images  images.Provider
	log     *zap.Logger
}

// NewEngine creates a layout engine. A nil image provider treats every
// image as empty.
func NewEngine(m text.Measurer, p images.Provider, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = text.FixedMeasurer{Char: 8, Space: 4}
	}
	return &Engine{measure: m, images: p, log: log.Named("layout")}
}

// Layout sizes b to fit into fitting with its margin box at pos, then lays
// out its content. parentInner is the content size of the parent that
// percentages resolve against; unbounded dimensions leave percentages
// unresolved. It returns the margin box size.
func (e *Engine) Layout(b *Box, fitting Size, pos Point, parentInner Size) Size {
	st := b.Style
	b.X, b.Y = pos.X, pos.Y
	b.Pending, b.wrapped = false, false
	if st.Display() == "none" {
		b.Width, b.Height = 0, 0
		b.Margin, b.Border, b.Padding = Edges{}, Edges{}, Edges{}
		b.Content = Size{}
		b.Lines = b.Lines[:0]
		return Size{}
	}

	b.Margin = e.edges(b, st.Margin(), parentInner.Width)
	b.Border = e.edges(b, st.BorderWidth(), parentInner.Width)
	b.Padding = e.edges(b, st.Padding(), parentInner.Width)
	mbp := b.mbp()

	width, hasW := e.length(b, "width", parentInner.Width)
	minW, _ := e.length(b, "min-width", parentInner.Width)
	maxW, hasMaxW := e.length(b, "max-width", parentInner.Width)
	height, hasH := e.length(b, "height", parentInner.Height)
	minH, _ := e.length(b, "min-height", parentInner.Height)
	maxH, hasMaxH := e.length(b, "max-height", parentInner.Height)
	if !hasMaxW {
		maxW = math.Inf(1)
	}
	if !hasMaxH {
		maxH = math.Inf(1)
	}

	avail := Size{
		Width:  max(0, fitting.Width-mbp.Width),
		Height: max(0, fitting.Height-mbp.Height),
	}
	if hasW {
		avail.Width = width
	}
	avail.Width = clamp(avail.Width, minW, max(minW, maxW))
	if hasH {
		avail.Height = clamp(height, minH, max(minH, maxH))
	}
	switch st.OverflowY() {
	case "scroll", "auto":
		avail.Height = math.Inf(1)
	}

	// Percentages of children resolve against a definite width only.
	inner := Size{Width: math.Inf(1), Height: math.Inf(1)}
	if hasW || (fillsWidth(st) && finite(avail.Width)) {
		inner.Width = avail.Width
	}
	if hasH {
		inner.Height = avail.Height
	}

	origin := b.ContentOrigin()
	content := e.content(b, avail, inner, origin)
	b.Content = content

	switch {
	case hasW:
		b.Width = width
	case fillsWidth(st) && finite(avail.Width):
		b.Width = avail.Width
	case b.wrapped && finite(avail.Width):
		// Inline content that wrapped spans the whole line.
		b.Width = avail.Width
	default:
		b.Width = content.Width
	}
	b.Width = clamp(b.Width, minW, max(minW, maxW))
	if hasH {
		b.Height = height
	} else {
		b.Height = content.Height
	}
	b.Height = clamp(b.Height, minH, max(minH, maxH))

	e.align(b)
	b.clampScroll()
	return b.OuterSize()
}

// fillsWidth reports whether an auto width takes all available space.
func fillsWidth(st *style.Computed) bool {
	switch st.Display() {
	case "block", "list-item", "flex":
		return true
	}
	return false
}

func (e *Engine) content(b *Box, avail, inner Size, origin Point) Size {
	switch {
	case b.IsText:
		return e.textSize(b)
	case b.Image != "":
		return e.imageSize(b)
	case b.Style.Display() == "table":
		return e.table(b, inner, origin)
	}
	return e.flow(b, avail, inner, origin)
}

// Font returns the font and pixel size b is measured with.
func Font(st *style.Computed) (text.FontID, float64) {
	f := st.Font()
	size, ok := resolve(f.Size, style.DefaultFontSize.Value)
	if !ok || size <= 0 {
		size = style.DefaultFontSize.Value
	}
	return text.NewFontID(f.Family, f.Style, f.Weight), size
}

func (e *Engine) lineHeight(b *Box) float64 {
	font, size := Font(b.Style)
	if n, ok := b.Style.Length("line-height"); ok {
		if n.Unit == css.UnitNone {
			return n.Value * size
		}
		if v, ok := resolve(n, size); ok {
			return v
		}
	}
	return e.measure.LineHeight(font, size)
}

func (e *Engine) textSize(b *Box) Size {
	font, size := Font(b.Style)
	w, h := e.measure.Measure(b.Text, font, size)
	if _, ok := b.Style.Length("line-height"); ok || h == 0 {
		h = e.lineHeight(b)
	}
	return Size{w, h}
}

func (e *Engine) spaceWidth(b *Box) float64 {
	font, size := Font(b.Style)
	w, _ := e.measure.Measure(" ", font, size)
	return w
}

func (e *Engine) imageSize(b *Box) Size {
	if e.images == nil {
		return Size{}
	}
	info := e.images.Load(b.Image)
	if !info.Ready {
		b.Pending = true
		e.log.Debug("Image not ready", zap.String("box", b.Name), zap.String("image", b.Image))
		return Size{}
	}
	if info.Err != nil {
		return Size{}
	}
	return Size{float64(info.Width), float64(info.Height)}
}

// resolve converts n to pixels. Percentages need a finite base; viewport
// units are not supported.
func resolve(n css.NumberUnit, base float64) (float64, bool) {
	switch n.Unit {
	case css.UnitPx, css.UnitNone:
		return n.Value, true
	case css.UnitPt:
		return n.Value * 96 / 72, true
	case css.UnitPercent:
		if finite(base) && base >= 0 {
			return n.Value * base / 100, true
		}
	}
	return 0, false
}

// length resolves prop of b. Keywords such as auto report false without
// logging; numbers that cannot be resolved count as a soft zero.
func (e *Engine) length(b *Box, prop string, base float64) (float64, bool) {
	n, ok := b.Style.Length(prop)
	if !ok {
		return 0, false
	}
	v, ok := resolve(n, base)
	if !ok {
		e.log.Debug("Unresolved size",
			zap.String("box", b.Name),
			zap.String("property", prop),
			zap.Stringer("value", n))
	}
	return v, ok
}

func (e *Engine) edges(b *Box, s style.Sides, base float64) Edges {
	side := func(n css.NumberUnit) float64 {
		v, ok := resolve(n, base)
		if !ok {
			e.log.Debug("Unresolved edge", zap.String("box", b.Name), zap.Stringer("value", n))
		}
		return v
	}
	return Edges{Top: side(s.Top), Right: side(s.Right), Bottom: side(s.Bottom), Left: side(s.Left)}
}
