package render

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"vpui/pkg/css"
	"vpui/pkg/layout"
	"vpui/pkg/text"
	"vpui/pkg/ui"
)

// FaceSource hands out font faces; text.GGMeasurer is one.
type FaceSource interface {
	Face(f text.FontID, size float64) (font.Face, float64)
}

// ImageSource returns decoded images; images.Loader is one.
type ImageSource interface {
	Image(name string) (image.Image, bool)
}

const scrollbarWidth = 6.0

// Painter rasterizes a document with gg. It implements ui.Renderer: the
// border boxes of elements reported dirty make up the damaged region that
// the next Paint redraws.
type Painter struct {
	ctx    *gg.Context
	faces  FaceSource
	images ImageSource
	log    *zap.Logger

	damage  layout.Rect
	damaged bool
	// Border boxes as last painted, so moved elements clear their old spot.
	painted map[*ui.Element]layout.Rect
	frames  int
}

// NewPainter creates a white canvas of the given size. faces and imgs may
// be nil; text and images are then skipped.
func NewPainter(width, height int, faces FaceSource, imgs ImageSource, log *zap.Logger) *Painter {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Painter{
		ctx:     gg.NewContext(width, height),
		faces:   faces,
		images:  imgs,
		log:     log.Named("render"),
		painted: make(map[*ui.Element]layout.Rect),
	}
	p.invalidate()
	return p
}

// MarkDirty implements ui.Renderer.
func (p *Painter) MarkDirty(e *ui.Element) {
	r := e.Geometry().Border
	if old, ok := p.painted[e]; ok {
		p.addDamage(old)
	}
	p.painted[e] = r
	p.addDamage(r)
}

func (p *Painter) addDamage(r layout.Rect) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	if !p.damaged {
		p.damage, p.damaged = r, true
		return
	}
	p.damage = union(p.damage, r)
}

// invalidate damages the whole canvas.
func (p *Painter) invalidate() {
	p.damage = layout.Rect{Width: float64(p.ctx.Width()), Height: float64(p.ctx.Height())}
	p.damaged = true
}

// Resize replaces the canvas and damages all of it.
func (p *Painter) Resize(width, height int) {
	p.ctx = gg.NewContext(width, height)
	p.invalidate()
}

// Damage returns the region the next Paint redraws.
func (p *Painter) Damage() (layout.Rect, bool) { return p.damage, p.damaged }

// Frames returns the number of Paint calls that drew something.
func (p *Painter) Frames() int { return p.frames }

// Paint redraws the damaged region of doc and reports whether anything was
// drawn. Call it after doc.Update.
func (p *Painter) Paint(doc *ui.Document) bool {
	if !p.damaged {
		return false
	}
	canvas := layout.Rect{Width: float64(p.ctx.Width()), Height: float64(p.ctx.Height())}
	clip := intersect(p.damage, canvas)
	p.damage, p.damaged = layout.Rect{}, false
	if clip.Width <= 0 || clip.Height <= 0 {
		return false
	}

	p.setClip(clip)
	p.ctx.SetRGB(1, 1, 1)
	p.ctx.DrawRectangle(clip.X, clip.Y, clip.Width, clip.Height)
	p.ctx.Fill()
	p.paint(doc.Body(), layout.Point{}, clip)
	p.ctx.ResetClip()

	p.frames++
	if ce := p.log.Check(zap.DebugLevel, "Painted"); ce != nil {
		ce.Write(zap.Float64("x", clip.X), zap.Float64("y", clip.Y),
			zap.Float64("width", clip.Width), zap.Float64("height", clip.Height))
	}
	return true
}

// Image returns the canvas.
func (p *Painter) Image() image.Image { return p.ctx.Image() }

// SavePNG writes the canvas to path.
func (p *Painter) SavePNG(path string) error { return p.ctx.SavePNG(path) }

// setClip replaces the clip mask. gg intersects masks and Pop keeps them,
// so nested clips are restored by setting the outer rectangle again.
func (p *Painter) setClip(r layout.Rect) {
	p.ctx.ResetClip()
	p.ctx.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	p.ctx.Clip()
}

// paint draws e and its subtree shifted by off, within clip.
func (p *Painter) paint(e *ui.Element, off layout.Point, clip layout.Rect) {
	st := e.ComputedStyle()
	if st == nil || st.Display() == "none" {
		return
	}
	if st.Keyword("visibility", "visible") != "hidden" {
		p.drawBox(e, off)
	}

	g := e.Geometry()
	childOff, childClip := off, clip
	ox, oy := st.Overflow()
	scrolls := ox != "visible" || oy != "visible"
	if scrolls {
		pad := g.Padding
		pad.X += off.X
		pad.Y += off.Y
		childClip = intersect(clip, pad)
		childOff = layout.Point{X: off.X - g.ScrollLeft, Y: off.Y - g.ScrollTop}
		p.setClip(childClip)
	}
	for _, c := range e.AllChildren() {
		p.paint(c, childOff, childClip)
	}
	if scrolls {
		p.setClip(clip)
		p.drawScrollbar(e, off)
	}
}

func (p *Painter) setColor(c css.Color) {
	p.ctx.SetRGBA255(int(c.R), int(c.G), int(c.B), int(c.A))
}

func (p *Painter) drawBox(e *ui.Element, off layout.Point) {
	st := e.ComputedStyle()
	g := e.Geometry()
	border := shift(g.Border, off)
	pad := shift(g.Padding, off)

	if bg := st.BackgroundColor(); bg.A > 0 && pad.Width > 0 && pad.Height > 0 {
		p.setColor(bg)
		p.ctx.DrawRectangle(pad.X, pad.Y, pad.Width, pad.Height)
		p.ctx.Fill()
	}
	if url, ok := st.BackgroundImage(); ok {
		p.drawImage(url, pad, false)
	}
	p.drawBorder(e.Box(), st.BorderColors(), border, pad)

	content := shift(g.Content, off)
	b := e.Box()
	switch {
	case b.IsText:
		p.drawText(e, content)
	case b.Image != "":
		p.drawImage(b.Image, content, true)
	}
}

// drawBorder fills each side as a trapezoid between the border and the
// padding edge, so corners are mitered.
func (p *Painter) drawBorder(b *layout.Box, colors [4]css.Color, outer, inner layout.Rect) {
	if b.Border == (layout.Edges{}) {
		return
	}
	ol, ot, or, ob := outer.X, outer.Y, outer.X+outer.Width, outer.Y+outer.Height
	il, it, ir, ib := inner.X, inner.Y, inner.X+inner.Width, inner.Y+inner.Height
	sides := []struct {
		width float64
		pts   [4][2]float64
	}{
		{b.Border.Top, [4][2]float64{{ol, ot}, {or, ot}, {ir, it}, {il, it}}},
		{b.Border.Right, [4][2]float64{{or, ot}, {or, ob}, {ir, ib}, {ir, it}}},
		{b.Border.Bottom, [4][2]float64{{ol, ob}, {or, ob}, {ir, ib}, {il, ib}}},
		{b.Border.Left, [4][2]float64{{ol, ot}, {ol, ob}, {il, ib}, {il, it}}},
	}
	for i, s := range sides {
		if s.width <= 0 || colors[i].A == 0 {
			continue
		}
		p.setColor(colors[i])
		p.ctx.MoveTo(s.pts[0][0], s.pts[0][1])
		for _, pt := range s.pts[1:] {
			p.ctx.LineTo(pt[0], pt[1])
		}
		p.ctx.ClosePath()
		p.ctx.Fill()
	}
}

func (p *Painter) drawText(e *ui.Element, r layout.Rect) {
	if p.faces == nil || e.Text() == "" {
		return
	}
	st := e.ComputedStyle()
	face, _ := p.faces.Face(layout.Font(st))
	p.ctx.SetFontFace(face)
	p.setColor(st.Color())
	ascent := float64(face.Metrics().Ascent) / 64
	p.ctx.DrawString(e.Text(), r.X, r.Y+math.Ceil(ascent))
}

// drawImage draws name into r. Content images are scaled to the box;
// background images keep their size and are clipped. A missing content
// image gets a crossed placeholder.
func (p *Painter) drawImage(name string, r layout.Rect, scale bool) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	var img image.Image
	if p.images != nil {
		img, _ = p.images.Image(name)
	}
	if img == nil {
		if scale {
			p.placeholder(r)
		}
		return
	}
	w, h := int(math.Round(r.Width)), int(math.Round(r.Height))
	if scale && (img.Bounds().Dx() != w || img.Bounds().Dy() != h) {
		img = imaging.Resize(img, w, h, imaging.Linear)
	}
	if !scale {
		img = imaging.Crop(img, image.Rect(0, 0, w, h))
	}
	p.ctx.DrawImage(img, int(math.Round(r.X)), int(math.Round(r.Y)))
}

func (p *Painter) placeholder(r layout.Rect) {
	p.ctx.SetRGB(0.9, 0.9, 0.9)
	p.ctx.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	p.ctx.Fill()
	p.ctx.SetRGB(0.5, 0.5, 0.5)
	p.ctx.SetLineWidth(1)
	p.ctx.DrawLine(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	p.ctx.DrawLine(r.X+r.Width, r.Y, r.X, r.Y+r.Height)
	p.ctx.Stroke()
}

// drawScrollbar draws a thumb along the right padding edge of a scrolled
// box.
func (p *Painter) drawScrollbar(e *ui.Element, off layout.Point) {
	b := e.Box()
	maxY := b.MaxScroll().Y
	if maxY <= 0 {
		return
	}
	pad := shift(e.Geometry().Padding, off)
	visible := pad.Height / (pad.Height + maxY)
	thumb := max(scrollbarWidth, pad.Height*visible)
	y := pad.Y + (pad.Height-thumb)*(b.ScrollTop/maxY)
	p.ctx.SetRGBA255(160, 160, 160, 200)
	p.ctx.DrawRectangle(pad.X+pad.Width-scrollbarWidth, y, scrollbarWidth, thumb)
	p.ctx.Fill()
}

func shift(r layout.Rect, off layout.Point) layout.Rect {
	r.X += off.X
	r.Y += off.Y
	return r
}

func union(a, b layout.Rect) layout.Rect {
	x0, y0 := min(a.X, b.X), min(a.Y, b.Y)
	x1, y1 := max(a.X+a.Width, b.X+b.Width), max(a.Y+a.Height, b.Y+b.Height)
	return layout.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func intersect(a, b layout.Rect) layout.Rect {
	x0, y0 := max(a.X, b.X), max(a.Y, b.Y)
	x1, y1 := min(a.X+a.Width, b.X+b.Width), min(a.Y+a.Height, b.Y+b.Height)
	if x1 <= x0 || y1 <= y0 {
		return layout.Rect{}
	}
	return layout.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
