package layout

import (
	"math"

	"vpui/pkg/style"
)

// Point is a position in document coordinates.
type Point struct {
	X, Y float64
}

// Size represents dimensions (width and height).
type Size struct {
	Width, Height float64
}

// Unbounded is a size without constraints.
var Unbounded = Size{math.Inf(1), math.Inf(1)}

// Rect represents a rectangular region.
type Rect struct {
	X, Y, Width, Height float64
}

// Edges holds a length per side.
type Edges struct {
	Top, Right, Bottom, Left float64
}

func (e Edges) horizontal() float64 { return e.Left + e.Right }
func (e Edges) vertical() float64   { return e.Top + e.Bottom }

// Line is a row of boxes placed by flow or table layout. Coordinates are
// relative to the content box of the owner.
type Line struct {
	X, Y          float64
	Width, Height float64
	Boxes         []*Box

	// Inline lines take part in text alignment.
	Inline bool
	// Last marks the final line of an inline run or a line ended by a
	// forced break; text-align-last applies to it.
	Last bool
}

// Block is a group of children flowed together. An inline block wraps its
// boxes into lines; any other block holds a single box on its own line.
type Block struct {
	Inline bool
	Boxes  []*Box
}

// Box is the layout state of one element or text run.
type Box struct {
	Name  string
	Style *style.Computed

	// Text runs carry their text. Space and SpaceAfter mark collapsible
	// whitespace before and after the box; either one separates it from an
	// inline neighbour on the same line. Newline forces a break before it.
	IsText     bool
	Text       string
	Space      bool
	SpaceAfter bool
	Newline    bool

	// Image names a replaced image content source.
	Image string

	Children []*Box
	// Blocks groups Children for flow. When nil it is derived during layout.
	Blocks []Block

	// Results.
	X, Y          float64 // margin box origin
	Width, Height float64 // content box size
	Margin        Edges
	Border        Edges
	Padding       Edges
	Content       Size // extent of laid out content, may exceed Width/Height
	Lines         []Line
	ScrollTop     float64
	ScrollLeft    float64
	// Pending is set when some content below this box is not ready yet.
	Pending bool

	wrapped bool // flow broke an inline line for width
}

// mbp returns the margin, border and padding sums.
func (b *Box) mbp() Size {
	return Size{
		Width:  b.Margin.horizontal() + b.Border.horizontal() + b.Padding.horizontal(),
		Height: b.Margin.vertical() + b.Border.vertical() + b.Padding.vertical(),
	}
}

// OuterSize returns the margin box size.
func (b *Box) OuterSize() Size {
	m := b.mbp()
	return Size{b.Width + m.Width, b.Height + m.Height}
}

// ContentOrigin returns the top left corner of the content box.
func (b *Box) ContentOrigin() Point {
	return Point{
		X: b.X + b.Margin.Left + b.Border.Left + b.Padding.Left,
		Y: b.Y + b.Margin.Top + b.Border.Top + b.Padding.Top,
	}
}

// Geometry is what a renderer needs to paint a box.
type Geometry struct {
	Margin, Border, Padding, Content Rect
	ScrollTop, ScrollLeft            float64
}

// Geometry returns the box rectangles in document coordinates.
func (b *Box) Geometry() Geometry {
	outer := b.OuterSize()
	g := Geometry{
		Margin:     Rect{b.X, b.Y, outer.Width, outer.Height},
		ScrollTop:  b.ScrollTop,
		ScrollLeft: b.ScrollLeft,
	}
	g.Border = inset(g.Margin, b.Margin)
	g.Padding = inset(g.Border, b.Border)
	g.Content = inset(g.Padding, b.Padding)
	return g
}

func inset(r Rect, e Edges) Rect {
	return Rect{
		X:      r.X + e.Left,
		Y:      r.Y + e.Top,
		Width:  max(0, r.Width-e.horizontal()),
		Height: max(0, r.Height-e.vertical()),
	}
}

// shift moves the box and its subtree.
func (b *Box) shift(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	b.X += dx
	b.Y += dy
	for _, c := range b.Children {
		c.shift(dx, dy)
	}
}

// MaxScroll returns the largest scroll offsets: content minus the outer
// box plus margin, border and padding, never below zero.
func (b *Box) MaxScroll() Point {
	m := b.mbp()
	outer := b.OuterSize()
	return Point{
		X: max(0, b.Content.Width-outer.Width+m.Width),
		Y: max(0, b.Content.Height-outer.Height+m.Height),
	}
}

// SetScrollTop clamps v into range and stores it. It returns the stored
// offset.
func (b *Box) SetScrollTop(v float64) float64 {
	b.ScrollTop = clamp(v, 0, b.MaxScroll().Y)
	return b.ScrollTop
}

// SetScrollLeft clamps v into range and stores it.
func (b *Box) SetScrollLeft(v float64) float64 {
	b.ScrollLeft = clamp(v, 0, b.MaxScroll().X)
	return b.ScrollLeft
}

func (b *Box) clampScroll() {
	b.SetScrollTop(b.ScrollTop)
	b.SetScrollLeft(b.ScrollLeft)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
