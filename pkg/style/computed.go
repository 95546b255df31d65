package style

import (
	"maps"
	"slices"
	"strings"

	"vpui/pkg/css"
)

// Computed is a cascaded style: longhand property to value. Values returned
// by the engine are shared through its cache and must not be modified.
type Computed struct {
	props map[string]css.Value
}

func newComputed() *Computed {
	return &Computed{props: make(map[string]css.Value)}
}

// NewComputed builds a style from declarations, expanding shorthands and
// dropping "initial" the way the cascade does.
func NewComputed(decls ...css.Declaration) *Computed {
	c := newComputed()
	for _, d := range decls {
		c.apply(d)
	}
	c.dropInitial()
	return c
}

func (c *Computed) apply(d css.Declaration) {
	for _, e := range Expand(d) {
		c.props[e.Property] = e.Value
	}
}

func (c *Computed) dropInitial() {
	maps.DeleteFunc(c.props, func(_ string, v css.Value) bool {
		return css.IsKeyword(v, "initial")
	})
}

func (c *Computed) clone() *Computed {
	return &Computed{props: maps.Clone(c.props)}
}

// Get returns the value of prop.
func (c *Computed) Get(prop string) (css.Value, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.props[prop]
	return v, ok
}

// Len returns the number of properties.
func (c *Computed) Len() int {
	if c == nil {
		return 0
	}
	return len(c.props)
}

// Properties returns the property names in sorted order.
func (c *Computed) Properties() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.props))
}

// Equal reports whether both styles hold the same properties and values.
func (c *Computed) Equal(o *Computed) bool {
	if c.Len() != o.Len() {
		return false
	}
	if c == nil || o == nil {
		return true
	}
	for k, v := range c.props {
		ov, ok := o.props[k]
		if !ok || !css.Equal(v, ov) {
			return false
		}
	}
	return true
}

func (c *Computed) String() string {
	var b strings.Builder
	for i, k := range c.Properties() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k + ": " + c.props[k].String() + ";")
	}
	return b.String()
}

// Length returns prop as a number. Keywords such as auto report false.
func (c *Computed) Length(prop string) (css.NumberUnit, bool) {
	v, _ := c.Get(prop)
	n, ok := v.(css.NumberUnit)
	return n, ok
}

// Keyword returns prop as a keyword, or def when unset or not a keyword.
func (c *Computed) Keyword(prop, def string) string {
	v, _ := c.Get(prop)
	if s, ok := v.(css.Scalar); ok {
		return string(s)
	}
	return def
}

// Sides holds a value for each side of a box.
type Sides struct {
	Top, Right, Bottom, Left css.NumberUnit
}

func (c *Computed) sides(prefix, suffix string) Sides {
	var s Sides
	out := [4]*css.NumberUnit{&s.Top, &s.Right, &s.Bottom, &s.Left}
	for i, side := range sides {
		if n, ok := c.Length(prefix + side + suffix); ok {
			*out[i] = n
		}
	}
	return s
}

// Margin returns the four margins; non-numeric values count as zero.
func (c *Computed) Margin() Sides { return c.sides("margin-", "") }

// Padding returns the four paddings.
func (c *Computed) Padding() Sides { return c.sides("padding-", "") }

// BorderWidth returns the four border widths.
func (c *Computed) BorderWidth() Sides { return c.sides("border-", "-width") }

// BorderColors returns the four border colors; unset sides use the text
// color.
func (c *Computed) BorderColors() [4]css.Color {
	var out [4]css.Color
	for i, side := range sides {
		out[i] = c.colorOr("border-"+side+"-color", c.Color())
	}
	return out
}

func (c *Computed) Display() string { return c.Keyword("display", "inline") }
func (c *Computed) WhiteSpace() string { return c.Keyword("white-space", "normal") }
func (c *Computed) TextAlign() string { return c.Keyword("text-align", "left") }
func (c *Computed) TextAlignLast() string { return c.Keyword("text-align-last", "auto") }
func (c *Computed) TextTransform() string { return c.Keyword("text-transform", "none") }
func (c *Computed) OverflowX() string { return c.Keyword("overflow-x", "visible") }
func (c *Computed) OverflowY() string { return c.Keyword("overflow-y", "visible") }

// Overflow returns overflow-x and overflow-y.
func (c *Computed) Overflow() (x, y string) { return c.OverflowX(), c.OverflowY() }

// Font is the resolved font selection.
type Font struct {
	Family string
	Style  string
	Weight string
	Size   css.NumberUnit
}

// DefaultFontSize is used when no font-size applies.
var DefaultFontSize = css.Px(16)

// Font returns the font properties with defaults filled in. Numeric weights
// of 600 and above count as bold.
func (c *Computed) Font() Font {
	f := Font{Family: "sans-serif", Style: "normal", Weight: "normal", Size: DefaultFontSize}
	if v, ok := c.Get("font-family"); ok {
		if t, isTuple := v.(css.Tuple); isTuple && len(t) > 0 {
			v = t[0]
		}
		if s, isScalar := v.(css.Scalar); isScalar {
			f.Family = string(s)
		}
	}
	f.Style = c.Keyword("font-style", f.Style)
	switch v, _ := c.Get("font-weight"); w := v.(type) {
	case css.Scalar:
		f.Weight = string(w)
		if w == "bolder" {
			f.Weight = "bold"
		}
	case css.NumberUnit:
		if w.Value >= 600 {
			f.Weight = "bold"
		}
	}
	if n, ok := c.Length("font-size"); ok {
		f.Size = n
	}
	return f
}

func (c *Computed) colorOr(prop string, def css.Color) css.Color {
	v, _ := c.Get(prop)
	if col, ok := v.(css.Color); ok {
		return col
	}
	return def
}

// Color returns the text color, black by default.
func (c *Computed) Color() css.Color {
	return c.colorOr("color", css.Color{A: 255})
}

// BackgroundColor returns the background color, transparent by default.
func (c *Computed) BackgroundColor() css.Color {
	return c.colorOr("background-color", css.Color{})
}

// BackgroundImage returns the url of the background image.
func (c *Computed) BackgroundImage() (string, bool) {
	v, _ := c.Get("background-image")
	u, ok := v.(css.URL)
	return string(u), ok
}

// Cursor returns the mouse cursor.
func (c *Computed) Cursor() css.Cursor {
	switch v, _ := c.Get("cursor"); cur := v.(type) {
	case css.Cursor:
		return cur
	case css.Scalar:
		if parsed, ok := css.ParseCursor(string(cur)); ok {
			return parsed
		}
	}
	return css.CursorDefault
}

// Content returns the generated content of a ::before or ::after box.
// "none" and "normal" mean no box.
func (c *Computed) Content() (string, bool) {
	v, ok := c.Get("content")
	if !ok || css.IsKeyword(v, "none") || css.IsKeyword(v, "normal") {
		return "", false
	}
	var b strings.Builder
	for _, part := range values(v) {
		switch p := part.(type) {
		case css.Scalar:
			b.WriteString(string(p))
		case css.NumberUnit:
			b.WriteString(p.String())
		}
	}
	return b.String(), true
}
