package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a declaration value. It is one of Scalar, NumberUnit, Color,
// Cursor, URL or Tuple.
type Value interface {
	isValue()
	String() string
}

// Scalar is a bare keyword, identifier or string.
type Scalar string

// Unit is the unit suffix of a NumberUnit. Units outside the known set are
// carried through unchanged and resolve to zero during layout.
type Unit string

const (
	UnitNone    Unit = ""
	UnitPx      Unit = "px"
	UnitPt      Unit = "pt"
	UnitPercent Unit = "%"
	UnitVW      Unit = "vw"
	UnitVH      Unit = "vh"
)

// NumberUnit is a number with an optional unit, e.g. 10px or 50%.
type NumberUnit struct {
	Value float64
	Unit  Unit
}

// Px returns n as a px length.
func Px(v float64) NumberUnit { return NumberUnit{Value: v, Unit: UnitPx} }

// Color is an RGBA color with 8-bit channels.
type Color struct {
	R, G, B, A uint8
}

// URL is the target of url(...).
type URL string

// Tuple holds the values of a multi-value declaration such as
// "border: 1px red".
type Tuple []Value

func (Scalar) isValue()     {}
func (NumberUnit) isValue() {}
func (Color) isValue()      {}
func (Cursor) isValue()     {}
func (URL) isValue()        {}
func (Tuple) isValue()      {}

func (s Scalar) String() string { return string(s) }

func (n NumberUnit) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64) + string(n.Unit)
}

func (c Color) String() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (u URL) String() string { return "url(" + string(u) + ")" }

func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

// Equal reports whether two values are identical. Nil values are equal only
// to each other.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// IsKeyword reports whether v is the scalar keyword kw.
func IsKeyword(v Value, kw string) bool {
	s, ok := v.(Scalar)
	return ok && string(s) == kw
}

// Cursor is a mouse cursor keyword.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorPointer
	CursorText
	CursorMove
	CursorCrosshair
	CursorWait
	CursorHelp
	CursorGrab
	CursorGrabbing
	CursorNotAllowed
	CursorEWResize
	CursorNSResize
	CursorNone
)

var cursorNames = []string{
	CursorDefault:    "default",
	CursorPointer:    "pointer",
	CursorText:       "text",
	CursorMove:       "move",
	CursorCrosshair:  "crosshair",
	CursorWait:       "wait",
	CursorHelp:       "help",
	CursorGrab:       "grab",
	CursorGrabbing:   "grabbing",
	CursorNotAllowed: "not-allowed",
	CursorEWResize:   "ew-resize",
	CursorNSResize:   "ns-resize",
	CursorNone:       "none",
}

func (c Cursor) String() string {
	if int(c) >= 0 && int(c) < len(cursorNames) {
		return cursorNames[c]
	}
	return "default"
}

// ParseCursor looks up a cursor keyword.
func ParseCursor(name string) (Cursor, bool) {
	for i, n := range cursorNames {
		if n == name {
			return Cursor(i), true
		}
	}
	return CursorDefault, false
}

var namedColors = map[string]Color{
	"transparent": {0, 0, 0, 0},
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"cyan":        {0, 255, 255, 255},
	"magenta":     {255, 0, 255, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"darkgray":    {169, 169, 169, 255},
	"lightgray":   {211, 211, 211, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"pink":        {255, 192, 203, 255},
	"brown":       {165, 42, 42, 255},
	"lime":        {0, 255, 0, 255},
	"navy":        {0, 0, 128, 255},
	"teal":        {0, 128, 128, 255},
	"silver":      {192, 192, 192, 255},
	"maroon":      {128, 0, 0, 255},
	"olive":       {128, 128, 0, 255},
}

// ParseColor parses a color literal: a named color, #rgb, #rgba, #rrggbb,
// #rrggbbaa, rgb(), rgba(), hsl() or hsla().
func ParseColor(colorStr string) (Color, bool) {
	s := strings.ToLower(strings.TrimSpace(colorStr))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Color{}, false
	}
	fn := s[:open]
	args := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	switch fn {
	case "rgb", "rgba":
		return parseRGB(args)
	case "hsl", "hsla":
		return parseHSL(args)
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	var digits []uint8
	for _, r := range hex {
		d, ok := hexDigit(r)
		if !ok {
			return Color{}, false
		}
		digits = append(digits, d)
	}
	switch len(digits) {
	case 3, 4:
		c := Color{R: digits[0] * 17, G: digits[1] * 17, B: digits[2] * 17, A: 255}
		if len(digits) == 4 {
			c.A = digits[3] * 17
		}
		return c, true
	case 6, 8:
		c := Color{
			R: digits[0]<<4 | digits[1],
			G: digits[2]<<4 | digits[3],
			B: digits[4]<<4 | digits[5],
			A: 255,
		}
		if len(digits) == 8 {
			c.A = digits[6]<<4 | digits[7]
		}
		return c, true
	}
	return Color{}, false
}

func hexDigit(r rune) (uint8, bool) {
	switch {
	case r >= '0' && r <= '9':
		return uint8(r - '0'), true
	case r >= 'a' && r <= 'f':
		return uint8(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return uint8(r-'A') + 10, true
	}
	return 0, false
}

func parseRGB(args []string) (Color, bool) {
	if len(args) != 3 && len(args) != 4 {
		return Color{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, ok := parseChannel(args[i], 255)
		if !ok {
			return Color{}, false
		}
		ch[i] = v
	}
	c := Color{R: ch[0], G: ch[1], B: ch[2], A: 255}
	if len(args) == 4 {
		a, ok := parseAlpha(args[3])
		if !ok {
			return Color{}, false
		}
		c.A = a
	}
	return c, true
}

func parseHSL(args []string) (Color, bool) {
	if len(args) != 3 && len(args) != 4 {
		return Color{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return Color{}, false
	}
	sat, ok1 := parseFraction(args[1])
	light, ok2 := parseFraction(args[2])
	if !ok1 || !ok2 {
		return Color{}, false
	}
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	var r, g, b float64
	if sat == 0 {
		r, g, b = light, light, light
	} else {
		q := light * (1 + sat)
		if light >= 0.5 {
			q = light + sat - light*sat
		}
		p := 2*light - q
		r = hueToRGB(p, q, h+1.0/3)
		g = hueToRGB(p, q, h)
		b = hueToRGB(p, q, h-1.0/3)
	}
	c := Color{R: to8(r), G: to8(g), B: to8(b), A: 255}
	if len(args) == 4 {
		a, ok := parseAlpha(args[3])
		if !ok {
			return Color{}, false
		}
		c.A = a
	}
	return c, true
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

// parseChannel parses an integer channel or a percentage of max.
func parseChannel(s string, max float64) (uint8, bool) {
	if strings.HasSuffix(s, "%") {
		f, ok := parseFraction(s)
		if !ok {
			return 0, false
		}
		return to8(f), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return to8(v / max), true
}

func parseAlpha(s string) (uint8, bool) {
	if strings.HasSuffix(s, "%") {
		f, ok := parseFraction(s)
		return to8(f), ok
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return to8(v), true
}

func parseFraction(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	return v / 100, true
}

func to8(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(math.Round(f * 255))
}

// ParseNumberUnit parses strings such as "10px", "-2.5", "50%".
func ParseNumberUnit(s string) (NumberUnit, bool) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] == '-' || s[i] == '+' || s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return NumberUnit{}, false
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return NumberUnit{}, false
	}
	return NumberUnit{Value: v, Unit: Unit(s[i:])}, true
}
