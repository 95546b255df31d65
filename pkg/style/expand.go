package style

import (
	"vpui/pkg/css"
)

var sides = [4]string{"top", "right", "bottom", "left"}

func sideNames(prefix, suffix string) []string {
	out := make([]string, 4)
	for i, s := range sides {
		out[i] = prefix + s + suffix
	}
	return out
}

// shorthands maps each shorthand property to the longhands it sets.
var shorthands = map[string][]string{
	"margin":       sideNames("margin-", ""),
	"padding":      sideNames("padding-", ""),
	"border-width": sideNames("border-", "-width"),
	"border-color": sideNames("border-", "-color"),
	"border":       append(append(sideNames("border-", "-width"), "border-style"), sideNames("border-", "-color")...),
	"background":   {"background-color", "background-image"},
	"font":         {"font-style", "font-weight", "font-size", "font-family"},
	"overflow":     {"overflow-x", "overflow-y"},
	"width":        {"width", "min-width", "max-width"},
	"height":       {"height", "min-height", "max-height"},
}

// Expand rewrites a declaration into longhand declarations. Declarations
// that are not shorthands, or whose values do not fit the shorthand, are
// returned unchanged.
func Expand(d css.Declaration) []css.Declaration {
	longhands, ok := shorthands[d.Property]
	if !ok {
		return []css.Declaration{d}
	}
	if css.IsKeyword(d.Value, "initial") || css.IsKeyword(d.Value, "inherit") {
		return fill(longhands, d.Value)
	}

	vals := values(d.Value)
	var out []css.Declaration
	switch d.Property {
	case "margin", "padding", "border-width", "border-color":
		trbl, ok := expandTRBL(vals)
		if !ok {
			return []css.Declaration{d}
		}
		for i, v := range trbl {
			out = append(out, css.Declaration{Property: longhands[i], Value: v})
		}
	case "border":
		out = expandBorder(vals)
	case "background":
		out = expandBackground(vals)
	case "font":
		out = expandFont(vals)
	case "overflow":
		switch len(vals) {
		case 1:
			out = fill(longhands, vals[0])
		case 2:
			out = []css.Declaration{
				{Property: "overflow-x", Value: vals[0]},
				{Property: "overflow-y", Value: vals[1]},
			}
		}
	case "width", "height":
		if len(vals) == 1 {
			out = fill(longhands, vals[0])
		}
	}
	if len(out) == 0 {
		return []css.Declaration{d}
	}
	return out
}

func fill(props []string, v css.Value) []css.Declaration {
	out := make([]css.Declaration, len(props))
	for i, p := range props {
		out[i] = css.Declaration{Property: p, Value: v}
	}
	return out
}

func values(v css.Value) []css.Value {
	if t, ok := v.(css.Tuple); ok {
		return t
	}
	return []css.Value{v}
}

// expandTRBL applies the 1 to 4 value top/right/bottom/left rule.
func expandTRBL(vals []css.Value) ([4]css.Value, bool) {
	switch len(vals) {
	case 1:
		return [4]css.Value{vals[0], vals[0], vals[0], vals[0]}, true
	case 2:
		return [4]css.Value{vals[0], vals[1], vals[0], vals[1]}, true
	case 3:
		return [4]css.Value{vals[0], vals[1], vals[2], vals[1]}, true
	case 4:
		return [4]css.Value{vals[0], vals[1], vals[2], vals[3]}, true
	}
	return [4]css.Value{}, false
}

// expandBorder handles "border: <width> <style> <color>" in any order.
func expandBorder(vals []css.Value) []css.Declaration {
	var out []css.Declaration
	for _, v := range vals {
		switch v.(type) {
		case css.NumberUnit:
			out = append(out, fill(sideNames("border-", "-width"), v)...)
		case css.Color:
			out = append(out, fill(sideNames("border-", "-color"), v)...)
		case css.Scalar:
			if css.IsKeyword(v, "none") {
				out = append(out, fill(sideNames("border-", "-width"), css.Px(0))...)
			}
			out = append(out, css.Declaration{Property: "border-style", Value: v})
		}
	}
	return out
}

func expandBackground(vals []css.Value) []css.Declaration {
	var out []css.Declaration
	for _, v := range vals {
		switch v.(type) {
		case css.Color:
			out = append(out, css.Declaration{Property: "background-color", Value: v})
		case css.URL:
			out = append(out, css.Declaration{Property: "background-image", Value: v})
		case css.Scalar:
			if css.IsKeyword(v, "none") {
				out = append(out, css.Declaration{Property: "background-image", Value: v})
			}
		}
	}
	return out
}

// expandFont handles "font: [style] [weight] <size> <family...>".
func expandFont(vals []css.Value) []css.Declaration {
	var style, weight, size css.Value
	var family []css.Value
	for _, v := range vals {
		switch {
		case family != nil:
			family = append(family, v)
		case css.IsKeyword(v, "italic") || css.IsKeyword(v, "oblique"):
			style = v
		case css.IsKeyword(v, "bold") || css.IsKeyword(v, "bolder") || css.IsKeyword(v, "lighter") || isWeightNumber(v):
			weight = v
		case css.IsKeyword(v, "normal"):
			if style == nil {
				style = v
			} else {
				weight = v
			}
		default:
			if n, ok := v.(css.NumberUnit); ok && size == nil {
				size = n
				continue
			}
			family = append(family, v)
		}
	}

	var out []css.Declaration
	add := func(prop string, v css.Value) {
		if v != nil {
			out = append(out, css.Declaration{Property: prop, Value: v})
		}
	}
	add("font-style", style)
	add("font-weight", weight)
	add("font-size", size)
	switch len(family) {
	case 0:
	case 1:
		add("font-family", family[0])
	default:
		add("font-family", css.Tuple(family))
	}
	return out
}

func isWeightNumber(v css.Value) bool {
	n, ok := v.(css.NumberUnit)
	return ok && n.Unit == css.UnitNone && n.Value >= 100 && n.Value <= 900
}
