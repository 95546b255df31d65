package style

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"vpui/pkg/css"
)

func declsToMap(decls []css.Declaration) map[string]string {
	m := make(map[string]string, len(decls))
	for _, d := range decls {
		m[d.Property] = d.Value.String()
	}
	return m
}

func TestExpand(t *testing.T) {
	red := css.Color{R: 255, G: 0, B: 0, A: 255}
	tests := []struct {
		name string
		in   css.Declaration
		want map[string]string
	}{
		{
			name: "margin one value",
			in:   css.Declaration{Property: "margin", Value: css.Px(10)},
			want: map[string]string{"margin-top": "10px", "margin-right": "10px", "margin-bottom": "10px", "margin-left": "10px"},
		},
		{
			name: "margin four values",
			in:   css.Declaration{Property: "margin", Value: css.Tuple{css.Px(1), css.Px(2), css.Px(3), css.Px(4)}},
			want: map[string]string{"margin-top": "1px", "margin-right": "2px", "margin-bottom": "3px", "margin-left": "4px"},
		},
		{
			name: "padding two values",
			in:   css.Declaration{Property: "padding", Value: css.Tuple{css.Px(1), css.Px(2)}},
			want: map[string]string{"padding-top": "1px", "padding-right": "2px", "padding-bottom": "1px", "padding-left": "2px"},
		},
		{
			name: "padding three values",
			in:   css.Declaration{Property: "padding", Value: css.Tuple{css.Px(1), css.Px(2), css.Px(3)}},
			want: map[string]string{"padding-top": "1px", "padding-right": "2px", "padding-bottom": "3px", "padding-left": "2px"},
		},
		{
			name: "border width and color",
			in:   css.Declaration{Property: "border", Value: css.Tuple{css.Px(2), css.Scalar("solid"), red}},
			want: map[string]string{
				"border-top-width": "2px", "border-right-width": "2px", "border-bottom-width": "2px", "border-left-width": "2px",
				"border-style":     "solid",
				"border-top-color": "#ff0000", "border-right-color": "#ff0000", "border-bottom-color": "#ff0000", "border-left-color": "#ff0000",
			},
		},
		{
			name: "border-color sides",
			in:   css.Declaration{Property: "border-color", Value: css.Tuple{red, css.Color{A: 255}}},
			want: map[string]string{
				"border-top-color": "#ff0000", "border-right-color": "#000000",
				"border-bottom-color": "#ff0000", "border-left-color": "#000000",
			},
		},
		{
			name: "background color and image",
			in:   css.Declaration{Property: "background", Value: css.Tuple{red, css.URL("bg.png")}},
			want: map[string]string{"background-color": "#ff0000", "background-image": "url(bg.png)"},
		},
		{
			name: "font",
			in:   css.Declaration{Property: "font", Value: css.Tuple{css.Scalar("italic"), css.Scalar("bold"), css.Px(14), css.Scalar("Droid Sans")}},
			want: map[string]string{"font-style": "italic", "font-weight": "bold", "font-size": "14px", "font-family": "Droid Sans"},
		},
		{
			name: "font with numeric weight",
			in:   css.Declaration{Property: "font", Value: css.Tuple{css.NumberUnit{Value: 700}, css.Px(9), css.Scalar("mono")}},
			want: map[string]string{"font-weight": "700", "font-size": "9px", "font-family": "mono"},
		},
		{
			name: "overflow two values",
			in:   css.Declaration{Property: "overflow", Value: css.Tuple{css.Scalar("hidden"), css.Scalar("scroll")}},
			want: map[string]string{"overflow-x": "hidden", "overflow-y": "scroll"},
		},
		{
			name: "width seeds min and max",
			in:   css.Declaration{Property: "width", Value: css.NumberUnit{Value: 50, Unit: css.UnitPercent}},
			want: map[string]string{"width": "50%", "min-width": "50%", "max-width": "50%"},
		},
		{
			name: "initial reaches every longhand",
			in:   css.Declaration{Property: "overflow", Value: css.Scalar("initial")},
			want: map[string]string{"overflow-x": "initial", "overflow-y": "initial"},
		},
		{
			name: "too many margin values stay opaque",
			in:   css.Declaration{Property: "margin", Value: css.Tuple{css.Px(1), css.Px(1), css.Px(1), css.Px(1), css.Px(1)}},
			want: map[string]string{"margin": "1px 1px 1px 1px 1px"},
		},
		{
			name: "longhand passes through",
			in:   css.Declaration{Property: "color", Value: red},
			want: map[string]string{"color": "#ff0000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := declsToMap(Expand(tt.in))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Expand(%s: %s) mismatch (-want +got):\n%s", tt.in.Property, tt.in.Value, diff)
			}
		})
	}
}

func TestMarginRoundTrip(t *testing.T) {
	c := NewComputed(css.Declaration{Property: "margin", Value: css.Px(10)})
	assert.Equal(t, Sides{css.Px(10), css.Px(10), css.Px(10), css.Px(10)}, c.Margin())
	assert.Equal(t, 4, c.Len())

	c = NewComputed(css.Declaration{Property: "margin", Value: css.Tuple{css.Px(1), css.Px(2), css.Px(3), css.Px(4)}})
	assert.Equal(t, Sides{Top: css.Px(1), Right: css.Px(2), Bottom: css.Px(3), Left: css.Px(4)}, c.Margin())
}
