package css

import "testing"

func TestParseColor(t *testing.T) {
	tests := []struct {
		input string
		want  Color
		ok    bool
	}{
		{"red", Color{255, 0, 0, 255}, true},
		{"Transparent", Color{0, 0, 0, 0}, true},
		{"#f00", Color{255, 0, 0, 255}, true},
		{"#ff000080", Color{255, 0, 0, 128}, true},
		{"rgb(0, 128, 255)", Color{0, 128, 255, 255}, true},
		{"rgba(0,0,0,0.5)", Color{0, 0, 0, 128}, true},
		{"rgb(100%, 0%, 0%)", Color{255, 0, 0, 255}, true},
		{"hsl(120, 100%, 50%)", Color{0, 255, 0, 255}, true},
		{"hsla(0, 0%, 100%, 1)", Color{255, 255, 255, 255}, true},
		{"nope", Color{}, false},
		{"#12345", Color{}, false},
		{"rgb(1, 2)", Color{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseColor(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseColor(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same scalar", Scalar("auto"), Scalar("auto"), true},
		{"scalar vs url", Scalar("a"), URL("a"), false},
		{"number units differ", Px(1), NumberUnit{Value: 1, Unit: UnitPt}, false},
		{"tuples", Tuple{Px(1), Color{1, 2, 3, 255}}, Tuple{Px(1), Color{1, 2, 3, 255}}, true},
		{"tuple lengths", Tuple{Px(1)}, Tuple{Px(1), Px(1)}, false},
		{"tuple vs scalar", Tuple{Px(1)}, Px(1), false},
		{"nil", nil, nil, true},
		{"nil vs value", nil, Px(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseNumberUnit(t *testing.T) {
	n, ok := ParseNumberUnit("12.5pt")
	if !ok || n != (NumberUnit{Value: 12.5, Unit: UnitPt}) {
		t.Errorf("got %v, %v", n, ok)
	}
	if _, ok := ParseNumberUnit("px"); ok {
		t.Error("unit without number should fail")
	}
	if got := Px(3).String(); got != "3px" {
		t.Errorf("String() = %q", got)
	}
}
