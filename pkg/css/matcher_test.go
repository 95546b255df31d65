package css

import "testing"

// path builds an element path from selector syntax, e.g. "div.a span p".
func path(t *testing.T, s string) []SelectorPart {
	t.Helper()
	sel, err := ParseSelector(s)
	if err != nil {
		t.Fatalf("bad path %q: %v", s, err)
	}
	return sel.Parts
}

func TestMatchSelector(t *testing.T) {
	tests := []struct {
		selector string
		path     string
		want     bool
	}{
		{"p", "div p", true},
		{"div p", "div span p", true},
		{"div > p", "div span p", false},
		{"div > span > p", "div span p", true},
		{"a > b c", "a b b c", true},
		{"a > b c", "x b b c", false},
		{"a b", "a", false},
		{".x", "div.x.y", true},
		{".x.z", "div.x.y", false},
		{"div", "div::before", false},
		{"div::before", "div::before", true},
		{":hover", "a:hover", true},
		{"a:hover", "a", false},
		{`[type="text"]`, `input[type="text"]`, true},
		{`[type="radio"]`, `input[type="text"]`, false},
		{"[type]", `input[type="text"]`, true},
		{"*", "span", true},
		{"#main p", "body div#main section p", true},
		{"#main > p", "body div#main section p", false},
	}

	for _, tt := range tests {
		t.Run(tt.selector+" on "+tt.path, func(t *testing.T) {
			sel, err := ParseSelector(tt.selector)
			if err != nil {
				t.Fatalf("ParseSelector(%q): %v", tt.selector, err)
			}
			if got := MatchSelector(sel, path(t, tt.path)); got != tt.want {
				t.Errorf("MatchSelector(%q, %q) = %v, want %v", tt.selector, tt.path, got, tt.want)
			}
		})
	}
}

func TestMatchSelector_EmptyPath(t *testing.T) {
	sel, _ := ParseSelector("div")
	if MatchSelector(sel, nil) {
		t.Error("empty path should not match")
	}
}
