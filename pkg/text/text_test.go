package text

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestSplitRuns(t *testing.T) {
	tests := []struct {
		mode string
		in   string
		want []Run
	}{
		{"normal", "AAAA  BBBB\n CCCC", []Run{{Text: "AAAA"}, {Text: "BBBB", Space: true}, {Text: "CCCC", Space: true}}},
		{"normal", " lead", []Run{{Text: "lead", Space: true}}},
		{"normal", "   ", nil},
		{"normal", "Hello ", []Run{{Text: "Hello", SpaceAfter: true}}},
		{"normal", " a b\n", []Run{{Text: "a", Space: true}, {Text: "b", Space: true, SpaceAfter: true}}},
		{"nowrap", "a b ", []Run{{Text: "a b", SpaceAfter: true}}},
		{"nowrap", "a  b\nc", []Run{{Text: "a b c"}}},
		{"pre", "a  b\nc", []Run{{Text: "a  b"}, {Text: "c", Newline: true}}},
		{"pre-wrap", "a  b\n c", []Run{{Text: "a  "}, {Text: "b"}, {Text: " c", Newline: true}}},
		{"pre-line", "a  b\nc", []Run{{Text: "a"}, {Text: "b", Space: true}, {Text: "c", Newline: true}}},
		{"pre-line", "a\n\nb", []Run{{Text: "a"}, {Newline: true}, {Text: "b", Newline: true}}},
		{"pre-line", "a \nb", []Run{{Text: "a", SpaceAfter: true}, {Text: "b", Newline: true}}},
		{"normal", "", nil},
		{"nowrap", "", nil},
		{"pre", "", nil},
		{"pre-wrap", "", nil},
		{"pre-line", "", nil},
	}
	for _, tt := range tests {
		got := SplitRuns(tt.in, tt.mode)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("SplitRuns(%q, %s) mismatch (-want +got):\n%s", tt.in, tt.mode, diff)
		}
	}
}

func TestWraps(t *testing.T) {
	assert.True(t, Wraps("normal"))
	assert.True(t, Wraps("pre-wrap"))
	assert.False(t, Wraps("nowrap"))
	assert.False(t, Wraps("pre"))
}

func TestNewFontID(t *testing.T) {
	assert.Equal(t, FontID{Family: "droid sans", Bold: true}, NewFontID(`"Droid Sans"`, "normal", "bold"))
	assert.Equal(t, FontID{Family: "mono", Italic: true, Bold: true}, NewFontID("mono", "italic", "700"))
	assert.False(t, NewFontID("serif", "normal", "400").Bold)
	assert.True(t, NewFontID("monospace", "", "").Mono())
}

func TestFontConfigPath(t *testing.T) {
	fc := FontConfigIn("/fonts")
	assert.Equal(t, "/fonts/AtkinsonHyperlegible-Regular.ttf", fc.Path(FontID{}))
	assert.Equal(t, "/fonts/AtkinsonHyperlegible-BoldItalic.ttf", fc.Path(FontID{Bold: true, Italic: true}))
	assert.Equal(t, "/fonts/AtkinsonHyperlegibleMono-Bold.otf", fc.Path(FontID{Family: "monospace", Bold: true}))

	fc.Bold = ""
	assert.Equal(t, fc.Regular, fc.Path(FontID{Bold: true}))
}

func TestFixedMeasurer(t *testing.T) {
	m := FixedMeasurer{Char: 10, Space: 10, Line: 20}
	w, h := m.Measure("AAAA BBBB", FontID{}, 12)
	assert.Equal(t, 90.0, w)
	assert.Equal(t, 20.0, h)
	assert.Equal(t, 16.0, FixedMeasurer{}.LineHeight(FontID{}, 16))
}

func TestGGMeasurer_FallsBackToBitmapFace(t *testing.T) {
	m := NewGGMeasurer(FontConfig{Regular: "/nonexistent/font.ttf"}, zaptest.NewLogger(t))
	w, h := m.Measure("abc", FontID{}, 13)
	assert.Equal(t, 21.0, w, "7px advance per glyph at native size")
	assert.Equal(t, 13.0, h)

	w2, _ := m.Measure("abc", FontID{}, 26)
	assert.InDelta(t, 2*w, w2, 0.001)
	assert.Equal(t, m.LineHeight(FontID{}, 26), 26.0)
}
