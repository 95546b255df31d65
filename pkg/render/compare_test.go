package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpui/pkg/ui"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestCompare(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	a := solid(10, 10, white)
	b := solid(10, 10, white)
	b.SetRGBA(3, 4, color.RGBA{250, 255, 255, 255})
	b.SetRGBA(7, 7, color.RGBA{0, 0, 0, 255})

	res, diff, err := Compare(a, b, CompareOptions{})
	require.NoError(t, err)
	assert.Equal(t, CompareResult{Match: false, DifferentPixels: 2, TotalPixels: 100, MaxDifference: 255}, res)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, diff.NRGBAAt(7, 7))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, diff.NRGBAAt(0, 0))

	res, _, err = Compare(a, b, CompareOptions{Tolerance: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, res.DifferentPixels)

	res, _, err = Compare(a, b, CompareOptions{Tolerance: 5, MaxDifferentPercent: 1})
	require.NoError(t, err)
	assert.True(t, res.Match)

	_, _, err = Compare(a, solid(5, 5, white), CompareOptions{})
	assert.Error(t, err)
}

func TestCompare_Fuzzy(t *testing.T) {
	black := color.RGBA{0, 0, 0, 255}
	a := solid(5, 5, color.RGBA{255, 255, 255, 255})
	b := solid(5, 5, color.RGBA{255, 255, 255, 255})
	a.SetRGBA(2, 2, black)
	b.SetRGBA(3, 2, black)

	res, _, err := Compare(a, b, CompareOptions{})
	require.NoError(t, err)
	assert.False(t, res.Match)

	res, _, err = Compare(a, b, CompareOptions{FuzzyRadius: 1})
	require.NoError(t, err)
	assert.True(t, res.Match, "one pixel shift is tolerated")
}

// Equivalent stylesheets must paint the same pixels.
func TestPainter_EquivalentStylesRenderAlike(t *testing.T) {
	paint := func(css string) image.Image {
		p := NewPainter(100, 100, nil, nil, nil)
		d := newPaintedDoc(t, p, css)
		for range 2 {
			div := d.CreateElement("div")
			div.AddClass("a")
			require.NoError(t, d.Body().AppendChild(div))
		}
		d.Update()
		p.Paint(d)
		return p.Image()
	}
	shorthand := paint(`.a { display: block; height: 10px; margin: 5px 10px; border: 3px solid #008000; background-color: #ffff00; }`)
	longhand := paint(`.a {
		display: block; height: 10px;
		margin-top: 5px; margin-right: 10px; margin-bottom: 5px; margin-left: 10px;
		border-width: 3px; border-style: solid; border-color: #008000;
		background-color: #ffff00;
	}`)

	res, _, err := Compare(longhand, shorthand, CompareOptions{})
	require.NoError(t, err)
	assert.True(t, res.Match, "%d pixels differ", res.DifferentPixels)

	other := paint(`.a { display: block; height: 12px; background-color: #ffff00; }`)
	res, _, err = Compare(other, shorthand, CompareOptions{})
	require.NoError(t, err)
	assert.False(t, res.Match)
}

var _ ui.Renderer = (*Painter)(nil)
