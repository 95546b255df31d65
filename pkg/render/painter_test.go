package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"vpui/pkg/layout"
	"vpui/pkg/text"
	"vpui/pkg/ui"
)

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func newPaintedDoc(t *testing.T, p *Painter, css string) *ui.Document {
	t.Helper()
	d, err := ui.NewDocument(
		ui.WithLogger(zaptest.NewLogger(t)),
		ui.WithRenderer(p),
		ui.WithViewport(100, 100),
		ui.WithMeasurer(text.FixedMeasurer{Char: 8, Space: 4, Line: 16}))
	require.NoError(t, err)
	require.NoError(t, d.LoadStylesheet(css))
	return d
}

func TestPainter_BackgroundAndBorder(t *testing.T) {
	p := NewPainter(100, 100, nil, nil, zaptest.NewLogger(t))
	d := newPaintedDoc(t, p, `.a { display: block; height: 20px; background-color: #ff0000; border: 2px solid #0000ff; }`)
	div := d.CreateElement("div")
	div.AddClass("a")
	require.NoError(t, d.Body().AppendChild(div))
	d.Update()

	require.True(t, p.Paint(d))
	img := p.Image()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgbaAt(img, 50, 10))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgbaAt(img, 50, 0))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgbaAt(img, 0, 10))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgbaAt(img, 50, 60))

	assert.False(t, p.Paint(d), "nothing changed")
	assert.Equal(t, 1, p.Frames())

	require.NoError(t, div.SetStyle("background-color: #00ff00"))
	d.Update()
	damage, ok := p.Damage()
	require.True(t, ok)
	assert.Equal(t, layout.Rect{Width: 100, Height: 24}, damage)
	require.True(t, p.Paint(d))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, rgbaAt(p.Image(), 50, 10))
}

func TestPainter_ShrunkElementClearsOldSpot(t *testing.T) {
	p := NewPainter(100, 100, nil, nil, nil)
	d := newPaintedDoc(t, p, `
		.bar { display: block; height: 10px; background-color: #000000; }
		.tall { height: 30px; }`)
	bar := d.CreateElement("div")
	bar.AddClass("bar")
	bar.AddClass("tall")
	require.NoError(t, d.Body().AppendChild(bar))
	d.Update()
	p.Paint(d)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgbaAt(p.Image(), 5, 25))

	bar.RemoveClass("tall")
	d.Update()
	require.True(t, p.Paint(d))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgbaAt(p.Image(), 5, 25))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgbaAt(p.Image(), 5, 5))
}

func TestPainter_MissingImagePlaceholder(t *testing.T) {
	p := NewPainter(100, 100, nil, nil, nil)
	d := newPaintedDoc(t, p, `.pic { display: block; width: 40px; height: 40px; }`)
	img := d.CreateElement("div")
	img.AddClass("pic")
	img.SetImage("nowhere.png")
	require.NoError(t, d.Body().AppendChild(img))
	d.Update()
	p.Paint(d)
	got := rgbaAt(p.Image(), 5, 30)
	assert.Equal(t, got.R, got.G)
	assert.Equal(t, got.R, got.B)
	assert.Greater(t, got.R, uint8(200), "light placeholder fill")
	assert.Less(t, got.R, uint8(255))
}

func TestRectHelpers(t *testing.T) {
	a := layout.Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := layout.Rect{X: 5, Y: 5, Width: 10, Height: 10}
	assert.Equal(t, layout.Rect{X: 0, Y: 0, Width: 15, Height: 15}, union(a, b))
	assert.Equal(t, layout.Rect{X: 5, Y: 5, Width: 5, Height: 5}, intersect(a, b))
	assert.Equal(t, layout.Rect{}, intersect(a, layout.Rect{X: 20, Width: 1, Height: 1}))
}
