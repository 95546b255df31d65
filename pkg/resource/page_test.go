package resource

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"vpui/pkg/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Viewport = config.ViewportConfig{Width: 200, Height: 100}
	return cfg
}

func TestOpen_LinkedStylesheetAndScripts(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"page.html": `<html><head>
<title>Demo</title>
<link rel="stylesheet" href="site.css">
</head><body>
<div id="t">hello</div>
<script>document.getElementById("t").classList.add("on");</script>
<script src="more.js"></script>
</body></html>`,
		"site.css": `.on { height: 33px; } .big { width: 50px; }`,
		"more.js":  `document.getElementById("t").classList.add("big");`,
	})
	p, err := Open(smallConfig(), filepath.Join(dir, "page.html"), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, []string{"inline-script-1", "more.js"}, p.Scripts())
	require.NoError(t, p.RunScripts(context.Background()))

	el := p.Doc.ElementByID("t")
	require.NotNil(t, el)
	g := el.Geometry()
	assert.Equal(t, 33.0, g.Content.Height)
	assert.Equal(t, 50.0, g.Content.Width)

	// The title is kept out of the layout.
	titles, err := p.Doc.QuerySelectorAll("title")
	require.NoError(t, err)
	for _, ti := range titles {
		assert.Zero(t, ti.Geometry().Border.Height)
	}
}

func TestOpen_CollectsErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"page.html": `<link rel="stylesheet" href="nope.css"><style>div {</style><div id="a"></div>`,
	})
	p, err := Open(smallConfig(), filepath.Join(dir, "page.html"), nil)
	require.Error(t, err)
	require.NotNil(t, p, "partial errors still yield a page")
	defer p.Close()
	assert.Contains(t, err.Error(), "nope.css")
	assert.Contains(t, err.Error(), "<style>")
	assert.NotNil(t, p.Doc.ElementByID("a"))

	_, err = Open(smallConfig(), filepath.Join(dir, "missing.html"), nil)
	assert.Error(t, err)
}

func TestPage_SettleImagesAndPaint(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"page.html": `<div><img id="pic" src="dot.png"></div>`,
	})
	writePNG(t, filepath.Join(dir, "dot.png"), 4, 3)

	p, err := Open(smallConfig(), filepath.Join(dir, "page.html"), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Settle(ctx))
	assert.False(t, p.Doc.Pending())

	c := p.Doc.ElementByID("pic").Geometry().Content
	assert.Equal(t, 4.0, c.Width)
	assert.Equal(t, 3.0, c.Height)

	require.True(t, p.Paint())
	px := color.RGBAModel.Convert(p.Painter.Image().At(int(c.X)+1, int(c.Y)+1)).(color.RGBA)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, px)
	assert.False(t, p.Paint())
}

func TestPage_RunScriptsInterrupt(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"page.html": `<div id="a"></div>`,
		"spin.js":   `for (;;) {}`,
		"after.js":  `document.getElementById("a").id = "b";`,
	})
	p, err := Open(smallConfig(), filepath.Join(dir, "page.html"), nil)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = p.RunScripts(ctx, filepath.Join(dir, "spin.js"), filepath.Join(dir, "after.js"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
	assert.NotNil(t, p.Doc.ElementByID("a"), "scripts after an interruption do not run")
}

func TestPage_Resize(t *testing.T) {
	p, err := New(smallConfig(), []byte(`<div id="a"></div>`), nil, nil)
	require.NoError(t, err)
	defer p.Close()
	p.Paint()

	p.Resize(120, 40)
	assert.Equal(t, 120.0, p.Doc.ElementByID("a").Geometry().Border.Width)
	assert.Equal(t, 120, p.Painter.Image().Bounds().Dx())
	assert.True(t, p.Paint())
}

func TestFileFetcher(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.css": "x"})
	f := NewFileFetcher(dir)

	data, err := f.Fetch("a.css")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	data, err = f.Fetch("file://" + filepath.Join(dir, "a.css"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	_, err = f.Fetch("https://example.com/a.css")
	assert.ErrorContains(t, err, "cannot fetch https URI")
}
