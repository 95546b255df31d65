package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(contextWithEnv(context.Background()), append([]string{appName, "--quiet"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDumpConfig(t *testing.T) {
	out, err := runApp(t, "dumpconfig", "--default")
	require.NoError(t, err)
	assert.Contains(t, out, "max_restarts: 8")

	dir := t.TempDir()
	cfg := writeFile(t, dir, "vpui.yaml", "viewport:\n  width: 321\n")
	dst := filepath.Join(dir, "out.yaml")
	_, err = runApp(t, "--config", cfg, "dumpconfig", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "width: 321")
}

func TestBadConfig(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "vpui.yaml", "nonsense: 1\n")
	_, err := runApp(t, "--config", cfg, "dumpconfig")
	assert.ErrorContains(t, err, "unable to prepare configuration")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.css", "div { color: red; } .a > .b { margin: 1px; }")
	skip := writeFile(t, dir, "skip.css", "a ~ b { color: red; } p { color: blue; }")
	bad := writeFile(t, dir, "bad.css", "div { color: red;")

	out, err := runApp(t, "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "good.css: 2 rule sets, 0 skipped")

	out, err = runApp(t, "check", good, skip, bad)
	require.Error(t, err)
	assert.Contains(t, out, "skip.css: 1 rule sets, 1 skipped")
	assert.Contains(t, out, "bad.css:")
	assert.ErrorContains(t, err, "bad.css")

	_, err = runApp(t, "check")
	assert.Error(t, err)
}

func TestRenderAndDump(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "page.html", `<style>.box { height: 20px; background-color: #336699; }</style>
<div id="main" class="box">hi</div>`)
	script := writeFile(t, dir, "grow.js", `document.getElementById("main").setStyle("height: 30px");`)

	out, err := runApp(t, "dump", "--width", "300", "--script", script, page)
	require.NoError(t, err)
	assert.Contains(t, out, "body [0,0 300x30]")
	assert.Contains(t, out, "div#main.box")

	dst := filepath.Join(dir, "page.png")
	_, err = runApp(t, "render", "--width", "300", "--height", "100", page, dst)
	require.NoError(t, err)
	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	_, err = runApp(t, "render")
	assert.ErrorIs(t, err, errNoSource)
}

func TestRenderStopsOnPageErrors(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "page.html", `<link rel="stylesheet" href="missing.css"><div></div>`)
	dst := filepath.Join(dir, "page.png")

	_, err := runApp(t, "render", page, dst)
	require.Error(t, err)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))

	_, err = runApp(t, "render", "--keep-going", page, dst)
	require.NoError(t, err)
	_, statErr = os.Stat(dst)
	assert.NoError(t, statErr)
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.html", `<div style="height: 10px; background-color: #ff0000"></div>`)
	writeFile(t, dir, "b.html", `<div style="height: 12px; background-color: #ff0000"></div>`)
	for _, name := range []string{"a", "b"} {
		_, err := runApp(t, "render", "--width", "40", "--height", "20",
			filepath.Join(dir, name+".html"), filepath.Join(dir, name+".png"))
		require.NoError(t, err)
	}
	_, err := runApp(t, "render", "--width", "40", "--height", "20", a, filepath.Join(dir, "a2.png"))
	require.NoError(t, err)

	out, err := runApp(t, "compare", filepath.Join(dir, "a.png"), filepath.Join(dir, "a2.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 800 pixels differ")

	diff := filepath.Join(dir, "diff.png")
	out, err = runApp(t, "compare", "--diff", diff, filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"))
	assert.ErrorIs(t, err, errMismatch)
	assert.Contains(t, out, "80 of 800 pixels differ")
	_, statErr := os.Stat(diff)
	assert.NoError(t, statErr)
}
