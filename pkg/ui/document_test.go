package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"vpui/pkg/css"
	"vpui/pkg/images"
	"vpui/pkg/layout"
	"vpui/pkg/text"
)

type fakeImages map[string]images.Info

func (f fakeImages) Load(name string) images.Info { return f[name] }

type recorder struct{ marked []*Element }

func (r *recorder) MarkDirty(e *Element) { r.marked = append(r.marked, e) }

func newDoc(t *testing.T, opts ...Option) *Document {
	t.Helper()
	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithMeasurer(text.FixedMeasurer{Char: 10, Space: 10, Line: 20}),
		WithViewport(400, 300),
	}, opts...)
	d, err := NewDocument(opts...)
	require.NoError(t, err)
	return d
}

func appendTo(t *testing.T, parent *Element, tag string, classes ...string) *Element {
	t.Helper()
	e := parent.Document().CreateElement(tag)
	for _, c := range classes {
		e.AddClass(c)
	}
	require.NoError(t, parent.AppendChild(e))
	return e
}

func dirtyElements(d *Document) []string {
	var out []string
	d.Walk(d.Body(), func(e *Element) bool {
		if e.IsDirty() {
			out = append(out, describe(e))
		}
		return true
	})
	return out
}

func runTexts(e *Element) []string {
	var out []string
	for _, c := range e.AllChildren() {
		if c.IsRun() {
			out = append(out, c.Text())
		}
	}
	return out
}

func TestDocument_Converges(t *testing.T) {
	r := &recorder{}
	d := newDoc(t, WithRenderer(r))
	require.NoError(t, d.LoadStylesheet(`.box { display: block; height: 50px; }`))
	div := appendTo(t, d.Body(), "div", "box")
	d.Update()

	assert.Empty(t, dirtyElements(d))
	assert.Equal(t, layout.Rect{X: 0, Y: 0, Width: 400, Height: 50}, div.Geometry().Border)
	assert.Contains(t, r.marked, div)
	assert.Zero(t, d.Pipeline().Stats().Exhausted)

	before := d.Pipeline().Stats()
	d.Update()
	assert.Equal(t, before, d.Pipeline().Stats(), "clean tree must not run handlers")
}

func TestDocument_TextWraps(t *testing.T) {
	d := newDoc(t, WithViewport(100, 300))
	div := appendTo(t, d.Body(), "div")
	div.SetText("AAAA BBBB CCCC")
	d.Update()

	assert.Equal(t, []string{"AAAA", "BBBB", "CCCC"}, runTexts(div))
	var widths []float64
	for _, l := range div.Lines() {
		widths = append(widths, l.Width)
	}
	if diff := cmp.Diff([]float64{90, 40}, widths); diff != "" {
		t.Errorf("line widths (-want +got):\n%s", diff)
	}
	assert.Equal(t, 40.0, div.Geometry().Content.Height)
}

func TestDocument_ClassToggleRestyles(t *testing.T) {
	d := newDoc(t)
	require.NoError(t, d.LoadStylesheet(`.red { color: red; }`))
	div := appendTo(t, d.Body(), "div")
	div.SetText("hi")
	d.Update()

	red, _ := css.ParseColor("red")
	black, _ := css.ParseColor("black")
	assert.Equal(t, black, div.ComputedStyle().Color())

	assert.True(t, div.ToggleClass("red"))
	assert.True(t, div.IsDirty())
	d.Update()
	assert.Equal(t, red, div.ComputedStyle().Color())
	run := div.AllChildren()[0]
	require.True(t, run.IsRun())
	assert.Equal(t, red, run.ComputedStyle().Color(), "runs inherit the color")

	assert.False(t, div.ToggleClass("red"))
	d.Update()
	assert.Equal(t, black, run.ComputedStyle().Color())
}

func TestDocument_DisplayChangeRegroups(t *testing.T) {
	d := newDoc(t)
	require.NoError(t, d.LoadStylesheet(`.wide { display: block; }`))
	a := appendTo(t, d.Body(), "span")
	a.SetText("a")
	b := appendTo(t, d.Body(), "span")
	b.SetText("b")
	d.Update()
	assert.Equal(t, a.Geometry().Margin.Y, b.Geometry().Margin.Y, "inline spans share a line")

	b.AddClass("wide")
	d.Update()
	assert.Equal(t, 20.0, b.Geometry().Margin.Y)
	assert.Equal(t, 400.0, b.Geometry().Margin.Width)
}

func TestDocument_PseudoElements(t *testing.T) {
	d := newDoc(t)
	require.NoError(t, d.LoadStylesheet(`.tag::before { content: "#"; } .tag::after { content: "!"; }`))
	div := appendTo(t, d.Body(), "div", "tag")
	div.SetText("x")
	d.Update()

	all := div.AllChildren()
	require.Len(t, all, 3)
	assert.Equal(t, "before", all[0].Pseudo())
	assert.Equal(t, "#", all[0].Text())
	assert.Equal(t, "x", all[1].Text())
	assert.Equal(t, "after", all[2].Pseudo())
	assert.Equal(t, []string{"#"}, runTexts(all[0]))
	assert.Equal(t, 30.0, div.Lines()[0].Width)

	div.RemoveClass("tag")
	d.Update()
	all = div.AllChildren()
	require.Len(t, all, 1)
	assert.True(t, all[0].IsRun())
	assert.Empty(t, dirtyElements(d))
}

func TestDocument_TextTransform(t *testing.T) {
	d := newDoc(t)
	div := appendTo(t, d.Body(), "div")
	require.NoError(t, div.SetStyle("text-transform: uppercase"))
	div.SetText("ab cd")
	d.Update()
	assert.Equal(t, []string{"AB", "CD"}, runTexts(div))

	require.NoError(t, div.SetStyle("text-transform: capitalize"))
	d.Update()
	assert.Equal(t, []string{"Ab", "Cd"}, runTexts(div))
}

func TestDocument_RemoveFreesSlots(t *testing.T) {
	d := newDoc(t)
	keep := appendTo(t, d.Body(), "div")
	gone := appendTo(t, d.Body(), "div")
	gone.SetText("one two")
	appendTo(t, gone, "span")
	d.Update()
	live := d.Len()

	id := gone.NodeID()
	require.NoError(t, gone.Remove())
	assert.Equal(t, live-4, d.Len(), "element, span and two runs")
	assert.Nil(t, gone.Document())
	assert.ErrorIs(t, gone.AppendChild(keep), ErrRemoved)

	fresh := d.CreateElement("p")
	assert.Equal(t, id, fresh.NodeID(), "slots are reused")
	d.Update()
	assert.Len(t, d.Body().Children(), 1)
	assert.Empty(t, dirtyElements(d))
}

func TestDocument_AppendChildErrors(t *testing.T) {
	d := newDoc(t)
	a := appendTo(t, d.Body(), "div")
	b := appendTo(t, a, "div")

	assert.ErrorIs(t, b.AppendChild(a), errHasParent)
	require.NoError(t, a.RemoveChild(b))
	fresh := d.CreateElement("div")
	require.NoError(t, fresh.AppendChild(a.Document().CreateElement("i")))
	assert.ErrorIs(t, fresh.AppendChild(d.Body()), errNotElement)
	assert.ErrorIs(t, d.Body().Remove(), errNotAChild)

	other := newDoc(t)
	assert.ErrorIs(t, other.Body().AppendChild(fresh), errForeign)

	loop := d.CreateElement("div")
	inner := d.CreateElement("div")
	require.NoError(t, loop.AppendChild(inner))
	assert.ErrorIs(t, inner.AppendChild(loop), errCycle)
}

func TestDocument_SetStyleError(t *testing.T) {
	d := newDoc(t)
	div := appendTo(t, d.Body(), "div")
	require.NoError(t, div.SetStyle("height: 30px"))
	assert.Error(t, div.SetStyle("height: ;;{"))
	d.Update()
	assert.Equal(t, 30.0, div.Geometry().Content.Height, "a bad inline style keeps the old one")
}

func TestDocument_PendingImage(t *testing.T) {
	imgs := fakeImages{"cat.png": {}}
	d := newDoc(t, WithImages(imgs))
	img := appendTo(t, d.Body(), "img")
	img.SetImage("cat.png")
	d.Update()

	assert.True(t, d.Pending())
	assert.Equal(t, 0.0, img.Geometry().Content.Width)

	d.Update()
	assert.True(t, d.Pending(), "still loading")

	imgs["cat.png"] = images.Info{Width: 30, Height: 20, Ready: true}
	d.Update()
	assert.False(t, d.Pending())
	assert.Equal(t, layout.Rect{X: 0, Y: 0, Width: 30, Height: 20}, img.Geometry().Content)
	assert.Empty(t, dirtyElements(d))
}

func TestDocument_Scroll(t *testing.T) {
	d := newDoc(t)
	require.NoError(t, d.LoadStylesheet(`
		.pane { display: block; height: 50px; overflow-y: scroll; }
		.row { display: block; height: 40px; }`))
	pane := appendTo(t, d.Body(), "div", "pane")
	for range 5 {
		appendTo(t, pane, "div", "row")
	}
	d.Update()

	maxY := pane.Box().MaxScroll().Y
	require.Positive(t, maxY)
	assert.Equal(t, maxY, pane.SetScrollTop(10000))
	assert.True(t, pane.IsDirty())
	assert.Equal(t, 0.0, pane.SetScrollTop(-50))
	d.Update()
	assert.Empty(t, dirtyElements(d))
}

func TestDocument_QuerySelectorAll(t *testing.T) {
	d := newDoc(t)
	list := appendTo(t, d.Body(), "ul", "menu")
	first := appendTo(t, list, "li")
	second := appendTo(t, list, "li", "active")
	second.SetAttribute("data-k", "v")
	first.SetPseudoClass("hover", true)
	first.SetID("top")

	got, err := d.QuerySelectorAll(".menu > li")
	require.NoError(t, err)
	assert.Equal(t, []*Element{first, second}, got)

	got, err = d.QuerySelectorAll(`li[data-k="v"], li:hover`)
	require.NoError(t, err)
	assert.Equal(t, []*Element{first, second}, got)

	one, err := d.QuerySelector("#top")
	require.NoError(t, err)
	assert.Same(t, first, one)
	assert.Same(t, first, d.ElementByID("top"))

	_, err = d.QuerySelectorAll("li >")
	assert.Error(t, err)
}

func TestDocument_StylesheetReload(t *testing.T) {
	d := newDoc(t)
	div := appendTo(t, d.Body(), "div", "x")
	d.Update()
	assert.Equal(t, 0.0, div.Geometry().Content.Height)

	require.NoError(t, d.LoadStylesheet(`.x { height: 70px; }`))
	d.Update()
	assert.Equal(t, 70.0, div.Geometry().Content.Height)

	d.ClearStylesheets()
	d.Update()
	assert.Equal(t, 0.0, div.Geometry().Content.Height)
}

func TestDocument_BatchAndViewport(t *testing.T) {
	d := newDoc(t)
	div := appendTo(t, d.Body(), "div")
	d.Update()

	div.Batch(func() {
		div.SetText("a b")
		div.AddClass("c")
	})
	assert.True(t, div.IsDirty())
	d.Update()
	assert.Equal(t, []string{"a", "b"}, runTexts(div))

	d.SetViewport(200, 100)
	d.Update()
	assert.Equal(t, 200.0, div.Geometry().Margin.Width)
}

func TestBuildHTML(t *testing.T) {
	d := newDoc(t)
	src := `<style>.x { color: red; }</style>
<div id="a" class="x y" data-role="main"><span>hi</span> there</div>
<!-- note --><script>ignored()</script>`
	require.NoError(t, BuildHTML(d, d.Body(), strings.NewReader(src)))
	d.Update()

	a := d.ElementByID("a")
	require.NotNil(t, a)
	assert.Equal(t, []string{"x", "y"}, a.Classes())
	v, ok := a.Attribute("data-role")
	assert.True(t, ok)
	assert.Equal(t, "main", v)

	kids := a.Children()
	require.Len(t, kids, 2)
	assert.Equal(t, "span", kids[0].Tag())
	assert.Equal(t, "text", kids[1].Tag())
	assert.Equal(t, " there", kids[1].Text())

	red, _ := css.ParseColor("red")
	assert.Equal(t, red, kids[0].ComputedStyle().Color())
	assert.Len(t, d.Body().Children(), 1)
}

func TestBuildHTML_CollectsErrors(t *testing.T) {
	d := newDoc(t)
	err := BuildHTML(d, d.Body(), strings.NewReader(`<p style="color: ;{">x</p>`))
	assert.Error(t, err)
	assert.Len(t, d.Body().Children(), 1, "elements are still built")
}

func TestDocument_Dump(t *testing.T) {
	d := newDoc(t)
	require.NoError(t, BuildHTML(d, d.Body(), strings.NewReader(`<div id="a" class="x"><b>hi</b></div>`)))
	d.Update()

	var buf bytes.Buffer
	require.NoError(t, d.Dump(&buf))
	out := buf.String()
	assert.Contains(t, out, "body [0,0 400x20]")
	assert.Contains(t, out, "div#a.x")
	assert.Contains(t, out, `"hi"`)
	assert.NotContains(t, out, "dirty")
}
