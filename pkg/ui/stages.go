package ui

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vpui/pkg/css"
	"vpui/pkg/dirty"
	"vpui/pkg/layout"
	"vpui/pkg/style"
	"vpui/pkg/text"
)

func (d *Document) registerStages() {
	p := d.pipeline
	p.Handle(dirty.Selector, d.cleanSelector)
	p.Handle(dirty.Style, d.cleanStyle)
	p.Handle(dirty.Content, d.cleanContent)
	p.Handle(dirty.Blocks, d.cleanBlocks)
	p.Handle(dirty.Size, d.cleanSize)
	p.Handle(dirty.RenderBuf, d.cleanRenderBuf)
	p.OnChildDirty(dirty.Blocks, d.childDisplayChanged)
}

func (d *Document) cleanSelector(n dirty.NodeID) error {
	e := d.nodes[n]
	path := e.buildPath()
	if e.path != nil && css.PathString(path) == css.PathString(e.path) {
		return nil
	}
	e.path = path
	// Content rechecks the ::before and ::after rules.
	e.mark("selector", dirty.SetOf(dirty.Style, dirty.Content), false, false)
	return nil
}

func (d *Document) cleanStyle(n dirty.NodeID) error {
	e := d.nodes[n]
	if e.path == nil {
		e.path = e.buildPath()
	}
	sheets := []*style.Stylesheet{d.styles.Defaults(), d.sheet}
	if e.inline != nil {
		sheets = append(sheets, e.inline)
	}
	var parent *style.Computed
	if p := e.Parent(); p != nil {
		parent = p.computed
	}
	c := style.Inherit(d.styles.ComputeStyle(e.path, sheets...), parent)

	if e.kind == kindPseudo {
		content, ok := c.Content()
		if !ok {
			// The host drops the box in its content stage.
			e.Parent().mark("pseudo content", dirty.SetOf(dirty.Content), false, false)
		} else if content != e.text {
			e.text = content
			e.mark("pseudo content", dirty.SetOf(dirty.Content), false, false)
		}
	}
	if c.Equal(e.computed) {
		return nil
	}
	e.computed = c
	e.box.Style = c
	e.mark("style", dirty.SetOf(dirty.Content, dirty.Blocks), false, false)
	e.mark("style", dirty.SetOf(dirty.Size), true, false)
	// Children inherit from e. They are cleaned after this node.
	for _, id := range e.all {
		d.pipeline.Dirty(id, "inherit", dirty.SetOf(dirty.Style), false, false)
	}
	return nil
}

func (d *Document) cleanContent(n dirty.NodeID) error {
	e := d.nodes[n]
	changed := false
	if e.kind == kindElement {
		changed = d.updatePseudo(e, "before", &e.before) || changed
		changed = d.updatePseudo(e, "after", &e.after) || changed
	}
	if e.kind != kindRun {
		changed = d.updateRuns(e) || changed
	}
	resized := d.updateImage(e)
	if changed {
		e.rebuildAll()
		e.mark("content", dirty.SetOf(dirty.Blocks), false, false)
	}
	if changed || resized {
		e.mark("content", dirty.SetOf(dirty.Size), true, false)
	}
	return nil
}

// updateRuns splits the text of e into run elements when the text or the
// properties shaping it changed.
func (d *Document) updateRuns(e *Element) bool {
	key := runKey{e.text, e.computed.WhiteSpace(), e.computed.TextTransform()}
	if key == e.runsFor {
		return false
	}
	e.runsFor = key
	old := e.runs
	for _, id := range old {
		d.pipeline.Detach(e.id, id)
		d.release(d.nodes[id])
	}
	e.runs = nil
	runs := text.SplitRuns(transform(key.text, key.transform), key.whiteSpace)
	for _, r := range runs {
		run := d.alloc(kindRun, "text")
		run.parent = e.id
		run.text = r.Text
		run.box.IsText = true
		run.box.Text = r.Text
		run.box.Space = r.Space
		run.box.SpaceAfter = r.SpaceAfter
		run.box.Newline = r.Newline
		e.runs = append(e.runs, run.id)
		d.pipeline.Dirty(run.id, "run", dirty.All, false, false)
	}
	// Whitespace around the text also separates e from its inline
	// siblings, as in "Hello <b>world</b>".
	e.box.Space, e.box.SpaceAfter = false, false
	if n := len(runs); n > 0 {
		e.box.Space, e.box.SpaceAfter = runs[0].Space, runs[n-1].SpaceAfter
	}
	return len(old) > 0 || len(e.runs) > 0
}

func transform(s, mode string) string {
	switch mode {
	case "uppercase":
		return cases.Upper(language.Und).String(s)
	case "lowercase":
		return cases.Lower(language.Und).String(s)
	case "capitalize":
		return cases.Title(language.Und, cases.NoLower).String(s)
	}
	return s
}

// updatePseudo creates, updates or drops the ::before or ::after box held
// in slot. It reports whether the children of e changed.
func (d *Document) updatePseudo(e *Element, which string, slot *dirty.NodeID) bool {
	c := d.styles.ComputeStyle(pseudoPath(e.path, which), d.styles.Defaults(), d.sheet)
	content, ok := c.Content()
	switch {
	case !ok && *slot == noNode:
		return false
	case !ok:
		d.pipeline.Detach(e.id, *slot)
		d.release(d.nodes[*slot])
		*slot = noNode
		return true
	case *slot != noNode:
		if p := d.nodes[*slot]; p.text != content {
			p.text = content
			p.mark("pseudo content", dirty.SetOf(dirty.Content), false, false)
		}
		return false
	}
	p := d.alloc(kindPseudo, e.tag)
	p.box.Name = e.tag + "::" + which
	p.pseudo = which
	p.parent = e.id
	p.text = content
	*slot = p.id
	d.pipeline.Dirty(p.id, "pseudo", dirty.All, false, false)
	return true
}

func pseudoPath(path []css.SelectorPart, which string) []css.SelectorPart {
	out := make([]css.SelectorPart, len(path))
	copy(out, path)
	if len(out) == 0 {
		return []css.SelectorPart{{PseudoElements: []string{which}}}
	}
	out[len(out)-1].PseudoElements = []string{which}
	return out
}

// updateImage points the box at the image of e and tracks readiness. It
// reports whether the image source changed.
func (d *Document) updateImage(e *Element) bool {
	changed := e.box.Image != e.image
	e.box.Image = e.image
	if e.image == "" || d.images == nil {
		delete(d.waiting, e.id)
		return changed
	}
	if d.images.Load(e.image).Ready {
		delete(d.waiting, e.id)
	} else {
		d.waiting[e.id] = struct{}{}
	}
	return changed
}

func (d *Document) cleanBlocks(n dirty.NodeID) error {
	e := d.nodes[n]
	boxes := make([]*layout.Box, 0, len(e.all))
	for _, id := range e.all {
		c := d.nodes[id]
		if c.computed == nil {
			// Not styled yet; its style stage asks for a regroup.
			continue
		}
		c.groupedDisplay = c.computed.Display()
		boxes = append(boxes, &c.box)
	}
	e.box.Children = boxes
	e.box.Blocks = layout.GroupBlocks(boxes)
	e.mark("blocks", dirty.SetOf(dirty.Size), true, false)
	return nil
}

// childDisplayChanged asks for a regroup when a restyled child no longer
// has the display it was grouped with.
func (d *Document) childDisplayChanged(_, child dirty.NodeID, _ dirty.Stage) bool {
	c := d.node(child)
	return c != nil && c.groupedDisplay != c.computed.Display()
}

// cleanSize lays out the whole tree from the body. Other nodes only carry
// the stage up to it.
func (d *Document) cleanSize(n dirty.NodeID) error {
	if n != d.body {
		return nil
	}
	body := d.Body()
	if body.computed == nil {
		return nil
	}
	d.layout.Layout(&body.box, d.viewport, layout.Point{}, d.viewport)
	d.Walk(body, func(e *Element) bool {
		if g := e.box.Geometry(); g != e.painted {
			e.painted = g
			e.mark("moved", dirty.SetOf(dirty.RenderBuf), false, false)
		}
		return true
	})
	return nil
}

func (d *Document) cleanRenderBuf(n dirty.NodeID) error {
	if d.renderer != nil {
		d.renderer.MarkDirty(d.nodes[n])
	}
	return nil
}
