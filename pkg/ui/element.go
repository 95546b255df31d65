package ui

import (
	"maps"
	"slices"

	"vpui/pkg/css"
	"vpui/pkg/dirty"
	"vpui/pkg/layout"
	"vpui/pkg/style"
)

const noNode dirty.NodeID = -1

type kind uint8

const (
	kindElement kind = iota
	kindRun          // generated text run
	kindPseudo       // ::before or ::after box
)

// Element is a node of a Document. Elements are owned by their document
// and referenced by id; an Element must not be used after it was removed.
type Element struct {
	doc    *Document
	id     dirty.NodeID
	parent dirty.NodeID
	kind   kind

	tag           string
	elemID        string
	classes       []string
	pseudoClasses []string
	attrs         map[string]string
	inline        *style.Stylesheet
	text          string
	image         string
	pseudo        string // before or after, for kindPseudo

	// Child categories, combined in this order into all.
	before   dirty.NodeID
	runs     []dirty.NodeID
	children []dirty.NodeID
	after    dirty.NodeID
	all      []dirty.NodeID

	state    dirty.State
	path     []css.SelectorPart
	computed *style.Computed
	box      layout.Box

	// Inputs the current runs were built from.
	runsFor runKey
	// Display the parent grouped this element with.
	groupedDisplay string
	// Geometry last reported to the renderer.
	painted layout.Geometry
}

type runKey struct {
	text, whiteSpace, transform string
}

func (e *Element) rebuildAll() {
	e.all = e.all[:0]
	if e.before != noNode {
		e.all = append(e.all, e.before)
	}
	e.all = append(e.all, e.runs...)
	e.all = append(e.all, e.children...)
	if e.after != noNode {
		e.all = append(e.all, e.after)
	}
}

// NodeID returns the id of e within its document.
func (e *Element) NodeID() dirty.NodeID { return e.id }

// Document returns the owning document, or nil once e was removed.
func (e *Element) Document() *Document { return e.doc }

func (e *Element) Tag() string { return e.tag }

// ID returns the id attribute.
func (e *Element) ID() string { return e.elemID }

// Classes returns the sorted class list.
func (e *Element) Classes() []string { return slices.Clone(e.classes) }

// PseudoClasses returns the active pseudo-classes.
func (e *Element) PseudoClasses() []string { return slices.Clone(e.pseudoClasses) }

// Attribute returns the value of attribute name.
func (e *Element) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// Text returns the text set with SetText, or the text of a run.
func (e *Element) Text() string { return e.text }

// Image returns the image source.
func (e *Element) Image() string { return e.image }

// IsRun reports whether e is a generated text run.
func (e *Element) IsRun() bool { return e.kind == kindRun }

// Pseudo returns "before" or "after" for generated boxes.
func (e *Element) Pseudo() string { return e.pseudo }

// Parent returns the parent element, or nil for the body and removed
// elements.
func (e *Element) Parent() *Element {
	if e.doc == nil || e.parent == noNode {
		return nil
	}
	return e.doc.node(e.parent)
}

// Children returns the explicit children.
func (e *Element) Children() []*Element {
	if e.doc == nil {
		return nil
	}
	return e.doc.elements(e.children)
}

// AllChildren returns ::before, text runs, explicit children and ::after in
// order.
func (e *Element) AllChildren() []*Element {
	if e.doc == nil {
		return nil
	}
	return e.doc.elements(e.all)
}

// ComputedStyle returns the cascaded style after the last Update.
func (e *Element) ComputedStyle() *style.Computed { return e.computed }

// SelectorPath returns the selector path after the last Update.
func (e *Element) SelectorPath() []css.SelectorPart { return e.path }

// Geometry returns the box rectangles after the last Update.
func (e *Element) Geometry() layout.Geometry { return e.box.Geometry() }

// Lines returns the lines the content was flowed into.
func (e *Element) Lines() []layout.Line { return e.box.Lines }

// Box exposes the layout box for renderers.
func (e *Element) Box() *layout.Box { return &e.box }

// IsDirty reports whether e waits for an Update.
func (e *Element) IsDirty() bool { return e.state.Dirty() != 0 }

// part describes e as the last part of a selector path.
func (e *Element) part() css.SelectorPart {
	p := css.SelectorPart{
		Type:          e.tag,
		ID:            e.elemID,
		Classes:       slices.Clone(e.classes),
		PseudoClasses: slices.Clone(e.pseudoClasses),
	}
	if len(e.attrs) > 0 {
		p.Attributes = slices.Sorted(maps.Keys(e.attrs))
		p.AttributeValues = maps.Clone(e.attrs)
	}
	return p
}

// buildPath computes the selector path from the parent's path. A pseudo box
// repeats its host with the pseudo-element added.
func (e *Element) buildPath() []css.SelectorPart {
	var parentPath []css.SelectorPart
	if p := e.Parent(); p != nil {
		parentPath = p.buildPath()
	}
	if e.kind == kindPseudo {
		path := slices.Clone(parentPath)
		if len(path) == 0 {
			return []css.SelectorPart{{PseudoElements: []string{e.pseudo}}}
		}
		last := path[len(path)-1]
		last.PseudoElements = []string{e.pseudo}
		path[len(path)-1] = last
		return path
	}
	return append(slices.Clone(parentPath), e.part())
}
