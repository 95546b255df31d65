package ui

import (
	"errors"
	"slices"

	"vpui/pkg/css"
	"vpui/pkg/dirty"
)

var (
	errNotElement  = errors.New("ui: generated elements cannot be reparented")
	errHasParent   = errors.New("ui: element already has a parent")
	errForeign     = errors.New("ui: element belongs to another document")
	errCycle       = errors.New("ui: element is an ancestor of the new parent")
	errNotAChild   = errors.New("ui: element is not a child")
	errBodyRemoval = errors.New("ui: the body cannot be removed")
)

func (e *Element) mark(cause string, stages dirty.Set, parent, children bool) {
	if e.doc == nil {
		return
	}
	e.doc.pipeline.Dirty(e.id, cause, stages, parent, children)
}

// selectorChanged restarts the cascade for e and everything below it.
func (e *Element) selectorChanged(cause string) {
	e.mark(cause, dirty.SetOf(dirty.Selector), false, true)
}

// AppendChild moves ownership of child to e.
func (e *Element) AppendChild(child *Element) error {
	switch {
	case e.doc == nil || child.doc == nil:
		return ErrRemoved
	case child.doc != e.doc:
		return errForeign
	case child.kind != kindElement || child.id == e.doc.body:
		return errNotElement
	case child.parent != noNode:
		return errHasParent
	}
	for a := e; a != nil; a = a.Parent() {
		if a == child {
			return errCycle
		}
	}
	child.parent = e.id
	e.children = append(e.children, child.id)
	e.rebuildAll()
	e.doc.pipeline.Batch(e.id, func() {
		child.mark("attach", dirty.All, false, true)
		e.mark("child added", dirty.SetOf(dirty.Blocks), false, false)
		e.mark("child added", dirty.SetOf(dirty.Size), true, false)
	})
	return nil
}

// RemoveChild detaches child and frees it with its whole subtree.
func (e *Element) RemoveChild(child *Element) error {
	if e.doc == nil || child.doc == nil {
		return ErrRemoved
	}
	if child.id == e.doc.body {
		return errBodyRemoval
	}
	i := slices.Index(e.children, child.id)
	if i < 0 || child.parent != e.id {
		return errNotAChild
	}
	e.children = slices.Delete(e.children, i, i+1)
	e.rebuildAll()
	e.doc.pipeline.Detach(e.id, child.id)
	e.doc.release(child)
	e.Batch(func() {
		e.mark("child removed", dirty.SetOf(dirty.Blocks), false, false)
		e.mark("child removed", dirty.SetOf(dirty.Size), true, false)
	})
	return nil
}

// Remove detaches e from its parent and frees it.
func (e *Element) Remove() error {
	p := e.Parent()
	if p == nil {
		return errNotAChild
	}
	return p.RemoveChild(e)
}

func (e *Element) SetID(id string) {
	if e.elemID == id {
		return
	}
	e.elemID = id
	e.selectorChanged("id")
}

func (e *Element) AddClass(class string) {
	if slices.Contains(e.classes, class) {
		return
	}
	e.classes = css.AddToSet(e.classes, class)
	e.selectorChanged("class")
}

func (e *Element) RemoveClass(class string) {
	if !slices.Contains(e.classes, class) {
		return
	}
	e.classes = css.RemoveFromSet(e.classes, class)
	e.selectorChanged("class")
}

// ToggleClass flips class and reports whether it is now set.
func (e *Element) ToggleClass(class string) bool {
	if slices.Contains(e.classes, class) {
		e.RemoveClass(class)
		return false
	}
	e.AddClass(class)
	return true
}

// HasClass reports whether class is set.
func (e *Element) HasClass(class string) bool { return slices.Contains(e.classes, class) }

// SetPseudoClass turns a pseudo-class such as hover or focus on or off.
func (e *Element) SetPseudoClass(name string, on bool) {
	if slices.Contains(e.pseudoClasses, name) == on {
		return
	}
	if on {
		e.pseudoClasses = css.AddToSet(e.pseudoClasses, name)
	} else {
		e.pseudoClasses = css.RemoveFromSet(e.pseudoClasses, name)
	}
	e.selectorChanged("pseudo-class")
}

// SetAttribute sets an attribute used by [attr] selectors.
func (e *Element) SetAttribute(name, value string) {
	if v, ok := e.attrs[name]; ok && v == value {
		return
	}
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
	e.selectorChanged("attribute")
}

// RemoveAttribute deletes an attribute.
func (e *Element) RemoveAttribute(name string) {
	if _, ok := e.attrs[name]; !ok {
		return
	}
	delete(e.attrs, name)
	e.selectorChanged("attribute")
}

// SetStyle replaces the inline style declarations. On a parse error the
// previous inline style stays.
func (e *Element) SetStyle(decls string) error {
	if e.doc == nil {
		return ErrRemoved
	}
	s, err := e.doc.styles.InlineStylesheet(decls)
	if err != nil {
		return err
	}
	e.inline = s
	e.mark("inline style", dirty.SetOf(dirty.Style), false, false)
	return nil
}

// SetText replaces the text content, which is flowed as text runs before
// the explicit children.
func (e *Element) SetText(s string) {
	if e.text == s {
		return
	}
	e.text = s
	e.mark("text", dirty.SetOf(dirty.Content), false, false)
}

// SetImage sets the image shown as the content of e.
func (e *Element) SetImage(name string) {
	if e.image == name {
		return
	}
	e.image = name
	e.mark("image", dirty.SetOf(dirty.Content), false, false)
}

// SetScrollTop scrolls e and returns the clamped offset.
func (e *Element) SetScrollTop(v float64) float64 {
	old := e.box.ScrollTop
	got := e.box.SetScrollTop(v)
	if got != old {
		e.mark("scroll", dirty.SetOf(dirty.RenderBuf), false, false)
	}
	return got
}

// SetScrollLeft scrolls e horizontally and returns the clamped offset.
func (e *Element) SetScrollLeft(v float64) float64 {
	old := e.box.ScrollLeft
	got := e.box.SetScrollLeft(v)
	if got != old {
		e.mark("scroll", dirty.SetOf(dirty.RenderBuf), false, false)
	}
	return got
}

// Batch runs fn with propagation from e deferred until fn returns.
func (e *Element) Batch(fn func()) {
	if e.doc == nil {
		fn()
		return
	}
	e.doc.pipeline.Batch(e.id, fn)
}
