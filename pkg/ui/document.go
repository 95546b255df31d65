package ui

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"vpui/pkg/css"
	"vpui/pkg/dirty"
	"vpui/pkg/images"
	"vpui/pkg/layout"
	"vpui/pkg/style"
	"vpui/pkg/text"
)

// ErrRemoved is returned when a removed element is used.
var ErrRemoved = errors.New("ui: element was removed")

// Renderer is told about elements whose pixels are stale.
type Renderer interface {
	MarkDirty(e *Element)
}

// Document owns an element tree and the pipeline that keeps its styles and
// layout up to date. It is not safe for concurrent use.
type Document struct {
	log      *zap.Logger
	styles   *style.Engine
	sheet    *style.Stylesheet
	measurer text.Measurer
	images   images.Provider
	renderer Renderer
	viewport layout.Size
	layout   *layout.Engine
	pipeline *dirty.Pipeline

	maxRestarts int
	nodes       []*Element
	free        []dirty.NodeID
	body        dirty.NodeID
	waiting     map[dirty.NodeID]struct{} // elements with unready images
}

// Option configures a Document.
type Option func(*Document)

func WithLogger(log *zap.Logger) Option {
	return func(d *Document) { d.log = log }
}

func WithMeasurer(m text.Measurer) Option {
	return func(d *Document) { d.measurer = m }
}

func WithImages(p images.Provider) Option {
	return func(d *Document) { d.images = p }
}

func WithRenderer(r Renderer) Option {
	return func(d *Document) { d.renderer = r }
}

// WithViewport sets the size the body is laid out into.
func WithViewport(width, height float64) Option {
	return func(d *Document) { d.viewport = layout.Size{Width: width, Height: height} }
}

// WithMaxRestarts bounds pipeline restarts per node and Update.
func WithMaxRestarts(n int) Option {
	return func(d *Document) { d.maxRestarts = n }
}

// WithStyleEngine shares a style engine, and with it the default
// stylesheet, variables and compute cache, between documents.
func WithStyleEngine(e *style.Engine) Option {
	return func(d *Document) { d.styles = e }
}

// NewDocument creates a document holding an empty body.
func NewDocument(opts ...Option) (*Document, error) {
	d := &Document{
		viewport:    layout.Size{Width: 800, Height: 600},
		maxRestarts: dirty.DefaultMaxRestarts,
		waiting:     make(map[dirty.NodeID]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	d.log = d.log.Named("ui")
	if d.styles == nil {
		var err error
		if d.styles, err = style.NewEngine(d.log); err != nil {
			return nil, fmt.Errorf("creating style engine: %w", err)
		}
	}
	if d.measurer == nil {
		d.measurer = text.FixedMeasurer{Char: 8, Space: 4}
	}
	d.sheet = d.styles.NewStylesheet(css.OriginStylesheet)
	d.layout = layout.NewEngine(d.measurer, d.images, d.log)
	d.pipeline = dirty.New(d, d.log, dirty.WithMaxRestarts(d.maxRestarts))
	d.registerStages()

	body := d.alloc(kindElement, "body")
	d.body = body.id
	d.pipeline.Dirty(d.body, "create", dirty.All, false, true)
	return d, nil
}

// Parent implements dirty.Graph.
func (d *Document) Parent(n dirty.NodeID) (dirty.NodeID, bool) {
	e := d.node(n)
	if e == nil || e.parent == noNode {
		return noNode, false
	}
	return e.parent, true
}

// Children implements dirty.Graph.
func (d *Document) Children(n dirty.NodeID) []dirty.NodeID {
	if e := d.node(n); e != nil {
		return e.all
	}
	return nil
}

// State implements dirty.Graph.
func (d *Document) State(n dirty.NodeID) *dirty.State {
	return &d.nodes[n].state
}

func (d *Document) node(n dirty.NodeID) *Element {
	if n < 0 || int(n) >= len(d.nodes) {
		return nil
	}
	return d.nodes[n]
}

func (d *Document) elements(ids []dirty.NodeID) []*Element {
	out := make([]*Element, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.nodes[id])
	}
	return out
}

// alloc takes a free arena slot for a new element.
func (d *Document) alloc(k kind, tag string) *Element {
	e := &Element{
		doc:    d,
		parent: noNode,
		kind:   k,
		tag:    tag,
		before: noNode,
		after:  noNode,
	}
	if n := len(d.free); n > 0 {
		e.id = d.free[n-1]
		d.free = d.free[:n-1]
		d.nodes[e.id] = e
	} else {
		e.id = dirty.NodeID(len(d.nodes))
		d.nodes = append(d.nodes, e)
	}
	e.box.Name = tag
	return e
}

// release frees the arena slots of e and its subtree.
func (d *Document) release(e *Element) {
	for _, c := range slices.Clone(e.all) {
		d.release(d.nodes[c])
	}
	delete(d.waiting, e.id)
	d.nodes[e.id] = nil
	d.free = append(d.free, e.id)
	*e = Element{id: e.id, parent: noNode, before: noNode, after: noNode}
}

// Body returns the root element.
func (d *Document) Body() *Element { return d.nodes[d.body] }

// Styles returns the style engine.
func (d *Document) Styles() *style.Engine { return d.styles }

// Pipeline returns the dirty pipeline, for inspection.
func (d *Document) Pipeline() *dirty.Pipeline { return d.pipeline }

// Len returns the number of live elements, generated ones included.
func (d *Document) Len() int { return len(d.nodes) - len(d.free) }

// Viewport returns the layout size of the body.
func (d *Document) Viewport() layout.Size { return d.viewport }

// SetViewport resizes the body.
func (d *Document) SetViewport(width, height float64) {
	d.viewport = layout.Size{Width: width, Height: height}
	d.pipeline.Dirty(d.body, "viewport", dirty.SetOf(dirty.Size), false, false)
}

// LoadStylesheet appends text to the author stylesheet. On error the
// stylesheet is unchanged.
func (d *Document) LoadStylesheet(text string) error {
	if err := d.sheet.Load(text); err != nil {
		return err
	}
	d.restyleAll("stylesheet")
	return nil
}

// ClearStylesheets drops all author rules.
func (d *Document) ClearStylesheets() {
	d.sheet.Clear()
	d.restyleAll("stylesheet")
}

func (d *Document) restyleAll(cause string) {
	d.pipeline.Dirty(d.body, cause, dirty.SetOf(dirty.Style, dirty.Content), false, true)
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *Element {
	return d.alloc(kindElement, tag)
}

// CreateText creates a detached inline "text" element holding s.
func (d *Document) CreateText(s string) *Element {
	e := d.alloc(kindElement, "text")
	e.text = s
	return e
}

// Update loads images that became ready and cleans the tree.
func (d *Document) Update() {
	for _, id := range slices.Sorted(maps.Keys(d.waiting)) {
		e := d.nodes[id]
		if e == nil {
			delete(d.waiting, id)
			continue
		}
		if info := d.images.Load(e.image); info.Ready {
			delete(d.waiting, id)
			d.pipeline.Dirty(id, "image ready", dirty.SetOf(dirty.Content), false, false)
			d.pipeline.Dirty(id, "image ready", dirty.SetOf(dirty.Size), true, false)
		}
	}
	d.pipeline.Clean(d.body)
}

// Pending reports whether some image is still loading.
func (d *Document) Pending() bool { return len(d.waiting) > 0 }

// Walk calls fn for e and every element below it in tree order, generated
// elements included, until fn returns false.
func (d *Document) Walk(e *Element, fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.all {
		if !d.Walk(d.nodes[c], fn) {
			return false
		}
	}
	return true
}

// ElementByID returns the first element in tree order with the given id.
func (d *Document) ElementByID(id string) *Element {
	var found *Element
	d.Walk(d.Body(), func(e *Element) bool {
		if e.elemID == id && e.kind == kindElement {
			found = e
			return false
		}
		return true
	})
	return found
}

// QuerySelectorAll returns the elements matching any selector in the list,
// in tree order. Generated elements are not returned.
func (d *Document) QuerySelectorAll(selectors string) ([]*Element, error) {
	sels, err := css.ParseSelectorList(selectors)
	if err != nil {
		return nil, err
	}
	var out []*Element
	d.Walk(d.Body(), func(e *Element) bool {
		if e.kind != kindElement {
			return true
		}
		path := e.buildPath()
		for _, s := range sels {
			if css.MatchSelector(s, path) {
				out = append(out, e)
				break
			}
		}
		return true
	})
	return out, nil
}

// QuerySelector returns the first match, or nil.
func (d *Document) QuerySelector(selectors string) (*Element, error) {
	all, err := d.QuerySelectorAll(selectors)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}
