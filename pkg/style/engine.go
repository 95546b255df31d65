package style

import (
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"vpui/pkg/css"
)

//go:embed defaults.css
var defaultCSS string

// maxCacheEntries bounds the compute cache; it is dropped wholesale when
// full.
const maxCacheEntries = 4096

// Engine owns everything shared between stylesheets: the insertion counter,
// the variable table, the default stylesheet and the compute cache.
type Engine struct {
	log      *zap.Logger
	next     uint64
	sheetIDs uint64
	vars     *css.Variables
	defaults *Stylesheet

	cache        map[string]cacheEntry
	hits, misses int
}

type cacheEntry struct {
	versions string
	style    *Computed
}

type options struct {
	defaults string
	vars     *css.Variables
}

// Option configures an Engine.
type Option func(*options)

// WithDefaults replaces the built-in default stylesheet.
func WithDefaults(text string) Option {
	return func(o *options) { o.defaults = text }
}

// WithVariables shares an existing variable table.
func WithVariables(v *css.Variables) Option {
	return func(o *options) { o.vars = v }
}

// NewEngine creates an engine and loads its default stylesheet.
func NewEngine(log *zap.Logger, opts ...Option) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	o := options{defaults: defaultCSS}
	for _, opt := range opts {
		opt(&o)
	}
	if o.vars == nil {
		o.vars = css.NewVariables()
	}
	e := &Engine{
		log:   log.Named("style"),
		vars:  o.vars,
		cache: make(map[string]cacheEntry),
	}
	e.defaults = e.NewStylesheet(css.OriginDefault)
	if err := e.defaults.Load(o.defaults); err != nil {
		return nil, fmt.Errorf("loading default stylesheet: %w", err)
	}
	return e, nil
}

func (e *Engine) nextInsertion() uint64 {
	e.next++
	return e.next
}

func (e *Engine) parser(origin css.Origin) *css.Parser {
	return css.NewParser(e.log,
		css.WithOrigin(origin),
		css.WithIDSource(e.nextInsertion),
		css.WithVariables(e.vars))
}

// NewStylesheet creates an empty stylesheet whose rule sets get origin.
func (e *Engine) NewStylesheet(origin css.Origin) *Stylesheet {
	e.sheetIDs++
	return &Stylesheet{engine: e, id: e.sheetIDs, origin: origin}
}

// Defaults returns the default stylesheet.
func (e *Engine) Defaults() *Stylesheet { return e.defaults }

// Variables returns the shared variable table.
func (e *Engine) Variables() *css.Variables { return e.vars }

// InlineStylesheet parses a style attribute into a one-rule stylesheet of
// inline origin. Its universal selector only matches the element itself
// because callers pass it for that element alone.
func (e *Engine) InlineStylesheet(text string) (*Stylesheet, error) {
	decls, err := e.parser(css.OriginInline).ParseDeclarations(text)
	if err != nil {
		return nil, err
	}
	s := e.NewStylesheet(css.OriginInline)
	if len(decls) > 0 {
		s.Add(&css.RuleSet{
			Selectors:    []css.Selector{{Parts: []css.SelectorPart{{Type: "*"}}}},
			Declarations: decls,
			Origin:       css.OriginInline,
			InsertionID:  e.nextInsertion(),
		})
	}
	return s, nil
}

// ComputeStyle cascades sheets for the element at the end of path. Matches
// from all sheets are ordered by specificity key, shorthands are expanded,
// later declarations override earlier ones and "initial" values are
// dropped. Results are cached per path and set of sheets until one of the
// sheets changes.
func (e *Engine) ComputeStyle(path []css.SelectorPart, sheets ...*Stylesheet) *Computed {
	key, versions := cacheKey(path, sheets)
	if ent, ok := e.cache[key]; ok && ent.versions == versions {
		e.hits++
		return ent.style
	}
	e.misses++

	var matches []Match
	for _, s := range sheets {
		if s != nil {
			matches = append(matches, s.matchCoarse(path)...)
		}
	}
	slices.SortFunc(matches, func(a, b Match) int { return a.Key.Compare(b.Key) })

	c := newComputed()
	for _, m := range matches {
		for _, d := range m.Rule.Declarations {
			c.apply(d)
		}
	}
	c.dropInitial()

	if len(e.cache) >= maxCacheEntries {
		e.log.Debug("Dropping style cache", zap.Int("entries", len(e.cache)))
		clear(e.cache)
	}
	e.cache[key] = cacheEntry{versions: versions, style: c}
	return c
}

// CacheStats returns compute cache hits and misses.
func (e *Engine) CacheStats() (hits, misses int) { return e.hits, e.misses }

func cacheKey(path []css.SelectorPart, sheets []*Stylesheet) (key, versions string) {
	var k, v strings.Builder
	k.WriteString(css.PathString(path))
	for _, s := range sheets {
		if s == nil {
			continue
		}
		k.WriteString("|" + strconv.FormatUint(s.id, 10))
		v.WriteString(strconv.FormatUint(s.version, 10) + ",")
	}
	return k.String(), v.String()
}

// inherited lists the properties a child takes from its parent when the
// cascade leaves them unset.
var inherited = []string{
	"color", "cursor",
	"font-family", "font-size", "font-style", "font-weight",
	"line-height", "text-align", "text-align-last", "text-transform",
	"visibility", "white-space",
}

// Inherit returns child completed with inherited properties from parent.
// Explicit "inherit" values take the parent's value, or are removed when
// the parent has none. Neither argument is modified.
func Inherit(child, parent *Computed) *Computed {
	if child == nil {
		child = newComputed()
	}
	out := child.clone()
	for prop, v := range child.props {
		if !css.IsKeyword(v, "inherit") {
			continue
		}
		if pv, ok := parent.Get(prop); ok {
			out.props[prop] = pv
		} else {
			delete(out.props, prop)
		}
	}
	for _, prop := range inherited {
		if _, ok := out.props[prop]; ok {
			continue
		}
		if pv, ok := parent.Get(prop); ok {
			out.props[prop] = pv
		}
	}
	return out
}
