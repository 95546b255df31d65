package dirty

import (
	"errors"
	"slices"

	"go.uber.org/zap"
)

// ErrCycleInCleaningGraph is logged when a node still has dirty stages
// after the restart budget is spent. The stale stages stay set and are
// retried on the next Clean.
var ErrCycleInCleaningGraph = errors.New("dirty: cycle in cleaning graph")

// DefaultMaxRestarts bounds how often Clean restarts a node.
const DefaultMaxRestarts = 8

// Graph gives the pipeline access to the tree it cleans.
type Graph interface {
	Parent(n NodeID) (NodeID, bool)
	Children(n NodeID) []NodeID
	State(n NodeID) *State
}

// Handler recomputes one stage of a node. It may mark stages dirty on the
// node or on other nodes. Errors are logged; the stage is not retried.
type Handler func(n NodeID) error

// Callback is consulted when child reported a change of stage to parent
// without forcing it. Returning true marks stage dirty on parent.
type Callback func(parent, child NodeID, stage Stage) bool

// Stats counts pipeline work since the last ResetStats.
type Stats struct {
	Handled   [numStages]int
	Restarts  int
	Exhausted int
}

// Total returns the number of handler invocations.
func (s Stats) Total() int {
	n := 0
	for _, h := range s.Handled {
		n += h
	}
	return n
}

// Pipeline runs stage handlers over dirty nodes.
type Pipeline struct {
	g           Graph
	log         *zap.Logger
	handlers    [numStages]Handler
	callbacks   [numStages]Callback
	maxRestarts int
	stats       Stats
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxRestarts sets the restart budget per node and Clean call.
func WithMaxRestarts(n int) Option {
	return func(p *Pipeline) {
		if n >= 0 {
			p.maxRestarts = n
		}
	}
}

// New creates a pipeline over g.
func New(g Graph, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{g: g, log: log.Named("dirty"), maxRestarts: DefaultMaxRestarts}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle registers the handler for stage s.
func (p *Pipeline) Handle(s Stage, h Handler) { p.handlers[s] = h }

// OnChildDirty registers the parent callback for stage s.
func (p *Pipeline) OnChildDirty(s Stage, cb Callback) { p.callbacks[s] = cb }

// Stats returns the work counters.
func (p *Pipeline) Stats() Stats { return p.stats }

// ResetStats zeroes the work counters.
func (p *Pipeline) ResetStats() { p.stats = Stats{} }

// IsDirty reports whether n has stages waiting to be cleaned.
func (p *Pipeline) IsDirty(n NodeID) bool { return p.g.State(n).dirty != 0 }

// Dirty marks stages on n. RenderBuf is always added. With parent set the
// stages are also marked on the parent; otherwise the parent's callback for
// each stage runs during its next clean. With children set the stages are
// pushed to the children when n is cleaned. Propagation waits while a batch
// is open on n.
func (p *Pipeline) Dirty(n NodeID, cause string, stages Set, parent, children bool) {
	st := p.g.State(n)
	added := stages.With(RenderBuf).Difference(st.dirty)
	st.dirty = st.dirty.Union(added)

	before := st.toParent | st.toParentCallback | st.toChildren
	if parent {
		st.toParent = st.toParent.Union(stages)
	} else {
		st.toParentCallback = st.toParentCallback.Union(stages)
	}
	if children {
		st.toChildren = st.toChildren.Union(stages)
	}
	if added == 0 && before == st.toParent|st.toParentCallback|st.toChildren {
		return
	}

	if ce := p.log.Check(zap.DebugLevel, "Marked dirty"); ce != nil {
		ce.Write(
			zap.Int32("node", int32(n)),
			zap.String("cause", cause),
			zap.Stringer("stages", added),
			zap.Bool("parent", parent),
			zap.Bool("children", children))
	}
	p.markDescendants(n)
	if st.deferred == 0 {
		p.flush(n)
	}
}

// Batch runs fn with propagation from n deferred, then flushes once.
func (p *Pipeline) Batch(n NodeID, fn func()) {
	st := p.g.State(n)
	st.deferred++
	defer func() {
		st.deferred--
		if st.deferred == 0 {
			p.flush(n)
		}
	}()
	fn()
}

// flush applies the recorded parent propagation of n. Child propagation is
// applied when n is cleaned.
func (p *Pipeline) flush(n NodeID) {
	st := p.g.State(n)
	parent, ok := p.g.Parent(n)
	if !ok {
		st.toParent, st.toParentCallback = 0, 0
		return
	}
	if st.toParent != 0 {
		stages := st.toParent
		st.toParent = 0
		p.Dirty(parent, "child", stages, true, false)
	}
	if st.toParentCallback != 0 {
		stages := st.toParentCallback
		st.toParentCallback = 0
		ps := p.g.State(parent)
		for _, s := range stages.Stages() {
			if p.callbacks[s] != nil && !slices.Contains(ps.callbacks[s], n) {
				ps.callbacks[s] = append(ps.callbacks[s], n)
			}
		}
		if ps.hasCallbacks() {
			p.markDescendants(parent)
		}
	}
}

// markDescendants flags the ancestors of n so Clean from the root reaches
// it. Ancestors of a flagged node are flagged too, so the walk stops at the
// first one already set.
func (p *Pipeline) markDescendants(n NodeID) {
	for {
		parent, ok := p.g.Parent(n)
		if !ok {
			return
		}
		ps := p.g.State(parent)
		if ps.descendants {
			return
		}
		ps.descendants = true
		n = parent
	}
}

// Detach drops pending callbacks of child on parent. Call it before child
// leaves the tree.
func (p *Pipeline) Detach(parent, child NodeID) {
	ps := p.g.State(parent)
	for s := range ps.callbacks {
		ps.callbacks[s] = slices.DeleteFunc(ps.callbacks[s], func(c NodeID) bool { return c == child })
	}
}

// Clean runs the handlers of every dirty stage of n in order, then cleans
// the children. A node that is already being cleaned is skipped, and a
// node without pending work returns at once. When handlers keep dirtying
// the node the loop gives up after the restart budget, logs
// ErrCycleInCleaningGraph and leaves the stale stages for the next call.
func (p *Pipeline) Clean(n NodeID) {
	st := p.g.State(n)
	if st.cleaning || !st.pending() {
		return
	}
	st.cleaning = true
	defer func() { st.cleaning = false }()

	budget := p.maxRestarts
	for {
		p.pushToChildren(n)
		if !p.runStages(n, &budget) {
			break
		}
		for _, c := range p.g.Children(n) {
			p.Clean(c)
		}
		// Children may have marked this node or an earlier sibling again,
		// or left callbacks.
		if st.dirty == 0 && st.toChildren == 0 && !st.hasCallbacks() && !p.childrenPending(n) {
			break
		}
		if !p.restart(n, &budget) {
			break
		}
	}
	st.descendants = p.childrenPending(n)
}

func (p *Pipeline) restart(n NodeID, budget *int) bool {
	if *budget <= 0 {
		st := p.g.State(n)
		p.stats.Exhausted++
		p.log.Warn("Giving up on node",
			zap.Int32("node", int32(n)),
			zap.Stringer("stale", st.dirty),
			zap.Error(ErrCycleInCleaningGraph))
		return false
	}
	*budget--
	p.stats.Restarts++
	return true
}

func (p *Pipeline) childrenPending(n NodeID) bool {
	for _, c := range p.g.Children(n) {
		if p.g.State(c).pending() {
			return true
		}
	}
	return false
}

// pushToChildren marks the recorded child propagation on every child. The
// children carry it further down when they are cleaned.
func (p *Pipeline) pushToChildren(n NodeID) {
	st := p.g.State(n)
	if st.toChildren == 0 {
		return
	}
	stages := st.toChildren
	st.toChildren = 0
	for _, c := range p.g.Children(n) {
		p.Dirty(c, "parent", stages, false, true)
	}
}

// runStages runs the handlers of the dirty stages of n in order. A handler
// that dirties an earlier stage restarts the pass. It returns false when
// the restart budget ran out.
func (p *Pipeline) runStages(n NodeID, budget *int) bool {
	st := p.g.State(n)
	for i := 0; i < len(order); i++ {
		s := order[i]
		p.runCallbacks(n, s)
		if !st.dirty.Has(s) {
			continue
		}
		st.dirty = st.dirty.Without(s)
		if h := p.handlers[s]; h != nil {
			p.stats.Handled[s]++
			if err := h(n); err != nil {
				p.log.Warn("Stage handler failed",
					zap.Int32("node", int32(n)),
					zap.Stringer("stage", s),
					zap.Error(err))
			}
		}
		if st.dirty.Intersect(before(s).With(s)) != 0 {
			if !p.restart(n, budget) {
				return false
			}
			i = -1
		}
	}
	return true
}

// runCallbacks consults the parent callback for every child that reported
// stage s, marking s dirty on n when one asks for it.
func (p *Pipeline) runCallbacks(n NodeID, s Stage) {
	st := p.g.State(n)
	children := st.callbacks[s]
	if len(children) == 0 {
		return
	}
	st.callbacks[s] = nil
	cb := p.callbacks[s]
	for _, c := range children {
		if cb != nil && cb(n, c, s) && !st.dirty.Has(s) {
			p.Dirty(n, "child callback", SetOf(s), false, false)
		}
	}
}
