package dirty

import "strings"

// Stage is a recomputation phase of a node.
type Stage uint8

const (
	Selector Stage = iota
	Style
	Content
	Blocks
	Size
	RenderBuf

	numStages
)

var stageNames = [numStages]string{"selector", "style", "content", "blocks", "size", "renderbuf"}

func (s Stage) String() string {
	if s < numStages {
		return stageNames[s]
	}
	return "invalid"
}

// Set is a set of stages.
type Set uint8

// All holds every stage.
const All Set = 1<<numStages - 1

// SetOf returns the set of the given stages.
func SetOf(stages ...Stage) Set {
	var s Set
	for _, st := range stages {
		s |= 1 << st
	}
	return s
}

func (s Set) Has(st Stage) bool { return s&(1<<st) != 0 }
func (s Set) With(st Stage) Set { return s | 1<<st }
func (s Set) Without(st Stage) Set { return s &^ (1 << st) }
func (s Set) Empty() bool { return s == 0 }
func (s Set) Union(o Set) Set { return s | o }
func (s Set) Intersect(o Set) Set { return s & o }
func (s Set) Difference(o Set) Set { return s &^ o }

// Stages lists the members of s in cleaning order.
func (s Set) Stages() []Stage {
	var out []Stage
	for _, st := range order {
		if s.Has(st) {
			out = append(out, st)
		}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, numStages)
	for _, st := range s.Stages() {
		names = append(names, st.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// dependents holds the prerequisite edges: dependents[a] are the stages
// that may only be cleaned after a.
var dependents = [numStages]Set{
	Selector: SetOf(Style),
	Style:    SetOf(Content, Size, RenderBuf),
	Content:  SetOf(Blocks, RenderBuf),
	Blocks:   SetOf(Size, RenderBuf),
	Size:     SetOf(RenderBuf),
}

// order is a topological order of the stage graph.
var order = topoSort()

// position[s] is the index of s in order.
var position = func() [numStages]int {
	var p [numStages]int
	for i, s := range order {
		p[s] = i
	}
	return p
}()

func topoSort() []Stage {
	var indegree [numStages]int
	for s := Stage(0); s < numStages; s++ {
		for _, d := range setMembers(dependents[s]) {
			indegree[d]++
		}
	}
	var queue, out []Stage
	for s := Stage(0); s < numStages; s++ {
		if indegree[s] == 0 {
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		out = append(out, s)
		for _, d := range setMembers(dependents[s]) {
			indegree[d]--
			if indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	if len(out) != int(numStages) {
		panic("dirty: stage graph has a cycle")
	}
	return out
}

// setMembers lists s in enum order; order itself is not known yet while it
// is being computed.
func setMembers(s Set) []Stage {
	var out []Stage
	for st := Stage(0); st < numStages; st++ {
		if s.Has(st) {
			out = append(out, st)
		}
	}
	return out
}

// Order returns the stages in cleaning order.
func Order() []Stage {
	return append([]Stage(nil), order...)
}

// Dependents returns the stages that directly depend on s.
func Dependents(s Stage) Set { return dependents[s] }

// Prerequisites returns the stages s directly depends on.
func Prerequisites(s Stage) Set {
	var out Set
	for p := Stage(0); p < numStages; p++ {
		if dependents[p].Has(s) {
			out = out.With(p)
		}
	}
	return out
}

// before returns the stages that come before s in cleaning order.
func before(s Stage) Set {
	var out Set
	for _, st := range order[:position[s]] {
		out = out.With(st)
	}
	return out
}
