package style

import (
	"slices"

	"vpui/pkg/css"
)

// Edge labels. Type edges carry a prefix so they never collide with the
// combinator edges.
const (
	edgeDescendant = " "
	edgeChild      = ">"
)

type terminal struct {
	key  SpecificityKey
	sel  css.Selector
	rule *css.RuleSet
}

type trieNode struct {
	edges map[string]int32
	terms []int32
}

// trie indexes selectors right to left. Nodes live in one slice and refer to
// each other by index. A stripped trie leaves out pseudo-classes,
// pseudo-elements and attributes, so its results only narrow the candidates.
type trie struct {
	nodes    []trieNode
	terms    []terminal
	stripped bool
}

func newTrie(rules []*css.RuleSet, stripped bool) *trie {
	t := &trie{nodes: make([]trieNode, 1), stripped: stripped}
	for _, rs := range rules {
		for _, sel := range rs.Selectors {
			t.insert(sel, rs)
		}
	}
	return t
}

func (t *trie) insert(sel css.Selector, rs *css.RuleSet) {
	n := int32(0)
	for i := len(sel.Parts) - 1; i >= 0; i-- {
		for _, e := range partEdges(sel.Parts[i], t.stripped, false) {
			n = t.child(n, e)
		}
		if i > 0 {
			if sel.Combinators[i-1] == css.Child {
				n = t.child(n, edgeChild)
			} else {
				n = t.child(n, edgeDescendant)
			}
		}
	}
	t.nodes[n].terms = append(t.nodes[n].terms, int32(len(t.terms)))
	t.terms = append(t.terms, terminal{key: keyFor(sel, rs), sel: sel, rule: rs})
}

func (t *trie) child(n int32, edge string) int32 {
	if c, ok := t.nodes[n].edges[edge]; ok {
		return c
	}
	if t.nodes[n].edges == nil {
		t.nodes[n].edges = make(map[string]int32)
	}
	c := int32(len(t.nodes))
	t.nodes = append(t.nodes, trieNode{})
	t.nodes[n].edges[edge] = c
	return c
}

// partEdges lists the edges of a compound selector in canonical order. For
// an element (element == true) an attribute with a value yields both the
// bare and the valued edge, so either selector form can be followed.
func partEdges(p css.SelectorPart, stripped, element bool) []string {
	var edges []string
	if p.Type != "" && p.Type != "*" {
		edges = append(edges, "t:"+p.Type)
	}
	if p.ID != "" {
		edges = append(edges, "#"+p.ID)
	}
	for _, c := range p.Classes {
		edges = append(edges, "."+c)
	}
	if stripped {
		return edges
	}
	for _, c := range p.PseudoClasses {
		edges = append(edges, ":"+c)
	}
	for _, c := range p.PseudoElements {
		edges = append(edges, "::"+c)
	}
	for _, a := range p.Attributes {
		v, hasValue := p.AttributeValues[a]
		if !hasValue || element {
			edges = append(edges, "["+a+"]")
		}
		if hasValue {
			edges = append(edges, "["+a+"="+v+"]")
		}
	}
	return edges
}

// candidates walks the trie along path, last element first, and returns the
// indices of every terminal reached, each once. Descendant edges may skip
// any number of ancestors.
func (t *trie) candidates(path []css.SelectorPart) []int32 {
	if len(path) == 0 {
		return nil
	}
	comps := make([][]string, len(path))
	for i, p := range path {
		comps[i] = partEdges(p, t.stripped, true)
	}

	type visit struct {
		node int32
		pi   int
	}
	seen := make(map[visit]bool)
	found := make([]bool, len(t.terms))
	var out []int32

	var walk func(n int32, pi int, rest []string)
	walk = func(n int32, pi int, rest []string) {
		if seen[visit{n, pi}] {
			return
		}
		seen[visit{n, pi}] = true

		// Every node reached while consuming a subset of the element's
		// edges may end this part.
		node := &t.nodes[n]
		for _, ti := range node.terms {
			if !found[ti] {
				found[ti] = true
				out = append(out, ti)
			}
		}
		if c, ok := node.edges[edgeChild]; ok && pi > 0 {
			walk(c, pi-1, comps[pi-1])
		}
		if c, ok := node.edges[edgeDescendant]; ok {
			for j := pi - 1; j >= 0; j-- {
				walk(c, j, comps[j])
			}
		}
		for i, e := range rest {
			if c, ok := node.edges[e]; ok {
				walk(c, pi, rest[i+1:])
			}
		}
	}
	walk(0, len(path)-1, comps[len(path)-1])
	return out
}

// match returns the rule sets whose selectors match path, ascending by key.
func (t *trie) match(path []css.SelectorPart) []Match {
	return t.verify(t.candidates(path), path)
}

// verify re-checks candidate terminals against path with the linear
// matcher, keeps the highest key per rule set and sorts.
func (t *trie) verify(cands []int32, path []css.SelectorPart) []Match {
	best := make(map[*css.RuleSet]SpecificityKey)
	for _, ti := range cands {
		term := t.terms[ti]
		if !css.MatchSelector(term.sel, path) {
			continue
		}
		if k, ok := best[term.rule]; !ok || k.Less(term.key) {
			best[term.rule] = term.key
		}
	}
	return sortedMatches(best)
}

func sortedMatches(best map[*css.RuleSet]SpecificityKey) []Match {
	out := make([]Match, 0, len(best))
	for rs, k := range best {
		out = append(out, Match{Key: k, Rule: rs})
	}
	slices.SortFunc(out, func(a, b Match) int { return a.Key.Compare(b.Key) })
	return out
}

// size returns the number of nodes, for diagnostics.
func (t *trie) size() int { return len(t.nodes) }
