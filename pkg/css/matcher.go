package css

import "slices"

// MatchPart reports whether the compound selector sel matches the element
// described by el. Pseudo-elements must match exactly, so "div" does not
// apply to the ::before box of a div.
func MatchPart(sel, el SelectorPart) bool {
	if sel.Type != "" && sel.Type != "*" && sel.Type != el.Type {
		return false
	}
	if sel.ID != "" && sel.ID != el.ID {
		return false
	}
	if !subset(sel.Classes, el.Classes) || !subset(sel.PseudoClasses, el.PseudoClasses) {
		return false
	}
	if !slices.Equal(sel.PseudoElements, el.PseudoElements) {
		return false
	}
	if !subset(sel.Attributes, el.Attributes) {
		return false
	}
	for k, v := range sel.AttributeValues {
		if ev, ok := el.AttributeValues[k]; !ok || ev != v {
			return false
		}
	}
	return true
}

// MatchSelector reports whether sel matches the last element of path. The
// path runs from the root to the element. Descendant combinators backtrack,
// so "a b" matches both "a b" and "a x b".
func MatchSelector(sel Selector, path []SelectorPart) bool {
	if len(sel.Parts) == 0 || len(path) == 0 {
		return false
	}
	last := len(sel.Parts) - 1
	if !MatchPart(sel.Parts[last], path[len(path)-1]) {
		return false
	}
	return matchFrom(sel, last, path, len(path)-1)
}

// matchFrom assumes sel.Parts[si] matched path[pi] and checks the parts to
// its left.
func matchFrom(sel Selector, si int, path []SelectorPart, pi int) bool {
	if si == 0 {
		return true
	}
	part := sel.Parts[si-1]
	if sel.Combinators[si-1] == Child {
		return pi > 0 && MatchPart(part, path[pi-1]) && matchFrom(sel, si-1, path, pi-1)
	}
	for j := pi - 1; j >= 0; j-- {
		if MatchPart(part, path[j]) && matchFrom(sel, si-1, path, j) {
			return true
		}
	}
	return false
}
