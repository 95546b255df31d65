package style

import (
	"go.uber.org/zap"

	"vpui/pkg/css"
)

// Stylesheet is an ordered list of rule sets with lazily built selector
// tries. Rule sets keep the insertion ids they were parsed with, so
// appending one sheet to another preserves their relative order.
type Stylesheet struct {
	engine *Engine
	id     uint64
	origin css.Origin
	rules  []*css.RuleSet

	// version counts mutations; the tries are current when built == version.
	version  uint64
	built    uint64
	full     *trie
	stripped *trie
	// coarse caches stripped-trie candidates per stripped path.
	coarse map[string][]int32
}

// Origin returns the origin stamped on rule sets loaded into s.
func (s *Stylesheet) Origin() css.Origin { return s.origin }

// Version returns the mutation counter.
func (s *Stylesheet) Version() uint64 { return s.version }

// Rules returns the rule sets in source order. The slice must not be
// modified.
func (s *Stylesheet) Rules() []*css.RuleSet { return s.rules }

// Len returns the number of rule sets.
func (s *Stylesheet) Len() int { return len(s.rules) }

// Load parses text and appends its rule sets. On a parse error the sheet is
// left unchanged. Rule sets with malformed selectors are skipped.
func (s *Stylesheet) Load(text string) error {
	res, err := s.engine.parser(s.origin).Parse(text)
	if err != nil {
		return err
	}
	s.Add(res.RuleSets...)
	return nil
}

// Append adds the rule sets of other to s.
func (s *Stylesheet) Append(other *Stylesheet) {
	if other == nil || len(other.rules) == 0 {
		return
	}
	s.rules = append(s.rules, other.rules...)
	s.version++
}

// Add appends already parsed rule sets.
func (s *Stylesheet) Add(rules ...*css.RuleSet) {
	if len(rules) == 0 {
		return
	}
	s.rules = append(s.rules, rules...)
	s.version++
}

// Clear removes every rule set.
func (s *Stylesheet) Clear() {
	if len(s.rules) == 0 {
		return
	}
	s.rules = nil
	s.version++
}

// Optimize builds the tries if the rule list changed since the last build.
// It reports whether a rebuild happened.
func (s *Stylesheet) Optimize() bool {
	if s.full != nil && s.built == s.version {
		return false
	}
	s.full = newTrie(s.rules, false)
	s.stripped = newTrie(s.rules, true)
	s.coarse = make(map[string][]int32)
	s.built = s.version
	s.engine.log.Debug("Built selector tries",
		zap.Uint64("sheet", s.id),
		zap.Int("rules", len(s.rules)),
		zap.Int("nodes", s.full.size()),
		zap.Int("stripped_nodes", s.stripped.size()))
	return true
}

// Match returns the rule sets matching the element at the end of path,
// ascending by specificity key, using the full trie.
func (s *Stylesheet) Match(path []css.SelectorPart) []Match {
	s.Optimize()
	return s.full.match(path)
}

// MatchLinear is Match by brute force over every selector.
func (s *Stylesheet) MatchLinear(path []css.SelectorPart) []Match {
	best := make(map[*css.RuleSet]SpecificityKey)
	for _, rs := range s.rules {
		for _, sel := range rs.Selectors {
			if !css.MatchSelector(sel, path) {
				continue
			}
			k := keyFor(sel, rs)
			if old, ok := best[rs]; !ok || old.Less(k) {
				best[rs] = k
			}
		}
	}
	return sortedMatches(best)
}

// matchCoarse is Match through the stripped trie. Candidates depend only on
// the stripped path, so they are cached and survive pseudo-class and
// attribute changes; each candidate is then verified against the full path.
func (s *Stylesheet) matchCoarse(path []css.SelectorPart) []Match {
	s.Optimize()
	stripped := make([]css.SelectorPart, len(path))
	for i, p := range path {
		stripped[i] = p.Stripped()
	}
	key := css.PathString(stripped)
	cands, ok := s.coarse[key]
	if !ok {
		cands = s.stripped.candidates(stripped)
		s.coarse[key] = cands
	}
	return s.stripped.verify(cands, path)
}
