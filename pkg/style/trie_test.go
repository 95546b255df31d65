package style

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"vpui/pkg/css"
)

var (
	genTypes   = []string{"div", "span", "p", "a"}
	genClasses = []string{"x", "y", "z"}
	genIDs     = []string{"m", "n"}
	genPseudo  = []string{"hover", "focus"}
)

func pick[T any](r *rand.Rand, xs []T) T { return xs[r.IntN(len(xs))] }

func genCompound(r *rand.Rand) string {
	var b strings.Builder
	switch r.IntN(4) {
	case 0:
		b.WriteString("*")
	case 1, 2:
		b.WriteString(pick(r, genTypes))
	}
	if r.IntN(5) == 0 {
		b.WriteString("#" + pick(r, genIDs))
	}
	for _, c := range genClasses {
		if r.IntN(4) == 0 {
			b.WriteString("." + c)
		}
	}
	if r.IntN(4) == 0 {
		b.WriteString(":" + pick(r, genPseudo))
	}
	switch r.IntN(8) {
	case 0:
		b.WriteString("[k]")
	case 1:
		b.WriteString(`[k="v"]`)
	case 2:
		b.WriteString("::before")
	}
	if b.Len() == 0 {
		return "*"
	}
	return b.String()
}

func genStylesheet(r *rand.Rand, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		var sels []string
		for j := 0; j < 1+r.IntN(2); j++ {
			parts := []string{genCompound(r)}
			for k := r.IntN(3); k > 0; k-- {
				comb := " "
				if r.IntN(2) == 0 {
					comb = " > "
				}
				parts = append(parts, comb, genCompound(r))
			}
			sels = append(sels, strings.Join(parts, ""))
		}
		fmt.Fprintf(&b, "%s { width: %dpx }\n", strings.Join(sels, ", "), i)
	}
	return b.String()
}

func genPath(r *rand.Rand) []css.SelectorPart {
	path := make([]css.SelectorPart, 1+r.IntN(5))
	for i := range path {
		p := css.SelectorPart{Type: pick(r, genTypes)}
		if r.IntN(3) == 0 {
			p.ID = pick(r, genIDs)
		}
		for _, c := range genClasses {
			if r.IntN(2) == 0 {
				p.Classes = css.AddToSet(p.Classes, c)
			}
		}
		for _, pc := range genPseudo {
			if r.IntN(3) == 0 {
				p.PseudoClasses = css.AddToSet(p.PseudoClasses, pc)
			}
		}
		if r.IntN(3) == 0 {
			p.Attributes = []string{"k"}
			if r.IntN(2) == 0 {
				p.AttributeValues = map[string]string{"k": "v"}
			}
		}
		path[i] = p
	}
	if r.IntN(6) == 0 {
		last := &path[len(path)-1]
		last.PseudoElements = []string{"before"}
	}
	return path
}

func keys(ms []Match) []SpecificityKey {
	out := make([]SpecificityKey, len(ms))
	for i, m := range ms {
		out[i] = m.Key
	}
	return out
}

func TestMatch_TrieEqualsLinear(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 5; round++ {
		e := newTestEngine(t)
		s := e.NewStylesheet(css.OriginStylesheet)
		text := genStylesheet(r, 150)
		require.NoError(t, s.Load(text))
		require.Equal(t, 150, s.Len())

		matched := 0
		for probe := 0; probe < 300; probe++ {
			path := genPath(r)
			want := keys(s.MatchLinear(path))
			matched += len(want)
			if diff := cmp.Diff(want, keys(s.Match(path))); diff != "" {
				t.Fatalf("full trie mismatch for %s (-linear +trie):\n%s", css.PathString(path), diff)
			}
			if diff := cmp.Diff(want, keys(s.matchCoarse(path))); diff != "" {
				t.Fatalf("stripped trie mismatch for %s (-linear +trie):\n%s", css.PathString(path), diff)
			}
		}
		require.Positive(t, matched, "generator produced no matches")
	}
}

func TestMatch_DescendantBacktracking(t *testing.T) {
	e := newTestEngine(t)
	s := sheetOf(t, e, `a > b c { width: 1px } a b { width: 2px }`)
	ms := s.Match(pathOf(t, "a b b c"))
	require.Len(t, ms, 1)
	ms = s.Match(pathOf(t, "a x b"))
	require.Len(t, ms, 1)
}

func TestMatch_DedupesPerRuleSet(t *testing.T) {
	e := newTestEngine(t)
	s := sheetOf(t, e, `div, div.x, #m { width: 1px }`)
	ms := s.Match(pathOf(t, "div#m.x"))
	require.Len(t, ms, 1)
	require.Equal(t, 1, ms[0].Key.IDs, "highest key kept")
}
