package style

import (
	"cmp"
	"fmt"

	"vpui/pkg/css"
)

// SpecificityKey orders matched rule sets in the cascade. Keys compare
// field by field; the insertion id makes every key unique.
type SpecificityKey struct {
	Origin      css.Origin
	IDs         int
	Classes     int // classes, pseudo-classes and attributes
	Types       int // types and pseudo-elements
	InsertionID uint64
}

// Compare returns -1, 0 or +1.
func (k SpecificityKey) Compare(o SpecificityKey) int {
	if c := cmp.Compare(k.Origin, o.Origin); c != 0 {
		return c
	}
	if c := cmp.Compare(k.IDs, o.IDs); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Classes, o.Classes); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Types, o.Types); c != 0 {
		return c
	}
	return cmp.Compare(k.InsertionID, o.InsertionID)
}

// Less reports whether k sorts before o.
func (k SpecificityKey) Less(o SpecificityKey) bool { return k.Compare(o) < 0 }

func (k SpecificityKey) String() string {
	return fmt.Sprintf("(%s,%d,%d,%d,#%d)", k.Origin, k.IDs, k.Classes, k.Types, k.InsertionID)
}

func keyFor(sel css.Selector, rs *css.RuleSet) SpecificityKey {
	sp := sel.Specificity()
	return SpecificityKey{
		Origin:      rs.Origin,
		IDs:         sp.IDs,
		Classes:     sp.Classes,
		Types:       sp.Types,
		InsertionID: rs.InsertionID,
	}
}

// Match is a rule set that applies to an element, with the key of its most
// specific matching selector.
type Match struct {
	Key  SpecificityKey
	Rule *css.RuleSet
}
