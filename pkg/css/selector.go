package css

import (
	"slices"
	"strings"
)

// Combinator joins two compound selectors.
type Combinator int

const (
	// Descendant matches any ancestor (" ").
	Descendant Combinator = iota
	// Child matches the direct parent (">").
	Child
)

func (c Combinator) String() string {
	if c == Child {
		return ">"
	}
	return " "
}

// SelectorPart is a compound selector, or the description of one element in
// a selector path. Set fields are sorted and free of duplicates.
type SelectorPart struct {
	// Type is the element type; "" and "*" match any element.
	Type            string
	ID              string
	Classes         []string
	PseudoClasses   []string
	PseudoElements  []string
	Attributes      []string
	AttributeValues map[string]string
}

// Selector is a chain of compound selectors. Combinators[i] joins Parts[i]
// and Parts[i+1].
type Selector struct {
	Parts       []SelectorPart
	Combinators []Combinator
}

// Specificity counts selector components.
type Specificity struct {
	IDs     int
	Classes int // classes, pseudo-classes and attributes
	Types   int // types and pseudo-elements
}

// Specificity returns the component counts of s.
func (s Selector) Specificity() Specificity {
	var sp Specificity
	for _, p := range s.Parts {
		if p.ID != "" {
			sp.IDs++
		}
		sp.Classes += len(p.Classes) + len(p.PseudoClasses) + len(p.Attributes)
		if p.Type != "" && p.Type != "*" {
			sp.Types++
		}
		sp.Types += len(p.PseudoElements)
	}
	return sp
}

func (s Selector) String() string {
	var b strings.Builder
	for i, p := range s.Parts {
		if i > 0 {
			if s.Combinators[i-1] == Child {
				b.WriteString(" > ")
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(p.String())
	}
	return b.String()
}

// String renders p in canonical order: type, id, classes, pseudo-classes,
// pseudo-elements, attributes.
func (p SelectorPart) String() string {
	var b strings.Builder
	b.WriteString(p.Type)
	if p.ID != "" {
		b.WriteString("#" + p.ID)
	}
	for _, c := range p.Classes {
		b.WriteString("." + c)
	}
	for _, c := range p.PseudoClasses {
		b.WriteString(":" + c)
	}
	for _, c := range p.PseudoElements {
		b.WriteString("::" + c)
	}
	for _, a := range p.Attributes {
		if v, ok := p.AttributeValues[a]; ok {
			b.WriteString("[" + a + "=\"" + v + "\"]")
		} else {
			b.WriteString("[" + a + "]")
		}
	}
	if b.Len() == 0 {
		return "*"
	}
	return b.String()
}

// Stripped returns p without pseudo-classes, pseudo-elements and
// attributes.
func (p SelectorPart) Stripped() SelectorPart {
	return SelectorPart{Type: p.Type, ID: p.ID, Classes: p.Classes}
}

// PathString renders an element path as a cache key.
func PathString(path []SelectorPart) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = p.String()
	}
	return strings.Join(parts, " > ")
}

// AddToSet inserts v into the sorted set and returns the result.
func AddToSet(set []string, v string) []string {
	i, found := slices.BinarySearch(set, v)
	if found {
		return set
	}
	return slices.Insert(set, i, v)
}

// RemoveFromSet removes v from the sorted set and returns the result.
func RemoveFromSet(set []string, v string) []string {
	i, found := slices.BinarySearch(set, v)
	if !found {
		return set
	}
	return slices.Delete(set, i, i+1)
}

// subset reports whether every element of a is in b. Both must be sorted.
func subset(a, b []string) bool {
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j == len(b) || b[j] != v {
			return false
		}
		j++
	}
	return true
}

// parseSelectorList parses comma separated selectors from tokens.
func parseSelectorList(tokens []Token) ([]Selector, error) {
	var sels []Selector
	start := 0
	for i := 0; i <= len(tokens); i++ {
		if i < len(tokens) && !tokens[i].IsPunct(",") {
			continue
		}
		sel, err := parseSelector(tokens[start:i], tokens)
		if err != nil {
			return nil, err
		}
		sels = append(sels, sel)
		start = i + 1
	}
	return sels, nil
}

// parseSelector parses one complex selector. all is the whole selector list
// and only serves error messages.
func parseSelector(tokens, all []Token) (Selector, error) {
	fail := func(reason string) error {
		line := 0
		if len(all) > 0 {
			line = all[0].Line
		}
		return &SelectorGrammarError{Line: line, Selector: joinTokens(all), Reason: reason}
	}
	if len(tokens) == 0 {
		return Selector{}, fail("empty selector")
	}

	var sel Selector
	var cur *SelectorPart
	pendingChild := false
	closePart := func() {
		if cur != nil {
			sel.Parts = append(sel.Parts, *cur)
			cur = nil
		}
	}
	openPart := func() {
		if len(sel.Parts) > 0 {
			if pendingChild {
				sel.Combinators = append(sel.Combinators, Child)
			} else {
				sel.Combinators = append(sel.Combinators, Descendant)
			}
		}
		pendingChild = false
		cur = &SelectorPart{}
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.IsPunct(">") {
			if cur == nil {
				return Selector{}, fail("combinator without left-hand side")
			}
			closePart()
			pendingChild = true
			continue
		}
		// Whitespace separates compounds.
		if cur != nil && tok.SpaceBefore {
			closePart()
		}
		if cur == nil {
			openPart()
		}
		empty := cur.Type == "" && cur.ID == "" && len(cur.Classes) == 0 && len(cur.PseudoClasses) == 0 &&
			len(cur.PseudoElements) == 0 && len(cur.Attributes) == 0

		switch {
		case tok.IsPunct("*"):
			if !empty {
				return Selector{}, fail("universal selector must come first")
			}
			cur.Type = "*"
		case tok.isWord():
			if !empty {
				return Selector{}, fail("type selector must come first")
			}
			cur.Type = tok.Text
		case tok.IsPunct(".") || tok.IsPunct("#"):
			if i+1 >= len(tokens) || !tokens[i+1].isWord() || tokens[i+1].SpaceBefore {
				return Selector{}, fail("expected name after " + tok.Text)
			}
			i++
			if tok.Text == "." {
				cur.Classes = AddToSet(cur.Classes, tokens[i].Text)
			} else {
				if cur.ID != "" && cur.ID != tokens[i].Text {
					return Selector{}, fail("more than one id")
				}
				cur.ID = tokens[i].Text
			}
		case tok.Kind == PseudoClass:
			cur.PseudoClasses = AddToSet(cur.PseudoClasses, tok.Value.String())
		case tok.Kind == PseudoElement:
			cur.PseudoElements = AddToSet(cur.PseudoElements, tok.Value.String())
		case tok.Kind == Attribute:
			t := tok.Value.(Tuple)
			name := t[0].String()
			cur.Attributes = AddToSet(cur.Attributes, name)
			if len(t) == 2 {
				if cur.AttributeValues == nil {
					cur.AttributeValues = map[string]string{}
				}
				cur.AttributeValues[name] = t[1].String()
			}
		case tok.IsPunct("~"):
			return Selector{}, fail("unsupported combinator ~")
		default:
			return Selector{}, fail("unexpected " + tok.Kind.String() + " " + tok.Text)
		}
	}
	if cur == nil {
		return Selector{}, fail("dangling combinator")
	}
	closePart()
	return sel, nil
}

func joinTokens(tokens []Token) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 && t.SpaceBefore {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// ParseSelector parses a single selector such as "div.box > p:hover".
func ParseSelector(text string) (Selector, error) {
	sels, err := ParseSelectorList(text)
	if err != nil {
		return Selector{}, err
	}
	if len(sels) != 1 {
		return Selector{}, &SelectorGrammarError{Line: 1, Selector: text, Reason: "expected a single selector"}
	}
	return sels[0], nil
}

// ParseSelectorList parses a comma separated selector list.
func ParseSelectorList(text string) ([]Selector, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	return parseSelectorList(tokens)
}
