package css

import "fmt"

// ParseError reports text that could not be tokenized or a missing
// terminator. It aborts the whole stylesheet.
type ParseError struct {
	Line     int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("css: line %d: expected %s, found end of input", e.Line, e.Expected)
	}
	return fmt.Sprintf("css: line %d: expected %s, found %q", e.Line, e.Expected, e.Found)
}

// SelectorGrammarError reports a malformed selector. Only the rule set that
// carries the selector is dropped.
type SelectorGrammarError struct {
	Line     int
	Selector string
	Reason   string
}

func (e *SelectorGrammarError) Error() string {
	return fmt.Sprintf("css: line %d: bad selector %q: %s", e.Line, e.Selector, e.Reason)
}
