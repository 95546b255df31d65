package text

import (
	"strings"
	"unicode"
)

// Run is one unbreakable piece of text. Space marks collapsible whitespace
// before the run, which layout drops at the start of a line. SpaceAfter
// marks collapsible whitespace ending the text, which separates the run
// from the next inline box. Newline forces a line break before the run.
type Run struct {
	Text       string
	Space      bool
	SpaceAfter bool
	Newline    bool
}

// Wraps reports whether runs produced under mode may be wrapped by layout.
func Wraps(mode string) bool {
	switch mode {
	case "nowrap", "pre":
		return false
	}
	return true
}

// SplitRuns cuts s into runs according to a white-space mode:
//
//	normal    collapse whitespace, one run per word
//	nowrap    collapse whitespace, a single run
//	pre       keep whitespace, one run per source line
//	pre-wrap  keep whitespace, one run per word with its leading spaces
//	pre-line  collapse spaces, keep newlines, one run per word
//
// Unknown modes behave like normal. Empty text has no runs in any mode.
func SplitRuns(s, mode string) []Run {
	if s == "" {
		return nil
	}
	switch mode {
	case "nowrap":
		collapsed := strings.Join(strings.Fields(s), " ")
		if collapsed == "" {
			return nil
		}
		return []Run{{Text: collapsed, Space: startsWithSpace(s), SpaceAfter: endsWithSpace(s)}}
	case "pre":
		var runs []Run
		for i, line := range strings.Split(s, "\n") {
			runs = append(runs, Run{Text: line, Newline: i > 0})
		}
		return runs
	case "pre-wrap":
		var runs []Run
		for i, line := range strings.Split(s, "\n") {
			words := preservedWords(line)
			if len(words) == 0 {
				runs = append(runs, Run{Newline: i > 0})
				continue
			}
			for j, w := range words {
				runs = append(runs, Run{Text: w, Newline: i > 0 && j == 0})
			}
		}
		return runs
	case "pre-line":
		var runs []Run
		for i, line := range strings.Split(s, "\n") {
			words := collapsedWords(line, i > 0)
			if len(words) == 0 && i > 0 {
				words = []Run{{Newline: true}}
			}
			runs = append(runs, words...)
		}
		return runs
	}
	return collapsedWords(s, false)
}

func startsWithSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[0]))
}

func endsWithSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[len(s)-1]))
}

func collapsedWords(s string, newline bool) []Run {
	var runs []Run
	space := startsWithSpace(s)
	for _, w := range strings.Fields(s) {
		runs = append(runs, Run{Text: w, Space: space, Newline: newline})
		space, newline = true, false
	}
	if n := len(runs); n > 0 {
		runs[n-1].SpaceAfter = endsWithSpace(s)
	}
	return runs
}

// preservedWords splits s before every word but the first. Whitespace stays
// with the word before it, so it hangs at the end of a wrapped line; leading
// whitespace stays with the first word.
func preservedWords(s string) []string {
	var out []string
	start, word := 0, false
	for i := 0; i < len(s); i++ {
		space := s[i] == ' ' || s[i] == '\t'
		if !space && word && i > 0 && (s[i-1] == ' ' || s[i-1] == '\t') {
			out = append(out, s[start:i])
			start = i
		}
		if !space {
			word = true
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
