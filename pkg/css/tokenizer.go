package css

import (
	"regexp"
	"strings"
)

// A rule recognizes one token kind at the start of rest. It returns the
// number of bytes consumed (0 for no match) and the token payload.
type rule struct {
	kind  TokenKind
	match func(z *tokenizer, rest string) (int, Value)
}

var (
	reSpace     = regexp.MustCompile(`\A\s+`)
	reComment   = regexp.MustCompile(`(?s)\A/\*.*?(?:\*/|\z)`)
	reImportant = regexp.MustCompile(`\A!\s*important`)
	reAttribute = regexp.MustCompile(`\A\[\s*([_a-zA-Z][-_a-zA-Z0-9]*)\s*(?:=\s*(?:"([^"]*)"|'([^']*)'|([-_a-zA-Z0-9]+))\s*)?\]`)
	reURL       = regexp.MustCompile(`\Aurl\(\s*(?:"([^"]*)"|'([^']*)'|([^)"'\s]*))\s*\)`)
	reString    = regexp.MustCompile(`\A(?:"((?:[^"\\\n]|\\.)*)"|'((?:[^'\\\n]|\\.)*)')`)
	reHexColor  = regexp.MustCompile(`\A#[0-9a-fA-F]+`)
	reColorFunc = regexp.MustCompile(`\A(?:rgba?|hsla?)\([^)]*\)`)
	rePseudoCls = regexp.MustCompile(`\A:[_a-zA-Z][-_a-zA-Z0-9]*`)
	rePseudoEl  = regexp.MustCompile(`\A::[_a-zA-Z][-_a-zA-Z0-9]*`)
	reNumber    = regexp.MustCompile(`\A[-+]?(?:\d+(?:\.\d+)?|\.\d+)(?:%|[a-zA-Z]+)?`)
	reIdent     = regexp.MustCompile(`\A-?[_a-zA-Z][-_a-zA-Z0-9]*`)
	reVariable  = regexp.MustCompile(`\A--[-_a-zA-Z0-9]+`)
)

var (
	propertySet = toSet(knownProperties)
	keywordSet  = toSet(knownKeywords)
)

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// rules are tried in order; the first one that matches wins.
var rules = []rule{
	{Ignore, matchRegexp(reSpace)},
	{Ignore, matchRegexp(reComment)},
	{Ignore, matchRegexp(reImportant)},
	{Punct, matchPunct},
	{Attribute, matchAttribute},
	{Key, matchKey},
	{Keyword, matchWordIn(keywordSet)},
	{URLToken, matchURL},
	{String, matchString},
	{CursorToken, matchCursor},
	{ColorToken, matchColor},
	{PseudoClass, matchPseudo(rePseudoCls, 1)},
	{PseudoElement, matchPseudo(rePseudoEl, 2)},
	{Number, matchNumber},
	// var(...) has to be tried before identifiers, which would otherwise
	// consume the "var" prefix.
	{VarRef, matchVarRef},
	{Ident, matchRegexp(reIdent)},
	{Variable, matchRegexp(reVariable)},
}

type tokenizer struct {
	input string
	pos   int
	line  int
	// depth is the brace nesting depth; declarations live at depth > 0.
	depth int
	// valueMode is set between a declaration's ':' and its terminator.
	// It disables '#' and '.' punctuation so colors and numbers lex.
	valueMode bool
	last      Token
}

// Tokenize splits stylesheet text into tokens. Ignored tokens are dropped
// and recorded as SpaceBefore on the following token.
func Tokenize(text string) ([]Token, error) {
	return newTokenizer(text, false).all()
}

// tokenizeBlock tokenizes text as the inside of a declaration block.
func tokenizeBlock(text string) ([]Token, error) {
	return newTokenizer(text, true).all()
}

// tokenizeValue tokenizes text as a declaration value.
func tokenizeValue(text string) ([]Token, error) {
	z := newTokenizer(text, true)
	z.valueMode = true
	return z.all()
}

func newTokenizer(text string, inBlock bool) *tokenizer {
	z := &tokenizer{input: text, line: 1}
	if inBlock {
		z.depth = 1
	}
	return z
}

func (z *tokenizer) all() ([]Token, error) {
	var tokens []Token
	space := false
	for z.pos < len(z.input) {
		rest := z.input[z.pos:]
		matched := false
		for _, r := range rules {
			n, v := r.match(z, rest)
			if n == 0 {
				continue
			}
			text := rest[:n]
			if r.kind == Ignore {
				space = true
			} else {
				tok := Token{Kind: r.kind, Text: text, Value: v, Line: z.line, SpaceBefore: space}
				tokens = append(tokens, tok)
				z.advance(tok)
				space = false
			}
			z.line += strings.Count(text, "\n")
			z.pos += n
			matched = true
			break
		}
		if !matched {
			return tokens, &ParseError{Line: z.line, Expected: "token", Found: snippet(rest)}
		}
	}
	return tokens, nil
}

// advance updates the context flags after emitting tok.
func (z *tokenizer) advance(tok Token) {
	if tok.Kind == Punct {
		switch tok.Text {
		case "{":
			z.depth++
			z.valueMode = false
		case "}":
			if z.depth > 0 {
				z.depth--
			}
			z.valueMode = false
		case ";":
			z.valueMode = false
		case ":":
			if z.depth > 0 || z.last.Kind == Variable {
				z.valueMode = true
			}
		}
	}
	z.last = tok
}

func snippet(s string) string {
	if len(s) > 12 {
		s = s[:12]
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

func isIdentByte(c byte) bool {
	return c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// boundary reports whether position n of s ends an identifier.
func boundary(s string, n int) bool {
	return n >= len(s) || !isIdentByte(s[n])
}

// leadingWord returns the identifier at the start of s, if any.
func leadingWord(s string) string {
	if s == "" || !isIdentStart(s[0]) {
		return ""
	}
	n := 1
	for n < len(s) && isIdentByte(s[n]) {
		n++
	}
	return s[:n]
}

func matchRegexp(re *regexp.Regexp) func(*tokenizer, string) (int, Value) {
	return func(_ *tokenizer, rest string) (int, Value) {
		loc := re.FindStringIndex(rest)
		if loc == nil {
			return 0, nil
		}
		return loc[1], nil
	}
}

func matchPunct(z *tokenizer, rest string) (int, Value) {
	switch c := rest[0]; c {
	case '{', '}', ',', '(', ')', '>', '*', '~', ';':
		return 1, nil
	case '.', '#':
		if z.valueMode {
			return 0, nil
		}
		return 1, nil
	case ':':
		// In selectors ":name" and "::name" are pseudo tokens.
		if z.depth == 0 && z.last.Kind != Variable && len(rest) > 1 && (isIdentStart(rest[1]) || rest[1] == ':') {
			return 0, nil
		}
		return 1, nil
	}
	return 0, nil
}

func matchAttribute(_ *tokenizer, rest string) (int, Value) {
	m := reAttribute.FindStringSubmatchIndex(rest)
	if m == nil {
		return 0, nil
	}
	name := rest[m[2]:m[3]]
	for g := 4; g < len(m); g += 2 {
		if m[g] >= 0 {
			return m[1], Tuple{Scalar(name), Scalar(rest[m[g]:m[g+1]])}
		}
	}
	return m[1], Tuple{Scalar(name)}
}

func matchKey(z *tokenizer, rest string) (int, Value) {
	if z.depth == 0 || z.valueMode {
		return 0, nil
	}
	return matchWordIn(propertySet)(z, rest)
}

func matchWordIn(set map[string]bool) func(*tokenizer, string) (int, Value) {
	return func(_ *tokenizer, rest string) (int, Value) {
		w := leadingWord(rest)
		if w == "" || !set[w] {
			return 0, nil
		}
		return len(w), Scalar(w)
	}
}

func matchURL(_ *tokenizer, rest string) (int, Value) {
	m := reURL.FindStringSubmatchIndex(rest)
	if m == nil {
		return 0, nil
	}
	for g := 2; g < len(m); g += 2 {
		if m[g] >= 0 {
			return m[1], URL(rest[m[g]:m[g+1]])
		}
	}
	return m[1], URL("")
}

func matchString(_ *tokenizer, rest string) (int, Value) {
	m := reString.FindStringSubmatchIndex(rest)
	if m == nil {
		return 0, nil
	}
	body := ""
	if m[2] >= 0 {
		body = rest[m[2]:m[3]]
	} else {
		body = rest[m[4]:m[5]]
	}
	return m[1], Scalar(unescape(body))
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func matchCursor(_ *tokenizer, rest string) (int, Value) {
	w := leadingWord(rest)
	if w == "" {
		return 0, nil
	}
	c, ok := ParseCursor(w)
	if !ok {
		return 0, nil
	}
	return len(w), c
}

func matchColor(_ *tokenizer, rest string) (int, Value) {
	var lit string
	switch {
	case rest[0] == '#':
		lit = reHexColor.FindString(rest)
		if lit == "" || !boundary(rest, len(lit)) {
			return 0, nil
		}
	case reColorFunc.MatchString(rest):
		lit = reColorFunc.FindString(rest)
	default:
		lit = leadingWord(rest)
		if _, ok := namedColors[lit]; !ok {
			return 0, nil
		}
	}
	c, ok := ParseColor(lit)
	if !ok {
		return 0, nil
	}
	return len(lit), c
}

func matchPseudo(re *regexp.Regexp, prefix int) func(*tokenizer, string) (int, Value) {
	return func(z *tokenizer, rest string) (int, Value) {
		if z.depth > 0 {
			return 0, nil
		}
		lit := re.FindString(rest)
		if lit == "" {
			return 0, nil
		}
		return len(lit), Scalar(lit[prefix:])
	}
}

func matchNumber(_ *tokenizer, rest string) (int, Value) {
	lit := reNumber.FindString(rest)
	if lit == "" || !boundary(rest, len(lit)) {
		return 0, nil
	}
	n, ok := ParseNumberUnit(lit)
	if !ok {
		return 0, nil
	}
	return len(lit), n
}

// matchVarRef recognizes var(--name) and var(--name, default). The default
// may itself contain parentheses, so the closing paren is found by
// balancing rather than by a regular expression.
func matchVarRef(_ *tokenizer, rest string) (int, Value) {
	if !strings.HasPrefix(rest, "var(") {
		return 0, nil
	}
	depth := 0
	var quote byte
	end := -1
	for i := 3; i < len(rest) && end < 0; i++ {
		c := rest[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				end = i
			}
		}
	}
	if end < 0 {
		return 0, nil
	}
	inner := strings.TrimSpace(rest[4:end])
	name, def, hasDefault := strings.Cut(inner, ",")
	name = strings.TrimSpace(name)
	if len(name) < 3 || !strings.HasPrefix(name, "--") || reVariable.FindString(name) != name {
		return 0, nil
	}
	if hasDefault {
		return end + 1, Tuple{Scalar(name), Scalar(strings.TrimSpace(def))}
	}
	return end + 1, Tuple{Scalar(name)}
}
