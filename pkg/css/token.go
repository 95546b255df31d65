package css

// TokenKind classifies a token. The order of the constants is the order in
// which the tokenizer tries its rules.
type TokenKind int

const (
	Ignore TokenKind = iota
	Punct
	Attribute
	Key
	Keyword
	URLToken
	String
	CursorToken
	ColorToken
	PseudoClass
	PseudoElement
	Number
	VarRef
	Ident
	Variable
)

var tokenKindNames = [...]string{
	Ignore:        "ignore",
	Punct:         "punctuation",
	Attribute:     "attribute",
	Key:           "key",
	Keyword:       "keyword",
	URLToken:      "url",
	String:        "string",
	CursorToken:   "cursor",
	ColorToken:    "color",
	PseudoClass:   "pseudo-class",
	PseudoElement: "pseudo-element",
	Number:        "number",
	VarRef:        "var-reference",
	Ident:         "identifier",
	Variable:      "variable",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "unknown"
}

// Token is one lexical unit of a stylesheet.
type Token struct {
	Kind TokenKind
	// Text is the literal source text of the token.
	Text string
	// Value is the typed payload for value-like tokens, nil otherwise.
	// Attribute tokens carry Tuple{name} or Tuple{name, value}.
	Value Value
	Line  int
	// SpaceBefore is set when whitespace or a comment preceded the token.
	SpaceBefore bool
}

// IsPunct reports whether t is the punctuation p.
func (t Token) IsPunct(p string) bool {
	return t.Kind == Punct && t.Text == p
}

// isWord reports whether t can serve as a name: a type selector, class,
// id or property key. Keyword-like kinds qualify because names such as
// "table" or "text" double as value keywords.
func (t Token) isWord() bool {
	switch t.Kind {
	case Ident, Key, Keyword, CursorToken:
		return true
	case ColorToken:
		_, named := namedColors[t.Text]
		return named
	}
	return false
}

// knownProperties are tokenized as Key inside declaration blocks. Other
// names still parse as opaque declarations.
var knownProperties = []string{
	"background-color", "background-image", "background",
	"border-top-color", "border-right-color", "border-bottom-color", "border-left-color",
	"border-color", "border-width", "border-radius", "border",
	"color", "content", "cursor", "display",
	"font-family", "font-size", "font-style", "font-weight", "font",
	"line-height",
	"margin-top", "margin-right", "margin-bottom", "margin-left", "margin",
	"max-height", "max-width", "min-height", "min-width",
	"overflow-x", "overflow-y", "overflow",
	"padding-top", "padding-right", "padding-bottom", "padding-left", "padding",
	"text-align-last", "text-align", "text-transform",
	"white-space", "width", "height", "z-index", "visibility",
}

var knownKeywords = []string{
	"initial", "inherit", "auto", "none", "normal", "bold", "bolder", "lighter", "italic", "oblique",
	"inline-block", "inline", "block", "table-row", "table-cell", "table", "flex",
	"nowrap", "pre-wrap", "pre-line", "pre",
	"scroll", "hidden", "visible",
	"left", "right", "center", "justify", "start", "end",
	"solid", "dashed", "dotted",
	"uppercase", "lowercase", "capitalize",
}
