package css

import (
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Origin is where a rule set came from. Later origins win the cascade.
type Origin int

const (
	OriginDefault Origin = iota
	OriginStylesheet
	OriginInline
)

func (o Origin) String() string {
	switch o {
	case OriginDefault:
		return "default"
	case OriginInline:
		return "inline"
	}
	return "stylesheet"
}

// Declaration is a single "property: value" pair. Multi-value declarations
// carry a Tuple.
type Declaration struct {
	Property string
	Value    Value
}

// RuleSet is a selector list with its declarations.
type RuleSet struct {
	Selectors    []Selector
	Declarations []Declaration
	Origin       Origin
	// InsertionID orders rule sets of equal specificity; it is unique.
	InsertionID uint64
	Line        int
}

// Result is the outcome of Parse.
type Result struct {
	RuleSets []*RuleSet
	// Skipped aggregates the SelectorGrammarErrors of dropped rule sets.
	Skipped error
}

// Parser turns stylesheet text into rule sets.
type Parser struct {
	log    *zap.Logger
	origin Origin
	nextID func() uint64
	vars   *Variables
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithOrigin sets the origin stamped on parsed rule sets.
func WithOrigin(o Origin) ParserOption {
	return func(p *Parser) { p.origin = o }
}

// WithIDSource sets the insertion id generator. The generator must return
// strictly increasing values.
func WithIDSource(next func() uint64) ParserOption {
	return func(p *Parser) { p.nextID = next }
}

// WithVariables sets the variable table used for --name bindings and
// var() references.
func WithVariables(v *Variables) ParserOption {
	return func(p *Parser) { p.vars = v }
}

// NewParser creates a parser. A nil logger disables logging.
func NewParser(log *zap.Logger, opts ...ParserOption) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	var counter uint64
	p := &Parser{
		log:    log.Named("css-parser"),
		origin: OriginStylesheet,
		nextID: func() uint64 { counter++; return counter },
		vars:   NewVariables(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses a stylesheet. A *ParseError aborts the whole text. Rule sets
// with malformed selectors are dropped and reported in Result.Skipped.
func (p *Parser) Parse(text string) (*Result, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch {
		case tok.Kind == Variable:
			n, err := p.parseVariable(tokens[i:])
			if err != nil {
				return nil, err
			}
			i += n
		case tok.IsPunct(";"):
			i++
		case tok.IsPunct("}"):
			return nil, &ParseError{Line: tok.Line, Expected: "selector-or-{", Found: tok.Text}
		default:
			open := i
			for open < len(tokens) && !tokens[open].IsPunct("{") {
				if tokens[open].IsPunct("}") || tokens[open].IsPunct(";") {
					return nil, &ParseError{Line: tokens[open].Line, Expected: "selector-or-{", Found: tokens[open].Text}
				}
				open++
			}
			if open == len(tokens) {
				return nil, &ParseError{Line: tokens[len(tokens)-1].Line, Expected: "{"}
			}
			closing := matchingBrace(tokens, open)
			if closing < 0 {
				return nil, &ParseError{Line: tokens[len(tokens)-1].Line, Expected: "}"}
			}

			sels, err := parseSelectorList(tokens[i:open])
			if err != nil {
				var sge *SelectorGrammarError
				if !errors.As(err, &sge) {
					return nil, err
				}
				p.log.Debug("Skipping rule set",
					zap.Int("line", sge.Line),
					zap.String("selector", sge.Selector),
					zap.String("reason", sge.Reason))
				res.Skipped = multierr.Append(res.Skipped, err)
				i = closing + 1
				continue
			}

			decls, err := p.parseDeclarations(tokens[open+1 : closing])
			if err != nil {
				return nil, err
			}
			res.RuleSets = append(res.RuleSets, &RuleSet{
				Selectors:    sels,
				Declarations: decls,
				Origin:       p.origin,
				InsertionID:  p.nextID(),
				Line:         tok.Line,
			})
			i = closing + 1
		}
	}
	return res, nil
}

// ParseDeclarations parses the contents of a declaration block, such as an
// inline style attribute.
func (p *Parser) ParseDeclarations(text string) ([]Declaration, error) {
	tokens, err := tokenizeBlock(text)
	if err != nil {
		return nil, err
	}
	return p.parseDeclarations(tokens)
}

// matchingBrace returns the index of the '}' closing the '{' at open, or -1.
func matchingBrace(tokens []Token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch {
		case tokens[i].IsPunct("{"):
			depth++
		case tokens[i].IsPunct("}"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (p *Parser) parseDeclarations(tokens []Token) ([]Declaration, error) {
	var decls []Declaration
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok.IsPunct(";") {
			i++
			continue
		}
		if tok.Kind == Variable {
			n, err := p.parseVariable(tokens[i:])
			if err != nil {
				return nil, err
			}
			i += n
			continue
		}
		if !tok.isWord() {
			return nil, &ParseError{Line: tok.Line, Expected: "property", Found: tok.Text}
		}
		if i+1 >= len(tokens) || !tokens[i+1].IsPunct(":") {
			return nil, &ParseError{Line: tok.Line, Expected: ":", Found: foundAt(tokens, i+1)}
		}
		end := i + 2
		for end < len(tokens) && !tokens[end].IsPunct(";") {
			end++
		}
		v, err := p.value(tokens[i+2:end], tok.Text, tok.Line)
		if err != nil {
			return nil, err
		}
		decls = append(decls, Declaration{Property: tok.Text, Value: v})
		i = end
	}
	return decls, nil
}

// parseVariable parses "--name: values;" and binds it. It returns the
// number of tokens consumed.
func (p *Parser) parseVariable(tokens []Token) (int, error) {
	name := tokens[0]
	if len(tokens) < 2 || !tokens[1].IsPunct(":") {
		return 0, &ParseError{Line: name.Line, Expected: ":", Found: foundAt(tokens, 1)}
	}
	end := 2
	for end < len(tokens) && !tokens[end].IsPunct(";") && !tokens[end].IsPunct("}") {
		end++
	}
	vals, err := p.values(tokens[2:end], name.Text)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, &ParseError{Line: name.Line, Expected: "value", Found: foundAt(tokens, end)}
	}
	p.vars.Set(name.Text, vals)
	if end < len(tokens) && tokens[end].IsPunct(";") {
		end++
	}
	return end, nil
}

func foundAt(tokens []Token, i int) string {
	if i < len(tokens) {
		return tokens[i].Text
	}
	return ""
}

// value converts the tokens of one declaration into a Value. More than one
// value yields a Tuple.
func (p *Parser) value(tokens []Token, prop string, line int) (Value, error) {
	vals, err := p.values(tokens, prop)
	if err != nil {
		return nil, err
	}
	switch len(vals) {
	case 0:
		return nil, &ParseError{Line: line, Expected: "value", Found: foundAt(tokens, 0)}
	case 1:
		return vals[0], nil
	}
	return Tuple(vals), nil
}

func (p *Parser) values(tokens []Token, prop string) ([]Value, error) {
	var vals []Value
	for _, tok := range tokens {
		switch tok.Kind {
		case Number, ColorToken, URLToken, String:
			vals = append(vals, tok.Value)
		case Keyword, Ident, Key:
			vals = append(vals, Scalar(tok.Text))
		case CursorToken:
			if prop == "cursor" {
				vals = append(vals, tok.Value)
			} else {
				vals = append(vals, Scalar(tok.Text))
			}
		case VarRef:
			expanded, err := p.expand(tok, prop)
			if err != nil {
				return nil, err
			}
			vals = append(vals, expanded...)
		case Punct:
			// Commas separate list items such as font families; the
			// values themselves are kept in order.
			if tok.Text == "," {
				continue
			}
			return nil, &ParseError{Line: tok.Line, Expected: "value", Found: tok.Text}
		default:
			return nil, &ParseError{Line: tok.Line, Expected: "value", Found: tok.Text}
		}
	}
	return vals, nil
}

// expand resolves var(--name, default). An unbound name falls back to the
// default, tokenized as a value. Without a default the value is "initial".
func (p *Parser) expand(tok Token, prop string) ([]Value, error) {
	ref := tok.Value.(Tuple)
	if vals, ok := p.vars.Get(ref[0].String()); ok {
		return vals, nil
	}
	if len(ref) < 2 {
		p.log.Debug("Unbound variable", zap.String("name", ref[0].String()), zap.Int("line", tok.Line))
		return []Value{Scalar("initial")}, nil
	}
	tokens, err := tokenizeValue(ref[1].String())
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Line += tok.Line - 1
		}
		return nil, err
	}
	return p.values(tokens, prop)
}
