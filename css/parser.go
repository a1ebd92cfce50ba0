package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into rules of the closed style vocabulary.
// Parser has no state besides the logger and is safe for concurrent use.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. The source parameter identifies
// what is being parsed and is only used for diagnostics.
//
// Anything the engine cannot represent (at-rules, unsupported selectors,
// unknown properties, malformed values) is dropped with a warning, the rest
// of the sheet is kept. An error is returned only when the tokenizer itself
// fails, in which case no rules are returned.
func (p *Parser) Parse(data []byte, source string) (*Stylesheet, error) {
	sheet := &Stylesheet{}

	p.log.Debug("Parsing CSS", zap.String("source", source), zap.Int("bytes", len(data)))

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)

	// Selector text of the current ruleset. The tokenizer reports groups
	// separated by commas one by one, so we accumulate until the block opens.
	var selectors strings.Builder

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("CSS parse error", zap.String("source", source), zap.Error(err))
				return nil, &ParseError{Source: source, Err: err}
			}
			p.log.Debug("Parsed CSS", zap.String("source", source),
				zap.Int("rules", len(sheet.Rules)), zap.Int("warnings", len(sheet.Warnings)))
			return sheet, nil

		case css.BeginAtRuleGrammar:
			p.warn(sheet, "unsupported at-rule", string(data))
			skipBlock(parser)

		case css.AtRuleGrammar:
			p.warn(sheet, "unsupported at-rule", string(data))

		case css.QualifiedRuleGrammar:
			writeSelectorText(&selectors, data, parser.Values())
			selectors.WriteByte(',')

		case css.BeginRulesetGrammar:
			writeSelectorText(&selectors, data, parser.Values())
			text := selectors.String()
			selectors.Reset()

			decls := p.parseDeclarations(parser, sheet)

			chains, errs := ParseSelectorList(text)
			for _, err := range errs {
				p.warn(sheet, "unsupported selector", err.Error())
			}
			if len(chains) == 0 {
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{Selectors: chains, Declarations: decls})
		}
	}
}

func (p *Parser) warn(sheet *Stylesheet, msg, detail string) {
	sheet.Warnings = append(sheet.Warnings, msg+": "+detail)
	p.log.Debug("Skipping CSS construct", zap.String("reason", msg), zap.String("detail", detail))
}

// writeSelectorText appends raw selector text reported by the tokenizer.
func writeSelectorText(sb *strings.Builder, data []byte, values []css.Token) {
	sb.Write(bytes.Trim(data, "{,"))
	for _, v := range values {
		sb.Write(v.Data)
	}
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser, sheet *Stylesheet) []Declaration {
	var decls []Declaration

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.BeginRulesetGrammar, css.BeginAtRuleGrammar:
			// nested blocks are not part of the dialect
			p.warn(sheet, "unsupported nested block", string(data))
			skipBlock(parser)

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			name := string(data)
			key, ok := ParsePropertyKey(name)
			if !ok {
				p.warn(sheet, "unknown property", name)
				continue
			}
			tokens := parser.Values()
			if gt == css.CustomPropertyGrammar {
				tokens = relexCustomValue(tokens)
			}
			value, err := convertTokens(tokens)
			if err != nil {
				p.warn(sheet, "malformed value", fmt.Sprintf("%s: %v", name, err))
				continue
			}
			if len(value) == 0 {
				p.warn(sheet, "empty value", name)
				continue
			}
			decls = append(decls, Declaration{Property: key, Value: value})
		}
	}
}

// skipBlock skips tokens until the matching end of a block.
func skipBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// relexCustomValue turns the single raw token the tokenizer produces for
// custom property values into regular tokens.
func relexCustomValue(tokens []css.Token) []css.Token {
	if len(tokens) != 1 || tokens[0].TokenType != css.CustomPropertyValueToken {
		return tokens
	}
	return lex(tokens[0].Data)
}

// lex tokenizes a fragment of CSS text.
func lex(data []byte) []css.Token {
	l := css.NewLexer(parse.NewInputBytes(bytes.Clone(data)))
	var out []css.Token
	for {
		tt, text := l.Next()
		if tt == css.ErrorToken {
			return out
		}
		out = append(out, css.Token{TokenType: tt, Data: bytes.Clone(text)})
	}
}

// ParseValue converts CSS value text into typed tokens. It is used by tools
// and tests which need a Value without a surrounding stylesheet.
func ParseValue(text string) (Value, error) {
	return convertTokens(lex([]byte(text)))
}

// convertTokens converts tokenizer output into a Value.
func convertTokens(tokens []css.Token) (Value, error) {
	r := tokenReader{tokens: tokens}
	return r.read(false)
}

type tokenReader struct {
	tokens []css.Token
	pos    int
}

func (r *tokenReader) read(nested bool) (Value, error) {
	out := Value{}
	for r.pos < len(r.tokens) {
		t := r.tokens[r.pos]
		r.pos++

		switch t.TokenType {
		case css.WhitespaceToken, css.CommentToken:
			continue

		case css.RightParenthesisToken:
			if nested {
				return out, nil
			}
			return nil, errors.New("unbalanced ')'")

		case css.FunctionToken:
			name := strings.ToLower(strings.TrimSuffix(string(t.Data), "("))
			args, err := r.read(true)
			if err != nil {
				return nil, err
			}
			if name == "var" {
				tok, err := varToken(args)
				if err != nil {
					return nil, err
				}
				out = append(out, tok)
				continue
			}
			out = append(out, Token{Kind: TokFunction, Name: name, Args: args})

		case css.IdentToken, css.CustomPropertyNameToken:
			out = append(out, Token{Kind: TokIdent, Text: string(t.Data)})

		case css.NumberToken:
			f, err := strconv.ParseFloat(string(t.Data), 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", t.Data, err)
			}
			out = append(out, Token{Kind: TokNumber, Num: f})

		case css.PercentageToken:
			f, err := strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			if err != nil {
				return nil, fmt.Errorf("bad percentage %q: %w", t.Data, err)
			}
			out = append(out, Token{Kind: TokPercentage, Num: f})

		case css.DimensionToken:
			f, unit, ok := parseDimension(string(t.Data))
			if !ok {
				return nil, fmt.Errorf("bad dimension %q", t.Data)
			}
			out = append(out, Token{Kind: TokDimension, Num: f, Unit: unit})

		case css.HashToken:
			out = append(out, Token{Kind: TokHash, Text: strings.TrimPrefix(string(t.Data), "#")})

		case css.StringToken:
			out = append(out, Token{Kind: TokString, Text: unquote(string(t.Data))})

		case css.URLToken:
			s := strings.TrimSuffix(strings.TrimPrefix(string(t.Data), "url("), ")")
			out = append(out, Token{Kind: TokFunction, Name: "url", Args: []Token{{Kind: TokString, Text: unquote(s)}}})

		case css.CommaToken:
			out = append(out, Token{Kind: TokComma})

		case css.DelimToken:
			switch d := string(t.Data); d {
			case "/":
				out = append(out, Token{Kind: TokSlash})
			case "!":
				// "!important" is accepted and ignored, the dialect has no importance
				r.skipImportant()
			default:
				out = append(out, Token{Kind: TokDelim, Text: d})
			}

		default:
			return nil, fmt.Errorf("unexpected token %q", t.Data)
		}
	}
	if nested {
		return nil, errors.New("unterminated function")
	}
	return out, nil
}

func (r *tokenReader) skipImportant() {
	for r.pos < len(r.tokens) {
		t := r.tokens[r.pos]
		r.pos++
		if t.TokenType == css.WhitespaceToken {
			continue
		}
		if t.TokenType != css.IdentToken || !strings.EqualFold(string(t.Data), "important") {
			r.pos--
		}
		return
	}
}

// varToken builds a var() reference from already converted arguments.
func varToken(args Value) (Token, error) {
	if len(args) == 0 || args[0].Kind != TokIdent || !strings.HasPrefix(args[0].Text, "--") {
		return Token{}, errors.New("var() expects a custom property name")
	}
	tok := Token{Kind: TokVar, Name: Custom(args[0].Text).String()}
	if len(args) > 1 {
		if args[1].Kind != TokComma {
			return Token{}, errors.New("var() expects a comma before the fallback")
		}
		tok.Args = append(Value{}, args[2:]...)
	}
	return tok, nil
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string, bool) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 || numEnd == len(s) {
		return 0, "", false
	}
	num, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil {
		return 0, "", false
	}
	return num, strings.ToLower(s[numEnd:]), true
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
