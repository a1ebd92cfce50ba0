package css

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// ErrSelector is wrapped by every selector parsing error.
var ErrSelector = errors.New("unsupported selector")

// ParseSelectorList parses a comma separated selector list. Alternatives that
// cannot be represented are reported individually and do not affect others.
func ParseSelectorList(text string) ([]SelectorChain, []error) {
	var (
		chains []SelectorChain
		errs   []error
	)
	for _, group := range splitOnComma(lex([]byte(text))) {
		raw := strings.TrimSpace(rawText(group))
		if raw == "" {
			continue
		}
		chain, err := selectorFromTokens(raw, group)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		chains = append(chains, chain)
	}
	return chains, errs
}

// ParseSelector parses a single selector chain such as
// "Report#main Table.wide Cell[role=total]".
func ParseSelector(text string) (SelectorChain, error) {
	chains, errs := ParseSelectorList(text)
	switch {
	case len(errs) > 0:
		return SelectorChain{}, errs[0]
	case len(chains) != 1:
		return SelectorChain{}, fmt.Errorf("%w: expected exactly one selector in %q", ErrSelector, text)
	}
	return chains[0], nil
}

func splitOnComma(tokens []css.Token) [][]css.Token {
	var (
		out [][]css.Token
		cur []css.Token
	)
	for _, t := range tokens {
		if t.TokenType == css.CommaToken {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	return append(out, cur)
}

func rawText(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return sb.String()
}

// selectorFromTokens builds a chain out of compound segments separated by
// whitespace (descendant combinator). Only type, "*", #id, .class and
// [name=value] constraints are accepted.
func selectorFromTokens(raw string, tokens []css.Token) (SelectorChain, error) {
	chain := SelectorChain{Raw: raw}

	var (
		cur  CompoundSelector
		have bool
	)
	flush := func() {
		if have {
			chain.Compounds = append(chain.Compounds, cur)
		}
		cur, have = CompoundSelector{}, false
	}
	fail := func(format string, args ...any) (SelectorChain, error) {
		return SelectorChain{}, fmt.Errorf("%w: %q: %s", ErrSelector, raw, fmt.Sprintf(format, args...))
	}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.TokenType {
		case css.WhitespaceToken, css.CommentToken:
			flush()

		case css.IdentToken:
			if have {
				return fail("type must start a segment")
			}
			cur.Type, have = string(t.Data), true

		case css.HashToken:
			if cur.ID != "" {
				return fail("more than one id in a segment")
			}
			cur.ID, have = strings.TrimPrefix(string(t.Data), "#"), true

		case css.DelimToken:
			switch string(t.Data) {
			case "*":
				if have {
					return fail("wildcard must start a segment")
				}
				cur.Type, have = "*", true
			case ".":
				if i+1 >= len(tokens) || tokens[i+1].TokenType != css.IdentToken {
					return fail("class name expected")
				}
				i++
				cur.Classes, have = append(cur.Classes, string(tokens[i].Data)), true
			case ">", "+", "~":
				return fail("combinator %q", t.Data)
			default:
				return fail("unexpected %q", t.Data)
			}

		case css.LeftBracketToken:
			attr, next, err := parseAttr(tokens, i+1)
			if err != nil {
				return fail("%v", err)
			}
			i = next
			cur.Attrs, have = append(cur.Attrs, attr), true

		case css.ColonToken:
			return fail("pseudo classes and elements")

		default:
			return fail("unexpected %q", t.Data)
		}
	}
	flush()

	if len(chain.Compounds) == 0 {
		return fail("empty selector")
	}
	return chain, nil
}

// parseAttr parses "name=value]" starting at i and returns the index of the
// closing bracket.
func parseAttr(tokens []css.Token, i int) (AttrConstraint, int, error) {
	skip := func() {
		for i < len(tokens) && tokens[i].TokenType == css.WhitespaceToken {
			i++
		}
	}
	var attr AttrConstraint

	skip()
	if i >= len(tokens) || tokens[i].TokenType != css.IdentToken {
		return attr, i, errors.New("attribute name expected")
	}
	attr.Name = string(tokens[i].Data)
	i++

	skip()
	if i >= len(tokens) || tokens[i].TokenType != css.DelimToken || string(tokens[i].Data) != "=" {
		return attr, i, errors.New("only [name=value] attribute tests are supported")
	}
	i++

	skip()
	if i >= len(tokens) {
		return attr, i, errors.New("attribute value expected")
	}
	switch tokens[i].TokenType {
	case css.IdentToken, css.NumberToken:
		attr.Value = string(tokens[i].Data)
	case css.StringToken:
		attr.Value = unquote(string(tokens[i].Data))
	default:
		return attr, i, errors.New("attribute value expected")
	}
	i++

	skip()
	if i >= len(tokens) || tokens[i].TokenType != css.RightBracketToken {
		return attr, i, errors.New("']' expected")
	}
	return attr, i, nil
}
