package css

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrParse is returned (wrapped in *ParseError) when the tokenizer gives up on
// a source.
var ErrParse = errors.New("unable to parse stylesheet")

// ParseError carries the source name of a stylesheet which could not be parsed.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%v: %v", ErrParse, e.Err)
	}
	return fmt.Sprintf("%v (%s): %v", ErrParse, e.Source, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// TokenKind classifies a value token.
type TokenKind uint8

const (
	TokIdent      TokenKind = iota + 1 // keyword or bare name
	TokNumber                          // 1.5
	TokDimension                       // 12px
	TokPercentage                      // 50%
	TokHash                            // #ff0000, Text holds "ff0000"
	TokString                          // "Times New Roman", Text unquoted
	TokFunction                        // rgb(...), Name + Args
	TokVar                             // var(--name[, fallback]), Name + Args (fallback)
	TokComma
	TokSlash
	TokDelim
)

// Token is a single typed item of a declaration value. Literals arrive already
// classified by the parser so the cascade never looks at raw CSS text.
type Token struct {
	Kind TokenKind
	Text string  // ident text, hash digits, unquoted string or delimiter
	Num  float64 // numeric part of numbers, dimensions and percentages
	Unit string  // lower-cased dimension unit
	Name string  // function name (lower case) or custom property name for var()
	Args []Token // function arguments or var() fallback, nil when absent
}

// Ident returns the lower-cased keyword for ident tokens and "" otherwise.
func (t Token) Ident() string {
	if t.Kind != TokIdent {
		return ""
	}
	return strings.ToLower(t.Text)
}

// IsNumeric reports whether the token carries a number.
func (t Token) IsNumeric() bool {
	return t.Kind == TokNumber || t.Kind == TokDimension || t.Kind == TokPercentage
}

// String returns CSS text for the token.
func (t Token) String() string {
	switch t.Kind {
	case TokIdent, TokDelim:
		return t.Text
	case TokNumber:
		return formatNumber(t.Num)
	case TokDimension:
		return formatNumber(t.Num) + t.Unit
	case TokPercentage:
		return formatNumber(t.Num) + "%"
	case TokHash:
		return "#" + t.Text
	case TokString:
		return `"` + cssEscapeDoubleQuoted(t.Text) + `"`
	case TokFunction:
		return t.Name + "(" + Value(t.Args).String() + ")"
	case TokVar:
		if t.Args == nil {
			return "var(" + t.Name + ")"
		}
		return "var(" + t.Name + ", " + Value(t.Args).String() + ")"
	case TokComma:
		return ","
	case TokSlash:
		return "/"
	default:
		return t.Text
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Value is the token sequence of a declaration. Values are shared between
// rules and snapshots and must never be modified in place.
type Value []Token

// HasVar reports whether the value (including nested function arguments)
// references a custom property.
func (v Value) HasVar() bool {
	for _, t := range v {
		if t.Kind == TokVar {
			return true
		}
		if t.Kind == TokFunction && Value(t.Args).HasVar() {
			return true
		}
	}
	return false
}

// String returns CSS text for the value.
func (v Value) String() string {
	var sb strings.Builder
	for i, t := range v {
		switch {
		case t.Kind == TokComma:
			sb.WriteString(",")
			continue
		case i > 0 && v[i-1].Kind != TokSlash && t.Kind != TokSlash:
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Declaration is a single "property: value" pair of a rule.
type Declaration struct {
	Property PropertyKey
	Value    Value
}

func (d Declaration) String() string {
	return d.Property.String() + ": " + d.Value.String()
}

// AttrConstraint is an attribute equality test: [name=value].
type AttrConstraint struct {
	Name  string
	Value string
}

// CompoundSelector is a single selector segment without combinators.
// Empty Type (or "*") matches any type.
type CompoundSelector struct {
	Type    string
	ID      string
	Classes []string
	Attrs   []AttrConstraint
}

// IsWildcard reports whether the segment puts no constraint on the type.
func (c CompoundSelector) IsWildcard() bool {
	return c.Type == "" || c.Type == "*"
}

// IsEmpty reports whether the segment has no constraints at all.
func (c CompoundSelector) IsEmpty() bool {
	return c.Type == "" && c.ID == "" && len(c.Classes) == 0 && len(c.Attrs) == 0
}

func (c CompoundSelector) String() string {
	var sb strings.Builder
	switch {
	case c.Type != "":
		sb.WriteString(c.Type)
	case c.ID == "" && len(c.Classes) == 0 && len(c.Attrs) == 0:
		sb.WriteString("*")
	}
	if c.ID != "" {
		sb.WriteString("#" + c.ID)
	}
	for _, cl := range c.Classes {
		sb.WriteString("." + cl)
	}
	for _, a := range c.Attrs {
		sb.WriteString(`[` + a.Name + `="` + cssEscapeDoubleQuoted(a.Value) + `"]`)
	}
	return sb.String()
}

// SelectorChain is a sequence of compound selectors joined by descendant
// combinators, root-most first. The last segment is the subject.
type SelectorChain struct {
	Raw       string
	Compounds []CompoundSelector
}

// Leaf returns the subject segment of the chain.
func (s SelectorChain) Leaf() CompoundSelector {
	if len(s.Compounds) == 0 {
		return CompoundSelector{}
	}
	return s.Compounds[len(s.Compounds)-1]
}

func (s SelectorChain) String() string {
	parts := make([]string, 0, len(s.Compounds))
	for _, c := range s.Compounds {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

// Rule is a parsed style rule. SourceOrder is assigned when stylesheets are
// merged and is the final tie-break of the cascade.
type Rule struct {
	Selectors    []SelectorChain
	Declarations []Declaration
	SourceOrder  int
}

// Stylesheet is an ordered list of rules. Warnings collect everything the
// parser dropped (unsupported selectors, unknown properties).
type Stylesheet struct {
	Rules    []Rule
	Warnings []string
}

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
func cssEscapeDoubleQuoted(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Declarations keep their source order.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i := range s.Rules {
		if i > 0 {
			n, err := io.WriteString(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
		n, err := writeRule(w, &s.Rules[i])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeRule(w io.Writer, rule *Rule) (int, error) {
	sels := make([]string, 0, len(rule.Selectors))
	for _, sel := range rule.Selectors {
		sels = append(sels, sel.String())
	}
	total, err := fmt.Fprintf(w, "/* %d */ %s {\n", rule.SourceOrder, strings.Join(sels, ", "))
	if err != nil {
		return total, err
	}
	for _, d := range rule.Declarations {
		n, err := fmt.Fprintf(w, "  %s;\n", d)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := io.WriteString(w, "}\n")
	return total + n, err
}
