package style

import (
	"errors"
	"fmt"

	"rstyle/css"
)

var errUnresolvedVar = errors.New("unresolved var() reference")

// Longhands per edge in CSS order (top, right, bottom, left).
var (
	borderStyleProps = [4]css.Property{css.PropBorderTopStyle, css.PropBorderRightStyle, css.PropBorderBottomStyle, css.PropBorderLeftStyle}
	borderWidthProps = [4]css.Property{css.PropBorderTopWidth, css.PropBorderRightWidth, css.PropBorderBottomWidth, css.PropBorderLeftWidth}
	borderColorProps = [4]css.Property{css.PropBorderTopColor, css.PropBorderRightColor, css.PropBorderBottomColor, css.PropBorderLeftColor}
	paddingProps     = [4]css.Property{css.PropPaddingTop, css.PropPaddingRight, css.PropPaddingBottom, css.PropPaddingLeft}
)

// expand substitutes variables in d and, for shorthands, fans it out into
// longhand declarations. Each produced declaration goes through expand
// again. d is never modified.
func expand(d css.Declaration, props Properties) ([]css.Declaration, error) {
	v := substitute(d.Value, props)
	if !d.Property.IsShorthand() {
		return []css.Declaration{{Property: d.Property, Value: v}}, nil
	}
	if v.HasVar() {
		return nil, errUnresolvedVar
	}
	parts, err := splitShorthand(d.Property.Property(), v)
	if err != nil {
		return nil, err
	}
	out := make([]css.Declaration, 0, len(parts))
	for _, p := range parts {
		sub, err := expand(p, props)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func longhand(p css.Property, v ...css.Token) css.Declaration {
	return css.Declaration{Property: css.Known(p), Value: css.Value(v)}
}

func splitShorthand(p css.Property, v css.Value) ([]css.Declaration, error) {
	switch p {
	case css.PropBackground:
		return splitBackground(v)
	case css.PropFont:
		return splitFont(v)
	case css.PropBorder:
		return splitBorder(v, AllEdges[:])
	case css.PropBorderTop:
		return splitBorder(v, []Edge{EdgeTop})
	case css.PropBorderRight:
		return splitBorder(v, []Edge{EdgeRight})
	case css.PropBorderBottom:
		return splitBorder(v, []Edge{EdgeBottom})
	case css.PropBorderLeft:
		return splitBorder(v, []Edge{EdgeLeft})
	case css.PropBorderStyle:
		return splitFourSides(v, borderStyleProps)
	case css.PropBorderWidth:
		return splitFourSides(v, borderWidthProps)
	case css.PropBorderColor:
		return splitFourSides(v, borderColorProps)
	case css.PropPadding:
		return splitFourSides(v, paddingProps)
	case css.PropTextWrap:
		return splitTextWrap(v)
	}
	return nil, fmt.Errorf("%s is not a shorthand", p)
}

// splitFourSides applies the 1..4 value rule: top [right [bottom [left]]],
// missing sides copy their opposite side.
func splitFourSides(v css.Value, props [4]css.Property) ([]css.Declaration, error) {
	for _, t := range v {
		if t.Kind == css.TokComma || t.Kind == css.TokSlash {
			return nil, fmt.Errorf("unexpected %q", t)
		}
	}
	var sides [4]css.Token
	switch len(v) {
	case 1:
		sides = [4]css.Token{v[0], v[0], v[0], v[0]}
	case 2:
		sides = [4]css.Token{v[0], v[1], v[0], v[1]}
	case 3:
		sides = [4]css.Token{v[0], v[1], v[2], v[1]}
	case 4:
		sides = [4]css.Token{v[0], v[1], v[2], v[3]}
	default:
		return nil, fmt.Errorf("expected 1 to 4 values, got %d", len(v))
	}
	out := make([]css.Declaration, 4)
	for i := range sides {
		out[i] = longhand(props[i], sides[i])
	}
	return out, nil
}

// splitBorder classifies each token as style, width or color and emits
// longhands only for the components present.
func splitBorder(v css.Value, edges []Edge) ([]css.Declaration, error) {
	var line, width, color *css.Token
	for i := range v {
		t := &v[i]
		var slot **css.Token
		switch {
		case isBorderLine(*t):
			slot = &line
		case isBorderWidth(*t):
			slot = &width
		case isColor(*t):
			slot = &color
		default:
			return nil, fmt.Errorf("unexpected %q", t)
		}
		if *slot != nil {
			return nil, fmt.Errorf("duplicate component %q", t)
		}
		*slot = t
	}

	var out []css.Declaration
	for _, e := range edges {
		if line != nil {
			out = append(out, longhand(borderStyleProps[e], *line))
		}
		if width != nil {
			out = append(out, longhand(borderWidthProps[e], *width))
		}
		if color != nil {
			out = append(out, longhand(borderColorProps[e], *color))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("empty border")
	}
	return out, nil
}

// splitBackground keeps the background color, other layers are outside of
// the vocabulary.
func splitBackground(v css.Value) ([]css.Declaration, error) {
	for _, t := range v {
		if t.Ident() == "none" && len(v) == 1 {
			return []css.Declaration{longhand(css.PropBackgroundColor, css.Token{Kind: css.TokIdent, Text: "transparent"})}, nil
		}
		if isColor(t) {
			return []css.Declaration{longhand(css.PropBackgroundColor, t)}, nil
		}
	}
	return nil, errors.New("no background color")
}

// splitFont handles [style] [weight] size[/line-height] family[, family...].
func splitFont(v css.Value) ([]css.Declaration, error) {
	var out []css.Declaration
	i := 0
prefix:
	for ; i < len(v); i++ {
		t := v[i]
		id := t.Ident()
		if _, ok := fontSizes[id]; ok {
			break
		}
		switch {
		case id == "normal", id == "small-caps":
			// applies to no component we keep
		case fontStyles[id]:
			out = append(out, longhand(css.PropFontStyle, t))
		case id != "":
			if _, ok := fontWeights[id]; !ok {
				return nil, fmt.Errorf("unexpected %q before font size", t)
			}
			out = append(out, longhand(css.PropFontWeight, t))
		case t.Kind == css.TokNumber:
			out = append(out, longhand(css.PropFontWeight, t))
		default:
			break prefix
		}
	}
	if i >= len(v) {
		return nil, errors.New("font size expected")
	}
	out = append(out, longhand(css.PropFontSize, v[i]))
	i++
	if i < len(v) && v[i].Kind == css.TokSlash {
		// line height is not part of the vocabulary
		i += 2
	}
	if i >= len(v) {
		return nil, errors.New("font family expected")
	}
	return append(out, longhand(css.PropFontFamily, v[i:]...)), nil
}

func splitTextWrap(v css.Value) ([]css.Declaration, error) {
	if len(v) != 1 {
		return nil, fmt.Errorf("expected single keyword, got %q", v)
	}
	ws, ok := textWraps[v[0].Ident()]
	if !ok {
		return nil, fmt.Errorf("unknown keyword %q", v[0])
	}
	return []css.Declaration{longhand(css.PropWhiteSpace, css.Token{Kind: css.TokIdent, Text: ws})}, nil
}

func isBorderLine(t css.Token) bool {
	_, ok := borderLines[t.Ident()]
	return ok
}

func isBorderWidth(t css.Token) bool {
	if _, ok := borderWidths[t.Ident()]; ok {
		return true
	}
	return t.Kind == css.TokDimension || (t.Kind == css.TokNumber && t.Num == 0)
}

func isColor(t css.Token) bool {
	switch t.Kind {
	case css.TokHash:
		return true
	case css.TokFunction:
		_, ok := colorFunctions[t.Name]
		return ok
	case css.TokIdent:
		_, ok := namedColors[t.Ident()]
		return ok
	}
	return false
}
