package style

import (
	"fmt"

	"rstyle/css"
)

func decodeColors(s *decodeState) {
	if c, ok := decodeWith(s, css.PropBackgroundColor, parseColorValue); ok {
		s.out.Background = Some(c)
	}
	if c, ok := decodeWith(s, css.PropColor, parseColorValue); ok {
		s.out.Foreground = Some(c)
	}
}

func parseBorderWidth(v css.Value) (Length, error) {
	t, err := single(v)
	if err != nil {
		return Length{}, err
	}
	if w, ok := borderWidths[t.Ident()]; ok {
		return Pt(w), nil
	}
	if t.Kind == css.TokPercentage {
		return Length{}, fmt.Errorf("percentage border width %q", t)
	}
	return parseLength(v)
}

// decodeBorders fills per-edge style and width. Once any border property is
// declared, edges without a style are "none".
func decodeBorders(s *decodeState) {
	var (
		edges   Edges[Border]
		present bool
	)
	for _, e := range AllEdges {
		var b Border
		set := false
		if _, ok := s.value(borderStyleProps[e]); ok {
			present = true
		}
		if _, ok := s.value(borderWidthProps[e]); ok {
			present = true
		}
		if line, ok := decodeWith(s, borderStyleProps[e], keyword(borderLines)); ok {
			b.Line, set = line, true
		}
		if w, ok := decodeWith(s, borderWidthProps[e], parseBorderWidth); ok {
			b.Width, set = w, true
		}
		if set {
			edges.put(e, b)
		}
	}
	if present {
		s.out.Borders = Some(edges)
	}
}

func decodeBorderColors(s *decodeState) {
	var edges Edges[Color]
	for _, e := range AllEdges {
		if c, ok := decodeWith(s, borderColorProps[e], parseColorValue); ok {
			edges.put(e, c)
		}
	}
	if edges.Set != 0 {
		s.out.BorderColors = Some(edges)
	}
}

func decodePadding(s *decodeState) {
	var edges Edges[Length]
	for _, e := range AllEdges {
		if l, ok := decodeWith(s, paddingProps[e], parseLength); ok {
			edges.put(e, l)
		}
	}
	if edges.Set != 0 {
		s.out.Padding = Some(edges)
	}
}

func decodeSize(s *decodeState) {
	if l, ok := decodeWith(s, css.PropWidth, parseLength); ok {
		s.out.Width = Some(l)
	}
	if l, ok := decodeWith(s, css.PropHeight, parseLength); ok {
		s.out.Height = Some(l)
	}
}

func decodeBorderRadius(s *decodeState) {
	if l, ok := decodeWith(s, css.PropBorderRadius, parseLength); ok {
		s.out.BorderRadius = Some(l)
	}
}
