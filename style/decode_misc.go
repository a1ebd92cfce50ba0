package style

import (
	"fmt"
	"math"

	"rstyle/css"
)

func decodeAlignment(s *decodeState) {
	var (
		a       Alignment
		defined bool
	)
	if h, ok := decodeWith(s, css.PropTextAlign, keyword(textAligns)); ok {
		a, defined = a|h, true
	}
	if v, ok := decodeWith(s, css.PropVerticalAlign, keyword(verticalAligns)); ok {
		a, defined = a|v, true
	}
	if defined {
		s.out.Align = Some(a)
	}
}

func decodeVisibility(s *decodeState) {
	if v, ok := decodeWith(s, css.PropVisibility, keyword(visibilities)); ok {
		s.out.Visible = Some(v)
	}
}

func decodeWrap(s *decodeState) {
	if v, ok := decodeWith(s, css.PropWhiteSpace, keyword(whiteSpaces)); ok {
		s.out.Wrap = Some(v)
	}
}

// parseOpacity accepts a 0..1 number or a percentage and returns 0..100.
func parseOpacity(v css.Value) (int, error) {
	t, err := single(v)
	if err != nil {
		return 0, err
	}
	var pct float64
	switch t.Kind {
	case css.TokNumber:
		pct = t.Num * 100
	case css.TokPercentage:
		pct = t.Num
	default:
		return 0, fmt.Errorf("number or percentage expected, got %q", t)
	}
	return int(math.Round(clamp(pct, 0, 100))), nil
}

func decodeOpacity(s *decodeState) {
	if v, ok := decodeWith(s, css.PropOpacity, parseOpacity); ok {
		s.out.Opacity = Some(v)
	}
}

// decodeCustom passes every custom property through as text.
func decodeCustom(s *decodeState) {
	for k, v := range s.props {
		if !k.IsCustom() {
			continue
		}
		if s.out.custom == nil {
			s.out.custom = make(map[string]string)
		}
		s.out.custom[k.String()] = v.String()
	}
}
