package style

import (
	"errors"
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"rstyle/css"
)

// fontCatalog knows which font families are available. Unknown families are
// reported once per distinct name.
type fontCatalog struct {
	known map[string]string // lower-cased name -> canonical name
	seen  *xsync.Map[string, struct{}]
}

func newFontCatalog(extra []string) *fontCatalog {
	fc := &fontCatalog{
		known: make(map[string]string, len(defaultFontFamilies)+len(extra)),
		seen:  xsync.NewMap[string, struct{}](),
	}
	for _, names := range [][]string{defaultFontFamilies, extra} {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name != "" {
				fc.known[strings.ToLower(name)] = name
			}
		}
	}
	return fc
}

// lookup picks the first known family among candidates. When none is known
// the first candidate is used and reported.
func (fc *fontCatalog) lookup(candidates []string, log *zap.Logger) string {
	for _, c := range candidates {
		if name, ok := fc.known[strings.ToLower(c)]; ok {
			return name
		}
	}
	first := candidates[0]
	if _, loaded := fc.seen.LoadOrStore(strings.ToLower(first), struct{}{}); !loaded {
		log.Warn("Unknown font family, using as is", zap.String("family", first), zap.Strings("candidates", candidates))
	}
	return first
}

// familyCandidates splits a font-family value on commas. Unquoted names may
// span several identifiers.
func familyCandidates(v css.Value) ([]string, error) {
	var (
		out  []string
		cur  []string
		last css.TokenKind
	)
	flush := func() error {
		if len(cur) == 0 {
			return errors.New("empty family name")
		}
		out = append(out, strings.Join(cur, " "))
		cur = nil
		return nil
	}
	for _, t := range v {
		switch t.Kind {
		case css.TokIdent:
			if last == css.TokString {
				return nil, fmt.Errorf("unexpected %q after quoted family", t)
			}
			cur = append(cur, t.Text)
		case css.TokString:
			if len(cur) > 0 {
				return nil, fmt.Errorf("unexpected string %q", t)
			}
			cur = append(cur, t.Text)
		case css.TokComma:
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unexpected %q in font family", t)
		}
		last = t.Kind
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseFontSize(v css.Value) (float64, error) {
	t, err := single(v)
	if err != nil {
		return 0, err
	}
	if size, ok := fontSizes[t.Ident()]; ok {
		return size, nil
	}
	var pt float64
	switch t.Kind {
	case css.TokPercentage:
		pt = t.Num * 12 / 100
	default:
		if pt, err = toPoints(t); err != nil {
			return 0, err
		}
	}
	if pt <= 0 {
		return 0, fmt.Errorf("font size must be positive, got %q", t)
	}
	return pt, nil
}

func parseFontWeight(v css.Value) (bool, error) {
	t, err := single(v)
	if err != nil {
		return false, err
	}
	if t.Kind == css.TokNumber {
		if t.Num < 1 || t.Num > 1000 {
			return false, fmt.Errorf("weight out of range %q", t)
		}
		return t.Num >= 600, nil
	}
	if bold, ok := fontWeights[t.Ident()]; ok {
		return bold, nil
	}
	return false, fmt.Errorf("unknown weight %q", t)
}

func parseTextDecoration(v css.Value) (FontFlags, error) {
	if len(v) == 0 {
		return 0, errNoValue
	}
	var flags FontFlags
	for _, t := range v {
		f, ok := textDecorations[t.Ident()]
		if !ok {
			return 0, fmt.Errorf("unknown decoration %q", t)
		}
		if f == 0 && len(v) > 1 {
			return 0, errors.New("none cannot be combined")
		}
		flags |= f
	}
	return flags, nil
}

func decodeFont(s *decodeState) {
	var f Font

	if v, ok := s.value(css.PropFontFamily); ok {
		if names, err := familyCandidates(v); err != nil {
			s.failed(css.PropFontFamily, v, err)
		} else {
			f.Family = s.fonts.lookup(names, s.log)
			f.Set |= FontFamilySet
		}
	}
	if size, ok := decodeWith(s, css.PropFontSize, parseFontSize); ok {
		f.Size = size
		f.Set |= FontSizeSet
	}
	if italic, ok := decodeWith(s, css.PropFontStyle, keyword(fontStyles)); ok {
		if italic {
			f.Flags |= FontItalic
		}
		f.Set |= FontStyleSet
	}
	if bold, ok := decodeWith(s, css.PropFontWeight, parseFontWeight); ok {
		if bold {
			f.Flags |= FontBold
		}
		f.Set |= FontWeightSet
	}
	if deco, ok := decodeWith(s, css.PropTextDecoration, parseTextDecoration); ok {
		f.Flags |= deco
		f.Set |= FontDecorationSet
	}

	if f.Set != 0 {
		s.out.Font = Some(f)
	}
}
