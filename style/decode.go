package style

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"rstyle/css"
)

var (
	errAuto      = errors.New("auto")
	errNoValue   = errors.New("empty value")
	errTooMany   = errors.New("single value expected")
	errNotLength = errors.New("length expected")
	errNotColor  = errors.New("color expected")
)

// decodeState is shared by decoders of one resolution. Each decoder reads the
// property map and sets only its own fields.
type decodeState struct {
	props Properties
	out   *Resolved
	log   *zap.Logger
	fonts *fontCatalog
}

type decoder func(*decodeState)

var decoders = []decoder{
	decodeColors,
	decodeFont,
	decodeAlignment,
	decodeBorders,
	decodeBorderColors,
	decodePadding,
	decodeSize,
	decodeBorderRadius,
	decodeVisibility,
	decodeWrap,
	decodeOpacity,
	decodeCustom,
}

func (s *decodeState) value(p css.Property) (css.Value, bool) {
	v, ok := s.props[css.Known(p)]
	return v, ok
}

func (s *decodeState) failed(p css.Property, v css.Value, err error) {
	s.log.Warn("Unable to decode property, ignoring",
		zap.Stringer("property", p), zap.String("value", v.String()), zap.Error(err))
}

// decodeWith runs fn on declared property p. It returns false when p is not
// declared or its value cannot be decoded. A failure is logged.
func decodeWith[T any](s *decodeState, p css.Property, fn func(css.Value) (T, error)) (T, bool) {
	var zero T
	v, ok := s.value(p)
	if !ok {
		return zero, false
	}
	res, err := fn(v)
	if errors.Is(err, errAuto) {
		return zero, false
	}
	if err != nil {
		s.failed(p, v, err)
		return zero, false
	}
	return res, true
}

// single returns the only token of v.
func single(v css.Value) (css.Token, error) {
	switch len(v) {
	case 0:
		return css.Token{}, errNoValue
	case 1:
		return v[0], nil
	}
	return css.Token{}, errTooMany
}

// keyword decodes a single identifier using table.
func keyword[T any](table map[string]T) func(css.Value) (T, error) {
	return func(v css.Value) (T, error) {
		var zero T
		t, err := single(v)
		if err != nil {
			return zero, err
		}
		res, ok := table[t.Ident()]
		if !ok {
			return zero, fmt.Errorf("unknown keyword %q", t)
		}
		return res, nil
	}
}

var colorFunctions = map[string]func(args []css.Token) (Color, error){
	"rgb":  rgbColor,
	"rgba": rgbColor,
	"hsl":  hslColor,
	"hsla": hslColor,
}

func parseColorValue(v css.Value) (Color, error) {
	t, err := single(v)
	if err != nil {
		return Color{}, err
	}
	return parseColor(t)
}

func parseColor(t css.Token) (Color, error) {
	switch t.Kind {
	case css.TokHash:
		return hexColor(t.Text)
	case css.TokIdent:
		if c, ok := namedColors[t.Ident()]; ok {
			return c, nil
		}
		return Color{}, fmt.Errorf("unknown color %q", t.Text)
	case css.TokFunction:
		if fn, ok := colorFunctions[t.Name]; ok {
			return fn(t.Args)
		}
	}
	return Color{}, errNotColor
}

// hexColor accepts #rgb, #rgba, #rrggbb and #rrggbbaa digits.
func hexColor(digits string) (Color, error) {
	alpha := uint8(0xff)
	switch len(digits) {
	case 4, 8:
		n := len(digits) / 4
		a, err := strconv.ParseUint(strings.Repeat(digits[len(digits)-n:], 3-n), 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("bad alpha in #%s: %w", digits, err)
		}
		alpha = uint8(a)
		digits = digits[:len(digits)-n]
	case 3, 6:
	default:
		return Color{}, fmt.Errorf("bad hex color #%s", digits)
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return Color{}, fmt.Errorf("bad hex color #%s: %w", digits, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}, nil
}

// colorArgs splits function arguments on commas (legacy syntax) or spaces
// with an optional "/ alpha" (modern syntax).
func colorArgs(args []css.Token) (channels []css.Token, alpha *css.Token, err error) {
	for i := 0; i < len(args); i++ {
		switch args[i].Kind {
		case css.TokComma:
			continue
		case css.TokSlash:
			if i != len(args)-2 {
				return nil, nil, errors.New("bad alpha separator")
			}
			alpha = &args[i+1]
			i++
		default:
			channels = append(channels, args[i])
		}
	}
	if len(channels) == 4 && alpha == nil {
		alpha = &channels[3]
		channels = channels[:3]
	}
	if len(channels) != 3 {
		return nil, nil, fmt.Errorf("expected 3 color channels, got %d", len(channels))
	}
	return channels, alpha, nil
}

func alphaChannel(t *css.Token) (uint8, error) {
	if t == nil {
		return 0xff, nil
	}
	switch t.Kind {
	case css.TokNumber:
		return uint8(math.Round(clamp(t.Num, 0, 1) * 255)), nil
	case css.TokPercentage:
		return percentByte(t.Num), nil
	}
	return 0, fmt.Errorf("bad alpha %q", t)
}

// percentByte scales a percentage to 0..255. Dividing first keeps 50% at 128.
func percentByte(pct float64) uint8 {
	return uint8(math.Round(clamp(pct, 0, 100) / 100 * 255))
}

func rgbColor(args []css.Token) (Color, error) {
	channels, alpha, err := colorArgs(args)
	if err != nil {
		return Color{}, err
	}
	var rgb [3]uint8
	for i, t := range channels {
		switch t.Kind {
		case css.TokNumber:
			rgb[i] = uint8(math.Round(clamp(t.Num, 0, 255)))
		case css.TokPercentage:
			rgb[i] = percentByte(t.Num)
		default:
			return Color{}, fmt.Errorf("bad color channel %q", t)
		}
	}
	a, err := alphaChannel(alpha)
	if err != nil {
		return Color{}, err
	}
	return Color{R: rgb[0], G: rgb[1], B: rgb[2], A: a}, nil
}

func hslColor(args []css.Token) (Color, error) {
	channels, alpha, err := colorArgs(args)
	if err != nil {
		return Color{}, err
	}
	h := channels[0]
	if h.Kind != css.TokNumber && !(h.Kind == css.TokDimension && h.Unit == "deg") {
		return Color{}, fmt.Errorf("bad hue %q", h)
	}
	if channels[1].Kind != css.TokPercentage || channels[2].Kind != css.TokPercentage {
		return Color{}, errors.New("saturation and lightness must be percentages")
	}
	hue := math.Mod(h.Num, 360)
	if hue < 0 {
		hue += 360
	}
	c := colorful.Hsl(hue, clamp(channels[1].Num, 0, 100)/100, clamp(channels[2].Num, 0, 100)/100).Clamped()
	a, err := alphaChannel(alpha)
	if err != nil {
		return Color{}, err
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: a}, nil
}

// toPoints converts an absolute or font-relative length to points. Bare
// numbers are taken as points.
func toPoints(t css.Token) (float64, error) {
	switch t.Kind {
	case css.TokNumber:
		return t.Num, nil
	case css.TokDimension:
		if k, ok := pointsPerUnit[t.Unit]; ok {
			return t.Num * k, nil
		}
		return 0, fmt.Errorf("unsupported unit %q", t.Unit)
	}
	return 0, errNotLength
}

// parseLength decodes a single length or percentage. "auto" is reported with
// errAuto so that callers leave the field undefined silently.
func parseLength(v css.Value) (Length, error) {
	t, err := single(v)
	if err != nil {
		return Length{}, err
	}
	if t.Ident() == "auto" {
		return Length{}, errAuto
	}
	if t.Kind == css.TokPercentage {
		return Length{Value: t.Num, Unit: UnitPercent}, nil
	}
	pt, err := toPoints(t)
	if err != nil {
		return Length{}, err
	}
	if pt < 0 {
		return Length{}, fmt.Errorf("negative length %q", t)
	}
	return Pt(pt), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
