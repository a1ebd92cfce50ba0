package style

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"rstyle/css"
)

// Field is an optional style value. The zero Field is not defined, which is
// different from being defined with the zero value of T.
type Field[T any] struct {
	v  T
	ok bool
}

// Some returns a defined field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{v: v, ok: true}
}

// Get returns the value and whether it was defined.
func (f Field[T]) Get() (T, bool) {
	return f.v, f.ok
}

// Defined reports whether a declaration set the field.
func (f Field[T]) Defined() bool {
	return f.ok
}

// Or returns the value when defined and def otherwise.
func (f Field[T]) Or(def T) T {
	if f.ok {
		return f.v
	}
	return def
}

// Color is an sRGB color with alpha. A zero alpha is fully transparent.
type Color struct {
	R, G, B, A uint8
}

// Transparent is the value of the "transparent" keyword.
var Transparent = Color{}

// Hex returns #rrggbb, or #rrggbbaa for colors which are not opaque.
func (c Color) Hex() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) String() string {
	return c.Hex()
}

// FontFlags are boolean font attributes.
type FontFlags uint8

const (
	FontBold FontFlags = 1 << iota
	FontItalic
	FontUnderline
	FontStrikeout
	FontOverline
)

// FontParts records which font sub-properties were applied.
type FontParts uint8

const (
	FontFamilySet FontParts = 1 << iota
	FontSizeSet
	FontStyleSet
	FontWeightSet
	FontDecorationSet
)

// Font is composed incrementally from font-* declarations. Only parts listed
// in Set carry meaningful values.
type Font struct {
	Family string
	Size   float64 // points
	Flags  FontFlags
	Set    FontParts
}

func (f Font) String() string {
	var parts []string
	if f.Set&FontStyleSet != 0 && f.Flags&FontItalic != 0 {
		parts = append(parts, "italic")
	}
	if f.Set&FontWeightSet != 0 && f.Flags&FontBold != 0 {
		parts = append(parts, "bold")
	}
	if f.Set&FontSizeSet != 0 {
		parts = append(parts, strconv.FormatFloat(f.Size, 'f', -1, 64)+"pt")
	}
	if f.Set&FontFamilySet != 0 {
		parts = append(parts, strconv.Quote(f.Family))
	}
	if f.Set&FontDecorationSet != 0 {
		switch {
		case f.Flags&(FontUnderline|FontStrikeout|FontOverline) == 0:
			parts = append(parts, "no-decoration")
		default:
			if f.Flags&FontUnderline != 0 {
				parts = append(parts, "underline")
			}
			if f.Flags&FontStrikeout != 0 {
				parts = append(parts, "line-through")
			}
			if f.Flags&FontOverline != 0 {
				parts = append(parts, "overline")
			}
		}
	}
	return strings.Join(parts, " ")
}

// Alignment combines one horizontal and one vertical alignment bit.
type Alignment uint8

const (
	AlignLeft Alignment = 1 << iota
	AlignCenter
	AlignRight
	AlignJustify
	AlignTop
	AlignMiddle
	AlignBottom
	AlignBaseline

	HorizontalMask Alignment = 0x0f
	VerticalMask   Alignment = 0xf0
)

// Horizontal returns the horizontal bit, zero when not set.
func (a Alignment) Horizontal() Alignment { return a & HorizontalMask }

// Vertical returns the vertical bit, zero when not set.
func (a Alignment) Vertical() Alignment { return a & VerticalMask }

func (a Alignment) String() string {
	var parts []string
	for i, name := range alignmentNames {
		if a&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, " ")
}

// indexed by bit position
var alignmentNames = [...]string{"left", "center", "right", "justify", "top", "middle", "bottom", "baseline"}

// Unit of a resolved length.
type Unit uint8

const (
	UnitPt Unit = iota
	UnitPercent
)

// Length is either an absolute length in points or a percentage.
type Length struct {
	Value float64
	Unit  Unit
}

// Pt returns an absolute length.
func Pt(v float64) Length { return Length{Value: v} }

func (l Length) String() string {
	s := strconv.FormatFloat(l.Value, 'f', -1, 64)
	if l.Unit == UnitPercent {
		return s + "%"
	}
	return s + "pt"
}

// Edge names one side of a box.
type Edge uint8

const (
	EdgeTop Edge = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

var edgeNames = [...]string{"top", "right", "bottom", "left"}

func (e Edge) String() string { return edgeNames[e] }

// AllEdges lists edges in CSS order.
var AllEdges = [4]Edge{EdgeTop, EdgeRight, EdgeBottom, EdgeLeft}

// EdgeMask has one bit per Edge.
type EdgeMask uint8

// Has reports whether the edge bit is set.
func (m EdgeMask) Has(e Edge) bool { return m&(1<<e) != 0 }

// Edges holds a value per side and records which sides were set.
type Edges[T any] struct {
	Top, Right, Bottom, Left T
	Set                      EdgeMask
}

// Get returns the value of edge and whether a declaration set it.
func (e Edges[T]) Get(edge Edge) (T, bool) {
	return *e.ptr(edge), e.Set.Has(edge)
}

func (e *Edges[T]) put(edge Edge, v T) {
	*e.ptr(edge) = v
	e.Set |= 1 << edge
}

func (e *Edges[T]) ptr(edge Edge) *T {
	switch edge {
	case EdgeTop:
		return &e.Top
	case EdgeRight:
		return &e.Right
	case EdgeBottom:
		return &e.Bottom
	default:
		return &e.Left
	}
}

func (e Edges[T]) String() string {
	return fmt.Sprintf("%v %v %v %v", e.Top, e.Right, e.Bottom, e.Left)
}

// BorderLine is a border style.
type BorderLine uint8

const (
	BorderNone BorderLine = iota
	BorderHidden
	BorderSolid
	BorderDashed
	BorderDotted
	BorderDouble
	BorderGroove
	BorderRidge
	BorderInset
	BorderOutset
)

func (b BorderLine) String() string {
	for name, v := range borderLines {
		if v == b {
			return name
		}
	}
	return "unknown"
}

// Border describes one edge.
type Border struct {
	Line  BorderLine
	Width Length
}

func (b Border) String() string {
	return b.Line.String() + " " + b.Width.String()
}

// Fields is the typed part of a resolved style.
type Fields struct {
	Background   Field[Color]
	Foreground   Field[Color]
	Font         Field[Font]
	Align        Field[Alignment]
	Borders      Field[Edges[Border]]
	BorderColors Field[Edges[Color]]
	Padding      Field[Edges[Length]]
	Width        Field[Length]
	Height       Field[Length]
	BorderRadius Field[Length]
	Visible      Field[bool]
	Wrap         Field[bool]
	Opacity      Field[int] // 0..100
}

// Resolved is the result of resolving a context against a stylesheet.
// Resolved values are shared through caches and must not be modified.
type Resolved struct {
	Fields

	custom map[string]string
	none   bool
}

// NoStyle is returned when no stylesheet is loaded at all. Callers are
// expected to apply their own defaults.
var NoStyle = &Resolved{none: true}

// IsNone reports whether r is the NoStyle sentinel.
func (r *Resolved) IsNone() bool {
	return r == nil || r.none
}

// Custom returns the raw text of custom property name ("--" is optional).
func (r *Resolved) Custom(name string) (string, bool) {
	v, ok := r.custom[css.Custom(name).String()]
	return v, ok
}

// CustomProperties returns a copy of all custom properties.
func (r *Resolved) CustomProperties() map[string]string {
	if r.custom == nil {
		return map[string]string{}
	}
	return maps.Clone(r.custom)
}

// Equal reports whether two resolved styles carry identical values.
func (r *Resolved) Equal(o *Resolved) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.none == o.none && r.Fields == o.Fields && maps.Equal(r.custom, o.custom)
}

// Summary returns text for every defined field keyed by CSS-like names.
func (r *Resolved) Summary() map[string]string {
	out := make(map[string]string)
	if r.IsNone() {
		return out
	}
	put := func(name string, v fmt.Stringer, ok bool) {
		if ok {
			out[name] = v.String()
		}
	}
	f := r.Fields
	put("background", f.Background.v, f.Background.ok)
	put("foreground", f.Foreground.v, f.Foreground.ok)
	put("font", f.Font.v, f.Font.ok)
	put("align", f.Align.v, f.Align.ok)
	put("borders", f.Borders.v, f.Borders.ok)
	put("border-colors", f.BorderColors.v, f.BorderColors.ok)
	put("padding", f.Padding.v, f.Padding.ok)
	put("width", f.Width.v, f.Width.ok)
	put("height", f.Height.v, f.Height.ok)
	put("border-radius", f.BorderRadius.v, f.BorderRadius.ok)
	if v, ok := f.Visible.Get(); ok {
		out["visible"] = strconv.FormatBool(v)
	}
	if v, ok := f.Wrap.Get(); ok {
		out["wrap"] = strconv.FormatBool(v)
	}
	if v, ok := f.Opacity.Get(); ok {
		out["opacity"] = strconv.Itoa(v)
	}
	for k, v := range r.custom {
		out[k] = v
	}
	return out
}
