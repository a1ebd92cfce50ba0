package css

import (
	"strings"
)

// Property is a known member of the closed style vocabulary. Longhands come
// first, shorthands follow PropBackground.
type Property uint8

const (
	PropUnknown Property = iota

	PropBackgroundColor
	PropColor
	PropFontFamily
	PropFontSize
	PropFontStyle
	PropFontWeight
	PropTextDecoration
	PropTextAlign
	PropVerticalAlign
	PropBorderTopStyle
	PropBorderRightStyle
	PropBorderBottomStyle
	PropBorderLeftStyle
	PropBorderTopWidth
	PropBorderRightWidth
	PropBorderBottomWidth
	PropBorderLeftWidth
	PropBorderTopColor
	PropBorderRightColor
	PropBorderBottomColor
	PropBorderLeftColor
	PropPaddingTop
	PropPaddingRight
	PropPaddingBottom
	PropPaddingLeft
	PropWidth
	PropHeight
	PropBorderRadius
	PropVisibility
	PropWhiteSpace
	PropOpacity

	// Shorthands.
	PropBackground
	PropFont
	PropBorder
	PropBorderTop
	PropBorderRight
	PropBorderBottom
	PropBorderLeft
	PropBorderStyle
	PropBorderWidth
	PropBorderColor
	PropPadding
	PropTextWrap

	propCount
)

var propertyNames = [propCount]string{
	PropUnknown:           "",
	PropBackgroundColor:   "background-color",
	PropColor:             "color",
	PropFontFamily:        "font-family",
	PropFontSize:          "font-size",
	PropFontStyle:         "font-style",
	PropFontWeight:        "font-weight",
	PropTextDecoration:    "text-decoration",
	PropTextAlign:         "text-align",
	PropVerticalAlign:     "vertical-align",
	PropBorderTopStyle:    "border-top-style",
	PropBorderRightStyle:  "border-right-style",
	PropBorderBottomStyle: "border-bottom-style",
	PropBorderLeftStyle:   "border-left-style",
	PropBorderTopWidth:    "border-top-width",
	PropBorderRightWidth:  "border-right-width",
	PropBorderBottomWidth: "border-bottom-width",
	PropBorderLeftWidth:   "border-left-width",
	PropBorderTopColor:    "border-top-color",
	PropBorderRightColor:  "border-right-color",
	PropBorderBottomColor: "border-bottom-color",
	PropBorderLeftColor:   "border-left-color",
	PropPaddingTop:        "padding-top",
	PropPaddingRight:      "padding-right",
	PropPaddingBottom:     "padding-bottom",
	PropPaddingLeft:       "padding-left",
	PropWidth:             "width",
	PropHeight:            "height",
	PropBorderRadius:      "border-radius",
	PropVisibility:        "visibility",
	PropWhiteSpace:        "white-space",
	PropOpacity:           "opacity",
	PropBackground:        "background",
	PropFont:              "font",
	PropBorder:            "border",
	PropBorderTop:         "border-top",
	PropBorderRight:       "border-right",
	PropBorderBottom:      "border-bottom",
	PropBorderLeft:        "border-left",
	PropBorderStyle:       "border-style",
	PropBorderWidth:       "border-width",
	PropBorderColor:       "border-color",
	PropPadding:           "padding",
	PropTextWrap:          "text-wrap",
}

var propertyByName = func() map[string]Property {
	m := make(map[string]Property, propCount)
	for p := PropUnknown + 1; p < propCount; p++ {
		m[propertyNames[p]] = p
	}
	return m
}()

// LookupProperty maps a CSS property name (case-insensitive) to a known
// property.
func LookupProperty(name string) (Property, bool) {
	p, ok := propertyByName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// String returns the CSS name of the property.
func (p Property) String() string {
	if p >= propCount {
		return ""
	}
	return propertyNames[p]
}

// IsShorthand reports whether the property expands into longhands.
func (p Property) IsShorthand() bool {
	return p >= PropBackground && p < propCount
}

// PropertyKey identifies an entry of a declaration map: either a known
// property or a custom property ("--name"). The zero value is invalid.
// PropertyKey is comparable and is used directly as a map key.
type PropertyKey struct {
	prop   Property
	custom string
}

// Known returns the key of a known property.
func Known(p Property) PropertyKey {
	return PropertyKey{prop: p}
}

// Custom returns the key of a custom property. The "--" prefix is added when
// missing, so Custom("accent") and Custom("--accent") are the same key.
func Custom(name string) PropertyKey {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "--") {
		name = "--" + name
	}
	return PropertyKey{custom: name}
}

// ParsePropertyKey classifies a declaration name.
func ParsePropertyKey(name string) (PropertyKey, bool) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "--") {
		if len(name) == 2 {
			return PropertyKey{}, false
		}
		return Custom(name), true
	}
	if p, ok := LookupProperty(name); ok {
		return Known(p), true
	}
	return PropertyKey{}, false
}

// IsCustom reports whether the key names a custom property.
func (k PropertyKey) IsCustom() bool {
	return k.custom != ""
}

// IsValid reports whether the key is either known or custom.
func (k PropertyKey) IsValid() bool {
	return k.custom != "" || (k.prop != PropUnknown && k.prop < propCount)
}

// Property returns the known property, PropUnknown for custom keys.
func (k PropertyKey) Property() Property {
	return k.prop
}

// IsShorthand reports whether the key names a shorthand property.
func (k PropertyKey) IsShorthand() bool {
	return k.custom == "" && k.prop.IsShorthand()
}

// String returns the CSS name of the key.
func (k PropertyKey) String() string {
	if k.custom != "" {
		return k.custom
	}
	return k.prop.String()
}
