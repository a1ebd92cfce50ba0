package style

// Keyword tables of the closed property vocabulary. Lookups are done with
// lower-cased identifiers.

var namedColors = map[string]Color{
	"transparent": Transparent,
	"black":       {0x00, 0x00, 0x00, 0xff},
	"silver":      {0xc0, 0xc0, 0xc0, 0xff},
	"gray":        {0x80, 0x80, 0x80, 0xff},
	"grey":        {0x80, 0x80, 0x80, 0xff},
	"white":       {0xff, 0xff, 0xff, 0xff},
	"maroon":      {0x80, 0x00, 0x00, 0xff},
	"red":         {0xff, 0x00, 0x00, 0xff},
	"purple":      {0x80, 0x00, 0x80, 0xff},
	"fuchsia":     {0xff, 0x00, 0xff, 0xff},
	"magenta":     {0xff, 0x00, 0xff, 0xff},
	"green":       {0x00, 0x80, 0x00, 0xff},
	"lime":        {0x00, 0xff, 0x00, 0xff},
	"olive":       {0x80, 0x80, 0x00, 0xff},
	"yellow":      {0xff, 0xff, 0x00, 0xff},
	"navy":        {0x00, 0x00, 0x80, 0xff},
	"blue":        {0x00, 0x00, 0xff, 0xff},
	"teal":        {0x00, 0x80, 0x80, 0xff},
	"aqua":        {0x00, 0xff, 0xff, 0xff},
	"cyan":        {0x00, 0xff, 0xff, 0xff},
	"orange":      {0xff, 0xa5, 0x00, 0xff},
	"brown":       {0xa5, 0x2a, 0x2a, 0xff},
	"pink":        {0xff, 0xc0, 0xcb, 0xff},
	"gold":        {0xff, 0xd7, 0x00, 0xff},
	"indigo":      {0x4b, 0x00, 0x82, 0xff},
	"violet":      {0xee, 0x82, 0xee, 0xff},
	"crimson":     {0xdc, 0x14, 0x3c, 0xff},
	"coral":       {0xff, 0x7f, 0x50, 0xff},
	"salmon":      {0xfa, 0x80, 0x72, 0xff},
	"khaki":       {0xf0, 0xe6, 0x8c, 0xff},
	"beige":       {0xf5, 0xf5, 0xdc, 0xff},
	"ivory":       {0xff, 0xff, 0xf0, 0xff},
	"lavender":    {0xe6, 0xe6, 0xfa, 0xff},
	"tan":         {0xd2, 0xb4, 0x8c, 0xff},
	"chocolate":   {0xd2, 0x69, 0x1e, 0xff},
	"tomato":      {0xff, 0x63, 0x47, 0xff},
	"steelblue":   {0x46, 0x82, 0xb4, 0xff},
	"skyblue":     {0x87, 0xce, 0xeb, 0xff},
	"lightgray":   {0xd3, 0xd3, 0xd3, 0xff},
	"lightgrey":   {0xd3, 0xd3, 0xd3, 0xff},
	"darkgray":    {0xa9, 0xa9, 0xa9, 0xff},
	"darkgrey":    {0xa9, 0xa9, 0xa9, 0xff},
	"dimgray":     {0x69, 0x69, 0x69, 0xff},
	"whitesmoke":  {0xf5, 0xf5, 0xf5, 0xff},
	"gainsboro":   {0xdc, 0xdc, 0xdc, 0xff},
	"darkred":     {0x8b, 0x00, 0x00, 0xff},
	"darkgreen":   {0x00, 0x64, 0x00, 0xff},
	"darkblue":    {0x00, 0x00, 0x8b, 0xff},
	"lightblue":   {0xad, 0xd8, 0xe6, 0xff},
	"lightgreen":  {0x90, 0xee, 0x90, 0xff},
	"lightyellow": {0xff, 0xff, 0xe0, 0xff},
}

// Font sizes in points.
var fontSizes = map[string]float64{
	"xx-small": 7,
	"x-small":  7.5,
	"small":    10,
	"medium":   12,
	"large":    14,
	"x-large":  18,
	"xx-large": 24,
}

var fontStyles = map[string]bool{ // value is "italic"
	"normal":  false,
	"italic":  true,
	"oblique": true,
}

var fontWeights = map[string]bool{ // value is "bold"
	"normal":  false,
	"lighter": false,
	"bold":    true,
	"bolder":  true,
}

var textDecorations = map[string]FontFlags{
	"none":         0,
	"underline":    FontUnderline,
	"line-through": FontStrikeout,
	"overline":     FontOverline,
}

var textAligns = map[string]Alignment{
	"left":    AlignLeft,
	"start":   AlignLeft,
	"center":  AlignCenter,
	"right":   AlignRight,
	"end":     AlignRight,
	"justify": AlignJustify,
}

var verticalAligns = map[string]Alignment{
	"top":         AlignTop,
	"text-top":    AlignTop,
	"middle":      AlignMiddle,
	"bottom":      AlignBottom,
	"text-bottom": AlignBottom,
	"baseline":    AlignBaseline,
}

var borderLines = map[string]BorderLine{
	"none":   BorderNone,
	"hidden": BorderHidden,
	"solid":  BorderSolid,
	"dashed": BorderDashed,
	"dotted": BorderDotted,
	"double": BorderDouble,
	"groove": BorderGroove,
	"ridge":  BorderRidge,
	"inset":  BorderInset,
	"outset": BorderOutset,
}

// Border widths in points (1px, 3px and 5px).
var borderWidths = map[string]float64{
	"thin":   0.75,
	"medium": 2.25,
	"thick":  3.75,
}

var visibilities = map[string]bool{
	"visible":  true,
	"hidden":   false,
	"collapse": false,
}

var whiteSpaces = map[string]bool{ // value is "wraps"
	"normal":       true,
	"pre-wrap":     true,
	"pre-line":     true,
	"break-spaces": true,
	"nowrap":       false,
	"pre":          false,
}

// text-wrap values mapped to white-space keywords.
var textWraps = map[string]string{
	"wrap":    "normal",
	"balance": "normal",
	"pretty":  "normal",
	"stable":  "normal",
	"nowrap":  "nowrap",
}

// Length units converted to points. Relative units assume a 12pt base font.
var pointsPerUnit = map[string]float64{
	"pt":  1,
	"px":  0.75,
	"pc":  12,
	"in":  72,
	"cm":  72 / 2.54,
	"mm":  72 / 25.4,
	"q":   72 / 101.6,
	"em":  12,
	"rem": 12,
}

// Font families every renderer is expected to provide.
var defaultFontFamilies = []string{
	"serif", "sans-serif", "monospace", "cursive", "fantasy", "system-ui",
	"Arial", "Helvetica", "Times New Roman", "Times", "Courier New", "Courier",
	"Verdana", "Tahoma", "Georgia", "Calibri", "Cambria", "Segoe UI",
	"Trebuchet MS", "Lucida Console", "Open Sans", "Roboto",
}
