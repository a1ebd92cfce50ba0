package css_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"rstyle/css"
)

func parse(t *testing.T, input string) *css.Stylesheet {
	t.Helper()
	p := css.NewParser(zap.NewNop())
	sheet, err := p.Parse([]byte(input), "test.css")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return sheet
}

func TestParser_TypeSelector(t *testing.T) {
	sheet := parse(t, `Button { background-color: #ff0000; }`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	rule := sheet.Rules[0]
	if len(rule.Selectors) != 1 {
		t.Fatalf("expected 1 selector, got %d", len(rule.Selectors))
	}
	leaf := rule.Selectors[0].Leaf()
	if leaf.Type != "Button" {
		t.Errorf("expected type 'Button', got %q", leaf.Type)
	}
	if len(rule.Declarations) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(rule.Declarations))
	}
	d := rule.Declarations[0]
	if d.Property != css.Known(css.PropBackgroundColor) {
		t.Errorf("expected background-color, got %s", d.Property)
	}
	if len(d.Value) != 1 || d.Value[0].Kind != css.TokHash || d.Value[0].Text != "ff0000" {
		t.Errorf("unexpected value %#v", d.Value)
	}
}

func TestParser_CompoundSelector(t *testing.T) {
	sheet := parse(t, `Report#Main Table.wide.dark Cell[role=total] { color: red }`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	chain := sheet.Rules[0].Selectors[0]
	if len(chain.Compounds) != 3 {
		t.Fatalf("expected 3 segments, got %d (%s)", len(chain.Compounds), chain)
	}

	report := chain.Compounds[0]
	if report.Type != "Report" || report.ID != "Main" {
		t.Errorf("unexpected first segment %+v", report)
	}
	table := chain.Compounds[1]
	if table.Type != "Table" || len(table.Classes) != 2 || table.Classes[0] != "wide" || table.Classes[1] != "dark" {
		t.Errorf("unexpected second segment %+v", table)
	}
	cell := chain.Compounds[2]
	if cell.Type != "Cell" || len(cell.Attrs) != 1 || cell.Attrs[0] != (css.AttrConstraint{Name: "role", Value: "total"}) {
		t.Errorf("unexpected leaf segment %+v", cell)
	}
}

func TestParser_SelectorList(t *testing.T) {
	sheet := parse(t, `Button, Label.big, *.warn { color: red }`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	sels := sheet.Rules[0].Selectors
	if len(sels) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(sels))
	}
	if sels[0].Leaf().Type != "Button" || sels[1].Leaf().Type != "Label" {
		t.Errorf("unexpected alternatives %v %v", sels[0], sels[1])
	}
	if !sels[2].Leaf().IsWildcard() || sels[2].Leaf().Classes[0] != "warn" {
		t.Errorf("expected wildcard with class, got %+v", sels[2].Leaf())
	}
}

func TestParser_UnsupportedSelectorDropsAlternativeOnly(t *testing.T) {
	sheet := parse(t, `Table > Cell, Cell:hover, Cell { color: red }`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	if got := len(sheet.Rules[0].Selectors); got != 1 {
		t.Fatalf("expected only supported alternative to survive, got %d", got)
	}
	if len(sheet.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", sheet.Warnings)
	}
}

func TestParser_AllSelectorsUnsupported(t *testing.T) {
	sheet := parse(t, `a:hover { color: red } Cell { color: blue }`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	if sheet.Rules[0].Selectors[0].Leaf().Type != "Cell" {
		t.Errorf("wrong rule kept: %s", sheet.Rules[0].Selectors[0])
	}
}

func TestParser_UnknownPropertyWarns(t *testing.T) {
	sheet := parse(t, `Cell { text-shadow: 1px 1px red; color: blue }`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	if got := len(sheet.Rules[0].Declarations); got != 1 {
		t.Fatalf("expected 1 declaration, got %d", got)
	}
	found := false
	for _, w := range sheet.Warnings {
		if strings.Contains(w, "text-shadow") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected warning about text-shadow, got %v", sheet.Warnings)
	}
}

func TestParser_AtRulesSkipped(t *testing.T) {
	sheet := parse(t, `
@media print { Cell { color: red } }
@import "other.css";
Cell { color: blue }
`)
	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	if got := sheet.Rules[0].Declarations[0].Value.String(); got != "blue" {
		t.Errorf("expected blue, got %q", got)
	}
	if len(sheet.Warnings) < 2 {
		t.Errorf("expected at-rule warnings, got %v", sheet.Warnings)
	}
}

func TestParser_CustomProperties(t *testing.T) {
	sheet := parse(t, `Report { --accent: #336699; --gap: 4px 2px; color: var(--accent, black) }`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	decls := sheet.Rules[0].Declarations
	if len(decls) != 3 {
		t.Fatalf("expected 3 declarations, got %d", len(decls))
	}

	if decls[0].Property != css.Custom("accent") {
		t.Errorf("expected --accent, got %s", decls[0].Property)
	}
	if decls[0].Value.String() != "#336699" {
		t.Errorf("unexpected --accent value %q", decls[0].Value)
	}
	if decls[1].Value.String() != "4px 2px" {
		t.Errorf("unexpected --gap value %q", decls[1].Value)
	}

	v := decls[2].Value
	if len(v) != 1 || v[0].Kind != css.TokVar {
		t.Fatalf("expected single var() token, got %#v", v)
	}
	if v[0].Name != "--accent" {
		t.Errorf("expected var name --accent, got %q", v[0].Name)
	}
	if css.Value(v[0].Args).String() != "black" {
		t.Errorf("expected fallback black, got %q", css.Value(v[0].Args))
	}
	if !v.HasVar() {
		t.Error("HasVar should report var() reference")
	}
}

func TestParser_ValueTokens(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`12pt`, "12pt"},
		{`50%`, "50%"},
		{`1px solid #000`, "1px solid #000"},
		{`bold 12px/1.5 "Times New Roman", serif`, `bold 12px/1.5 "Times New Roman", serif`},
		{`rgb(255, 0, 0)`, "rgb(255, 0, 0)"},
		{`red !important`, "red"},
		{`var(--a)`, "var(--a)"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := css.ParseValue(tt.in)
			if err != nil {
				t.Fatalf("ParseValue(%q) failed: %v", tt.in, err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("ParseValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParser_MalformedValueSkipped(t *testing.T) {
	sheet := parse(t, `Cell { color: var(); background-color: blue }`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	decls := sheet.Rules[0].Declarations
	if len(decls) != 1 || decls[0].Property != css.Known(css.PropBackgroundColor) {
		t.Errorf("expected only background-color to survive, got %v", decls)
	}
}

func TestParser_CaseInsensitivePropertyNames(t *testing.T) {
	sheet := parse(t, `Cell { Background-Color: red }`)
	if len(sheet.Rules) != 1 || len(sheet.Rules[0].Declarations) != 1 {
		t.Fatalf("expected 1 rule with 1 declaration, got %+v", sheet.Rules)
	}
	if sheet.Rules[0].Declarations[0].Property != css.Known(css.PropBackgroundColor) {
		t.Errorf("unexpected property %s", sheet.Rules[0].Declarations[0].Property)
	}
}

func TestParser_Empty(t *testing.T) {
	sheet := parse(t, ``)
	if len(sheet.Rules) != 0 {
		t.Errorf("expected no rules, got %d", len(sheet.Rules))
	}
}

func TestParseSelector(t *testing.T) {
	chain, err := css.ParseSelector(`Report#main  Table   Cell.header`)
	if err != nil {
		t.Fatalf("ParseSelector failed: %v", err)
	}
	if got := chain.String(); got != "Report#main Table Cell.header" {
		t.Errorf("unexpected chain %q", got)
	}

	for _, bad := range []string{``, `a > b`, `a:first-child`, `[href]`, `a, b`, `a[x~=y]`} {
		if _, err := css.ParseSelector(bad); !errors.Is(err, css.ErrSelector) {
			t.Errorf("ParseSelector(%q): expected ErrSelector, got %v", bad, err)
		}
	}
}

func TestStylesheet_WriteTo(t *testing.T) {
	sheet := parse(t, `Cell.a { color: red; padding: 1px 2px } Label { font: italic 10pt Arial }`)
	sheet.Rules[1].SourceOrder = 1

	out := sheet.String()
	want := "/* 0 */ Cell.a {\n  color: red;\n  padding: 1px 2px;\n}\n\n/* 1 */ Label {\n  font: italic 10pt Arial;\n}\n"
	if out != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", out, want)
	}
}

func TestPropertyKey(t *testing.T) {
	k, ok := css.ParsePropertyKey("PADDING")
	if !ok || k.Property() != css.PropPadding || !k.IsShorthand() {
		t.Errorf("unexpected key for PADDING: %v %v", k, ok)
	}
	if _, ok := css.ParsePropertyKey("--"); ok {
		t.Error("bare -- should be rejected")
	}
	if css.Custom("x") != css.Custom("--x") {
		t.Error("Custom should normalize prefix")
	}
	if k := css.Custom("x"); !k.IsCustom() || k.IsShorthand() || !k.IsValid() {
		t.Errorf("unexpected custom key flags for %s", k)
	}
	if (css.PropertyKey{}).IsValid() {
		t.Error("zero key must be invalid")
	}
}
