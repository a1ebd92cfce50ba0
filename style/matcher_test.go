package style_test

import (
	"testing"

	"rstyle/css"
	"rstyle/style"
)

func chain(t *testing.T, s string) css.SelectorChain {
	t.Helper()
	c, err := css.ParseSelector(s)
	if err != nil {
		t.Fatalf("ParseSelector(%q) failed: %v", s, err)
	}
	return c
}

func TestMatch_LeafAlignment(t *testing.T) {
	sel := chain(t, "A B")
	tests := []struct {
		ctx  string
		want bool
	}{
		{"X A B", true},
		{"A B", true},
		{"A B Y", false},
		{"B", false},
		{"A X B", false},
		{"B A", false},
	}
	for _, tt := range tests {
		t.Run(tt.ctx, func(t *testing.T) {
			if _, ok := style.Match(sel, context(t, tt.ctx)); ok != tt.want {
				t.Errorf("Match(A B, %s) = %v, want %v", tt.ctx, ok, tt.want)
			}
		})
	}
}

func TestMatch_Wildcard(t *testing.T) {
	sel := chain(t, "*")
	for _, ctx := range []string{"Button", "Table#t.a.b", "Report Cell[x=y]"} {
		w, ok := style.Match(sel, context(t, ctx))
		if !ok {
			t.Errorf("* should match %s", ctx)
		}
		if w != (style.Weight{}) {
			t.Errorf("* should have zero weight, got %v", w)
		}
	}
}

func TestMatch_CompoundConstraints(t *testing.T) {
	ctx := context(t, "Cell#Main.a.b[role=total][kind=sum]")
	tests := []struct {
		sel  string
		want bool
	}{
		{"Cell", true},
		{"cell", false},
		{"#main", true},
		{"#MAIN", true},
		{"#other", false},
		{".a", true},
		{".a.b", true},
		{".a.c", false},
		{"[role=total]", true},
		{"[role=total][kind=sum]", true},
		{"[role=sum]", false},
		{"[missing=x]", false},
		{"Cell#main.b[kind=sum]", true},
	}
	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			if _, ok := style.Match(chain(t, tt.sel), ctx); ok != tt.want {
				t.Errorf("Match(%s) = %v, want %v", tt.sel, ok, tt.want)
			}
		})
	}
}

func TestMatch_IDUnicodeFolding(t *testing.T) {
	if _, ok := style.Match(chain(t, "#STRASSE"), context(t, "Cell#straße")); !ok {
		t.Error("ids should compare with full case folding")
	}

	// nodes given as literals are folded when the context is built
	ctx := style.MustContext(style.Node{Type: "Cell", ID: "Straße"})
	sel := chain(t, "#strasse")
	for range 3 {
		if _, ok := style.Match(sel, ctx); !ok {
			t.Fatal("literal node id should compare with full case folding")
		}
	}
	if _, ok := style.Match(chain(t, "#strase"), ctx); ok {
		t.Error("different ids must not match")
	}
}

func TestMatch_Weight(t *testing.T) {
	w, ok := style.Match(chain(t, "Report#main Table.wide Cell[role=total]"),
		context(t, "Root Report#main.dark Table.wide.x Cell[role=total]"))
	if !ok {
		t.Fatal("expected match")
	}
	want := style.Weight{IDs: 1, Classes: 2, Types: 3}
	if w != want {
		t.Errorf("weight = %v, want %v", w, want)
	}
}

func TestMatchRule_MaxOverAlternatives(t *testing.T) {
	rs := rules(t, "\n\nCell, Table Cell.a, #nope { color: red }")
	rule := rs[0]
	rule.SourceOrder = 7

	w, ok := style.MatchRule(&rule, context(t, "Table Cell.a"))
	if !ok {
		t.Fatal("expected match")
	}
	want := style.Weight{Classes: 1, Types: 2, Order: 7}
	if w != want {
		t.Errorf("weight = %v, want %v", w, want)
	}

	if _, ok := style.MatchRule(&rule, context(t, "Label")); ok {
		t.Error("no alternative should match Label")
	}
}

func TestWeight_Compare(t *testing.T) {
	ordered := []style.Weight{
		{},
		{Order: 1},
		{Types: 1},
		{Types: 2},
		{Classes: 1},
		{Classes: 1, Types: 1},
		{Classes: 5, Types: 5, Order: 9},
		{IDs: 1},
		{IDs: 1, Order: 3},
	}
	for i := range ordered {
		for j := range ordered {
			got := ordered[i].Compare(ordered[j])
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got != want {
				t.Errorf("%v.Compare(%v) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}
