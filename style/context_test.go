package style_test

import (
	"errors"
	"testing"

	"rstyle/style"
)

func TestNewContext_Empty(t *testing.T) {
	if _, err := style.NewContext(); !errors.Is(err, style.ErrEmptyContext) {
		t.Errorf("expected ErrEmptyContext, got %v", err)
	}
}

func TestNewContext_CopiesInput(t *testing.T) {
	classes := []string{"b", "a", "b"}
	attrs := map[string]string{"role": "total"}
	c := style.MustContext(style.Node{Type: "Cell", Classes: classes, Attrs: attrs})

	classes[0] = "zzz"
	attrs["role"] = "changed"

	leaf := c.Leaf()
	if len(leaf.Classes) != 2 || leaf.Classes[0] != "a" || leaf.Classes[1] != "b" {
		t.Errorf("expected sorted unique classes [a b], got %v", leaf.Classes)
	}
	if v, _ := leaf.Attr("role"); v != "total" {
		t.Errorf("context shares attribute map with caller, got %q", v)
	}
}

func TestContext_KeyIsCanonical(t *testing.T) {
	a := style.MustContext(
		style.NewNode("Table", "", nil, nil),
		style.NewNode("Cell", "x", []string{"b", "a"}, map[string]string{"k": "v", "j": "w"}),
	)
	b := style.MustContext(
		style.NewNode("Table", "", nil, nil),
		style.NewNode("Cell", "x", []string{"a", "b", "a"}, map[string]string{"j": "w", "k": "v"}),
	)
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}

	c := style.MustContext(style.NewNode("Table Cell", "x", []string{"a", "b"}, nil))
	if a.Key() == c.Key() {
		t.Error("different chains must not share a key")
	}
}

func TestParseContext(t *testing.T) {
	c, err := style.ParseContext(`Report#main.dark Table Cell.header[role=total]`)
	if err != nil {
		t.Fatalf("ParseContext failed: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", c.Len())
	}
	if n := c.Node(0); n.Type != "Report" || n.ID != "main" || !n.HasClass("dark") {
		t.Errorf("unexpected root %+v", n)
	}
	if v, ok := c.Leaf().Attr("role"); !ok || v != "total" {
		t.Errorf("unexpected leaf attrs %v", c.Leaf().Attrs)
	}
	if got := c.String(); got != `Report#main.dark Table Cell.header[role="total"]` {
		t.Errorf("unexpected String() %q", got)
	}

	for _, bad := range []string{``, `*.x`, `Table > Cell`, `Cell:hover`} {
		if _, err := style.ParseContext(bad); !errors.Is(err, style.ErrContextSyntax) {
			t.Errorf("ParseContext(%q): expected ErrContextSyntax, got %v", bad, err)
		}
	}
}
