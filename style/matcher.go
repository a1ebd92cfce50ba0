package style

import (
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/text/cases"

	"rstyle/css"
)

// Match aligns chain with ctx. The leaf segment of the chain must match the
// leaf node of the context and the remaining segments must match strictly
// consecutive ancestors. The returned weight carries no source order.
func Match(chain css.SelectorChain, ctx Context) (Weight, bool) {
	n, m := len(chain.Compounds), ctx.Len()
	if n == 0 || n > m {
		return Weight{}, false
	}

	// Leaf alignment leaves exactly one candidate offset.
	k := m - n

	var w Weight
	for i, sel := range chain.Compounds {
		node := ctx.nodes[k+i]
		if !matchCompound(sel, node) {
			return Weight{}, false
		}
		if sel.ID != "" {
			w.IDs++
		}
		w.Classes += len(sel.Classes) + len(sel.Attrs)
		if !sel.IsWildcard() {
			w.Types++
		}
	}
	return w, true
}

// MatchRule matches every selector alternative of rule and returns the
// highest weight among those that match, with the rule source order.
func MatchRule(rule *css.Rule, ctx Context) (Weight, bool) {
	var (
		best    Weight
		matched bool
	)
	for _, chain := range rule.Selectors {
		w, ok := Match(chain, ctx)
		if !ok {
			continue
		}
		if !matched || best.Less(w) {
			best, matched = w, true
		}
	}
	best.Order = rule.SourceOrder
	return best, matched
}

func matchCompound(sel css.CompoundSelector, node Node) bool {
	if !sel.IsWildcard() && sel.Type != node.Type {
		return false
	}
	if sel.ID != "" && !equalID(sel.ID, node) {
		return false
	}
	for _, c := range sel.Classes {
		if !node.HasClass(c) {
			return false
		}
	}
	for _, a := range sel.Attrs {
		if v, ok := node.Attr(a.Name); !ok || v != a.Value {
			return false
		}
	}
	return true
}

// foldedIDs caches folded selector ids. They come from stylesheets, so the
// set stays small.
var foldedIDs = xsync.NewMap[string, string]()

func foldSelectorID(id string) string {
	if f, ok := foldedIDs.Load(id); ok {
		return f
	}
	f := cases.Fold().String(id)
	foldedIDs.Store(id, f)
	return f
}

// equalID compares a selector id with a node id using full Unicode case
// folding.
func equalID(sel string, node Node) bool {
	return strings.EqualFold(sel, node.ID) || foldSelectorID(sel) == node.foldedID
}
