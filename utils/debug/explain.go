package debug

import (
	"sort"
	"strings"

	"github.com/maruel/natural"

	"rstyle/css"
	"rstyle/style"
)

// Explain renders how the style of ctx was computed: matching rules in
// cascade order with their weights, the resulting property map and the
// decoded style.
func Explain(ctx style.Context, matches []style.MatchedRule, props style.Properties, resolved *style.Resolved) string {
	tw := NewTreeWriter()
	tw.TextBlock(0, "context", ctx.String())

	tw.Line(1, "rules: %d", len(matches))
	for _, m := range matches {
		tw.Line(2, "%s /* %d */ %s", m.Weight, m.Rule.SourceOrder, selectors(m.Rule.Selectors))
		for _, d := range m.Rule.Declarations {
			tw.Pair(3, d.Property.String(), d.Value.String())
		}
	}

	names := make([]string, 0, len(props))
	values := make(map[string]string, len(props))
	for k, v := range props {
		names = append(names, k.String())
		values[k.String()] = v.String()
	}
	sort.Sort(natural.StringSlice(names))
	tw.Line(1, "properties: %d", len(names))
	for _, n := range names {
		tw.Pair(2, n, values[n])
	}

	if resolved == nil || resolved.IsNone() {
		tw.Line(1, "resolved: none")
		return tw.String()
	}
	summary := resolved.Summary()
	fields := make([]string, 0, len(summary))
	for k := range summary {
		fields = append(fields, k)
	}
	sort.Sort(natural.StringSlice(fields))
	tw.Line(1, "resolved: %d", len(fields))
	for _, f := range fields {
		tw.Pair(2, f, summary[f])
	}
	return tw.String()
}

func selectors(chains []css.SelectorChain) string {
	out := make([]string, 0, len(chains))
	for _, c := range chains {
		out = append(out, c.String())
	}
	return strings.Join(out, ", ")
}
