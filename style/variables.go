package style

import (
	"rstyle/css"
)

// Properties is the accumulated declaration map of a cascade. Values stored
// in the map have already been substituted.
type Properties map[css.PropertyKey]css.Value

// substitute replaces var() references in v with the current values from
// props. Lookup is single level: the map holds substituted values already.
// A reference without a value falls back to its default when one was given
// and is kept as a literal token otherwise. The input is never modified.
func substitute(v css.Value, props Properties) css.Value {
	if !v.HasVar() {
		return v
	}
	out := make(css.Value, 0, len(v))
	for _, t := range v {
		switch t.Kind {
		case css.TokVar:
			if val, ok := props[css.Custom(t.Name)]; ok {
				out = append(out, val...)
				continue
			}
			if t.Args != nil {
				out = append(out, substitute(t.Args, props)...)
				continue
			}
			out = append(out, t)
		case css.TokFunction:
			if css.Value(t.Args).HasVar() {
				t.Args = substitute(t.Args, props)
			}
			out = append(out, t)
		default:
			out = append(out, t)
		}
	}
	return out
}
