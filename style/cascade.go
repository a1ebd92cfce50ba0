package style

import (
	"slices"

	"go.uber.org/zap"

	"rstyle/css"
)

// ResolverOptions tune a Resolver.
type ResolverOptions struct {
	// KnownFonts extends the built-in catalog of font families.
	KnownFonts []string
}

// WithKnownFonts adds font families which are not reported as unknown.
func WithKnownFonts(names ...string) func(*ResolverOptions) {
	return func(o *ResolverOptions) {
		o.KnownFonts = append(o.KnownFonts, names...)
	}
}

// Resolver runs the cascade for a context and decodes the result. It holds
// no per-call state and is safe for concurrent use.
type Resolver struct {
	log   *zap.Logger
	fonts *fontCatalog
}

// NewResolver creates a resolver.
func NewResolver(log *zap.Logger, opts ...func(*ResolverOptions)) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	var o ResolverOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver{
		log:   log.Named("resolver"),
		fonts: newFontCatalog(o.KnownFonts),
	}
}

// MatchedRule is a rule matching a context with the weight of its best selector.
type MatchedRule struct {
	Weight Weight
	Rule   *css.Rule
}

// Matches returns rules matching ctx in cascade order: ascending weight,
// rules with equal weights keep their order in rules.
func Matches(rules []css.Rule, ctx Context) []MatchedRule {
	var out []MatchedRule
	for i := range rules {
		if w, ok := MatchRule(&rules[i], ctx); ok {
			out = append(out, MatchedRule{Weight: w, Rule: &rules[i]})
		}
	}
	slices.SortStableFunc(out, func(a, b MatchedRule) int {
		return a.Weight.Compare(b.Weight)
	})
	return out
}

// Cascade applies declarations of all rules matching ctx and returns the
// resulting property map. Custom properties are applied first, so ordinary
// declarations see final variable values regardless of rule order. A custom
// property only sees variables applied before it.
func (r *Resolver) Cascade(rules []css.Rule, ctx Context) Properties {
	props := make(Properties)
	if ctx.Len() == 0 {
		return props
	}
	ms := Matches(rules, ctx)

	for _, m := range ms {
		for _, d := range m.Rule.Declarations {
			if d.Property.IsCustom() {
				props[d.Property] = substitute(d.Value, props)
			}
		}
	}

	for _, m := range ms {
		for _, d := range m.Rule.Declarations {
			if d.Property.IsCustom() {
				continue
			}
			expanded, err := expand(d, props)
			if err != nil {
				r.log.Warn("Unable to expand declaration, ignoring",
					zap.Stringer("property", d.Property), zap.String("value", d.Value.String()), zap.Error(err))
				continue
			}
			for _, e := range expanded {
				props[e.Property] = e.Value
			}
		}
	}
	return props
}

// Resolve computes the typed style of ctx. The result is never nil.
func (r *Resolver) Resolve(rules []css.Rule, ctx Context) *Resolved {
	return r.Decode(r.Cascade(rules, ctx))
}

// Decode converts a property map into a typed style.
func (r *Resolver) Decode(props Properties) *Resolved {
	s := &decodeState{
		props: props,
		out:   &Resolved{},
		log:   r.log,
		fonts: r.fonts,
	}
	for _, d := range decoders {
		d(s)
	}
	return s.out
}

// HasMatch reports whether any rule matches ctx.
func HasMatch(rules []css.Rule, ctx Context) bool {
	for i := range rules {
		if _, ok := MatchRule(&rules[i], ctx); ok {
			return true
		}
	}
	return false
}
