package registry

import (
	"io"
	"slices"
	"time"

	"github.com/google/uuid"

	"rstyle/cache"
	"rstyle/css"
	"rstyle/style"
)

// Sheet is an immutable merged stylesheet snapshot together with caches of
// results computed from it. A rebuild produces a new Sheet, so caches never
// outlive the rules they were computed from.
type Sheet struct {
	ID    uuid.UUID
	Built time.Time

	rules    []css.Rule
	warnings []string
	types    map[string]struct{}
	anyType  bool // some rule targets any type

	resolver *style.Resolver
	resolved *cache.Cache[string, *style.Resolved]
	present  *cache.Cache[string, bool]
}

func newSheet(id uuid.UUID, built time.Time, rules []css.Rule, warnings []string, resolver *style.Resolver, opts *Options) *Sheet {
	s := &Sheet{
		ID:       id,
		Built:    built,
		rules:    rules,
		warnings: warnings,
		types:    make(map[string]struct{}),
		resolver: resolver,
		resolved: cache.New[string, *style.Resolved](opts.CacheCapacity, opts.Policy),
		present:  cache.New[string, bool](opts.CacheCapacity, opts.Policy),
	}
	for i := range rules {
		for _, sel := range rules[i].Selectors {
			if leaf := sel.Leaf(); leaf.IsWildcard() {
				s.anyType = true
			} else {
				s.types[leaf.Type] = struct{}{}
			}
		}
	}
	return s
}

// Rules returns the merged rules. The result is shared and must not be
// modified.
func (s *Sheet) Rules() []css.Rule {
	return s.rules
}

// Warnings returns parser warnings of all merged sources.
func (s *Sheet) Warnings() []string {
	return slices.Clone(s.warnings)
}

// Resolve returns the resolved style of ctx, computing it on first use.
func (s *Sheet) Resolve(ctx style.Context) *style.Resolved {
	if ctx.Len() == 0 {
		return s.resolver.Resolve(nil, ctx)
	}
	key := ctx.Key()
	// nil entries are treated as a miss
	if r, ok := s.resolved.Get(key); ok && r != nil {
		return r
	}
	r := s.resolver.Resolve(s.rules, ctx)
	s.resolved.Put(key, r)
	return r
}

// HasMatchingRule reports whether any rule matches ctx.
func (s *Sheet) HasMatchingRule(ctx style.Context) bool {
	if ctx.Len() == 0 {
		return false
	}
	return s.present.GetOrCompute(ctx.Key(), func() bool {
		return style.HasMatch(s.rules, ctx)
	})
}

// HasRuleForType reports whether any rule may style nodes of typeName. Rules
// with a wildcard subject apply to every type.
func (s *Sheet) HasRuleForType(typeName string) bool {
	if s.anyType {
		return true
	}
	_, ok := s.types[typeName]
	return ok
}

// CachedStyles returns the number of cached resolved styles.
func (s *Sheet) CachedStyles() int {
	return s.resolved.Len()
}

// WriteTo writes merged rules as CSS text.
func (s *Sheet) WriteTo(w io.Writer) (int64, error) {
	cs := css.Stylesheet{Rules: s.rules}
	return cs.WriteTo(w)
}

// Explain returns the rules matching ctx in cascade order and the property
// map they produce. It bypasses caches.
func (s *Sheet) Explain(ctx style.Context) ([]style.MatchedRule, style.Properties) {
	return style.Matches(s.rules, ctx), s.resolver.Cascade(s.rules, ctx)
}
