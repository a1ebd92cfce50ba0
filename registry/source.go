package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rstyle/css"
)

// ErrNotFound is returned by stores for sources which do not exist. Missing
// sources are normal and are not reported.
var ErrNotFound = errors.New("stylesheet source not found")

// Kind is the priority class of a stylesheet source. Sources are merged in
// increasing Kind order so later kinds win specificity ties.
type Kind uint8

const (
	BaseDefault Kind = iota
	EnvDefault
	ScopeOverride
	TenantOverride
)

var kindNames = [...]string{"base", "env", "scope", "tenant"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown source kind %q", s)
}

// SourceKey identifies one mergeable stylesheet.
type SourceKey struct {
	Kind   Kind
	Scope  string // ScopeOverride and TenantOverride
	Report bool   // report flavor of the sheet
	OrgID  string // TenantOverride only
}

func (s SourceKey) String() string {
	var sb strings.Builder
	sb.WriteString(s.Kind.String())
	if s.OrgID != "" {
		sb.WriteString(":org=" + s.OrgID)
	}
	if s.Scope != "" {
		sb.WriteString(":scope=" + s.Scope)
	}
	if s.Report {
		sb.WriteString(":report")
	}
	return sb.String()
}

// Key selects a merged stylesheet. All three parts are explicit, nothing is
// taken from ambient state.
type Key struct {
	Scope  string
	Report bool
	OrgID  string
}

func (k Key) String() string {
	return fmt.Sprintf("scope=%q report=%t org=%q", k.Scope, k.Report, k.OrgID)
}

// Sources lists the sources contributing to k in merge order: base default,
// environment default, scope override (when a scope is set) and tenant
// override (when an organization is set).
func (k Key) Sources() []SourceKey {
	srcs := []SourceKey{
		{Kind: BaseDefault, Report: k.Report},
		{Kind: EnvDefault, Report: k.Report},
	}
	if k.Scope != "" {
		srcs = append(srcs, SourceKey{Kind: ScopeOverride, Scope: k.Scope, Report: k.Report})
	}
	if k.OrgID != "" {
		srcs = append(srcs, SourceKey{Kind: TenantOverride, Scope: k.Scope, Report: k.Report, OrgID: k.OrgID})
	}
	return srcs
}

// Store supplies stylesheet bytes and modification times. Both methods
// return an error wrapping ErrNotFound for missing sources.
type Store interface {
	Stat(src SourceKey) (time.Time, error)
	Read(src SourceKey) ([]byte, error)
}

// Parser turns stylesheet bytes into rules. *css.Parser implements it.
type Parser interface {
	Parse(data []byte, source string) (*css.Stylesheet, error)
}
