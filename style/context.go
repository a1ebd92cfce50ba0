package style

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"rstyle/css"
)

var (
	// ErrEmptyContext is returned when a context without nodes is requested.
	ErrEmptyContext = errors.New("style context must have at least one node")
	// ErrContextSyntax wraps errors of the textual context notation.
	ErrContextSyntax = errors.New("invalid style context")
)

// Node describes one UI component on the path being styled.
type Node struct {
	Type    string
	ID      string
	Classes []string          // sorted, without duplicates
	Attrs   map[string]string // nil when there are no attributes

	foldedID string // set by NewNode
}

// NewNode returns a normalized copy of the node description. Callers keep
// ownership of classes and attrs.
func NewNode(typ, id string, classes []string, attrs map[string]string) Node {
	n := Node{Type: typ, ID: id}
	if id != "" {
		n.foldedID = cases.Fold().String(id)
	}
	if len(classes) > 0 {
		n.Classes = slices.Compact(slices.Sorted(slices.Values(classes)))
	}
	if len(attrs) > 0 {
		n.Attrs = maps.Clone(attrs)
	}
	return n
}

// HasClass reports whether the node carries class c.
func (n Node) HasClass(c string) bool {
	_, found := slices.BinarySearch(n.Classes, c)
	return found
}

// Attr returns the value of attribute name.
func (n Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func (n Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.Type)
	if n.ID != "" {
		sb.WriteString("#" + n.ID)
	}
	for _, c := range n.Classes {
		sb.WriteString("." + c)
	}
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		sb.WriteString("[" + k + "=" + strconv.Quote(n.Attrs[k]) + "]")
	}
	return sb.String()
}

// appendKey appends an unambiguous encoding of the node to b.
func (n Node) appendKey(b []byte) []byte {
	b = strconv.AppendQuote(b, n.Type)
	b = strconv.AppendQuote(append(b, '#'), n.ID)
	for _, c := range n.Classes {
		b = strconv.AppendQuote(append(b, '.'), c)
	}
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		b = strconv.AppendQuote(append(b, '['), k)
		b = strconv.AppendQuote(append(b, '='), n.Attrs[k])
	}
	return b
}

// Context is the root to leaf chain of nodes being styled. Context values are
// immutable and safe to share.
type Context struct {
	nodes []Node
	key   string
}

// NewContext builds a context out of nodes ordered root first.
func NewContext(nodes ...Node) (Context, error) {
	if len(nodes) == 0 {
		return Context{}, ErrEmptyContext
	}
	c := Context{nodes: make([]Node, len(nodes))}
	var key []byte
	for i, n := range nodes {
		c.nodes[i] = NewNode(n.Type, n.ID, n.Classes, n.Attrs)
		if i > 0 {
			key = append(key, ' ')
		}
		key = c.nodes[i].appendKey(key)
	}
	c.key = string(key)
	return c, nil
}

// MustContext is like NewContext but panics on error. Intended for tests and
// static initialization.
func MustContext(nodes ...Node) Context {
	c, err := NewContext(nodes...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of nodes, zero for the zero Context.
func (c Context) Len() int {
	return len(c.nodes)
}

// Node returns node i, root is 0.
func (c Context) Node(i int) Node {
	return c.nodes[i]
}

// Leaf returns the node being styled.
func (c Context) Leaf() Node {
	return c.nodes[len(c.nodes)-1]
}

// Nodes returns a copy of the node chain.
func (c Context) Nodes() []Node {
	return slices.Clone(c.nodes)
}

// Key returns canonical identity of the context. Contexts describing the same
// chain (regardless of class or attribute order) have equal keys.
func (c Context) Key() string {
	return c.key
}

func (c Context) String() string {
	parts := make([]string, 0, len(c.nodes))
	for _, n := range c.nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, " ")
}

// ParseContext parses a context written with selector syntax, for example
// `Report#main.dark Table Cell.header[role=total]`. Every segment must name a
// type.
func ParseContext(s string) (Context, error) {
	chain, err := css.ParseSelector(s)
	if err != nil {
		return Context{}, fmt.Errorf("%w: %w", ErrContextSyntax, err)
	}
	nodes := make([]Node, 0, len(chain.Compounds))
	for _, seg := range chain.Compounds {
		if seg.IsWildcard() {
			return Context{}, fmt.Errorf("%w: segment %q has no type", ErrContextSyntax, seg)
		}
		var attrs map[string]string
		if len(seg.Attrs) > 0 {
			attrs = make(map[string]string, len(seg.Attrs))
			for _, a := range seg.Attrs {
				attrs[a.Name] = a.Value
			}
		}
		nodes = append(nodes, NewNode(seg.Type, seg.ID, seg.Classes, attrs))
	}
	return NewContext(nodes...)
}
