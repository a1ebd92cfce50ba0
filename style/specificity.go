package style

import (
	"cmp"
	"fmt"
)

// Weight ranks matching rules. Fields are compared in declaration order, so a
// single id outranks any number of classes and later source order wins ties.
type Weight struct {
	IDs     int // matched id constraints
	Classes int // matched class and attribute constraints
	Types   int // matched explicit type names
	Order   int // source order of the owning rule
}

// Compare returns -1, 0 or +1 depending on whether w ranks below, equal to or
// above o.
func (w Weight) Compare(o Weight) int {
	if c := cmp.Compare(w.IDs, o.IDs); c != 0 {
		return c
	}
	if c := cmp.Compare(w.Classes, o.Classes); c != 0 {
		return c
	}
	if c := cmp.Compare(w.Types, o.Types); c != 0 {
		return c
	}
	return cmp.Compare(w.Order, o.Order)
}

// Less reports whether w ranks strictly below o.
func (w Weight) Less(o Weight) bool {
	return w.Compare(o) < 0
}

func (w Weight) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", w.IDs, w.Classes, w.Types, w.Order)
}
