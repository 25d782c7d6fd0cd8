package protocol

import "strings"

// Category is one republishable configuration group.
type Category uint8

const (
	CategoryColors Category = 1 << iota
	CategoryNames
	CategoryMisc
	CategorySensors
)

var categoryNames = []struct {
	c    Category
	name string
}{
	{CategoryColors, "colors"},
	{CategoryNames, "names"},
	{CategoryMisc, "misc"},
	{CategorySensors, "sensors"},
}

// String returns the category name.
func (c Category) String() string {
	for _, cn := range categoryNames {
		if cn.c == c {
			return cn.name
		}
	}
	return "unknown"
}

// ChangeSet is a set of categories.
type ChangeSet struct {
	bits Category
}

// Changes returns a set holding cats.
func Changes(cats ...Category) ChangeSet {
	var cs ChangeSet
	for _, c := range cats {
		cs = cs.With(c)
	}
	return cs
}

// With returns cs plus c.
func (cs ChangeSet) With(c Category) ChangeSet {
	return ChangeSet{bits: cs.bits | c}
}

// Union returns every category in cs or other.
func (cs ChangeSet) Union(other ChangeSet) ChangeSet {
	return ChangeSet{bits: cs.bits | other.bits}
}

// Has reports whether c is in the set.
func (cs ChangeSet) Has(c Category) bool {
	return cs.bits&c != 0
}

// Empty reports whether no category is set.
func (cs ChangeSet) Empty() bool {
	return cs.bits == 0
}

// Categories lists the set members in declaration order.
func (cs ChangeSet) Categories() []Category {
	var out []Category
	for _, cn := range categoryNames {
		if cs.Has(cn.c) {
			out = append(out, cn.c)
		}
	}
	return out
}

// String renders the set as "colors|misc", or "none".
func (cs ChangeSet) String() string {
	cats := cs.Categories()
	if len(cats) == 0 {
		return "none"
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return strings.Join(names, "|")
}
