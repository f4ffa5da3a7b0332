package domain

// Group is a named, colored subtotal over a contiguous run of sibling rows.
// Its aggregate values are derived from its children, never stored.
type Group struct {
	ID       int64
	Name     string
	Color    string
	Children []int64 // member model ids, in order
}

// HasChild reports whether id is a member of the group.
func (g *Group) HasChild(id int64) bool {
	for _, c := range g.Children {
		if c == id {
			return true
		}
	}
	return false
}

// WithoutChildren returns a copy of the group with the given ids removed
// from its children. The receiver is not modified.
func (g Group) WithoutChildren(ids []int64) Group {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]int64, 0, len(g.Children))
	for _, c := range g.Children {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	g.Children = kept
	return g
}

// WithChildren returns a copy of the group with the given ids appended,
// skipping ids already present. Duplicates within ids collapse to one
// membership.
func (g Group) WithChildren(ids []int64) Group {
	seen := make(map[int64]bool, len(g.Children)+len(ids))
	kept := make([]int64, 0, len(g.Children)+len(ids))
	for _, c := range g.Children {
		seen[c] = true
		kept = append(kept, c)
	}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			kept = append(kept, id)
		}
	}
	g.Children = kept
	return g
}
