package catalog

import "sort"

// Default filter id tables. The API exposes no flag for these groupings.
var (
	defaultStyleFilterIDs  = []int{5}
	defaultHiddenFilterIDs = []int{67}
)

// Classification sorts channel filters into style tabs and hidden entries by
// identifier.
type Classification struct {
	style  map[int]struct{}
	hidden map[int]struct{}
}

// NewClassification builds a Classification from identifier lists.
func NewClassification(styleIDs, hiddenIDs []int) Classification {
	return Classification{style: idSet(styleIDs), hidden: idSet(hiddenIDs)}
}

// DefaultClassification returns the built-in identifier tables.
func DefaultClassification() Classification {
	return NewClassification(defaultStyleFilterIDs, defaultHiddenFilterIDs)
}

// DefaultStyleFilterIDs returns a copy of the built-in style table.
func DefaultStyleFilterIDs() []int {
	return append([]int(nil), defaultStyleFilterIDs...)
}

// DefaultHiddenFilterIDs returns a copy of the built-in hidden table.
func DefaultHiddenFilterIDs() []int {
	return append([]int(nil), defaultHiddenFilterIDs...)
}

// IsStyle reports whether id names a style filter.
func (c Classification) IsStyle(id int) bool {
	_, ok := c.style[id]
	return ok
}

// IsHidden reports whether id names a hidden filter.
func (c Classification) IsHidden(id int) bool {
	_, ok := c.hidden[id]
	return ok
}

// IsTab reports whether a filter with id belongs in top-level navigation.
func (c Classification) IsTab(id int) bool {
	return !c.IsStyle(id) && !c.IsHidden(id)
}

// StyleIDs returns the style table in ascending order.
func (c Classification) StyleIDs() []int {
	return sortedIDs(c.style)
}

// HiddenIDs returns the hidden table in ascending order.
func (c Classification) HiddenIDs() []int {
	return sortedIDs(c.hidden)
}

func idSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedIDs(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
