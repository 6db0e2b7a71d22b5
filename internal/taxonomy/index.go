package taxonomy

// DefaultSuggestionLimit caps autocomplete result lists.
const DefaultSuggestionLimit = 50

// Location is where a category lives in the taxonomy.
type Location struct {
	Group    string
	Subgroup string
}

// Collision records a category name seen under more than one location.
// The later location is the one the index keeps.
type Collision struct {
	Category string
	Previous Location
	Current  Location
}

// Index is the reverse lookup from category to location plus the filtered
// list queries used by the transaction form. Safe for concurrent readers.
type Index struct {
	tax        *Taxonomy
	reverse    map[string]Location
	folded     map[string]string
	collisions []Collision
}

// Build walks the taxonomy in order and records every category. A category
// present under several subgroups resolves to the last one visited.
func Build(t *Taxonomy) *Index {
	if t == nil {
		t = &Taxonomy{}
	}
	ix := &Index{
		tax:     t,
		reverse: make(map[string]Location),
		folded:  make(map[string]string),
	}
	for _, g := range t.Groups {
		for _, s := range g.Subgroups {
			loc := Location{Group: g.Name, Subgroup: s.Name}
			for _, c := range s.Categories {
				if prev, ok := ix.reverse[c]; ok && prev != loc {
					ix.collisions = append(ix.collisions, Collision{Category: c, Previous: prev, Current: loc})
				}
				ix.reverse[c] = loc
				if _, ok := ix.folded[c]; !ok {
					ix.folded[c] = Fold(c)
				}
			}
		}
	}
	return ix
}

// Taxonomy returns the tree the index was built from.
func (ix *Index) Taxonomy() *Taxonomy { return ix.tax }

// Collisions lists duplicate category names found while building.
func (ix *Index) Collisions() []Collision {
	return append([]Collision(nil), ix.collisions...)
}

// Resolve is an exact, case-sensitive lookup. Callers trim input.
func (ix *Index) Resolve(category string) (Location, bool) {
	loc, ok := ix.reverse[category]
	return loc, ok
}

// Groups returns group names in order.
func (ix *Index) Groups() []string {
	out := make([]string, 0, len(ix.tax.Groups))
	for _, g := range ix.tax.Groups {
		out = append(out, g.Name)
	}
	return out
}

// Subgroups returns the subgroup names of group in order, or nil when the
// group is unknown.
func (ix *Index) Subgroups(group string) []string {
	g, ok := ix.tax.Group(group)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.Subgroups))
	for _, s := range g.Subgroups {
		out = append(out, s.Name)
	}
	return out
}

// CategoryList returns the categories visible for a partial selection:
//   - group and subgroup set: that subgroup's list, empty when the path is absent
//   - only group set: every subgroup of that group, concatenated in order
//   - otherwise: every category in the taxonomy
func (ix *Index) CategoryList(group, subgroup string) []string {
	switch {
	case group != "" && subgroup != "":
		s, ok := ix.tax.Subgroup(group, subgroup)
		if !ok {
			return []string{}
		}
		return append([]string{}, s.Categories...)
	case group != "":
		out := []string{}
		g, ok := ix.tax.Group(group)
		if !ok {
			return out
		}
		for _, s := range g.Subgroups {
			out = append(out, s.Categories...)
		}
		return out
	default:
		out := []string{}
		for _, g := range ix.tax.Groups {
			for _, s := range g.Subgroups {
				out = append(out, s.Categories...)
			}
		}
		return out
	}
}

// Suggest filters CategoryList(group, subgroup) by an accent-insensitive
// substring match against query, keeping taxonomy order. An empty query
// matches everything. limit <= 0 means DefaultSuggestionLimit.
func (ix *Index) Suggest(query, group, subgroup string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	q := Fold(query)
	out := []string{}
	for _, c := range ix.CategoryList(group, subgroup) {
		if len(out) == limit {
			break
		}
		folded, ok := ix.folded[c]
		if !ok {
			folded = Fold(c)
		}
		if containsFolded(folded, q) {
			out = append(out, c)
		}
	}
	return out
}
