package geneset

import (
	"fmt"
	"sort"

	"goenrich/domain/core"
)

// GeneSet names a group of genes to test as one unit. Members are given
// either as direct fit row positions or as gene identifiers resolvable
// against the fit's identifiers; Indices wins when both are set.
type GeneSet struct {
	Name    core.SetName  `json:"name"`
	Indices []int         `json:"indices,omitempty"`
	GeneIDs []core.GeneID `json:"gene_ids,omitempty"`
}

// Collection is an ordered, named group of gene sets.
type Collection []GeneSet

// Normalize wraps a bare singleton set into a one-element collection,
// assigning a default name when the set carries none.
func Normalize(set GeneSet) Collection {
	if set.Name == "" {
		set.Name = "set1"
	}
	return Collection{set}
}

// FromMap builds a collection from a set-name -> member-identifiers mapping
// (the shape gene-set databases deliver). Names are sorted for determinism.
func FromMap(db map[string][]string) Collection {
	names := make([]string, 0, len(db))
	for name := range db {
		names = append(names, name)
	}
	sort.Strings(names)

	coll := make(Collection, 0, len(db))
	for _, name := range names {
		ids := make([]core.GeneID, len(db[name]))
		for i, id := range db[name] {
			ids[i] = core.GeneID(id)
		}
		coll = append(coll, GeneSet{Name: core.SetName(name), GeneIDs: ids})
	}
	return coll
}

// Resolved is a gene set mapped onto fit row positions.
type Resolved struct {
	Name    core.SetName
	Indices []int
}

// Size returns the resolved member count.
func (r Resolved) Size() int {
	return len(r.Indices)
}

// Resolve maps the set onto row positions of a fit with the given gene
// index and universe size. Identifier members not found among the fit's
// genes are dropped silently; direct indices outside [0, universe) are a
// caller error. Resolved indices are unique and ascending.
func (s GeneSet) Resolve(rowByGene map[core.GeneID]int, universe int) (Resolved, error) {
	if len(s.Indices) > 0 {
		seen := make(map[int]struct{}, len(s.Indices))
		out := make([]int, 0, len(s.Indices))
		for _, i := range s.Indices {
			if i < 0 || i >= universe {
				return Resolved{}, fmt.Errorf("%w: %q index %d outside [0,%d)",
					core.ErrSetOutOfRange, s.Name, i, universe)
			}
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			out = append(out, i)
		}
		sort.Ints(out)
		return Resolved{Name: s.Name, Indices: out}, nil
	}

	seen := make(map[int]struct{}, len(s.GeneIDs))
	out := make([]int, 0, len(s.GeneIDs))
	for _, id := range s.GeneIDs {
		row, ok := rowByGene[id]
		if !ok {
			// resolution gap: silently reduces effective set size
			continue
		}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	sort.Ints(out)
	return Resolved{Name: s.Name, Indices: out}, nil
}

// ResolveAll resolves every set in the collection and discards sets whose
// resolved size falls below minSize. The caller decides whether an empty
// result is fatal.
func (c Collection) ResolveAll(rowByGene map[core.GeneID]int, universe, minSize int) ([]Resolved, error) {
	if len(c) == 0 {
		return nil, core.ErrEmptyCollection
	}
	resolved := make([]Resolved, 0, len(c))
	for _, set := range c {
		r, err := set.Resolve(rowByGene, universe)
		if err != nil {
			return nil, err
		}
		if r.Size() < minSize {
			continue
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}
