package enrich

import (
	"fmt"
	"sort"

	"goenrich/domain/core"
)

// Direction is the categorical call for a tested gene set: whether the
// set's statistics sit above or below the rest of the gene universe.
type Direction string

const (
	DirectionUp   Direction = "Up"
	DirectionDown Direction = "Down"
)

// Result is one competitive test outcome, one row per gene set per
// coefficient. Immutable once computed.
// INVARIANTS:
// - NGenes always present and > 0
// - PLess, PGreater, PValue, FDR in [0.0, 1.0]
// - FDR >= PValue after adjustment
type Result struct {
	Set         core.SetName     `json:"set"`
	Coef        core.Coefficient `json:"coef"`
	NGenes      int              `json:"n_genes"`
	Correlation float64          `json:"correlation"`
	Delta       float64          `json:"delta"`
	SE          float64          `json:"se"`
	PLess       float64          `json:"p_less"`
	PGreater    float64          `json:"p_greater"`
	PValue      float64          `json:"p_value"`
	Direction   Direction        `json:"direction"`
	FDR         float64          `json:"fdr"`
}

// Validate checks the result invariants.
func (r Result) Validate() error {
	if r.NGenes <= 0 {
		return fmt.Errorf("NGenes must be > 0, got %d", r.NGenes)
	}
	if r.PValue < 0.0 || r.PValue > 1.0 {
		return fmt.Errorf("PValue must be in [0.0, 1.0], got %f", r.PValue)
	}
	if r.Direction != DirectionUp && r.Direction != DirectionDown {
		return fmt.Errorf("Direction must be Up or Down, got %q", r.Direction)
	}
	return nil
}

// Table is the output of one enrichment run.
type Table []Result

// SortByPValue orders rows ascending by two-sided p-value, breaking ties
// by set name so repeated runs produce identical tables.
func (t Table) SortByPValue() {
	sort.SliceStable(t, func(i, j int) bool {
		if t[i].PValue != t[j].PValue {
			return t[i].PValue < t[j].PValue
		}
		return t[i].Set < t[j].Set
	})
}

// AdjustFDR applies Benjamini-Hochberg correction to the table's p-values
// in place. The whole table is one FDR family; batch callers adjust each
// coefficient's subtable separately.
func (t Table) AdjustFDR() {
	m := len(t)
	if m == 0 {
		return
	}

	// Rank by p-value ascending
	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t[order[a]].PValue < t[order[b]].PValue
	})

	// q_i = p_i * m / rank_i, then enforce monotonicity with a cumulative
	// minimum from the largest rank down
	q := make([]float64, m)
	for i, idx := range order {
		rank := i + 1
		q[i] = t[idx].PValue * float64(m) / float64(rank)
	}
	for i := m - 2; i >= 0; i-- {
		if q[i] > q[i+1] {
			q[i] = q[i+1]
		}
	}
	for i, idx := range order {
		if q[i] > 1.0 {
			q[i] = 1.0
		}
		t[idx].FDR = q[i]
	}
}
