package fit

import (
	"fmt"
	"math"

	"goenrich/domain/core"
)

// Family tags the model family that produced the per-gene statistics.
// The two families disagree on which statistic is reported and on how
// residual degrees of freedom are shaped, so downstream code dispatches
// on this tag exactly once at entry.
type Family string

const (
	// FamilyLinear is the ordinary-least-squares family: t-statistics per
	// gene plus scalar residual and total degrees of freedom.
	FamilyLinear Family = "ls"
	// FamilyMixed is the mixed-model family: standardized z-statistics per
	// gene plus per-gene, per-coefficient residual degrees of freedom.
	FamilyMixed Family = "mixed"
)

// ModelFit is the read-only result of an upstream differential-expression
// model fit. It is the single input consumed by the enrichment engine.
type ModelFit struct {
	Family  Family             `json:"family"`
	GeneIDs []core.GeneID      `json:"gene_ids"`
	Coefs   []core.Coefficient `json:"coefs"`

	// Statistics maps coefficient -> per-gene statistic, row-aligned with
	// GeneIDs. Linear family: moderated t. Mixed family: standardized z.
	Statistics map[core.Coefficient][]float64 `json:"statistics"`

	// Residuals is genes x samples. Used only for intra-set correlation
	// estimation. ResidualGeneIDs, when set, gives the row order of
	// Residuals; RestrictResiduals aligns it to GeneIDs.
	Residuals       [][]float64   `json:"residuals"`
	ResidualGeneIDs []core.GeneID `json:"residual_gene_ids,omitempty"`

	// Linear family only
	DFResidual float64 `json:"df_residual,omitempty"`
	DFTotal    float64 `json:"df_total,omitempty"`

	// Mixed family only: coefficient -> per-gene residual df
	DFResidualByCoef map[core.Coefficient][]float64 `json:"df_residual_by_coef,omitempty"`
}

// NGenes returns the number of genes in the fit.
func (f *ModelFit) NGenes() int {
	return len(f.GeneIDs)
}

// HasCoefficient reports whether the fit carries statistics for coef.
func (f *ModelFit) HasCoefficient(coef core.Coefficient) bool {
	_, ok := f.Statistics[coef]
	return ok
}

// StatisticsFor returns the per-gene statistic vector for coef.
func (f *ModelFit) StatisticsFor(coef core.Coefficient) ([]float64, error) {
	stat, ok := f.Statistics[coef]
	if !ok {
		return nil, core.NewCoefficientError(coef.String())
	}
	if len(stat) != f.NGenes() {
		return nil, fmt.Errorf("statistic vector for %q has %d entries, fit has %d genes",
			coef, len(stat), f.NGenes())
	}
	return stat, nil
}

// WorkingDF returns the degrees of freedom used for downstream t-tests:
// min(residual df, G-2) for the linear family, min(mean per-gene residual
// df, G-2) for the mixed family.
func (f *ModelFit) WorkingDF(coef core.Coefficient) (float64, error) {
	g := float64(f.NGenes())
	switch f.Family {
	case FamilyLinear:
		return math.Min(f.DFResidual, g-2), nil
	case FamilyMixed:
		dfs, ok := f.DFResidualByCoef[coef]
		if !ok || len(dfs) == 0 {
			return 0, fmt.Errorf("%w: no residual df for coefficient %q", core.ErrUnknownFamily, coef)
		}
		sum := 0.0
		for _, d := range dfs {
			sum += d
		}
		return math.Min(sum/float64(len(dfs)), g-2), nil
	default:
		return 0, core.ErrUnknownFamily
	}
}

// IndexByGene builds a lookup from gene ID to fit row position.
func (f *ModelFit) IndexByGene() map[core.GeneID]int {
	idx := make(map[core.GeneID]int, len(f.GeneIDs))
	for i, id := range f.GeneIDs {
		idx[id] = i
	}
	return idx
}

// Validate enforces the fit preconditions: a recognized family, residuals
// present, unique non-empty gene identifiers, and family-specific degrees
// of freedom. Any violation is fatal for the whole computation.
func (f *ModelFit) Validate() error {
	switch f.Family {
	case FamilyLinear, FamilyMixed:
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownFamily, f.Family)
	}

	if len(f.Residuals) == 0 {
		return core.ErrMissingResiduals
	}
	if len(f.GeneIDs) == 0 {
		return core.ErrInvalidGeneIDs
	}
	seen := make(map[core.GeneID]struct{}, len(f.GeneIDs))
	for _, id := range f.GeneIDs {
		if id == "" {
			return core.ErrInvalidGeneIDs
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate %q", core.ErrInvalidGeneIDs, id)
		}
		seen[id] = struct{}{}
	}

	if f.Family == FamilyLinear && f.DFResidual <= 0 {
		return fmt.Errorf("%w: non-positive residual df", core.ErrPrecondition)
	}
	if f.Family == FamilyMixed && len(f.DFResidualByCoef) == 0 {
		return fmt.Errorf("%w: mixed fit without per-coefficient residual df", core.ErrPrecondition)
	}

	return nil
}

// RestrictResiduals reorders the residual matrix to exactly the fit's gene
// identifier ordering. A fit gene without a residual row is a precondition
// failure. No-op when ResidualGeneIDs is unset (rows already aligned).
func (f *ModelFit) RestrictResiduals() error {
	if f.ResidualGeneIDs == nil {
		if len(f.Residuals) != len(f.GeneIDs) {
			return fmt.Errorf("%w: %d residual rows for %d genes",
				core.ErrMissingResiduals, len(f.Residuals), len(f.GeneIDs))
		}
		return nil
	}
	rowByGene := make(map[core.GeneID]int, len(f.ResidualGeneIDs))
	for i, id := range f.ResidualGeneIDs {
		rowByGene[id] = i
	}
	aligned := make([][]float64, len(f.GeneIDs))
	for i, id := range f.GeneIDs {
		row, ok := rowByGene[id]
		if !ok {
			return fmt.Errorf("%w: no residual row for gene %q", core.ErrMissingResiduals, id)
		}
		aligned[i] = f.Residuals[row]
	}
	f.Residuals = aligned
	f.ResidualGeneIDs = nil
	return nil
}
