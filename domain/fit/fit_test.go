package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenrich/domain/core"
)

func validLinearFit() *ModelFit {
	return &ModelFit{
		Family:  FamilyLinear,
		GeneIDs: []core.GeneID{"g1", "g2", "g3", "g4"},
		Statistics: map[core.Coefficient][]float64{
			"treatment": {1.2, -0.4, 2.1, 0.3},
		},
		Residuals: [][]float64{
			{0.1, -0.1, 0.2},
			{0.0, 0.3, -0.3},
			{-0.2, 0.1, 0.1},
			{0.4, -0.2, -0.2},
		},
		DFResidual: 10,
		DFTotal:    12,
	}
}

func TestValidate_AcceptsWellFormedFit(t *testing.T) {
	require.NoError(t, validLinearFit().Validate())
}

func TestValidate_RejectsMissingResiduals(t *testing.T) {
	f := validLinearFit()
	f.Residuals = nil

	err := f.Validate()
	assert.ErrorIs(t, err, core.ErrMissingResiduals)
	assert.True(t, core.IsPreconditionError(err))
}

func TestValidate_RejectsDuplicateGeneIDs(t *testing.T) {
	f := validLinearFit()
	f.GeneIDs[2] = "g1"

	assert.ErrorIs(t, f.Validate(), core.ErrInvalidGeneIDs)
}

func TestValidate_RejectsEmptyGeneID(t *testing.T) {
	f := validLinearFit()
	f.GeneIDs[0] = ""

	assert.ErrorIs(t, f.Validate(), core.ErrInvalidGeneIDs)
}

func TestValidate_RejectsUnknownFamily(t *testing.T) {
	f := validLinearFit()
	f.Family = "bayesian"

	assert.ErrorIs(t, f.Validate(), core.ErrUnknownFamily)
}

func TestValidate_RejectsMixedFitWithoutPerGeneDF(t *testing.T) {
	f := validLinearFit()
	f.Family = FamilyMixed

	assert.True(t, core.IsPreconditionError(f.Validate()))
}

func TestStatisticsFor_UnknownCoefficient(t *testing.T) {
	f := validLinearFit()

	_, err := f.StatisticsFor("sex")
	assert.ErrorIs(t, err, core.ErrUnknownCoefficient)
}

func TestWorkingDF_LinearFamily(t *testing.T) {
	f := validLinearFit()

	// G-2 = 2 caps the residual df of 10
	df, err := f.WorkingDF("treatment")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, df, 1e-12)

	f.DFResidual = 1.5
	df, err = f.WorkingDF("treatment")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, df, 1e-12)
}

func TestWorkingDF_MixedFamilyAveragesPerGeneDF(t *testing.T) {
	f := validLinearFit()
	f.Family = FamilyMixed
	f.DFResidualByCoef = map[core.Coefficient][]float64{
		"treatment": {1.0, 1.5, 2.0, 1.5},
	}

	df, err := f.WorkingDF("treatment")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, df, 1e-12)
}

func TestRestrictResiduals_ReordersToFitGenes(t *testing.T) {
	f := validLinearFit()
	f.Residuals = [][]float64{
		{4, 4, 4}, // g4
		{2, 2, 2}, // g2
		{1, 1, 1}, // g1
		{3, 3, 3}, // g3
	}
	f.ResidualGeneIDs = []core.GeneID{"g4", "g2", "g1", "g3"}

	require.NoError(t, f.RestrictResiduals())
	assert.Equal(t, []float64{1, 1, 1}, f.Residuals[0])
	assert.Equal(t, []float64{4, 4, 4}, f.Residuals[3])
	assert.Nil(t, f.ResidualGeneIDs)
}

func TestRestrictResiduals_MissingRowIsFatal(t *testing.T) {
	f := validLinearFit()
	f.Residuals = f.Residuals[:3]
	f.ResidualGeneIDs = []core.GeneID{"g1", "g2", "g3"}

	assert.ErrorIs(t, f.RestrictResiduals(), core.ErrMissingResiduals)
}

func TestRestrictResiduals_RowCountMismatchWithoutIDs(t *testing.T) {
	f := validLinearFit()
	f.Residuals = f.Residuals[:2]

	assert.ErrorIs(t, f.RestrictResiduals(), core.ErrMissingResiduals)
}

func TestIndexByGene(t *testing.T) {
	idx := validLinearFit().IndexByGene()

	assert.Equal(t, 0, idx["g1"])
	assert.Equal(t, 3, idx["g4"])
	assert.Len(t, idx, 4)
}

func TestWorkingDF_UnknownFamilyErrors(t *testing.T) {
	f := validLinearFit()
	f.Family = "other"

	_, err := f.WorkingDF("treatment")
	assert.Error(t, err)
	assert.False(t, math.IsInf(f.DFTotal, 1))
}
