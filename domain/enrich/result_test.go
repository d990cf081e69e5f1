package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validResult() Result {
	return Result{
		Set:       "pathway",
		Coef:      "treatment",
		NGenes:    12,
		Delta:     30.0,
		SE:        10.0,
		PLess:     0.99,
		PGreater:  0.01,
		PValue:    0.02,
		Direction: DirectionUp,
		FDR:       0.04,
	}
}

func TestResultValidate(t *testing.T) {
	require.NoError(t, validResult().Validate())

	r := validResult()
	r.NGenes = 0
	assert.Error(t, r.Validate())

	r = validResult()
	r.PValue = 1.2
	assert.Error(t, r.Validate())

	r = validResult()
	r.Direction = "Sideways"
	assert.Error(t, r.Validate())
}

func TestSortByPValue_TiesBreakBySetName(t *testing.T) {
	tbl := Table{
		{Set: "b", PValue: 0.5},
		{Set: "a", PValue: 0.5},
		{Set: "c", PValue: 0.1},
	}
	tbl.SortByPValue()

	assert.Equal(t, "c", string(tbl[0].Set))
	assert.Equal(t, "a", string(tbl[1].Set))
	assert.Equal(t, "b", string(tbl[2].Set))
}

func TestAdjustFDR_KnownValues(t *testing.T) {
	// p = {0.01, 0.02, 0.03, 0.04}: q_i = p_i * 4 / rank, already monotone
	tbl := Table{
		{Set: "s1", PValue: 0.01},
		{Set: "s2", PValue: 0.02},
		{Set: "s3", PValue: 0.03},
		{Set: "s4", PValue: 0.04},
	}
	tbl.AdjustFDR()

	assert.InDelta(t, 0.04, tbl[0].FDR, 1e-12)
	assert.InDelta(t, 0.04, tbl[1].FDR, 1e-12)
	assert.InDelta(t, 0.04, tbl[2].FDR, 1e-12)
	assert.InDelta(t, 0.04, tbl[3].FDR, 1e-12)
}

func TestAdjustFDR_CumulativeMinimum(t *testing.T) {
	// raw q = {0.03, 0.15, 0.2}; no step-down needed for rank 1, and the
	// smaller downstream q never leaks backward past a smaller raw q
	tbl := Table{
		{Set: "s1", PValue: 0.01},
		{Set: "s2", PValue: 0.10},
		{Set: "s3", PValue: 0.20},
	}
	tbl.AdjustFDR()

	assert.InDelta(t, 0.03, tbl[0].FDR, 1e-12)
	assert.InDelta(t, 0.15, tbl[1].FDR, 1e-12)
	assert.InDelta(t, 0.20, tbl[2].FDR, 1e-12)
}

func TestAdjustFDR_StepDownShrinksEarlierQ(t *testing.T) {
	// rank 2 raw q = 0.5*3/2 = 0.75 exceeds rank 3 raw q = 0.51*3/3 = 0.51,
	// so rank 2 takes the downstream value
	tbl := Table{
		{Set: "s1", PValue: 0.01},
		{Set: "s2", PValue: 0.50},
		{Set: "s3", PValue: 0.51},
	}
	tbl.AdjustFDR()

	assert.InDelta(t, 0.03, tbl[0].FDR, 1e-12)
	assert.InDelta(t, 0.51, tbl[1].FDR, 1e-12)
	assert.InDelta(t, 0.51, tbl[2].FDR, 1e-12)
}

func TestAdjustFDR_ClampsAtOne(t *testing.T) {
	tbl := Table{
		{Set: "s1", PValue: 0.9},
		{Set: "s2", PValue: 0.95},
	}
	tbl.AdjustFDR()

	for _, r := range tbl {
		assert.LessOrEqual(t, r.FDR, 1.0)
		assert.GreaterOrEqual(t, r.FDR, r.PValue)
	}
}

func TestAdjustFDR_SingleRowAndEmpty(t *testing.T) {
	tbl := Table{{Set: "only", PValue: 0.3}}
	tbl.AdjustFDR()
	assert.InDelta(t, 0.3, tbl[0].FDR, 1e-12)

	empty := Table{}
	empty.AdjustFDR() // must not panic
}

func TestAdjustFDR_NeverBelowPValue(t *testing.T) {
	tbl := Table{
		{Set: "a", PValue: 0.001},
		{Set: "b", PValue: 0.04},
		{Set: "c", PValue: 0.2},
		{Set: "d", PValue: 0.6},
		{Set: "e", PValue: 0.99},
	}
	tbl.AdjustFDR()

	for _, r := range tbl {
		assert.GreaterOrEqual(t, r.FDR, r.PValue, "set %s", r.Set)
	}
}
