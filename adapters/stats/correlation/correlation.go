package correlation

import (
	"github.com/montanaflynn/stats"
)

// VIF derives the variance-inflation factor implied by a mean intra-set
// correlation for a set of m genes: 1 + correlation*(m-1).
func VIF(correlation float64, m int) float64 {
	return 1 + correlation*float64(m-1)
}

// Estimate computes the mean pairwise Pearson correlation between the
// residual rows selected by indices. Pure function of its inputs; cost is
// quadratic in the subset size. Pairs with degenerate variance are skipped.
// Subsets smaller than two genes have no pairs and estimate to zero.
func Estimate(residuals [][]float64, indices []int) float64 {
	if len(indices) < 2 {
		return 0
	}

	sum := 0.0
	pairs := 0
	for a := 0; a < len(indices)-1; a++ {
		for b := a + 1; b < len(indices); b++ {
			r, err := stats.Pearson(residuals[indices[a]], residuals[indices[b]])
			if err != nil {
				// constant residual row: contributes no correlation signal
				continue
			}
			sum += r
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}
