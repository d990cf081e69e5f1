package ranksum

import (
	"math"
	"sort"

	"goenrich/internal/distributions"
)

// Result is the outcome of the correlation-adjusted rank-sum test for one
// index subset against the rest of the statistic vector.
type Result struct {
	// Delta is -(U - mu): positive when the subset ranks above the rest.
	Delta float64
	// SE is the null standard deviation of U under the assumed correlation.
	SE float64
	// Less and Greater are one-sided tail probabilities. Less is the
	// upper-tail survival of the upper-tail z score and Greater the
	// lower-tail CDF of the lower-tail z score; this asymmetric pairing
	// is part of the test's definition and must not be "fixed".
	Less    float64
	Greater float64
}

// Test performs a Mann-Whitney style two-sample rank test of the subset
// given by indices against the remaining statistics, with the null variance
// widened for intra-subset correlation under a normal-copula rank model.
// Tail probabilities come from a Student-t with df degrees of freedom
// (+Inf for normal tails). Callers must ensure 1 <= len(indices) < n.
func Test(statistics []float64, indices []int, correlation, df float64) Result {
	n := float64(len(statistics))
	ranks := Ranks(statistics)

	sumRanks := 0.0
	for _, i := range indices {
		sumRanks += ranks[i]
	}

	n1 := float64(len(indices))
	n2 := n - n1
	u := n1*n2 + n1*(n1+1)/2 - sumRanks
	mu := n1 * n2 / 2

	var sigma2 float64
	if correlation == 0 || n1 == 1 {
		sigma2 = n1 * n2 * (n + 1) / 12
	} else {
		// Pairwise covariance of the U statistic decomposed into
		// within-group and cross-group terms (bivariate-normal arcsines)
		sigma2 = math.Asin(1) * n1 * n2
		sigma2 += math.Asin((correlation+1)/2) * n1 * (n1 - 1) * n2
		sigma2 += math.Asin(correlation/2) * n1 * (n1 - 1) * n2 * (n2 - 1)
		sigma2 += math.Asin(0.5) * n1 * n2 * (n2 - 1)
		sigma2 /= 2 * math.Pi
	}

	if adj, tied := tieAdjustment(ranks); tied {
		sigma2 *= 1 - adj
	}

	sigma := math.Sqrt(sigma2)
	zLower := (u + 0.5 - mu) / sigma
	zUpper := (u - 0.5 - mu) / sigma

	return Result{
		Delta:   -(u - mu),
		SE:      sigma,
		Less:    distributions.TSurvival(zUpper, df),
		Greater: distributions.TCDF(zLower, df),
	}
}

// Ranks assigns 1-based ranks to data, averaging ranks within tie groups.
func Ranks(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return []float64{}
	}

	type pair struct {
		value float64
		index int
	}

	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		groupSize := j - i
		avgRank := float64(i+1) + float64(groupSize-1)/2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		i = j
	}
	return ranks
}

// tieAdjustment computes the standard variance shrinkage for tied ranks,
// sum(t^3 - t) over tie groups normalized by n(n+1)(n-1). The bool reports
// whether any tie exists.
func tieAdjustment(ranks []float64) (float64, bool) {
	counts := make(map[float64]float64, len(ranks))
	for _, r := range ranks {
		counts[r]++
	}
	if len(counts) == len(ranks) {
		return 0, false
	}

	n := float64(len(ranks))
	sum := 0.0
	for _, t := range counts {
		sum += t * (t + 1) * (t - 1)
	}
	return sum / (n * (n + 1) * (n - 1)), true
}
