package trial

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// welchTTest runs an unequal-variance two-sample t-test and reports the
// statistic and two-sided p-value. NaN observations are dropped before
// testing. ok is false when either group has fewer than two usable
// observations or when both groups are constant (zero pooled standard error).
func welchTTest(group1, group2 []float64) (tStat, pValue float64, ok bool) {
	g1 := dropNaN(group1)
	g2 := dropNaN(group2)
	if len(g1) < 2 || len(g2) < 2 {
		return 0, 0, false
	}

	mean1, _ := stats.Mean(g1)
	mean2, _ := stats.Mean(g2)
	var1, _ := stats.SampleVariance(g1)
	var2, _ := stats.SampleVariance(g2)

	n1 := float64(len(g1))
	n2 := float64(len(g2))

	se2 := var1/n1 + var2/n2
	if se2 == 0 {
		return 0, 0, false
	}
	tStat = (mean1 - mean2) / math.Sqrt(se2)

	// Welch-Satterthwaite degrees of freedom.
	df := se2 * se2 / (var1*var1/(n1*n1*(n1-1)) + var2*var2/(n2*n2*(n2-1)))

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue = 2 * tDist.CDF(-math.Abs(tStat))
	return tStat, pValue, true
}

func dropNaN(data []float64) []float64 {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	return clean
}
