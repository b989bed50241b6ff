package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Thin wrappers over gonum's distributions so the rest of the engine deals in
// p-values, not CDFs.

// tTestPValue is the two-tailed p-value for a t statistic
func tTestPValue(t, df float64) float64 {
	if df <= 0 {
		return 1.0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - dist.CDF(math.Abs(t)))
}

// fTestPValue is the upper-tail p-value for an F statistic
func fTestPValue(f, df1, df2 float64) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(f) {
		return 1.0
	}
	dist := distuv.F{D1: df1, D2: df2}
	return 1 - dist.CDF(f)
}

// chiSquarePValue is the upper-tail p-value for a chi-squared statistic
func chiSquarePValue(x, df float64) float64 {
	if df <= 0 || math.IsNaN(x) {
		return 1.0
	}
	if x <= 0 {
		return 1.0
	}
	dist := distuv.ChiSquared{K: df}
	return 1 - dist.CDF(x)
}

// normalCDF is the standard normal CDF
func normalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normalQuantile is the standard normal inverse CDF
func normalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// twoTailedZ converts a z score to a two-tailed p-value
func twoTailedZ(z float64) float64 {
	p := 2 * (1 - normalCDF(math.Abs(z)))
	if p > 1 {
		p = 1
	}
	return p
}
