package analysis

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// Studentized range distribution, needed for Tukey's HSD. The CDF is the
// chi-mixture of the range of k standard normals:
//
//	P(Q <= q) = integral over s of f_nu(s) * P(range_k <= q*s) ds
//
// evaluated with fixed-order Gauss-Legendre quadrature.

// normalRangeCDF is P(range of k iid standard normals <= q)
func normalRangeCDF(q float64, k int) float64 {
	if q <= 0 {
		return 0
	}
	inner := func(z float64) float64 {
		span := normalCDF(z) - normalCDF(z-q)
		if span <= 0 {
			return 0
		}
		phi := math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
		return phi * math.Pow(span, float64(k-1))
	}
	return clamp01(float64(k) * quad.Fixed(inner, -8, 8+q, 128, nil, 0))
}

// studentizedRangeCDF is P(Q <= q) for k groups and nu error df
func studentizedRangeCDF(q float64, k int, nu float64) float64 {
	if q <= 0 {
		return 0
	}
	if nu > 5000 {
		return normalRangeCDF(q, k)
	}

	lgHalf, _ := math.Lgamma(nu / 2)
	logConst := (1-nu/2)*math.Log(2) + (nu/2)*math.Log(nu) - lgHalf

	outer := func(s float64) float64 {
		if s <= 0 {
			return 0
		}
		logDensity := logConst + (nu-1)*math.Log(s) - nu*s*s/2
		return math.Exp(logDensity) * normalRangeCDF(q*s, k)
	}

	// The scaled-chi density concentrates around 1 with spread ~1/sqrt(nu)
	upper := 1 + 10/math.Sqrt(nu)
	if upper < 4 {
		upper = 4
	}
	return clamp01(quad.Fixed(outer, 0, upper, 160, nil, 0))
}

// studentizedRangeQuantile inverts the CDF by bisection
func studentizedRangeQuantile(p float64, k int, nu float64) float64 {
	lo, hi := 0.0, 100.0
	for i := 0; i < 80; i++ {
		mid := (lo + hi) / 2
		if studentizedRangeCDF(mid, k, nu) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
