package analysis

import (
	"math"

	domstats "groupstat/domain/stats"
)

// cohensD is the standardized mean difference with the pooled standard
// deviation. Undefined (ok=false) when either group has <= 1 observation or
// the pooled variance is zero with no mean difference to standardize.
func cohensD(a, b []float64) (d float64, ok bool) {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 <= 1 || n2 <= 1 {
		return 0, false
	}
	m1, m2 := meanOf(a), meanOf(b)
	v1, v2 := sampleVar(a, m1), sampleVar(b, m2)
	pooled := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))
	if pooled == 0 {
		if m1 == m2 {
			return 0, true
		}
		return 0, false
	}
	return (m1 - m2) / pooled, true
}

// rankBiserial converts the rank-sum z score into the r effect size
func rankBiserial(z float64, nTotal int) float64 {
	if nTotal == 0 {
		return 0
	}
	return math.Abs(z) / math.Sqrt(float64(nTotal))
}

// cramersV is the chi-squared association effect size for an r x c table
func cramersV(stat, n float64, rows, cols int) float64 {
	minDim := float64(rows - 1)
	if c := float64(cols - 1); c < minDim {
		minDim = c
	}
	if n == 0 || minDim == 0 {
		return 0
	}
	return math.Sqrt(stat / n / minDim)
}

func effectOf(value float64, label domstats.EffectLabel) *domstats.EffectSize {
	return &domstats.EffectSize{Value: value, Label: label}
}
