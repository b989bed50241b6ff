package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	domstats "groupstat/domain/stats"
	"groupstat/internal/dataset"
)

// AssumptionEvaluator computes the distributional assumption checks that
// drive test selection. Sub-test failures are recoverable: the failing check
// comes back absent with a warning, and selection treats it as violated.
type AssumptionEvaluator struct{}

// NewAssumptionEvaluator creates a new evaluator
func NewAssumptionEvaluator() *AssumptionEvaluator {
	return &AssumptionEvaluator{}
}

// Evaluate computes normality and variance homogeneity for the grouped
// response, plus sphericity when a repeated-measures matrix is supplied.
func (e *AssumptionEvaluator) Evaluate(groups []dataset.Group, matrix *dataset.RepeatedMatrix, alpha float64) (domstats.AssumptionSet, []domstats.Warning) {
	var set domstats.AssumptionSet
	var warnings []domstats.Warning

	normality, groupP, err := e.normality(groups, alpha)
	if err != nil {
		warnings = append(warnings, domstats.Warning{
			Code:    domstats.WarnNormalityFailed,
			Message: err.Error(),
		})
	} else {
		set.Normality = normality
		set.GroupNormalityP = groupP
	}

	variance, err := e.varianceHomogeneity(groups, set.NormalitySatisfied(), alpha)
	if err != nil {
		warnings = append(warnings, domstats.Warning{
			Code:    domstats.WarnVarianceFailed,
			Message: err.Error(),
		})
	} else {
		set.Variance = variance
	}

	if matrix != nil {
		sphericity, err := e.sphericity(matrix, alpha)
		if err != nil {
			warnings = append(warnings, domstats.Warning{
				Code:    domstats.WarnSphericityFailed,
				Message: err.Error(),
			})
		} else {
			set.Sphericity = sphericity
		}
	}

	return set, warnings
}

// normality runs the per-group normality test. The check is significant when
// any single group rejects at alpha; the reported statistic and p-value are
// the worst (smallest-p) group's.
func (e *AssumptionEvaluator) normality(groups []dataset.Group, alpha float64) (*domstats.AssumptionCheck, map[string]float64, error) {
	groupP := make(map[string]float64, len(groups))
	var testName string
	worstP := math.Inf(1)
	var worstStat float64

	for _, g := range groups {
		name, stat, p, err := normalityTest(g.Values)
		if err != nil {
			return nil, nil, fmt.Errorf("normality of group %q: %w", g.Level, err)
		}
		testName = name
		groupP[g.Level] = p
		if p < worstP {
			worstP = p
			worstStat = stat
		}
	}

	check := &domstats.AssumptionCheck{
		TestName:  testName,
		Statistic: worstStat,
		PValue:    worstP,
		Key:       significanceKey(worstP, alpha),
	}
	return check, groupP, nil
}

// varianceHomogeneity picks the test by the normality outcome: the
// median-centered Levene test is robust when normality is violated (or could
// not be verified); Bartlett has more power when it holds.
func (e *AssumptionEvaluator) varianceHomogeneity(groups []dataset.Group, normal bool, alpha float64) (*domstats.AssumptionCheck, error) {
	if normal {
		return e.bartlett(groups, alpha)
	}
	return e.levene(groups, alpha)
}

// levene is the Brown-Forsythe variant: an ANOVA on absolute deviations from
// the group medians.
func (e *AssumptionEvaluator) levene(groups []dataset.Group, alpha float64) (*domstats.AssumptionCheck, error) {
	k := len(groups)
	var n int
	devs := make([][]float64, k)
	for i, g := range groups {
		if len(g.Values) < 2 {
			return nil, fmt.Errorf("group %q too small for variance test", g.Level)
		}
		med, err := stats.Median(g.Values)
		if err != nil {
			return nil, err
		}
		devs[i] = make([]float64, len(g.Values))
		for j, v := range g.Values {
			devs[i][j] = math.Abs(v - med)
		}
		n += len(g.Values)
	}

	grand := 0.0
	for _, d := range devs {
		for _, v := range d {
			grand += v
		}
	}
	grand /= float64(n)

	var ssb, ssw float64
	for _, d := range devs {
		gm := meanOf(d)
		ssb += float64(len(d)) * (gm - grand) * (gm - grand)
		for _, v := range d {
			ssw += (v - gm) * (v - gm)
		}
	}

	df1 := float64(k - 1)
	df2 := float64(n - k)
	if ssw == 0 {
		return nil, fmt.Errorf("zero within-group deviation: variance test undefined")
	}
	f := (ssb / df1) / (ssw / df2)
	p := fTestPValue(f, df1, df2)
	eta := f * df1 / (f*df1 + df2)

	return &domstats.AssumptionCheck{
		TestName:   "levene",
		Statistic:  f,
		PValue:     p,
		DF:         []float64{df1, df2},
		EffectSize: &eta,
		Key:        significanceKey(p, alpha),
	}, nil
}

// bartlett is the classical homogeneity test with its chi-squared statistic
func (e *AssumptionEvaluator) bartlett(groups []dataset.Group, alpha float64) (*domstats.AssumptionCheck, error) {
	k := len(groups)
	var n int
	vars := make([]float64, k)
	sizes := make([]float64, k)
	for i, g := range groups {
		if len(g.Values) < 2 {
			return nil, fmt.Errorf("group %q too small for variance test", g.Level)
		}
		v, err := stats.SampleVariance(g.Values)
		if err != nil {
			return nil, err
		}
		if v == 0 {
			return nil, fmt.Errorf("group %q has zero variance: variance test undefined", g.Level)
		}
		vars[i] = v
		sizes[i] = float64(len(g.Values))
		n += len(g.Values)
	}

	fn := float64(n)
	pooled := 0.0
	for i := range vars {
		pooled += (sizes[i] - 1) * vars[i]
	}
	pooled /= fn - float64(k)

	num := (fn - float64(k)) * math.Log(pooled)
	invSum := 0.0
	for i := range vars {
		num -= (sizes[i] - 1) * math.Log(vars[i])
		invSum += 1 / (sizes[i] - 1)
	}
	c := 1 + (invSum-1/(fn-float64(k)))/(3*float64(k-1))
	stat := num / c

	df := float64(k - 1)
	p := chiSquarePValue(stat, df)
	v := math.Sqrt(math.Max(stat, 0) / (fn * df))

	return &domstats.AssumptionCheck{
		TestName:   "bartlett",
		Statistic:  stat,
		PValue:     p,
		DF:         []float64{df},
		EffectSize: &v,
		Key:        significanceKey(p, alpha),
	}, nil
}

// sphericity runs Mauchly's test of sphericity on the subjects x conditions
// matrix, using the chi-squared approximation to -(n-1)*f*log(W).
func (e *AssumptionEvaluator) sphericity(m *dataset.RepeatedMatrix, alpha float64) (*domstats.AssumptionCheck, error) {
	n := len(m.Data)
	p := len(m.Levels)
	if p < 3 {
		return nil, fmt.Errorf("sphericity requires at least 3 conditions, got %d", p)
	}
	if n <= p {
		return nil, fmt.Errorf("sphericity requires more subjects (%d) than conditions (%d)", n, p)
	}

	// Covariance of conditions
	colMeans := make([]float64, p)
	for _, row := range m.Data {
		for j, v := range row {
			colMeans[j] += v
		}
	}
	for j := range colMeans {
		colMeans[j] /= float64(n)
	}
	cov := mat.NewDense(p, p, nil)
	for a := 0; a < p; a++ {
		for b := 0; b < p; b++ {
			var s float64
			for i := 0; i < n; i++ {
				s += (m.Data[i][a] - colMeans[a]) * (m.Data[i][b] - colMeans[b])
			}
			cov.Set(a, b, s/float64(n-1))
		}
	}

	// Project onto normalized Helmert contrasts: sphericity is a statement
	// about the covariance of condition differences, not of the conditions.
	c := helmert(p)
	var t mat.Dense
	t.Product(c, cov, c.T())

	q := p - 1
	det := mat.Det(&t)
	var trace float64
	for i := 0; i < q; i++ {
		trace += t.At(i, i)
	}
	if trace <= 0 || det <= 0 {
		return nil, fmt.Errorf("degenerate covariance: sphericity test undefined")
	}

	w := det / math.Pow(trace/float64(q), float64(q))
	if w > 1 {
		w = 1
	}

	df := float64(p)*float64(p-1)/2 - 1
	fq := float64(q)
	f := 1 - (2*fq*fq+fq+2)/(6*fq*float64(n-1))
	chi := -float64(n-1) * f * math.Log(w)
	pval := chiSquarePValue(chi, df)

	return &domstats.AssumptionCheck{
		TestName:  "mauchly",
		Statistic: w,
		PValue:    pval,
		DF:        []float64{df},
		Key:       significanceKey(pval, alpha),
	}, nil
}

// helmert builds the (p-1) x p orthonormal Helmert contrast matrix
func helmert(p int) *mat.Dense {
	c := mat.NewDense(p-1, p, nil)
	for i := 1; i < p; i++ {
		norm := math.Sqrt(float64(i) * float64(i+1))
		for j := 0; j < i; j++ {
			c.Set(i-1, j, 1/norm)
		}
		c.Set(i-1, i, -float64(i)/norm)
	}
	return c
}

// significanceKey applies the strict p < alpha rule
func significanceKey(p, alpha float64) domstats.SignificanceKey {
	if p < alpha {
		return domstats.KeySignificant
	}
	return domstats.KeyNonSignificant
}

func meanOf(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}
