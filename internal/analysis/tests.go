package analysis

import (
	"math"
	"math/rand"

	"groupstat/internal/errors"
)

// welchT runs the unequal-variance two-sample t-test and returns the
// statistic, Welch-Satterthwaite df and two-tailed p-value.
func welchT(a, b []float64) (t, df, p float64, err error) {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 < 2 || n2 < 2 {
		return 0, 0, 0, errors.InsufficientObservations("group", int(math.Min(n1, n2)), 2)
	}
	m1, m2 := meanOf(a), meanOf(b)
	v1, v2 := sampleVar(a, m1), sampleVar(b, m2)

	se := math.Sqrt(v1/n1 + v2/n2)
	if se == 0 {
		return 0, 0, 0, errors.InvalidInput("zero variance in both groups")
	}
	t = (m1 - m2) / se
	df = math.Pow(v1/n1+v2/n2, 2) /
		(math.Pow(v1/n1, 2)/(n1-1) + math.Pow(v2/n2, 2)/(n2-1))
	return t, df, tTestPValue(t, df), nil
}

// pairedT runs the paired t-test on two equal-length samples
func pairedT(a, b []float64) (t, df, p float64, err error) {
	if len(a) != len(b) {
		return 0, 0, 0, errors.InvalidInput("paired samples differ in length")
	}
	n := len(a)
	if n < 2 {
		return 0, 0, 0, errors.InsufficientObservations("pairs", n, 2)
	}
	d := make([]float64, n)
	for i := range a {
		d[i] = a[i] - b[i]
	}
	m := meanOf(d)
	sd := math.Sqrt(sampleVar(d, m))
	if sd == 0 {
		return 0, 0, 0, errors.InvalidInput("zero variance in paired differences")
	}
	t = m / (sd / math.Sqrt(float64(n)))
	df = float64(n - 1)
	return t, df, tTestPValue(t, df), nil
}

// mannWhitney runs the rank-sum test with midranks, tie-corrected variance
// and continuity correction. Returns U for the first group and the z score
// the p-value came from.
func mannWhitney(a, b []float64) (u, z, p float64, err error) {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 < 1 || n2 < 1 {
		return 0, 0, 0, errors.InsufficientObservations("group", 0, 1)
	}
	pooled := make([]float64, 0, len(a)+len(b))
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)
	ranks, tieTerm := midranks(pooled)

	var r1 float64
	for i := 0; i < len(a); i++ {
		r1 += ranks[i]
	}
	u = r1 - n1*(n1+1)/2

	n := n1 + n2
	mu := n1 * n2 / 2
	sigma2 := n1 * n2 / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if sigma2 <= 0 {
		return u, 0, 0, errors.InvalidInput("all values tied: rank test undefined")
	}
	diff := u - mu
	// Continuity correction toward the mean
	switch {
	case diff > 0:
		diff -= 0.5
	case diff < 0:
		diff += 0.5
	}
	z = diff / math.Sqrt(sigma2)
	return u, z, twoTailedZ(z), nil
}

// wilcoxonSignedRank runs the paired rank test. Zero differences are dropped
// before ranking, following the standard treatment.
func wilcoxonSignedRank(a, b []float64) (w, z, p float64, err error) {
	if len(a) != len(b) {
		return 0, 0, 0, errors.InvalidInput("paired samples differ in length")
	}
	var abs []float64
	var pos []bool
	for i := range a {
		d := a[i] - b[i]
		if d == 0 {
			continue
		}
		abs = append(abs, math.Abs(d))
		pos = append(pos, d > 0)
	}
	m := float64(len(abs))
	if m < 1 {
		return 0, 0, 0, errors.InvalidInput("all paired differences are zero")
	}

	ranks, tieTerm := midranks(abs)
	for i, r := range ranks {
		if pos[i] {
			w += r
		}
	}

	mu := m * (m + 1) / 4
	sigma2 := m*(m+1)*(2*m+1)/24 - tieTerm/48
	if sigma2 <= 0 {
		return w, 0, 0, errors.InvalidInput("degenerate signed-rank variance")
	}
	diff := w - mu
	switch {
	case diff > 0:
		diff -= 0.5
	case diff < 0:
		diff += 0.5
	}
	z = diff / math.Sqrt(sigma2)
	return w, z, twoTailedZ(z), nil
}

// chiSquareStat computes the Pearson statistic (no continuity correction),
// its df and the smallest expected cell count.
func chiSquareStat(table [][]float64) (stat, df, minExpected float64, err error) {
	rows := len(table)
	if rows < 2 || len(table[0]) < 2 {
		return 0, 0, 0, errors.InvalidInput("contingency table needs at least 2 rows and 2 columns")
	}
	cols := len(table[0])

	rowTot := make([]float64, rows)
	colTot := make([]float64, cols)
	var total float64
	for i := range table {
		for j, v := range table[i] {
			rowTot[i] += v
			colTot[j] += v
			total += v
		}
	}
	if total == 0 {
		return 0, 0, 0, errors.InvalidInput("empty contingency table")
	}

	minExpected = math.Inf(1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			expected := rowTot[i] * colTot[j] / total
			if expected < minExpected {
				minExpected = expected
			}
			if expected > 0 {
				d := table[i][j] - expected
				stat += d * d / expected
			}
		}
	}
	df = float64((rows - 1) * (cols - 1))
	return stat, df, minExpected, nil
}

// fisherExact2x2 computes the two-sided exact p-value by summing the
// hypergeometric probabilities of all tables at least as extreme as the
// observed one, and the sample odds ratio (orOK false when a cell is zero).
func fisherExact2x2(table [][]float64) (p, oddsRatio float64, orOK bool, err error) {
	if len(table) != 2 || len(table[0]) != 2 || len(table[1]) != 2 {
		return 0, 0, false, errors.InvalidInput("exact test table must be 2x2")
	}
	a := table[0][0]
	r1 := table[0][0] + table[0][1]
	r2 := table[1][0] + table[1][1]
	c1 := table[0][0] + table[1][0]

	lo := math.Max(0, c1-r2)
	hi := math.Min(r1, c1)

	logObs := hypergeomLogProb(a, r1, r2, c1)
	const slack = 1e-7
	for x := lo; x <= hi; x++ {
		lp := hypergeomLogProb(x, r1, r2, c1)
		if lp <= logObs+slack {
			p += math.Exp(lp)
		}
	}
	p = clamp01(p)

	b, c, d := table[0][1], table[1][0], table[1][1]
	if a > 0 && b > 0 && c > 0 && d > 0 {
		oddsRatio = (a * d) / (b * c)
		orOK = true
	}
	return p, oddsRatio, orOK, nil
}

// hypergeomLogProb is log P(X = x) with margins (r1, r2) and first column c1
func hypergeomLogProb(x, r1, r2, c1 float64) float64 {
	return lchoose(r1, x) + lchoose(r2, c1-x) - lchoose(r1+r2, c1)
}

func lchoose(n, k float64) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	ln, _ := math.Lgamma(n + 1)
	lk, _ := math.Lgamma(k + 1)
	lnk, _ := math.Lgamma(n - k + 1)
	return ln - lk - lnk
}

// monteCarloTrials is the number of simulated tables behind an approximate
// exact p-value for tables larger than 2x2.
const monteCarloTrials = 2000

// fisherMonteCarlo estimates the exact p-value of an r x c table by
// simulating tables with fixed margins (random column-label permutations)
// and comparing Pearson statistics. Seeded for reproducibility.
func fisherMonteCarlo(table [][]float64, seed int64) (p float64, err error) {
	obs, _, _, err := chiSquareStat(table)
	if err != nil {
		return 0, err
	}

	var rowOf, colOf []int
	for i := range table {
		for j, v := range table[i] {
			for c := 0; c < int(v); c++ {
				rowOf = append(rowOf, i)
				colOf = append(colOf, j)
			}
		}
	}

	rng := rand.New(rand.NewSource(seed))
	sim := make([][]float64, len(table))
	for i := range sim {
		sim[i] = make([]float64, len(table[0]))
	}

	extreme := 0
	for trial := 0; trial < monteCarloTrials; trial++ {
		rng.Shuffle(len(colOf), func(a, b int) { colOf[a], colOf[b] = colOf[b], colOf[a] })
		for i := range sim {
			for j := range sim[i] {
				sim[i][j] = 0
			}
		}
		for idx, r := range rowOf {
			sim[r][colOf[idx]]++
		}
		stat, _, _, serr := chiSquareStat(sim)
		if serr != nil {
			return 0, serr
		}
		if stat >= obs-1e-9 {
			extreme++
		}
	}
	return float64(1+extreme) / float64(1+monteCarloTrials), nil
}

func sampleVar(v []float64, mean float64) float64 {
	if len(v) < 2 {
		return 0
	}
	var ss float64
	for _, x := range v {
		ss += (x - mean) * (x - mean)
	}
	return ss / float64(len(v)-1)
}
