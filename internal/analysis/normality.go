package analysis

import (
	"math"
	"sort"

	"groupstat/internal/errors"
)

// shapiroWilkMaxN is the sample size above which the Shapiro-Wilk
// approximation is swapped for the Lilliefors-corrected KS test.
const shapiroWilkMaxN = 50

// normalityTest runs the appropriate normality test for the sample size and
// returns the test name, statistic and p-value. Degenerate input (constant
// data, n < 3) is an error the caller downgrades to a warning.
func normalityTest(values []float64) (name string, stat, p float64, err error) {
	if len(values) < 3 {
		return "", 0, 0, errors.InsufficientObservations("sample", len(values), 3)
	}
	if len(values) <= shapiroWilkMaxN {
		stat, p, err = shapiroWilk(values)
		return "shapiro_wilk", stat, p, err
	}
	stat, p, err = lilliefors(values)
	return "lilliefors", stat, p, err
}

// shapiroWilk computes the W statistic and p-value using Royston's
// approximation to the weights and the log-normal transform of 1-W.
func shapiroWilk(values []float64) (w, p float64, err error) {
	n := len(values)
	x := append([]float64(nil), values...)
	sort.Float64s(x)

	if x[0] == x[n-1] {
		return 0, 0, errors.InvalidInput("constant data: normality test undefined")
	}

	// Expected normal order statistics
	m := make([]float64, n)
	var m2 float64
	fn := float64(n)
	for i := 0; i < n; i++ {
		m[i] = normalQuantile((float64(i+1) - 0.375) / (fn + 0.25))
		m2 += m[i] * m[i]
	}

	a := make([]float64, n)
	if n == 3 {
		a[0] = -math.Sqrt(0.5)
		a[2] = math.Sqrt(0.5)
	} else {
		rsn := 1 / math.Sqrt(fn)
		an := poly([]float64{-2.706056, 4.434685, -2.071190, -0.147981, 0.221157, 0}, rsn) +
			m[n-1]/math.Sqrt(m2)
		var phi float64
		if n > 5 {
			an1 := poly([]float64{-3.582633, 5.682633, -1.752461, -0.293762, 0.042981, 0}, rsn) +
				m[n-2]/math.Sqrt(m2)
			phi = (m2 - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) /
				(1 - 2*an*an - 2*an1*an1)
			for i := 2; i < n-2; i++ {
				a[i] = m[i] / math.Sqrt(phi)
			}
			a[n-2] = an1
			a[1] = -an1
		} else {
			phi = (m2 - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
			for i := 1; i < n-1; i++ {
				a[i] = m[i] / math.Sqrt(phi)
			}
		}
		a[n-1] = an
		a[0] = -an
	}

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= fn

	var num, den float64
	for i, v := range x {
		num += a[i] * v
		d := v - mean
		den += d * d
	}
	w = num * num / den
	if w > 1 {
		w = 1
	}

	// Significance of W
	switch {
	case n == 3:
		p = 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		if p < 0 {
			p = 0
		}
	case n <= 11:
		g := -2.273 + 0.459*fn
		arg := g - math.Log(1-w)
		if arg <= 0 {
			// W too small for the log-log transform: overwhelming evidence
			p = 0
			break
		}
		mu := 0.5440 - 0.39978*fn + 0.025054*fn*fn - 0.0006714*fn*fn*fn
		sig := math.Exp(1.3822 - 0.77857*fn + 0.062767*fn*fn - 0.0020322*fn*fn*fn)
		z := (-math.Log(arg) - mu) / sig
		p = 1 - normalCDF(z)
	default:
		ln := math.Log(fn)
		mu := -1.5861 - 0.31082*ln - 0.083751*ln*ln + 0.0038915*ln*ln*ln
		sig := math.Exp(-0.4803 - 0.082676*ln + 0.0030302*ln*ln)
		z := (math.Log(1-w) - mu) / sig
		p = 1 - normalCDF(z)
	}
	return w, clamp01(p), nil
}

// lilliefors computes the Kolmogorov-Smirnov distance against the fitted
// normal and the Dallal-Wilkinson significance approximation.
func lilliefors(values []float64) (d, p float64, err error) {
	n := len(values)
	x := append([]float64(nil), values...)
	sort.Float64s(x)

	fn := float64(n)
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= fn
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(ss / (fn - 1))
	if sd == 0 {
		return 0, 0, errors.InvalidInput("constant data: normality test undefined")
	}

	for i, v := range x {
		z := normalCDF((v - mean) / sd)
		if dp := float64(i+1)/fn - z; dp > d {
			d = dp
		}
		if dm := z - float64(i)/fn; dm > d {
			d = dm
		}
	}

	nd, kd := fn, d
	if n > 100 {
		kd = d * math.Pow(fn/100, 0.49)
		nd = 100
	}
	p = math.Exp(-7.01256*kd*kd*(nd+2.78019) +
		2.99587*kd*math.Sqrt(nd+2.78019) -
		0.122119 + 0.974598/math.Sqrt(nd) + 1.67997/nd)

	if p > 0.1 {
		kk := (math.Sqrt(fn) - 0.01 + 0.85/math.Sqrt(fn)) * d
		switch {
		case kk <= 0.302:
			p = 1
		case kk <= 0.5:
			p = 2.76773 - 19.828315*kk + 80.709644*kk*kk -
				138.55152*kk*kk*kk + 81.218052*kk*kk*kk*kk
		case kk <= 0.9:
			p = -4.901232 + 40.662806*kk - 97.490286*kk*kk +
				94.029866*kk*kk*kk - 32.355711*kk*kk*kk*kk
		case kk <= 1.31:
			p = 6.198765 - 19.558097*kk + 23.186922*kk*kk -
				12.234627*kk*kk*kk + 2.423045*kk*kk*kk*kk
		default:
			p = 0
		}
	}
	return d, clamp01(p), nil
}

// poly evaluates c[0]*x^5 + c[1]*x^4 + ... + c[5] (Royston's coefficient form)
func poly(c []float64, x float64) float64 {
	r := 0.0
	for _, ci := range c {
		r = r*x + ci
	}
	return r
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
