package analysis

import (
	"sort"

	domstats "groupstat/domain/stats"
	"groupstat/internal/errors"
)

// AdjustPValues corrects a family of p-values for multiple comparisons.
// Every method is monotone (adjusted >= raw) and caps at 1.
func AdjustPValues(p []float64, method domstats.AdjustMethod) ([]float64, error) {
	n := len(p)
	if n == 0 {
		return nil, nil
	}
	out := make([]float64, n)

	switch method {
	case domstats.AdjustNone:
		copy(out, p)
		return out, nil

	case domstats.AdjustBonferroni:
		for i, v := range p {
			out[i] = cap1(v * float64(n))
		}
		return out, nil

	case domstats.AdjustHolm:
		ord := ascendingOrder(p)
		running := 0.0
		for rank, i := range ord {
			v := cap1(p[i] * float64(n-rank))
			if v < running {
				v = running
			}
			running = v
			out[i] = v
		}
		return out, nil

	case domstats.AdjustHochberg:
		ord := ascendingOrder(p)
		running := 1.0
		for rank := n - 1; rank >= 0; rank-- {
			i := ord[rank]
			v := cap1(p[i] * float64(n-rank))
			if v > running {
				v = running
			}
			running = v
			out[i] = v
		}
		return out, nil

	case domstats.AdjustHommel:
		return hommel(p), nil

	case domstats.AdjustBH:
		ord := ascendingOrder(p)
		running := 1.0
		for rank := n - 1; rank >= 0; rank-- {
			i := ord[rank]
			v := cap1(p[i] * float64(n) / float64(rank+1))
			if v > running {
				v = running
			}
			running = v
			out[i] = v
		}
		return out, nil

	case domstats.AdjustBY:
		c := 0.0
		for i := 1; i <= n; i++ {
			c += 1 / float64(i)
		}
		ord := ascendingOrder(p)
		running := 1.0
		for rank := n - 1; rank >= 0; rank-- {
			i := ord[rank]
			v := cap1(p[i] * c * float64(n) / float64(rank+1))
			if v > running {
				v = running
			}
			running = v
			out[i] = v
		}
		return out, nil
	}

	return nil, errors.InvalidEnum("adjustment method", string(method))
}

// hommel is the closed-testing procedure; quadratic in the family size,
// which is fine for k*(k-1)/2 contrasts.
func hommel(p []float64) []float64 {
	n := len(p)
	ord := ascendingOrder(p)
	sorted := make([]float64, n)
	for rank, i := range ord {
		sorted[rank] = p[i]
	}

	q := make([]float64, n)
	pa := make([]float64, n)
	min0 := 1.0
	for i := 0; i < n; i++ {
		if v := float64(n) * sorted[i] / float64(i+1); v < min0 {
			min0 = v
		}
	}
	for i := 0; i < n; i++ {
		q[i] = min0
		pa[i] = min0
	}

	for m := n - 1; m >= 2; m-- {
		cut := n - m + 1
		q1 := 1.0
		for j := 1; j < m; j++ {
			if v := float64(m) * sorted[cut+j-1] / float64(j+1); v < q1 {
				q1 = v
			}
		}
		for i := 0; i < cut; i++ {
			q[i] = min2(float64(m)*sorted[i], q1)
		}
		for i := cut; i < n; i++ {
			q[i] = q[cut-1]
		}
		for i := 0; i < n; i++ {
			if q[i] > pa[i] {
				pa[i] = q[i]
			}
		}
	}

	out := make([]float64, n)
	for rank, i := range ord {
		v := pa[rank]
		if sorted[rank] > v {
			v = sorted[rank]
		}
		out[i] = cap1(v)
	}
	return out
}

// ascendingOrder returns indices of p sorted by ascending value, with index
// order breaking ties so the result is deterministic.
func ascendingOrder(p []float64) []int {
	ord := make([]int, len(p))
	for i := range ord {
		ord[i] = i
	}
	sort.SliceStable(ord, func(a, b int) bool { return p[ord[a]] < p[ord[b]] })
	return ord
}

func cap1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
