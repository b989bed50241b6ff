package analysis

import (
	"fmt"
	"math"

	domstats "groupstat/domain/stats"
	"groupstat/internal/dataset"
	"groupstat/internal/errors"
)

// DispatchPostHoc selects and runs the pairwise procedure matching the
// omnibus test. Tukey's HSD carries its own family adjustment, so the
// caller's method only applies to the other three branches.
func DispatchPostHoc(test domstats.TestID, groups []dataset.Group, matrix *dataset.RepeatedMatrix, opts Options) (*domstats.PostHocResult, error) {
	switch test {
	case domstats.TestOneWayANOVA:
		return tukeyHSD(groups, opts.Alpha)
	case domstats.TestRMANOVA:
		return pairwisePaired(matrix, opts, "pairwise_paired_t", pairedT)
	case domstats.TestKruskalWallis:
		return pairwiseUnpaired(groups, opts)
	case domstats.TestFriedman:
		return pairwisePaired(matrix, opts, "pairwise_wilcoxon", wilcoxonSignedRankT)
	}
	return nil, errors.InvalidEnum("post-hoc test", string(test))
}

// tukeyHSD produces every pairwise contrast with simultaneous confidence
// bounds at 1-alpha and studentized-range adjusted p-values.
func tukeyHSD(groups []dataset.Group, alpha float64) (*domstats.PostHocResult, error) {
	k := len(groups)
	_, _, df2 := oneWayANOVA(groups)

	// Mean square within, reusing the pooled error term of the fitted model
	var ssw float64
	var n int
	means := make([]float64, k)
	for i, g := range groups {
		means[i] = meanOf(g.Values)
		for _, v := range g.Values {
			ssw += (v - means[i]) * (v - means[i])
		}
		n += len(g.Values)
	}
	msw := ssw / df2
	if msw <= 0 {
		return nil, errors.New(errors.CodeInternalError, "zero error variance: HSD undefined")
	}

	qCrit := studentizedRangeQuantile(1-alpha, k, df2)

	result := &domstats.PostHocResult{
		Procedure:  "tukey_hsd",
		Adjustment: domstats.AdjustNone, // HSD p-values are already family-adjusted
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			ni, nj := float64(len(groups[i].Values)), float64(len(groups[j].Values))
			se := math.Sqrt(msw / 2 * (1/ni + 1/nj))
			diff := means[i] - means[j]
			q := math.Abs(diff) / se
			p := 1 - studentizedRangeCDF(q, k, df2)
			lower := diff - qCrit*se
			upper := diff + qCrit*se

			est := diff
			result.Comparisons = append(result.Comparisons, domstats.Comparison{
				LevelA:      groups[i].Level,
				LevelB:      groups[j].Level,
				Contrast:    contrastLabel(groups[i].Level, groups[j].Level),
				Estimate:    &est,
				Lower:       &lower,
				Upper:       &upper,
				PValue:      p,
				AdjustedP:   p,
				Significant: p < alpha,
			})
		}
	}
	return result, nil
}

// pairwiseUnpaired runs Mann-Whitney over every level pair and applies the
// caller's p-value adjustment across the family.
func pairwiseUnpaired(groups []dataset.Group, opts Options) (*domstats.PostHocResult, error) {
	result := &domstats.PostHocResult{
		Procedure:  "pairwise_mann_whitney",
		Adjustment: opts.Adjustment,
	}
	var raw []float64
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			_, _, p, err := mannWhitney(groups[i].Values, groups[j].Values)
			if err != nil {
				return nil, fmt.Errorf("contrast %s: %w",
					contrastLabel(groups[i].Level, groups[j].Level), err)
			}
			raw = append(raw, p)
			result.Comparisons = append(result.Comparisons, domstats.Comparison{
				LevelA:   groups[i].Level,
				LevelB:   groups[j].Level,
				Contrast: contrastLabel(groups[i].Level, groups[j].Level),
				PValue:   p,
			})
		}
	}
	return finishAdjusted(result, raw, opts)
}

// pairedTestFunc is a two-sample paired test returning (stat, df, p)
type pairedTestFunc func(a, b []float64) (float64, float64, float64, error)

// wilcoxonSignedRankT adapts the signed-rank test to the paired signature
func wilcoxonSignedRankT(a, b []float64) (float64, float64, float64, error) {
	w, _, p, err := wilcoxonSignedRank(a, b)
	return w, 0, p, err
}

// pairwisePaired runs a paired test over every condition pair of the
// repeated-measures matrix, adjusting across the family.
func pairwisePaired(m *dataset.RepeatedMatrix, opts Options, procedure string, test pairedTestFunc) (*domstats.PostHocResult, error) {
	result := &domstats.PostHocResult{
		Procedure:  procedure,
		Adjustment: opts.Adjustment,
	}
	cols := make([][]float64, len(m.Levels))
	for j := range m.Levels {
		cols[j] = make([]float64, len(m.Data))
		for i := range m.Data {
			cols[j][i] = m.Data[i][j]
		}
	}

	var raw []float64
	for i := 0; i < len(m.Levels); i++ {
		for j := i + 1; j < len(m.Levels); j++ {
			_, _, p, err := test(cols[i], cols[j])
			if err != nil {
				return nil, fmt.Errorf("contrast %s: %w",
					contrastLabel(m.Levels[i], m.Levels[j]), err)
			}
			raw = append(raw, p)
			var est *float64
			if procedure == "pairwise_paired_t" {
				d := meanOf(cols[i]) - meanOf(cols[j])
				est = &d
			}
			result.Comparisons = append(result.Comparisons, domstats.Comparison{
				LevelA:   m.Levels[i],
				LevelB:   m.Levels[j],
				Contrast: contrastLabel(m.Levels[i], m.Levels[j]),
				Estimate: est,
				PValue:   p,
			})
		}
	}
	return finishAdjusted(result, raw, opts)
}

func finishAdjusted(result *domstats.PostHocResult, raw []float64, opts Options) (*domstats.PostHocResult, error) {
	adjusted, err := AdjustPValues(raw, opts.Adjustment)
	if err != nil {
		return nil, err
	}
	for i := range result.Comparisons {
		result.Comparisons[i].AdjustedP = adjusted[i]
		result.Comparisons[i].Significant = adjusted[i] < opts.Alpha
	}
	return result, nil
}

func contrastLabel(a, b string) string {
	return a + " vs " + b
}
