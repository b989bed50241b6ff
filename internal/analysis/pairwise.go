package analysis

import (
	"fmt"

	domstats "groupstat/domain/stats"
	"groupstat/internal/dataset"
	"groupstat/internal/errors"
)

// expectedCountFloor is the expected-cell-count threshold below which the
// chi-squared approximation is abandoned for an exact test.
const expectedCountFloor = 5

// PairwiseRequest describes a two-group comparison of one variable
type PairwiseRequest struct {
	Frame    *dataset.Frame
	Variable string
	Factor   string
	Options  Options
}

// Pairwise compares one variable between exactly two factor levels. Numeric
// variables route through normality to Welch or Mann-Whitney; categorical
// variables through expected counts to chi-squared or the exact test.
// Constant variables are skipped, not failed.
func (e *Engine) Pairwise(req PairwiseRequest) (*domstats.PairwiseReport, error) {
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}
	v, err := req.Frame.Resolve(req.Variable)
	if err != nil {
		return nil, err
	}
	x, err := req.Frame.ResolveKind(req.Factor, dataset.KindCategorical)
	if err != nil {
		return nil, err
	}

	if v.Col().DistinctNonMissing() < 2 {
		return &domstats.PairwiseReport{
			Variable:   req.Variable,
			Kind:       kindOf(v),
			Skipped:    true,
			SkipReason: "constant variable",
		}, nil
	}

	if v.Kind() == dataset.KindNumeric {
		return e.pairwiseNumeric(v, x, req)
	}
	return e.pairwiseCategorical(v, x, req)
}

func (e *Engine) pairwiseNumeric(v, x dataset.ColumnRef, req PairwiseRequest) (*domstats.PairwiseReport, error) {
	groups, err := dataset.GroupNumeric(v, x, req.Options.MissingPolicy)
	if err != nil {
		return nil, err
	}
	if len(groups) != 2 {
		return nil, errors.InsufficientLevels(req.Factor, len(groups), 2)
	}
	for _, g := range groups {
		if len(g.Values) < 2 {
			return nil, errors.InsufficientObservations(g.Level, len(g.Values), 2)
		}
	}

	report := &domstats.PairwiseReport{
		Variable: req.Variable,
		Kind:     domstats.KindNumeric,
		Groups:   summarizeGroups(groups),
	}

	var set domstats.AssumptionSet
	check, groupP, err := e.assumptions.normality(groups, req.Options.Alpha)
	if err != nil {
		report.Warnings = append(report.Warnings, domstats.Warning{
			Code:    domstats.WarnNormalityFailed,
			Message: err.Error(),
		})
	} else {
		set.Normality = check
		set.GroupNormalityP = groupP
	}
	report.Assumptions = &set

	a, b := groups[0].Values, groups[1].Values
	outcome := domstats.TestOutcome{}

	if set.NormalitySatisfied() {
		t, df, p, err := welchT(a, b)
		if err != nil {
			return nil, err
		}
		outcome = domstats.TestOutcome{
			Test:      domstats.TestWelchT,
			Statistic: t,
			DF1:       df,
			PValue:    p,
		}
		if d, ok := cohensD(a, b); ok {
			report.Effect = effectOf(d, domstats.EffectCohensD)
		} else {
			report.Warnings = append(report.Warnings, domstats.Warning{
				Code:    domstats.WarnEffectUndefined,
				Message: fmt.Sprintf("effect size undefined for %q", req.Variable),
			})
		}
	} else {
		u, z, p, err := mannWhitney(a, b)
		if err != nil {
			return nil, err
		}
		outcome = domstats.TestOutcome{
			Test:      domstats.TestMannWhitneyU,
			Statistic: u,
			PValue:    p,
		}
		report.Effect = effectOf(rankBiserial(z, len(a)+len(b)), domstats.EffectRankBiserial)
	}

	outcome.Significant = outcome.PValue < req.Options.Alpha
	report.Outcome = &outcome
	return report, nil
}

func (e *Engine) pairwiseCategorical(v, x dataset.ColumnRef, req PairwiseRequest) (*domstats.PairwiseReport, error) {
	rowLevels, colLevels, table, _, err := dataset.Crosstab(v, x, req.Options.MissingPolicy)
	if err != nil {
		return nil, err
	}
	if len(colLevels) != 2 {
		return nil, errors.InsufficientLevels(req.Factor, len(colLevels), 2)
	}
	if len(rowLevels) < 2 {
		return nil, errors.InsufficientLevels(req.Variable, len(rowLevels), 2)
	}

	report := &domstats.PairwiseReport{
		Variable: req.Variable,
		Kind:     domstats.KindCategorical,
	}

	stat, df, minExpected, err := chiSquareStat(table)
	if err != nil {
		return nil, err
	}
	var total float64
	for i := range table {
		for _, c := range table[i] {
			total += c
		}
	}

	outcome := domstats.TestOutcome{}
	if minExpected < expectedCountFloor {
		if len(rowLevels) == 2 {
			p, oddsRatio, orOK, err := fisherExact2x2(table)
			if err != nil {
				return nil, err
			}
			outcome = domstats.TestOutcome{Test: domstats.TestFisherExact, PValue: p}
			if orOK {
				report.Effect = effectOf(oddsRatio, domstats.EffectOddsRatio)
			} else {
				report.Warnings = append(report.Warnings, domstats.Warning{
					Code:    domstats.WarnEffectUndefined,
					Message: fmt.Sprintf("odds ratio undefined for %q (zero cell)", req.Variable),
				})
			}
		} else {
			p, err := fisherMonteCarlo(table, req.Options.Seed)
			if err != nil {
				return nil, err
			}
			outcome = domstats.TestOutcome{
				Test:        domstats.TestFisherExact,
				PValue:      p,
				Approximate: true,
			}
			report.Effect = effectOf(cramersV(stat, total, len(rowLevels), len(colLevels)), domstats.EffectCramersV)
		}
	} else {
		outcome = domstats.TestOutcome{
			Test:      domstats.TestChiSquared,
			Statistic: stat,
			DF1:       df,
			PValue:    chiSquarePValue(stat, df),
		}
		report.Effect = effectOf(cramersV(stat, total, len(rowLevels), len(colLevels)), domstats.EffectCramersV)
	}

	outcome.Significant = outcome.PValue < req.Options.Alpha
	report.Outcome = &outcome
	return report, nil
}

func kindOf(v dataset.ColumnRef) domstats.VariableKind {
	if v.Kind() == dataset.KindNumeric {
		return domstats.KindNumeric
	}
	return domstats.KindCategorical
}
