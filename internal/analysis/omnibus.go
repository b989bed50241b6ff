package analysis

import (
	"math"

	"github.com/montanaflynn/stats"

	"groupstat/domain/core"
	domstats "groupstat/domain/stats"
	"groupstat/internal/dataset"
	"groupstat/internal/errors"
)

// Options are the caller-facing knobs shared by every analysis
type Options struct {
	Alpha         float64
	Adjustment    domstats.AdjustMethod
	MissingPolicy domstats.MissingPolicy
	// Seed drives Monte-Carlo p-values so repeated runs are reproducible
	Seed int64
}

// Validate rejects malformed options before any computation
func (o Options) Validate() error {
	if o.Alpha <= 0 || o.Alpha >= 1 {
		return errors.InvalidAlpha(o.Alpha)
	}
	if _, err := domstats.ParseAdjustMethod(string(o.Adjustment)); err != nil {
		return errors.InvalidEnum("adjustment method", string(o.Adjustment))
	}
	if _, err := domstats.ParseMissingPolicy(string(o.MissingPolicy)); err != nil {
		return errors.InvalidEnum("missing-data policy", string(o.MissingPolicy))
	}
	return nil
}

// OmnibusRequest describes one k-group comparison
type OmnibusRequest struct {
	Frame    *dataset.Frame
	Response string
	Factor   string
	PairedBy string // optional; non-empty switches to the repeated design
	Options  Options
}

// Engine runs assumption-driven test selection and inference. It holds no
// state between calls: every analysis is a pure function of its request.
type Engine struct {
	assumptions *AssumptionEvaluator
}

// NewEngine creates a new analysis engine
func NewEngine() *Engine {
	return &Engine{assumptions: NewAssumptionEvaluator()}
}

// Omnibus runs the full k-group pipeline: validation, assumption checks,
// test selection, fitting, and (when significant) post-hoc dispatch.
func (e *Engine) Omnibus(req OmnibusRequest) (*domstats.OmnibusReport, error) {
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}

	y, err := req.Frame.ResolveKind(req.Response, dataset.KindNumeric)
	if err != nil {
		return nil, err
	}
	x, err := req.Frame.ResolveKind(req.Factor, dataset.KindCategorical)
	if err != nil {
		return nil, err
	}

	design := domstats.DesignIndependent
	var matrix *dataset.RepeatedMatrix
	var groups []dataset.Group

	if req.PairedBy != "" {
		design = domstats.DesignRepeated
		subject, err := req.Frame.ResolveKind(req.PairedBy, dataset.KindCategorical)
		if err != nil {
			return nil, err
		}
		matrix, err = dataset.PivotRepeated(y, x, subject, req.Options.MissingPolicy)
		if err != nil {
			return nil, err
		}
		groups = dataset.GroupsFromMatrix(matrix)
	} else {
		groups, err = dataset.GroupNumeric(y, x, req.Options.MissingPolicy)
		if err != nil {
			return nil, err
		}
	}

	if len(groups) < 3 {
		return nil, errors.InsufficientLevels(req.Factor, len(groups), 3)
	}
	for _, g := range groups {
		if len(g.Values) < 3 {
			return nil, errors.InsufficientObservations(g.Level, len(g.Values), 3)
		}
	}

	set, warnings := e.assumptions.Evaluate(groups, matrix, req.Options.Alpha)
	test := SelectOmnibusTest(design, set)

	outcome, err := fitOmnibus(test, groups, matrix, req.Options.Alpha)
	if err != nil {
		return nil, err
	}

	report := &domstats.OmnibusReport{
		ID:            core.NewAnalysisID(),
		Response:      req.Response,
		Factor:        req.Factor,
		PairedBy:      req.PairedBy,
		Design:        design,
		Alpha:         req.Options.Alpha,
		Adjustment:    req.Options.Adjustment,
		MissingPolicy: req.Options.MissingPolicy,
		Groups:        summarizeGroups(groups),
		Assumptions:   set,
		Outcome:       outcome,
		Balance:       balanceDiagnostic(groups),
		Warnings:      warnings,
		CreatedAt:     core.Now(),
	}

	if outcome.Significant {
		posthoc, err := DispatchPostHoc(test, groups, matrix, req.Options)
		if err != nil {
			report.Warnings = append(report.Warnings, domstats.Warning{
				Code:    domstats.WarnPostHocFailed,
				Message: err.Error(),
			})
		} else {
			report.PostHoc = posthoc
		}
	}

	return report, nil
}

// fitOmnibus executes the selected test and extracts statistic/df/p-value
func fitOmnibus(test domstats.TestID, groups []dataset.Group, matrix *dataset.RepeatedMatrix, alpha float64) (domstats.TestOutcome, error) {
	var out domstats.TestOutcome
	out.Test = test

	switch test {
	case domstats.TestOneWayANOVA:
		f, df1, df2 := oneWayANOVA(groups)
		p := fTestPValue(f, df1, df2)
		out.Statistic, out.DF1, out.DF2, out.PValue = f, df1, &df2, p

	case domstats.TestRMANOVA:
		f, df1, df2, err := repeatedANOVA(matrix)
		if err != nil {
			return out, err
		}
		p := fTestPValue(f, df1, df2)
		out.Statistic, out.DF1, out.DF2, out.PValue = f, df1, &df2, p

	case domstats.TestKruskalWallis:
		h, df := kruskalWallis(groups)
		out.Statistic, out.DF1, out.PValue = h, df, chiSquarePValue(h, df)

	case domstats.TestFriedman:
		q, df, err := friedman(matrix)
		if err != nil {
			return out, err
		}
		out.Statistic, out.DF1, out.PValue = q, df, chiSquarePValue(q, df)

	default:
		return out, errors.InvalidEnum("omnibus test", string(test))
	}

	out.Significant = out.PValue < alpha
	return out, nil
}

// oneWayANOVA returns the F statistic with its numerator/denominator df
func oneWayANOVA(groups []dataset.Group) (f, df1, df2 float64) {
	var n int
	var grand float64
	for _, g := range groups {
		for _, v := range g.Values {
			grand += v
		}
		n += len(g.Values)
	}
	grand /= float64(n)

	var ssb, ssw float64
	for _, g := range groups {
		gm := meanOf(g.Values)
		ssb += float64(len(g.Values)) * (gm - grand) * (gm - grand)
		for _, v := range g.Values {
			ssw += (v - gm) * (v - gm)
		}
	}

	df1 = float64(len(groups) - 1)
	df2 = float64(n - len(groups))
	f = (ssb / df1) / (ssw / df2)
	return f, df1, df2
}

// repeatedANOVA fits the within-subjects model: subject effects are removed
// from the error term before forming the condition F ratio.
func repeatedANOVA(m *dataset.RepeatedMatrix) (f, df1, df2 float64, err error) {
	n := len(m.Data)
	p := len(m.Levels)
	if n < 2 {
		return 0, 0, 0, errors.InsufficientObservations("subjects", n, 2)
	}

	var grand float64
	for _, row := range m.Data {
		for _, v := range row {
			grand += v
		}
	}
	grand /= float64(n * p)

	var ssTotal, ssSubj, ssCond float64
	colMeans := make([]float64, p)
	for _, row := range m.Data {
		rowMean := meanOf(row)
		ssSubj += float64(p) * (rowMean - grand) * (rowMean - grand)
		for j, v := range row {
			ssTotal += (v - grand) * (v - grand)
			colMeans[j] += v
		}
	}
	for j := range colMeans {
		colMeans[j] /= float64(n)
		ssCond += float64(n) * (colMeans[j] - grand) * (colMeans[j] - grand)
	}

	ssErr := ssTotal - ssSubj - ssCond
	df1 = float64(p - 1)
	df2 = float64((n - 1) * (p - 1))
	if ssErr <= 0 {
		return 0, 0, 0, errors.New(errors.CodeInternalError, "degenerate error sum of squares")
	}
	f = (ssCond / df1) / (ssErr / df2)
	return f, df1, df2, nil
}

// kruskalWallis returns the tie-corrected H statistic and its df
func kruskalWallis(groups []dataset.Group) (h, df float64) {
	var pooled []float64
	sizes := make([]int, len(groups))
	for i, g := range groups {
		pooled = append(pooled, g.Values...)
		sizes[i] = len(g.Values)
	}
	n := float64(len(pooled))

	ranks, tieTerm := midranks(pooled)
	h = 0
	offset := 0
	for i := range groups {
		var rsum float64
		for j := 0; j < sizes[i]; j++ {
			rsum += ranks[offset+j]
		}
		h += rsum * rsum / float64(sizes[i])
		offset += sizes[i]
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	if correction := 1 - tieTerm/(n*n*n-n); correction > 0 {
		h /= correction
	}
	df = float64(len(groups) - 1)
	return h, df
}

// friedman returns the tie-corrected Friedman statistic and its df.
// Ranking happens within each subject, so the statistic only sees the
// ordering of conditions per subject.
func friedman(m *dataset.RepeatedMatrix) (q, df float64, err error) {
	n := len(m.Data)
	p := len(m.Levels)
	if n < 2 {
		return 0, 0, errors.InsufficientObservations("subjects", n, 2)
	}

	colRankSums := make([]float64, p)
	var sumSqRanks float64
	for _, row := range m.Data {
		ranks, _ := midranks(row)
		for j, r := range ranks {
			colRankSums[j] += r
			sumSqRanks += r * r
		}
	}

	fn, fp := float64(n), float64(p)
	var num float64
	for _, r := range colRankSums {
		d := r - fn*(fp+1)/2
		num += d * d
	}
	den := sumSqRanks - fn*fp*(fp+1)*(fp+1)/4
	if den <= 0 {
		return 0, 0, errors.New(errors.CodeInternalError, "degenerate rank variance")
	}
	q = (fp - 1) * num / den
	df = fp - 1
	return q, df, nil
}

// balanceDiagnostic reports the descriptive sample-size balance coefficient
func balanceDiagnostic(groups []dataset.Group) domstats.BalanceDiagnostic {
	var sdSum, meanSum float64
	for _, g := range groups {
		sd, _ := stats.StandardDeviationSample(g.Values)
		m, _ := stats.Mean(g.Values)
		sdSum += sd
		meanSum += m
	}
	coeff := sdSum / meanSum
	band := domstats.BalanceHigh
	switch {
	case math.Abs(coeff) <= 0.16:
		band = domstats.BalanceWell
	case math.Abs(coeff) <= 0.33:
		band = domstats.BalanceModerate
	}
	return domstats.BalanceDiagnostic{Coefficient: coeff, Band: band}
}

// summarizeGroups computes the per-group descriptives attached to reports
func summarizeGroups(groups []dataset.Group) []domstats.GroupSummary {
	out := make([]domstats.GroupSummary, len(groups))
	for i, g := range groups {
		mean, _ := stats.Mean(g.Values)
		sd, _ := stats.StandardDeviationSample(g.Values)
		med, _ := stats.Median(g.Values)
		out[i] = domstats.GroupSummary{
			Level:   g.Level,
			N:       len(g.Values),
			Missing: g.Missing,
			Mean:    mean,
			SD:      sd,
			Median:  med,
		}
	}
	return out
}
