package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"groupstat/internal/dataset"
)

// Seeded synthetic samples for tests and the CLI demo. All generators are
// deterministic for a given seed.

// GroupSpec describes one synthetic group
type GroupSpec struct {
	Level string
	N     int
	Mean  float64
	SD    float64
	// Lognormal skews the group to break normality checks
	Lognormal bool
}

// GenerateGrouped builds a long-form frame with "value" and "group" columns
func GenerateGrouped(seed int64, specs []GroupSpec) (*dataset.Frame, error) {
	rng := rand.New(rand.NewSource(seed))
	var values []float64
	var groups []string

	for _, s := range specs {
		for i := 0; i < s.N; i++ {
			v := s.Mean + s.SD*rng.NormFloat64()
			if s.Lognormal {
				v = s.Mean + s.SD*math.Exp(rng.NormFloat64())
			}
			values = append(values, v)
			groups = append(groups, s.Level)
		}
	}

	f := dataset.NewFrame()
	if err := f.AddNumeric("value", values); err != nil {
		return nil, err
	}
	if err := f.AddCategorical("group", groups); err != nil {
		return nil, err
	}
	return f, nil
}

// GeneratePaired builds a repeated-measures frame with "value", "condition"
// and "subject" columns: one observation per subject per condition, with a
// per-subject random intercept plus the given condition shifts.
func GeneratePaired(seed int64, subjects int, conditions []string, shifts []float64, sd float64) (*dataset.Frame, error) {
	if len(conditions) != len(shifts) {
		return nil, fmt.Errorf("need one shift per condition")
	}
	rng := rand.New(rand.NewSource(seed))
	var values []float64
	var conds, subjs []string

	for s := 0; s < subjects; s++ {
		intercept := 10 + 2*rng.NormFloat64()
		id := fmt.Sprintf("s%02d", s+1)
		for c, cond := range conditions {
			values = append(values, intercept+shifts[c]+sd*rng.NormFloat64())
			conds = append(conds, cond)
			subjs = append(subjs, id)
		}
	}

	f := dataset.NewFrame()
	if err := f.AddNumeric("value", values); err != nil {
		return nil, err
	}
	if err := f.AddCategorical("condition", conds); err != nil {
		return nil, err
	}
	if err := f.AddCategorical("subject", subjs); err != nil {
		return nil, err
	}
	return f, nil
}

// GenerateCohort builds a two-arm frame with numeric and categorical
// covariates, for exercising the summary-table generator.
func GenerateCohort(seed int64, perArm int) (*dataset.Frame, error) {
	rng := rand.New(rand.NewSource(seed))
	n := perArm * 2

	arm := make([]string, n)
	age := make([]float64, n)
	score := make([]float64, n)
	smoker := make([]string, n)
	constant := make([]string, n)

	for i := 0; i < n; i++ {
		treated := i >= perArm
		if treated {
			arm[i] = "treatment"
			age[i] = 52 + 8*rng.NormFloat64()
			score[i] = 72 + 10*rng.NormFloat64()
		} else {
			arm[i] = "control"
			age[i] = 50 + 8*rng.NormFloat64()
			score[i] = 65 + 10*rng.NormFloat64()
		}
		if rng.Float64() < 0.3 {
			smoker[i] = "yes"
		} else {
			smoker[i] = "no"
		}
		constant[i] = "same"
	}

	f := dataset.NewFrame()
	if err := f.AddCategorical("arm", arm); err != nil {
		return nil, err
	}
	if err := f.AddNumeric("age", age); err != nil {
		return nil, err
	}
	if err := f.AddNumeric("score", score); err != nil {
		return nil, err
	}
	if err := f.AddCategorical("smoker", smoker); err != nil {
		return nil, err
	}
	if err := f.AddCategorical("site", constant); err != nil {
		return nil, err
	}
	return f, nil
}
