package stats

import (
	"fmt"

	"groupstat/domain/core"
)

// ============================================================================
// CLOSED ENUMS
// ============================================================================

// DesignType distinguishes independent-groups from repeated-measures layouts
type DesignType string

const (
	DesignIndependent DesignType = "independent"
	DesignRepeated    DesignType = "repeated"
)

// TestID identifies a hypothesis test from the closed set the engine can run
type TestID string

const (
	// Omnibus (k >= 3 groups)
	TestOneWayANOVA   TestID = "one_way_anova"
	TestRMANOVA       TestID = "repeated_measures_anova"
	TestKruskalWallis TestID = "kruskal_wallis"
	TestFriedman      TestID = "friedman"

	// Pairwise (exactly 2 groups)
	TestWelchT       TestID = "welch_t"
	TestMannWhitneyU TestID = "mann_whitney_u"
	TestChiSquared   TestID = "chi_squared"
	TestFisherExact  TestID = "fisher_exact"
)

// AdjustMethod is a multiple-comparison p-value adjustment method
type AdjustMethod string

const (
	AdjustHolm       AdjustMethod = "holm"
	AdjustHochberg   AdjustMethod = "hochberg"
	AdjustHommel     AdjustMethod = "hommel"
	AdjustBonferroni AdjustMethod = "bonferroni"
	AdjustBH         AdjustMethod = "BH"
	AdjustBY         AdjustMethod = "BY"
	AdjustNone       AdjustMethod = "none"
)

// ParseAdjustMethod validates a caller-supplied adjustment method string
func ParseAdjustMethod(s string) (AdjustMethod, error) {
	switch AdjustMethod(s) {
	case AdjustHolm, AdjustHochberg, AdjustHommel, AdjustBonferroni, AdjustBH, AdjustBY, AdjustNone:
		return AdjustMethod(s), nil
	}
	return "", fmt.Errorf("unknown adjustment method %q", s)
}

// MissingPolicy controls how rows with missing values are handled
type MissingPolicy string

const (
	// MissingDrop removes a row from the analysis when any analyzed column is missing
	MissingDrop MissingPolicy = "drop"
	// MissingMarkExclude excludes missing values per column but keeps the row counted
	MissingMarkExclude MissingPolicy = "mark_exclude"
)

// ParseMissingPolicy validates a caller-supplied missing-data policy string
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(s) {
	case MissingDrop, MissingMarkExclude:
		return MissingPolicy(s), nil
	}
	return "", fmt.Errorf("unknown missing-data policy %q", s)
}

// SignificanceKey is the binary verdict attached to every assumption check
type SignificanceKey string

const (
	KeySignificant    SignificanceKey = "significant"
	KeyNonSignificant SignificanceKey = "non_significant"
)

// EffectLabel names the effect-size measure attached to a test outcome
type EffectLabel string

const (
	EffectCohensD      EffectLabel = "cohens_d"
	EffectRankBiserial EffectLabel = "rank_biserial_r"
	EffectCramersV     EffectLabel = "cramers_v"
	EffectOddsRatio    EffectLabel = "odds_ratio"
)

// ============================================================================
// ASSUMPTIONS
// ============================================================================

// AssumptionCheck is the outcome of a single distributional assumption test
type AssumptionCheck struct {
	TestName   string          `json:"test_name"`
	Statistic  float64         `json:"statistic"`
	PValue     float64         `json:"p_value"`
	DF         []float64       `json:"df,omitempty"`
	EffectSize *float64        `json:"effect_size,omitempty"`
	Key        SignificanceKey `json:"key"`
}

// AssumptionSet aggregates the assumption checks for one analysis.
// A nil check means the assumption could not be verified (or, for sphericity,
// does not apply); selection treats an unverified assumption as violated.
type AssumptionSet struct {
	Normality       *AssumptionCheck   `json:"normality,omitempty"`
	Variance        *AssumptionCheck   `json:"variance,omitempty"`
	Sphericity      *AssumptionCheck   `json:"sphericity,omitempty"`
	GroupNormalityP map[string]float64 `json:"group_normality_p,omitempty"`
}

// NormalitySatisfied reports whether normality was checked and not rejected
func (a AssumptionSet) NormalitySatisfied() bool {
	return a.Normality != nil && a.Normality.Key == KeyNonSignificant
}

// VarianceSatisfied reports whether homogeneity was checked and not rejected
func (a AssumptionSet) VarianceSatisfied() bool {
	return a.Variance != nil && a.Variance.Key == KeyNonSignificant
}

// SphericitySatisfied reports whether sphericity was checked and not rejected
func (a AssumptionSet) SphericitySatisfied() bool {
	return a.Sphericity != nil && a.Sphericity.Key == KeyNonSignificant
}

// ============================================================================
// OUTCOMES
// ============================================================================

// TestOutcome is the primary test result
type TestOutcome struct {
	Test        TestID   `json:"test"`
	Statistic   float64  `json:"statistic"`
	DF1         float64  `json:"df1,omitempty"`
	DF2         *float64 `json:"df2,omitempty"`
	PValue      float64  `json:"p_value"`
	Significant bool     `json:"significant"`
	// Approximate marks Monte-Carlo p-values, which vary with the seed
	Approximate bool `json:"approximate,omitempty"`
}

// EffectSize pairs a standardized magnitude with the measure it came from
type EffectSize struct {
	Value float64     `json:"value"`
	Label EffectLabel `json:"label"`
}

// Comparison is one pairwise contrast from a post-hoc procedure
type Comparison struct {
	LevelA      string   `json:"level_a"`
	LevelB      string   `json:"level_b"`
	Contrast    string   `json:"contrast"`
	Estimate    *float64 `json:"estimate,omitempty"`
	Lower       *float64 `json:"lower,omitempty"`
	Upper       *float64 `json:"upper,omitempty"`
	PValue      float64  `json:"p_value"`
	AdjustedP   float64  `json:"adjusted_p"`
	Significant bool     `json:"significant"`
}

// PostHocResult holds all pairwise comparisons after a significant omnibus test
type PostHocResult struct {
	Procedure   string       `json:"procedure"`
	Adjustment  AdjustMethod `json:"adjustment"`
	Comparisons []Comparison `json:"comparisons"`
}

// Warning is a recoverable computation failure surfaced beside the result
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warning codes for recoverable failures
const (
	WarnNormalityFailed  = "NORMALITY_CHECK_FAILED"
	WarnVarianceFailed   = "VARIANCE_CHECK_FAILED"
	WarnSphericityFailed = "SPHERICITY_CHECK_FAILED"
	WarnPostHocFailed    = "POST_HOC_FAILED"
	WarnEffectUndefined  = "EFFECT_SIZE_UNDEFINED"
)

// ============================================================================
// REPORTS
// ============================================================================

// GroupSummary describes one factor level's slice of the response
type GroupSummary struct {
	Level   string  `json:"level"`
	N       int     `json:"n"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	SD      float64 `json:"sd"`
	Median  float64 `json:"median"`
}

// BalanceBand classifies the sample-size balance coefficient
type BalanceBand string

const (
	BalanceWell     BalanceBand = "well balanced"
	BalanceModerate BalanceBand = "moderately unbalanced"
	BalanceHigh     BalanceBand = "highly unbalanced"
)

// BalanceDiagnostic is descriptive only and never changes test selection
type BalanceDiagnostic struct {
	Coefficient float64     `json:"coefficient"`
	Band        BalanceBand `json:"band"`
}

// OmnibusReport is the structured record for a k-group comparison.
// It is independently consumable: formatters never re-invoke the engine.
type OmnibusReport struct {
	ID            core.AnalysisID   `json:"id"`
	Response      string            `json:"response"`
	Factor        string            `json:"factor"`
	PairedBy      string            `json:"paired_by,omitempty"`
	Design        DesignType        `json:"design"`
	Alpha         float64           `json:"alpha"`
	Adjustment    AdjustMethod      `json:"adjustment"`
	MissingPolicy MissingPolicy     `json:"missing_policy"`
	Groups        []GroupSummary    `json:"groups"`
	Assumptions   AssumptionSet     `json:"assumptions"`
	Outcome       TestOutcome       `json:"outcome"`
	Balance       BalanceDiagnostic `json:"balance"`
	PostHoc       *PostHocResult    `json:"post_hoc,omitempty"`
	Warnings      []Warning         `json:"warnings,omitempty"`
	CreatedAt     core.Timestamp    `json:"created_at"`
}

// VariableKind distinguishes the two pairwise analysis paths
type VariableKind string

const (
	KindNumeric     VariableKind = "numeric"
	KindCategorical VariableKind = "categorical"
)

// PairwiseReport is the structured record for a two-group comparison of one
// variable. Outcome and Effect are nil when the variable was skipped.
type PairwiseReport struct {
	Variable    string         `json:"variable"`
	Kind        VariableKind   `json:"kind"`
	Groups      []GroupSummary `json:"groups,omitempty"`
	Assumptions *AssumptionSet `json:"assumptions,omitempty"`
	Outcome     *TestOutcome   `json:"outcome,omitempty"`
	Effect      *EffectSize    `json:"effect,omitempty"`
	Skipped     bool           `json:"skipped,omitempty"`
	SkipReason  string         `json:"skip_reason,omitempty"`
	Warnings    []Warning      `json:"warnings,omitempty"`
}

// SummaryTable is the per-variable comparison table for a two-level factor
type SummaryTable struct {
	ID        core.AnalysisID  `json:"id"`
	Factor    string           `json:"factor"`
	Levels    [2]string        `json:"levels"`
	Alpha     float64          `json:"alpha"`
	Rows      []PairwiseReport `json:"rows"`
	CreatedAt core.Timestamp   `json:"created_at"`
}
