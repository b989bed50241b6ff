package report

import (
	"strings"
	"testing"

	"groupstat/domain/core"
	domstats "groupstat/domain/stats"
)

func sampleOmnibusReport() *domstats.OmnibusReport {
	df2 := 12.0
	est := 10.0
	lo, hi := 7.5, 12.5
	return &domstats.OmnibusReport{
		ID:            core.NewAnalysisID(),
		Response:      "score",
		Factor:        "arm",
		Design:        domstats.DesignIndependent,
		Alpha:         0.05,
		Adjustment:    domstats.AdjustHolm,
		MissingPolicy: domstats.MissingDrop,
		Groups: []domstats.GroupSummary{
			{Level: "A", N: 5, Mean: 11, SD: 1.58, Median: 11},
			{Level: "B", N: 5, Mean: 21, SD: 1.58, Median: 21},
			{Level: "C", N: 5, Mean: 10, SD: 1.58, Median: 10},
		},
		Assumptions: domstats.AssumptionSet{
			Normality: &domstats.AssumptionCheck{
				TestName: "shapiro_wilk", Statistic: 0.98, PValue: 0.96,
				Key: domstats.KeyNonSignificant,
			},
		},
		Outcome: domstats.TestOutcome{
			Test:        domstats.TestOneWayANOVA,
			Statistic:   73.5,
			DF1:         2,
			DF2:         &df2,
			PValue:      1.7e-7,
			Significant: true,
		},
		Balance: domstats.BalanceDiagnostic{Coefficient: 0.11, Band: domstats.BalanceWell},
		PostHoc: &domstats.PostHocResult{
			Procedure:  "tukey_hsd",
			Adjustment: domstats.AdjustNone,
			Comparisons: []domstats.Comparison{
				{LevelA: "A", LevelB: "B", Contrast: "A vs B",
					Estimate: &est, Lower: &lo, Upper: &hi,
					PValue: 0.0001, AdjustedP: 0.0001, Significant: true},
			},
		},
		Warnings:  []domstats.Warning{{Code: domstats.WarnEffectUndefined, Message: "example"}},
		CreatedAt: core.Now(),
	}
}

func TestOmnibusMarkdown(t *testing.T) {
	md := NewFormatter().OmnibusMarkdown(sampleOmnibusReport())

	for _, want := range []string{
		"# Group comparison: score by arm",
		"Selected test: **one_way_anova**",
		"| A | 5 |",
		"shapiro_wilk",
		"Variance homogeneity: not verified",
		"## Post-hoc: tukey_hsd",
		"| A vs B |",
		"## Warnings",
		domstats.WarnEffectUndefined,
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	// Independent design must not report sphericity at all
	if strings.Contains(md, "Sphericity") {
		t.Fatal("sphericity line rendered for an independent design")
	}
}

func TestSummaryMarkdown(t *testing.T) {
	stat := 2.4
	table := &domstats.SummaryTable{
		ID:     core.NewAnalysisID(),
		Factor: "arm",
		Levels: [2]string{"control", "treatment"},
		Alpha:  0.05,
		Rows: []domstats.PairwiseReport{
			{
				Variable: "age",
				Kind:     domstats.KindNumeric,
				Outcome: &domstats.TestOutcome{
					Test: domstats.TestWelchT, Statistic: stat, PValue: 0.021, Significant: true,
				},
				Effect: &domstats.EffectSize{Value: 0.6, Label: domstats.EffectCohensD},
			},
			{
				Variable: "status",
				Kind:     domstats.KindCategorical,
				Outcome: &domstats.TestOutcome{
					Test: domstats.TestFisherExact, PValue: 0.04, Approximate: true,
				},
			},
			{Variable: "site", Skipped: true, SkipReason: "constant variable"},
		},
		CreatedAt: core.Now(),
	}

	md := NewFormatter().SummaryMarkdown(table)
	for _, want := range []string{
		"# Summary table by arm (control vs treatment)",
		"| age | welch_t |",
		"cohens_d=0.600",
		"simulated p-value",
		"constant variable",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestToHTMLRendersTables(t *testing.T) {
	md := NewFormatter().OmnibusMarkdown(sampleOmnibusReport())
	html := string(NewFormatter().ToHTML(md))

	if !strings.Contains(html, "<table>") {
		t.Fatal("HTML output missing rendered table")
	}
	if !strings.Contains(html, "<h1") {
		t.Fatal("HTML output missing heading")
	}
}

func TestFormatP(t *testing.T) {
	if got := formatP(0.0004); !strings.Contains(got, "e-") {
		t.Fatalf("tiny p should use scientific notation, got %s", got)
	}
	if got := formatP(0.04); got != "0.0400" {
		t.Fatalf("got %s", got)
	}
}
