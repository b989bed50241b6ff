package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	domstats "groupstat/domain/stats"
)

// Formatter renders structured analysis records to markdown and HTML. It is
// a pure consumer: nothing here feeds back into engine decisions.
type Formatter struct{}

// NewFormatter creates a formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// OmnibusMarkdown renders a k-group report as a markdown document
func (f *Formatter) OmnibusMarkdown(r *domstats.OmnibusReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Group comparison: %s by %s\n\n", r.Response, r.Factor)
	fmt.Fprintf(&b, "- Design: %s\n- Alpha: %g\n- Missing policy: %s\n\n",
		r.Design, r.Alpha, r.MissingPolicy)

	b.WriteString("## Groups\n\n")
	b.WriteString("| Level | n | Missing | Mean | SD | Median |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, g := range r.Groups {
		fmt.Fprintf(&b, "| %s | %d | %d | %.4g | %.4g | %.4g |\n",
			g.Level, g.N, g.Missing, g.Mean, g.SD, g.Median)
	}
	b.WriteString("\n## Assumptions\n\n")
	writeAssumption(&b, "Normality", r.Assumptions.Normality)
	writeAssumption(&b, "Variance homogeneity", r.Assumptions.Variance)
	if r.Design == domstats.DesignRepeated {
		writeAssumption(&b, "Sphericity", r.Assumptions.Sphericity)
	}

	b.WriteString("\n## Result\n\n")
	fmt.Fprintf(&b, "Selected test: **%s**\n\n", r.Outcome.Test)
	fmt.Fprintf(&b, "- Statistic: %.4g\n", r.Outcome.Statistic)
	if r.Outcome.DF2 != nil {
		fmt.Fprintf(&b, "- df: (%.4g, %.4g)\n", r.Outcome.DF1, *r.Outcome.DF2)
	} else if r.Outcome.DF1 > 0 {
		fmt.Fprintf(&b, "- df: %.4g\n", r.Outcome.DF1)
	}
	fmt.Fprintf(&b, "- p-value: %s\n", formatP(r.Outcome.PValue))
	fmt.Fprintf(&b, "- Significant at alpha=%g: %v\n", r.Alpha, r.Outcome.Significant)
	fmt.Fprintf(&b, "- Balance: %.4g (%s)\n", r.Balance.Coefficient, r.Balance.Band)

	if r.PostHoc != nil {
		fmt.Fprintf(&b, "\n## Post-hoc: %s (adjustment: %s)\n\n", r.PostHoc.Procedure, r.PostHoc.Adjustment)
		b.WriteString("| Contrast | Estimate | Lower | Upper | Adj. p | Significant |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, c := range r.PostHoc.Comparisons {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %v |\n",
				c.Contrast, optNum(c.Estimate), optNum(c.Lower), optNum(c.Upper),
				formatP(c.AdjustedP), c.Significant)
		}
	}

	writeWarnings(&b, r.Warnings)
	return b.String()
}

// SummaryMarkdown renders the per-variable comparison table
func (f *Formatter) SummaryMarkdown(t *domstats.SummaryTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Summary table by %s (%s vs %s)\n\n", t.Factor, t.Levels[0], t.Levels[1])
	b.WriteString("| Variable | Test | Statistic | p-value | Effect | Note |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, row := range t.Rows {
		if row.Skipped {
			fmt.Fprintf(&b, "| %s | — | — | — | — | %s |\n", row.Variable, row.SkipReason)
			continue
		}
		note := ""
		if row.Outcome.Approximate {
			note = "simulated p-value"
		}
		effect := "—"
		if row.Effect != nil {
			effect = fmt.Sprintf("%s=%.3f", row.Effect.Label, row.Effect.Value)
		}
		fmt.Fprintf(&b, "| %s | %s | %.4g | %s | %s | %s |\n",
			row.Variable, row.Outcome.Test, row.Outcome.Statistic,
			formatP(row.Outcome.PValue), effect, note)
	}
	return b.String()
}

// ToHTML converts a rendered markdown report to an HTML fragment
func (f *Formatter) ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func writeAssumption(b *strings.Builder, name string, c *domstats.AssumptionCheck) {
	if c == nil {
		fmt.Fprintf(b, "- %s: not verified\n", name)
		return
	}
	fmt.Fprintf(b, "- %s: %s (stat=%.4g, p=%s) — %s\n",
		name, c.TestName, c.Statistic, formatP(c.PValue), c.Key)
}

func writeWarnings(b *strings.Builder, warnings []domstats.Warning) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("\n## Warnings\n\n")
	for _, w := range warnings {
		fmt.Fprintf(b, "- [%s] %s\n", w.Code, w.Message)
	}
}

func optNum(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.4g", *v)
}

func formatP(p float64) string {
	if p < 0.001 {
		return fmt.Sprintf("%.2e", p)
	}
	return fmt.Sprintf("%.4f", p)
}
