package sweep

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"groupstat/domain/core"
	domstats "groupstat/domain/stats"
	"groupstat/internal/analysis"
	"groupstat/internal/dataset"
	"groupstat/internal/errors"
)

// Generator assembles the per-variable comparison table for a two-level
// factor by running the pairwise engine over every other column.
type Generator struct {
	engine      *analysis.Engine
	concurrency int64
}

// NewGenerator creates a generator with one worker per CPU
func NewGenerator() *Generator {
	return &Generator{
		engine:      analysis.NewEngine(),
		concurrency: int64(runtime.NumCPU()),
	}
}

// SummaryTable compares every column (except the factor and any excluded
// names) between the two factor levels. Variables whose own validation fails
// become skipped rows; the table itself only fails on bad global input.
func (g *Generator) SummaryTable(ctx context.Context, frame *dataset.Frame, factor string, opts analysis.Options, exclude ...string) (*domstats.SummaryTable, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	x, err := frame.ResolveKind(factor, dataset.KindCategorical)
	if err != nil {
		return nil, err
	}

	levels := distinctLabels(x.Col())
	if len(levels) != 2 {
		return nil, errors.InsufficientLevels(factor, len(levels), 2)
	}

	skip := map[string]bool{factor: true}
	for _, name := range exclude {
		skip[name] = true
	}
	var targets []string
	for _, c := range frame.Columns() {
		if !skip[c.Name] {
			targets = append(targets, c.Name)
		}
	}

	rows := make([]domstats.PairwiseReport, len(targets))
	sem := semaphore.NewWeighted(g.concurrency)
	var wg sync.WaitGroup

	for i, name := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			defer sem.Release(1)
			report, err := g.engine.Pairwise(analysis.PairwiseRequest{
				Frame:    frame,
				Variable: name,
				Factor:   factor,
				Options:  opts,
			})
			if err != nil {
				rows[i] = domstats.PairwiseReport{
					Variable:   name,
					Skipped:    true,
					SkipReason: err.Error(),
				}
				return
			}
			rows[i] = *report
		}(i, name)
	}
	wg.Wait()

	return &domstats.SummaryTable{
		ID:        core.NewAnalysisID(),
		Factor:    factor,
		Levels:    [2]string{levels[0], levels[1]},
		Alpha:     opts.Alpha,
		Rows:      rows,
		CreatedAt: core.Now(),
	}, nil
}

func distinctLabels(c *dataset.Column) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range c.Labels {
		if l != "" && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}
