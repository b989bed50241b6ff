package dataset

import (
	"math"
	"testing"

	"groupstat/domain/stats"
	"groupstat/internal/errors"
)

func numericFrame(t *testing.T) *Frame {
	t.Helper()
	f := NewFrame()
	if err := f.AddNumeric("y", []float64{1, 2, math.NaN(), 4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddCategorical("x", []string{"b", "a", "a", "a", "b", ""}); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestGroupNumericDropPolicy(t *testing.T) {
	f := numericFrame(t)
	y, _ := f.Resolve("y")
	x, _ := f.Resolve("x")

	groups, err := GroupNumeric(y, x, stats.MissingDrop)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(groups))
	}
	// Lexical ordering
	if groups[0].Level != "a" || groups[1].Level != "b" {
		t.Fatalf("levels out of order: %s, %s", groups[0].Level, groups[1].Level)
	}
	// Row with NaN response dropped, row with missing factor dropped
	if got := groups[0].Values; len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("group a values: %v", got)
	}
	if groups[0].Missing != 0 {
		t.Fatalf("drop policy must not count missing, got %d", groups[0].Missing)
	}
}

func TestGroupNumericMarkExcludePolicy(t *testing.T) {
	f := numericFrame(t)
	y, _ := f.Resolve("y")
	x, _ := f.Resolve("x")

	groups, err := GroupNumeric(y, x, stats.MissingMarkExclude)
	if err != nil {
		t.Fatal(err)
	}
	if groups[0].Missing != 1 {
		t.Fatalf("mark_exclude must count the excluded response, got %d", groups[0].Missing)
	}
	if len(groups[0].Values) != 2 {
		t.Fatalf("missing value must still be excluded from analysis, got %v", groups[0].Values)
	}
}

func TestCrosstabLexicalOrderAndMissing(t *testing.T) {
	f := NewFrame()
	if err := f.AddCategorical("v", []string{"yes", "no", "yes", "", "no", "yes"}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddCategorical("x", []string{"t", "c", "c", "t", "t", "t"}); err != nil {
		t.Fatal(err)
	}
	v, _ := f.Resolve("v")
	x, _ := f.Resolve("x")

	rows, cols, table, missing, err := Crosstab(v, x, stats.MissingMarkExclude)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0] != "no" || rows[1] != "yes" {
		t.Fatalf("row levels out of order: %v", rows)
	}
	if cols[0] != "c" || cols[1] != "t" {
		t.Fatalf("col levels out of order: %v", cols)
	}
	// no/c=1, no/t=1, yes/c=1, yes/t=2
	if table[0][0] != 1 || table[0][1] != 1 || table[1][0] != 1 || table[1][1] != 2 {
		t.Fatalf("unexpected counts: %v", table)
	}
	if missing != 1 {
		t.Fatalf("expected 1 excluded row, got %d", missing)
	}

	_, _, _, missing, err = Crosstab(v, x, stats.MissingDrop)
	if err != nil {
		t.Fatal(err)
	}
	if missing != 0 {
		t.Fatalf("drop policy must not report missing, got %d", missing)
	}
}

func pivotFrame(t *testing.T, values []float64, conditions, subjects []string) (*Frame, ColumnRef, ColumnRef, ColumnRef) {
	t.Helper()
	f := NewFrame()
	if err := f.AddNumeric("y", values); err != nil {
		t.Fatal(err)
	}
	if err := f.AddCategorical("cond", conditions); err != nil {
		t.Fatal(err)
	}
	if err := f.AddCategorical("subj", subjects); err != nil {
		t.Fatal(err)
	}
	y, _ := f.Resolve("y")
	c, _ := f.Resolve("cond")
	s, _ := f.Resolve("subj")
	return f, y, c, s
}

func TestPivotRepeatedBuildsAlignedMatrix(t *testing.T) {
	_, y, c, s := pivotFrame(t,
		[]float64{1, 2, 3, 4, 5, 6},
		[]string{"a", "b", "c", "a", "b", "c"},
		[]string{"s1", "s1", "s1", "s2", "s2", "s2"})

	m, err := PivotRepeated(y, c, s, stats.MissingDrop)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Subjects) != 2 || len(m.Levels) != 3 {
		t.Fatalf("matrix shape %dx%d", len(m.Subjects), len(m.Levels))
	}
	if m.Data[0][0] != 1 || m.Data[1][2] != 6 {
		t.Fatalf("matrix misaligned: %v", m.Data)
	}

	groups := GroupsFromMatrix(m)
	if len(groups) != 3 {
		t.Fatalf("expected one group per condition, got %d", len(groups))
	}
	if groups[1].Level != "b" || groups[1].Values[0] != 2 || groups[1].Values[1] != 5 {
		t.Fatalf("condition column extraction broken: %+v", groups[1])
	}
}

func TestPivotRepeatedDuplicateObservation(t *testing.T) {
	_, y, c, s := pivotFrame(t,
		[]float64{1, 2, 3, 9},
		[]string{"a", "b", "c", "a"},
		[]string{"s1", "s1", "s1", "s1"})

	_, err := PivotRepeated(y, c, s, stats.MissingDrop)
	if errors.GetCode(err) != errors.CodeDesignMismatch {
		t.Fatalf("expected design mismatch, got %v", err)
	}
}

func TestPivotRepeatedDropsIncompleteSubjects(t *testing.T) {
	_, y, c, s := pivotFrame(t,
		[]float64{1, 2, 3, 4, 5},
		[]string{"a", "b", "c", "a", "b"},
		[]string{"s1", "s1", "s1", "s2", "s2"})

	m, err := PivotRepeated(y, c, s, stats.MissingMarkExclude)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Subjects) != 1 || m.Subjects[0] != "s1" {
		t.Fatalf("incomplete subject must be dropped, got %v", m.Subjects)
	}
	if m.DroppedSubjects != 1 {
		t.Fatalf("mark_exclude must count dropped subjects, got %d", m.DroppedSubjects)
	}
}

func TestFrameValidation(t *testing.T) {
	f := NewFrame()
	if err := f.AddNumeric("a", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric("a", []float64{3, 4}); err == nil {
		t.Fatal("expected duplicate-name error")
	}
	if err := f.AddNumeric("b", []float64{1, 2, 3}); err == nil {
		t.Fatal("expected length-mismatch error")
	}

	if _, err := f.Resolve("missing"); errors.GetCode(err) != errors.CodeColumnNotFound {
		t.Fatalf("expected column-not-found, got %v", err)
	}
	if _, err := f.ResolveKind("a", KindCategorical); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}

func TestColumnDistinctNonMissing(t *testing.T) {
	c := &Column{Kind: KindNumeric, Numeric: []float64{1, 1, math.NaN(), 2}}
	if got := c.DistinctNonMissing(); got != 2 {
		t.Fatalf("numeric distinct: got %d", got)
	}
	c = &Column{Kind: KindCategorical, Labels: []string{"x", "", "x", "y"}}
	if got := c.DistinctNonMissing(); got != 2 {
		t.Fatalf("categorical distinct: got %d", got)
	}
}
