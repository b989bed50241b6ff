package dataset

import (
	"fmt"
	"sort"

	"groupstat/domain/stats"
	"groupstat/internal/errors"
)

// Group is one factor level's non-missing response values
type Group struct {
	Level   string
	Values  []float64
	Missing int
}

// GroupNumeric partitions a numeric response by a categorical factor.
// Levels are returned in lexical order for determinism. Under the drop
// policy rows with a missing value in either column are removed before
// grouping; under mark_exclude missing responses stay counted per group.
func GroupNumeric(y, x ColumnRef, policy stats.MissingPolicy) ([]Group, error) {
	yc, xc := y.Col(), x.Col()
	byLevel := make(map[string]*Group)
	var levels []string

	for i := 0; i < yc.Len(); i++ {
		if xc.IsMissing(i) {
			continue // no group to attribute the row to
		}
		level := xc.Labels[i]
		g, ok := byLevel[level]
		if !ok {
			g = &Group{Level: level}
			byLevel[level] = g
			levels = append(levels, level)
		}
		if yc.IsMissing(i) {
			if policy == stats.MissingMarkExclude {
				g.Missing++
			}
			continue
		}
		g.Values = append(g.Values, yc.Numeric[i])
	}

	sort.Strings(levels)
	groups := make([]Group, 0, len(levels))
	for _, level := range levels {
		groups = append(groups, *byLevel[level])
	}
	return groups, nil
}

// Crosstab builds the contingency table of a categorical variable against the
// factor. Rows are variable levels, columns are factor levels, both lexically
// ordered. Rows with a missing value in either column are excluded; under
// mark_exclude the exclusion count is returned.
func Crosstab(v, x ColumnRef, policy stats.MissingPolicy) (rowLevels, colLevels []string, table [][]float64, missing int, err error) {
	vc, xc := v.Col(), x.Col()

	rowIdx := make(map[string]int)
	colIdx := make(map[string]int)
	type cell struct{ r, c int }
	counts := make(map[cell]float64)

	for i := 0; i < vc.Len(); i++ {
		if vc.IsMissing(i) || xc.IsMissing(i) {
			missing++
			continue
		}
		rv, cv := vc.Labels[i], xc.Labels[i]
		if _, ok := rowIdx[rv]; !ok {
			rowIdx[rv] = len(rowLevels)
			rowLevels = append(rowLevels, rv)
		}
		if _, ok := colIdx[cv]; !ok {
			colIdx[cv] = len(colLevels)
			colLevels = append(colLevels, cv)
		}
		counts[cell{rowIdx[rv], colIdx[cv]}]++
	}
	if policy == stats.MissingDrop {
		missing = 0
	}

	// Re-key into lexical order
	sortedRows := append([]string(nil), rowLevels...)
	sortedCols := append([]string(nil), colLevels...)
	sort.Strings(sortedRows)
	sort.Strings(sortedCols)

	table = make([][]float64, len(sortedRows))
	for ri, rv := range sortedRows {
		table[ri] = make([]float64, len(sortedCols))
		for ci, cv := range sortedCols {
			table[ri][ci] = counts[cell{rowIdx[rv], colIdx[cv]}]
		}
	}
	return sortedRows, sortedCols, table, missing, nil
}

// RepeatedMatrix is the subjects-by-conditions layout used for repeated
// designs. Data[i][j] is subject Subjects[i] under condition Levels[j].
type RepeatedMatrix struct {
	Subjects []string
	Levels   []string
	Data     [][]float64
	// DroppedSubjects counts subjects removed for incomplete condition coverage
	DroppedSubjects int
}

// PivotRepeated reshapes the long-form response into a subjects x conditions
// matrix. Each subject must contribute exactly one observation per factor
// level; duplicates are a hard error since silently aggregating them would
// corrupt every downstream statistic. Subjects missing a cell are removed
// (and counted under mark_exclude).
func PivotRepeated(y, x, subject ColumnRef, policy stats.MissingPolicy) (*RepeatedMatrix, error) {
	yc, xc, sc := y.Col(), x.Col(), subject.Col()

	type key struct{ subj, level string }
	seen := make(map[key]float64)
	has := make(map[key]bool)
	var subjects, levels []string
	subjSet := make(map[string]bool)
	levelSet := make(map[string]bool)

	for i := 0; i < yc.Len(); i++ {
		if xc.IsMissing(i) || sc.IsMissing(i) {
			continue
		}
		k := key{sc.Labels[i], xc.Labels[i]}
		if !subjSet[k.subj] {
			subjSet[k.subj] = true
			subjects = append(subjects, k.subj)
		}
		if !levelSet[k.level] {
			levelSet[k.level] = true
			levels = append(levels, k.level)
		}
		if yc.IsMissing(i) {
			continue
		}
		if has[k] {
			return nil, errors.DesignMismatch(fmt.Sprintf(
				"subject %q has more than one observation at level %q", k.subj, k.level))
		}
		has[k] = true
		seen[k] = yc.Numeric[i]
	}

	sort.Strings(subjects)
	sort.Strings(levels)

	m := &RepeatedMatrix{Levels: levels}
	for _, s := range subjects {
		row := make([]float64, len(levels))
		complete := true
		for j, l := range levels {
			v, ok := seen[key{s, l}]
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		if !complete {
			if policy == stats.MissingMarkExclude {
				m.DroppedSubjects++
			}
			continue
		}
		m.Subjects = append(m.Subjects, s)
		m.Data = append(m.Data, row)
	}

	// Alignment check: every matrix cell must round-trip to its source pair.
	for i, s := range m.Subjects {
		for j, l := range m.Levels {
			if v, ok := seen[key{s, l}]; !ok || v != m.Data[i][j] {
				return nil, errors.New(errors.CodeInternalError,
					fmt.Sprintf("reshape misalignment at subject %q level %q", s, l))
			}
		}
	}
	return m, nil
}

// GroupsFromMatrix converts the repeated-measures matrix to per-condition
// groups, preserving the shared subject (row) ordering in each group.
func GroupsFromMatrix(m *RepeatedMatrix) []Group {
	groups := make([]Group, len(m.Levels))
	for j, level := range m.Levels {
		vals := make([]float64, len(m.Data))
		for i := range m.Data {
			vals[i] = m.Data[i][j]
		}
		groups[j] = Group{Level: level, Values: vals}
	}
	return groups
}
