package dataset

import (
	"math"

	"groupstat/internal/errors"
)

// Kind classifies a column for analysis purposes
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Column is one named variable. Numeric columns mark missing entries with NaN,
// categorical columns with the empty string.
type Column struct {
	Name    string
	Kind    Kind
	Numeric []float64
	Labels  []string
}

// Len returns the number of rows in the column
func (c *Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.Numeric)
	}
	return len(c.Labels)
}

// IsMissing reports whether row i holds a missing value
func (c *Column) IsMissing(i int) bool {
	if c.Kind == KindNumeric {
		return math.IsNaN(c.Numeric[i])
	}
	return c.Labels[i] == ""
}

// DistinctNonMissing counts distinct non-missing values in the column
func (c *Column) DistinctNonMissing() int {
	if c.Kind == KindNumeric {
		seen := make(map[float64]bool)
		for _, v := range c.Numeric {
			if !math.IsNaN(v) {
				seen[v] = true
			}
		}
		return len(seen)
	}
	seen := make(map[string]bool)
	for _, v := range c.Labels {
		if v != "" {
			seen[v] = true
		}
	}
	return len(seen)
}

// Frame is an in-memory rectangular sample: equally sized named columns
type Frame struct {
	rows  int
	cols  []*Column
	index map[string]int
}

// NewFrame creates an empty frame
func NewFrame() *Frame {
	return &Frame{index: make(map[string]int)}
}

// Rows returns the row count
func (f *Frame) Rows() int { return f.rows }

// Columns returns all columns in insertion order
func (f *Frame) Columns() []*Column { return f.cols }

// AddNumeric appends a numeric column. NaN entries are treated as missing.
func (f *Frame) AddNumeric(name string, values []float64) error {
	return f.add(&Column{Name: name, Kind: KindNumeric, Numeric: values})
}

// AddCategorical appends a categorical column. Empty labels are treated as missing.
func (f *Frame) AddCategorical(name string, labels []string) error {
	return f.add(&Column{Name: name, Kind: KindCategorical, Labels: labels})
}

func (f *Frame) add(c *Column) error {
	if _, exists := f.index[c.Name]; exists {
		return errors.InvalidInput("duplicate column name " + c.Name)
	}
	if len(f.cols) == 0 {
		f.rows = c.Len()
	} else if c.Len() != f.rows {
		return errors.InvalidInput("column " + c.Name + " length does not match frame")
	}
	f.index[c.Name] = len(f.cols)
	f.cols = append(f.cols, c)
	return nil
}

// Column looks up a column by name
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// ColumnRef is a column reference resolved once at input validation,
// so later stages never fail on a typo'd name.
type ColumnRef struct {
	col *Column
}

// Resolve validates that a column exists and returns a typed reference
func (f *Frame) Resolve(name string) (ColumnRef, error) {
	c, ok := f.Column(name)
	if !ok {
		return ColumnRef{}, errors.ColumnNotFound(name)
	}
	return ColumnRef{col: c}, nil
}

// ResolveKind resolves a column and checks its kind
func (f *Frame) ResolveKind(name string, kind Kind) (ColumnRef, error) {
	ref, err := f.Resolve(name)
	if err != nil {
		return ColumnRef{}, err
	}
	if ref.col.Kind != kind {
		return ColumnRef{}, errors.InvalidInput("column " + name + " is not " + string(kind))
	}
	return ref, nil
}

// Name returns the referenced column's name
func (r ColumnRef) Name() string { return r.col.Name }

// Kind returns the referenced column's kind
func (r ColumnRef) Kind() Kind { return r.col.Kind }

// Col returns the underlying column
func (r ColumnRef) Col() *Column { return r.col }
