package api

import (
	"math"

	domstats "groupstat/domain/stats"
	"groupstat/internal/analysis"
	"groupstat/internal/dataset"
	"groupstat/internal/errors"
)

// ColumnPayload is one column of inline request data. Numeric columns mark
// missing entries with null, categorical columns with the empty string.
type ColumnPayload struct {
	Name    string     `json:"name"`
	Kind    string     `json:"kind"`
	Numeric []*float64 `json:"numeric,omitempty"`
	Labels  []string   `json:"labels,omitempty"`
}

// AnalysisOptionsPayload carries the shared engine options
type AnalysisOptionsPayload struct {
	Alpha      float64 `json:"alpha"`
	Adjustment string  `json:"adjustment"`
	Missing    string  `json:"missing"`
	Seed       int64   `json:"seed,omitempty"`
}

// OmnibusRequestPayload is the body of POST /v1/analyses/omnibus
type OmnibusRequestPayload struct {
	Columns  []ColumnPayload        `json:"columns"`
	Response string                 `json:"response"`
	Factor   string                 `json:"factor"`
	PairedBy string                 `json:"paired_by,omitempty"`
	Options  AnalysisOptionsPayload `json:"options"`
}

// SummaryRequestPayload is the body of POST /v1/analyses/summary
type SummaryRequestPayload struct {
	Columns []ColumnPayload        `json:"columns"`
	Factor  string                 `json:"factor"`
	Exclude []string               `json:"exclude,omitempty"`
	Options AnalysisOptionsPayload `json:"options"`
}

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func buildFrame(cols []ColumnPayload) (*dataset.Frame, error) {
	if len(cols) == 0 {
		return nil, errors.InvalidInput("no columns supplied")
	}
	frame := dataset.NewFrame()
	for _, c := range cols {
		switch c.Kind {
		case string(dataset.KindNumeric):
			values := make([]float64, len(c.Numeric))
			for i, v := range c.Numeric {
				if v == nil {
					values[i] = math.NaN()
				} else {
					values[i] = *v
				}
			}
			if err := frame.AddNumeric(c.Name, values); err != nil {
				return nil, err
			}
		case string(dataset.KindCategorical):
			if err := frame.AddCategorical(c.Name, c.Labels); err != nil {
				return nil, err
			}
		default:
			return nil, errors.InvalidEnum("column kind", c.Kind)
		}
	}
	return frame, nil
}

func buildOptions(p AnalysisOptionsPayload, defaults analysis.Options) analysis.Options {
	opts := defaults
	if p.Alpha != 0 {
		opts.Alpha = p.Alpha
	}
	if p.Adjustment != "" {
		opts.Adjustment = domstats.AdjustMethod(p.Adjustment)
	}
	if p.Missing != "" {
		opts.MissingPolicy = domstats.MissingPolicy(p.Missing)
	}
	if p.Seed != 0 {
		opts.Seed = p.Seed
	}
	return opts
}
