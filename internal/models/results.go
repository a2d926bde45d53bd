package models

import (
	"math"
)

// FieldSummary holds descriptive statistics for one numeric field.
// Undefined statistics are nil.
type FieldSummary struct {
	Field Field    `json:"field"`
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Min   *float64 `json:"min"`
	Q25   *float64 `json:"q25"`
	Q50   *float64 `json:"q50"`
	Q75   *float64 `json:"q75"`
	Max   *float64 `json:"max"`
}

// Summary is the describe() table of a dataset
type Summary struct {
	Rows   int            `json:"rows"`
	Fields []FieldSummary `json:"fields"`
}

// Get returns the summary of one field
func (s *Summary) Get(f Field) (FieldSummary, bool) {
	for _, fs := range s.Fields {
		if fs.Field == f {
			return fs, true
		}
	}
	return FieldSummary{}, false
}

// GroupMean is one entry of a grouped mean, ordered by key domain
type GroupMean struct {
	Key     string   `json:"key"`
	Mean    *float64 `json:"mean"`
	Count   int      `json:"count"`
	Bearing *float64 `json:"bearing,omitempty"`
}

// CorrelationMatrix is a symmetric pairwise-complete Pearson matrix
type CorrelationMatrix struct {
	Fields       []Field      `json:"fields"`
	Values       [][]*float64 `json:"values"`
	Observations [][]int      `json:"observations"`
}

// At returns the correlation of two fields in the matrix
func (m *CorrelationMatrix) At(a, b Field) (*float64, bool) {
	i, j := -1, -1
	for k, f := range m.Fields {
		if f == a {
			i = k
		}
		if f == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return nil, false
	}
	return m.Values[i][j], true
}

// Decomposition holds additive components aligned with the input series
type Decomposition struct {
	Period   int        `json:"period"`
	Trend    []*float64 `json:"trend"`
	Seasonal []*float64 `json:"seasonal"`
	Residual []*float64 `json:"residual"`
}

// GroupDistribution holds box plot statistics for one key
type GroupDistribution struct {
	Key          string    `json:"key"`
	Count        int       `json:"count"`
	Min          *float64  `json:"min"`
	Q1           *float64  `json:"q1"`
	Median       *float64  `json:"median"`
	Q3           *float64  `json:"q3"`
	Max          *float64  `json:"max"`
	LowerWhisker *float64  `json:"lower_whisker"`
	UpperWhisker *float64  `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers"`
}

// SeriesPoint is one sample of a field over time
type SeriesPoint struct {
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Day   int      `json:"day"`
	Hour  int      `json:"hour"`
	Value *float64 `json:"value"`
}

// ScatterPoint is one pair of present values
type ScatterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Period is one selectable year with the months present in it
type Period struct {
	Year   int   `json:"year"`
	Months []int `json:"months"`
}

// Float returns a pointer to v, or nil when v is NaN or infinite
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
