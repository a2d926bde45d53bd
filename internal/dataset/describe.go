package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"airquality-platform/internal/models"
)

// Describe computes count, mean, standard deviation, min, quartiles and max
// for every numeric field. Fields without values report undefined statistics.
func (d *Dataset) Describe() *models.Summary {
	summary := &models.Summary{
		Rows:   len(d.records),
		Fields: make([]models.FieldSummary, 0, len(models.NumericFields())),
	}

	for _, f := range models.NumericFields() {
		summary.Fields = append(summary.Fields, describeValues(f, d.present(f)))
	}

	return summary
}

func describeValues(f models.Field, values []float64) models.FieldSummary {
	fs := models.FieldSummary{Field: f, Count: len(values)}
	if len(values) == 0 {
		return fs
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	fs.Mean = models.Float(stat.Mean(sorted, nil))
	if len(sorted) > 1 {
		fs.Std = models.Float(stat.StdDev(sorted, nil))
	}
	fs.Min = models.Float(sorted[0])
	fs.Q25 = models.Float(quantile(sorted, 0.25))
	fs.Q50 = models.Float(quantile(sorted, 0.50))
	fs.Q75 = models.Float(quantile(sorted, 0.75))
	fs.Max = models.Float(sorted[len(sorted)-1])

	return fs
}

// quantile interpolates linearly between the closest ranks of sorted data,
// the convention used by pandas describe(). sorted must be non-empty.
//
// gonum's stat.Quantile offers only the empirical and R type 4 estimators,
// neither of which matches the dashboard's reference output.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := p * float64(len(sorted)-1)
	lo := math.Floor(h)
	hi := math.Ceil(h)
	if lo == hi {
		return sorted[int(lo)]
	}
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}
