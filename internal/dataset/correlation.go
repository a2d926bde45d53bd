package dataset

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"airquality-platform/internal/models"
)

// varianceFloor is the relative variance below which a column is treated
// as constant and its correlations are undefined
const varianceFloor = 1e-12

// Correlation computes the pairwise Pearson correlation matrix of fields.
// Each pair uses only rows where both fields are present, so different pairs
// may be computed over different rows. Pairs with fewer than two rows or a
// (near-)constant column are undefined. The diagonal is 1 for every field
// with at least one value.
func (d *Dataset) Correlation(fields []models.Field) (*models.CorrelationMatrix, error) {
	if len(fields) == 0 {
		return nil, &models.InvalidParameterError{Name: "fields", Value: "", Reason: "at least one field is required"}
	}
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return nil, err
		}
	}

	n := len(fields)
	m := &models.CorrelationMatrix{
		Fields:       append([]models.Field(nil), fields...),
		Values:       make([][]*float64, n),
		Observations: make([][]int, n),
	}
	for i := range m.Values {
		m.Values[i] = make([]*float64, n)
		m.Observations[i] = make([]int, n)
	}

	for i := 0; i < n; i++ {
		count := len(d.present(fields[i]))
		m.Observations[i][i] = count
		if count > 0 {
			m.Values[i][i] = models.Float(1)
		}

		for j := i + 1; j < n; j++ {
			xs, ys := d.pairs(fields[i], fields[j])
			m.Observations[i][j] = len(xs)
			m.Observations[j][i] = len(xs)

			r := pearson(xs, ys)
			m.Values[i][j] = r
			if r != nil {
				mirrored := *r
				m.Values[j][i] = &mirrored
			}
		}
	}

	return m, nil
}

// pairs returns the values of two fields on rows where both are present
func (d *Dataset) pairs(a, b models.Field) ([]float64, []float64) {
	xs := make([]float64, 0, len(d.records))
	ys := make([]float64, 0, len(d.records))
	for i := range d.records {
		x, okX := d.records[i].Value(a)
		y, okY := d.records[i].Value(b)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

func pearson(xs, ys []float64) *float64 {
	if len(xs) < 2 {
		return nil
	}
	if nearConstant(xs) || nearConstant(ys) {
		return nil
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return nil
	}
	return models.Float(math.Max(-1, math.Min(1, r)))
}

func nearConstant(values []float64) bool {
	mean, variance := stat.MeanVariance(values, nil)
	scale := math.Max(1, mean*mean)
	return variance <= varianceFloor*scale
}
