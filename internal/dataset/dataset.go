// Package dataset holds the loaded air quality records and the pure
// filtering and aggregation operations computed over them.
//
// A Dataset is immutable once built: every operation returns a new value
// and a Dataset may be shared between goroutines without locking.
package dataset

import (
	"airquality-platform/internal/models"
)

// Dataset is an ordered, read-only sequence of hourly records
type Dataset struct {
	station string
	records []models.Record
	skipped int
}

// FromRecords builds a Dataset from typed records kept in the given order
func FromRecords(station string, records []models.Record) *Dataset {
	copied := make([]models.Record, len(records))
	copy(copied, records)
	return &Dataset{
		station: station,
		records: copied,
	}
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Empty reports whether the dataset has no records
func (d *Dataset) Empty() bool {
	return len(d.records) == 0
}

// Station returns the monitoring station identifier
func (d *Dataset) Station() string {
	return d.station
}

// Skipped returns the number of source rows dropped at load time
// because their timestamp could not be parsed
func (d *Dataset) Skipped() int {
	return d.skipped
}

// Record returns a copy of the i-th record
func (d *Dataset) Record(i int) models.Record {
	return d.records[i]
}

// Records returns a copy of all records
func (d *Dataset) Records() []models.Record {
	out := make([]models.Record, len(d.records))
	copy(out, d.records)
	return out
}

// Filter returns the records of one calendar month.
// An empty result is a valid dataset, not an error.
func (d *Dataset) Filter(c models.FilterCriteria) *Dataset {
	return d.where(func(r *models.Record) bool {
		return r.Year == c.Year && r.Month == c.Month
	})
}

// FilterYear returns the records of one year
func (d *Dataset) FilterYear(year int) *Dataset {
	return d.where(func(r *models.Record) bool {
		return r.Year == year
	})
}

func (d *Dataset) where(keep func(*models.Record) bool) *Dataset {
	out := &Dataset{station: d.station}
	for i := range d.records {
		if keep(&d.records[i]) {
			out.records = append(out.records, d.records[i])
		}
	}
	return out
}

// Periods returns the distinct years in source order, each with its
// distinct months in source order
func (d *Dataset) Periods() []models.Period {
	var periods []models.Period
	index := make(map[int]int)
	seen := make(map[[2]int]bool)

	for i := range d.records {
		r := &d.records[i]
		pos, ok := index[r.Year]
		if !ok {
			pos = len(periods)
			index[r.Year] = pos
			periods = append(periods, models.Period{Year: r.Year})
		}
		key := [2]int{r.Year, r.Month}
		if !seen[key] {
			seen[key] = true
			periods[pos].Months = append(periods[pos].Months, r.Month)
		}
	}

	return periods
}

// Values returns the nullable column of a field in source order
func (d *Dataset) Values(f models.Field) ([]*float64, error) {
	if err := checkField(f); err != nil {
		return nil, err
	}

	values := make([]*float64, len(d.records))
	for i := range d.records {
		if v, ok := d.records[i].Value(f); ok {
			values[i] = &v
		}
	}
	return values, nil
}

// Series returns the time series of a field in source order
func (d *Dataset) Series(f models.Field) ([]models.SeriesPoint, error) {
	values, err := d.Values(f)
	if err != nil {
		return nil, err
	}

	points := make([]models.SeriesPoint, len(d.records))
	for i := range d.records {
		r := &d.records[i]
		points[i] = models.SeriesPoint{
			Year:  r.Year,
			Month: r.Month,
			Day:   r.Day,
			Hour:  r.Hour,
			Value: values[i],
		}
	}
	return points, nil
}

// Scatter returns the (x, y) pairs of rows where both fields are present
func (d *Dataset) Scatter(x, y models.Field) ([]models.ScatterPoint, error) {
	if err := checkField(x); err != nil {
		return nil, err
	}
	if err := checkField(y); err != nil {
		return nil, err
	}

	points := make([]models.ScatterPoint, 0, len(d.records))
	for i := range d.records {
		xv, okX := d.records[i].Value(x)
		yv, okY := d.records[i].Value(y)
		if okX && okY {
			points = append(points, models.ScatterPoint{X: xv, Y: yv})
		}
	}
	return points, nil
}

// present collects the non-missing values of a field
func (d *Dataset) present(f models.Field) []float64 {
	values := make([]float64, 0, len(d.records))
	for i := range d.records {
		if v, ok := d.records[i].Value(f); ok {
			values = append(values, v)
		}
	}
	return values
}

func checkField(f models.Field) error {
	for _, known := range models.NumericFields() {
		if known == f {
			return nil
		}
	}
	return &models.InvalidFieldError{Name: string(f)}
}
