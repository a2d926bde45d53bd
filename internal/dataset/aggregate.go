package dataset

import (
	"sort"
	"strconv"

	"airquality-platform/internal/models"
)

// groupDomain describes the ordered key space of a grouping
type groupDomain struct {
	size  int
	index func(*models.Record) (int, bool)
	label func(int) string
}

func domainFor(key models.GroupKey) (groupDomain, error) {
	switch key {
	case models.GroupByMonth:
		return groupDomain{
			size:  13,
			index: func(r *models.Record) (int, bool) { return r.Month, true },
			label: strconv.Itoa,
		}, nil
	case models.GroupByHour:
		return groupDomain{
			size:  24,
			index: func(r *models.Record) (int, bool) { return r.Hour, true },
			label: strconv.Itoa,
		}, nil
	case models.GroupByWindDirection:
		return groupDomain{
			size: len(models.Compass),
			index: func(r *models.Record) (int, bool) {
				if r.WD == nil {
					return 0, false
				}
				idx := r.WD.Index()
				return idx, idx >= 0
			},
			label: func(i int) string { return string(models.Compass[i]) },
		}, nil
	}
	return groupDomain{}, &models.InvalidParameterError{Name: "group", Value: string(key), Reason: "expected month, hour or wd"}
}

// GroupMean averages a field per group key. Missing values are excluded from
// both sum and count; a key whose values are all missing yields an undefined
// mean. Keys absent from the data are omitted. Records with a missing key are
// not grouped.
func (d *Dataset) GroupMean(key models.GroupKey, f models.Field) ([]models.GroupMean, error) {
	if err := checkField(f); err != nil {
		return nil, err
	}
	domain, err := domainFor(key)
	if err != nil {
		return nil, err
	}

	type accumulator struct {
		seen  bool
		sum   float64
		count int
	}
	acc := make([]accumulator, domain.size)

	for i := range d.records {
		r := &d.records[i]
		k, ok := domain.index(r)
		if !ok || k < 0 || k >= domain.size {
			continue
		}
		acc[k].seen = true
		if v, present := r.Value(f); present {
			acc[k].sum += v
			acc[k].count++
		}
	}

	result := make([]models.GroupMean, 0, domain.size)
	for k, a := range acc {
		if !a.seen {
			continue
		}
		entry := models.GroupMean{Key: domain.label(k), Count: a.count}
		if a.count > 0 {
			entry.Mean = models.Float(a.sum / float64(a.count))
		}
		if key == models.GroupByWindDirection {
			entry.Bearing = models.Float(models.Compass[k].Bearing())
		}
		result = append(result, entry)
	}

	return result, nil
}

// WindRoseMean averages PM2.5 per compass direction. Directions without
// observations are absent from the result.
func (d *Dataset) WindRoseMean() []models.GroupMean {
	result, _ := d.GroupMean(models.GroupByWindDirection, models.FieldPM25)
	return result
}

// GroupDistribution computes box plot statistics of a field per group key.
// Whiskers extend to the most extreme values within 1.5 IQR of the quartiles.
func (d *Dataset) GroupDistribution(key models.GroupKey, f models.Field) ([]models.GroupDistribution, error) {
	if err := checkField(f); err != nil {
		return nil, err
	}
	domain, err := domainFor(key)
	if err != nil {
		return nil, err
	}

	seen := make([]bool, domain.size)
	groups := make([][]float64, domain.size)
	for i := range d.records {
		r := &d.records[i]
		k, ok := domain.index(r)
		if !ok || k < 0 || k >= domain.size {
			continue
		}
		seen[k] = true
		if v, present := r.Value(f); present {
			groups[k] = append(groups[k], v)
		}
	}

	result := make([]models.GroupDistribution, 0, domain.size)
	for k := range groups {
		if !seen[k] {
			continue
		}
		result = append(result, boxStats(domain.label(k), groups[k]))
	}

	return result, nil
}

func boxStats(key string, values []float64) models.GroupDistribution {
	dist := models.GroupDistribution{Key: key, Count: len(values), Outliers: []float64{}}
	if len(values) == 0 {
		return dist
	}

	sort.Float64s(values)
	q1 := quantile(values, 0.25)
	q3 := quantile(values, 0.75)
	iqr := q3 - q1
	lowFence := q1 - 1.5*iqr
	highFence := q3 + 1.5*iqr

	lower, upper := q1, q3
	for _, v := range values {
		if v >= lowFence {
			lower = v
			break
		}
	}
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] <= highFence {
			upper = values[i]
			break
		}
	}
	for _, v := range values {
		if v < lowFence || v > highFence {
			dist.Outliers = append(dist.Outliers, v)
		}
	}

	dist.Min = models.Float(values[0])
	dist.Q1 = models.Float(q1)
	dist.Median = models.Float(quantile(values, 0.5))
	dist.Q3 = models.Float(q3)
	dist.Max = models.Float(values[len(values)-1])
	dist.LowerWhisker = models.Float(lower)
	dist.UpperWhisker = models.Float(upper)

	return dist
}
