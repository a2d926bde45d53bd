package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"airquality-platform/internal/models"
)

// ForwardFillMissing replaces each missing value with the most recent
// preceding value. A leading run of missing values stays missing.
// The input is not modified.
func ForwardFillMissing(values []*float64) []*float64 {
	filled := make([]*float64, len(values))
	var last *float64
	for i, v := range values {
		if v != nil {
			cp := *v
			last = &cp
		}
		if last != nil {
			cp := *last
			filled[i] = &cp
		}
	}
	return filled
}

// Decompose splits a series additively into trend, seasonal and residual
// components, series = trend + seasonal + residual.
//
// The trend is a centered moving average over one period (2xperiod for even
// periods) whose first and last period/2 samples are extrapolated linearly
// from the nearest period-1 trend values. The seasonal component is the
// zero-centered mean of the detrended series at each phase of the cycle.
//
// A leading run of missing values is skipped and yields undefined components
// at those positions; any later gap is rejected. Fewer than 2*period values
// yields an InsufficientDataError.
func Decompose(values []*float64, period int) (*models.Decomposition, error) {
	if period < 2 {
		return nil, &models.InvalidParameterError{
			Name:   "period",
			Value:  fmt.Sprint(period),
			Reason: "must be at least 2",
		}
	}

	lead := 0
	for lead < len(values) && values[lead] == nil {
		lead++
	}

	available := 0
	for _, v := range values {
		if v != nil {
			available++
		}
	}
	if available < 2*period {
		return nil, &models.InsufficientDataError{
			Period:    period,
			Required:  2 * period,
			Available: available,
		}
	}

	x := make([]float64, 0, len(values)-lead)
	for i := lead; i < len(values); i++ {
		if values[i] == nil {
			return nil, &models.InvalidParameterError{
				Name:   "series",
				Value:  fmt.Sprintf("index %d", i),
				Reason: "missing value after the first observation, forward-fill first",
			}
		}
		x = append(x, *values[i])
	}

	trend := movingAverageTrend(x, period)

	detrended := make([]float64, len(x))
	for i := range x {
		detrended[i] = x[i] - trend[i]
	}

	// phase is taken from the position in the full series so that leading
	// gaps do not shift the cycle
	phaseSum := make([]float64, period)
	phaseCount := make([]int, period)
	for i, v := range detrended {
		p := (lead + i) % period
		phaseSum[p] += v
		phaseCount[p]++
	}
	phaseMean := make([]float64, period)
	for p := range phaseMean {
		if phaseCount[p] > 0 {
			phaseMean[p] = phaseSum[p] / float64(phaseCount[p])
		}
	}
	center := stat.Mean(phaseMean, nil)
	for p := range phaseMean {
		phaseMean[p] -= center
	}

	result := &models.Decomposition{
		Period:   period,
		Trend:    make([]*float64, len(values)),
		Seasonal: make([]*float64, len(values)),
		Residual: make([]*float64, len(values)),
	}
	for i := range x {
		s := phaseMean[(lead+i)%period]
		result.Trend[lead+i] = models.Float(trend[i])
		result.Seasonal[lead+i] = models.Float(s)
		result.Residual[lead+i] = models.Float(x[i] - trend[i] - s)
	}

	return result, nil
}

// movingAverageTrend returns the centered moving average of x with both
// ends extrapolated. len(x) must be at least 2*period.
func movingAverageTrend(x []float64, period int) []float64 {
	weights := make([]float64, 0, period+1)
	if period%2 == 0 {
		weights = append(weights, 0.5/float64(period))
		for i := 1; i < period; i++ {
			weights = append(weights, 1/float64(period))
		}
		weights = append(weights, 0.5/float64(period))
	} else {
		for i := 0; i < period; i++ {
			weights = append(weights, 1/float64(period))
		}
	}
	half := len(weights) / 2

	n := len(x)
	trend := make([]float64, n)
	front, back := half, n-half-1
	for i := front; i <= back; i++ {
		var sum float64
		for k, w := range weights {
			sum += w * x[i-half+k]
		}
		trend[i] = sum
	}

	points := period - 1
	if points < 2 {
		points = 2
	}
	if limit := back - front + 1; points > limit {
		points = limit
	}

	extrapolate(trend, front, front+points-1, 0, front)
	extrapolate(trend, back-points+1, back, back+1, n)

	return trend
}

// extrapolate fits a line to trend[from..to] and writes it to trend[dstFrom:dstTo]
func extrapolate(trend []float64, from, to, dstFrom, dstTo int) {
	if dstFrom >= dstTo {
		return
	}
	xs := make([]float64, 0, to-from+1)
	ys := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		xs = append(xs, float64(i))
		ys = append(ys, trend[i])
	}

	var alpha, beta float64
	if len(xs) < 2 {
		alpha = ys[0]
	} else {
		alpha, beta = stat.LinearRegression(xs, ys, nil, false)
	}
	for i := dstFrom; i < dstTo; i++ {
		trend[i] = alpha + beta*float64(i)
	}
}
