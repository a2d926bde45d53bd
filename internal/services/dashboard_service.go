package services

import (
	"context"
	"errors"
	"fmt"

	"airquality-platform/internal/dataset"
	"airquality-platform/internal/models"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// Section failure kinds
const (
	KindEmptySelection   = "empty_selection"
	KindInsufficientData = "insufficient_data"
	KindInvalidParameter = "invalid_parameter"
	KindInternal         = "internal"
)

// Dashboard section names, used as metric labels and snapshot error keys
const (
	SectionSummary       = "summary"
	SectionSeries        = "series"
	SectionCorrelation   = "correlation"
	SectionMonthlyMeans  = "monthly_means"
	SectionHourlyMeans   = "hourly_means"
	SectionDistribution  = "distribution"
	SectionDecomposition = "decomposition"
	SectionWindRose      = "wind_rose"
	SectionScatter       = "scatter"
)

// SectionError describes why one dashboard section could not be computed
type SectionError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *SectionError) Error() string {
	return e.Kind + ": " + e.Message
}

// Classify maps an operation error to its section failure kind
func Classify(err error) *SectionError {
	var (
		empty        *models.EmptySelectionWarning
		insufficient *models.InsufficientDataError
		field        *models.InvalidFieldError
		param        *models.InvalidParameterError
	)

	kind := KindInternal
	switch {
	case errors.As(err, &empty):
		kind = KindEmptySelection
	case errors.As(err, &insufficient):
		kind = KindInsufficientData
	case errors.As(err, &field), errors.As(err, &param):
		kind = KindInvalidParameter
	}
	return &SectionError{Kind: kind, Message: err.Error()}
}

// AnalysisOptions carries the configured analysis parameters
type AnalysisOptions struct {
	DecompositionPeriod int
	CorrelationFields   []models.Field
	DefaultPollutant    models.Field
}

// Selection is the user's current view of the dashboard
type Selection struct {
	Criteria          models.FilterCriteria
	Pollutant         models.Field
	CorrelationFields []models.Field
}

// DecompositionView is a decomposition together with the series it was computed from
type DecompositionView struct {
	Field    models.Field `json:"field"`
	Observed []*float64   `json:"observed"`
	*models.Decomposition
}

// Snapshot holds every dashboard section for one selection.
// A section that failed is nil and has an entry in Errors.
type Snapshot struct {
	Station       string                     `json:"station"`
	Criteria      models.FilterCriteria      `json:"criteria"`
	Pollutant     models.Field               `json:"pollutant"`
	Rows          int                        `json:"rows"`
	Summary       *models.Summary            `json:"summary"`
	Series        []models.SeriesPoint       `json:"series"`
	Correlation   *models.CorrelationMatrix  `json:"correlation"`
	MonthlyMeans  []models.GroupMean         `json:"monthly_means"`
	HourlyMeans   []models.GroupMean         `json:"hourly_means"`
	Distribution  []models.GroupDistribution `json:"distribution"`
	Decomposition *DecompositionView         `json:"decomposition"`
	WindRose      []models.GroupMean         `json:"wind_rose"`
	Scatter       []models.ScatterPoint      `json:"scatter"`
	Errors        map[string]*SectionError   `json:"errors"`
}

func (s *Snapshot) record(section string, err error) {
	if err != nil {
		s.Errors[section] = Classify(err)
	}
}

// DashboardService computes the dashboard sections over the loaded dataset
type DashboardService struct {
	ds      *dataset.Dataset
	opts    AnalysisOptions
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDashboardService creates a dashboard service over an immutable dataset
func NewDashboardService(ds *dataset.Dataset, opts AnalysisOptions, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardService {
	if opts.DefaultPollutant == "" {
		opts.DefaultPollutant = models.FieldPM25
	}
	if len(opts.CorrelationFields) == 0 {
		opts.CorrelationFields = models.MeasurementFields()
	}
	return &DashboardService{
		ds:      ds,
		opts:    opts,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Options returns the analysis options in effect
func (s *DashboardService) Options() AnalysisOptions {
	return s.opts
}

// Station returns the station of the loaded dataset
func (s *DashboardService) Station() string {
	return s.ds.Station()
}

// Records returns the number of loaded records
func (s *DashboardService) Records() int {
	return s.ds.Len()
}

// Periods returns the selectable years and months
func (s *DashboardService) Periods(ctx context.Context) []models.Period {
	return s.ds.Periods()
}

// Snapshot computes every section for one selection. Only an invalid
// selection fails the call; section failures are collected in Errors.
func (s *DashboardService) Snapshot(ctx context.Context, sel Selection) (*Snapshot, error) {
	if err := sel.Criteria.Validate(); err != nil {
		return nil, err
	}
	if sel.Pollutant == "" {
		sel.Pollutant = s.opts.DefaultPollutant
	}
	if !sel.Pollutant.IsMeasurement() {
		return nil, &models.InvalidFieldError{Name: string(sel.Pollutant)}
	}

	snap := &Snapshot{
		Station:   s.ds.Station(),
		Criteria:  sel.Criteria,
		Pollutant: sel.Pollutant,
		Rows:      s.ds.Filter(sel.Criteria).Len(),
		Errors:    make(map[string]*SectionError),
	}

	c := sel.Criteria
	var err error

	snap.Summary, err = s.Describe(ctx, c)
	snap.record(SectionSummary, err)

	snap.Series, err = s.Series(ctx, c, sel.Pollutant)
	snap.record(SectionSeries, err)

	snap.Correlation, err = s.Correlation(ctx, &c, sel.CorrelationFields)
	snap.record(SectionCorrelation, err)

	snap.MonthlyMeans, err = s.MonthlyMeans(ctx, sel.Pollutant)
	snap.record(SectionMonthlyMeans, err)

	snap.HourlyMeans, err = s.HourlyMeans(ctx, sel.Pollutant)
	snap.record(SectionHourlyMeans, err)

	snap.Distribution, err = s.Distribution(ctx, c.Year, sel.Pollutant)
	snap.record(SectionDistribution, err)

	snap.Decomposition, err = s.Decomposition(ctx, c, sel.Pollutant, 0)
	snap.record(SectionDecomposition, err)

	snap.WindRose, err = s.WindRose(ctx, c)
	snap.record(SectionWindRose, err)

	snap.Scatter, err = s.Scatter(ctx, c, models.FieldRAIN, sel.Pollutant)
	snap.record(SectionScatter, err)

	s.logger.Info(ctx, "[DASHBOARD_SNAPSHOT] Snapshot computed", logging.Fields{
		"year":            c.Year,
		"month":           c.Month,
		"pollutant":       sel.Pollutant,
		"rows":            snap.Rows,
		"failed_sections": len(snap.Errors),
	})

	return snap, nil
}

// Describe summarizes the numeric fields of the selected month
func (s *DashboardService) Describe(ctx context.Context, c models.FilterCriteria) (summary *models.Summary, err error) {
	err = s.observe(ctx, SectionSummary, func() error {
		sub, err := s.selection(c)
		if err != nil {
			return err
		}
		summary = sub.Describe()
		return nil
	})
	return summary, err
}

// Series returns the hourly series of a field in the selected month
func (s *DashboardService) Series(ctx context.Context, c models.FilterCriteria, f models.Field) (points []models.SeriesPoint, err error) {
	err = s.observe(ctx, SectionSeries, func() error {
		sub, err := s.selection(c)
		if err != nil {
			return err
		}
		points, err = sub.Series(f)
		return err
	})
	return points, err
}

// Correlation computes the correlation matrix of the selected month, or of
// the whole dataset when c is nil. Nil fields use the configured list.
func (s *DashboardService) Correlation(ctx context.Context, c *models.FilterCriteria, fields []models.Field) (matrix *models.CorrelationMatrix, err error) {
	if len(fields) == 0 {
		fields = s.opts.CorrelationFields
	}
	err = s.observe(ctx, SectionCorrelation, func() error {
		sub := s.ds
		if c != nil {
			var err error
			if sub, err = s.selection(*c); err != nil {
				return err
			}
		}
		matrix, err = sub.Correlation(fields)
		return err
	})
	return matrix, err
}

// MonthlyMeans averages a field per calendar month over the whole dataset
func (s *DashboardService) MonthlyMeans(ctx context.Context, f models.Field) (means []models.GroupMean, err error) {
	err = s.observe(ctx, SectionMonthlyMeans, func() error {
		means, err = s.ds.GroupMean(models.GroupByMonth, f)
		return err
	})
	return means, err
}

// HourlyMeans averages a field per hour of day over the whole dataset
func (s *DashboardService) HourlyMeans(ctx context.Context, f models.Field) (means []models.GroupMean, err error) {
	err = s.observe(ctx, SectionHourlyMeans, func() error {
		means, err = s.ds.GroupMean(models.GroupByHour, f)
		return err
	})
	return means, err
}

// Distribution returns per-month box plot statistics of a field for one year
func (s *DashboardService) Distribution(ctx context.Context, year int, f models.Field) (dist []models.GroupDistribution, err error) {
	err = s.observe(ctx, SectionDistribution, func() error {
		sub := s.ds.FilterYear(year)
		if sub.Empty() {
			return &models.EmptySelectionWarning{Year: year}
		}
		dist, err = sub.GroupDistribution(models.GroupByMonth, f)
		return err
	})
	return dist, err
}

// Decomposition decomposes the forward-filled series of the selected month.
// A non-positive period uses the configured one.
func (s *DashboardService) Decomposition(ctx context.Context, c models.FilterCriteria, f models.Field, period int) (view *DecompositionView, err error) {
	if period <= 0 {
		period = s.opts.DecompositionPeriod
	}
	err = s.observe(ctx, SectionDecomposition, func() error {
		sub, err := s.selection(c)
		if err != nil {
			return err
		}
		values, err := sub.Values(f)
		if err != nil {
			return err
		}
		filled := dataset.ForwardFillMissing(values)
		decomposition, err := dataset.Decompose(filled, period)
		if err != nil {
			return err
		}
		view = &DecompositionView{Field: f, Observed: filled, Decomposition: decomposition}
		return nil
	})
	return view, err
}

// WindRose averages PM2.5 per wind direction in the selected month
func (s *DashboardService) WindRose(ctx context.Context, c models.FilterCriteria) (rose []models.GroupMean, err error) {
	err = s.observe(ctx, SectionWindRose, func() error {
		sub, err := s.selection(c)
		if err != nil {
			return err
		}
		rose = sub.WindRoseMean()
		return nil
	})
	return rose, err
}

// Scatter pairs two fields over the selected month
func (s *DashboardService) Scatter(ctx context.Context, c models.FilterCriteria, x, y models.Field) (points []models.ScatterPoint, err error) {
	err = s.observe(ctx, SectionScatter, func() error {
		sub, err := s.selection(c)
		if err != nil {
			return err
		}
		points, err = sub.Scatter(x, y)
		return err
	})
	return points, err
}

// selection filters the dataset, reporting an empty match as a warning
func (s *DashboardService) selection(c models.FilterCriteria) (*dataset.Dataset, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	sub := s.ds.Filter(c)
	if sub.Empty() {
		return nil, &models.EmptySelectionWarning{Year: c.Year, Month: c.Month}
	}
	return sub, nil
}

// observe times one section, converts a panic into an internal error and
// logs and counts failures by kind
func (s *DashboardService) observe(ctx context.Context, section string, fn func() error) (err error) {
	timer := s.metrics.SectionTimer(section)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: unexpected failure: %v", section, r)
		}
		duration := timer.ObserveDuration()

		if err == nil {
			s.logger.Debug(ctx, "[SECTION_COMPUTED] Section computed", logging.Fields{
				"section":     section,
				"duration_ms": duration.Milliseconds(),
			})
			return
		}

		failure := Classify(err)
		s.metrics.RecordSectionFailure(section, failure.Kind)
		fields := logging.Fields{
			"section": section,
			"kind":    failure.Kind,
		}
		if failure.Kind == KindInternal {
			s.logger.Error(ctx, "[SECTION_ERROR] Section failed", fields, err)
		} else {
			s.logger.WarnErr(ctx, "[SECTION_UNAVAILABLE] Section unavailable", fields, err)
		}
	}()

	return fn()
}
