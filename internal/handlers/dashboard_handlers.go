package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"airquality-platform/internal/export"
	"airquality-platform/internal/models"
	"airquality-platform/internal/services"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// DashboardHandler handles the air quality dashboard API endpoints
type DashboardHandler struct {
	service *services.DashboardService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	checks  map[string]func(context.Context) error
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service *services.DashboardService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger,
		metrics: metricsCollector,
		checks:  make(map[string]func(context.Context) error),
	}
}

// AddHealthCheck registers a dependency probed by /health
func (h *DashboardHandler) AddHealthCheck(name string, check func(context.Context) error) {
	h.checks[name] = check
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
}

// SectionResponse wraps one computed section with the parameters it used
type SectionResponse struct {
	Station  string                 `json:"station"`
	Criteria *models.FilterCriteria `json:"criteria,omitempty"`
	Field    models.Field           `json:"field,omitempty"`
	Data     interface{}            `json:"data"`
}

// GetPeriods handles GET /api/periods
func (h *DashboardHandler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, SectionResponse{
		Station: h.service.Station(),
		Data:    h.service.Periods(r.Context()),
	}, http.StatusOK)
}

// GetFields handles GET /api/fields
func (h *DashboardHandler) GetFields(w http.ResponseWriter, r *http.Request) {
	opts := h.service.Options()
	h.sendJSON(w, map[string]interface{}{
		"pollutants":           models.Pollutants,
		"weather":              models.WeatherFields,
		"time":                 models.TimeFields,
		"wind_directions":      models.Compass,
		"default_pollutant":    opts.DefaultPollutant,
		"correlation_fields":   opts.CorrelationFields,
		"decomposition_period": opts.DecompositionPeriod,
	}, http.StatusOK)
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	c, err := h.criteria(r)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}

	summary, err := h.service.Describe(r.Context(), c)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendSection(w, &c, "", summary)
}

// GetSeries handles GET /api/series
func (h *DashboardHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	c, err := h.criteria(r)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	f, err := h.field(r, "field")
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}

	points, err := h.service.Series(r.Context(), c, f)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendSection(w, &c, f, points)
}

// GetCorrelation handles GET /api/correlation.
// scope=all computes over the whole dataset instead of the selected month.
func (h *DashboardHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	var c *models.FilterCriteria
	if r.URL.Query().Get("scope") != "all" {
		selected, err := h.criteria(r)
		if err != nil {
			h.sendFailure(w, r, err)
			return
		}
		c = &selected
	}

	var fields []models.Field
	if raw := r.URL.Query().Get("fields"); raw != "" {
		parsed, err := models.ParseFields(strings.Split(raw, ","))
		if err != nil {
			h.sendFailure(w, r, err)
			return
		}
		fields = parsed
	}

	matrix, err := h.service.Correlation(r.Context(), c, fields)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendSection(w, c, "", matrix)
}

// GetMonthlyMeans handles GET /api/means/monthly
func (h *DashboardHandler) GetMonthlyMeans(w http.ResponseWriter, r *http.Request) {
	f, err := h.field(r, "field")
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}

	means, err := h.service.MonthlyMeans(r.Context(), f)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendSection(w, nil, f, means)
}

// GetHourlyMeans handles GET /api/means/hourly
func (h *DashboardHandler) GetHourlyMeans(w http.ResponseWriter, r *http.Request) {
	f, err := h.field(r, "field")
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}

	means, err := h.service.HourlyMeans(r.Context(), f)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendSection(w, nil, f, means)
}

// GetDistribution handles GET /api/distribution
func (h *DashboardHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year")
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	f, err := h.field(r, "field")
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}

	dist, err := h.service.Distribution(r.Context(), year, f)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendSection(w, nil, f, dist)
}

// GetDecomposition handles GET /api/decomposition
func (h *DashboardHandler) GetDecomposition(w http.ResponseWriter, r *http.Request) {
	c, err := h.criteria(r)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	f, err := h.field(r, "field")
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}

	period := 0
	if r.URL.Query().Get("period") != "" {
		if period, err = intParam(r, "period"); err != nil {
			h.sendFailure(w, r, err)
			return
		}
		if period < 2 {
			h.sendFailure(w, r, &models.InvalidParameterError{Name: "period", Value: strconv.Itoa(period), Reason: "must be at least 2"})
			return
		}
	}

	view, err := h.service.Decomposition(r.Context(), c, f, period)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendSection(w, &c, f, view)
}

// GetWindRose handles GET /api/windrose
func (h *DashboardHandler) GetWindRose(w http.ResponseWriter, r *http.Request) {
	c, err := h.criteria(r)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}

	rose, err := h.service.WindRose(r.Context(), c)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendSection(w, &c, models.FieldPM25, rose)
}

// GetScatter handles GET /api/scatter
func (h *DashboardHandler) GetScatter(w http.ResponseWriter, r *http.Request) {
	c, err := h.criteria(r)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	x := models.FieldRAIN
	if r.URL.Query().Get("x") != "" {
		if x, err = h.field(r, "x"); err != nil {
			h.sendFailure(w, r, err)
			return
		}
	}
	y, err := h.field(r, "y")
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}

	points, err := h.service.Scatter(r.Context(), c, x, y)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendJSON(w, map[string]interface{}{
		"station":  h.service.Station(),
		"criteria": c,
		"x":        x,
		"y":        y,
		"data":     points,
	}, http.StatusOK)
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}
	h.sendJSON(w, snap, http.StatusOK)
}

// ExportWorkbook handles GET /api/export.xlsx
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r)
	if err != nil {
		h.sendFailure(w, r, err)
		return
	}

	filename := "airquality_" + snap.Station + "_" + snap.Criteria.String() + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.Write(snap, w); err != nil {
		h.logger.Error(r.Context(), "[API_EXPORT_ERROR] Failed to write workbook", logging.Fields{
			"criteria": snap.Criteria.String(),
		}, err)
		h.metrics.RecordAPIError(services.KindInternal, r.URL.Path)
	}
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"station":   h.service.Station(),
		"records":   h.service.Records(),
	}

	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Error(ctx, "[HEALTH_CHECK_FAILED] Dependency unhealthy", logging.Fields{
				"dependency": name,
			}, err)
			status["status"] = "unhealthy"
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

// snapshot parses the selection shared by the dashboard and the export
func (h *DashboardHandler) snapshot(r *http.Request) (*services.Snapshot, error) {
	c, err := h.criteria(r)
	if err != nil {
		return nil, err
	}

	sel := services.Selection{Criteria: c}
	if r.URL.Query().Get("pollutant") != "" {
		if sel.Pollutant, err = h.field(r, "pollutant"); err != nil {
			return nil, err
		}
	}
	return h.service.Snapshot(r.Context(), sel)
}

// criteria reads year and month. When both are absent the first available
// period is selected.
func (h *DashboardHandler) criteria(r *http.Request) (models.FilterCriteria, error) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		if periods := h.service.Periods(r.Context()); len(periods) > 0 && len(periods[0].Months) > 0 {
			return models.FilterCriteria{Year: periods[0].Year, Month: periods[0].Months[0]}, nil
		}
	}

	year, err := intParam(r, "year")
	if err != nil {
		return models.FilterCriteria{}, err
	}
	month, err := intParam(r, "month")
	if err != nil {
		return models.FilterCriteria{}, err
	}

	c := models.FilterCriteria{Year: year, Month: month}
	return c, c.Validate()
}

// field reads a measurement field parameter, defaulting to the configured pollutant
func (h *DashboardHandler) field(r *http.Request, name string) (models.Field, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return h.service.Options().DefaultPollutant, nil
	}
	return models.ParseField(raw)
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, &models.InvalidParameterError{Name: name, Value: raw, Reason: "is required"}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.InvalidParameterError{Name: name, Value: raw, Reason: "must be an integer"}
	}
	return v, nil
}

func (h *DashboardHandler) sendSection(w http.ResponseWriter, c *models.FilterCriteria, f models.Field, data interface{}) {
	h.sendJSON(w, SectionResponse{
		Station:  h.service.Station(),
		Criteria: c,
		Field:    f,
		Data:     data,
	}, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	writeJSON(w, data, statusCode)
}

// sendFailure maps a section failure to its status code
func (h *DashboardHandler) sendFailure(w http.ResponseWriter, r *http.Request, err error) {
	failure := services.Classify(err)

	statusCode := http.StatusInternalServerError
	switch failure.Kind {
	case services.KindInvalidParameter:
		statusCode = http.StatusBadRequest
	case services.KindEmptySelection:
		statusCode = http.StatusNotFound
	case services.KindInsufficientData:
		statusCode = http.StatusUnprocessableEntity
	}

	h.metrics.RecordAPIError(failure.Kind, routeName(r))

	message := failure.Message
	if statusCode == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "[API_ERROR] Request failed", logging.Fields{
			"path": r.URL.Path,
		}, err)
		message = "internal error"
	}

	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
		Kind:    failure.Kind,
	}, statusCode)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// routeName returns the matched route template so metric labels stay bounded
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Instrument records request count and duration per route
func (h *DashboardHandler) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		endpoint := routeName(r)
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(rec.status))
	})
}

// RegisterRoutes registers all dashboard API routes and middleware
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/periods", h.GetPeriods).Methods("GET")
	api.HandleFunc("/fields", h.GetFields).Methods("GET")
	api.HandleFunc("/summary", h.GetSummary).Methods("GET")
	api.HandleFunc("/series", h.GetSeries).Methods("GET")
	api.HandleFunc("/correlation", h.GetCorrelation).Methods("GET")
	api.HandleFunc("/means/monthly", h.GetMonthlyMeans).Methods("GET")
	api.HandleFunc("/means/hourly", h.GetHourlyMeans).Methods("GET")
	api.HandleFunc("/distribution", h.GetDistribution).Methods("GET")
	api.HandleFunc("/decomposition", h.GetDecomposition).Methods("GET")
	api.HandleFunc("/windrose", h.GetWindRose).Methods("GET")
	api.HandleFunc("/scatter", h.GetScatter).Methods("GET")
	api.HandleFunc("/dashboard", h.GetDashboard).Methods("GET")
	api.HandleFunc("/export.xlsx", h.ExportWorkbook).Methods("GET")
	api.HandleFunc("/docs", SwaggerUI).Methods("GET")
	api.HandleFunc("/docs/openapi.json", OpenAPISpec).Methods("GET")
}
