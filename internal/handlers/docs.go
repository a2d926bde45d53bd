package handlers

import (
	"net/http"
)

const apiTitle = "Air Quality Platform API"

type param = map[string]interface{}

func query(name, description, typ string, required bool) param {
	return param{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    required,
		"schema":      map[string]string{"type": typ},
	}
}

var (
	yearParam      = query("year", "Selected year; defaults to the first available period when year and month are both omitted", "integer", false)
	monthParam     = query("month", "Selected month (1-12)", "integer", false)
	fieldParam     = query("field", "Measurement field, e.g. PM2.5 or TEMP (default: configured pollutant)", "string", false)
	pollutantParam = query("pollutant", "Pollutant for the per-pollutant sections (default: configured pollutant)", "string", false)
)

// operation describes a GET endpoint with the standard error responses
func operation(summary, description string, params ...param) map[string]interface{} {
	if params == nil {
		params = []param{}
	}
	return map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     summary,
			"description": description,
			"parameters":  params,
			"responses": map[string]interface{}{
				"200": response("Successful response"),
				"400": response("Invalid field or parameter"),
				"404": response("No records match the selection"),
				"422": response("Not enough data for the computation"),
				"429": response("Rate limit exceeded"),
			},
		},
	}
}

func response(description string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]string{"type": "object"},
			},
		},
	}
}

// OpenAPISpec returns the OpenAPI 3.0 document for the dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       apiTitle,
			"description": "Exploratory analysis of hourly station air quality measurements",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/periods": operation("List periods",
				"Years present in the dataset with the months available in each"),
			"/api/fields": operation("List fields",
				"Measurement fields, wind directions and the configured analysis defaults"),
			"/api/summary": operation("Describe month",
				"count, mean, std, min, quartiles and max for every numeric field of the selected month",
				yearParam, monthParam),
			"/api/series": operation("Time series",
				"Hourly values of one field in the selected month; missing values are null",
				yearParam, monthParam, fieldParam),
			"/api/correlation": operation("Correlation matrix",
				"Pairwise Pearson correlation over the selected month or the whole dataset",
				yearParam, monthParam,
				query("fields", "Comma-separated fields (default: configured correlation fields)", "string", false),
				query("scope", "Set to 'all' to use the whole dataset", "string", false)),
			"/api/means/monthly": operation("Monthly means",
				"Mean of one field per calendar month over the whole dataset", fieldParam),
			"/api/means/hourly": operation("Hourly means",
				"Mean of one field per hour of day over the whole dataset", fieldParam),
			"/api/distribution": operation("Monthly distribution",
				"Box plot statistics per month for the selected year",
				query("year", "Selected year", "integer", true), fieldParam),
			"/api/decomposition": operation("Seasonal decomposition",
				"Additive trend, seasonal and residual components of the forward-filled series",
				yearParam, monthParam, fieldParam,
				query("period", "Seasonal period in samples (default: configured period)", "integer", false)),
			"/api/windrose": operation("Wind rose",
				"Mean PM2.5 per wind direction in the selected month",
				yearParam, monthParam),
			"/api/scatter": operation("Scatter",
				"Pairs of present values of two fields in the selected month",
				yearParam, monthParam,
				query("x", "X field (default: RAIN)", "string", false),
				query("y", "Y field (default: configured pollutant)", "string", false)),
			"/api/dashboard": operation("Dashboard snapshot",
				"Every section for the selection; failed sections are listed under errors",
				yearParam, monthParam, pollutantParam),
			"/api/export.xlsx": operation("Export workbook",
				"The dashboard snapshot as an XLSX workbook",
				yearParam, monthParam, pollutantParam),
			"/health": operation("Health check",
				"Service status, loaded record count and dependency checks"),
		},
	}

	writeJSON(w, spec, http.StatusOK)
}
