package models

import (
	"fmt"
	"strings"
)

// Field names a numeric column of the air quality dataset
type Field string

const (
	FieldYear  Field = "year"
	FieldMonth Field = "month"
	FieldDay   Field = "day"
	FieldHour  Field = "hour"
	FieldPM25  Field = "PM2.5"
	FieldPM10  Field = "PM10"
	FieldSO2   Field = "SO2"
	FieldNO2   Field = "NO2"
	FieldCO    Field = "CO"
	FieldO3    Field = "O3"
	FieldTEMP  Field = "TEMP"
	FieldPRES  Field = "PRES"
	FieldDEWP  Field = "DEWP"
	FieldRAIN  Field = "RAIN"
	FieldWSPM  Field = "WSPM"
)

// Pollutants lists the pollutant concentration fields
var Pollutants = []Field{FieldPM25, FieldPM10, FieldSO2, FieldNO2, FieldCO, FieldO3}

// WeatherFields lists the weather measurement fields
var WeatherFields = []Field{FieldTEMP, FieldPRES, FieldDEWP, FieldRAIN, FieldWSPM}

// TimeFields lists the timestamp component fields
var TimeFields = []Field{FieldYear, FieldMonth, FieldDay, FieldHour}

// MeasurementFields returns pollutant and weather fields in column order
func MeasurementFields() []Field {
	fields := make([]Field, 0, len(Pollutants)+len(WeatherFields))
	fields = append(fields, Pollutants...)
	return append(fields, WeatherFields...)
}

// NumericFields returns every field reported by summary statistics
func NumericFields() []Field {
	fields := make([]Field, 0, len(TimeFields)+len(Pollutants)+len(WeatherFields))
	fields = append(fields, TimeFields...)
	return append(fields, MeasurementFields()...)
}

// ParseField resolves a column name case-insensitively
func ParseField(name string) (Field, error) {
	trimmed := strings.TrimSpace(name)
	for _, f := range NumericFields() {
		if strings.EqualFold(string(f), trimmed) {
			return f, nil
		}
	}
	return "", &InvalidFieldError{Name: name}
}

// ParseFields resolves a list of column names, rejecting duplicates
func ParseFields(names []string) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	seen := make(map[Field]bool, len(names))
	for _, name := range names {
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			return nil, &InvalidParameterError{Name: "fields", Value: name, Reason: "duplicate field"}
		}
		seen[f] = true
		fields = append(fields, f)
	}
	return fields, nil
}

// IsMeasurement reports whether f is a pollutant or weather field
func (f Field) IsMeasurement() bool {
	for _, m := range MeasurementFields() {
		if m == f {
			return true
		}
	}
	return false
}

// WindDirection is a 16-point compass direction
type WindDirection string

// Compass lists the wind directions clockwise from north
var Compass = []WindDirection{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// ParseWindDirection returns nil for empty or unknown directions
func ParseWindDirection(s string) *WindDirection {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i := range Compass {
		if string(Compass[i]) == s {
			wd := Compass[i]
			return &wd
		}
	}
	return nil
}

// Index returns the clockwise position of the direction, or -1
func (d WindDirection) Index() int {
	for i, c := range Compass {
		if c == d {
			return i
		}
	}
	return -1
}

// Bearing returns the direction in degrees clockwise from north
func (d WindDirection) Bearing() float64 {
	return float64(d.Index()) * 360.0 / float64(len(Compass))
}

// Record represents one hourly observation
// NULL values represented as pointers
type Record struct {
	Year  int `json:"year" db:"year"`
	Month int `json:"month" db:"month"`
	Day   int `json:"day" db:"day"`
	Hour  int `json:"hour" db:"hour"`

	PM25 *float64 `json:"pm25,omitempty" db:"pm25"`
	PM10 *float64 `json:"pm10,omitempty" db:"pm10"`
	SO2  *float64 `json:"so2,omitempty" db:"so2"`
	NO2  *float64 `json:"no2,omitempty" db:"no2"`
	CO   *float64 `json:"co,omitempty" db:"co"`
	O3   *float64 `json:"o3,omitempty" db:"o3"`

	TEMP *float64 `json:"temp,omitempty" db:"temp"`
	PRES *float64 `json:"pres,omitempty" db:"pres"`
	DEWP *float64 `json:"dewp,omitempty" db:"dewp"`
	RAIN *float64 `json:"rain,omitempty" db:"rain"`
	WSPM *float64 `json:"wspm,omitempty" db:"wspm"`

	WD      *WindDirection `json:"wd,omitempty" db:"wd"`
	Station string         `json:"station" db:"station"`
}

// Value returns the value of a numeric field and whether it is present
func (r *Record) Value(f Field) (float64, bool) {
	switch f {
	case FieldYear:
		return float64(r.Year), true
	case FieldMonth:
		return float64(r.Month), true
	case FieldDay:
		return float64(r.Day), true
	case FieldHour:
		return float64(r.Hour), true
	}

	p := r.pointer(f)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Set assigns a nullable measurement value
func (r *Record) Set(f Field, v *float64) error {
	p := r.pointer(f)
	if p == nil {
		return &InvalidFieldError{Name: string(f)}
	}
	*p = v
	return nil
}

func (r *Record) pointer(f Field) **float64 {
	switch f {
	case FieldPM25:
		return &r.PM25
	case FieldPM10:
		return &r.PM10
	case FieldSO2:
		return &r.SO2
	case FieldNO2:
		return &r.NO2
	case FieldCO:
		return &r.CO
	case FieldO3:
		return &r.O3
	case FieldTEMP:
		return &r.TEMP
	case FieldPRES:
		return &r.PRES
	case FieldDEWP:
		return &r.DEWP
	case FieldRAIN:
		return &r.RAIN
	case FieldWSPM:
		return &r.WSPM
	}
	return nil
}

// ValidateTimestamp checks the calendar ranges of the timestamp components
func (r *Record) ValidateTimestamp() error {
	switch {
	case r.Month < 1 || r.Month > 12:
		return &InvalidParameterError{Name: "month", Value: fmt.Sprint(r.Month), Reason: "must be between 1 and 12"}
	case r.Day < 1 || r.Day > 31:
		return &InvalidParameterError{Name: "day", Value: fmt.Sprint(r.Day), Reason: "must be between 1 and 31"}
	case r.Hour < 0 || r.Hour > 23:
		return &InvalidParameterError{Name: "hour", Value: fmt.Sprint(r.Hour), Reason: "must be between 0 and 23"}
	}
	return nil
}

// FilterCriteria selects one calendar month of the dataset
type FilterCriteria struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Validate checks the month range
func (c FilterCriteria) Validate() error {
	if c.Month < 1 || c.Month > 12 {
		return &InvalidParameterError{Name: "month", Value: fmt.Sprint(c.Month), Reason: "must be between 1 and 12"}
	}
	return nil
}

func (c FilterCriteria) String() string {
	return fmt.Sprintf("%04d-%02d", c.Year, c.Month)
}

// GroupKey selects the grouping dimension of an aggregation
type GroupKey string

const (
	GroupByMonth         GroupKey = "month"
	GroupByHour          GroupKey = "hour"
	GroupByWindDirection GroupKey = "wd"
)

// ParseGroupKey resolves a grouping dimension name
func ParseGroupKey(s string) (GroupKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month":
		return GroupByMonth, nil
	case "hour":
		return GroupByHour, nil
	case "wd", "wind", "winddirection", "wind_direction":
		return GroupByWindDirection, nil
	}
	return "", &InvalidParameterError{Name: "group", Value: s, Reason: "expected month, hour or wd"}
}
