package models

import (
	"errors"
	"math"
	"testing"
)

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		want    Field
		wantErr bool
	}{
		{in: "PM2.5", want: FieldPM25},
		{in: "pm2.5", want: FieldPM25},
		{in: " TEMP ", want: FieldTEMP},
		{in: "hour", want: FieldHour},
		{in: "wd", wantErr: true},
		{in: "PM1", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseField(tt.in)
			if tt.wantErr {
				var fieldErr *InvalidFieldError
				if !errors.As(err, &fieldErr) {
					t.Errorf("ParseField(%q) error = %v, want InvalidFieldError", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseField(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"PM2.5", "no2", "RAIN"})
	if err != nil {
		t.Fatalf("ParseFields() error = %v", err)
	}
	if len(fields) != 3 || fields[1] != FieldNO2 {
		t.Errorf("ParseFields() = %v", fields)
	}

	var paramErr *InvalidParameterError
	if _, err := ParseFields([]string{"PM2.5", "pm2.5"}); !errors.As(err, &paramErr) {
		t.Errorf("duplicate fields error = %v, want InvalidParameterError", err)
	}
}

func TestField_IsMeasurement(t *testing.T) {
	for _, f := range MeasurementFields() {
		if !f.IsMeasurement() {
			t.Errorf("%s should be a measurement", f)
		}
	}
	for _, f := range TimeFields {
		if f.IsMeasurement() {
			t.Errorf("%s should not be a measurement", f)
		}
	}
	if got := len(NumericFields()); got != 15 {
		t.Errorf("NumericFields() has %d fields, want 15", got)
	}
}

func TestWindDirection(t *testing.T) {
	if ParseWindDirection("") != nil || ParseWindDirection("NORTH") != nil {
		t.Error("empty and unknown directions should parse to nil")
	}

	tests := []struct {
		in      string
		index   int
		bearing float64
	}{
		{in: "N", index: 0, bearing: 0},
		{in: "nne", index: 1, bearing: 22.5},
		{in: "E", index: 4, bearing: 90},
		{in: " SW", index: 10, bearing: 225},
		{in: "NNW", index: 15, bearing: 337.5},
	}
	for _, tt := range tests {
		wd := ParseWindDirection(tt.in)
		if wd == nil {
			t.Fatalf("ParseWindDirection(%q) = nil", tt.in)
		}
		if wd.Index() != tt.index || math.Abs(wd.Bearing()-tt.bearing) > 1e-9 {
			t.Errorf("%q: index %d bearing %v, want %d %v", tt.in, wd.Index(), wd.Bearing(), tt.index, tt.bearing)
		}
	}
}

func TestRecord_ValueAndSet(t *testing.T) {
	r := Record{Year: 2013, Month: 3, Day: 1, Hour: 5}

	if v, ok := r.Value(FieldHour); !ok || v != 5 {
		t.Errorf("Value(hour) = %v, %v", v, ok)
	}
	if _, ok := r.Value(FieldPM25); ok {
		t.Error("missing PM2.5 should not be present")
	}

	v := 42.0
	if err := r.Set(FieldPM25, &v); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, ok := r.Value(FieldPM25); !ok || got != 42 {
		t.Errorf("Value(PM2.5) = %v, %v; want 42", got, ok)
	}

	if err := r.Set(FieldHour, &v); err == nil {
		t.Error("Set() on a timestamp field should fail")
	}
}

func TestRecord_ValidateTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{name: "valid", record: Record{Year: 2013, Month: 3, Day: 1, Hour: 0}},
		{name: "last hour", record: Record{Year: 2017, Month: 2, Day: 28, Hour: 23}},
		{name: "month zero", record: Record{Year: 2013, Month: 0, Day: 1}, wantErr: true},
		{name: "day 32", record: Record{Year: 2013, Month: 1, Day: 32}, wantErr: true},
		{name: "hour 24", record: Record{Year: 2013, Month: 1, Day: 1, Hour: 24}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.record.ValidateTimestamp(); (err != nil) != tt.wantErr {
				t.Errorf("ValidateTimestamp() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFilterCriteria(t *testing.T) {
	c := FilterCriteria{Year: 2013, Month: 3}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if c.String() != "2013-03" {
		t.Errorf("String() = %q", c.String())
	}
	if err := (FilterCriteria{Year: 2013, Month: 13}).Validate(); err == nil {
		t.Error("month 13 should be rejected")
	}
}

func TestParseGroupKey(t *testing.T) {
	for in, want := range map[string]GroupKey{"month": GroupByMonth, "HOUR": GroupByHour, "wind_direction": GroupByWindDirection} {
		if got, err := ParseGroupKey(in); err != nil || got != want {
			t.Errorf("ParseGroupKey(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseGroupKey("day"); err == nil {
		t.Error("day is not a grouping dimension")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &EmptySelectionWarning{Year: 2013, Month: 3}, want: "no records for 2013-03"},
		{err: &EmptySelectionWarning{Year: 2016}, want: "no records for year 2016"},
		{err: &InvalidFieldError{Name: "PM1"}, want: `unknown field "PM1"`},
		{err: &InsufficientDataError{Period: 24, Required: 48, Available: 10}, want: "decomposition with period 24 needs 48 valid observations, got 10"},
		{err: &LoadError{Path: "a.csv", Reason: "missing columns"}, want: "load a.csv: missing columns"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	cause := errors.New("permission denied")
	if err := (&LoadError{Path: "a.csv", Reason: "open", Err: cause}); !errors.Is(err, cause) {
		t.Error("LoadError should unwrap its cause")
	}
}

func TestFloat(t *testing.T) {
	if Float(math.NaN()) != nil || Float(math.Inf(1)) != nil {
		t.Error("non-finite values should be undefined")
	}
	if v := Float(1.5); v == nil || *v != 1.5 {
		t.Errorf("Float(1.5) = %v", v)
	}
}
