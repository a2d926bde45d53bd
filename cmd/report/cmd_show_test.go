package main

import (
	"bytes"
	"strings"
	"testing"

	"airquality-platform/internal/models"
	"airquality-platform/internal/services"
)

func fp(v float64) *float64 { return &v }

func TestPrintSnapshot(t *testing.T) {
	snap := &services.Snapshot{
		Station:   "Dongsi",
		Criteria:  models.FilterCriteria{Year: 2013, Month: 4},
		Pollutant: models.FieldPM25,
		Rows:      6,
		Summary: &models.Summary{Rows: 6, Fields: []models.FieldSummary{
			{Field: models.FieldPM25, Count: 6, Mean: fp(12.5), Std: nil, Min: fp(10), Q25: fp(11), Q50: fp(12.5), Q75: fp(14), Max: fp(15)},
		}},
		Correlation: &models.CorrelationMatrix{
			Fields: []models.Field{models.FieldPM25, models.FieldTEMP},
			Values: [][]*float64{{fp(1), nil}, {nil, nil}},
		},
		WindRose: []models.GroupMean{{Key: "N", Mean: fp(20), Count: 3}, {Key: "NNE", Mean: nil, Count: 0}},
		Errors: map[string]*services.SectionError{
			services.SectionDecomposition: {Kind: services.KindInsufficientData, Message: "not enough data"},
		},
	}

	var buf bytes.Buffer
	printSnapshot(&buf, snap)
	out := buf.String()

	for _, want := range []string{
		"Dongsi  2013-04  PM2.5  (6 rows)",
		"== Summary ==",
		"12.50",
		"== Decomposition ==\nunavailable (insufficient_data): not enough data",
		"== Wind rose (PM2.5) ==",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	var nne string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "NNE") {
			nne = line
		}
	}
	if fields := strings.Fields(nne); len(fields) != 3 || fields[1] != "-" {
		t.Errorf("undefined mean should print as -, got %q", nne)
	}
}

func TestAmplitude(t *testing.T) {
	tests := []struct {
		name   string
		values []*float64
		want   *float64
	}{
		{name: "empty", values: nil, want: nil},
		{name: "all undefined", values: []*float64{nil, nil}, want: nil},
		{name: "mixed", values: []*float64{nil, fp(-2), fp(3), nil, fp(1)}, want: fp(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := amplitude(tt.values)
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("amplitude() = %v, want %v", value(got), value(tt.want))
			}
		})
	}
}
