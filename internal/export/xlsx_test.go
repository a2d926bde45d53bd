package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"airquality-platform/internal/models"
	"airquality-platform/internal/services"
)

func fp(v float64) *float64 { return &v }

func testSnapshot() *services.Snapshot {
	return &services.Snapshot{
		Station:   "Aotizhongxin",
		Criteria:  models.FilterCriteria{Year: 2013, Month: 3},
		Pollutant: models.FieldPM25,
		Rows:      2,
		Summary: &models.Summary{
			Rows: 2,
			Fields: []models.FieldSummary{
				{Field: models.FieldPM25, Count: 2, Mean: fp(6), Std: fp(2.8284271247461903), Min: fp(4), Q25: fp(5), Q50: fp(6), Q75: fp(7), Max: fp(8)},
				{Field: models.FieldCO, Count: 0},
			},
		},
		MonthlyMeans: []models.GroupMean{
			{Key: "3", Mean: fp(6), Count: 2},
			{Key: "4", Mean: nil, Count: 0},
		},
		HourlyMeans: []models.GroupMean{{Key: "0", Mean: fp(4), Count: 1}},
		Correlation: &models.CorrelationMatrix{
			Fields:       []models.Field{models.FieldPM25, models.FieldSO2},
			Values:       [][]*float64{{fp(1), nil}, {nil, fp(1)}},
			Observations: [][]int{{2, 2}, {2, 2}},
		},
		WindRose: []models.GroupMean{{Key: "N", Mean: fp(4), Count: 1, Bearing: fp(0)}},
		Errors: map[string]*services.SectionError{
			services.SectionDecomposition: {Kind: services.KindInsufficientData, Message: "needs 48 valid observations, got 2"},
		},
	}
}

func cell(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	if err != nil {
		t.Fatalf("GetCellValue(%s!%s) error = %v", sheet, axis, err)
	}
	return v
}

func TestWorkbook(t *testing.T) {
	f, err := Workbook(testSnapshot())
	if err != nil {
		t.Fatalf("Workbook() error = %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetMonthly, SheetHourly, SheetCorrelation, SheetWindRose, SheetDecomposition}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, got[i], want[i])
		}
	}

	checks := []struct {
		sheet, axis, want string
	}{
		{SheetSummary, "B1", "Aotizhongxin"},
		{SheetSummary, "B2", "2013-03"},
		{SheetSummary, "A7", "PM2.5"},
		{SheetSummary, "C7", "6"},
		{SheetSummary, "A8", "CO"},
		{SheetSummary, "B8", "0"},
		{SheetSummary, "C8", ""},
		{SheetMonthly, "A3", "4"},
		{SheetMonthly, "B3", ""},
		{SheetCorrelation, "A1", ""},
		{SheetCorrelation, "C1", "SO2"},
		{SheetCorrelation, "B2", "1"},
		{SheetCorrelation, "C2", ""},
		{SheetWindRose, "D2", "0"},
		{SheetDecomposition, "A1", "unavailable"},
		{SheetDecomposition, "B1", services.KindInsufficientData},
	}
	for _, c := range checks {
		if v := cell(t, f, c.sheet, c.axis); v != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.axis, v, c.want)
		}
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(testSnapshot(), &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetHourly)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "0" || rows[1][1] != "4" {
		t.Errorf("Hourly rows = %v", rows)
	}
}

func TestWorkbook_Decomposition(t *testing.T) {
	snap := testSnapshot()
	delete(snap.Errors, services.SectionDecomposition)
	snap.Decomposition = &services.DecompositionView{
		Field:    models.FieldPM25,
		Observed: []*float64{nil, fp(10)},
		Decomposition: &models.Decomposition{
			Period:   24,
			Trend:    []*float64{nil, fp(9)},
			Seasonal: []*float64{nil, fp(1.5)},
			Residual: []*float64{nil, fp(-0.5)},
		},
	}

	f, err := Workbook(snap)
	if err != nil {
		t.Fatalf("Workbook() error = %v", err)
	}
	defer f.Close()

	if v := cell(t, f, SheetDecomposition, "C2"); v != "" {
		t.Errorf("undefined trend cell = %q, want blank", v)
	}
	if v := cell(t, f, SheetDecomposition, "D3"); v != "1.5" {
		t.Errorf("seasonal cell = %q, want 1.5", v)
	}
}
