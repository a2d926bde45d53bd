// Package export renders dashboard snapshots as spreadsheet workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"airquality-platform/internal/models"
	"airquality-platform/internal/services"
)

// Sheet names in workbook order
const (
	SheetSummary       = "Summary"
	SheetMonthly       = "Monthly"
	SheetHourly        = "Hourly"
	SheetCorrelation   = "Correlation"
	SheetWindRose      = "WindRose"
	SheetDecomposition = "Decomposition"
)

// Workbook builds one sheet per exported section. Undefined values are
// left as blank cells; a failed section gets its error message instead.
func Workbook(snap *services.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	for _, name := range []string{SheetMonthly, SheetHourly, SheetCorrelation, SheetWindRose, SheetDecomposition} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	w := &sheetWriter{f: f}
	w.summary(snap)
	w.groupMeans(SheetMonthly, "month", snap.MonthlyMeans, snap.Errors[services.SectionMonthlyMeans])
	w.groupMeans(SheetHourly, "hour", snap.HourlyMeans, snap.Errors[services.SectionHourlyMeans])
	w.correlation(snap.Correlation, snap.Errors[services.SectionCorrelation])
	w.groupMeans(SheetWindRose, "wd", snap.WindRose, snap.Errors[services.SectionWindRose])
	w.decomposition(snap.Decomposition, snap.Errors[services.SectionDecomposition])

	if w.err != nil {
		f.Close()
		return nil, w.err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write streams the snapshot workbook to out
func Write(snap *services.Snapshot, out io.Writer) error {
	f, err := Workbook(snap)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveAs writes the snapshot workbook to a file
func SaveAs(snap *services.Snapshot, path string) error {
	f, err := Workbook(snap)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// sheetWriter keeps the first cell error so callers check once
type sheetWriter struct {
	f   *excelize.File
	err error
}

// row writes values from column A; nil and nil *float64 values stay blank
func (w *sheetWriter) row(sheet string, row int, values ...interface{}) {
	for i, v := range values {
		if w.err != nil {
			return
		}
		if p, ok := v.(*float64); ok {
			if p == nil {
				continue
			}
			v = *p
		}
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetCellValue(sheet, cell, v); err != nil {
			w.err = fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
		}
	}
}

// failed writes a section error and reports whether there was one
func (w *sheetWriter) failed(sheet string, sectionErr *services.SectionError) bool {
	if sectionErr == nil {
		return false
	}
	w.row(sheet, 1, "unavailable", sectionErr.Kind, sectionErr.Message)
	return true
}

func (w *sheetWriter) summary(snap *services.Snapshot) {
	w.row(SheetSummary, 1, "station", snap.Station)
	w.row(SheetSummary, 2, "period", snap.Criteria.String())
	w.row(SheetSummary, 3, "pollutant", string(snap.Pollutant))
	w.row(SheetSummary, 4, "rows", snap.Rows)

	const header = 6
	if sectionErr := snap.Errors[services.SectionSummary]; sectionErr != nil {
		w.row(SheetSummary, header, "unavailable", sectionErr.Kind, sectionErr.Message)
		return
	}
	if snap.Summary == nil {
		return
	}

	w.row(SheetSummary, header, "field", "count", "mean", "std", "min", "25%", "50%", "75%", "max")
	for i, fs := range snap.Summary.Fields {
		w.row(SheetSummary, header+1+i, string(fs.Field), fs.Count, fs.Mean, fs.Std, fs.Min, fs.Q25, fs.Q50, fs.Q75, fs.Max)
	}
}

func (w *sheetWriter) groupMeans(sheet, key string, means []models.GroupMean, sectionErr *services.SectionError) {
	if w.failed(sheet, sectionErr) {
		return
	}
	w.row(sheet, 1, key, "mean", "count", "bearing")
	for i, m := range means {
		w.row(sheet, i+2, m.Key, m.Mean, m.Count, m.Bearing)
	}
}

func (w *sheetWriter) correlation(m *models.CorrelationMatrix, sectionErr *services.SectionError) {
	if w.failed(SheetCorrelation, sectionErr) || m == nil {
		return
	}

	header := make([]interface{}, 0, len(m.Fields)+1)
	header = append(header, nil)
	for _, f := range m.Fields {
		header = append(header, string(f))
	}
	w.row(SheetCorrelation, 1, header...)

	for i, f := range m.Fields {
		values := make([]interface{}, 0, len(m.Fields)+1)
		values = append(values, string(f))
		for _, v := range m.Values[i] {
			values = append(values, v)
		}
		w.row(SheetCorrelation, i+2, values...)
	}
}

func (w *sheetWriter) decomposition(view *services.DecompositionView, sectionErr *services.SectionError) {
	if w.failed(SheetDecomposition, sectionErr) || view == nil || view.Decomposition == nil {
		return
	}

	w.row(SheetDecomposition, 1, "index", "observed", "trend", "seasonal", "residual")
	for i := range view.Trend {
		var observed *float64
		if i < len(view.Observed) {
			observed = view.Observed[i]
		}
		w.row(SheetDecomposition, i+2, i, observed, view.Trend[i], view.Seasonal[i], view.Residual[i])
	}
}
