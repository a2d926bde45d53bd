package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airquality-platform/internal/models"
)

const (
	columnWindDirection = "wd"
	columnStation       = "station"
)

// naValues are the cell spellings treated as missing
var naValues = []string{"NA", "N/A", "NaN", "nan", "null", "NULL", "", "<nil>"}

// requiredColumns lists the header names every source file must carry
func requiredColumns() []string {
	cols := make([]string, 0, 15)
	for _, f := range models.TimeFields {
		cols = append(cols, string(f))
	}
	for _, f := range models.Pollutants {
		cols = append(cols, string(f))
	}
	for _, f := range []models.Field{models.FieldTEMP, models.FieldPRES, models.FieldDEWP, models.FieldRAIN} {
		cols = append(cols, string(f))
	}
	return append(cols, columnWindDirection)
}

// Load reads a delimited file with a header row into a Dataset.
// Unparsable numeric cells are stored as missing values.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &models.LoadError{Path: path, Reason: "cannot open file", Err: err}
	}
	defer file.Close()

	return Read(file, path)
}

// Read parses a dataset from r; name is used in error messages
func Read(r io.Reader, name string) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &models.LoadError{Path: name, Reason: "cannot read file", Err: err}
	}

	delimiter := detectDelimiter(raw)

	headerReader := csv.NewReader(bytes.NewReader(raw))
	headerReader.Comma = delimiter
	headerReader.LazyQuotes = true
	header, err := headerReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &models.LoadError{Path: name, Reason: "file is empty"}
		}
		return nil, &models.LoadError{Path: name, Reason: "cannot parse header", Err: err}
	}

	columns := make(map[string]string, len(header))
	for _, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = h
	}

	var missing []string
	for _, col := range requiredColumns() {
		if _, ok := columns[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &models.LoadError{
			Path:   name,
			Reason: "missing required columns: " + strings.Join(missing, ", "),
		}
	}

	station := ""
	if _, err := headerReader.Read(); errors.Is(err, io.EOF) {
		return &Dataset{}, nil
	}

	types := make(map[string]series.Type, len(header))
	for _, f := range models.NumericFields() {
		if h, ok := columns[strings.ToLower(string(f))]; ok {
			types[h] = series.Float
		}
	}
	types[columns[columnWindDirection]] = series.String
	if h, ok := columns[columnStation]; ok {
		types[h] = series.String
	}

	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.WithDelimiter(delimiter),
		dataframe.WithLazyQuotes(true),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return nil, &models.LoadError{Path: name, Reason: "cannot parse rows", Err: df.Err}
	}

	floats := make(map[models.Field][]float64)
	for _, f := range models.NumericFields() {
		if h, ok := columns[strings.ToLower(string(f))]; ok {
			floats[f] = df.Col(h).Float()
		}
	}
	directions := df.Col(columns[columnWindDirection]).Records()
	var stations []string
	if h, ok := columns[columnStation]; ok {
		stations = df.Col(h).Records()
	}

	ds := &Dataset{records: make([]models.Record, 0, df.Nrow())}
	for i := 0; i < df.Nrow(); i++ {
		rec, ok := buildRecord(floats, i)
		if !ok {
			ds.skipped++
			continue
		}
		rec.WD = models.ParseWindDirection(directions[i])
		if stations != nil && station == "" && stations[i] != "NaN" {
			station = stations[i]
		}
		ds.records = append(ds.records, rec)
	}

	ds.station = station
	for i := range ds.records {
		ds.records[i].Station = station
	}

	return ds, nil
}

// buildRecord assembles row i; it reports false when the timestamp is unusable
func buildRecord(floats map[models.Field][]float64, i int) (models.Record, bool) {
	var rec models.Record

	stamp := make([]int, len(models.TimeFields))
	for k, f := range models.TimeFields {
		v := floats[f][i]
		if math.IsNaN(v) || v != math.Trunc(v) {
			return rec, false
		}
		stamp[k] = int(v)
	}
	rec.Year, rec.Month, rec.Day, rec.Hour = stamp[0], stamp[1], stamp[2], stamp[3]
	if rec.ValidateTimestamp() != nil {
		return rec, false
	}

	for _, f := range models.MeasurementFields() {
		col, ok := floats[f]
		if !ok {
			continue
		}
		// pointer fields are known, Set cannot fail here
		_ = rec.Set(f, models.Float(col[i]))
	}

	return rec, true
}

// detectDelimiter picks the separator used in the header line
func detectDelimiter(raw []byte) rune {
	line := raw
	if idx := bytes.IndexByte(raw, '\n'); idx >= 0 {
		line = raw[:idx]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
