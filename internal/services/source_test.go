package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"airquality-platform/internal/models"
)

const prsaHeader = "No,year,month,day,hour,PM2.5,PM10,SO2,NO2,CO,O3,TEMP,PRES,DEWP,RAIN,wd,WSPM,station\n"

// fakeRepository is an in-memory AirQualityRepository
type fakeRepository struct {
	stations []string
	records  map[string][]models.Record
	batches  [][]models.Record
	deleted  []string
	listErr  error
	batchErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{records: make(map[string][]models.Record)}
}

func (f *fakeRepository) CreateStation(ctx context.Context, name string) error {
	f.stations = append(f.stations, name)
	return nil
}

func (f *fakeRepository) ListStations(ctx context.Context) ([]models.Station, error) {
	var out []models.Station
	for _, name := range f.stations {
		out = append(out, models.Station{Name: name, RecordCount: len(f.records[name])})
	}
	return out, nil
}

func (f *fakeRepository) CreateRecordsBatch(ctx context.Context, station string, records []models.Record) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, records)
	f.records[station] = append(f.records[station], records...)
	return nil
}

func (f *fakeRepository) DeleteRecords(ctx context.Context, station string) (int64, error) {
	f.deleted = append(f.deleted, station)
	n := len(f.records[station])
	delete(f.records, station)
	return int64(n), nil
}

func (f *fakeRepository) ListRecords(ctx context.Context, station string) ([]models.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records[station], nil
}

func (f *fakeRepository) CountRecords(ctx context.Context, station string) (int, error) {
	return len(f.records[station]), nil
}

func (f *fakeRepository) HealthCheck(ctx context.Context) error {
	return nil
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCSVSource_LoadDataset(t *testing.T) {
	path := writeCSV(t, "station.csv", prsaHeader+
		"1,2013,3,1,0,4,4,4,7,300,77,-0.7,1023,-18.8,0,NNW,4.4,Aotizhongxin\n"+
		"2,2013,3,1,1,8,8,4,7,300,77,-1.1,1023.2,-18.2,0,N,4.7,Aotizhongxin\n"+
		"3,2013,3,1,x,7,7,5,10,300,73,-1.1,1023.5,-18.2,0,NNW,5.6,Aotizhongxin\n")

	collector := testMetrics()
	ds, err := LoadDataset(context.Background(), &CSVSource{Path: path}, testLogger(), collector)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}

	if ds.Len() != 2 || ds.Skipped() != 1 {
		t.Errorf("dataset = %d records, %d skipped; want 2, 1", ds.Len(), ds.Skipped())
	}
	if got := testutil.ToFloat64(collector.DatasetRecords); got != 2 {
		t.Errorf("DatasetRecords gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.DatasetSkippedRows); got != 1 {
		t.Errorf("DatasetSkippedRows gauge = %v, want 1", got)
	}
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := &CSVSource{Path: filepath.Join(t.TempDir(), "absent.csv")}
	_, err := LoadDataset(context.Background(), src, testLogger(), testMetrics())

	var loadErr *models.LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("LoadDataset() error = %v, want LoadError", err)
	}
}

func TestPostgresSource_Load(t *testing.T) {
	repo := newFakeRepository()
	repo.records["Dongsi"] = []models.Record{
		{Year: 2013, Month: 3, Day: 1, Hour: 0, PM25: fp(9), Station: "Dongsi"},
		{Year: 2013, Month: 3, Day: 1, Hour: 1, PM25: fp(11), Station: "Dongsi"},
	}

	ds, err := (&PostgresSource{Repo: repo, Station: "Dongsi"}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 2 || ds.Station() != "Dongsi" {
		t.Errorf("dataset = %d records of %q", ds.Len(), ds.Station())
	}
}

func TestPostgresSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		repo *fakeRepository
	}{
		{name: "no records", repo: newFakeRepository()},
		{name: "query failure", repo: &fakeRepository{listErr: errors.New("connection refused")}},
		{
			name: "invalid stored timestamp",
			repo: &fakeRepository{records: map[string][]models.Record{
				"Dongsi": {{Year: 2013, Month: 3, Day: 1, Hour: 24}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&PostgresSource{Repo: tt.repo, Station: "Dongsi"}).Load(context.Background())
			var loadErr *models.LoadError
			if !errors.As(err, &loadErr) {
				t.Errorf("Load() error = %v, want LoadError", err)
			}
		})
	}
}
