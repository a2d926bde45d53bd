package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"airquality-platform/internal/models"
)

func stationCSV(station string, rows int) string {
	var b strings.Builder
	b.WriteString(prsaHeader)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,2013,3,1,%d,%d,10,5,20,300,60,1.5,1020,-15,0,NE,2.1,%s\n", i+1, i, 10+i, station)
	}
	return b.String()
}

func TestIngestionService_IngestFile(t *testing.T) {
	repo := newFakeRepository()
	repo.records["Dongsi"] = []models.Record{{Year: 2012, Month: 1, Day: 1, Hour: 0}}
	svc := NewIngestionService(repo, testLogger(), testMetrics())

	path := writeCSV(t, "PRSA_Data_Dongsi_20130301-20170228.csv", stationCSV("Dongsi", 5))

	result, err := svc.IngestFile(context.Background(), path, IngestOptions{BatchSize: 2, Replace: true})
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	if result.TotalRecords != 5 || result.Batches != 3 {
		t.Errorf("result = %d records in %d batches, want 5 in 3", result.TotalRecords, result.Batches)
	}
	if len(repo.batches) != 3 || len(repo.batches[2]) != 1 {
		t.Errorf("repository saw batches %v", repo.batches)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "Dongsi" {
		t.Errorf("replace should delete the station first, deleted = %v", repo.deleted)
	}
	if len(repo.stations) != 1 || repo.stations[0] != "Dongsi" {
		t.Errorf("stations = %v", repo.stations)
	}
	if got := repo.records["Dongsi"]; len(got) != 5 || *got[4].PM25 != 14 {
		t.Errorf("stored records = %+v", got)
	}
}

func TestIngestionService_StationFromFileName(t *testing.T) {
	repo := newFakeRepository()
	svc := NewIngestionService(repo, testLogger(), testMetrics())

	// station column left empty
	path := writeCSV(t, "PRSA_Data_Nongzhanguan_20130301-20170228.csv", stationCSV("", 2))
	if _, err := svc.IngestFile(context.Background(), path, IngestOptions{}); err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if len(repo.stations) != 1 || repo.stations[0] != "Nongzhanguan" {
		t.Errorf("stations = %v, want Nongzhanguan", repo.stations)
	}
	if len(repo.deleted) != 0 {
		t.Error("records should not be deleted without Replace")
	}
}

func TestIngestionService_BatchFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.batchErr = errors.New("copy failed")
	collector := testMetrics()
	svc := NewIngestionService(repo, testLogger(), collector)

	path := writeCSV(t, "station.csv", stationCSV("Dongsi", 3))
	if _, err := svc.IngestFile(context.Background(), path, IngestOptions{BatchSize: 10}); err == nil {
		t.Fatal("IngestFile() should fail when a batch fails")
	}
	if got := testutil.ToFloat64(collector.IngestionErrorsTotal.WithLabelValues("batch_error")); got != 1 {
		t.Errorf("batch error counter = %v, want 1", got)
	}
}

func TestIngestionService_IngestDirectory(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"PRSA_Data_Dongsi_20130301-20170228.csv":  stationCSV("Dongsi", 3),
		"PRSA_Data_Tiantan_20130301-20170228.csv": stationCSV("Tiantan", 4),
		"broken.csv":                              "not,a,dataset\n1,2,3\n",
		"notes.txt":                               "ignored",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	repo := newFakeRepository()
	svc := NewIngestionService(repo, testLogger(), testMetrics())

	result, err := svc.IngestDirectory(context.Background(), dir, IngestOptions{BatchSize: 100})
	if err != nil {
		t.Fatalf("IngestDirectory() error = %v", err)
	}
	if result.TotalFiles != 3 || result.TotalRecords != 7 {
		t.Errorf("result = %d files, %d records; want 3, 7", result.TotalFiles, result.TotalRecords)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "broken.csv") {
		t.Errorf("Errors = %v, want the broken file reported", result.Errors)
	}
}

func TestIngestionService_EmptyDirectory(t *testing.T) {
	svc := NewIngestionService(newFakeRepository(), testLogger(), testMetrics())
	if _, err := svc.IngestDirectory(context.Background(), t.TempDir(), IngestOptions{}); err == nil {
		t.Error("IngestDirectory() on an empty directory should fail")
	}
}

func TestStationFromFileName(t *testing.T) {
	tests := map[string]string{
		"/data/PRSA_Data_Aotizhongxin_20130301-20170228.csv": "Aotizhongxin",
		"PRSA_Data_Wanshouxigong_20130301-20170228.csv":      "Wanshouxigong",
		"beijing.csv":                                        "beijing",
	}
	for in, want := range tests {
		if got := stationFromFileName(in); got != want {
			t.Errorf("stationFromFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
