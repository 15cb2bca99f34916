package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"flight-scraper/models"
)

func testRecord(airline string, price float64) *models.FlightRecord {
	return &models.FlightRecord{
		Origin:        "İstanbul",
		Destination:   "Lefkoşa",
		Airline:       airline,
		Price:         price,
		DepartureTime: "09:10",
		ArrivalTime:   "10:35",
		ScrapedAt:     time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
	}
}

func appendRecords(t *testing.T, path string, records ...*models.FlightRecord) {
	t.Helper()
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	if err := w.Append(records); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCSVHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis", "flight_data.csv")

	// Two separate runs appending 2 + 1 records.
	appendRecords(t, path, testRecord("THY", 1000), testRecord("Pegasus", 800))
	appendRecords(t, path, testRecord("SunExpress", 700))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("line count: got %d, want 4 (1 header + 3 rows)", len(lines))
	}

	headerCount := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "origin,destination,airline") {
			headerCount++
		}
	}
	if headerCount != 1 {
		t.Errorf("header rows: got %d, want exactly 1", headerCount)
	}
}

func TestReadRecordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_data.csv")
	appendRecords(t, path, testRecord("THY", 1250.50), testRecord("Pegasus", 800))

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
	if records[0].Airline != "THY" || records[0].Price != 1250.50 {
		t.Errorf("first record: got %s %.2f, want THY 1250.50", records[0].Airline, records[0].Price)
	}
	if records[0].Origin != "İstanbul" {
		t.Errorf("origin round-trip: got %q", records[0].Origin)
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrNoData) {
		t.Errorf("got %v, want ErrNoData", err)
	}
}

func TestReadRecordsHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_data.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = ReadRecords(path)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("got %v, want ErrNoData", err)
	}
}

func TestReadRecordsSkipsInvalidRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_data.csv")
	content := strings.Join([]string{
		"origin,destination,airline,price,departure_time,arrival_time,scraped_at",
		"İstanbul,Lefkoşa,THY,1000.00,09:10,10:35,2025-11-03T12:00:00Z",
		"İstanbul,Lefkoşa,Pegasus,not-a-price,10:00,11:25,2025-11-03T12:00:00Z",
		"İstanbul,Lefkoşa,,900.00,11:00,12:25,2025-11-03T12:00:00Z",
		"short,row",
		"İstanbul,Lefkoşa,SunExpress,700.00,12:00,13:25,2025-11-03T12:00:00Z",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2 (invalid rows skipped)", len(records))
	}
	if records[1].Airline != "SunExpress" {
		t.Errorf("second record: got %q, want SunExpress", records[1].Airline)
	}
}
