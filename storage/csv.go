package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"flight-scraper/models"
)

// ErrNoData means the flight data CSV is missing, empty, or contains no
// valid rows.
var ErrNoData = errors.New("no flight data")

var csvHeader = []string{
	"origin", "destination", "airline", "price", "departure_time", "arrival_time", "scraped_at",
}

// CSVWriter appends flight records to a CSV file. The header is written
// exactly once, when the file is created; appending across runs never
// duplicates it. Safe for concurrent use within one process.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens (or creates) the CSV file at path in append mode.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat file %q: %w", path, err)
	}
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: flush header: %w", err)
		}
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// Append writes the records to the end of the file.
func (c *CSVWriter) Append(records []*models.FlightRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		row := []string{
			r.Origin,
			r.Destination,
			r.Airline,
			strconv.FormatFloat(r.Price, 'f', 2, 64),
			r.DepartureTime,
			r.ArrivalTime,
			r.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// ReadRecords loads all flight records from the CSV at path. Malformed rows
// are skipped; a missing file or a file without any valid row yields
// ErrNoData.
func ReadRecords(path string) ([]*models.FlightRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q does not exist", ErrNoData, path)
		}
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var records []*models.FlightRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip rows the CSV parser cannot make sense of.
			continue
		}
		if len(row) < len(csvHeader) {
			continue
		}
		if row[0] == csvHeader[0] && row[2] == csvHeader[2] {
			continue // header
		}

		price, err := strconv.ParseFloat(row[3], 64)
		if err != nil || price < 0 {
			continue
		}
		if row[0] == "" || row[1] == "" || row[2] == "" {
			continue
		}

		scrapedAt, _ := time.Parse(time.RFC3339, row[6])
		records = append(records, &models.FlightRecord{
			Origin:        row[0],
			Destination:   row[1],
			Airline:       row[2],
			Price:         price,
			DepartureTime: row[4],
			ArrivalTime:   row[5],
			ScrapedAt:     scrapedAt,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %q has no valid rows", ErrNoData, path)
	}
	return records, nil
}
