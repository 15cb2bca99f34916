package storage

import "flight-scraper/models"

// RecordSink is the interface any flight record storage backend must satisfy.
type RecordSink interface {
	Append(records []*models.FlightRecord) error
	Close() error
}

var (
	_ RecordSink = (*CSVWriter)(nil)
	_ RecordSink = (*PostgresWriter)(nil)
)
