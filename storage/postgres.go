package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"flight-scraper/models"
	"flight-scraper/utils"
)

// PostgresWriter mirrors cleaned flight records into PostgreSQL. It is an
// optional sink enabled via POSTGRES_ENABLED; the CSV remains the dataset of
// record for the analyzer.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, err
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			id             SERIAL PRIMARY KEY,
			origin         TEXT          NOT NULL,
			destination    TEXT          NOT NULL,
			airline        TEXT          NOT NULL,
			price          NUMERIC(10,2) NOT NULL,
			departure_time VARCHAR(8)    NOT NULL DEFAULT '',
			arrival_time   VARCHAR(8)    NOT NULL DEFAULT '',
			scraped_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_flights_airline ON flights(airline);
		CREATE INDEX IF NOT EXISTS idx_flights_price   ON flights(price);
		CREATE INDEX IF NOT EXISTS idx_flights_route   ON flights(origin, destination);
	`)
	return err
}

// Append inserts the records. Rows are never updated; repeated runs insert
// repeated rows, matching the CSV's append-only behaviour.
func (pw *PostgresWriter) Append(records []*models.FlightRecord) error {
	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO flights (origin, destination, airline, price, departure_time, arrival_time, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("postgres: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		scrapedAt := r.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now()
		}
		if _, err := stmt.Exec(
			r.Origin, r.Destination, r.Airline, r.Price,
			r.DepartureTime, r.ArrivalTime, scrapedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres: insert: %w", err)
		}
	}

	return tx.Commit()
}

// Close closes the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
