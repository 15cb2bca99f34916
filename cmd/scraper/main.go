package main

import (
	"context"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"flight-scraper/config"
	"flight-scraper/models"
	"flight-scraper/scraper/enuygun"
	"flight-scraper/services"
	"flight-scraper/storage"
	"flight-scraper/utils"
)

// CLI defines the scraper's command-line flags.
type CLI struct {
	Origin          string `required:"" help:"Origin city or airport name."`
	Destination     string `required:"" help:"Destination city or airport name."`
	OriginSlug      string `help:"Slug override for origin used by the direct-URL fallback."`
	DestinationSlug string `help:"Slug override for destination used by the direct-URL fallback."`
	DepartureDate   string `required:"" help:"Departure date in YYYY-MM-DD format."`
	ReturnDate      string `help:"Return date in YYYY-MM-DD format for round-trip searches."`
	Headless        bool   `help:"Run Chrome in headless mode."`
	Output          string `help:"Output CSV path (default: analysis/flight_data.csv)."`
	MaxWait         int    `help:"Maximum wait for dynamic elements in seconds."`
	Verbose         bool   `help:"Enable debug logging."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("flight-scraper"),
		kong.Description("Extract flight search results from enuygun.com into CSV."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	logger := utils.NewLogger(cli.Verbose)
	cfg := config.Load()
	if cli.Output != "" {
		cfg.CSVPath = cli.Output
	}
	if cli.MaxWait > 0 {
		cfg.MaxWaitSec = cli.MaxWait
	}

	req := models.SearchRequest{
		Origin:          cli.Origin,
		Destination:     cli.Destination,
		OriginSlug:      cli.OriginSlug,
		DestinationSlug: cli.DestinationSlug,
		DepartureDate:   cli.DepartureDate,
		ReturnDate:      cli.ReturnDate,
		Headless:        cli.Headless,
	}

	scraper, err := enuygun.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("scraper setup failed")
		os.Exit(1)
	}

	logger.Info().
		Str("origin", req.Origin).
		Str("destination", req.Destination).
		Str("date", req.DepartureDate).
		Msg("starting flight search")

	raw, err := scraper.Scrape(context.Background(), req)
	if err != nil {
		logger.Error().Err(err).Msg("scrape failed")
		os.Exit(1)
	}

	cleaner := services.NewCleaner(logger)
	records := cleaner.Clean(raw)
	if len(records) == 0 {
		logger.Error().Msg("all scraped rows were dropped during cleaning")
		os.Exit(1)
	}

	var csvWriter storage.RecordSink
	csvWriter, err = storage.NewCSVWriter(cfg.CSVPath)
	if err != nil {
		logger.Error().Err(err).Msg("could not open CSV output")
		os.Exit(1)
	}
	if err := csvWriter.Append(records); err != nil {
		logger.Error().Err(err).Msg("CSV append failed")
		_ = csvWriter.Close()
		os.Exit(1)
	}
	if err := csvWriter.Close(); err != nil {
		logger.Error().Err(err).Msg("CSV close failed")
		os.Exit(1)
	}
	logger.Info().Int("rows", len(records)).Str("path", cfg.CSVPath).Msg("flights appended to CSV")

	// Mirror into PostgreSQL when configured. The CSV is the dataset of
	// record, so a mirror failure does not fail the run.
	if cfg.PostgresEnabled {
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		}
		var pgWriter storage.RecordSink
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN(), retry)
		if err != nil {
			logger.Error().Err(err).Msg("PostgreSQL connect failed, mirror skipped")
			return
		}
		defer pgWriter.Close()
		if err := pgWriter.Append(records); err != nil {
			logger.Error().Err(err).Msg("PostgreSQL mirror write failed")
			return
		}
		logger.Info().Int("rows", len(records)).Msg("flights mirrored to PostgreSQL")
	}
}
