package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"flight-scraper/config"
	"flight-scraper/services"
	"flight-scraper/storage"
	"flight-scraper/utils"
)

// CLI defines the analyzer's command-line flags. Everything has a default;
// a plain invocation reads analysis/flight_data.csv and writes into
// analysis/reports.
type CLI struct {
	Input      string `help:"Path to the scraped flight data CSV."`
	ReportsDir string `help:"Directory for generated chart images."`
	Verbose    bool   `help:"Enable debug logging."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("flight-analyzer"),
		kong.Description("Analyse scraped flight search results."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	logger := utils.NewLogger(cli.Verbose)
	cfg := config.Load()
	if cli.Input != "" {
		cfg.CSVPath = cli.Input
	}
	if cli.ReportsDir != "" {
		cfg.ReportsDir = cli.ReportsDir
	}

	records, err := storage.ReadRecords(cfg.CSVPath)
	if err != nil {
		logger.Error().Err(err).Msg("could not load flight data")
		os.Exit(1)
	}
	logger.Info().Int("rows", len(records)).Str("path", cfg.CSVPath).Msg("flight data loaded")

	insights := services.NewInsightService(logger)
	report := insights.Generate(records)
	insights.Print(report)

	charts := services.NewChartService(logger)

	barPath := filepath.Join(cfg.ReportsDir, "price_by_airline.png")
	if err := charts.RenderAirlineBar(report, barPath); err != nil {
		if errors.Is(err, services.ErrNoChartData) {
			logger.Warn().Str("chart", "price_by_airline").Msg("no data to plot, chart skipped")
		} else {
			logger.Error().Err(err).Msg("bar chart failed")
			os.Exit(1)
		}
	}

	heatPath := filepath.Join(cfg.ReportsDir, "price_heatmap.png")
	if err := charts.RenderSlotHeatmap(report, heatPath); err != nil {
		if errors.Is(err, services.ErrNoChartData) {
			logger.Warn().Str("chart", "price_heatmap").Msg("no data to plot, chart skipped")
		} else {
			logger.Error().Err(err).Msg("heatmap failed")
			os.Exit(1)
		}
	}
}
