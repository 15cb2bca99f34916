package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"flight-scraper/models"
)

// ErrNoChartData means a chart's aggregation has no rows. The caller skips
// that one chart; the report and any other chart still complete.
var ErrNoChartData = errors.New("no rows to plot")

// ChartService renders the report visualisations into a directory.
type ChartService struct {
	logger zerolog.Logger
}

func NewChartService(logger zerolog.Logger) *ChartService {
	return &ChartService{logger: logger}
}

// RenderAirlineBar writes a bar chart of mean price per airline.
func (c *ChartService) RenderAirlineBar(report *models.PriceReport, path string) error {
	if len(report.ByAirline) == 0 {
		return ErrNoChartData
	}

	bars := make([]chart.Value, 0, len(report.ByAirline))
	var maxAvg float64
	for _, a := range report.ByAirline {
		bars = append(bars, chart.Value{Label: truncate(a.Airline, 16), Value: a.AvgPrice})
		if a.AvgPrice > maxAvg {
			maxAvg = a.AvgPrice
		}
	}
	if maxAvg == 0 {
		maxAvg = 1
	}

	graph := chart.BarChart{
		Title:      "Average Flight Prices by Airline (TRY)",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		Width:      960,
		Height:     512,
		BarWidth:   56,
		Bars:       bars,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxAvg * 1.1},
		},
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	c.logger.Info().Str("path", path).Msg("bar chart written")
	return nil
}

// priceGrid adapts the slot×airline pivot to gonum's heatmap grid. Cells
// without data render as zero.
type priceGrid struct {
	airlines []string
	slots    []string
	cells    [][]float64 // [slot][airline]
}

func (g *priceGrid) Dims() (c, r int)   { return len(g.airlines), len(g.slots) }
func (g *priceGrid) Z(c, r int) float64 { return g.cells[r][c] }
func (g *priceGrid) X(c int) float64    { return float64(c) }
func (g *priceGrid) Y(r int) float64    { return float64(r) }

// RenderSlotHeatmap writes a heatmap of mean price per departure slot and
// airline.
func (c *ChartService) RenderSlotHeatmap(report *models.PriceReport, path string) error {
	if len(report.Slots) == 0 || len(report.Airlines) == 0 {
		return ErrNoChartData
	}

	grid := &priceGrid{airlines: report.Airlines, slots: report.Slots}
	for _, slot := range report.Slots {
		row := make([]float64, len(report.Airlines))
		for i, airline := range report.Airlines {
			row[i] = report.BySlot[slot][airline]
		}
		grid.cells = append(grid.cells, row)
	}

	p := plot.New()
	p.Title.Text = "Average Price by Departure Slot (TRY)"
	p.X.Label.Text = "Airline"
	p.Y.Label.Text = "Departure Slot"

	heat := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	if heat.Min == heat.Max {
		// Degenerate range (single value); widen so the palette lookup is defined.
		heat.Min = 0
		if heat.Max == 0 {
			heat.Max = 1
		}
	}
	p.Add(heat)

	xTicks := make([]plot.Tick, len(report.Airlines))
	for i, airline := range report.Airlines {
		xTicks[i] = plot.Tick{Value: float64(i), Label: truncate(airline, 14)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)

	yTicks := make([]plot.Tick, len(report.Slots))
	for i, slot := range report.Slots {
		yTicks[i] = plot.Tick{Value: float64(i), Label: slot}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	if err := p.Save(9*vg.Inch, 4.5*vg.Inch, path); err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	c.logger.Info().Str("path", path).Msg("heatmap written")
	return nil
}
