package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"flight-scraper/models"
)

// slotLabels are the departure time-of-day buckets, four hours each.
var slotLabels = []string{
	"00:00-03:59",
	"04:00-07:59",
	"08:00-11:59",
	"12:00-15:59",
	"16:00-19:59",
	"20:00-23:59",
}

// slotUnknown buckets rows whose departure time could not be parsed.
const slotUnknown = "Unknown"

type InsightService struct {
	logger zerolog.Logger
}

func NewInsightService(logger zerolog.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes all price aggregates over the dataset.
func (s *InsightService) Generate(records []*models.FlightRecord) *models.PriceReport {
	report := &models.PriceReport{
		BySlot:    make(map[string]map[string]float64),
		SlotMeans: make(map[string]float64),
	}

	if len(records) == 0 {
		return report
	}

	report.TotalFlights = len(records)
	report.MinPrice = records[0].Price
	report.MaxPrice = records[0].Price
	report.Cheapest = records[0]

	var total float64
	byAirline := make(map[string]*models.AirlineStats)
	type cell struct {
		sum   float64
		count int
	}
	slotCells := make(map[string]map[string]*cell)
	slotTotals := make(map[string]*cell)

	for _, r := range records {
		total += r.Price
		if r.Price < report.MinPrice {
			report.MinPrice = r.Price
		}
		if r.Price < report.Cheapest.Price {
			report.Cheapest = r
		}
		if r.Price > report.MaxPrice {
			report.MaxPrice = r.Price
		}

		stats, ok := byAirline[r.Airline]
		if !ok {
			stats = &models.AirlineStats{Airline: r.Airline, MinPrice: r.Price, MaxPrice: r.Price}
			byAirline[r.Airline] = stats
		}
		stats.Count++
		stats.AvgPrice += r.Price
		if r.Price < stats.MinPrice {
			stats.MinPrice = r.Price
		}
		if r.Price > stats.MaxPrice {
			stats.MaxPrice = r.Price
		}

		slot := TimeSlot(r.DepartureTime)
		if slotCells[slot] == nil {
			slotCells[slot] = make(map[string]*cell)
		}
		if slotCells[slot][r.Airline] == nil {
			slotCells[slot][r.Airline] = &cell{}
		}
		slotCells[slot][r.Airline].sum += r.Price
		slotCells[slot][r.Airline].count++
		if slotTotals[slot] == nil {
			slotTotals[slot] = &cell{}
		}
		slotTotals[slot].sum += r.Price
		slotTotals[slot].count++
	}

	report.AveragePrice = round2(total / float64(len(records)))
	report.MinPrice = round2(report.MinPrice)
	report.MaxPrice = round2(report.MaxPrice)

	for _, stats := range byAirline {
		stats.AvgPrice = round2(stats.AvgPrice / float64(stats.Count))
		report.ByAirline = append(report.ByAirline, *stats)
	}
	sort.Slice(report.ByAirline, func(i, j int) bool {
		return report.ByAirline[i].AvgPrice < report.ByAirline[j].AvgPrice
	})

	for _, stats := range report.ByAirline {
		report.Airlines = append(report.Airlines, stats.Airline)
	}
	sort.Strings(report.Airlines)

	for slot, airlines := range slotCells {
		row := make(map[string]float64, len(airlines))
		for airline, c := range airlines {
			row[airline] = round2(c.sum / float64(c.count))
		}
		report.BySlot[slot] = row
	}
	for slot, c := range slotTotals {
		report.SlotMeans[slot] = round2(c.sum / float64(c.count))
	}
	for _, slot := range slotLabels {
		if _, ok := report.BySlot[slot]; ok {
			report.Slots = append(report.Slots, slot)
		}
	}
	if _, ok := report.BySlot[slotUnknown]; ok {
		report.Slots = append(report.Slots, slotUnknown)
	}

	return report
}

// TimeSlot buckets an HH:MM departure time into a four-hour slot.
func TimeSlot(departure string) string {
	minutes, ok := parseTimeToMinutes(departure)
	if !ok {
		return slotUnknown
	}
	idx := minutes / 240
	if idx < 0 || idx >= len(slotLabels) {
		return slotUnknown
	}
	return slotLabels[idx]
}

// parseTimeToMinutes converts an "HH:MM" string into minutes since midnight.
func parseTimeToMinutes(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// Print writes the textual report to stdout.
func (s *InsightService) Print(r *models.PriceReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  ✈ FLIGHT PRICE REPORT\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Flights analysed : \033[1m%d\033[0m\n", r.TotalFlights)
	fmt.Printf("  Average price    : \033[1;32m%.2f TRY\033[0m\n", r.AveragePrice)
	fmt.Printf("  Minimum price    : \033[1;32m%.2f TRY\033[0m\n", r.MinPrice)
	fmt.Printf("  Maximum price    : \033[1;32m%.2f TRY\033[0m\n", r.MaxPrice)
	fmt.Println()

	if r.Cheapest != nil {
		fmt.Printf("\033[1;33m  Most Cost-Effective Flight\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s  %s → %s\n", r.Cheapest.Airline, r.Cheapest.Origin, r.Cheapest.Destination)
		fmt.Printf("  Departs %s, arrives %s\n", r.Cheapest.DepartureTime, r.Cheapest.ArrivalTime)
		fmt.Printf("  Price   : \033[1;32m%.2f TRY\033[0m\n", r.Cheapest.Price)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Price by Airline (mean, ascending)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, a := range r.ByAirline {
		fmt.Printf("  %-28s avg \033[1m%9.2f\033[0m  min %9.2f  max %9.2f  (%d)\n",
			truncate(a.Airline, 26), a.AvgPrice, a.MinPrice, a.MaxPrice, a.Count)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Price by Departure Slot (mean)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, slot := range r.Slots {
		mean, ok := r.SlotMeans[slot]
		if !ok {
			continue
		}
		fmt.Printf("  %-12s \033[1m%9.2f\033[0m\n", slot, mean)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
