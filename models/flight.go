package models

import "time"

// RawFlight holds the text fields of a single result card exactly as they
// appear in the browser, before any cleaning or price parsing.
type RawFlight struct {
	Origin        string
	Destination   string
	Airline       string
	PriceText     string
	DepartureTime string
	ArrivalTime   string
	ScrapedAt     time.Time
}

// FlightRecord is the cleaned, validated record persisted as one CSV row.
// Airline is non-empty and Price is a non-negative currency-stripped value.
type FlightRecord struct {
	Origin        string
	Destination   string
	Airline       string
	Price         float64
	DepartureTime string
	ArrivalTime   string
	ScrapedAt     time.Time
}

// SearchRequest describes one flight search. Slugs are optional overrides for
// the direct-URL fallback; when empty they are derived from the city names.
type SearchRequest struct {
	Origin          string
	Destination     string
	OriginSlug      string
	DestinationSlug string
	DepartureDate   string // YYYY-MM-DD
	ReturnDate      string // YYYY-MM-DD, empty for one-way
	Headless        bool
}

// AirlineStats holds price aggregates for a single airline.
type AirlineStats struct {
	Airline  string
	MinPrice float64
	MaxPrice float64
	AvgPrice float64
	Count    int
}

// PriceReport is the full set of aggregates computed over the CSV dataset.
type PriceReport struct {
	TotalFlights int
	AveragePrice float64
	MinPrice     float64
	MaxPrice     float64
	Cheapest     *FlightRecord
	ByAirline    []AirlineStats
	// BySlot maps departure time slot -> airline -> mean price.
	BySlot map[string]map[string]float64
	// SlotMeans maps departure time slot -> mean price over all rows in
	// that slot, weighted by row count rather than per airline.
	SlotMeans map[string]float64
	Slots     []string
	Airlines  []string
}
