package services

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"flight-scraper/models"
)

// Cleaner transforms RawFlights into validated FlightRecords. Rows with an
// empty route, an empty airline, or an unparseable price are dropped here,
// so everything that reaches the CSV satisfies the dataset invariant.
type Cleaner struct {
	logger zerolog.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger zerolog.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean processes raw flights and returns validated records.
func (c *Cleaner) Clean(raw []*models.RawFlight) []*models.FlightRecord {
	result := make([]*models.FlightRecord, 0, len(raw))

	for _, r := range raw {
		origin := normaliseText(r.Origin)
		destination := normaliseText(r.Destination)
		airline := normaliseText(r.Airline)

		if origin == "" || destination == "" {
			c.logger.Warn().Str("airline", airline).Msg("dropping row with empty route")
			continue
		}
		if airline == "" {
			c.logger.Warn().Str("price", r.PriceText).Msg("dropping row with empty airline")
			continue
		}

		price, err := ParsePrice(r.PriceText)
		if err != nil {
			c.logger.Warn().Str("airline", airline).Str("price", r.PriceText).Err(err).
				Msg("dropping row with unparseable price")
			continue
		}

		result = append(result, &models.FlightRecord{
			Origin:        origin,
			Destination:   destination,
			Airline:       airline,
			Price:         price,
			DepartureTime: normaliseText(r.DepartureTime),
			ArrivalTime:   normaliseText(r.ArrivalTime),
			ScrapedAt:     r.ScrapedAt,
		})
	}

	c.logger.Info().Int("raw", len(raw)).Int("clean", len(result)).
		Int("dropped", len(raw)-len(result)).Msg("cleaning complete")
	return result
}

// ParsePrice normalizes a displayed price to a numeric value. It handles the
// Turkish convention ("₺1.250,00" → 1250.00) as well as already-numeric text
// ("1250.00" → 1250.00), so re-normalizing a normalized price is a no-op.
func ParsePrice(raw string) (float64, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0, fmt.Errorf("no numeric value in %q", raw)
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		// Turkish format: '.' groups thousands, ',' marks decimals.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case hasComma:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case hasDot:
		// A single dot followed by three digits is a thousands separator
		// ("1.250"); anything else is a decimal point ("1250.00", "12.5").
		lastDot := strings.LastIndex(s, ".")
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	return value, nil
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
