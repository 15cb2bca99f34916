package services

import (
	"testing"
	"time"
	"unicode/utf8"

	"flight-scraper/models"
	"flight-scraper/utils"
)

func sampleRecords() []*models.FlightRecord {
	now := time.Now()
	mk := func(airline string, price float64, dep, arr string) *models.FlightRecord {
		return &models.FlightRecord{
			Origin:        "İstanbul",
			Destination:   "Lefkoşa",
			Airline:       airline,
			Price:         price,
			DepartureTime: dep,
			ArrivalTime:   arr,
			ScrapedAt:     now,
		}
	}
	return []*models.FlightRecord{
		mk("THY", 1000, "09:10", "10:35"),
		mk("THY", 1200, "18:30", "19:55"),
		mk("Pegasus", 800, "06:15", "07:40"),
		mk("Pegasus", 900, "14:00", "15:25"),
		mk("SunExpress", 700, "09:45", "11:10"),
		mk("SunExpress", 650, "22:05", "23:30"),
	}
}

func TestInsightOverview(t *testing.T) {
	svc := NewInsightService(utils.NewLogger(false))
	r := svc.Generate(sampleRecords())

	if r.TotalFlights != 6 {
		t.Errorf("TotalFlights: got %d, want 6", r.TotalFlights)
	}
	if r.AveragePrice != 875 {
		t.Errorf("AveragePrice: got %.2f, want 875", r.AveragePrice)
	}
	if r.MinPrice != 650 {
		t.Errorf("MinPrice: got %.2f, want 650", r.MinPrice)
	}
	if r.MaxPrice != 1200 {
		t.Errorf("MaxPrice: got %.2f, want 1200", r.MaxPrice)
	}
}

func TestInsightByAirline(t *testing.T) {
	svc := NewInsightService(utils.NewLogger(false))
	r := svc.Generate(sampleRecords())

	if len(r.ByAirline) != 3 {
		t.Fatalf("ByAirline groups: got %d, want 3", len(r.ByAirline))
	}

	// Sorted by mean price ascending.
	want := []struct {
		airline string
		avg     float64
	}{
		{"SunExpress", 675},
		{"Pegasus", 850},
		{"THY", 1100},
	}
	for i, w := range want {
		got := r.ByAirline[i]
		if got.Airline != w.airline || got.AvgPrice != w.avg {
			t.Errorf("ByAirline[%d]: got %s %.2f, want %s %.2f",
				i, got.Airline, got.AvgPrice, w.airline, w.avg)
		}
		if got.Count != 2 {
			t.Errorf("ByAirline[%d].Count: got %d, want 2", i, got.Count)
		}
	}
}

func TestInsightCheapest(t *testing.T) {
	svc := NewInsightService(utils.NewLogger(false))
	r := svc.Generate(sampleRecords())

	if r.Cheapest == nil {
		t.Fatal("Cheapest should not be nil")
	}
	if r.Cheapest.Airline != "SunExpress" || r.Cheapest.Price != 650 {
		t.Errorf("Cheapest: got %s %.2f, want SunExpress 650", r.Cheapest.Airline, r.Cheapest.Price)
	}
}

func TestInsightSlotPivot(t *testing.T) {
	svc := NewInsightService(utils.NewLogger(false))
	r := svc.Generate(sampleRecords())

	morning := r.BySlot["08:00-11:59"]
	if morning == nil {
		t.Fatal("expected 08:00-11:59 slot")
	}
	if morning["THY"] != 1000 {
		t.Errorf("morning THY mean: got %.2f, want 1000", morning["THY"])
	}
	if morning["SunExpress"] != 700 {
		t.Errorf("morning SunExpress mean: got %.2f, want 700", morning["SunExpress"])
	}
	if _, ok := r.BySlot[slotUnknown]; ok {
		t.Error("no row should land in the Unknown slot")
	}
}

func TestInsightSlotMeanIsRowWeighted(t *testing.T) {
	now := time.Now()
	mk := func(airline string, price float64, dep string) *models.FlightRecord {
		return &models.FlightRecord{
			Origin: "İstanbul", Destination: "Lefkoşa",
			Airline: airline, Price: price,
			DepartureTime: dep, ArrivalTime: "12:00", ScrapedAt: now,
		}
	}
	// Unequal row counts per airline within one slot: the slot mean must
	// weight every row, not average the two airline means (700).
	records := []*models.FlightRecord{
		mk("THY", 1000, "09:00"),
		mk("THY", 1000, "10:00"),
		mk("Pegasus", 400, "11:00"),
	}

	svc := NewInsightService(utils.NewLogger(false))
	r := svc.Generate(records)

	if got := r.SlotMeans["08:00-11:59"]; got != 800 {
		t.Errorf("slot mean: got %.2f, want 800.00", got)
	}

	// The pivot keeps per-airline means for the heatmap.
	morning := r.BySlot["08:00-11:59"]
	if morning["THY"] != 1000 || morning["Pegasus"] != 400 {
		t.Errorf("pivot: got THY %.2f Pegasus %.2f, want 1000/400", morning["THY"], morning["Pegasus"])
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"Türk Hava Yolları Anadolu Jet Uçuşları", 10, "Türk Ha..."},
		{"Güneş Ekspres Havacılık", 12, "Güneş Eks..."},
		{"Pegasus", 10, "Pegasus"},
	}

	for _, tt := range tests {
		got := truncate(tt.s, tt.max)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.s, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.s, tt.max)
		}
	}
}

func TestInsightEmptyDataset(t *testing.T) {
	svc := NewInsightService(utils.NewLogger(false))
	r := svc.Generate(nil)

	if r.TotalFlights != 0 || r.Cheapest != nil || len(r.ByAirline) != 0 {
		t.Errorf("empty dataset should produce an empty report, got %+v", r)
	}
}

func TestTimeSlot(t *testing.T) {
	tests := []struct {
		departure string
		want      string
	}{
		{"00:00", "00:00-03:59"},
		{"03:59", "00:00-03:59"},
		{"04:00", "04:00-07:59"},
		{"09:10", "08:00-11:59"},
		{"12:00", "12:00-15:59"},
		{"19:59", "16:00-19:59"},
		{"23:59", "20:00-23:59"},
		{"", slotUnknown},
		{"n/a", slotUnknown},
		{"25:00", slotUnknown},
	}

	for _, tt := range tests {
		if got := TimeSlot(tt.departure); got != tt.want {
			t.Errorf("TimeSlot(%q) = %q; want %q", tt.departure, got, tt.want)
		}
	}
}
