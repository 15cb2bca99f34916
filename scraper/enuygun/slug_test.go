package enuygun

import (
	"os"
	"path/filepath"
	"testing"

	"flight-scraper/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"İstanbul", "istanbul"},
		{"Lefkoşa", "lefkosa"},
		{"İstanbul (Avrupa)", "istanbul-avrupa"},
		{"Diyarbakır", "diyarbakir"},
		{"Ankara", "ankara"},
		{"New York", "new-york"},
		{"  ", "unknown"},
		{"Çanakkale", "canakkale"},
	}

	for _, tt := range tests {
		got := Slugify(tt.name)
		if got != tt.want {
			t.Errorf("Slugify(%q) = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestSlugifyStable(t *testing.T) {
	for i := 0; i < 10; i++ {
		if got := Slugify("İstanbul"); got != "istanbul" {
			t.Fatalf("run %d: Slugify(İstanbul) = %q; want istanbul", i, got)
		}
		if got := Slugify("Lefkoşa"); got != "lefkosa" {
			t.Fatalf("run %d: Slugify(Lefkoşa) = %q; want lefkosa", i, got)
		}
	}
}

func TestBuildResultsURLDerived(t *testing.T) {
	slugMap, err := LoadSlugMap("")
	if err != nil {
		t.Fatalf("LoadSlugMap: %v", err)
	}

	req := models.SearchRequest{
		Origin:        "İstanbul",
		Destination:   "Lefkoşa",
		DepartureDate: "2025-11-03",
	}

	want := "https://www.enuygun.com/ucak-bileti/istanbul-lefkosa/?gidis=2025-11-03"
	for i := 0; i < 5; i++ {
		if got := BuildResultsURL(req, slugMap); got != want {
			t.Fatalf("run %d: BuildResultsURL = %q; want %q", i, got, want)
		}
	}
}

func TestBuildResultsURLRoundTrip(t *testing.T) {
	slugMap, err := LoadSlugMap("")
	if err != nil {
		t.Fatalf("LoadSlugMap: %v", err)
	}

	req := models.SearchRequest{
		Origin:        "İstanbul",
		Destination:   "Lefkoşa",
		DepartureDate: "2025-11-03",
		ReturnDate:    "2025-11-10",
	}

	want := "https://www.enuygun.com/ucak-bileti/istanbul-lefkosa/?gidis=2025-11-03&donus=2025-11-10"
	if got := BuildResultsURL(req, slugMap); got != want {
		t.Errorf("BuildResultsURL = %q; want %q", got, want)
	}
}

func TestBuildResultsURLExplicitSlugsWin(t *testing.T) {
	slugMap, _ := LoadSlugMap("")

	req := models.SearchRequest{
		Origin:          "İstanbul",
		Destination:     "Lefkoşa",
		OriginSlug:      "istanbul-saw",
		DestinationSlug: "ercan",
		DepartureDate:   "2025-11-03",
	}

	want := "https://www.enuygun.com/ucak-bileti/istanbul-saw-ercan/?gidis=2025-11-03"
	if got := BuildResultsURL(req, slugMap); got != want {
		t.Errorf("BuildResultsURL = %q; want %q", got, want)
	}
}

func TestBuildResultsURLOverrideTable(t *testing.T) {
	slugMap, _ := LoadSlugMap("")

	req := models.SearchRequest{
		Origin:        "İstanbul (Anadolu)",
		Destination:   "Nicosia",
		DepartureDate: "2025-12-24",
	}

	want := "https://www.enuygun.com/ucak-bileti/istanbul-saw-lefkosa/?gidis=2025-12-24"
	if got := BuildResultsURL(req, slugMap); got != want {
		t.Errorf("BuildResultsURL = %q; want %q", got, want)
	}
}

func TestLoadSlugMapFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slugs.json")
	if err := os.WriteFile(path, []byte(`{"antalya": "antalya-ayt", "Istanbul": "custom"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	slugMap, err := LoadSlugMap(path)
	if err != nil {
		t.Fatalf("LoadSlugMap: %v", err)
	}

	if slugMap["antalya"] != "antalya-ayt" {
		t.Errorf("file entry: got %q, want antalya-ayt", slugMap["antalya"])
	}
	if slugMap["istanbul"] != "custom" {
		t.Errorf("file entries should win over built-ins: got %q", slugMap["istanbul"])
	}
	if slugMap["lefkosa"] != "lefkosa" {
		t.Errorf("built-in entry lost: got %q", slugMap["lefkosa"])
	}
}

func TestLoadSlugMapBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slugs.json")
	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSlugMap(path); err == nil {
		t.Error("expected error for malformed slug map file")
	}
}
