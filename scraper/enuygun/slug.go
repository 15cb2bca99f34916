package enuygun

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"flight-scraper/models"
)

// defaultSlugMap maps derived slugs to the identifiers enuygun.com actually
// uses in its deep-link URLs. The site's naming is not derivable from city
// names alone, so frequently requested routes are pinned here; the table can
// be extended or replaced via SLUG_MAP_PATH without touching code.
var defaultSlugMap = map[string]string{
	"istanbul":         "istanbul",
	"istanbul-avrupa":  "istanbul",
	"istanbul-anadolu": "istanbul-saw",
	"istanbul-saw":     "istanbul-saw",
	"lefkosa":          "lefkosa",
	"nicosia":          "lefkosa",
	"ercan":            "ercan",
}

// turkishFold maps Turkish letters that do not decompose to ASCII under NFKD.
var turkishFold = strings.NewReplacer(
	"ı", "i", "I", "i", "İ", "i",
	"ğ", "g", "Ğ", "g",
	"ş", "s", "Ş", "s",
	"ç", "c", "Ç", "c",
	"ö", "o", "Ö", "o",
	"ü", "u", "Ü", "u",
)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-safe slug from a city or airport name. The mapping is
// deterministic: the same input always yields the same slug.
func Slugify(name string) string {
	folded := turkishFold.Replace(name)
	if out, _, err := transform.String(stripMarks, folded); err == nil {
		folded = out
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}

	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// LoadSlugMap returns the built-in slug overrides, merged with entries from
// the JSON file at path when one is given. File entries win over built-ins.
func LoadSlugMap(path string) (map[string]string, error) {
	merged := make(map[string]string, len(defaultSlugMap))
	for k, v := range defaultSlugMap {
		merged[k] = v
	}

	if path == "" {
		return merged, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read slug map %q: %w", path, err)
	}
	var fromFile map[string]string
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parse slug map %q: %w", path, err)
	}
	for k, v := range fromFile {
		merged[strings.ToLower(k)] = v
	}
	return merged, nil
}

// resolveSlug picks the slug for one endpoint: an explicit override beats the
// mapping table, which beats plain derivation.
func resolveSlug(name, explicit string, slugMap map[string]string) string {
	if explicit != "" {
		return explicit
	}
	slug := Slugify(name)
	if mapped, ok := slugMap[slug]; ok {
		return mapped
	}
	return slug
}

// BuildResultsURL builds the deep-link results URL used by the fallback path.
// For fixed inputs the output is identical across runs.
func BuildResultsURL(req models.SearchRequest, slugMap map[string]string) string {
	origin := resolveSlug(req.Origin, req.OriginSlug, slugMap)
	destination := resolveSlug(req.Destination, req.DestinationSlug, slugMap)
	url := fmt.Sprintf("%s%s-%s/?gidis=%s", baseURL, origin, destination, req.DepartureDate)
	if req.ReturnDate != "" {
		url += "&donus=" + req.ReturnDate
	}
	return url
}
