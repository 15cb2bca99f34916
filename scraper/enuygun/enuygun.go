package enuygun

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"flight-scraper/config"
	"flight-scraper/models"
	"flight-scraper/utils"
)

const baseURL = "https://www.enuygun.com/ucak-bileti/"

// navStage is one step of the search navigation sequence. The scraper always
// moves FormAttempt → Extraction, inserting URLFallback in between when the
// form cannot be driven. Keeping the sequence explicit keeps each stage's
// entry and exit conditions testable on their own.
type navStage int

const (
	stageFormAttempt navStage = iota
	stageURLFallback
	stageExtraction
)

func (s navStage) String() string {
	switch s {
	case stageFormAttempt:
		return "form-attempt"
	case stageURLFallback:
		return "url-fallback"
	case stageExtraction:
		return "extraction"
	}
	return "unknown"
}

// Scraper drives a Chrome session against the enuygun.com flight search.
type Scraper struct {
	cfg     *config.Config
	logger  zerolog.Logger
	slugMap map[string]string
	dedupe  *utils.Set
}

// New creates a ready-to-use Scraper. The slug override table is loaded once
// here so a broken SLUG_MAP_PATH fails before any browser is launched.
func New(cfg *config.Config, logger zerolog.Logger) (*Scraper, error) {
	slugMap, err := LoadSlugMap(cfg.SlugMapPath)
	if err != nil {
		return nil, err
	}
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		slugMap: slugMap,
		dedupe:  utils.NewSet(),
	}, nil
}

// Scrape runs one flight search and returns the raw result rows. Form-fill
// failures trigger the direct-URL fallback; a fallback navigation failure or
// an empty results page is terminal.
func (s *Scraper) Scrape(ctx context.Context, req models.SearchRequest) ([]*models.RawFlight, error) {
	departure, err := time.Parse("2006-01-02", req.DepartureDate)
	if err != nil {
		return nil, fmt.Errorf("invalid departure date %q (want YYYY-MM-DD): %w", req.DepartureDate, err)
	}
	var ret time.Time
	if req.ReturnDate != "" {
		ret, err = time.Parse("2006-01-02", req.ReturnDate)
		if err != nil {
			return nil, fmt.Errorf("invalid return date %q (want YYYY-MM-DD): %w", req.ReturnDate, err)
		}
		if ret.Before(departure) {
			return nil, fmt.Errorf("return date %s is before departure date %s", req.ReturnDate, req.DepartureDate)
		}
	}

	chromeBin := s.findChromeBinary()
	s.logger.Info().Str("browser", chromeBin).Bool("headless", req.Headless).Msg("launching browser")

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", req.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("window-size", "1600,1200"),
		chromedp.Flag("lang", "tr-TR"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// One tab for the whole form-fill/fallback/extract sequence.
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()

	stage := stageFormAttempt
	for {
		s.logger.Debug().Stringer("stage", stage).Msg("entering navigation stage")

		switch stage {
		case stageFormAttempt:
			if err := s.attemptForm(tabCtx, req, departure, ret); err != nil {
				s.logger.Warn().Err(err).Msg("form path failed, switching to direct URL navigation")
				stage = stageURLFallback
				continue
			}
			stage = stageExtraction

		case stageURLFallback:
			searchURL := BuildResultsURL(req, s.slugMap)
			s.logger.Info().Str("url", searchURL).Msg("navigating to direct search URL")
			if err := s.navigate(tabCtx, searchURL); err != nil {
				return nil, fmt.Errorf("fallback navigation to %s: %w", searchURL, err)
			}
			s.acceptCookies(tabCtx)
			stage = stageExtraction

		case stageExtraction:
			if err := s.waitForResults(tabCtx); err != nil {
				return nil, fmt.Errorf("results page never rendered: %w", err)
			}
			flights, err := s.extractResults(tabCtx, req)
			if err != nil {
				return nil, err
			}
			if len(flights) == 0 {
				return nil, ErrNoResults
			}
			s.logger.Info().Int("count", len(flights)).Msg("extraction complete")
			return flights, nil
		}
	}
}

// attemptForm is the primary path: load the search page, dismiss the cookie
// banner, fill the route and dates, and submit. A zero ret means one-way.
func (s *Scraper) attemptForm(ctx context.Context, req models.SearchRequest, departure, ret time.Time) error {
	if err := s.navigate(ctx, baseURL); err != nil {
		return fmt.Errorf("%w: open search page: %v", ErrFormUnavailable, err)
	}
	s.acceptCookies(ctx)

	if err := s.fillLocation(ctx, "origin", req.Origin); err != nil {
		return err
	}
	if err := s.fillLocation(ctx, "destination", req.Destination); err != nil {
		return err
	}
	if err := s.setTravelDate(ctx, "departure", departure); err != nil {
		return err
	}
	if !ret.IsZero() {
		if err := s.setTravelDate(ctx, "return", ret); err != nil {
			return err
		}
	}
	return s.submitSearch(ctx)
}

func (s *Scraper) navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.MaxWaitSec)*time.Second)
	defer cancel()

	return chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(3*time.Second),
	)
}

// acceptCookies dismisses the consent banner if present. Best-effort: the
// banner does not always appear and the search works without dismissing it.
func (s *Scraper) acceptCookies(ctx context.Context) {
	clickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var clicked bool
	err := chromedp.Run(clickCtx, chromedp.Evaluate(`
		(function() {
			var btn = document.querySelector('button#onetrust-accept-btn-handler') ||
			          document.querySelector("button[data-testid*='cookie'][data-testid*='accept']") ||
			          document.querySelector("button[class*='cookie'][class*='accept']");
			if (btn) { btn.click(); return true; }
			var buttons = document.querySelectorAll('button');
			for (var i = 0; i < buttons.length; i++) {
				if (buttons[i].textContent.trim().toLowerCase().indexOf('kabul') !== -1) {
					buttons[i].click();
					return true;
				}
			}
			return false;
		})()
	`, &clicked))
	if err != nil {
		s.logger.Debug().Err(err).Msg("cookie banner check failed")
		return
	}
	if clicked {
		s.logger.Debug().Msg("cookie banner dismissed")
	}
}

// fillLocation locates the origin or destination input, types the city name,
// and picks the first autocomplete suggestion.
func (s *Scraper) fillLocation(ctx context.Context, role, value string) error {
	fillCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.MaxWaitSec)*time.Second)
	defer cancel()

	keywords := `['nereden','origin','kalkis','from']`
	if role == "destination" {
		keywords = `['nereye','destination','varis','to']`
	}

	js := fmt.Sprintf(`
		(function() {
			var role = %q, value = %q, keywords = %s;
			var selectors = [
				"input[data-testid*='" + role + "']",
				"input[id*='" + role + "']",
				"input[name*='" + role + "']",
				"[data-testid*='" + role + "'] input"
			];
			var input = null;
			for (var i = 0; i < selectors.length && !input; i++) {
				input = document.querySelector(selectors[i]);
			}
			if (!input) {
				var all = document.querySelectorAll('input');
				outer:
				for (var j = 0; j < all.length; j++) {
					var hints = [
						(all[j].placeholder || ''),
						(all[j].getAttribute('aria-label') || ''),
						(all[j].getAttribute('data-testid') || '')
					].join(' ').toLowerCase();
					for (var k = 0; k < keywords.length; k++) {
						if (hints.indexOf(keywords[k]) !== -1) { input = all[j]; break outer; }
					}
				}
			}
			if (!input) return 'no ' + role + ' input on the search form';

			input.scrollIntoView({block: 'center'});
			input.focus();
			var setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value').set;
			setter.call(input, value);
			input.dispatchEvent(new Event('input', {bubbles: true}));
			input.dispatchEvent(new Event('change', {bubbles: true}));
			return '';
		})()
	`, role, value, keywords)

	var failure string
	err := chromedp.Run(fillCtx,
		chromedp.Evaluate(js, &failure),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("%w: fill %s: %v", ErrFormUnavailable, role, err)
	}
	if failure != "" {
		return fmt.Errorf("%w: %s", ErrFormUnavailable, failure)
	}

	// Pick the first suggestion; fall back to Enter when the dropdown stays shut.
	var picked bool
	err = chromedp.Run(fillCtx,
		chromedp.Evaluate(`
			(function() {
				var sug = document.querySelector("li[data-testid*='suggestion'], li[role='option'], ul[role='listbox'] li");
				if (sug) { sug.click(); return true; }
				var active = document.activeElement;
				if (active && active.tagName === 'INPUT') {
					active.dispatchEvent(new KeyboardEvent('keydown', {key: 'Enter', bubbles: true}));
				}
				return false;
			})()
		`, &picked),
		chromedp.Sleep(time.Second),
	)
	if err != nil {
		return fmt.Errorf("%w: confirm %s suggestion: %v", ErrFormUnavailable, role, err)
	}
	s.logger.Debug().Str("role", role).Str("value", value).Bool("suggestion", picked).Msg("location filled")
	return nil
}

// setTravelDate clicks the matching calendar day for the departure or return
// leg, falling back to typing dd.mm.yyyy into the date input when no day
// button can be found.
func (s *Scraper) setTravelDate(ctx context.Context, role string, date time.Time) error {
	dateCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.MaxWaitSec)*time.Second)
	defer cancel()

	placeholder := "Gidiş"
	if role == "return" {
		placeholder = "Dönüş"
	}

	js := fmt.Sprintf(`
		(function() {
			var role = %q, placeholder = %q, day = %d, month = %d, formatted = %q;

			var trigger = document.querySelector("[data-testid*='" + role + "-date']") ||
			              document.querySelector("[data-testid*='datepicker-trigger']") ||
			              document.querySelector("[class*='datepicker'] button") ||
			              document.querySelector("button[id*='" + role + "']");
			if (trigger) trigger.click();

			var dayBtn = document.querySelector("button[data-day='" + day + "'][data-month='" + month + "']");
			if (dayBtn) { dayBtn.click(); return ''; }

			var inputs = [
				document.querySelector("input[data-testid*='" + role + "-date']"),
				document.querySelector("[data-testid*='" + role + "-date'] input"),
				document.querySelector("input[name*='" + role + "']"),
				document.querySelector("input[id*='" + role + "']"),
				document.querySelector("input[placeholder*='" + placeholder + "']")
			];
			for (var i = 0; i < inputs.length; i++) {
				var input = inputs[i];
				if (!input) continue;
				input.focus();
				var setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value').set;
				setter.call(input, formatted);
				input.dispatchEvent(new Event('input', {bubbles: true}));
				input.dispatchEvent(new Event('change', {bubbles: true}));
				input.dispatchEvent(new KeyboardEvent('keydown', {key: 'Enter', bubbles: true}));
				return '';
			}
			return 'no ' + role + ' date selector';
		})()
	`, role, placeholder, date.Day(), int(date.Month()), date.Format("02.01.2006"))

	var failure string
	err := chromedp.Run(dateCtx,
		chromedp.Evaluate(js, &failure),
		chromedp.Sleep(time.Second),
	)
	if err != nil {
		return fmt.Errorf("%w: set %s date: %v", ErrFormUnavailable, role, err)
	}
	if failure != "" {
		return fmt.Errorf("%w: %s", ErrFormUnavailable, failure)
	}
	return nil
}

func (s *Scraper) submitSearch(ctx context.Context) error {
	submitCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.MaxWaitSec)*time.Second)
	defer cancel()

	var failure string
	err := chromedp.Run(submitCtx,
		chromedp.Evaluate(`
			(function() {
				var selectors = [
					"button[data-testid*='search-button']",
					"button[type='submit']",
					"button[class*='search']",
					"form button"
				];
				for (var i = 0; i < selectors.length; i++) {
					var btn = document.querySelector(selectors[i]);
					if (btn) { btn.scrollIntoView({block: 'center'}); btn.click(); return ''; }
				}
				var form = document.querySelector('form');
				if (form) { form.submit(); return ''; }
				return 'no search button or form to submit';
			})()
		`, &failure),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("%w: submit search: %v", ErrFormUnavailable, err)
	}
	if failure != "" {
		return fmt.Errorf("%w: %s", ErrFormUnavailable, failure)
	}
	return nil
}

const resultCountJS = `
	(function() {
		var selectors = [
			"[data-testid='flight-card']",
			"[data-testid^='flight-card-']",
			"[data-testid*='result-card']",
			"article[data-testid*='flight']",
			"article[data-testid*='result']",
			"div[data-testid*='flight-card']"
		];
		var total = 0;
		for (var i = 0; i < selectors.length; i++) {
			total += document.querySelectorAll(selectors[i]).length;
		}
		if (total === 0) total = document.querySelectorAll('main article').length;
		return total;
	})()
`

// waitForResults polls until at least one result card is visible or the
// configured wait budget runs out.
func (s *Scraper) waitForResults(ctx context.Context) error {
	deadline := time.Now().Add(time.Duration(s.cfg.MaxWaitSec) * time.Second)
	for {
		var count int
		if err := chromedp.Run(ctx, chromedp.Evaluate(resultCountJS, &count)); err != nil {
			return err
		}
		if count > 0 {
			s.logger.Debug().Int("cards", count).Msg("result cards visible")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %ds waiting for result cards", s.cfg.MaxWaitSec)
		}
		if err := chromedp.Run(ctx, chromedp.Sleep(2*time.Second)); err != nil {
			return err
		}
	}
}

// extractResults pulls airline, price and times out of every visible result
// card. Cards the page renders twice under different selectors are dropped.
func (s *Scraper) extractResults(ctx context.Context, req models.SearchRequest) ([]*models.RawFlight, error) {
	extractCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.MaxWaitSec)*time.Second)
	defer cancel()

	type cardData struct {
		Airline   string `json:"airline"`
		Price     string `json:"price"`
		Departure string `json:"departure"`
		Arrival   string `json:"arrival"`
	}

	var cards []cardData
	err := chromedp.Run(extractCtx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`
			(function() {
				function firstText(root, selectors) {
					for (var i = 0; i < selectors.length; i++) {
						var el = root.querySelector(selectors[i]);
						if (el && el.innerText && el.innerText.trim()) return el.innerText.trim();
					}
					return '';
				}

				var cardSelectors = [
					"[data-testid='flight-card']",
					"[data-testid^='flight-card-']",
					"[data-testid*='result-card']",
					"article[data-testid*='flight']",
					"article[data-testid*='result']",
					"div[data-testid*='flight-card']"
				];
				var cards = [];
				for (var s = 0; s < cardSelectors.length; s++) {
					var found = document.querySelectorAll(cardSelectors[s]);
					for (var f = 0; f < found.length; f++) cards.push(found[f]);
				}
				if (cards.length === 0) {
					cards = Array.prototype.slice.call(document.querySelectorAll('main article'));
				}

				var results = [];
				for (var i = 0; i < cards.length; i++) {
					var card = cards[i];
					var price = firstText(card, [
						"[data-testid*='price']",
						"[class*='price'] span",
						"[class*='price'] strong"
					]);
					if (!price) {
						var match = (card.innerText || '').match(/[\d.,]+\s*(TL|₺)/);
						price = match ? match[0] : '';
					}
					results.push({
						airline: firstText(card, [
							"[data-testid*='airline-name']",
							"[class*='airline'] span",
							"[class*='carrier'] span"
						]),
						price: price,
						departure: firstText(card, [
							"[data-testid*='departure-time']",
							"[class*='departure'] [class*='time']",
							"time[data-testid*='departure']"
						]),
						arrival: firstText(card, [
							"[data-testid*='arrival-time']",
							"[class*='arrival'] [class*='time']",
							"time[data-testid*='arrival']"
						])
					});
				}
				return results;
			})()
		`, &cards),
	)
	if err != nil {
		return nil, fmt.Errorf("extract result cards: %w", err)
	}

	now := time.Now()
	flights := make([]*models.RawFlight, 0, len(cards))
	for _, c := range cards {
		if c.Price == "" {
			continue
		}
		key := c.Airline + "|" + c.Departure + "|" + c.Arrival + "|" + c.Price
		if !s.dedupe.Add(key) {
			s.logger.Debug().Str("key", key).Msg("duplicate card skipped")
			continue
		}
		flights = append(flights, &models.RawFlight{
			Origin:        req.Origin,
			Destination:   req.Destination,
			Airline:       c.Airline,
			PriceText:     c.Price,
			DepartureTime: c.Departure,
			ArrivalTime:   c.Arrival,
			ScrapedAt:     now,
		})
	}

	return flights, nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring CHROME_BIN.
func (s *Scraper) findChromeBinary() string {
	if s.cfg.ChromeBin != "" {
		return s.cfg.ChromeBin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
