package enuygun

import "errors"

var (
	// ErrFormUnavailable marks a failure to drive the search form. It is
	// recovered locally by switching to the direct-URL fallback.
	ErrFormUnavailable = errors.New("search form could not be driven")

	// ErrNoResults means the results page loaded but no flight rows could be
	// extracted. Terminal for the run.
	ErrNoResults = errors.New("no flight results extracted")
)
