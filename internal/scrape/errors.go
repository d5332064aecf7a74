package scrape

import (
	"errors"
	"fmt"
	"strings"
)

// errUnknownTarget is wrapped by a ResolutionError for unregistered targets.
var errUnknownTarget = errors.New("target is not registered")

// StrategyFailure is one failed attempt at resolving a target.
type StrategyFailure struct {
	Strategy string
	Err      error
}

// ResolutionError means every strategy for a logical target failed.
type ResolutionError struct {
	Target   TargetID
	Attempts []StrategyFailure
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %q: %v", e.Target, e.Err)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("resolve %q: all %d strategies failed [%s]", e.Target, len(e.Attempts), strings.Join(parts, "; "))
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// NavigationError means the landing page did not load with a 2xx status.
type NavigationError struct {
	URL    string
	Status int
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("navigate to %s: %v", e.URL, e.Err)
	}
	if e.Status == 0 {
		return fmt.Sprintf("navigate to %s: no response", e.URL)
	}
	return fmt.Sprintf("navigate to %s: unexpected status %d", e.URL, e.Status)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// FilterApplicationError means the filter panel could not be opened.
type FilterApplicationError struct {
	Err error
}

func (e *FilterApplicationError) Error() string {
	return fmt.Sprintf("apply filters: %v", e.Err)
}

func (e *FilterApplicationError) Unwrap() error { return e.Err }

// ExtractionError means the result grid never appeared or could not be read.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract records: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ScrapeExhaustedError is the single error surfaced when every attempt failed.
type ScrapeExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ScrapeExhaustedError) Error() string {
	return fmt.Sprintf("scrape failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ScrapeExhaustedError) Unwrap() error { return e.Last }
