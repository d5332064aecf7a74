package scrape

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/config"
)

// ExtractStats counts what happened to the cards of one extraction.
type ExtractStats struct {
	Cards int
	// Skipped cards had no visible price.
	Skipped int
	// Failed cards raised an error while being read.
	Failed int
	// Candidates had a price and went on to the acceptance check.
	Candidates int
	Accepted   int
}

type cardOutcome int

const (
	cardAccepted cardOutcome = iota
	cardSkipped
	cardDiscarded
	cardFailed
)

var optionalFields = []struct {
	field   Field
	locator dom.Locator
}{
	{FieldLocation, locationLocator},
	{FieldHeadline, headlineLocator},
	{FieldBedrooms, bedroomsLocator},
	{FieldBathrooms, bathroomsLocator},
}

// RecordExtractor reads property records from the result cards of a
// session's page.
type RecordExtractor struct {
	cfg    config.ScrapeConfig
	logger *zap.Logger
}

func NewRecordExtractor(cfg config.ScrapeConfig, logger *zap.Logger) *RecordExtractor {
	return &RecordExtractor{cfg: cfg, logger: logger.Named("extractor")}
}

// Records is the lazy result of one extraction. The cards belong to the
// page as it was when Extract ran, so the sequence can be consumed once.
type Records struct {
	x     *RecordExtractor
	cards []dom.Element
	base  *url.URL

	consumed atomic.Bool
	mu       sync.Mutex
	stats    ExtractStats
}

// Extract locates the result grid and its cards. A grid that never shows
// up is an *ExtractionError. A grid without cards is an empty result.
func (x *RecordExtractor) Extract(ctx context.Context, s *Session) (*Records, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}

	grid, err := s.Resolve(ctx, TargetResultsGrid)
	if err != nil {
		if ctx.Err() != nil {
			return nil, s.fail(ctx.Err())
		}
		return nil, s.fail(&ExtractionError{Err: err})
	}

	cards, err := grid.QueryAll(ctx, cardLocator)
	if err != nil {
		return nil, s.fail(&ExtractionError{Err: fmt.Errorf("list cards: %w", err)})
	}
	if len(cards) == 0 {
		// Cards render after the grid; give the first one a bounded chance.
		if _, err := s.resolver.probe(ctx, s.page, TargetFirstResultCard); err == nil {
			cards, err = grid.QueryAll(ctx, cardLocator)
			if err != nil {
				return nil, s.fail(&ExtractionError{Err: fmt.Errorf("list cards: %w", err)})
			}
		} else if ctx.Err() != nil {
			return nil, s.fail(ctx.Err())
		}
	}

	x.logger.Info("Result cards found.", zap.Int("cards", len(cards)))
	if err := s.advance(StateResultsReady); err != nil {
		return nil, err
	}

	r := &Records{x: x, cards: cards, stats: ExtractStats{Cards: len(cards)}}
	if base, err := url.Parse(s.page.URL()); err == nil && (base.Scheme == "http" || base.Scheme == "https") {
		r.base = base
	}
	return r, nil
}

// All yields accepted records in card order. Cards are read as the
// sequence is consumed; a card that fails is logged and skipped. A second
// call yields nothing.
func (r *Records) All(ctx context.Context) iter.Seq[PropertyRecord] {
	return func(yield func(PropertyRecord) bool) {
		if !r.consumed.CompareAndSwap(false, true) {
			r.x.logger.Warn("Record sequence already consumed.")
			return
		}
		for i, card := range r.cards {
			if ctx.Err() != nil {
				return
			}
			rec, outcome, err := r.x.extractCard(ctx, card, r.base)
			r.count(outcome)

			switch outcome {
			case cardSkipped:
				r.x.logger.Info("Card has no visible price; skipping.", zap.Int("card", i))
				continue
			case cardFailed:
				r.x.logger.Error("Card could not be read; skipping.", zap.Int("card", i), zap.Error(err))
				continue
			case cardDiscarded:
				r.x.logger.Info("Card lacks location and headline; discarding.",
					zap.Int("card", i),
					zap.Strings("fields", rec.Keys()),
				)
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Collect drains the sequence into a slice.
func (r *Records) Collect(ctx context.Context) []PropertyRecord {
	out := make([]PropertyRecord, 0, len(r.cards))
	for rec := range r.All(ctx) {
		out = append(out, rec)
	}
	return out
}

// Stats returns the counters accumulated so far.
func (r *Records) Stats() ExtractStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Records) count(o cardOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch o {
	case cardSkipped:
		r.stats.Skipped++
	case cardFailed:
		r.stats.Failed++
	case cardDiscarded:
		r.stats.Candidates++
	case cardAccepted:
		r.stats.Candidates++
		r.stats.Accepted++
	}
}

// extractCard reads one card. Panics from the page layer stay inside the
// card.
func (x *RecordExtractor) extractCard(ctx context.Context, card dom.Element, base *url.URL) (rec PropertyRecord, outcome cardOutcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			outcome = cardFailed
			err = fmt.Errorf("panic reading card: %v", p)
		}
	}()

	cardCtx, cancel := context.WithTimeout(ctx, x.cfg.CardTimeout)
	defer cancel()

	price, ok, err := visibleText(cardCtx, card, priceLocator)
	if err != nil {
		return rec, cardFailed, fmt.Errorf("read price: %w", err)
	}
	if !ok {
		return rec, cardSkipped, nil
	}

	fields := map[Field]string{FieldPrice: price}
	for _, of := range optionalFields {
		v, ok, err := visibleText(cardCtx, card, of.locator)
		if err != nil {
			x.logger.Debug("Optional card field unreadable.", zap.String("field", string(of.field)), zap.Error(err))
			continue
		}
		if ok {
			fields[of.field] = v
		}
	}
	if link := x.cardURL(cardCtx, card, base); link != "" {
		fields[FieldURL] = link
	}

	rec = NewRecord(fields)
	if !rec.Accepted() {
		return rec, cardDiscarded, nil
	}
	return rec, cardAccepted, nil
}

// cardURL finds the detail link through the card's own identifier, falling
// back to any link inside the card. Failures leave the url unset.
func (x *RecordExtractor) cardURL(ctx context.Context, card dom.Element, base *url.URL) string {
	locators := []dom.Locator{anyLinkLocator}
	if id, ok, err := card.Attribute(ctx, "data-test-id"); err == nil && ok && id != "" {
		locators = []dom.Locator{cardLinkLocator(id), anyLinkLocator}
	}

	for _, loc := range locators {
		links, err := card.QueryAll(ctx, loc)
		if err != nil {
			x.logger.Debug("Card link lookup failed.", zap.Stringer("locator", loc), zap.Error(err))
			continue
		}
		for _, link := range links {
			href, ok, err := link.Attribute(ctx, "href")
			if err != nil || !ok || href == "" {
				continue
			}
			return absolute(base, href)
		}
	}
	return ""
}

func absolute(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// visibleText returns the text of the first match of loc inside scope when
// that match is visible and not blank.
func visibleText(ctx context.Context, scope dom.Element, loc dom.Locator) (string, bool, error) {
	els, err := scope.QueryAll(ctx, loc)
	if err != nil {
		return "", false, err
	}
	if len(els) == 0 {
		return "", false, nil
	}
	visible, err := els[0].Visible(ctx)
	if err != nil {
		return "", false, err
	}
	if !visible {
		return "", false, nil
	}
	text, err := els[0].Text(ctx)
	if err != nil {
		return "", false, err
	}
	return text, text != "", nil
}
