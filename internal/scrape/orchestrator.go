package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/config"
	"github.com/xkilldash9x/estate-scout/internal/humanoid"
)

// ErrEmptyLocation is returned by Run when no location is given.
var ErrEmptyLocation = errors.New("location is required")

// teardownTimeout bounds page close and diagnostics after an attempt,
// including attempts whose context already expired.
const teardownTimeout = 15 * time.Second

var defaultTracer = otel.Tracer("github.com/xkilldash9x/estate-scout/internal/scrape")

// Scraper is the behavior the API and CLI depend on.
type Scraper interface {
	Run(ctx context.Context, location string, spec FilterSpec) ([]PropertyRecord, error)
}

// Orchestrator runs whole scrape attempts against fresh pages and retries
// failed attempts with a constant delay.
type Orchestrator struct {
	opener     dom.Opener
	cfg        *config.Config
	policy     humanoid.Policy
	resolver   *Resolver
	applicator *FilterApplicator
	extractor  *RecordExtractor
	sink       DiagnosticSink
	tracer     trace.Tracer
	sessions   *semaphore.Weighted
	logger     *zap.Logger
}

var _ Scraper = (*Orchestrator)(nil)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDiagnostics replaces the sink chosen from the configuration.
func WithDiagnostics(sink DiagnosticSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithSessionLimit bounds concurrent pages across all runs. Zero or less
// removes the bound.
func WithSessionLimit(n int64) Option {
	return func(o *Orchestrator) {
		if n <= 0 {
			o.sessions = nil
			return
		}
		o.sessions = semaphore.NewWeighted(n)
	}
}

// NewOrchestrator wires the pipeline for the configured site.
func NewOrchestrator(opener dom.Opener, cfg *config.Config, policy humanoid.Policy, logger *zap.Logger, opts ...Option) *Orchestrator {
	logger = logger.Named("orchestrator")
	o := &Orchestrator{
		opener:     opener,
		cfg:        cfg,
		policy:     policy,
		resolver:   NewResolver(logger, cfg.Scrape.StrategyTimeout, SiteTargets(cfg.Site, cfg.Scrape)...),
		applicator: NewFilterApplicator(cfg.Scrape, logger),
		extractor:  NewRecordExtractor(cfg.Scrape, logger),
		sink:       NopSink{},
		tracer:     defaultTracer,
		logger:     logger,
	}
	if cfg.Scrape.DiagnosticsEnabled {
		o.sink = NewFileSink(cfg.Scrape.DiagnosticsDir, logger)
	}
	if cfg.Browser.MaxSessions > 0 {
		o.sessions = semaphore.NewWeighted(int64(cfg.Browser.MaxSessions))
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run scrapes listings for location with the given filters. It makes up to
// scrape.max_attempts attempts, each on a fresh page that is closed before
// the next attempt starts. When every attempt fails the error is a
// *ScrapeExhaustedError carrying the last cause. Cancelling ctx stops the
// retries at once.
func (o *Orchestrator) Run(ctx context.Context, location string, spec FilterSpec) ([]PropertyRecord, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}

	keys := spec.Keys()
	filterNames := make([]string, len(keys))
	for i, k := range keys {
		filterNames[i] = string(k)
	}

	ctx, span := o.tracer.Start(ctx, "scrape.Run", trace.WithAttributes(
		attribute.String("location", location),
		attribute.StringSlice("filters", filterNames),
	))
	defer span.End()

	logger := o.logger.With(
		zap.String("run_id", uuid.NewString()[:8]),
		zap.String("location", location),
	)

	if o.sessions != nil {
		if err := o.sessions.Acquire(ctx, 1); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("wait for a browser slot: %w", err)
		}
		defer o.sessions.Release(1)
	}

	maxAttempts := o.cfg.Scrape.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	logger.Info("Starting scrape.", zap.Strings("filters", filterNames), zap.Int("max_attempts", maxAttempts))

	var (
		attempt int
		records []PropertyRecord
	)
	operation := func() error {
		attempt++
		recs, err := o.attempt(ctx, logger, attempt, location, spec)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			logger.Warn("Scrape attempt failed.",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Error(err),
			)
			return err
		}
		records = recs
		return nil
	}
	notify := func(err error, next time.Duration) {
		logger.Info("Retrying scrape.", zap.Int("next_attempt", attempt+1), zap.Duration("delay", next))
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.cfg.Scrape.RetryDelay), uint64(maxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(operation, policy, notify)
	if err == nil {
		span.SetAttributes(attribute.Int("attempts", attempt), attribute.Int("records", len(records)))
		logger.Info("Scrape finished.", zap.Int("attempts", attempt), zap.Int("records", len(records)))
		return records, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if ctx.Err() != nil {
		logger.Warn("Scrape cancelled.", zap.Int("attempts", attempt), zap.Error(ctx.Err()))
		return nil, fmt.Errorf("scrape cancelled after %d attempts: %w", attempt, ctx.Err())
	}

	exhausted := &ScrapeExhaustedError{Attempts: attempt, Last: err}
	logger.Error("Scrape attempts exhausted.", zap.Int("attempts", attempt), zap.Error(err))
	return nil, exhausted
}

// attempt runs the pipeline once on a fresh page. The page is closed on
// every return path, panics included.
func (o *Orchestrator) attempt(ctx context.Context, logger *zap.Logger, n int, location string, spec FilterSpec) (records []PropertyRecord, err error) {
	ctx, span := o.tracer.Start(ctx, "scrape.Attempt", trace.WithAttributes(attribute.Int("attempt", n)))
	defer span.End()

	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.Scrape.AttemptTimeout)
	defer cancel()

	logger = logger.With(zap.Int("attempt", n))
	session, err := OpenSession(attemptCtx, o.opener, o.resolver, o.policy, o.cfg.Scrape, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	defer func() {
		teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.sink.Capture(teardownCtx, n, session.Page(), err)
		}
		_ = session.Close(teardownCtx)
	}()
	defer func() {
		if p := recover(); p != nil {
			records = nil
			err = fmt.Errorf("attempt %d panicked: %v", n, p)
		}
	}()

	return o.pipeline(attemptCtx, session, location, spec)
}

func (o *Orchestrator) pipeline(ctx context.Context, s *Session, location string, spec FilterSpec) ([]PropertyRecord, error) {
	if err := s.Navigate(ctx, o.cfg.Site.BaseURL); err != nil {
		return nil, err
	}
	if _, err := s.DismissCookieConsent(ctx); err != nil {
		return nil, err
	}
	if err := s.SubmitSearch(ctx, location); err != nil {
		return nil, err
	}
	if _, err := o.applicator.Apply(ctx, s, spec); err != nil {
		return nil, err
	}
	return o.collect(ctx, s)
}

func (o *Orchestrator) collect(ctx context.Context, s *Session) ([]PropertyRecord, error) {
	recs, err := o.extractor.Extract(ctx, s)
	if err != nil {
		return nil, err
	}
	out := recs.Collect(ctx)
	if err := ctx.Err(); err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("interrupted after %d records: %w", len(out), err)}
	}

	stats := recs.Stats()
	o.logger.Info("Extraction complete.",
		zap.String("session_id", s.ID()),
		zap.Int("cards", stats.Cards),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("accepted", stats.Accepted),
	)
	return out, nil
}

// ExtractPage reads records from a page that already shows a result grid,
// such as a saved snapshot. The page is not closed.
func (o *Orchestrator) ExtractPage(ctx context.Context, page dom.Page) ([]PropertyRecord, error) {
	s := NewSession(page, o.resolver, o.policy, o.cfg.Scrape, o.logger)
	return o.collect(ctx, s)
}
