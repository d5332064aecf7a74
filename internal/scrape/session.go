package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/config"
	"github.com/xkilldash9x/estate-scout/internal/humanoid"
)

// State is the lifecycle position of a Session. States only move forward;
// Closed and Errored are terminal for page interaction.
type State int

const (
	StateCreated State = iota
	StateNavigated
	StateCookiesResolved
	StateSearchSubmitted
	StateFiltersApplied
	StateResultsReady
	StateErrored
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateNavigated:
		return "navigated"
	case StateCookiesResolved:
		return "cookies-resolved"
	case StateSearchSubmitted:
		return "search-submitted"
	case StateFiltersApplied:
		return "filters-applied"
	case StateResultsReady:
		return "results-ready"
	case StateErrored:
		return "errored"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrSessionUnusable is returned by operations on a closed or errored session.
var ErrSessionUnusable = errors.New("session is no longer usable")

// Session drives one page through the search flow: landing page, cookie
// banner, location search. It owns the page and releases it on Close.
type Session struct {
	id       string
	page     dom.Page
	resolver *Resolver
	policy   humanoid.Policy
	cfg      config.ScrapeConfig
	logger   *zap.Logger

	mu    sync.Mutex
	state State

	closeOnce sync.Once
	closeErr  error
}

// OpenSession acquires a page from opener and wraps it in a Session.
func OpenSession(ctx context.Context, opener dom.Opener, resolver *Resolver, policy humanoid.Policy, cfg config.ScrapeConfig, logger *zap.Logger) (*Session, error) {
	page, err := opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return NewSession(page, resolver, policy, cfg, logger), nil
}

// NewSession wraps an already open page.
func NewSession(page dom.Page, resolver *Resolver, policy humanoid.Policy, cfg config.ScrapeConfig, logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:       id,
		page:     page,
		resolver: resolver,
		policy:   policy,
		cfg:      cfg,
		logger:   logger.Named("session").With(zap.String("session_id", id)),
		state:    StateCreated,
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Page() dom.Page { return s.page }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// advance moves the session to a later state.
func (s *Session) advance(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed || s.state == StateErrored {
		return fmt.Errorf("%w: session is %s", ErrSessionUnusable, s.state)
	}
	if to < s.state {
		return fmt.Errorf("invalid session transition %s -> %s", s.state, to)
	}
	s.state = to
	return nil
}

func (s *Session) usable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed || s.state == StateErrored {
		return fmt.Errorf("%w: session is %s", ErrSessionUnusable, s.state)
	}
	return nil
}

// fail marks the session errored and returns err.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	if s.state != StateClosed {
		s.state = StateErrored
	}
	s.mu.Unlock()
	return err
}

// Navigate loads url and requires a 2xx main document.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.usable(); err != nil {
		return err
	}
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	s.logger.Info("Navigating.", zap.String("url", url))
	status, err := s.page.Navigate(navCtx, url)
	if err != nil {
		return s.fail(&NavigationError{URL: url, Status: status, Err: err})
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return s.fail(&NavigationError{URL: url, Status: status})
	}
	if err := s.SettleNetwork(ctx); err != nil {
		return s.fail(err)
	}
	return s.advance(StateNavigated)
}

// DismissCookieConsent clicks the consent banner when one shows up. A
// missing banner is normal and not an error.
func (s *Session) DismissCookieConsent(ctx context.Context) (bool, error) {
	if err := s.usable(); err != nil {
		return false, err
	}

	el, err := s.resolver.probe(ctx, s.page, TargetCookieConsent)
	if err != nil {
		if ctx.Err() != nil {
			return false, s.fail(ctx.Err())
		}
		s.logger.Debug("No cookie consent banner.")
		return false, s.advance(StateCookiesResolved)
	}

	if err := el.Click(ctx); err != nil {
		if ctx.Err() != nil {
			return false, s.fail(ctx.Err())
		}
		s.logger.Warn("Cookie consent banner could not be dismissed.", zap.Error(err))
		return false, s.advance(StateCookiesResolved)
	}
	s.logger.Info("Cookie consent accepted.")
	return true, s.advance(StateCookiesResolved)
}

// SubmitSearch types location into the search box and submits it.
func (s *Session) SubmitSearch(ctx context.Context, location string) error {
	if err := s.usable(); err != nil {
		return err
	}

	input, err := s.Resolve(ctx, TargetSearchInput)
	if err != nil {
		return s.fail(err)
	}
	if err := input.Fill(ctx, ""); err != nil {
		return s.fail(fmt.Errorf("clear search input: %w", err))
	}
	if err := input.Focus(ctx); err != nil {
		return s.fail(fmt.Errorf("focus search input: %w", err))
	}
	if err := s.Type(ctx, location); err != nil {
		return s.fail(fmt.Errorf("type location: %w", err))
	}
	if err := s.Pause(ctx, s.cfg.PostSearchWait); err != nil {
		return s.fail(err)
	}

	button, err := s.Resolve(ctx, TargetSearchButton)
	if err != nil {
		return s.fail(err)
	}
	if err := button.Click(ctx); err != nil {
		return s.fail(fmt.Errorf("click search button: %w", err))
	}
	if err := s.SettleNetwork(ctx); err != nil {
		return s.fail(err)
	}
	// The filter bar renders with the grid. Its absence here is reported
	// later by whichever step needs it.
	if _, err := s.resolver.probe(ctx, s.page, TargetResultsGrid); err != nil {
		if ctx.Err() != nil {
			return s.fail(ctx.Err())
		}
		s.logger.Debug("Results grid not visible after search.", zap.Error(err))
	}

	s.logger.Info("Search submitted.", zap.String("location", location))
	return s.advance(StateSearchSubmitted)
}

// Resolve finds a logical target on the session's page.
func (s *Session) Resolve(ctx context.Context, id TargetID) (dom.Element, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, s.page, id)
}

// Type sends text to the focused element one key at a time, paced by the
// humanoid policy.
func (s *Session) Type(ctx context.Context, text string) error {
	runes := []rune(text)
	for i, r := range runes {
		if err := s.policy.Pause(ctx, s.policy.KeyDelay(runes, i)); err != nil {
			return err
		}
		if err := s.page.TypeText(ctx, string(r)); err != nil {
			return err
		}
	}
	return nil
}

// Pause waits d, honoring cancellation.
func (s *Session) Pause(ctx context.Context, d time.Duration) error {
	return s.policy.Pause(ctx, d)
}

// SettleNetwork waits for network quiet for at most the configured idle
// timeout. Pages with long-lived connections never go quiet, so running
// out of time is logged and otherwise ignored. Only cancellation of ctx
// is returned.
func (s *Session) SettleNetwork(ctx context.Context) error {
	idleCtx, cancel := context.WithTimeout(ctx, s.cfg.NetworkIdleTimeout)
	defer cancel()

	if err := s.page.WaitNetworkIdle(idleCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("Network did not go idle in time; continuing.", zap.Error(err))
	}
	return nil
}

// Close releases the page. Only the first call reaches the page.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()

		s.closeErr = s.page.Close(ctx)
		if s.closeErr != nil {
			s.logger.Warn("Page close failed.", zap.Error(s.closeErr))
		}
	})
	return s.closeErr
}
