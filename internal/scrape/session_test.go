package scrape_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/estate-scout/internal/browser/htmlpage"
	"github.com/xkilldash9x/estate-scout/internal/humanoid"
	"github.com/xkilldash9x/estate-scout/internal/mocks"
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

func TestSessionNavigate(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	t.Run("200 advances the session", func(t *testing.T) {
		page := fixturePage(t)
		s := newSession(cfg, page, zap.NewNop())

		require.NoError(t, s.Navigate(ctx, siteURL))
		assert.Equal(t, scrape.StateNavigated, s.State())
		assert.Equal(t, siteURL, page.URL())
	})

	t.Run("any 2xx advances the session", func(t *testing.T) {
		for _, status := range []int{http.StatusNonAuthoritativeInfo, http.StatusNoContent, 299} {
			page := fixturePage(t, htmlpage.WithStatus(status))
			s := newSession(cfg, page, zap.NewNop())

			require.NoError(t, s.Navigate(ctx, siteURL), "status %d", status)
			assert.Equal(t, scrape.StateNavigated, s.State())
		}
	})

	t.Run("3xx is a navigation error", func(t *testing.T) {
		page := fixturePage(t, htmlpage.WithStatus(http.StatusMultipleChoices))
		s := newSession(cfg, page, zap.NewNop())

		var navErr *scrape.NavigationError
		require.ErrorAs(t, s.Navigate(ctx, siteURL), &navErr)
		assert.Equal(t, http.StatusMultipleChoices, navErr.Status)
	})

	t.Run("non-2xx is a navigation error", func(t *testing.T) {
		page := fixturePage(t, htmlpage.WithStatus(http.StatusServiceUnavailable))
		s := newSession(cfg, page, zap.NewNop())

		err := s.Navigate(ctx, siteURL)
		var navErr *scrape.NavigationError
		require.ErrorAs(t, err, &navErr)
		assert.Equal(t, http.StatusServiceUnavailable, navErr.Status)
		assert.Equal(t, scrape.StateErrored, s.State())

		// Errored is absorbing.
		err = s.SubmitSearch(ctx, "Bogota")
		assert.ErrorIs(t, err, scrape.ErrSessionUnusable)
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		boom := errors.New("net::ERR_NAME_NOT_RESOLVED")
		page := new(mocks.MockPage)
		page.On("Navigate", mock.Anything, siteURL).Return(0, boom)

		resolver := scrape.NewResolver(zap.NewNop(), cfg.Scrape.StrategyTimeout)
		s := scrape.NewSession(page, resolver, humanoid.Instant{}, cfg.Scrape, zap.NewNop())

		err := s.Navigate(ctx, siteURL)
		var navErr *scrape.NavigationError
		require.ErrorAs(t, err, &navErr)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), siteURL)
	})
}

func TestSessionCookieConsent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	t.Run("banner present", func(t *testing.T) {
		page := fixturePage(t)
		s := newSession(cfg, page, zap.NewNop())

		dismissed, err := s.DismissCookieConsent(ctx)
		require.NoError(t, err)
		assert.True(t, dismissed)
		assert.Equal(t, []htmlpage.Action{{Kind: "click", Target: "didomi-notice-agree-button"}}, page.Actions())
		assert.Equal(t, scrape.StateCookiesResolved, s.State())
	})

	t.Run("banner absent is quiet", func(t *testing.T) {
		logger, logs := observedLogger(zapcore.InfoLevel)
		page := htmlPage(t, `<html><body><p>no banner</p></body></html>`)
		s := newSession(cfg, page, logger)

		dismissed, err := s.DismissCookieConsent(ctx)
		require.NoError(t, err)
		assert.False(t, dismissed)
		assert.Equal(t, scrape.StateCookiesResolved, s.State())
		assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	})
}

func TestSessionSubmitSearch(t *testing.T) {
	ctx := context.Background()
	page := fixturePage(t)
	s := newSession(testConfig(), page, zap.NewNop())

	require.NoError(t, s.SubmitSearch(ctx, "Bogotá"))
	assert.Equal(t, scrape.StateSearchSubmitted, s.State())

	const input = "search-components_location-search_input"
	want := []htmlpage.Action{
		{Kind: "fill", Target: input},
		{Kind: "focus", Target: input},
		{Kind: "type", Target: input, Value: "B"},
		{Kind: "type", Target: input, Value: "o"},
		{Kind: "type", Target: input, Value: "g"},
		{Kind: "type", Target: input, Value: "o"},
		{Kind: "type", Target: input, Value: "t"},
		{Kind: "type", Target: input, Value: "á"},
		{Kind: "click", Target: "search-components_search-button"},
	}
	if diff := cmp.Diff(want, page.Actions()); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionSubmitSearchWithoutInput(t *testing.T) {
	page := htmlPage(t, `<html><body><button type="submit">Buscar</button></body></html>`)
	s := newSession(testConfig(), page, zap.NewNop())

	err := s.SubmitSearch(context.Background(), "Bogota")
	var resErr *scrape.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, scrape.TargetSearchInput, resErr.Target)
	assert.Len(t, resErr.Attempts, 3)
	assert.Equal(t, scrape.StateErrored, s.State())
}

func TestSessionCloseOnce(t *testing.T) {
	page := fixturePage(t)
	s := newSession(testConfig(), page, zap.NewNop())

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, page.Closes())
	assert.Equal(t, scrape.StateClosed, s.State())

	err := s.Navigate(context.Background(), siteURL)
	assert.ErrorIs(t, err, scrape.ErrSessionUnusable)
}

func TestOpenSession(t *testing.T) {
	cfg := testConfig()
	resolver := scrape.NewResolver(zap.NewNop(), cfg.Scrape.StrategyTimeout)

	t.Run("wraps the opened page", func(t *testing.T) {
		page := fixturePage(t)
		opener := new(mocks.MockOpener)
		opener.On("Open", mock.Anything).Return(page, nil)

		s, err := scrape.OpenSession(context.Background(), opener, resolver, humanoid.Instant{}, cfg.Scrape, zap.NewNop())
		require.NoError(t, err)
		assert.Same(t, page, s.Page())
		assert.NotEmpty(t, s.ID())
		assert.Equal(t, scrape.StateCreated, s.State())
	})

	t.Run("open failure", func(t *testing.T) {
		opener := new(mocks.MockOpener)
		opener.On("Open", mock.Anything).Return(nil, errors.New("chrome not found"))

		_, err := scrape.OpenSession(context.Background(), opener, resolver, humanoid.Instant{}, cfg.Scrape, zap.NewNop())
		assert.ErrorContains(t, err, "chrome not found")
	})
}
