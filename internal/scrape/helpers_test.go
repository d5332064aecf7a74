package scrape_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/estate-scout/internal/browser/htmlpage"
	"github.com/xkilldash9x/estate-scout/internal/config"
	"github.com/xkilldash9x/estate-scout/internal/humanoid"
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

const siteURL = "https://www.engelvoelkers.com/co/es"

// testConfig returns defaults with every settle delay removed.
func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Scrape.RetryDelay = time.Millisecond
	cfg.Scrape.PostSearchWait = 0
	cfg.Scrape.PostFilterWait = 0
	cfg.Scrape.TypeSettle = 0
	cfg.Scrape.FillSettle = 0
	cfg.Scrape.StrategyTimeout = 100 * time.Millisecond
	cfg.Scrape.FieldTimeout = 100 * time.Millisecond
	cfg.Scrape.NetworkIdleTimeout = 100 * time.Millisecond
	cfg.Scrape.DiagnosticsEnabled = false
	return cfg
}

func observedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func fixturePage(t *testing.T, opts ...htmlpage.Option) *htmlpage.Page {
	t.Helper()
	page, err := htmlpage.FromFile(filepath.Join("testdata", "results.html"), opts...)
	require.NoError(t, err)
	return page
}

func htmlPage(t *testing.T, html string, opts ...htmlpage.Option) *htmlpage.Page {
	t.Helper()
	page, err := htmlpage.FromString(html, opts...)
	require.NoError(t, err)
	return page
}

func newSession(cfg *config.Config, page *htmlpage.Page, logger *zap.Logger) *scrape.Session {
	resolver := scrape.NewResolver(logger, cfg.Scrape.StrategyTimeout, scrape.SiteTargets(cfg.Site, cfg.Scrape)...)
	return scrape.NewSession(page, resolver, humanoid.Instant{}, cfg.Scrape, logger)
}

// actionsOf keeps the recorded actions of one kind.
func actionsOf(page *htmlpage.Page, kind string) []htmlpage.Action {
	var out []htmlpage.Action
	for _, a := range page.Actions() {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}
