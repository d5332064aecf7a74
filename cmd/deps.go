package cmd

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/browser"
	"github.com/xkilldash9x/estate-scout/internal/config"
	"github.com/xkilldash9x/estate-scout/internal/humanoid"
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

// newScraper wires a browser-backed orchestrator. Tests replace it.
var newScraper = func(cfg *config.Config, logger *zap.Logger) scrape.Scraper {
	policy := humanoid.FromConfig(cfg.Humanoid)
	launcher := browser.NewLauncher(cfg.Browser, cfg.Scrape.NetworkQuietPeriod, policy, logger)
	return scrape.NewOrchestrator(launcher, cfg, policy, logger)
}
