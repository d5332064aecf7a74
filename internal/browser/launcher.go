// internal/browser/launcher.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/browser/stealth"
	"github.com/xkilldash9x/estate-scout/internal/config"
	"github.com/xkilldash9x/estate-scout/internal/humanoid"
)

// Launcher opens one dedicated headless browser per page. Pages never
// share a process, so concurrent scrapes stay isolated.
type Launcher struct {
	cfg         config.BrowserConfig
	quietPeriod time.Duration
	policy      humanoid.Policy
	persona     stealth.Persona
	logger      *zap.Logger
}

var _ dom.Opener = (*Launcher)(nil)

// NewLauncher creates a Launcher. quietPeriod is how long the network must
// stay silent before a page counts as idle.
func NewLauncher(cfg config.BrowserConfig, quietPeriod time.Duration, policy humanoid.Policy, logger *zap.Logger) *Launcher {
	persona := stealth.DefaultPersona
	if cfg.UserAgent != "" {
		persona.UserAgent = cfg.UserAgent
	}
	if cfg.Locale != "" {
		persona.Locale = cfg.Locale
		persona.Languages = []string{cfg.Locale, strings.SplitN(cfg.Locale, "-", 2)[0]}
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		persona.Width, persona.Height = cfg.WindowWidth, cfg.WindowHeight
	}
	return &Launcher{
		cfg:         cfg,
		quietPeriod: quietPeriod,
		policy:      policy,
		persona:     persona,
		logger:      logger.Named("browser"),
	}
}

// Open starts a browser process, attaches a tab and prepares it for
// scraping. ctx bounds startup only; the browser lives until Page.Close.
func (l *Launcher) Open(ctx context.Context) (dom.Page, error) {
	id := uuid.NewString()[:8]
	logger := l.logger.With(zap.String("page_id", id))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(Detach(ctx), buildAllocatorOptions(l.cfg, l.persona)...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Debugf),
	)

	p := &Page{
		id:          id,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		tracker:     newNetworkTracker(logger),
		policy:      l.policy,
		quietPeriod: l.quietPeriod,
		logger:      logger,
	}

	// The first Run allocates the browser and must not carry a deadline,
	// so startup is bounded from the outside.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()
	select {
	case err := <-started:
		if err != nil {
			p.teardown()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
	case <-ctx.Done():
		p.teardown()
		return nil, fmt.Errorf("browser launch interrupted: %w", ctx.Err())
	}

	chromedp.ListenTarget(tabCtx, p.tracker.handle)

	if err := p.run(ctx,
		network.Enable(),
		cdpruntime.Enable(),
		stealth.Apply(l.persona, logger),
	); err != nil {
		p.teardown()
		return nil, fmt.Errorf("failed to prepare browser tab: %w", err)
	}

	logger.Debug("Browser page opened.")
	return p, nil
}

// baseFlags are chromedp's default launch flags without enable-automation.
var baseFlags = map[string]interface{}{
	"no-first-run":                           true,
	"no-default-browser-check":               true,
	"disable-background-networking":          true,
	"disable-background-timer-throttling":    true,
	"disable-backgrounding-occluded-windows": true,
	"disable-breakpad":                       true,
	"disable-client-side-phishing-detection": true,
	"disable-default-apps":                   true,
	"disable-extensions":                     true,
	"disable-features":                       "site-per-process,Translate,BlinkGenPropertyTrees",
	"disable-hang-monitor":                   true,
	"disable-ipc-flooding-protection":        true,
	"disable-popup-blocking":                 true,
	"disable-prompt-on-repost":               true,
	"disable-renderer-backgrounding":         true,
	"disable-sync":                           true,
	"force-color-profile":                    "srgb",
	"metrics-recording-only":                 true,
	"safebrowsing-disable-auto-update":       true,
	"password-store":                         "basic",
	"use-mock-keychain":                      true,
}

// launchFlags resolves the command line flags for cfg. User supplied args
// are applied last and win over the defaults.
func launchFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := make(map[string]interface{}, len(baseFlags)+16)
	for k, v := range baseFlags {
		flags[k] = v
	}

	flags["headless"] = cfg.Headless
	flags["disable-blink-features"] = "AutomationControlled"
	flags["disable-setuid-sandbox"] = true
	flags["disable-dev-shm-usage"] = true
	flags["disable-accelerated-2d-canvas"] = true
	flags["disable-gpu"] = true
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
	}

	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			flags[flagName] = parts[1]
		} else {
			flags[flagName] = true
		}
	}
	return flags
}

func buildAllocatorOptions(cfg config.BrowserConfig, persona stealth.Persona) []chromedp.ExecAllocatorOption {
	flags := launchFlags(cfg)
	opts := make([]chromedp.ExecAllocatorOption, 0, len(flags)+3)
	for name, value := range flags {
		opts = append(opts, chromedp.Flag(name, value))
	}

	opts = append(opts, chromedp.UserAgent(persona.UserAgent))
	if persona.Width > 0 && persona.Height > 0 {
		opts = append(opts, chromedp.WindowSize(persona.Width, persona.Height))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}
