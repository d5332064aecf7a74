package stealth

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// evasionsScript hides the most common automation tells before any page
// script runs.
const evasionsScript = `(() => {
  Object.defineProperty(Navigator.prototype, 'webdriver', { get: () => undefined });
  if (!window.chrome) { window.chrome = { runtime: {} }; }
  const langs = %s;
  Object.defineProperty(Navigator.prototype, 'languages', { get: () => langs });
})();`

// Persona defines the browser characteristics to emulate.
type Persona struct {
	UserAgent string
	Platform  string
	Languages []string
	Locale    string
	Width     int
	Height    int
}

// DefaultPersona matches a desktop Chrome on Windows browsing the
// Colombian site.
var DefaultPersona = Persona{
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	Platform:  "Win32",
	Languages: []string{"es-CO", "es"},
	Locale:    "es-CO",
	Width:     1920,
	Height:    1080,
}

// Script renders the evasion script for p.
func (p Persona) Script() string {
	quoted := make([]string, 0, len(p.Languages))
	for _, l := range p.Languages {
		quoted = append(quoted, fmt.Sprintf("%q", l))
	}
	return fmt.Sprintf(evasionsScript, "["+strings.Join(quoted, ",")+"]")
}

// AcceptLanguage renders the Accept-Language header for p.
func (p Persona) AcceptLanguage() string {
	switch len(p.Languages) {
	case 0:
		return "en-US"
	case 1:
		return p.Languages[0]
	default:
		return fmt.Sprintf("%s,%s;q=0.9", p.Languages[0], p.Languages[1])
	}
}

// Apply returns the CDP actions that make a headless tab present as p.
func Apply(p Persona, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser stealth persona",
		zap.String("userAgent", p.UserAgent),
		zap.String("locale", p.Locale),
	)

	tasks := chromedp.Tasks{
		emulation.SetUserAgentOverride(p.UserAgent).WithPlatform(p.Platform).WithAcceptLanguage(p.AcceptLanguage()),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := page.AddScriptToEvaluateOnNewDocument(p.Script()).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": p.AcceptLanguage()}),
	}
	if p.Locale != "" {
		tasks = append(tasks, emulation.SetLocaleOverride().WithLocale(p.Locale))
	}
	if p.Width > 0 && p.Height > 0 {
		tasks = append(tasks, emulation.SetDeviceMetricsOverride(int64(p.Width), int64(p.Height), 1, false))
	}
	return tasks
}
