// internal/browser/tracker.go
package browser

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	cdppage "github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"go.uber.org/zap"
)

const networkIdleCheckFrequency = 50 * time.Millisecond

// networkTracker follows in-flight requests and the main frame's URL of a
// tab, and forwards the page's console output and uncaught exceptions to
// the logger.
type networkTracker struct {
	logger *zap.Logger

	mu        sync.RWMutex
	inflight  map[network.RequestID]struct{}
	mainFrame cdp.FrameID
	location  string
}

func newNetworkTracker(logger *zap.Logger) *networkTracker {
	return &networkTracker{
		logger:   logger,
		inflight: make(map[network.RequestID]struct{}),
	}
}

// handle is registered with chromedp.ListenTarget. It runs on the event
// loop and must not block.
func (t *networkTracker) handle(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		// Redirects reuse the request ID, so the set absorbs them.
		t.mu.Lock()
		t.inflight[e.RequestID] = struct{}{}
		t.mu.Unlock()
	case *cdppage.EventFrameNavigated:
		if e.Frame != nil && e.Frame.ParentID == "" {
			t.mu.Lock()
			t.mainFrame = e.Frame.ID
			t.location = e.Frame.URL + e.Frame.URLFragment
			t.mu.Unlock()
		}
	case *cdppage.EventNavigatedWithinDocument:
		// History API navigations, as used by client-side routing.
		t.mu.Lock()
		if e.FrameID == t.mainFrame {
			t.location = e.URL
		}
		t.mu.Unlock()
	case *network.EventLoadingFinished:
		t.finish(e.RequestID)
	case *network.EventLoadingFailed:
		t.finish(e.RequestID)
	case *cdpruntime.EventConsoleAPICalled:
		t.logConsole(e)
	case *cdpruntime.EventExceptionThrown:
		if e.ExceptionDetails != nil {
			t.logger.Warn("Uncaught exception in page.", zap.String("text", e.ExceptionDetails.Text))
		}
	}
}

func (t *networkTracker) finish(id network.RequestID) {
	t.mu.Lock()
	delete(t.inflight, id)
	t.mu.Unlock()
}

// currentURL is the main frame's last committed URL, or "" before the
// first navigation.
func (t *networkTracker) currentURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.location
}

func (t *networkTracker) active() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.inflight)
}

func (t *networkTracker) logConsole(e *cdpruntime.EventConsoleAPICalled) {
	parts := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		switch {
		case len(arg.Value) > 0:
			parts = append(parts, string(arg.Value))
		case arg.Description != "":
			parts = append(parts, arg.Description)
		}
	}
	msg := strings.Join(parts, " ")
	if e.Type == cdpruntime.APITypeError {
		t.logger.Warn("Browser console error.", zap.String("text", msg))
		return
	}
	t.logger.Debug("Browser console.", zap.String("type", string(e.Type)), zap.String("text", msg))
}

// waitIdle returns once no request has been in flight for quietPeriod.
// It fails with the context error when ctx or the tab's context ends first.
func (t *networkTracker) waitIdle(ctx context.Context, tab <-chan struct{}, quietPeriod time.Duration) error {
	timer := time.NewTimer(quietPeriod)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	isIdle := false
	ticker := time.NewTicker(networkIdleCheckFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tab:
			return context.Canceled
		case <-ticker.C:
			if t.active() > 0 {
				if isIdle {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					isIdle = false
				}
				continue
			}
			if !isIdle {
				timer.Reset(quietPeriod)
				isIdle = true
			}
		case <-timer.C:
			t.logger.Debug("Network is idle.")
			return nil
		}
	}
}
