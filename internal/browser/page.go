// internal/browser/page.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/humanoid"
)

const closeTimeout = 10 * time.Second

// Page is a chromedp tab backed by its own browser process.
type Page struct {
	id          string
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	tracker     *networkTracker
	policy      humanoid.Policy
	quietPeriod time.Duration
	logger      *zap.Logger

	mu  sync.RWMutex
	url string

	closeOnce sync.Once
	closeErr  error
}

var _ dom.Page = (*Page)(nil)

// run executes actions on the tab under the caller's deadline.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(p.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (p *Page) Navigate(ctx context.Context, url string) (int, error) {
	runCtx, cancel := CombineContext(p.ctx, ctx)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()

	if resp == nil {
		return 0, nil
	}
	if resp.URL != "" {
		p.mu.Lock()
		p.url = resp.URL
		p.mu.Unlock()
	}
	return int(resp.Status), nil
}

func (p *Page) WaitFor(ctx context.Context, loc dom.Locator, cond dom.Condition) (dom.Element, error) {
	var nodes []*cdp.Node
	by := queryOption(loc.By)

	var tasks chromedp.Tasks
	if cond == dom.VisibleEnabled {
		tasks = append(tasks,
			chromedp.WaitVisible(loc.Query, by),
			chromedp.Nodes(loc.Query, &nodes, by, chromedp.NodeEnabled),
		)
	} else {
		tasks = append(tasks, chromedp.Nodes(loc.Query, &nodes, by, chromedp.NodeVisible))
	}

	if err := p.run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("wait for %s (%s): %w", loc, cond, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("wait for %s: %w", loc, dom.ErrNotFound)
	}
	return &element{page: p, node: nodes[0]}, nil
}

func (p *Page) QueryAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(loc.Query, &nodes, queryAllOption(loc.By), chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}
	return p.wrap(nodes), nil
}

// TypeText sends text as key events to the focused element. Callers that
// want a human cadence pass one rune at a time.
func (p *Page) TypeText(ctx context.Context, text string) error {
	return p.run(ctx, chromedp.KeyEvent(text))
}

func (p *Page) PressKey(ctx context.Context, key dom.Key) error {
	var k string
	switch key {
	case dom.KeyEnter:
		k = kb.Enter
	case dom.KeyTab:
		k = kb.Tab
	case dom.KeyEscape:
		k = kb.Escape
	default:
		return fmt.Errorf("unsupported key %q", key)
	}
	return p.run(ctx, chromedp.KeyEvent(k))
}

func (p *Page) WaitNetworkIdle(ctx context.Context) error {
	return p.tracker.waitIdle(ctx, p.ctx.Done(), p.quietPeriod)
}

func (p *Page) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, err
	}
	return buf, nil
}

// URL reports the main frame's current URL, following navigations the page
// made on its own (search submits, client-side routing). Before any frame
// event arrives it falls back to the last URL passed to Navigate.
func (p *Page) URL() string {
	if u := p.tracker.currentURL(); u != "" {
		return u
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

// Close shuts the tab and its browser process. Only the first call does
// any work; later calls return the first result.
func (p *Page) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, closeTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			err := chromedp.Cancel(p.ctx)
			p.cancelAlloc()
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				p.closeErr = fmt.Errorf("browser close: %w", err)
			}
		case <-ctx.Done():
			p.teardown()
			p.closeErr = fmt.Errorf("browser close timed out: %w", ctx.Err())
		}
		p.logger.Debug("Browser page closed.", zap.Error(p.closeErr))
	})
	return p.closeErr
}

// teardown cancels everything without waiting.
func (p *Page) teardown() {
	p.cancelTab()
	p.cancelAlloc()
}

func (p *Page) wrap(nodes []*cdp.Node) []dom.Element {
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{page: p, node: n})
	}
	return out
}

func queryOption(by dom.By) chromedp.QueryOption {
	if by == dom.ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func queryAllOption(by dom.By) chromedp.QueryOption {
	if by == dom.ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

// collapseSpace normalizes rendered text the way it reads on screen.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
