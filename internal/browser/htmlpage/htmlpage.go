// Package htmlpage implements the page port over a static HTML document.
// It backs offline extraction from saved pages and serves as a recording
// fake for the scraping pipeline in tests.
package htmlpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
)

// ErrXPathUnsupported is returned for XPath locators; goquery only speaks CSS.
var ErrXPathUnsupported = errors.New("htmlpage: xpath locators are not supported")

// Action records one interaction performed against the page.
type Action struct {
	Kind   string // click, fill, focus, type, key, navigate
	Target string // data-test-id, id or tag of the element, empty for page level actions
	Value  string
}

// Page is a static document. Interactions mutate nothing but the value
// attribute of filled inputs; they are recorded for inspection.
type Page struct {
	doc    *goquery.Document
	status int

	mu      sync.Mutex
	url     string
	focused *element
	actions []Action
	closes  int
}

var _ dom.Page = (*Page)(nil)

// Option configures a Page.
type Option func(*Page)

// WithStatus sets the status Navigate reports. The default is 200.
func WithStatus(status int) Option {
	return func(p *Page) { p.status = status }
}

// WithURL sets the page's initial URL.
func WithURL(url string) Option {
	return func(p *Page) { p.url = url }
}

// New parses r into a Page.
func New(r io.Reader, opts ...Option) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: parse document: %w", err)
	}
	p := &Page{doc: doc, status: http.StatusOK}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FromString parses an HTML string.
func FromString(html string, opts ...Option) (*Page, error) {
	return New(strings.NewReader(html), opts...)
}

// FromFile parses a saved HTML file. The page has no URL unless WithURL
// is given.
func FromFile(path string, opts ...Option) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: %w", err)
	}
	defer f.Close()
	return New(f, opts...)
}

func (p *Page) record(a Action) {
	p.mu.Lock()
	p.actions = append(p.actions, a)
	p.mu.Unlock()
}

// Actions returns a copy of the interactions recorded so far.
func (p *Page) Actions() []Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Action(nil), p.actions...)
}

// Closes reports how many times Close was called.
func (p *Page) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

func (p *Page) Navigate(ctx context.Context, url string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	p.record(Action{Kind: "navigate", Value: url})
	return p.status, nil
}

// WaitFor does not wait: a static document never changes, so a missing or
// hidden element is reported at once.
func (p *Page) WaitFor(ctx context.Context, loc dom.Locator, cond dom.Condition) (dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if loc.By == dom.ByXPath {
		return nil, ErrXPathUnsupported
	}
	var found *element
	p.doc.Find(loc.Query).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		el := &element{page: p, sel: s}
		if !el.visible() {
			return true
		}
		if cond == dom.VisibleEnabled && el.disabled() {
			return true
		}
		found = el
		return false
	})
	if found == nil {
		return nil, fmt.Errorf("wait for %s (%s): %w", loc, cond, dom.ErrNotFound)
	}
	return found, nil
}

func (p *Page) QueryAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if loc.By == dom.ByXPath {
		return nil, ErrXPathUnsupported
	}
	return p.wrap(p.doc.Find(loc.Query)), nil
}

// TypeText appends text to the focused element's value.
func (p *Page) TypeText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	focused := p.focused
	p.mu.Unlock()

	target := ""
	if focused != nil {
		target = focused.name()
		value, _ := focused.sel.Attr("value")
		focused.sel.SetAttr("value", value+text)
	}
	p.record(Action{Kind: "type", Target: target, Value: text})
	return nil
}

func (p *Page) PressKey(ctx context.Context, key dom.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record(Action{Kind: "key", Value: string(key)})
	return nil
}

func (p *Page) WaitNetworkIdle(ctx context.Context) error {
	return ctx.Err()
}

func (p *Page) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.doc.Html()
}

// Screenshot is not available for a static document.
func (p *Page) Screenshot(context.Context) ([]byte, error) {
	return nil, errors.ErrUnsupported
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Close(context.Context) error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	return nil
}

func (p *Page) wrap(sel *goquery.Selection) []dom.Element {
	out := make([]dom.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{page: p, sel: s})
	})
	return out
}
